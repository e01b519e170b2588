package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// PromptForURL asks for the page to record. An https:// scheme is added
// when the answer has none. Returns "" if nothing was entered.
func PromptForURL(in io.Reader, out io.Writer) string {
	fmt.Fprint(out, "URL to record: ")

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		log.Warn().Err(err).Msg("Failed to read URL from input")
		return ""
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}
	return input
}
