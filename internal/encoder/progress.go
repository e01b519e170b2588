package encoder

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Progress is one encode progress update.
type Progress struct {
	Frame   int
	Total   int
	Percent int
	Done    bool
}

// readProgress consumes ffmpeg "-progress" key=value lines from r until EOF.
// Updates are sent only when the percentage changes. A nil out drains r.
func readProgress(r io.Reader, total int, out chan<- Progress) {
	scanner := bufio.NewScanner(r)
	last := -1
	frame := 0
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "frame":
			n, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			frame = n
			pct := percent(frame, total)
			if pct != last && out != nil {
				out <- Progress{Frame: frame, Total: total, Percent: pct}
				last = pct
			}
		case "progress":
			if value == "end" && out != nil {
				out <- Progress{Frame: frame, Total: total, Percent: 100, Done: true}
			}
		}
	}
	// Keep draining so ffmpeg never blocks on a full pipe.
	io.Copy(io.Discard, r)
}

func percent(frame, total int) int {
	if total <= 0 {
		return 0
	}
	return min(100, max(0, frame*100/total))
}
