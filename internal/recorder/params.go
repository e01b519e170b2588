package recorder

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// ApplyParams sets the query parameters listed in params ("lang:en,theme:dark")
// on rawURL. Each entry is split on its first ':'; entries with an empty key
// or value are skipped. An unparsable URL is returned unchanged.
func ApplyParams(rawURL, params string) string {
	if strings.TrimSpace(params) == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("Failed to parse URL, params not applied")
		return rawURL
	}

	q := u.Query()
	applied := 0
	for _, entry := range strings.Split(params, ",") {
		key, value, ok := strings.Cut(entry, ":")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			if strings.TrimSpace(entry) != "" {
				log.Warn().Str("param", entry).Msg("Skipping malformed URL param")
			}
			continue
		}
		q.Set(key, value)
		applied++
	}
	if applied == 0 {
		return rawURL
	}
	u.RawQuery = q.Encode()
	log.Debug().Int("params", applied).Str("url", u.String()).Msg("Applied URL params")
	return u.String()
}
