package encoder

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const maxPathSegment = 50

var (
	unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
	unsafeHost     = regexp.MustCompile(`[^a-zA-Z0-9-]`)
	unsafePath     = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// SanitizeFilename replaces every character outside [A-Za-z0-9_.-] with "_".
func SanitizeFilename(name string) string {
	return unsafeFilename.ReplaceAllString(name, "_")
}

// OutputName returns the file name of a recording. A custom name is used
// as-is after sanitizing; otherwise the name is derived from the URL:
// <host>[_<path>]_<pc|m>_<YYYYMMDD_HHMMSS>.<format>.
func OutputName(rawURL, device string, format Format, custom string, now time.Time) string {
	if custom != "" {
		return fmt.Sprintf("%s.%s", SanitizeFilename(custom), format)
	}

	prefix, pathPart := "website", ""
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host := strings.TrimPrefix(u.Hostname(), "www.")
		prefix = unsafeHost.ReplaceAllString(host, "_")

		p := unsafePath.ReplaceAllString(strings.Trim(u.Path, "/"), "_")
		if len(p) > maxPathSegment {
			p = p[:maxPathSegment]
		}
		if p != "" {
			pathPart = "_" + p
		}
	}

	devicePrefix := "pc"
	if device == "mobile" {
		devicePrefix = "m"
	}
	return fmt.Sprintf("%s%s_%s_%s.%s", prefix, pathPart, devicePrefix, now.Format("20060102_150405"), format)
}

// OutputPath joins dir and OutputName.
func OutputPath(dir, rawURL, device string, format Format, custom string, now time.Time) string {
	return filepath.Join(dir, OutputName(rawURL, device, format, custom, now))
}
