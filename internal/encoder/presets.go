// Package encoder turns a captured frame sequence into an animated GIF or an
// MP4 using FFmpeg, and renders a small poster image of the first frame.
package encoder

import (
	"fmt"
	"strings"
)

// Format is the container of the encoded recording.
type Format string

const (
	FormatGIF Format = "gif"
	FormatMP4 Format = "mp4"
)

// ParseFormat accepts "gif" or "mp4" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatGIF, "":
		return FormatGIF, nil
	case FormatMP4:
		return FormatMP4, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want gif or mp4)", s)
	}
}

// Quality tiers.
const (
	QualityUltra  = "ultra"
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// Preset holds the palette and filter settings of one quality tier.
type Preset struct {
	MaxColors  int
	Dither     string
	BayerScale int // only used with bayer dithering
	DiffMode   string
	Unsharp    string
	ScaleFlags string
	StatsMode  string
	// FinalDelay is the hold on the last GIF frame, in centiseconds.
	FinalDelay int
}

var presets = map[string]Preset{
	QualityUltra: {
		MaxColors:  256,
		Dither:     "sierra2_4a",
		DiffMode:   "rectangle",
		Unsharp:    "3:3:0.5:3:3:0.0",
		ScaleFlags: "lanczos+accurate_rnd",
		StatsMode:  "full",
		FinalDelay: 50,
	},
	QualityHigh: {
		MaxColors:  256,
		Dither:     "floyd_steinberg",
		DiffMode:   "rectangle",
		Unsharp:    "3:3:0.5:3:3:0.0",
		ScaleFlags: "lanczos+accurate_rnd",
		StatsMode:  "full",
		FinalDelay: 50,
	},
	QualityMedium: {
		MaxColors:  256,
		Dither:     "floyd_steinberg",
		DiffMode:   "rectangle",
		Unsharp:    "3:3:0.5:3:3:0.0",
		ScaleFlags: "lanczos+accurate_rnd",
		StatsMode:  "full",
		FinalDelay: 80,
	},
	QualityLow: {
		MaxColors:  256,
		Dither:     "bayer",
		BayerScale: 3,
		DiffMode:   "rectangle",
		Unsharp:    "3:3:0.5:3:3:0.0",
		ScaleFlags: "lanczos+accurate_rnd",
		StatsMode:  "full",
		FinalDelay: 100,
	},
}

// IsQuality reports whether q names a known tier.
func IsQuality(q string) bool {
	_, ok := presets[strings.ToLower(q)]
	return ok
}

// PresetFor returns the preset for q, falling back to high.
func PresetFor(q string) Preset {
	if p, ok := presets[strings.ToLower(q)]; ok {
		return p
	}
	return presets[QualityHigh]
}

// Qualities lists the tiers from best to smallest.
func Qualities() []string {
	return []string{QualityUltra, QualityHigh, QualityMedium, QualityLow}
}
