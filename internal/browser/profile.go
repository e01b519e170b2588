package browser

import (
	"math"
	"os"
)

// Device names accepted on the command line.
const (
	DevicePC     = "pc"
	DeviceMobile = "mobile"
)

// Viewport limits. Larger requests are scaled down keeping the aspect ratio.
const (
	MaxViewportWidth  = 1920
	MaxViewportHeight = 1080
)

// Profile is the emulated device.
type Profile struct {
	Name      string
	Width     int
	Height    int
	UserAgent string
	Mobile    bool
	Touch     bool
	Landscape bool
}

var profiles = map[string]Profile{
	DevicePC: {
		Name:      DevicePC,
		Width:     1280,
		Height:    720,
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Landscape: true,
	},
	DeviceMobile: {
		Name:      DeviceMobile,
		Width:     375,
		Height:    667,
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1",
		Mobile:    true,
		Touch:     true,
	},
}

// ProfileFor returns the profile of device, falling back to pc.
func ProfileFor(device string) Profile {
	if p, ok := profiles[device]; ok {
		return p
	}
	return profiles[DevicePC]
}

// IsDevice reports whether device names a known profile.
func IsDevice(device string) bool {
	_, ok := profiles[device]
	return ok
}

// ClampViewport scales width x height down to fit within
// MaxViewportWidth x MaxViewportHeight, keeping the aspect ratio.
func ClampViewport(width, height int) (int, int) {
	if width <= MaxViewportWidth && height <= MaxViewportHeight {
		return width, height
	}
	ratio := math.Min(float64(MaxViewportWidth)/float64(width), float64(MaxViewportHeight)/float64(height))
	return int(math.Round(float64(width) * ratio)), int(math.Round(float64(height) * ratio))
}

// macChromePath is the default Chrome install location on macOS.
const macChromePath = "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"

// ResolveChromePath picks the Chrome binary: the configured path, then
// $CHROME_PATH, then the macOS default. An empty result lets chromedp search
// its own list of locations.
func ResolveChromePath(configured string) string {
	for _, p := range []string{configured, os.Getenv("CHROME_PATH"), macChromePath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
