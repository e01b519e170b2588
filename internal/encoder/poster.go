package encoder

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultPosterMaxDimension is the longest edge of a poster image.
const DefaultPosterMaxDimension = 480

// WritePoster scales the PNG at framePath so its longest edge is at most
// maxDimension and writes it as PNG to dest.
func WritePoster(framePath, dest string, maxDimension int) error {
	if maxDimension <= 0 {
		maxDimension = DefaultPosterMaxDimension
	}

	f, err := os.Open(framePath)
	if err != nil {
		return fmt.Errorf("failed to open frame: %w", err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}

	bounds := img.Bounds()
	newWidth, newHeight := posterDimensions(bounds.Dx(), bounds.Dy(), maxDimension)

	out := img
	if newWidth != bounds.Dx() || newHeight != bounds.Dy() {
		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		out = resized
	}

	w, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create poster: %w", err)
	}
	if err := png.Encode(w, out); err != nil {
		w.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to encode poster: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write poster: %w", err)
	}

	log.Debug().
		Str("path", dest).
		Int("orig_width", bounds.Dx()).
		Int("orig_height", bounds.Dy()).
		Int("new_width", newWidth).
		Int("new_height", newHeight).
		Msg("Poster generated")
	return nil
}

// posterDimensions keeps the aspect ratio and never upscales.
func posterDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}
	if width >= height {
		h := max(1, height*maxDimension/width)
		return maxDimension, h
	}
	w := max(1, width*maxDimension/height)
	return w, maxDimension
}
