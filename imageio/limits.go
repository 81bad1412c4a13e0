package imageio

import (
	"errors"
	"fmt"
)

const (
	// MaxDimension caps width and height so a lying header cannot force a
	// huge allocation before the engine sees the image.
	MaxDimension = 32768
	// MaxPixels bounds the total pixel count (64 MP), which keeps RGBA
	// buffers under 256 MB.
	MaxPixels int64 = 64 * 1024 * 1024
)

// ErrTooLarge reports an image beyond MaxDimension or MaxPixels.
var ErrTooLarge = errors.New("imageio: image too large")

// ValidateBounds checks decoded or declared image dimensions against the
// package limits.
func ValidateBounds(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("imageio: image bounds invalid (%d x %d)", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: dimension %d x %d exceeds %d", ErrTooLarge, width, height, MaxDimension)
	}
	if pixels := int64(width) * int64(height); pixels > MaxPixels {
		return fmt.Errorf("%w: pixel count %d exceeds %d", ErrTooLarge, pixels, MaxPixels)
	}
	return nil
}
