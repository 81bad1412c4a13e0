package tess

import (
	"math"

	"github.com/wudi/tesskit/internal/capi"
)

// SetImage hands a raw pixel buffer to the engine. bytesPerPixel is 1 for
// grayscale, 3 for RGB and 4 for RGBA; bytesPerLine may include padding.
// The buffer is copied, so data may be reused after the call.
//
// The shape is validated before anything reaches the engine.
func (a *API) SetImage(data []byte, width, height, bytesPerPixel, bytesPerLine int) error {
	const op = "set image"
	if err := validateImage(op, len(data), width, height, bytesPerPixel, bytesPerLine); err != nil {
		return err
	}
	return a.with(op, func(lib capi.Library, h capi.Handle) error {
		lib.SetImage(h, data, width, height, bytesPerPixel, bytesPerLine)
		a.bump()
		return nil
	})
}

// ValidateImage checks that a buffer of size bytes holds an image of the
// given shape. It returns an *OpError wrapping ErrInvalidDimensions,
// ErrInvalidBytesPerPixel, ErrInvalidBytesPerLine or ErrInvalidImageData.
func ValidateImage(size, width, height, bytesPerPixel, bytesPerLine int) error {
	return validateImage("validate image", size, width, height, bytesPerPixel, bytesPerLine)
}

func validateImage(op string, size, width, height, bytesPerPixel, bytesPerLine int) error {
	if width <= 0 || height <= 0 || width > math.MaxInt32 || height > math.MaxInt32 {
		return opErr(op, ErrInvalidDimensions, "%dx%d", width, height)
	}
	if bytesPerPixel <= 0 || bytesPerPixel > 8 {
		return opErr(op, ErrInvalidBytesPerPixel, "%d", bytesPerPixel)
	}
	minLine := int64(width) * int64(bytesPerPixel)
	if int64(bytesPerLine) < minLine || bytesPerLine > math.MaxInt32 {
		return opErr(op, ErrInvalidBytesPerLine, "%d < %d", bytesPerLine, minLine)
	}
	need := int64(height) * int64(bytesPerLine)
	if int64(size) < need {
		return opErr(op, ErrInvalidImageData, "%d bytes, need %d", size, need)
	}
	return nil
}

// SetRectangle restricts recognition to a sub-rectangle of the image.
func (a *API) SetRectangle(left, top, width, height int) error {
	const op = "set rectangle"
	if left < 0 || top < 0 || width <= 0 || height <= 0 {
		return opErr(op, ErrInvalidDimensions, "%d,%d %dx%d", left, top, width, height)
	}
	return a.with(op, func(lib capi.Library, h capi.Handle) error {
		lib.SetRectangle(h, left, top, width, height)
		return nil
	})
}

// SetSourceResolution tells the engine the scan resolution in pixels per
// inch.
func (a *API) SetSourceResolution(ppi int) error {
	const op = "set source resolution"
	if ppi <= 0 {
		return opErr(op, ErrInvalidDimensions, "ppi %d", ppi)
	}
	return a.with(op, func(lib capi.Library, h capi.Handle) error {
		lib.SetSourceResolution(h, ppi)
		return nil
	})
}

func (a *API) SourceYResolution() (int, error) {
	return handleValue(a, "source y resolution", func(lib capi.Library, h capi.Handle) (int, error) {
		return lib.SourceYResolution(h), nil
	})
}

// ThresholdedImageScaleFactor is the scale of the internal binarized image
// relative to the input.
func (a *API) ThresholdedImageScaleFactor() (int, error) {
	return handleValue(a, "thresholded image scale factor", func(lib capi.Library, h capi.Handle) (int, error) {
		return lib.ThresholdedImageScaleFactor(h), nil
	})
}
