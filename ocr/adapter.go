package ocr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/tesskit/imageio"
)

// InputOption mutates an OCR input.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithRegion sets the recognition region on the OCR input.
func WithRegion(region Region) InputOption {
	return func(in *Input) {
		if region.IsEmpty() {
			in.Region = nil
			return
		}
		in.Region = &region
	}
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithPageIndex records the page the image belongs to.
func WithPageIndex(page int) InputOption {
	return func(in *Input) { in.PageIndex = page }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

var formats = map[string]ImageFormat{
	"png":  ImageFormatPNG,
	"jpeg": ImageFormatJPEG,
	"tiff": ImageFormatTIFF,
	"gif":  ImageFormatGIF,
	"bmp":  ImageFormatBMP,
	"webp": ImageFormatWebP,
}

// NewInput wraps an encoded image. The format is sniffed from the image
// header, so unsupported payloads fail here rather than inside an engine.
func NewInput(id string, data []byte, opts ...InputOption) (Input, error) {
	name, err := imageio.Format(data)
	if err != nil {
		return Input{}, fmt.Errorf("input %s: %w", id, err)
	}
	format, ok := formats[name]
	if !ok {
		return Input{}, fmt.Errorf("input %s: unsupported image format %q", id, name)
	}
	in := Input{ID: id, Image: data, Format: format}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}

// InputFromFile reads an image from disk. The ID is the file's base name
// without extension.
func InputFromFile(path string, opts ...InputOption) (Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("read image: %w", err)
	}
	base := filepath.Base(path)
	return NewInput(strings.TrimSuffix(base, filepath.Ext(base)), data, opts...)
}
