// Package imageio turns encoded images into the raw pixel buffers the
// engine accepts. PNG, JPEG, GIF, TIFF, BMP and WebP are supported.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Raw is an uncompressed image laid out row by row. BytesPerPixel is 1 for
// grayscale and 4 for RGBA.
type Raw struct {
	Pix           []byte
	Width         int
	Height        int
	BytesPerPixel int
	BytesPerLine  int
}

// Format reports the registered format name of an encoded image ("png",
// "jpeg", "tiff", ...) without decoding the pixels.
func Format(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("imageio: detect format: %w", err)
	}
	return format, nil
}

// Decode reads an encoded image. The header is checked against the package
// limits before any pixels are decoded.
func Decode(r io.Reader) (Raw, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Raw{}, "", fmt.Errorf("imageio: read: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode over an in-memory image.
func DecodeBytes(data []byte) (Raw, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Raw{}, "", fmt.Errorf("imageio: decode config: %w", err)
	}
	if err := ValidateBounds(cfg.Width, cfg.Height); err != nil {
		return Raw{}, format, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Raw{}, format, fmt.Errorf("imageio: decode %s: %w", format, err)
	}
	raw, err := FromImage(img)
	return raw, format, err
}

// DecodeFile decodes the image stored at path.
func DecodeFile(path string) (Raw, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Raw{}, "", fmt.Errorf("imageio: %w", err)
	}
	return DecodeBytes(data)
}

// FromImage converts img to a Raw buffer. Grayscale images stay at one
// byte per pixel; everything else becomes RGBA.
func FromImage(img image.Image) (Raw, error) {
	b := img.Bounds()
	if err := ValidateBounds(b.Dx(), b.Dy()); err != nil {
		return Raw{}, err
	}
	if isGray(img) {
		g, ok := img.(*image.Gray)
		if !ok {
			g = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
			draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
		}
		return grayRaw(g), nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return Raw{
		Pix:           rgba.Pix,
		Width:         b.Dx(),
		Height:        b.Dy(),
		BytesPerPixel: 4,
		BytesPerLine:  rgba.Stride,
	}, nil
}

// isGray reports whether img holds only gray levels, including paletted
// images whose palette is all gray (8-bit grayscale BMP and GIF).
func isGray(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return true
	}
	p, ok := img.(*image.Paletted)
	if !ok || len(p.Palette) == 0 {
		return false
	}
	for _, c := range p.Palette {
		r, g, b, a := c.RGBA()
		if r != g || g != b || a != 0xffff {
			return false
		}
	}
	return true
}

func grayRaw(g *image.Gray) Raw {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if b.Min == (image.Point{}) && g.Stride == w {
		return Raw{Pix: g.Pix[:w*h], Width: w, Height: h, BytesPerPixel: 1, BytesPerLine: w}
	}
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		off := g.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*w:(y+1)*w], g.Pix[off:off+w])
	}
	return Raw{Pix: pix, Width: w, Height: h, BytesPerPixel: 1, BytesPerLine: w}
}

// Crop returns the part of r inside rect, clipped to the image. It shares
// no memory with r.
func (r Raw) Crop(rect image.Rectangle) (Raw, error) {
	rect = rect.Intersect(image.Rect(0, 0, r.Width, r.Height))
	if rect.Empty() {
		return Raw{}, fmt.Errorf("imageio: crop %v outside %dx%d image", rect, r.Width, r.Height)
	}
	w, h := rect.Dx(), rect.Dy()
	line := w * r.BytesPerPixel
	pix := make([]byte, line*h)
	for y := 0; y < h; y++ {
		off := (rect.Min.Y+y)*r.BytesPerLine + rect.Min.X*r.BytesPerPixel
		copy(pix[y*line:(y+1)*line], r.Pix[off:off+line])
	}
	return Raw{Pix: pix, Width: w, Height: h, BytesPerPixel: r.BytesPerPixel, BytesPerLine: line}, nil
}
