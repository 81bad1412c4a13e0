package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestValidateBounds(t *testing.T) {
	if err := ValidateBounds(1024, 512); err != nil {
		t.Fatalf("expected valid bounds, got %v", err)
	}
	if err := ValidateBounds(0, 10); err == nil {
		t.Fatalf("expected error for zero width")
	}
	if err := ValidateBounds(MaxDimension+1, 4); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected dimension limit error, got %v", err)
	}
	width := 20000
	height := int(MaxPixels/int64(width)) + 1
	if height > MaxDimension {
		t.Fatalf("test precondition height %d > dimension limit", height)
	}
	if err := ValidateBounds(width, height); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected pixel limit error, got %v", err)
	}
}

func grayImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x + y*w)})
		}
	}
	return img
}

func TestDecodeFormats(t *testing.T) {
	gray := grayImage(6, 4)
	rgba := image.NewRGBA(image.Rect(0, 0, 5, 3))
	draw.Draw(rgba, rgba.Bounds(), image.White, image.Point{}, draw.Src)
	rgba.Set(1, 1, color.RGBA{R: 200, G: 10, B: 20, A: 255})

	encode := map[string]func(*bytes.Buffer, image.Image) error{
		"png":  func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) },
		"tiff": func(b *bytes.Buffer, m image.Image) error { return tiff.Encode(b, m, nil) },
		"bmp":  func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) },
	}
	for format, enc := range encode {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := enc(&buf, gray); err != nil {
				t.Fatalf("encode gray: %v", err)
			}
			got, err := Format(buf.Bytes())
			if err != nil || got != format {
				t.Fatalf("format = %q, %v", got, err)
			}
			raw, name, err := Decode(&buf)
			if err != nil {
				t.Fatalf("decode gray: %v", err)
			}
			if name != format {
				t.Fatalf("decoded format = %q", name)
			}
			if raw.Width != 6 || raw.Height != 4 || raw.BytesPerPixel != 1 || raw.BytesPerLine != 6 {
				t.Fatalf("gray raw = %dx%d bpp=%d bpl=%d", raw.Width, raw.Height, raw.BytesPerPixel, raw.BytesPerLine)
			}
			if raw.Pix[7] != gray.Pix[7] {
				t.Fatalf("pixel mismatch")
			}

			buf.Reset()
			if err := enc(&buf, rgba); err != nil {
				t.Fatalf("encode rgba: %v", err)
			}
			raw, _, err = DecodeBytes(buf.Bytes())
			if err != nil {
				t.Fatalf("decode rgba: %v", err)
			}
			if raw.BytesPerPixel != 4 || raw.BytesPerLine != 20 || len(raw.Pix) < raw.BytesPerLine*raw.Height {
				t.Fatalf("rgba raw = bpp=%d bpl=%d len=%d", raw.BytesPerPixel, raw.BytesPerLine, len(raw.Pix))
			}
			off := 1*raw.BytesPerLine + 1*4
			if raw.Pix[off] != 200 || raw.Pix[off+1] != 10 {
				t.Fatalf("rgba pixel = %v", raw.Pix[off:off+4])
			}
		})
	}
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, MaxDimension+1, 1))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, _, err := DecodeBytes(buf.Bytes()); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, _, err := DecodeBytes([]byte("not an image")); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Format(nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFromImageSubImage(t *testing.T) {
	src := grayImage(8, 8)
	sub := src.SubImage(image.Rect(2, 3, 5, 6))
	raw, err := FromImage(sub)
	if err != nil {
		t.Fatalf("from image: %v", err)
	}
	if raw.Width != 3 || raw.Height != 3 || raw.BytesPerLine != 3 {
		t.Fatalf("raw = %+v", raw)
	}
	if raw.Pix[0] != src.GrayAt(2, 3).Y || raw.Pix[8] != src.GrayAt(4, 5).Y {
		t.Fatalf("sub-image pixels not compacted")
	}
}

func TestCrop(t *testing.T) {
	raw, err := FromImage(grayImage(10, 10))
	if err != nil {
		t.Fatalf("from image: %v", err)
	}
	c, err := raw.Crop(image.Rect(8, 8, 20, 20))
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	if c.Width != 2 || c.Height != 2 || c.Pix[0] != raw.Pix[88] {
		t.Fatalf("crop = %+v", c)
	}
	if _, err := raw.Crop(image.Rect(20, 20, 30, 30)); err == nil {
		t.Fatalf("expected error for crop outside the image")
	}
}
