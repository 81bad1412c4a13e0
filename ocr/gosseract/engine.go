// Package gosseract implements ocr.Engine on the gosseract client. It is an
// independent path to the same native engine, useful to cross-check results
// of ocr/tesseract. Without the tesseract build tag every call fails with
// tess.ErrUnavailable.
package gosseract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"

	"github.com/wudi/tesskit/hocr"
	"github.com/wudi/tesskit/imageio"
	"github.com/wudi/tesskit/ocr"
)

// Engine runs one gosseract client per recognition.
type Engine struct {
	dataPath  string
	languages []string
	variables map[string]string
}

type Option func(*Engine)

// WithDataPath sets the tessdata prefix.
func WithDataPath(path string) Option {
	return func(e *Engine) { e.dataPath = path }
}

// WithLanguages sets the languages used when an input carries no hints.
func WithLanguages(langs ...string) Option {
	return func(e *Engine) {
		if len(langs) > 0 {
			e.languages = append([]string(nil), langs...)
		}
	}
}

// WithVariables sets variables applied on every client.
func WithVariables(vars map[string]string) Option {
	return func(e *Engine) {
		e.variables = make(map[string]string, len(vars))
		for k, v := range vars {
			e.variables[k] = v
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{languages: []string{"eng"}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string { return "gosseract" }

func (e *Engine) languagesFor(in ocr.Input) []string {
	if len(in.Languages) > 0 {
		return in.Languages
	}
	return e.languages
}

// resultFromHOCR maps hOCR areas to blocks. Confidences are scaled to [0,1].
func resultFromHOCR(id string, doc hocr.Document, lang string) ocr.Result {
	res := ocr.Result{InputID: id, Language: lang}
	var (
		texts []string
		sum   float64
		n     int
	)
	for _, pg := range doc.Pages {
		for _, area := range pg.Areas {
			block := ocr.TextBlock{Bounds: boxRegion(area.BBox)}
			var lineTexts []string
			var blockSum float64
			for _, par := range area.Paragraphs {
				for _, l := range par.Lines {
					line := ocr.TextLine{Text: l.Text(), Bounds: boxRegion(l.BBox), Confidence: l.Confidence() / 100}
					for _, w := range l.Words {
						line.Words = append(line.Words, ocr.TextWord{Text: w.Text, Bounds: boxRegion(w.BBox), Confidence: w.Confidence / 100})
						sum += w.Confidence / 100
						n++
					}
					block.Lines = append(block.Lines, line)
					lineTexts = append(lineTexts, line.Text)
					blockSum += line.Confidence
				}
			}
			if len(block.Lines) == 0 {
				continue
			}
			block.Text = strings.Join(lineTexts, "\n")
			block.Confidence = blockSum / float64(len(block.Lines))
			res.Blocks = append(res.Blocks, block)
			texts = append(texts, block.Text)
		}
	}
	res.PlainText = strings.Join(texts, "\n\n")
	if n > 0 {
		res.Confidence = sum / float64(n)
	}
	return res
}

func boxRegion(b hocr.Box) ocr.Region {
	return ocr.Region{X: float64(b.X0), Y: float64(b.Y0), Width: float64(b.Width()), Height: float64(b.Height())}
}

// cropImage re-encodes the part of data inside region as PNG. The client
// only accepts encoded images, so a region cannot be passed as a rectangle.
func cropImage(data []byte, region *ocr.Region) ([]byte, error) {
	if region == nil || region.IsEmpty() {
		return data, nil
	}
	raw, _, err := imageio.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode for region: %w", err)
	}
	rect := image.Rect(
		int(math.Round(region.X)),
		int(math.Round(region.Y)),
		int(math.Round(region.X+region.Width)),
		int(math.Round(region.Y+region.Height)),
	)
	cropped, err := raw.Crop(rect)
	if err != nil {
		return nil, fmt.Errorf("region outside image bounds: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, toImage(cropped)); err != nil {
		return nil, fmt.Errorf("encode cropped image: %w", err)
	}
	return buf.Bytes(), nil
}

func toImage(r imageio.Raw) image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)
	if r.BytesPerPixel == 1 {
		return &image.Gray{Pix: r.Pix, Stride: r.BytesPerLine, Rect: rect}
	}
	return &image.RGBA{Pix: r.Pix, Stride: r.BytesPerLine, Rect: rect}
}
