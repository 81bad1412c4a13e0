//go:build tesseract && cgo

package gosseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/wudi/tesskit/hocr"
	"github.com/wudi/tesskit/ocr"
)

// Version is the version of the library gosseract is linked against.
func Version() string { return gosseract.Version() }

// Recognize performs OCR on a single image input with a fresh client.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	imgData, err := cropImage(in.Image, in.Region)
	if err != nil {
		return ocr.Result{}, err
	}
	c := gosseract.NewClient()
	defer c.Close()

	if e.dataPath != "" {
		if err := c.SetTessdataPrefix(e.dataPath); err != nil {
			return ocr.Result{}, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	langs := e.languagesFor(in)
	if err := c.SetLanguage(langs...); err != nil {
		return ocr.Result{}, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImageFromBytes(imgData); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	for _, vars := range []map[string]string{e.variables, in.Metadata} {
		for k, v := range vars {
			if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
				return ocr.Result{}, fmt.Errorf("set variable %s: %w", k, err)
			}
		}
	}
	out, err := c.HOCRText()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize %s: %w", in.ID, err)
	}
	doc, err := hocr.ParseString(out)
	if err != nil {
		return ocr.Result{}, err
	}
	return resultFromHOCR(in.ID, doc, langs[0]), nil
}
