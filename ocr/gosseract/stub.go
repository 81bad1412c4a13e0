//go:build !tesseract || !cgo

package gosseract

import (
	"context"
	"fmt"

	"github.com/wudi/tesskit/ocr"
	"github.com/wudi/tesskit/tess"
)

// Version is empty without the native library.
func Version() string { return "" }

func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	return ocr.Result{}, fmt.Errorf("gosseract: %w", tess.ErrUnavailable)
}
