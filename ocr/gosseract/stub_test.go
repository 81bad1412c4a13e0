//go:build !tesseract || !cgo

package gosseract

import (
	"context"
	"errors"
	"testing"

	"github.com/wudi/tesskit/ocr"
	"github.com/wudi/tesskit/tess"
)

func TestStubUnavailable(t *testing.T) {
	if _, err := New().Recognize(context.Background(), ocr.Input{}); !errors.Is(err, tess.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if Version() != "" {
		t.Fatalf("stub version must be empty")
	}
}
