package tess

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/wudi/tesskit/internal/capi"
	"github.com/wudi/tesskit/observability"
)

// ProcessPages recognizes every page of a single or multi-page image file
// (TIFF, or a text file listing image paths) and returns the plain text of
// all pages. retryConfig names a config file applied to pages that fail the
// first pass; it may be empty. timeout bounds each page and is passed to the
// engine in milliseconds; zero means no limit.
//
// ctx is only consulted before the engine starts. A running call can only
// be stopped by timeout.
func (a *API) ProcessPages(ctx context.Context, filename, retryConfig string, timeout time.Duration) (string, error) {
	const op = "process pages"
	_, span := a.tracer.StartSpan(ctx, observability.SpanProcessPages)
	defer span.Finish()
	if err := ctx.Err(); err != nil {
		span.SetError(err)
		return "", wrapErr(op, ErrProcessPages, err)
	}
	ms := timeout.Milliseconds()
	if ms < 0 || ms > math.MaxInt32 {
		return "", opErr(op, ErrProcessPages, "timeout %s out of range", timeout)
	}

	dir, err := os.MkdirTemp("", "tess-pages-")
	if err != nil {
		return "", wrapErr(op, ErrIO, err)
	}
	defer os.RemoveAll(dir)
	base := filepath.Join(dir, "out")

	err = a.with(op, func(lib capi.Library, h capi.Handle) error {
		if !a.live {
			return opErr(op, ErrUninitialized, "")
		}
		status := lib.ProcessPages(h, filename, retryConfig, int(ms), base)
		a.bump()
		if status != 1 {
			return opErr(op, ErrProcessPages, "%s", filename)
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		return "", err
	}

	out, err := os.ReadFile(base + ".txt")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", opErr(op, ErrProcessPages, "engine produced no output for %s", filename)
		}
		return "", wrapErr(op, ErrIO, err)
	}
	return string(out), nil
}
