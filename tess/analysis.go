package tess

import (
	"context"
	"time"

	"github.com/wudi/tesskit/internal/capi"
	"github.com/wudi/tesskit/observability"
)

// Recognize runs recognition on the current image. The image must have been
// set with SetImage; the engine reports a missing image as a failed status.
func (a *API) Recognize() error {
	const op = "recognize"
	_, span := a.tracer.StartSpan(context.Background(), observability.SpanRecognize)
	defer span.Finish()
	start := time.Now()
	err := a.with(op, func(lib capi.Library, h capi.Handle) error {
		return a.recognizeLocked(op)
	})
	if err != nil {
		span.SetError(err)
		return err
	}
	span.SetTag(observability.TagDuration, time.Since(start))
	return nil
}

func (a *API) recognizeLocked(op string) error {
	if !a.live {
		return opErr(op, ErrUninitialized, "")
	}
	status := a.lib.Recognize(a.h)
	a.bump()
	if status != 0 {
		return opErr(op, ErrOCR, "status %d", status)
	}
	return nil
}

// MeanTextConf is the average word confidence of the last recognition, 0
// to 100.
func (a *API) MeanTextConf() (int, error) {
	return handleValue(a, "mean text conf", func(lib capi.Library, h capi.Handle) (int, error) {
		return lib.MeanTextConf(h), nil
	})
}

// WordConfidences returns the confidence of every recognized word. A missing
// array is reported as ErrNullPointer.
func (a *API) WordConfidences() ([]int, error) {
	const op = "word confidences"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) ([]int, error) {
		return takeInts(op, lib.AllWordConfidences(h), ErrNullPointer)
	})
}

// AllWordConfidences is WordConfidences for callers that expect recognition
// to have produced data; a missing array is reported as ErrOCR.
func (a *API) AllWordConfidences() ([]int, error) {
	const op = "all word confidences"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) ([]int, error) {
		return takeInts(op, lib.AllWordConfidences(h), ErrOCR)
	})
}

// AdaptToWordStr trains the adaptive classifier on the current image with
// the given transcription.
func (a *API) AdaptToWordStr(mode PageSegMode, word string) error {
	const op = "adapt to word str"
	return a.with(op, func(lib capi.Library, h capi.Handle) error {
		if lib.AdaptToWordStr(h, int(mode), word) != 1 {
			return opErr(op, ErrOCR, "%q", word)
		}
		return nil
	})
}

// IsValidWord reports whether word is in the loaded dictionaries.
func (a *API) IsValidWord(word string) (bool, error) {
	return handleValue(a, "is valid word", func(lib capi.Library, h capi.Handle) (bool, error) {
		return lib.IsValidWord(h, word) != 0, nil
	})
}

// Unichar returns the text of a unicharset id.
func (a *API) Unichar(id int) (string, error) {
	const op = "unichar"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (string, error) {
		s, ok := lib.Unichar(h, id)
		if !ok {
			return "", opErr(op, ErrNullPointer, "id %d", id)
		}
		return s, nil
	})
}

// DetectOrientationScript runs orientation and script detection on the
// current image. It needs the osd language data.
func (a *API) DetectOrientationScript() (Orientation, error) {
	const op = "detect orientation script"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (Orientation, error) {
		o, ok := lib.DetectOrientationScript(h)
		if ok != 1 {
			return Orientation{}, opErr(op, ErrOCR, "")
		}
		return Orientation(o), nil
	})
}

func (a *API) SetMinOrientationMargin(margin float64) error {
	return a.with("set min orientation margin", func(lib capi.Library, h capi.Handle) error {
		lib.SetMinOrientationMargin(h, margin)
		return nil
	})
}

// TextDirection returns the baseline offset and slope of the dominant text
// direction.
func (a *API) TextDirection() (offset int, slope float32, err error) {
	const op = "text direction"
	err = a.with(op, func(lib capi.Library, h capi.Handle) error {
		var ok int
		offset, slope, ok = lib.TextDirection(h)
		if ok != 1 {
			return opErr(op, ErrOCR, "")
		}
		return nil
	})
	return offset, slope, err
}

// InitForAnalysePage prepares the instance for layout analysis without
// loading language data.
func (a *API) InitForAnalysePage() error {
	return a.with("init for analyse page", func(lib capi.Library, h capi.Handle) error {
		lib.InitForAnalysePage(h)
		return nil
	})
}

// Clear drops the current image and page results. Language data stays
// loaded.
func (a *API) Clear() error {
	return a.with("clear", func(lib capi.Library, h capi.Handle) error {
		lib.Clear(h)
		a.bump()
		return nil
	})
}

func (a *API) ClearAdaptiveClassifier() error {
	return a.with("clear adaptive classifier", func(lib capi.Library, h capi.Handle) error {
		lib.ClearAdaptiveClassifier(h)
		return nil
	})
}
