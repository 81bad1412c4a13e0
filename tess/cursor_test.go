package tess

import (
	"errors"
	"slices"
	"testing"

	"github.com/wudi/tesskit/internal/capi"
	"github.com/wudi/tesskit/internal/capi/capitest"
)

func sampleWords() []capitest.Word {
	return []capitest.Word{
		{Text: "Hello", Confidence: 96, Box: capi.Box{Left: 10, Top: 10, Right: 60, Bottom: 30}, Language: "eng", BlockStart: true},
		{Text: "world", Confidence: 91, Box: capi.Box{Left: 70, Top: 10, Right: 120, Bottom: 30}, Language: "eng"},
		{Text: "Total", Confidence: 88, Box: capi.Box{Left: 10, Top: 100, Right: 55, Bottom: 120}, Language: "eng", BlockStart: true},
	}
}

func recognizedAPI(t *testing.T) (*API, *capitest.Library) {
	t.Helper()
	a, lib := newTestAPI(t)
	lib.Words = sampleWords()
	if err := a.Init("/tessdata", "eng"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := a.SetImage(make([]byte, 200*150), 200, 150, 1, 200); err != nil {
		t.Fatalf("set image: %v", err)
	}
	return a, lib
}

func TestIteratorsWalk(t *testing.T) {
	a, lib := recognizedAPI(t)
	page, result, err := a.Iterators()
	if err != nil {
		t.Fatalf("iterators: %v", err)
	}

	var words []string
	for {
		w, err := result.Text(LevelWord)
		if err != nil {
			t.Fatalf("text: %v", err)
		}
		words = append(words, w)
		more, err := result.Next(LevelWord)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !more {
			break
		}
	}
	if !slices.Equal(words, []string{"Hello", "world", "Total"}) {
		t.Fatalf("words = %v", words)
	}

	box, err := page.BoundingBox(LevelBlock)
	if err != nil {
		t.Fatalf("block box: %v", err)
	}
	if box != (Box{Left: 10, Top: 10, Right: 120, Bottom: 30}) {
		t.Fatalf("block box = %+v", box)
	}
	if more, _ := page.Next(LevelBlock); !more {
		t.Fatalf("expected a second block")
	}
	if bt, err := page.BlockType(); err != nil || !bt.IsText() {
		t.Fatalf("block type = %v, %v", bt, err)
	}

	page.Close()
	result.Close()
	if lib.Outstanding() != 0 {
		t.Fatalf("cursor buffers leaked: %d", lib.Outstanding())
	}
}

func TestIteratorsReleaseLayoutWhenResultFails(t *testing.T) {
	a, lib := recognizedAPI(t)
	lib.NullIterator = true
	page, result, err := a.Iterators()
	if !errors.Is(err, ErrNullPointer) {
		t.Fatalf("expected ErrNullPointer, got %v", err)
	}
	if page != nil || result != nil {
		t.Fatalf("no cursor may be returned on failure")
	}
	if lib.Count("AnalyseLayout") != 1 || lib.Count("DeletePageIterator") != 1 {
		t.Fatalf("layout cursor not released: %v", lib.Calls())
	}
	if lib.Outstanding() != 0 {
		t.Fatalf("leaked %d native objects", lib.Outstanding())
	}
}

func TestIteratorsNoLayout(t *testing.T) {
	a, lib := recognizedAPI(t)
	lib.NullLayout = true
	if _, _, err := a.Iterators(); !errors.Is(err, ErrNullPointer) {
		t.Fatalf("expected ErrNullPointer, got %v", err)
	}
	if lib.Count("Iterator") != 0 {
		t.Fatalf("result cursor requested after layout failed")
	}
}

func TestIteratorBeforeRecognize(t *testing.T) {
	a, _ := recognizedAPI(t)
	if _, err := a.Iterator(); !errors.Is(err, ErrNullPointer) {
		t.Fatalf("expected ErrNullPointer, got %v", err)
	}
}

func TestStaleCursor(t *testing.T) {
	invalidators := map[string]func(a *API) error{
		"clear":     func(a *API) error { return a.Clear() },
		"end":       func(a *API) error { return a.End() },
		"recognize": func(a *API) error { return a.Recognize() },
		"set image": func(a *API) error { return a.SetImage(make([]byte, 4), 2, 2, 1, 2) },
		"reinit":    func(a *API) error { return a.Init("/tessdata", "deu") },
	}
	for name, invalidate := range invalidators {
		t.Run(name, func(t *testing.T) {
			a, lib := recognizedAPI(t)
			if err := a.Recognize(); err != nil {
				t.Fatalf("recognize: %v", err)
			}
			r, err := a.Iterator()
			if err != nil {
				t.Fatalf("iterator: %v", err)
			}
			if _, err := r.Text(LevelWord); err != nil {
				t.Fatalf("fresh cursor: %v", err)
			}
			if err := invalidate(a); err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			if _, err := r.Text(LevelWord); !errors.Is(err, ErrStaleCursor) {
				t.Fatalf("expected ErrStaleCursor, got %v", err)
			}
			r.Close()
			r.Close()
			if lib.Count("DeleteResultIterator") != 1 {
				t.Fatalf("stale cursor must be released exactly once")
			}
			if _, err := r.Next(LevelWord); !errors.Is(err, ErrCursorClosed) {
				t.Fatalf("expected ErrCursorClosed, got %v", err)
			}
		})
	}
}

func TestCloseReleasesOpenCursors(t *testing.T) {
	a, lib := recognizedAPI(t)
	page, err := a.AnalyseLayout()
	if err != nil {
		t.Fatalf("analyse layout: %v", err)
	}
	if err := a.Recognize(); err != nil {
		t.Fatalf("recognize: %v", err)
	}
	result, err := a.MutableIterator()
	if err != nil {
		t.Fatalf("mutable iterator: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if lib.Outstanding() != 0 {
		t.Fatalf("close left %d cursors open", lib.Outstanding())
	}
	if _, err := result.Confidence(LevelWord); !errors.Is(err, ErrCursorClosed) {
		t.Fatalf("expected ErrCursorClosed, got %v", err)
	}
	page.Close()
	result.Close()
	if lib.Count("DeletePageIterator") != 1 || lib.Count("DeleteResultIterator") != 1 {
		t.Fatalf("cursors released more than once: %v", lib.Calls())
	}
}

func TestResultCursorDetails(t *testing.T) {
	a, _ := recognizedAPI(t)
	if err := a.Recognize(); err != nil {
		t.Fatalf("recognize: %v", err)
	}
	r, err := a.Iterator()
	if err != nil {
		t.Fatalf("iterator: %v", err)
	}
	defer r.Close()
	if c, err := r.Confidence(LevelWord); err != nil || c != 96 {
		t.Fatalf("confidence = %v, %v", c, err)
	}
	if b, err := r.BoundingBox(LevelWord); err != nil || b.Width() != 50 || b.Height() != 20 {
		t.Fatalf("box = %+v, %v", b, err)
	}
	if lang, err := r.WordRecognitionLanguage(); err != nil || lang != "eng" {
		t.Fatalf("language = %q, %v", lang, err)
	}
	if ok, err := r.IsAtBeginningOf(LevelBlock); err != nil || !ok {
		t.Fatalf("beginning of block = %v, %v", ok, err)
	}
}

func TestPageCursorBegin(t *testing.T) {
	a, _ := recognizedAPI(t)
	p, err := a.AnalyseLayout()
	if err != nil {
		t.Fatalf("analyse layout: %v", err)
	}
	defer p.Close()
	for {
		more, err := p.Next(LevelWord)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !more {
			break
		}
	}
	if err := p.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if ok, err := p.IsAtBeginningOf(LevelBlock); err != nil || !ok {
		t.Fatalf("after begin = %v, %v", ok, err)
	}
	if last, err := p.IsAtFinalElement(LevelBlock, LevelWord); err != nil || last {
		t.Fatalf("first word is not final: %v, %v", last, err)
	}
}
