package tess

import (
	"github.com/wudi/tesskit/internal/capi"
	"github.com/wudi/tesskit/observability"
)

// cursor is the state shared by both cursor kinds. It is only touched with
// the owning API's handle lock held.
type cursor struct {
	api      *API
	kind     string
	epoch    uint64
	released bool
	free     func(capi.Library)
}

func (a *API) newCursor(kind string, free func(capi.Library)) *cursor {
	c := &cursor{api: a, kind: kind, epoch: a.epoch.Load(), free: free}
	a.cursors[c] = struct{}{}
	a.logger.Debug("tess cursor acquired", observability.String("kind", kind), observability.Uint64("epoch", c.epoch))
	return c
}

// use runs fn when the cursor is open and still matches its API's page
// state.
func (c *cursor) use(op string, fn func(lib capi.Library) error) error {
	return c.api.handle.do(op, func() error {
		if c.released {
			return opErr(op, ErrCursorClosed, "%s", c.kind)
		}
		if now := c.api.epoch.Load(); now != c.epoch {
			return opErr(op, ErrStaleCursor, "%s from epoch %d, api at %d", c.kind, c.epoch, now)
		}
		return fn(c.api.lib)
	})
}

func cursorValue[T any](c *cursor, op string, fn func(lib capi.Library) (T, error)) (T, error) {
	var out T
	err := c.use(op, func(lib capi.Library) error {
		v, err := fn(lib)
		out = v
		return err
	})
	return out, err
}

// releaseLocked frees the native iterator once. The handle lock must be held.
func (c *cursor) releaseLocked() {
	if c.released {
		return
	}
	c.released = true
	c.free(c.api.lib)
	delete(c.api.cursors, c)
	c.api.logger.Debug("tess cursor released", observability.String("kind", c.kind))
}

func (c *cursor) close() error {
	c.api.handle.force(c.releaseLocked)
	return nil
}

// PageCursor walks the layout of the current page: blocks, paragraphs,
// lines, words and symbols with their bounding boxes. It is valid until the
// API's page state changes (see API.Epoch) and must be closed.
type PageCursor struct {
	c  *cursor
	it capi.PageIter
}

// ResultCursor walks recognized text with confidences. It is valid until
// the API's page state changes and must be closed.
type ResultCursor struct {
	c  *cursor
	it capi.ResultIter
}

// AnalyseLayout runs layout analysis on the current image and returns a
// cursor over the result. Earlier cursors become stale.
func (a *API) AnalyseLayout() (*PageCursor, error) {
	const op = "analyse layout"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (*PageCursor, error) {
		return a.analyseLayoutLocked(op)
	})
}

func (a *API) analyseLayoutLocked(op string) (*PageCursor, error) {
	it := a.lib.AnalyseLayout(a.h)
	a.bump()
	if it == nil {
		return nil, opErr(op, ErrNullPointer, "no layout")
	}
	return a.pageCursorLocked(it), nil
}

func (a *API) pageCursorLocked(it capi.PageIter) *PageCursor {
	return &PageCursor{
		c:  a.newCursor("page", func(lib capi.Library) { lib.PageIteratorDelete(it) }),
		it: it,
	}
}

// Iterator returns a cursor over the last recognition. It fails with
// ErrNullPointer when nothing has been recognized.
func (a *API) Iterator() (*ResultCursor, error) {
	const op = "iterator"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (*ResultCursor, error) {
		return a.resultCursorLocked(op, lib.Iterator(h))
	})
}

// MutableIterator is Iterator over results the caller may adjust.
func (a *API) MutableIterator() (*ResultCursor, error) {
	const op = "mutable iterator"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (*ResultCursor, error) {
		return a.resultCursorLocked(op, lib.MutableIterator(h))
	})
}

func (a *API) resultCursorLocked(op string, it capi.ResultIter) (*ResultCursor, error) {
	if it == nil {
		return nil, opErr(op, ErrNullPointer, "no recognition results")
	}
	return &ResultCursor{
		c:  a.newCursor("result", func(lib capi.Library) { lib.ResultIteratorDelete(it) }),
		it: it,
	}, nil
}

// Iterators recognizes the current image and returns both a layout cursor
// and a result cursor. Either both are returned or neither is.
func (a *API) Iterators() (*PageCursor, *ResultCursor, error) {
	const op = "iterators"
	type pair struct {
		page   *PageCursor
		result *ResultCursor
	}
	p, err := handleValue(a, op, func(lib capi.Library, h capi.Handle) (pair, error) {
		if err := a.recognizeLocked(op); err != nil {
			return pair{}, err
		}
		page, err := a.analyseLayoutLocked(op)
		if err != nil {
			return pair{}, err
		}
		result, err := a.resultCursorLocked(op, lib.Iterator(h))
		if err != nil {
			page.c.releaseLocked()
			return pair{}, err
		}
		// Both cursors describe the page state left by the layout pass.
		result.c.epoch = page.c.epoch
		return pair{page, result}, nil
	})
	return p.page, p.result, err
}

// Begin moves the cursor back to the start of the page.
func (p *PageCursor) Begin() error {
	return p.c.use("page begin", func(lib capi.Library) error {
		lib.PageIteratorBegin(p.it)
		return nil
	})
}

// Next moves to the start of the next element at level. It returns false at
// the end of the page.
func (p *PageCursor) Next(level PageIteratorLevel) (bool, error) {
	return cursorValue(p.c, "page next", func(lib capi.Library) (bool, error) {
		return lib.PageIteratorNext(p.it, int(level)) != 0, nil
	})
}

func (p *PageCursor) IsAtBeginningOf(level PageIteratorLevel) (bool, error) {
	return cursorValue(p.c, "page is at beginning of", func(lib capi.Library) (bool, error) {
		return lib.PageIteratorIsAtBeginningOf(p.it, int(level)) != 0, nil
	})
}

// IsAtFinalElement reports whether the cursor is at the last element at
// level inside the enclosing element.
func (p *PageCursor) IsAtFinalElement(level, element PageIteratorLevel) (bool, error) {
	return cursorValue(p.c, "page is at final element", func(lib capi.Library) (bool, error) {
		return lib.PageIteratorIsAtFinalElement(p.it, int(level), int(element)) != 0, nil
	})
}

// BoundingBox returns the box of the current element at level.
func (p *PageCursor) BoundingBox(level PageIteratorLevel) (Box, error) {
	const op = "page bounding box"
	return cursorValue(p.c, op, func(lib capi.Library) (Box, error) {
		b, ok := lib.PageIteratorBoundingBox(p.it, int(level))
		if ok != 1 {
			return Box{}, opErr(op, ErrNullPointer, "no element at %s", level)
		}
		return Box(b), nil
	})
}

func (p *PageCursor) BlockType() (BlockType, error) {
	return cursorValue(p.c, "page block type", func(lib capi.Library) (BlockType, error) {
		return BlockType(lib.PageIteratorBlockType(p.it)), nil
	})
}

// Close releases the native iterator. It is safe to call more than once and
// after the API is closed.
func (p *PageCursor) Close() error { return p.c.close() }

func (r *ResultCursor) Next(level PageIteratorLevel) (bool, error) {
	return cursorValue(r.c, "result next", func(lib capi.Library) (bool, error) {
		return lib.ResultIteratorNext(r.it, int(level)) != 0, nil
	})
}

func (r *ResultCursor) IsAtBeginningOf(level PageIteratorLevel) (bool, error) {
	return cursorValue(r.c, "result is at beginning of", func(lib capi.Library) (bool, error) {
		return lib.ResultIteratorIsAtBeginningOf(r.it, int(level)) != 0, nil
	})
}

// Text returns the recognized text of the current element at level.
func (r *ResultCursor) Text(level PageIteratorLevel) (string, error) {
	const op = "result text"
	return cursorValue(r.c, op, func(lib capi.Library) (string, error) {
		return takeText(op, lib.ResultIteratorText(r.it, int(level)), ErrNullPointer)
	})
}

// Confidence of the current element at level, 0 to 100.
func (r *ResultCursor) Confidence(level PageIteratorLevel) (float32, error) {
	return cursorValue(r.c, "result confidence", func(lib capi.Library) (float32, error) {
		return lib.ResultIteratorConfidence(r.it, int(level)), nil
	})
}

func (r *ResultCursor) BoundingBox(level PageIteratorLevel) (Box, error) {
	const op = "result bounding box"
	return cursorValue(r.c, op, func(lib capi.Library) (Box, error) {
		b, ok := lib.ResultIteratorBoundingBox(r.it, int(level))
		if ok != 1 {
			return Box{}, opErr(op, ErrNullPointer, "no element at %s", level)
		}
		return Box(b), nil
	})
}

// WordRecognitionLanguage returns the language used for the current word.
func (r *ResultCursor) WordRecognitionLanguage() (string, error) {
	const op = "word recognition language"
	return cursorValue(r.c, op, func(lib capi.Library) (string, error) {
		s, ok := lib.ResultIteratorWordRecognitionLanguage(r.it)
		if !ok {
			return "", opErr(op, ErrNullPointer, "")
		}
		return s, nil
	})
}

func (r *ResultCursor) Close() error { return r.c.close() }
