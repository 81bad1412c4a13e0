package tess

import "github.com/wudi/tesskit/internal/capi"

// Text output of the last recognition. Each call copies the engine buffer
// and releases it; a missing buffer is reported as ErrOCR.

func (a *API) UTF8Text() (string, error) {
	return a.text("utf8 text", func(lib capi.Library, h capi.Handle) capi.Text { return lib.UTF8Text(h) })
}

// HOCRText returns hOCR markup for the zero-based page number.
func (a *API) HOCRText(page int) (string, error) {
	return a.text("hocr text", func(lib capi.Library, h capi.Handle) capi.Text { return lib.HOCRText(h, page) })
}

// AltoText returns ALTO XML for the zero-based page number.
func (a *API) AltoText(page int) (string, error) {
	return a.text("alto text", func(lib capi.Library, h capi.Handle) capi.Text { return lib.AltoText(h, page) })
}

// TsvText returns tab separated word data for the zero-based page number.
func (a *API) TsvText(page int) (string, error) {
	return a.text("tsv text", func(lib capi.Library, h capi.Handle) capi.Text { return lib.TsvText(h, page) })
}

func (a *API) BoxText(page int) (string, error) {
	return a.text("box text", func(lib capi.Library, h capi.Handle) capi.Text { return lib.BoxText(h, page) })
}

func (a *API) LSTMBoxText(page int) (string, error) {
	return a.text("lstm box text", func(lib capi.Library, h capi.Handle) capi.Text { return lib.LSTMBoxText(h, page) })
}

func (a *API) WordStrBoxText(page int) (string, error) {
	return a.text("wordstr box text", func(lib capi.Library, h capi.Handle) capi.Text { return lib.WordStrBoxText(h, page) })
}

func (a *API) UNLVText() (string, error) {
	return a.text("unlv text", func(lib capi.Library, h capi.Handle) capi.Text { return lib.UNLVText(h) })
}

func (a *API) text(op string, get func(capi.Library, capi.Handle) capi.Text) (string, error) {
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (string, error) {
		return takeText(op, get(lib, h), ErrOCR)
	})
}

// takeText copies an engine string and releases it.
func takeText(op string, t capi.Text, missing error) (string, error) {
	if t == nil {
		return "", opErr(op, missing, "engine returned null")
	}
	defer t.Release()
	return t.String(), nil
}

// takeInts copies a -1 terminated array and releases it.
func takeInts(op string, arr capi.IntArray, missing error) ([]int, error) {
	if arr == nil {
		return nil, opErr(op, missing, "engine returned null")
	}
	defer arr.Release()
	out := []int{}
	for i := 0; ; i++ {
		v := arr.At(i)
		if v == -1 {
			break
		}
		out = append(out, int(v))
	}
	return out, nil
}

// takeTexts copies a null terminated string array and releases it.
func takeTexts(op string, arr capi.TextArray, missing error) ([]string, error) {
	if arr == nil {
		return nil, opErr(op, missing, "engine returned null")
	}
	defer arr.Release()
	out := []string{}
	for i := 0; ; i++ {
		s, ok := arr.At(i)
		if !ok {
			break
		}
		out = append(out, s)
	}
	return out, nil
}
