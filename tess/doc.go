// Package tess manages the lifecycle of a Tesseract engine instance.
//
// An API owns one native instance for its whole life. It records what the
// instance was initialized with (a Config snapshot) so that a reinitialized
// instance or a Clone can be brought back to the same state, and it
// serializes every call into the engine, which is not thread-safe.
//
//	api, err := tess.New()
//	if err != nil {
//		return err
//	}
//	defer api.Close()
//	if err := api.SetVariable("tessedit_char_whitelist", "0123456789"); err != nil {
//		return err
//	}
//	if err := api.Init("/usr/share/tessdata", "eng"); err != nil {
//		return err
//	}
//	if err := api.SetImage(pix, w, h, 1, w); err != nil {
//		return err
//	}
//	text, err := api.UTF8Text()
//
// Cursors returned by AnalyseLayout, Iterator and Iterators belong to the
// page state they were created from. Any call that replaces that state
// (Init, End, Clear, SetImage, Recognize, AnalyseLayout, ProcessPages,
// Close) makes them stale; their methods then fail with ErrStaleCursor.
// Cursors must still be closed, and Close on the API releases any that were
// not.
//
// Errors are *OpError values; test them with errors.Is against the
// sentinels in this package. A panic inside a native call poisons the API:
// later calls fail with ErrMutexLock and the API should be closed and
// discarded.
//
// The native binding is compiled only with the "tesseract" build tag and
// cgo. Without it New fails with ErrUnavailable unless a library is
// supplied with WithLibrary.
package tess
