package tess

import (
	"errors"
	"fmt"
)

var (
	// ErrMutexLock reports a lock left poisoned by a panic. The API that
	// returned it must be discarded.
	ErrMutexLock = errors.New("tess: lock poisoned")
	// ErrInit reports that the engine rejected an initialization.
	ErrInit = errors.New("tess: initialization failed")
	// ErrSetVariable reports that the engine rejected a variable name or value.
	ErrSetVariable = errors.New("tess: set variable failed")
	// ErrGetVariable reports an unknown variable or a value of the wrong type.
	ErrGetVariable = errors.New("tess: get variable failed")
	// ErrNullPointer reports that the engine returned no object where one was
	// expected, usually because a precondition was not met.
	ErrNullPointer = errors.New("tess: null pointer from engine")
	// ErrOCR reports a failed recognition or analysis call.
	ErrOCR = errors.New("tess: ocr failed")
	ErrInvalidDimensions    = errors.New("tess: invalid image dimensions")
	ErrInvalidBytesPerPixel = errors.New("tess: invalid bytes per pixel")
	ErrInvalidBytesPerLine  = errors.New("tess: invalid bytes per line")
	ErrInvalidImageData     = errors.New("tess: invalid image data")
	// ErrProcessPages reports a failed multi-page run.
	ErrProcessPages = errors.New("tess: process pages failed")
	ErrIO           = errors.New("tess: i/o error")
	// ErrUninitialized reports an operation that needs loaded language data.
	ErrUninitialized = errors.New("tess: not initialized")
	// ErrStaleCursor reports a cursor used after its API moved on to a new
	// page state (init, end, clear, set image, recognize or close).
	ErrStaleCursor = errors.New("tess: stale cursor")
	// ErrCursorClosed reports use of a released cursor.
	ErrCursorClosed = errors.New("tess: cursor closed")
	// ErrClosed reports use of a closed API.
	ErrClosed = errors.New("tess: api closed")
	// ErrUnavailable reports a build without the native library.
	ErrUnavailable = errors.New("tess: native library unavailable")
	// ErrAllocation reports that the engine could not allocate an instance.
	ErrAllocation = errors.New("tess: engine allocation failed")
)

// OpError describes a failed operation. Err is always one of the sentinel
// errors of this package; Cause carries an underlying error when there is one.
type OpError struct {
	Op     string
	Err    error
	Cause  error
	Detail string
}

func (e *OpError) Error() string {
	msg := e.Op + ": " + e.Err.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *OpError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func opErr(op string, sentinel error, format string, args ...any) error {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	return &OpError{Op: op, Err: sentinel, Detail: detail}
}

func wrapErr(op string, sentinel, cause error) error {
	return &OpError{Op: op, Err: sentinel, Cause: cause}
}
