//go:build !tesseract || !cgo

package capi

// Default reports that no native library was compiled in.
func Default() (Library, error) {
	return nil, ErrUnavailable
}
