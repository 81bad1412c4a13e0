// Package ocr defines the engine-agnostic layer on top of the native
// bindings: an Input carrying an encoded image and hints, a structured
// Result, and the Engine contracts providers implement. Engines live in
// subpackages (ocr/tesseract over the tess bindings, ocr/gosseract over the
// gosseract client) so callers never depend on a specific backend.
package ocr
