package ocr

import "context"

// ImageFormat is the MIME type of an encoded input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
	ImageFormatTIFF ImageFormat = "image/tiff"
	ImageFormatGIF  ImageFormat = "image/gif"
	ImageFormatBMP  ImageFormat = "image/bmp"
	ImageFormatWebP ImageFormat = "image/webp"
)

// Region is a pixel rectangle measured from the top-left corner of the
// image. Fractional values are rounded by the engine.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region covers no pixels.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input is one encoded image file to recognize, usually built with NewInput
// or InputFromFile.
type Input struct {
	// ID names the input in its Result and in errors. InputFromFile uses
	// the file name without extension.
	ID string
	// Image holds the file bytes, not decoded pixels.
	Image []byte
	// Format is sniffed from Image by NewInput.
	Format ImageFormat
	// PageIndex is the zero-based page the image belongs to when it came from
	// a multi-page source.
	PageIndex int
	// DPI is the scan resolution. Zero lets the engine estimate it, which
	// hurts accuracy on small text.
	DPI int
	// Languages are traineddata names such as "eng" or "deu". Empty uses
	// the engine's own languages.
	Languages []string
	// Region limits recognition to part of the image; nil means all of it.
	Region *Region
	// Metadata holds engine variables (tessedit_char_whitelist,
	// tessedit_pageseg_mode, ...) applied for this input only.
	Metadata map[string]string
}

// TextWord is one recognized word.
type TextWord struct {
	Text       string
	Bounds     Region
	Confidence float64
}

// TextLine is a line of words in reading order.
type TextLine struct {
	Text       string
	Bounds     Region
	Words      []TextWord
	Confidence float64
}

// TextBlock is a block of lines as found by page layout analysis. Text joins
// the lines with newlines.
type TextBlock struct {
	Text       string
	Bounds     Region
	Lines      []TextLine
	Confidence float64
}

// Result is what an engine recognized in one Input. Confidences are in
// [0,1]; a block or line confidence is the mean of its children.
type Result struct {
	InputID   string
	PlainText string
	Blocks    []TextBlock
	// Language is the recognition language of the first word, or the first
	// requested language when the engine reports none.
	Language string
	// Confidence is the mean word confidence reported by the engine.
	Confidence float64
}

// Engine recognizes one image at a time.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// BatchEngine recognizes several images in one call. Results are in input
// order.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}
