// Package capi is the boundary with the libtesseract C API.
//
// The Library interface mirrors the TessBaseAPI* family one call per method
// and keeps the C conventions intact: initializers return 0 on success, BOOL
// calls return 1 on success, and every owned buffer (Text, IntArray,
// TextArray) must be released exactly once through its Release method. A nil
// Text/IntArray/TextArray/Handle stands for a null pointer.
//
// Nothing in this package is safe for concurrent use on the same Handle;
// callers serialize access themselves.
package capi

import (
	"errors"
	"unsafe"
)

// ErrUnavailable is returned by Default when the binary was built without
// the native library (the "tesseract" build tag and cgo are both required).
var ErrUnavailable = errors.New("tesseract native library not available; rebuild with -tags tesseract and cgo enabled")

// Handle is an opaque TessBaseAPI*.
type Handle unsafe.Pointer

// PageIter is an opaque TessPageIterator*.
type PageIter unsafe.Pointer

// ResultIter is an opaque TessResultIterator*.
type ResultIter unsafe.Pointer

// Text is a NUL-terminated string allocated by the engine (TessDeleteText).
type Text interface {
	String() string
	Release()
}

// IntArray is an engine-allocated int array terminated by -1
// (TessDeleteIntArray).
type IntArray interface {
	At(i int) int32
	Release()
}

// TextArray is an engine-allocated array of strings terminated by a null
// pointer (TessDeleteTextArray). At reports false at the terminator.
type TextArray interface {
	At(i int) (string, bool)
	Release()
}

// Box is a pixel rectangle as reported by the iterators.
type Box struct {
	Left, Top, Right, Bottom int
}

// Orientation is the result of TessBaseAPIDetectOrientationScript. Script is
// borrowed from the engine's unicharset and copied; it is never freed.
type Orientation struct {
	Degrees          int
	Confidence       float32
	Script           string
	ScriptConfidence float32
}

// InitParams carries the optional arguments of the extended initializers
// (TessBaseAPIInit4/5).
type InitParams struct {
	Mode         int
	Configs      []string
	VarNames     []string
	VarValues    []string
	NonDebugOnly bool
}

// Library is the set of native entry points used by package tess.
type Library interface {
	Version() string

	Create() Handle
	Delete(h Handle)
	End(h Handle)

	Init1(h Handle, datapath, language string, mode int, configs []string) int
	Init2(h Handle, datapath, language string, mode int) int
	Init3(h Handle, datapath, language string) int
	Init4(h Handle, datapath, language string, p InitParams) int
	Init5(h Handle, data []byte, language string, p InitParams) int
	InitForAnalysePage(h Handle)
	InitLanguagesAsString(h Handle) (string, bool)
	LoadedLanguages(h Handle) TextArray
	AvailableLanguages(h Handle) TextArray

	SetVariable(h Handle, name, value string) int
	SetDebugVariable(h Handle, name, value string) int
	StringVariable(h Handle, name string) (string, bool)
	IntVariable(h Handle, name string) (int, int)
	BoolVariable(h Handle, name string) (bool, int)
	DoubleVariable(h Handle, name string) (float64, int)
	PrintVariablesToFile(h Handle, filename string) int
	ReadConfigFile(h Handle, filename string)
	ReadDebugConfigFile(h Handle, filename string)

	SetPageSegMode(h Handle, mode int)
	PageSegMode(h Handle) int
	SetInputName(h Handle, name string)
	InputName(h Handle) (string, bool)
	SetOutputName(h Handle, name string)
	Datapath(h Handle) (string, bool)

	SetImage(h Handle, data []byte, width, height, bytesPerPixel, bytesPerLine int)
	SetSourceResolution(h Handle, ppi int)
	SourceYResolution(h Handle) int
	SetRectangle(h Handle, left, top, width, height int)
	ThresholdedImageScaleFactor(h Handle) int

	Recognize(h Handle) int
	ProcessPages(h Handle, filename, retryConfig string, timeoutMillis int, outputBase string) int
	Clear(h Handle)
	ClearAdaptiveClassifier(h Handle)

	UTF8Text(h Handle) Text
	HOCRText(h Handle, page int) Text
	AltoText(h Handle, page int) Text
	TsvText(h Handle, page int) Text
	BoxText(h Handle, page int) Text
	LSTMBoxText(h Handle, page int) Text
	WordStrBoxText(h Handle, page int) Text
	UNLVText(h Handle) Text

	MeanTextConf(h Handle) int
	AllWordConfidences(h Handle) IntArray
	AdaptToWordStr(h Handle, mode int, word string) int
	IsValidWord(h Handle, word string) int
	Unichar(h Handle, id int) (string, bool)
	DetectOrientationScript(h Handle) (Orientation, int)
	SetMinOrientationMargin(h Handle, margin float64)
	TextDirection(h Handle) (int, float32, int)

	AnalyseLayout(h Handle) PageIter
	Iterator(h Handle) ResultIter
	MutableIterator(h Handle) ResultIter

	PageIteratorDelete(it PageIter)
	PageIteratorBegin(it PageIter)
	PageIteratorNext(it PageIter, level int) int
	PageIteratorIsAtBeginningOf(it PageIter, level int) int
	PageIteratorIsAtFinalElement(it PageIter, level, element int) int
	PageIteratorBoundingBox(it PageIter, level int) (Box, int)
	PageIteratorBlockType(it PageIter) int

	ResultIteratorDelete(it ResultIter)
	ResultIteratorNext(it ResultIter, level int) int
	ResultIteratorText(it ResultIter, level int) Text
	ResultIteratorConfidence(it ResultIter, level int) float32
	ResultIteratorBoundingBox(it ResultIter, level int) (Box, int)
	ResultIteratorIsAtBeginningOf(it ResultIter, level int) int
	ResultIteratorWordRecognitionLanguage(it ResultIter) (string, bool)
}
