package tess

import (
	"fmt"
	"strconv"
	"strings"
)

// PageSegMode selects how the engine segments a page (the --psm values).
type PageSegMode int

const (
	PSMOSDOnly PageSegMode = iota
	PSMAutoOSD
	PSMAutoOnly
	PSMAuto
	PSMSingleColumn
	PSMSingleBlockVertText
	PSMSingleBlock
	PSMSingleLine
	PSMSingleWord
	PSMCircleWord
	PSMSingleChar
	PSMSparseText
	PSMSparseTextOSD
	PSMRawLine
	psmCount
)

var psmNames = [...]string{
	"osd_only", "auto_osd", "auto_only", "auto", "single_column",
	"single_block_vert_text", "single_block", "single_line", "single_word",
	"circle_word", "single_char", "sparse_text", "sparse_text_osd", "raw_line",
}

// Valid reports whether m is a mode the engine knows.
func (m PageSegMode) Valid() bool { return m >= 0 && m < psmCount }

func (m PageSegMode) String() string {
	if !m.Valid() {
		return "psm(" + strconv.Itoa(int(m)) + ")"
	}
	return psmNames[m]
}

// ParsePageSegMode accepts either the numeric --psm value or its name.
func ParsePageSegMode(s string) (PageSegMode, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.Atoi(s); err == nil {
		if m := PageSegMode(n); m.Valid() {
			return m, nil
		}
		return 0, fmt.Errorf("page segmentation mode %d out of range", n)
	}
	for i, name := range psmNames {
		if name == s {
			return PageSegMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown page segmentation mode %q", s)
}

// EngineMode selects the recognizer (the --oem values).
type EngineMode int

const (
	EngineTesseractOnly EngineMode = iota
	EngineLSTMOnly
	EngineCombined
	EngineDefault
)

// Valid reports whether m is a mode the engine knows.
func (m EngineMode) Valid() bool { return m >= EngineTesseractOnly && m <= EngineDefault }

func (m EngineMode) String() string {
	switch m {
	case EngineTesseractOnly:
		return "tesseract_only"
	case EngineLSTMOnly:
		return "lstm_only"
	case EngineCombined:
		return "combined"
	case EngineDefault:
		return "default"
	}
	return "oem(" + strconv.Itoa(int(m)) + ")"
}

// PageIteratorLevel is the granularity a cursor moves and reports at.
type PageIteratorLevel int

const (
	LevelBlock PageIteratorLevel = iota
	LevelParagraph
	LevelTextLine
	LevelWord
	LevelSymbol
)

func (l PageIteratorLevel) String() string {
	switch l {
	case LevelBlock:
		return "block"
	case LevelParagraph:
		return "paragraph"
	case LevelTextLine:
		return "textline"
	case LevelWord:
		return "word"
	case LevelSymbol:
		return "symbol"
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// BlockType is the layout class of a block (PolyBlockType).
type BlockType int

const (
	BlockUnknown BlockType = iota
	BlockFlowingText
	BlockHeadingText
	BlockPulloutText
	BlockEquation
	BlockInlineEquation
	BlockTable
	BlockVerticalText
	BlockCaptionText
	BlockFlowingImage
	BlockHeadingImage
	BlockPulloutImage
	BlockHorzLine
	BlockVertLine
	BlockNoise
)

// IsText reports whether the block carries recognizable text.
func (b BlockType) IsText() bool {
	switch b {
	case BlockFlowingText, BlockHeadingText, BlockPulloutText, BlockVerticalText, BlockCaptionText, BlockTable:
		return true
	}
	return false
}

// Orientation is the result of orientation and script detection.
type Orientation struct {
	Degrees          int
	Confidence       float32
	Script           string
	ScriptConfidence float32
}

// Box is a pixel rectangle with an exclusive right/bottom edge.
type Box struct {
	Left, Top, Right, Bottom int
}

func (b Box) Width() int  { return b.Right - b.Left }
func (b Box) Height() int { return b.Bottom - b.Top }
