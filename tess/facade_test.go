package tess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/wudi/tesskit/internal/capi"
	"github.com/wudi/tesskit/internal/capi/capitest"
)

func TestWordConfidencesStopAtSentinel(t *testing.T) {
	a, lib := newTestAPI(t)
	lib.Confidences = []int32{88, 91, -1}
	got, err := a.WordConfidences()
	if err != nil {
		t.Fatalf("confidences: %v", err)
	}
	if !slices.Equal(got, []int{88, 91}) {
		t.Fatalf("got %v, want [88 91]", got)
	}
	if lib.Outstanding() != 0 || lib.Released() != 1 {
		t.Fatalf("array must be released exactly once: outstanding=%d released=%d", lib.Outstanding(), lib.Released())
	}

	lib.Confidences = []int32{-1}
	got, err = a.AllWordConfidences()
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("empty array: %v, %v", got, err)
	}

	lib.Confidences = nil
	if _, err := a.WordConfidences(); !errors.Is(err, ErrNullPointer) {
		t.Fatalf("expected ErrNullPointer, got %v", err)
	}
	if _, err := a.AllWordConfidences(); !errors.Is(err, ErrOCR) {
		t.Fatalf("expected ErrOCR, got %v", err)
	}
}

func TestSetImageValidation(t *testing.T) {
	tests := []struct {
		name                 string
		size, w, h, bpp, bpl int
		want                 error
	}{
		{"zero width", 100, 0, 10, 1, 10, ErrInvalidDimensions},
		{"negative height", 100, 10, -1, 1, 10, ErrInvalidDimensions},
		{"zero bpp", 100, 10, 10, 0, 10, ErrInvalidBytesPerPixel},
		{"short line", 300, 10, 10, 3, 29, ErrInvalidBytesPerLine},
		{"short buffer", 299, 10, 10, 3, 30, ErrInvalidImageData},
		{"ok", 300, 10, 10, 3, 30, nil},
		{"padded", 320, 10, 10, 3, 32, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, lib := newTestAPI(t)
			err := a.SetImage(make([]byte, tt.size), tt.w, tt.h, tt.bpp, tt.bpl)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("set image: %v", err)
				}
				img := lib.Instance(lib.Handles()[0]).Image
				if img.Width != tt.w || img.BytesPerLine != tt.bpl || img.Len != tt.size {
					t.Fatalf("native image = %+v", img)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if n := lib.Count("SetImage"); n != 0 {
				t.Fatalf("invalid image reached the engine")
			}
		})
	}
}

func TestSetRectangleAndResolution(t *testing.T) {
	a, lib := newTestAPI(t)
	if err := a.SetRectangle(5, 6, 0, 10); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions, got %v", err)
	}
	if err := a.SetRectangle(5, 6, 7, 8); err != nil {
		t.Fatalf("set rectangle: %v", err)
	}
	if err := a.SetSourceResolution(0); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions, got %v", err)
	}
	if err := a.SetSourceResolution(300); err != nil {
		t.Fatalf("set resolution: %v", err)
	}
	inst := lib.Instance(lib.Handles()[0])
	if inst.Rectangle != [4]int{5, 6, 7, 8} {
		t.Fatalf("rectangle = %v", inst.Rectangle)
	}
	if ppi, err := a.SourceYResolution(); err != nil || ppi != 300 {
		t.Fatalf("resolution = %d, %v", ppi, err)
	}
}

func TestTextOutputsReleaseBuffers(t *testing.T) {
	a, lib := newTestAPI(t)
	lib.Texts["UTF8"] = "hello world\n"
	lib.Texts["HOCR"] = "<div class='ocr_page'></div>"
	lib.Texts["Tsv"] = "level\tpage_num\n"

	if s, err := a.UTF8Text(); err != nil || s != "hello world\n" {
		t.Fatalf("utf8 = %q, %v", s, err)
	}
	if s, err := a.HOCRText(0); err != nil || !strings.Contains(s, "ocr_page") {
		t.Fatalf("hocr = %q, %v", s, err)
	}
	if s, err := a.TsvText(0); err != nil || !strings.HasPrefix(s, "level") {
		t.Fatalf("tsv = %q, %v", s, err)
	}
	if lib.Outstanding() != 0 || lib.Released() != 3 {
		t.Fatalf("buffers not released: outstanding=%d released=%d", lib.Outstanding(), lib.Released())
	}

	for name, fn := range map[string]func() (string, error){
		"alto":    func() (string, error) { return a.AltoText(0) },
		"box":     func() (string, error) { return a.BoxText(0) },
		"lstmbox": func() (string, error) { return a.LSTMBoxText(0) },
		"wordstr": func() (string, error) { return a.WordStrBoxText(0) },
		"unlv":    a.UNLVText,
	} {
		if _, err := fn(); !errors.Is(err, ErrOCR) {
			t.Fatalf("%s: expected ErrOCR for a null buffer, got %v", name, err)
		}
	}
}

func TestVariableGetters(t *testing.T) {
	a, _ := newTestAPI(t)
	for k, v := range map[string]string{"n": "42", "b": "T", "d": "0.5", "s": "text"} {
		if err := a.SetVariable(k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if n, err := a.IntVariable("n"); err != nil || n != 42 {
		t.Fatalf("int = %d, %v", n, err)
	}
	if b, err := a.BoolVariable("b"); err != nil || !b {
		t.Fatalf("bool = %v, %v", b, err)
	}
	if d, err := a.DoubleVariable("d"); err != nil || d != 0.5 {
		t.Fatalf("double = %v, %v", d, err)
	}
	if s, err := a.StringVariable("s"); err != nil || s != "text" {
		t.Fatalf("string = %q, %v", s, err)
	}
	if _, err := a.IntVariable("s"); !errors.Is(err, ErrGetVariable) {
		t.Fatalf("expected ErrGetVariable, got %v", err)
	}
	if _, err := a.StringVariable("missing"); !errors.Is(err, ErrGetVariable) {
		t.Fatalf("expected ErrGetVariable, got %v", err)
	}
}

func TestDebugVariableNotRecorded(t *testing.T) {
	a, lib := newTestAPI(t)
	if err := a.SetDebugVariable("debug_file", "/dev/null"); err != nil {
		t.Fatalf("set debug: %v", err)
	}
	if _, ok := a.Config().Variables["debug_file"]; ok {
		t.Fatalf("debug variables are not part of the snapshot")
	}
	lib.RejectVariable = func(string) bool { return true }
	if err := a.SetDebugVariable("x", "y"); !errors.Is(err, ErrSetVariable) {
		t.Fatalf("expected ErrSetVariable, got %v", err)
	}
}

func TestPrintVariablesToFile(t *testing.T) {
	a, _ := newTestAPI(t)
	if err := a.SetVariable("alpha", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	path := filepath.Join(t.TempDir(), "vars.txt")
	if err := a.PrintVariablesToFile(path); err != nil {
		t.Fatalf("print: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "alpha\t1") {
		t.Fatalf("file = %q, %v", data, err)
	}
	if err := a.PrintVariablesToFile(filepath.Join(t.TempDir(), "missing", "vars.txt")); !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestPageSegMode(t *testing.T) {
	a, _ := newTestAPI(t)
	if err := a.SetPageSegMode(PSMSingleLine); err != nil {
		t.Fatalf("set psm: %v", err)
	}
	if m, err := a.PageSegMode(); err != nil || m != PSMSingleLine {
		t.Fatalf("psm = %v, %v", m, err)
	}
	if err := a.SetPageSegMode(PageSegMode(99)); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestLanguages(t *testing.T) {
	a, lib := newTestAPI(t)
	if err := a.Init("/tessdata", "eng+deu"); err != nil {
		t.Fatalf("init: %v", err)
	}
	lib.Loaded = []string{"eng", "deu"}
	lib.Available = []string{"deu", "eng", "osd"}
	if got, err := a.LoadedLanguages(); err != nil || !slices.Equal(got, lib.Loaded) {
		t.Fatalf("loaded = %v, %v", got, err)
	}
	if got, err := a.AvailableLanguages(); err != nil || !slices.Equal(got, lib.Available) {
		t.Fatalf("available = %v, %v", got, err)
	}
	if s, err := a.InitLanguages(); err != nil || s != "eng+deu" {
		t.Fatalf("init languages = %q, %v", s, err)
	}
	if lib.Outstanding() != 0 {
		t.Fatalf("language arrays not released")
	}
	lib.Loaded = nil
	if _, err := a.LoadedLanguages(); !errors.Is(err, ErrNullPointer) {
		t.Fatalf("expected ErrNullPointer, got %v", err)
	}
}

func TestNamesAndDatapath(t *testing.T) {
	a, _ := newTestAPI(t)
	if _, err := a.InputName(); !errors.Is(err, ErrNullPointer) {
		t.Fatalf("expected ErrNullPointer, got %v", err)
	}
	if err := a.SetInputName("scan.png"); err != nil {
		t.Fatalf("set input name: %v", err)
	}
	if s, err := a.InputName(); err != nil || s != "scan.png" {
		t.Fatalf("input name = %q, %v", s, err)
	}
	if _, err := a.Datapath(); !errors.Is(err, ErrNullPointer) {
		t.Fatalf("expected ErrNullPointer before init, got %v", err)
	}
	if err := a.Init("/tessdata", "eng"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if s, err := a.Datapath(); err != nil || s != "/tessdata" {
		t.Fatalf("datapath = %q, %v", s, err)
	}
}

func TestOrientationAndDirection(t *testing.T) {
	a, lib := newTestAPI(t)
	lib.Orientation = capi.Orientation{Degrees: 90, Confidence: 12.5, Script: "Latin", ScriptConfidence: 3}
	o, err := a.DetectOrientationScript()
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if o.Degrees != 90 || o.Script != "Latin" {
		t.Fatalf("orientation = %+v", o)
	}
	lib.OrientationOK = 0
	if _, err := a.DetectOrientationScript(); !errors.Is(err, ErrOCR) {
		t.Fatalf("expected ErrOCR, got %v", err)
	}

	lib.DirectionOffset, lib.DirectionSlope = 4, 0.25
	off, slope, err := a.TextDirection()
	if err != nil || off != 4 || slope != 0.25 {
		t.Fatalf("direction = %d %v %v", off, slope, err)
	}
	lib.DirectionOK = 0
	if _, _, err := a.TextDirection(); !errors.Is(err, ErrOCR) {
		t.Fatalf("expected ErrOCR, got %v", err)
	}
}

func TestRecognizeStatus(t *testing.T) {
	a, lib := newTestAPI(t)
	if err := a.Init("/tessdata", "eng"); err != nil {
		t.Fatalf("init: %v", err)
	}
	lib.RecognizeStatus = -1
	if err := a.Recognize(); !errors.Is(err, ErrOCR) {
		t.Fatalf("expected ErrOCR, got %v", err)
	}
	lib.RecognizeStatus = 0
	if err := a.Recognize(); err != nil {
		t.Fatalf("recognize: %v", err)
	}
}

func TestWordHelpers(t *testing.T) {
	a, lib := newTestAPI(t)
	lib.Words = []capitest.Word{{Text: "hello"}}
	if ok, err := a.IsValidWord("hello"); err != nil || !ok {
		t.Fatalf("valid = %v, %v", ok, err)
	}
	if ok, _ := a.IsValidWord("xyzzy"); ok {
		t.Fatalf("unexpected valid word")
	}
	if err := a.AdaptToWordStr(PSMSingleWord, ""); !errors.Is(err, ErrOCR) {
		t.Fatalf("expected ErrOCR, got %v", err)
	}
	if s, err := a.Unichar(65); err != nil || s != "A" {
		t.Fatalf("unichar = %q, %v", s, err)
	}
	if _, err := a.Unichar(-1); !errors.Is(err, ErrNullPointer) {
		t.Fatalf("expected ErrNullPointer, got %v", err)
	}
}

func TestProcessPages(t *testing.T) {
	a, lib := newTestAPI(t)
	if _, err := a.ProcessPages(context.Background(), "scan.tif", "", time.Second); !errors.Is(err, ErrUninitialized) {
		t.Fatalf("expected ErrUninitialized, got %v", err)
	}
	if err := a.Init("/tessdata", "eng"); err != nil {
		t.Fatalf("init: %v", err)
	}
	lib.ProcessPagesOutput = "page one\fpage two\f"
	text, err := a.ProcessPages(context.Background(), "scan.tif", "retry.cfg", 2*time.Second)
	if err != nil {
		t.Fatalf("process pages: %v", err)
	}
	if text != lib.ProcessPagesOutput {
		t.Fatalf("text = %q", text)
	}
	var call []string
	for _, c := range lib.Calls() {
		if c.Op == "ProcessPages" {
			call = c.Args
		}
	}
	if len(call) != 4 || call[0] != "scan.tif" || call[1] != "retry.cfg" || call[2] != "2000" {
		t.Fatalf("native args = %v", call)
	}

	lib.ProcessPagesStatus = 0
	if _, err := a.ProcessPages(context.Background(), "scan.tif", "", 0); !errors.Is(err, ErrProcessPages) {
		t.Fatalf("expected ErrProcessPages, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	before := lib.Count("ProcessPages")
	if _, err := a.ProcessPages(ctx, "scan.tif", "", 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if lib.Count("ProcessPages") != before {
		t.Fatalf("canceled context must not reach the engine")
	}
}

func TestMiscForwarding(t *testing.T) {
	a, lib := newTestAPI(t)
	steps := []struct {
		op string
		fn func() error
	}{
		{"InitForAnalysePage", a.InitForAnalysePage},
		{"ClearAdaptiveClassifier", a.ClearAdaptiveClassifier},
		{"Clear", a.Clear},
		{"SetMinOrientationMargin", func() error { return a.SetMinOrientationMargin(7) }},
		{"SetOutputName", func() error { return a.SetOutputName("out") }},
		{"ReadConfigFile", func() error { return a.ReadConfigFile("digits") }},
		{"ReadDebugConfigFile", func() error { return a.ReadDebugConfigFile("debug") }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			t.Fatalf("%s: %v", s.op, err)
		}
		if lib.Count(s.op) != 1 {
			t.Fatalf("%s not forwarded", s.op)
		}
	}
	if f, err := a.ThresholdedImageScaleFactor(); err != nil || f != 1 {
		t.Fatalf("scale factor = %d, %v", f, err)
	}
}
