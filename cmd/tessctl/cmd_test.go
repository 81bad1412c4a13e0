package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wudi/tesskit/internal/capi"
	"github.com/wudi/tesskit/internal/capi/capitest"
)

const testConfig = `
tessdata = "/tessdata"
language = "eng"
page_seg_mode = 6

[variables]
tessedit_char_whitelist = "abc"

[logging]
level = "error"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tesskit.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func writePNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 32, 16))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func run(t *testing.T, lib *capitest.Library, args ...string) (string, error) {
	t.Helper()
	return runWithConfig(t, lib, testConfig, args...)
}

func runWithConfig(t *testing.T, lib *capitest.Library, content string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{out: &out, lib: lib}
	root := newRootCmd(a)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", writeConfig(t, content)}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, capitest.New(), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "engine: 5.5.0-fake") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestLangs(t *testing.T) {
	lib := capitest.New()
	lib.Available = []string{"deu", "eng", "osd"}
	out, err := run(t, lib, "langs")
	if err != nil {
		t.Fatalf("langs: %v", err)
	}
	if out != "deu\neng\nosd\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	if lib.Outstanding() != 0 || lib.LiveInstances() != 0 {
		t.Fatalf("native resources leaked")
	}
}

func TestOCRText(t *testing.T) {
	lib := capitest.New()
	lib.Texts["UTF8"] = "hello\n"
	out, err := run(t, lib, "ocr", "--dpi", "300", writePNG(t))
	if err != nil {
		t.Fatalf("ocr: %v", err)
	}
	if out != "hello\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	inst := lib.Instance(lib.Handles()[0])
	if inst.PageSegMode != 6 || inst.Variables["tessedit_char_whitelist"] != "abc" {
		t.Fatalf("config not applied: psm=%d vars=%v", inst.PageSegMode, inst.Variables)
	}
	if inst.Resolution != 300 || inst.InputName != "scan.png" || inst.Image.Width != 32 {
		t.Fatalf("image settings not applied: %+v", inst)
	}
}

func TestOCRSeveralImagesUsePool(t *testing.T) {
	for _, tc := range []struct {
		size    int
		creates int
	}{
		{size: 1, creates: 2},
		{size: 3, creates: 4},
	} {
		lib := capitest.New()
		lib.Texts["UTF8"] = "hello\n"
		content := testConfig + fmt.Sprintf("\n[pool]\nsize = %d\nacquire_timeout = \"5s\"\n", tc.size)
		img := writePNG(t)
		out, err := runWithConfig(t, lib, content, "ocr", img, img, img)
		if err != nil {
			t.Fatalf("size %d: ocr: %v", tc.size, err)
		}
		if out != "hello\nhello\nhello\n" {
			t.Fatalf("size %d: unexpected output: %q", tc.size, out)
		}
		if n := lib.Count("Create"); n > tc.creates {
			t.Fatalf("size %d: pool size exceeded, %d instances", tc.size, n)
		}
		worker := lib.Instance(lib.Handles()[1])
		if worker.Variables["tessedit_char_whitelist"] != "abc" || worker.Variables["tessedit_pageseg_mode"] != "6" {
			t.Fatalf("size %d: config not applied to pooled instance: %v", tc.size, worker.Variables)
		}
		if lib.LiveInstances() != 0 {
			t.Fatalf("size %d: instances leaked", tc.size)
		}
	}
}

func TestOCRFlagsOverrideConfig(t *testing.T) {
	lib := capitest.New()
	lib.Texts["HOCR"] = "<div class='ocr_page'></div>"
	out, err := run(t, lib, "ocr", "--format", "hocr", "--lang", "deu", "--psm", "single_line", "--whitelist", "xyz", writePNG(t))
	if err != nil {
		t.Fatalf("ocr: %v", err)
	}
	if !strings.Contains(out, "ocr_page") {
		t.Fatalf("unexpected output: %q", out)
	}
	inst := lib.Instance(lib.Handles()[0])
	if inst.Language != "deu" || inst.PageSegMode != 7 || inst.Variables["tessedit_char_whitelist"] != "xyz" {
		t.Fatalf("flags not applied: %+v", inst)
	}
}

func TestOCRWords(t *testing.T) {
	lib := capitest.New()
	lib.Words = []capitest.Word{
		{Text: "Hello", Confidence: 95.5, Box: capi.Box{Left: 1, Top: 2, Right: 30, Bottom: 12}, BlockStart: true},
		{Text: "there", Confidence: 80, Box: capi.Box{Left: 34, Top: 2, Right: 60, Bottom: 12}},
	}
	out, err := run(t, lib, "ocr", "-f", "words", writePNG(t))
	if err != nil {
		t.Fatalf("ocr: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "WORD") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if fields := strings.Fields(lines[1]); len(fields) != 6 || fields[0] != "Hello" || fields[1] != "95.5" || fields[4] != "30" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
	if lib.Outstanding() != 0 {
		t.Fatalf("cursors leaked")
	}
}

func TestOCRRejectsBadFlags(t *testing.T) {
	img := writePNG(t)
	if _, err := run(t, capitest.New(), "ocr", "--psm", "sideways", img); err == nil {
		t.Fatalf("expected error for unknown psm")
	}
	if _, err := run(t, capitest.New(), "ocr", "--format", "pdf", img); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := run(t, capitest.New(), "ocr", "--engine", "cloud", img); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
	if _, err := run(t, capitest.New(), "ocr", filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatalf("expected error for missing image")
	}
}

func TestPages(t *testing.T) {
	lib := capitest.New()
	lib.ProcessPagesOutput = "page one\fpage two\f"
	out, err := run(t, lib, "pages", "--retry-config", "retry.cfg", "doc.tif")
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if out != "page one\fpage two\f" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestVars(t *testing.T) {
	lib := capitest.New()
	out, err := run(t, lib, "vars", "--get", "tessedit_char_whitelist")
	if err != nil {
		t.Fatalf("vars --get: %v", err)
	}
	if out != "abc\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	out, err = run(t, lib, "vars")
	if err != nil {
		t.Fatalf("vars: %v", err)
	}
	if !strings.Contains(out, "tessedit_char_whitelist\tabc") {
		t.Fatalf("unexpected dump: %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	out, err := run(t, capitest.New(), "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	hasPath := strings.Contains(out, "tessdata = '/tessdata'") || strings.Contains(out, `tessdata = "/tessdata"`)
	if !hasPath || !strings.Contains(out, "page_seg_mode = 6") {
		t.Fatalf("unexpected TOML:\n%s", out)
	}
	out, err = run(t, capitest.New(), "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.HasPrefix(out, "ok: eng (fingerprint ") {
		t.Fatalf("unexpected output: %q", out)
	}

	lib := capitest.New()
	lib.InitStatus = func(string, string) int { return -1 }
	if _, err := run(t, lib, "config", "validate"); err == nil {
		t.Fatalf("expected validate to fail when the engine cannot initialize")
	}
}

func TestWatchRequiresConfig(t *testing.T) {
	a := &app{out: &bytes.Buffer{}, lib: capitest.New()}
	root := newRootCmd(a)
	root.SetArgs([]string{"watch"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error without --config")
	}
}
