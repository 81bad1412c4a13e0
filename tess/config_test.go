package tess

import (
	"errors"
	"testing"
)

func TestConfigCloneIsDeep(t *testing.T) {
	c := Config{
		DataPath:      "/tessdata",
		Language:      "eng",
		Configs:       []string{"digits"},
		InitVariables: map[string]string{"load_system_dawg": "F"},
		Data:          []byte{1, 2, 3},
		Variables:     map[string]string{"k": "v"},
	}
	d := c.Clone()
	d.Configs[0] = "hocr"
	d.InitVariables["load_system_dawg"] = "T"
	d.Data[0] = 9
	d.Variables["k"] = "changed"
	if c.Configs[0] != "digits" || c.InitVariables["load_system_dawg"] != "F" || c.Data[0] != 1 || c.Variables["k"] != "v" {
		t.Fatalf("clone shares state with the original: %+v", c)
	}
	if (Config{}).Clone().Variables == nil {
		t.Fatalf("clone must always carry a variables map")
	}
}

func TestConfigInitialized(t *testing.T) {
	if (Config{}).Initialized() {
		t.Fatalf("zero config is uninitialized")
	}
	if (Config{DataPath: "/tessdata", Language: "eng"}).Initialized() {
		t.Fatalf("a hand-built config is never initialized")
	}
	c := Config{Language: "eng", loaded: true}
	if !c.Clone().Initialized() {
		t.Fatalf("clone must keep the initialized flag")
	}
}

func TestConfigFingerprint(t *testing.T) {
	a := Config{DataPath: "/tessdata", Language: "eng", Variables: map[string]string{"x": "1", "y": "2"}}
	b := Config{DataPath: "/tessdata", Language: "eng", Variables: map[string]string{"y": "2", "x": "1"}}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("fingerprint must not depend on map order")
	}
	if len(a.Fingerprint()) != 64 {
		t.Fatalf("expected a hex blake2b-256 digest, got %q", a.Fingerprint())
	}
	for name, c := range map[string]Config{
		"language": {DataPath: "/tessdata", Language: "deu", Variables: a.Variables},
		"variable": {DataPath: "/tessdata", Language: "eng", Variables: map[string]string{"x": "1"}},
		"mode":     {DataPath: "/tessdata", Language: "eng", Mode: EngineLSTMOnly, Variables: a.Variables},
		"boundary": {DataPath: "/tessdat", Language: "aeng", Variables: a.Variables},
	} {
		if c.Fingerprint() == a.Fingerprint() {
			t.Fatalf("%s change must change the fingerprint", name)
		}
	}
}

func TestParsePageSegMode(t *testing.T) {
	tests := []struct {
		in   string
		want PageSegMode
		ok   bool
	}{
		{"3", PSMAuto, true},
		{"single_line", PSMSingleLine, true},
		{" RAW_LINE ", PSMRawLine, true},
		{"14", 0, false},
		{"columns", 0, false},
	}
	for _, tt := range tests {
		got, err := ParsePageSegMode(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Fatalf("ParsePageSegMode(%q) = %v, %v", tt.in, got, err)
		}
	}
	if PSMSparseTextOSD.String() != "sparse_text_osd" || PageSegMode(40).String() != "psm(40)" {
		t.Fatalf("unexpected names")
	}
}

func TestOpErrorMessage(t *testing.T) {
	err := opErr("init", ErrInit, "status %d", -1)
	if err.Error() != "init: tess: initialization failed (status -1)" {
		t.Fatalf("message = %q", err.Error())
	}
	cause := errors.New("disk full")
	err = wrapErr("process pages", ErrIO, cause)
	if !errors.Is(err, ErrIO) || !errors.Is(err, cause) {
		t.Fatalf("wrapped error must match both sentinel and cause")
	}
}
