package tess

import (
	"github.com/wudi/tesskit/internal/capi"
)

// SetDebugVariable sets a debug parameter on the live instance. Unlike
// SetVariable it is not recorded in the snapshot and does not survive
// reinitialization.
func (a *API) SetDebugVariable(name, value string) error {
	const op = "set debug variable"
	return a.with(op, func(lib capi.Library, h capi.Handle) error {
		if lib.SetDebugVariable(h, name, value) != 1 {
			return opErr(op, ErrSetVariable, "%s=%q", name, value)
		}
		return nil
	})
}

func (a *API) StringVariable(name string) (string, error) {
	const op = "string variable"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (string, error) {
		v, ok := lib.StringVariable(h, name)
		if !ok {
			return "", opErr(op, ErrGetVariable, "%s", name)
		}
		return v, nil
	})
}

func (a *API) IntVariable(name string) (int, error) {
	const op = "int variable"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (int, error) {
		v, ok := lib.IntVariable(h, name)
		if ok != 1 {
			return 0, opErr(op, ErrGetVariable, "%s", name)
		}
		return v, nil
	})
}

func (a *API) BoolVariable(name string) (bool, error) {
	const op = "bool variable"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (bool, error) {
		v, ok := lib.BoolVariable(h, name)
		if ok != 1 {
			return false, opErr(op, ErrGetVariable, "%s", name)
		}
		return v, nil
	})
}

func (a *API) DoubleVariable(name string) (float64, error) {
	const op = "double variable"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (float64, error) {
		v, ok := lib.DoubleVariable(h, name)
		if ok != 1 {
			return 0, opErr(op, ErrGetVariable, "%s", name)
		}
		return v, nil
	})
}

// PrintVariablesToFile writes every engine parameter and its value to
// filename.
func (a *API) PrintVariablesToFile(filename string) error {
	const op = "print variables"
	return a.with(op, func(lib capi.Library, h capi.Handle) error {
		if lib.PrintVariablesToFile(h, filename) != 1 {
			return opErr(op, ErrIO, "%s", filename)
		}
		return nil
	})
}

// ReadConfigFile applies a Tesseract config file to the live instance. Values
// read this way are not recorded in the snapshot.
func (a *API) ReadConfigFile(filename string) error {
	return a.with("read config file", func(lib capi.Library, h capi.Handle) error {
		lib.ReadConfigFile(h, filename)
		return nil
	})
}

func (a *API) ReadDebugConfigFile(filename string) error {
	return a.with("read debug config file", func(lib capi.Library, h capi.Handle) error {
		lib.ReadDebugConfigFile(h, filename)
		return nil
	})
}

// SetPageSegMode selects how the next image is segmented.
func (a *API) SetPageSegMode(mode PageSegMode) error {
	const op = "set page seg mode"
	if !mode.Valid() {
		return opErr(op, ErrSetVariable, "%s", mode)
	}
	return a.with(op, func(lib capi.Library, h capi.Handle) error {
		lib.SetPageSegMode(h, int(mode))
		return nil
	})
}

func (a *API) PageSegMode() (PageSegMode, error) {
	return handleValue(a, "page seg mode", func(lib capi.Library, h capi.Handle) (PageSegMode, error) {
		return PageSegMode(lib.PageSegMode(h)), nil
	})
}

func (a *API) SetInputName(name string) error {
	return a.with("set input name", func(lib capi.Library, h capi.Handle) error {
		lib.SetInputName(h, name)
		return nil
	})
}

func (a *API) InputName() (string, error) {
	const op = "input name"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (string, error) {
		s, ok := lib.InputName(h)
		if !ok {
			return "", opErr(op, ErrNullPointer, "no input name set")
		}
		return s, nil
	})
}

func (a *API) SetOutputName(name string) error {
	return a.with("set output name", func(lib capi.Library, h capi.Handle) error {
		lib.SetOutputName(h, name)
		return nil
	})
}

// Datapath returns the data directory the engine resolved during
// initialization.
func (a *API) Datapath() (string, error) {
	const op = "datapath"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (string, error) {
		s, ok := lib.Datapath(h)
		if !ok {
			return "", opErr(op, ErrNullPointer, "")
		}
		return s, nil
	})
}

// InitLanguages returns the language string the engine was initialized
// with, such as "eng+deu".
func (a *API) InitLanguages() (string, error) {
	const op = "init languages"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) (string, error) {
		s, ok := lib.InitLanguagesAsString(h)
		if !ok {
			return "", opErr(op, ErrNullPointer, "")
		}
		return s, nil
	})
}

func (a *API) LoadedLanguages() ([]string, error) {
	const op = "loaded languages"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) ([]string, error) {
		return takeTexts(op, lib.LoadedLanguages(h), ErrNullPointer)
	})
}

// AvailableLanguages lists the traineddata files found in the data directory.
func (a *API) AvailableLanguages() ([]string, error) {
	const op = "available languages"
	return handleValue(a, op, func(lib capi.Library, h capi.Handle) ([]string, error) {
		return takeTexts(op, lib.AvailableLanguages(h), ErrNullPointer)
	})
}
