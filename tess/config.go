package tess

import (
	"encoding/hex"
	"maps"
	"slices"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// Config is the snapshot of everything that determines reproducible engine
// state: where the language data came from, which languages were loaded, and
// every variable set through SetVariable. An empty DataPath means the
// engine's built-in data location.
type Config struct {
	DataPath string
	Language string
	// Mode, Configs and InitVariables are the optional initializer arguments.
	Mode            EngineMode
	Configs         []string
	InitVariables   map[string]string
	SetOnlyNonDebug bool
	// Data is in-memory traineddata used instead of DataPath.
	Data []byte
	// Variables are replayed after every successful initialization.
	Variables map[string]string

	loaded bool
}

// InitOptions are the arguments of the extended initializers.
type InitOptions struct {
	DataPath string
	Language string
	Mode     EngineMode
	// Configs names config files the engine reads during initialization.
	Configs []string
	// InitVariables are init-only parameters (such as load_system_dawg)
	// that cannot be changed after initialization.
	InitVariables map[string]string
	// SetOnlyNonDebug restricts InitVariables to non-debug parameters.
	SetOnlyNonDebug bool
}

// DefaultInitOptions returns options for the engine's default recognizer.
func DefaultInitOptions(dataPath, language string) InitOptions {
	return InitOptions{DataPath: dataPath, Language: language, Mode: EngineDefault}
}

// Initialized reports whether the snapshot records a successful
// initialization. Only an API sets it; a Config built by hand is never
// initialized.
func (c Config) Initialized() bool { return c.loaded }

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.Configs = slices.Clone(c.Configs)
	out.InitVariables = maps.Clone(c.InitVariables)
	out.Data = slices.Clone(c.Data)
	out.Variables = maps.Clone(c.Variables)
	if out.Variables == nil {
		out.Variables = map[string]string{}
	}
	return out
}

// Options returns the initializer arguments recorded in the snapshot.
func (c Config) Options() InitOptions {
	return InitOptions{
		DataPath:        c.DataPath,
		Language:        c.Language,
		Mode:            c.Mode,
		Configs:         slices.Clone(c.Configs),
		InitVariables:   maps.Clone(c.InitVariables),
		SetOnlyNonDebug: c.SetOnlyNonDebug,
	}
}

// sameSource reports whether initializing with o and data would load exactly
// what the snapshot already describes.
func (c Config) sameSource(o InitOptions, data []byte) bool {
	return c.DataPath == o.DataPath &&
		c.Language == o.Language &&
		c.Mode == o.Mode &&
		slices.Equal(c.Configs, o.Configs) &&
		maps.Equal(c.InitVariables, o.InitVariables) &&
		c.SetOnlyNonDebug == o.SetOnlyNonDebug &&
		slices.Equal(c.Data, data)
}

// Fingerprint is a stable digest of the snapshot. Two configs with the same
// fingerprint produce interchangeable engines.
func (c Config) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	write := func(s string) {
		h.Write([]byte(strconv.Itoa(len(s))))
		h.Write([]byte{':'})
		h.Write([]byte(s))
	}
	write(c.DataPath)
	write(c.Language)
	write(strconv.Itoa(int(c.Mode)))
	write(strconv.FormatBool(c.SetOnlyNonDebug))
	for _, f := range c.Configs {
		write(f)
	}
	write("|")
	for _, k := range slices.Sorted(maps.Keys(c.InitVariables)) {
		write(k)
		write(c.InitVariables[k])
	}
	write("|")
	h.Write(c.Data)
	write("|")
	for _, k := range slices.Sorted(maps.Keys(c.Variables)) {
		write(k)
		write(c.Variables[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
