package tess

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/tesskit/internal/capi"
	"github.com/wudi/tesskit/observability"
)

// API owns one engine instance. It is safe for concurrent use; calls on the
// same API are serialized.
//
// Two locks guard an API: the configuration lock protects the snapshot and
// the handle lock protects the native instance. Operations that need both
// always take the configuration lock first.
type API struct {
	id     string
	lib    capi.Library
	base   observability.Logger
	logger observability.Logger
	tracer observability.Tracer

	config guard
	cfg    Config

	handle  guard
	h       capi.Handle
	live    bool
	cursors map[*cursor]struct{}

	epoch atomic.Uint64
}

// Option configures New.
type Option func(*API)

// WithLibrary selects the native library. The default is the libtesseract
// binding compiled in with the "tesseract" build tag.
func WithLibrary(lib capi.Library) Option {
	return func(a *API) { a.lib = lib }
}

func WithLogger(l observability.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.base = l
		}
	}
}

func WithTracer(t observability.Tracer) Option {
	return func(a *API) {
		if t != nil {
			a.tracer = t
		}
	}
}

// New allocates an engine instance. The instance starts uninitialized; call
// Init before recognizing anything.
func New(opts ...Option) (*API, error) {
	a := &API{
		id:      uuid.NewString(),
		base:    observability.NopLogger{},
		tracer:  observability.NopTracer(),
		cursors: make(map[*cursor]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.lib == nil {
		lib, err := capi.Default()
		if err != nil {
			return nil, wrapErr("new", ErrUnavailable, err)
		}
		a.lib = lib
	}
	a.logger = a.base.With(observability.String("tess_id", a.id))
	a.config.name, a.config.logger = "config", a.logger
	a.handle.name, a.handle.logger = "handle", a.logger

	a.h = a.lib.Create()
	if a.h == nil {
		return nil, opErr("new", ErrAllocation, "")
	}
	a.cfg.Variables = make(map[string]string)
	a.logger.Debug("tess api created", observability.String("version", a.lib.Version()))
	return a, nil
}

// Version returns the version of the compiled-in native library.
func Version() (string, error) {
	lib, err := capi.Default()
	if err != nil {
		return "", wrapErr("version", ErrUnavailable, err)
	}
	return lib.Version(), nil
}

// ID identifies this instance in logs.
func (a *API) ID() string { return a.id }

// Version returns the version of the native library behind a.
func (a *API) Version() string { return a.lib.Version() }

// Epoch returns the page-state generation. It changes whenever cursors
// obtained earlier become invalid.
func (a *API) Epoch() uint64 { return a.epoch.Load() }

// Config returns a deep copy of the configuration snapshot.
func (a *API) Config() Config {
	a.config.mu.Lock()
	defer a.config.mu.Unlock()
	return a.cfg.Clone()
}

// Initialized reports whether the snapshot records a successful
// initialization. It stays true after End.
func (a *API) Initialized() bool {
	a.config.mu.Lock()
	defer a.config.mu.Unlock()
	return a.cfg.Initialized()
}

// Init loads language data from dataPath with the default recognizer. An
// empty dataPath lets the engine use its built-in location.
//
// Calling Init again with the same arguments does nothing. Calling it with
// different arguments ends the current session first. Every variable set
// with SetVariable is reapplied after a successful initialization. If the
// engine rejects the arguments the API is left uninitialized.
func (a *API) Init(dataPath, language string) error {
	return a.initialize("init", DefaultInitOptions(dataPath, language), nil)
}

// InitWithOptions is Init with an engine mode, config files and init-only
// variables.
func (a *API) InitWithOptions(opts InitOptions) error {
	return a.initialize("init", opts, nil)
}

// InitFromData is Init with traineddata held in memory instead of a data
// directory. DataPath in opts is ignored.
func (a *API) InitFromData(data []byte, language string, opts InitOptions) error {
	if len(data) == 0 {
		return opErr("init from data", ErrInit, "empty traineddata")
	}
	opts.DataPath = ""
	opts.Language = language
	return a.initialize("init from data", opts, data)
}

func (a *API) initialize(op string, opts InitOptions, data []byte) error {
	_, span := a.tracer.StartSpan(context.Background(), observability.SpanInit)
	defer span.Finish()
	span.SetTag(observability.TagLanguage, opts.Language)
	start := time.Now()

	var reinit, skipped bool
	err := a.config.do(op, func() error {
		return a.handle.do(op, func() error {
			if a.h == nil {
				return opErr(op, ErrClosed, "")
			}
			if a.live && a.cfg.Initialized() && a.cfg.sameSource(opts, data) {
				skipped = true
				return nil
			}
			if a.live {
				a.lib.End(a.h)
				a.live = false
				reinit = true
			}

			a.cfg = Config{
				DataPath:        opts.DataPath,
				Language:        opts.Language,
				Mode:            opts.Mode,
				Configs:         slices.Clone(opts.Configs),
				InitVariables:   maps.Clone(opts.InitVariables),
				SetOnlyNonDebug: opts.SetOnlyNonDebug,
				Data:            slices.Clone(data),
				Variables:       a.cfg.Variables,
			}
			status := a.nativeInit(opts, data)
			a.bump()
			if status != 0 {
				vars := a.cfg.Variables
				a.cfg = Config{Variables: vars}
				return opErr(op, ErrInit, "status %d for language %q", status, opts.Language)
			}
			a.live = true
			a.cfg.loaded = true
			return a.replayLocked(op)
		})
	})

	fields := []observability.Field{
		observability.String("language", opts.Language),
		observability.Duration("took", time.Since(start)),
		observability.Uint64("epoch", a.Epoch()),
	}
	switch {
	case err != nil:
		span.SetError(err)
		a.logger.Warn("tess init failed", append(fields, observability.Error("error", err))...)
	case skipped:
		a.logger.Debug("tess init skipped; configuration unchanged", fields...)
	default:
		a.logger.Debug("tess initialized", append(fields, observability.Bool("reinit", reinit))...)
	}
	return err
}

// nativeInit picks the narrowest initializer able to express opts.
func (a *API) nativeInit(opts InitOptions, data []byte) int {
	names := slices.Sorted(maps.Keys(opts.InitVariables))
	values := make([]string, len(names))
	for i, k := range names {
		values[i] = opts.InitVariables[k]
	}
	params := capi.InitParams{
		Mode:         int(opts.Mode),
		Configs:      opts.Configs,
		VarNames:     names,
		VarValues:    values,
		NonDebugOnly: opts.SetOnlyNonDebug,
	}
	switch {
	case data != nil:
		return a.lib.Init5(a.h, data, opts.Language, params)
	case len(names) > 0:
		return a.lib.Init4(a.h, opts.DataPath, opts.Language, params)
	case len(opts.Configs) > 0:
		return a.lib.Init1(a.h, opts.DataPath, opts.Language, int(opts.Mode), opts.Configs)
	case opts.Mode != EngineDefault:
		return a.lib.Init2(a.h, opts.DataPath, opts.Language, int(opts.Mode))
	default:
		return a.lib.Init3(a.h, opts.DataPath, opts.Language)
	}
}

// replayLocked applies every snapshot variable to a freshly initialized
// instance. A variable the engine no longer accepts is dropped from the
// snapshot and reported. Both locks must be held.
func (a *API) replayLocked(op string) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(a.cfg.Variables)) {
		value := a.cfg.Variables[name]
		if a.lib.SetVariable(a.h, name, value) == 1 {
			continue
		}
		delete(a.cfg.Variables, name)
		a.logger.Warn("tess variable dropped on replay", observability.String("name", name))
		errs = append(errs, opErr(op, ErrSetVariable, "replay %s=%q", name, value))
	}
	if len(errs) == 0 {
		a.logger.Debug("tess variables replayed", observability.Int("count", len(a.cfg.Variables)))
	}
	return errors.Join(errs...)
}

// SetVariable records name=value in the snapshot and applies it to the
// engine. Variables may be set before Init; they are reapplied after every
// initialization. If the engine rejects the variable the snapshot keeps its
// previous value.
func (a *API) SetVariable(name, value string) error {
	const op = "set variable"
	return a.config.do(op, func() error {
		prev, had := a.cfg.Variables[name]
		a.cfg.Variables[name] = value
		err := a.with(op, func(lib capi.Library, h capi.Handle) error {
			if lib.SetVariable(h, name, value) != 1 {
				return opErr(op, ErrSetVariable, "%s=%q", name, value)
			}
			return nil
		})
		if err != nil {
			if had {
				a.cfg.Variables[name] = prev
			} else {
				delete(a.cfg.Variables, name)
			}
		}
		return err
	})
}

// End frees the engine's language data and page results without destroying
// the instance. The snapshot is kept, so a later Init with the same
// arguments loads it again. End may be called any number of times.
func (a *API) End() error {
	err := a.with("end", func(lib capi.Library, h capi.Handle) error {
		lib.End(h)
		a.live = false
		a.bump()
		return nil
	})
	if err == nil {
		a.logger.Debug("tess session ended", observability.Uint64("epoch", a.Epoch()))
	}
	return err
}

// Close releases every open cursor, ends the session and destroys the
// engine instance. It runs even when a lock was poisoned, and is a no-op on
// a closed API.
func (a *API) Close() error {
	var closed bool
	var released int
	a.handle.force(func() {
		if a.h == nil {
			return
		}
		for c := range a.cursors {
			c.releaseLocked()
			released++
		}
		a.lib.End(a.h)
		a.lib.Delete(a.h)
		a.h = nil
		a.live = false
		a.bump()
		closed = true
	})
	if closed {
		a.logger.Debug("tess api closed", observability.Int("cursors_released", released))
	}
	return nil
}

// Clone allocates a new engine instance with a deep copy of the snapshot.
// If the source was initialized the clone is initialized the same way and
// receives every variable; otherwise the variables are only set. The clone
// shares nothing native with the source. A clone that cannot be brought to
// the source's state is destroyed and the error returned.
func (a *API) Clone() (*API, error) {
	const op = "clone"
	_, span := a.tracer.StartSpan(context.Background(), observability.SpanClone)
	defer span.Finish()

	var snap Config
	if err := a.config.do(op, func() error {
		snap = a.cfg.Clone()
		return nil
	}); err != nil {
		span.SetError(err)
		return nil, err
	}

	c, err := New(WithLibrary(a.lib), WithLogger(a.base), WithTracer(a.tracer))
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if snap.Initialized() {
		c.cfg.Variables = snap.Variables
		err = c.initialize(op, snap.Options(), snap.Data)
	} else {
		for _, name := range slices.Sorted(maps.Keys(snap.Variables)) {
			if err = c.SetVariable(name, snap.Variables[name]); err != nil {
				break
			}
		}
	}
	if err != nil {
		c.Close()
		span.SetError(err)
		return nil, err
	}
	a.logger.Debug("tess api cloned", observability.String("clone_id", c.id))
	return c, nil
}

func (a *API) bump() { a.epoch.Add(1) }

// with runs fn with the native instance under the handle lock.
func (a *API) with(op string, fn func(lib capi.Library, h capi.Handle) error) error {
	return a.handle.do(op, func() error {
		if a.h == nil {
			return opErr(op, ErrClosed, "")
		}
		return fn(a.lib, a.h)
	})
}

func handleValue[T any](a *API, op string, fn func(lib capi.Library, h capi.Handle) (T, error)) (T, error) {
	var out T
	err := a.with(op, func(lib capi.Library, h capi.Handle) error {
		v, err := fn(lib, h)
		out = v
		return err
	})
	return out, err
}

// guard is a mutex that remembers a panic inside its critical section.
// Once poisoned, do refuses to run and returns ErrMutexLock.
type guard struct {
	mu       sync.Mutex
	poisoned bool

	name   string
	logger observability.Logger
}

func (g *guard) do(op string, fn func() error) error {
	g.mu.Lock()
	if g.poisoned {
		g.mu.Unlock()
		if g.logger != nil {
			g.logger.Warn("tess lock poisoned", observability.String("lock", g.name), observability.String("op", op))
		}
		return opErr(op, ErrMutexLock, "%s lock", g.name)
	}
	completed := false
	defer func() {
		if !completed {
			g.poisoned = true
		}
		g.mu.Unlock()
	}()
	err := fn()
	completed = true
	return err
}

// force runs fn regardless of poisoning. It is reserved for teardown.
func (g *guard) force(fn func()) {
	g.mu.Lock()
	completed := false
	defer func() {
		if !completed {
			g.poisoned = true
		}
		g.mu.Unlock()
	}()
	fn()
	completed = true
}
