// Package tesseract implements ocr.Engine on the tess bindings. Engine
// instances are pooled per configuration so concurrent recognitions never
// share native state.
package tesseract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wudi/tesskit/imageio"
	"github.com/wudi/tesskit/internal/capi"
	"github.com/wudi/tesskit/observability"
	"github.com/wudi/tesskit/ocr"
	"github.com/wudi/tesskit/pool"
	"github.com/wudi/tesskit/tess"
)

func init() {
	ocr.SetDefaultEngine(NewTesseractEngine())
}

// ErrClosed is returned by Recognize after Close.
var ErrClosed = errors.New("tesseract: engine closed")

// TesseractEngine implements Engine and BatchEngine over pools of tess.API
// instances, one pool per distinct configuration.
type TesseractEngine struct {
	dataPath       string
	languages      []string
	mode           tess.EngineMode
	configs        []string
	initVariables  map[string]string
	variables      map[string]string
	poolSize       int
	acquireTimeout time.Duration
	lib            capi.Library
	logger         observability.Logger
	tracer         observability.Tracer

	mu     sync.Mutex
	pools  map[string]*enginePool
	closed bool
}

// enginePool is ready once its template is initialized; err is set when
// that failed.
type enginePool struct {
	ready    chan struct{}
	template *tess.API
	pool     *pool.Pool
	err      error
}

func (p *enginePool) close() {
	if p.pool != nil {
		p.pool.Close()
	}
	if p.template != nil {
		p.template.Close()
	}
}

// Option configures a TesseractEngine.
type Option func(*TesseractEngine)

// WithDataPath sets the tessdata directory. Empty uses the engine default.
func WithDataPath(path string) Option {
	return func(e *TesseractEngine) { e.dataPath = path }
}

// WithLanguages sets the languages used when an input carries no hints.
func WithLanguages(langs ...string) Option {
	return func(e *TesseractEngine) {
		if len(langs) > 0 {
			e.languages = append([]string(nil), langs...)
		}
	}
}

// WithEngineMode selects the recognizer.
func WithEngineMode(mode tess.EngineMode) Option {
	return func(e *TesseractEngine) { e.mode = mode }
}

// WithConfigs names config files read while the engine initializes.
func WithConfigs(files ...string) Option {
	return func(e *TesseractEngine) { e.configs = append([]string(nil), files...) }
}

// WithInitVariables sets init-only parameters such as load_system_dawg.
func WithInitVariables(vars map[string]string) Option {
	return func(e *TesseractEngine) { e.initVariables = maps.Clone(vars) }
}

// WithVariables sets engine variables applied to every instance.
func WithVariables(vars map[string]string) Option {
	return func(e *TesseractEngine) { e.variables = maps.Clone(vars) }
}

// WithPoolSize bounds the number of instances per configuration.
func WithPoolSize(n int) Option {
	return func(e *TesseractEngine) {
		if n > 0 {
			e.poolSize = n
		}
	}
}

// WithAcquireTimeout bounds the wait for a free instance. Zero waits as long
// as the caller's context allows.
func WithAcquireTimeout(d time.Duration) Option {
	return func(e *TesseractEngine) { e.acquireTimeout = d }
}

// WithLibrary replaces the native library, mainly for tests.
func WithLibrary(lib capi.Library) Option {
	return func(e *TesseractEngine) { e.lib = lib }
}

func WithLogger(l observability.Logger) Option {
	return func(e *TesseractEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithTracer(t observability.Tracer) Option {
	return func(e *TesseractEngine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine. Native
// instances are created on first use.
func NewTesseractEngine(opts ...Option) *TesseractEngine {
	e := &TesseractEngine{
		languages: []string{"eng"},
		mode:      tess.EngineDefault,
		poolSize:  1,
		logger:    observability.NopLogger{},
		tracer:    observability.NopTracer(),
		pools:     make(map[string]*enginePool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image input.
func (e *TesseractEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	raw, _, err := imageio.DecodeBytes(in.Image)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("decode %s: %w", in.ID, err)
	}
	var rect image.Rectangle
	if in.Region != nil && !in.Region.IsEmpty() {
		rect, err = regionRect(*in.Region, raw.Width, raw.Height)
		if err != nil {
			return ocr.Result{}, err
		}
	}
	p, err := e.poolFor(e.configFor(in))
	if err != nil {
		return ocr.Result{}, err
	}

	acquireCtx := ctx
	if e.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, e.acquireTimeout)
		defer cancel()
	}
	var res ocr.Result
	err = p.Do(acquireCtx, func(api *tess.API) error {
		if err := api.SetImage(raw.Pix, raw.Width, raw.Height, raw.BytesPerPixel, raw.BytesPerLine); err != nil {
			return err
		}
		if in.DPI > 0 {
			if err := api.SetSourceResolution(in.DPI); err != nil {
				return err
			}
		}
		if !rect.Empty() {
			if err := api.SetRectangle(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy()); err != nil {
				return err
			}
		}
		var err error
		res, err = recognize(api)
		return err
	})
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize %s: %w", in.ID, err)
	}
	res.InputID = in.ID
	if res.Language == "" && len(in.Languages) > 0 {
		res.Language = in.Languages[0]
	}
	return res, nil
}

// RecognizeBatch processes inputs concurrently, at most pool size at a
// time. Results keep the order of inputs. The first failure cancels the
// inputs not yet started and is returned.
func (e *TesseractEngine) RecognizeBatch(ctx context.Context, inputs []ocr.Input) ([]ocr.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]ocr.Result, len(inputs))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	slots := make(chan struct{}, e.poolSize)
	for i, in := range inputs {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-slots }()
			res, err := e.Recognize(ctx, in)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				cancel()
				return
			}
			results[i] = res
		}()
	}
	wg.Wait()
	if firstErr == nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// Close destroys every pooled instance. Close is idempotent.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	pools := e.pools
	e.pools = nil
	e.mu.Unlock()
	for _, p := range pools {
		<-p.ready
		if p.err == nil {
			p.close()
		}
	}
	return nil
}

// configFor is the configuration an input needs. Input metadata becomes
// engine variables, so inputs with different knobs use different pools.
func (e *TesseractEngine) configFor(in ocr.Input) tess.Config {
	langs := e.languages
	if len(in.Languages) > 0 {
		langs = in.Languages
	}
	vars := maps.Clone(e.variables)
	if vars == nil {
		vars = make(map[string]string, len(in.Metadata))
	}
	maps.Copy(vars, in.Metadata)
	return tess.Config{
		DataPath:      e.dataPath,
		Language:      strings.Join(langs, "+"),
		Mode:          e.mode,
		Configs:       e.configs,
		InitVariables: e.initVariables,
		Variables:     vars,
	}
}

// poolFor returns the pool for cfg, creating it on first use. The template
// is initialized outside e.mu so other configurations are not held up while
// language data loads; callers wanting the same new pool wait for it.
func (e *TesseractEngine) poolFor(cfg tess.Config) (*pool.Pool, error) {
	key := cfg.Fingerprint()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	if p, ok := e.pools[key]; ok {
		e.mu.Unlock()
		<-p.ready
		if p.err != nil {
			return nil, p.err
		}
		return p.pool, nil
	}
	p := &enginePool{ready: make(chan struct{})}
	e.pools[key] = p
	e.mu.Unlock()

	err := e.build(p, cfg)

	e.mu.Lock()
	closed := err == nil && e.closed
	switch {
	case err != nil:
		delete(e.pools, key)
	case closed:
		err = ErrClosed
	}
	p.err = err
	e.mu.Unlock()
	if closed {
		p.close()
	}
	close(p.ready)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("tesseract pool created",
		observability.String("fingerprint", key),
		observability.String(observability.TagLanguage, cfg.Language),
		observability.Int("size", e.poolSize))
	return p.pool, nil
}

func (e *TesseractEngine) build(p *enginePool, cfg tess.Config) error {
	var opts []tess.Option
	if e.lib != nil {
		opts = append(opts, tess.WithLibrary(e.lib))
	}
	opts = append(opts, tess.WithLogger(e.logger), tess.WithTracer(e.tracer))
	template, err := tess.New(opts...)
	if err != nil {
		return err
	}
	if err := template.InitWithOptions(cfg.Options()); err != nil {
		template.Close()
		return err
	}
	for _, k := range slices.Sorted(maps.Keys(cfg.Variables)) {
		if err := template.SetVariable(k, cfg.Variables[k]); err != nil {
			template.Close()
			return err
		}
	}
	pl, err := pool.New(template, e.poolSize, pool.WithLogger(e.logger), pool.WithTracer(e.tracer))
	if err != nil {
		template.Close()
		return err
	}
	p.template, p.pool = template, pl
	return nil
}

// recognize runs recognition on the image already set on api and collects
// text, layout and confidences.
func recognize(api *tess.API) (ocr.Result, error) {
	if err := api.Recognize(); err != nil {
		return ocr.Result{}, err
	}
	text, err := api.UTF8Text()
	if err != nil {
		return ocr.Result{}, err
	}
	conf, err := api.MeanTextConf()
	if err != nil {
		return ocr.Result{}, err
	}
	it, err := api.Iterator()
	if err != nil {
		return ocr.Result{}, err
	}
	defer it.Close()
	blocks, lang, err := collectBlocks(it)
	if err != nil {
		return ocr.Result{}, err
	}
	return ocr.Result{
		PlainText:  strings.TrimSpace(text),
		Blocks:     blocks,
		Language:   lang,
		Confidence: float64(conf) / 100.0,
	}, nil
}

// collectBlocks walks the result cursor word by word, opening a new block or
// line whenever the cursor is at the beginning of one.
func collectBlocks(r *tess.ResultCursor) ([]ocr.TextBlock, string, error) {
	var (
		blocks []ocr.TextBlock
		lang   string
	)
	for {
		word, err := r.Text(tess.LevelWord)
		if errors.Is(err, tess.ErrNullPointer) {
			break
		}
		if err != nil {
			return nil, "", err
		}
		blockStart, err := r.IsAtBeginningOf(tess.LevelBlock)
		if err != nil {
			return nil, "", err
		}
		if blockStart || len(blocks) == 0 {
			box, err := r.BoundingBox(tess.LevelBlock)
			if err != nil {
				return nil, "", err
			}
			blocks = append(blocks, ocr.TextBlock{Bounds: boxRegion(box)})
		}
		block := &blocks[len(blocks)-1]
		lineStart, err := r.IsAtBeginningOf(tess.LevelTextLine)
		if err != nil {
			return nil, "", err
		}
		if lineStart || len(block.Lines) == 0 {
			box, err := r.BoundingBox(tess.LevelTextLine)
			if err != nil {
				return nil, "", err
			}
			block.Lines = append(block.Lines, ocr.TextLine{Bounds: boxRegion(box)})
		}
		line := &block.Lines[len(block.Lines)-1]

		conf, err := r.Confidence(tess.LevelWord)
		if err != nil {
			return nil, "", err
		}
		box, err := r.BoundingBox(tess.LevelWord)
		if err != nil {
			return nil, "", err
		}
		line.Words = append(line.Words, ocr.TextWord{
			Text:       strings.TrimSpace(word),
			Bounds:     boxRegion(box),
			Confidence: float64(conf) / 100.0,
		})
		if lang == "" {
			if l, err := r.WordRecognitionLanguage(); err == nil {
				lang = l
			}
		}

		more, err := r.Next(tess.LevelWord)
		if err != nil {
			return nil, "", err
		}
		if !more {
			break
		}
	}
	for i := range blocks {
		finishBlock(&blocks[i])
	}
	return blocks, lang, nil
}

func finishBlock(b *ocr.TextBlock) {
	lines := make([]string, len(b.Lines))
	var sum float64
	for i := range b.Lines {
		l := &b.Lines[i]
		words := make([]string, len(l.Words))
		var ws float64
		for j, w := range l.Words {
			words[j] = w.Text
			ws += w.Confidence
		}
		l.Text = strings.Join(words, " ")
		if len(l.Words) > 0 {
			l.Confidence = ws / float64(len(l.Words))
		}
		lines[i] = l.Text
		sum += l.Confidence
	}
	b.Text = strings.Join(lines, "\n")
	if len(b.Lines) > 0 {
		b.Confidence = sum / float64(len(b.Lines))
	}
}

func boxRegion(b tess.Box) ocr.Region {
	return ocr.Region{X: float64(b.Left), Y: float64(b.Top), Width: float64(b.Width()), Height: float64(b.Height())}
}

func regionRect(region ocr.Region, width, height int) (image.Rectangle, error) {
	rect := image.Rect(
		int(math.Round(region.X)),
		int(math.Round(region.Y)),
		int(math.Round(region.X+region.Width)),
		int(math.Round(region.Y+region.Height)),
	).Intersect(image.Rect(0, 0, width, height))
	if rect.Empty() {
		return image.Rectangle{}, fmt.Errorf("region outside image bounds")
	}
	return rect, nil
}
