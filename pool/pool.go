// Package pool keeps a bounded set of independent tess.API instances, each
// a Clone of one template, so that several goroutines can recognize in
// parallel without sharing an engine.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wudi/tesskit/observability"
	"github.com/wudi/tesskit/tess"
)

// ErrClosed is returned by Acquire after Close.
var ErrClosed = errors.New("pool: closed")

// Pool hands out engine instances. Instances are created lazily on first
// demand and reused afterwards.
type Pool struct {
	template *tess.API
	size     int
	logger   observability.Logger
	tracer   observability.Tracer

	slots chan struct{}

	mu      sync.Mutex
	idle    []*tess.API
	created int
	closed  bool
}

type Option func(*Pool)

func WithLogger(l observability.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithTracer(t observability.Tracer) Option {
	return func(p *Pool) {
		if t != nil {
			p.tracer = t
		}
	}
}

// New creates a pool of at most size instances cloned from template. The
// template is only read; the caller keeps ownership of it.
func New(template *tess.API, size int, opts ...Option) (*Pool, error) {
	if template == nil {
		return nil, errors.New("pool: nil template")
	}
	if size < 1 {
		return nil, fmt.Errorf("pool: size %d must be at least 1", size)
	}
	p := &Pool{
		template: template,
		size:     size,
		logger:   observability.NopLogger{},
		tracer:   observability.NopTracer(),
		slots:    make(chan struct{}, size),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Size is the maximum number of instances.
func (p *Pool) Size() int { return p.size }

// Stats reports how many instances exist and how many are idle.
func (p *Pool) Stats() (created, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created, len(p.idle)
}

// Acquire returns an instance for exclusive use, waiting for one to be
// released when all are busy. Every acquired instance must be given back
// with Release or Discard.
func (p *Pool) Acquire(ctx context.Context) (*tess.API, error) {
	ctx, span := p.tracer.StartSpan(ctx, observability.SpanPoolAcquire)
	defer span.Finish()

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		span.SetError(ctx.Err())
		return nil, ctx.Err()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.slots
		return nil, ErrClosed
	}
	if n := len(p.idle); n > 0 {
		api := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return api, nil
	}
	p.created++
	p.mu.Unlock()

	api, err := p.template.Clone()
	if err != nil {
		p.mu.Lock()
		p.created--
		p.mu.Unlock()
		<-p.slots
		span.SetError(err)
		return nil, fmt.Errorf("pool: clone template: %w", err)
	}
	p.logger.Debug("pool instance created", observability.String("tess_id", api.ID()))
	return api, nil
}

// Release returns an instance to the pool. Its image and page results are
// cleared first; an instance that cannot be cleared is discarded.
func (p *Pool) Release(api *tess.API) {
	if api == nil {
		return
	}
	if err := api.Clear(); err != nil {
		p.logger.Warn("pool instance discarded", observability.String("tess_id", api.ID()), observability.Error("error", err))
		p.Discard(api)
		return
	}
	p.mu.Lock()
	if p.closed {
		p.created--
		p.mu.Unlock()
		api.Close()
		<-p.slots
		return
	}
	p.idle = append(p.idle, api)
	p.mu.Unlock()
	<-p.slots
}

// Discard closes an instance instead of returning it, for example after its
// lock was poisoned.
func (p *Pool) Discard(api *tess.API) {
	if api == nil {
		return
	}
	api.Close()
	p.mu.Lock()
	p.created--
	p.mu.Unlock()
	<-p.slots
}

// Do acquires an instance, runs fn and gives the instance back. Instances
// left poisoned by fn are discarded, including when fn panics.
func (p *Pool) Do(ctx context.Context, fn func(api *tess.API) error) (err error) {
	api, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	completed := false
	defer func() {
		if !completed || errors.Is(err, tess.ErrMutexLock) {
			p.Discard(api)
			return
		}
		p.Release(api)
	}()
	err = fn(api)
	completed = true
	return err
}

// Close destroys every idle instance. Instances still in use are destroyed
// when they are released. Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.created -= len(idle)
	p.mu.Unlock()
	for _, api := range idle {
		api.Close()
	}
	p.logger.Debug("pool closed", observability.Int("closed", len(idle)))
	return nil
}
