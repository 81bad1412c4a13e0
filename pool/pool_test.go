package pool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wudi/tesskit/internal/capi/capitest"
	"github.com/wudi/tesskit/tess"
)

func newTemplate(t *testing.T) (*tess.API, *capitest.Library) {
	t.Helper()
	lib := capitest.New()
	api, err := tess.New(tess.WithLibrary(lib))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := api.SetVariable("tessedit_char_whitelist", "0123456789"); err != nil {
		t.Fatalf("set variable: %v", err)
	}
	if err := api.Init("/tessdata", "eng"); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { api.Close() })
	return api, lib
}

func TestNewValidates(t *testing.T) {
	tpl, _ := newTemplate(t)
	if _, err := New(nil, 1); err == nil {
		t.Fatalf("expected error for nil template")
	}
	if _, err := New(tpl, 0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestAcquireClonesTemplate(t *testing.T) {
	tpl, lib := newTemplate(t)
	p, err := New(tpl, 2)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer p.Close()

	api, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if api == tpl {
		t.Fatalf("pool must not hand out the template")
	}
	cfg := api.Config()
	if cfg.Language != "eng" || cfg.Variables["tessedit_char_whitelist"] != "0123456789" {
		t.Fatalf("clone config = %+v", cfg)
	}
	p.Release(api)

	again, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if again != api {
		t.Fatalf("idle instance should be reused")
	}
	p.Release(again)
	if created, idle := p.Stats(); created != 1 || idle != 1 {
		t.Fatalf("stats = %d created, %d idle", created, idle)
	}
	if lib.Count("Clear") != 2 {
		t.Fatalf("release must clear page state, got %d clears", lib.Count("Clear"))
	}
}

func TestAcquireBlocksAtCapacity(t *testing.T) {
	tpl, _ := newTemplate(t)
	p, err := New(tpl, 1)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer p.Close()

	first, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}

	got := make(chan *tess.API)
	go func() {
		api, err := p.Acquire(context.Background())
		if err != nil {
			t.Errorf("acquire: %v", err)
		}
		got <- api
	}()
	p.Release(first)
	select {
	case api := <-got:
		p.Release(api)
	case <-time.After(time.Second):
		t.Fatalf("waiter was not woken by release")
	}
}

func TestDoDiscardsPoisonedInstance(t *testing.T) {
	tpl, lib := newTemplate(t)
	p, err := New(tpl, 1)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer p.Close()

	lib.PanicOn = "Recognize"
	func() {
		defer func() { recover() }()
		p.Do(context.Background(), func(api *tess.API) error {
			return api.Recognize()
		})
	}()
	lib.PanicOn = ""
	if created, _ := p.Stats(); created != 0 {
		t.Fatalf("panicked instance must be discarded, %d remain", created)
	}
	if n := lib.LiveInstances(); n != 1 {
		t.Fatalf("expected only the template alive, got %d", n)
	}

	err = p.Do(context.Background(), func(api *tess.API) error {
		return api.Recognize()
	})
	if err != nil {
		t.Fatalf("pool must recover with a fresh instance: %v", err)
	}
}

func TestConcurrentDo(t *testing.T) {
	tpl, lib := newTemplate(t)
	p, err := New(tpl, 3)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Do(context.Background(), func(api *tess.API) error {
				if err := api.SetImage(make([]byte, 16), 4, 4, 1, 4); err != nil {
					return err
				}
				return api.Recognize()
			})
			if err != nil {
				t.Errorf("do: %v", err)
			}
		}()
	}
	wg.Wait()
	if created, _ := p.Stats(); created > 3 {
		t.Fatalf("pool grew past its size: %d", created)
	}
	p.Close()
	if n := lib.LiveInstances(); n != 1 {
		t.Fatalf("close left %d instances besides the template", n-1)
	}
}

func TestCloseRejectsAcquireAndClosesReleased(t *testing.T) {
	tpl, lib := newTemplate(t)
	p, err := New(tpl, 2)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	busy, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	p.Close()
	p.Close()
	if _, err := p.Acquire(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	p.Release(busy)
	if n := lib.LiveInstances(); n != 1 {
		t.Fatalf("released instance must be destroyed after close, %d live", n)
	}
}
