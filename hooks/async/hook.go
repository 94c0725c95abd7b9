// Package asynchook moves hook delivery off the conversion path.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{InvalidInputEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	conv, _ := bytecodec.New(bytecodec.Options{Hooks: hooks})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/bytecodec"
)

// Hooks forwards events to inner on a bounded queue. Events that do not fit
// are dropped and counted.
type Hooks struct {
	inner   bytecodec.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ bytecodec.Hooks = (*Hooks)(nil)

func New(inner bytecodec.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after
// Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) InvalidInput(enc bytecodec.Encoding, off int, r string) {
	h.try(func() { h.inner.InvalidInput(enc, off, r) })
}
func (h *Hooks) InputTooLarge(enc bytecodec.Encoding, size, max int) {
	h.try(func() { h.inner.InputTooLarge(enc, size, max) })
}
func (h *Hooks) MemoSelfHeal(k, r string)           { h.try(func() { h.inner.MemoSelfHeal(k, r) }) }
func (h *Hooks) ProviderSetRejected(k string)       { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) ProviderError(op string, err error) { h.try(func() { h.inner.ProviderError(op, err) }) }
