package bytecodec

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/bytecodec/internal/util"
	"github.com/unkn0wn-root/bytecodec/internal/wire"
	pr "github.com/unkn0wn-root/bytecodec/provider"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	mu   sync.Mutex
	m    map[string]memEntry
	sets int
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: value, exp: exp}
	p.sets++
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *memProvider) Close(_ context.Context) error { return nil }

func (p *memProvider) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// put bypasses the converter to inject raw entries.
func (p *memProvider) put(key string, raw []byte) {
	p.mu.Lock()
	p.m[key] = memEntry{v: raw}
	p.mu.Unlock()
}

type errProvider struct {
	getErr, setErr error
	rejected       bool
}

func (p *errProvider) Get(context.Context, string) ([]byte, bool, error) { return nil, false, p.getErr }
func (p *errProvider) Set(context.Context, string, []byte, int64, time.Duration) (bool, error) {
	return !p.rejected, p.setErr
}
func (p *errProvider) Del(context.Context, string) error { return nil }
func (p *errProvider) Close(context.Context) error       { return nil }

type hookEvent struct {
	name   string
	enc    Encoding
	offset int
	reason string
}

type recHooks struct {
	mu     sync.Mutex
	events []hookEvent
}

func (h *recHooks) add(e hookEvent) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *recHooks) InvalidInput(enc Encoding, off int, r string) {
	h.add(hookEvent{name: "invalid", enc: enc, offset: off, reason: r})
}
func (h *recHooks) InputTooLarge(enc Encoding, size, max int) {
	h.add(hookEvent{name: "too_large", enc: enc, offset: size})
}
func (h *recHooks) MemoSelfHeal(_ string, r string) { h.add(hookEvent{name: "self_heal", reason: r}) }
func (h *recHooks) ProviderSetRejected(string)      { h.add(hookEvent{name: "set_rejected"}) }
func (h *recHooks) ProviderError(op string, _ error) {
	h.add(hookEvent{name: "provider_error", reason: op})
}

func (h *recHooks) names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.name
	}
	return out
}

func newTestConverter(t *testing.T, optsOpt func(*Options)) *Converter {
	t.Helper()
	var opts Options
	if optsOpt != nil {
		optsOpt(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func TestNewRejectsNegativeOptions(t *testing.T) {
	for _, o := range []Options{
		{MaxInput: -1},
		{MemoMinInput: -1},
		{MemoTTL: -time.Second},
	} {
		if _, err := New(o); err == nil {
			t.Fatalf("New(%+v) expected error", o)
		}
	}
}

func TestConverterZeroOptions(t *testing.T) {
	ctx := context.Background()
	c := newTestConverter(t, nil)

	b, err := c.HexToBytes(ctx, "00ff10")
	if err != nil || !bytes.Equal(b, []byte{0x00, 0xFF, 0x10}) {
		t.Fatalf("HexToBytes = %x, %v", b, err)
	}
	if got := c.BytesToHex(b); got != "00ff10" {
		t.Fatalf("BytesToHex = %q", got)
	}
	b64 := c.BytesToBase64(b)
	back, err := c.Base64ToBytes(ctx, b64)
	if err != nil || !bytes.Equal(back, b) {
		t.Fatalf("Base64ToBytes(%q) = %x, %v", b64, back, err)
	}
	s, err := c.BytesToString(c.StringToBytes("héllo"))
	if err != nil || s != "héllo" {
		t.Fatalf("utf8 round trip = %q, %v", s, err)
	}
	out, err := c.Transcode(ctx, Base64, Hex, "AP8Q")
	if err != nil || out != "00ff10" {
		t.Fatalf("Transcode = %q, %v", out, err)
	}
}

func TestConverterMaxInput(t *testing.T) {
	ctx := context.Background()
	h := &recHooks{}
	c := newTestConverter(t, func(o *Options) {
		o.MaxInput = 4
		o.Hooks = h
	})

	if _, err := c.HexToBytes(ctx, "0011"); err != nil {
		t.Fatalf("input at limit should pass: %v", err)
	}
	_, err := c.HexToBytes(ctx, "001122")
	if !errors.Is(err, ErrInputTooLarge) {
		t.Fatalf("expected ErrInputTooLarge, got %v", err)
	}
	if errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("size refusal must not look like malformed input")
	}
	if _, err := c.Decode(ctx, UTF8, "hello"); !errors.Is(err, ErrInputTooLarge) {
		t.Fatalf("utf8 decode should honor limit, got %v", err)
	}
	if got := h.names(); len(got) != 2 || got[0] != "too_large" || got[1] != "too_large" {
		t.Fatalf("hooks = %v", got)
	}
}

func TestConverterNormalize(t *testing.T) {
	decomposed := "e\u0301" // e + combining acute
	composed := "\u00e9"

	plain := newTestConverter(t, nil)
	if !bytes.Equal(plain.StringToBytes(decomposed), []byte(decomposed)) {
		t.Fatalf("normalization must be opt-in")
	}

	nfc := newTestConverter(t, func(o *Options) { o.Normalize = true })
	if got := nfc.StringToBytes(decomposed); !bytes.Equal(got, []byte(composed)) {
		t.Fatalf("NFC StringToBytes = %x, want %x", got, []byte(composed))
	}
	b, err := nfc.Decode(context.Background(), UTF8, decomposed)
	if err != nil || !bytes.Equal(b, []byte(composed)) {
		t.Fatalf("NFC Decode(utf8) = %x, %v", b, err)
	}
	// bytes -> string is never rewritten
	s, err := nfc.BytesToString([]byte(decomposed))
	if err != nil || s != decomposed {
		t.Fatalf("BytesToString altered text: %q, %v", s, err)
	}
}

func TestConverterInvalidInputHook(t *testing.T) {
	ctx := context.Background()
	h := &recHooks{}
	c := newTestConverter(t, func(o *Options) { o.Hooks = h })

	if _, err := c.HexToBytes(ctx, "00zz"); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected InvalidEncoding, got %v", err)
	}
	if _, err := c.BytesToString([]byte{0xFF, 0xFE}); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected InvalidEncoding, got %v", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) != 2 {
		t.Fatalf("events = %+v", h.events)
	}
	if e := h.events[0]; e.name != "invalid" || e.enc != Hex || e.offset != 2 {
		t.Fatalf("hex event = %+v", e)
	}
	if e := h.events[1]; e.name != "invalid" || e.enc != UTF8 || e.offset != 0 {
		t.Fatalf("utf8 event = %+v", e)
	}
}

func longBase64(n int) (string, []byte) {
	raw := bytes.Repeat([]byte{0xAB, 0x01, 0x7F}, n)
	return BytesToBase64(raw), raw
}

func TestMemoHitReturnsStoredBytes(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	c := newTestConverter(t, func(o *Options) {
		o.Provider = mp
		o.MemoMinInput = 1
	})

	in, raw := longBase64(10)
	got, err := c.Base64ToBytes(ctx, in)
	if err != nil || !bytes.Equal(got, raw) {
		t.Fatalf("first decode = %x, %v", got, err)
	}
	if mp.len() != 1 {
		t.Fatalf("expected one memo entry, have %d", mp.len())
	}

	// Replace the entry with a well-formed one carrying different bytes;
	// a memo hit must surface it.
	key := util.MemoKey("memo:"+defaultNamespace, Base64.String(), in)
	mp.put(key, wire.EncodeEntry(byte(Base64), []byte("forged")))

	got, err = c.Base64ToBytes(ctx, in)
	if err != nil || string(got) != "forged" {
		t.Fatalf("expected memo hit, got %q, %v", got, err)
	}
}

func TestMemoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	c := newTestConverter(t, func(o *Options) {
		o.Provider = mp
		o.MemoMinInput = 1
	})

	in, raw := longBase64(4)
	first, err := c.Base64ToBytes(ctx, in)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range first {
		first[i] = 0
	}
	second, err := c.Base64ToBytes(ctx, in)
	if err != nil || !bytes.Equal(second, raw) {
		t.Fatalf("caller mutation leaked into memo: %x, %v", second, err)
	}
	second[0] = 0
	third, _ := c.Base64ToBytes(ctx, in)
	if !bytes.Equal(third, raw) {
		t.Fatalf("memo hit handed out provider buffer: %x", third)
	}
}

func TestMemoNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	c := newTestConverter(t, func(o *Options) {
		o.Provider = mp
		o.MemoMinInput = 1
		o.Namespace = "keys"
	})
	if _, err := c.HexToBytes(ctx, "abcd"); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for k := range mp.m {
		if !strings.HasPrefix(k, "memo:keys:hex:") {
			t.Fatalf("unexpected memo key %q", k)
		}
	}
}

func TestMemoSkipsShortInputs(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	c := newTestConverter(t, func(o *Options) { o.Provider = mp })

	if _, err := c.HexToBytes(ctx, "00ff"); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mp.len() != 0 {
		t.Fatalf("input below default MemoMinInput was memoized")
	}
	in, _ := longBase64(100) // 400 chars
	if _, err := c.Base64ToBytes(ctx, in); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mp.len() != 1 {
		t.Fatalf("long input was not memoized")
	}
}

func TestMemoNeverCachesFailures(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	h := &recHooks{}
	c := newTestConverter(t, func(o *Options) {
		o.Provider = mp
		o.MemoMinInput = 1
		o.Hooks = h
	})
	if _, err := c.Base64ToBytes(ctx, "===="); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected InvalidEncoding, got %v", err)
	}
	if mp.len() != 0 || mp.sets != 0 {
		t.Fatalf("failed decode was memoized")
	}
	if got := h.names(); len(got) != 1 || got[0] != "invalid" {
		t.Fatalf("hooks = %v", got)
	}
}

func TestMemoUTF8Bypassed(t *testing.T) {
	mp := newMemProvider()
	c := newTestConverter(t, func(o *Options) {
		o.Provider = mp
		o.MemoMinInput = 1
	})
	if _, err := c.Decode(context.Background(), UTF8, strings.Repeat("x", 512)); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mp.len() != 0 {
		t.Fatalf("utf8 serialization should not touch the memo")
	}
}

// TestMemoSelfHeal ensures corrupt and foreign entries are deleted, missed,
// and replaced by a fresh decode.
func TestMemoSelfHeal(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		raw    []byte
		reason string
	}{
		{"corrupt", []byte("not-wire-format"), "corrupt"},
		{"truncated", wire.EncodeEntry(byte(Hex), []byte("abc"))[:12], "corrupt"},
		{"kind mismatch", wire.EncodeEntry(byte(Base64), []byte{1}), "kind_mismatch"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mp := newMemProvider()
			h := &recHooks{}
			c := newTestConverter(t, func(o *Options) {
				o.Provider = mp
				o.MemoMinInput = 1
				o.Hooks = h
			})

			in := "00ff10"
			key := util.MemoKey("memo:"+defaultNamespace, Hex.String(), in)
			mp.put(key, tc.raw)

			got, err := c.HexToBytes(ctx, in)
			if err != nil || !bytes.Equal(got, []byte{0x00, 0xFF, 0x10}) {
				t.Fatalf("decode after self-heal = %x, %v", got, err)
			}

			h.mu.Lock()
			if len(h.events) != 1 || h.events[0].name != "self_heal" || h.events[0].reason != tc.reason {
				t.Fatalf("events = %+v", h.events)
			}
			h.mu.Unlock()

			raw, ok, _ := mp.Get(ctx, key)
			if !ok {
				t.Fatalf("expected fresh entry after self-heal")
			}
			kind, payload, err := wire.DecodeEntry(raw)
			if err != nil || kind != byte(Hex) || !bytes.Equal(payload, got) {
				t.Fatalf("re-seeded entry kind=%d payload=%x err=%v", kind, payload, err)
			}
		})
	}
}

func TestMemoProviderFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	h := &recHooks{}
	p := &errProvider{getErr: errors.New("down"), setErr: errors.New("down")}
	c := newTestConverter(t, func(o *Options) {
		o.Provider = p
		o.MemoMinInput = 1
		o.Hooks = h
	})

	got, err := c.HexToBytes(ctx, "cafe")
	if err != nil || !bytes.Equal(got, []byte{0xCA, 0xFE}) {
		t.Fatalf("decode with failing provider = %x, %v", got, err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) != 2 ||
		h.events[0].name != "provider_error" || h.events[0].reason != "get" ||
		h.events[1].name != "provider_error" || h.events[1].reason != "set" {
		t.Fatalf("events = %+v", h.events)
	}
}

func TestMemoProviderRejection(t *testing.T) {
	h := &recHooks{}
	c := newTestConverter(t, func(o *Options) {
		o.Provider = &errProvider{rejected: true}
		o.MemoMinInput = 1
		o.Hooks = h
	})
	if _, err := c.HexToBytes(context.Background(), "cafe"); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := h.names(); len(got) != 1 || got[0] != "set_rejected" {
		t.Fatalf("hooks = %v", got)
	}
}

func TestMemoCostFunc(t *testing.T) {
	var seen int64
	c := newTestConverter(t, func(o *Options) {
		o.Provider = newMemProvider()
		o.MemoMinInput = 1
		o.ComputeSetCost = func(_ string, raw []byte) int64 {
			seen = int64(len(raw))
			return 1
		}
	})
	if _, err := c.HexToBytes(context.Background(), "cafe"); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 10 bytes of framing + 2 payload bytes
	if seen != 12 {
		t.Fatalf("cost func saw %d bytes, want 12", seen)
	}
}

func TestConverterConcurrentUse(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	c := newTestConverter(t, func(o *Options) {
		o.Provider = mp
		o.MemoMinInput = 1
	})

	in, raw := longBase64(32)
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Base64ToBytes(ctx, in)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(got, raw) {
				errs <- errors.New("mismatch")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent decode: %v", err)
	}
}
