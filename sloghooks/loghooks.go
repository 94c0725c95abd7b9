package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/bytecodec"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	InvalidInputEvery uint64
	SelfHealEvery     uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	invalidCtr  atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ bytecodec.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

// InvalidInput never logs the input itself, only where and why it failed.
func (h *Hooks) InvalidInput(enc bytecodec.Encoding, offset int, reason string) {
	if h.l == nil || !sample(h.opts.InvalidInputEvery, &h.invalidCtr) {
		return
	}
	h.l.Debug("bytecodec.invalid_input",
		"enc", enc.String(),
		"offset", offset,
		"reason", reason)
}

func (h *Hooks) InputTooLarge(enc bytecodec.Encoding, size, max int) {
	if h.l == nil {
		return
	}
	h.l.Warn("bytecodec.input_too_large",
		"enc", enc.String(),
		"size", size,
		"max", max)
}

func (h *Hooks) MemoSelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("bytecodec.memo_self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("bytecodec.provider_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) ProviderError(op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("bytecodec.provider_error",
		"op", op,
		"err", err)
}
