package bytecodec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/unkn0wn-root/bytecodec/internal/util"
	"github.com/unkn0wn-root/bytecodec/internal/wire"
	pr "github.com/unkn0wn-root/bytecodec/provider"
)

// SetCostFunc sizes a memo entry for cost-aware providers such as Ristretto.
type SetCostFunc func(key string, raw []byte) int64

// Options tune a Converter. The zero value is usable: no limits, no memo,
// no logging.
type Options struct {
	Namespace string // memo key prefix; "" => "bytecodec"
	Logger    Logger // if nil, NopLogger is used
	Hooks     Hooks  // if nil, NopHooks is used

	MaxInput  int  // max encoded input length for decodes, in bytes; 0 => unlimited
	Normalize bool // NFC-normalize text before UTF-8 serialization

	// Memo. Provider nil => every decode runs.
	Provider       pr.Provider
	MemoTTL        time.Duration // 0 => 10m
	MemoMinInput   int           // shorter inputs skip the memo; 0 => 256
	ComputeSetCost SetCostFunc   // default len(raw)
}

// Converter wraps the package-level conversions with input limits,
// optional normalization, instrumentation and a decode memo.
// It is immutable after New and safe for concurrent use.
type Converter struct {
	ns        string
	log       Logger
	hooks     Hooks
	maxInput  int
	normalize bool

	provider       pr.Provider
	memoTTL        time.Duration
	memoMin        int
	computeSetCost SetCostFunc
}

func New(opts Options) (*Converter, error) {
	if opts.MaxInput < 0 {
		return nil, fmt.Errorf("bytecodec: MaxInput must be >= 0, got %d", opts.MaxInput)
	}
	if opts.MemoMinInput < 0 {
		return nil, fmt.Errorf("bytecodec: MemoMinInput must be >= 0, got %d", opts.MemoMinInput)
	}
	if opts.MemoTTL < 0 {
		return nil, fmt.Errorf("bytecodec: MemoTTL must be >= 0, got %s", opts.MemoTTL)
	}

	c := &Converter{
		maxInput:  opts.MaxInput,
		normalize: opts.Normalize,
		provider:  opts.Provider,
	}

	c.ns = coalesce(opts.Namespace, defaultNamespace)
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.memoTTL = coalesce(opts.MemoTTL, defaultMemoTTL)
	c.memoMin = coalesce(opts.MemoMinInput, defaultMemoMinInput)

	if opts.ComputeSetCost != nil {
		c.computeSetCost = opts.ComputeSetCost
	} else {
		c.computeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}
	return c, nil
}

// Close releases the memo provider, if any.
func (c *Converter) Close(ctx context.Context) error {
	if c.provider != nil {
		return c.provider.Close(ctx)
	}
	return nil
}

// Decode converts s from enc to bytes, consulting the memo for long inputs.
// The returned slice is always owned by the caller.
func (c *Converter) Decode(ctx context.Context, enc Encoding, s string) ([]byte, error) {
	if c.maxInput > 0 && len(s) > c.maxInput {
		c.hooks.InputTooLarge(enc, len(s), c.maxInput)
		c.log.Debug("decode refused (input too large)", Fields{"enc": enc.String(), "len": len(s), "max": c.maxInput})
		return nil, inputTooLarge(enc, len(s), c.maxInput)
	}
	if enc == UTF8 {
		return c.StringToBytes(s), nil
	}
	if c.provider == nil || len(s) < c.memoMin {
		return c.decode(enc, s)
	}

	k := util.MemoKey("memo:"+c.ns, enc.String(), s)
	if b, ok := c.memoGet(ctx, k, enc); ok {
		return b, nil
	}
	b, err := c.decode(enc, s)
	if err != nil {
		return nil, err
	}
	c.memoSet(ctx, k, enc, b)
	return b, nil
}

// Encode converts b to text in enc. Only UTF8 can fail.
func (c *Converter) Encode(enc Encoding, b []byte) (string, error) {
	s, err := Encode(enc, b)
	if err != nil {
		c.observe(enc, err)
		return "", err
	}
	return s, nil
}

// Transcode decodes s from one encoding and re-encodes it in another.
func (c *Converter) Transcode(ctx context.Context, from, to Encoding, s string) (string, error) {
	b, err := c.Decode(ctx, from, s)
	if err != nil {
		return "", err
	}
	return c.Encode(to, b)
}

func (c *Converter) HexToBytes(ctx context.Context, s string) ([]byte, error) {
	return c.Decode(ctx, Hex, s)
}

func (c *Converter) BytesToHex(b []byte) string { return BytesToHex(b) }

func (c *Converter) Base64ToBytes(ctx context.Context, s string) ([]byte, error) {
	return c.Decode(ctx, Base64, s)
}

func (c *Converter) BytesToBase64(b []byte) string { return BytesToBase64(b) }

// StringToBytes serializes s as UTF-8, NFC-normalizing first when enabled.
func (c *Converter) StringToBytes(s string) []byte {
	if c.normalize {
		s = norm.NFC.String(s)
	}
	return StringToBytes(s)
}

func (c *Converter) BytesToString(b []byte) (string, error) {
	return c.Encode(UTF8, b)
}

func (c *Converter) decode(enc Encoding, s string) ([]byte, error) {
	b, err := Decode(enc, s)
	if err != nil {
		c.observe(enc, err)
		return nil, err
	}
	return b, nil
}

func (c *Converter) observe(enc Encoding, err error) {
	var ie *InvalidEncodingError
	if errors.As(err, &ie) {
		c.hooks.InvalidInput(enc, ie.Offset, ie.Reason)
	}
	c.log.Debug("conversion rejected", Fields{"enc": enc.String(), "err": err})
}

func (c *Converter) memoGet(ctx context.Context, k string, enc Encoding) ([]byte, bool) {
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil {
		c.hooks.ProviderError("get", err)
		c.log.Warn("memo get failed", Fields{"key": k, "err": err})
		return nil, false
	}
	if !ok {
		return nil, false
	}
	kind, payload, err := wire.DecodeEntry(raw)
	if err != nil {
		c.selfHeal(ctx, k, "corrupt")
		return nil, false
	}
	if kind != byte(enc) {
		c.selfHeal(ctx, k, "kind_mismatch")
		return nil, false
	}
	// providers may hand out their internal buffer
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, true
}

func (c *Converter) memoSet(ctx context.Context, k string, enc Encoding, b []byte) {
	raw := wire.EncodeEntry(byte(enc), b)
	ok, err := c.provider.Set(ctx, k, raw, c.computeSetCost(k, raw), c.memoTTL)
	if err != nil {
		c.hooks.ProviderError("set", err)
		c.log.Warn("memo set failed", Fields{"key": k, "err": err})
		return
	}
	if !ok {
		c.hooks.ProviderSetRejected(k)
		c.log.Debug("memo set rejected by provider (pressure)", Fields{"key": k})
	}
}

func (c *Converter) selfHeal(ctx context.Context, k, reason string) {
	c.hooks.MemoSelfHeal(k, reason)
	if err := c.provider.Del(ctx, k); err != nil {
		c.hooks.ProviderError("del", err)
	}
	c.log.Debug("memo entry dropped", Fields{"key": k, "reason": reason})
}
