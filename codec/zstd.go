package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Zstd compresses the bytes produced by Inner. Wrapped in Text it turns a
// large, repetitive value into a short armored string.
// The zero value is NOT ready to use. Construct with NewZstd.
type Zstd[V any] struct {
	Inner Codec[V]
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewZstd builds a zstd wrapper around inner. maxDecoded caps the
// decompressed size accepted by Decode; 0 keeps the library default.
func NewZstd[V any](inner Codec[V], maxDecoded uint64) (Zstd[V], error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return Zstd[V]{}, fmt.Errorf("create zstd encoder: %w", err)
	}
	dopts := []zstd.DOption{zstd.WithDecoderConcurrency(0)}
	if maxDecoded > 0 {
		dopts = append(dopts, zstd.WithDecoderMaxMemory(maxDecoded))
	}
	dec, err := zstd.NewReader(nil, dopts...)
	if err != nil {
		_ = enc.Close()
		return Zstd[V]{}, fmt.Errorf("create zstd decoder: %w", err)
	}
	return Zstd[V]{Inner: inner, enc: enc, dec: dec}, nil
}

func (z Zstd[V]) Encode(v V) ([]byte, error) {
	b, err := z.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return z.enc.EncodeAll(b, nil), nil
}

func (z Zstd[V]) Decode(b []byte) (V, error) {
	raw, err := z.dec.DecodeAll(b, nil)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("zstd: %w", err)
	}
	return z.Inner.Decode(raw)
}
