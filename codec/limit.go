package codec

import (
	"fmt"

	"github.com/unkn0wn-root/bytecodec"
)

// LimitCodec wraps another codec to enforce a maximum allowed payload size
// at Decode time. Encode is forwarded to Inner unchanged.
// If MaxDecode <= 0, size limiting is disabled.
//
// Typical use: untrusted armored payloads arriving over the network.
type LimitCodec[V any] struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner Codec[V]
	// MaxDecode is the maximum permitted payload length in bytes. Larger
	// payloads fail with bytecodec.ErrInputTooLarge without invoking Inner.
	MaxDecode int
}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }
func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("%w: payload %d > %d", bytecodec.ErrInputTooLarge, len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
