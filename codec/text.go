package codec

import "github.com/unkn0wn-root/bytecodec"

// Text armors an inner codec's bytes as text in Encoding, e.g. a CBOR
// struct carried as base64 inside a JSON document or a URL.
//
// Text is itself a Codec[V] whose bytes are the armored text, so it can be
// wrapped by LimitCodec to bound untrusted input before decoding.
type Text[V any] struct {
	Inner    Codec[V]
	Encoding bytecodec.Encoding
}

var _ Codec[[]byte] = Text[[]byte]{}

func (t Text[V]) EncodeString(v V) (string, error) {
	b, err := t.Inner.Encode(v)
	if err != nil {
		return "", err
	}
	return bytecodec.Encode(t.Encoding, b)
}

func (t Text[V]) DecodeString(s string) (V, error) {
	b, err := bytecodec.Decode(t.Encoding, s)
	if err != nil {
		var zero V
		return zero, err
	}
	return t.Inner.Decode(b)
}

func (t Text[V]) Encode(v V) ([]byte, error) {
	s, err := t.EncodeString(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (t Text[V]) Decode(b []byte) (V, error) { return t.DecodeString(string(b)) }
