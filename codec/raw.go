package codec

import "github.com/unkn0wn-root/bytecodec"

// Bytes is an identity codec for []byte values. Encode/Decode return the
// input unchanged.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String serializes Go strings as UTF-8. Decode rejects malformed UTF-8
// with a *bytecodec.InvalidEncodingError.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return bytecodec.StringToBytes(s), nil }
func (String) Decode(b []byte) (string, error) { return bytecodec.BytesToString(b) }
