// Package codec turns typed values into byte buffers. Pair a Codec with
// Text to carry the buffer as hex or base64 text.
package codec

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
