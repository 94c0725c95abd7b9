package bytecodec

import (
	"fmt"
	"strings"
)

// Encoding names one textual view of a byte buffer.
type Encoding uint8

const (
	Hex       Encoding = iota + 1 // lowercase out, either case in
	Base64                        // RFC 4648 §4, padded
	Base64URL                     // RFC 4648 §5, unpadded
	UTF8
)

func (e Encoding) String() string {
	switch e {
	case Hex:
		return "hex"
	case Base64:
		return "base64"
	case Base64URL:
		return "base64url"
	case UTF8:
		return "utf8"
	default:
		return fmt.Sprintf("Encoding(%d)", uint8(e))
	}
}

// Valid reports whether e is one of the declared encodings.
func (e Encoding) Valid() bool { return e >= Hex && e <= UTF8 }

// ParseEncoding resolves a case-insensitive encoding name. Aliases:
// b64, b64url, utf-8, text.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hex":
		return Hex, nil
	case "base64", "b64":
		return Base64, nil
	case "base64url", "b64url":
		return Base64URL, nil
	case "utf8", "utf-8", "text":
		return UTF8, nil
	}
	return 0, fmt.Errorf("bytecodec: unknown encoding %q", name)
}

func (e Encoding) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("bytecodec: cannot marshal %s", e)
	}
	return []byte(e.String()), nil
}

func (e *Encoding) UnmarshalText(b []byte) error {
	v, err := ParseEncoding(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Decode converts text in encoding enc to bytes.
func Decode(enc Encoding, s string) ([]byte, error) {
	switch enc {
	case Hex:
		return HexToBytes(s)
	case Base64:
		return Base64ToBytes(s)
	case Base64URL:
		return Base64URLToBytes(s)
	case UTF8:
		return StringToBytes(s), nil
	}
	return nil, invalid(enc, -1, "unknown encoding", nil)
}

// Encode converts bytes to text in encoding enc. Only UTF8 can fail.
func Encode(enc Encoding, b []byte) (string, error) {
	switch enc {
	case Hex:
		return BytesToHex(b), nil
	case Base64:
		return BytesToBase64(b), nil
	case Base64URL:
		return BytesToBase64URL(b), nil
	case UTF8:
		return BytesToString(b)
	}
	return "", invalid(enc, -1, "unknown encoding", nil)
}

// Transcode decodes s from one encoding and re-encodes it in another.
func Transcode(from, to Encoding, s string) (string, error) {
	b, err := Decode(from, s)
	if err != nil {
		return "", err
	}
	return Encode(to, b)
}
