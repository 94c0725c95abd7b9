package bytecodec

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	stdB64 = base64.StdEncoding.Strict()
	urlB64 = base64.RawURLEncoding.Strict()
)

// HexToBytes decodes a hex string. Both cases are accepted; anything else,
// whitespace included, is rejected.
func HexToBytes(s string) ([]byte, error) {
	if len(s) == 0 {
		return []byte{}, nil
	}
	if len(s)%2 != 0 {
		return nil, invalid(Hex, -1, fmt.Sprintf("odd length %d", len(s)), hex.ErrLength)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		var ibe hex.InvalidByteError
		if errors.As(err, &ibe) {
			// Decode stops at the first bad byte, so its first occurrence is the culprit.
			off := strings.IndexByte(s, byte(ibe))
			return nil, invalid(Hex, off, fmt.Sprintf("invalid byte %#U", rune(ibe)), err)
		}
		return nil, invalid(Hex, -1, err.Error(), err)
	}
	return b, nil
}

// BytesToHex returns the lowercase hex form of b with no separators.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// Base64ToBytes decodes standard, padded base64. Non-canonical padding bits
// and embedded line breaks are rejected.
func Base64ToBytes(s string) ([]byte, error) {
	return decodeB64(Base64, stdB64, s)
}

// BytesToBase64 returns the standard, padded base64 form of b.
func BytesToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64URLToBytes decodes unpadded URL-safe base64.
func Base64URLToBytes(s string) ([]byte, error) {
	return decodeB64(Base64URL, urlB64, s)
}

// BytesToBase64URL returns the unpadded URL-safe base64 form of b.
func BytesToBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// StringToBytes returns the UTF-8 serialization of s. It never fails.
func StringToBytes(s string) []byte {
	b := make([]byte, len(s))
	copy(b, s)
	return b
}

// BytesToString validates b as UTF-8 and returns it as a string.
func BytesToString(b []byte) (string, error) {
	if off := firstInvalidUTF8(b); off >= 0 {
		return "", invalid(UTF8, off, "malformed utf-8 sequence", nil)
	}
	return string(b), nil
}

// StringToCustomID encodes s as UTF-8 and then as unpadded URL-safe base64,
// the form used for ids embedded in URL paths.
func StringToCustomID(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// CustomIDToString reverses StringToCustomID.
func CustomIDToString(id string) (string, error) {
	b, err := Base64URLToBytes(id)
	if err != nil {
		return "", err
	}
	return BytesToString(b)
}

func decodeB64(enc Encoding, e *base64.Encoding, s string) ([]byte, error) {
	if len(s) == 0 {
		return []byte{}, nil
	}
	// encoding/base64 silently skips CR and LF even in strict mode.
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return nil, invalid(enc, i, "line break in input", nil)
	}
	b, err := e.DecodeString(s)
	if err != nil {
		var cie base64.CorruptInputError
		if errors.As(err, &cie) {
			return nil, invalid(enc, int(cie), b64Reason(s, int(cie)), err)
		}
		return nil, invalid(enc, -1, err.Error(), err)
	}
	return b, nil
}

func b64Reason(s string, off int) string {
	if off >= len(s) {
		return "truncated input"
	}
	return fmt.Sprintf("illegal data near %#U", rune(s[off]))
}

func firstInvalidUTF8(b []byte) int {
	if utf8.Valid(b) {
		return -1
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
