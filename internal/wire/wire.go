package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 1 + 4
)

var (
	ErrCorrupt = errors.New("bytecodec: corrupt memo entry")
	magic4     = [...]byte{'B', 'C', 'D', 'C'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry: magic(4) | ver(1) | kind(1) | vlen(u32 be) | payload(vlen)
//
// kind is the source encoding of the memoized decode. A reader that expects
// a different kind must treat the entry as foreign.
func EncodeEntry(kind byte, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeEntry returns the kind and a zero-copy payload slice of b.
// Trailing bytes after the payload are treated as corruption.
func DecodeEntry(b []byte) (kind byte, payload []byte, err error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return 0, nil, ErrCorrupt
	}
	kind = b[5]

	off := 6
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return 0, nil, ErrCorrupt
	}
	return kind, b[off : off+vlen], nil
}
