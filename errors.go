package bytecodec

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEncoding matches every *InvalidEncodingError via errors.Is.
	ErrInvalidEncoding = errors.New("bytecodec: invalid encoding")
	// ErrInputTooLarge is returned by a Converter when an input exceeds Options.MaxInput.
	ErrInputTooLarge = errors.New("bytecodec: input too large")
)

// InvalidEncodingError reports malformed input for a decode (or a UTF-8
// encode of bytes that are not text). Offset is the byte offset into the
// input where decoding failed, or -1 when the failure is not positional.
type InvalidEncodingError struct {
	Encoding Encoding
	Offset   int
	Reason   string
	Err      error // underlying stdlib error, may be nil
}

func (e *InvalidEncodingError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("bytecodec: invalid %s at offset %d: %s", e.Encoding, e.Offset, e.Reason)
	}
	return fmt.Sprintf("bytecodec: invalid %s: %s", e.Encoding, e.Reason)
}

func (e *InvalidEncodingError) Unwrap() error { return e.Err }

func (e *InvalidEncodingError) Is(target error) bool { return target == ErrInvalidEncoding }

func invalid(enc Encoding, off int, reason string, cause error) error {
	return &InvalidEncodingError{Encoding: enc, Offset: off, Reason: reason, Err: cause}
}

// inputTooLarge wraps ErrInputTooLarge with the observed and permitted sizes.
func inputTooLarge(enc Encoding, size, max int) error {
	return fmt.Errorf("%w: %s input is %d bytes, limit %d", ErrInputTooLarge, enc, size, max)
}
