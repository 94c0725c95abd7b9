// Package bytecodec converts between textual views of a byte buffer:
// hexadecimal, base64 (standard and URL-safe), UTF-8 text, and raw bytes.
// Every decode is strict and atomic: malformed input yields an
// *InvalidEncodingError (matching ErrInvalidEncoding) and no partial result.
//
// Free functions:
//
//	HexToBytes / BytesToHex
//	Base64ToBytes / BytesToBase64
//	Base64URLToBytes / BytesToBase64URL
//	StringToBytes / BytesToString
//	StringToCustomID / CustomIDToString
//	Decode / Encode / Transcode (dispatch on Encoding)
//
// Converter adds input limits, NFC normalization, logging, hooks and an
// optional decode memo backed by a provider.Provider:
//
//	conv, _ := bytecodec.New(bytecodec.Options{
//	    MaxInput: 1 << 20,
//	    Provider: p,   // e.g. ristretto, bigcache or redis
//	    Logger:   zaplog.ZapLogger{L: zl},
//	})
//	key, err := conv.Base64ToBytes(ctx, encoded)
//
// Memo keys:
//
//	memo:<ns>:<encoding>:<sha256(input)>
package bytecodec
