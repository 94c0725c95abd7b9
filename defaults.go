package bytecodec

import "time"

const (
	defaultNamespace    = "bytecodec"
	defaultMemoTTL      = 10 * time.Minute
	defaultMemoMinInput = 256
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
