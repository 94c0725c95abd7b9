package bytecodec

// Hooks are callbacks for conversion events worth counting or alerting on.
// Implementations MUST be cheap and non-blocking; wrap slow sinks with
// hooks/async.
type Hooks interface {
	// Input failed to decode. offset is -1 when the failure is not positional.
	InvalidInput(enc Encoding, offset int, reason string)

	// Input was refused before decoding because it exceeded Options.MaxInput.
	InputTooLarge(enc Encoding, size, max int)

	// A memo entry was deleted on read.
	// reason ∈ {"corrupt", "kind_mismatch"}
	MemoSelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// Provider returned an error. op ∈ {"get", "set", "del"}
	ProviderError(op string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) InvalidInput(Encoding, int, string) {}
func (NopHooks) InputTooLarge(Encoding, int, int)   {}
func (NopHooks) MemoSelfHeal(string, string)        {}
func (NopHooks) ProviderSetRejected(string)         {}
func (NopHooks) ProviderError(string, error)        {}
