// Package sig provides the opaque signature predicate used by the registry
// to verify seller signatures. The default backend is a stub: any non-empty
// signature is accepted, any empty signature is rejected. A real BLS12-381
// backend is available behind the "blst" build tag.
package sig

import "sync"

// Backend verifies a signature over a message under a given public key (or
// address, for the stub backend). Implementations must be safe for
// concurrent use.
type Backend interface {
	Verify(pubkey, msg, signature []byte) bool
	Name() string
}

// StubBackend accepts any non-empty signature, regardless of pubkey or
// message. This is the default backend and matches the spec's literal
// wording: "opaque predicate; non-empty string accepted by stub".
type StubBackend struct{}

func (StubBackend) Verify(_, _, signature []byte) bool { return len(signature) > 0 }
func (StubBackend) Name() string                       { return "stub" }

var (
	mu      sync.RWMutex
	current Backend = StubBackend{}
)

// DefaultBackend returns the process-wide active signature backend.
func DefaultBackend() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetBackend replaces the process-wide active signature backend. Passing nil
// resets it to StubBackend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		current = StubBackend{}
		return
	}
	current = b
}

// Verify checks signature using the currently active backend.
func Verify(pubkey, msg, signature []byte) bool {
	return DefaultBackend().Verify(pubkey, msg, signature)
}
