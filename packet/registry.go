package packet

import (
	"fmt"
	"sync"

	"github.com/pktkit/pktkit"
)

// Registry maps dispatch keys to layer decoders. Registration is expected to
// happen once during setup; concurrent dissection reads are guarded by a
// single-writer/multi-reader discipline so late registration stays safe.
type Registry struct {
	mu sync.RWMutex
	m  map[Key]Decoder
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[Key]Decoder)}
}

// Register binds a decoder to a dispatch key. Registering a key that is
// already bound fails with ErrDuplicateRegistration and leaves the first
// binding intact; use Override to replace explicitly.
func (r *Registry) Register(k Key, d Decoder) error {
	if d == nil {
		panic("packet: nil decoder")
	} else if k.IsNone() {
		panic("packet: cannot register the none key")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.m[k]; exists {
		return fmt.Errorf("%w: (%s, %#x)", pktkit.ErrDuplicateRegistration, k.Family, k.Value)
	}
	r.m[k] = d
	return nil
}

// Override binds a decoder to a dispatch key, replacing any existing binding.
func (r *Registry) Override(k Key, d Decoder) {
	if d == nil {
		panic("packet: nil decoder")
	} else if k.IsNone() {
		panic("packet: cannot register the none key")
	}
	r.mu.Lock()
	r.m[k] = d
	r.mu.Unlock()
}

// Resolve returns the decoder bound to k, if any.
func (r *Registry) Resolve(k Key) (Decoder, bool) {
	r.mu.RLock()
	d, ok := r.m[k]
	r.mu.RUnlock()
	return d, ok
}

// builtin holds the process-wide registry populated by the protocol
// packages' init functions, so built-ins register before any user code runs.
var builtin = NewRegistry()

// Builtin returns the process-wide registry of layer decoders. Blank-import
// a protocol package to populate its entries.
func Builtin() *Registry { return builtin }

// Register binds a decoder in the process-wide registry.
func Register(k Key, d Decoder) error { return builtin.Register(k, d) }

// MustRegister is Register but panics on conflict. For use from package init.
func MustRegister(k Key, d Decoder) {
	if err := builtin.Register(k, d); err != nil {
		panic(err)
	}
}

// Override replaces a binding in the process-wide registry.
func Override(k Key, d Decoder) { builtin.Override(k, d) }
