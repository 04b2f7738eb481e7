package providers

import (
	"fmt"
	"sync"
)

// ErrProviderNotFound indicates a Registry lookup by name that does
// not match any constructed provider.
var ErrProviderNotFound = fmt.Errorf("provider not found")

// Registry holds the set of constructed Provider instances the
// process wired at startup, keyed by provider name, plus which one is
// the default. Mirrors the teacher's config.MCPServerRegistry /
// ChainRegistry shape: a small mutex-guarded name-to-value map.
type Registry struct {
	mu              sync.RWMutex
	providers       map[string]Provider
	defaultProvider string
}

// NewRegistry constructs a Registry over an already-built provider set.
func NewRegistry(providers map[string]Provider, defaultProvider string) *Registry {
	return &Registry{providers: providers, defaultProvider: defaultProvider}
}

// Get returns the named provider, or the default provider when name is
// empty.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}
