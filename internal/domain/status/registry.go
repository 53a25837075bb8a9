package status

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownDomain is returned when no resolver is registered for a domain
var ErrUnknownDomain = errors.New("unknown status domain")

// Renderer is the badge renderer contract shared by every Resolver
type Renderer interface {
	Domain() string
	Resolve(code string) Descriptor
	Codes() []string
}

// Registry holds one renderer per domain
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{renderers: make(map[string]Renderer)}
}

// DefaultRegistry returns a registry with every portal domain registered
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewBookingResolver())
	r.Register(NewLegalDepositResolver())
	r.Register(NewContentResolver())
	r.Register(NewEditorialResolver())
	r.Register(NewDecisionResolver())
	return r
}

// Register adds or replaces the renderer of its domain
func (r *Registry) Register(renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[renderer.Domain()] = renderer
}

// Get returns the renderer of a domain
func (r *Registry) Get(domain string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	renderer, ok := r.renderers[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	return renderer, nil
}

// Resolve renders code in domain. Codes never fail; only unknown domains do.
func (r *Registry) Resolve(domain, code string) (Descriptor, error) {
	renderer, err := r.Get(domain)
	if err != nil {
		return Descriptor{}, err
	}
	return renderer.Resolve(code), nil
}

// Decision renders a decision code, falling back when the domain is absent
func (r *Registry) Decision(code string) Descriptor {
	d, err := r.Resolve(DomainDecision, code)
	if err != nil {
		return Fallback(code)
	}
	return d
}

// Domains returns the registered domain names in lexical order
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	domains := make([]string, 0, len(r.renderers))
	for d := range r.renderers {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
