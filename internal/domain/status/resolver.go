package status

import "sort"

// Resolver maps the raw codes of one domain to descriptors.
// S is the closed enumeration of that domain.
type Resolver[S ~string] struct {
	domain  string
	unknown S
	table   map[S]Descriptor
}

// NewResolver creates a resolver for a domain. unknown is the variant Parse
// returns for codes outside table.
func NewResolver[S ~string](domain string, unknown S, table map[S]Descriptor) *Resolver[S] {
	copied := make(map[S]Descriptor, len(table)+1)
	for code, d := range table {
		copied[code] = d
	}
	if _, ok := copied[S(NotStartedCode)]; !ok {
		copied[S(NotStartedCode)] = notStarted
	}

	return &Resolver[S]{
		domain:  domain,
		unknown: unknown,
		table:   copied,
	}
}

// Domain returns the domain name the resolver is registered under
func (r *Resolver[S]) Domain() string {
	return r.domain
}

// Parse converts a raw code into the closed enumeration
func (r *Resolver[S]) Parse(code string) S {
	s := S(code)
	if _, ok := r.table[s]; ok {
		return s
	}
	return r.unknown
}

// Resolve returns the descriptor of code. It is total: unknown and empty
// codes resolve to Fallback(code).
func (r *Resolver[S]) Resolve(code string) Descriptor {
	if d, ok := r.table[S(code)]; ok {
		return d
	}
	return Fallback(code)
}

// ResolveStatus is Resolve for an already parsed value
func (r *Resolver[S]) ResolveStatus(s S) Descriptor {
	return r.Resolve(string(s))
}

// Codes returns the known codes in lexical order
func (r *Resolver[S]) Codes() []string {
	codes := make([]string, 0, len(r.table))
	for code := range r.table {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	return codes
}
