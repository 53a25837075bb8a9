package definition

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

// Registry is a read-optimized, thread-safe store of templates by kind.
// Reloads swap the whole snapshot.
type Registry struct {
	snap atomic.Pointer[map[entity.WorkflowKind]*Template]
}

// NewRegistry creates a Registry from the given templates.
func NewRegistry(templates []Template) *Registry {
	r := &Registry{}
	r.Replace(templates)
	return r
}

// Load reads, validates and registers the defaults plus overridesDir
func Load(overridesDir string) (*Registry, error) {
	templates, err := NewLoader().LoadAll(overridesDir)
	if err != nil {
		return nil, err
	}

	if errs := NewValidator().Validate(templates); len(errs) > 0 {
		return nil, VErrors(errs)
	}

	return NewRegistry(templates), nil
}

// Replace atomically swaps the registry contents.
func (r *Registry) Replace(templates []Template) {
	m := make(map[entity.WorkflowKind]*Template, len(templates))
	for i := range templates {
		tpl := templates[i]
		m[tpl.Kind] = &tpl
	}
	r.snap.Store(&m)
}

// Get returns the template of kind or an error wrapping workflow.ErrNotFound
func (r *Registry) Get(kind entity.WorkflowKind) (*Template, error) {
	tpl, ok := (*r.snap.Load())[kind]
	if !ok {
		return nil, fmt.Errorf("workflow kind %q: %w", kind, workflow.ErrNotFound)
	}
	return tpl, nil
}

// Kinds returns the registered kinds in lexical order
func (r *Registry) Kinds() []entity.WorkflowKind {
	m := *r.snap.Load()
	kinds := make([]entity.WorkflowKind, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ActionTable returns the decision table of kind
func (r *Registry) ActionTable(kind entity.WorkflowKind) (*workflow.ActionTable, error) {
	tpl, err := r.Get(kind)
	if err != nil {
		return nil, err
	}
	return tpl.ActionTable(), nil
}
