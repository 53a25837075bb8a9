package workflow

import (
	"context"
	"sync"

	"github.com/bnrm/backoffice/internal/domain/entity"
	domainwf "github.com/bnrm/backoffice/internal/domain/workflow"
)

type stateKey struct {
	kind entity.WorkflowKind
	id   string
}

// memStateRepo keeps states in memory with the same version semantics as SQLite
type memStateRepo struct {
	mu      sync.Mutex
	states  map[stateKey]entity.EntityWorkflowState
	getErr  error
	saveErr error
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{states: make(map[stateKey]entity.EntityWorkflowState)}
}

func (m *memStateRepo) Get(ctx context.Context, kind entity.WorkflowKind, entityID string) (*entity.EntityWorkflowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.states[stateKey{kind, entityID}]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memStateRepo) Save(ctx context.Context, state *entity.EntityWorkflowState, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	key := stateKey{state.Kind, state.EntityID}
	existing, ok := m.states[key]
	switch {
	case expectedVersion == 0 && ok:
		return domainwf.ErrVersionConflict
	case expectedVersion != 0 && (!ok || existing.Version != expectedVersion):
		return domainwf.ErrVersionConflict
	}
	state.Version = expectedVersion + 1
	m.states[key] = *state
	return nil
}

func (m *memStateRepo) List(ctx context.Context, kind entity.WorkflowKind, status string, limit, offset int) ([]entity.EntityWorkflowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.EntityWorkflowState{}
	for k, s := range m.states {
		if k.kind == kind && (status == "" || s.Status == status) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStateRepo) CountByStatus(ctx context.Context, kind entity.WorkflowKind) ([]entity.StatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for k, s := range m.states {
		if k.kind == kind {
			counts[s.Status]++
		}
	}
	out := []entity.StatusCount{}
	for status, n := range counts {
		out = append(out, entity.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

func (m *memStateRepo) put(state entity.EntityWorkflowState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state.Version == 0 {
		state.Version = 1
	}
	m.states[stateKey{state.Kind, state.EntityID}] = state
}

type memHistoryRepo struct {
	mu        sync.Mutex
	records   []entity.TransitionRecord
	appendErr error
}

func (m *memHistoryRepo) Append(ctx context.Context, record *entity.TransitionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	record.ID = int64(len(m.records) + 1)
	m.records = append(m.records, *record)
	return nil
}

func (m *memHistoryRepo) ListByEntity(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.TransitionRecord{}
	for _, r := range m.records {
		if r.Kind == kind && r.EntityID == entityID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockStepRepo struct {
	steps   map[entity.WorkflowKind][]entity.Step
	listErr error
}

func (m *mockStepRepo) ReplaceCatalog(ctx context.Context, kind entity.WorkflowKind, steps []entity.Step) error {
	if m.steps == nil {
		m.steps = make(map[entity.WorkflowKind][]entity.Step)
	}
	m.steps[kind] = steps
	return nil
}

func (m *mockStepRepo) ListByKind(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.steps[kind], nil
}

// mockTxManager runs fn directly
type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}
