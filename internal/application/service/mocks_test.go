package service

import (
	"context"
	"sync"

	"github.com/bnrm/backoffice/internal/application/dispatcher"
	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/event"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

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

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

// mockBackend implements port.Backend with function fields
type mockBackend struct {
	loadStepsFunc     func(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error)
	fetchHistoryFunc  func(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error)
	advanceFunc       func(ctx context.Context, req port.TransitionRequest) (entity.TransitionResult, error)
	getStateFunc      func(ctx context.Context, kind entity.WorkflowKind, entityID string) (entity.EntityWorkflowState, error)
	listStatesFunc    func(ctx context.Context, kind entity.WorkflowKind, status string, limit, offset int) ([]entity.EntityWorkflowState, error)
	countByStatusFunc func(ctx context.Context, kind entity.WorkflowKind) ([]entity.StatusCount, error)

	mu           sync.Mutex
	advanceCalls int
	loadCalls    int
}

var _ port.Backend = (*mockBackend)(nil)

func (m *mockBackend) LoadSteps(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()
	if m.loadStepsFunc != nil {
		return m.loadStepsFunc(ctx, kind)
	}
	return nil, workflow.ErrNotFound
}

func (m *mockBackend) FetchHistory(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error) {
	if m.fetchHistoryFunc != nil {
		return m.fetchHistoryFunc(ctx, kind, entityID)
	}
	return []entity.TransitionRecord{}, nil
}

func (m *mockBackend) Advance(ctx context.Context, req port.TransitionRequest) (entity.TransitionResult, error) {
	m.mu.Lock()
	m.advanceCalls++
	m.mu.Unlock()
	if m.advanceFunc != nil {
		return m.advanceFunc(ctx, req)
	}
	return entity.TransitionResult{Success: true}, nil
}

func (m *mockBackend) GetState(ctx context.Context, kind entity.WorkflowKind, entityID string) (entity.EntityWorkflowState, error) {
	if m.getStateFunc != nil {
		return m.getStateFunc(ctx, kind, entityID)
	}
	return entity.EntityWorkflowState{}, workflow.ErrNotFound
}

func (m *mockBackend) ListStates(ctx context.Context, kind entity.WorkflowKind, status string, limit, offset int) ([]entity.EntityWorkflowState, error) {
	if m.listStatesFunc != nil {
		return m.listStatesFunc(ctx, kind, status, limit, offset)
	}
	return []entity.EntityWorkflowState{}, nil
}

func (m *mockBackend) CountByStatus(ctx context.Context, kind entity.WorkflowKind) ([]entity.StatusCount, error) {
	if m.countByStatusFunc != nil {
		return m.countByStatusFunc(ctx, kind)
	}
	return []entity.StatusCount{}, nil
}

func (m *mockBackend) AdvanceCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.advanceCalls
}

// recordingDispatcher captures published events
type recordingDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
	subs   map[string][]event.Type
	order  []string
}

func (d *recordingDispatcher) Subscribe(name string, handler dispatcher.Handler, types ...event.Type) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.subs == nil {
		d.subs = make(map[string][]event.Type)
	}
	if _, ok := d.subs[name]; !ok {
		d.order = append(d.order, name)
	}
	d.subs[name] = types
}

func (d *recordingDispatcher) Unsubscribe(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.subs, name)
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	d.mu.Lock()
	d.events = append(d.events, evt)
	d.mu.Unlock()
	return nil
}

func (d *recordingDispatcher) Publish(ctx context.Context, evt *event.Event) {
	_ = d.Dispatch(ctx, evt)
}

func (d *recordingDispatcher) Subscribers(t event.Type) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var names []string
	for _, name := range d.order {
		for _, st := range d.subs[name] {
			if st == t {
				names = append(names, name)
				break
			}
		}
	}
	return names
}

func (d *recordingDispatcher) Close() error { return nil }

func (d *recordingDispatcher) Events() []*event.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*event.Event(nil), d.events...)
}

type mockSender struct {
	mu       sync.Mutex
	sendFunc func(ctx context.Context, chatID, text string) error
	sent     []string
}

func (m *mockSender) SendText(ctx context.Context, chatID string, text string) error {
	m.mu.Lock()
	m.sent = append(m.sent, chatID+"|"+text)
	m.mu.Unlock()
	if m.sendFunc != nil {
		return m.sendFunc(ctx, chatID, text)
	}
	return nil
}

type mockStepRepo struct {
	replaced map[entity.WorkflowKind][]entity.Step
	err      error
}

func (m *mockStepRepo) ReplaceCatalog(ctx context.Context, kind entity.WorkflowKind, steps []entity.Step) error {
	if m.err != nil {
		return m.err
	}
	if m.replaced == nil {
		m.replaced = make(map[entity.WorkflowKind][]entity.Step)
	}
	m.replaced[kind] = steps
	return nil
}

func (m *mockStepRepo) ListByKind(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error) {
	return m.replaced[kind], nil
}

type mockTxManager struct{}

func (mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockExporter struct {
	exportFunc func(title string, stepper workflow.Stepper) ([]byte, error)
	lastTitle  string
}

func (m *mockExporter) ExportHistory(title string, stepper workflow.Stepper) ([]byte, error) {
	m.lastTitle = title
	if m.exportFunc != nil {
		return m.exportFunc(title, stepper)
	}
	return []byte("xlsx"), nil
}

type mockStorage struct {
	saved map[string][]byte
	err   error
}

func (m *mockStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[path] = content
	return nil
}

func (m *mockStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.saved[path]
	return ok
}

func (m *mockStorage) GetFullPath(relativePath string) string {
	return "/exports/" + relativePath
}

func strPtr(s string) *string { return &s }
