package dispatcher

import (
	"context"

	"github.com/bnrm/backoffice/internal/domain/event"
)

// Handler reacts to a workflow event
type Handler func(ctx context.Context, evt *event.Event) error

// subscription binds a named handler to a set of event types
type subscription struct {
	name    string
	types   map[event.Type]struct{}
	handler Handler
}

func (s subscription) wants(t event.Type) bool {
	_, ok := s.types[t]
	return ok
}
