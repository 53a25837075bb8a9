package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/bnrm/backoffice/internal/application/dispatcher"
	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/event"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

// Outcome classifies the answer to a submission
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeAdvanced  Outcome = "advanced"
	OutcomeRejected  Outcome = "rejected"
	OutcomeTransient Outcome = "transient"
	OutcomeInvalid   Outcome = "invalid"
)

// Notices shown after a submission
const (
	NoticeCompleted = "Workflow terminé"
	NoticeAdvanced  = "Passage à l'étape : %s"
	NoticeTransient = "Service momentanément indisponible, veuillez réessayer"
)

// SubmitRequest is a decision taken by an actor on an entity currently at
// CurrentStepCode
type SubmitRequest struct {
	Kind            entity.WorkflowKind
	EntityID        string
	CurrentStepCode *string
	Decision        entity.Decision
	Comment         *string
	Fields          map[string]string
	Actor           string
}

// SubmitResult is the user-facing answer to a submission
type SubmitResult struct {
	Outcome      Outcome                   `json:"outcome"`
	Notice       string                    `json:"notice"`
	NextStepName string                    `json:"next_step_name,omitempty"`
	Validation   *workflow.ValidationError `json:"validation,omitempty"`
}

// Succeeded reports whether the server accepted the decision
func (r SubmitResult) Succeeded() bool {
	return r.Outcome == OutcomeAdvanced || r.Outcome == OutcomeCompleted
}

// TransitionSubmitter sends decisions to the sink and turns every answer into
// a notice. Only unknown kinds and concurrent submissions surface as errors.
type TransitionSubmitter interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)
}

type submitterImpl struct {
	actions    ActionResolver
	sink       port.TransitionSink
	dispatcher dispatcher.Dispatcher
	tracer     trace.Tracer
	logger     Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// SubmitterOption configures the submitter
type SubmitterOption func(*submitterImpl)

// WithEventDispatcher publishes workflow events after accepted or refused submissions
func WithEventDispatcher(d dispatcher.Dispatcher) SubmitterOption {
	return func(s *submitterImpl) {
		s.dispatcher = d
	}
}

// WithTracerProvider sets the tracer provider for submission spans
func WithTracerProvider(tp trace.TracerProvider) SubmitterOption {
	return func(s *submitterImpl) {
		s.tracer = tp.Tracer("github.com/bnrm/backoffice/submitter")
	}
}

// NewTransitionSubmitter creates a TransitionSubmitter
func NewTransitionSubmitter(actions ActionResolver, sink port.TransitionSink, logger Logger, opts ...SubmitterOption) TransitionSubmitter {
	s := &submitterImpl{
		actions:  actions,
		sink:     sink,
		tracer:   noop.NewTracerProvider().Tracer(""),
		logger:   orNop(logger),
		inFlight: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Submit validates the decision, sends it and interprets the envelope
func (s *submitterImpl) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if err := s.actions.Validate(req.Kind, req.CurrentStepCode, req.Decision, req.Comment, req.Fields); err != nil {
		var ve *workflow.ValidationError
		if errors.As(err, &ve) {
			return SubmitResult{Outcome: OutcomeInvalid, Notice: ve.Message, Validation: ve}, nil
		}
		return SubmitResult{}, err
	}

	key := string(req.Kind) + "/" + req.EntityID
	if !s.acquire(key) {
		return SubmitResult{}, fmt.Errorf("%s: %w", key, workflow.ErrSubmissionInFlight)
	}
	defer s.release(key)

	ctx, span := s.tracer.Start(ctx, "workflow.submit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("workflow.kind", string(req.Kind)),
			attribute.String("workflow.entity_id", req.EntityID),
			attribute.String("workflow.decision", string(req.Decision)),
		))
	defer span.End()

	res, err := s.sink.Advance(ctx, port.TransitionRequest{
		Kind:     req.Kind,
		EntityID: req.EntityID,
		Decision: req.Decision,
		Comment:  req.Comment,
		Fields:   req.Fields,
		Actor:    req.Actor,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition sink failed")
		s.logger.Error("Transition submission failed",
			"kind", req.Kind,
			"entity_id", req.EntityID,
			"decision", req.Decision,
			"error", err,
		)
		return SubmitResult{Outcome: OutcomeTransient, Notice: NoticeTransient}, nil
	}

	result := interpret(res)
	span.SetAttributes(attribute.String("workflow.outcome", string(result.Outcome)))

	s.logger.Info("Transition submitted",
		"kind", req.Kind,
		"entity_id", req.EntityID,
		"decision", req.Decision,
		"outcome", result.Outcome,
		"actor", req.Actor,
	)

	s.publish(ctx, req, res)

	return result, nil
}

func interpret(res entity.TransitionResult) SubmitResult {
	switch {
	case !res.Success:
		return SubmitResult{Outcome: OutcomeRejected, Notice: res.ErrorMessage}
	case res.WorkflowCompleted:
		return SubmitResult{Outcome: OutcomeCompleted, Notice: NoticeCompleted, NextStepName: res.NextStepName}
	default:
		return SubmitResult{
			Outcome:      OutcomeAdvanced,
			Notice:       fmt.Sprintf(NoticeAdvanced, res.NextStepName),
			NextStepName: res.NextStepName,
		}
	}
}

func (s *submitterImpl) publish(ctx context.Context, req SubmitRequest, res entity.TransitionResult) {
	if s.dispatcher == nil {
		return
	}

	tr := event.Transition{
		Decision: req.Decision,
		Actor:    req.Actor,
		NextStep: res.NextStepName,
		Message:  res.ErrorMessage,
	}
	if workflow.HasComment(req.Comment) {
		tr.Comment = *req.Comment
	}

	t := event.Classify(req.Decision, res.Success, res.WorkflowCompleted)
	s.dispatcher.Publish(ctx, event.New(t, req.Kind, req.EntityID, tr))
}

func (s *submitterImpl) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *submitterImpl) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}
