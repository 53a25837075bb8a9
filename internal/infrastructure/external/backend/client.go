package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

// Config holds the remote backend connection settings
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries uint64
	MaxElapsed time.Duration
}

// Client reads and advances workflows on a hosted REST/RPC backend.
// Reads are retried with exponential backoff; Advance is sent once.
type Client struct {
	cfg    Config
	http   *http.Client
	tracer trace.Tracer
	logger *zap.Logger
}

var _ port.Backend = (*Client)(nil)

// Option configures the client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTracerProvider sets the tracer provider for remote call spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp.Tracer("github.com/bnrm/backoffice/backend")
	}
}

// NewClient creates a remote backend client
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxElapsed == 0 {
		cfg.MaxElapsed = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		tracer: noop.NewTracerProvider().Tracer(""),
		logger: logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type stepRow struct {
	WorkflowKind    string `json:"workflow_kind"`
	StepOrder       int    `json:"step_order"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	ResponsibleRole string `json:"responsible_role"`
	Description     string `json:"description"`
}

type historyRow struct {
	ID        int64             `json:"id"`
	StepCode  string            `json:"step_code"`
	StepName  string            `json:"step_name"`
	Decision  string            `json:"decision"`
	Comment   *string           `json:"comment"`
	Fields    map[string]string `json:"fields"`
	Actor     string            `json:"actor"`
	CreatedAt time.Time         `json:"created_at"`
}

type stateRow struct {
	WorkflowKind     string    `json:"workflow_kind"`
	EntityID         string    `json:"entity_id"`
	CurrentStepOrder int       `json:"current_step_order"`
	CurrentStepCode  *string   `json:"current_step_code"`
	Status           string    `json:"status"`
	Version          int64     `json:"version"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (r stateRow) toEntity() entity.EntityWorkflowState {
	return entity.EntityWorkflowState{
		EntityID:         r.EntityID,
		Kind:             entity.WorkflowKind(r.WorkflowKind),
		CurrentStepOrder: r.CurrentStepOrder,
		CurrentStepCode:  r.CurrentStepCode,
		Status:           r.Status,
		Version:          r.Version,
		UpdatedAt:        r.UpdatedAt,
	}
}

// LoadSteps reads the catalog table of kind
func (c *Client) LoadSteps(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error) {
	q := url.Values{}
	q.Set("workflow_kind", "eq."+string(kind))
	q.Set("order", "step_order.asc")

	var rows []stepRow
	if err := c.read(ctx, "load steps", http.MethodGet, "/rest/v1/workflow_steps?"+q.Encode(), nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog of %s: %w", kind, workflow.ErrNotFound)
	}

	steps := make([]entity.Step, 0, len(rows))
	for _, r := range rows {
		steps = append(steps, entity.Step{
			Order:           r.StepOrder,
			Code:            r.Code,
			Name:            r.Name,
			ResponsibleRole: r.ResponsibleRole,
			Description:     r.Description,
		})
	}
	return steps, nil
}

// FetchHistory calls the history procedure of an entity
func (c *Client) FetchHistory(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error) {
	body := map[string]string{"p_kind": string(kind), "p_entity_id": entityID}

	var rows []historyRow
	if err := c.read(ctx, "fetch history", http.MethodPost, "/rest/v1/rpc/get_workflow_history", body, &rows); err != nil {
		return nil, err
	}

	records := make([]entity.TransitionRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, entity.TransitionRecord{
			ID:        r.ID,
			Kind:      kind,
			EntityID:  entityID,
			StepCode:  r.StepCode,
			StepName:  r.StepName,
			Decision:  entity.Decision(r.Decision),
			Comment:   r.Comment,
			Fields:    r.Fields,
			Actor:     r.Actor,
			Timestamp: r.CreatedAt,
		})
	}
	return records, nil
}

// Advance calls the transition procedure. It is never retried.
func (c *Client) Advance(ctx context.Context, req port.TransitionRequest) (entity.TransitionResult, error) {
	body := map[string]interface{}{
		"p_kind":      string(req.Kind),
		"p_entity_id": req.EntityID,
		"p_decision":  string(req.Decision),
		"p_comment":   req.Comment,
		"p_actor":     req.Actor,
	}
	if len(req.Fields) > 0 {
		body["p_fields"] = req.Fields
	}

	ctx, span := c.startSpan(ctx, "backend.advance", req.Kind)
	defer span.End()

	var raw json.RawMessage
	err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/advance_workflow", body, &raw)
	var result entity.TransitionResult
	if err == nil {
		result, err = decodeEnvelope(raw)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "advance failed")
		c.logger.Error("Remote advance failed",
			zap.String("kind", string(req.Kind)),
			zap.String("entity_id", req.EntityID),
			zap.Error(err))
		return entity.TransitionResult{}, &workflow.TransientFailure{Op: "advance", Err: err}
	}
	return result, nil
}

// decodeEnvelope accepts the envelope as an object or as a one-row set
func decodeEnvelope(raw json.RawMessage) (entity.TransitionResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []entity.TransitionResult
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return entity.TransitionResult{}, fmt.Errorf("decode envelope: %w", err)
		}
		if len(rows) != 1 {
			return entity.TransitionResult{}, fmt.Errorf("decode envelope: %d rows", len(rows))
		}
		return rows[0], nil
	}

	var result entity.TransitionResult
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return entity.TransitionResult{}, fmt.Errorf("decode envelope: %w", err)
	}
	return result, nil
}

// GetState reads the state row of an entity
func (c *Client) GetState(ctx context.Context, kind entity.WorkflowKind, entityID string) (entity.EntityWorkflowState, error) {
	q := url.Values{}
	q.Set("workflow_kind", "eq."+string(kind))
	q.Set("entity_id", "eq."+entityID)

	var rows []stateRow
	if err := c.read(ctx, "get state", http.MethodGet, "/rest/v1/workflow_states?"+q.Encode(), nil, &rows); err != nil {
		return entity.EntityWorkflowState{}, err
	}
	if len(rows) == 0 {
		return entity.EntityWorkflowState{}, fmt.Errorf("entity %s/%s: %w", kind, entityID, workflow.ErrNotFound)
	}
	return rows[0].toEntity(), nil
}

// ListStates reads a page of state rows, newest first
func (c *Client) ListStates(ctx context.Context, kind entity.WorkflowKind, status string, limit, offset int) ([]entity.EntityWorkflowState, error) {
	q := url.Values{}
	q.Set("workflow_kind", "eq."+string(kind))
	if status != "" {
		q.Set("status", "eq."+status)
	}
	q.Set("order", "updated_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var rows []stateRow
	if err := c.read(ctx, "list states", http.MethodGet, "/rest/v1/workflow_states?"+q.Encode(), nil, &rows); err != nil {
		return nil, err
	}

	states := make([]entity.EntityWorkflowState, 0, len(rows))
	for _, r := range rows {
		states = append(states, r.toEntity())
	}
	return states, nil
}

// CountByStatus counts state rows per status
func (c *Client) CountByStatus(ctx context.Context, kind entity.WorkflowKind) ([]entity.StatusCount, error) {
	q := url.Values{}
	q.Set("workflow_kind", "eq."+string(kind))
	q.Set("select", "status")

	var rows []struct {
		Status string `json:"status"`
	}
	if err := c.read(ctx, "count by status", http.MethodGet, "/rest/v1/workflow_states?"+q.Encode(), nil, &rows); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	counts := []entity.StatusCount{}
	for _, r := range rows {
		i, ok := index[r.Status]
		if !ok {
			i = len(counts)
			index[r.Status] = i
			counts = append(counts, entity.StatusCount{Status: r.Status})
		}
		counts[i].Count++
	}
	return counts, nil
}

// read performs an idempotent call with retries
func (c *Client) read(ctx context.Context, op, method, path string, body, out interface{}) error {
	ctx, span := c.startSpan(ctx, "backend."+strings.ReplaceAll(op, " ", "_"), "")
	defer span.End()

	b := &backoff.ExponentialBackOff{
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         2 * time.Second,
		Multiplier:          2,
		RandomizationFactor: 0.5,
		MaxElapsedTime:      c.cfg.MaxElapsed,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	var policy backoff.BackOff = b
	if c.cfg.MaxRetries > 0 {
		policy = backoff.WithMaxRetries(b, c.cfg.MaxRetries)
	}

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := c.do(ctx, method, path, body, out)
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))

	span.SetAttributes(attribute.Int("backend.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		c.logger.Error("Remote read failed",
			zap.String("op", op),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return &workflow.TransientFailure{Op: op, Err: err}
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) startSpan(ctx context.Context, name string, kind entity.WorkflowKind) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("backend.base_url", c.cfg.BaseURL)}
	if kind != "" {
		attrs = append(attrs, attribute.String("workflow.kind", string(kind)))
	}
	return c.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}
