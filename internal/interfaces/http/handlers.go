package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bnrm/backoffice/internal/application/service"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/status"
	"github.com/bnrm/backoffice/internal/domain/workflow"
	"github.com/bnrm/backoffice/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// ListEntitiesRequest represents query parameters for listing entities
type ListEntitiesRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// TransitionRequest is the body of a decision submission
type TransitionRequest struct {
	Decision entity.Decision   `json:"decision" binding:"required"`
	Comment  *string           `json:"comment"`
	Fields   map[string]string `json:"fields"`
}

// TransitionResponse carries the submission result and the refreshed view
type TransitionResponse struct {
	Result service.SubmitResult  `json:"result"`
	View   *service.ViewSnapshot `json:"view,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	healthy, components := true, interface{}(nil)
	if h.services.Health != nil {
		healthy, components = h.services.Health()
	}

	code, state := http.StatusOK, "healthy"
	if !healthy {
		code, state = http.StatusServiceUnavailable, "degraded"
	}

	c.JSON(code, Response{
		Success: healthy,
		Data: HealthResponse{
			Status:     state,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Version:    "1.0.0",
			Components: components,
		},
	})
}

// ListSteps handles GET /api/workflows/:kind/steps
func (h *Handlers) ListSteps(c *gin.Context) {
	kind := kindParam(c)

	steps, err := h.services.Catalog.LoadSteps(c.Request.Context(), kind)
	if err != nil {
		h.fail(c, err, "failed to load steps")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: steps})
}

// ListEntities handles GET /api/workflows/:kind/entities
func (h *Handlers) ListEntities(c *gin.Context) {
	var req ListEntitiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	entities, err := h.services.Entities.List(c.Request.Context(), kindParam(c), req.Status, req.Limit, req.Offset)
	if err != nil {
		h.fail(c, err, "failed to retrieve entities")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entities})
}

// Stats handles GET /api/workflows/:kind/stats
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.services.Entities.Stats(c.Request.Context(), kindParam(c))
	if err != nil {
		h.fail(c, err, "failed to count entities")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: stats})
}

// GetEntity handles GET /api/workflows/:kind/entities/:id. Unknown kinds
// answer with a placeholder snapshot.
func (h *Handlers) GetEntity(c *gin.Context) {
	view, err := h.services.Views.OpenView(c.Request.Context(), kindParam(c), c.Param("id"), service.ViewCallbacks{})
	if err != nil {
		h.fail(c, err, "failed to load workflow")
		return
	}
	defer view.Close()

	c.JSON(http.StatusOK, Response{Success: true, Data: view.Snapshot()})
}

// GetHistory handles GET /api/workflows/:kind/entities/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	history, err := h.services.History.Fetch(c.Request.Context(), kindParam(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to load history")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

// ExportHistory handles GET /api/workflows/:kind/entities/:id/history.xlsx
func (h *Handlers) ExportHistory(c *gin.Context) {
	data, name, err := h.services.Export.ExportHistory(c.Request.Context(), kindParam(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to export history")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GetActions handles GET /api/workflows/:kind/entities/:id/actions
func (h *Handlers) GetActions(c *gin.Context) {
	kind := kindParam(c)

	state, err := h.services.Entities.GetState(c.Request.Context(), kind, c.Param("id"))
	if err != nil && !errors.Is(err, workflow.ErrNotFound) {
		h.fail(c, err, "failed to load entity state")
		return
	}

	actions, err := h.services.Actions.AvailableActions(kind, state.CurrentStepCode)
	if err != nil {
		h.fail(c, err, "failed to resolve actions")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: actions})
}

// SubmitTransition handles POST /api/workflows/:kind/entities/:id/transitions
func (h *Handlers) SubmitTransition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	kind, entityID := kindParam(c), c.Param("id")
	ctx := c.Request.Context()

	if req.Comment != nil {
		comment := utils.SanitizeString(*req.Comment)
		req.Comment = &comment
	}
	req.Fields = utils.SanitizeFields(req.Fields)

	view, err := h.services.Views.OpenView(ctx, kind, entityID, service.ViewCallbacks{})
	if err != nil {
		h.fail(c, err, "failed to load workflow")
		return
	}
	defer view.Close()

	result, err := view.Submit(ctx, req.Decision, req.Comment, req.Fields, c.GetString(actorKey))
	if err != nil {
		h.fail(c, err, "failed to submit transition")
		return
	}

	resp := TransitionResponse{Result: result}
	if result.Succeeded() {
		snapshot := view.Snapshot()
		resp.View = &snapshot
	}

	c.JSON(outcomeStatus(result.Outcome), Response{
		Success: result.Succeeded(),
		Data:    resp,
		Error:   errorNotice(result),
	})
}

// GetStatus handles GET /api/statuses/:domain/:code
func (h *Handlers) GetStatus(c *gin.Context) {
	d, err := h.services.Badges.Resolve(c.Param("domain"), c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: d})
}

func kindParam(c *gin.Context) entity.WorkflowKind {
	return entity.WorkflowKind(c.Param("kind"))
}

// fail logs err and writes it with the status its class maps to
func (h *Handlers) fail(c *gin.Context, err error, msg string) {
	code := errorStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error(msg, "path", c.Request.URL.Path, "error", err)
	}

	body := Response{Success: false, Error: msg}
	if code != http.StatusInternalServerError {
		body.Error = err.Error()
	}
	c.JSON(code, body)
}

// errorStatus maps error classes to HTTP status codes
func errorStatus(err error) int {
	var (
		ve *workflow.ValidationError
		br *workflow.BusinessRejection
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.As(err, &br):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrNotFound), errors.Is(err, status.ErrUnknownDomain):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrSubmissionInFlight):
		return http.StatusTooManyRequests
	case workflow.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func outcomeStatus(o service.Outcome) int {
	switch o {
	case service.OutcomeInvalid:
		return http.StatusUnprocessableEntity
	case service.OutcomeRejected:
		return http.StatusConflict
	case service.OutcomeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

func errorNotice(r service.SubmitResult) string {
	if r.Succeeded() {
		return ""
	}
	return r.Notice
}
