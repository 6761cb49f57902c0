package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/koperasidigital/simpanpinjam/internal/application/port"
	"github.com/koperasidigital/simpanpinjam/internal/application/service"
	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	approvalService service.ApprovalService
	bulkService     service.BulkService
	queryService    service.QueryService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	approvalService service.ApprovalService,
	bulkService service.BulkService,
	queryService service.QueryService,
	logger Logger,
) *Handlers {
	return &Handlers{
		approvalService: approvalService,
		bulkService:     bulkService,
		queryService:    queryService,
		logger:          logger,
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
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SubmitRequestBody is the submission payload. Params is decoded according to
// the declared request type.
type SubmitRequestBody struct {
	Type     string          `json:"type" binding:"required"`
	MemberID string          `json:"member_id" binding:"required"`
	Params   json.RawMessage `json:"params" binding:"required"`
}

// DecisionBody is the payload of a single decision
type DecisionBody struct {
	Decision string `json:"decision" binding:"required"`
	Notes    string `json:"notes"`
}

// ExecutionBody is the payload of an execution confirmation
type ExecutionBody struct {
	ExecutedAt string `json:"executed_at"`
	Notes      string `json:"notes"`
}

// RevisionBody is the payload of a loan revision
type RevisionBody struct {
	approval.LoanRevision
	Notes string `json:"notes"`
}

// CancelBody identifies the cancelling member
type CancelBody struct {
	MemberID string `json:"member_id" binding:"required"`
}

// BulkDecisionBody is the payload of a bulk decision
type BulkDecisionBody struct {
	IDs      []int64 `json:"ids" binding:"required"`
	Decision string  `json:"decision" binding:"required"`
	Notes    string  `json:"notes"`
}

// ListRequestsQuery represents query parameters for listing requests
type ListRequestsQuery struct {
	Type     string `form:"type"`
	Status   string `form:"status"`
	MemberID string `form:"member_id"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// SubmitRequest handles POST /api/v1/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var body SubmitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	reqType := approval.Type(body.Type)
	if !reqType.IsValid() {
		h.badRequest(c, "unknown request type", nil)
		return
	}

	params, err := decodeParams(reqType, body.Params)
	if err != nil {
		h.badRequest(c, "invalid params payload", err)
		return
	}

	req, err := h.approvalService.Submit(c.Request.Context(), service.SubmitDraft{
		Type:     reqType,
		MemberID: body.MemberID,
		Params:   params,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    req,
	})
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	req, err := h.queryService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

// GetRequestByNumber handles GET /api/v1/requests/number/:number
func (h *Handlers) GetRequestByNumber(c *gin.Context) {
	req, err := h.queryService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

// ListRequests handles GET /api/v1/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	var query ListRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return
	}

	requests, err := h.queryService.List(c.Request.Context(), port.RequestFilter{
		Type:     approval.Type(query.Type),
		Status:   approval.Status(query.Status),
		MemberID: query.MemberID,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    requests,
	})
}

// Decide handles POST /api/v1/requests/:id/decision
func (h *Handlers) Decide(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}

	var body DecisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	req, err := h.approvalService.Decide(c.Request.Context(), id, actor, approval.Decision(body.Decision), body.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

// ConfirmExecution handles POST /api/v1/requests/:id/execution
func (h *Handlers) ConfirmExecution(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}

	var body ExecutionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	conf := service.ExecutionConfirmation{Notes: body.Notes}
	if body.ExecutedAt != "" {
		executedAt, err := time.Parse(time.RFC3339, body.ExecutedAt)
		if err != nil {
			h.badRequest(c, "executed_at must be RFC3339", err)
			return
		}
		conf.ExecutedAt = executedAt
	}

	req, err := h.approvalService.ConfirmExecution(c.Request.Context(), id, actor, conf)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

// Revise handles POST /api/v1/requests/:id/revision
func (h *Handlers) Revise(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}

	var body RevisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	req, err := h.approvalService.Revise(c.Request.Context(), id, actor, body.LoanRevision, body.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

// Cancel handles POST /api/v1/requests/:id/cancel
func (h *Handlers) Cancel(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var body CancelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	req, err := h.approvalService.Cancel(c.Request.Context(), id, body.MemberID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

// BulkDecide handles POST /api/v1/decisions/bulk
func (h *Handlers) BulkDecide(c *gin.Context) {
	actor, ok := h.actorFrom(c)
	if !ok {
		return
	}

	var body BulkDecisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	result, err := h.bulkService.BulkDecide(c.Request.Context(), body.IDs, actor, approval.Decision(body.Decision), body.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// requestID parses the :id path parameter
func (h *Handlers) requestID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.badRequest(c, "invalid request ID", err)
		return 0, false
	}
	return id, true
}

// actorFrom reads the staff identity claims set by the authentication layer
func (h *Handlers) actorFrom(c *gin.Context) (approval.Actor, bool) {
	staffID := c.GetHeader("X-Staff-ID")
	staffRole := c.GetHeader("X-Staff-Role")
	if staffID == "" || staffRole == "" {
		c.JSON(http.StatusUnauthorized, Response{
			Success: false,
			Error:   "missing staff identity headers",
		})
		return approval.Actor{}, false
	}
	return approval.Actor{ID: staffID, Role: approval.Role(staffRole)}, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	if err != nil {
		h.logger.Error(msg, "error", err)
	}
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
	})
}

// respondError maps engine errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, approval.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, approval.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, approval.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, approval.ErrInvalidState),
		errors.Is(err, approval.ErrAlreadyConfirmed),
		errors.Is(err, approval.ErrRevisionNotAllowed),
		errors.Is(err, approval.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err)
		c.JSON(status, Response{
			Success: false,
			Error:   "internal server error",
		})
		return
	}

	c.JSON(status, Response{
		Success: false,
		Error:   err.Error(),
	})
}

// decodeParams decodes the type-specific params payload
func decodeParams(t approval.Type, raw json.RawMessage) (approval.Params, error) {
	switch t {
	case approval.TypeLoan:
		var p approval.LoanParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case approval.TypeDeposit:
		var p approval.DepositParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case approval.TypeDepositChange:
		var p approval.DepositChangeParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case approval.TypeWithdrawal:
		var p approval.WithdrawalParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, errors.New("unknown request type")
	}
}
