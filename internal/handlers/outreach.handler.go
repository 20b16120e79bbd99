package handlers

import (
	"context"
	"errors"

	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/internal/services"
	xhttp "github.com/trailblaize/outreach-engine/pkg/http"
	"github.com/valyala/fasthttp"
)

// OutreachProvider is the engine surface the HTTP layer calls.
type OutreachProvider interface {
	Lines() model.Lines
	Assign(ctx context.Context, params model.AssignRequest) (*model.AssignResult, error)
	SendBatch(ctx context.Context, params model.SendBatchRequest) (*model.SendBatchResult, error)
	GetQueue(ctx context.Context, chapterID string, lineNumber int) (*model.QueueResult, error)
	MarkEntry(ctx context.Context, params model.ReportRequest) (*model.QueueEntry, error)
	PollResponses(ctx context.Context, chapterID string) (*model.PollResult, error)
	VerifyIMessage(ctx context.Context, chapterID string, limit int) (*model.VerifyResult, error)
	Dashboard(ctx context.Context, chapterID string) (*model.DashboardSnapshot, error)
}

type OutreachHandler struct {
	service OutreachProvider
}

func NewOutreachHandler(service OutreachProvider) *OutreachHandler {
	return &OutreachHandler{
		service: service,
	}
}

func (h *OutreachHandler) RegisterRoutes(e *xhttp.Engine) {
	e.GET("/api/v1/outreach/lines", h.Lines)
	e.POST("/api/v1/outreach/assign", h.Assign)
	e.POST("/api/v1/outreach/send-batch", h.SendBatch)
	e.GET("/api/v1/outreach/queue", h.Queue)
	e.POST("/api/v1/outreach/report", h.Report)
	e.POST("/api/v1/outreach/poll-responses", h.PollResponses)
	e.POST("/api/v1/outreach/verify-imessage", h.VerifyIMessage)
	e.GET("/api/v1/outreach/dashboard", h.Dashboard)
}

func (h *OutreachHandler) Lines(ctx *fasthttp.RequestCtx) {
	writeData(ctx, fasthttp.StatusOK, h.service.Lines())
}

func (h *OutreachHandler) Assign(ctx *fasthttp.RequestCtx) {
	var params model.AssignRequest
	if err := readJSON(ctx, &params); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, "invalid json body")
		return
	}
	if err := params.Validate(); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, err.Error())
		return
	}

	result, err := h.service.Assign(ctx, params)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeData(ctx, fasthttp.StatusOK, result)
}

func (h *OutreachHandler) SendBatch(ctx *fasthttp.RequestCtx) {
	var params model.SendBatchRequest
	if err := readJSON(ctx, &params); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, "invalid json body")
		return
	}
	if err := params.Validate(); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, err.Error())
		return
	}

	result, err := h.service.SendBatch(ctx, params)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeData(ctx, fasthttp.StatusOK, result)
}

func (h *OutreachHandler) Queue(ctx *fasthttp.RequestCtx) {
	chapterID := queryString(ctx, "chapter_id")
	if chapterID == "" {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, "chapter_id is required")
		return
	}
	line := queryInt(ctx, "line_number")

	result, err := h.service.GetQueue(ctx, chapterID, line)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeData(ctx, fasthttp.StatusOK, result)
}

func (h *OutreachHandler) Report(ctx *fasthttp.RequestCtx) {
	var params model.ReportRequest
	if err := readJSON(ctx, &params); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, "invalid json body")
		return
	}
	if err := params.Validate(); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, err.Error())
		return
	}

	entry, err := h.service.MarkEntry(ctx, params)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeData(ctx, fasthttp.StatusOK, entry)
}

func (h *OutreachHandler) PollResponses(ctx *fasthttp.RequestCtx) {
	var params model.PollRequest
	if err := readJSON(ctx, &params); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, "invalid json body")
		return
	}
	if err := params.Validate(); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, err.Error())
		return
	}

	result, err := h.service.PollResponses(ctx, params.ChapterID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeData(ctx, fasthttp.StatusOK, result)
}

func (h *OutreachHandler) VerifyIMessage(ctx *fasthttp.RequestCtx) {
	var params model.VerifyRequest
	if err := readJSON(ctx, &params); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, "invalid json body")
		return
	}
	if err := params.Validate(); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, err.Error())
		return
	}

	result, err := h.service.VerifyIMessage(ctx, params.ChapterID, params.Limit)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeData(ctx, fasthttp.StatusOK, result)
}

func (h *OutreachHandler) Dashboard(ctx *fasthttp.RequestCtx) {
	chapterID := queryString(ctx, "chapter_id")
	if chapterID == "" {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, "chapter_id is required")
		return
	}

	result, err := h.service.Dashboard(ctx, chapterID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeData(ctx, fasthttp.StatusOK, result)
}

// writeServiceError maps engine errors onto the response envelope.
func writeServiceError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrEntryNotFound):
		writeError(ctx, fasthttp.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, services.ErrEntryNotPending):
		writeError(ctx, fasthttp.StatusConflict, CodeInvalidState, err.Error())
	case errors.Is(err, services.ErrUnknownLine):
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, err.Error())
	default:
		writeError(ctx, fasthttp.StatusInternalServerError, CodeServerError, err.Error())
	}
}
