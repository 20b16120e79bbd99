package handlers

import (
	"context"

	"github.com/trailblaize/outreach-engine/internal/model"
	xhttp "github.com/trailblaize/outreach-engine/pkg/http"
	"github.com/valyala/fasthttp"
)

// ContactImporter loads parsed contact rows into a chapter.
type ContactImporter interface {
	Import(ctx context.Context, params model.ImportRequest) (*model.ImportResult, error)
}

type ContactsHandler struct {
	importer ContactImporter
}

func NewContactsHandler(importer ContactImporter) *ContactsHandler {
	return &ContactsHandler{
		importer: importer,
	}
}

func (h *ContactsHandler) RegisterRoutes(e *xhttp.Engine) {
	e.POST("/api/v1/contacts/import", h.Import)
}

func (h *ContactsHandler) Import(ctx *fasthttp.RequestCtx) {
	var params model.ImportRequest
	if err := readJSON(ctx, &params); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, "invalid json body")
		return
	}
	if err := params.Validate(); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, CodeValidationError, err.Error())
		return
	}

	result, err := h.importer.Import(ctx, params)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeData(ctx, fasthttp.StatusOK, result)
}
