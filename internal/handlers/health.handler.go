package handlers

import (
	xhttp "github.com/trailblaize/outreach-engine/pkg/http"
	"github.com/valyala/fasthttp"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) RegisterRoutes(e *xhttp.Engine) {
	e.GET("/api/v1/health", h.Health)
}

func (h *HealthHandler) Health(ctx *fasthttp.RequestCtx) {
	writeData(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}
