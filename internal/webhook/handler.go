package webhook

import (
	"net/http"

	"identity_sync_backend/internal/common"
	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handler exposes the Processor over HTTP.
type Handler struct {
	processor   *Processor
	failureMode string
	maxBody     int64
	path        string
}

func NewHandler(processor *Processor, cfg *config.Config) *Handler {
	return &Handler{
		processor:   processor,
		failureMode: cfg.WebhookFailureMode,
		maxBody:     cfg.WebhookMaxBodyBytes,
		path:        cfg.WebhookPath,
	}
}

// RegisterRoutes mounts the webhook endpoint. The raw-body middleware is scoped to this
// route only.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST(h.path, middleware.RawBody(h.maxBody), h.Receive)
}

func (h *Handler) Receive(c *gin.Context) {
	body, ok := middleware.RawBodyFromContext(c)
	if !ok {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("The request body could not be read."))
		return
	}

	out := h.processor.Process(c.Request.Context(), body, c.Request.Header)

	switch StatusFor(out, h.failureMode) {
	case http.StatusBadRequest:
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Webhook signature verification failed."))
	case http.StatusServiceUnavailable:
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails("The event could not be stored. Retry later."))
	default:
		common.RespondAck(c)
	}
}
