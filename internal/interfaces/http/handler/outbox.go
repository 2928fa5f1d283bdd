package handler

import (
	"context"
	"net/http"

	appevent "github.com/erp/fulfillment/internal/application/event"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DeadLetters manages outbox entries that exhausted delivery retries
type DeadLetters interface {
	ListDead(ctx context.Context, filter appevent.DeadLetterFilter) (*appevent.DeadLetterPage, error)
	Retry(ctx context.Context, id uuid.UUID) (*appevent.OutboxEntryDTO, error)
	RetryAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*appevent.OutboxStats, error)
}

// OutboxHandler exposes outbox delivery state to operators
type OutboxHandler struct {
	BaseHandler
	deadLetters DeadLetters
}

// NewOutboxHandler creates a new OutboxHandler
func NewOutboxHandler(deadLetters DeadLetters) *OutboxHandler {
	return &OutboxHandler{deadLetters: deadLetters}
}

// OutboxStatsResponse is returned by GET /outbox/stats
type OutboxStatsResponse struct {
	Success bool `json:"success"`
	*appevent.OutboxStats
}

// DeadLetterPageResponse is returned by GET /outbox/dead
type DeadLetterPageResponse struct {
	Success bool `json:"success"`
	*appevent.DeadLetterPage
}

// OutboxEntryResponse is returned after a single entry is requeued
type OutboxEntryResponse struct {
	Success bool                     `json:"success"`
	Entry   *appevent.OutboxEntryDTO `json:"entry"`
}

// RetryAllResponse is returned after every dead entry is requeued
type RetryAllResponse struct {
	Success  bool  `json:"success"`
	Requeued int64 `json:"requeued"`
}

// Stats godoc
// @Summary      Outbox statistics
// @Description  Counts outbox entries per delivery status
// @Tags         outbox
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} OutboxStatsResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /fulfillment/outbox/stats [get]
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.deadLetters.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, OutboxStatsResponse{Success: true, OutboxStats: stats})
}

// ListDead godoc
// @Summary      List dead letter entries
// @Description  Pages through outbox entries that exhausted their retries, newest failure first
// @Tags         outbox
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} DeadLetterPageResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /fulfillment/outbox/dead [get]
func (h *OutboxHandler) ListDead(c *gin.Context) {
	var filter appevent.DeadLetterFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.deadLetters.ListDead(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, DeadLetterPageResponse{Success: true, DeadLetterPage: page})
}

// Retry godoc
// @Summary      Retry a dead letter entry
// @Description  Moves one dead entry back to pending with its retry count cleared
// @Tags         outbox
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Outbox entry ID" format(uuid)
// @Success      200 {object} OutboxEntryResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /fulfillment/outbox/dead/{id}/retry [post]
func (h *OutboxHandler) Retry(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}
	entry, err := h.deadLetters.Retry(c.Request.Context(), uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, OutboxEntryResponse{Success: true, Entry: entry})
}

// RetryAll godoc
// @Summary      Retry every dead letter entry
// @Description  Moves all dead entries back to pending
// @Tags         outbox
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} RetryAllResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /fulfillment/outbox/retry-dead [post]
func (h *OutboxHandler) RetryAll(c *gin.Context) {
	n, err := h.deadLetters.RetryAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, RetryAllResponse{Success: true, Requeued: n})
}
