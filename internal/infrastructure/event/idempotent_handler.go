package event

import (
	"context"
	"sync/atomic"

	"github.com/erp/fulfillment/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyStats counts what an IdempotentHandler has seen
type IdempotencyStats struct {
	Processed  atomic.Int64
	Duplicates atomic.Int64
	Failed     atomic.Int64
}

// IdempotentHandler skips events whose ID was already handled.
// The outbox delivers at least once, so a relayed event may arrive twice.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
	stats   IdempotencyStats
}

// NewIdempotentHandler wraps handler with duplicate detection backed by store
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, config shared.IdempotencyConfig, logger *zap.Logger) *IdempotentHandler {
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  config,
		logger:  logger,
	}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle delivers event unless it was already marked processed.
// A store failure is logged and the event is delivered anyway.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled || h.store == nil {
		return h.handler.Handle(ctx, event)
	}

	eventID := event.EventID().String()
	isNew, err := h.store.MarkProcessed(ctx, eventID, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("idempotency check failed, handling event anyway",
			zap.String("event_id", eventID),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	case !isNew:
		h.stats.Duplicates.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", eventID),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.stats.Failed.Add(1)
		// release the key so the outbox retry is not treated as a duplicate
		if relErr := h.store.Release(ctx, eventID); relErr != nil {
			h.logger.Warn("failed to release idempotency key",
				zap.String("event_id", eventID),
				zap.Error(relErr),
			)
		}
		return err
	}

	h.stats.Processed.Add(1)
	return nil
}

// Stats returns the handler's counters
func (h *IdempotentHandler) Stats() *IdempotencyStats {
	return &h.stats
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
