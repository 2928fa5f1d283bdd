package event

import (
	"context"
	"errors"
	"time"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeadLetterRepository is the slice of outbox persistence the admin surface needs
type DeadLetterRepository interface {
	FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error)
	Update(ctx context.Context, entry *shared.OutboxEntry) error
	CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error)
}

const (
	defaultDeadLetterPageSize = 20
	maxDeadLetterPageSize     = 100
)

// DeadLetterService inspects and requeues outbox entries that exhausted their retries
type DeadLetterService struct {
	repo   DeadLetterRepository
	logger *zap.Logger
}

// NewDeadLetterService creates a new dead letter service
func NewDeadLetterService(repo DeadLetterRepository, logger *zap.Logger) *DeadLetterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeadLetterService{repo: repo, logger: logger}
}

// OutboxEntryDTO is the API view of an outbox entry. The payload is omitted.
type OutboxEntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	CompanyID     uuid.UUID  `json:"company_id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DeadLetterFilter selects a page of dead entries
type DeadLetterFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// DeadLetterPage is one page of dead entries
type DeadLetterPage struct {
	Entries    []OutboxEntryDTO `json:"entries"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// OutboxStats counts entries per delivery status
type OutboxStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// ListDead returns a page of dead entries
func (s *DeadLetterService) ListDead(ctx context.Context, filter DeadLetterFilter) (*DeadLetterPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultDeadLetterPageSize
	}
	if pageSize > maxDeadLetterPageSize {
		pageSize = maxDeadLetterPageSize
	}

	entries, total, err := s.repo.FindDead(ctx, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list dead outbox entries", zap.Error(err))
		return nil, err
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	views := make([]OutboxEntryDTO, len(entries))
	for i, entry := range entries {
		views[i] = toOutboxEntryDTO(entry)
	}
	return &DeadLetterPage{
		Entries:    views,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Retry returns a single dead entry to pending so the relay picks it up again
func (s *DeadLetterService) Retry(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "outbox entry not found")
		}
		return nil, err
	}

	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("Failed to requeue outbox entry", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}

	s.logger.Info("Dead outbox entry requeued",
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType),
	)
	view := toOutboxEntryDTO(entry)
	return &view, nil
}

// RetryAll requeues every dead entry and returns how many were reset.
// Requeued entries leave the dead set, so the first page is read until it drains.
func (s *DeadLetterService) RetryAll(ctx context.Context) (int64, error) {
	var count int64
	for {
		entries, _, err := s.repo.FindDead(ctx, 1, maxDeadLetterPageSize)
		if err != nil {
			s.logger.Error("Failed to list dead outbox entries", zap.Error(err))
			return count, err
		}
		if len(entries) == 0 {
			break
		}

		progressed := false
		for _, entry := range entries {
			if err := entry.ResetForRetry(); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Error("Failed to requeue outbox entry", zap.Error(err), zap.String("id", entry.ID.String()))
				continue
			}
			progressed = true
			count++
		}
		if !progressed || len(entries) < maxDeadLetterPageSize {
			break
		}
	}

	s.logger.Info("Dead outbox entries requeued", zap.Int64("count", count))
	return count, nil
}

// Stats returns entry counts per status
func (s *DeadLetterService) Stats(ctx context.Context) (*OutboxStats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count outbox entries", zap.Error(err))
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return &OutboxStats{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
		Total:      total,
	}, nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:            entry.ID,
		CompanyID:     entry.CompanyID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		ProcessedAt:   entry.ProcessedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
