package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/google/uuid"
)

// AuditLogModel maps the audit_logs table. Rows are never updated.
type AuditLogModel struct {
	ID         uuid.UUID                `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID                `gorm:"type:uuid;not null;index:idx_audit_logs_order_created,priority:1"`
	ActorID    uuid.UUID                `gorm:"type:uuid;not null"`
	Action     fulfillment.AuditAction  `gorm:"type:varchar(64);not null"`
	FromStatus *fulfillment.OrderStatus `gorm:"type:varchar(32)"`
	ToStatus   *fulfillment.OrderStatus `gorm:"type:varchar(32)"`
	Payload    []byte                   `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time                `gorm:"not null;index:idx_audit_logs_order_created,priority:2"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the model to an audit entry
func (m *AuditLogModel) ToDomain() (*fulfillment.AuditLogEntry, error) {
	payload := map[string]any{}
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode audit payload %s: %w", m.ID, err)
		}
	}
	return &fulfillment.AuditLogEntry{
		ID:         m.ID,
		OrderID:    m.OrderID,
		ActorID:    m.ActorID,
		Action:     m.Action,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		Payload:    payload,
		CreatedAt:  m.CreatedAt,
	}, nil
}

// AuditLogModelFromDomain builds the model for an audit entry
func AuditLogModelFromDomain(e *fulfillment.AuditLogEntry) (*AuditLogModel, error) {
	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit payload: %w", err)
	}
	return &AuditLogModel{
		ID:         e.ID,
		OrderID:    e.OrderID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Payload:    data,
		CreatedAt:  e.CreatedAt,
	}, nil
}

// NotificationModel maps the notifications table
type NotificationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// NotificationModelFromDomain builds the model for a notification
func NotificationModelFromDomain(n *fulfillment.Notification) *NotificationModel {
	return &NotificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		OrderID:   n.OrderID,
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	}
}

// UserModel maps the read-only users directory
type UserModel struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey"`
	CompanyID *uuid.UUID       `gorm:"type:uuid;index"`
	Role      fulfillment.Role `gorm:"type:varchar(32);not null;index"`
	Email     string           `gorm:"type:varchar(255);not null;uniqueIndex"`
	Active    bool             `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}
