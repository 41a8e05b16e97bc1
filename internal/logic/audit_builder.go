package logic

import (
	"marketplace_refunds/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	auditActionRefundOrder = "REFUND_ORDER"
	auditEntityOrder       = "order"
)

// AuditLogOption defines a function that configures an AuditLog object.
type AuditLogOption func(*models.AuditLog)

// WithReason is an option to add a reason to an audit log.
func WithReason(reason string) AuditLogOption {
	return func(log *models.AuditLog) {
		if reason != "" {
			log.Reason = reason
		}
	}
}

// WithChange records an extra named change next to before and after.
func WithChange(key string, value interface{}) AuditLogOption {
	return func(log *models.AuditLog) {
		log.Changes[key] = value
	}
}

// NewAuditLog is the shared constructor for audit entries.
func NewAuditLog(user *models.User, action, entityType, entityID string, before, after interface{}, opts ...AuditLogOption) *models.AuditLog {
	if user == nil {
		user = models.SystemUser
	}
	log := &models.AuditLog{
		ID:         primitive.NewObjectID(),
		UserID:     user.UserId,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes: map[string]interface{}{
			"before": before,
			"after":  after,
		},
		Timestamp: time.Now(),
	}

	for _, opt := range opts {
		opt(log)
	}
	return log
}

type orderRefundState struct {
	PaymentStatus string `bson:"payment_status" json:"payment_status"`
	Status        string `bson:"status" json:"status"`
	CancelReason  string `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
}

// buildRefundOrderAuditLog records the refund state transition of one (sub-)order.
func buildRefundOrderAuditLog(operator *models.User, before *models.Order, after orderRefundState, refund *models.Refund) *models.AuditLog {
	prev := orderRefundState{
		PaymentStatus: before.PaymentStatus,
		Status:        before.Status,
		CancelReason:  before.CancelReason,
	}
	return NewAuditLog(operator, auditActionRefundOrder, auditEntityOrder, before.ID, prev, after,
		WithReason(refund.Reason),
		WithChange("refund_id", refund.ID.Hex()),
		WithChange("amount", refund.Amount.String()),
	)
}
