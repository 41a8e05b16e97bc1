package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"marketplace_refunds/internal/constants"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/helper"
	"marketplace_refunds/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RefundEventTopic string

// RefundEventPayload is the body of every refund.* event.
type RefundEventPayload struct {
	Event            string    `json:"event"`
	RefundID         string    `json:"refund_id"`
	Serial           uint64    `json:"serial"`
	OrderID          string    `json:"order_id"`
	GroupKey         string    `json:"group_key,omitempty"`
	PaymentID        string    `json:"payment_id"`
	ExternalRefundID string    `json:"external_refund_id,omitempty"`
	Amount           string    `json:"amount"`
	Status           string    `json:"status"`
	Reason           string    `json:"reason"`
	GatewayKind      string    `json:"gateway_kind,omitempty"`
	FullRefund       bool      `json:"full_refund"`
	AllItemsRefunded bool      `json:"all_items_refunded"`
	OrderIDs         []string  `json:"order_ids"`
	CreatedAt        time.Time `json:"created_at"`
}

// RefundEventPublisher writes refund events to the outbox inside the caller's transaction.
type RefundEventPublisher struct {
	outboxRepo repository.OutboxRepository
	topic      RefundEventTopic
}

func NewRefundEventPublisher(outboxRepo repository.OutboxRepository, topic RefundEventTopic) *RefundEventPublisher {
	return &RefundEventPublisher{
		outboxRepo: outboxRepo,
		topic:      topic,
	}
}

// PublishRefundEvent stores the event for the outbox processor. Any failure fails the transaction.
func (p *RefundEventPublisher) PublishRefundEvent(ctx context.Context, event constants.RefundEvent, refund *models.Refund, orderIDs []string) error {
	payload := RefundEventPayload{
		Event:            event.String(),
		RefundID:         refund.ID.Hex(),
		Serial:           refund.Serial,
		OrderID:          refund.OrderID,
		GroupKey:         refund.GroupKey,
		PaymentID:        refund.PaymentID,
		ExternalRefundID: refund.ExternalRefundID,
		Amount:           helper.FormatAmount(refund.Amount),
		Status:           refund.Status,
		Reason:           refund.Reason,
		GatewayKind:      refund.GatewayKind,
		FullRefund:       refund.FullRefund,
		AllItemsRefunded: refund.AllItemsRefunded,
		OrderIDs:         orderIDs,
		CreatedAt:        refund.CreatedAt,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal refund event payload: %w", err)
	}

	msg := &models.OutboxMessage{
		ID:        primitive.NewObjectID(),
		Topic:     string(p.topic),
		Event:     event.String(),
		Key:       refund.IdempotencyKey,
		Payload:   string(payloadBytes),
		Status:    models.OutboxStatusPending,
		CreatedAt: time.Now(),
	}
	if err := p.outboxRepo.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to create refund event outbox message: %w", err)
	}
	return nil
}
