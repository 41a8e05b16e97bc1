package logic

import (
	"context"
	"encoding/json"
	"marketplace_refunds/internal/models"
	"marketplace_refunds/internal/mq"

	"go.uber.org/zap"
)

type RefundAlertTopic string

// AlertHook notifies operators that a refund needs manual reconciliation with the provider.
type AlertHook interface {
	Raise(ctx context.Context, alert *models.Alert)
}

// MQAlertHook logs the alert and publishes it straight to the broker. It does not go through
// the outbox because it fires exactly when the database could not be written.
type MQAlertHook struct {
	publisher mq.Publisher
	topic     RefundAlertTopic
	logger    *zap.Logger
}

func NewMQAlertHook(publisher mq.Publisher, topic RefundAlertTopic, logger *zap.Logger) *MQAlertHook {
	return &MQAlertHook{
		publisher: publisher,
		topic:     topic,
		logger:    logger.Named("AlertHook"),
	}
}

func (h *MQAlertHook) Raise(ctx context.Context, alert *models.Alert) {
	h.logger.Error("refund requires manual reconciliation",
		zap.String("kind", alert.Kind),
		zap.String("orderID", alert.OrderID),
		zap.String("paymentID", alert.PaymentID),
		zap.String("externalRefundID", alert.ExternalRefundID),
		zap.String("idempotencyKey", alert.IdempotencyKey),
		zap.String("amount", alert.Amount),
		zap.String("message", alert.Message),
	)

	body, err := json.Marshal(alert)
	if err != nil {
		h.logger.Error("failed to marshal alert", zap.Error(err))
		return
	}
	if err := h.publisher.Publish(context.WithoutCancel(ctx), string(h.topic), body,
		mq.WithMessageID(alert.IdempotencyKey+":"+alert.Kind),
		mq.WithType(alert.Kind),
	); err != nil {
		h.logger.Error("failed to publish alert, the log entry above is the only record", zap.Error(err), zap.String("idempotencyKey", alert.IdempotencyKey))
	}
}

var _ AlertHook = (*MQAlertHook)(nil)
