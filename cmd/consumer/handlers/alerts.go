package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"marketplace_refunds/internal/conf"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/models"
	"marketplace_refunds/internal/mq/rabbitmq"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RefundAlertHandler stores reconciliation alerts so operators can work through them.
type RefundAlertHandler struct {
	alertRepo repository.AlertRepository
	cfg       *conf.RabbitMQConfig
	now       func() time.Time
	logger    *zap.Logger
}

func NewRefundAlertHandler(alertRepo repository.AlertRepository, cfg *conf.RabbitMQConfig, logger *zap.Logger) *RefundAlertHandler {
	return &RefundAlertHandler{
		alertRepo: alertRepo,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.Named("RefundAlertHandler"),
	}
}

// QueueName returns the name of the queue this handler subscribes to.
func (h *RefundAlertHandler) QueueName() string {
	return h.cfg.RefundAlertTopic
}

// Handle persists one alert. Malformed alerts are dropped; storage failures are requeued.
func (h *RefundAlertHandler) Handle(ctx context.Context, d amqp.Delivery) error {
	var alert models.Alert
	if err := json.Unmarshal(d.Body, &alert); err != nil {
		h.logger.Error("Failed to unmarshal alert", zap.Error(err), zap.ByteString("body", d.Body))
		return fmt.Errorf("%w: %v", rabbitmq.ErrPermanent, err)
	}
	if alert.IdempotencyKey == "" || alert.Kind == "" {
		h.logger.Error("Alert is missing its idempotency key or kind", zap.ByteString("body", d.Body))
		return fmt.Errorf("%w: alert without idempotency key or kind", rabbitmq.ErrPermanent)
	}

	alert.ID = primitive.NilObjectID
	alert.ReceivedAt = h.now()
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = alert.ReceivedAt
	}

	if err := h.alertRepo.Create(ctx, &alert); err != nil {
		return fmt.Errorf("failed to store alert: %w", err)
	}

	h.logger.Warn("Refund alert stored",
		zap.String("kind", alert.Kind),
		zap.String("orderID", alert.OrderID),
		zap.String("paymentID", alert.PaymentID),
		zap.String("idempotencyKey", alert.IdempotencyKey),
	)
	return nil
}

var _ MessageHandler = (*RefundAlertHandler)(nil)
