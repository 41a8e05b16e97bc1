package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"marketplace_refunds/internal/conf"
	"marketplace_refunds/internal/models"
	"marketplace_refunds/internal/mq/rabbitmq"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAlertRepo struct {
	mock.Mock
}

func (m *mockAlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	return m.Called(ctx, alert).Error(0)
}

func (m *mockAlertRepo) ListRecent(ctx context.Context, limit int) ([]*models.Alert, error) {
	args := m.Called(ctx, limit)
	alerts, _ := args.Get(0).([]*models.Alert)
	return alerts, args.Error(1)
}

func newAlertHandler(repo *mockAlertRepo, now time.Time) *RefundAlertHandler {
	h := NewRefundAlertHandler(repo, &conf.RabbitMQConfig{RefundAlertTopic: "refund_alerts"}, zap.NewNop())
	h.now = func() time.Time { return now }
	return h
}

func TestRefundAlertHandler_Handle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stores a valid alert", func(t *testing.T) {
		repo := new(mockAlertRepo)
		h := newAlertHandler(repo, now)
		assert.Equal(t, "refund_alerts", h.QueueName())

		body, err := json.Marshal(&models.Alert{
			Kind:           "refund_not_recorded",
			OrderID:        "ord-1",
			PaymentID:      "pay-1",
			IdempotencyKey: "key-1",
			Amount:         "40.00",
		})
		require.NoError(t, err)

		repo.On("Create", ctx, mock.MatchedBy(func(a *models.Alert) bool {
			return a.IdempotencyKey == "key-1" &&
				a.Kind == "refund_not_recorded" &&
				a.ID.IsZero() &&
				a.ReceivedAt.Equal(now) &&
				a.RaisedAt.Equal(now)
		})).Return(nil)

		assert.NoError(t, h.Handle(ctx, amqp.Delivery{Body: body}))
		repo.AssertExpectations(t)
	})

	t.Run("malformed body is permanent", func(t *testing.T) {
		repo := new(mockAlertRepo)
		h := newAlertHandler(repo, now)

		err := h.Handle(ctx, amqp.Delivery{Body: []byte("{not json")})
		assert.ErrorIs(t, err, rabbitmq.ErrPermanent)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("alert without key is permanent", func(t *testing.T) {
		repo := new(mockAlertRepo)
		h := newAlertHandler(repo, now)

		err := h.Handle(ctx, amqp.Delivery{Body: []byte(`{"kind":"unreconciled_attempt"}`)})
		assert.ErrorIs(t, err, rabbitmq.ErrPermanent)
	})

	t.Run("storage failure is retried", func(t *testing.T) {
		repo := new(mockAlertRepo)
		h := newAlertHandler(repo, now)
		repo.On("Create", ctx, mock.Anything).Return(errors.New("mongo down"))

		err := h.Handle(ctx, amqp.Delivery{Body: []byte(`{"kind":"unreconciled_attempt","idempotency_key":"key-2"}`)})
		require.Error(t, err)
		assert.NotErrorIs(t, err, rabbitmq.ErrPermanent)
	})
}
