package repository

import (
	"context"
	"marketplace_refunds/internal/dto"
	"marketplace_refunds/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrdersRepository interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrdersByParentID(ctx context.Context, parentID string) ([]*models.Order, error)
	GetOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) ([]*models.OrderItem, error)
	UpdateOrders(ctx context.Context, orderIDs []string, opts ...UpdateOption) (int64, error)
	MarkItemsRefunded(ctx context.Context, itemIDs []string, at time.Time) (int64, error)
}

type RefundsRepository interface {
	CreateRefund(ctx context.Context, refund *models.Refund) error
	GetRefundByID(ctx context.Context, id primitive.ObjectID) (*models.Refund, error)
	GetCommittedByKey(ctx context.Context, idempotencyKey string) (*models.Refund, error)
	SumCommittedByPayment(ctx context.Context, paymentID string) (primitive.Decimal128, error)
	CreateRefundItems(ctx context.Context, items []*models.RefundItem) error
	GetRefundItemsByRefundID(ctx context.Context, refundID primitive.ObjectID) ([]*models.RefundItem, error)
	ListRefunds(ctx context.Context, params *ListRefundsParams) ([]*models.Refund, int64, error)
	TotalsByStatus(ctx context.Context, params *ListRefundsParams) ([]*dto.RefundStatusTotal, error)
	GetRefundsByMonth(ctx context.Context, year int, month int) ([]*models.Refund, error)
	FindUnflaggedRejections(ctx context.Context, gatewayKind string, limit int) ([]*models.Refund, error)
	MarkFlagged(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type OutboxRepository interface {
	Create(ctx context.Context, message *models.OutboxMessage) error
	ClaimAndFetchEvents(ctx context.Context, limit int) ([]*models.OutboxMessage, error)
	MarkAsProcessed(ctx context.Context, id primitive.ObjectID) error
	IncrementRetry(ctx context.Context, id primitive.ObjectID, errorMessage string) error
	MarkAsDeadLetter(ctx context.Context, id primitive.ObjectID, errorMessage string) error
}

type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	ListRecent(ctx context.Context, limit int) ([]*models.Alert, error)
}
