package logic

import (
	"context"
	"fmt"
	"marketplace_refunds/internal/constants"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemLine is the share of a refund attributed to one order item.
type ItemLine struct {
	Item   *models.OrderItem
	Amount primitive.Decimal128
}

// RefundLedger is the append-only record of refund attempts.
type RefundLedger struct {
	refundRepo repository.RefundsRepository
	orderRepo  repository.OrdersRepository
}

func NewRefundLedger(refundRepo repository.RefundsRepository, orderRepo repository.OrdersRepository) *RefundLedger {
	return &RefundLedger{refundRepo: refundRepo, orderRepo: orderRepo}
}

// PriorCommitted sums approved and pending refunds of a payment.
func (l *RefundLedger) PriorCommitted(ctx context.Context, paymentID string) (primitive.Decimal128, error) {
	total, err := l.refundRepo.SumCommittedByPayment(ctx, paymentID)
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to sum committed refunds of %s: %w", paymentID, err)
	}
	return total, nil
}

// Record inserts a new ledger row. Committed rows claim their idempotency key.
func (l *RefundLedger) Record(ctx context.Context, refund *models.Refund) error {
	if refund.ID.IsZero() {
		refund.ID = primitive.NewObjectID()
	}
	refund.CommittedKey = ""
	if constants.ParseRefundStatus(refund.Status).IsCommitted() {
		refund.CommittedKey = refund.IdempotencyKey
	}
	return l.refundRepo.CreateRefund(ctx, refund)
}

// NewRefundItems builds the join rows for the items a refund covers.
func NewRefundItems(refund *models.Refund, lines []ItemLine, at time.Time) []*models.RefundItem {
	refundItems := make([]*models.RefundItem, len(lines))
	for i, line := range lines {
		refundItems[i] = &models.RefundItem{
			ID:          primitive.NewObjectID(),
			RefundID:    refund.ID,
			OrderID:     line.Item.Order,
			OrderItemID: line.Item.ID,
			Amount:      line.Amount,
			CreatedAt:   at,
		}
	}
	return refundItems
}

// AttachItems inserts the join rows of a refund.
func (l *RefundLedger) AttachItems(ctx context.Context, refundItems []*models.RefundItem) error {
	if len(refundItems) == 0 {
		return nil
	}
	if err := l.refundRepo.CreateRefundItems(ctx, refundItems); err != nil {
		return fmt.Errorf("failed to create refund items: %w", err)
	}
	return nil
}

// StampItems sets refunded_at on the covered order items. Items already stamped keep their time.
func (l *RefundLedger) StampItems(ctx context.Context, refundItems []*models.RefundItem, at time.Time) error {
	if len(refundItems) == 0 {
		return nil
	}
	itemIDs := make([]string, len(refundItems))
	for i, ri := range refundItems {
		itemIDs[i] = ri.OrderItemID
	}
	if _, err := l.orderRepo.MarkItemsRefunded(ctx, itemIDs, at); err != nil {
		return fmt.Errorf("failed to stamp refunded items: %w", err)
	}
	return nil
}

// FindCommitted returns the committed row for an idempotency key and its items.
func (l *RefundLedger) FindCommitted(ctx context.Context, idempotencyKey string) (*models.Refund, []*models.RefundItem, error) {
	refund, err := l.refundRepo.GetCommittedByKey(ctx, idempotencyKey)
	if err != nil {
		return nil, nil, err
	}
	items, err := l.refundRepo.GetRefundItemsByRefundID(ctx, refund.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load items of refund %s: %w", refund.ID.Hex(), err)
	}
	return refund, items, nil
}
