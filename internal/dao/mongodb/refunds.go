package mongodb

import (
	"context"
	"errors"
	"fmt"
	"marketplace_refunds/internal/constants"
	"marketplace_refunds/internal/dao/fields"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/dto"
	"marketplace_refunds/internal/helper"
	"marketplace_refunds/internal/models"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func NewRefundsDAO(db *mongo.Database, logger *zap.Logger) *RefundsDAO {
	return &RefundsDAO{
		refundsCollection:     db.Collection(CollectionRefunds),
		refundItemsCollection: db.Collection(CollectionRefundItems),
		logger:                logger.Named("RefundsDAO"),
	}
}

// RefundsDAO persists the append-only refund ledger.
type RefundsDAO struct {
	refundsCollection     *mongo.Collection
	refundItemsCollection *mongo.Collection
	logger                *zap.Logger
}

// CreateRefund inserts a ledger row. A second committed row for the same idempotency key
// is rejected by the unique committed_key index and reported as ErrDuplicateKey.
func (d *RefundsDAO) CreateRefund(ctx context.Context, refund *models.Refund) error {
	if refund.ID.IsZero() {
		refund.ID = primitive.NewObjectID()
	}
	_, err := d.refundsCollection.InsertOne(ctx, refund)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: refund with idempotency key %s", ErrDuplicateKey, refund.IdempotencyKey)
		}
		d.logger.Error("CreateRefund: InsertOne failed", zap.Error(err), zap.String("paymentID", refund.PaymentID), zap.String("status", refund.Status))
		return err
	}
	return nil
}

func (d *RefundsDAO) GetRefundByID(ctx context.Context, id primitive.ObjectID) (*models.Refund, error) {
	var res models.Refund
	err := d.refundsCollection.FindOne(ctx, bson.M{fields.FieldObjectId: id}).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		d.logger.Error("GetRefundByID: FindOne failed", zap.Error(err), zap.Stringer("refundID", id))
		return nil, err
	}
	return &res, nil
}

// GetCommittedByKey returns the approved or pending row recorded under the key.
func (d *RefundsDAO) GetCommittedByKey(ctx context.Context, idempotencyKey string) (*models.Refund, error) {
	var res models.Refund
	err := d.refundsCollection.FindOne(ctx, bson.M{fields.FieldRefundCommittedKey: idempotencyKey}).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		d.logger.Error("GetCommittedByKey: FindOne failed", zap.Error(err), zap.String("idempotencyKey", idempotencyKey))
		return nil, err
	}
	return &res, nil
}

// SumCommittedByPayment sums approved and pending amounts for a payment.
func (d *RefundsDAO) SumCommittedByPayment(ctx context.Context, paymentID string) (primitive.Decimal128, error) {
	pipeline := mongo.Pipeline{
		{{"$match", bson.M{
			fields.FieldRefundPaymentID: paymentID,
			fields.FieldStatus:          bson.M{"$in": constants.CommittedRefundStatuses()},
		}}},
		{{"$group", bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$" + fields.FieldRefundAmount},
		}}},
	}

	cursor, err := d.refundsCollection.Aggregate(ctx, pipeline)
	if err != nil {
		d.logger.Error("SumCommittedByPayment: Aggregate failed", zap.Error(err), zap.String("paymentID", paymentID))
		return primitive.Decimal128{}, err
	}

	var results []struct {
		Total primitive.Decimal128 `bson:"total"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		d.logger.Error("SumCommittedByPayment: cursor.All failed", zap.Error(err), zap.String("paymentID", paymentID))
		return primitive.Decimal128{}, err
	}
	if len(results) == 0 {
		return helper.ZeroDecimal128(), nil
	}
	return results[0].Total, nil
}

func (d *RefundsDAO) CreateRefundItems(ctx context.Context, items []*models.RefundItem) error {
	if len(items) == 0 {
		return nil
	}

	docs := make([]interface{}, len(items))
	for i, item := range items {
		if item.ID.IsZero() {
			item.ID = primitive.NewObjectID()
		}
		docs[i] = item
	}

	_, err := d.refundItemsCollection.InsertMany(ctx, docs)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: order item already covered by a refund", ErrDuplicateKey)
		}
		d.logger.Error("CreateRefundItems: InsertMany failed", zap.Error(err), zap.Stringer("refundID", items[0].RefundID))
		return err
	}
	return nil
}

func (d *RefundsDAO) GetRefundItemsByRefundID(ctx context.Context, refundID primitive.ObjectID) ([]*models.RefundItem, error) {
	opts := options.Find().SetSort(bson.D{{fields.FieldObjectId, 1}})
	cursor, err := d.refundItemsCollection.Find(ctx, bson.M{fields.FieldRefundItemRefundID: refundID}, opts)
	if err != nil {
		d.logger.Error("GetRefundItemsByRefundID: Find failed", zap.Error(err), zap.Stringer("refundID", refundID))
		return nil, err
	}

	items := make([]*models.RefundItem, 0)
	if err = cursor.All(ctx, &items); err != nil {
		d.logger.Error("GetRefundItemsByRefundID: cursor.All failed", zap.Error(err), zap.Stringer("refundID", refundID))
		return nil, err
	}
	return items, nil
}

// ListRefunds returns one page of the ledger, newest first, and the number of matching rows.
func (d *RefundsDAO) ListRefunds(ctx context.Context, params *repository.ListRefundsParams) ([]*models.Refund, int64, error) {
	filter := buildRefundFilter(params, true)

	total, err := d.refundsCollection.CountDocuments(ctx, filter)
	if err != nil {
		d.logger.Error("ListRefunds: CountDocuments failed", zap.Error(err), zap.Any("filter", filter))
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Refund{}, 0, nil
	}

	opts := options.Find().
		SetSort(bson.D{{fields.FieldCreatedAt, -1}, {fields.FieldObjectId, -1}}).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))

	cursor, err := d.refundsCollection.Find(ctx, filter, opts)
	if err != nil {
		d.logger.Error("ListRefunds: Find failed", zap.Error(err), zap.Any("filter", filter))
		return nil, 0, err
	}

	refunds := make([]*models.Refund, 0)
	if err = cursor.All(ctx, &refunds); err != nil {
		d.logger.Error("ListRefunds: cursor.All failed", zap.Error(err), zap.Any("filter", filter))
		return nil, 0, err
	}
	return refunds, total, nil
}

// TotalsByStatus aggregates count and amount per status. The status filter is ignored so
// the totals always show every status for the current search.
func (d *RefundsDAO) TotalsByStatus(ctx context.Context, params *repository.ListRefundsParams) ([]*dto.RefundStatusTotal, error) {
	pipeline := mongo.Pipeline{
		{{"$match", buildRefundFilter(params, false)}},
		{{"$group", bson.M{
			"_id":    "$" + fields.FieldStatus,
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$" + fields.FieldRefundAmount},
		}}},
		{{"$sort", bson.M{"_id": 1}}},
	}

	cursor, err := d.refundsCollection.Aggregate(ctx, pipeline)
	if err != nil {
		d.logger.Error("TotalsByStatus: Aggregate failed", zap.Error(err))
		return nil, err
	}

	totals := make([]*dto.RefundStatusTotal, 0)
	if err = cursor.All(ctx, &totals); err != nil {
		d.logger.Error("TotalsByStatus: cursor.All failed", zap.Error(err))
		return nil, err
	}
	return totals, nil
}

func (d *RefundsDAO) GetRefundsByMonth(ctx context.Context, year int, month int) ([]*models.Refund, error) {
	start, end := repository.MonthRange(year, month)
	filter := bson.M{fields.FieldCreatedAt: bson.M{"$gte": start, "$lt": end}}
	opts := options.Find().SetSort(bson.D{{fields.FieldCreatedAt, 1}, {fields.FieldObjectId, 1}})

	cursor, err := d.refundsCollection.Find(ctx, filter, opts)
	if err != nil {
		d.logger.Error("GetRefundsByMonth: Find failed", zap.Error(err), zap.Int("year", year), zap.Int("month", month))
		return nil, err
	}

	refunds := make([]*models.Refund, 0)
	if err = cursor.All(ctx, &refunds); err != nil {
		d.logger.Error("GetRefundsByMonth: cursor.All failed", zap.Error(err))
		return nil, err
	}
	return refunds, nil
}

// FindUnflaggedRejections returns rejected rows of the given gateway kind that no sweep has flagged yet.
func (d *RefundsDAO) FindUnflaggedRejections(ctx context.Context, gatewayKind string, limit int) ([]*models.Refund, error) {
	filter := bson.M{
		fields.FieldStatus:            constants.RefundStatusRejected.String(),
		fields.FieldRefundGatewayKind: gatewayKind,
		fields.FieldRefundFlaggedAt:   nil,
	}
	opts := options.Find().SetSort(bson.D{{fields.FieldCreatedAt, 1}}).SetLimit(int64(limit))

	cursor, err := d.refundsCollection.Find(ctx, filter, opts)
	if err != nil {
		d.logger.Error("FindUnflaggedRejections: Find failed", zap.Error(err))
		return nil, err
	}

	refunds := make([]*models.Refund, 0)
	if err = cursor.All(ctx, &refunds); err != nil {
		d.logger.Error("FindUnflaggedRejections: cursor.All failed", zap.Error(err))
		return nil, err
	}
	return refunds, nil
}

// MarkFlagged records that an operator alert was raised for the row. It never touches ledger facts.
func (d *RefundsDAO) MarkFlagged(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	filter := bson.M{fields.FieldObjectId: id, fields.FieldRefundFlaggedAt: nil}
	_, err := d.refundsCollection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{fields.FieldRefundFlaggedAt: at}})
	if err != nil {
		d.logger.Error("MarkFlagged: UpdateOne failed", zap.Error(err), zap.Stringer("refundID", id))
		return err
	}
	return nil
}

func buildRefundFilter(params *repository.ListRefundsParams, withStatus bool) bson.M {
	filter := bson.M{}
	if params == nil {
		return filter
	}
	if withStatus && params.Status != "" {
		filter[fields.FieldStatus] = params.Status
	}
	if params.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(params.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{fields.FieldRefundOrderID: pattern},
			bson.M{fields.FieldRefundPaymentID: pattern},
			bson.M{fields.FieldRefundExternalRefundID: pattern},
			bson.M{fields.FieldRefundReason: pattern},
		}
	}
	return filter
}

var _ repository.RefundsRepository = (*RefundsDAO)(nil)
