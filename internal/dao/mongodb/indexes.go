package mongodb

import (
	"context"
	"fmt"
	"marketplace_refunds/internal/dao/fields"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

func refundIndexes() []collectionIndexes {
	return []collectionIndexes{
		{
			collection: CollectionOrders,
			models: []mongo.IndexModel{
				{Keys: bson.D{{fields.FieldOrderParentOrderID, 1}, {fields.FieldCreatedAt, 1}}},
			},
		},
		{
			collection: CollectionOrderItems,
			models: []mongo.IndexModel{
				{Keys: bson.D{{fields.FieldOrderItemOrder, 1}}},
			},
		},
		{
			collection: CollectionRefunds,
			models: []mongo.IndexModel{
				{
					Keys: bson.D{{fields.FieldRefundCommittedKey, 1}},
					Options: options.Index().
						SetName("uniq_committed_key").
						SetUnique(true).
						SetPartialFilterExpression(bson.M{fields.FieldRefundCommittedKey: bson.M{"$exists": true}}),
				},
				{Keys: bson.D{{fields.FieldRefundPaymentID, 1}, {fields.FieldStatus, 1}}},
				{Keys: bson.D{{fields.FieldCreatedAt, -1}}},
				{Keys: bson.D{{fields.FieldStatus, 1}, {fields.FieldRefundGatewayKind, 1}, {fields.FieldRefundFlaggedAt, 1}}},
			},
		},
		{
			collection: CollectionRefundItems,
			models: []mongo.IndexModel{
				{Keys: bson.D{{fields.FieldRefundItemRefundID, 1}}},
				{
					Keys:    bson.D{{fields.FieldRefundItemOrderItemID, 1}},
					Options: options.Index().SetName("uniq_order_item").SetUnique(true),
				},
			},
		},
		{
			collection: CollectionOutbox,
			models: []mongo.IndexModel{
				{Keys: bson.D{{fields.FieldStatus, 1}, {fields.FieldCreatedAt, 1}}},
				{Keys: bson.D{{fieldOutboxClaimID, 1}}},
			},
		},
		{
			collection: CollectionAlerts,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{fields.FieldAlertIdempotencyKey, 1}, {fields.FieldAlertKind, 1}},
					Options: options.Index().SetName("uniq_alert").SetUnique(true),
				},
				{Keys: bson.D{{fields.FieldAlertRaisedAt, -1}}},
			},
		},
	}
}

// EnsureIndexes creates every index the refund engine relies on. It is safe to run repeatedly.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	for _, ci := range refundIndexes() {
		names, err := db.Collection(ci.collection).Indexes().CreateMany(ctx, ci.models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", ci.collection, err)
		}
		logger.Info("indexes ensured", zap.String("collection", ci.collection), zap.Strings("indexes", names))
	}
	return nil
}
