package mongodb

import (
	"context"
	"errors"
	"marketplace_refunds/internal/dao/fields"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func NewOrdersDAO(db *mongo.Database, logger *zap.Logger) *OrdersDAO {
	return &OrdersDAO{
		ordersCollection:     db.Collection(CollectionOrders),
		orderItemsCollection: db.Collection(CollectionOrderItems),
		logger:               logger.Named("OrdersDAO"),
	}
}

// OrdersDAO reads orders owned by the back office and writes only their refund state.
type OrdersDAO struct {
	ordersCollection     *mongo.Collection
	orderItemsCollection *mongo.Collection
	logger               *zap.Logger
}

func (d *OrdersDAO) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var res models.Order
	err := d.ordersCollection.FindOne(ctx, bson.M{fields.FieldObjectId: id}).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		d.logger.Error("GetOrderByID: FindOne failed", zap.Error(err), zap.String("orderID", id))
		return nil, err
	}
	return &res, nil
}

// GetOrdersByParentID returns the sub-orders of a hybrid group, oldest first.
func (d *OrdersDAO) GetOrdersByParentID(ctx context.Context, parentID string) ([]*models.Order, error) {
	opts := options.Find().SetSort(bson.D{{fields.FieldCreatedAt, 1}, {fields.FieldObjectId, 1}})
	cursor, err := d.ordersCollection.Find(ctx, bson.M{fields.FieldOrderParentOrderID: parentID}, opts)
	if err != nil {
		d.logger.Error("GetOrdersByParentID: Find failed", zap.Error(err), zap.String("parentID", parentID))
		return nil, err
	}

	orders := make([]*models.Order, 0)
	if err = cursor.All(ctx, &orders); err != nil {
		d.logger.Error("GetOrdersByParentID: cursor.All failed", zap.Error(err), zap.String("parentID", parentID))
		return nil, err
	}
	return orders, nil
}

func (d *OrdersDAO) GetOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) ([]*models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []*models.OrderItem{}, nil
	}

	opts := options.Find().SetSort(bson.D{{fields.FieldOrderItemOrder, 1}, {fields.FieldCreatedAt, 1}, {fields.FieldObjectId, 1}})
	cursor, err := d.orderItemsCollection.Find(ctx, bson.M{fields.FieldOrderItemOrder: bson.M{"$in": orderIDs}}, opts)
	if err != nil {
		d.logger.Error("GetOrderItemsByOrderIDs: Find failed", zap.Error(err), zap.Strings("orderIDs", orderIDs))
		return nil, err
	}

	items := make([]*models.OrderItem, 0)
	if err = cursor.All(ctx, &items); err != nil {
		d.logger.Error("GetOrderItemsByOrderIDs: cursor.All failed", zap.Error(err), zap.Strings("orderIDs", orderIDs))
		return nil, err
	}
	return items, nil
}

// UpdateOrders applies the same update to every listed order.
func (d *OrdersDAO) UpdateOrders(ctx context.Context, orderIDs []string, opts ...repository.UpdateOption) (int64, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}

	update := repository.NewUpdateOptions().Apply(opts...)
	res, err := d.ordersCollection.UpdateMany(ctx, bson.M{fields.FieldObjectId: bson.M{"$in": orderIDs}}, update)
	if err != nil {
		d.logger.Error("UpdateOrders: UpdateMany failed", zap.Error(err), zap.Strings("orderIDs", orderIDs))
		return 0, err
	}
	if res.MatchedCount != int64(len(orderIDs)) {
		d.logger.Warn("UpdateOrders: not every order matched", zap.Strings("orderIDs", orderIDs), zap.Int64("matched", res.MatchedCount))
	}
	return res.MatchedCount, nil
}

// MarkItemsRefunded stamps refunded_at on items that do not carry it yet.
func (d *OrdersDAO) MarkItemsRefunded(ctx context.Context, itemIDs []string, at time.Time) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}

	filter := bson.M{
		fields.FieldObjectId:            bson.M{"$in": itemIDs},
		fields.FieldOrderItemRefundedAt: nil,
	}
	update := bson.M{"$set": bson.M{fields.FieldOrderItemRefundedAt: at}}
	res, err := d.orderItemsCollection.UpdateMany(ctx, filter, update)
	if err != nil {
		d.logger.Error("MarkItemsRefunded: UpdateMany failed", zap.Error(err), zap.Strings("itemIDs", itemIDs))
		return 0, err
	}
	return res.ModifiedCount, nil
}

var _ repository.OrdersRepository = (*OrdersDAO)(nil)
