package mongodb

import (
	"context"
	"marketplace_refunds/internal/dao/fields"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func NewAlertsDAO(db *mongo.Database, logger *zap.Logger) *AlertsDAO {
	return &AlertsDAO{
		collection: db.Collection(CollectionAlerts),
		logger:     logger.Named("AlertsDAO"),
	}
}

type AlertsDAO struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// Create stores an alert once per (idempotency key, kind). Redelivered messages are ignored.
func (d *AlertsDAO) Create(ctx context.Context, alert *models.Alert) error {
	_, err := d.collection.InsertOne(ctx, alert)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			d.logger.Debug("Create: alert already stored", zap.String("idempotencyKey", alert.IdempotencyKey), zap.String("kind", alert.Kind))
			return nil
		}
		d.logger.Error("Create: InsertOne failed", zap.Error(err), zap.String("idempotencyKey", alert.IdempotencyKey))
		return err
	}
	return nil
}

func (d *AlertsDAO) ListRecent(ctx context.Context, limit int) ([]*models.Alert, error) {
	opts := options.Find().SetSort(bson.D{{fields.FieldAlertRaisedAt, -1}}).SetLimit(int64(limit))
	cursor, err := d.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		d.logger.Error("ListRecent: Find failed", zap.Error(err))
		return nil, err
	}

	alerts := make([]*models.Alert, 0)
	if err = cursor.All(ctx, &alerts); err != nil {
		d.logger.Error("ListRecent: cursor.All failed", zap.Error(err))
		return nil, err
	}
	return alerts, nil
}

var _ repository.AlertRepository = (*AlertsDAO)(nil)
