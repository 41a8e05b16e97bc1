package mongodb

import (
	"context"
	"marketplace_refunds/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func NewAuditLogDAO(db *mongo.Database, logger *zap.Logger) *AuditLogDAO {
	return &AuditLogDAO{
		collection: db.Collection(CollectionAuditLogs),
		logger:     logger.Named("AuditLogDAO"),
	}
}

type AuditLogDAO struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// Create writes an audit entry. Audit entries share the transaction of the change they
// describe, so a failed insert fails that transaction.
func (d *AuditLogDAO) Create(ctx context.Context, log *models.AuditLog) error {
	_, err := d.collection.InsertOne(ctx, log)
	if err != nil {
		d.logger.Error("Create: InsertOne failed", zap.Error(err), zap.String("entityID", log.EntityID), zap.String("action", log.Action))
		return err
	}
	return nil
}
