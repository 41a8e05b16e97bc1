package mongodb

import (
	"context"
	"marketplace_refunds/internal/dao/fields"
	"marketplace_refunds/internal/dao/repository"
	"marketplace_refunds/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	fieldOutboxClaimID     = "claim_id"
	fieldOutboxRetries     = "retries"
	fieldOutboxError       = "error"
	fieldOutboxProcessedAt = "processed_at"
)

func NewOutboxDAO(db *mongo.Database, logger *zap.Logger) *OutboxDAO {
	return &OutboxDAO{
		outboxCollection: db.Collection(CollectionOutbox),
		logger:           logger.Named("OutboxDAO"),
	}
}

type OutboxDAO struct {
	outboxCollection *mongo.Collection
	logger           *zap.Logger
}

func (d *OutboxDAO) Create(ctx context.Context, message *models.OutboxMessage) error {
	if message.Status == "" {
		message.Status = models.OutboxStatusPending
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	_, err := d.outboxCollection.InsertOne(ctx, message)
	if err != nil {
		d.logger.Error("Create: InsertOne failed", zap.Error(err), zap.String("event", message.Event), zap.String("key", message.Key))
		return err
	}
	return nil
}

// ClaimAndFetchEvents claims a batch of pending events in three steps: select candidate
// ids, flip them to PROCESSING under a fresh claim id, then load what this call won.
func (d *OutboxDAO) ClaimAndFetchEvents(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	findOptions := options.Find().
		SetSort(bson.D{{fields.FieldCreatedAt, 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{fields.FieldObjectId: 1})

	cursor, err := d.outboxCollection.Find(ctx, bson.M{fields.FieldStatus: models.OutboxStatusPending}, findOptions)
	if err != nil {
		d.logger.Error("ClaimAndFetchEvents: candidate Find failed", zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var candidates []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &candidates); err != nil {
		d.logger.Error("ClaimAndFetchEvents: candidate decoding failed", zap.Error(err))
		return nil, err
	}
	if len(candidates) == 0 {
		return []*models.OutboxMessage{}, nil
	}

	ids := make([]primitive.ObjectID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	// the status predicate keeps two workers from claiming the same event
	claimID := primitive.NewObjectID()
	updateFilter := bson.M{
		fields.FieldObjectId: bson.M{"$in": ids},
		fields.FieldStatus:   models.OutboxStatusPending,
	}
	update := bson.M{
		"$set": bson.M{
			fields.FieldStatus:    models.OutboxStatusProcessing,
			fieldOutboxClaimID:    claimID,
			fields.FieldUpdatedAt: time.Now(),
		},
	}
	updateResult, err := d.outboxCollection.UpdateMany(ctx, updateFilter, update)
	if err != nil {
		d.logger.Error("ClaimAndFetchEvents: claim UpdateMany failed", zap.Error(err))
		return nil, err
	}
	if updateResult.ModifiedCount == 0 {
		return []*models.OutboxMessage{}, nil
	}

	claimedCursor, err := d.outboxCollection.Find(ctx, bson.M{fieldOutboxClaimID: claimID},
		options.Find().SetSort(bson.D{{fields.FieldCreatedAt, 1}}))
	if err != nil {
		d.logger.Error("ClaimAndFetchEvents: claimed Find failed", zap.Error(err))
		return nil, err
	}

	var claimed []*models.OutboxMessage
	if err = claimedCursor.All(ctx, &claimed); err != nil {
		d.logger.Error("ClaimAndFetchEvents: claimed decoding failed", zap.Error(err))
		return nil, err
	}
	return claimed, nil
}

func (d *OutboxDAO) MarkAsProcessed(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			fields.FieldStatus:     models.OutboxStatusProcessed,
			fieldOutboxProcessedAt: time.Now(),
		},
	}
	_, err := d.outboxCollection.UpdateOne(ctx, bson.M{fields.FieldObjectId: id}, update)
	return err
}

// IncrementRetry puts the event back to PENDING for the next poll.
func (d *OutboxDAO) IncrementRetry(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	update := bson.M{
		"$set": bson.M{
			fields.FieldStatus: models.OutboxStatusPending,
			fieldOutboxError:   errorMessage,
		},
		"$inc": bson.M{fieldOutboxRetries: 1},
	}
	_, err := d.outboxCollection.UpdateOne(ctx, bson.M{fields.FieldObjectId: id}, update)
	return err
}

func (d *OutboxDAO) MarkAsDeadLetter(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	update := bson.M{
		"$set": bson.M{
			fields.FieldStatus:    models.OutboxStatusDeadLetter,
			fieldOutboxError:      errorMessage,
			fields.FieldUpdatedAt: time.Now(),
		},
		"$inc": bson.M{fieldOutboxRetries: 1},
	}
	_, err := d.outboxCollection.UpdateOne(ctx, bson.M{fields.FieldObjectId: id}, update)
	if err != nil {
		d.logger.Error("MarkAsDeadLetter: UpdateOne failed", zap.Error(err), zap.Stringer("id", id))
	}
	return err
}

var _ repository.OutboxRepository = (*OutboxDAO)(nil)
