package worker

import (
	"context"
	"errors"
	"marketplace_refunds/internal/conf"
	"marketplace_refunds/internal/models"
	"marketplace_refunds/internal/mq"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Create(ctx context.Context, message *models.OutboxMessage) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockOutboxRepo) ClaimAndFetchEvents(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	args := m.Called(ctx, limit)
	events, _ := args.Get(0).([]*models.OutboxMessage)
	return events, args.Error(1)
}

func (m *mockOutboxRepo) MarkAsProcessed(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOutboxRepo) IncrementRetry(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	return m.Called(ctx, id, errorMessage).Error(0)
}

func (m *mockOutboxRepo) MarkAsDeadLetter(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	return m.Called(ctx, id, errorMessage).Error(0)
}

type publishedMessage struct {
	topic string
	body  string
	opts  mq.PublishOptions
}

type recordingPublisher struct {
	published []publishedMessage
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, body []byte, opts ...mq.PublishOption) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedMessage{topic: topic, body: string(body), opts: mq.ApplyPublishOptions(opts...)})
	return nil
}

func (p *recordingPublisher) Close() {}

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) Sweep(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func workerConfig() *conf.WorkerConfig {
	return &conf.WorkerConfig{
		Outbox:  conf.OutboxWorkerConfig{IntervalSeconds: 1, BatchSize: 10, MaxRetries: 3},
		Sweeper: conf.SweeperWorkerConfig{IntervalSeconds: 1, BatchSize: 25},
	}
}

func newEvent(retries int) *models.OutboxMessage {
	return &models.OutboxMessage{
		ID:      primitive.NewObjectID(),
		Topic:   "refund-events",
		Event:   "refund.confirmed",
		Key:     "idem-1",
		Payload: `{"refundId":"r-1"}`,
		Retries: retries,
	}
}

func TestOutboxProcessor_ProcessEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes with message metadata and marks processed", func(t *testing.T) {
		repo := new(mockOutboxRepo)
		pub := &recordingPublisher{}
		event := newEvent(0)
		repo.On("ClaimAndFetchEvents", ctx, 10).Return([]*models.OutboxMessage{event}, nil)
		repo.On("MarkAsProcessed", ctx, event.ID).Return(nil)

		p := NewOutboxProcessor(repo, pub, zap.NewNop(), workerConfig())
		p.processEvents(ctx)

		if assert.Len(t, pub.published, 1) {
			msg := pub.published[0]
			assert.Equal(t, "refund-events", msg.topic)
			assert.Equal(t, `{"refundId":"r-1"}`, msg.body)
			assert.Equal(t, "idem-1", msg.opts.MessageID)
			assert.Equal(t, "refund.confirmed", msg.opts.Type)
		}
		repo.AssertExpectations(t)
	})

	t.Run("failed publish schedules a retry", func(t *testing.T) {
		repo := new(mockOutboxRepo)
		pub := &recordingPublisher{err: errors.New("broker down")}
		event := newEvent(0)
		repo.On("ClaimAndFetchEvents", ctx, 10).Return([]*models.OutboxMessage{event}, nil)
		repo.On("IncrementRetry", ctx, event.ID, "broker down").Return(nil)

		p := NewOutboxProcessor(repo, pub, zap.NewNop(), workerConfig())
		p.processEvents(ctx)

		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "MarkAsProcessed", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "MarkAsDeadLetter", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("last allowed attempt dead-letters the event", func(t *testing.T) {
		repo := new(mockOutboxRepo)
		pub := &recordingPublisher{err: errors.New("broker down")}
		event := newEvent(2)
		repo.On("ClaimAndFetchEvents", ctx, 10).Return([]*models.OutboxMessage{event}, nil)
		repo.On("MarkAsDeadLetter", ctx, event.ID, "broker down").Return(nil)

		p := NewOutboxProcessor(repo, pub, zap.NewNop(), workerConfig())
		p.processEvents(ctx)

		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "IncrementRetry", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("zero max retries never dead-letters", func(t *testing.T) {
		repo := new(mockOutboxRepo)
		pub := &recordingPublisher{err: errors.New("broker down")}
		event := newEvent(50)
		repo.On("ClaimAndFetchEvents", ctx, 10).Return([]*models.OutboxMessage{event}, nil)
		repo.On("IncrementRetry", ctx, event.ID, "broker down").Return(nil)

		cfg := workerConfig()
		cfg.Outbox.MaxRetries = 0
		p := NewOutboxProcessor(repo, pub, zap.NewNop(), cfg)
		p.processEvents(ctx)

		repo.AssertExpectations(t)
	})

	t.Run("claim failure publishes nothing", func(t *testing.T) {
		repo := new(mockOutboxRepo)
		pub := &recordingPublisher{}
		repo.On("ClaimAndFetchEvents", ctx, 10).Return(nil, errors.New("mongo down"))

		p := NewOutboxProcessor(repo, pub, zap.NewNop(), workerConfig())
		p.processEvents(ctx)

		assert.Empty(t, pub.published)
		repo.AssertExpectations(t)
	})
}

func TestUnreconciledSweeperWorker(t *testing.T) {
	t.Run("run once uses configured batch size", func(t *testing.T) {
		ctx := context.Background()
		s := new(mockSweeper)
		s.On("Sweep", ctx, 25).Return(2, nil)

		w := NewUnreconciledSweeperWorker(s, zap.NewNop(), workerConfig())
		w.runOnce(ctx)

		s.AssertExpectations(t)
	})

	t.Run("panic in sweep is recovered", func(t *testing.T) {
		ctx := context.Background()
		s := new(mockSweeper)
		s.On("Sweep", ctx, 25).Run(func(mock.Arguments) { panic("boom") }).Return(0, nil)

		w := NewUnreconciledSweeperWorker(s, zap.NewNop(), workerConfig())
		assert.NotPanics(t, func() { w.runOnce(ctx) })
	})

	t.Run("start returns when context is cancelled", func(t *testing.T) {
		s := new(mockSweeper)
		w := NewUnreconciledSweeperWorker(s, zap.NewNop(), workerConfig())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			w.Start(ctx)
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("sweeper did not stop after cancellation")
		}
	})
}
