package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"marketplace_refunds/internal/conf"
	"runtime/debug"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrPermanent marks a message the handler can never process. Such messages are dropped instead of requeued.
var ErrPermanent = errors.New("permanent message failure")

// HandlerFunc handles one delivery. A nil error acks it; any other error nacks it.
type HandlerFunc func(ctx context.Context, delivery amqp.Delivery) error

// Consumer consumes registered queues, one goroutine per queue.
type Consumer struct {
	conn     *amqp.Connection
	logger   *zap.Logger
	handlers map[string]HandlerFunc
}

func NewConsumer(cfg *conf.RabbitMQConfig, logger *zap.Logger) (*Consumer, error) {
	namedLogger := logger.Named("RabbitMQConsumer")

	conn, err := amqp.Dial(dsn(cfg))
	if err != nil {
		namedLogger.Error("Failed to connect to RabbitMQ", zap.Error(err))
		return nil, err
	}

	namedLogger.Info("Successfully connected to RabbitMQ")

	return &Consumer{
		conn:     conn,
		logger:   namedLogger,
		handlers: make(map[string]HandlerFunc),
	}, nil
}

func (c *Consumer) RegisterHandler(queueName string, handler HandlerFunc) {
	c.handlers[queueName] = handler
}

// Start consumes every registered queue until ctx is cancelled or one queue fails.
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered, consumer will not start")
	}

	g, gctx := errgroup.WithContext(ctx)
	for queueName, handler := range c.handlers {
		g.Go(func() error {
			return c.consumeQueue(gctx, queueName, handler)
		})
	}
	return g.Wait()
}

func (c *Consumer) consumeQueue(ctx context.Context, queueName string, handler HandlerFunc) error {
	ch, err := c.conn.Channel()
	if err != nil {
		c.logger.Error("Failed to open a channel", zap.Error(err), zap.String("queue", queueName))
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		c.logger.Error("Failed to declare a queue", zap.Error(err), zap.String("queue", queueName))
		return err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		c.logger.Error("Failed to set QoS", zap.Error(err), zap.String("queue", queueName))
		return err
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		c.logger.Error("Failed to register a consumer", zap.Error(err), zap.String("queue", queueName))
		return err
	}

	c.logger.Info("Started consuming from queue", zap.String("queue", q.Name))

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", q.Name)
			}
			c.handle(ctx, q.Name, d, handler)
		case <-ctx.Done():
			c.logger.Info("Context cancelled, stopping consumer", zap.String("queue", q.Name))
			return nil
		}
	}
}

func (c *Consumer) handle(ctx context.Context, queue string, d amqp.Delivery, handler HandlerFunc) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic recovered in message handler",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
				zap.String("queue", queue),
			)
			if d.Acknowledger != nil {
				_ = d.Nack(false, false)
			}
		}
	}()

	c.logger.Debug("Received a message", zap.String("queue", queue), zap.String("messageID", d.MessageId))
	err := handler(ctx, d)
	if d.Acknowledger == nil {
		return
	}
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrPermanent):
		c.logger.Error("Dropping unprocessable message", zap.Error(err), zap.String("queue", queue))
		_ = d.Nack(false, false)
	default:
		c.logger.Error("Handler failed to process message", zap.Error(err), zap.String("queue", queue))
		_ = d.Nack(false, true)
	}
}

func (c *Consumer) Close() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("Failed to close connection", zap.Error(err))
		}
	}
}
