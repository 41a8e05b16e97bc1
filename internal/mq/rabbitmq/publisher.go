package rabbitmq

import (
	"context"
	"fmt"
	"marketplace_refunds/internal/conf"
	"marketplace_refunds/internal/mq"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher publishes persistent JSON messages on the default exchange. The topic is the queue name.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	logger   *zap.Logger
	mu       sync.Mutex
	declared map[string]struct{}
}

func dsn(cfg *conf.RabbitMQConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)
}

func NewPublisher(cfg *conf.RabbitMQConfig, logger *zap.Logger) (*Publisher, error) {
	namedLogger := logger.Named("RabbitMQPublisher")

	conn, err := amqp.Dial(dsn(cfg))
	if err != nil {
		namedLogger.Error("Failed to connect to RabbitMQ", zap.Error(err))
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		namedLogger.Error("Failed to open a channel", zap.Error(err))
		if connErr := conn.Close(); connErr != nil {
			namedLogger.Error("Failed to close connection after channel failure", zap.Error(connErr))
		}
		return nil, err
	}

	namedLogger.Info("Successfully connected to RabbitMQ")

	return &Publisher{
		conn:     conn,
		channel:  ch,
		logger:   namedLogger,
		declared: make(map[string]struct{}),
	}, nil
}

// Publish declares the topic queue on first use, so nothing published before the consumer
// starts is dropped.
func (p *Publisher) Publish(ctx context.Context, topic string, body []byte, opts ...mq.PublishOption) error {
	o := mq.ApplyPublishOptions(opts...)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.declared[topic]; !ok {
		if _, err := p.channel.QueueDeclare(topic, true, false, false, false, nil); err != nil {
			p.logger.Error("Failed to declare queue", zap.Error(err), zap.String("topic", topic))
			return err
		}
		p.declared[topic] = struct{}{}
	}

	err := p.channel.PublishWithContext(ctx,
		"",    // default exchange
		topic, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    o.MessageID,
			Type:         o.Type,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish a message", zap.Error(err), zap.String("topic", topic))
		return err
	}

	p.logger.Debug("Message published", zap.String("topic", topic), zap.String("type", o.Type), zap.String("messageID", o.MessageID))
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Error("Failed to close channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Error("Failed to close connection", zap.Error(err))
		}
	}
	p.logger.Info("RabbitMQ connection closed.")
}

var _ mq.Publisher = (*Publisher)(nil)
