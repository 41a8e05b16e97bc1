package noop

import (
	"context"
	"marketplace_refunds/internal/mq"
)

// Publisher drops every message. It backs dev mode when no broker is running.
type Publisher struct{}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(ctx context.Context, topic string, body []byte, opts ...mq.PublishOption) error {
	return nil
}

func (p *Publisher) Close() {}

var _ mq.Publisher = (*Publisher)(nil)
