package mq

import "context"

// Publisher sends messages to a topic. RabbitMQ routes the topic as a queue name on the default exchange.
type Publisher interface {
	Publish(ctx context.Context, topic string, body []byte, opts ...PublishOption) error
	Close()
}

// PublishOptions carries optional message metadata.
type PublishOptions struct {
	MessageID string
	Type      string
}

type PublishOption func(*PublishOptions)

// WithMessageID sets a stable message id so consumers can drop redeliveries.
func WithMessageID(id string) PublishOption {
	return func(o *PublishOptions) {
		o.MessageID = id
	}
}

// WithType labels the message with the domain event it carries.
func WithType(t string) PublishOption {
	return func(o *PublishOptions) {
		o.Type = t
	}
}

// ApplyPublishOptions resolves opts into a PublishOptions value.
func ApplyPublishOptions(opts ...PublishOption) PublishOptions {
	var o PublishOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
