package eventbus

import "context"

// Publisher sends serialized domain events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}
