package events

import "context"

// DeliveryHandler receives one published envelope and the channel it
// arrived on. It runs on the subscriber's receive loop and must not block.
type DeliveryHandler func(channel string, payload []byte)

// Subscriber delivers envelopes published on channels matching patterns
// until ctx ends or the connection fails.
type Subscriber interface {
	Subscribe(ctx context.Context, patterns []string, handler DeliveryHandler) error
}
