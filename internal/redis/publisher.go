package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"coaching-messenger/internal/events"
)

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// PublishEnvelope encodes env and publishes it on the channel it routes to.
func (p *Publisher) PublishEnvelope(ctx context.Context, env events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.Publish(ctx, events.ResolveChannel(env), data)
}
