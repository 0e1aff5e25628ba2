package websocket

import (
	"context"
	"encoding/json"

	"coaching-messenger/internal/events"
	"coaching-messenger/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RedisBridge fans events published on Redis out to the hub.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
	log        *logger.Logger
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub, log *logger.Logger) *RedisBridge {
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisBridge{subscriber: subscriber, hub: hub, log: log}
}

// Run blocks until ctx ends or the subscription fails.
func (b *RedisBridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, []string{events.ChannelPattern}, b.dispatch)
}

// dispatch forwards payload to the channel's subscribers. A participant.left
// event is delivered first and then cuts the leaver's connections off the
// conversation channel.
func (b *RedisBridge) dispatch(channel string, payload []byte) {
	b.hub.Broadcast(channel, payload)

	var env events.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		b.log.Logger.Warn("undecodable event", zap.String("channel", channel), zap.Error(err))
		return
	}
	if env.EventType != events.EventTypeParticipantLeft {
		return
	}
	var p events.ParticipantPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return
	}
	b.hub.DropUser(channel, userID)
}
