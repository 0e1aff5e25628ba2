package websocket

import (
	"context"
	"errors"

	"coaching-messenger/internal/domain/conversation"
	"coaching-messenger/internal/events"
	messenger_errors "coaching-messenger/pkg/errors"

	"github.com/google/uuid"
)

// MembershipChecker is satisfied by proxy.AccessPolicy.
type MembershipChecker interface {
	EnsureParticipant(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Participant, error)
}

// ChannelAuthorizer handles authorization for WebSocket channel subscriptions
type ChannelAuthorizer struct {
	members MembershipChecker
}

func NewChannelAuthorizer(members MembershipChecker) *ChannelAuthorizer {
	return &ChannelAuthorizer{members: members}
}

// CanSubscribe allows a user's own channel and the channels of conversations
// the user actively participates in. Everything else is denied.
func (a *ChannelAuthorizer) CanSubscribe(ctx context.Context, userID uuid.UUID, channel string) (bool, error) {
	scope, id, ok := events.ParseChannel(channel)
	if !ok {
		return false, nil
	}

	switch scope {
	case events.AggregateTypeUser:
		return id == userID.String(), nil
	case events.AggregateTypeConversation:
		convID, err := uuid.Parse(id)
		if err != nil {
			return false, nil
		}
		_, err = a.members.EnsureParticipant(ctx, convID, userID)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, messenger_errors.ErrForbidden), errors.Is(err, messenger_errors.ErrNotFound):
			return false, nil
		default:
			return false, err
		}
	}
	return false, nil
}
