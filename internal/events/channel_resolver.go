package events

import "strings"

// ResolveChannel picks the Redis channel an envelope is published on.
func ResolveChannel(env Envelope) string {
	switch env.AggregateType {
	case AggregateTypeConversation:
		return ChannelPrefixConversation + env.AggregateID
	case AggregateTypeUser:
		return ChannelPrefixUser + env.AggregateID
	default:
		return ChannelSystemOutbox
	}
}

func ConversationChannel(conversationID string) string {
	return ChannelPrefixConversation + conversationID
}

func UserChannel(userID string) string {
	return ChannelPrefixUser + userID
}

// ParseChannel splits a channel name into its scope ("conversation", "user")
// and id. ok is false for channels outside those scopes.
func ParseChannel(channel string) (scope, id string, ok bool) {
	switch {
	case strings.HasPrefix(channel, ChannelPrefixConversation):
		return AggregateTypeConversation, strings.TrimPrefix(channel, ChannelPrefixConversation), true
	case strings.HasPrefix(channel, ChannelPrefixUser):
		return AggregateTypeUser, strings.TrimPrefix(channel, ChannelPrefixUser), true
	}
	return "", "", false
}
