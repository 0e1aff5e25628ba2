package events

// Event types follow the format: domain.action

// Message events
const (
	EventTypeMessageCreated = "message.created"
)

// Receipt events
const (
	EventTypeReceiptRead = "receipt.read"
)

// Reaction events
const (
	EventTypeReactionAdded   = "reaction.added"
	EventTypeReactionRemoved = "reaction.removed"
)

// Typing events are published directly and never stored in the outbox.
const (
	EventTypeTypingStarted = "typing.started"
	EventTypeTypingStopped = "typing.stopped"
)

// Conversation events
const (
	EventTypeConversationCreated = "conversation.created"
	EventTypeConversationUpdated = "conversation.updated"
)

// Participant events
const (
	EventTypeParticipantAdded = "participant.added"
	EventTypeParticipantLeft  = "participant.left"
)

// Aggregate type constants
const (
	AggregateTypeConversation = "conversation"
	AggregateTypeUser         = "user"
)

// Redis channel prefixes
const (
	ChannelPrefixConversation = "channel:conversation:"
	ChannelPrefixUser         = "channel:user:"
	ChannelSystemOutbox       = "channel:system:outbox"
	ChannelPattern            = "channel:*"
)
