package message

import (
	"database/sql"
	"time"

	"coaching-messenger/internal/domain"

	"github.com/google/uuid"
)

// Message represents the messages table. Rows are immutable once written.
type Message struct {
	ID              uuid.UUID
	ConversationID  uuid.UUID
	SenderID        uuid.UUID
	Content         string
	Type            domain.MessageType
	Status          domain.MessageStatus
	ReplyToID       uuid.NullUUID
	ClientMessageID sql.NullString
	CreatedAt       time.Time

	Attachments []Attachment
	Reactions   []Reaction
}

// Reaction represents the message_reactions table
type Reaction struct {
	ID        uuid.UUID
	MessageID uuid.UUID
	UserID    uuid.UUID
	Emoji     string
	CreatedAt time.Time
}

// ReactionSummary groups the reactions of one message by emoji.
type ReactionSummary struct {
	Emoji   string
	Count   int
	UserIDs []uuid.UUID
}

// PageOptions selects a page of history. A zero Before means "newest".
// BeforeID breaks ties on Before: rows stamped exactly at Before are kept
// when their id sorts below it.
type PageOptions struct {
	Limit    int
	Before   time.Time
	BeforeID uuid.UUID
	Search   string
}
