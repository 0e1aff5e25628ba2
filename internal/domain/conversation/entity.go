package conversation

import (
	"database/sql"
	"time"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/message"
	"coaching-messenger/internal/domain/user"

	"github.com/google/uuid"
)

// Conversation represents the conversations table
type Conversation struct {
	ID            uuid.UUID
	Type          domain.ConversationType
	Title         sql.NullString
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastMessageAt sql.NullTime
}

// Participant represents the participants table. A user who leaves keeps the
// row with LeftAt set; re-joining inserts a new row.
type Participant struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	UserID         uuid.UUID
	JoinedAt       time.Time
	LeftAt         sql.NullTime
	IsArchived     bool
	IsMuted        bool
	LastReadAt     sql.NullTime
}

func (p Participant) Active() bool {
	return !p.LeftAt.Valid
}

// Summary is the list view of a conversation for one user.
type Summary struct {
	Conversation
	Membership   Participant
	Participants []user.Profile // other active participants
	UnreadCount  int64
	LastMessage  *message.Message
}

type ListOptions struct {
	Limit           int
	Offset          int
	Search          string
	IncludeArchived bool
}

// SettingsUpdate carries a partial update; nil fields are left unchanged.
type SettingsUpdate struct {
	Archived *bool
	Muted    *bool
}

func (u SettingsUpdate) Empty() bool {
	return u.Archived == nil && u.Muted == nil
}

type MetadataUpdate struct {
	Title *string
}
