package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/conversation"
	"coaching-messenger/internal/domain/message"
	"coaching-messenger/internal/domain/outbox"
	"coaching-messenger/internal/domain/typing"
	"coaching-messenger/internal/domain/user"
)

// Transactor runs fn in a single transaction. Repository methods that take a
// tx DBTX fall back to their own handle when tx is nil.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx DBTX) error) error
}

type ConversationRepository interface {
	// GetOrCreateDirect returns the direct conversation for the unordered pair
	// and reports whether this call created it.
	GetOrCreateDirect(ctx context.Context, tx DBTX, userA, userB uuid.UUID) (uuid.UUID, bool, error)
	Create(ctx context.Context, tx DBTX, c *conversation.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	UpdateTitle(ctx context.Context, tx DBTX, id uuid.UUID, title string) error
	// LockForSend takes the conversation row lock that orders message inserts
	// against read watermarks. tx must be a transaction.
	LockForSend(ctx context.Context, tx DBTX, id uuid.UUID) error
	TouchLastMessage(ctx context.Context, tx DBTX, id uuid.UUID, at time.Time) error
	ListForUser(ctx context.Context, userID uuid.UUID, opts conversation.ListOptions) ([]conversation.Summary, error)
	GetSummary(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Summary, error)

	AddParticipant(ctx context.Context, tx DBTX, conversationID, userID uuid.UUID) (conversation.Participant, error)
	GetActiveParticipant(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Participant, error)
	ListActiveParticipants(ctx context.Context, conversationIDs []uuid.UUID) (map[uuid.UUID][]conversation.Participant, error)
	UpdateSettings(ctx context.Context, conversationID, userID uuid.UUID, update conversation.SettingsUpdate) error
	// Leave reports false when the user had no active row.
	Leave(ctx context.Context, tx DBTX, conversationID, userID uuid.UUID) (bool, error)
	AdvanceReadWatermark(ctx context.Context, tx DBTX, conversationID, userID uuid.UUID, at time.Time) error

	// MarkRead reports false when the user has no active row.
	MarkRead(ctx context.Context, tx DBTX, conversationID, userID uuid.UUID) (bool, error)
	UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
	TotalUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, tx DBTX, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	GetByClientID(ctx context.Context, senderID uuid.UUID, clientMessageID string) (message.Message, error)
	// Page returns messages oldest-first.
	Page(ctx context.Context, conversationID uuid.UUID, opts message.PageOptions) ([]message.Message, error)
	CountMatching(ctx context.Context, conversationID uuid.UUID, search string) (int64, error)
}

type ReactionRepository interface {
	Add(ctx context.Context, tx DBTX, r *message.Reaction) error
	// Remove reports whether a row was deleted.
	Remove(ctx context.Context, tx DBTX, messageID, userID uuid.UUID, emoji string) (bool, error)
	ListByMessage(ctx context.Context, messageID uuid.UUID) ([]message.Reaction, error)
	ListByMessages(ctx context.Context, messageIDs []uuid.UUID) (map[uuid.UUID][]message.Reaction, error)
}

type AttachmentRepository interface {
	CreateBatch(ctx context.Context, attachments []message.Attachment) error
	ListByMessage(ctx context.Context, messageID uuid.UUID) ([]message.Attachment, error)
	ListByMessages(ctx context.Context, messageIDs []uuid.UUID) (map[uuid.UUID][]message.Attachment, error)
}

// TypingRepository is implemented by the Postgres table and by the Redis store.
type TypingRepository interface {
	Upsert(ctx context.Context, ind typing.Indicator) error
	Delete(ctx context.Context, conversationID, userID uuid.UUID) error
	ListActive(ctx context.Context, conversationID uuid.UUID, now time.Time) ([]typing.Indicator, error)
	SweepConversation(ctx context.Context, conversationID uuid.UUID, now time.Time) (int64, error)
	SweepAll(ctx context.Context, now time.Time) (int64, error)
}

type UserRepository interface {
	GetRole(ctx context.Context, id uuid.UUID) (domain.Role, error)
	GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.Profile, error)
	CanMessage(ctx context.Context, senderID, recipientID uuid.UUID) (bool, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, tx DBTX, event *outbox.OutboxEvent) error
	GetPending(ctx context.Context, limit, maxRetries int) ([]outbox.OutboxEvent, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error
	IncrementRetry(ctx context.Context, id uuid.UUID) error
}

type sqlTransactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) WithTx(ctx context.Context, fn func(tx DBTX) error) error {
	return WithTx(ctx, t.db, fn)
}
