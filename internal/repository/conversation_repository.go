package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/conversation"
	"coaching-messenger/internal/domain/message"
	messenger_errors "coaching-messenger/pkg/errors"
)

type conversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) exec(tx DBTX) DBTX {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *conversationRepository) GetOrCreateDirect(ctx context.Context, tx DBTX, userA, userB uuid.UUID) (uuid.UUID, bool, error) {
	var id uuid.UUID
	var created bool
	err := r.exec(tx).QueryRowContext(ctx,
		`SELECT out_conversation_id, out_created FROM get_or_create_direct_conversation($1, $2)`,
		userA, userB,
	).Scan(&id, &created)
	if err != nil {
		return uuid.Nil, false, classify(err)
	}
	return id, created, nil
}

func (r *conversationRepository) Create(ctx context.Context, tx DBTX, c *conversation.Conversation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.exec(tx).QueryRowContext(ctx, `
        INSERT INTO conversations (id, type, title, created_by)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at
    `, c.ID, string(c.Type), c.Title, c.CreatedBy).Scan(&c.CreatedAt, &c.UpdatedAt)
	return classify(err)
}

func (r *conversationRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.QueryRowContext(ctx, `
        SELECT id, type, title, created_by, created_at, updated_at, last_message_at
        FROM conversations
        WHERE id = $1
    `, id).Scan(&c.ID, &c.Type, &c.Title, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt, &c.LastMessageAt)
	if err != nil {
		return conversation.Conversation{}, classify(err)
	}
	return c, nil
}

func (r *conversationRepository) UpdateTitle(ctx context.Context, tx DBTX, id uuid.UUID, title string) error {
	res, err := r.exec(tx).ExecContext(ctx, `
        UPDATE conversations
        SET title = $1, updated_at = clock_timestamp()
        WHERE id = $2
    `, title, id)
	return affectedOrNotFound(res, err)
}

// LockForSend holds the conversation row FOR UPDATE until tx ends.
// mark_conversation_as_read takes FOR SHARE on the same row, so a watermark
// is never stamped between a message's insert and its commit.
func (r *conversationRepository) LockForSend(ctx context.Context, tx DBTX, id uuid.UUID) error {
	var locked uuid.UUID
	err := r.exec(tx).QueryRowContext(ctx, `
        SELECT id FROM conversations WHERE id = $1 FOR UPDATE
    `, id).Scan(&locked)
	return classify(err)
}

func (r *conversationRepository) TouchLastMessage(ctx context.Context, tx DBTX, id uuid.UUID, at time.Time) error {
	res, err := r.exec(tx).ExecContext(ctx, `
        UPDATE conversations
        SET last_message_at = GREATEST(COALESCE(last_message_at, $1), $1), updated_at = $1
        WHERE id = $2
    `, at, id)
	return affectedOrNotFound(res, err)
}

const summarySelect = `
    SELECT c.id, c.type, c.title, c.created_by, c.created_at, c.updated_at, c.last_message_at,
           p.id, p.user_id, p.joined_at, p.is_archived, p.is_muted, p.last_read_at,
           get_unread_message_count(c.id, p.user_id),
           lm.id, lm.sender_id, lm.content, lm.type, lm.status, lm.reply_to_id, lm.created_at
    FROM participants p
    JOIN conversations c ON c.id = p.conversation_id
    LEFT JOIN LATERAL (
        SELECT m.id, m.sender_id, m.content, m.type, m.status, m.reply_to_id, m.created_at
        FROM messages m
        WHERE m.conversation_id = c.id
        ORDER BY m.created_at DESC, m.id DESC
        LIMIT 1
    ) lm ON true
`

func (r *conversationRepository) ListForUser(ctx context.Context, userID uuid.UUID, opts conversation.ListOptions) ([]conversation.Summary, error) {
	rows, err := r.db.QueryContext(ctx, summarySelect+`
    WHERE p.user_id = $1
      AND p.left_at IS NULL
      AND ($2 OR NOT p.is_archived)
      AND ($3::text IS NULL
           OR c.title ILIKE $3
           OR EXISTS (
               SELECT 1
               FROM participants op
               JOIN profiles pr ON pr.id = op.user_id
               WHERE op.conversation_id = c.id
                 AND op.left_at IS NULL
                 AND op.user_id <> $1
                 AND pr.display_name ILIKE $3))
    ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC, c.id
    LIMIT $4 OFFSET $5
    `, userID, opts.IncludeArchived, likePattern(opts.Search), opts.Limit, opts.Offset)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []conversation.Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r *conversationRepository) GetSummary(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Summary, error) {
	row := r.db.QueryRowContext(ctx, summarySelect+`
    WHERE p.conversation_id = $1 AND p.user_id = $2 AND p.left_at IS NULL
    `, conversationID, userID)
	return scanSummary(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row rowScanner) (conversation.Summary, error) {
	var (
		s       conversation.Summary
		lmID    uuid.NullUUID
		lmFrom  uuid.NullUUID
		lmBody  sql.NullString
		lmType  sql.NullString
		lmState sql.NullString
		lmReply uuid.NullUUID
		lmAt    sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.Type, &s.Title, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt, &s.LastMessageAt,
		&s.Membership.ID, &s.Membership.UserID, &s.Membership.JoinedAt,
		&s.Membership.IsArchived, &s.Membership.IsMuted, &s.Membership.LastReadAt,
		&s.UnreadCount,
		&lmID, &lmFrom, &lmBody, &lmType, &lmState, &lmReply, &lmAt,
	)
	if err != nil {
		return conversation.Summary{}, classify(err)
	}
	s.Membership.ConversationID = s.ID
	if lmID.Valid {
		s.LastMessage = &message.Message{
			ID:             lmID.UUID,
			ConversationID: s.ID,
			SenderID:       lmFrom.UUID,
			Content:        lmBody.String,
			Type:           domain.MessageType(lmType.String),
			Status:         domain.MessageStatus(lmState.String),
			ReplyToID:      lmReply,
			CreatedAt:      lmAt.Time,
		}
	}
	return s, nil
}

func (r *conversationRepository) AddParticipant(ctx context.Context, tx DBTX, conversationID, userID uuid.UUID) (conversation.Participant, error) {
	p := conversation.Participant{ConversationID: conversationID, UserID: userID}
	err := r.exec(tx).QueryRowContext(ctx, `
        INSERT INTO participants (conversation_id, user_id)
        VALUES ($1, $2)
        RETURNING id, joined_at
    `, conversationID, userID).Scan(&p.ID, &p.JoinedAt)
	if err != nil {
		return conversation.Participant{}, classify(err)
	}
	return p, nil
}

const participantColumns = `id, conversation_id, user_id, joined_at, left_at, is_archived, is_muted, last_read_at`

func scanParticipant(row rowScanner) (conversation.Participant, error) {
	var p conversation.Participant
	err := row.Scan(&p.ID, &p.ConversationID, &p.UserID, &p.JoinedAt, &p.LeftAt, &p.IsArchived, &p.IsMuted, &p.LastReadAt)
	return p, err
}

func (r *conversationRepository) GetActiveParticipant(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Participant, error) {
	p, err := scanParticipant(r.db.QueryRowContext(ctx, `
        SELECT `+participantColumns+`
        FROM participants
        WHERE conversation_id = $1 AND user_id = $2 AND left_at IS NULL
    `, conversationID, userID))
	if err != nil {
		return conversation.Participant{}, classify(err)
	}
	return p, nil
}

func (r *conversationRepository) ListActiveParticipants(ctx context.Context, conversationIDs []uuid.UUID) (map[uuid.UUID][]conversation.Participant, error) {
	out := make(map[uuid.UUID][]conversation.Participant, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+participantColumns+`
        FROM participants
        WHERE conversation_id = ANY($1::text[]::uuid[]) AND left_at IS NULL
        ORDER BY joined_at ASC
    `, uuidArray(conversationIDs))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, classify(err)
		}
		out[p.ConversationID] = append(out[p.ConversationID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r *conversationRepository) UpdateSettings(ctx context.Context, conversationID, userID uuid.UUID, update conversation.SettingsUpdate) error {
	var archived, muted sql.NullBool
	if update.Archived != nil {
		archived = sql.NullBool{Bool: *update.Archived, Valid: true}
	}
	if update.Muted != nil {
		muted = sql.NullBool{Bool: *update.Muted, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE participants
        SET is_archived = COALESCE($1, is_archived),
            is_muted = COALESCE($2, is_muted)
        WHERE conversation_id = $3 AND user_id = $4 AND left_at IS NULL
    `, archived, muted, conversationID, userID)
	return affectedOrNotFound(res, err)
}

func (r *conversationRepository) Leave(ctx context.Context, tx DBTX, conversationID, userID uuid.UUID) (bool, error) {
	res, err := r.exec(tx).ExecContext(ctx, `
        UPDATE participants
        SET left_at = clock_timestamp()
        WHERE conversation_id = $1 AND user_id = $2 AND left_at IS NULL
    `, conversationID, userID)
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

func (r *conversationRepository) AdvanceReadWatermark(ctx context.Context, tx DBTX, conversationID, userID uuid.UUID, at time.Time) error {
	_, err := r.exec(tx).ExecContext(ctx, `
        UPDATE participants
        SET last_read_at = GREATEST(COALESCE(last_read_at, $1), $1)
        WHERE conversation_id = $2 AND user_id = $3 AND left_at IS NULL
    `, at, conversationID, userID)
	return classify(err)
}

func (r *conversationRepository) MarkRead(ctx context.Context, tx DBTX, conversationID, userID uuid.UUID) (bool, error) {
	var found bool
	if err := r.exec(tx).QueryRowContext(ctx, `SELECT mark_conversation_as_read($1, $2)`, conversationID, userID).Scan(&found); err != nil {
		return false, classify(err)
	}
	return found, nil
}

func (r *conversationRepository) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT get_unread_message_count($1, $2)`, conversationID, userID).Scan(&n); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (r *conversationRepository) TotalUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(get_unread_message_count(p.conversation_id, p.user_id)), 0)::bigint
        FROM participants p
        WHERE p.user_id = $1 AND p.left_at IS NULL AND NOT p.is_archived AND NOT p.is_muted
    `, userID).Scan(&n)
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: no matching row", messenger_errors.ErrNotFound)
	}
	return nil
}
