package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"coaching-messenger/internal/domain/message"
)

type PostgresMessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

const messageColumns = `id, conversation_id, sender_id, content, type, status, reply_to_id, client_message_id, created_at`

func scanMessage(row rowScanner) (message.Message, error) {
	var m message.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &m.Status, &m.ReplyToID, &m.ClientMessageID, &m.CreatedAt)
	return m, err
}

// Create inserts m and fills in its server assigned fields. created_at comes
// from clock_timestamp() so messages inside one transaction still order.
func (r *PostgresMessageRepository) Create(ctx context.Context, tx DBTX, m *message.Message) error {
	execDB := tx
	if execDB == nil {
		execDB = r.db
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := execDB.QueryRowContext(ctx, `
        INSERT INTO messages (id, conversation_id, sender_id, content, type, reply_to_id, client_message_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING status, created_at
    `,
		m.ID,
		m.ConversationID,
		m.SenderID,
		m.Content,
		string(m.Type),
		m.ReplyToID,
		m.ClientMessageID,
	).Scan(&m.Status, &m.CreatedAt)
	return classify(err)
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE id = $1
    `, id))
	if err != nil {
		return message.Message{}, classify(err)
	}
	return m, nil
}

func (r *PostgresMessageRepository) GetByClientID(ctx context.Context, senderID uuid.UUID, clientMessageID string) (message.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE sender_id = $1 AND client_message_id = $2
    `, senderID, clientMessageID))
	if err != nil {
		return message.Message{}, classify(err)
	}
	return m, nil
}

func (r *PostgresMessageRepository) Page(ctx context.Context, conversationID uuid.UUID, opts message.PageOptions) ([]message.Message, error) {
	var (
		before   sql.NullTime
		beforeID uuid.NullUUID
	)
	if !opts.Before.IsZero() {
		before = sql.NullTime{Time: opts.Before, Valid: true}
		beforeID = uuid.NullUUID{UUID: opts.BeforeID, Valid: opts.BeforeID != uuid.Nil}
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE conversation_id = $1
          AND ($2::timestamptz IS NULL
               OR created_at < $2
               OR ($5::uuid IS NOT NULL AND created_at = $2 AND id < $5))
          AND ($3::text IS NULL OR content ILIKE $3)
        ORDER BY created_at DESC, id DESC
        LIMIT $4
    `, conversationID, before, likePattern(opts.Search), opts.Limit, beforeID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var messages []message.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, classify(err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	// newest-first from the index, callers read oldest-first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *PostgresMessageRepository) CountMatching(ctx context.Context, conversationID uuid.UUID, search string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
        SELECT count(*)
        FROM messages
        WHERE conversation_id = $1
          AND ($2::text IS NULL OR content ILIKE $2)
    `, conversationID, likePattern(search)).Scan(&n)
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}
