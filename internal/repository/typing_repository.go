package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"coaching-messenger/internal/domain/typing"
)

type typingRepository struct {
	db DBTX
}

func NewTypingRepository(db DBTX) TypingRepository {
	return &typingRepository{db: db}
}

func (r *typingRepository) Upsert(ctx context.Context, ind typing.Indicator) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO typing_indicators (conversation_id, user_id, started_at, expires_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (conversation_id, user_id)
        DO UPDATE SET started_at = EXCLUDED.started_at, expires_at = EXCLUDED.expires_at
    `, ind.ConversationID, ind.UserID, ind.StartedAt, ind.ExpiresAt)
	return classify(err)
}

func (r *typingRepository) Delete(ctx context.Context, conversationID, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
        DELETE FROM typing_indicators
        WHERE conversation_id = $1 AND user_id = $2
    `, conversationID, userID)
	return classify(err)
}

func (r *typingRepository) ListActive(ctx context.Context, conversationID uuid.UUID, now time.Time) ([]typing.Indicator, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT conversation_id, user_id, started_at, expires_at
        FROM typing_indicators
        WHERE conversation_id = $1 AND expires_at > $2
        ORDER BY started_at ASC
    `, conversationID, now)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []typing.Indicator
	for rows.Next() {
		var ind typing.Indicator
		if err := rows.Scan(&ind.ConversationID, &ind.UserID, &ind.StartedAt, &ind.ExpiresAt); err != nil {
			return nil, classify(err)
		}
		out = append(out, ind)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r *typingRepository) SweepConversation(ctx context.Context, conversationID uuid.UUID, now time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT cleanup_expired_typing_indicators($1, $2)`, conversationID, now).Scan(&n)
	return n, classify(err)
}

func (r *typingRepository) SweepAll(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT cleanup_expired_typing_indicators(NULL, $1)`, now).Scan(&n)
	return n, classify(err)
}
