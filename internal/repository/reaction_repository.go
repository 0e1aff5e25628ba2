package repository

import (
	"context"

	"github.com/google/uuid"

	"coaching-messenger/internal/domain/message"
)

type reactionRepository struct {
	db DBTX
}

func NewReactionRepository(db DBTX) ReactionRepository {
	return &reactionRepository{db: db}
}

// Add relies on the (message_id, user_id, emoji) unique constraint; a
// duplicate surfaces as ErrConflict.
func (r *reactionRepository) Add(ctx context.Context, tx DBTX, reaction *message.Reaction) error {
	execDB := tx
	if execDB == nil {
		execDB = r.db
	}
	if reaction.ID == uuid.Nil {
		reaction.ID = uuid.New()
	}
	err := execDB.QueryRowContext(ctx, `
        INSERT INTO message_reactions (id, message_id, user_id, emoji)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at
    `, reaction.ID, reaction.MessageID, reaction.UserID, reaction.Emoji).Scan(&reaction.CreatedAt)
	return classify(err)
}

func (r *reactionRepository) Remove(ctx context.Context, tx DBTX, messageID, userID uuid.UUID, emoji string) (bool, error) {
	execDB := tx
	if execDB == nil {
		execDB = r.db
	}
	res, err := execDB.ExecContext(ctx, `
        DELETE FROM message_reactions
        WHERE message_id = $1 AND user_id = $2 AND emoji = $3
    `, messageID, userID, emoji)
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

func (r *reactionRepository) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]message.Reaction, error) {
	grouped, err := r.ListByMessages(ctx, []uuid.UUID{messageID})
	if err != nil {
		return nil, err
	}
	return grouped[messageID], nil
}

func (r *reactionRepository) ListByMessages(ctx context.Context, messageIDs []uuid.UUID) (map[uuid.UUID][]message.Reaction, error) {
	out := make(map[uuid.UUID][]message.Reaction, len(messageIDs))
	if len(messageIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, message_id, user_id, emoji, created_at
        FROM message_reactions
        WHERE message_id = ANY($1::text[]::uuid[])
        ORDER BY created_at ASC, id ASC
    `, uuidArray(messageIDs))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		var rc message.Reaction
		if err := rows.Scan(&rc.ID, &rc.MessageID, &rc.UserID, &rc.Emoji, &rc.CreatedAt); err != nil {
			return nil, classify(err)
		}
		out[rc.MessageID] = append(out[rc.MessageID], rc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
