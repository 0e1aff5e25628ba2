package repository

import (
	"context"

	"github.com/google/uuid"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/user"
)

// PostgresUserRepository reads the user directory's profiles and
// coach_clients tables. The messenger never writes to them.
type PostgresUserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetRole(ctx context.Context, id uuid.UUID) (domain.Role, error) {
	var role domain.Role
	if err := r.db.QueryRowContext(ctx, `SELECT role FROM profiles WHERE id = $1`, id).Scan(&role); err != nil {
		return "", classify(err)
	}
	return role, nil
}

func (r *PostgresUserRepository) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.Profile, error) {
	out := make(map[uuid.UUID]user.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, display_name, avatar_url, role
        FROM profiles
        WHERE id = ANY($1::text[]::uuid[])
    `, uuidArray(ids))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		var p user.Profile
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.AvatarURL, &p.Role); err != nil {
			return nil, classify(err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// CanMessage evaluates can_user_message_user for the ordered pair.
func (r *PostgresUserRepository) CanMessage(ctx context.Context, senderID, recipientID uuid.UUID) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, `SELECT can_user_message_user($1, $2)`, senderID, recipientID).Scan(&ok); err != nil {
		return false, classify(err)
	}
	return ok, nil
}
