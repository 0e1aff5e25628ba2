package user

import (
	"coaching-messenger/internal/domain"

	"github.com/google/uuid"
)

// Profile is the read-only view of a user owned by the user directory.
type Profile struct {
	ID          uuid.UUID
	DisplayName string
	AvatarURL   string
	Role        domain.Role
}
