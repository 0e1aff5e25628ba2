package typing

import (
	"time"

	"github.com/google/uuid"
)

// TTL is how long a typing indicator stays visible without a refresh.
const TTL = 10 * time.Second

// Indicator represents the typing_indicators table
type Indicator struct {
	ConversationID uuid.UUID
	UserID         uuid.UUID
	StartedAt      time.Time
	ExpiresAt      time.Time
}

func (i Indicator) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
