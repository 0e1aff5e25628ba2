package httpdto

import (
	"coaching-messenger/internal/domain/user"
)

// ProfileDTO represents a user in API responses
type ProfileDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role"`
}

func FromProfile(p user.Profile) ProfileDTO {
	return ProfileDTO{
		ID:          p.ID.String(),
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Role:        string(p.Role),
	}
}

func FromProfiles(items []user.Profile) []ProfileDTO {
	out := make([]ProfileDTO, 0, len(items))
	for _, p := range items {
		out = append(out, FromProfile(p))
	}
	return out
}

// TypingResponse is returned by GET /conversations/:id/typing
type TypingResponse struct {
	Users []ProfileDTO `json:"users"`
}

// TypingStartedResponse is returned by POST /conversations/:id/typing
type TypingStartedResponse struct {
	ExpiresAt string `json:"expires_at"`
}
