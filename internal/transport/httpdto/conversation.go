package httpdto

import (
	"time"

	"coaching-messenger/internal/domain/conversation"
)

// CreateDirectRequest is used for POST /conversations/direct
type CreateDirectRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// CreateGroupRequest is used for POST /conversations/group
type CreateGroupRequest struct {
	Title     string   `json:"title" binding:"required"`
	MemberIDs []string `json:"member_ids" binding:"required"`
}

// UpdateConversationRequest is used for PATCH /conversations/:id
type UpdateConversationRequest struct {
	Title *string `json:"title"`
}

// UpdateSettingsRequest is used for PATCH /conversations/:id/settings
type UpdateSettingsRequest struct {
	Archived *bool `json:"archived"`
	Muted    *bool `json:"muted"`
}

// AddParticipantRequest is used for POST /conversations/:id/participants
type AddParticipantRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ListConversationsRequest holds query parameters for listing conversations
type ListConversationsRequest struct {
	Limit           int    `form:"limit"`
	Offset          int    `form:"offset"`
	Search          string `form:"search"`
	IncludeArchived bool   `form:"include_archived"`
}

type DirectConversationResponse struct {
	ConversationID string `json:"conversation_id"`
}

type ConversationDTO struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Title         string `json:"title,omitempty"`
	CreatedBy     string `json:"created_by"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	LastMessageAt string `json:"last_message_at,omitempty"`
}

type ConversationSummaryDTO struct {
	ConversationDTO
	IsArchived   bool         `json:"is_archived"`
	IsMuted      bool         `json:"is_muted"`
	LastReadAt   string       `json:"last_read_at,omitempty"`
	Participants []ProfileDTO `json:"participants"`
	UnreadCount  int64        `json:"unread_count"`
	LastMessage  *MessageDTO  `json:"last_message,omitempty"`
}

type ListConversationsResponse struct {
	Conversations []ConversationSummaryDTO `json:"conversations"`
}

type ParticipantDTO struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	JoinedAt       string `json:"joined_at"`
}

type UnreadResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

func FromConversation(c conversation.Conversation) ConversationDTO {
	dto := ConversationDTO{
		ID:        c.ID.String(),
		Type:      string(c.Type),
		CreatedBy: c.CreatedBy.String(),
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
	if c.Title.Valid {
		dto.Title = c.Title.String
	}
	if c.LastMessageAt.Valid {
		dto.LastMessageAt = formatTime(c.LastMessageAt.Time)
	}
	return dto
}

func FromSummary(s conversation.Summary) ConversationSummaryDTO {
	dto := ConversationSummaryDTO{
		ConversationDTO: FromConversation(s.Conversation),
		IsArchived:      s.Membership.IsArchived,
		IsMuted:         s.Membership.IsMuted,
		Participants:    FromProfiles(s.Participants),
		UnreadCount:     s.UnreadCount,
	}
	if s.Membership.LastReadAt.Valid {
		dto.LastReadAt = formatTime(s.Membership.LastReadAt.Time)
	}
	if s.LastMessage != nil {
		m := FromMessage(*s.LastMessage)
		dto.LastMessage = &m
	}
	return dto
}

func FromSummarySlice(items []conversation.Summary) []ConversationSummaryDTO {
	out := make([]ConversationSummaryDTO, 0, len(items))
	for _, s := range items {
		out = append(out, FromSummary(s))
	}
	return out
}

func FromParticipant(p conversation.Participant) ParticipantDTO {
	return ParticipantDTO{
		ID:             p.ID.String(),
		ConversationID: p.ConversationID.String(),
		UserID:         p.UserID.String(),
		JoinedAt:       formatTime(p.JoinedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
