package httpdto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/message"

	"github.com/google/uuid"
)

type AttachmentRequest struct {
	FileName     string          `json:"file_name"`
	SizeBytes    int64           `json:"size_bytes"`
	MimeType     string          `json:"mime_type"`
	Kind         string          `json:"kind"`
	URL          string          `json:"url"`
	ThumbnailURL string          `json:"thumbnail_url"`
	StorageKey   string          `json:"storage_key"`
	Metadata     json.RawMessage `json:"metadata"`
}

// SendMessageRequest is used for POST /conversations/:id/messages
type SendMessageRequest struct {
	Content         string              `json:"content"`
	Type            string              `json:"type"`
	ReplyToID       string              `json:"reply_to_id"`
	ClientMessageID string              `json:"client_message_id"`
	Attachments     []AttachmentRequest `json:"attachments"`
}

// ListMessagesRequest holds query parameters for paging history
type ListMessagesRequest struct {
	Limit    int    `form:"limit"`
	Before   string `form:"before"`
	BeforeID string `form:"before_id"`
	Search   string `form:"search"`
}

// ReactionRequest is used for POST and DELETE /messages/:id/reactions
type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

type AttachmentDTO struct {
	ID           string          `json:"id"`
	FileName     string          `json:"file_name"`
	SizeBytes    int64           `json:"size_bytes"`
	MimeType     string          `json:"mime_type"`
	Kind         string          `json:"kind"`
	URL          string          `json:"url"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
	StorageKey   string          `json:"storage_key,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type AttachmentStatusDTO struct {
	AttachmentDTO
	Checked bool   `json:"checked"`
	Exists  bool   `json:"exists"`
	Error   string `json:"error,omitempty"`
}

type ReactionDTO struct {
	ID        string `json:"id"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Emoji     string `json:"emoji"`
	CreatedAt string `json:"created_at"`
}

type ReactionSummaryDTO struct {
	Emoji   string   `json:"emoji"`
	Count   int      `json:"count"`
	UserIDs []string `json:"user_ids"`
}

type MessageDTO struct {
	ID              string          `json:"id"`
	ConversationID  string          `json:"conversation_id"`
	SenderID        string          `json:"sender_id"`
	Content         string          `json:"content"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	ReplyToID       string          `json:"reply_to_id,omitempty"`
	ClientMessageID string          `json:"client_message_id,omitempty"`
	CreatedAt       string          `json:"created_at"`
	Attachments     []AttachmentDTO `json:"attachments"`
	Reactions       []ReactionDTO   `json:"reactions"`
}

type ListMessagesResponse struct {
	Messages []MessageDTO `json:"messages"`
	// NextBefore and NextBeforeID are the cursor for the next older page,
	// empty when the page was short.
	NextBefore   string `json:"next_before,omitempty"`
	NextBeforeID string `json:"next_before_id,omitempty"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

// ToAttachmentInputs converts request attachments; kind defaults happen in
// command validation.
func (r SendMessageRequest) ToAttachmentInputs() []message.AttachmentInput {
	if len(r.Attachments) == 0 {
		return nil
	}
	out := make([]message.AttachmentInput, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		out = append(out, message.AttachmentInput{
			FileName:     a.FileName,
			SizeBytes:    a.SizeBytes,
			MimeType:     a.MimeType,
			Kind:         domain.AttachmentKind(a.Kind),
			URL:          a.URL,
			ThumbnailURL: a.ThumbnailURL,
			StorageKey:   a.StorageKey,
			Metadata:     a.Metadata,
		})
	}
	return out
}

// ParseReplyTo returns a null id for an empty value.
func (r SendMessageRequest) ParseReplyTo() (uuid.NullUUID, error) {
	if strings.TrimSpace(r.ReplyToID) == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(r.ReplyToID)
	if err != nil {
		return uuid.NullUUID{}, fmt.Errorf("invalid reply_to_id")
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

// ParseBefore accepts an RFC 3339 timestamp; empty means newest.
func (r ListMessagesRequest) ParseBefore() (time.Time, error) {
	if r.Before == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, r.Before)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid before")
	}
	return t, nil
}

// ParseBeforeID returns uuid.Nil for an empty value.
func (r ListMessagesRequest) ParseBeforeID() (uuid.UUID, error) {
	if r.BeforeID == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(r.BeforeID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid before_id")
	}
	return id, nil
}

func FromAttachment(a message.Attachment) AttachmentDTO {
	dto := AttachmentDTO{
		ID:        a.ID.String(),
		FileName:  a.FileName,
		SizeBytes: a.SizeBytes,
		MimeType:  a.MimeType,
		Kind:      string(a.Kind),
		URL:       a.URL,
		Metadata:  a.Metadata,
		CreatedAt: formatTime(a.CreatedAt),
	}
	if a.ThumbnailURL.Valid {
		dto.ThumbnailURL = a.ThumbnailURL.String
	}
	if a.StorageKey.Valid {
		dto.StorageKey = a.StorageKey.String
	}
	return dto
}

func FromAttachments(items []message.Attachment) []AttachmentDTO {
	out := make([]AttachmentDTO, 0, len(items))
	for _, a := range items {
		out = append(out, FromAttachment(a))
	}
	return out
}

func FromAttachmentStatuses(items []message.AttachmentStatus) []AttachmentStatusDTO {
	out := make([]AttachmentStatusDTO, 0, len(items))
	for _, s := range items {
		out = append(out, AttachmentStatusDTO{
			AttachmentDTO: FromAttachment(s.Attachment),
			Checked:       s.Checked,
			Exists:        s.Exists,
			Error:         s.Error,
		})
	}
	return out
}

func FromReaction(r message.Reaction) ReactionDTO {
	return ReactionDTO{
		ID:        r.ID.String(),
		MessageID: r.MessageID.String(),
		UserID:    r.UserID.String(),
		Emoji:     r.Emoji,
		CreatedAt: formatTime(r.CreatedAt),
	}
}

func FromReactionSummaries(items []message.ReactionSummary) []ReactionSummaryDTO {
	out := make([]ReactionSummaryDTO, 0, len(items))
	for _, s := range items {
		ids := make([]string, 0, len(s.UserIDs))
		for _, id := range s.UserIDs {
			ids = append(ids, id.String())
		}
		out = append(out, ReactionSummaryDTO{Emoji: s.Emoji, Count: s.Count, UserIDs: ids})
	}
	return out
}

func FromMessage(m message.Message) MessageDTO {
	dto := MessageDTO{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		Type:           string(m.Type),
		Status:         string(m.Status),
		CreatedAt:      formatTime(m.CreatedAt),
		Attachments:    FromAttachments(m.Attachments),
		Reactions:      make([]ReactionDTO, 0, len(m.Reactions)),
	}
	if m.ReplyToID.Valid {
		dto.ReplyToID = m.ReplyToID.UUID.String()
	}
	if m.ClientMessageID.Valid {
		dto.ClientMessageID = m.ClientMessageID.String
	}
	for _, r := range m.Reactions {
		dto.Reactions = append(dto.Reactions, FromReaction(r))
	}
	return dto
}

// FromMessagePage builds a page response; a full page carries the cursor of
// its oldest message.
func FromMessagePage(items []message.Message, limit int) ListMessagesResponse {
	resp := ListMessagesResponse{Messages: make([]MessageDTO, 0, len(items))}
	for _, m := range items {
		resp.Messages = append(resp.Messages, FromMessage(m))
	}
	if limit > 0 && len(items) == limit {
		resp.NextBefore = formatTime(items[0].CreatedAt)
		resp.NextBeforeID = items[0].ID.String()
	}
	return resp
}
