package events

import (
	"time"

	"coaching-messenger/internal/domain/conversation"
	"coaching-messenger/internal/domain/message"
)

type AttachmentPayload struct {
	FileName   string `json:"file_name"`
	SizeBytes  int64  `json:"size_bytes"`
	MimeType   string `json:"mime_type"`
	Kind       string `json:"kind"`
	URL        string `json:"url,omitempty"`
	StorageKey string `json:"storage_key,omitempty"`
}

type MessageCreatedPayload struct {
	ID              string              `json:"id"`
	ConversationID  string              `json:"conversation_id"`
	SenderID        string              `json:"sender_id"`
	Content         string              `json:"content"`
	Type            string              `json:"type"`
	Status          string              `json:"status"`
	ReplyToID       string              `json:"reply_to_id,omitempty"`
	ClientMessageID string              `json:"client_message_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	Attachments     []AttachmentPayload `json:"attachments,omitempty"`
}

// NewMessageCreatedPayload describes m together with the attachments the
// sender declared; linkage happens after the event is staged.
func NewMessageCreatedPayload(m message.Message, attachments []message.AttachmentInput) MessageCreatedPayload {
	p := MessageCreatedPayload{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		Type:           string(m.Type),
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt.UTC(),
	}
	if m.ReplyToID.Valid {
		p.ReplyToID = m.ReplyToID.UUID.String()
	}
	if m.ClientMessageID.Valid {
		p.ClientMessageID = m.ClientMessageID.String
	}
	for _, a := range attachments {
		p.Attachments = append(p.Attachments, AttachmentPayload{
			FileName:   a.FileName,
			SizeBytes:  a.SizeBytes,
			MimeType:   a.MimeType,
			Kind:       string(a.Kind),
			URL:        a.URL,
			StorageKey: a.StorageKey,
		})
	}
	return p
}

type ReceiptReadPayload struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	ReadAt         time.Time `json:"read_at"`
}

type ReactionPayload struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Emoji          string `json:"emoji"`
}

type TypingPayload struct {
	ConversationID string     `json:"conversation_id"`
	UserID         string     `json:"user_id"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

type ConversationPayload struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Title          string   `json:"title,omitempty"`
	CreatedBy      string   `json:"created_by"`
	ParticipantIDs []string `json:"participant_ids,omitempty"`
}

func NewConversationPayload(c conversation.Conversation, participantIDs []string) ConversationPayload {
	p := ConversationPayload{
		ID:             c.ID.String(),
		Type:           string(c.Type),
		CreatedBy:      c.CreatedBy.String(),
		ParticipantIDs: participantIDs,
	}
	if c.Title.Valid {
		p.Title = c.Title.String
	}
	return p
}

type ParticipantPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	ActorID        string `json:"actor_id,omitempty"`
}
