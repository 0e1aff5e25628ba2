package commands

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/message"
	messenger_errors "coaching-messenger/pkg/errors"
)

const (
	MaxContentRunes       = 10000
	MaxAttachments        = 10
	MaxClientMessageIDLen = 64
	MaxFileNameRunes      = 255
)

// SendMessageCommand appends a message to a conversation.
type SendMessageCommand struct {
	ConversationID  uuid.UUID
	SenderID        uuid.UUID
	Content         string
	Type            domain.MessageType
	ReplyToID       uuid.NullUUID
	Attachments     []message.AttachmentInput
	ClientMessageID string
}

func (SendMessageCommand) CommandType() string {
	return "message.send"
}

// Validate normalizes defaults and checks the command. Call it on a pointer
// so the defaults stick.
func (c *SendMessageCommand) Validate() error {
	if c.ConversationID == uuid.Nil {
		return messenger_errors.Invalid("conversation_id", "is required")
	}
	if c.SenderID == uuid.Nil {
		return messenger_errors.Invalid("sender_id", "is required")
	}
	if c.Type == "" {
		c.Type = domain.MessageTypeText
		if len(c.Attachments) > 0 {
			c.Type = domain.MessageTypeFile
		}
	}
	if !c.Type.Valid() {
		return messenger_errors.Invalid("type", "must be text, file or system")
	}

	c.Content = strings.TrimSpace(c.Content)
	if utf8.RuneCountInString(c.Content) > MaxContentRunes {
		return messenger_errors.Invalid("content", "is too long")
	}
	switch c.Type {
	case domain.MessageTypeFile:
		if len(c.Attachments) == 0 {
			return messenger_errors.Invalid("attachments", "are required for file messages")
		}
	default:
		if c.Content == "" {
			return messenger_errors.Invalid("content", "cannot be empty")
		}
	}

	if len(c.Attachments) > MaxAttachments {
		return messenger_errors.Invalid("attachments", "too many")
	}
	for i := range c.Attachments {
		if err := validateAttachment(&c.Attachments[i]); err != nil {
			return err
		}
	}

	if c.ReplyToID.Valid && c.ReplyToID.UUID == uuid.Nil {
		return messenger_errors.Invalid("reply_to_id", "is not a valid id")
	}
	c.ClientMessageID = strings.TrimSpace(c.ClientMessageID)
	if len(c.ClientMessageID) > MaxClientMessageIDLen {
		return messenger_errors.Invalid("client_message_id", "is too long")
	}
	return nil
}

func (c SendMessageCommand) IdempotencyKey() string {
	if c.ClientMessageID == "" {
		return ""
	}
	return c.SenderID.String() + ":" + c.ClientMessageID
}

func validateAttachment(a *message.AttachmentInput) error {
	a.FileName = strings.TrimSpace(a.FileName)
	if a.FileName == "" {
		return messenger_errors.Invalid("attachments.file_name", "is required")
	}
	if utf8.RuneCountInString(a.FileName) > MaxFileNameRunes {
		return messenger_errors.Invalid("attachments.file_name", "is too long")
	}
	if a.SizeBytes < 0 {
		return messenger_errors.Invalid("attachments.size_bytes", "cannot be negative")
	}
	if a.Kind == "" {
		a.Kind = domain.AttachmentKindOther
	}
	if !a.Kind.Valid() {
		return messenger_errors.Invalid("attachments.kind", "is not supported")
	}
	if a.URL == "" && a.StorageKey == "" {
		return messenger_errors.Invalid("attachments.url", "or storage_key is required")
	}
	if a.MimeType == "" {
		a.MimeType = "application/octet-stream"
	}
	return nil
}
