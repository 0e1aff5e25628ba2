package domain

type ConversationType string

const (
	ConversationTypeDirect ConversationType = "direct"
	ConversationTypeGroup  ConversationType = "group"
)

func (t ConversationType) Valid() bool {
	return t == ConversationTypeDirect || t == ConversationTypeGroup
}

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeFile, MessageTypeSystem:
		return true
	}
	return false
}

// MessageStatus is coarse and not tracked per recipient.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

type AttachmentKind string

const (
	AttachmentKindImage    AttachmentKind = "image"
	AttachmentKindVideo    AttachmentKind = "video"
	AttachmentKindAudio    AttachmentKind = "audio"
	AttachmentKindDocument AttachmentKind = "document"
	AttachmentKindOther    AttachmentKind = "other"
)

func (k AttachmentKind) Valid() bool {
	switch k {
	case AttachmentKindImage, AttachmentKindVideo, AttachmentKindAudio, AttachmentKindDocument, AttachmentKindOther:
		return true
	}
	return false
}

// Role comes from the external user directory.
type Role string

const (
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)
