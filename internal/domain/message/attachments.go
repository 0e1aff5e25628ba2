package message

import (
	"database/sql"
	"encoding/json"
	"time"

	"coaching-messenger/internal/domain"

	"github.com/google/uuid"
)

// Attachment represents the attachments table
type Attachment struct {
	ID           uuid.UUID
	MessageID    uuid.UUID
	FileName     string
	SizeBytes    int64
	MimeType     string
	Kind         domain.AttachmentKind
	URL          string
	ThumbnailURL sql.NullString
	StorageKey   sql.NullString
	Metadata     json.RawMessage
	CreatedAt    time.Time
}

// AttachmentInput is the metadata of an already uploaded file.
type AttachmentInput struct {
	FileName     string
	SizeBytes    int64
	MimeType     string
	Kind         domain.AttachmentKind
	URL          string
	ThumbnailURL string
	StorageKey   string
	Metadata     json.RawMessage
}

// AttachmentStatus reports whether the stored object behind an attachment exists.
type AttachmentStatus struct {
	Attachment Attachment
	Checked    bool
	Exists     bool
	Error      string
}
