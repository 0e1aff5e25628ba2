package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"coaching-messenger/internal/domain/message"
)

type attachmentRepository struct {
	db DBTX
}

func NewAttachmentRepository(db DBTX) AttachmentRepository {
	return &attachmentRepository{db: db}
}

const attachmentInsertColumns = 10

// CreateBatch inserts every attachment in one statement.
func (r *attachmentRepository) CreateBatch(ctx context.Context, attachments []message.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	values := make([]string, 0, len(attachments))
	args := make([]interface{}, 0, len(attachments)*attachmentInsertColumns)
	for i := range attachments {
		a := &attachments[i]
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		meta := "{}"
		if len(a.Metadata) > 0 {
			meta = string(a.Metadata)
		}
		values = append(values, fmt.Sprintf("(%s)", placeholdersWithJSON(len(args)+1)))
		args = append(args,
			a.ID,
			a.MessageID,
			a.FileName,
			a.SizeBytes,
			a.MimeType,
			string(a.Kind),
			a.URL,
			a.ThumbnailURL,
			a.StorageKey,
			meta,
		)
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO attachments (id, message_id, file_name, size_bytes, mime_type, kind, url, thumbnail_url, storage_key, metadata)
        VALUES `+strings.Join(values, ", "), args...)
	return classify(err)
}

// placeholdersWithJSON renders one attachment row; the last column is cast to jsonb.
func placeholdersWithJSON(start int) string {
	return buildPlaceholders(start, attachmentInsertColumns-1) + fmt.Sprintf(",$%d::jsonb", start+attachmentInsertColumns-1)
}

func (r *attachmentRepository) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]message.Attachment, error) {
	grouped, err := r.ListByMessages(ctx, []uuid.UUID{messageID})
	if err != nil {
		return nil, err
	}
	return grouped[messageID], nil
}

func (r *attachmentRepository) ListByMessages(ctx context.Context, messageIDs []uuid.UUID) (map[uuid.UUID][]message.Attachment, error) {
	out := make(map[uuid.UUID][]message.Attachment, len(messageIDs))
	if len(messageIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, message_id, file_name, size_bytes, mime_type, kind, url, thumbnail_url, storage_key, metadata, created_at
        FROM attachments
        WHERE message_id = ANY($1::text[]::uuid[])
        ORDER BY created_at ASC, id ASC
    `, uuidArray(messageIDs))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a    message.Attachment
			meta []byte
		)
		if err := rows.Scan(
			&a.ID,
			&a.MessageID,
			&a.FileName,
			&a.SizeBytes,
			&a.MimeType,
			&a.Kind,
			&a.URL,
			&a.ThumbnailURL,
			&a.StorageKey,
			&meta,
			&a.CreatedAt,
		); err != nil {
			return nil, classify(err)
		}
		a.Metadata = meta
		out[a.MessageID] = append(out[a.MessageID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
