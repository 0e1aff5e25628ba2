package services

import (
	"context"
	"database/sql"

	"coaching-messenger/internal/domain/message"
	"coaching-messenger/internal/proxy"
	"coaching-messenger/internal/repository"
	messenger_errors "coaching-messenger/pkg/errors"
	"coaching-messenger/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStore is the upload bucket holding attachment bytes.
type ObjectStore interface {
	FileURL(key string) string
	Exists(ctx context.Context, key string) (bool, error)
}

type AttachmentService struct {
	repo     repository.AttachmentRepository
	messages repository.MessageRepository
	access   *proxy.AccessPolicy
	store    ObjectStore
	log      *logger.Logger
}

// NewAttachmentService accepts a nil store; storage keys then need an
// explicit URL and Verify reports every attachment as unchecked.
func NewAttachmentService(repo repository.AttachmentRepository, messages repository.MessageRepository, access *proxy.AccessPolicy, store ObjectStore, log *logger.Logger) *AttachmentService {
	if log == nil {
		log = logger.NewNop()
	}
	return &AttachmentService{repo: repo, messages: messages, access: access, store: store, log: log}
}

// Attach links already uploaded files to messageID in one insert.
func (s *AttachmentService) Attach(ctx context.Context, messageID uuid.UUID, inputs []message.AttachmentInput) ([]message.Attachment, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	rows := make([]message.Attachment, 0, len(inputs))
	for _, in := range inputs {
		url := in.URL
		if url == "" && in.StorageKey != "" && s.store != nil {
			url = s.store.FileURL(in.StorageKey)
		}
		if url == "" {
			return nil, messenger_errors.Invalid("attachments.url", "cannot be resolved for "+in.FileName)
		}
		rows = append(rows, message.Attachment{
			ID:           uuid.New(),
			MessageID:    messageID,
			FileName:     in.FileName,
			SizeBytes:    in.SizeBytes,
			MimeType:     in.MimeType,
			Kind:         in.Kind,
			URL:          url,
			ThumbnailURL: optionalString(in.ThumbnailURL),
			StorageKey:   optionalString(in.StorageKey),
			Metadata:     in.Metadata,
		})
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AttachmentService) List(ctx context.Context, messageID, userID uuid.UUID) ([]message.Attachment, error) {
	if err := s.authorize(ctx, messageID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByMessage(ctx, messageID)
}

// Verify checks the bucket for every attachment that has a storage key.
func (s *AttachmentService) Verify(ctx context.Context, messageID, userID uuid.UUID) ([]message.AttachmentStatus, error) {
	attachments, err := s.List(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]message.AttachmentStatus, 0, len(attachments))
	for _, a := range attachments {
		status := message.AttachmentStatus{Attachment: a}
		if a.StorageKey.Valid && s.store != nil {
			exists, err := s.store.Exists(ctx, a.StorageKey.String)
			status.Checked = err == nil
			status.Exists = exists
			if err != nil {
				status.Error = err.Error()
				s.log.WithContext(ctx).Warn("attachment check failed",
					zap.String("attachment_id", a.ID.String()),
					zap.Error(err))
			}
		}
		out = append(out, status)
	}
	return out, nil
}

func (s *AttachmentService) authorize(ctx context.Context, messageID, userID uuid.UUID) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	_, err = s.access.EnsureParticipant(ctx, msg.ConversationID, userID)
	return err
}

func optionalString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
