package services

import (
	"context"
	"fmt"
	"time"

	"coaching-messenger/internal/events"
	"coaching-messenger/internal/proxy"
	"coaching-messenger/internal/repository"
	messenger_errors "coaching-messenger/pkg/errors"

	"github.com/google/uuid"
)

// ReadService owns the per-participant read watermark. Unread counts are
// computed by the store on every call.
type ReadService struct {
	tx         repository.Transactor
	convRepo   repository.ConversationRepository
	outboxRepo repository.OutboxRepository
	access     *proxy.AccessPolicy
}

func NewReadService(tx repository.Transactor, convRepo repository.ConversationRepository, outboxRepo repository.OutboxRepository, access *proxy.AccessPolicy) *ReadService {
	return &ReadService{tx: tx, convRepo: convRepo, outboxRepo: outboxRepo, access: access}
}

func (s *ReadService) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx repository.DBTX) error {
		found, err := s.convRepo.MarkRead(ctx, tx, conversationID, userID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: not an active participant", messenger_errors.ErrNotFound)
		}
		return createOutboxEvent(ctx, s.outboxRepo, tx, events.AggregateTypeConversation, conversationID, events.EventTypeReceiptRead, events.ReceiptReadPayload{
			ConversationID: conversationID.String(),
			UserID:         userID.String(),
			ReadAt:         time.Now().UTC(),
		})
	})
}

// UnreadCount is scoped to active participants: a missing conversation is
// ErrNotFound, anyone else (including a member who left) is ErrForbidden.
func (s *ReadService) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	if _, err := s.access.EnsureParticipant(ctx, conversationID, userID); err != nil {
		return 0, err
	}
	return s.convRepo.UnreadCount(ctx, conversationID, userID)
}

// TotalUnread sums unread messages over the user's active, unarchived,
// unmuted conversations.
func (s *ReadService) TotalUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.convRepo.TotalUnread(ctx, userID)
}
