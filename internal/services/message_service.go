package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coaching-messenger/internal/commands"
	"coaching-messenger/internal/domain/message"
	"coaching-messenger/internal/events"
	"coaching-messenger/internal/proxy"
	"coaching-messenger/internal/repository"
	messenger_errors "coaching-messenger/pkg/errors"
	"coaching-messenger/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

type MessageService struct {
	tx          repository.Transactor
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
	reactions   repository.ReactionRepository
	attachments repository.AttachmentRepository
	outboxRepo  repository.OutboxRepository
	access      *proxy.AccessPolicy
	linker      *AttachmentService
	typing      *TypingService
	log         *logger.Logger
}

type MessageServiceDeps struct {
	Tx          repository.Transactor
	Messages    repository.MessageRepository
	Convs       repository.ConversationRepository
	Reactions   repository.ReactionRepository
	Attachments repository.AttachmentRepository
	Outbox      repository.OutboxRepository
	Access      *proxy.AccessPolicy
	Linker      *AttachmentService
	Typing      *TypingService
	Log         *logger.Logger
}

func NewMessageService(deps MessageServiceDeps) *MessageService {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	return &MessageService{
		tx:          deps.Tx,
		messageRepo: deps.Messages,
		convRepo:    deps.Convs,
		reactions:   deps.Reactions,
		attachments: deps.Attachments,
		outboxRepo:  deps.Outbox,
		access:      deps.Access,
		linker:      deps.Linker,
		typing:      deps.Typing,
		log:         deps.Log,
	}
}

// Send appends a message. The insert, the conversation's last_message_at,
// the sender's read watermark and the message.created event commit together.
// Attachment linkage runs afterwards and never fails the send.
func (s *MessageService) Send(ctx context.Context, cmd commands.SendMessageCommand) (message.Message, error) {
	if err := cmd.Validate(); err != nil {
		return message.Message{}, err
	}
	if _, err := s.access.EnsureParticipant(ctx, cmd.ConversationID, cmd.SenderID); err != nil {
		return message.Message{}, err
	}

	if cmd.ClientMessageID != "" {
		existing, err := s.findDuplicate(ctx, cmd)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, messenger_errors.ErrNotFound) {
			return message.Message{}, err
		}
	}

	msg := message.Message{
		ID:             uuid.New(),
		ConversationID: cmd.ConversationID,
		SenderID:       cmd.SenderID,
		Content:        cmd.Content,
		Type:           cmd.Type,
		ReplyToID:      cmd.ReplyToID,
	}
	if cmd.ClientMessageID != "" {
		msg.ClientMessageID = sql.NullString{String: cmd.ClientMessageID, Valid: true}
	}

	err := s.tx.WithTx(ctx, func(tx repository.DBTX) error {
		if err := s.convRepo.LockForSend(ctx, tx, msg.ConversationID); err != nil {
			return err
		}
		if err := s.messageRepo.Create(ctx, tx, &msg); err != nil {
			return err
		}
		if err := s.convRepo.TouchLastMessage(ctx, tx, msg.ConversationID, msg.CreatedAt); err != nil {
			return err
		}
		if err := s.convRepo.AdvanceReadWatermark(ctx, tx, msg.ConversationID, msg.SenderID, msg.CreatedAt); err != nil {
			return err
		}
		return createOutboxEvent(ctx, s.outboxRepo, tx, events.AggregateTypeConversation, msg.ConversationID,
			events.EventTypeMessageCreated, events.NewMessageCreatedPayload(msg, cmd.Attachments))
	})
	if err != nil {
		// Lost the race against a concurrent retry with the same client id.
		if cmd.ClientMessageID != "" && errors.Is(err, messenger_errors.ErrConflict) {
			return s.findDuplicate(ctx, cmd)
		}
		return message.Message{}, err
	}

	l := s.log.WithContext(ctx).With(commands.LogFields(&cmd)...).With(zap.String("message_id", msg.ID.String()))
	if len(cmd.Attachments) > 0 && s.linker != nil {
		linked, err := s.linker.Attach(ctx, msg.ID, cmd.Attachments)
		if err != nil {
			l.Error("failed to link attachments", zap.Int("count", len(cmd.Attachments)), zap.Error(err))
		} else {
			msg.Attachments = linked
		}
	}
	if s.typing != nil {
		if err := s.typing.clear(ctx, msg.ConversationID, msg.SenderID); err != nil {
			l.Warn("failed to clear typing indicator", zap.Error(err))
		}
	}
	return msg, nil
}

func (s *MessageService) findDuplicate(ctx context.Context, cmd commands.SendMessageCommand) (message.Message, error) {
	existing, err := s.messageRepo.GetByClientID(ctx, cmd.SenderID, cmd.ClientMessageID)
	if err != nil {
		return message.Message{}, err
	}
	if existing.ConversationID != cmd.ConversationID {
		return message.Message{}, fmt.Errorf("%w: client_message_id already used in another conversation", messenger_errors.ErrConflict)
	}
	if err := s.hydrate(ctx, []*message.Message{&existing}); err != nil {
		return message.Message{}, err
	}
	return existing, nil
}

// Page returns up to opts.Limit messages older than opts.Before, oldest
// first.
func (s *MessageService) Page(ctx context.Context, conversationID, userID uuid.UUID, opts message.PageOptions) ([]message.Message, error) {
	if opts.Limit < 0 {
		return nil, messenger_errors.Invalid("limit", "cannot be negative")
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultPageLimit
	}
	if opts.Limit > MaxPageLimit {
		opts.Limit = MaxPageLimit
	}
	if _, err := s.access.EnsureParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	msgs, err := s.messageRepo.Page(ctx, conversationID, opts)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*message.Message, len(msgs))
	for i := range msgs {
		ptrs[i] = &msgs[i]
	}
	if err := s.hydrate(ctx, ptrs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []message.Message{}
	}
	return msgs, nil
}

func (s *MessageService) CountMatching(ctx context.Context, conversationID, userID uuid.UUID, opts message.PageOptions) (int64, error) {
	if _, err := s.access.EnsureParticipant(ctx, conversationID, userID); err != nil {
		return 0, err
	}
	return s.messageRepo.CountMatching(ctx, conversationID, opts.Search)
}

func (s *MessageService) Get(ctx context.Context, messageID, userID uuid.UUID) (message.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if _, err := s.access.EnsureParticipant(ctx, msg.ConversationID, userID); err != nil {
		return message.Message{}, err
	}
	if err := s.hydrate(ctx, []*message.Message{&msg}); err != nil {
		return message.Message{}, err
	}
	return msg, nil
}

// hydrate loads attachments and reactions for msgs with one query each.
func (s *MessageService) hydrate(ctx context.Context, msgs []*message.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}

	if s.attachments != nil {
		byMessage, err := s.attachments.ListByMessages(ctx, ids)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			m.Attachments = byMessage[m.ID]
		}
	}
	if s.reactions != nil {
		byMessage, err := s.reactions.ListByMessages(ctx, ids)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			m.Reactions = byMessage[m.ID]
		}
	}
	return nil
}
