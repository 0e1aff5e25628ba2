package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coaching-messenger/internal/commands"
	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/conversation"
	"coaching-messenger/internal/events"
	"coaching-messenger/internal/proxy"
	"coaching-messenger/internal/repository"
	messenger_errors "coaching-messenger/pkg/errors"
	"coaching-messenger/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultConversationLimit = 20
	MaxConversationLimit     = 100
)

type ConversationService struct {
	tx         repository.Transactor
	repo       repository.ConversationRepository
	outboxRepo repository.OutboxRepository
	access     *proxy.AccessPolicy
	dir        UserDirectory
	log        *logger.Logger
}

func NewConversationService(tx repository.Transactor, repo repository.ConversationRepository, outboxRepo repository.OutboxRepository, access *proxy.AccessPolicy, dir UserDirectory, log *logger.Logger) *ConversationService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ConversationService{tx: tx, repo: repo, outboxRepo: outboxRepo, access: access, dir: dir, log: log}
}

// GetOrCreateDirect returns the one direct conversation between userA and
// userB, creating it when neither ordering exists yet.
func (s *ConversationService) GetOrCreateDirect(ctx context.Context, userA, userB uuid.UUID) (uuid.UUID, error) {
	if userA == uuid.Nil || userB == uuid.Nil {
		return uuid.Nil, messenger_errors.Invalid("user_id", "is required")
	}
	if err := s.access.EnsureCanMessage(ctx, userA, userB); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err := s.tx.WithTx(ctx, func(tx repository.DBTX) error {
		convID, created, err := s.repo.GetOrCreateDirect(ctx, tx, userA, userB)
		if err != nil {
			return err
		}
		id = convID
		if !created {
			return nil
		}
		payload := events.NewConversationPayload(conversation.Conversation{
			ID:        convID,
			Type:      domain.ConversationTypeDirect,
			CreatedBy: userA,
		}, []string{userA.String(), userB.String()})
		return createOutboxEvent(ctx, s.outboxRepo, tx, events.AggregateTypeConversation, convID, events.EventTypeConversationCreated, payload)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *ConversationService) CreateGroup(ctx context.Context, cmd commands.CreateGroupCommand) (conversation.Conversation, error) {
	if err := cmd.Validate(); err != nil {
		return conversation.Conversation{}, err
	}
	for _, member := range cmd.MemberIDs {
		if err := s.access.EnsureCanMessage(ctx, cmd.CreatorID, member); err != nil {
			return conversation.Conversation{}, err
		}
	}

	conv := conversation.Conversation{
		ID:        uuid.New(),
		Type:      domain.ConversationTypeGroup,
		Title:     sql.NullString{String: cmd.Title, Valid: true},
		CreatedBy: cmd.CreatorID,
	}
	err := s.tx.WithTx(ctx, func(tx repository.DBTX) error {
		if err := s.repo.Create(ctx, tx, &conv); err != nil {
			return err
		}
		ids := make([]string, 0, len(cmd.MemberIDs)+1)
		for _, userID := range append([]uuid.UUID{cmd.CreatorID}, cmd.MemberIDs...) {
			if _, err := s.repo.AddParticipant(ctx, tx, conv.ID, userID); err != nil {
				return err
			}
			ids = append(ids, userID.String())
		}
		return createOutboxEvent(ctx, s.outboxRepo, tx, events.AggregateTypeConversation, conv.ID, events.EventTypeConversationCreated, events.NewConversationPayload(conv, ids))
	})
	if err != nil {
		return conversation.Conversation{}, err
	}
	s.log.WithContext(ctx).With(commands.LogFields(&cmd)...).Info("group conversation created",
		zap.String("conversation_id", conv.ID.String()), zap.Int("members", len(cmd.MemberIDs)+1))
	return conv, nil
}

func (s *ConversationService) ListForUser(ctx context.Context, userID uuid.UUID, opts conversation.ListOptions) ([]conversation.Summary, error) {
	if opts.Limit < 0 {
		return nil, messenger_errors.Invalid("limit", "cannot be negative")
	}
	if opts.Offset < 0 {
		return nil, messenger_errors.Invalid("offset", "cannot be negative")
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultConversationLimit
	}
	if opts.Limit > MaxConversationLimit {
		opts.Limit = MaxConversationLimit
	}

	summaries, err := s.repo.ListForUser(ctx, userID, opts)
	if err != nil {
		return nil, err
	}
	if err := s.attachParticipants(ctx, userID, summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Get returns the caller's summary of one conversation.
func (s *ConversationService) Get(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Summary, error) {
	if _, err := s.access.EnsureParticipant(ctx, conversationID, userID); err != nil {
		return conversation.Summary{}, err
	}
	summary, err := s.repo.GetSummary(ctx, conversationID, userID)
	if err != nil {
		return conversation.Summary{}, err
	}
	list := []conversation.Summary{summary}
	if err := s.attachParticipants(ctx, userID, list); err != nil {
		return conversation.Summary{}, err
	}
	return list[0], nil
}

// attachParticipants fills each summary with the profiles of the other
// active participants.
func (s *ConversationService) attachParticipants(ctx context.Context, userID uuid.UUID, summaries []conversation.Summary) error {
	if len(summaries) == 0 {
		return nil
	}
	convIDs := make([]uuid.UUID, len(summaries))
	for i := range summaries {
		convIDs[i] = summaries[i].ID
	}
	members, err := s.repo.ListActiveParticipants(ctx, convIDs)
	if err != nil {
		return err
	}

	seen := make(map[uuid.UUID]bool)
	var userIDs []uuid.UUID
	for _, list := range members {
		for _, p := range list {
			if p.UserID != userID && !seen[p.UserID] {
				seen[p.UserID] = true
				userIDs = append(userIDs, p.UserID)
			}
		}
	}
	if len(userIDs) == 0 || s.dir == nil {
		return nil
	}
	profiles, err := s.dir.GetProfiles(ctx, userIDs)
	if err != nil {
		return err
	}

	for i := range summaries {
		for _, p := range members[summaries[i].ID] {
			if p.UserID == userID {
				continue
			}
			if profile, ok := profiles[p.UserID]; ok {
				summaries[i].Participants = append(summaries[i].Participants, profile)
			}
		}
	}
	return nil
}

func (s *ConversationService) UpdateParticipantSettings(ctx context.Context, conversationID, userID uuid.UUID, update conversation.SettingsUpdate) error {
	if update.Empty() {
		return messenger_errors.Invalid("settings", "nothing to update")
	}
	return s.repo.UpdateSettings(ctx, conversationID, userID, update)
}

func (s *ConversationService) UpdateConversationMetadata(ctx context.Context, conversationID, userID uuid.UUID, update conversation.MetadataUpdate) (conversation.Conversation, error) {
	if update.Title == nil {
		return conversation.Conversation{}, messenger_errors.Invalid("title", "nothing to update")
	}
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if conv.CreatedBy != userID {
		return conversation.Conversation{}, fmt.Errorf("%w: only the creator can rename", messenger_errors.ErrForbidden)
	}
	if conv.Type == domain.ConversationTypeDirect {
		return conversation.Conversation{}, messenger_errors.Invalid("title", "direct conversations have no title")
	}
	title, err := commands.NormalizeTitle(*update.Title)
	if err != nil {
		return conversation.Conversation{}, err
	}

	conv.Title = sql.NullString{String: title, Valid: true}
	err = s.tx.WithTx(ctx, func(tx repository.DBTX) error {
		if err := s.repo.UpdateTitle(ctx, tx, conversationID, title); err != nil {
			return err
		}
		return createOutboxEvent(ctx, s.outboxRepo, tx, events.AggregateTypeConversation, conv.ID,
			events.EventTypeConversationUpdated, events.NewConversationPayload(conv, nil))
	})
	if err != nil {
		return conversation.Conversation{}, err
	}
	return conv, nil
}

// AddParticipant invites userID into a group the actor belongs to.
func (s *ConversationService) AddParticipant(ctx context.Context, conversationID, actorID, userID uuid.UUID) (conversation.Participant, error) {
	if userID == uuid.Nil {
		return conversation.Participant{}, messenger_errors.Invalid("user_id", "is required")
	}
	if _, err := s.access.EnsureParticipant(ctx, conversationID, actorID); err != nil {
		return conversation.Participant{}, err
	}
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return conversation.Participant{}, err
	}
	if conv.Type != domain.ConversationTypeGroup {
		return conversation.Participant{}, messenger_errors.Invalid("conversation", "participants can only be added to groups")
	}
	if err := s.access.EnsureCanMessage(ctx, actorID, userID); err != nil {
		return conversation.Participant{}, err
	}

	var p conversation.Participant
	err = s.tx.WithTx(ctx, func(tx repository.DBTX) error {
		added, err := s.repo.AddParticipant(ctx, tx, conversationID, userID)
		if err != nil {
			if errors.Is(err, messenger_errors.ErrConflict) {
				return fmt.Errorf("%w: already a participant", messenger_errors.ErrConflict)
			}
			return err
		}
		p = added
		return createOutboxEvent(ctx, s.outboxRepo, tx, events.AggregateTypeConversation, conversationID, events.EventTypeParticipantAdded, events.ParticipantPayload{
			ConversationID: conversationID.String(),
			UserID:         userID.String(),
			ActorID:        actorID.String(),
		})
	})
	if err != nil {
		return conversation.Participant{}, err
	}
	return p, nil
}

// Leave ends the caller's membership. Leaving twice is a no-op.
func (s *ConversationService) Leave(ctx context.Context, conversationID, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx repository.DBTX) error {
		left, err := s.repo.Leave(ctx, tx, conversationID, userID)
		if err != nil || !left {
			return err
		}
		return createOutboxEvent(ctx, s.outboxRepo, tx, events.AggregateTypeConversation, conversationID, events.EventTypeParticipantLeft, events.ParticipantPayload{
			ConversationID: conversationID.String(),
			UserID:         userID.String(),
		})
	})
}
