package services

import (
	"context"

	"coaching-messenger/internal/commands"
	"coaching-messenger/internal/domain/message"
	"coaching-messenger/internal/events"
	"coaching-messenger/internal/proxy"
	"coaching-messenger/internal/repository"

	"github.com/google/uuid"
)

type ReactionService struct {
	tx          repository.Transactor
	reactions   repository.ReactionRepository
	messageRepo repository.MessageRepository
	outboxRepo  repository.OutboxRepository
	access      *proxy.AccessPolicy
}

func NewReactionService(tx repository.Transactor, reactions repository.ReactionRepository, messageRepo repository.MessageRepository, outboxRepo repository.OutboxRepository, access *proxy.AccessPolicy) *ReactionService {
	return &ReactionService{tx: tx, reactions: reactions, messageRepo: messageRepo, outboxRepo: outboxRepo, access: access}
}

// Add records one reaction. Reacting twice with the same emoji is
// ErrConflict.
func (s *ReactionService) Add(ctx context.Context, messageID, userID uuid.UUID, emoji string) (message.Reaction, error) {
	if err := commands.ValidateEmoji(emoji); err != nil {
		return message.Reaction{}, err
	}
	msg, err := s.authorize(ctx, messageID, userID)
	if err != nil {
		return message.Reaction{}, err
	}

	r := message.Reaction{ID: uuid.New(), MessageID: messageID, UserID: userID, Emoji: emoji}
	err = s.tx.WithTx(ctx, func(tx repository.DBTX) error {
		if err := s.reactions.Add(ctx, tx, &r); err != nil {
			return err
		}
		return createOutboxEvent(ctx, s.outboxRepo, tx, events.AggregateTypeConversation, msg.ConversationID, events.EventTypeReactionAdded, reactionPayload(msg, userID, emoji))
	})
	if err != nil {
		return message.Reaction{}, err
	}
	return r, nil
}

// Remove deletes the caller's reaction if there is one.
func (s *ReactionService) Remove(ctx context.Context, messageID, userID uuid.UUID, emoji string) error {
	if err := commands.ValidateEmoji(emoji); err != nil {
		return err
	}
	msg, err := s.authorize(ctx, messageID, userID)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx repository.DBTX) error {
		removed, err := s.reactions.Remove(ctx, tx, messageID, userID, emoji)
		if err != nil || !removed {
			return err
		}
		return createOutboxEvent(ctx, s.outboxRepo, tx, events.AggregateTypeConversation, msg.ConversationID, events.EventTypeReactionRemoved, reactionPayload(msg, userID, emoji))
	})
}

// List groups the message's reactions by emoji in first-reacted order.
func (s *ReactionService) List(ctx context.Context, messageID, userID uuid.UUID) ([]message.ReactionSummary, error) {
	if _, err := s.authorize(ctx, messageID, userID); err != nil {
		return nil, err
	}
	reactions, err := s.reactions.ListByMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return summarizeReactions(reactions), nil
}

func summarizeReactions(reactions []message.Reaction) []message.ReactionSummary {
	out := []message.ReactionSummary{}
	index := make(map[string]int)
	for _, r := range reactions {
		i, ok := index[r.Emoji]
		if !ok {
			i = len(out)
			index[r.Emoji] = i
			out = append(out, message.ReactionSummary{Emoji: r.Emoji})
		}
		out[i].Count++
		out[i].UserIDs = append(out[i].UserIDs, r.UserID)
	}
	return out
}

func (s *ReactionService) authorize(ctx context.Context, messageID, userID uuid.UUID) (message.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if _, err := s.access.EnsureParticipant(ctx, msg.ConversationID, userID); err != nil {
		return message.Message{}, err
	}
	return msg, nil
}

func reactionPayload(msg message.Message, userID uuid.UUID, emoji string) events.ReactionPayload {
	return events.ReactionPayload{
		MessageID:      msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		UserID:         userID.String(),
		Emoji:          emoji,
	}
}
