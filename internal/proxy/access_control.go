package proxy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/conversation"
	"coaching-messenger/pkg/logger"
	messenger_errors "coaching-messenger/pkg/errors"
)

//go:generate mockgen -source=access_control.go -destination=mock_proxy_test.go -package=proxy

// RoleResolver looks up a user's role in the user directory.
type RoleResolver interface {
	GetRole(ctx context.Context, id uuid.UUID) (domain.Role, error)
}

// MessagingRule evaluates the backing store's can_user_message_user rule.
type MessagingRule interface {
	CanMessage(ctx context.Context, senderID, recipientID uuid.UUID) (bool, error)
}

// MembershipReader is the slice of the conversation store the policy reads.
type MembershipReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	GetActiveParticipant(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Participant, error)
}

// AccessPolicy decides who may message whom and who may act inside a
// conversation. Every failure path denies.
type AccessPolicy struct {
	roles   RoleResolver
	rule    MessagingRule
	members MembershipReader
	log     *logger.Logger
}

func NewAccessPolicy(roles RoleResolver, rule MessagingRule, members MembershipReader, log *logger.Logger) *AccessPolicy {
	if log == nil {
		log = logger.NewNop()
	}
	return &AccessPolicy{roles: roles, rule: rule, members: members, log: log}
}

// CanMessage reports whether sender may open or use a conversation with
// recipient. It has no side effects.
func (a *AccessPolicy) CanMessage(ctx context.Context, senderID, recipientID uuid.UUID) bool {
	l := a.log.WithContext(ctx).With(zap.String("sender_id", senderID.String()), zap.String("recipient_id", recipientID.String()))

	if senderID == uuid.Nil || recipientID == uuid.Nil || senderID == recipientID {
		l.Warn("messaging denied: invalid pair")
		return false
	}
	if a.roles == nil || a.rule == nil {
		l.Warn("messaging denied: policy not configured")
		return false
	}

	for _, id := range []uuid.UUID{senderID, recipientID} {
		role, err := a.roles.GetRole(ctx, id)
		if err != nil {
			l.Warn("messaging denied: role lookup failed", zap.String("user_id", id.String()), zap.Error(err))
			return false
		}
		if role == "" {
			l.Warn("messaging denied: user has no role", zap.String("user_id", id.String()))
			return false
		}
	}

	ok, err := a.rule.CanMessage(ctx, senderID, recipientID)
	if err != nil {
		l.Warn("messaging denied: rule evaluation failed", zap.Error(err))
		return false
	}
	if !ok {
		l.Warn("messaging denied: no relationship")
	}
	return ok
}

// EnsureCanMessage is CanMessage as an error for service code.
func (a *AccessPolicy) EnsureCanMessage(ctx context.Context, senderID, recipientID uuid.UUID) error {
	if !a.CanMessage(ctx, senderID, recipientID) {
		return fmt.Errorf("%w: cannot message this user", messenger_errors.ErrForbidden)
	}
	return nil
}

// EnsureParticipant returns the caller's active membership row. A missing
// conversation is ErrNotFound; an existing one the user is not active in is
// ErrForbidden.
func (a *AccessPolicy) EnsureParticipant(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Participant, error) {
	if a.members == nil {
		return conversation.Participant{}, messenger_errors.ErrForbidden
	}
	p, err := a.members.GetActiveParticipant(ctx, conversationID, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, messenger_errors.ErrNotFound) {
		return conversation.Participant{}, err
	}
	if _, err := a.members.GetByID(ctx, conversationID); err != nil {
		return conversation.Participant{}, err
	}
	return conversation.Participant{}, fmt.Errorf("%w: not a participant", messenger_errors.ErrForbidden)
}
