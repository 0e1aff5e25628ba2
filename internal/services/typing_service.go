package services

import (
	"context"
	"encoding/json"
	"time"

	"coaching-messenger/internal/domain/typing"
	"coaching-messenger/internal/domain/user"
	"coaching-messenger/internal/events"
	"coaching-messenger/internal/proxy"
	"coaching-messenger/internal/repository"
	"coaching-messenger/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TypingService tracks who is typing where. Indicators are ephemeral and
// their events skip the outbox.
type TypingService struct {
	repo      repository.TypingRepository
	access    *proxy.AccessPolicy
	dir       UserDirectory
	publisher events.Publisher
	now       func() time.Time
	log       *logger.Logger
}

func NewTypingService(repo repository.TypingRepository, access *proxy.AccessPolicy, dir UserDirectory, publisher events.Publisher, log *logger.Logger) *TypingService {
	if log == nil {
		log = logger.NewNop()
	}
	return &TypingService{repo: repo, access: access, dir: dir, publisher: publisher, now: time.Now, log: log}
}

// WithClock replaces the time source.
func (s *TypingService) WithClock(now func() time.Time) *TypingService {
	s.now = now
	return s
}

// Start marks userID as typing until now+TTL. Calling it again refreshes
// the expiry.
func (s *TypingService) Start(ctx context.Context, conversationID, userID uuid.UUID) (typing.Indicator, error) {
	if _, err := s.access.EnsureParticipant(ctx, conversationID, userID); err != nil {
		return typing.Indicator{}, err
	}
	now := s.now()
	ind := typing.Indicator{
		ConversationID: conversationID,
		UserID:         userID,
		StartedAt:      now,
		ExpiresAt:      now.Add(typing.TTL),
	}
	if err := s.repo.Upsert(ctx, ind); err != nil {
		return typing.Indicator{}, err
	}
	expires := ind.ExpiresAt.UTC()
	s.publish(ctx, events.EventTypeTypingStarted, events.TypingPayload{
		ConversationID: conversationID.String(),
		UserID:         userID.String(),
		ExpiresAt:      &expires,
	})
	return ind, nil
}

func (s *TypingService) Stop(ctx context.Context, conversationID, userID uuid.UUID) error {
	if _, err := s.access.EnsureParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.clear(ctx, conversationID, userID)
}

// clear deletes the indicator without a membership check. Send uses it
// right after it has verified the sender.
func (s *TypingService) clear(ctx context.Context, conversationID, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, conversationID, userID); err != nil {
		return err
	}
	s.publish(ctx, events.EventTypeTypingStopped, events.TypingPayload{
		ConversationID: conversationID.String(),
		UserID:         userID.String(),
	})
	return nil
}

// ListActive returns the profiles of everyone typing in the conversation
// except the caller. Expired rows of this conversation are swept first.
func (s *TypingService) ListActive(ctx context.Context, conversationID, callerID uuid.UUID) ([]user.Profile, error) {
	if _, err := s.access.EnsureParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	now := s.now()
	if _, err := s.repo.SweepConversation(ctx, conversationID, now); err != nil {
		return nil, err
	}
	indicators, err := s.repo.ListActive(ctx, conversationID, now)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(indicators))
	for _, ind := range indicators {
		if ind.UserID == callerID || ind.Expired(now) {
			continue
		}
		ids = append(ids, ind.UserID)
	}
	if len(ids) == 0 {
		return []user.Profile{}, nil
	}
	profiles, err := profilesFor(ctx, s.dir, ids)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// Sweep removes expired indicators across all conversations.
func (s *TypingService) Sweep(ctx context.Context) (int64, error) {
	return s.repo.SweepAll(ctx, s.now())
}

func (s *TypingService) publish(ctx context.Context, eventType string, payload events.TypingPayload) {
	if s.publisher == nil {
		return
	}
	l := s.log.WithContext(ctx)
	env, err := events.NewEnvelope(eventType, events.AggregateTypeConversation, payload.ConversationID, s.now(), payload)
	if err != nil {
		l.Warn("failed to build typing event", zap.Error(err))
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		l.Warn("failed to encode typing event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, events.ResolveChannel(env), data); err != nil {
		l.Warn("failed to publish typing event", zap.String("event_type", eventType), zap.Error(err))
	}
}

// TypingSweeper runs Sweep on a fixed interval until its context ends.
type TypingSweeper struct {
	svc      *TypingService
	interval time.Duration
	log      *logger.Logger
}

func NewTypingSweeper(svc *TypingService, interval time.Duration, log *logger.Logger) *TypingSweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &TypingSweeper{svc: svc, interval: interval, log: log}
}

func (w *TypingSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.svc.Sweep(ctx)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Warnf("typing sweep failed: %v", err)
				}
				continue
			}
			if n > 0 {
				w.log.Logger.Debug("typing sweep", zap.Int64("removed", n))
			}
		}
	}
}
