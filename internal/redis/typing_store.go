package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"coaching-messenger/internal/domain/typing"
	messenger_errors "coaching-messenger/pkg/errors"
)

// Typing key patterns:
// - typing:{conversation_id} - sorted set, member user id, score expires_at (unix ms)
// - typing:conversations - set of conversation ids with live indicators
const (
	typingKeyPrefix     = "typing:"
	typingConversations = "typing:conversations"
)

// TypingStore keeps typing indicators in Redis. Expiry is decided by the
// score against the caller's clock, not by key TTLs; the key TTL only
// reclaims idle conversations.
type TypingStore struct {
	client *goredis.Client
}

func NewTypingStore(client *goredis.Client) *TypingStore {
	return &TypingStore{client: client}
}

func typingKey(conversationID uuid.UUID) string {
	return typingKeyPrefix + conversationID.String()
}

func msScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (s *TypingStore) Upsert(ctx context.Context, ind typing.Indicator) error {
	key := typingKey(ind.ConversationID)
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, goredis.Z{
		Score:  float64(ind.ExpiresAt.UnixMilli()),
		Member: ind.UserID.String(),
	})
	pipe.Expire(ctx, key, 3*typing.TTL)
	pipe.SAdd(ctx, typingConversations, ind.ConversationID.String())
	_, err := pipe.Exec(ctx)
	return wrapRedisErr(err)
}

func (s *TypingStore) Delete(ctx context.Context, conversationID, userID uuid.UUID) error {
	return wrapRedisErr(s.client.ZRem(ctx, typingKey(conversationID), userID.String()).Err())
}

func (s *TypingStore) ListActive(ctx context.Context, conversationID uuid.UUID, now time.Time) ([]typing.Indicator, error) {
	entries, err := s.client.ZRangeByScoreWithScores(ctx, typingKey(conversationID), &goredis.ZRangeBy{
		Min: "(" + msScore(now),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, wrapRedisErr(err)
	}

	out := make([]typing.Indicator, 0, len(entries))
	for _, z := range entries {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		userID, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		expires := time.UnixMilli(int64(z.Score)).UTC()
		out = append(out, typing.Indicator{
			ConversationID: conversationID,
			UserID:         userID,
			StartedAt:      expires.Add(-typing.TTL),
			ExpiresAt:      expires,
		})
	}
	return out, nil
}

// SweepConversation drops indicators with expires_at <= now.
func (s *TypingStore) SweepConversation(ctx context.Context, conversationID uuid.UUID, now time.Time) (int64, error) {
	key := typingKey(conversationID)
	removed, err := s.client.ZRemRangeByScore(ctx, key, "-inf", msScore(now)).Result()
	if err != nil {
		return 0, wrapRedisErr(err)
	}
	left, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return removed, wrapRedisErr(err)
	}
	if left == 0 {
		if err := s.client.SRem(ctx, typingConversations, conversationID.String()).Err(); err != nil {
			return removed, wrapRedisErr(err)
		}
	}
	return removed, nil
}

func (s *TypingStore) SweepAll(ctx context.Context, now time.Time) (int64, error) {
	ids, err := s.client.SMembers(ctx, typingConversations).Result()
	if err != nil {
		return 0, wrapRedisErr(err)
	}
	var total int64
	for _, raw := range ids {
		conversationID, err := uuid.Parse(raw)
		if err != nil {
			_ = s.client.SRem(ctx, typingConversations, raw).Err()
			continue
		}
		n, err := s.SweepConversation(ctx, conversationID, now)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// wrapRedisErr marks connectivity failures as transient so callers can retry.
func wrapRedisErr(err error) error {
	if err == nil || errors.Is(err, goredis.Nil) {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return messenger_errors.Transient(fmt.Errorf("redis: %w", err))
}
