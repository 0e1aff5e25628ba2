package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"coaching-messenger/internal/domain/typing"
	"coaching-messenger/internal/events"
	messenger_errors "coaching-messenger/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTyping_VisibleThenExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, f.coach, f.client)

	ind, err := f.typing.Start(ctx, convID, f.client)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(typing.TTL), ind.ExpiresAt)

	typers, err := f.typing.ListActive(ctx, convID, f.coach)
	require.NoError(t, err)
	require.Len(t, typers, 1)
	assert.Equal(t, f.client, typers[0].ID)

	self, err := f.typing.ListActive(ctx, convID, f.client)
	require.NoError(t, err)
	assert.Empty(t, self)

	f.advance(typing.TTL - time.Second)
	typers, err = f.typing.ListActive(ctx, convID, f.coach)
	require.NoError(t, err)
	assert.Len(t, typers, 1)

	f.advance(time.Second)
	typers, err = f.typing.ListActive(ctx, convID, f.coach)
	require.NoError(t, err)
	assert.Empty(t, typers)
	assert.Zero(t, fakeTypingRepo{db: f.db}.count(), "expired row swept on read")
}

func TestTyping_StartRefreshesExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, f.coach, f.client)

	_, err := f.typing.Start(ctx, convID, f.client)
	require.NoError(t, err)
	f.advance(8 * time.Second)
	_, err = f.typing.Start(ctx, convID, f.client)
	require.NoError(t, err)
	f.advance(8 * time.Second)

	typers, err := f.typing.ListActive(ctx, convID, f.coach)
	require.NoError(t, err)
	assert.Len(t, typers, 1)
}

func TestTyping_StopIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, f.coach, f.client)

	_, err := f.typing.Start(ctx, convID, f.client)
	require.NoError(t, err)
	require.NoError(t, f.typing.Stop(ctx, convID, f.client))
	require.NoError(t, f.typing.Stop(ctx, convID, f.client))

	typers, err := f.typing.ListActive(ctx, convID, f.coach)
	require.NoError(t, err)
	assert.Empty(t, typers)
}

func TestTyping_RequiresMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, f.coach, f.client)

	_, err := f.typing.Start(ctx, convID, f.stranger)
	assert.ErrorIs(t, err, messenger_errors.ErrForbidden)
	_, err = f.typing.ListActive(ctx, convID, f.stranger)
	assert.ErrorIs(t, err, messenger_errors.ErrForbidden)
}

func TestTyping_PublishesToConversationChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, f.coach, f.client)

	_, err := f.typing.Start(ctx, convID, f.client)
	require.NoError(t, err)
	require.NoError(t, f.typing.Stop(ctx, convID, f.client))

	require.Len(t, f.publisher.sent, 2)
	for i, want := range []string{events.EventTypeTypingStarted, events.EventTypeTypingStopped} {
		assert.Equal(t, events.ConversationChannel(convID.String()), f.publisher.sent[i].channel)
		var env events.Envelope
		require.NoError(t, json.Unmarshal(f.publisher.sent[i].payload, &env))
		assert.Equal(t, want, env.EventType)
		assert.Equal(t, convID.String(), env.AggregateID)
	}
}

func TestTyping_GlobalSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.direct(t, f.coach, f.client)
	second := f.direct(t, f.coach, f.client2)

	_, err := f.typing.Start(ctx, first, f.client)
	require.NoError(t, err)
	_, err = f.typing.Start(ctx, second, f.client2)
	require.NoError(t, err)

	n, err := f.typing.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.advance(typing.TTL)
	n, err = f.typing.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestTypingSweeper_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewTypingSweeper(f.typing, 5*time.Millisecond, nil).Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
