package services

import (
	"context"
	"testing"

	"coaching-messenger/internal/domain/conversation"
	"coaching-messenger/internal/events"
	messenger_errors "coaching-messenger/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkRead_ZeroUntilAnotherSenderWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, f.coach, f.client)
	f.sendN(t, convID, []uuid.UUID{f.coach}, 3)

	unread, err := f.reads.UnreadCount(ctx, convID, f.client)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	require.NoError(t, f.reads.MarkRead(ctx, convID, f.client))
	unread, err = f.reads.UnreadCount(ctx, convID, f.client)
	require.NoError(t, err)
	assert.Zero(t, unread)

	f.send(t, convID, f.client, "my own reply")
	unread, err = f.reads.UnreadCount(ctx, convID, f.client)
	require.NoError(t, err)
	assert.Zero(t, unread, "own messages never count")

	require.NoError(t, f.reads.MarkRead(ctx, convID, f.client))
	unread, err = f.reads.UnreadCount(ctx, convID, f.client)
	require.NoError(t, err)
	assert.Zero(t, unread)

	f.send(t, convID, f.coach, "new from coach")
	unread, err = f.reads.UnreadCount(ctx, convID, f.client)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	assert.Equal(t, 2, countOf(f.db.eventTypes(), events.EventTypeReceiptRead))
}

func TestMarkRead_RequiresActiveMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, f.coach, f.client)

	assert.ErrorIs(t, f.reads.MarkRead(ctx, convID, f.stranger), messenger_errors.ErrNotFound)

	require.NoError(t, f.conversations.Leave(ctx, convID, f.client))
	assert.ErrorIs(t, f.reads.MarkRead(ctx, convID, f.client), messenger_errors.ErrNotFound)
	assert.Zero(t, countOf(f.db.eventTypes(), events.EventTypeReceiptRead))
}

func TestTotalUnread_SkipsMutedAndArchived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	withDana := f.direct(t, f.coach, f.client)
	withEli := f.direct(t, f.coach, f.client2)
	f.sendN(t, withDana, []uuid.UUID{f.client}, 2)
	f.sendN(t, withEli, []uuid.UUID{f.client2}, 3)

	total, err := f.reads.TotalUnread(ctx, f.coach)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	muted := true
	require.NoError(t, f.conversations.UpdateParticipantSettings(ctx, withEli, f.coach, conversation.SettingsUpdate{Muted: &muted}))
	total, err = f.reads.TotalUnread(ctx, f.coach)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestUnreadCount_RequiresActiveMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	convID := f.direct(t, f.coach, f.client)
	f.send(t, convID, f.coach, "hello")

	_, err := f.reads.UnreadCount(ctx, uuid.New(), f.client)
	assert.ErrorIs(t, err, messenger_errors.ErrNotFound)

	_, err = f.reads.UnreadCount(ctx, convID, f.stranger)
	assert.ErrorIs(t, err, messenger_errors.ErrForbidden)

	unread, err := f.reads.UnreadCount(ctx, convID, f.client)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}
