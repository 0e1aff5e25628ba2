package httpdto

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/conversation"
	"coaching-messenger/internal/domain/message"
	"coaching-messenger/internal/domain/user"
	messenger_errors "coaching-messenger/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMessagePage_Cursor(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	msgs := []message.Message{
		{ID: uuid.New(), CreatedAt: base},
		{ID: uuid.New(), CreatedAt: base.Add(time.Second)},
	}

	full := FromMessagePage(msgs, 2)
	require.Len(t, full.Messages, 2)
	assert.Equal(t, "2026-03-01T09:00:00Z", full.NextBefore)
	assert.Equal(t, msgs[0].ID.String(), full.NextBeforeID)
	assert.NotNil(t, full.Messages[0].Reactions)
	assert.NotNil(t, full.Messages[0].Attachments)

	short := FromMessagePage(msgs, 5)
	assert.Empty(t, short.NextBefore)
	assert.Empty(t, short.NextBeforeID)

	empty := FromMessagePage(nil, 5)
	assert.NotNil(t, empty.Messages)
}

func TestListMessagesRequest_ParseBefore(t *testing.T) {
	zero, err := ListMessagesRequest{}.ParseBefore()
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	at, err := ListMessagesRequest{Before: "2026-03-01T09:00:00.123456Z"}.ParseBefore()
	require.NoError(t, err)
	assert.Equal(t, 123456000, at.Nanosecond())

	_, err = ListMessagesRequest{Before: "yesterday"}.ParseBefore()
	assert.Error(t, err)

	id, err := ListMessagesRequest{}.ParseBeforeID()
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)

	want := uuid.New()
	id, err = ListMessagesRequest{BeforeID: want.String()}.ParseBeforeID()
	require.NoError(t, err)
	assert.Equal(t, want, id)

	_, err = ListMessagesRequest{BeforeID: "x"}.ParseBeforeID()
	assert.Error(t, err)
}

func TestFromSummary(t *testing.T) {
	other := user.Profile{ID: uuid.New(), DisplayName: "Client Dana", Role: domain.RoleClient}
	last := message.Message{ID: uuid.New(), Content: "see you", Type: domain.MessageTypeText}
	s := conversation.Summary{
		Conversation: conversation.Conversation{
			ID:    uuid.New(),
			Type:  domain.ConversationTypeGroup,
			Title: sql.NullString{String: "Cohort", Valid: true},
		},
		Membership:   conversation.Participant{IsMuted: true},
		Participants: []user.Profile{other},
		UnreadCount:  4,
		LastMessage:  &last,
	}

	dto := FromSummary(s)
	assert.Equal(t, "Cohort", dto.Title)
	assert.Equal(t, "group", dto.Type)
	assert.True(t, dto.IsMuted)
	assert.Empty(t, dto.LastMessageAt)
	assert.Equal(t, int64(4), dto.UnreadCount)
	require.Len(t, dto.Participants, 1)
	assert.Equal(t, "client", dto.Participants[0].Role)
	require.NotNil(t, dto.LastMessage)
	assert.Equal(t, "see you", dto.LastMessage.Content)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "INVALID_REQUEST", ErrorCode(messenger_errors.Invalid("emoji", "is required")))
	assert.Equal(t, "CONFLICT", ErrorCode(messenger_errors.ErrConflict))
	assert.Equal(t, "UNAVAILABLE", ErrorCode(messenger_errors.Transient(errors.New("x"))))
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(errors.New("x")))

	assert.Equal(t, "internal error", ErrorMessage(errors.New("pq: relation missing")))
	assert.Equal(t, "forbidden", ErrorMessage(messenger_errors.ErrForbidden))
}
