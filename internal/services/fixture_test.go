package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"coaching-messenger/internal/commands"
	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/message"
	"coaching-messenger/internal/proxy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db        *memDB
	publisher *fakePublisher
	now       time.Time

	coach    uuid.UUID
	client   uuid.UUID
	client2  uuid.UUID
	stranger uuid.UUID
	admin    uuid.UUID

	conversations *ConversationService
	messages      *MessageService
	reads         *ReadService
	typing        *TypingService
	reactions     *ReactionService
	attachments   *AttachmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newMemDB()
	f := &fixture{
		db:        db,
		publisher: &fakePublisher{},
		now:       time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	f.coach = db.addUser("Coach Carla", domain.RoleCoach)
	f.client = db.addUser("Client Dana", domain.RoleClient)
	f.client2 = db.addUser("Client Eli", domain.RoleClient)
	f.stranger = db.addUser("Stranger Finn", domain.RoleClient)
	f.admin = db.addUser("Admin Gus", domain.RoleAdmin)
	db.relate(f.coach, f.client)
	db.relate(f.coach, f.client2)

	convRepo := fakeConvRepo{db: db}
	users := fakeUsers{db: db}
	outboxRepo := fakeOutbox{db: db}
	access := proxy.NewAccessPolicy(users, users, convRepo, nil)
	store := fakeObjectStore{base: "https://cdn.test", objects: map[string]bool{}}

	f.conversations = NewConversationService(fakeTx{}, convRepo, outboxRepo, access, users, nil)
	f.reads = NewReadService(fakeTx{}, convRepo, outboxRepo, access)
	f.typing = NewTypingService(fakeTypingRepo{db: db}, access, users, f.publisher, nil).
		WithClock(func() time.Time { return f.now })
	f.attachments = NewAttachmentService(fakeAttachmentRepo{db: db}, fakeMessageRepo{db: db}, access, store, nil)
	f.reactions = NewReactionService(fakeTx{}, fakeReactionRepo{db: db}, fakeMessageRepo{db: db}, outboxRepo, access)
	f.messages = NewMessageService(MessageServiceDeps{
		Tx:          fakeTx{},
		Messages:    fakeMessageRepo{db: db},
		Convs:       convRepo,
		Reactions:   fakeReactionRepo{db: db},
		Attachments: fakeAttachmentRepo{db: db},
		Outbox:      outboxRepo,
		Access:      access,
		Linker:      f.attachments,
		Typing:      f.typing,
	})
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) direct(t *testing.T, a, b uuid.UUID) uuid.UUID {
	t.Helper()
	id, err := f.conversations.GetOrCreateDirect(context.Background(), a, b)
	require.NoError(t, err)
	return id
}

func (f *fixture) send(t *testing.T, convID, sender uuid.UUID, content string) message.Message {
	t.Helper()
	msg, err := f.messages.Send(context.Background(), commands.SendMessageCommand{
		ConversationID: convID,
		SenderID:       sender,
		Content:        content,
	})
	require.NoError(t, err)
	return msg
}

func (f *fixture) sendN(t *testing.T, convID uuid.UUID, senders []uuid.UUID, n int) []message.Message {
	t.Helper()
	out := make([]message.Message, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, f.send(t, convID, senders[i%len(senders)], fmt.Sprintf("message %02d", i)))
	}
	return out
}

func countOf(items []string, want string) int {
	n := 0
	for _, item := range items {
		if item == want {
			n++
		}
	}
	return n
}
