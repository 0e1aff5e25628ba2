package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"coaching-messenger/internal/domain"
	"coaching-messenger/internal/domain/conversation"
	"coaching-messenger/internal/domain/message"
	"coaching-messenger/internal/domain/outbox"
	"coaching-messenger/internal/domain/typing"
	"coaching-messenger/internal/domain/user"
	"coaching-messenger/internal/repository"
	messenger_errors "coaching-messenger/pkg/errors"

	"github.com/google/uuid"
)

// memDB is an in-memory stand-in for the Postgres schema. Every fake
// repository below shares one and takes its lock per call, which gives the
// same per-statement atomicity the stored procedures provide.
type memDB struct {
	mu    sync.Mutex
	clock time.Time

	convs        map[uuid.UUID]*conversation.Conversation
	directKeys   map[string]uuid.UUID
	participants []*conversation.Participant
	messages     []*message.Message
	reactions    []*message.Reaction
	attachments  []message.Attachment
	typing       map[[2]uuid.UUID]typing.Indicator
	outbox       []outbox.OutboxEvent

	roles     map[uuid.UUID]domain.Role
	profiles  map[uuid.UUID]user.Profile
	relations map[[2]uuid.UUID]bool

	attachErr error
	outboxErr error
}

func newMemDB() *memDB {
	return &memDB{
		clock:      time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		convs:      make(map[uuid.UUID]*conversation.Conversation),
		directKeys: make(map[string]uuid.UUID),
		typing:     make(map[[2]uuid.UUID]typing.Indicator),
		roles:      make(map[uuid.UUID]domain.Role),
		profiles:   make(map[uuid.UUID]user.Profile),
		relations:  make(map[[2]uuid.UUID]bool),
	}
}

// tick plays the part of clock_timestamp(): strictly increasing.
func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Millisecond)
	return db.clock
}

func (db *memDB) addUser(name string, role domain.Role) uuid.UUID {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := uuid.New()
	db.roles[id] = role
	db.profiles[id] = user.Profile{ID: id, DisplayName: name, Role: role}
	return id
}

func (db *memDB) relate(coach, client uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.relations[[2]uuid.UUID{coach, client}] = true
}

func (db *memDB) activeParticipant(convID, userID uuid.UUID) *conversation.Participant {
	for _, p := range db.participants {
		if p.ConversationID == convID && p.UserID == userID && p.Active() {
			return p
		}
	}
	return nil
}

func (db *memDB) insertParticipant(convID, userID uuid.UUID) (conversation.Participant, error) {
	if db.activeParticipant(convID, userID) != nil {
		return conversation.Participant{}, fmt.Errorf("%w: duplicate participant", messenger_errors.ErrConflict)
	}
	p := &conversation.Participant{ID: uuid.New(), ConversationID: convID, UserID: userID, JoinedAt: db.tick()}
	db.participants = append(db.participants, p)
	return *p, nil
}

func (db *memDB) unread(convID, userID uuid.UUID) int64 {
	p := db.activeParticipant(convID, userID)
	if p == nil {
		return 0
	}
	var n int64
	for _, m := range db.messages {
		if m.ConversationID != convID || m.SenderID == userID {
			continue
		}
		if !p.LastReadAt.Valid || m.CreatedAt.After(p.LastReadAt.Time) {
			n++
		}
	}
	return n
}

func (db *memDB) countConversations() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.convs)
}

func (db *memDB) eventTypes() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]string, 0, len(db.outbox))
	for _, e := range db.outbox {
		out = append(out, e.EventType)
	}
	return out
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx repository.DBTX) error) error {
	return fn(nil)
}

type fakeConvRepo struct{ db *memDB }

func (r fakeConvRepo) GetOrCreateDirect(ctx context.Context, tx repository.DBTX, a, b uuid.UUID) (uuid.UUID, bool, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	lo, hi := a.String(), b.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	key := lo + ":" + hi
	id, exists := db.directKeys[key]
	if !exists {
		id = uuid.New()
		now := db.tick()
		db.convs[id] = &conversation.Conversation{ID: id, Type: domain.ConversationTypeDirect, CreatedBy: a, CreatedAt: now, UpdatedAt: now}
		db.directKeys[key] = id
	}
	for _, u := range []uuid.UUID{a, b} {
		if db.activeParticipant(id, u) == nil {
			if _, err := db.insertParticipant(id, u); err != nil {
				return uuid.Nil, false, err
			}
		}
	}
	return id, !exists, nil
}

func (r fakeConvRepo) Create(ctx context.Context, tx repository.DBTX, c *conversation.Conversation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.tick()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	r.db.convs[c.ID] = &cp
	return nil
}

func (r fakeConvRepo) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.convs[id]
	if !ok {
		return conversation.Conversation{}, messenger_errors.ErrNotFound
	}
	return *c, nil
}

func (r fakeConvRepo) LockForSend(ctx context.Context, tx repository.DBTX, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.convs[id]; !ok {
		return messenger_errors.ErrNotFound
	}
	return nil
}

func (r fakeConvRepo) UpdateTitle(ctx context.Context, tx repository.DBTX, id uuid.UUID, title string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.convs[id]
	if !ok {
		return messenger_errors.ErrNotFound
	}
	c.Title.String, c.Title.Valid = title, true
	c.UpdatedAt = r.db.tick()
	return nil
}

func (r fakeConvRepo) TouchLastMessage(ctx context.Context, tx repository.DBTX, id uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.convs[id]
	if !ok {
		return messenger_errors.ErrNotFound
	}
	if !c.LastMessageAt.Valid || at.After(c.LastMessageAt.Time) {
		c.LastMessageAt.Time, c.LastMessageAt.Valid = at, true
	}
	c.UpdatedAt = at
	return nil
}

func (r fakeConvRepo) summary(c *conversation.Conversation, p *conversation.Participant) conversation.Summary {
	s := conversation.Summary{Conversation: *c, Membership: *p, UnreadCount: r.db.unread(c.ID, p.UserID)}
	for i := len(r.db.messages) - 1; i >= 0; i-- {
		if m := r.db.messages[i]; m.ConversationID == c.ID {
			cp := *m
			s.LastMessage = &cp
			break
		}
	}
	return s
}

func (r fakeConvRepo) ListForUser(ctx context.Context, userID uuid.UUID, opts conversation.ListOptions) ([]conversation.Summary, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	term := strings.ToLower(opts.Search)
	var out []conversation.Summary
	for _, p := range db.participants {
		if p.UserID != userID || !p.Active() || (p.IsArchived && !opts.IncludeArchived) {
			continue
		}
		c := db.convs[p.ConversationID]
		if term != "" && !r.matches(c, userID, term) {
			continue
		}
		out = append(out, r.summary(c, p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessageAt, out[j].LastMessageAt
		if a.Valid != b.Valid {
			return a.Valid
		}
		if a.Valid && !a.Time.Equal(b.Time) {
			return a.Time.After(b.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if opts.Offset >= len(out) {
		return nil, nil
	}
	out = out[opts.Offset:]
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r fakeConvRepo) matches(c *conversation.Conversation, userID uuid.UUID, term string) bool {
	if c.Title.Valid && strings.Contains(strings.ToLower(c.Title.String), term) {
		return true
	}
	for _, p := range r.db.participants {
		if p.ConversationID == c.ID && p.UserID != userID && p.Active() &&
			strings.Contains(strings.ToLower(r.db.profiles[p.UserID].DisplayName), term) {
			return true
		}
	}
	return false
}

func (r fakeConvRepo) GetSummary(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Summary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p := r.db.activeParticipant(conversationID, userID)
	if p == nil {
		return conversation.Summary{}, messenger_errors.ErrNotFound
	}
	return r.summary(r.db.convs[conversationID], p), nil
}

func (r fakeConvRepo) AddParticipant(ctx context.Context, tx repository.DBTX, conversationID, userID uuid.UUID) (conversation.Participant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.convs[conversationID]; !ok {
		return conversation.Participant{}, messenger_errors.ErrNotFound
	}
	return r.db.insertParticipant(conversationID, userID)
}

func (r fakeConvRepo) GetActiveParticipant(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Participant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p := r.db.activeParticipant(conversationID, userID)
	if p == nil {
		return conversation.Participant{}, messenger_errors.ErrNotFound
	}
	return *p, nil
}

func (r fakeConvRepo) ListActiveParticipants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]conversation.Participant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[uuid.UUID][]conversation.Participant)
	for _, p := range r.db.participants {
		if want[p.ConversationID] && p.Active() {
			out[p.ConversationID] = append(out[p.ConversationID], *p)
		}
	}
	return out, nil
}

func (r fakeConvRepo) UpdateSettings(ctx context.Context, conversationID, userID uuid.UUID, update conversation.SettingsUpdate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p := r.db.activeParticipant(conversationID, userID)
	if p == nil {
		return messenger_errors.ErrNotFound
	}
	if update.Archived != nil {
		p.IsArchived = *update.Archived
	}
	if update.Muted != nil {
		p.IsMuted = *update.Muted
	}
	return nil
}

func (r fakeConvRepo) Leave(ctx context.Context, tx repository.DBTX, conversationID, userID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p := r.db.activeParticipant(conversationID, userID)
	if p == nil {
		return false, nil
	}
	p.LeftAt.Time, p.LeftAt.Valid = r.db.tick(), true
	return true, nil
}

func (r fakeConvRepo) AdvanceReadWatermark(ctx context.Context, tx repository.DBTX, conversationID, userID uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p := r.db.activeParticipant(conversationID, userID)
	if p != nil && (!p.LastReadAt.Valid || at.After(p.LastReadAt.Time)) {
		p.LastReadAt.Time, p.LastReadAt.Valid = at, true
	}
	return nil
}

func (r fakeConvRepo) MarkRead(ctx context.Context, tx repository.DBTX, conversationID, userID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p := r.db.activeParticipant(conversationID, userID)
	if p == nil {
		return false, nil
	}
	p.LastReadAt.Time, p.LastReadAt.Valid = r.db.tick(), true
	return true, nil
}

func (r fakeConvRepo) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.unread(conversationID, userID), nil
}

func (r fakeConvRepo) TotalUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, p := range r.db.participants {
		if p.UserID == userID && p.Active() && !p.IsArchived && !p.IsMuted {
			n += r.db.unread(p.ConversationID, userID)
		}
	}
	return n, nil
}

type fakeMessageRepo struct{ db *memDB }

func (r fakeMessageRepo) Create(ctx context.Context, tx repository.DBTX, m *message.Message) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.convs[m.ConversationID]; !ok {
		return messenger_errors.ErrNotFound
	}
	if m.ReplyToID.Valid && db.findMessage(m.ReplyToID.UUID) == nil {
		return fmt.Errorf("%w: reply target", messenger_errors.ErrNotFound)
	}
	if m.ClientMessageID.Valid {
		for _, existing := range db.messages {
			if existing.SenderID == m.SenderID && existing.ClientMessageID == m.ClientMessageID {
				return fmt.Errorf("%w: client message id", messenger_errors.ErrConflict)
			}
		}
	}
	m.Status = domain.MessageStatusSent
	m.CreatedAt = db.tick()
	cp := *m
	cp.Attachments, cp.Reactions = nil, nil
	db.messages = append(db.messages, &cp)
	return nil
}

func (db *memDB) findMessage(id uuid.UUID) *message.Message {
	for _, m := range db.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (r fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m := r.db.findMessage(id)
	if m == nil {
		return message.Message{}, messenger_errors.ErrNotFound
	}
	return *m, nil
}

func (r fakeMessageRepo) GetByClientID(ctx context.Context, senderID uuid.UUID, clientMessageID string) (message.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.messages {
		if m.SenderID == senderID && m.ClientMessageID.Valid && m.ClientMessageID.String == clientMessageID {
			return *m, nil
		}
	}
	return message.Message{}, messenger_errors.ErrNotFound
}

func (r fakeMessageRepo) matching(conversationID uuid.UUID, search string) []message.Message {
	term := strings.ToLower(search)
	var out []message.Message
	for _, m := range r.db.messages {
		if m.ConversationID == conversationID && strings.Contains(strings.ToLower(m.Content), term) {
			out = append(out, *m)
		}
	}
	return out
}

func (r fakeMessageRepo) Page(ctx context.Context, conversationID uuid.UUID, opts message.PageOptions) ([]message.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var older []message.Message
	for _, m := range r.matching(conversationID, opts.Search) {
		tie := opts.BeforeID != uuid.Nil && m.CreatedAt.Equal(opts.Before) && m.ID.String() < opts.BeforeID.String()
		if opts.Before.IsZero() || m.CreatedAt.Before(opts.Before) || tie {
			older = append(older, m)
		}
	}
	if len(older) > opts.Limit {
		older = older[len(older)-opts.Limit:]
	}
	return older, nil
}

func (r fakeMessageRepo) CountMatching(ctx context.Context, conversationID uuid.UUID, search string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.matching(conversationID, search))), nil
}

type fakeReactionRepo struct{ db *memDB }

func (r fakeReactionRepo) Add(ctx context.Context, tx repository.DBTX, rc *message.Reaction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.reactions {
		if existing.MessageID == rc.MessageID && existing.UserID == rc.UserID && existing.Emoji == rc.Emoji {
			return fmt.Errorf("%w: duplicate reaction", messenger_errors.ErrConflict)
		}
	}
	rc.CreatedAt = r.db.tick()
	cp := *rc
	r.db.reactions = append(r.db.reactions, &cp)
	return nil
}

func (r fakeReactionRepo) Remove(ctx context.Context, tx repository.DBTX, messageID, userID uuid.UUID, emoji string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, existing := range r.db.reactions {
		if existing.MessageID == messageID && existing.UserID == userID && existing.Emoji == emoji {
			r.db.reactions = append(r.db.reactions[:i], r.db.reactions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r fakeReactionRepo) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]message.Reaction, error) {
	grouped, err := r.ListByMessages(ctx, []uuid.UUID{messageID})
	return grouped[messageID], err
}

func (r fakeReactionRepo) ListByMessages(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]message.Reaction, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[uuid.UUID][]message.Reaction)
	for _, rc := range r.db.reactions {
		if want[rc.MessageID] {
			out[rc.MessageID] = append(out[rc.MessageID], *rc)
		}
	}
	return out, nil
}

type fakeAttachmentRepo struct{ db *memDB }

func (r fakeAttachmentRepo) CreateBatch(ctx context.Context, attachments []message.Attachment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.attachErr != nil {
		return r.db.attachErr
	}
	for _, a := range attachments {
		a.CreatedAt = r.db.tick()
		r.db.attachments = append(r.db.attachments, a)
	}
	return nil
}

func (r fakeAttachmentRepo) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]message.Attachment, error) {
	grouped, err := r.ListByMessages(ctx, []uuid.UUID{messageID})
	return grouped[messageID], err
}

func (r fakeAttachmentRepo) ListByMessages(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]message.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[uuid.UUID][]message.Attachment)
	for _, a := range r.db.attachments {
		if want[a.MessageID] {
			out[a.MessageID] = append(out[a.MessageID], a)
		}
	}
	return out, nil
}

type fakeTypingRepo struct{ db *memDB }

func (r fakeTypingRepo) Upsert(ctx context.Context, ind typing.Indicator) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.typing[[2]uuid.UUID{ind.ConversationID, ind.UserID}] = ind
	return nil
}

func (r fakeTypingRepo) Delete(ctx context.Context, conversationID, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.typing, [2]uuid.UUID{conversationID, userID})
	return nil
}

func (r fakeTypingRepo) ListActive(ctx context.Context, conversationID uuid.UUID, now time.Time) ([]typing.Indicator, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []typing.Indicator
	for key, ind := range r.db.typing {
		if key[0] == conversationID && !ind.Expired(now) {
			out = append(out, ind)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (r fakeTypingRepo) sweep(match func(uuid.UUID) bool, now time.Time) int64 {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for key, ind := range r.db.typing {
		if match(key[0]) && ind.Expired(now) {
			delete(r.db.typing, key)
			n++
		}
	}
	return n
}

func (r fakeTypingRepo) SweepConversation(ctx context.Context, conversationID uuid.UUID, now time.Time) (int64, error) {
	return r.sweep(func(id uuid.UUID) bool { return id == conversationID }, now), nil
}

func (r fakeTypingRepo) SweepAll(ctx context.Context, now time.Time) (int64, error) {
	return r.sweep(func(uuid.UUID) bool { return true }, now), nil
}

func (r fakeTypingRepo) count() int {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.typing)
}

// fakeUsers is the user directory plus the can_user_message_user rule.
type fakeUsers struct{ db *memDB }

func (u fakeUsers) GetRole(ctx context.Context, id uuid.UUID) (domain.Role, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	role, ok := u.db.roles[id]
	if !ok {
		return "", messenger_errors.ErrNotFound
	}
	return role, nil
}

func (u fakeUsers) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.Profile, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	out := make(map[uuid.UUID]user.Profile, len(ids))
	for _, id := range ids {
		if p, ok := u.db.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (u fakeUsers) CanMessage(ctx context.Context, senderID, recipientID uuid.UUID) (bool, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	if senderID == recipientID {
		return false, nil
	}
	if u.db.roles[senderID] == domain.RoleAdmin || u.db.roles[recipientID] == domain.RoleAdmin {
		return true, nil
	}
	return u.db.relations[[2]uuid.UUID{senderID, recipientID}] || u.db.relations[[2]uuid.UUID{recipientID, senderID}], nil
}

type fakeOutbox struct{ db *memDB }

func (o fakeOutbox) Create(ctx context.Context, tx repository.DBTX, e *outbox.OutboxEvent) error {
	o.db.mu.Lock()
	defer o.db.mu.Unlock()
	if o.db.outboxErr != nil {
		return o.db.outboxErr
	}
	o.db.outbox = append(o.db.outbox, *e)
	return nil
}

func (o fakeOutbox) GetPending(ctx context.Context, limit, maxRetries int) ([]outbox.OutboxEvent, error) {
	return nil, nil
}

func (o fakeOutbox) MarkProcessing(ctx context.Context, id uuid.UUID) error { return nil }

func (o fakeOutbox) MarkCompleted(ctx context.Context, id uuid.UUID) error { return nil }

func (o fakeOutbox) MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error { return nil }

func (o fakeOutbox) IncrementRetry(ctx context.Context, id uuid.UUID) error { return nil }

type published struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{channel: channel, payload: payload})
	return nil
}

type fakeObjectStore struct {
	base    string
	objects map[string]bool
}

func (s fakeObjectStore) FileURL(key string) string {
	return s.base + "/" + key
}

func (s fakeObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.objects[key], nil
}
