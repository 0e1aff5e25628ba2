package repository

import (
	"context"
	"fmt"
)

// InitSchema handles the database schema migration.
// It creates extensions, tables, indexes and the stored procedures the
// repositories call. Every statement is idempotent.
func InitSchema(ctx context.Context, db DBTX) error {
	// 1. Extensions
	// Note: Creating extensions usually requires superuser privileges.
	extensions := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	}
	for _, ext := range extensions {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	// 2. Tables
	// profiles and coach_clients belong to the user directory; they are created
	// here so local and test databases are self contained.
	for _, stmt := range tables {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// 3. Functions
	for name, fn := range functions {
		if _, err := db.ExecContext(ctx, fn); err != nil {
			return fmt.Errorf("failed to create function %s: %w", name, err)
		}
	}
	return nil
}

// Tables lists the tables InitSchema manages, used by cmd/migrate status.
var Tables = []string{
	"profiles", "coach_clients", "conversations", "participants", "messages",
	"attachments", "message_reactions", "typing_indicators", "outbox_events",
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL CHECK (role IN ('coach', 'client', 'admin')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS coach_clients (
		coach_id UUID NOT NULL REFERENCES profiles(id),
		client_id UUID NOT NULL REFERENCES profiles(id),
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'pending', 'ended')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (coach_id, client_id)
	);`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		type TEXT NOT NULL CHECK (type IN ('direct', 'group')),
		title TEXT,
		created_by UUID NOT NULL,
		direct_key TEXT UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
		last_message_at TIMESTAMPTZ,
		CHECK ((type = 'direct') = (direct_key IS NOT NULL))
	);`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_last_message
		ON conversations (last_message_at DESC NULLS LAST, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS participants (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		conversation_id UUID NOT NULL REFERENCES conversations(id),
		user_id UUID NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
		left_at TIMESTAMPTZ,
		is_archived BOOLEAN NOT NULL DEFAULT false,
		is_muted BOOLEAN NOT NULL DEFAULT false,
		last_read_at TIMESTAMPTZ
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_participants_active
		ON participants (conversation_id, user_id) WHERE left_at IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_participants_user_active
		ON participants (user_id) WHERE left_at IS NULL;`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		conversation_id UUID NOT NULL REFERENCES conversations(id),
		sender_id UUID NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT 'text' CHECK (type IN ('text', 'file', 'system')),
		status TEXT NOT NULL DEFAULT 'sent' CHECK (status IN ('sent', 'delivered', 'read')),
		reply_to_id UUID REFERENCES messages(id),
		client_message_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation_created
		ON messages (conversation_id, created_at DESC, id DESC);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_messages_client_id
		ON messages (sender_id, client_message_id) WHERE client_message_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		message_id UUID NOT NULL REFERENCES messages(id),
		file_name TEXT NOT NULL,
		size_bytes BIGINT NOT NULL DEFAULT 0,
		mime_type TEXT NOT NULL DEFAULT 'application/octet-stream',
		kind TEXT NOT NULL DEFAULT 'other' CHECK (kind IN ('image', 'video', 'audio', 'document', 'other')),
		url TEXT NOT NULL,
		thumbnail_url TEXT,
		storage_key TEXT,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_attachments_message ON attachments (message_id);`,
	`CREATE TABLE IF NOT EXISTS message_reactions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		message_id UUID NOT NULL REFERENCES messages(id),
		user_id UUID NOT NULL,
		emoji TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
		UNIQUE (message_id, user_id, emoji)
	);`,
	`CREATE TABLE IF NOT EXISTS typing_indicators (
		conversation_id UUID NOT NULL REFERENCES conversations(id),
		user_id UUID NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (conversation_id, user_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_typing_expires ON typing_indicators (expires_at);`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		event_type VARCHAR(50) NOT NULL,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(36) NOT NULL,
		payload JSONB NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		retry_count INT NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		processed_at TIMESTAMPTZ
	);`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox_events (created_at) WHERE status = 'PENDING';`,
}

var functions = map[string]string{
	// One row per unordered pair: the loser of a concurrent insert reads back
	// the winner's id.
	"get_or_create_direct_conversation": `
	CREATE OR REPLACE FUNCTION get_or_create_direct_conversation(p_creator UUID, p_other UUID)
	RETURNS TABLE (out_conversation_id UUID, out_created BOOLEAN) LANGUAGE plpgsql AS $$
	DECLARE
		v_key TEXT := least(p_creator::text, p_other::text) || ':' || greatest(p_creator::text, p_other::text);
		v_id UUID;
	BEGIN
		INSERT INTO conversations (type, created_by, direct_key)
		VALUES ('direct', p_creator, v_key)
		ON CONFLICT (direct_key) DO NOTHING
		RETURNING id INTO v_id;

		out_created := v_id IS NOT NULL;
		IF v_id IS NULL THEN
			SELECT c.id INTO v_id FROM conversations c WHERE c.direct_key = v_key;
		END IF;

		INSERT INTO participants (conversation_id, user_id)
		VALUES (v_id, p_creator), (v_id, p_other)
		ON CONFLICT (conversation_id, user_id) WHERE left_at IS NULL DO NOTHING;

		out_conversation_id := v_id;
		RETURN NEXT;
	END;
	$$;`,

	"mark_conversation_as_read": `
	CREATE OR REPLACE FUNCTION mark_conversation_as_read(p_conversation UUID, p_user UUID)
	RETURNS BOOLEAN LANGUAGE plpgsql AS $$
	BEGIN
		-- waits for in-flight sends, which hold the row FOR UPDATE
		PERFORM 1 FROM conversations WHERE id = p_conversation FOR SHARE;

		UPDATE participants
		SET last_read_at = clock_timestamp()
		WHERE conversation_id = p_conversation AND user_id = p_user AND left_at IS NULL;
		RETURN FOUND;
	END;
	$$;`,

	"get_unread_message_count": `
	CREATE OR REPLACE FUNCTION get_unread_message_count(p_conversation UUID, p_user UUID)
	RETURNS BIGINT LANGUAGE sql STABLE AS $$
		SELECT count(m.id)
		FROM participants p
		JOIN messages m ON m.conversation_id = p.conversation_id
		WHERE p.conversation_id = p_conversation
		  AND p.user_id = p_user
		  AND p.left_at IS NULL
		  AND m.sender_id <> p_user
		  AND m.created_at > COALESCE(p.last_read_at, '-infinity'::timestamptz);
	$$;`,

	"can_user_message_user": `
	CREATE OR REPLACE FUNCTION can_user_message_user(p_sender UUID, p_recipient UUID)
	RETURNS BOOLEAN LANGUAGE sql STABLE AS $$
		SELECT p_sender <> p_recipient AND (
			EXISTS (SELECT 1 FROM profiles WHERE id IN (p_sender, p_recipient) AND role = 'admin')
			OR EXISTS (
				SELECT 1 FROM coach_clients
				WHERE status = 'active'
				  AND ((coach_id = p_sender AND client_id = p_recipient)
				    OR (coach_id = p_recipient AND client_id = p_sender))
			)
		);
	$$;`,

	"cleanup_expired_typing_indicators": `
	CREATE OR REPLACE FUNCTION cleanup_expired_typing_indicators(p_conversation UUID DEFAULT NULL, p_now TIMESTAMPTZ DEFAULT now())
	RETURNS BIGINT LANGUAGE plpgsql AS $$
	DECLARE
		v_count BIGINT;
	BEGIN
		DELETE FROM typing_indicators
		WHERE expires_at <= p_now
		  AND (p_conversation IS NULL OR conversation_id = p_conversation);
		GET DIAGNOSTICS v_count = ROW_COUNT;
		RETURN v_count;
	END;
	$$;`,
}
