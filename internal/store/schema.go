package store

import (
	"database/sql"
	"fmt"
)

// Schema bootstrap. Statements are idempotent so startup against an existing
// database is a no-op.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS chats (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		type            TEXT NOT NULL,
		last_message_id TEXT,
		created_at      DATETIME NOT NULL,
		updated_at      DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chat_members (
		chat_id   TEXT NOT NULL,
		user_id   TEXT NOT NULL,
		role      TEXT NOT NULL,
		joined_at DATETIME NOT NULL,
		PRIMARY KEY (chat_id, user_id),
		FOREIGN KEY (chat_id) REFERENCES chats(id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id                  TEXT PRIMARY KEY,
		chat_id             TEXT NOT NULL,
		sender_id           TEXT NOT NULL,
		content             TEXT NOT NULL,
		type                TEXT NOT NULL,
		media_url           TEXT,
		reply_to_message_id TEXT,
		is_read             INTEGER NOT NULL DEFAULT 0,
		created_at          DATETIME NOT NULL,
		FOREIGN KEY (chat_id) REFERENCES chats(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_chat_created
		ON messages(chat_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_members_user
		ON chat_members(user_id)`,
}

func ensureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
