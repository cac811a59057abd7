// Package store implements the MessageStore interface on SQLite. Reads run
// concurrently against the connection pool; all writes funnel through a
// single goroutine, which is how SQLite avoids write contention under WAL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/server-craftsman/restApi-social-media-conversation/internal/config"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/logging"
	"github.com/server-craftsman/restApi-social-media-conversation/pkg/types"
)

// Store is the SQLite-backed message store.
type Store struct {
	db      *sql.DB
	writeCh chan writeOp
	done    chan struct{}
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type writeOp struct {
	run    func(db *sql.DB) error
	result chan error
}

// New opens (or creates) the database, applies the schema and starts the
// writer goroutine.
func New(cfg config.StoreConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetConnMaxLifetime(time.Hour)

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:      db,
		writeCh: make(chan writeOp, 100),
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writeLoop()
	return s, nil
}

func (s *Store) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case op := <-s.writeCh:
			op.result <- op.run(s.db)
		case <-s.done:
			// Drain queued writes so Close does not lose acknowledged work.
			for {
				select {
				case op := <-s.writeCh:
					op.result <- op.run(s.db)
				default:
					return
				}
			}
		}
	}
}

func (s *Store) executeWrite(ctx context.Context, run func(db *sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	result := make(chan error, 1)
	select {
	case s.writeCh <- writeOp{run: run, result: result}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsMember reports chat membership. A missing chat reads as non-membership.
func (s *Store) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM chat_members WHERE chat_id = ? AND user_id = ?`,
		chatID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}

// CreateMessage persists a message with a server-generated ID and timestamp.
func (s *Store) CreateMessage(ctx context.Context, input *types.NewMessageInput) (*types.Message, error) {
	message := &types.Message{
		ID:               uuid.New().String(),
		ChatID:           input.ChatID,
		SenderID:         input.SenderID,
		Content:          input.Content,
		Type:             input.Type,
		MediaURL:         input.MediaURL,
		ReplyToMessageID: input.ReplyToMessageID,
		IsRead:           false,
		CreatedAt:        time.Now().UTC(),
	}

	err := s.executeWrite(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO messages (id, chat_id, sender_id, content, type, media_url, reply_to_message_id, is_read, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
			message.ID, message.ChatID, message.SenderID, message.Content,
			message.Type, message.MediaURL, message.ReplyToMessageID, message.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// FindMessage returns the message or nil when absent.
func (s *Store) FindMessage(ctx context.Context, messageID string) (*types.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, chat_id, sender_id, content, type, media_url, reply_to_message_id, is_read, created_at
		FROM messages WHERE id = ?`, messageID)

	message, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	return message, nil
}

// MarkMessageRead flips is_read. Updating an already-read row is a no-op.
func (s *Store) MarkMessageRead(ctx context.Context, messageID string) error {
	return s.executeWrite(ctx, func(db *sql.DB) error {
		if _, err := db.ExecContext(ctx,
			`UPDATE messages SET is_read = 1 WHERE id = ?`, messageID); err != nil {
			return fmt.Errorf("failed to mark message read: %w", err)
		}
		return nil
	})
}

// TouchChatActivity bumps updated_at and records the latest message.
func (s *Store) TouchChatActivity(ctx context.Context, chatID, lastMessageID string) error {
	return s.executeWrite(ctx, func(db *sql.DB) error {
		if _, err := db.ExecContext(ctx,
			`UPDATE chats SET updated_at = ?, last_message_id = ? WHERE id = ?`,
			time.Now().UTC(), lastMessageID, chatID); err != nil {
			return fmt.Errorf("failed to touch chat activity: %w", err)
		}
		return nil
	})
}

// CreateChat creates a chat and its memberships atomically. The creator is
// added as admin when not already in memberIDs; two members make a direct
// chat, more make a group.
func (s *Store) CreateChat(ctx context.Context, name, creatorID string, memberIDs []string) (*types.Chat, error) {
	allMembers := memberIDs
	found := false
	for _, id := range memberIDs {
		if id == creatorID {
			found = true
			break
		}
	}
	if !found {
		allMembers = append(append([]string{}, memberIDs...), creatorID)
	}

	chatType := types.ChatTypeDirect
	if len(allMembers) > 2 {
		chatType = types.ChatTypeGroup
	}

	now := time.Now().UTC()
	chat := &types.Chat{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      chatType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, memberID := range allMembers {
		role := types.MemberRoleMember
		if memberID == creatorID {
			role = types.MemberRoleAdmin
		}
		chat.Members = append(chat.Members, types.ChatMember{
			UserID:   memberID,
			ChatID:   chat.ID,
			Role:     role,
			JoinedAt: now,
		})
	}

	err := s.executeWrite(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx,
			`INSERT INTO chats (id, name, type, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			chat.ID, chat.Name, chat.Type, chat.CreatedAt, chat.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert chat: %w", err)
		}

		for _, member := range chat.Members {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO chat_members (chat_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
				member.ChatID, member.UserID, member.Role, member.JoinedAt)
			if err != nil {
				return fmt.Errorf("failed to insert chat member: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit chat creation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Debug().Str("chat", chat.ID).Str("type", chat.Type).
		Int("members", len(chat.Members)).Msg("chat created")
	return chat, nil
}

// ListUserChats returns the user's chats, most recently active first.
func (s *Store) ListUserChats(ctx context.Context, userID string) ([]*types.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.type, c.last_message_id, c.created_at, c.updated_at
		FROM chats c
		JOIN chat_members m ON m.chat_id = c.id
		WHERE m.user_id = ?
		ORDER BY c.updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []*types.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chats: %w", err)
	}

	for _, chat := range chats {
		if chat.Members, err = s.chatMembers(ctx, chat.ID); err != nil {
			return nil, err
		}
	}
	return chats, nil
}

// GetChat returns a chat with its members, or nil when absent.
func (s *Store) GetChat(ctx context.Context, chatID string) (*types.Chat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, last_message_id, created_at, updated_at
		FROM chats WHERE id = ?`, chatID)

	chat, err := scanChat(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	if chat.Members, err = s.chatMembers(ctx, chatID); err != nil {
		return nil, err
	}
	return chat, nil
}

// ListChatMessages returns a chronological page of a chat's messages.
func (s *Store) ListChatMessages(ctx context.Context, chatID string, limit, offset int) ([]*types.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, sender_id, content, type, media_url, reply_to_message_id, is_read, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?`, chatID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*types.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

// HealthCheck verifies connectivity with a trivial query.
func (s *Store) HealthCheck(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}
	return nil
}

// Close stops the writer goroutine, letting queued writes finish, and closes
// the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()
	return s.db.Close()
}

func (s *Store) chatMembers(ctx context.Context, chatID string) ([]types.ChatMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, user_id, role, joined_at
		FROM chat_members WHERE chat_id = ? ORDER BY joined_at ASC, user_id ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat members: %w", err)
	}
	defer rows.Close()

	var members []types.ChatMember
	for rows.Next() {
		var m types.ChatMember
		if err := rows.Scan(&m.ChatID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*types.Message, error) {
	var m types.Message
	var mediaURL, replyTo sql.NullString
	err := row.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.Type,
		&mediaURL, &replyTo, &m.IsRead, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if mediaURL.Valid {
		m.MediaURL = &mediaURL.String
	}
	if replyTo.Valid {
		m.ReplyToMessageID = &replyTo.String
	}
	return &m, nil
}

func scanChat(row rowScanner) (*types.Chat, error) {
	var c types.Chat
	var lastMessageID sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Type, &lastMessageID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastMessageID.Valid {
		c.LastMessageID = &lastMessageID.String
	}
	return &c, nil
}
