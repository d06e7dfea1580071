package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/saravenpi/chatdeck/internal/models"
)

var (
	ErrNotFound  = errors.New("chat not found")
	ErrForbidden = errors.New("chat belongs to another user")
)

// Chat is a persisted conversation header.
type Chat struct {
	models.ChatSummary
	Model string
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database at %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.InitSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates the chats and messages tables.
func (s *Store) InitSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS chats (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			visibility TEXT NOT NULL DEFAULT 'private',
			user_id TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_chats_user_created ON chats(user_id, created_at DESC, id DESC);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

func (s *Store) SaveChat(ctx context.Context, chat Chat) error {
	if chat.Visibility == "" {
		chat.Visibility = models.VisibilityPrivate
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, title, created_at, visibility, user_id, model)
		VALUES (?, ?, ?, ?, ?, ?)
	`, chat.ID, chat.Title, chat.CreatedAt.UnixNano(), string(chat.Visibility), chat.UserID, chat.Model)
	if err != nil {
		return fmt.Errorf("failed to save chat: %w", err)
	}
	return nil
}

func (s *Store) GetChatByID(ctx context.Context, id string) (*Chat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, visibility, user_id, model
		FROM chats WHERE id = ?
	`, id)
	chat, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return chat, nil
}

func (s *Store) UpdateChatTitle(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE chats SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("failed to update chat title: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListChats returns up to limit chats of userID, newest first. A non-empty
// endingBefore restricts the page to chats older than that chat.
func (s *Store) ListChats(ctx context.Context, userID string, limit int, endingBefore string) (models.Page, error) {
	query := `
		SELECT id, title, created_at, visibility, user_id, model
		FROM chats
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	args := []any{userID, limit + 1}

	if endingBefore != "" {
		var pivot int64
		err := s.db.QueryRowContext(ctx, `SELECT created_at FROM chats WHERE id = ? AND user_id = ?`, endingBefore, userID).Scan(&pivot)
		if errors.Is(err, sql.ErrNoRows) {
			return models.Page{}, ErrNotFound
		}
		if err != nil {
			return models.Page{}, fmt.Errorf("failed to query pivot chat: %w", err)
		}
		query = `
			SELECT id, title, created_at, visibility, user_id, model
			FROM chats
			WHERE user_id = ? AND (created_at < ? OR (created_at = ? AND id < ?))
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`
		args = []any{userID, pivot, pivot, endingBefore, limit + 1}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return models.Page{}, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	page := models.Page{Chats: []models.ChatSummary{}}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return models.Page{}, fmt.Errorf("failed to scan chat: %w", err)
		}
		page.Chats = append(page.Chats, chat.ChatSummary)
	}
	if err := rows.Err(); err != nil {
		return models.Page{}, fmt.Errorf("failed to read chats: %w", err)
	}

	if len(page.Chats) > limit {
		page.Chats = page.Chats[:limit]
		page.HasMore = true
	}
	return page, nil
}

// DeleteChatByID removes a chat owned by userID together with its messages.
func (s *Store) DeleteChatByID(ctx context.Context, userID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM chats WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query chat owner: %w", err)
	}
	if owner != userID {
		return ErrForbidden
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func (s *Store) SaveMessage(ctx context.Context, msg models.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, msg.ChatID, string(msg.Role), msg.Content, msg.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// GetMessagesByChatID returns a chat's messages, oldest first.
func (s *Store) GetMessagesByChatID(ctx context.Context, chatID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, role, content, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var role string
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.ChatID, &role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = models.Role(role)
		msg.CreatedAt = time.Unix(0, createdAt)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChat(row scanner) (*Chat, error) {
	var chat Chat
	var createdAt int64
	var visibility string
	if err := row.Scan(&chat.ID, &chat.Title, &createdAt, &visibility, &chat.UserID, &chat.Model); err != nil {
		return nil, err
	}
	chat.CreatedAt = time.Unix(0, createdAt)
	chat.Visibility = models.Visibility(visibility)
	return &chat, nil
}
