package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"salesassist/api"
)

// TimestampLayout matches the naive ISO-8601 timestamps the backend emits.
const TimestampLayout = "2006-01-02T15:04:05.000000"

const maxTitleLength = 50

// ConversationStorage persists conversations and their messages in sqlite.
// A message's position is its index in the conversation.
type ConversationStorage struct {
	db *sql.DB
}

func NewConversationStorage(dataDir string) (*ConversationStorage, error) {
	return OpenConversationStorage(filepath.Join(dataDir, "conversations.db"))
}

func OpenConversationStorage(dbPath string) (*ConversationStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	storage := &ConversationStorage{db: db}

	if err := storage.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return storage, nil
}

func (cs *ConversationStorage) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		conversation_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		function_results TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (conversation_id, position),
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at);
	`

	if _, err := cs.db.Exec(schema); err != nil {
		return err
	}

	// Databases created before error messages were stored lack is_critical
	hasCritical, err := cs.columnExists("messages", "is_critical")
	if err != nil {
		return fmt.Errorf("failed to check for is_critical column: %w", err)
	}
	if !hasCritical {
		if _, err := cs.db.Exec(`ALTER TABLE messages ADD COLUMN is_critical INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("failed to add is_critical column: %w", err)
		}
	}

	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info
func (cs *ConversationStorage) columnExists(tableName, columnName string) (bool, error) {
	rows, err := cs.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == columnName {
			return true, nil
		}
	}
	return false, rows.Err()
}

// GenerateTitle derives a conversation title from its first message: the
// first 50 characters as typed, newlines included, plus "..." when cut.
func GenerateTitle(firstMessage string) string {
	runes := []rune(firstMessage)
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength]) + "..."
	}
	return firstMessage
}

// Create starts an empty conversation and returns its id.
func (cs *ConversationStorage) Create(ctx context.Context, title string, now time.Time) (api.ID, error) {
	id := api.ID(uuid.New().String())
	_, err := cs.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at) VALUES (?, ?, ?)`,
		id.String(), title, now.Format(TimestampLayout),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}
	return id, nil
}

// Load returns a conversation with its messages, or nil if it does not exist.
func (cs *ConversationStorage) Load(ctx context.Context, id api.ID) (*api.Conversation, error) {
	var conv api.Conversation
	var rawID string
	err := cs.db.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM conversations WHERE id = ?`, id.String(),
	).Scan(&rawID, &conv.Title, &conv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	conv.ID = api.ID(rawID)

	rows, err := cs.db.QueryContext(ctx, `
	SELECT role, content, function_results, is_critical
	FROM messages
	WHERE conversation_id = ?
	ORDER BY position
	`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conv.Messages = []api.Message{}
	for rows.Next() {
		var (
			msg      api.Message
			results  sql.NullString
			critical int
		)
		if err := rows.Scan(&msg.Role, &msg.Content, &results, &critical); err != nil {
			return nil, err
		}
		if results.Valid && results.String != "" {
			if err := json.Unmarshal([]byte(results.String), &msg.FunctionResults); err != nil {
				return nil, fmt.Errorf("failed to decode function results: %w", err)
			}
		}
		msg.IsCritical = critical != 0
		conv.Messages = append(conv.Messages, msg)
	}
	return &conv, rows.Err()
}

// List returns conversation summaries, newest first.
func (cs *ConversationStorage) List(ctx context.Context) ([]api.ConversationSummary, error) {
	rows, err := cs.db.QueryContext(ctx, `
	SELECT c.id, c.title, c.created_at,
		(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
	FROM conversations c
	ORDER BY c.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []api.ConversationSummary{}
	for rows.Next() {
		var (
			s     api.ConversationSummary
			rawID string
		)
		if err := rows.Scan(&rawID, &s.Title, &s.CreatedAt, &s.MessageCount); err != nil {
			return nil, err
		}
		s.ID = api.ID(rawID)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Delete removes a conversation. It reports false if nothing was deleted.
func (cs *ConversationStorage) Delete(ctx context.Context, id api.ID) (bool, error) {
	tx, err := cs.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id.String()); err != nil {
		return false, fmt.Errorf("failed to delete messages: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("failed to delete conversation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n > 0, tx.Commit()
}

// Append adds a message at the end of a conversation.
func (cs *ConversationStorage) Append(ctx context.Context, id api.ID, msg api.Message, now time.Time) error {
	var results any
	if len(msg.FunctionResults) > 0 {
		data, err := json.Marshal(msg.FunctionResults)
		if err != nil {
			return fmt.Errorf("failed to encode function results: %w", err)
		}
		results = string(data)
	}

	_, err := cs.db.ExecContext(ctx, `
	INSERT INTO messages (conversation_id, position, role, content, function_results, is_critical, created_at)
	VALUES (?, (SELECT COALESCE(MAX(position) + 1, 0) FROM messages WHERE conversation_id = ?), ?, ?, ?, ?, ?)
	`,
		id.String(), id.String(), msg.Role, msg.Content, results, msg.IsCritical, now.Format(TimestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Rewrite replaces the content of the message at index and drops every
// message after it.
func (cs *ConversationStorage) Rewrite(ctx context.Context, id api.ID, index int, content string) error {
	tx, err := cs.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE messages SET content = ? WHERE conversation_id = ? AND position = ?`,
		content, id.String(), index,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	} else if n == 0 {
		return fmt.Errorf("message %d not found in conversation %s", index, id)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = ? AND position > ?`, id.String(), index,
	); err != nil {
		return fmt.Errorf("failed to truncate conversation: %w", err)
	}
	return tx.Commit()
}

func (cs *ConversationStorage) Close() error {
	if cs.db != nil {
		return cs.db.Close()
	}
	return nil
}
