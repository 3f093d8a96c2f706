package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id                   TEXT PRIMARY KEY,
	business_description TEXT NOT NULL DEFAULT '',
	personality          TEXT NOT NULL DEFAULT '',
	category             TEXT NOT NULL DEFAULT '',
	system_prompt        TEXT NOT NULL DEFAULT '',
	first_question       TEXT NOT NULL DEFAULT '',
	created_at           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);

CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL,
	position   INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, position)
);
`

// SQLiteStore persists sessions in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_synchronous=FULL")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	log.Info().Str("path", path).Msg("SQLite session store initialized")
	return &SQLiteStore{db: db}, nil
}

// Put upserts the session row and appends transcript rows not yet stored.
// Existing message rows are never rewritten.
func (s *SQLiteStore) Put(ctx context.Context, session chat.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	record := session.Record()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, business_description, personality, category, system_prompt, first_question, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			business_description = excluded.business_description,
			personality = excluded.personality,
			category = excluded.category,
			system_prompt = excluded.system_prompt,
			first_question = excluded.first_question`,
		record.SessionID,
		record.BusinessDescription,
		record.Personality,
		record.Category,
		record.SystemPrompt,
		record.FirstQuestion,
		record.Timestamp.UnixNano(),
	)
	if err != nil {
		return errors.Wrapf(err, "upsert session %s", record.SessionID)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (session_id, position, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, position) DO NOTHING`)
	if err != nil {
		return errors.Wrap(err, "prepare message insert")
	}
	defer stmt.Close()

	for i, msg := range record.Messages {
		if _, err := stmt.ExecContext(ctx, record.SessionID, i, string(msg.Role), msg.Content, msg.CreatedAt.UnixNano()); err != nil {
			return errors.Wrapf(err, "insert message %d of session %s", i, record.SessionID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit session")
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (chat.Session, error) {
	var (
		record    chat.Record
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, business_description, personality, category, system_prompt, first_question, created_at
		FROM sessions WHERE id = ?`, id).Scan(
		&record.SessionID,
		&record.BusinessDescription,
		&record.Personality,
		&record.Category,
		&record.SystemPrompt,
		&record.FirstQuestion,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.Session{}, ErrNotFound
	}
	if err != nil {
		return chat.Session{}, errors.Wrapf(err, "load session %s", id)
	}
	record.Timestamp = fromUnixNano(createdAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, created_at FROM messages
		WHERE session_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return chat.Session{}, errors.Wrapf(err, "load messages of session %s", id)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			role    string
			content string
			at      int64
		)
		if err := rows.Scan(&role, &content, &at); err != nil {
			return chat.Session{}, errors.Wrap(err, "scan message")
		}
		parsed, err := chat.ParseRole(role)
		if err != nil {
			return chat.Session{}, errors.Wrapf(err, "session %s", id)
		}
		record.Messages = append(record.Messages, chat.Message{Role: parsed, Content: content, CreatedAt: fromUnixNano(at)})
	}
	if err := rows.Err(); err != nil {
		return chat.Session{}, errors.Wrap(err, "iterate messages")
	}

	return chat.FromRecord(record)
}

func (s *SQLiteStore) ListSummaries(ctx context.Context) ([]chat.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, first_question FROM sessions
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}
	defer rows.Close()

	summaries := make([]chat.Summary, 0)
	for rows.Next() {
		var (
			summary   chat.Summary
			createdAt int64
		)
		if err := rows.Scan(&summary.ID, &createdAt, &summary.OpeningText); err != nil {
			return nil, errors.Wrap(err, "scan session summary")
		}
		summary.CreatedAt = fromUnixNano(createdAt)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate sessions")
	}
	return summaries, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return false, errors.Wrapf(err, "delete messages of session %s", id)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, errors.Wrapf(err, "delete session %s", id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}

	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "commit delete")
	}
	return affected > 0, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
