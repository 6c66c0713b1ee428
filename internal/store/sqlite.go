package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/apperr"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS messages (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	sender         TEXT NOT NULL,
	text           TEXT NOT NULL,
	timestamp      TEXT NOT NULL,
	correlation_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_messages_correlation ON messages(correlation_id);

CREATE TABLE IF NOT EXISTS essence_entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	origin     TEXT NOT NULL,
	soul_type  TEXT NOT NULL,
	message    TEXT NOT NULL,
	tags       TEXT,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hints (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL,
	content         TEXT NOT NULL,
	related_section TEXT NOT NULL
);
`

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	conn *sql.DB
	now  func() time.Time
}

// OpenSQLite opens (or creates) the database, applies the schema and seeds
// the default hints into an empty hints table.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	s := &SQLite{conn: conn, now: time.Now}
	if err := s.seedHints(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) seedHints(ctx context.Context) error {
	var count int
	if err := s.conn.QueryRowContext(ctx, `SELECT count(*) FROM hints`).Scan(&count); err != nil {
		return fmt.Errorf("store: count hints: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, h := range models.DefaultHints {
		if _, err := s.CreateHint(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

// AppendMessage inserts a chat message with a server-assigned timestamp.
func (s *SQLite) AppendMessage(ctx context.Context, in models.NewMessage) (*models.Message, error) {
	msg := models.Message{
		Sender:        in.Sender,
		Text:          in.Text,
		Timestamp:     timestamp(s.now),
		CorrelationID: nullable(in.CorrelationID),
	}
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO messages (sender, text, timestamp, correlation_id) VALUES (?, ?, ?, ?)`,
		msg.Sender, msg.Text, msg.Timestamp, msg.CorrelationID)
	if err != nil {
		return nil, fmt.Errorf("store: append message: %w", err)
	}
	if msg.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("store: message id: %w", err)
	}
	return &msg, nil
}

// ListMessages returns the most recent limit messages, oldest first.
func (s *SQLite) ListMessages(ctx context.Context, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, sender, text, timestamp, correlation_id FROM (
			SELECT * FROM messages ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list messages: %w", err)
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &m.Timestamp, &m.CorrelationID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateEssence inserts an essence entry.
func (s *SQLite) CreateEssence(ctx context.Context, in models.NewEssenceEntry) (*models.EssenceEntry, error) {
	e := models.EssenceEntry{
		Name:      in.Name,
		Origin:    in.Origin,
		SoulType:  in.SoulType,
		Message:   in.Message,
		Tags:      in.Tags,
		CreatedAt: timestamp(s.now),
	}
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO essence_entries (name, origin, soul_type, message, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Name, e.Origin, e.SoulType, e.Message, e.Tags, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: create essence: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("store: essence id: %w", err)
	}
	return &e, nil
}

// ListEssences returns entries newest first.
func (s *SQLite) ListEssences(ctx context.Context) ([]models.EssenceEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, name, origin, soul_type, message, tags, created_at
		FROM essence_entries ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list essences: %w", err)
	}
	defer rows.Close()

	out := []models.EssenceEntry{}
	for rows.Next() {
		var e models.EssenceEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Origin, &e.SoulType, &e.Message, &e.Tags, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetEssence returns apperr.ErrNotFound for unknown ids.
func (s *SQLite) GetEssence(ctx context.Context, id int64) (*models.EssenceEntry, error) {
	var e models.EssenceEntry
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, name, origin, soul_type, message, tags, created_at
		FROM essence_entries WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.Origin, &e.SoulType, &e.Message, &e.Tags, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get essence: %w", err)
	}
	return &e, nil
}

// CreateHint inserts a hint.
func (s *SQLite) CreateHint(ctx context.Context, in models.NewHint) (*models.Hint, error) {
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO hints (title, description, content, related_section)
		VALUES (?, ?, ?, ?)`,
		in.Title, in.Description, in.Content, in.RelatedSection)
	if err != nil {
		return nil, fmt.Errorf("store: create hint: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: hint id: %w", err)
	}
	return &models.Hint{
		ID:             id,
		Title:          in.Title,
		Description:    in.Description,
		Content:        in.Content,
		RelatedSection: in.RelatedSection,
	}, nil
}

// ListHints returns hints in id order.
func (s *SQLite) ListHints(ctx context.Context) ([]models.Hint, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, title, description, content, related_section FROM hints ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list hints: %w", err)
	}
	defer rows.Close()

	out := []models.Hint{}
	for rows.Next() {
		var h models.Hint
		if err := rows.Scan(&h.ID, &h.Title, &h.Description, &h.Content, &h.RelatedSection); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetHint returns apperr.ErrNotFound for unknown ids.
func (s *SQLite) GetHint(ctx context.Context, id int64) (*models.Hint, error) {
	var h models.Hint
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, title, description, content, related_section FROM hints WHERE id = ?`, id).
		Scan(&h.ID, &h.Title, &h.Description, &h.Content, &h.RelatedSection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get hint: %w", err)
	}
	return &h, nil
}

var _ Store = (*SQLite)(nil)
