// Package store provides SQLite-backed persistence for missiondeck: task
// templates and the command audit log.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/missiondeck/missiondeck/internal/schema"
)

// ErrTemplateNotFound is returned when a template name does not resolve.
var ErrTemplateNotFound = errors.New("store: template not found")

// Store provides access to the missiondeck SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	ddl := `
	CREATE TABLE IF NOT EXISTS templates (
		name TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS command_log (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		source TEXT NOT NULL,
		received_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_command_log_kind ON command_log(kind);
	CREATE INDEX IF NOT EXISTS idx_command_log_received_at ON command_log(received_at);
	`

	_, err := s.db.Exec(ddl)
	return err
}

// --- Template Operations ---

// SaveTemplate inserts or replaces a template by name.
func (s *Store) SaveTemplate(name, content string) error {
	_, err := s.db.Exec(
		`INSERT INTO templates (name, content, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		name, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

// SeedTemplates inserts the given templates only where the name is absent,
// so user edits survive restarts.
func (s *Store) SeedTemplates(templates map[string]string) error {
	for name, content := range templates {
		_, err := s.db.Exec(
			`INSERT INTO templates (name, content, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO NOTHING`,
			name, content, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("seed template %s: %w", name, err)
		}
	}
	return nil
}

// TemplateNames lists all template names in sorted order.
func (s *Store) TemplateNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan template name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TemplateContent resolves a template name to its instruction text.
func (s *Store) TemplateContent(name string) (string, error) {
	var content string
	err := s.db.QueryRow(`SELECT content FROM templates WHERE name = ?`, name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTemplateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get template: %w", err)
	}
	return content, nil
}

// --- Command Log Operations ---

// LoggedCommand is one row of the command audit log.
type LoggedCommand struct {
	ID         string
	Kind       schema.CommandKind
	Payload    string
	Source     string
	ReceivedAt time.Time
}

// RecordCommand appends a received command envelope to the audit log.
func (s *Store) RecordCommand(cmd schema.Command) error {
	payload, err := schema.EncodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("record command: %w", err)
	}

	var source string
	switch c := cmd.(type) {
	case schema.CreateTask:
		source = c.Source
	case schema.UpdateTask:
		source = c.Source
	case schema.Replan:
		source = c.Source
	case schema.StartSimulation:
		source = c.Source
	case schema.UserCommand:
		source = c.Source
	}

	_, err = s.db.Exec(
		`INSERT INTO command_log (id, kind, payload, source, received_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), string(cmd.Kind()), string(payload), source, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record command: %w", err)
	}
	return nil
}

// RecentCommands returns up to limit log rows, newest first.
func (s *Store) RecentCommands(limit int) ([]LoggedCommand, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, payload, source, received_at FROM command_log
		 ORDER BY received_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	defer rows.Close()

	var out []LoggedCommand
	for rows.Next() {
		var lc LoggedCommand
		var kind string
		if err := rows.Scan(&lc.ID, &kind, &lc.Payload, &lc.Source, &lc.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		lc.Kind = schema.CommandKind(kind)
		out = append(out, lc)
	}
	return out, rows.Err()
}
