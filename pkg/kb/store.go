// Package kb persists the knowledge base backing a conversation: named
// groups of reference URLs and small uploaded files. The active subset is
// composed into the system instruction of every voice session and into
// document-grounded text queries.
package kb

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// URLGroup is a named set of reference URLs.
type URLGroup struct {
	ID        int64
	Name      string
	URLs      []string
	Active    bool
	CreatedAt time.Time
}

// File is a small uploaded document kept inline in the store.
type File struct {
	ID        int64
	Name      string
	MimeType  string
	Content   []byte
	Active    bool
	CreatedAt time.Time
}

// Context is the active knowledge selection for one conversation.
type Context struct {
	URLs  []string
	Files []File
}

// Empty reports whether the selection carries no material at all.
func (c Context) Empty() bool {
	return len(c.URLs) == 0 && len(c.Files) == 0
}

// Store is a SQLite-backed knowledge base.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if necessary) the knowledge base at path and runs
// pending migrations.
func Open(path string, log zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open knowledge store: %w", err)
	}
	// modernc's driver is not safe for concurrent writers on one connection
	// pool entry; a single connection sidesteps SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Msg("knowledge store opened")
	return &Store{db: db, log: log}, nil
}

// goose configuration is package-global; serialize concurrent opens.
var migrateMu sync.Mutex

func migrate(db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrate knowledge store: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveURLGroup inserts a new group, or replaces the URL list of an
// existing group with the same name.
func (s *Store) SaveURLGroup(ctx context.Context, name string, urls []string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("url group name must not be empty")
	}
	encoded, err := json.Marshal(urls)
	if err != nil {
		return 0, fmt.Errorf("encode urls: %w", err)
	}
	// LastInsertId is not updated on the conflict path, so ask for the id
	// explicitly.
	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO url_groups (name, urls) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET urls = excluded.urls
		RETURNING id`,
		name, string(encoded)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save url group %q: %w", name, err)
	}
	return id, nil
}

// URLGroups lists all groups, newest first.
func (s *Store) URLGroups(ctx context.Context) ([]URLGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, urls, active, created_at
		FROM url_groups ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list url groups: %w", err)
	}
	defer rows.Close()

	var groups []URLGroup
	for rows.Next() {
		var g URLGroup
		var encoded string
		if err := rows.Scan(&g.ID, &g.Name, &encoded, &g.Active, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan url group: %w", err)
		}
		if err := json.Unmarshal([]byte(encoded), &g.URLs); err != nil {
			return nil, fmt.Errorf("decode urls for group %q: %w", g.Name, err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// SetURLGroupActive toggles whether a group contributes to the active context.
func (s *Store) SetURLGroupActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE url_groups SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("toggle url group %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("toggle url group %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("url group %d not found", id)
	}
	return nil
}

// DeleteURLGroup removes a group permanently.
func (s *Store) DeleteURLGroup(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM url_groups WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete url group %d: %w", id, err)
	}
	return nil
}

// SaveFile stores an uploaded document inline.
func (s *Store) SaveFile(ctx context.Context, name, mimeType string, content []byte) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("file name must not be empty")
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO files (name, mime_type, content) VALUES (?, ?, ?)`,
		name, mimeType, content)
	if err != nil {
		return 0, fmt.Errorf("save file %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save file %q: %w", name, err)
	}
	return id, nil
}

// Files lists all stored files, newest first.
func (s *Store) Files(ctx context.Context) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, mime_type, content, active, created_at
		FROM files ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Name, &f.MimeType, &f.Content, &f.Active, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// SetFileActive toggles whether a file contributes to the active context.
func (s *Store) SetFileActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE files SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("toggle file %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("toggle file %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("file %d not found", id)
	}
	return nil
}

// DeleteFile removes a file permanently.
func (s *Store) DeleteFile(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete file %d: %w", id, err)
	}
	return nil
}

// ActiveContext collects every active URL and file into one selection.
// URLs from all active groups are flattened in listing order.
func (s *Store) ActiveContext(ctx context.Context) (Context, error) {
	groups, err := s.URLGroups(ctx)
	if err != nil {
		return Context{}, err
	}
	var out Context
	for _, g := range groups {
		if g.Active {
			out.URLs = append(out.URLs, g.URLs...)
		}
	}

	files, err := s.Files(ctx)
	if err != nil {
		return Context{}, err
	}
	for _, f := range files {
		if f.Active {
			out.Files = append(out.Files, f)
		}
	}
	return out, nil
}
