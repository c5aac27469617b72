// Package docstore persists page documents locally. It fills the document
// store role the translation operations depend on: fetch/save by id,
// duplicate-document, set-document-language, and the capability probe that
// gates multilingual features.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// ErrPageNotFound reports a fetch for an unknown page id.
var ErrPageNotFound = errors.New("page not found")

// CapMultilingual is the capability translation endpoints require.
const CapMultilingual = "multilingual"

// Page is one stored document: metadata plus the raw JSON node array.
type Page struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Language  string    `json:"language,omitempty"`
	SourceID  string    `json:"sourceId,omitempty"`
	Raw       string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is a sqlite-backed page store. Raw payloads are zstd-compressed at
// rest; everything else is queryable columns.
type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	language   TEXT NOT NULL DEFAULT '',
	source_id  TEXT NOT NULL DEFAULT '',
	payload    BLOB NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS capabilities (
	name    TEXT PRIMARY KEY,
	enabled INTEGER NOT NULL DEFAULT 0
);
`

// Open opens (creating if needed) a store at the given sqlite path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init compressor: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init decompressor: %w", err)
	}
	return &Store{db: db, enc: enc, dec: dec}, nil
}

// Close releases the database and codec resources.
func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// SavePage upserts a page. CreatedAt is set on first save, UpdatedAt always.
func (s *Store) SavePage(ctx context.Context, p *Page) error {
	if p.ID == "" {
		return fmt.Errorf("save page: empty id")
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	payload := s.enc.EncodeAll([]byte(p.Raw), nil)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (id, title, language, source_id, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			language = excluded.language,
			source_id = excluded.source_id,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		p.ID, p.Title, p.Language, p.SourceID, payload,
		p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save page %s: %w", p.ID, err)
	}
	return nil
}

// GetPage fetches a page by id.
func (s *Store) GetPage(ctx context.Context, id string) (*Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, language, source_id, payload, created_at, updated_at
		FROM pages WHERE id = ?`, id)

	var p Page
	var payload []byte
	var created, updated string
	if err := row.Scan(&p.ID, &p.Title, &p.Language, &p.SourceID, &payload, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get page %s: %w", id, ErrPageNotFound)
		}
		return nil, fmt.Errorf("get page %s: %w", id, err)
	}

	raw, err := s.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress page %s: %w", id, err)
	}
	p.Raw = string(raw)
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &p, nil
}

// DuplicatePage copies an existing page under a new id, recording the origin
// in SourceID. The copy starts with the source's language until
// SetLanguage is called.
func (s *Store) DuplicatePage(ctx context.Context, id, newID string) (*Page, error) {
	src, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	dup := &Page{
		ID:       newID,
		Title:    src.Title,
		Language: src.Language,
		SourceID: src.ID,
		Raw:      src.Raw,
	}
	if err := s.SavePage(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// SetLanguage updates a page's language tag.
func (s *Store) SetLanguage(ctx context.Context, id, language string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pages SET language = ?, updated_at = ? WHERE id = ?`,
		language, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("set language %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set language %s: %w", id, ErrPageNotFound)
	}
	return nil
}

// DeletePage removes a page.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete page %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete page %s: %w", id, ErrPageNotFound)
	}
	return nil
}

// ListPages returns metadata for every stored page, newest first. Payloads
// are not decompressed.
func (s *Store) ListPages(ctx context.Context) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, language, source_id, created_at, updated_at
		FROM pages ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		var created, updated string
		if err := rows.Scan(&p.ID, &p.Title, &p.Language, &p.SourceID, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// EnableCapability marks a capability as active.
func (s *Store) EnableCapability(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO capabilities (name, enabled) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET enabled = 1`, name)
	if err != nil {
		return fmt.Errorf("enable capability %s: %w", name, err)
	}
	return nil
}

// HasCapability probes whether a capability is active. Translation
// operations are exposed only when the multilingual capability is.
func (s *Store) HasCapability(ctx context.Context, name string) (bool, error) {
	var enabled int
	err := s.db.QueryRowContext(ctx,
		`SELECT enabled FROM capabilities WHERE name = ?`, name).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe capability %s: %w", name, err)
	}
	return enabled != 0, nil
}
