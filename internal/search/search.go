// Package search keeps a SQLite FTS5 index of artifacts at .arch/search.db.
//
// The Markdown files stay the source of truth. The index is a derived copy
// that Rebuild replaces wholesale from the store; it is never written to
// on its own.
package search

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HendryAvila/archkit/internal/artifact"

	_ "modernc.org/sqlite"
)

// FileName is the index file inside .arch/.
const FileName = "search.db"

// tsLayout has fixed width so updated_at sorts correctly as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

const (
	defaultLimit = 10
	maxLimit     = 100
)

// openDB is replaced in tests to simulate driver failures.
var openDB = sql.Open

// Options narrows a search. Zero values do not filter.
type Options struct {
	Type  artifact.Type
	Limit int
}

// Result is one matching artifact. Rank is the FTS5 bm25 rank (lower is
// better) and 0 for the recent-artifacts fallback.
type Result struct {
	ID        string          `json:"id"`
	Type      artifact.Type   `json:"type"`
	Title     string          `json:"title"`
	Status    artifact.Status `json:"status"`
	Owner     string          `json:"owner"`
	Snippet   string          `json:"snippet,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Rank      float64         `json:"rank"`
}

// Index is an open search database.
type Index struct {
	db *sql.DB
}

// Open opens (creating if needed) the index at path and runs migrations.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, storageErr("open index", fmt.Errorf("create dir: %w", err))
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, storageErr("open index", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, storageErr("open index", fmt.Errorf("pragma %q: %w", p, err))
		}
	}

	idx := &Index{db: db}
	if err := idx.migrate(); err != nil {
		_ = db.Close()
		return nil, storageErr("migrate index", err)
	}
	return idx, nil
}

// Close closes the underlying database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func (idx *Index) migrate() error {
	_, err := idx.db.Exec(`
		CREATE TABLE IF NOT EXISTS artifacts (
			pk         INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			status     TEXT NOT NULL,
			owner      TEXT NOT NULL DEFAULT '',
			tags       TEXT NOT NULL DEFAULT '',
			body       TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_artifacts_type    ON artifacts(type);
		CREATE INDEX IF NOT EXISTS idx_artifacts_updated ON artifacts(updated_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS artifacts_fts USING fts5(
			title,
			owner,
			tags,
			body,
			content='artifacts',
			content_rowid='pk'
		);
	`)
	return err
}

// Rebuild replaces the whole index with items in one transaction.
func (idx *Index) Rebuild(items []*artifact.Artifact) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return storageErr("rebuild index", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM artifacts`); err != nil {
		return storageErr("rebuild index", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO artifacts (id, type, title, status, owner, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return storageErr("rebuild index", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range items {
		if _, err := stmt.Exec(
			a.ID, string(a.Type), a.Title, string(a.Status), a.Owner,
			strings.Join(a.Tags, " "), bodyText(a),
			a.UpdatedAt.UTC().Format(tsLayout),
		); err != nil {
			return storageErr("index "+a.ID, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO artifacts_fts(artifacts_fts) VALUES('rebuild')`); err != nil {
		return storageErr("rebuild index", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("rebuild index", err)
	}
	return nil
}

// Count returns the number of indexed artifacts.
func (idx *Index) Count() (int, error) {
	var n int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM artifacts`).Scan(&n); err != nil {
		return 0, storageErr("count index", err)
	}
	return n, nil
}

// Search runs a full-text query over title, owner, tags and section text.
// An empty or whitespace-only query returns the most recently updated
// artifacts instead.
func (idx *Index) Search(query string, opts Options) ([]Result, error) {
	if opts.Type != "" {
		if err := artifact.ValidateType(opts.Type); err != nil {
			return nil, err
		}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return idx.recent(opts, limit)
	}

	sqlStr := `
		SELECT a.id, a.type, a.title, a.status, a.owner, a.updated_at,
		       snippet(artifacts_fts, 3, '[', ']', '...', 12), fts.rank
		FROM artifacts_fts fts
		JOIN artifacts a ON a.pk = fts.rowid
		WHERE artifacts_fts MATCH ?
	`
	args := []any{ftsQuery}
	if opts.Type != "" {
		sqlStr += " AND a.type = ?"
		args = append(args, string(opts.Type))
	}
	sqlStr += " ORDER BY fts.rank, a.id LIMIT ?"
	args = append(args, limit)

	return idx.query("search", sqlStr, args...)
}

func (idx *Index) recent(opts Options, limit int) ([]Result, error) {
	sqlStr := `
		SELECT id, type, title, status, owner, updated_at, '' AS snippet, 0 AS rank
		FROM artifacts
	`
	var args []any
	if opts.Type != "" {
		sqlStr += " WHERE type = ?"
		args = append(args, string(opts.Type))
	}
	sqlStr += " ORDER BY updated_at DESC, id LIMIT ?"
	args = append(args, limit)

	return idx.query("search recent", sqlStr, args...)
}

func (idx *Index) query(op, sqlStr string, args ...any) ([]Result, error) {
	rows, err := idx.db.Query(sqlStr, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer func() { _ = rows.Close() }()

	results := []Result{}
	for rows.Next() {
		var (
			r       Result
			typ     string
			status  string
			updated string
		)
		if err := rows.Scan(&r.ID, &typ, &r.Title, &status, &r.Owner, &updated, &r.Snippet, &r.Rank); err != nil {
			return nil, storageErr(op, err)
		}
		r.Type, r.Status = artifact.Type(typ), artifact.Status(status)
		if t, err := time.Parse(tsLayout, updated); err == nil {
			r.UpdatedAt = t
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return results, nil
}

// bodyText flattens the sections into searchable text. Placeholder bodies
// are skipped so that "_TODO:" never matches.
func bodyText(a *artifact.Artifact) string {
	var b strings.Builder
	for _, s := range a.Sections {
		b.WriteString(s.Heading)
		b.WriteByte('\n')
		if !artifact.IsPlaceholder(s.Body) {
			b.WriteString(s.Body)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// sanitizeFTS quotes each word so user input is never parsed as FTS5
// syntax: `fix "auth" bug` -> `"fix" "auth" "bug"`.
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	out := words[:0]
	for _, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		out = append(out, `"`+w+`"`)
	}
	return strings.Join(out, " ")
}

func storageErr(op string, err error) error {
	return &artifact.Error{Kind: artifact.ErrStorage, Op: op, Err: err}
}
