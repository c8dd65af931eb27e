package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/storymap/storymap/internal/chapter"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectChapterFields contains the standard field list for SELECT queries.
const selectChapterFields = `id, owner, filename, title, content, summary,
	created_at, source_type, source_url`

// OwnerCount is an owner together with the number of chapters they wrote.
type OwnerCount struct {
	Owner    string `json:"owner"`
	Chapters int    `json:"chapters"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS chapters (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			filename TEXT,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			summary TEXT NOT NULL,
			created_at TEXT NOT NULL,
			source_type TEXT,
			source_url TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_chapters_owner ON chapters(owner);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS chapters_fts USING fts5(
			id,
			title,
			summary,
			content
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	chapters, err := ReadAllChapters(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chapters"); err != nil {
		return 0, fmt.Errorf("clearing chapters table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM chapters_fts"); err != nil {
		return 0, fmt.Errorf("clearing chapters_fts table: %w", err)
	}

	for _, c := range chapters {
		if err := insertChapter(tx, c); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(chapters), nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func insertChapter(e execer, c chapter.Chapter) error {
	var sourceType, sourceURL string
	if c.Source != nil {
		sourceType, sourceURL = c.Source.Type, c.Source.URL
	}

	_, err := e.Exec(`
		INSERT OR REPLACE INTO chapters (
			id, owner, filename, title, content, summary,
			created_at, source_type, source_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Owner, nullableStringValue(c.Filename), c.Title, c.Content, c.Summary,
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullableStringValue(sourceType), nullableStringValue(sourceURL),
	)
	if err != nil {
		return fmt.Errorf("inserting chapter %s: %w", c.ID, err)
	}

	if _, err := e.Exec("DELETE FROM chapters_fts WHERE id = ?", c.ID); err != nil {
		return fmt.Errorf("clearing fts for %s: %w", c.ID, err)
	}
	_, err = e.Exec(`
		INSERT INTO chapters_fts (id, title, summary, content)
		VALUES (?, ?, ?, ?)`, c.ID, c.Title, c.Summary, c.Content)
	if err != nil {
		return fmt.Errorf("inserting fts for %s: %w", c.ID, err)
	}
	return nil
}

// InsertChapter adds or replaces a single chapter in the cache.
func (d *DB) InsertChapter(c chapter.Chapter) error {
	return insertChapter(d.db, c)
}

// GetByID retrieves a chapter by its ID. It returns nil when none matches.
func (d *DB) GetByID(id string) (*chapter.Chapter, error) {
	row := d.db.QueryRow(`SELECT `+selectChapterFields+` FROM chapters WHERE id = ?`, id)
	return scanChapter(row)
}

// ListChapters returns chapters in creation order, optionally restricted to one
// owner and limited. An empty owner or non-positive limit means no restriction.
func (d *DB) ListChapters(owner string, limit int) ([]chapter.Chapter, error) {
	query := `SELECT ` + selectChapterFields + ` FROM chapters`
	var args []interface{}

	if owner != "" {
		query += " WHERE owner = ?"
		args = append(args, owner)
	}
	query += " ORDER BY created_at, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}
	defer rows.Close()

	return scanChapters(rows)
}

// Search performs a full-text search over titles, summaries and content.
func (d *DB) Search(query string, limit int) ([]chapter.Chapter, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT `+selectChapterFields+`
		FROM chapters
		WHERE id IN (SELECT id FROM chapters_fts WHERE chapters_fts MATCH ?)
		ORDER BY created_at, id
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanChapters(rows)
}

// ListOwners returns every owner with their chapter count, sorted by owner.
func (d *DB) ListOwners() ([]OwnerCount, error) {
	rows, err := d.db.Query(`
		SELECT owner, COUNT(*) FROM chapters
		GROUP BY owner
		ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("listing owners: %w", err)
	}
	defer rows.Close()

	var owners []OwnerCount
	for rows.Next() {
		var oc OwnerCount
		if err := rows.Scan(&oc.Owner, &oc.Chapters); err != nil {
			return nil, err
		}
		owners = append(owners, oc)
	}
	return owners, rows.Err()
}

// Count returns the total number of chapters.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM chapters").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanChapter(s scanner) (*chapter.Chapter, error) {
	var c chapter.Chapter
	var filename, sourceType, sourceURL sql.NullString
	var createdAt string

	err := s.Scan(
		&c.ID, &c.Owner, &filename, &c.Title, &c.Content, &c.Summary,
		&createdAt, &sourceType, &sourceURL,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	c.Filename = filename.String
	if sourceType.Valid {
		c.Source = &chapter.Source{Type: sourceType.String, URL: sourceURL.String}
	}

	c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at for %s: %w", c.ID, err)
	}

	return &c, nil
}

func scanChapters(rows *sql.Rows) ([]chapter.Chapter, error) {
	var chapters []chapter.Chapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		if c != nil {
			chapters = append(chapters, *c)
		}
	}
	return chapters, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
