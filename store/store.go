// Package store persists extracted documents, their sections, merged
// tables and figures, and page-level continuation candidates in SQLite.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Document represents a row in the documents table.
type Document struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	ContentHash string `json:"content_hash"`
	TOCMode     string `json:"toc_mode"`
	PageCount   int    `json:"page_count"`
	Status      string `json:"status"`
	Metadata    string `json:"metadata,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Document statuses.
const (
	StatusPending   = "pending"
	StatusExtracted = "extracted"
	StatusFailed    = "failed"
)

// Section represents a row in the sections table with its attachments.
type Section struct {
	ID          int64        `json:"id"`
	DocumentID  int64        `json:"document_id"`
	Index       int          `json:"section_index"`
	PID         string       `json:"section_pid"`
	Title       string       `json:"title"`
	Level       int          `json:"level"`
	StartPage   int          `json:"start_page"`
	EndPage     int          `json:"end_page"`
	Text        string       `json:"text_content"`
	Attachments []Attachment `json:"attachments"`
}

// PageRange returns the "start-end" form stored with the section.
func (s Section) PageRange() string { return fmt.Sprintf("%d-%d", s.StartPage, s.EndPage) }

// Attachment types.
const (
	AttachmentTable  = "table"
	AttachmentFigure = "figure"
)

// Attachment represents a row in the attachments table: one merged table
// or figure.
type Attachment struct {
	ID                 int64     `json:"id"`
	SectionID          int64     `json:"section_id"`
	Type               string    `json:"type"`
	UniqueID           string    `json:"unique_id"`
	Title              *string   `json:"title"`
	Page               int       `json:"page_num"`
	BBox               []float64 `json:"bbox"`
	ImagePath          string    `json:"image_path"`
	Markdown           *string   `json:"markdown_content"`
	HasInterveningText bool      `json:"has_intervening_text"`
	MergedCount        *int      `json:"merged_count"`
}

// Continuation represents a row in the continuations table.
type Continuation struct {
	ID           int64  `json:"id"`
	DocumentID   int64  `json:"document_id"`
	PrevPage     int    `json:"prev_page"`
	CurrPage     int    `json:"curr_page"`
	PrevTableIdx int    `json:"prev_table_idx"`
	CurrTableIdx int    `json:"curr_table_idx"`
	Confidence   string `json:"confidence"`
	HasTitle     bool   `json:"has_title"`
}

// Store wraps the SQLite database for all docsect persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- Document operations ---

// UpsertDocument inserts or updates a document record. Returns the document ID.
func (s *Store) UpsertDocument(ctx context.Context, doc Document) (int64, error) {
	if doc.Status == "" {
		doc.Status = StatusPending
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, filename, content_hash, toc_mode, page_count, status, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			filename = excluded.filename,
			content_hash = excluded.content_hash,
			toc_mode = excluded.toc_mode,
			page_count = excluded.page_count,
			status = excluded.status,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
	`, doc.Path, doc.Filename, doc.ContentHash, doc.TOCMode, doc.PageCount, doc.Status, nullIfEmpty(doc.Metadata))
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	// If UPSERT did an UPDATE, LastInsertId may not reflect the existing row.
	if id == 0 {
		row := s.db.QueryRowContext(ctx, "SELECT id FROM documents WHERE path = ?", doc.Path)
		if err := row.Scan(&id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

const documentColumns = `id, path, filename, content_hash, toc_mode, page_count, status, metadata, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*Document, error) {
	doc := &Document{}
	var metadata sql.NullString
	if err := row.Scan(&doc.ID, &doc.Path, &doc.Filename, &doc.ContentHash,
		&doc.TOCMode, &doc.PageCount, &doc.Status,
		&metadata, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Metadata = metadata.String
	return doc, nil
}

// GetDocumentByPath retrieves a document by its file path.
func (s *Store) GetDocumentByPath(ctx context.Context, path string) (*Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE path = ?", path))
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id))
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// UpdateDocumentStatus updates just the status field.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id)
	return err
}

// DeleteDocument removes a document and cascades to all related data.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := deleteSections(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM continuations WHERE document_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
		return err
	})
}

// --- Section operations ---

// ReplaceSections deletes every section and attachment of the document
// and inserts the given ones in a single transaction, so a re-run leaves
// exactly one copy of each section.
func (s *Store) ReplaceSections(ctx context.Context, docID int64, sections []Section) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := deleteSections(ctx, tx, docID); err != nil {
			return err
		}

		secStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sections (document_id, section_index, section_pid, title, level,
				start_page, end_page, text_content, page_range)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer secStmt.Close()

		attStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO attachments (section_id, type, unique_id, title, page_num, bbox,
				image_path, markdown_content, has_intervening_text, merged_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer attStmt.Close()

		for _, sec := range sections {
			res, err := secStmt.ExecContext(ctx, docID, sec.Index, sec.PID, sec.Title, sec.Level,
				sec.StartPage, sec.EndPage, sec.Text, sec.PageRange())
			if err != nil {
				return fmt.Errorf("inserting section %d: %w", sec.Index, err)
			}
			secID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for _, a := range sec.Attachments {
				bbox, err := json.Marshal(a.BBox)
				if err != nil {
					return fmt.Errorf("encoding bbox of %s: %w", a.UniqueID, err)
				}
				if _, err := attStmt.ExecContext(ctx, secID, a.Type, a.UniqueID, a.Title, a.Page,
					string(bbox), a.ImagePath, a.Markdown, a.HasInterveningText, a.MergedCount); err != nil {
					return fmt.Errorf("inserting attachment %s: %w", a.UniqueID, err)
				}
			}
		}
		return nil
	})
}

func deleteSections(ctx context.Context, tx *sql.Tx, docID int64) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM attachments WHERE section_id IN (
			SELECT id FROM sections WHERE document_id = ?
		)`, docID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, "DELETE FROM sections WHERE document_id = ?", docID)
	return err
}

// GetSections returns the document's sections in index order, each with
// its attachments in insertion order.
func (s *Store) GetSections(ctx context.Context, docID int64) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, section_index, section_pid, title, level,
			start_page, end_page, text_content
		FROM sections WHERE document_id = ? ORDER BY section_index
	`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []Section
	byID := make(map[int64]int)
	for rows.Next() {
		var sec Section
		var text sql.NullString
		if err := rows.Scan(&sec.ID, &sec.DocumentID, &sec.Index, &sec.PID, &sec.Title,
			&sec.Level, &sec.StartPage, &sec.EndPage, &text); err != nil {
			return nil, err
		}
		sec.Text = text.String
		byID[sec.ID] = len(sections)
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	atts, err := s.attachmentsForDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	for _, a := range atts {
		if i, ok := byID[a.SectionID]; ok {
			sections[i].Attachments = append(sections[i].Attachments, a)
		}
	}
	return sections, nil
}

func (s *Store) attachmentsForDocument(ctx context.Context, docID int64) ([]Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.section_id, a.type, a.unique_id, a.title, a.page_num, a.bbox,
			a.image_path, a.markdown_content, a.has_intervening_text, a.merged_count
		FROM attachments a
		JOIN sections s ON a.section_id = s.id
		WHERE s.document_id = ?
		ORDER BY a.id
	`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		var a Attachment
		var title, imagePath, markdown sql.NullString
		var merged sql.NullInt64
		var bbox string
		if err := rows.Scan(&a.ID, &a.SectionID, &a.Type, &a.UniqueID, &title, &a.Page, &bbox,
			&imagePath, &markdown, &a.HasInterveningText, &merged); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(bbox), &a.BBox); err != nil {
			return nil, fmt.Errorf("decoding bbox of %s: %w", a.UniqueID, err)
		}
		if title.Valid {
			a.Title = &title.String
		}
		if markdown.Valid {
			a.Markdown = &markdown.String
		}
		if merged.Valid {
			n := int(merged.Int64)
			a.MergedCount = &n
		}
		a.ImagePath = imagePath.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Continuation operations ---

// ReplaceContinuations swaps the document's continuation candidates.
func (s *Store) ReplaceContinuations(ctx context.Context, docID int64, conts []Continuation) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM continuations WHERE document_id = ?", docID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO continuations (document_id, prev_page, curr_page, prev_table_idx,
				curr_table_idx, confidence, has_title)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range conts {
			if _, err := stmt.ExecContext(ctx, docID, c.PrevPage, c.CurrPage,
				c.PrevTableIdx, c.CurrTableIdx, c.Confidence, c.HasTitle); err != nil {
				return fmt.Errorf("inserting continuation %d->%d: %w", c.PrevPage, c.CurrPage, err)
			}
		}
		return nil
	})
}

// GetContinuations returns the document's candidates ordered by page.
func (s *Store) GetContinuations(ctx context.Context, docID int64) ([]Continuation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, prev_page, curr_page, prev_table_idx, curr_table_idx,
			confidence, has_title
		FROM continuations WHERE document_id = ? ORDER BY curr_page, id
	`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Continuation
	for rows.Next() {
		var c Continuation
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.PrevPage, &c.CurrPage,
			&c.PrevTableIdx, &c.CurrTableIdx, &c.Confidence, &c.HasTitle); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Stats ---

// DBStats holds row counts.
type DBStats struct {
	Documents     int `json:"documents"`
	Sections      int `json:"sections"`
	Tables        int `json:"tables"`
	Figures       int `json:"figures"`
	Continuations int `json:"continuations"`
}

// DBStats returns row counts of the persisted tables.
func (s *Store) DBStats(ctx context.Context) (*DBStats, error) {
	stats := &DBStats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM documents", &stats.Documents},
		{"SELECT COUNT(*) FROM sections", &stats.Sections},
		{"SELECT COUNT(*) FROM attachments WHERE type = 'table'", &stats.Tables},
		{"SELECT COUNT(*) FROM attachments WHERE type = 'figure'", &stats.Figures},
		{"SELECT COUNT(*) FROM continuations", &stats.Continuations},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

// --- helpers ---

// FileHash returns the hex SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
