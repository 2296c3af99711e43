// Package artifact writes and reads the per-section JSON files and the
// section index produced by an extraction run.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/brunobiangulo/docsect/continuation"
	"github.com/brunobiangulo/docsect/section"
)

// IndexFile is the name of the index written next to the section files.
const IndexFile = "section_index.json"

// Pages is a section's page span.
type Pages struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Count int `json:"count"`
}

// Table is one merged table entry.
type Table struct {
	ID                 string    `json:"id"`
	Title              *string   `json:"title"`
	Page               int       `json:"page"`
	BBox               []float64 `json:"bbox"`
	ImagePath          string    `json:"image_path"`
	Markdown           *string   `json:"markdown"`
	HasInterveningText bool      `json:"has_intervening_text"`
	MergedCount        *int      `json:"merged_count"`
}

// Figure is one merged figure entry.
type Figure struct {
	ID                 string    `json:"id"`
	Title              *string   `json:"title"`
	Page               int       `json:"page"`
	BBox               []float64 `json:"bbox"`
	ImagePath          string    `json:"image_path"`
	Description        *string   `json:"description"`
	HasInterveningText bool      `json:"has_intervening_text"`
	MergedCount        *int      `json:"merged_count"`
}

// Content is the body of a section file.
type Content struct {
	Text    string   `json:"text"`
	Tables  []Table  `json:"tables"`
	Figures []Figure `json:"figures"`
}

// Statistics counts a section's attachments.
type Statistics struct {
	TableCount  int `json:"table_count"`
	FigureCount int `json:"figure_count"`
}

// Section is the on-disk form of one section.
type Section struct {
	SectionIndex int        `json:"section_index"`
	SectionID    string     `json:"section_id"`
	Title        string     `json:"title"`
	Level        int        `json:"level"`
	Pages        Pages      `json:"pages"`
	Content      Content    `json:"content"`
	Statistics   Statistics `json:"statistics"`
}

// IndexEntry lists one section in the index.
type IndexEntry struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
	Pages string `json:"pages"`
	File  string `json:"file"`
}

// Document describes the source PDF of a run.
type Document struct {
	Name        string
	Path        string
	ContentHash string
	TOCMode     string
	PageCount   int
}

// Index is the document-level listing of section files.
type Index struct {
	PDFName       string       `json:"pdf_name"`
	PDFPath       string       `json:"pdf_path,omitempty"`
	ContentHash   string       `json:"content_hash,omitempty"`
	TOCMode       string       `json:"toc_mode,omitempty"`
	PageCount     int          `json:"page_count,omitempty"`
	TotalSections int          `json:"total_sections"`
	Sections      []IndexEntry `json:"sections"`
}

// FileName returns the section file name: the zero-padded index followed
// by the section id with dots replaced.
func FileName(index int, id string) string {
	return fmt.Sprintf("section_%03d_%s.json", index, strings.ReplaceAll(id, ".", "_"))
}

// FromSection converts an assembled section to its artifact form.
func FromSection(s section.Section) Section {
	out := Section{
		SectionIndex: s.Index,
		SectionID:    s.ID,
		Title:        s.Title,
		Level:        s.Level,
		Pages:        Pages{Start: s.StartPage, End: s.EndPage, Count: s.PageCount()},
		Content: Content{
			Text:    s.Text,
			Tables:  make([]Table, 0, len(s.Tables)),
			Figures: make([]Figure, 0, len(s.Figures)),
		},
	}
	for _, e := range s.Tables {
		out.Content.Tables = append(out.Content.Tables, Table{
			ID:                 e.ID,
			Title:              e.Title,
			Page:               e.Page,
			BBox:               e.Box.Slice(),
			ImagePath:          e.ImagePath,
			Markdown:           e.Markdown,
			HasInterveningText: e.HasInterveningText,
			MergedCount:        e.MergedCount,
		})
	}
	for _, e := range s.Figures {
		out.Content.Figures = append(out.Content.Figures, figureOf(e))
	}
	out.Statistics = Statistics{TableCount: len(out.Content.Tables), FigureCount: len(out.Content.Figures)}
	return out
}

func figureOf(e continuation.Entity) Figure {
	return Figure{
		ID:                 e.ID,
		Title:              e.Title,
		Page:               e.Page,
		BBox:               e.Box.Slice(),
		ImagePath:          e.ImagePath,
		Description:        e.Markdown,
		HasInterveningText: e.HasInterveningText,
		MergedCount:        e.MergedCount,
	}
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Writer writes artifacts into one output directory.
type Writer struct {
	Dir string
	// Force rewrites section files that already exist.
	Force bool
}

// Result reports what a Write call did.
type Result struct {
	Written []string `json:"written"`
	Skipped []string `json:"skipped"`
	Index   string   `json:"index"`
}

// Write stores every section file and then the index. A section whose
// file already exists is skipped unless Force is set; the index is always
// rewritten so it matches the current run.
func (w *Writer) Write(doc Document, sections []section.Section) (*Result, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	res := &Result{}
	idx := Index{
		PDFName:       doc.Name,
		PDFPath:       doc.Path,
		ContentHash:   doc.ContentHash,
		TOCMode:       doc.TOCMode,
		PageCount:     doc.PageCount,
		TotalSections: len(sections),
		Sections:      make([]IndexEntry, 0, len(sections)),
	}
	for _, s := range sections {
		name := FileName(s.Index, s.ID)
		idx.Sections = append(idx.Sections, IndexEntry{
			Index: s.Index,
			ID:    s.ID,
			Title: s.Title,
			Level: s.Level,
			Pages: fmt.Sprintf("%d-%d", s.StartPage, s.EndPage),
			File:  name,
		})

		path := filepath.Join(w.Dir, name)
		if !w.Force && exists(path) {
			slog.Debug("artifact: section exists, skipping", "file", name)
			res.Skipped = append(res.Skipped, name)
			continue
		}
		if err := writeJSON(path, FromSection(s)); err != nil {
			return res, fmt.Errorf("writing section %d: %w", s.Index, err)
		}
		res.Written = append(res.Written, name)
	}

	res.Index = filepath.Join(w.Dir, IndexFile)
	if err := writeJSON(res.Index, idx); err != nil {
		return res, fmt.Errorf("writing index: %w", err)
	}
	slog.Info("artifact: sections written",
		"dir", w.Dir, "written", len(res.Written), "skipped", len(res.Skipped))
	return res, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeJSON writes v to a temporary file in the target directory and
// renames it into place, so a crash never leaves a partial artifact.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// ReadIndex reads the index of an output directory.
func ReadIndex(dir string) (*Index, error) {
	var idx Index
	if err := readJSON(filepath.Join(dir, IndexFile), &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// ReadSection reads one section file.
func ReadSection(path string) (*Section, error) {
	var s Section
	if err := readJSON(path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReadAll reads the index and every section it lists, in index order.
// Index entries whose file is missing are logged and skipped.
func ReadAll(dir string) (*Index, []Section, error) {
	idx, err := ReadIndex(dir)
	if err != nil {
		return nil, nil, err
	}
	sections := make([]Section, 0, len(idx.Sections))
	for _, e := range idx.Sections {
		s, err := ReadSection(filepath.Join(dir, e.File))
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("artifact: section file missing", "file", e.File)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		sections = append(sections, *s)
	}
	return idx, sections, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}
