// Package report exports a document's section catalog as an XLSX
// workbook: one sheet each for sections, tables, figures and page-level
// continuations.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/docsect/store"
)

// Sheet names.
const (
	SheetSections      = "Sections"
	SheetTables        = "Tables"
	SheetFigures       = "Figures"
	SheetContinuations = "Continuations"
)

// Catalog is the content of one report.
type Catalog struct {
	Document      string
	Sections      []store.Section
	Continuations []store.Continuation
}

var (
	sectionHeader      = []any{"Index", "ID", "Title", "Level", "Start Page", "End Page", "Pages", "Tables", "Figures", "Text Length"}
	attachmentHeader   = []any{"Section", "Unique ID", "Title", "Page", "BBox", "Image", "Merged Count", "Intervening Text"}
	continuationHeader = []any{"Prev Page", "Curr Page", "Prev Table", "Curr Table", "Confidence", "Has Title"}
)

// Build creates the workbook. The caller must Close it.
func Build(c Catalog) (*excelize.File, error) {
	f := excelize.NewFile()

	// NewFile starts with one default sheet.
	if err := f.SetSheetName(f.GetSheetName(0), SheetSections); err != nil {
		f.Close()
		return nil, fmt.Errorf("renaming first sheet: %w", err)
	}
	for _, name := range []string{SheetTables, SheetFigures, SheetContinuations} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	w := &sheetWriter{f: f, bold: bold}
	w.header(SheetSections, sectionHeader)
	w.header(SheetTables, attachmentHeader)
	w.header(SheetFigures, attachmentHeader)
	w.header(SheetContinuations, continuationHeader)

	for _, s := range c.Sections {
		var tables, figures int
		for _, a := range s.Attachments {
			row := []any{s.Index, a.UniqueID, deref(a.Title), a.Page, formatBBox(a.BBox), a.ImagePath, derefInt(a.MergedCount), a.HasInterveningText}
			switch a.Type {
			case store.AttachmentTable:
				tables++
				w.row(SheetTables, row)
			case store.AttachmentFigure:
				figures++
				w.row(SheetFigures, row)
			}
		}
		w.row(SheetSections, []any{s.Index, s.PID, s.Title, s.Level, s.StartPage, s.EndPage,
			s.EndPage - s.StartPage + 1, tables, figures, len([]rune(s.Text))})
	}
	for _, ct := range c.Continuations {
		w.row(SheetContinuations, []any{ct.PrevPage, ct.CurrPage, ct.PrevTableIdx, ct.CurrTableIdx, ct.Confidence, ct.HasTitle})
	}
	if w.err != nil {
		f.Close()
		return nil, w.err
	}

	if c.Document != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Title: c.Document, Creator: "docsect"}); err != nil {
			f.Close()
			return nil, fmt.Errorf("setting document properties: %w", err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, c Catalog) error {
	f, err := Build(c)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Save builds the workbook and saves it at path.
func Save(path string, c Catalog) error {
	f, err := Build(c)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// sheetWriter appends rows per sheet and keeps the first error.
type sheetWriter struct {
	f    *excelize.File
	bold int
	next map[string]int
	err  error
}

func (w *sheetWriter) header(sheet string, cells []any) {
	w.row(sheet, cells)
	if w.err != nil {
		return
	}
	end, err := excelize.CoordinatesToCellName(len(cells), 1)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(sheet, "A1", end, w.bold); err != nil {
		w.err = fmt.Errorf("styling %s header: %w", sheet, err)
	}
}

func (w *sheetWriter) row(sheet string, cells []any) {
	if w.err != nil {
		return
	}
	if w.next == nil {
		w.next = make(map[string]int)
	}
	w.next[sheet]++
	cell, err := excelize.CoordinatesToCellName(1, w.next[sheet])
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &cells); err != nil {
		w.err = fmt.Errorf("writing %s row %d: %w", sheet, w.next[sheet], err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}

func formatBBox(b []float64) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
