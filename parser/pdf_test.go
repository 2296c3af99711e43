package parser

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/brunobiangulo/docsect/internal/pdftest"
	"github.com/brunobiangulo/docsect/layout"
)

func writeManual(t *testing.T, outline []pdftest.Bookmark) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manual.pdf")
	pdftest.Write(t, path, []pdftest.Page{
		{Lines: []pdftest.Line{
			{X: 72, Y: 100, Size: 14, Bold: true, Text: "2.1 Scope"},
			{X: 72, Y: 130, Size: 10, Text: "Applies to every skid."},
			{X: 72, Y: 144, Size: 10, Text: "Valves ship loose."},
		}},
		{Lines: []pdftest.Line{
			{X: 72, Y: 100, Size: 10, Text: "3      Flush the lines"},
		}},
	}, outline)
	return path
}

// ---------------------------------------------------------------------------
// Native reader
// ---------------------------------------------------------------------------

func TestOpenReadsGeneratedPDF(t *testing.T) {
	doc, err := Open(writeManual(t, nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer doc.Close()

	if doc.NumPages() != 2 {
		t.Fatalf("NumPages = %d, want 2", doc.NumPages())
	}
	lines, err := doc.Lines(1)
	if err != nil {
		t.Fatal(err)
	}
	wantText := []string{"2.1 Scope", "Applies to every skid.", "Valves ship loose."}
	if len(lines) != len(wantText) {
		t.Fatalf("got %d lines: %+v", len(lines), lines)
	}
	for i, ln := range lines {
		if ln.Text != wantText[i] {
			t.Errorf("line[%d] = %q, want %q", i, ln.Text, wantText[i])
		}
	}

	h := lines[0]
	if !h.Bold || h.MaxFontSize != 14 {
		t.Errorf("heading bold=%v size=%v", h.Bold, h.MaxFontSize)
	}
	// One space at 14pt with 500/1000 advances.
	if math.Abs(h.Gap-7) > 0.01 {
		t.Errorf("heading gap = %v, want 7", h.Gap)
	}
	if lines[1].Bold {
		t.Error("regular line marked bold")
	}

	// Box is normalized against the Letter MediaBox.
	wantX0 := 72 / pdftest.PageWidth * layout.NormalizedSize
	wantY1 := 100 / pdftest.PageHeight * layout.NormalizedSize
	if math.Abs(h.Box.X0-wantX0) > 0.01 || math.Abs(h.Box.Y1-wantY1) > 0.01 {
		t.Errorf("heading box = %+v, want X0 %.2f Y1 %.2f", h.Box, wantX0, wantY1)
	}

	if _, err := doc.Lines(3); err == nil {
		t.Error("expected error for page out of range")
	}
}

func TestTextOracleOverGeneratedPDF(t *testing.T) {
	doc, err := Open(writeManual(t, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()

	lines, err := doc.Lines(1)
	if err != nil {
		t.Fatal(err)
	}
	span, err := doc.Text(1, lines[1].Box)
	if err != nil {
		t.Fatal(err)
	}
	if span.Text != "Applies to every skid." || span.FontSize != 10 {
		t.Errorf("span = %+v", span)
	}
}

func TestPDFProviderClassifiesLines(t *testing.T) {
	doc, err := Open(writeManual(t, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()

	items, err := (&PDFProvider{}).Items(context.Background(), Input{Doc: doc})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 4 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Kind != layout.KindTitle || items[0].Gap == 0 {
		t.Errorf("heading item = %+v", items[0])
	}
	// A wide number gap alone does not make a regular body-size line a title.
	last := items[3]
	if last.Kind != layout.KindText || last.Page != 2 {
		t.Errorf("numbered body line = %+v", last)
	}
	if last.Gap < 30 {
		t.Errorf("numbered body gap = %v, want the six-space gap", last.Gap)
	}
}

// ---------------------------------------------------------------------------
// Outline over pdfcpu
// ---------------------------------------------------------------------------

func TestReadOutline(t *testing.T) {
	path := writeManual(t, []pdftest.Bookmark{
		{Title: "2 Design Basis", Page: 1, Kids: []pdftest.Bookmark{
			{Title: "2.1 Scope", Page: 1},
		}},
		{Title: "3 Installation", Page: 2},
	})
	got, err := ReadOutline(path)
	if err != nil {
		t.Fatalf("ReadOutline: %v", err)
	}
	want := []struct {
		title string
		level int
		page  int
	}{
		{"2 Design Basis", 1, 1},
		{"2.1 Scope", 2, 1},
		{"3 Installation", 1, 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries: %+v", len(got), got)
	}
	for i, w := range want {
		if got[i].Title != w.title || got[i].Level != w.level || got[i].Page != w.page {
			t.Errorf("[%d] = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestReadOutlineMissingFile(t *testing.T) {
	if _, err := ReadOutline(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}
