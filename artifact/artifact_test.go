package artifact

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brunobiangulo/docsect/continuation"
	"github.com/brunobiangulo/docsect/layout"
	"github.com/brunobiangulo/docsect/section"
	"github.com/brunobiangulo/docsect/toc"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

var pumpDoc = Document{Name: "pump.pdf", Path: "/docs/pump.pdf", TOCMode: "outline", PageCount: 6}

func sampleSections() []section.Section {
	return []section.Section{
		{
			Descriptor: toc.Descriptor{Index: 0, Title: section.FrontMatterTitle, Level: 1, StartPage: 1},
			EndPage:    1,
			Text:       "Pump Standard",
		},
		{
			Descriptor: toc.Descriptor{Index: 1, ID: "4.2", Title: "4.2 Ratings", Level: 2, StartPage: 3},
			EndPage:    5,
			Text:       "4.2 Ratings\nTable 3 Pump ratings",
			Tables: []continuation.Entity{{
				ID:          "Table_3_1",
				Kind:        layout.KindTable,
				Title:       strPtr("Table 3 Pump ratings"),
				Page:        3,
				Box:         layout.BBox{X0: 50, Y0: 200, X1: 950, Y1: 900},
				ImagePath:   "table_003_1.png",
				MergedCount: intPtr(2),
			}},
			Figures: []continuation.Entity{{
				ID:        "Figure_5_1",
				Kind:      layout.KindFigure,
				Page:      5,
				Box:       layout.BBox{X0: 100, Y0: 100, X1: 600, Y1: 400},
				ImagePath: "figure_005_1.png",
			}},
		},
	}
}

// ---------------------------------------------------------------------------
// Naming and conversion
// ---------------------------------------------------------------------------

func TestFileName(t *testing.T) {
	tests := []struct {
		index int
		id    string
		want  string
	}{
		{0, "", "section_000_.json"},
		{7, "4.2.1", "section_007_4_2_1.json"},
		{123, "12", "section_123_12.json"},
	}
	for _, tt := range tests {
		if got := FileName(tt.index, tt.id); got != tt.want {
			t.Errorf("FileName(%d, %q) = %q, want %q", tt.index, tt.id, got, tt.want)
		}
	}
}

func TestFromSection(t *testing.T) {
	a := FromSection(sampleSections()[1])
	if a.Pages != (Pages{Start: 3, End: 5, Count: 3}) {
		t.Errorf("pages = %+v", a.Pages)
	}
	if a.Statistics != (Statistics{TableCount: 1, FigureCount: 1}) {
		t.Errorf("statistics = %+v", a.Statistics)
	}
	tb := a.Content.Tables[0]
	if *tb.MergedCount != 2 || len(tb.BBox) != 4 || tb.BBox[2] != 950 {
		t.Errorf("table = %+v", tb)
	}
	if a.Content.Figures[0].Title != nil {
		t.Error("untitled figure got a title")
	}
}

// ---------------------------------------------------------------------------
// Write / read
// ---------------------------------------------------------------------------

func TestWriteAndReadAll(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}
	res, err := w.Write(pumpDoc, sampleSections())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Written) != 2 || len(res.Skipped) != 0 {
		t.Fatalf("result = %+v", res)
	}

	idx, sections, err := ReadAll(dir)
	if err != nil {
		t.Fatal(err)
	}
	if idx.PDFName != "pump.pdf" || idx.PDFPath != "/docs/pump.pdf" || idx.TOCMode != "outline" || idx.TotalSections != 2 {
		t.Errorf("index = %+v", idx)
	}
	if idx.Sections[1].File != "section_001_4_2.json" || idx.Sections[1].Pages != "3-5" {
		t.Errorf("index entry = %+v", idx.Sections[1])
	}
	if len(sections) != 2 || sections[1].SectionID != "4.2" {
		t.Fatalf("sections = %+v", sections)
	}
	if got := sections[1].Content.Tables[0].Title; got == nil || *got != "Table 3 Pump ratings" {
		t.Errorf("table title = %v", got)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "section_001_4_2.json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"description": null`, `"markdown": null`, `"merged_count": 2`, `"has_intervening_text": false`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("section file missing %s", key)
		}
	}
}

func TestWriteSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	if _, err := (&Writer{Dir: dir}).Write(pumpDoc, sampleSections()); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "section_001_4_2.json")
	first, _ := os.ReadFile(path)

	changed := sampleSections()
	changed[1].Text = "edited"
	res, err := (&Writer{Dir: dir}).Write(pumpDoc, changed)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Skipped) != 2 || len(res.Written) != 0 {
		t.Errorf("second run result = %+v", res)
	}
	second, _ := os.ReadFile(path)
	if !bytes.Equal(first, second) {
		t.Error("skipped section file was rewritten")
	}

	res, err = (&Writer{Dir: dir, Force: true}).Write(pumpDoc, changed)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Written) != 2 {
		t.Errorf("forced run result = %+v", res)
	}
	s, err := ReadSection(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Content.Text != "edited" {
		t.Errorf("forced write kept old text %q", s.Content.Text)
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	for _, dir := range []string{a, b} {
		if _, err := (&Writer{Dir: dir}).Write(pumpDoc, sampleSections()); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{IndexFile, "section_000_.json", "section_001_4_2.json"} {
		x, _ := os.ReadFile(filepath.Join(a, name))
		y, _ := os.ReadFile(filepath.Join(b, name))
		if !bytes.Equal(x, y) {
			t.Errorf("%s differs between runs", name)
		}
	}
}

func TestReadAllMissingSection(t *testing.T) {
	dir := t.TempDir()
	if _, err := (&Writer{Dir: dir}).Write(pumpDoc, sampleSections()); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "section_000_.json")); err != nil {
		t.Fatal(err)
	}
	_, sections, err := ReadAll(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 1 {
		t.Errorf("got %d sections, want 1", len(sections))
	}
}

func TestReadIndexMissing(t *testing.T) {
	if _, err := ReadIndex(t.TempDir()); err == nil {
		t.Error("expected error for missing index")
	}
}
