//go:build cgo

package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// ---------------------------------------------------------------------------
// Schema / construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("reading schema version: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("schema version = %d, want %d", v, len(migrations))
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "dir", "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

func TestReopenSkipsAppliedMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer s.Close()
	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != len(migrations) {
		t.Errorf("schema_version rows = %d, want %d", n, len(migrations))
	}
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

func sampleDoc(path string) Document {
	return Document{
		Path:        path,
		Filename:    "pump.pdf",
		ContentHash: "abc123",
		TOCMode:     "outline",
		PageCount:   12,
	}
}

func TestUpsertAndGetDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertDocument(ctx, sampleDoc("/docs/pump.pdf"))
	if err != nil {
		t.Fatalf("upserting document: %v", err)
	}
	got, err := s.GetDocument(ctx, id)
	if err != nil {
		t.Fatalf("getting document: %v", err)
	}
	if got.Path != "/docs/pump.pdf" || got.TOCMode != "outline" || got.PageCount != 12 {
		t.Errorf("document = %+v", got)
	}
	if got.Status != StatusPending {
		t.Errorf("status: got %q, want %q", got.Status, StatusPending)
	}

	doc := sampleDoc("/docs/pump.pdf")
	doc.TOCMode = "scan"
	id2, err := s.UpsertDocument(ctx, doc)
	if err != nil {
		t.Fatalf("re-upserting: %v", err)
	}
	if id2 != id {
		t.Errorf("upsert changed id: %d -> %d", id, id2)
	}
	got, _ = s.GetDocumentByPath(ctx, "/docs/pump.pdf")
	if got.TOCMode != "scan" {
		t.Errorf("toc mode not updated: %q", got.TOCMode)
	}
}

func TestGetDocumentByPathNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetDocumentByPath(context.Background(), "/nonexistent"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListAndStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _ := s.UpsertDocument(ctx, sampleDoc("/a.pdf"))
	if _, err := s.UpsertDocument(ctx, sampleDoc("/b.pdf")); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateDocumentStatus(ctx, a, StatusExtracted); err != nil {
		t.Fatal(err)
	}
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	for _, d := range docs {
		if d.ID == a && d.Status != StatusExtracted {
			t.Errorf("status not updated: %+v", d)
		}
	}
}

// ---------------------------------------------------------------------------
// Sections
// ---------------------------------------------------------------------------

func sampleSections() []Section {
	return []Section{
		{Index: 0, Title: "Front Matter", Level: 1, StartPage: 1, EndPage: 1, Text: "Pump Standard"},
		{
			Index: 1, PID: "4.2", Title: "4.2 Ratings", Level: 2, StartPage: 3, EndPage: 5,
			Text: "4.2 Ratings",
			Attachments: []Attachment{
				{Type: AttachmentTable, UniqueID: "Table_3_1", Title: strPtr("Table 3 Ratings"), Page: 3,
					BBox: []float64{50, 200, 950, 900}, ImagePath: "table_003_1.png", MergedCount: intPtr(2)},
				{Type: AttachmentFigure, UniqueID: "Figure_5_1", Page: 5,
					BBox: []float64{100, 100, 600, 400}, ImagePath: "figure_005_1.png", HasInterveningText: true},
			},
		},
	}
}

func TestReplaceAndGetSections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	docID, _ := s.UpsertDocument(ctx, sampleDoc("/pump.pdf"))

	if err := s.ReplaceSections(ctx, docID, sampleSections()); err != nil {
		t.Fatalf("replacing sections: %v", err)
	}
	got, err := s.GetSections(ctx, docID)
	if err != nil {
		t.Fatalf("getting sections: %v", err)
	}
	if len(got) != 2 || got[1].PID != "4.2" {
		t.Fatalf("sections = %+v", got)
	}
	atts := got[1].Attachments
	if len(atts) != 2 {
		t.Fatalf("got %d attachments, want 2", len(atts))
	}
	if atts[0].Title == nil || *atts[0].Title != "Table 3 Ratings" || atts[0].MergedCount == nil || *atts[0].MergedCount != 2 {
		t.Errorf("table attachment = %+v", atts[0])
	}
	if atts[1].Title != nil || atts[1].MergedCount != nil || !atts[1].HasInterveningText {
		t.Errorf("figure attachment = %+v", atts[1])
	}
	if len(atts[0].BBox) != 4 || atts[0].BBox[3] != 900 {
		t.Errorf("bbox = %v", atts[0].BBox)
	}
}

func TestReplaceSectionsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	docID, _ := s.UpsertDocument(ctx, sampleDoc("/pump.pdf"))

	for i := 0; i < 3; i++ {
		if err := s.ReplaceSections(ctx, docID, sampleSections()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	stats, err := s.DBStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sections != 2 || stats.Tables != 1 || stats.Figures != 1 {
		t.Errorf("stats after re-runs = %+v", stats)
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	docID, _ := s.UpsertDocument(ctx, sampleDoc("/pump.pdf"))
	if err := s.ReplaceSections(ctx, docID, sampleSections()); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceContinuations(ctx, docID, []Continuation{{PrevPage: 3, CurrPage: 4, Confidence: "high"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteDocument(ctx, docID); err != nil {
		t.Fatalf("deleting: %v", err)
	}
	stats, _ := s.DBStats(ctx)
	if *stats != (DBStats{}) {
		t.Errorf("rows left after delete: %+v", stats)
	}
}

// ---------------------------------------------------------------------------
// Continuations
// ---------------------------------------------------------------------------

func TestReplaceContinuations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	docID, _ := s.UpsertDocument(ctx, sampleDoc("/pump.pdf"))

	first := []Continuation{
		{PrevPage: 7, CurrPage: 8, Confidence: "medium"},
		{PrevPage: 3, CurrPage: 4, PrevTableIdx: 1, Confidence: "high", HasTitle: true},
	}
	if err := s.ReplaceContinuations(ctx, docID, first); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceContinuations(ctx, docID, first); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetContinuations(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d continuations, want 2", len(got))
	}
	if got[0].CurrPage != 4 || !got[0].HasTitle || got[0].PrevTableIdx != 1 {
		t.Errorf("first continuation = %+v", got[0])
	}
	if err := s.ReplaceContinuations(ctx, docID, []Continuation{{PrevPage: 1, CurrPage: 2, Confidence: "bogus"}}); err == nil {
		t.Error("expected check constraint failure for unknown confidence")
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := FileHash(path)
	if err != nil {
		t.Fatal(err)
	}
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("FileHash = %s, want %s", got, want)
	}
}
