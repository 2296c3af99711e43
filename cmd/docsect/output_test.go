package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/brunobiangulo/docsect"
	"github.com/brunobiangulo/docsect/artifact"
	"github.com/brunobiangulo/docsect/continuation"
	"github.com/brunobiangulo/docsect/store"
)

func TestFormatContinuationsSortsLinks(t *testing.T) {
	var buf bytes.Buffer
	formatContinuations(&buf, &docsect.ContinuationResult{
		Policy: continuation.PolicyStructural,
		Links:  map[int]int{7: 6, 3: 2},
		Candidates: []continuation.Candidate{
			{PrevPage: 2, CurrPage: 3, Confidence: continuation.ConfidenceHigh, HasTitle: true},
		},
	})
	out := buf.String()
	first := strings.Index(out, "page 3")
	second := strings.Index(out, "page 7")
	if first < 0 || second < 0 || first > second {
		t.Errorf("links out of order:\n%s", out)
	}
	if !strings.Contains(out, "2[0] -> 3[0] high") || !strings.Contains(out, "(titled)") {
		t.Errorf("candidate line missing:\n%s", out)
	}
}

func TestFormatContinuationsEmpty(t *testing.T) {
	var buf bytes.Buffer
	formatContinuations(&buf, &docsect.ContinuationResult{Policy: continuation.PolicyPositional})
	if !strings.Contains(buf.String(), "no continuing pages") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestFormatSectionsIndentsByLevel(t *testing.T) {
	var buf bytes.Buffer
	formatSections(&buf, []store.Section{
		{Title: "4 Ratings", Level: 1, StartPage: 3, EndPage: 5},
		{Title: "4.2 Duty points", Level: 2, StartPage: 4, EndPage: 5, Attachments: []store.Attachment{
			{Type: store.AttachmentTable}, {Type: store.AttachmentFigure},
		}},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "4 Ratings") || !strings.HasPrefix(lines[1], "  4.2 Duty points") {
		t.Errorf("indentation wrong:\n%s", buf.String())
	}
	if !strings.Contains(lines[1], "p.4-5") || !strings.Contains(lines[1], "1 tables, 1 figures") {
		t.Errorf("section line = %q", lines[1])
	}
}

func TestFormatExtract(t *testing.T) {
	var buf bytes.Buffer
	formatExtract(&buf, &docsect.Result{Path: "/docs/pump.pdf", DocumentID: 4, Unchanged: true})
	if !strings.Contains(buf.String(), "unchanged (document 4)") {
		t.Errorf("unchanged output = %q", buf.String())
	}

	buf.Reset()
	formatExtract(&buf, &docsect.Result{
		Path:      "/docs/pump.pdf",
		Mode:      "outline",
		Pages:     12,
		OutputDir: "output/pump",
		Artifacts: &artifact.Result{Written: []string{"a", "b"}, Skipped: []string{"c"}},
	})
	out := buf.String()
	for _, want := range []string{"outline", "2 written", "1 skipped", "output/pump"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
