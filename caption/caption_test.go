package caption

import (
	"testing"

	"github.com/brunobiangulo/docsect/layout"
)

func item(page int, kind layout.Kind, y0, y1 float64, text string) layout.Item {
	return layout.Item{Page: page, Kind: kind, Box: layout.BBox{X0: 100, Y0: y0, X1: 900, Y1: y1}, Text: text}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Kind
	}{
		{"Table 3 Pressure ratings", Table},
		{"TABLE12", Table},
		{"  Figure 4 — Layout", Figure},
		{"Fig. 4", None},
		{"See Table 3", None},
		{"Tables", None},
	}
	for _, tt := range tests {
		if got := Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestMatchSides(t *testing.T) {
	items := []layout.Item{
		item(1, layout.KindText, 100, 120, "Table 1 Limits"),
		item(1, layout.KindTable, 130, 400, ""),
		item(1, layout.KindFigure, 450, 700, ""),
		item(1, layout.KindText, 710, 730, "Figure 1 Pump"),
	}
	got := Match(items, Config{})
	if len(got) != 2 {
		t.Fatalf("got %d pairs, want 2: %+v", len(got), got)
	}
	if got[0].Content != 1 || got[0].Caption != 0 || got[0].Title != "Table 1 Limits" || got[0].Score != 10 {
		t.Errorf("table pair = %+v", got[0])
	}
	if got[1].Content != 2 || got[1].Caption != 3 || got[1].Title != "Figure 1 Pump" {
		t.Errorf("figure pair = %+v", got[1])
	}
}

func TestMatchWrongSide(t *testing.T) {
	items := []layout.Item{
		item(1, layout.KindTable, 100, 300, ""),
		item(1, layout.KindText, 310, 330, "Table 1 Below"),
		item(1, layout.KindText, 50, 70, "Figure 2 Above"),
		item(1, layout.KindImage, 100, 300, ""),
	}
	if got := Match(items, Config{}); len(got) != 0 {
		t.Errorf("wrong-side captions matched: %+v", got)
	}
}

func TestMatchGreedyNearestFirst(t *testing.T) {
	// Two tables under two captions; the nearer caption wins each table.
	items := []layout.Item{
		item(1, layout.KindText, 50, 60, "Table 1 First"),
		item(1, layout.KindTable, 80, 200, ""),
		item(1, layout.KindText, 210, 220, "Table 2 Second"),
		item(1, layout.KindTable, 230, 400, ""),
	}
	titles := Titles(items, Config{})
	if titles[1] != "Table 1 First" || titles[3] != "Table 2 Second" {
		t.Errorf("titles = %v", titles)
	}
}

func TestMatchCapsAndPages(t *testing.T) {
	items := []layout.Item{
		item(1, layout.KindText, 10, 20, "Table 9 Far"),
		item(1, layout.KindTable, 700, 900, ""),
		item(3, layout.KindTable, 50, 300, ""),
	}
	if got := Match(items, Config{}); len(got) != 0 {
		t.Errorf("expected no pairs beyond cap and page distance: %+v", got)
	}
}

func TestMatchCrossPage(t *testing.T) {
	items := []layout.Item{
		item(4, layout.KindText, 940, 960, "Table 5 Continued rating"),
		item(5, layout.KindTable, 60, 400, ""),
	}
	got := Match(items, Config{})
	if len(got) != 1 {
		t.Fatalf("got %+v", got)
	}
	if got[0].Score != 800+40+60 {
		t.Errorf("score = %v, want 900", got[0].Score)
	}
}

func TestScorePrefersSamePage(t *testing.T) {
	cfg := DefaultConfig()
	table := item(5, layout.KindTable, 500, 800, "")
	same, ok := Score(table, item(5, layout.KindText, 80, 100, "Table 1"), Table, cfg)
	if !ok {
		t.Fatal("same-page caption rejected")
	}
	cross, ok := Score(table, item(4, layout.KindText, 980, 990, "Table 1"), Table, cfg)
	if !ok {
		t.Fatal("cross-page caption rejected")
	}
	if same >= cross {
		t.Errorf("same-page score %v not below cross-page %v", same, cross)
	}
}
