package layout

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Kind classification
// ---------------------------------------------------------------------------

func TestKindClassification(t *testing.T) {
	tests := []struct {
		kind    Kind
		content bool
		prose   bool
		caption bool
	}{
		{KindTitle, false, false, true},
		{KindText, false, true, true},
		{KindList, false, true, false},
		{KindCode, false, false, false},
		{KindTable, true, false, false},
		{KindFigure, true, false, false},
		{KindImage, true, false, false},
	}
	if len(tests) != len(Kinds) {
		t.Fatalf("test table covers %d kinds, want %d", len(tests), len(Kinds))
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.IsContent(); got != tt.content {
				t.Errorf("IsContent() = %v, want %v", got, tt.content)
			}
			if got := tt.kind.IsProse(); got != tt.prose {
				t.Errorf("IsProse() = %v, want %v", got, tt.prose)
			}
			if got := tt.kind.IsCaptionCandidate(); got != tt.caption {
				t.Errorf("IsCaptionCandidate() = %v, want %v", got, tt.caption)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		label string
		want  Kind
		ok    bool
	}{
		{"title", KindTitle, true},
		{" Table ", KindTable, true},
		{"table_caption", KindText, true},
		{"image", KindImage, true},
		{"list_item", KindList, true},
		{"header", 0, false},
		{"page_number", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseKind(%q) = (%v, %v), want (%v, %v)", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKindJSONRoundTrip(t *testing.T) {
	it := Item{Page: 3, Kind: KindFigure, Box: BBox{1, 2, 3, 4}}
	b, err := json.Marshal(it)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"kind":"figure"`) {
		t.Errorf("kind not encoded as label: %s", b)
	}
	var back Item
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Kind != KindFigure {
		t.Errorf("Kind = %v, want figure", back.Kind)
	}
}

// ---------------------------------------------------------------------------
// Ordering
// ---------------------------------------------------------------------------

func TestSortOrdersByPageThenY(t *testing.T) {
	items := []Item{
		{Page: 2, Box: BBox{Y0: 10}, Seq: 0},
		{Page: 1, Box: BBox{Y0: 500}, Seq: 1},
		{Page: 1, Box: BBox{Y0: 100}, Seq: 2},
		{Page: 1, Box: BBox{Y0: 100}, Seq: 3},
	}
	Sort(items)
	want := []int{2, 3, 1, 0}
	for i, w := range want {
		if items[i].Seq != w {
			t.Errorf("items[%d].Seq = %d, want %d", i, items[i].Seq, w)
		}
	}
}

func TestBoxFromSliceReorders(t *testing.T) {
	b, err := BoxFromSlice([]float64{10, 50, 5, 20})
	if err != nil {
		t.Fatal(err)
	}
	if b != (BBox{X0: 5, Y0: 20, X1: 10, Y1: 50}) {
		t.Errorf("got %+v", b)
	}
	if _, err := BoxFromSlice([]float64{1, 2}); err == nil {
		t.Error("expected error for short slice")
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

func TestLoadJSON(t *testing.T) {
	src := `{
		"2": {"items": [{"type": "table", "bbox": [100, 300, 900, 600]}]},
		"1": {"width": 500, "height": 500, "items": [
			{"type": "title", "bbox": [50, 50, 250, 60], "text": "1  Scope"},
			{"type": "header", "bbox": [0, 0, 500, 10]},
			{"type": "text", "bbox": [50, 70]}
		]},
		"x": {"items": []}
	}`
	items, err := LoadJSON(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].Page != 1 || items[0].Kind != KindTitle {
		t.Errorf("first item = %+v", items[0])
	}
	if items[0].Box != (BBox{X0: 100, Y0: 100, X1: 500, Y1: 120}) {
		t.Errorf("box not rescaled: %+v", items[0].Box)
	}
	if items[0].Text != "1 Scope" {
		t.Errorf("text not normalized: %q", items[0].Text)
	}
	if items[1].Page != 2 || items[1].Kind != KindTable {
		t.Errorf("second item = %+v", items[1])
	}
}

func TestLoadJSONRawRefs(t *testing.T) {
	src := `{"4": {"raw": "<|ref|>title<|/ref|><|det|>[[58, 127, 326, 148]]<|/det|>\n<|ref|>table<|/ref|><|det|>[[199, 189, 798, 662]]<|/det|>"}}`
	items, err := LoadJSON(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[1].Kind != KindTable || items[1].Box.Y1 != 662 {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestLoadJSONRawRefsSkipsMalformed(t *testing.T) {
	src := `{"7": {"raw": "<|ref|>text<|/ref|><|det|>[[1, x, 3, 4]]<|/det|><|ref|>figure<|/ref|><|det|>[[1, 2, 3, 4]]<|/det|>"}}`
	items, err := LoadJSON(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Kind != KindFigure || items[0].Page != 7 {
		t.Errorf("got %+v", items)
	}
}

// ---------------------------------------------------------------------------
// Text fill
// ---------------------------------------------------------------------------

type stubOracle struct {
	failPage int
}

func (o stubOracle) Text(page int, box BBox) (Span, error) {
	if page == o.failPage {
		return Span{}, errors.New("boom")
	}
	return Span{Text: "  Table 1  ", FontSize: 9, Bold: true}, nil
}

func TestFillDropsFailedPages(t *testing.T) {
	items := []Item{
		{Page: 1, Kind: KindText},
		{Page: 2, Kind: KindText},
		{Page: 2, Kind: KindTable},
		{Page: 3, Kind: KindTitle, Text: "kept"},
	}
	got := Fill(items, stubOracle{failPage: 2})
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}
	if got[0].Text != "Table 1" || got[0].FontSize != 9 || !got[0].Bold {
		t.Errorf("filled item = %+v", got[0])
	}
	if got[1].Text != "kept" {
		t.Errorf("existing text overwritten: %q", got[1].Text)
	}
}
