package toc

import (
	"testing"

	"github.com/brunobiangulo/docsect/layout"
)

// ---------------------------------------------------------------------------
// Numbering
// ---------------------------------------------------------------------------

func TestParseID(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"4.2.1 Pressure limits", "4.2.1"},
		{"4. General", "4"},
		{"12 Annex", "12"},
		{"3D Models", ""},
		{"0.1 Draft", ""},
		{"Introduction", ""},
		{"7", "7"},
	}
	for _, tt := range tests {
		if got := ParseID(tt.title); got != tt.want {
			t.Errorf("ParseID(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestNumberingLevel(t *testing.T) {
	tests := map[string]int{"": 1, "1": 1, "1.2": 2, "1.2.3.4": 4}
	for id, want := range tests {
		if got := NumberingLevel(id); got != want {
			t.Errorf("NumberingLevel(%q) = %d, want %d", id, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Rejection rules
// ---------------------------------------------------------------------------

func TestReject(t *testing.T) {
	tests := []struct {
		id, label string
		want      Rejection
	}{
		{"1.2", "Scope", RejectNone},
		{"3", "Scope ........ 12", RejectLeader},
		{"3", "Scope…", RejectLeader},
		{"2", "values are listed below", RejectLowercase},
		{"2", "General requirements;", RejectPunctuation},
		{"2", "Pumps and", RejectConjunction},
		{"5", "The pump shall stop", RejectModal},
		{"5", "Flow 10-20 bar", RejectRange},
		{"1.2.3.4.5.6.7", "Deep", RejectDeepID},
		{"1.2024", "Year", RejectLongSegment},
		{"", "The value shall be 10 and 20", RejectModal},
	}
	for _, tt := range tests {
		if got := Reject(tt.id, tt.label); got != tt.want {
			t.Errorf("Reject(%q, %q) = %q, want %q", tt.id, tt.label, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Body font
// ---------------------------------------------------------------------------

func TestBodyFontSize(t *testing.T) {
	spans := []FontSpan{
		{Page: 1, Size: 10.1, Chars: 500},
		{Page: 1, Size: 14, Chars: 40},
		{Page: 2, Size: 9.9, Chars: 300},
		{Page: 3, Size: 8, Chars: 5000},
	}
	if got := BodyFontSize(spans, 2); got != 10 {
		t.Errorf("BodyFontSize(sample 2) = %v, want 10", got)
	}
	if got := BodyFontSize(spans, 10); got != 8 {
		t.Errorf("BodyFontSize(sample 10) = %v, want 8", got)
	}
}

func TestBodyFontSizeTieTakesSmaller(t *testing.T) {
	spans := []FontSpan{{Page: 1, Size: 11, Chars: 100}, {Page: 1, Size: 10, Chars: 100}}
	if got := BodyFontSize(spans, 10); got != 10 {
		t.Errorf("got %v, want 10", got)
	}
	if got := BodyFontSize(nil, 10); got != 0 {
		t.Errorf("empty = %v, want 0", got)
	}
}

// ---------------------------------------------------------------------------
// Fallback scan
// ---------------------------------------------------------------------------

func TestScanAcceptsLargerFontHeading(t *testing.T) {
	lines := []Line{{Page: 3, Y: 120, Text: "1.2  Scope", MaxFontSize: 12}}
	got := Scan(lines, 10, DefaultConfig())
	if len(got) != 1 {
		t.Fatalf("got %d descriptors, want 1", len(got))
	}
	d := got[0]
	if d.ID != "1.2" || d.Level != 2 || d.StartPage != 3 || d.Index != 1 {
		t.Errorf("descriptor = %+v", d)
	}
	if d.AnchorY == nil || *d.AnchorY != 120 {
		t.Errorf("AnchorY = %v, want 120", d.AnchorY)
	}
}

func TestScanRejectsSentence(t *testing.T) {
	s := Scanner{Body: 10, Config: DefaultConfig()}
	ln := Line{Page: 1, Text: "The value shall be 10 and 20", MaxFontSize: 12, Bold: true}
	if _, d := s.Step(ScanState{}, ln); d != nil {
		t.Errorf("sentence accepted as heading: %+v", d)
	}
}

func TestScanNeedsEmphasis(t *testing.T) {
	s := Scanner{Body: 10, Config: DefaultConfig()}
	plain := Line{Page: 1, Text: "2 Normative references", MaxFontSize: 10}
	if why := s.Classify(ScanState{}, plain); why != RejectNoEmphasis {
		t.Errorf("plain line: %q, want %q", why, RejectNoEmphasis)
	}
	gapped := plain
	gapped.Gap = 8
	if why := s.Classify(ScanState{}, gapped); why != RejectNone {
		t.Errorf("gapped line: %q, want accepted", why)
	}
	bold := plain
	bold.Bold = true
	if why := s.Classify(ScanState{}, bold); why != RejectNone {
		t.Errorf("bold line: %q, want accepted", why)
	}
}

func TestScanState(t *testing.T) {
	lines := []Line{
		{Page: 1, Y: 50, Text: "Foreword", Bold: true},
		{Page: 1, Y: 60, Text: "Foreword", Bold: true},
		{Page: 2, Y: 40, Text: "1 Scope", Bold: true},
		{Page: 3, Y: 20, Text: "1 Scope", Bold: true},
		{Page: 3, Y: 80, Text: "1.1 General", Bold: true},
		{Page: 4, Y: 10, Text: "Appendix A Tables", Bold: true},
	}
	got := Scan(lines, 10, DefaultConfig())
	want := []struct {
		id    string
		title string
		level int
	}{
		{"", "Foreword", 1},
		{"1", "1 Scope", 1},
		{"1.1", "1.1 General", 2},
		{"", "Appendix A Tables", 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d descriptors, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].ID != w.id || got[i].Title != w.title || got[i].Level != w.level || got[i].Index != i+1 {
			t.Errorf("[%d] = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestStepThreadsState(t *testing.T) {
	s := Scanner{Body: 10, Config: DefaultConfig()}
	st, d := s.Step(ScanState{}, Line{Page: 1, Text: "4.2 Limits", Bold: true})
	if d == nil || st.LastNumberedID != "4.2" || st.LastNumberedLevel != 2 {
		t.Fatalf("state = %+v, d = %v", st, d)
	}
	st, d = s.Step(st, Line{Page: 1, Text: "References", Bold: true})
	if d == nil || st.InferredSubCount != 1 || st.PrevTitle != "References" {
		t.Fatalf("state = %+v, d = %v", st, d)
	}
	st2, d := s.Step(st, Line{Page: 2, Text: "4.2 Limits", Bold: true})
	if d != nil || st2 != st {
		t.Errorf("repeated id accepted or state changed: %+v", st2)
	}
}

// ---------------------------------------------------------------------------
// Outline and resolve
// ---------------------------------------------------------------------------

func TestFromOutline(t *testing.T) {
	entries := []OutlineEntry{
		{Level: 1, Title: "Contents", Page: 2},
		{Level: 1, Title: "1 Scope", Page: 3},
		{Level: 2, Title: "1.1  Purpose", Page: 3},
		{Level: 0, Title: "Annex A", Page: 9},
		{Level: 1, Title: "Author", Page: 1},
		{Level: 1, Title: "Orphan", Page: 0},
	}
	got := FromOutline(entries, Config{})
	if len(got) != 3 {
		t.Fatalf("got %d descriptors, want 3: %+v", len(got), got)
	}
	if got[1].ID != "1.1" || got[1].Title != "1.1 Purpose" || got[1].Level != 2 || got[1].Index != 2 {
		t.Errorf("second = %+v", got[1])
	}
	if got[2].Level != 1 || got[2].ID != "" {
		t.Errorf("annex = %+v", got[2])
	}
}

func TestResolveFallsBack(t *testing.T) {
	lines := []Line{{Page: 1, Text: "1 Scope", Bold: true}}
	descs, mode := Resolve([]OutlineEntry{{Level: 1, Title: "Untitled", Page: 1}}, lines, nil, Config{})
	if mode != ModeScan || len(descs) != 1 {
		t.Errorf("mode = %s, descs = %+v", mode, descs)
	}
	descs, mode = Resolve([]OutlineEntry{{Level: 1, Title: "1 Scope", Page: 1}}, nil, nil, Config{})
	if mode != ModeOutline || len(descs) != 1 {
		t.Errorf("mode = %s, descs = %+v", mode, descs)
	}
}

// ---------------------------------------------------------------------------
// Anchors
// ---------------------------------------------------------------------------

func TestLocateAnchors(t *testing.T) {
	descs := []Descriptor{
		{Index: 1, ID: "1", Title: "1 Scope", Level: 1, StartPage: 2},
		{Index: 2, ID: "", Title: "Foreword", Level: 1, StartPage: 2},
		{Index: 3, ID: "2", Title: "2 Terms", Level: 1, StartPage: 4},
	}
	items := []layout.Item{
		{Page: 2, Kind: layout.KindText, Box: layout.BBox{Y0: 80}, Text: "10 bar is the limit"},
		{Page: 2, Kind: layout.KindTitle, Box: layout.BBox{Y0: 100}, Text: "1 Scope"},
		{Page: 2, Kind: layout.KindTitle, Box: layout.BBox{Y0: 50}, Text: "FOREWORD"},
		{Page: 4, Kind: layout.KindTable, Box: layout.BBox{Y0: 30}, Text: "2 Terms"},
	}
	got := LocateAnchors(descs, items)
	if got[0].AnchorY == nil || *got[0].AnchorY != 100 {
		t.Errorf("anchor[0] = %v, want 100", got[0].AnchorY)
	}
	// Foreword sits above section 1 on the same page and is clamped.
	if got[1].AnchorY == nil || *got[1].AnchorY != 100 {
		t.Errorf("anchor[1] = %v, want clamped 100", got[1].AnchorY)
	}
	if got[2].AnchorY != nil {
		t.Errorf("anchor[2] = %v, want nil (table items are not headings)", *got[2].AnchorY)
	}
	if descs[0].AnchorY != nil {
		t.Error("input descriptors modified")
	}
}

func TestMonotonicClampsPage(t *testing.T) {
	y := 300.0
	descs := []Descriptor{
		{Index: 1, StartPage: 5, AnchorY: &y},
		{Index: 2, StartPage: 4},
	}
	got := Monotonic(descs)
	if got[1].StartPage != 5 || got[1].AnchorY == nil || *got[1].AnchorY != 300 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestLinesFromItems(t *testing.T) {
	items := []layout.Item{
		{Page: 1, Kind: layout.KindTitle, Box: layout.BBox{Y0: 40}, Text: "1 Scope", FontSize: 14, Bold: true, Gap: 7},
		{Page: 1, Kind: layout.KindText, Text: "body"},
		{Page: 1, Kind: layout.KindText, Text: "7      Check valve orientation", FontSize: 10, Gap: 30},
		{Page: 2, Kind: layout.KindTitle},
	}
	lines := LinesFromItems(items)
	if len(lines) != 1 || lines[0].Y != 40 || lines[0].MaxFontSize != 14 || !lines[0].Bold || lines[0].Gap != 7 {
		t.Errorf("lines = %+v", lines)
	}
	spans := SpansFromItems(items)
	if len(spans) != 2 || spans[0].Chars != 7 {
		t.Errorf("spans = %+v", spans)
	}
}
