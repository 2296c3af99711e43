package layout

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Span is what a text oracle returns for a region.
type Span struct {
	Text     string
	FontSize float64 // average glyph size, 0 when unknown
	Bold     bool
}

// TextOracle extracts the text inside a box on a page. The box is in the
// 0–1000 normalized space.
type TextOracle interface {
	Text(page int, box BBox) (Span, error)
}

// MarshalText encodes the kind as its label.
func (k Kind) MarshalText() ([]byte, error) {
	if k < KindTitle || k > KindImage {
		return nil, fmt.Errorf("invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a label produced by MarshalText or any label
// accepted by ParseKind.
func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown layout kind %q", string(b))
	}
	*k = v
	return nil
}

// Normalize applies NFKC and collapses runs of whitespace to one space.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Fill populates Text, FontSize and Bold for items whose text is empty.
// A page whose extraction fails is dropped whole: its items are removed
// and the failure is logged.
func Fill(items []Item, oracle TextOracle) []Item {
	if oracle == nil {
		return items
	}
	failed := make(map[int]bool)
	for i := range items {
		it := &items[i]
		if failed[it.Page] || it.Text != "" {
			continue
		}
		span, err := oracle.Text(it.Page, it.Box)
		if err != nil {
			slog.Warn("layout: text extraction failed, dropping page", "page", it.Page, "error", err)
			failed[it.Page] = true
			continue
		}
		it.Text = Normalize(span.Text)
		if it.FontSize == 0 {
			it.FontSize = span.FontSize
		}
		it.Bold = it.Bold || span.Bold
	}
	if len(failed) == 0 {
		return items
	}
	kept := items[:0]
	for _, it := range items {
		if !failed[it.Page] {
			kept = append(kept, it)
		}
	}
	return kept
}
