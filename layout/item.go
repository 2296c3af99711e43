// Package layout holds the primitives the reconstruction works on: typed
// layout items with a bounding box in a 0–1000 page-normalized space, their
// document ordering, and the text accessor used to fill them.
package layout

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Kind is the closed set of layout item types.
type Kind int

const (
	KindTitle Kind = iota + 1
	KindText
	KindList
	KindCode
	KindTable
	KindFigure
	KindImage
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{KindTitle, KindText, KindList, KindCode, KindTable, KindFigure, KindImage}

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindCode:
		return "code"
	case KindTable:
		return "table"
	case KindFigure:
		return "figure"
	case KindImage:
		return "image"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps an external layout label to a Kind. Labels that are not
// document content (page headers, footers, page numbers) and unknown
// labels report ok=false.
func ParseKind(label string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "title", "section_header", "section-header", "heading", "sub_title", "subtitle":
		return KindTitle, true
	case "text", "plain_text", "paragraph", "caption", "table_caption", "figure_caption",
		"image_caption", "table_footnote", "footnote", "formula", "equation":
		return KindText, true
	case "list", "list_item", "list-item":
		return KindList, true
	case "code", "algorithm":
		return KindCode, true
	case "table":
		return KindTable, true
	case "figure", "chart", "diagram":
		return KindFigure, true
	case "image", "picture":
		return KindImage, true
	default:
		return 0, false
	}
}

// IsContent reports whether items of this kind become tables or figures.
func (k Kind) IsContent() bool {
	switch k {
	case KindTable, KindFigure, KindImage:
		return true
	case KindTitle, KindText, KindList, KindCode:
		return false
	default:
		return false
	}
}

// IsProse reports whether the kind counts as running text between
// content items.
func (k Kind) IsProse() bool {
	switch k {
	case KindText, KindList:
		return true
	case KindTitle, KindCode, KindTable, KindFigure, KindImage:
		return false
	default:
		return false
	}
}

// IsCaptionCandidate reports whether an item of this kind may carry a
// "Table N" / "Figure N" caption.
func (k Kind) IsCaptionCandidate() bool {
	switch k {
	case KindTitle, KindText:
		return true
	case KindList, KindCode, KindTable, KindFigure, KindImage:
		return false
	default:
		return false
	}
}

// IsFigure reports whether the kind is grouped as a figure.
func (k Kind) IsFigure() bool {
	return k == KindFigure || k == KindImage
}

// BBox is an axis-aligned box (x0, y0) top-left to (x1, y1) bottom-right.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the box width.
func (b BBox) Width() float64 { return b.X1 - b.X0 }

// Height returns the box height.
func (b BBox) Height() float64 { return b.Y1 - b.Y0 }

// Slice returns the box as [x0, y0, x1, y1].
func (b BBox) Slice() []float64 { return []float64{b.X0, b.Y0, b.X1, b.Y1} }

// Intersects reports whether two boxes overlap.
func (b BBox) Intersects(o BBox) bool {
	return b.X0 < o.X1 && o.X0 < b.X1 && b.Y0 < o.Y1 && o.Y0 < b.Y1
}

// UnmarshalJSON accepts either {"x0":..,"y0":..,"x1":..,"y1":..} or a
// [x0, y0, x1, y1] array.
func (b *BBox) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var v []float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		box, err := BoxFromSlice(v)
		if err != nil {
			return err
		}
		*b = box
		return nil
	}
	type plain BBox
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BBox(p)
	return nil
}

// BoxFromSlice builds a box from [x0, y0, x1, y1]. Coordinates are
// reordered so that X0 <= X1 and Y0 <= Y1.
func BoxFromSlice(v []float64) (BBox, error) {
	if len(v) != 4 {
		return BBox{}, fmt.Errorf("bbox needs 4 values, got %d", len(v))
	}
	b := BBox{X0: min(v[0], v[2]), Y0: min(v[1], v[3]), X1: max(v[0], v[2]), Y1: max(v[1], v[3])}
	return b, nil
}

// Item is one detected region on a page. Text and FontSize are cached
// values filled once from the text oracle.
type Item struct {
	Page     int     `json:"page"`
	Kind     Kind    `json:"kind"`
	Box      BBox    `json:"bbox"`
	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
	Bold     bool    `json:"bold,omitempty"`
	// Gap is the distance in PDF points between a leading section number
	// and its label. Only native PDF lines measure it.
	Gap float64 `json:"gap,omitempty"`
	Seq int     `json:"seq"`
}

// Pos returns the item's document position (page, top edge).
func (it Item) Pos() Position {
	return Position{Page: it.Page, Y: it.Box.Y0}
}

// Position is a point in document order.
type Position struct {
	Page int
	Y    float64
}

// Compare orders positions by page, then y.
func (p Position) Compare(o Position) int {
	if c := cmp.Compare(p.Page, o.Page); c != 0 {
		return c
	}
	return cmp.Compare(p.Y, o.Y)
}

// Less reports whether p comes strictly before o.
func (p Position) Less(o Position) bool { return p.Compare(o) < 0 }

// Sort orders items by (page, y, seq) in place.
func Sort(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		if c := a.Pos().Compare(b.Pos()); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
}

// Pages returns the distinct pages present in items, ascending.
func Pages(items []Item) []int {
	var pages []int
	for _, it := range items {
		pages = append(pages, it.Page)
	}
	slices.Sort(pages)
	return slices.Compact(pages)
}
