// Package continuation collapses tables and figures that were split across
// a page or region break into single logical entities, and detects
// page-to-page table continuations from per-page table detections.
package continuation

import (
	"fmt"
	"strings"

	"github.com/brunobiangulo/docsect/caption"
	"github.com/brunobiangulo/docsect/layout"
)

// Family separates the two grouping sequences: tables, and figures
// (Figure and Image items together).
type Family int

const (
	Tables Family = iota + 1
	Figures
)

// FamilyOf returns the family of a content kind, or 0 for other kinds.
func FamilyOf(k layout.Kind) Family {
	switch k {
	case layout.KindTable:
		return Tables
	case layout.KindFigure, layout.KindImage:
		return Figures
	case layout.KindTitle, layout.KindText, layout.KindList, layout.KindCode:
		return 0
	default:
		return 0
	}
}

// Member is one source item of an entity.
type Member struct {
	Page    int         `json:"page"`
	Box     layout.BBox `json:"bbox"`
	Title   *string     `json:"title"`
	Ordinal int         `json:"ordinal"`
}

// Entity is the representative record of one or more merged items.
type Entity struct {
	ID        string
	Kind      layout.Kind
	Title     *string
	Page      int
	Box       layout.BBox
	ImagePath string
	// HasInterveningText reports prose between this entity and the
	// previous entity of the same family.
	HasInterveningText bool
	MergedCount        *int
	// Markdown holds the derived table markdown or figure description.
	// Grouping clears it so consumers re-derive it for the merged entity.
	Markdown *string
	Members  []Member
}

// Family returns the entity's grouping family.
func (e Entity) Family() Family { return FamilyOf(e.Kind) }

func (e Entity) headTitle() *string {
	if len(e.Members) == 0 {
		return e.Title
	}
	return e.Members[0].Title
}

func (e Entity) tailTitle() *string {
	if len(e.Members) == 0 {
		return e.Title
	}
	return e.Members[len(e.Members)-1].Title
}

// Config holds the grouping thresholds.
type Config struct {
	// InterveningChars is the trimmed length above which a Text or List
	// item between two content items blocks a merge.
	InterveningChars int `json:"intervening_chars" yaml:"intervening_chars"`
}

// DefaultConfig returns the grouping defaults.
func DefaultConfig() Config {
	return Config{InterveningChars: 20}
}

func (c Config) withDefaults() Config {
	if c.InterveningChars <= 0 {
		c.InterveningChars = DefaultConfig().InterveningChars
	}
	return c
}

// IsInterveningText reports whether an item counts as prose that
// separates two content items.
func IsInterveningText(it layout.Item, cfg Config) bool {
	cfg = cfg.withDefaults()
	if !it.Kind.IsProse() {
		return false
	}
	t := strings.TrimSpace(it.Text)
	return len([]rune(t)) > cfg.InterveningChars && !caption.IsCaption(t)
}

// Ordinals numbers content items per (page, family) in stream order,
// starting at 1. The result is keyed by index into items.
func Ordinals(items []layout.Item) map[int]int {
	type key struct {
		page   int
		family Family
	}
	counts := make(map[key]int)
	out := make(map[int]int)
	for i, it := range items {
		f := FamilyOf(it.Kind)
		if f == 0 {
			continue
		}
		k := key{it.Page, f}
		counts[k]++
		out[i] = counts[k]
	}
	return out
}

// Entities builds one single-member entity per content item, in stream
// order. titles and ordinals are keyed by index into items; a nil
// ordinals map numbers items locally. HasInterveningText is set when a
// prose item or a content item of the other family lies strictly between
// an entity and the previous entity of its family.
func Entities(items []layout.Item, titles map[int]string, ordinals map[int]int, cfg Config) []Entity {
	cfg = cfg.withDefaults()
	if ordinals == nil {
		ordinals = Ordinals(items)
	}

	var out []Entity
	last := map[Family]int{Tables: -1, Figures: -1}
	for i, it := range items {
		f := FamilyOf(it.Kind)
		if f == 0 {
			continue
		}
		var title *string
		if t, ok := titles[i]; ok && t != "" {
			title = &t
		}
		e := newEntity(it, title, ordinals[i])
		if prev := last[f]; prev >= 0 {
			e.HasInterveningText = interveningBetween(items, prev, i, f, cfg)
		}
		last[f] = i
		out = append(out, e)
	}
	return out
}

func interveningBetween(items []layout.Item, from, to int, f Family, cfg Config) bool {
	for _, it := range items[from+1 : to] {
		if IsInterveningText(it, cfg) {
			return true
		}
		if g := FamilyOf(it.Kind); g != 0 && g != f {
			return true
		}
	}
	return false
}

func newEntity(it layout.Item, title *string, ordinal int) Entity {
	e := Entity{
		Kind:    it.Kind,
		Title:   title,
		Page:    it.Page,
		Box:     it.Box,
		Members: []Member{{Page: it.Page, Box: it.Box, Title: title, Ordinal: ordinal}},
	}
	e.ID, e.ImagePath = names(FamilyOf(it.Kind), it.Page, ordinal)
	return e
}

func names(f Family, page, ordinal int) (id, image string) {
	if f == Figures {
		return fmt.Sprintf("Figure_%d_%d", page, ordinal), fmt.Sprintf("figure_%03d_%d.png", page, ordinal)
	}
	return fmt.Sprintf("Table_%d_%d", page, ordinal), fmt.Sprintf("table_%03d_%d.png", page, ordinal)
}

// Mergeable reports whether next continues prev. Intervening text before
// next always starts a new group; otherwise next continues prev when
//
//  1. neither carries a title;
//  2. prev carries a title and next does not;
//  3. both carry the identical title.
//
// prev is judged by its last member's title and next by its first, so
// already merged entities regroup exactly as their members did.
func Mergeable(prev, next Entity) bool {
	if prev.Family() != next.Family() || next.HasInterveningText {
		return false
	}
	pt, nt := prev.tailTitle(), next.headTitle()
	if pt != nil && nt != nil {
		return *pt == *nt
	}
	return nt == nil
}

// Merge collapses consecutive mergeable entities of one family. The
// representative keeps the first member's id, page and box, the first
// non-nil title and the first member's intervening-text flag.
// MergedCount is nil for single-member entities. Merge(Merge(x)) equals
// Merge(x).
func Merge(ents []Entity) []Entity {
	var out []Entity
	for _, e := range ents {
		e.Members = append([]Member(nil), e.Members...)
		if n := len(out); n > 0 && Mergeable(out[n-1], e) {
			rep := &out[n-1]
			rep.Members = append(rep.Members, e.Members...)
			if rep.Title == nil {
				rep.Title = e.Title
			}
			count := len(rep.Members)
			rep.MergedCount = &count
			rep.Markdown = nil
			continue
		}
		if len(e.Members) <= 1 {
			e.MergedCount = nil
		}
		out = append(out, e)
	}
	return out
}

// Group builds entities from a section's ordered items and merges each
// family separately.
func Group(items []layout.Item, titles map[int]string, ordinals map[int]int, cfg Config) (tables, figures []Entity) {
	for _, e := range Entities(items, titles, ordinals, cfg) {
		switch e.Family() {
		case Tables:
			tables = append(tables, e)
		case Figures:
			figures = append(figures, e)
		}
	}
	return Merge(tables), Merge(figures)
}
