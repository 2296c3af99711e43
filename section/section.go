// Package section assigns every layout item to exactly one section and
// assembles each section's captions, merged tables and figures, and text.
package section

import (
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/brunobiangulo/docsect/caption"
	"github.com/brunobiangulo/docsect/continuation"
	"github.com/brunobiangulo/docsect/layout"
	"github.com/brunobiangulo/docsect/toc"
)

// FrontMatterTitle names the synthetic section that owns items before the
// first anchor.
const FrontMatterTitle = "Front Matter"

// Section is one output section.
type Section struct {
	toc.Descriptor
	EndPage int
	// Heading holds the items coincident with the section's anchor.
	Heading []layout.Item
	// Items holds the owned body items in (page, y) order.
	Items   []layout.Item
	Text    string
	Tables  []continuation.Entity
	Figures []continuation.Entity

	// docIndex maps Items to their index in the document stream.
	docIndex []int
}

// IsFrontMatter reports whether s is the synthetic leading section.
func (s Section) IsFrontMatter() bool { return s.Index == 0 }

// PageCount returns the number of pages spanned.
func (s Section) PageCount() int { return s.EndPage - s.StartPage + 1 }

// Config tunes mapping and assembly.
type Config struct {
	// HeadingEpsilon is the y tolerance for recognising the heading item
	// at a section's anchor.
	HeadingEpsilon float64             `json:"heading_epsilon" yaml:"heading_epsilon"`
	Caption        caption.Config      `json:"caption" yaml:"caption"`
	Continuation   continuation.Config `json:"continuation" yaml:"continuation"`
}

// DefaultConfig returns the mapping defaults.
func DefaultConfig() Config {
	return Config{
		HeadingEpsilon: 2,
		Caption:        caption.DefaultConfig(),
		Continuation:   continuation.DefaultConfig(),
	}
}

// Map assigns each item to a section with a single monotonic cursor: for
// every item in (page, y) order the cursor advances while the next
// section's anchor is at or before the item. A Front Matter section
// (index 0) owns everything before the first anchor and is returned only
// when it owns an item or descs is empty. lastPage is the document's
// final page; 0 means the last page holding an item.
func Map(descs []toc.Descriptor, items []layout.Item, lastPage int, cfg Config) []Section {
	if cfg.HeadingEpsilon <= 0 {
		cfg.HeadingEpsilon = DefaultConfig().HeadingEpsilon
	}
	stream := slices.Clone(items)
	layout.Sort(stream)
	for _, it := range stream {
		lastPage = max(lastPage, it.Page)
	}
	lastPage = max(lastPage, 1)

	ordered := toc.Monotonic(slices.Clone(descs))
	all := make([]Section, 0, len(ordered)+1)
	all = append(all, Section{Descriptor: toc.Descriptor{Index: 0, Title: FrontMatterTitle, Level: 1, StartPage: 1}})
	for _, d := range ordered {
		all = append(all, Section{Descriptor: d})
	}

	cur := 0
	for i, it := range stream {
		pos := it.Pos()
		for cur+1 < len(all) && !pos.Less(all[cur+1].Anchor()) {
			cur++
		}
		s := &all[cur]
		if cur > 0 && isHeading(s.Descriptor, it, cfg.HeadingEpsilon) {
			s.Heading = append(s.Heading, it)
			continue
		}
		s.Items = append(s.Items, it)
		s.docIndex = append(s.docIndex, i)
	}

	out := all
	if len(ordered) > 0 && len(all[0].Items) == 0 {
		out = all[1:]
	}
	for i := range out {
		s := &out[i]
		end := s.StartPage
		if n := len(s.Items); n > 0 {
			end = max(end, s.Items[n-1].Page)
		}
		if n := len(s.Heading); n > 0 {
			end = max(end, s.Heading[n-1].Page)
		}
		if i+1 < len(out) {
			end = max(end, out[i+1].StartPage-1)
		} else {
			end = max(end, lastPage)
		}
		s.EndPage = end
	}
	return out
}

func isHeading(d toc.Descriptor, it layout.Item, eps float64) bool {
	if d.AnchorY == nil || it.Page != d.StartPage {
		return false
	}
	if it.Kind != layout.KindTitle && it.Kind != layout.KindText {
		return false
	}
	return math.Abs(it.Box.Y0-*d.AnchorY) < eps
}

// Build maps items to sections and assembles each one: captions are
// matched, tables and figures grouped, and the section text derived.
// Table and figure ordinals are numbered over the whole document so ids
// stay unique across sections sharing a page.
func Build(descs []toc.Descriptor, items []layout.Item, lastPage int, cfg Config) []Section {
	stream := slices.Clone(items)
	layout.Sort(stream)
	docOrdinals := continuation.Ordinals(stream)

	sections := Map(descs, stream, lastPage, cfg)
	for i := range sections {
		s := &sections[i]
		titles := caption.Titles(s.Items, cfg.Caption)
		ordinals := make(map[int]int, len(s.Items))
		for j, di := range s.docIndex {
			if n, ok := docOrdinals[di]; ok {
				ordinals[j] = n
			}
		}
		s.Tables, s.Figures = continuation.Group(s.Items, titles, ordinals, cfg.Continuation)
		s.Text = Text(s.Heading, s.Items)
		slog.Debug("section: assembled",
			"index", s.Index, "id", s.ID, "pages", s.PageCount(),
			"items", len(s.Items), "tables", len(s.Tables), "figures", len(s.Figures))
	}
	return sections
}

// Text joins the text of the heading and of the prose, title and code
// items, one item per line.
func Text(heading, items []layout.Item) string {
	var lines []string
	for _, list := range [][]layout.Item{heading, items} {
		for _, it := range list {
			if it.Kind.IsContent() {
				continue
			}
			if t := strings.TrimSpace(it.Text); t != "" {
				lines = append(lines, t)
			}
		}
	}
	return strings.Join(lines, "\n")
}
