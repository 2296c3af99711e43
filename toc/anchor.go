package toc

import (
	"log/slog"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/brunobiangulo/docsect/layout"
)

// LocateAnchors sets AnchorY for descriptors that lack one, using the
// first Title or Text item on the start page whose text begins with the
// section id (or with the title when the id is empty). Unlocated anchors
// stay nil, meaning the top of the page. The result is then made
// monotonic in (start page, anchor y).
func LocateAnchors(descs []Descriptor, items []layout.Item) []Descriptor {
	ordered := slices.Clone(items)
	layout.Sort(ordered)
	byPage := make(map[int][]layout.Item)
	for _, it := range ordered {
		if it.Kind == layout.KindTitle || it.Kind == layout.KindText {
			byPage[it.Page] = append(byPage[it.Page], it)
		}
	}

	out := make([]Descriptor, len(descs))
	copy(out, descs)
	for i := range out {
		d := &out[i]
		if d.AnchorY != nil {
			continue
		}
		for _, it := range byPage[d.StartPage] {
			if headingMatches(*d, layout.Normalize(it.Text)) {
				y := it.Box.Y0
				d.AnchorY = &y
				break
			}
		}
	}
	return Monotonic(out)
}

func headingMatches(d Descriptor, text string) bool {
	if text == "" {
		return false
	}
	if d.ID != "" {
		if !strings.HasPrefix(text, d.ID) {
			return false
		}
		rest := strings.TrimPrefix(text[len(d.ID):], ".")
		if rest == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		return unicode.IsSpace(r)
	}
	return len(text) >= len(d.Title) && strings.EqualFold(text[:len(d.Title)], d.Title)
}

// Monotonic clamps descriptors so that (StartPage, AnchorY) never
// decreases in index order. A descriptor that would move backwards takes
// the previous descriptor's position.
func Monotonic(descs []Descriptor) []Descriptor {
	for i := 1; i < len(descs); i++ {
		prev, cur := descs[i-1], &descs[i]
		if !cur.Anchor().Less(prev.Anchor()) {
			continue
		}
		slog.Debug("toc: clamping out-of-order anchor",
			"id", cur.ID, "title", cur.Title, "page", cur.StartPage, "prev_page", prev.StartPage)
		cur.StartPage = prev.StartPage
		if prev.AnchorY != nil {
			y := *prev.AnchorY
			cur.AnchorY = &y
		} else {
			cur.AnchorY = nil
		}
	}
	return descs
}
