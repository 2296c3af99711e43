// Package caption attaches "Table N" and "Figure N" captions to the table
// and figure items of a section.
package caption

import (
	"cmp"
	"regexp"
	"slices"

	"github.com/brunobiangulo/docsect/layout"
)

// Kind is the kind of caption a text carries.
type Kind int

const (
	None Kind = iota
	Table
	Figure
)

func (k Kind) String() string {
	switch k {
	case Table:
		return "table"
	case Figure:
		return "figure"
	default:
		return "none"
	}
}

var (
	tablePattern  = regexp.MustCompile(`(?i)^table\s*\d+`)
	figurePattern = regexp.MustCompile(`(?i)^figure\s*\d+`)
)

// Classify reports which caption pattern a text matches.
func Classify(text string) Kind {
	t := layout.Normalize(text)
	switch {
	case tablePattern.MatchString(t):
		return Table
	case figurePattern.MatchString(t):
		return Figure
	default:
		return None
	}
}

// IsCaption reports whether text looks like a table or figure caption.
func IsCaption(text string) bool { return Classify(text) != None }

// Config holds the scoring constants.
type Config struct {
	// CrossPagePenalty is added to the score of pairs on different pages.
	CrossPagePenalty float64 `json:"cross_page_penalty" yaml:"cross_page_penalty"`
	// SamePageCap rejects same-page pairs farther apart than this.
	SamePageCap float64 `json:"same_page_cap" yaml:"same_page_cap"`
	// MaxPageDistance rejects pairs more than this many pages apart.
	MaxPageDistance int `json:"max_page_distance" yaml:"max_page_distance"`
}

// DefaultConfig returns the matcher defaults.
func DefaultConfig() Config {
	return Config{CrossPagePenalty: 800, SamePageCap: 600, MaxPageDistance: 1}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CrossPagePenalty <= 0 {
		c.CrossPagePenalty = d.CrossPagePenalty
	}
	if c.SamePageCap <= 0 {
		c.SamePageCap = d.SamePageCap
	}
	if c.MaxPageDistance <= 0 {
		c.MaxPageDistance = d.MaxPageDistance
	}
	return c
}

// Pair is one accepted (content, caption) assignment. Content and Caption
// index into the slice given to Match.
type Pair struct {
	Content int
	Caption int
	Title   string
	Score   float64
}

// Match pairs content items with caption items. Every admissible pair is
// scored, pairs are sorted ascending by score (ties by content order, then
// caption order) and assigned greedily so that each content item and each
// caption is used at most once. The result is ordered by content index.
func Match(items []layout.Item, cfg Config) []Pair {
	cfg = cfg.withDefaults()

	type caption struct {
		idx  int
		kind Kind
	}
	var contents []int
	var captions []caption
	for i, it := range items {
		switch {
		case it.Kind.IsContent():
			contents = append(contents, i)
		case it.Kind.IsCaptionCandidate():
			if k := Classify(it.Text); k != None {
				captions = append(captions, caption{idx: i, kind: k})
			}
		}
	}

	var pairs []Pair
	for _, ci := range contents {
		for _, cp := range captions {
			score, ok := Score(items[ci], items[cp.idx], cp.kind, cfg)
			if !ok {
				continue
			}
			pairs = append(pairs, Pair{Content: ci, Caption: cp.idx, Score: score})
		}
	}
	slices.SortFunc(pairs, func(a, b Pair) int {
		if c := cmp.Compare(a.Score, b.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Content, b.Content); c != 0 {
			return c
		}
		return cmp.Compare(a.Caption, b.Caption)
	})

	usedContent := make(map[int]bool)
	usedCaption := make(map[int]bool)
	var out []Pair
	for _, p := range pairs {
		if usedContent[p.Content] || usedCaption[p.Caption] {
			continue
		}
		usedContent[p.Content] = true
		usedCaption[p.Caption] = true
		p.Title = layout.Normalize(items[p.Caption].Text)
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Pair) int { return cmp.Compare(a.Content, b.Content) })
	return out
}

// Score returns the distance score of a (content, caption) pair and
// whether the pair is admissible. Table captions must sit above the table
// and figure captions below the figure; the score is the gap between the
// facing edges, measured across the page break for cross-page pairs.
func Score(content, capt layout.Item, kind Kind, cfg Config) (float64, bool) {
	switch kind {
	case Table:
		if content.Kind != layout.KindTable {
			return 0, false
		}
	case Figure:
		if !content.Kind.IsFigure() {
			return 0, false
		}
	default:
		return 0, false
	}

	dp := content.Page - capt.Page
	if abs(dp) > cfg.MaxPageDistance {
		return 0, false
	}

	var gap float64
	switch {
	case dp == 0 && kind == Table:
		if capt.Box.Y0 >= content.Box.Y0 {
			return 0, false
		}
		gap = abs(content.Box.Y0 - capt.Box.Y1)
	case dp == 0:
		if capt.Box.Y0 <= content.Box.Y0 {
			return 0, false
		}
		gap = abs(capt.Box.Y0 - content.Box.Y1)
	case kind == Table:
		// caption must be on an earlier page
		if dp < 0 {
			return 0, false
		}
		gap = (layout.NormalizedSize-capt.Box.Y1)*float64(dp) + content.Box.Y0
	default:
		if dp > 0 {
			return 0, false
		}
		gap = (layout.NormalizedSize-content.Box.Y1)*float64(-dp) + capt.Box.Y0
	}

	if dp == 0 {
		if gap > cfg.SamePageCap {
			return 0, false
		}
		return gap, true
	}
	return abs(gap) + cfg.CrossPagePenalty, true
}

func abs[T int | float64](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Titles returns the matched caption text keyed by content index.
func Titles(items []layout.Item, cfg Config) map[int]string {
	out := make(map[int]string)
	for _, p := range Match(items, cfg) {
		out[p.Content] = p.Title
	}
	return out
}
