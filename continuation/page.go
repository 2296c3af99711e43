package continuation

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/tidwall/rtree"

	"github.com/brunobiangulo/docsect/layout"
)

// ---------------------------------------------------------------------------
// Page-level model
// ---------------------------------------------------------------------------

// PageTable is one table detected on a page, in page units.
type PageTable struct {
	Box    layout.BBox `json:"bbox"`
	Rows   int         `json:"rows"`
	Cols   int         `json:"cols"`
	Header []string    `json:"header,omitempty"`
}

// NonEmptyHeaderCells counts header cells with visible text.
func (t PageTable) NonEmptyHeaderCells() int {
	n := 0
	for _, c := range t.Header {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// TextBlock is a block of page text, in page units.
type TextBlock struct {
	Box  layout.BBox `json:"bbox"`
	Text string      `json:"text"`
}

// PageLayout is the table and text detections of one page.
type PageLayout struct {
	Page       int         `json:"page"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Tables     []PageTable `json:"tables"`
	TextBlocks []TextBlock `json:"text_blocks"`
}

// Policy selects the continuation predicate.
type Policy string

const (
	PolicyStructural Policy = "structural"
	PolicyPositional Policy = "positional"
)

// ParsePolicy accepts "structural" or "positional".
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyStructural, PolicyPositional:
		return p, nil
	default:
		return "", fmt.Errorf("unknown continuation policy %q", s)
	}
}

// PageOptions holds the page-level thresholds, in page units.
type PageOptions struct {
	HeaderMargin float64 `json:"header_margin" yaml:"header_margin"`
	FooterMargin float64 `json:"footer_margin" yaml:"footer_margin"`
	MinTextChars int     `json:"min_text_chars" yaml:"min_text_chars"`

	MaxTop        float64 `json:"max_top" yaml:"max_top"`
	MaxRows       int     `json:"max_rows" yaml:"max_rows"`
	MaxXDiff      float64 `json:"max_x_diff" yaml:"max_x_diff"`
	MaxWidthDiff  float64 `json:"max_width_diff" yaml:"max_width_diff"`
	MaxWidthRatio float64 `json:"max_width_ratio" yaml:"max_width_ratio"`
	MinPrevRows   int     `json:"min_prev_rows" yaml:"min_prev_rows"`
	SmallRows     int     `json:"small_rows" yaml:"small_rows"`

	TitleSearch    float64 `json:"title_search" yaml:"title_search"`
	TitleSideSlack float64 `json:"title_side_slack" yaml:"title_side_slack"`
	MediumRows     int     `json:"medium_rows" yaml:"medium_rows"`
	MediumTop      float64 `json:"medium_top" yaml:"medium_top"`
}

// DefaultPageOptions returns the page-level defaults.
func DefaultPageOptions() PageOptions {
	return PageOptions{
		HeaderMargin:   50,
		FooterMargin:   50,
		MinTextChars:   10,
		MaxTop:         200,
		MaxRows:        15,
		MaxXDiff:       20,
		MaxWidthDiff:   30,
		MaxWidthRatio:  0.2,
		MinPrevRows:    3,
		SmallRows:      2,
		TitleSearch:    50,
		TitleSideSlack: 20,
		MediumRows:     10,
		MediumTop:      150,
	}
}

func (o PageOptions) withDefaults() PageOptions {
	d := DefaultPageOptions()
	if o.HeaderMargin <= 0 {
		o.HeaderMargin = d.HeaderMargin
	}
	if o.FooterMargin <= 0 {
		o.FooterMargin = d.FooterMargin
	}
	if o.MinTextChars <= 0 {
		o.MinTextChars = d.MinTextChars
	}
	if o.MaxTop <= 0 {
		o.MaxTop = d.MaxTop
	}
	if o.MaxRows <= 0 {
		o.MaxRows = d.MaxRows
	}
	if o.MaxXDiff <= 0 {
		o.MaxXDiff = d.MaxXDiff
	}
	if o.MaxWidthDiff <= 0 {
		o.MaxWidthDiff = d.MaxWidthDiff
	}
	if o.MaxWidthRatio <= 0 {
		o.MaxWidthRatio = d.MaxWidthRatio
	}
	if o.MinPrevRows <= 0 {
		o.MinPrevRows = d.MinPrevRows
	}
	if o.SmallRows <= 0 {
		o.SmallRows = d.SmallRows
	}
	if o.TitleSearch <= 0 {
		o.TitleSearch = d.TitleSearch
	}
	if o.TitleSideSlack <= 0 {
		o.TitleSideSlack = d.TitleSideSlack
	}
	if o.MediumRows <= 0 {
		o.MediumRows = d.MediumRows
	}
	if o.MediumTop <= 0 {
		o.MediumTop = d.MediumTop
	}
	return o
}

// ---------------------------------------------------------------------------
// Predicates
// ---------------------------------------------------------------------------

// lastAndFirst returns the previous page's last table and the current
// page's first table.
func lastAndFirst(prev, curr PageLayout) (PageTable, PageTable, bool) {
	if len(prev.Tables) == 0 || len(curr.Tables) == 0 {
		return PageTable{}, PageTable{}, false
	}
	return prev.Tables[len(prev.Tables)-1], curr.Tables[0], true
}

// Structural reports whether curr's first table continues prev's last
// table: the tables are structurally compatible (equal column count,
// equal non-empty header cells, or transposed) and no meaningful text
// separates them.
func Structural(prev, curr PageLayout, opts PageOptions) bool {
	opts = opts.withDefaults()
	pt, ct, ok := lastAndFirst(prev, curr)
	if !ok {
		return false
	}
	compatible := pt.Cols == ct.Cols ||
		pt.NonEmptyHeaderCells() == ct.NonEmptyHeaderCells() ||
		pt.Cols == ct.Rows || pt.Rows == ct.Cols
	if !compatible {
		return false
	}
	return !TextBetween(prev, curr, opts)
}

// TextBetween reports meaningful text below prev's last table (above the
// footer margin) or above curr's first table (below the header margin).
func TextBetween(prev, curr PageLayout, opts PageOptions) bool {
	opts = opts.withDefaults()
	pt, ct, ok := lastAndFirst(prev, curr)
	if !ok {
		return false
	}
	footer := prev.Height - opts.FooterMargin
	below := newBlockIndex(prev.TextBlocks).search(pt.Box.Y1, footer, func(b TextBlock) bool {
		return b.Box.Y0 > pt.Box.Y1 && b.Box.Y1 < footer && meaningful(b.Text, opts)
	})
	if below {
		return true
	}
	return newBlockIndex(curr.TextBlocks).search(opts.HeaderMargin, ct.Box.Y0, func(b TextBlock) bool {
		return b.Box.Y0 > opts.HeaderMargin && b.Box.Y1 < ct.Box.Y0 && meaningful(b.Text, opts)
	})
}

func meaningful(text string, opts PageOptions) bool {
	t := strings.TrimSpace(text)
	if len([]rune(t)) <= opts.MinTextChars {
		return false
	}
	return strings.ContainsFunc(t, func(r rune) bool { return !unicode.IsDigit(r) })
}

// Positional reports whether curr's first table continues prev's last
// table judging only by placement and size.
func Positional(prev, curr PageLayout, opts PageOptions) bool {
	opts = opts.withDefaults()
	pt, ct, ok := lastAndFirst(prev, curr)
	if !ok {
		return false
	}
	if !positionallyAligned(pt, ct, opts) {
		return false
	}
	if pt.Rows < opts.MinPrevRows && ct.Rows > opts.SmallRows {
		return false
	}
	return true
}

// positionallyAligned applies the placement checks shared by Positional
// and FindCandidates.
func positionallyAligned(pt, ct PageTable, opts PageOptions) bool {
	if ct.Box.Y0 > opts.MaxTop || ct.Rows > opts.MaxRows {
		return false
	}
	if math.Abs(pt.Box.X0-ct.Box.X0) > opts.MaxXDiff {
		return false
	}
	pw, cw := pt.Box.Width(), ct.Box.Width()
	diff := math.Abs(pw - cw)
	if diff > opts.MaxWidthDiff {
		widest := math.Max(pw, cw)
		if widest <= 0 || diff/widest > opts.MaxWidthRatio {
			return false
		}
	}
	return true
}

// Detect evaluates every adjacent page pair independently and returns a
// map from the continuing page to the page it continues.
func Detect(pages []PageLayout, policy Policy, opts PageOptions) map[int]int {
	pred := Structural
	if policy == PolicyPositional {
		pred = Positional
	}
	sorted := sortedPages(pages)
	out := make(map[int]int)
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		if curr.Page != prev.Page+1 {
			continue
		}
		if pred(prev, curr, opts) {
			out[curr.Page] = prev.Page
		}
	}
	return out
}

func sortedPages(pages []PageLayout) []PageLayout {
	sorted := slices.Clone(pages)
	slices.SortStableFunc(sorted, func(a, b PageLayout) int { return a.Page - b.Page })
	return sorted
}

// ---------------------------------------------------------------------------
// Candidates
// ---------------------------------------------------------------------------

// Confidence grades a continuation candidate.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Candidate is a page pair proposed for continuation review.
type Candidate struct {
	PrevPage     int        `json:"prev_page"`
	CurrPage     int        `json:"curr_page"`
	PrevTableIdx int        `json:"prev_table_idx"`
	CurrTableIdx int        `json:"curr_table_idx"`
	Confidence   Confidence `json:"confidence"`
	HasTitle     bool       `json:"has_title"`
}

var titlePattern = regexp.MustCompile(`(?i)\b(table|figure)\s+\d+|\b(tab|fig)\.\s*\d+`)

// HasTitle reports whether a table or figure title sits within the
// title search band above the table.
func HasTitle(page PageLayout, t PageTable, opts PageOptions) bool {
	opts = opts.withDefaults()
	area := layout.BBox{
		X0: t.Box.X0 - opts.TitleSideSlack,
		Y0: math.Max(0, t.Box.Y0-opts.TitleSearch),
		X1: t.Box.X1 + opts.TitleSideSlack,
		Y1: t.Box.Y0,
	}
	idx := newBlockIndex(page.TextBlocks)
	found := false
	idx.tree.Search([2]float64{area.X0, area.Y0}, [2]float64{area.X1, area.Y1},
		func(_, _ [2]float64, i int) bool {
			if titlePattern.MatchString(page.TextBlocks[i].Text) {
				found = true
				return false
			}
			return true
		})
	return found
}

// FindCandidates lists adjacent page pairs that pass the placement checks,
// graded high, then medium for long or low-starting tables, then low when
// the current table carries its own title.
func FindCandidates(pages []PageLayout, opts PageOptions) []Candidate {
	opts = opts.withDefaults()
	sorted := sortedPages(pages)
	var out []Candidate
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		if curr.Page != prev.Page+1 {
			continue
		}
		pt, ct, ok := lastAndFirst(prev, curr)
		if !ok || !positionallyAligned(pt, ct, opts) {
			continue
		}
		c := Candidate{
			PrevPage:     prev.Page,
			CurrPage:     curr.Page,
			PrevTableIdx: len(prev.Tables) - 1,
			CurrTableIdx: 0,
			Confidence:   ConfidenceHigh,
			HasTitle:     HasTitle(curr, ct, opts),
		}
		if ct.Rows > opts.MediumRows || ct.Box.Y0 > opts.MediumTop {
			c.Confidence = ConfidenceMedium
		}
		if c.HasTitle {
			c.Confidence = ConfidenceLow
		}
		out = append(out, c)
	}
	return out
}

// ---------------------------------------------------------------------------
// Spatial index over text blocks
// ---------------------------------------------------------------------------

type blockIndex struct {
	blocks []TextBlock
	tree   rtree.RTreeG[int]
}

func newBlockIndex(blocks []TextBlock) *blockIndex {
	idx := &blockIndex{blocks: blocks}
	for i, b := range blocks {
		idx.tree.Insert([2]float64{b.Box.X0, b.Box.Y0}, [2]float64{b.Box.X1, b.Box.Y1}, i)
	}
	return idx
}

// search reports whether any block overlapping the horizontal band
// [y0, y1] satisfies keep.
func (idx *blockIndex) search(y0, y1 float64, keep func(TextBlock) bool) bool {
	if y1 < y0 {
		return false
	}
	found := false
	idx.tree.Search([2]float64{math.Inf(-1), y0}, [2]float64{math.Inf(1), y1},
		func(_, _ [2]float64, i int) bool {
			if keep(idx.blocks[i]) {
				found = true
				return false
			}
			return true
		})
	return found
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

type pageLayoutsFile struct {
	Pages []PageLayout `json:"pages"`
}

// LoadPageLayouts reads {"pages": [...]} page-layout JSON.
func LoadPageLayouts(r io.Reader) ([]PageLayout, error) {
	var f pageLayoutsFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding page layouts: %w", err)
	}
	for i, p := range f.Pages {
		if p.Page < 1 {
			return nil, fmt.Errorf("page layout %d: invalid page number %d", i, p.Page)
		}
	}
	return sortedPages(f.Pages), nil
}
