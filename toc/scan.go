package toc

import (
	"cmp"
	"slices"
	"strings"

	"github.com/brunobiangulo/docsect/layout"
)

// Line is one heading candidate for the fallback scan.
type Line struct {
	Page int
	// Y is the line's top edge in normalized page space, or a negative
	// value when unknown.
	Y           float64
	Text        string
	MaxFontSize float64
	Bold        bool
	// Gap is the horizontal distance in PDF points between the number
	// token and the label, 0 when the line is unnumbered or the gap is
	// unknown.
	Gap float64
}

// ScanState is the accumulator threaded through Step.
type ScanState struct {
	LastNumberedID    string
	LastNumberedLevel int
	// InferredSubCount counts unnumbered headings accepted since the last
	// numbered one.
	InferredSubCount int
	PrevTitle        string
}

// Scanner holds the fixed inputs of the fallback scan.
type Scanner struct {
	Body   float64
	Config Config
}

// Step folds one line into the scan. It returns the next state and the
// accepted descriptor, or nil when the line is not a heading. Index is
// left zero; Scan numbers the output.
func (s Scanner) Step(st ScanState, ln Line) (ScanState, *Descriptor) {
	d, why := s.classify(st, ln)
	if why != RejectNone {
		return st, nil
	}
	if d.ID != "" {
		st.LastNumberedID = d.ID
		st.LastNumberedLevel = d.Level
		st.InferredSubCount = 0
	} else {
		st.InferredSubCount++
	}
	st.PrevTitle = d.Title
	return st, &d
}

// Classify reports why a line would be rejected from state st, or
// RejectNone when Step would accept it.
func (s Scanner) Classify(st ScanState, ln Line) Rejection {
	_, why := s.classify(st, ln)
	return why
}

func (s Scanner) classify(st ScanState, ln Line) (Descriptor, Rejection) {
	cfg := s.Config.withDefaults()
	text := layout.Normalize(ln.Text)
	d := Descriptor{Title: text, StartPage: ln.Page}
	if ln.Y >= 0 {
		y := ln.Y
		d.AnchorY = &y
	}

	id, label, numbered := splitNumbered(text)
	if !numbered {
		if !whitelisted(text, cfg.Whitelist) {
			if why := Reject("", text); why != RejectNone {
				return d, why
			}
			return d, RejectNotNumbered
		}
		if strings.EqualFold(text, st.PrevTitle) {
			return d, RejectRepeatedName
		}
		d.Level = 1
		return d, RejectNone
	}

	emphasis := ln.Gap >= cfg.MinGap || ln.Bold || (s.Body > 0 && ln.MaxFontSize > s.Body)
	if !emphasis {
		return d, RejectNoEmphasis
	}
	if why := Reject(id, label); why != RejectNone {
		return d, why
	}
	if id == st.LastNumberedID {
		return d, RejectRepeatedID
	}
	d.ID = id
	d.Level = NumberingLevel(id)
	return d, RejectNone
}

// Scan runs the fallback heading scan over lines in (page, first-seen)
// order and numbers the accepted descriptors 1..n.
func Scan(lines []Line, body float64, cfg Config) []Descriptor {
	ordered := slices.Clone(lines)
	slices.SortStableFunc(ordered, func(a, b Line) int { return cmp.Compare(a.Page, b.Page) })

	s := Scanner{Body: body, Config: cfg}
	var (
		st  ScanState
		out []Descriptor
	)
	for _, ln := range ordered {
		var d *Descriptor
		st, d = s.Step(st, ln)
		if d == nil {
			continue
		}
		d.Index = len(out) + 1
		out = append(out, *d)
	}
	return out
}
