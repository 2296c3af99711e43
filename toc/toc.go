// Package toc resolves a document's ordered section descriptors, either
// from an embedded outline (Mode A) or by scanning heading lines with
// font and text heuristics (Mode B).
package toc

import (
	"log/slog"
	"strings"

	"github.com/brunobiangulo/docsect/layout"
)

// Descriptor is one entry of the resolved table of contents.
type Descriptor struct {
	Index     int      `json:"index"`
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Level     int      `json:"level"`
	StartPage int      `json:"start_page"`
	AnchorY   *float64 `json:"anchor_y"`
}

// Anchor returns the position where the section begins. A nil AnchorY is
// the top of the start page.
func (d Descriptor) Anchor() layout.Position {
	var y float64
	if d.AnchorY != nil {
		y = *d.AnchorY
	}
	return layout.Position{Page: d.StartPage, Y: y}
}

// OutlineEntry is one embedded outline (bookmark) entry, flattened in
// document order.
type OutlineEntry struct {
	Level int
	Title string
	Page  int
}

// Mode records which resolver produced the descriptors.
type Mode string

const (
	ModeOutline Mode = "outline"
	ModeScan    Mode = "scan"
)

// Config tunes both resolver modes.
type Config struct {
	// SamplePages bounds the pages used for the body font size.
	SamplePages int `json:"sample_pages" yaml:"sample_pages"`

	// MinGap is the horizontal gap, in PDF points, between number and
	// label that counts as heading emphasis. Layout-detection items carry
	// no gap, so on that source only font size and weight apply.
	MinGap float64 `json:"min_gap" yaml:"min_gap"`

	// AnchorEpsilon is the y tolerance used when locating anchors.
	AnchorEpsilon float64 `json:"anchor_epsilon" yaml:"anchor_epsilon"`

	Whitelist []string `json:"whitelist" yaml:"whitelist"`
	Denylist  []string `json:"denylist" yaml:"denylist"`
}

// DefaultConfig returns the resolver defaults.
func DefaultConfig() Config {
	return Config{
		SamplePages:   10,
		MinGap:        5,
		AnchorEpsilon: 2,
		Whitelist:     DefaultWhitelist,
		Denylist:      DefaultDenylist,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SamplePages <= 0 {
		c.SamplePages = d.SamplePages
	}
	if c.MinGap <= 0 {
		c.MinGap = d.MinGap
	}
	if c.AnchorEpsilon <= 0 {
		c.AnchorEpsilon = d.AnchorEpsilon
	}
	if c.Whitelist == nil {
		c.Whitelist = d.Whitelist
	}
	if c.Denylist == nil {
		c.Denylist = d.Denylist
	}
	return c
}

// FromOutline converts outline entries into descriptors. Titles are taken
// verbatim, the id is parsed from the title, and document-artifact
// entries are dropped. Levels below 1 are clamped to 1.
func FromOutline(entries []OutlineEntry, cfg Config) []Descriptor {
	cfg = cfg.withDefaults()
	var out []Descriptor
	for _, e := range entries {
		title := layout.Normalize(e.Title)
		if title == "" || denied(title, cfg.Denylist) {
			continue
		}
		if e.Page < 1 {
			slog.Debug("toc: outline entry without page", "title", title)
			continue
		}
		out = append(out, Descriptor{
			Index:     len(out) + 1,
			ID:        ParseID(title),
			Title:     title,
			Level:     max(e.Level, 1),
			StartPage: e.Page,
		})
	}
	return out
}

// Resolve picks Mode A when the outline yields at least one descriptor
// and falls back to the heading scan otherwise. spans feed the body font
// estimate.
func Resolve(outline []OutlineEntry, lines []Line, spans []FontSpan, cfg Config) ([]Descriptor, Mode) {
	cfg = cfg.withDefaults()
	if descs := FromOutline(outline, cfg); len(descs) > 0 {
		return descs, ModeOutline
	}
	if len(outline) > 0 {
		slog.Info("toc: outline had no usable entries, scanning headings", "entries", len(outline))
	} else {
		slog.Info("toc: no outline, scanning headings", "lines", len(lines))
	}
	body := BodyFontSize(spans, cfg.SamplePages)
	return Scan(lines, body, cfg), ModeScan
}

// LinesFromItems turns Title items into scan lines. Items without text
// are skipped. Body text never reaches the scan.
func LinesFromItems(items []layout.Item) []Line {
	var lines []Line
	for _, it := range items {
		if it.Kind != layout.KindTitle || strings.TrimSpace(it.Text) == "" {
			continue
		}
		lines = append(lines, Line{
			Page:        it.Page,
			Y:           it.Box.Y0,
			Text:        it.Text,
			MaxFontSize: it.FontSize,
			Bold:        it.Bold,
			Gap:         it.Gap,
		})
	}
	return lines
}

// SpansFromItems turns items with a known font size into body font
// samples.
func SpansFromItems(items []layout.Item) []FontSpan {
	var spans []FontSpan
	for _, it := range items {
		if it.FontSize <= 0 || it.Text == "" {
			continue
		}
		spans = append(spans, FontSpan{Page: it.Page, Size: it.FontSize, Chars: len([]rune(it.Text))})
	}
	return spans
}
