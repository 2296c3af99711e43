// Package parser supplies the layout items of a document: native text
// lines read from the PDF, or an external layout-detection file whose
// items are filled through the PDF Text Oracle.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/brunobiangulo/docsect/layout"
	"github.com/brunobiangulo/docsect/toc"
)

// Input is what a provider reads from.
type Input struct {
	// Doc is the open PDF; it may be nil for layout-only input.
	Doc *Document
	// LayoutPath is the layout-detection JSON file, when one is used.
	LayoutPath string
	// SamplePages bounds the pages sampled for the body font size.
	SamplePages int
}

// Provider produces the ordered layout items of one document.
type Provider interface {
	Items(ctx context.Context, in Input) ([]layout.Item, error)
	SupportedFormats() []string
}

// ---------------------------------------------------------------------------
// Native PDF lines
// ---------------------------------------------------------------------------

// PDFProvider turns native text lines into Title and Text items. A line is
// a Title when it is emphasised (bold or larger than the body font) and
// short.
type PDFProvider struct{}

func (p *PDFProvider) SupportedFormats() []string { return []string{"pdf"} }

const maxTitleRunes = 150

func (p *PDFProvider) Items(ctx context.Context, in Input) ([]layout.Item, error) {
	if in.Doc == nil {
		return nil, fmt.Errorf("pdf provider: no document")
	}
	body := toc.BodyFontSize(in.Doc.Spans(in.SamplePages), in.SamplePages)

	var items []layout.Item
	seq := 0
	for n := 1; n <= in.Doc.NumPages(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := in.Doc.Lines(n)
		if err != nil {
			slog.Warn("parser: text extraction failed, skipping page", "page", n, "error", err)
			continue
		}
		for _, ln := range lines {
			kind := layout.KindText
			emphasised := ln.Bold || (body > 0 && ln.MaxFontSize > body)
			if emphasised && len([]rune(ln.Text)) <= maxTitleRunes {
				kind = layout.KindTitle
			}
			items = append(items, layout.Item{
				Page:     n,
				Kind:     kind,
				Box:      ln.Box,
				Text:     ln.Text,
				FontSize: ln.MaxFontSize,
				Bold:     ln.Bold,
				Gap:      ln.Gap,
				Seq:      seq,
			})
			seq++
		}
	}
	items = DropRunningHeaders(items, in.Doc.NumPages())
	layout.Sort(items)
	return items, nil
}

// ---------------------------------------------------------------------------
// External layout detection
// ---------------------------------------------------------------------------

// LayoutJSONProvider reads per-page layout detections and fills their text
// from the PDF. Pages whose text cannot be extracted contribute no items.
type LayoutJSONProvider struct{}

func (p *LayoutJSONProvider) SupportedFormats() []string { return []string{"layout-json"} }

func (p *LayoutJSONProvider) Items(ctx context.Context, in Input) ([]layout.Item, error) {
	if in.LayoutPath == "" {
		return nil, fmt.Errorf("layout-json provider: no layout file")
	}
	f, err := os.Open(in.LayoutPath)
	if err != nil {
		return nil, fmt.Errorf("opening layout file: %w", err)
	}
	defer f.Close()

	items, err := layout.LoadJSON(f)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.Doc != nil {
		items = layout.Fill(items, in.Doc)
	}
	return items, nil
}
