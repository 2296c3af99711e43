package docsect

import (
	"log/slog"

	"github.com/brunobiangulo/docsect/continuation"
	"github.com/brunobiangulo/docsect/layout"
	"github.com/brunobiangulo/docsect/section"
	"github.com/brunobiangulo/docsect/toc"
)

// Input is everything the reconstruction reads for one document.
type Input struct {
	// Outline is the embedded outline; empty selects the heading scan.
	Outline []toc.OutlineEntry
	// Lines and Spans feed the heading scan and body font estimate.
	Lines []toc.Line
	Spans []toc.FontSpan
	// Items is the document's layout item stream.
	Items []layout.Item
	// LastPage is the document's final page.
	LastPage int
}

// Reconstruct resolves the table of contents, locates each section's
// anchor and assembles the sections. It performs no I/O.
func Reconstruct(in Input, cfg Config) ([]section.Section, toc.Mode) {
	descs, mode := toc.Resolve(in.Outline, in.Lines, in.Spans, cfg.TOC)
	descs = toc.LocateAnchors(descs, in.Items)

	located := 0
	for _, d := range descs {
		if d.AnchorY != nil {
			located++
		}
	}
	slog.Debug("pipeline: anchors located", "mode", mode, "descriptors", len(descs), "located", located)

	return section.Build(descs, in.Items, in.LastPage, cfg.Section), mode
}

// DetectContinuations links continuing pages and grades the candidates.
func DetectContinuations(pages []continuation.PageLayout, policy continuation.Policy, opts continuation.PageOptions) *ContinuationResult {
	return &ContinuationResult{
		Policy:     policy,
		Links:      continuation.Detect(pages, policy, opts),
		Candidates: continuation.FindCandidates(pages, opts),
	}
}
