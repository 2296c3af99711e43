package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/brunobiangulo/docsect"
	"github.com/brunobiangulo/docsect/continuation"
	"github.com/brunobiangulo/docsect/store"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	// boxStyle for summary boxes
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// formatExtract renders the summary box for one extraction.
func formatExtract(w io.Writer, res *docsect.Result) {
	if res.Unchanged {
		fmt.Fprintf(w, "%s %s %s\n", dimStyle.Render("="), res.Path,
			dimStyle.Render(fmt.Sprintf("unchanged (document %d)", res.DocumentID)))
		return
	}

	tables, figures := 0, 0
	for _, s := range res.Sections {
		tables += len(s.Tables)
		figures += len(s.Figures)
	}
	written, skipped := 0, 0
	if res.Artifacts != nil {
		written, skipped = len(res.Artifacts.Written), len(res.Artifacts.Skipped)
	}

	line1 := fmt.Sprintf("%s %s  %s %d  %s %d",
		dimStyle.Render("TOC:"), titleStyle.Render(string(res.Mode)),
		dimStyle.Render("Pages:"), res.Pages,
		dimStyle.Render("Document:"), res.DocumentID,
	)
	line2 := fmt.Sprintf("%s %d  %s %d  %s %d",
		dimStyle.Render("Sections:"), len(res.Sections),
		dimStyle.Render("Tables:"), tables,
		dimStyle.Render("Figures:"), figures,
	)
	line3 := fmt.Sprintf("%s %s  %s %s",
		dimStyle.Render("Artifacts:"), successStyle.Render(fmt.Sprintf("%d written", written)),
		formatSkipped(skipped), dimStyle.Render(res.Elapsed.Round(time.Millisecond).String()),
	)
	line4 := fmt.Sprintf("%s %s", dimStyle.Render("Output:"), res.OutputDir)

	content := titleStyle.Render(res.Path) + "\n" + line1 + "\n" + line2 + "\n" + line3 + "\n" + line4
	fmt.Fprintln(w, boxStyle.Render(content))
}

func formatSkipped(n int) string {
	if n == 0 {
		return dimStyle.Render("0 skipped")
	}
	return warnStyle.Render(fmt.Sprintf("%d skipped", n))
}

// formatContinuations prints the links in page order followed by the
// graded candidates.
func formatContinuations(w io.Writer, res *docsect.ContinuationResult) {
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("Policy:"), titleStyle.Render(string(res.Policy)))
	if len(res.Links) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no continuing pages"))
	}

	pages := make([]int, 0, len(res.Links))
	for p := range res.Links {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	for _, p := range pages {
		fmt.Fprintf(w, "  page %d %s page %d\n", p, dimStyle.Render("continues"), res.Links[p])
	}

	if len(res.Candidates) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Candidates"))
	}
	for _, c := range res.Candidates {
		title := ""
		if c.HasTitle {
			title = dimStyle.Render(" (titled)")
		}
		fmt.Fprintf(w, "  %d[%d] -> %d[%d] %s%s\n",
			c.PrevPage, c.PrevTableIdx, c.CurrPage, c.CurrTableIdx, confidenceLabel(c.Confidence), title)
	}
}

func confidenceLabel(c continuation.Confidence) string {
	switch c {
	case continuation.ConfidenceHigh:
		return successStyle.Render(string(c))
	case continuation.ConfidenceMedium:
		return warnStyle.Render(string(c))
	default:
		return dimStyle.Render(string(c))
	}
}

// formatDocuments prints one line per stored document.
func formatDocuments(w io.Writer, docs []store.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no documents"))
		return
	}
	for _, d := range docs {
		status := successStyle.Render(d.Status)
		if d.Status != store.StatusExtracted {
			status = warnStyle.Render(d.Status)
		}
		fmt.Fprintf(w, "%4d  %-40s %s %s\n", d.ID, d.Filename, status,
			dimStyle.Render(fmt.Sprintf("%s, %d pages", d.TOCMode, d.PageCount)))
	}
}

// formatSections prints the section tree indented by level.
func formatSections(w io.Writer, sections []store.Section) {
	for _, s := range sections {
		indent := strings.Repeat("  ", max(s.Level-1, 0))
		var tables, figures int
		for _, a := range s.Attachments {
			if a.Type == store.AttachmentTable {
				tables++
			} else {
				figures++
			}
		}
		extra := ""
		if tables+figures > 0 {
			extra = dimStyle.Render(fmt.Sprintf("  [%d tables, %d figures]", tables, figures))
		}
		fmt.Fprintf(w, "%s%s %s%s\n", indent, s.Title, dimStyle.Render("p."+s.PageRange()), extra)
	}
}
