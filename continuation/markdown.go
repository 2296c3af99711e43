package continuation

import (
	"slices"
	"strings"
)

// markdownTable is a pipe table split into its header, separator and data
// rows.
type markdownTable struct {
	header    string
	separator string
	rows      []string
	cells     []string
}

func parseMarkdownTable(md string) (markdownTable, bool) {
	lines := strings.Split(strings.TrimSpace(md), "\n")
	if len(lines) < 2 {
		return markdownTable{}, false
	}
	header := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(header, "|") {
		return markdownTable{}, false
	}
	return markdownTable{
		header:    header,
		separator: strings.TrimSpace(lines[1]),
		rows:      lines[2:],
		cells:     HeaderCells(header),
	}, true
}

// HeaderCells splits a pipe-table row into trimmed cells. Leading and
// trailing pipes are optional.
func HeaderCells(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	parts := strings.Split(row, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// MergeMarkdown appends b's data rows to a when both pipe tables have
// list-equal header rows. It reports false, leaving the inputs alone,
// when either input is not a table or the headers differ.
func MergeMarkdown(a, b string) (string, bool) {
	ta, ok := parseMarkdownTable(a)
	if !ok {
		return "", false
	}
	tb, ok := parseMarkdownTable(b)
	if !ok || !slices.Equal(ta.cells, tb.cells) {
		return "", false
	}
	lines := make([]string, 0, 2+len(ta.rows)+len(tb.rows))
	lines = append(lines, ta.header, ta.separator)
	lines = append(lines, ta.rows...)
	lines = append(lines, tb.rows...)
	return strings.Join(lines, "\n"), true
}

// MergeMarkdownChain folds MergeMarkdown left over tables, starting a new
// output table whenever the next one cannot be merged.
func MergeMarkdownChain(tables []string) []string {
	var out []string
	for _, t := range tables {
		if n := len(out); n > 0 {
			if merged, ok := MergeMarkdown(out[n-1], t); ok {
				out[n-1] = merged
				continue
			}
		}
		out = append(out, t)
	}
	return out
}
