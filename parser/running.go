package parser

import (
	"strings"
	"unicode"

	"github.com/brunobiangulo/docsect/layout"
)

// marginBand is the top and bottom share of the page, in normalized
// units, where running headers and footers live.
const marginBand = 80.0

// DropRunningHeaders removes lines that repeat in the page margins across
// many pages: a text seen in the top or bottom band on at least
// max(3, pages/4) distinct pages is a running header or footer. Digits
// are ignored when comparing, so "Page 3 of 40" matches on every page.
func DropRunningHeaders(items []layout.Item, pages int) []layout.Item {
	threshold := max(3, pages/4)

	seen := make(map[string]map[int]bool)
	for _, it := range items {
		key, ok := marginKey(it)
		if !ok {
			continue
		}
		if seen[key] == nil {
			seen[key] = make(map[int]bool)
		}
		seen[key][it.Page] = true
	}

	kept := make([]layout.Item, 0, len(items))
	for _, it := range items {
		if key, ok := marginKey(it); ok && len(seen[key]) >= threshold {
			continue
		}
		kept = append(kept, it)
	}
	return kept
}

func marginKey(it layout.Item) (string, bool) {
	if it.Kind.IsContent() {
		return "", false
	}
	if it.Box.Y0 > marginBand && it.Box.Y1 < layout.NormalizedSize-marginBand {
		return "", false
	}
	key := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, it.Text)
	key = strings.Join(strings.Fields(key), " ")
	return key, key != ""
}
