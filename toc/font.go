package toc

import (
	"math"
	"slices"
)

// FontSpan is a run of characters sharing one glyph size.
type FontSpan struct {
	Page  int
	Size  float64
	Chars int
}

// BodyFontSize estimates the document's body font size: a
// character-weighted histogram over the first samplePages distinct pages,
// sizes rounded to the nearest 0.5. The mode wins; ties go to the smaller
// size. It returns 0 when no span carries a size.
func BodyFontSize(spans []FontSpan, samplePages int) float64 {
	var pages []int
	for _, s := range spans {
		pages = append(pages, s.Page)
	}
	slices.Sort(pages)
	pages = slices.Compact(pages)
	if samplePages > 0 && len(pages) > samplePages {
		pages = pages[:samplePages]
	}

	hist := make(map[float64]int)
	for _, s := range spans {
		if s.Size <= 0 || s.Chars <= 0 {
			continue
		}
		if _, ok := slices.BinarySearch(pages, s.Page); !ok {
			continue
		}
		hist[math.Round(s.Size*2)/2] += s.Chars
	}

	var best float64
	bestCount := 0
	for size, n := range hist {
		if n > bestCount || (n == bestCount && size < best) {
			best, bestCount = size, n
		}
	}
	return best
}
