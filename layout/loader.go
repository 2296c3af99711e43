package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// NormalizedSize is the extent of the page-normalized coordinate space.
const NormalizedSize = 1000.0

// pageRecord is one page of a layout-detection JSON file.
type pageRecord struct {
	Width  float64      `json:"width,omitempty"`
	Height float64      `json:"height,omitempty"`
	Items  []itemRecord `json:"items"`
	Raw    string       `json:"raw,omitempty"`
}

type itemRecord struct {
	Type     string    `json:"type"`
	BBox     []float64 `json:"bbox"`
	Text     string    `json:"text,omitempty"`
	FontSize float64   `json:"font_size,omitempty"`
}

// LoadJSON reads a per-page layout file of the form
//
//	{"<page>": {"width": 1000, "items": [{"type": "table", "bbox": [x0, y0, x1, y1]}]}}
//
// Page keys are 1-based page numbers. Boxes are rescaled to the normalized
// space when the page declares a width/height other than 1000. A page may
// instead carry the model's raw tagged output under "raw". Malformed pages
// and unknown item types are logged and skipped.
func LoadJSON(r io.Reader) ([]Item, error) {
	var pages map[string]pageRecord
	if err := json.NewDecoder(r).Decode(&pages); err != nil {
		return nil, fmt.Errorf("decoding layout json: %w", err)
	}

	keys := make([]int, 0, len(pages))
	byPage := make(map[int]pageRecord, len(pages))
	for k, p := range pages {
		n, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || n < 1 {
			slog.Warn("layout: skipping page with invalid key", "key", k)
			continue
		}
		keys = append(keys, n)
		byPage[n] = p
	}
	slices.Sort(keys)

	var items []Item
	seq := 0
	for _, page := range keys {
		rec := byPage[page]
		recs := rec.Items
		if len(recs) == 0 && rec.Raw != "" {
			recs = parseRefs(rec.Raw)
		}
		sx, sy := scale(rec.Width), scale(rec.Height)
		for _, ir := range recs {
			kind, ok := ParseKind(ir.Type)
			if !ok {
				slog.Debug("layout: skipping item type", "page", page, "type", ir.Type)
				continue
			}
			box, err := BoxFromSlice(ir.BBox)
			if err != nil {
				slog.Warn("layout: skipping item with bad bbox", "page", page, "error", err)
				continue
			}
			box = BBox{X0: box.X0 * sx, Y0: box.Y0 * sy, X1: box.X1 * sx, Y1: box.Y1 * sy}
			items = append(items, Item{
				Page:     page,
				Kind:     kind,
				Box:      box,
				Text:     Normalize(ir.Text),
				FontSize: ir.FontSize,
				Seq:      seq,
			})
			seq++
		}
	}
	Sort(items)
	return items, nil
}

func scale(extent float64) float64 {
	if extent <= 0 {
		return 1
	}
	return NormalizedSize / extent
}

// refPattern matches the tagged detection format
// <|ref|>table<|/ref|><|det|>[[199, 189, 798, 662]]<|/det|>.
var refPattern = regexp.MustCompile(`<\|ref\|>(.*?)<\|/ref\|><\|det\|>\[\[(.*?)\]\]<\|/det\|>`)

// parseRefs decodes a model's tagged detection output for one page.
func parseRefs(raw string) []itemRecord {
	var out []itemRecord
	for _, m := range refPattern.FindAllStringSubmatch(raw, -1) {
		var coords []float64
		ok := true
		for _, f := range strings.Split(m[2], ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				ok = false
				break
			}
			coords = append(coords, v)
		}
		if !ok {
			continue
		}
		out = append(out, itemRecord{Type: strings.TrimSpace(m[1]), BBox: coords})
	}
	return out
}
