package parser

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/brunobiangulo/docsect/layout"
	"github.com/brunobiangulo/docsect/toc"
)

// Document is an open PDF. It serves as the Text Oracle for layout items
// and as the source of native text lines. A Document is not safe for
// concurrent use.
type Document struct {
	path   string
	file   io.Closer
	reader *pdf.Reader
	pages  map[int]*pageGlyphs
}

// Open opens the PDF at path. The caller must Close it.
func Open(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	return &Document{path: path, file: f, reader: r, pages: make(map[int]*pageGlyphs)}, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// Path returns the file path the document was opened from.
func (d *Document) Path() string { return d.path }

// NumPages returns the page count.
func (d *Document) NumPages() int { return d.reader.NumPage() }

// ---------------------------------------------------------------------------
// Glyph extraction
// ---------------------------------------------------------------------------

// glyph is one text run in page points, y measured from the page top.
type glyph struct {
	x0, x1 float64
	base   float64
	size   float64
	text   string
	bold   bool
}

type pageGlyphs struct {
	width, height float64
	glyphs        []glyph
	err           error
}

func (p *pageGlyphs) normX(x float64) float64 { return x / p.width * layout.NormalizedSize }
func (p *pageGlyphs) normY(y float64) float64 { return y / p.height * layout.NormalizedSize }

func (p *pageGlyphs) box(g glyph) layout.BBox {
	return layout.BBox{
		X0: p.normX(g.x0),
		Y0: p.normY(g.base - g.size),
		X1: p.normX(g.x1),
		Y1: p.normY(g.base),
	}
}

func (d *Document) page(n int) (*pageGlyphs, error) {
	if pg, ok := d.pages[n]; ok {
		return pg, pg.err
	}
	pg := d.extract(n)
	d.pages[n] = pg
	return pg, pg.err
}

// extract reads one page's glyphs. Panics from malformed content streams
// are recovered into the page error.
func (d *Document) extract(n int) (pg *pageGlyphs) {
	pg = &pageGlyphs{}
	defer func() {
		if r := recover(); r != nil {
			pg.glyphs = nil
			pg.err = fmt.Errorf("extracting page %d: %v", n, r)
		}
	}()

	if n < 1 || n > d.reader.NumPage() {
		pg.err = fmt.Errorf("page %d out of range [1, %d]", n, d.reader.NumPage())
		return pg
	}
	p := d.reader.Page(n)
	if p.V.IsNull() {
		pg.err = fmt.Errorf("page %d: missing page object", n)
		return pg
	}

	llx, lly, urx, ury := mediaBox(p)
	pg.width, pg.height = urx-llx, ury-lly

	for _, t := range p.Content().Text {
		if t.S == "" {
			continue
		}
		x := t.X - llx
		pg.glyphs = append(pg.glyphs, glyph{
			x0:   x,
			x1:   x + t.W,
			base: ury - t.Y,
			size: t.FontSize,
			text: t.S,
			bold: isBoldFont(t.Font),
		})
	}
	return pg
}

// mediaBox returns the page's MediaBox, inherited from parent page-tree
// nodes when absent, defaulting to US Letter.
func mediaBox(p pdf.Page) (llx, lly, urx, ury float64) {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		mb := v.Key("MediaBox")
		if mb.Kind() == pdf.Array && mb.Len() == 4 {
			llx, lly = mb.Index(0).Float64(), mb.Index(1).Float64()
			urx, ury = mb.Index(2).Float64(), mb.Index(3).Float64()
			if urx > llx && ury > lly {
				return llx, lly, urx, ury
			}
		}
	}
	return 0, 0, 612, 792
}

func isBoldFont(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "bold") || strings.Contains(n, "black") || strings.Contains(n, "heavy")
}

// ---------------------------------------------------------------------------
// Text Oracle
// ---------------------------------------------------------------------------

// Text returns the text whose glyph centers fall inside box, with the
// character-weighted average glyph size. It implements layout.TextOracle.
func (d *Document) Text(page int, box layout.BBox) (layout.Span, error) {
	pg, err := d.page(page)
	if err != nil {
		return layout.Span{}, err
	}
	var inside []glyph
	for _, g := range pg.glyphs {
		b := pg.box(g)
		cx, cy := (b.X0+b.X1)/2, (b.Y0+b.Y1)/2
		if cx >= box.X0 && cx <= box.X1 && cy >= box.Y0 && cy <= box.Y1 {
			inside = append(inside, g)
		}
	}
	var sb strings.Builder
	var sizeSum, chars, boldChars float64
	for i, ln := range groupLines(inside) {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(ln.text())
		for _, g := range ln.glyphs {
			n := float64(len([]rune(strings.TrimSpace(g.text))))
			sizeSum += g.size * n
			chars += n
			if g.bold {
				boldChars += n
			}
		}
	}
	span := layout.Span{Text: sb.String()}
	if chars > 0 {
		span.FontSize = sizeSum / chars
		span.Bold = boldChars*2 > chars
	}
	return span, nil
}

// ---------------------------------------------------------------------------
// Lines
// ---------------------------------------------------------------------------

type glyphLine struct {
	base   float64
	glyphs []glyph
}

// groupLines clusters glyphs by baseline and orders each line left to
// right.
func groupLines(glyphs []glyph) []glyphLine {
	sorted := slices.Clone(glyphs)
	slices.SortStableFunc(sorted, func(a, b glyph) int {
		if c := cmp.Compare(a.base, b.base); c != 0 {
			return c
		}
		return cmp.Compare(a.x0, b.x0)
	})
	var lines []glyphLine
	for _, g := range sorted {
		if n := len(lines); n > 0 {
			ln := &lines[n-1]
			if math.Abs(g.base-ln.base) <= 0.4*math.Max(g.size, 1) {
				ln.glyphs = append(ln.glyphs, g)
				continue
			}
		}
		lines = append(lines, glyphLine{base: g.base, glyphs: []glyph{g}})
	}
	for i := range lines {
		slices.SortStableFunc(lines[i].glyphs, func(a, b glyph) int { return cmp.Compare(a.x0, b.x0) })
	}
	return lines
}

// text joins the glyphs, inserting a space where the horizontal gap
// exceeds a quarter of the glyph size.
func (l glyphLine) text() string {
	var sb strings.Builder
	for i, g := range l.glyphs {
		if i > 0 {
			prev := l.glyphs[i-1]
			if g.x0-prev.x1 > 0.25*math.Max(g.size, 1) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.text)
	}
	return layout.Normalize(sb.String())
}

// numberGap returns the distance between the leading section-number token
// and the first glyph of the label, or 0 when the line has no such token.
func (l glyphLine) numberGap() float64 {
	tokenEnd := -1.0
	for _, g := range l.glyphs {
		t := strings.TrimSpace(g.text)
		if t == "" {
			continue
		}
		if strings.IndexFunc(t, func(r rune) bool { return !unicode.IsDigit(r) && r != '.' }) < 0 {
			tokenEnd = g.x1
			continue
		}
		if tokenEnd < 0 {
			return 0
		}
		return math.Max(g.x0-tokenEnd, 0)
	}
	return 0
}

// Line is one native text line.
type Line struct {
	Page        int
	Box         layout.BBox
	Text        string
	MaxFontSize float64
	Bold        bool
	// Gap is the number-to-label distance in points.
	Gap float64
}

// Lines returns the page's text lines in top-to-bottom order.
func (d *Document) Lines(page int) ([]Line, error) {
	pg, err := d.page(page)
	if err != nil {
		return nil, err
	}
	var out []Line
	for _, gl := range groupLines(pg.glyphs) {
		text := gl.text()
		if text == "" {
			continue
		}
		ln := Line{Page: page, Text: text, Gap: gl.numberGap()}
		boldChars, chars := 0, 0
		for i, g := range gl.glyphs {
			b := pg.box(g)
			if i == 0 {
				ln.Box = b
			} else {
				ln.Box = layout.BBox{
					X0: min(ln.Box.X0, b.X0), Y0: min(ln.Box.Y0, b.Y0),
					X1: max(ln.Box.X1, b.X1), Y1: max(ln.Box.Y1, b.Y1),
				}
			}
			ln.MaxFontSize = max(ln.MaxFontSize, g.size)
			n := len([]rune(strings.TrimSpace(g.text)))
			chars += n
			if g.bold {
				boldChars += n
			}
		}
		ln.Bold = chars > 0 && boldChars*2 > chars
		out = append(out, ln)
	}
	return out, nil
}

// Spans returns glyph-size samples from the first maxPages pages for the
// body font estimate. Pages that fail to extract are skipped.
func (d *Document) Spans(maxPages int) []toc.FontSpan {
	var spans []toc.FontSpan
	for n := 1; n <= d.NumPages() && (maxPages <= 0 || n <= maxPages); n++ {
		pg, err := d.page(n)
		if err != nil {
			continue
		}
		for _, g := range pg.glyphs {
			if c := len([]rune(strings.TrimSpace(g.text))); c > 0 {
				spans = append(spans, toc.FontSpan{Page: n, Size: g.size, Chars: c})
			}
		}
	}
	return spans
}
