// Package pdftest writes small uncompressed PDFs for tests: Letter pages
// of Helvetica text lines and an optional bookmark outline.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
)

// PageWidth and PageHeight are the Letter MediaBox in points.
const (
	PageWidth  = 612.0
	PageHeight = 792.0
)

// CharWidth is the advance of every glyph, in thousandths of the font size.
const CharWidth = 500

// Line is one run of text. Y is the baseline measured from the page top.
type Line struct {
	X, Y float64
	Size float64
	Bold bool
	Text string
}

// Page is the text of one page.
type Page struct {
	Lines []Line
}

// Bookmark is an outline entry pointing at a 1-based page.
type Bookmark struct {
	Title string
	Page  int
	Kids  []Bookmark
}

// Build returns the PDF bytes.
func Build(pages []Page, outline []Bookmark) []byte {
	var objs []string
	add := func(body string) int {
		objs = append(objs, body)
		return len(objs)
	}
	reserve := func() int { return add("") }

	catalog := reserve()
	pagesObj := reserve()
	regular := add(fontDict("Helvetica"))
	bold := add(fontDict("Helvetica-Bold"))

	pageRefs := make([]int, len(pages))
	for i, p := range pages {
		content := contentStream(p)
		contentObj := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
		pageRefs[i] = add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /Resources << /Font << /F1 %d 0 R /F2 %d 0 R >> >> /Contents %d 0 R >>",
			pagesObj, regular, bold, contentObj))
	}

	kids := make([]string, len(pageRefs))
	for i, r := range pageRefs {
		kids[i] = fmt.Sprintf("%d 0 R", r)
	}
	objs[pagesObj-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %g %g] >>",
		strings.Join(kids, " "), len(pageRefs), PageWidth, PageHeight)

	cat := fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R", pagesObj)
	if len(outline) > 0 {
		root := reserve()
		first, last := addOutline(&objs, outline, root, pageRefs)
		objs[root-1] = fmt.Sprintf("<< /Type /Outlines /First %d 0 R /Last %d 0 R >>", first, last)
		cat += fmt.Sprintf(" /Outlines %d 0 R /PageMode /UseOutlines", root)
	}
	objs[catalog-1] = cat + " >>"

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, catalog, xref)
	return buf.Bytes()
}

// Write builds the PDF into path.
func Write(t testing.TB, path string, pages []Page, outline []Bookmark) {
	t.Helper()
	if err := os.WriteFile(path, Build(pages, outline), 0o644); err != nil {
		t.Fatalf("writing PDF: %v", err)
	}
}

func fontDict(base string) string {
	widths := strings.TrimSpace(strings.Repeat(fmt.Sprintf("%d ", CharWidth), 126-32+1))
	return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
		base, widths)
}

func contentStream(p Page) string {
	var sb strings.Builder
	for _, ln := range p.Lines {
		font := "F1"
		if ln.Bold {
			font = "F2"
		}
		fmt.Fprintf(&sb, "BT /%s %g Tf %g %g Td (%s) Tj ET\n", font, ln.Size, ln.X, PageHeight-ln.Y, escape(ln.Text))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}

// addOutline appends one level of outline items under parent and returns
// the first and last object numbers. Items with kids are written closed.
func addOutline(objs *[]string, items []Bookmark, parent int, pageRefs []int) (first, last int) {
	start := len(*objs) + 1
	for range items {
		*objs = append(*objs, "")
	}
	for i, bm := range items {
		num := start + i
		d := fmt.Sprintf("<< /Title (%s) /Parent %d 0 R /Dest [%d 0 R /Fit]",
			escape(bm.Title), parent, pageRefs[bm.Page-1])
		if i > 0 {
			d += fmt.Sprintf(" /Prev %d 0 R", num-1)
		}
		if i < len(items)-1 {
			d += fmt.Sprintf(" /Next %d 0 R", num+1)
		}
		if len(bm.Kids) > 0 {
			kf, kl := addOutline(objs, bm.Kids, num, pageRefs)
			d += fmt.Sprintf(" /First %d 0 R /Last %d 0 R /Count %d", kf, kl, -len(bm.Kids))
		}
		(*objs)[num-1] = d + " >>"
	}
	return start, start + len(items) - 1
}
