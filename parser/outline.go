package parser

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/brunobiangulo/docsect/toc"
)

// ReadOutline returns the PDF's bookmarks flattened in document order,
// with levels starting at 1. A document without bookmarks yields an empty
// list; a malformed outline yields an error.
func ReadOutline(path string) ([]toc.OutlineEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	bms, err := api.Bookmarks(f, conf)
	if err != nil {
		return nil, fmt.Errorf("reading outline: %w", err)
	}
	return FlattenBookmarks(bms), nil
}

// FlattenBookmarks walks a bookmark tree depth-first.
func FlattenBookmarks(bms []pdfcpu.Bookmark) []toc.OutlineEntry {
	var out []toc.OutlineEntry
	var walk func([]pdfcpu.Bookmark, int)
	walk = func(list []pdfcpu.Bookmark, level int) {
		for _, bm := range list {
			out = append(out, toc.OutlineEntry{Level: level, Title: bm.Title, Page: bm.PageFrom})
			walk(bm.Kids, level+1)
		}
	}
	walk(bms, 1)
	return out
}
