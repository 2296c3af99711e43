// Package docsect reconstructs the section hierarchy of a paginated
// technical PDF from its layout items, collapses tables and figures split
// across page breaks, and persists the result as per-section JSON
// artifacts and SQLite rows.
package docsect

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brunobiangulo/docsect/artifact"
	"github.com/brunobiangulo/docsect/continuation"
	"github.com/brunobiangulo/docsect/parser"
	"github.com/brunobiangulo/docsect/report"
	"github.com/brunobiangulo/docsect/section"
	"github.com/brunobiangulo/docsect/store"
	"github.com/brunobiangulo/docsect/toc"
)

// Engine is the main entry point for section extraction.
type Engine interface {
	// Extract reconstructs the sections of a PDF, writes their artifacts
	// and loads them into the store.
	Extract(ctx context.Context, path string, opts ...ExtractOption) (*Result, error)

	// Load reads an artifact directory into the store, replacing any
	// sections already stored for the document. Returns the document ID.
	Load(ctx context.Context, dir string) (int64, error)

	// Continuations runs the page-level continuation detector on a page
	// layouts file.
	Continuations(ctx context.Context, pagesPath string, opts ...ContinuationOption) (*ContinuationResult, error)

	// ListDocuments returns all stored documents.
	ListDocuments(ctx context.Context) ([]store.Document, error)

	// Sections returns the stored sections of a document.
	Sections(ctx context.Context, documentID int64) ([]store.Section, error)

	// Report writes the XLSX catalog of a stored document.
	Report(ctx context.Context, documentID int64, path string) error

	// Delete removes a document with its sections and continuations.
	// Artifact files on disk are left in place.
	Delete(ctx context.Context, documentID int64) error

	// Store returns the underlying store for diagnostic access.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// Result reports one extraction.
type Result struct {
	DocumentID int64             `json:"document_id"`
	Path       string            `json:"path"`
	OutputDir  string            `json:"output_dir"`
	Mode       toc.Mode          `json:"mode"`
	Pages      int               `json:"pages"`
	Sections   []section.Section `json:"-"`
	Artifacts  *artifact.Result  `json:"artifacts,omitempty"`
	// Unchanged is set when the document was already extracted with the
	// same content hash and nothing was rewritten.
	Unchanged bool          `json:"unchanged"`
	Elapsed   time.Duration `json:"elapsed"`
}

// ContinuationResult holds the page-level continuation output.
type ContinuationResult struct {
	Policy     continuation.Policy      `json:"policy"`
	Links      map[int]int              `json:"links"`
	Candidates []continuation.Candidate `json:"candidates"`
}

// ExtractOption configures extraction behavior.
type ExtractOption func(*extractOptions)

type extractOptions struct {
	force      bool
	source     string
	layoutPath string
	outputDir  string
}

// WithForce re-extracts and rewrites every artifact even if the hash is unchanged.
func WithForce() ExtractOption {
	return func(o *extractOptions) { o.force = true }
}

// WithLayoutFile uses an external layout-detection file as the item source.
func WithLayoutFile(path string) ExtractOption {
	return func(o *extractOptions) {
		o.layoutPath = path
		o.source = "layout-json"
	}
}

// WithSource overrides the configured layout source.
func WithSource(name string) ExtractOption {
	return func(o *extractOptions) { o.source = name }
}

// WithOutputDir overrides the artifact directory for this document.
func WithOutputDir(dir string) ExtractOption {
	return func(o *extractOptions) { o.outputDir = dir }
}

// ContinuationOption configures continuation detection.
type ContinuationOption func(*continuationOptions)

type continuationOptions struct {
	policy     continuation.Policy
	documentID int64
}

// WithPolicy selects the structural or positional predicate.
func WithPolicy(p continuation.Policy) ContinuationOption {
	return func(o *continuationOptions) { o.policy = p }
}

// WithDocument stores the candidates under the given document.
func WithDocument(id int64) ContinuationOption {
	return func(o *continuationOptions) { o.documentID = id }
}

type engine struct {
	cfg     Config
	store   *store.Store
	parsers *parser.Registry
}

// New creates a new docsect engine with the given configuration.
func New(cfg Config) (Engine, error) {
	cfg = cfg.withDefaults()
	if _, err := continuation.ParsePolicy(string(cfg.ContinuationPolicy)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s, err := store.New(cfg.resolveDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &engine{
		cfg:     cfg,
		store:   s,
		parsers: parser.NewRegistry(),
	}, nil
}

// Extract runs the full pipeline on one PDF.
func (e *engine) Extract(ctx context.Context, path string, opts ...ExtractOption) (*Result, error) {
	options := &extractOptions{force: e.cfg.Force, source: e.cfg.Source}
	for _, o := range opts {
		o(options)
	}
	start := time.Now()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	hash, err := store.FileHash(absPath)
	if err != nil {
		return nil, fmt.Errorf("hashing file: %w", err)
	}

	filename := filepath.Base(absPath)
	outDir := options.outputDir
	if outDir == "" {
		outDir = filepath.Join(e.cfg.OutputDir, strings.TrimSuffix(filename, filepath.Ext(filename)))
	}

	rewrite := options.force
	if existing, err := e.store.GetDocumentByPath(ctx, absPath); err == nil && !options.force {
		// A changed file invalidates every artifact of the previous run.
		rewrite = existing.ContentHash != hash
		if !rewrite && existing.Status == store.StatusExtracted &&
			fileExists(filepath.Join(outDir, artifact.IndexFile)) {
			slog.Info("extract: document unchanged, skipping", "file", filename, "doc_id", existing.ID)
			return &Result{
				DocumentID: existing.ID,
				Path:       absPath,
				OutputDir:  outDir,
				Mode:       toc.Mode(existing.TOCMode),
				Pages:      existing.PageCount,
				Unchanged:  true,
				Elapsed:    time.Since(start),
			}, nil
		}
	}

	provider, err := e.parsers.Get(options.source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, options.source)
	}

	doc, err := parser.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	defer doc.Close()

	slog.Info("extract: reading layout", "file", filename, "source", options.source, "pages", doc.NumPages())
	items, err := provider.Items(ctx, parser.Input{
		Doc:         doc,
		LayoutPath:  options.layoutPath,
		SamplePages: e.cfg.TOC.SamplePages,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLayoutFailed, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoItems, filename)
	}

	outline, err := parser.ReadOutline(absPath)
	if err != nil {
		slog.Info("extract: outline unavailable", "file", filename, "error", err)
	}

	// The scan reads only Title items, after running headers are gone.
	in := Input{
		Outline:  outline,
		Lines:    toc.LinesFromItems(items),
		Items:    items,
		LastPage: doc.NumPages(),
	}
	if options.source == "pdf" {
		in.Spans = doc.Spans(e.cfg.TOC.SamplePages)
	} else {
		in.Spans = toc.SpansFromItems(items)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sections, mode := Reconstruct(in, e.cfg)
	slog.Info("extract: sections resolved", "file", filename, "mode", mode, "sections", len(sections))

	w := &artifact.Writer{Dir: outDir, Force: rewrite}
	written, err := w.Write(artifact.Document{
		Name:        filename,
		Path:        absPath,
		ContentHash: hash,
		TOCMode:     string(mode),
		PageCount:   doc.NumPages(),
	}, sections)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}

	docID, err := e.Load(ctx, outDir)
	if err != nil {
		return nil, err
	}

	res := &Result{
		DocumentID: docID,
		Path:       absPath,
		OutputDir:  outDir,
		Mode:       mode,
		Pages:      doc.NumPages(),
		Sections:   sections,
		Artifacts:  written,
		Elapsed:    time.Since(start),
	}
	slog.Info("extract: document ready",
		"file", filename, "doc_id", docID, "elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// Load reads the artifact directory and replaces the document's stored
// sections. The document is keyed by the PDF path recorded in the index,
// or by the directory when the index has none.
func (e *engine) Load(ctx context.Context, dir string) (int64, error) {
	idx, sections, err := artifact.ReadAll(dir)
	if err != nil {
		return 0, fmt.Errorf("reading artifacts: %w", err)
	}

	key := idx.PDFPath
	if key == "" {
		if key, err = filepath.Abs(dir); err != nil {
			return 0, fmt.Errorf("resolving path: %w", err)
		}
	}
	docID, err := e.store.UpsertDocument(ctx, store.Document{
		Path:        key,
		Filename:    idx.PDFName,
		ContentHash: idx.ContentHash,
		TOCMode:     idx.TOCMode,
		PageCount:   idx.PageCount,
		Status:      store.StatusPending,
	})
	if err != nil {
		return 0, fmt.Errorf("upserting document: %w", err)
	}

	if err := e.store.ReplaceSections(ctx, docID, storeSections(sections)); err != nil {
		e.store.UpdateDocumentStatus(ctx, docID, store.StatusFailed)
		return 0, fmt.Errorf("storing sections: %w", err)
	}
	if err := e.store.UpdateDocumentStatus(ctx, docID, store.StatusExtracted); err != nil {
		return 0, fmt.Errorf("updating status: %w", err)
	}
	slog.Info("load: sections stored", "dir", dir, "doc_id", docID, "sections", len(sections))
	return docID, nil
}

// storeSections converts artifact sections to store rows.
func storeSections(sections []artifact.Section) []store.Section {
	out := make([]store.Section, 0, len(sections))
	for _, s := range sections {
		sec := store.Section{
			Index:     s.SectionIndex,
			PID:       s.SectionID,
			Title:     s.Title,
			Level:     s.Level,
			StartPage: s.Pages.Start,
			EndPage:   s.Pages.End,
			Text:      s.Content.Text,
		}
		for _, t := range s.Content.Tables {
			sec.Attachments = append(sec.Attachments, store.Attachment{
				Type:               store.AttachmentTable,
				UniqueID:           t.ID,
				Title:              t.Title,
				Page:               t.Page,
				BBox:               t.BBox,
				ImagePath:          t.ImagePath,
				Markdown:           t.Markdown,
				HasInterveningText: t.HasInterveningText,
				MergedCount:        t.MergedCount,
			})
		}
		for _, f := range s.Content.Figures {
			sec.Attachments = append(sec.Attachments, store.Attachment{
				Type:               store.AttachmentFigure,
				UniqueID:           f.ID,
				Title:              f.Title,
				Page:               f.Page,
				BBox:               f.BBox,
				ImagePath:          f.ImagePath,
				Markdown:           f.Description,
				HasInterveningText: f.HasInterveningText,
				MergedCount:        f.MergedCount,
			})
		}
		out = append(out, sec)
	}
	return out
}

// Continuations runs the page-level detector and, when a document is
// given, stores the candidates.
func (e *engine) Continuations(ctx context.Context, pagesPath string, opts ...ContinuationOption) (*ContinuationResult, error) {
	options := &continuationOptions{policy: e.cfg.ContinuationPolicy}
	for _, o := range opts {
		o(options)
	}
	policy, err := continuation.ParsePolicy(string(options.policy))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	f, err := os.Open(pagesPath)
	if err != nil {
		return nil, fmt.Errorf("opening page layouts: %w", err)
	}
	defer f.Close()
	pages, err := continuation.LoadPageLayouts(f)
	if err != nil {
		return nil, err
	}

	res := DetectContinuations(pages, policy, e.cfg.Pages)
	slog.Info("continuations: detected",
		"pages", len(pages), "policy", policy, "links", len(res.Links), "candidates", len(res.Candidates))

	if options.documentID != 0 {
		if _, err := e.store.GetDocument(ctx, options.documentID); err != nil {
			return nil, fmt.Errorf("%w: %d", ErrDocumentNotFound, options.documentID)
		}
		rows := make([]store.Continuation, 0, len(res.Candidates))
		for _, c := range res.Candidates {
			rows = append(rows, store.Continuation{
				PrevPage:     c.PrevPage,
				CurrPage:     c.CurrPage,
				PrevTableIdx: c.PrevTableIdx,
				CurrTableIdx: c.CurrTableIdx,
				Confidence:   string(c.Confidence),
				HasTitle:     c.HasTitle,
			})
		}
		if err := e.store.ReplaceContinuations(ctx, options.documentID, rows); err != nil {
			return nil, fmt.Errorf("storing continuations: %w", err)
		}
	}
	return res, nil
}

// ListDocuments returns all stored documents.
func (e *engine) ListDocuments(ctx context.Context) ([]store.Document, error) {
	return e.store.ListDocuments(ctx)
}

// Sections returns the stored sections of a document.
func (e *engine) Sections(ctx context.Context, documentID int64) ([]store.Section, error) {
	if _, err := e.store.GetDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("%w: %d", ErrDocumentNotFound, documentID)
	}
	return e.store.GetSections(ctx, documentID)
}

// Report writes the XLSX catalog of a stored document.
func (e *engine) Report(ctx context.Context, documentID int64, path string) error {
	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("%w: %d", ErrDocumentNotFound, documentID)
	}
	sections, err := e.store.GetSections(ctx, documentID)
	if err != nil {
		return fmt.Errorf("reading sections: %w", err)
	}
	conts, err := e.store.GetContinuations(ctx, documentID)
	if err != nil {
		return fmt.Errorf("reading continuations: %w", err)
	}
	return report.Save(path, report.Catalog{Document: doc.Filename, Sections: sections, Continuations: conts})
}

// Delete removes a stored document.
func (e *engine) Delete(ctx context.Context, documentID int64) error {
	if _, err := e.store.GetDocument(ctx, documentID); err != nil {
		return fmt.Errorf("%w: %d", ErrDocumentNotFound, documentID)
	}
	if err := e.store.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	slog.Info("delete: document removed", "doc_id", documentID)
	return nil
}

// Store returns the underlying store for diagnostic access.
func (e *engine) Store() *store.Store {
	return e.store
}

// Close shuts down the engine.
func (e *engine) Close() error {
	return e.store.Close()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
