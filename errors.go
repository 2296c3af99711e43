package docsect

import "errors"

var (
	// ErrDocumentNotFound is returned when a document ID or path does not exist.
	ErrDocumentNotFound = errors.New("docsect: document not found")

	// ErrUnsupportedSource is returned for an unknown layout source.
	ErrUnsupportedSource = errors.New("docsect: unsupported layout source")

	// ErrOpenFailed is returned when the PDF cannot be opened.
	ErrOpenFailed = errors.New("docsect: opening document failed")

	// ErrLayoutFailed is returned when the layout provider fails for the
	// whole document.
	ErrLayoutFailed = errors.New("docsect: layout extraction failed")

	// ErrNoItems is returned when no page yielded any layout item.
	ErrNoItems = errors.New("docsect: no layout items")

	// ErrArtifactWrite is returned when section artifacts cannot be written.
	ErrArtifactWrite = errors.New("docsect: writing artifacts failed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("docsect: invalid configuration")
)
