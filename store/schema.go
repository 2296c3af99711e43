package store

// schemaSQL is the DDL for all tables.
const schemaSQL = `
-- Extracted documents with hash-based change detection
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    filename TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    toc_mode TEXT NOT NULL,
    page_count INTEGER DEFAULT 0,
    status TEXT DEFAULT 'pending',
    metadata JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Sections in reading order (index 0 = Front Matter)
CREATE TABLE IF NOT EXISTS sections (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    section_index INTEGER NOT NULL,
    section_pid TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    level INTEGER NOT NULL,
    start_page INTEGER NOT NULL,
    end_page INTEGER NOT NULL,
    text_content TEXT,
    page_range TEXT,
    UNIQUE(document_id, section_index)
);

-- Merged tables and figures
CREATE TABLE IF NOT EXISTS attachments (
    id INTEGER PRIMARY KEY,
    section_id INTEGER NOT NULL REFERENCES sections(id) ON DELETE CASCADE,
    type TEXT NOT NULL CHECK(type IN ('table', 'figure')),
    unique_id TEXT NOT NULL,
    title TEXT,
    page_num INTEGER NOT NULL,
    bbox JSON NOT NULL,
    image_path TEXT,
    markdown_content TEXT
);

-- Page-level table continuation candidates
CREATE TABLE IF NOT EXISTS continuations (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    prev_page INTEGER NOT NULL,
    curr_page INTEGER NOT NULL,
    prev_table_idx INTEGER NOT NULL,
    curr_table_idx INTEGER NOT NULL,
    confidence TEXT NOT NULL CHECK(confidence IN ('low', 'medium', 'high')),
    has_title INTEGER NOT NULL DEFAULT 0
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_sections_document ON sections(document_id);
CREATE INDEX IF NOT EXISTS idx_attachments_section ON attachments(section_id);
CREATE INDEX IF NOT EXISTS idx_attachments_type ON attachments(type);
CREATE INDEX IF NOT EXISTS idx_continuations_document ON continuations(document_id);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);
`
