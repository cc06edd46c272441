package store

// schema is the complete tracking-store schema. Keys are unique per
// (filename, language) and (page_title, language); INSERT OR REPLACE on
// those keys keeps only the latest state, never a history trail.
const schema = `
CREATE TABLE IF NOT EXISTS uploads (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    filename    TEXT NOT NULL,
    language    TEXT NOT NULL,
    uploaded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    status      TEXT NOT NULL,
    error       TEXT,
    UNIQUE(filename, language)
);

CREATE TABLE IF NOT EXISTS pages (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    page_title      TEXT NOT NULL,
    language        TEXT NOT NULL,
    processed_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
    templates_found INTEGER NOT NULL DEFAULT 0,
    files_uploaded  INTEGER NOT NULL DEFAULT 0,
    UNIQUE(page_title, language)
);

CREATE INDEX IF NOT EXISTS idx_uploads_lang   ON uploads(language);
CREATE INDEX IF NOT EXISTS idx_uploads_status ON uploads(status);
CREATE INDEX IF NOT EXISTS idx_pages_lang     ON pages(language);
`
