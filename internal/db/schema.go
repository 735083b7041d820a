package db

// The messages table persists the canonical record produced by the pipeline
// at ingestion. Records are immutable after insert; render-time flags are
// recomputed per request and never stored.
const schema = `
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    message_id TEXT,
    in_reply_to TEXT,
    thread_references TEXT,  -- Space-separated Message-IDs (conversation ancestry)
    subject TEXT NOT NULL,
    sender TEXT NOT NULL,
    sender_name TEXT,
    reply_to TEXT,
    recipients TEXT,
    cc TEXT,
    bcc TEXT,
    body_text TEXT,
    body_html TEXT,
    body_html_stripped TEXT, -- Plain projection of body_html, for FTS only
    date DATETIME,
    priority TEXT,
    received_date DATETIME,
    original_to TEXT,
    email_client TEXT,
    headers TEXT,            -- JSON-encoded decoded header map
    has_attachments BOOLEAN DEFAULT 0,
    attachment_count INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Full-text search virtual table
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    subject,
    sender,
    sender_name,
    body_text,
    body_html_stripped,
    content='messages',
    content_rowid='id'
);

-- Triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, subject, sender, sender_name, body_text, body_html_stripped)
    VALUES (new.id, new.subject, new.sender, new.sender_name, new.body_text, new.body_html_stripped);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    DELETE FROM messages_fts WHERE rowid = old.id;
END;

CREATE TABLE IF NOT EXISTS attachments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    message_id INTEGER NOT NULL,
    filename TEXT NOT NULL,
    content_type TEXT,
    size INTEGER,
    content BLOB,
    FOREIGN KEY(message_id) REFERENCES messages(id) ON DELETE CASCADE
);

-- Indexes for performance
CREATE INDEX IF NOT EXISTS idx_messages_date ON messages(date DESC);
CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender);
CREATE INDEX IF NOT EXISTS idx_messages_message_id ON messages(message_id);
CREATE INDEX IF NOT EXISTS idx_messages_in_reply_to ON messages(in_reply_to);
CREATE INDEX IF NOT EXISTS idx_attachments_message_id ON attachments(message_id);
`
