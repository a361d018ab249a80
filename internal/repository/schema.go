package repository

// Schema definitions for the CyberTriage case store.
// Compatible with both SQLite and PostgreSQL. Sub-records are stored as JSON
// text and timestamps as RFC 3339 text so both drivers round-trip them exactly.

const schemaCases = `
CREATE TABLE IF NOT EXISTS cases (
    case_id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    intake TEXT NOT NULL,
    triage TEXT,
    routing TEXT,
    notes TEXT NOT NULL,
    review_requests TEXT NOT NULL,
    created_at TEXT NOT NULL,
    last_updated TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
CREATE INDEX IF NOT EXISTS idx_cases_created_at ON cases(created_at);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaCases,
	}
}
