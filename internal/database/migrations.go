package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS campaigns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT,
    campaign_type TEXT NOT NULL DEFAULT 'entity_matching',
    status TEXT NOT NULL DEFAULT 'draft' CHECK(status IN ('draft', 'active', 'completed', 'archived')),
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT UNIQUE NOT NULL,
    display_name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'reviewer',
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS pairs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    campaign_id INTEGER NOT NULL REFERENCES campaigns(id),
    pair_type TEXT,
    source_text TEXT NOT NULL,
    source_id TEXT,
    source_dataset TEXT,
    source_metadata TEXT,
    target_text TEXT NOT NULL,
    target_id TEXT,
    target_dataset TEXT,
    target_metadata TEXT,
    llm_confidence REAL CHECK(llm_confidence IS NULL OR (llm_confidence >= 0 AND llm_confidence <= 1)),
    llm_model TEXT,
    llm_reasoning TEXT,
    import_batch TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS votes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    pair_id INTEGER NOT NULL REFERENCES pairs(id),
    user_id INTEGER NOT NULL REFERENCES users(id),
    scoring_mode TEXT NOT NULL CHECK(scoring_mode IN ('binary', 'numeric')),
    score_binary TEXT CHECK(score_binary IS NULL OR score_binary IN ('match', 'no_match', 'unsure')),
    score_numeric INTEGER CHECK(score_numeric IS NULL OR (score_numeric >= 1 AND score_numeric <= 5)),
    expert_selected_code TEXT,
    reviewer_notes TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now')),
    UNIQUE(pair_id, user_id)
);

CREATE TABLE IF NOT EXISTS skipped_pairs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    pair_id INTEGER NOT NULL REFERENCES pairs(id),
    user_id INTEGER NOT NULL REFERENCES users(id),
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE(pair_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_pairs_campaign ON pairs(campaign_id);
CREATE INDEX IF NOT EXISTS idx_pairs_import_batch ON pairs(import_batch);
CREATE INDEX IF NOT EXISTS idx_votes_pair ON votes(pair_id);
CREATE INDEX IF NOT EXISTS idx_votes_user ON votes(user_id);
CREATE INDEX IF NOT EXISTS idx_skipped_pairs_pair ON skipped_pairs(pair_id);
CREATE INDEX IF NOT EXISTS idx_skipped_pairs_user ON skipped_pairs(user_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
