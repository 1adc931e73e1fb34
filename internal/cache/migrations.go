package cache

// migration represents a single schema migration step.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema changes. Each entry must
// record its own version in schema_version as part of its script.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS goals (
	id TEXT PRIMARY KEY,
	scope TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	owner_id TEXT NOT NULL,
	owner_name TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	manager_comment TEXT NOT NULL DEFAULT '',
	due_date DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	cycle_id TEXT NOT NULL,
	cycle_name TEXT NOT NULL DEFAULT '',
	reviewee_id TEXT NOT NULL,
	reviewee_name TEXT NOT NULL DEFAULT '',
	reviewer_id TEXT NOT NULL,
	reviewer_name TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	status TEXT NOT NULL,
	rating INTEGER NOT NULL DEFAULT 0,
	summary TEXT NOT NULL DEFAULT '',
	due_date DATETIME,
	submitted_at DATETIME,
	fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id TEXT PRIMARY KEY,
	direction TEXT NOT NULL,
	from_id TEXT NOT NULL,
	from_name TEXT NOT NULL DEFAULT '',
	to_id TEXT NOT NULL,
	to_name TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL,
	kind TEXT NOT NULL,
	visibility TEXT NOT NULL,
	client_ref TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	fetched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_goals_scope ON goals(scope);
CREATE INDEX IF NOT EXISTS idx_reviews_cycle ON reviews(cycle_id);
CREATE INDEX IF NOT EXISTS idx_feedback_direction ON feedback(direction);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_goals_updated ON goals(updated_at);
CREATE INDEX IF NOT EXISTS idx_reviews_status ON reviews(status);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
