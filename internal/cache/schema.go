package cache

// schemaSQL defines the SQLite schema for the cache database.
// Tables:
//   - projects: last synced project tree, position keeps API order
//   - completed_tasks: completed tasks per project, position keeps API order
//   - completed_fetches: projects whose completed tasks were fetched (even if none),
//     with the since/until window of that fetch ('' when open)
//   - sync_state: key/value bookkeeping such as the last project sync time
const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    parent_id TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS completed_tasks (
    project_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    task_id TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    completed_at TEXT NOT NULL,
    PRIMARY KEY (project_id, position)
);

CREATE TABLE IF NOT EXISTS completed_fetches (
    project_id TEXT PRIMARY KEY,
    fetched_at TEXT NOT NULL,
    window_since TEXT NOT NULL DEFAULT '',
    window_until TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sync_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_position ON projects(position);
`

const keyProjectsSynced = "projects_synced_at"

// initSchema creates the database tables and indexes if they don't exist.
func (c *Cache) initSchema() error {
	_, err := c.db.Exec(schemaSQL)
	return err
}
