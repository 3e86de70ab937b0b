package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/thozza/reportist/internal/todoist"
)

// SaveProjects replaces the cached project tree.
func (c *Cache) SaveProjects(projects []todoist.Project, syncedAt time.Time) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM projects"); err != nil {
		return fmt.Errorf("clear projects: %w", err)
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO projects (id, name, parent_id, position) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, p := range projects {
		if _, err := stmt.Exec(p.ID, p.Name, p.ParentID, i); err != nil {
			return fmt.Errorf("insert project %s: %w", p.ID, err)
		}
	}

	if _, err := tx.Exec("INSERT OR REPLACE INTO sync_state (key, value) VALUES (?, ?)",
		keyProjectsSynced, syncedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("record sync time: %w", err)
	}

	return tx.Commit()
}

// LoadProjects returns the cached project tree in API order.
// Returns ErrNotCached if projects were never synced.
func (c *Cache) LoadProjects() ([]todoist.Project, error) {
	var synced string
	err := c.db.QueryRow("SELECT value FROM sync_state WHERE key = ?", keyProjectsSynced).Scan(&synced)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("projects: %w", ErrNotCached)
	}
	if err != nil {
		return nil, fmt.Errorf("read sync state: %w", err)
	}

	rows, err := c.db.Query("SELECT id, name, parent_id FROM projects ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []todoist.Project
	for rows.Next() {
		var p todoist.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ParentID); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return projects, nil
}

// SaveCompleted replaces the cached completed tasks of one project with the
// result of a fetch bounded by filter.
func (c *Cache) SaveCompleted(projectID string, tasks []todoist.CompletedTask, filter todoist.CompletedFilter, fetchedAt time.Time) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM completed_tasks WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("clear completed tasks of %s: %w", projectID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO completed_tasks (project_id, position, task_id, content, completed_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		if _, err := stmt.Exec(projectID, i, t.TaskID, t.Content, t.CompletedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert completed task %q: %w", t.Content, err)
		}
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO completed_fetches (project_id, fetched_at, window_since, window_until)
		VALUES (?, ?, ?, ?)`,
		projectID, fetchedAt.UTC().Format(time.RFC3339),
		formatBound(filter.Since), formatBound(filter.Until)); err != nil {
		return fmt.Errorf("record fetch of %s: %w", projectID, err)
	}

	return tx.Commit()
}

// LoadCompleted returns the cached completed tasks of one project in API
// order. Returns ErrNotCached if the project was never fetched, or if the
// cached fetch does not cover filter.
func (c *Cache) LoadCompleted(projectID string, filter todoist.CompletedFilter) ([]todoist.CompletedTask, error) {
	var fetched, since, until string
	err := c.db.QueryRow("SELECT fetched_at, window_since, window_until FROM completed_fetches WHERE project_id = ?", projectID).
		Scan(&fetched, &since, &until)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("completed tasks of project %s: %w", projectID, ErrNotCached)
	}
	if err != nil {
		return nil, fmt.Errorf("read fetch state: %w", err)
	}

	var cached todoist.CompletedFilter
	if cached.Since, err = parseBound(since); err != nil {
		return nil, err
	}
	if cached.Until, err = parseBound(until); err != nil {
		return nil, err
	}
	if !cached.Covers(filter) {
		return nil, fmt.Errorf("completed tasks of project %s in the requested window: %w", projectID, ErrNotCached)
	}

	rows, err := c.db.Query(`
		SELECT task_id, content, completed_at FROM completed_tasks
		WHERE project_id = ? ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query completed tasks: %w", err)
	}
	defer rows.Close()

	tasks := []todoist.CompletedTask{}
	for rows.Next() {
		t := todoist.CompletedTask{ProjectID: projectID}
		var completedAt string
		if err := rows.Scan(&t.TaskID, &t.Content, &completedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		t.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt)
		if err != nil {
			return nil, fmt.Errorf("parse cached timestamp %q: %w", completedAt, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// formatBound stores a filter bound; the zero time is stored as "".
func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cached window %q: %w", s, err)
	}
	return t, nil
}
