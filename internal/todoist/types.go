package todoist

import (
	"fmt"
	"time"
)

// Project is a node of the user's project tree.
// ParentID is empty for root projects.
type Project struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	ParentID string `json:"parent_id" yaml:"parent_id,omitempty"`
}

// IsRoot reports whether the project has no parent.
func (p Project) IsRoot() bool {
	return p.ParentID == ""
}

// CompletedTask is an immutable record of a task marked done.
type CompletedTask struct {
	TaskID      string    `json:"task_id" yaml:"task_id"`
	ProjectID   string    `json:"project_id" yaml:"project_id"`
	Content     string    `json:"content" yaml:"content"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// CompletedFilter bounds a completed-tasks request by completion time.
// A zero Since or Until leaves that side open.
type CompletedFilter struct {
	Since time.Time
	Until time.Time
}

// FilterLayout is the format of the since and until query parameters.
const FilterLayout = "2006-01-02T15:04"

// Covers reports whether every task matching g also matches f.
func (f CompletedFilter) Covers(g CompletedFilter) bool {
	if !f.Since.IsZero() && (g.Since.IsZero() || g.Since.Before(f.Since)) {
		return false
	}
	if !f.Until.IsZero() && (g.Until.IsZero() || g.Until.After(f.Until)) {
		return false
	}
	return true
}

// syncResponse is the subset of a Sync API response reportist reads.
type syncResponse struct {
	SyncToken string        `json:"sync_token"`
	FullSync  bool          `json:"full_sync"`
	Projects  []syncProject `json:"projects"`
}

type syncProject struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ParentID  string `json:"parent_id"`
	IsDeleted bool   `json:"is_deleted"`
}

// completedResponse is the body of completed/get_all.
type completedResponse struct {
	Items []completedItem `json:"items"`
}

// completedItem accepts both the legacy date_completed key and the
// current completed_at key.
type completedItem struct {
	ID            string `json:"id"`
	TaskID        string `json:"task_id"`
	ProjectID     string `json:"project_id"`
	Content       string `json:"content"`
	CompletedAt   string `json:"completed_at"`
	DateCompleted string `json:"date_completed"`
}

// TimestampLayout is the wire format of completion timestamps.
// time.Parse also accepts fractional seconds with this layout.
const TimestampLayout = "2006-01-02T15:04:05Z07:00"

// ParseTimestamp parses a completion timestamp into a UTC time.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse completion timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func (it completedItem) toTask() (CompletedTask, error) {
	raw := it.CompletedAt
	if raw == "" {
		raw = it.DateCompleted
	}
	ts, err := ParseTimestamp(raw)
	if err != nil {
		return CompletedTask{}, fmt.Errorf("task %q: %w", it.Content, err)
	}

	taskID := it.TaskID
	if taskID == "" {
		taskID = it.ID
	}

	return CompletedTask{
		TaskID:      taskID,
		ProjectID:   it.ProjectID,
		Content:     it.Content,
		CompletedAt: ts,
	}, nil
}
