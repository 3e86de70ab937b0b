package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Kind selects the report window.
type Kind string

const (
	// KindWeek reports on one Monday-first week (default).
	KindWeek Kind = "week"

	// KindMonth reports on one calendar month.
	KindMonth Kind = "month"
)

// Kinds lists the accepted report kinds.
var Kinds = []Kind{KindWeek, KindMonth}

// ParseKind parses "week" or "month" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindWeek:
		return KindWeek, nil
	case KindMonth:
		return KindMonth, nil
	default:
		return "", fmt.Errorf("invalid report kind: %q (expected week or month)", s)
	}
}

// Request describes one report run.
// Week < 0, Month == 0 and Year == 0 select the current period.
type Request struct {
	Project     string
	Subprojects bool
	Kind        Kind
	Week        int
	Month       int
	Year        int
}

// DefaultRequest reports the current week of all projects.
func DefaultRequest() Request {
	return Request{Subprojects: true, Kind: KindWeek, Week: -1}
}

// Entry is one completed task with its rendered project path.
type Entry struct {
	CompletedAt time.Time
	ProjectID   string
	Project     string
	Content     string
}

// Result is a generated report.
type Result struct {
	Kind    Kind
	Range   DateRange
	Entries []Entry
}

// Range returns the report window for req.
func (w Window) Range(req Request) (DateRange, error) {
	switch req.Kind {
	case KindMonth:
		return w.Month(req.Month, req.Year)
	case KindWeek, "":
		return w.Week(req.Week, req.Year)
	default:
		return DateRange{}, fmt.Errorf("invalid report kind: %q", req.Kind)
	}
}

// Generate resolves the requested projects, fetches their completed tasks
// and keeps the ones inside the report window.
func Generate(ctx context.Context, e *Engine, req Request, w Window) (*Result, error) {
	// Validate the window before any per-project request is made.
	r, err := w.Range(req)
	if err != nil {
		return nil, err
	}
	e.log.Debug("report window",
		zap.String("kind", string(req.Kind)),
		zap.String("start", r.Start.Format(TimestampLayout)),
		zap.String("end", r.End.Format(TimestampLayout)))

	projects, err := e.ResolveTargetProjects(Selector{Name: req.Project, Subprojects: req.Subprojects})
	if err != nil {
		return nil, err
	}

	completed, err := e.FetchCompleted(ctx, projects, r.CompletedFilter())
	if err != nil {
		return nil, err
	}

	filtered := FilterByDateRange(completed, r)
	entries := make([]Entry, 0, len(filtered))
	for _, task := range filtered {
		path, err := e.RenderPath(task.ProjectID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			CompletedAt: task.CompletedAt,
			ProjectID:   task.ProjectID,
			Project:     path,
			Content:     task.Content,
		})
	}

	kind := req.Kind
	if kind == "" {
		kind = KindWeek
	}
	return &Result{Kind: kind, Range: r, Entries: entries}, nil
}

// TimestampLayout formats completion times in text output.
const TimestampLayout = "Mon 2006-01-02 15:04:05"

// WriteText writes the summary line followed by one line per entry.
func WriteText(w io.Writer, res *Result) error {
	if _, err := fmt.Fprintf(w, "Completed %d tasks.\n", len(res.Entries)); err != nil {
		return err
	}
	for _, entry := range res.Entries {
		if _, err := fmt.Fprintf(w, "%s: (%s)\t %s\n",
			entry.CompletedAt.UTC().Format(TimestampLayout), entry.Project, entry.Content); err != nil {
			return err
		}
	}
	return nil
}
