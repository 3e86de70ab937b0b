// Package report resolves projects, collects their completed tasks and
// filters them into weekly or monthly reports.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/thozza/reportist/internal/todoist"
)

var (
	// ErrProjectNotFound is returned when a project name selector matches nothing.
	ErrProjectNotFound = errors.New("project not found")

	// ErrUnknownProject is returned when a project ID is not in the snapshot.
	ErrUnknownProject = errors.New("unknown project")

	// ErrProjectCycle is returned when parent links loop back on themselves.
	ErrProjectCycle = errors.New("project hierarchy contains a cycle")
)

// Source provides the project tree and completed tasks.
// *todoist.Client and *cache.Source implement it.
type Source interface {
	Projects(ctx context.Context) ([]todoist.Project, error)
	CompletedTasks(ctx context.Context, projectID string, filter todoist.CompletedFilter) ([]todoist.CompletedTask, error)
}

// Selector picks the projects a report covers. An empty Name selects all
// projects; Subprojects is ignored in that case.
type Selector struct {
	Name        string
	Subprojects bool
}

// Engine holds a read-only snapshot of the project tree.
type Engine struct {
	source   Source
	projects []todoist.Project
	byID     map[string]todoist.Project
	children map[string][]string
	log      *zap.Logger
}

// NewEngine fetches the project snapshot from source.
func NewEngine(ctx context.Context, source Source, log *zap.Logger) (*Engine, error) {
	projects, err := source.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	return NewEngineFromSnapshot(source, projects, log), nil
}

// NewEngineFromSnapshot builds an engine over an existing project list.
func NewEngineFromSnapshot(source Source, projects []todoist.Project, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}

	e := &Engine{
		source:   source,
		projects: projects,
		byID:     make(map[string]todoist.Project, len(projects)),
		children: make(map[string][]string),
		log:      log,
	}
	for _, p := range projects {
		e.byID[p.ID] = p
		if !p.IsRoot() {
			e.children[p.ParentID] = append(e.children[p.ParentID], p.ID)
		}
	}
	return e
}

// Projects returns the snapshot in source order.
func (e *Engine) Projects() []todoist.Project {
	return e.projects
}

// Project looks up a project by ID.
func (e *Engine) Project(id string) (todoist.Project, bool) {
	p, ok := e.byID[id]
	return p, ok
}

// ProjectByName returns the first project whose name contains name.
func (e *Engine) ProjectByName(name string) (todoist.Project, bool) {
	for _, p := range e.projects {
		if strings.Contains(p.Name, name) {
			return p, true
		}
	}
	return todoist.Project{}, false
}

// ResolveTargetProjects turns a selector into the list of projects to query.
func (e *Engine) ResolveTargetProjects(sel Selector) ([]todoist.Project, error) {
	if sel.Name == "" {
		return e.CollectProjects(e.projects, false), nil
	}

	project, ok := e.ProjectByName(sel.Name)
	if !ok {
		return nil, fmt.Errorf("%w: no project name contains %q", ErrProjectNotFound, sel.Name)
	}
	return e.CollectProjects([]todoist.Project{project}, sel.Subprojects), nil
}

// CollectProjects de-duplicates roots by ID and, when subprojects is set,
// appends every descendant in breadth-first order. Children are visited in
// snapshot order.
func (e *Engine) CollectProjects(roots []todoist.Project, subprojects bool) []todoist.Project {
	seen := make(map[string]struct{}, len(roots))
	result := make([]todoist.Project, 0, len(roots))

	for _, p := range roots {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		result = append(result, p)
	}

	if !subprojects {
		return result
	}

	// result doubles as the BFS queue.
	for i := 0; i < len(result); i++ {
		for _, childID := range e.children[result[i].ID] {
			if _, dup := seen[childID]; dup {
				continue
			}
			seen[childID] = struct{}{}
			result = append(result, e.byID[childID])
		}
	}

	return result
}

// FetchCompleted requests the completed tasks of each project in turn and
// concatenates them in project order. It stops at the first error or when
// ctx is canceled. filter narrows each request; tasks outside it may still
// be returned and are left to FilterByDateRange.
func (e *Engine) FetchCompleted(ctx context.Context, projects []todoist.Project, filter todoist.CompletedFilter) ([]todoist.CompletedTask, error) {
	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}
	e.log.Debug("getting completed tasks for projects", zap.Strings("projects", names))

	var completed []todoist.CompletedTask
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tasks, err := e.source.CompletedTasks(ctx, p.ID, filter)
		if err != nil {
			return nil, fmt.Errorf("completed tasks of %q: %w", p.Name, err)
		}
		completed = append(completed, tasks...)
	}
	return completed, nil
}

// RenderPath returns the root-to-leaf project path, e.g. "Work/ClientA/Phase1".
func (e *Engine) RenderPath(projectID string) (string, error) {
	var names []string
	visited := make(map[string]struct{})

	id := projectID
	for {
		p, ok := e.byID[id]
		if !ok {
			if id == projectID {
				return "", fmt.Errorf("%w: %s", ErrUnknownProject, id)
			}
			return "", fmt.Errorf("%w: %s (parent of %q)", ErrUnknownProject, id, names[len(names)-1])
		}
		if _, loop := visited[id]; loop || len(visited) > len(e.projects) {
			return "", fmt.Errorf("%w: at project %s", ErrProjectCycle, id)
		}
		visited[id] = struct{}{}
		names = append(names, p.Name)

		if p.IsRoot() {
			break
		}
		id = p.ParentID
	}

	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/"), nil
}
