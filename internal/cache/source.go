package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/thozza/reportist/internal/todoist"
)

// Upstream is the live data source, normally a *todoist.Client.
type Upstream interface {
	Projects(ctx context.Context) ([]todoist.Project, error)
	CompletedTasks(ctx context.Context, projectID string, filter todoist.CompletedFilter) ([]todoist.CompletedTask, error)
}

// Source serves report data through the cache. Online it forwards every
// call to the upstream and writes the result through; offline it only
// reads cached data.
type Source struct {
	cache    *Cache
	upstream Upstream
	log      *zap.Logger
	now      func() time.Time
}

// NewSource returns a write-through source. A nil upstream makes the
// source offline.
func NewSource(c *Cache, upstream Upstream, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{cache: c, upstream: upstream, log: log, now: time.Now}
}

// Offline reports whether the source reads from the cache only.
func (s *Source) Offline() bool {
	return s.upstream == nil
}

// Projects returns the project tree.
func (s *Source) Projects(ctx context.Context) ([]todoist.Project, error) {
	if s.Offline() {
		s.log.Debug("loading projects from cache", zap.String("path", s.cache.Path()))
		return s.cache.LoadProjects()
	}

	projects, err := s.upstream.Projects(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SaveProjects(projects, s.now()); err != nil {
		return nil, err
	}
	return projects, nil
}

// CompletedTasks returns the completed tasks of one project.
func (s *Source) CompletedTasks(ctx context.Context, projectID string, filter todoist.CompletedFilter) ([]todoist.CompletedTask, error) {
	if s.Offline() {
		return s.cache.LoadCompleted(projectID, filter)
	}

	tasks, err := s.upstream.CompletedTasks(ctx, projectID, filter)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SaveCompleted(projectID, tasks, filter, s.now()); err != nil {
		return nil, err
	}
	return tasks, nil
}
