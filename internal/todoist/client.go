// Package todoist is a minimal client for the Todoist Sync API.
// It only covers what reportist needs: the project list and the
// completed tasks of a single project.
package todoist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the Sync API endpoint.
const DefaultBaseURL = "https://api.todoist.com/sync/v9"

// CompletedLimit is the page size requested from completed/get_all.
// 200 is the maximum the API accepts.
const CompletedLimit = 200

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("todoist %s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("todoist %s: HTTP %d: %s", e.Endpoint, e.StatusCode, body)
}

// Client talks to the Todoist Sync API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client authenticated with the given API token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Projects performs a full sync of the project resource and returns
// every live project in the order the API returned them.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	form := url.Values{}
	form.Set("sync_token", "*")
	form.Set("resource_types", `["projects"]`)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sync", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp syncResponse
	if err := c.do(req, "sync", &resp); err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(resp.Projects))
	for _, p := range resp.Projects {
		if p.IsDeleted {
			continue
		}
		projects = append(projects, Project{ID: p.ID, Name: p.Name, ParentID: p.ParentID})
	}

	c.log.Debug("synced projects", zap.Int("count", len(projects)))
	return projects, nil
}

// CompletedTasks returns the completed tasks of one project, in the
// order the API returned them. Subprojects are not included. The filter
// is sent as since/until so the limit applies inside the window.
func (c *Client) CompletedTasks(ctx context.Context, projectID string, filter CompletedFilter) ([]CompletedTask, error) {
	q := url.Values{}
	q.Set("project_id", projectID)
	q.Set("limit", fmt.Sprint(CompletedLimit))
	if !filter.Since.IsZero() {
		q.Set("since", filter.Since.UTC().Format(FilterLayout))
	}
	if !filter.Until.IsZero() {
		q.Set("until", filter.Until.UTC().Format(FilterLayout))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/completed/get_all?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build completed request: %w", err)
	}

	var resp completedResponse
	if err := c.do(req, "completed/get_all", &resp); err != nil {
		return nil, err
	}

	tasks := make([]CompletedTask, 0, len(resp.Items))
	for _, it := range resp.Items {
		task, err := it.toTask()
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", projectID, err)
		}
		if task.ProjectID == "" {
			task.ProjectID = projectID
		}
		tasks = append(tasks, task)
	}

	c.log.Debug("fetched completed tasks",
		zap.String("project_id", projectID),
		zap.Int("count", len(tasks)))
	if len(resp.Items) >= CompletedLimit {
		c.log.Warn("completed tasks truncated at the request limit",
			zap.String("project_id", projectID),
			zap.Int("limit", CompletedLimit))
	}
	return tasks, nil
}

// do sends req and decodes a JSON body into out.
func (c *Client) do(req *http.Request, endpoint string, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("todoist %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
