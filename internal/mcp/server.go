// Package mcp provides an MCP (Model Context Protocol) server for reportist.
// This lets AI agents request completed-task reports as tool calls.
package mcp

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/thozza/reportist/internal/output"
	"github.com/thozza/reportist/internal/report"
)

// Server wraps the MCP server with reportist tools.
type Server struct {
	mcpServer    *server.MCPServer
	source       report.Source
	log          *zap.Logger
	now          func() time.Time
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration.
type Config struct {
	Source  report.Source
	Logger  *zap.Logger
	Tools   []string         // Which tools to expose (empty = all)
	Timeout time.Duration    // Inactivity timeout (0 = no timeout)
	Now     func() time.Time // Current time (default time.Now)
}

// AllTools lists all available tools.
var AllTools = []string{"completed_report", "project_path"}

// New creates a new MCP server.
func New(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("mcp server requires a data source")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	mcpServer := server.NewMCPServer(
		"reportist",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		source:       cfg.Source,
		log:          cfg.Logger,
		now:          cfg.Now,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case "completed_report":
		return s.registerReportTool()
	case "project_path":
		return s.registerPathTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			s.log.Info("shutting down after inactivity", zap.Duration("timeout", s.timeout))
			s.log.Sync()
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the registered tools, sorted.
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry mirrors the mcp.NewTool() definitions in the
// register*Tool() functions.
var toolSchemaRegistry = map[string]ToolSchema{
	"completed_report": {
		Name:        "completed_report",
		Description: "List tasks completed in a week or month, with their full project path.",
		Parameters: []ParameterSchema{
			{Name: "project", Type: "string", Description: "Project name substring (default: all projects)"},
			{Name: "subprojects", Type: "boolean", Description: "Include subprojects (default: true)"},
			{Name: "report", Type: "string", Description: "week or month (default: week)"},
			{Name: "week", Type: "number", Description: "Week number 0-53 (default: current week)"},
			{Name: "month", Type: "number", Description: "Month number 1-12 (default: current month)"},
			{Name: "year", Type: "number", Description: "Year (default: current year)"},
			{Name: "format", Type: "string", Description: "text, yaml or json (default: text)"},
		},
	},
	"project_path": {
		Name:        "project_path",
		Description: "Show the full path of the first project whose name contains the given string.",
		Parameters: []ParameterSchema{
			{Name: "project", Type: "string", Description: "Project name substring", Required: true},
		},
	},
}

// AllToolSchemas returns the schemas of every available tool.
func AllToolSchemas() []ToolSchema {
	schemas := make([]ToolSchema, 0, len(AllTools))
	for _, name := range AllTools {
		schemas = append(schemas, toolSchemaRegistry[name])
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments,
// bypassing the transport.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	switch name {
	case "completed_report":
		req, format, err := parseReportArgs(args)
		if err != nil {
			return "", err
		}
		return s.executeReport(ctx, req, format)

	case "project_path":
		project, _ := args["project"].(string)
		if project == "" {
			return "", fmt.Errorf("project parameter is required")
		}
		return s.executePath(ctx, project)

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) registerReportTool() error {
	tool := mcp.NewTool("completed_report",
		mcp.WithDescription("List tasks completed in a week or month, with their full project path."),
		mcp.WithString("project",
			mcp.Description("Report on the first project whose name contains this string (default: all projects)"),
		),
		mcp.WithBoolean("subprojects",
			mcp.Description("Include subprojects of the selected project (default: true)"),
		),
		mcp.WithString("report",
			mcp.Description("Report kind: week or month (default: week)"),
		),
		mcp.WithNumber("week",
			mcp.Description("Week number 0-53, Monday first (default: current week)"),
		),
		mcp.WithNumber("month",
			mcp.Description("Month number 1-12 (default: current month)"),
		),
		mcp.WithNumber("year",
			mcp.Description("Year (default: current year)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: text, yaml, json (default: text)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleReport)
	return nil
}

func (s *Server) registerPathTool() error {
	tool := mcp.NewTool("project_path",
		mcp.WithDescription("Show the full path of the first project whose name contains the given string."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name substring"),
		),
	)

	s.mcpServer.AddTool(tool, s.handlePath)
	return nil
}

func (s *Server) handleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	reportReq, format, err := parseReportArgs(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.executeReport(ctx, reportReq, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handlePath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	project, ok := args["project"].(string)
	if !ok || project == "" {
		return mcp.NewToolResultError("project parameter is required"), nil
	}

	result, err := s.executePath(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

// parseReportArgs converts tool arguments into a report request.
// JSON numbers arrive as float64.
func parseReportArgs(args map[string]interface{}) (report.Request, output.Format, error) {
	req := report.DefaultRequest()

	req.Project, _ = args["project"].(string)
	if sub, ok := args["subprojects"].(bool); ok {
		req.Subprojects = sub
	}
	if kind, ok := args["report"].(string); ok && kind != "" {
		k, err := report.ParseKind(kind)
		if err != nil {
			return req, "", err
		}
		req.Kind = k
	}
	// Present keys are validated as given; absent ones keep the
	// current-period defaults.
	if v, ok := args["week"]; ok {
		w, err := intArg(v, 0, report.ErrInvalidWeek)
		if err != nil {
			return req, "", err
		}
		req.Week = w
	}
	if v, ok := args["month"]; ok {
		m, err := intArg(v, 1, report.ErrInvalidMonth)
		if err != nil {
			return req, "", err
		}
		req.Month = m
	}
	if v, ok := args["year"]; ok {
		y, err := intArg(v, 1, report.ErrInvalidYear)
		if err != nil {
			return req, "", err
		}
		req.Year = y
	}

	formatArg, _ := args["format"].(string)
	format, err := output.ParseFormat(formatArg)
	if err != nil {
		return req, "", err
	}

	return req, format, nil
}

// intArg converts a JSON number to an int no smaller than min.
// Fractional and non-numeric values are rejected with sentinel.
func intArg(v interface{}, min int, sentinel error) (int, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %v is not a number", sentinel, v)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not an integer", sentinel, v)
	}
	if f < float64(min) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v", sentinel, v)
	}
	return int(f), nil
}

func (s *Server) executeReport(ctx context.Context, req report.Request, format output.Format) (string, error) {
	engine, err := report.NewEngine(ctx, s.source, s.log)
	if err != nil {
		return "", err
	}

	res, err := report.Generate(ctx, engine, req, report.NewWindow(s.now()))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := output.WriteReport(&buf, res, format, output.DefaultDensity); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) executePath(ctx context.Context, name string) (string, error) {
	engine, err := report.NewEngine(ctx, s.source, s.log)
	if err != nil {
		return "", err
	}

	project, ok := engine.ProjectByName(name)
	if !ok {
		return "", fmt.Errorf("%w: no project name contains %q", report.ErrProjectNotFound, name)
	}
	return engine.RenderPath(project.ID)
}
