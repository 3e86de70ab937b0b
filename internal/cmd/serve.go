package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thozza/reportist/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

AI agents can then request completed-task reports as tool calls instead of
spawning the CLI. Every call takes a fresh project snapshot from Todoist, or
from the local cache with --offline.

Available Tools:
  completed_report   Tasks completed in a week or month
  project_path       Full path of a project

Examples:
  reportist serve --mcp                             # Start with all tools
  reportist serve --mcp --tools completed_report    # Expose one tool only
  reportist serve --mcp --timeout 30m               # Auto-stop after 30 minutes
  reportist serve --status                          # Check if server is running
  reportist serve --stop                            # Stop running server
  reportist serve --list-tools                      # Show available tools
  reportist serve --call project_path --args '{"project":"Work"}'`,
	RunE: runServe,
}

var (
	serveMCP       bool
	serveTools     string
	serveTimeout   string
	serveStatus    bool
	serveStop      bool
	serveListTools bool
	serveCall      string
	serveArgs      string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start MCP server (stdio transport)")
	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "30m", "Inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
	serveCmd.Flags().StringVar(&serveCall, "call", "", "Call one tool and print its result instead of serving")
	serveCmd.Flags().StringVar(&serveArgs, "args", "{}", "JSON object of arguments for --call")
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if serveListTools {
		fmt.Fprintln(out, "Available MCP tools:")
		fmt.Fprintln(out)
		for _, schema := range mcp.AllToolSchemas() {
			fmt.Fprintf(out, "  %-18s %s\n", schema.Name, schema.Description)
		}
		return nil
	}

	if serveStatus {
		return checkServerStatus(cmd)
	}

	if serveStop {
		return stopServer(cmd)
	}

	if !serveMCP && serveCall == "" {
		return fmt.Errorf("use --mcp to start the MCP server, or --help for usage")
	}

	timeout, err := parseDuration(serveTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	source, closeSource, err := openSource()
	if err != nil {
		return err
	}
	defer closeSource()

	server, err := mcp.New(mcp.Config{
		Source:  source,
		Logger:  logger,
		Tools:   parseToolList(serveTools),
		Timeout: timeout,
		Now:     now,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if serveCall != "" {
		var callArgs map[string]interface{}
		if err := json.Unmarshal([]byte(serveArgs), &callArgs); err != nil {
			return fmt.Errorf("invalid --args: %w", err)
		}
		result, err := server.CallTool(cmd.Context(), serveCall, callArgs)
		if err != nil {
			return err
		}
		fmt.Fprint(out, result)
		if !strings.HasSuffix(result, "\n") {
			fmt.Fprintln(out)
		}
		return nil
	}

	if err := writePIDFile(); err != nil {
		logger.Warn("could not write PID file", zap.Error(err))
	}
	defer removePIDFile()

	go func() {
		<-cmd.Context().Done()
		logger.Info("shutting down MCP server")
		removePIDFile()
		logger.Sync()
		os.Exit(0)
	}()

	// stdout carries the MCP protocol; everything else goes to the logger.
	logger.Info("starting MCP server",
		zap.Strings("tools", server.ListTools()),
		zap.Duration("timeout", timeout))

	return server.ServeStdio()
}

// parseToolList splits a comma-separated --tools value.
func parseToolList(s string) []string {
	var tools []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tools = append(tools, t)
		}
	}
	return tools
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func getPIDFilePath() (string, error) {
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "serve.pid"), nil
}

func writePIDFile() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(pidPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return
	}
	os.Remove(pidPath)
}

// readPID returns the PID stored in the PID file, or 0 if there is none.
func readPID() (int, error) {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		removePIDFile()
		return 0, fmt.Errorf("invalid PID file %s", pidPath)
	}
	return pid, nil
}

func checkServerStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	pid, err := readPID()
	if err != nil {
		return err
	}
	if pid == 0 {
		fmt.Fprintln(out, "Status: not running")
		return nil
	}

	// On Unix, FindProcess always succeeds, so we need to send signal 0 to check
	process, err := os.FindProcess(pid)
	if err == nil {
		err = process.Signal(syscall.Signal(0))
	}
	if err != nil {
		fmt.Fprintln(out, "Status: not running (stale PID file)")
		removePIDFile()
		return nil
	}

	fmt.Fprintf(out, "Status: running (PID %d)\n", pid)
	return nil
}

func stopServer(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	pid, err := readPID()
	if err != nil {
		return err
	}
	if pid == 0 {
		fmt.Fprintln(out, "No server running")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err == nil {
		err = process.Signal(syscall.SIGTERM)
	}
	if err != nil {
		removePIDFile()
		fmt.Fprintln(out, "Server already stopped")
		return nil
	}

	fmt.Fprintf(out, "Stopped server (PID %d)\n", pid)
	return nil
}
