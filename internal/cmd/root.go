// Package cmd contains all CLI commands for reportist.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/thozza/reportist/internal/logging"
	"github.com/thozza/reportist/internal/output"
)

var (
	// Version is the current version of reportist
	Version = "0.1.0"

	// Global flags
	debug         bool
	apiKey        string
	storeAPIKey   bool
	configPath    string
	apiURL        string
	useCache      bool
	offline       bool
	outputFormat  string
	outputDensity string
	forAgents     bool

	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands.
// Without a subcommand it prints the completed-tasks report.
var rootCmd = &cobra.Command{
	Use:   "reportist",
	Short: "Report tasks completed in Todoist",
	Long: `reportist lists the tasks you completed in Todoist during a week or a month.

Each completed task is printed with its completion time and the full path of
the project it belongs to. A report can be limited to one project; its
subprojects are included unless --no-subprojects is given.

The Todoist API key is read from ~/.reportist.yaml (key APIKEY). Pass it once
with --apikey --store-apikey to save it there.

Output Format:
  Plain text by default. Use --format yaml|json for a structured document
  and --density sparse|medium|dense to control its detail.

Examples:
  reportist                          # Tasks completed this week
  reportist -r month                 # Tasks completed this month
  reportist -p Work -w 9 -y 2024     # Work (and subprojects), week 9 of 2024
  reportist -p Work --no-subprojects # Only the Work project itself
  reportist --offline -r month       # Report from the local cache`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(debug)
		return nil
	},
	RunE: runReport,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
//
// SIGINT and SIGTERM cancel the run; an interrupted run exits 0.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	code := exitCode(ctx, err, logger, os.Stderr)
	logger.Sync()
	if code != 0 {
		os.Exit(code)
	}
}

// exitCode reports the outcome of a run. An interrupted run logs the
// interrupt and exits 0; any other error is printed to stderr and exits 1.
func exitCode(ctx context.Context, err error, log *zap.Logger, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		log.Info("Application interrupted by the user.")
		return 0
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Turn on debug logging")
	rootCmd.PersistentFlags().StringVarP(&apiKey, "apikey", "k", "", "Todoist API key (default: APIKEY from the config file)")
	rootCmd.PersistentFlags().BoolVar(&storeAPIKey, "store-apikey", false, "Store the key given with --apikey in the config file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.reportist.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Todoist Sync API base URL")
	rootCmd.PersistentFlags().BoolVar(&useCache, "cache", false, "Store fetched projects and tasks in the local cache")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Read projects and tasks from the local cache only")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", string(output.DefaultFormat), "Output format (text|yaml|json)")
	rootCmd.PersistentFlags().StringVar(&outputDensity, "density", string(output.DefaultDensity), "Structured output density (sparse|medium|dense)")
	rootCmd.PersistentFlags().MarkHidden("api-url")
	rootCmd.Flags().BoolVar(&forAgents, "for-agents", false, "Output machine-readable capability discovery JSON")

	registerReportFlags(rootCmd.Flags())

	// Set custom help function to intercept --for-agents flag
	originalHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if forAgents {
			outputAgentHelp(cmd)
			return
		}
		originalHelp(cmd, args)
	})
}

// CommandInfo represents a command for agent discovery
type CommandInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Usage       string        `json:"usage"`
	Flags       []FlagInfo    `json:"flags,omitempty"`
	Subcommands []CommandInfo `json:"subcommands,omitempty"`
	Examples    []string      `json:"examples,omitempty"`
}

// FlagInfo represents a command flag for agent discovery
type FlagInfo struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
}

func outputAgentHelp(cmd *cobra.Command) {
	root := buildCommandInfo(cmd.Root())

	doc := map[string]interface{}{
		"version":  Version,
		"report":   root,
		"commands": root.Subcommands,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(doc)
}

// buildCommandInfo recursively builds command information for agent discovery.
func buildCommandInfo(cmd *cobra.Command) CommandInfo {
	info := CommandInfo{
		Name:        cmd.Name(),
		Description: cmd.Short,
		Usage:       cmd.UseLine(),
	}

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		info.Flags = append(info.Flags, FlagInfo{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Description: f.Usage,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
		})
	})

	for _, sub := range cmd.Commands() {
		if !sub.Hidden && sub.Name() != "help" && sub.Name() != "completion" {
			info.Subcommands = append(info.Subcommands, buildCommandInfo(sub))
		}
	}

	if cmd.Example != "" {
		for _, line := range strings.Split(cmd.Example, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				info.Examples = append(info.Examples, trimmed)
			}
		}
	}

	return info
}
