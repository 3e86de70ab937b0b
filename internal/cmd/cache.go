package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thozza/reportist/internal/output"
)

// cacheCmd groups the snapshot cache maintenance commands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local snapshot cache",
	Long: `Inspect or clear the local snapshot cache.

Runs with --cache store the fetched project tree and completed tasks in
reportist.db under the cache directory (cache_dir in the config file, or the
user cache directory). Runs with --offline report from that snapshot.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the cache holds",
	Example: `  reportist cache stats
  reportist cache stats --format json`,
	Args: cobra.NoArgs,
	RunE: runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached projects and tasks",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// CacheStatsOutput is the structured form of cache stats.
type CacheStatsOutput struct {
	Path            string `yaml:"path" json:"path"`
	Projects        int64  `yaml:"projects" json:"projects"`
	CompletedTasks  int64  `yaml:"completed_tasks" json:"completed_tasks"`
	FetchedProjects int64  `yaml:"fetched_projects" json:"fetched_projects"`
	ProjectsSynced  string `yaml:"projects_synced,omitempty" json:"projects_synced,omitempty"`
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	c, err := openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.GetStats()
	if err != nil {
		return err
	}

	out := CacheStatsOutput{
		Path:            c.Path(),
		Projects:        stats.Projects,
		CompletedTasks:  stats.CompletedTasks,
		FetchedProjects: stats.FetchedProjects,
		ProjectsSynced:  stats.ProjectsSynced,
	}

	w := cmd.OutOrStdout()
	if format.IsStructured() {
		formatter, err := output.GetFormatter(format)
		if err != nil {
			return err
		}
		return formatter.FormatToWriter(w, out)
	}

	synced := out.ProjectsSynced
	if synced == "" {
		synced = "never"
	}
	fmt.Fprintf(w, "Cache:            %s\n", out.Path)
	fmt.Fprintf(w, "Projects:         %d (synced %s)\n", out.Projects, synced)
	fmt.Fprintf(w, "Completed tasks:  %d in %d projects\n", out.CompletedTasks, out.FetchedProjects)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", c.Path())
	return nil
}
