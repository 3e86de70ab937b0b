package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/thozza/reportist/internal/cache"
	"github.com/thozza/reportist/internal/config"
	"github.com/thozza/reportist/internal/output"
	"github.com/thozza/reportist/internal/report"
	"github.com/thozza/reportist/internal/todoist"
)

// Report flags
var (
	reportProject  string
	noSubprojects  bool
	reportWeek     int
	reportMonth    int
	reportYear     int
	reportKindFlag = kindValue(report.KindWeek)

	// now is replaced in tests.
	now = time.Now
)

// kindValue is a pflag.Value accepting only the known report kinds.
type kindValue report.Kind

func (k *kindValue) String() string { return string(*k) }

func (k *kindValue) Set(s string) error {
	kind, err := report.ParseKind(s)
	if err != nil {
		return err
	}
	*k = kindValue(kind)
	return nil
}

func (k *kindValue) Type() string { return "week|month" }

func registerReportFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&reportProject, "project", "p", "", "Report only on the first project whose name contains this string")
	fs.BoolVar(&noSubprojects, "no-subprojects", false, "Do not include subprojects of the selected project")
	fs.IntVarP(&reportWeek, "week", "w", 0, "Week number to report on, Monday first (default: current week)")
	fs.IntVarP(&reportMonth, "month", "m", 0, "Month number to report on (default: current month)")
	fs.IntVarP(&reportYear, "year", "y", 0, "Year to report on (default: current year)")
	fs.VarP(&reportKindFlag, "report", "r", "Kind of report")
}

// requestFromFlags builds the report request. Flags left unset select the
// current period; explicitly given values are validated as-is.
func requestFromFlags(cmd *cobra.Command) (report.Request, error) {
	req := report.DefaultRequest()
	req.Project = reportProject
	req.Subprojects = !noSubprojects
	req.Kind = report.Kind(reportKindFlag)

	flags := cmd.Flags()
	if flags.Changed("week") {
		if reportWeek < 0 {
			return req, fmt.Errorf("%w: %d", report.ErrInvalidWeek, reportWeek)
		}
		req.Week = reportWeek
	}
	if flags.Changed("month") {
		if reportMonth < 1 {
			return req, fmt.Errorf("%w: %d", report.ErrInvalidMonth, reportMonth)
		}
		req.Month = reportMonth
	}
	if flags.Changed("year") {
		if reportYear < 1 {
			return req, fmt.Errorf("%w: %d", report.ErrInvalidYear, reportYear)
		}
		req.Year = reportYear
	}
	return req, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}

	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	density, err := output.ParseDensity(outputDensity)
	if err != nil {
		return err
	}

	// Reject a bad window before the credential or the network is touched.
	window := report.NewWindow(now())
	if _, err := window.Range(req); err != nil {
		return err
	}

	source, closeSource, err := openSource()
	if err != nil {
		return err
	}
	defer closeSource()

	ctx := cmd.Context()
	engine, err := report.NewEngine(ctx, source, logger)
	if err != nil {
		return err
	}

	res, err := report.Generate(ctx, engine, req, window)
	if err != nil {
		return err
	}

	return output.WriteReport(cmd.OutOrStdout(), res, format, density)
}

// resolveConfigPath returns --config or the default config file path.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// cacheDir returns the cache directory from the config file or the default.
func cacheDir() (string, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return "", err
	}
	return cfg.CacheDirOrDefault()
}

// openCache opens the snapshot cache in the configured directory.
func openCache() (*cache.Cache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return cache.Open(dir)
}

// openSource builds the data source selected by the global flags: the
// Todoist API, optionally written through to the cache, or the cache alone
// with --offline. The returned func releases the cache.
func openSource() (report.Source, func(), error) {
	noop := func() {}

	if offline {
		c, err := openCache()
		if err != nil {
			return nil, noop, err
		}
		logger.Debug("reading from cache", zap.String("path", c.Path()))
		return cache.NewSource(c, nil, logger), func() { c.Close() }, nil
	}

	path, err := resolveConfigPath()
	if err != nil {
		return nil, noop, err
	}
	key, err := config.ResolveAPIKey(path, apiKey, storeAPIKey)
	if err != nil {
		return nil, noop, err
	}

	opts := []todoist.Option{todoist.WithLogger(logger)}
	if apiURL != "" {
		opts = append(opts, todoist.WithBaseURL(apiURL))
	}
	client := todoist.NewClient(key, opts...)

	if !useCache {
		return client, noop, nil
	}

	c, err := openCache()
	if err != nil {
		return nil, noop, err
	}
	return cache.NewSource(c, client, logger), func() { c.Close() }, nil
}
