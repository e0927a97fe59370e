package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/ikoma-events/internal/config"
	"github.com/pfrederiksen/ikoma-events/internal/event"
	"github.com/pfrederiksen/ikoma-events/internal/export"
	"github.com/pfrederiksen/ikoma-events/internal/filter"
	"github.com/pfrederiksen/ikoma-events/internal/logger"
	"github.com/pfrederiksen/ikoma-events/internal/metrics"
	"github.com/pfrederiksen/ikoma-events/internal/scraper"
	"github.com/pfrederiksen/ikoma-events/internal/storage"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

// errNewRecords signals ExitNewEvents when --exit-new is set
var errNewRecords = errors.New("new events found")

// errCancelled is returned after a partial run has been written
var errCancelled = errors.New("crawl cancelled")

const monthLayout = "2006-01"

var (
	flagConfig      string
	flagStart       string
	flagMonths      int
	flagMaxPages    int
	flagWorkers     int
	flagInterval    time.Duration
	flagTimeout     time.Duration
	flagOutput      string
	flagFormat      string
	flagDataDir     string
	flagMetricsFile string
	flagSort        string
	flagFrom        string
	flagTo          string
	flagKeywords    []string
	flagVenues      []string
	flagWeekends    bool
	flagSummary     string
	flagVerbose     bool
	flagLogFormat   string
	flagExitNew     bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ikoma-events",
		Short: "Crawl the Ikoma city event calendar into a table",
		Long: `A CLI tool to crawl the Ikoma city event calendar.
Walks the listing month by month, enriches every event from its detail page
and writes one row per event date. Tracks records across runs and reports
the ones that are new since the last crawl.`,
		RunE:          runCrawl,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "YAML configuration file")
	pf.StringVar(&flagStart, "start", "", "First month to crawl as YYYY-MM (default: current month)")
	pf.IntVar(&flagMonths, "months", scraper.DefaultMonths, "Number of months to crawl")

	f := cmd.Flags()
	f.IntVar(&flagMaxPages, "max-pages", scraper.MaxPages, "Maximum listing pages per month")
	f.IntVar(&flagWorkers, "workers", scraper.DefaultWorkers, "Concurrent detail page fetches")
	f.DurationVar(&flagInterval, "interval", scraper.DefaultInterval, "Minimum delay between requests (0 disables)")
	f.DurationVar(&flagTimeout, "timeout", 0, "Deadline for the whole crawl (0 means none)")
	f.StringVar(&flagOutput, "output", export.DefaultPath, "Output file")
	f.StringVar(&flagFormat, "format", "", "Output format: csv, json, ics or sqlite (default: from extension)")
	f.StringVar(&flagDataDir, "data-dir", storage.DefaultDataDir, "Data directory for snapshots")
	f.StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	f.StringVar(&flagSort, "sort", string(SortNone), "Sort order: none, date or title")
	f.StringVar(&flagFrom, "from", "", "Only events on or after this date (YYYY-MM-DD or YYYY-MM)")
	f.StringVar(&flagTo, "to", "", "Only events on or before this date (YYYY-MM-DD or YYYY-MM)")
	f.StringSliceVar(&flagKeywords, "keyword", nil, "Only events whose title contains one of these")
	f.StringSliceVar(&flagVenues, "venue", nil, "Only events whose venue contains one of these")
	f.BoolVar(&flagWeekends, "weekends", false, "Only events on Saturday or Sunday")
	f.StringVar(&flagSummary, "summary", string(FormatText), "Summary format: text or json")
	f.BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	f.StringVar(&flagLogFormat, "log-format", "", "Log format: json or text")
	f.BoolVar(&flagExitNew, "exit-new", false, "Exit with status 2 when new events were found")

	cmd.AddCommand(newMonthsCmd())

	return cmd
}

func newMonthsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "Print the months the crawl would visit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			start, err := parseStart(flagStart)
			if err != nil {
				return err
			}
			crawlCfg := cfg.Crawler()
			crawlCfg.Start = start
			crawler, err := scraper.New(crawlCfg, scraper.NewClient(cfg.Client()), logger.Discard(), nil)
			if err != nil {
				return fmt.Errorf("initializing crawler: %w", err)
			}
			for _, t := range crawler.Targets() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tmon=%s\n", t, t.Param())
			}
			return nil
		},
	}
}

// loadConfig reads the config file and applies the flags that were set
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("months") {
		cfg.Months = flagMonths
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = flagMaxPages
	}
	if flags.Changed("workers") {
		cfg.Workers = flagWorkers
	}
	if flags.Changed("interval") {
		cfg.HTTP.Interval = flagInterval
	}
	if flags.Changed("output") {
		cfg.Output.Path = flagOutput
	}
	if flags.Changed("format") {
		cfg.Output.Format = flagFormat
	}
	if flags.Changed("data-dir") {
		cfg.Output.DataDir = flagDataDir
	}
	if flags.Changed("metrics-file") {
		cfg.Output.MetricsFile = flagMetricsFile
	}
	if flags.Changed("sort") {
		cfg.Output.Sort = flagSort
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = flagLogFormat
	}
	if flagVerbose {
		cfg.Log.Level = string(logger.LevelDebug)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func parseStart(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(monthLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --start %q (want YYYY-MM): %w", s, err)
	}
	return t, nil
}

func buildFilter() (*filter.Filter, error) {
	f := filter.NewFilter()
	from, to, err := filter.ParseRange(flagFrom, flagTo)
	if err != nil {
		return nil, err
	}
	f.DateFrom = from
	f.DateTo = to
	f.WeekendsOnly = flagWeekends
	f.Keywords = append(f.Keywords, flagKeywords...)
	f.Venues = append(f.Venues, flagVenues...)
	return f, nil
}

// runCrawl is the main command logic
func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	summaryFormat := OutputFormat(strings.ToLower(flagSummary))
	if summaryFormat != FormatText && summaryFormat != FormatJSON {
		return fmt.Errorf("invalid summary format: %s (must be 'text' or 'json')", flagSummary)
	}

	start, err := parseStart(flagStart)
	if err != nil {
		return err
	}

	recordFilter, err := buildFilter()
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	order, err := ParseSortOrder(cfg.Output.Sort)
	if err != nil {
		return err
	}

	explicit, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	outputFormat := export.DetectFormat(cfg.Output.Path, explicit)

	// Errors were checked by Validate
	level, _ := logger.ParseLevel(cfg.Log.Level)
	logFormat, _ := logger.ParseFormat(cfg.Log.Format)
	log := logger.NewWithFormat(level, logFormat, cmd.ErrOrStderr())
	logger.SetDefault(log)

	store, err := storage.New(cfg.Output.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if flagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagTimeout)
		defer cancel()
	}

	m := metrics.New()
	crawlCfg := cfg.Crawler()
	crawlCfg.Start = start
	crawler, err := scraper.New(crawlCfg, scraper.NewClient(cfg.Client()), log, m)
	if err != nil {
		return fmt.Errorf("initializing crawler: %w", err)
	}

	log.Debug("Configuration loaded", logger.Fields{
		"config":   flagConfig,
		"list_url": cfg.ListURL,
		"months":   cfg.Months,
		"output":   cfg.Output.Path,
		"format":   string(outputFormat),
	})

	res := crawler.Run(ctx)

	// Load previous snapshot
	previous, err := store.LoadSnapshot()
	if err != nil {
		log.Warn("Ignoring unreadable snapshot", logger.Fields{"path": store.Path()}, err)
		previous = event.NewSnapshot()
	}
	diff := event.Diff(previous, res.Records)

	records := recordFilter.Apply(res.Records)
	sortRecords(records, order)

	summary := newSummary(res)
	summary.NewRecords = diff.NewRecords
	summary.NewCount = len(diff.NewRecords)
	if !recordFilter.IsEmpty() {
		summary.Filter = recordFilter.String()
	}

	var writeErr error
	if len(records) == 0 {
		log.Warn("No events to write", logger.Fields{
			"collected": len(res.Records),
			"output":    cfg.Output.Path,
		}, nil)
	} else {
		// Partial results are still written after cancellation
		writeErr = export.WriteFile(context.WithoutCancel(ctx), cfg.Output.Path, outputFormat, records, time.Now())
		summary.Output = cfg.Output.Path
		summary.Format = string(outputFormat)
		if writeErr != nil {
			summary.Error = writeErr.Error()
			log.Error("Writing output failed", logger.Fields{"output": cfg.Output.Path}, writeErr)
		} else {
			summary.Written = len(records)
			log.Info("Output written", logger.Fields{
				"output":  cfg.Output.Path,
				"format":  string(outputFormat),
				"records": len(records),
			})
		}
	}

	if err := WriteSummary(cmd.OutOrStdout(), summary, summaryFormat, flagVerbose); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	if writeErr == nil && !res.Cancelled {
		if err := store.SaveRecords(res.RunID, res.Records); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		if len(res.Failed()) == 0 {
			m.MarkSuccess(res.FinishedAt)
		}
	}

	if cfg.Output.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			log.Warn("Writing metrics failed", logger.Fields{"path": cfg.Output.MetricsFile}, err)
		}
	}

	switch {
	case writeErr != nil:
		return fmt.Errorf("writing output: %w", writeErr)
	case res.Cancelled:
		return errCancelled
	case flagExitNew && len(diff.NewRecords) > 0:
		return errNewRecords
	}
	return nil
}

// exitCode maps an error returned by the root command to a process status
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errNewRecords):
		return ExitNewEvents
	default:
		return ExitError
	}
}

// Execute runs the CLI until it finishes or is interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	code := exitCode(err)
	if code == ExitError {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
