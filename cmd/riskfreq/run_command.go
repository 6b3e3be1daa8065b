package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/cognicore/riskfreq/internal/filings"
	"github.com/cognicore/riskfreq/pkg/riskfreq"
	"github.com/cognicore/riskfreq/pkg/riskfreq/config"
	"github.com/cognicore/riskfreq/pkg/riskfreq/export"
	"github.com/cognicore/riskfreq/pkg/riskfreq/metrics"
	"github.com/cognicore/riskfreq/pkg/riskfreq/report"
	"github.com/cognicore/riskfreq/pkg/riskfreq/source"
	"github.com/cognicore/riskfreq/pkg/riskfreq/store"
)

type runFlags struct {
	filingsPath string
	dbPath      string
	csvDir      string
	top         int
	metricsPath string
	noPreview   bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, scan and rank every configured filing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg, flags); err != nil {
				return err
			}

			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			list, err := loadFilings(cfg, flags.filingsPath, logger)
			if err != nil {
				return err
			}
			return runFilings(cmd, cfg, logger, list, !flags.noPreview)
		},
	}

	cmd.Flags().StringVar(&flags.filingsPath, "filings", "", "JSONL file listing filings (overrides config)")
	cmd.Flags().StringVar(&flags.dbPath, "db", "", "SQLite database for rankings (overrides config)")
	cmd.Flags().StringVar(&flags.csvDir, "csv", "", "Directory for per-year CSV files")
	cmd.Flags().IntVar(&flags.top, "top", 0, "Rows in each preview table (default from config)")
	cmd.Flags().StringVar(&flags.metricsPath, "metrics", "", "Write run metrics to this textfile")
	cmd.Flags().BoolVar(&flags.noPreview, "no-preview", false, "Do not print per-year preview tables")
	return cmd
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config, flags runFlags) error {
	if cmd.Flags().Changed("db") {
		cfg.Store.Driver = "sqlite"
		cfg.Store.Path = flags.dbPath
	}
	if flags.csvDir != "" {
		cfg.Store.CSVDir = flags.csvDir
	}
	if flags.top > 0 {
		cfg.Report.TopN = flags.top
	}
	if flags.metricsPath != "" {
		cfg.Metrics.Textfile = flags.metricsPath
	}
	return cfg.Validate()
}

func loadFilings(cfg *config.Config, override string, logger *slog.Logger) ([]riskfreq.Filing, error) {
	var list []filings.Filing
	switch path := firstNonEmpty(override, cfg.FilingsFile); {
	case path != "":
		loaded, err := filings.LoadFromJSONL(path, logger)
		if err != nil {
			return nil, err
		}
		list = loaded
	case len(cfg.Filings) > 0:
		list = filings.FromConfig(cfg.Filings)
	default:
		return nil, fmt.Errorf("no filings configured: pass --filings or set filings in the config")
	}

	list, err := filings.AssignYears(list, cfg.FirstYear)
	if err != nil {
		return nil, err
	}
	out := make([]riskfreq.Filing, len(list))
	for i, f := range list {
		out[i] = riskfreq.Filing{Year: f.Year, Location: f.Location()}
	}
	return out, nil
}

// runFilings builds the engine from cfg, processes list and prints a summary.
func runFilings(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, list []riskfreq.Filing, preview bool) error {
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	if lockPath := outputLockPath(cfg.Store); lockPath != "" {
		lock := flock.New(lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", lockPath, err)
		}
		if !ok {
			return fmt.Errorf("another riskfreq run holds %s", lockPath)
		}
		defer lock.Unlock()
	}

	comp, err := (&config.Loader{Config: cfg, Logger: logger}).Load()
	if err != nil {
		return err
	}

	m := metrics.New()
	comp.Tokenizer.SetObserver(m)

	st, err := openStore(runCtx, cfg.Store)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	var csvSink *export.CSV
	switch {
	case cfg.Store.CSVDir != "":
		csvSink, err = export.NewCSVDir(cfg.Store.CSVDir)
	case cfg.Store.CSVFile != "":
		csvSink, err = export.NewCSVFile(cfg.Store.CSVFile)
	}
	if err != nil {
		return err
	}
	sinks := []store.Sink{}
	if st != nil {
		sinks = append(sinks, st)
	}
	if csvSink != nil {
		defer csvSink.Close()
		sinks = append(sinks, csvSink)
	}

	fetcher, closeFetcher, err := buildFetcher(runCtx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer closeFetcher()

	opts := riskfreq.Options{
		Pipeline: comp.Pipeline,
		Sink:     store.Multi(sinks...),
		Fetcher:  fetcher,
		Prefetch: cfg.Source.Concurrency,
		TopN:     cfg.Report.TopN,
		Metrics:  m,
		Logger:   logger,
	}
	if preview {
		opts.Preview = cmd.OutOrStdout()
	}

	rep, runErr := riskfreq.New(opts).Run(runCtx, list)

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Error("write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	if csvSink != nil {
		if err := csvSink.Close(); err != nil {
			return fmt.Errorf("close csv export: %w", err)
		}
	}

	rankings := make([]store.Ranking, len(rep.Results))
	for i, r := range rep.Results {
		rankings[i] = r.Ranking()
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.Summary(rankings))

	if len(rep.Failed) > 0 {
		years := make([]string, len(rep.Failed))
		for i, f := range rep.Failed {
			years[i] = fmt.Sprint(f.Year)
		}
		return fmt.Errorf("%d filing(s) could not be fetched: years %s", len(rep.Failed), strings.Join(years, ", "))
	}
	return nil
}

// outputLockPath names the lock guarding the run's primary output.
func outputLockPath(cfg config.StoreConfig) string {
	switch {
	case cfg.Driver == "sqlite" && cfg.Path != "":
		return cfg.Path + ".lock"
	case cfg.CSVDir != "":
		return strings.TrimRight(cfg.CSVDir, "/") + ".lock"
	case cfg.CSVFile != "":
		return cfg.CSVFile + ".lock"
	}
	return ""
}

// buildFetcher chains the HTTP fetcher with the configured caches. Redis
// sits in front of the disk cache; local paths bypass both.
func buildFetcher(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (source.Fetcher, func(), error) {
	var remote source.Fetcher = source.NewHTTPFetcher(source.HTTPOptions{
		Timeout:   cfg.Timeout.Std(),
		UserAgent: cfg.UserAgent,
		Retry:     source.RetryConfig{MaxAttempts: cfg.Retries + 1},
		Logger:    logger,
	})
	closer := func() {}

	if cfg.CacheDir != "" {
		disk, err := source.NewDiskCache(cfg.CacheDir, remote, logger)
		if err != nil {
			return nil, nil, err
		}
		remote = disk
	}
	if cfg.RedisAddr != "" {
		rc, err := source.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisTTL.Std(), remote, logger)
		if err != nil {
			logger.Warn("redis cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			remote = rc
			closer = func() { rc.Close() }
		}
	}
	return source.Router{Remote: remote, Local: source.FileFetcher{}}, closer, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
