package main

import (
	"github.com/spf13/cobra"

	"github.com/cognicore/riskfreq/internal/filings"
	"github.com/cognicore/riskfreq/pkg/riskfreq"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var year int
	var dbPath string
	var csvDir string

	cmd := &cobra.Command{
		Use:   "scan <file>...",
		Short: "Rank local text or HTML filings",
		Long: "Scan local files in the order given. The first file gets --year " +
			"(default first_year from the config) and each later file the next year. " +
			"Nothing is persisted unless --db or --csv is set.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg.Store.Driver = "none"
			if dbPath != "" {
				cfg.Store.Driver = "sqlite"
				cfg.Store.Path = dbPath
			}
			cfg.Store.CSVDir = csvDir
			cfg.Store.CSVFile = ""
			cfg.Source.CacheDir = ""
			cfg.Source.RedisAddr = ""
			if year > 0 {
				cfg.FirstYear = year
			}

			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			list := make([]filings.Filing, len(args))
			for i, path := range args {
				list[i] = filings.Filing{Path: path}
			}
			list, err = filings.AssignYears(list, cfg.FirstYear)
			if err != nil {
				return err
			}
			docs := make([]riskfreq.Filing, len(list))
			for i, f := range list {
				docs[i] = riskfreq.Filing{Year: f.Year, Location: f.Location()}
			}
			return runFilings(cmd, cfg, logger, docs, true)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Fiscal year of the first file")
	cmd.Flags().StringVar(&dbPath, "db", "", "Also save rankings to this SQLite database")
	cmd.Flags().StringVar(&csvDir, "csv", "", "Also write per-year CSV files to this directory")
	return cmd
}
