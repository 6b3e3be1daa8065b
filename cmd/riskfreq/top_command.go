package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/riskfreq/pkg/riskfreq/internalerr"
	"github.com/cognicore/riskfreq/pkg/riskfreq/report"
)

func newTopCommand(ctx *commandContext) *cobra.Command {
	var year, limit int
	var dbPath string

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show saved rankings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.Store.Driver = "sqlite"
				cfg.Store.Path = dbPath
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Report.TopN
			}

			st, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			if st == nil {
				return fmt.Errorf("no ranking store configured")
			}
			defer st.Close()

			years := []int{year}
			if year == 0 {
				years, err = st.Years(cmd.Context())
				if err != nil {
					return err
				}
				if len(years) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No rankings saved.")
					return nil
				}
			}

			out := cmd.OutOrStdout()
			for _, y := range years {
				r, err := st.GetRanking(cmd.Context(), y, limit)
				if errors.Is(err, internalerr.ErrNotFound) {
					return fmt.Errorf("no ranking saved for %d", y)
				}
				if err != nil {
					return err
				}
				if err := report.WriteTop(out, r, limit); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Fiscal year to show (default: every saved year)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Rows per year, 0 for all (default from config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (overrides config)")
	return cmd
}
