package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/bootstrap"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/collector"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/logger"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/matching"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/spf13/cobra"
)

const defaultMatchDays = 30

func matchCmd() *cobra.Command {
	var start, end string
	var unmatchedOnly bool

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Dry-run the matching engine over stored bank transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.Init(cfg.Env)
			defer logger.Sync()

			deps, err := bootstrap.Deps(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}

			period := matching.LastDays(time.Now(), defaultMatchDays)
			if start != "" {
				period.Start = start
			}
			if end != "" {
				period.End = end
			}
			return runMatch(cmd.Context(), cmd.OutOrStdout(), deps, period, unmatchedOnly)
		},
	}

	cmd.Flags().StringVarP(&start, "start", "s", "", "first trade date (YYYYMMDD)")
	cmd.Flags().StringVarP(&end, "end", "e", "", "last trade date (YYYYMMDD)")
	cmd.Flags().BoolVar(&unmatchedOnly, "unmatched", true, "only examine transactions not yet linked")
	return cmd
}

// runMatch matches the stored deposits of period and prints the batch as JSON. Nothing is written.
func runMatch(ctx context.Context, w io.Writer, deps *handlers.Deps, period matching.Period, unmatchedOnly bool) error {
	for _, d := range []string{period.Start, period.End} {
		if _, err := time.Parse("20060102", d); err != nil {
			return fmt.Errorf("invalid date %q, want YYYYMMDD", d)
		}
	}

	db, err := deps.Factory.Open(ctx, region.Biz)
	if err != nil {
		return err
	}
	defer db.Close()

	q := storage.Select().
		Where(storage.Gte("trade_date", period.Start), storage.Lte("trade_date", period.End)).
		OrderBy("trade_date", true)
	if unmatchedOnly {
		q = q.Where(storage.Eq("is_matched", false))
	}
	rows, err := db.Select(ctx, collector.TransactionsTable, q)
	if err != nil {
		return fmt.Errorf("failed to load bank transactions: %w", err)
	}

	var txs []models.BankTransaction
	if err := storage.DecodeAll(rows, &txs); err != nil {
		return err
	}

	batch := deps.Matcher(db).Match(ctx, txs)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Period matching.Period `json:"period"`
		matching.Batch
	}{period, batch})
}
