package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/rxtech-lab/equity-trader/internal/config"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// researchAction fetches the enrichment data the engine would load at startup
// and prints it per candidate.
func researchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	statisticsProvider, ratingsProvider, closeResearch, err := newResearchProviders(cfg, log)
	if err != nil {
		return err
	}
	defer closeResearch()

	tickers := cfg.Tickers()
	out := output(cmd)

	statistics := make(map[string]types.Statistics, len(tickers))
	failures := make(map[string]error)

	if statisticsProvider != nil {
		bar := progressbar.NewOptions(len(tickers),
			progressbar.OptionSetDescription("Fetching statistics"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(errOutput(cmd)),
		)

		for _, ticker := range tickers {
			stats, err := statisticsProvider.Fetch(ctx, ticker)
			if err != nil {
				failures[ticker] = err
			} else {
				statistics[ticker] = stats
			}

			_ = bar.Add(1)
		}

		_ = bar.Finish()
		fmt.Fprintln(errOutput(cmd))
	}

	ratings := map[string]float64{}

	if ratingsProvider != nil {
		ratings, err = ratingsProvider.Fetch(ctx, tickers)
		if err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tAVG DROP %\tAVG SPREAD %\tRATING")

	for _, ticker := range tickers {
		drop, spread := "-", "-"
		if stats, ok := statistics[ticker]; ok {
			drop = fmt.Sprintf("%.2f", stats.AvgDropPct)
			spread = fmt.Sprintf("%.2f", stats.AvgSpreadPct)
		}

		rating := "-"
		if r, ok := ratings[ticker]; ok {
			rating = fmt.Sprintf("%.1f", r)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ticker, drop, spread, rating)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	for _, ticker := range tickers {
		if err, ok := failures[ticker]; ok {
			fmt.Fprintf(out, "%s: %v\n", ticker, err)
		}
	}

	return nil
}
