package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"stock-overlay/internal/quote"
)

var quoteCmd = &cobra.Command{
	Use:   "quote [symbol]",
	Short: "Fetch one quote through the configured providers",
	Long: `Fetch the latest close for symbol (default: the configured symbol) and
print it the way the overlay shows it, e.g. "0700.HK close: 383.2".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg := configSvc.Get()
	symbol := cfg.Symbol
	if len(args) == 1 {
		symbol = args[0]
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.FetchTimeout())
	defer cancel()

	q, err := fetcher.Fetch(ctx, symbol)
	if err != nil {
		return fmt.Errorf("%s: %w", quote.KindOf(err), err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, q.Format())
	if globalOpts.verbose {
		fmt.Fprintf(out, "source: %s, currency: %s, as of %s\n",
			q.Source, q.Currency, humanize.Time(q.At))
	}
	return nil
}
