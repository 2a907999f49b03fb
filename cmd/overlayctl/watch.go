package main

import (
	"github.com/spf13/cobra"

	"stock-overlay/internal/cache"
	"stock-overlay/internal/overlay"
	"stock-overlay/internal/refresh"
	"stock-overlay/internal/tui"
)

var watchOpts struct {
	symbol string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the clock and quote labels in the terminal",
	Long: `Run the overlay's refresh loop and render its clock and quote labels in
the terminal. The clock ticks every second; the quote refreshes on the
configured period.

Key bindings:
  ?           Toggle help
  q, ctrl+c   Quit`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOpts.symbol, "symbol", "s", "",
		"Symbol to watch (default: the configured symbol)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := configSvc.Get()
	if watchOpts.symbol != "" {
		cfg.Symbol = watchOpts.symbol
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}

	updates := make(chan overlay.DisplayInfo, 1)
	quotes := cache.New(cfg.Cache.MaxSize, cfg.CacheMaxAge())
	driver, err := refresh.NewFromConfig(cfg, fetcher, quotes, tui.Publisher(updates), logger)
	if err != nil {
		return err
	}

	logger.Debug("starting watch", "symbol", driver.Symbol(), "providers", fetcher.Name())
	driver.Init(cmd.Context())
	return tui.Run(cmd.Context(), driver, updates)
}
