// Package main provides overlayctl, the headless companion to the stock overlay.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"stock-overlay/internal/config"
	"stock-overlay/internal/quote"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

var (
	configSvc  *config.Service
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "overlayctl",
	Short: "Inspect and drive the stock overlay from a terminal",
	Long: `overlayctl shares the stock overlay's configuration and quote providers.

Use it to check a quote, watch the clock and quote labels update in the
terminal, or print the effective configuration.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if globalOpts.configPath != "" {
			configSvc, err = config.NewAt(globalOpts.configPath)
		} else {
			configSvc, err = config.New()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		setupLogger(configSvc.Get())
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.stock-overlay/config.yaml)")
}

// setupLogger configures the global slog logger.
func setupLogger(cfg *config.Config) {
	level := cfg.SlogLevel()
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// newFetcher builds the configured provider chain.
func newFetcher(cfg *config.Config) (*quote.MultiProvider, error) {
	return quote.NewChain(cfg.Providers, quote.YahooOptions{
		Interval: cfg.Yahoo.Interval,
		Range:    cfg.Yahoo.Range,
		Timeout:  cfg.YahooTimeout(),
	}, cfg.Yahoo.BaseURLs)
}

func main() {
	Execute()
}
