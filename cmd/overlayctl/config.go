package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stock-overlay/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration the overlay would run with, after environment
overrides, as YAML. The first line names the file it was loaded from.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	data, err := config.Marshal(configSvc.Get(), "effective.yaml")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", configSvc.Path())
	_, err = out.Write(data)
	return err
}
