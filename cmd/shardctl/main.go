// Command shardctl runs a shard manager against a gateway and manages its
// status store.
//
// Usage:
//
//	shardctl run --config shardctl.toml
//	shardctl status --config shardctl.toml
//	shardctl migrate --dialect postgres --output migrations
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "shardctl",
	Short:        "Run and inspect a shard manager",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "shardctl.toml", "Path to the TOML or YAML config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
