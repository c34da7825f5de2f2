package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/arborist/internal/config"
	"github.com/kailas-cloud/arborist/internal/version"
)

var (
	configPath string
	envName    string
)

var rootCmd = &cobra.Command{
	Use:           "arborist",
	Short:         "Natural-language queries over the street tree census",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var queryCmd = &cobra.Command{
	Use:   "query <prompt>",
	Short: "Answer one prompt and print the GeoJSON result",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (overrides --env)")
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", config.GetEnv(), "environment name, selects config/<env>.yaml")

	queryCmd.Flags().Int("limit", 0, "lower the configured feature cap")
	queryCmd.Flags().Bool("explain", false, "include criteria and provenance")

	rootCmd.AddCommand(serveCmd, queryCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load(envName)
}
