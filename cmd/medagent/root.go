package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/medagent/internal/config"
	"github.com/kailas-cloud/medagent/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "medagent",
	Short:   "medagent answers medical questions from datasets or web search",
	Long:    `medagent routes each question either to a structured query over the heart, cancer and diabetes datasets or to a web knowledge search, and narrates the result.`,
	Version: version.String(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env", config.GetEnv(), "Config environment (local, dev, prod)")
}

// envFlag returns the --env value, falling back to ENV.
func envFlag(cmd *cobra.Command) string {
	env, err := cmd.Flags().GetString("env")
	if err != nil || env == "" {
		return config.GetEnv()
	}
	return env
}
