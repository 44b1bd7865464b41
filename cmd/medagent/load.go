package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/dataset"
	"github.com/kailas-cloud/medagent/internal/domain"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the CSV datasets into sqlite",
	Long:  `Load reads each configured dataset's CSV source and replaces its sqlite table.`,
	RunE:  runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().String("dir", ".", "Directory containing the CSV sources")
}

func runLoad(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := newLogged(envFlag(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	dir, _ := cmd.Flags().GetString("dir")
	loader := dataset.NewLoader(logger)

	for _, d := range domain.Domains() {
		ds, ok := cfg.Datasets.Store(d.String())
		if !ok || ds.Source == "" {
			logger.Warn("No source configured, skipping", zap.String("domain", d.String()))
			continue
		}
		stats, err := loader.Load(cmd.Context(), dataset.Source{
			CSVPath: filepath.Join(dir, ds.Source),
			DBPath:  ds.Path,
			Table:   ds.Table,
		})
		if err != nil {
			return fmt.Errorf("loading %s: %w", d, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s: %d rows, %d columns)\n",
			ds.Path, stats.Table, stats.Rows, len(stats.Columns))
	}
	return nil
}
