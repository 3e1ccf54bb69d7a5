package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import inventory items from a CSV file (local path or s3://bucket/key)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if importFile == "" {
			return errors.New("--file is required")
		}
		ctx, stop := signalContext()
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		start := time.Now()
		res, err := a.Importer.ImportFile(ctx, importFile)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), `
=== Import Report ===
Imported:   %d
Created:    %d
Updated:    %d
Skipped:    %d
Total time: %s
=====================
`, res.Imported, res.Created, res.Updated, res.Skipped, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file path (required)")
	rootCmd.AddCommand(importCmd)
}
