package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
	"github.com/joseph-ayodele/receipt-processor/internal/export"
	"github.com/joseph-ayodele/receipt-processor/internal/ingest"
	"github.com/joseph-ayodele/receipt-processor/internal/receipts"
	"github.com/joseph-ayodele/receipt-processor/internal/repository"
)

type batchOptions struct {
	dir           string
	out           string
	includeHidden bool
	jsonOutput    bool
}

type batchReport struct {
	Stats   ingest.DirStats          `json:"stats"`
	Results []ingest.IngestionResult `json:"results"`
	Output  string                   `json:"output"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score every receipt file in a directory and export an XLSX",
		Long: `Ingest all .json, .yaml and .yml receipts under --dir into an
in-process store, then write the spreadsheet export.

Duplicates and invalid files are reported, not fatal.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory to read receipts from (required)")
	cmd.Flags().StringVar(&opts.out, "out", "", "output XLSX path (defaults to receipts.xlsx next to --dir)")
	cmd.Flags().BoolVar(&opts.includeHidden, "include-hidden", false, "also read dot files and dot directories")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func runBatch(cmd *cobra.Command, rootOpts *RootOptions, opts *batchOptions) error {
	level := rootOpts.LogLevel
	if level == "" {
		level = "warn"
	}
	logger := common.NewLogger(cmd.ErrOrStderr(), level, false)
	ctx := cmd.Context()

	out := opts.out
	if out == "" {
		out = filepath.Join(filepath.Dir(filepath.Clean(opts.dir)), "receipts.xlsx")
	}

	svc, err := receipts.NewService(repository.NewMemoryRepository(logger), logger)
	if err != nil {
		return err
	}
	results, stats, err := ingest.NewFSIngestor(svc, logger).IngestDirectory(ctx, opts.dir, !opts.includeHidden)
	if err != nil {
		return err
	}

	xlsx, err := export.NewService(svc, logger).ExportXLSX(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, xlsx, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	w := cmd.OutOrStdout()
	if opts.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(batchReport{Stats: stats, Results: results, Output: out})
	}

	for _, r := range results {
		detail := r.Err
		if r.ReceiptID != "" {
			detail = fmt.Sprintf("%d points", r.Points)
		}
		fmt.Fprintf(w, "%-9s %s  %s\n", r.Status, r.SourcePath, detail)
	}
	fmt.Fprintf(w, "scanned=%d matched=%d accepted=%d duplicate=%d invalid=%d failed=%d walk_errors=%d\n",
		stats.Scanned, stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Invalid, stats.Failed, stats.WalkErrors)
	fmt.Fprintf(w, "wrote %s\n", out)
	return nil
}
