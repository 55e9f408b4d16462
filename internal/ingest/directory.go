package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/receipt-processor/constants"
)

// IngestDirectory walks root, skips hidden entries if requested, and calls
// IngestPath for each receipt file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	w := &dirWalk{ingestor: i, root: root, skipHidden: skipHidden}
	if err := filepath.WalkDir(root, w.visit(ctx)); err != nil {
		return w.results, w.stats, fmt.Errorf("walk: %w", err)
	}
	stats := w.stats
	i.logger.Info("directory ingest completed",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"invalid", stats.Invalid,
		"failed", stats.Failed,
		"walk_errors", stats.WalkErrors,
	)
	return w.results, stats, nil
}

type dirWalk struct {
	ingestor   *FSIngestor
	root       string
	skipHidden bool
	results    []IngestionResult
	stats      DirStats
}

func (w *dirWalk) visit(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.stats.Scanned++
		if walkErr != nil {
			if path == w.root {
				return walkErr
			}
			// Unreadable entries were never matched, so they stay out of the
			// per-file buckets.
			w.results = append(w.results, IngestionResult{SourcePath: path, Status: constants.IngestFailed, Err: walkErr.Error()})
			w.stats.WalkErrors++
			return nil
		}
		if w.skipHidden && path != w.root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		w.stats.Matched++

		r, _ := w.ingestor.IngestPath(ctx, path)
		w.results = append(w.results, r)
		switch r.Status {
		case constants.IngestAccepted:
			w.stats.Succeeded++
		case constants.IngestDuplicate:
			w.stats.Deduplicated++
		case constants.IngestInvalid:
			w.stats.Invalid++
		default:
			w.stats.Failed++
		}
		return nil
	}
}
