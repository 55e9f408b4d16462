package ingest

import (
	"context"
	"time"

	"github.com/joseph-ayodele/receipt-processor/constants"
	"github.com/joseph-ayodele/receipt-processor/internal/entity"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath  string                 `json:"sourcePath"`
	Status      constants.IngestStatus `json:"status"`
	ReceiptID   string                 `json:"receiptId,omitempty"`
	DuplicateOf string                 `json:"duplicateOf,omitempty"`
	Points      int                    `json:"points"`
	HashHex     string                 `json:"sha256,omitempty"`
	FileExt     string                 `json:"fileExt,omitempty"`
	ProcessedAt time.Time              `json:"processedAt"`
	Err         string                 `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest. Every matched file lands in exactly
// one of Succeeded, Deduplicated, Invalid or Failed. Entries the walk could not
// read are counted in WalkErrors only.
type DirStats struct {
	Scanned      uint32 `json:"scanned"`
	Matched      uint32 `json:"matched"`
	Succeeded    uint32 `json:"succeeded"`
	Deduplicated uint32 `json:"deduplicated"`
	Invalid      uint32 `json:"invalid"`
	Failed       uint32 `json:"failed"`
	WalkErrors   uint32 `json:"walkErrors"`
}

// ReceiptProcessor accepts a JSON receipt payload.
type ReceiptProcessor interface {
	Process(ctx context.Context, payload []byte) (*entity.ScoredReceipt, error)
}

// Ingestor is the behavior the watcher queue and the CLI depend on.
type Ingestor interface {
	// IngestPath ingests a single receipt file.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestDirectory ingests all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
