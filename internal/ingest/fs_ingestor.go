package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/receipt-processor/constants"
	"github.com/joseph-ayodele/receipt-processor/internal/common"
)

// FSIngestor reads receipt files from the local filesystem and submits them
// to the receipt service.
type FSIngestor struct {
	receipts ReceiptProcessor
	logger   *slog.Logger
	now      func() time.Time
}

var _ Ingestor = (*FSIngestor)(nil)

func NewFSIngestor(receipts ReceiptProcessor, logger *slog.Logger) *FSIngestor {
	return &FSIngestor{
		receipts: receipts,
		logger:   logger,
		now:      time.Now,
	}
}

// IngestPath submits one file. Rejected and duplicate receipts are reported
// through the result's Status; the error is non-nil only for FAILED files.
func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path, Status: constants.IngestFailed}

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return i.fail(out, err)
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	out.FileExt = ext
	format, ok := constants.FormatForExt(ext)
	if !ok {
		i.logger.Warn("unsupported or missing extension", "path", abs, "ext", ext)
		return i.fail(out, fmt.Errorf("unsupported or missing extension %q", ext))
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		i.logger.Error("read error", "path", abs, "error", err)
		return i.fail(out, err)
	}
	sum := sha256.Sum256(raw)
	out.HashHex = hex.EncodeToString(sum[:])

	payload, err := toJSONPayload(format, raw)
	if err != nil {
		out.Status = constants.IngestInvalid
		out.Err = err.Error()
		out.ProcessedAt = i.now().UTC()
		i.logger.Info("receipt file rejected", "path", abs, "error", err)
		return out, nil
	}

	rec, err := i.receipts.Process(ctx, payload)
	out.ProcessedAt = i.now().UTC()
	if err != nil {
		var dup *common.DuplicateError
		switch {
		case errors.As(err, &dup):
			out.Status = constants.IngestDuplicate
			out.DuplicateOf = dup.ExistingID
			out.Err = err.Error()
			return out, nil
		case errors.Is(err, common.ErrValidation):
			out.Status = constants.IngestInvalid
			out.Err = err.Error()
			return out, nil
		default:
			i.logger.Error("receipt file processing failed", "path", abs, "error", err)
			return i.fail(out, err)
		}
	}

	out.Status = constants.IngestAccepted
	out.ReceiptID = rec.ID.String()
	out.Points = rec.Points
	i.logger.Info("receipt file ingested", "path", abs, "receipt_id", out.ReceiptID, "points", out.Points, "sha256", out.HashHex)
	return out, nil
}

func (i *FSIngestor) fail(out IngestionResult, err error) (IngestionResult, error) {
	out.Status = constants.IngestFailed
	out.Err = err.Error()
	if out.ProcessedAt.IsZero() {
		out.ProcessedAt = i.now().UTC()
	}
	return out, err
}
