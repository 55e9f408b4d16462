package repository

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-processor/internal/entity"
)

// ReceiptRepository stores scored receipts and their fingerprint index.
// Records are immutable; there is no update or delete.
type ReceiptRepository interface {
	// Put stores rec. It fails with common.ErrAlreadyExists when rec.ID is
	// taken and with common.ErrDuplicate when rec.Fingerprint is taken.
	Put(ctx context.Context, rec *entity.ScoredReceipt) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ScoredReceipt, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*entity.ScoredReceipt, error)
	// List returns every record ordered by acceptance time, then id.
	List(ctx context.Context) ([]*entity.ScoredReceipt, error)
	Ping(ctx context.Context) error
}

func cloneRecord(rec *entity.ScoredReceipt) *entity.ScoredReceipt {
	out := *rec
	out.Receipt.Items = slices.Clone(rec.Receipt.Items)
	return &out
}

func sortRecords(recs []*entity.ScoredReceipt) {
	slices.SortFunc(recs, func(a, b *entity.ScoredReceipt) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}
