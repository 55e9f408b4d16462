package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
	"github.com/joseph-ayodele/receipt-processor/internal/entity"
)

type memoryRepository struct {
	// mu serializes the fingerprint check with the insert.
	mu            sync.Mutex
	byID          *cache.Cache
	byFingerprint *cache.Cache
	logger        *slog.Logger
}

// NewMemoryRepository returns a process-local store. Nothing expires.
func NewMemoryRepository(logger *slog.Logger) ReceiptRepository {
	return &memoryRepository{
		byID:          cache.New(cache.NoExpiration, 0),
		byFingerprint: cache.New(cache.NoExpiration, 0),
		logger:        logger,
	}
}

func (r *memoryRepository) Put(_ context.Context, rec *entity.ScoredReceipt) error {
	if rec == nil || rec.ID == uuid.Nil || rec.Fingerprint == "" {
		return common.NewAppError(common.CodeValidationFailed, "record needs an id and a fingerprint", common.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, found := r.byFingerprint.Get(rec.Fingerprint); found {
		r.logger.Warn("duplicate receipt fingerprint", "fingerprint", rec.Fingerprint, "existing_id", existing)
		return common.DuplicateReceiptError(existing.(string))
	}
	id := rec.ID.String()
	if err := r.byID.Add(id, cloneRecord(rec), cache.NoExpiration); err != nil {
		r.logger.Error("receipt id already stored", "receipt_id", id)
		return fmt.Errorf("receipt %s: %w", id, common.ErrAlreadyExists)
	}
	// byID and byFingerprint are only written under mu, so this cannot collide.
	_ = r.byFingerprint.Add(rec.Fingerprint, id, cache.NoExpiration)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id uuid.UUID) (*entity.ScoredReceipt, error) {
	v, found := r.byID.Get(id.String())
	if !found {
		return nil, common.ReceiptNotFoundError(id.String())
	}
	return cloneRecord(v.(*entity.ScoredReceipt)), nil
}

func (r *memoryRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*entity.ScoredReceipt, error) {
	v, found := r.byFingerprint.Get(fingerprint)
	if !found {
		return nil, common.NewAppError(common.CodeReceiptNotFound, "no receipt with fingerprint "+fingerprint, common.ErrNotFound)
	}
	id, err := uuid.Parse(v.(string))
	if err != nil {
		return nil, fmt.Errorf("fingerprint index: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *memoryRepository) List(_ context.Context) ([]*entity.ScoredReceipt, error) {
	items := r.byID.Items()
	out := make([]*entity.ScoredReceipt, 0, len(items))
	for _, it := range items {
		out = append(out, cloneRecord(it.Object.(*entity.ScoredReceipt)))
	}
	sortRecords(out)
	return out, nil
}

func (r *memoryRepository) Ping(context.Context) error {
	return nil
}
