package receipts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
	"github.com/joseph-ayodele/receipt-processor/internal/entity"
	"github.com/joseph-ayodele/receipt-processor/internal/points"
	"github.com/joseph-ayodele/receipt-processor/internal/repository"
)

// Service handles receipt business logic.
type Service struct {
	receiptRepo repository.ReceiptRepository
	schema      *common.SchemaValidator
	newID       func() uuid.UUID
	now         func() time.Time
	logger      *slog.Logger
}

type Option func(*Service)

// WithIDGenerator replaces uuid.New for minting receipt ids.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock replaces time.Now for acceptance timestamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService creates a new receipt service.
func NewService(receiptRepo repository.ReceiptRepository, logger *slog.Logger, opts ...Option) (*Service, error) {
	schema, err := common.NewSchemaValidator("receipt.json", BuildReceiptJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("receipt schema: %w", err)
	}
	s := &Service{
		receiptRepo: receiptRepo,
		schema:      schema,
		newID:       uuid.New,
		now:         time.Now,
		logger:      logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Process validates, scores and stores a JSON receipt payload.
func (s *Service) Process(ctx context.Context, payload []byte) (*entity.ScoredReceipt, error) {
	log := common.LoggerFromContext(ctx, s.logger)

	r, err := s.decode(payload)
	if err != nil {
		log.Info("receipt rejected", "error", err)
		return nil, err
	}

	pts, err := points.Score(r)
	if err != nil {
		var mErr *points.MalformedInputError
		if errors.As(err, &mErr) {
			log.Info("receipt rejected by scoring", "field", mErr.Field, "error", mErr.Err)
			return nil, common.NewValidator().Add(mErr.Field, mErr.Value, mErr.Err.Error()).Error()
		}
		return nil, common.WrapError(err, "score receipt")
	}

	fp, err := Fingerprint(r)
	if err != nil {
		return nil, err
	}
	existing, err := s.receiptRepo.FindByFingerprint(ctx, fp)
	switch {
	case err == nil:
		log.Info("duplicate receipt submitted", "fingerprint", fp, "existing_id", existing.ID)
		return nil, common.DuplicateReceiptError(existing.ID.String())
	case !errors.Is(err, common.ErrNotFound):
		log.Error("fingerprint lookup failed", "fingerprint", fp, "error", err)
		return nil, common.WrapError(err, "lookup fingerprint")
	}

	rec := &entity.ScoredReceipt{
		ID:          s.newID(),
		Receipt:     r,
		Points:      pts,
		Fingerprint: fp,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.receiptRepo.Put(ctx, rec); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			log.Info("duplicate receipt lost insert race", "fingerprint", fp)
			return nil, err
		}
		log.Error("failed to store receipt", "receipt_id", rec.ID, "error", err)
		return nil, common.WrapError(err, "store receipt")
	}

	log.Info("receipt accepted", "receipt_id", rec.ID, "points", rec.Points, "fingerprint", fp)
	return rec, nil
}

func (s *Service) decode(payload []byte) (entity.Receipt, error) {
	var r entity.Receipt
	if err := s.schema.Validate(payload); err != nil {
		return r, err
	}
	if err := json.Unmarshal(payload, &r); err != nil {
		return r, common.ValidationErrors{{Field: "body", Message: err.Error()}}
	}

	v := common.NewValidator().
		Field("retailer", r.Retailer, common.Required).
		Field("purchaseDate", r.PurchaseDate, common.CalendarDate)
	if err := v.Error(); err != nil {
		return r, err
	}
	return r, nil
}

// Get returns the stored receipt. Ids that are not UUIDs are simply not found.
func (s *Service) Get(ctx context.Context, id string) (*entity.ScoredReceipt, error) {
	if verr := common.UUID("id", id); verr != nil {
		return nil, common.ReceiptNotFoundError(id)
	}
	rec, err := s.receiptRepo.Get(ctx, uuid.MustParse(id))
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("failed to get receipt", "receipt_id", id, "error", err)
		}
		return nil, err
	}
	return rec, nil
}

// Points returns the points awarded to the receipt with the given id.
func (s *Service) Points(ctx context.Context, id string) (int, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return rec.Points, nil
}

// List returns all stored receipts in acceptance order.
func (s *Service) List(ctx context.Context) ([]*entity.ScoredReceipt, error) {
	recs, err := s.receiptRepo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list receipts", "error", err)
		return nil, err
	}
	return recs, nil
}

// Ping reports whether the underlying store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return repository.HealthCheck(ctx, s.receiptRepo, 2*time.Second, s.logger)
}
