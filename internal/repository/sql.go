package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
	"github.com/joseph-ayodele/receipt-processor/internal/entity"
)

const receiptsTable = "scored_receipts"

var receiptColumns = []string{
	"id", "fingerprint", "retailer", "purchase_date", "purchase_time",
	"total", "items", "points", "created_at",
}

// Portable across SQLite and Postgres; created_at holds unix nanoseconds.
const createReceiptsTable = `CREATE TABLE IF NOT EXISTS scored_receipts (
	id VARCHAR(36) PRIMARY KEY,
	fingerprint VARCHAR(64) NOT NULL UNIQUE,
	retailer TEXT NOT NULL,
	purchase_date VARCHAR(10) NOT NULL,
	purchase_time VARCHAR(5) NOT NULL,
	total TEXT NOT NULL,
	items TEXT NOT NULL,
	points BIGINT NOT NULL,
	created_at BIGINT NOT NULL
)`

type sqlRepository struct {
	drv    *entsql.Driver
	mu     sync.Mutex
	logger *slog.Logger
}

// NewSQLRepository stores receipts through an ent SQL driver and creates the
// table when it is missing.
func NewSQLRepository(ctx context.Context, drv *entsql.Driver, logger *slog.Logger) (ReceiptRepository, error) {
	r := &sqlRepository{drv: drv, logger: logger}
	if err := r.Migrate(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *sqlRepository) Migrate(ctx context.Context) error {
	if err := r.drv.Exec(ctx, createReceiptsTable, []any{}, nil); err != nil {
		r.logger.Error("failed to create receipts table", "dialect", r.drv.Dialect(), "error", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (r *sqlRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

func (r *sqlRepository) Put(ctx context.Context, rec *entity.ScoredReceipt) error {
	if rec == nil || rec.ID == uuid.Nil || rec.Fingerprint == "" {
		return common.NewAppError(common.CodeValidationFailed, "record needs an id and a fingerprint", common.ErrInvalidInput)
	}
	items, err := json.Marshal(rec.Receipt.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, err := r.FindByFingerprint(ctx, rec.Fingerprint); err == nil {
		r.logger.Warn("duplicate receipt fingerprint", "fingerprint", rec.Fingerprint, "existing_id", existing.ID)
		return common.DuplicateReceiptError(existing.ID.String())
	} else if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	query, args := r.builder().Insert(receiptsTable).
		Columns(receiptColumns...).
		Values(
			rec.ID.String(),
			rec.Fingerprint,
			rec.Receipt.Retailer,
			rec.Receipt.PurchaseDate,
			rec.Receipt.PurchaseTime,
			rec.Receipt.Total,
			string(items),
			int64(rec.Points),
			rec.CreatedAt.UnixNano(),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		if !isUniqueViolation(err) {
			r.logger.Error("failed to insert receipt", "receipt_id", rec.ID, "error", err)
			return fmt.Errorf("insert receipt: %w: %w", common.ErrDatabase, err)
		}
		// Another writer sharing the database won the race.
		if existing, findErr := r.FindByFingerprint(ctx, rec.Fingerprint); findErr == nil {
			return common.DuplicateReceiptError(existing.ID.String())
		}
		return fmt.Errorf("receipt %s: %w", rec.ID, common.ErrAlreadyExists)
	}
	return nil
}

func (r *sqlRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ScoredReceipt, error) {
	recs, err := r.query(ctx, entsql.EQ("id", id.String()))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, common.ReceiptNotFoundError(id.String())
	}
	return recs[0], nil
}

func (r *sqlRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*entity.ScoredReceipt, error) {
	recs, err := r.query(ctx, entsql.EQ("fingerprint", fingerprint))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, common.NewAppError(common.CodeReceiptNotFound, "no receipt with fingerprint "+fingerprint, common.ErrNotFound)
	}
	return recs[0], nil
}

func (r *sqlRepository) List(ctx context.Context) ([]*entity.ScoredReceipt, error) {
	return r.query(ctx, nil)
}

func (r *sqlRepository) Ping(ctx context.Context) error {
	return r.drv.DB().PingContext(ctx)
}

func (r *sqlRepository) query(ctx context.Context, pred *entsql.Predicate) ([]*entity.ScoredReceipt, error) {
	b := r.builder()
	sel := b.Select(receiptColumns...).From(b.Table(receiptsTable))
	if pred != nil {
		sel = sel.Where(pred)
	}
	query, args := sel.OrderBy("created_at", "id").Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to query receipts", "error", err)
		return nil, fmt.Errorf("query receipts: %w: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.ScoredReceipt
	for rows.Next() {
		var (
			rec       entity.ScoredReceipt
			id        string
			items     string
			points    int64
			createdAt int64
		)
		if err := rows.Scan(
			&id,
			&rec.Fingerprint,
			&rec.Receipt.Retailer,
			&rec.Receipt.PurchaseDate,
			&rec.Receipt.PurchaseTime,
			&rec.Receipt.Total,
			&items,
			&points,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("scan receipt id %q: %w", id, err)
		}
		rec.ID = parsed
		if err := json.Unmarshal([]byte(items), &rec.Receipt.Items); err != nil {
			return nil, fmt.Errorf("decode items of %s: %w", id, err)
		}
		rec.Points = int(points)
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		// extended codes carry the primary code in the low byte
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
