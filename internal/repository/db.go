package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
)

// Store is an opened receipt repository together with whatever must be
// released when the process stops.
type Store struct {
	Receipts ReceiptRepository
	closers  []func() error
	logger   *slog.Logger
}

// Open builds the repository selected by cfg.Driver.
func Open(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*Store, error) {
	switch cfg.Driver {
	case "", common.StoreMemory:
		logger.Info("using in-memory receipt store")
		return &Store{Receipts: NewMemoryRepository(logger), logger: logger}, nil
	case common.StoreSQLite:
		return openSQLite(ctx, cfg, logger)
	case common.StorePostgres:
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q: %w", cfg.Driver, common.ErrInvalidInput)
	}
}

func openSQLite(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*Store, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = common.DefaultSQLiteDSN
	}
	logger.Info("opening sqlite receipt store", "dsn", dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open sqlite", "error", err)
		return nil, err
	}
	// One connection keeps a memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	drv := entsql.OpenDB(dialect.SQLite, db)
	repo, err := NewSQLRepository(ctx, drv, logger)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	return &Store{Receipts: repo, closers: []func() error{drv.Close}, logger: logger}, nil
}

// openPostgres creates a pgx pool and wraps it for ent.
func openPostgres(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*Store, error) {
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database url", "error", err)
		return nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "receipt-processor"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for ent
	db := stdlib.OpenDBFromPool(pool)
	drv := entsql.OpenDB(dialect.Postgres, db)
	repo, err := NewSQLRepository(ctx, drv, logger)
	if err != nil {
		_ = drv.Close()
		pool.Close()
		return nil, err
	}

	logger.Info("successfully connected to database")
	return &Store{
		Receipts: repo,
		closers: []func() error{
			drv.Close,
			func() error { pool.Close(); return nil },
		},
		logger: logger,
	}, nil
}

// Close releases database connections.
func (s *Store) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			s.logger.Error("failed to close store", "error", err)
		}
	}
	s.closers = nil
}

// HealthCheck pings the store to catch DSN issues early.
func HealthCheck(ctx context.Context, repo ReceiptRepository, timeout time.Duration, logger *slog.Logger) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := repo.Ping(ctx); err != nil {
		logger.Error("store ping failed", "error", err)
		return err
	}
	logger.Debug("store ping successful")
	return nil
}
