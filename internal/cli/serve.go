package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/joseph-ayodele/receipt-processor/internal/async"
	"github.com/joseph-ayodele/receipt-processor/internal/common"
	"github.com/joseph-ayodele/receipt-processor/internal/export"
	"github.com/joseph-ayodele/receipt-processor/internal/ingest"
	"github.com/joseph-ayodele/receipt-processor/internal/receipts"
	"github.com/joseph-ayodele/receipt-processor/internal/repository"
	"github.com/joseph-ayodele/receipt-processor/internal/server"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP and gRPC receipt APIs",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rootOpts.config()
			if err != nil {
				return err
			}
			logger := common.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, true)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, err := repository.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	if err := repository.HealthCheck(ctx, store.Receipts, cfg.Store.DialTimeout, logger); err != nil {
		return fmt.Errorf("store health: %w", err)
	}

	svc, err := receipts.NewService(store.Receipts, logger)
	if err != nil {
		return err
	}
	exporter := export.NewService(svc, logger)

	errCh := make(chan error, 2)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.NewHTTPHandler(svc, exporter, cfg.Server, cfg.RateLimit, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	httpLis, err := net.Listen("tcp", cfg.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	go func() {
		logger.Info("http listening", "addr", httpLis.Addr().String())
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			reportErr(errCh, fmt.Errorf("http serve: %w", err))
		}
	}()

	var (
		grpcSrv *grpc.Server
		hs      *health.Server
	)
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			_ = httpSrv.Close()
			return fmt.Errorf("listen grpc: %w", err)
		}
		grpcSrv, hs = server.NewGRPCServer(svc, logger)
		go func() {
			logger.Info("grpc listening", "addr", lis.Addr().String())
			if err := grpcSrv.Serve(lis); err != nil {
				reportErr(errCh, fmt.Errorf("grpc serve: %w", err))
			}
		}()
	}

	var queue *async.ProcessorQueue
	if dir := cfg.Ingest.WatchDir; dir != "" {
		queue = async.NewProcessorQueue(ingest.NewFSIngestor(svc, logger), logger,
			async.WithWorkers(cfg.Ingest.Workers),
			async.WithQueueSize(cfg.Ingest.QueueSize),
			async.WithProcessTimeout(cfg.Ingest.Timeout),
		)
		events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{dir},
			InitialScan: true,
			SkipHidden:  true,
			Debounce:    250 * time.Millisecond,
			Logger:      logger,
		})
		if err != nil {
			reportErr(errCh, fmt.Errorf("start watcher: %w", err))
		} else {
			logger.Info("watching for receipt files", "dir", dir)
			go queue.Consume(ctx, events)
			go func() {
				for err := range watchErrs {
					logger.Warn("watcher reported error", "error", err)
				}
			}()
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		logger.Error("server failed", "error", runErr)
	}

	logger.Info("shutting down")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()

	if hs != nil {
		hs.Shutdown()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	logger.Info("stopped")
	return runErr
}

// reportErr never blocks; the first failure is enough to stop the process.
func reportErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}
