package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/PaulBabatuyi/biovault/internal/activity"
	v1 "github.com/PaulBabatuyi/biovault/internal/api/vaultv1"
	"github.com/PaulBabatuyi/biovault/internal/auth"
	"github.com/PaulBabatuyi/biovault/internal/catalog"
	"github.com/PaulBabatuyi/biovault/internal/config"
	"github.com/PaulBabatuyi/biovault/internal/database"
	"github.com/PaulBabatuyi/biovault/internal/httpapi"
	"github.com/PaulBabatuyi/biovault/internal/middleware"
	"github.com/PaulBabatuyi/biovault/internal/observability"
	"github.com/PaulBabatuyi/biovault/internal/preview"
	"github.com/PaulBabatuyi/biovault/internal/server"
	"github.com/PaulBabatuyi/biovault/internal/service"
	"github.com/PaulBabatuyi/biovault/internal/stats"
	"github.com/PaulBabatuyi/biovault/internal/storage"
)

// vaultStore is what both catalog drivers provide.
type vaultStore interface {
	catalog.RecordStore
	activity.EntryStore
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "biovault: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. Configuration and logging
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := observability.InitLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Storage.EncryptionKey != "" {
		logger.Warn("storage.encryption_key is set but not applied; files are stored in plaintext")
	}

	// 2. Observability
	var tp *trace.TracerProvider
	if cfg.Server.Tracing {
		tp, err = observability.InitTracerProvider(ctx, "biovault", logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			observability.ShutdownTracerProvider(shutdownCtx, tp, logger)
		}()
	}

	metrics, err := observability.InitMetrics(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	// 3. Dependencies
	store, err := openStore(ctx, cfg.Catalog, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	fs, err := storage.NewFilesystemStorage(cfg.Storage.Root)
	if err != nil {
		return err
	}

	ledger := activity.NewLedger(activity.Config{
		QueueSize:    cfg.Ledger.QueueSize,
		WriteTimeout: cfg.Ledger.WriteTimeout,
	}, store, metrics, logger)
	ledger.Start()

	vault := service.New(service.Config{
		MaxUploadBytes:         cfg.Storage.MaxUploadBytes,
		MaxConcurrentUploads:   cfg.Service.MaxConcurrentUploads,
		SerializeUserMutations: cfg.Service.SerializeUserMutations,
	}, service.Deps{
		Storage:  fs,
		Catalog:  catalog.New(store, fs, logger),
		Ledger:   ledger,
		Stats:    stats.NewAggregator(fs, logger),
		Verifier: auth.NewAssertionVerifier([]byte(cfg.Auth.AssertionSecret), cfg.Auth.AssertionIssuer, cfg.Auth.AssertionLeeway, logger),
		Sessions: auth.NewSessions([]byte(cfg.Auth.SessionSecret), cfg.Auth.SessionTTL),
		Previews: preview.NewThumbnailer(cfg.Preview.MaxWidth, cfg.Preview.Quality),
		Metrics:  metrics,
		Logger:   logger,
	})

	// 4. gRPC server
	stack := middleware.Stack{
		Logger:  logger,
		Metrics: metrics.GetServerMetrics(),
		Auth:    middleware.NewAuth(vault, logger, server.PublicMethods...),
	}
	opts := stack.ServerOptions()
	if tp != nil {
		opts = append(opts, observability.GRPCStatsHandler(tp))
	}
	grpcServer := grpc.NewServer(opts...)
	v1.RegisterVaultServiceServer(grpcServer, server.NewFileServer(vault, logger))
	metrics.GetServerMetrics().InitializeMetrics(grpcServer)

	// 5. HTTP server
	httpServer := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: httpapi.NewRouter(vault, map[string]httpapi.Pinger{
			"catalog": store,
			"storage": fs,
		}, metrics.GetHandler(), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Serve until a signal arrives
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
		}
		logger.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}

		httpErr := httpServer.Shutdown(shutdownCtx)
		if err := ledger.Stop(shutdownCtx); err != nil {
			logger.Warn("activity ledger did not drain", zap.Error(err))
		}
		return httpErr
	})

	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	logger.Info("biovault stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger) (vaultStore, error) {
	switch cfg.Driver {
	case config.DriverBadger:
		bc, err := cfg.DecodeBadger()
		if err != nil {
			return nil, err
		}
		logger.Info("using badger catalog", zap.String("path", bc.Path), zap.Bool("in_memory", bc.InMemory))
		return database.NewBadgerDB(bc, logger)
	default:
		pg, err := cfg.DecodePostgres()
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres catalog")
		return database.NewPostgresDB(ctx, pg, logger)
	}
}
