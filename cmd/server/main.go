package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"potracker/internal/classification/gemini"
	"potracker/internal/commons"
	"potracker/internal/config"
	"potracker/internal/infrastructure/logger"
	"potracker/internal/infrastructure/mysql"
	"potracker/internal/ingest"
	"potracker/internal/mailbox"
	"potracker/internal/order"
	orderrepo "potracker/internal/order/repository"
	"potracker/internal/order/service"
	"potracker/internal/orderquery"
	"potracker/internal/server"
)

const defaultConfigPath = "internal/config/config.yaml"

// orderStore is what both the write and the read side need from a repository.
type orderStore interface {
	service.OrderRepository
	orderquery.Repository
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := commons.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Error("server stopped with error", zap.Error(err))
		_ = zapLogger.Sync()
		os.Exit(1)
	}

	zapLogger.Info("server stopped gracefully")
	_ = zapLogger.Sync()
}

// run owns every resource of the process; its deferred cleanup always runs
// before main decides the exit code.
func run(cfg *config.Config, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, db, err := newOrderStore(ctx, cfg, zapLogger)
	if err != nil {
		return fmt.Errorf("creating order store: %w", err)
	}
	if db != nil {
		defer db.Close()
	}

	extractor := gemini.NewClient(gemini.Config{
		BaseURL: cfg.Extractor.BaseURL,
		APIKey:  cfg.Extractor.APIKey,
		Model:   cfg.Extractor.Model,
		Timeout: cfg.Extractor.Timeout,
	}, zapLogger.Named("gemini"))

	orderModule := order.NewModule(store, extractor, cfg, zapLogger)
	queryCtrl := orderquery.NewModule(store, zapLogger)

	router := server.NewRouter(orderModule.Controller, queryCtrl, zapLogger)
	srv := server.New(cfg.Server.Port, cfg.Extractor.Timeout+15*time.Second, router, zapLogger)

	var poller *ingest.Poller
	if cfg.Mailbox.Enabled {
		poller, err = newPoller(ctx, cfg.Mailbox, orderModule, zapLogger)
		if err != nil {
			return fmt.Errorf("creating mailbox poller: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if poller != nil {
		g.Go(func() error {
			return poller.Run(gctx)
		})
	}

	return g.Wait()
}

func newOrderStore(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (orderStore, *sql.DB, error) {
	if cfg.Store.Driver != config.StoreDriverMySQL {
		zapLogger.Info("using in-memory order store")
		return orderrepo.NewMemoryOrderRepository(), nil, nil
	}

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := mysql.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	zapLogger.Info("database connected", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	return orderrepo.NewMySQLOrderRepository(db), db, nil
}

func newPoller(ctx context.Context, cfg config.MailboxConfig, orderModule *order.Module, zapLogger *zap.Logger) (*ingest.Poller, error) {
	spool, err := mailbox.NewSpool(cfg.SpoolDir, zapLogger.Named("mailbox"))
	if err != nil {
		return nil, err
	}

	var opts []ingest.Option
	if cfg.Watch {
		notify, err := spool.Watch(ctx)
		if err != nil {
			zapLogger.Warn("spool watch unavailable, polling on interval only", zap.Error(err))
		} else {
			opts = append(opts, ingest.WithNotifications(notify))
		}
	}

	return ingest.NewPoller(
		spool,
		orderModule.UseCase,
		mailbox.NewSubjectFilter(cfg.SubjectKeywords...),
		cfg.PollInterval,
		zapLogger.Named("poller"),
		opts...,
	), nil
}
