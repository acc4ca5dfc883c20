package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/linstor-dashboard/internal/buildinfo"
	"github.com/and161185/linstor-dashboard/internal/config"
	"github.com/and161185/linstor-dashboard/internal/linstor"
	"github.com/and161185/linstor-dashboard/internal/poller"
	"github.com/and161185/linstor-dashboard/internal/server"
	"github.com/and161185/linstor-dashboard/storage/inmemory"
	"github.com/and161185/linstor-dashboard/storage/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewServerConfig()
	defer func() { _ = cfg.Logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		cfg.Logger.Errorw("server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}

type sequencer interface {
	LastSequence() uint64
}

func run(ctx context.Context, cfg *config.ServerConfig) error {
	logger := cfg.Logger
	info := buildinfo.Get()
	logger.Infow("starting linstor dashboard",
		"version", info.Version,
		"commit", info.Commit,
		"date", info.Date,
	)

	base, err := linstor.ResolveEndpoint(cfg.LinstorEndpoint)
	if err != nil {
		return err
	}
	metricsURL := linstor.MetricsURL(base, cfg.MetricsPath)

	logger.Infow("server config",
		"addr", cfg.Addr,
		"metricsURL", metricsURL,
		"pollInterval", cfg.PollDuration(),
		"storeInterval", cfg.StoreInterval,
		"fileStoragePath", cfg.FileStoragePath,
		"restore", cfg.Restore,
		"databaseDSNSet", cfg.DatabaseDsn != "",
		"historyLimit", cfg.HistoryLimit,
	)

	var (
		store     server.Storage
		fileStore server.FileStore
		seq       sequencer
	)
	if cfg.DatabaseDsn != "" {
		pg, err := postgres.NewPostgresStorage(ctx, cfg.DatabaseDsn, cfg.HistoryLimit, logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		store, seq = pg, pg
	} else {
		mem := inmemory.NewMemStorage(cfg.HistoryLimit, logger)
		if cfg.Restore && cfg.FileStoragePath != "" {
			if err := mem.LoadFromFile(ctx, cfg.FileStoragePath); err != nil {
				logger.Warnw("failed to restore snapshots", "path", cfg.FileStoragePath, "error", err)
			}
		}
		store, fileStore, seq = mem, mem, mem
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p := poller.New(poller.Options{
		MetricsURL: metricsURL,
		Interval:   cfg.PollDuration(),
		Timeout:    cfg.ClientTimeoutDuration(),
		Registerer: reg,
	}, store, logger)
	p.Seed(seq.LastSequence())

	srv := server.NewServer(store, p, cfg)
	srv.FileStore = fileStore
	srv.Gatherer = reg

	controller, err := linstor.NewController(linstor.ControllerOptions{
		Endpoint:      cfg.LinstorEndpoint,
		Timeout:       cfg.ClientTimeoutDuration(),
		RPS:           cfg.LinstorRPS,
		Burst:         cfg.LinstorBurst,
		SkipTLSVerify: cfg.SkipTLSVerify,
		UserAgent:     "linstor-dashboard/" + info.Version,
	}, logger)
	if err != nil {
		logger.Warnw("controller probe disabled", "error", err)
	} else {
		srv.Controller = controller
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Infow("server stopped")
	return nil
}
