// Package server exposes dashboard snapshots over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/and161185/linstor-dashboard/internal/config"
	"github.com/and161185/linstor-dashboard/internal/linstor"
	"github.com/and161185/linstor-dashboard/internal/server/middleware"
	"github.com/and161185/linstor-dashboard/model"
	"github.com/and161185/linstor-dashboard/storage"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Storage = storage.Storage

// Refresher produces snapshots on demand and reports fetch health.
type Refresher interface {
	Refresh(ctx context.Context) (*model.Snapshot, error)
	Status() model.FetchStatus
}

// ControllerProbe reports the LINSTOR controller version.
type ControllerProbe interface {
	Version(ctx context.Context) (linstor.ControllerInfo, error)
}

// FileStore persists the in-memory store between restarts.
type FileStore interface {
	SaveToFile(ctx context.Context, filePath string) error
	LoadFromFile(ctx context.Context, filePath string) error
}

type Server struct {
	Storage    Storage
	Config     *config.ServerConfig
	Poller     Refresher
	Controller ControllerProbe     // optional
	FileStore  FileStore           // optional, set for the in-memory store
	Gatherer   prometheus.Gatherer // optional, serves /metrics
}

func NewServer(storage Storage, poller Refresher, cfg *config.ServerConfig) *Server {
	return &Server{
		Storage: storage,
		Poller:  poller,
		Config:  cfg,
	}
}

func (srv *Server) logger() *zap.SugaredLogger {
	if srv.Config == nil || srv.Config.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return srv.Config.Logger
}

// Router builds the HTTP handler with every route and middleware.
func (srv *Server) Router() (http.Handler, error) {
	var key, trustedSubnet string
	if srv.Config != nil {
		key, trustedSubnet = srv.Config.Key, srv.Config.TrustedSubnet
	}

	trusted, err := middleware.TrustedCIDR(trustedSubnet)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.LogMiddleware(srv.logger()))
	router.Use(middleware.VerifyHashMiddleware(key))
	router.Use(middleware.CompressMiddleware)

	router.Get("/", srv.PageHandler)
	router.Get("/ping", srv.PingHandler)
	router.Get("/version", srv.VersionHandler)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", srv.DashboardHandler)
		r.Get("/dashboard/summary", srv.SummaryHandler)
		r.Get("/dashboard/charts/{kind}", srv.ChartHandler)
		r.Get("/dashboard/history", srv.HistoryHandler)
		r.With(trusted).Post("/dashboard/refresh", srv.RefreshHandler)
		r.Get("/controller", srv.ControllerHandler)
	})

	if srv.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(srv.Gatherer, promhttp.HandlerOpts{}))
	}

	return router, nil
}

// Run serves HTTP until ctx is done. With a FileStore configured it also
// writes the store to disk every StoreInterval and once more on shutdown.
func (srv *Server) Run(ctx context.Context) error {
	handler, err := srv.Router()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              srv.Config.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	storeCtx, stopStore := context.WithCancel(ctx)
	defer stopStore()

	storeDone := make(chan struct{})
	go func() {
		defer close(storeDone)
		srv.storeLoop(storeCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		srv.logger().Infow("http server listening", "addr", srv.Config.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			stopStore()
			<-storeDone
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		srv.logger().Errorw("http server shutdown failed", "error", err)
	}
	stopStore()
	<-storeDone
	return nil
}

func (srv *Server) storeLoop(ctx context.Context) {
	if srv.FileStore == nil || srv.Config.FileStoragePath == "" {
		<-ctx.Done()
		return
	}

	save := func() {
		if err := srv.FileStore.SaveToFile(context.Background(), srv.Config.FileStoragePath); err != nil {
			srv.logger().Errorw("failed to save snapshots", "path", srv.Config.FileStoragePath, "error", err)
		}
	}
	defer save()

	if srv.Config.StoreInterval <= 0 {
		<-ctx.Done()
		return
	}

	t := time.NewTicker(srv.Config.StoreDuration())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			save()
		}
	}
}
