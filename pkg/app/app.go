// Package app serves the browsing and download operations as a JSON API.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sgaunet/s3grab/pkg/catalog"
	"github.com/sgaunet/s3grab/pkg/config"
	"github.com/sgaunet/s3grab/pkg/downloader"
	"github.com/sgaunet/s3grab/pkg/dto"
	"github.com/sgaunet/s3grab/pkg/health"
)

// Store is the object store as seen by the API.
type Store interface {
	ListBuckets(ctx context.Context) ([]dto.Bucket, error)
	catalog.PrefixLister
	downloader.Store
}

// App holds the HTTP server and the services behind it.
type App struct {
	cfg     config.Config
	store   Store
	lister  *catalog.Lister
	engine  *downloader.Engine
	runner  *downloader.Runner
	health  *health.StoreHealth
	router  *mux.Router
	srv     *http.Server
	jobsCtx context.Context
	log     *slog.Logger
}

// NewApp wires the services around store. Download jobs started through the
// API live as long as ctx, not as long as the request that started them.
func NewApp(ctx context.Context, cfg config.Config, store Store) *App {
	engine := downloader.NewEngine(store)
	engine.SetConcurrency(cfg.Concurrency)

	s := &App{
		cfg:     cfg,
		store:   store,
		lister:  catalog.NewLister(store),
		engine:  engine,
		runner:  downloader.NewRunner(engine),
		health:  health.NewStoreHealth(store, cfg.HealthInterval),
		router:  mux.NewRouter().StrictSlash(true),
		jobsCtx: ctx,
		log:     slog.New(slog.DiscardHandler),
	}
	s.srv = &http.Server{
		Addr:              cfg.Listen,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.initRouter()
	return s
}

// SetLogger sets the logger of the app and of its services.
func (s *App) SetLogger(log *slog.Logger) {
	s.log = log
	s.lister.SetLogger(log)
	s.engine.SetLogger(log)
	s.runner.SetLogger(log)
	s.health.SetLogger(log)
}

// Runner is shared with the scheduler so that at most one job runs.
func (s *App) Runner() *downloader.Runner {
	return s.runner
}

// Health returns the store health monitor.
func (s *App) Health() *health.StoreHealth {
	return s.health
}

// Router returns the HTTP handler of the API.
func (s *App) Router() http.Handler {
	return s.router
}

// StartServer starts the health monitor and serves the API in the background.
func (s *App) StartServer() {
	s.health.Start(s.jobsCtx)
	go s.startWebServer()
}

func (s *App) startWebServer() {
	s.log.Info("listen", slog.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("HTTP server stopped", slog.String("error", err.Error()))
	}
}

// StopServer stops the health monitor and shuts the server down gracefully.
func (s *App) StopServer(ctx context.Context) error {
	s.health.Stop()
	return s.srv.Shutdown(ctx)
}
