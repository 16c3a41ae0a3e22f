package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/livevote/internal/auth"
	"github.com/abrezinsky/livevote/internal/config"
	"github.com/abrezinsky/livevote/internal/handlers"
	"github.com/abrezinsky/livevote/internal/logger"
	"github.com/abrezinsky/livevote/internal/metrics"
	"github.com/abrezinsky/livevote/internal/repository"
	"github.com/abrezinsky/livevote/internal/services"
	"github.com/abrezinsky/livevote/internal/websocket"
)

const (
	dbStatsInterval = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

// App holds all application dependencies
type App struct {
	log      logger.Logger
	cfg      *config.Config
	baseURL  string
	repo     *repository.Repository
	metrics  *metrics.Metrics
	hub      *websocket.Hub
	handlers *handlers.Handlers
	cancel   context.CancelFunc
}

// New opens the record store and wires services, the websocket hub and handlers
func New(log logger.Logger, cfg *config.Config) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL(realNetworkProvider{}, cfg.Port)
		log.Info("No base URL configured, using LAN address", "url", baseURL)
	}

	m := metrics.New()
	clock := services.RealClock{}

	svc := handlers.Services{
		User:     services.NewUserService(log, repo, clock),
		Event:    services.NewEventService(log, repo, clock, baseURL),
		Identity: services.NewIdentityService(log, repo, clock),
		Voting:   services.NewVotingService(log, repo, clock, m),
		Results:  services.NewResultsService(log, repo, clock, m),
		Live:     services.NewLiveService(log, repo, clock, m),
	}

	ctx, cancel := context.WithCancel(context.Background())

	hub := websocket.New(log, svc.Live, m)
	hub.Start(ctx)
	svc.Event.SetBroadcaster(hub)
	svc.Identity.SetBroadcaster(hub)
	svc.Voting.SetBroadcaster(hub)
	svc.Live.SetBroadcaster(hub)

	a := &App{
		log:      log,
		cfg:      cfg,
		baseURL:  baseURL,
		repo:     repo,
		metrics:  m,
		hub:      hub,
		handlers: handlers.New(svc, auth.New(cfg.Secret), hub, m, repo, log),
		cancel:   cancel,
	}
	m.ObserveDB(repo.DB().Stats())
	go a.observeDB(ctx)
	return a, nil
}

// observeDB samples connection pool statistics until ctx ends
func (a *App) observeDB(ctx context.Context) {
	ticker := time.NewTicker(dbStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.metrics.ObserveDB(a.repo.DB().Stats())
		}
	}
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// BaseURL is the address join links and QR codes point at
func (a *App) BaseURL() string {
	return a.baseURL
}

// Close stops the hub and background work and closes the record store
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	return a.repo.Close()
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down gracefully
func (a *App) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown leaves hijacked websocket connections alone; stopping the hub closes them
	srv.RegisterOnShutdown(a.cancel)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", "addr", addr, "url", a.baseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
