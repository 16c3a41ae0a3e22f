package handlers

import (
	"context"
	"net/http"

	"github.com/abrezinsky/livevote/internal/auth"
	"github.com/abrezinsky/livevote/internal/logger"
	"github.com/abrezinsky/livevote/internal/metrics"
	"github.com/abrezinsky/livevote/internal/services"
)

// Services groups the domain services the handlers call
type Services struct {
	User     services.UserServicer
	Event    services.EventServicer
	Identity services.IdentityServicer
	Voting   services.VotingServicer
	Results  services.ResultsServicer
	Live     services.LiveServicer
}

// WebsocketServer upgrades live-screen connections
type WebsocketServer interface {
	ServeWs(w http.ResponseWriter, r *http.Request)
}

// Pinger reports whether the record store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Services
	Auth    *auth.Auth
	Hub     WebsocketServer
	Metrics *metrics.Metrics
	Health  Pinger
	Log     logger.Logger
}

// New creates a new Handlers instance with all dependencies
func New(svc Services, a *auth.Auth, hub WebsocketServer, m *metrics.Metrics, health Pinger, log logger.Logger) *Handlers {
	return &Handlers{
		Services: svc,
		Auth:     a,
		Hub:      hub,
		Metrics:  m,
		Health:   health,
		Log:      log,
	}
}

// currentUser returns the authenticated user id, if any
func currentUser(r *http.Request) (int64, bool) {
	return auth.UserIDFromContext(r.Context())
}

// mustUser returns the authenticated user id; routes behind RequireUserAPI always have one
func mustUser(r *http.Request) int64 {
	id, _ := currentUser(r)
	return id
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health.Ping(r.Context()); err != nil {
			h.Log.Warn("Health check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
	}
	respondOK(w, HealthResponse{Status: "ok"})
}
