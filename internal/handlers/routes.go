package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abrezinsky/livevote/internal/auth"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(h.Metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(h.Auth.LoadUser)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", h.Metrics.Handler())

	// WebSocket (no timeout, the connection outlives the request)
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Accounts
		r.Post("/auth/signup", h.handleSignup)
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/logout", h.handleLogout)

		// Join flow (public lookup)
		r.Get("/join/{code}", h.handleGetJoin)

		// Voting and live screen (authenticated user or voting session)
		r.Route("/events/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetEvent)
			r.Get("/qr", h.handleJoinQR)
			r.Get("/live", h.handleGetLive)
			r.Get("/leaderboard", h.handleLeaderboard)
			r.Get("/participants", h.handleParticipants)
			r.Post("/voting-sessions", h.handleCreateVotingSession)
			r.Post("/votes", h.handleSubmitVote)
			r.Post("/ratings", h.handleSaveRating)
			r.Get("/my-votes", h.handleMyVotes)
			r.Post("/confetti", h.handleConfetti)

			// Host operations
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireUserAPI)
				r.Put("/", h.handleUpdateEvent)
				r.Delete("/", h.handleDeleteEvent)
				r.Put("/categories", h.handleUpdateCategories)
				r.Put("/categories/order", h.handleReorderCategories)
				r.Put("/presentations/order", h.handleReorderPresentations)
				r.Post("/submissions", h.handleSetSubmissions)
				r.Delete("/voting-sessions/{sessionID}", h.handleRemoveVotingSession)
				r.Delete("/participants/{userID}", h.handleRemoveParticipant)
				r.Post("/live/activate", h.handleActivate)
				r.Post("/current-presentation", h.handleSetCurrentPresentation)
				r.Post("/voting/open", h.handleOpenVoting)
				r.Delete("/votes", h.handleResetVotes)
				r.Post("/winners/show", h.handleShowWinners)
				r.Post("/winners/reveal", h.handleRevealWinner)
				r.Post("/winners/back", h.handleBackToPresentations)
				r.Post("/timer/start", h.handleTimerStart)
				r.Post("/timer/pause", h.handleTimerPause)
				r.Post("/timer/resume", h.handleTimerResume)
				r.Post("/timer/stop", h.handleTimerStop)
			})
		})

		// Signed-in users
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUserAPI)
			r.Get("/me", h.handleMe)
			r.Get("/me/events", h.handleMyEvents)
			r.Put("/me/name", h.handleUpdateName)
			r.Put("/me/email", h.handleUpdateEmail)
			r.Put("/me/password", h.handleUpdatePassword)
			r.Delete("/me", h.handleDeleteAccount)
			r.Post("/events", h.handleCreateEvent)
			r.Post("/join/{code}/groups", h.handleCreateGroup)
			r.Post("/join/{code}/groups/join", h.handleJoinGroup)
			r.Post("/groups/{id}/submit", h.handleSubmitPresentation)
			r.Put("/groups/{id}", h.handleUpdateGroup)
			r.Delete("/groups/{id}", h.handleDeleteGroup)
			r.Delete("/groups/{id}/members/{userID}", h.handleRemoveMember)
		})
	})

	return r
}
