package handlers

import (
	"net/http"

	"github.com/abrezinsky/livevote/internal/services"
)

// liveAction runs a host-only status operation on the event in the URL
func (h *Handlers) liveAction(w http.ResponseWriter, r *http.Request, message string, op func(r *http.Request, eventID, actorID int64) error) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := op(r, eventID, mustUser(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, message)
}

// handleGetLive returns the live screen state. A ?session= code is validated
// and refreshed; the host viewing the screen takes the event live.
func (h *Handlers) handleGetLive(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var activated bool
	if userID, ok := currentUser(r); ok {
		if activated, err = h.Live.ActivateIfHostViewing(r.Context(), eventID, userID); err != nil {
			h.respondError(w, r, err)
			return
		}
	} else if code := sessionCode(r); code != "" {
		if _, err := h.Identity.ResolveVoterIdentity(r.Context(), services.VoterRequest{EventID: eventID, SessionCode: code}); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	state, err := h.Live.LiveState(r.Context(), eventID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	progress, err := h.Results.PresentationProgress(r.Context(), eventID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, LiveResponse{LiveState: state, Progress: progress, Activated: activated})
}

func (h *Handlers) handleActivate(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	activated, err := h.Live.ActivateIfHostViewing(r.Context(), eventID, mustUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, ActivateResponse{Activated: activated})
}

func (h *Handlers) handleSetCurrentPresentation(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req CurrentPresentationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Live.SetCurrentPresentation(r.Context(), eventID, mustUser(r), req.GroupID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Current presentation updated")
}

func (h *Handlers) handleOpenVoting(w http.ResponseWriter, r *http.Request) {
	h.liveAction(w, r, "Voting opened", func(r *http.Request, eventID, actorID int64) error {
		return h.Live.OpenVoting(r.Context(), eventID, actorID)
	})
}

func (h *Handlers) handleShowWinners(w http.ResponseWriter, r *http.Request) {
	h.liveAction(w, r, "Showing winners", func(r *http.Request, eventID, actorID int64) error {
		return h.Live.ShowWinners(r.Context(), eventID, actorID)
	})
}

func (h *Handlers) handleBackToPresentations(w http.ResponseWriter, r *http.Request) {
	h.liveAction(w, r, "Back to presentations", func(r *http.Request, eventID, actorID int64) error {
		return h.Live.BackToPresentations(r.Context(), eventID, actorID)
	})
}

func (h *Handlers) handleRevealWinner(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req RevealRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Live.RevealWinner(r.Context(), eventID, mustUser(r), *req.Step); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Reveal step updated")
}

// handleConfetti is open to every viewer of the live screen
func (h *Handlers) handleConfetti(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	count, err := h.Live.TriggerConfetti(r.Context(), eventID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, ConfettiResponse{Count: count})
}

// Timer

func (h *Handlers) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req TimerStartRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	state, err := h.Live.StartTimer(r.Context(), eventID, mustUser(r), req.Minutes)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, state)
}

// timerAction runs a body-less timer operation
func (h *Handlers) timerAction(w http.ResponseWriter, r *http.Request, op func(r *http.Request, eventID, actorID int64) (*services.TimerState, error)) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	state, err := op(r, eventID, mustUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, state)
}

func (h *Handlers) handleTimerPause(w http.ResponseWriter, r *http.Request) {
	h.timerAction(w, r, func(r *http.Request, eventID, actorID int64) (*services.TimerState, error) {
		return h.Live.PauseTimer(r.Context(), eventID, actorID)
	})
}

func (h *Handlers) handleTimerResume(w http.ResponseWriter, r *http.Request) {
	h.timerAction(w, r, func(r *http.Request, eventID, actorID int64) (*services.TimerState, error) {
		return h.Live.ResumeTimer(r.Context(), eventID, actorID)
	})
}

func (h *Handlers) handleTimerStop(w http.ResponseWriter, r *http.Request) {
	h.timerAction(w, r, func(r *http.Request, eventID, actorID int64) (*services.TimerState, error) {
		return h.Live.StopTimer(r.Context(), eventID, actorID)
	})
}
