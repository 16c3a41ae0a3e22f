package handlers

import (
	"net/http"

	"github.com/abrezinsky/livevote/internal/auth"
)

// issueSession signs a token for the user and sets the session cookie
func (h *Handlers) issueSession(w http.ResponseWriter, userID int64) error {
	token, err := h.Auth.IssueToken(userID)
	if err != nil {
		return err
	}
	auth.SetSessionCookie(w, token)
	return nil
}

func (h *Handlers) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.User.Signup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.issueSession(w, user.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, UserResponse{User: user})
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.User.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.issueSession(w, user.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, UserResponse{User: user})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	respondSuccess(w, "Logged out")
}

func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.User.GetUser(r.Context(), mustUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, UserResponse{User: user})
}

func (h *Handlers) handleMyEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Event.ListHostEvents(r.Context(), mustUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, EventListResponse{Events: events})
}

// Account settings

func (h *Handlers) handleUpdateName(w http.ResponseWriter, r *http.Request) {
	var req UpdateNameRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.User.UpdateName(r.Context(), mustUser(r), req.Name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, UserResponse{User: user})
}

func (h *Handlers) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	var req UpdateEmailRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.User.UpdateEmail(r.Context(), mustUser(r), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, UserResponse{User: user})
}

func (h *Handlers) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req UpdatePasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.User.UpdatePassword(r.Context(), mustUser(r), req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Password updated")
}

// handleDeleteAccount deletes the user with their hosted events and signs them out
func (h *Handlers) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.User.DeleteAccount(r.Context(), mustUser(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	auth.ClearSessionCookie(w)
	respondDeleted(w)
}
