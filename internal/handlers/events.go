package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/services"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// eventResponse hides invite codes from everyone but the host and the group's members
func (h *Handlers) eventResponse(r *http.Request, details *services.EventDetails) EventResponse {
	userID, _ := currentUser(r)
	if userID != details.Event.HostID {
		groups := make([]models.Group, len(details.Groups))
		for i, g := range details.Groups {
			if !isMember(g, userID) {
				g.InviteCode = ""
			}
			groups[i] = g
		}
		details.Groups = groups
	}
	return EventResponse{EventDetails: details, JoinURL: h.Event.JoinURL(&details.Event)}
}

func isMember(g models.Group, userID int64) bool {
	if userID == 0 {
		return false
	}
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (h *Handlers) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventCreateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	in := services.CreateEventInput{Name: req.Name, Description: req.Description}
	for _, c := range req.Categories {
		in.Categories = append(in.Categories, services.CategoryInput{Name: c.Name, Description: c.Description})
	}
	event, err := h.Event.CreateEvent(r.Context(), mustUser(r), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	details, err := h.Event.GetEvent(r.Context(), event.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, h.eventResponse(r, details))
}

func (h *Handlers) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	details, err := h.Event.GetEvent(r.Context(), eventID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, h.eventResponse(r, details))
}

func (h *Handlers) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Event.DeleteEvent(r.Context(), eventID, mustUser(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req EventUpdateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if _, err := h.Event.UpdateEvent(r.Context(), eventID, mustUser(r), req.Name, req.Description); err != nil {
		h.respondError(w, r, err)
		return
	}
	details, err := h.Event.GetEvent(r.Context(), eventID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, h.eventResponse(r, details))
}

func (h *Handlers) handleUpdateCategories(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req CategoriesUpdateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	inputs := make([]services.CategoryInput, len(req.Categories))
	for i, c := range req.Categories {
		inputs[i] = services.CategoryInput{ID: c.ID, Name: c.Name, Description: c.Description}
	}
	categories, err := h.Event.UpdateCategories(r.Context(), eventID, mustUser(r), inputs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, CategoriesResponse{Categories: categories})
}

func (h *Handlers) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Event.RemoveParticipant(r.Context(), eventID, mustUser(r), userID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

// handleJoinQR serves the join link as a PNG QR code; ?size= sets the edge in pixels
func (h *Handlers) handleJoinQR(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	size := defaultQRSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > maxQRSize {
			h.respondError(w, r, ValidationFailed("size must be between 64 and 1024"))
			return
		}
		size = n
	}

	png, err := h.Event.JoinQRCode(r.Context(), eventID, size)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

func (h *Handlers) handleReorderCategories(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req OrderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Event.ReorderCategories(r.Context(), eventID, mustUser(r), req.IDs); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Categories reordered")
}

func (h *Handlers) handleReorderPresentations(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req OrderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Event.ReorderPresentations(r.Context(), eventID, mustUser(r), req.IDs); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Presentations reordered")
}

func (h *Handlers) handleSetSubmissions(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req SubmissionsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Event.CloseSubmissions(r.Context(), eventID, mustUser(r), *req.Closed); err != nil {
		h.respondError(w, r, err)
		return
	}
	if *req.Closed {
		respondSuccess(w, "Submissions closed")
		return
	}
	respondSuccess(w, "Submissions opened")
}

// Join flow

func (h *Handlers) handleGetJoin(w http.ResponseWriter, r *http.Request) {
	details, err := h.Event.GetEventByJoinCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, h.eventResponse(r, details))
}

func (h *Handlers) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupCreateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	group, err := h.Event.CreateGroup(r.Context(), chi.URLParam(r, "code"), mustUser(r), req.Name, req.Emoji)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, group)
}

func (h *Handlers) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupJoinRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	group, err := h.Event.JoinGroup(r.Context(), chi.URLParam(r, "code"), req.InviteCode, mustUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, group)
}

func (h *Handlers) handleSubmitPresentation(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req PresentationSubmitRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	group, err := h.Event.SubmitPresentation(r.Context(), groupID, mustUser(r), req.Link)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, group)
}

func (h *Handlers) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req GroupUpdateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	group, err := h.Event.UpdateGroup(r.Context(), groupID, mustUser(r), req.Name, req.Emoji)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, group)
}

func (h *Handlers) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Event.DeleteGroup(r.Context(), groupID, mustUser(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Event.RemoveMember(r.Context(), groupID, mustUser(r), userID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}
