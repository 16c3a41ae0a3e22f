package handlers

import (
	"net/http"

	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/services"
)

// SessionHeader carries an anonymous voter's session code when no query parameter is given
const SessionHeader = "X-Voting-Session"

// sessionCode reads the voting session code from ?session= or the session header
func sessionCode(r *http.Request) string {
	if code := r.URL.Query().Get("session"); code != "" {
		return code
	}
	return r.Header.Get(SessionHeader)
}

// resolveVoter identifies who is voting: the signed-in user, the session code,
// or a new anonymous session named displayName.
func (h *Handlers) resolveVoter(r *http.Request, eventID int64, displayName string) (*services.ResolvedVoter, error) {
	req := services.VoterRequest{
		EventID:     eventID,
		SessionCode: sessionCode(r),
		DisplayName: displayName,
	}
	if userID, ok := currentUser(r); ok {
		req.UserID = &userID
	}
	return h.Identity.ResolveVoterIdentity(r.Context(), req)
}

// voteResponse includes the session code when resolution created a session
func voteResponse(vote *models.Vote, voter *services.ResolvedVoter) VoteResponse {
	resp := VoteResponse{Vote: vote}
	if voter.Created && voter.Session != nil {
		resp.SessionCode = voter.Session.SessionCode
	}
	return resp
}

func (h *Handlers) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req VoteSubmitRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	ratings := make([]models.RatingInput, 0, len(req.Ratings))
	for _, rt := range req.Ratings {
		ratings = append(ratings, models.RatingInput{CategoryID: rt.CategoryID, Stars: rt.Stars})
	}
	// A rejected ballot must not create or touch a voting session
	if err := h.Voting.CheckBallot(r.Context(), eventID, req.GroupID, ratings); err != nil {
		h.respondError(w, r, err)
		return
	}

	voter, err := h.resolveVoter(r, eventID, req.DisplayName)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	vote, err := h.Voting.SubmitVote(r.Context(), eventID, req.GroupID, voter.Identity, ratings)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, voteResponse(vote, voter))
}

func (h *Handlers) handleSaveRating(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req RatingSaveRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	rating := []models.RatingInput{{CategoryID: req.CategoryID, Stars: req.Stars}}
	if err := h.Voting.CheckBallot(r.Context(), eventID, req.GroupID, rating); err != nil {
		h.respondError(w, r, err)
		return
	}

	voter, err := h.resolveVoter(r, eventID, req.DisplayName)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	vote, err := h.Voting.AutoSaveRating(r.Context(), eventID, req.GroupID, voter.Identity, req.CategoryID, req.Stars)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, voteResponse(vote, voter))
}

func (h *Handlers) handleMyVotes(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	voter, err := h.resolveVoter(r, eventID, "")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	votes, err := h.Voting.GetVoterVotes(r.Context(), eventID, voter.Identity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, MyVotesResponse{Votes: votes})
}

func (h *Handlers) handleResetVotes(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	removed, err := h.Voting.ResetVotes(r.Context(), eventID, mustUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, ResetVotesResponse{Removed: removed})
}

func (h *Handlers) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	board, err := h.Results.ComputeLeaderboard(r.Context(), eventID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, board)
}

// Voting sessions

func (h *Handlers) handleCreateVotingSession(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req VotingSessionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	session, err := h.Identity.CreateVotingSession(r.Context(), eventID, req.DisplayName)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, VotingSessionResponse{Session: session, SessionCode: session.SessionCode})
}

func (h *Handlers) handleRemoveVotingSession(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	sessionID, err := parseIDParam(r, "sessionID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Voting.RemoveVotingSession(r.Context(), eventID, mustUser(r), sessionID); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	participants, err := h.Identity.ActiveParticipants(r.Context(), eventID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, participants)
}
