package handlers

import (
	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/services"
)

// UserResponse is the JSON response for account operations
type UserResponse struct {
	User *models.User `json:"user"`
}

// EventResponse is an event with its categories, groups and join link
type EventResponse struct {
	*services.EventDetails
	JoinURL string `json:"join_url"`
}

// EventListResponse lists the events of a host
type EventListResponse struct {
	Events []models.Event `json:"events"`
}

// CategoriesResponse lists an event's categories in order
type CategoriesResponse struct {
	Categories []models.Category `json:"categories"`
}

// VotingSessionResponse is returned when an anonymous voter is created
type VotingSessionResponse struct {
	Session     *models.VotingSession `json:"session"`
	SessionCode string                `json:"session_code"`
}

// VoteResponse is the stored vote, plus the session code when one was created
type VoteResponse struct {
	Vote        *models.Vote `json:"vote"`
	SessionCode string       `json:"session_code,omitempty"`
}

// MyVotesResponse pre-fills a voter's ballot
type MyVotesResponse struct {
	Votes services.VoterVotes `json:"votes"`
}

// ResetVotesResponse reports how many votes a reset removed
type ResetVotesResponse struct {
	Removed int64 `json:"removed"`
}

// LiveResponse is the live screen snapshot with voting progress
type LiveResponse struct {
	*services.LiveState
	Progress  *services.Progress `json:"progress"`
	Activated bool               `json:"activated,omitempty"`
}

// ActivateResponse reports whether the event just went live
type ActivateResponse struct {
	Activated bool `json:"activated"`
}

// ConfettiResponse carries the new confetti count
type ConfettiResponse struct {
	Count int `json:"count"`
}

// HealthResponse is the body of the health check
type HealthResponse struct {
	Status string `json:"status"`
}
