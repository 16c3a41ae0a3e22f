package services

import (
	"context"
	"strings"
	"time"

	"github.com/abrezinsky/livevote/internal/errors"
	"github.com/abrezinsky/livevote/internal/logger"
	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/repository"
)

// ActiveWindow is how recently a voting session must have been seen to count as active
const ActiveWindow = 5 * time.Minute

// IdentityServiceRepository defines the repository methods needed by IdentityService
type IdentityServiceRepository interface {
	repository.EventRepository
	repository.VotingSessionRepository
	ListParticipantIDs(ctx context.Context, eventID int64) ([]int64, error)
}

// IdentityService maps requests to a stable voter identity
type IdentityService struct {
	notifier
	log   logger.Logger
	repo  IdentityServiceRepository
	clock Clock
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(log logger.Logger, repo IdentityServiceRepository, clock Clock) *IdentityService {
	return &IdentityService{log: log, repo: repo, clock: clock}
}

// VoterRequest carries everything a request knows about who is voting
type VoterRequest struct {
	EventID     int64
	UserID      *int64 // authenticated user, if any
	SessionCode string
	DisplayName string
}

// ResolvedVoter is the outcome of identity resolution
type ResolvedVoter struct {
	Identity models.VoterIdentity `json:"identity"`
	// Session is set for anonymous voters
	Session *models.VotingSession `json:"session,omitempty"`
	Created bool                  `json:"created"`
}

// Participants is the number of potential voters of an event
type Participants struct {
	Users    int `json:"users"`
	Sessions int `json:"sessions"`
	Total    int `json:"total"`
}

// ResolveVoterIdentity picks, in order: the authenticated user, an existing
// session code, or a new anonymous session for the display name.
func (s *IdentityService) ResolveVoterIdentity(ctx context.Context, req VoterRequest) (*ResolvedVoter, error) {
	if req.UserID != nil {
		return &ResolvedVoter{Identity: models.UserVoter(*req.UserID)}, nil
	}

	if code := strings.TrimSpace(req.SessionCode); code != "" {
		session, err := s.lookupSession(ctx, req.EventID, code)
		if err != nil {
			return nil, err
		}
		return &ResolvedVoter{Identity: models.SessionVoter(session.ID), Session: session}, nil
	}

	if strings.TrimSpace(req.DisplayName) != "" {
		session, err := s.CreateVotingSession(ctx, req.EventID, req.DisplayName)
		if err != nil {
			return nil, err
		}
		return &ResolvedVoter{Identity: models.SessionVoter(session.ID), Session: session, Created: true}, nil
	}

	return nil, ErrNoVoterIdentity
}

// lookupSession validates a session code against the event and refreshes lastActive
func (s *IdentityService) lookupSession(ctx context.Context, eventID int64, code string) (*models.VotingSession, error) {
	session, err := s.repo.GetVotingSessionByCode(ctx, code)
	if err == repository.ErrNotFound {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}
	if session.EventID != eventID {
		s.log.Debug("Session code used for another event", "session_id", session.ID, "event_id", eventID)
		return nil, ErrInvalidSession
	}

	now := s.clock.Now()
	if err := s.repo.TouchVotingSession(ctx, session.ID, now); err != nil {
		return nil, err
	}
	session.LastActive = now
	return session, nil
}

// CreateVotingSession creates an anonymous voter for the event
func (s *IdentityService) CreateVotingSession(ctx context.Context, eventID int64, displayName string) (*models.VotingSession, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, errors.Validation("display name is required")
	}
	if _, err := loadEvent(ctx, s.repo, eventID); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := newSessionCode()
		id, err := s.repo.CreateVotingSession(ctx, eventID, code, displayName, s.clock.Now())
		if err == repository.ErrDuplicate {
			s.log.Debug("Session code already taken, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.log.Info("Voting session created", "event_id", eventID, "session_id", id)
		s.notify(eventID, MsgParticipants, nil)
		return s.repo.GetVotingSession(ctx, id)
	}
	return nil, ErrCodeExhausted
}

// ActiveSessions returns the event's sessions seen within ActiveWindow
func (s *IdentityService) ActiveSessions(ctx context.Context, eventID int64) ([]models.VotingSession, error) {
	return s.repo.ListActiveVotingSessions(ctx, eventID, s.clock.Now().Add(-ActiveWindow))
}

// ActiveParticipants counts group members plus recently active anonymous voters
func (s *IdentityService) ActiveParticipants(ctx context.Context, eventID int64) (*Participants, error) {
	if _, err := loadEvent(ctx, s.repo, eventID); err != nil {
		return nil, err
	}
	users, err := s.repo.ListParticipantIDs(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.ActiveSessions(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &Participants{
		Users:    len(users),
		Sessions: len(sessions),
		Total:    len(users) + len(sessions),
	}, nil
}
