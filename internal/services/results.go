package services

import (
	"context"
	"time"

	"github.com/abrezinsky/livevote/internal/logger"
	"github.com/abrezinsky/livevote/internal/metrics"
	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/repository"
	"github.com/abrezinsky/livevote/internal/scoring"
)

// ResultsServiceRepository defines the repository methods needed by ResultsService
type ResultsServiceRepository interface {
	repository.EventRepository
	repository.CategoryRepository
	ListGroups(ctx context.Context, eventID int64) ([]models.Group, error)
	ListParticipantIDs(ctx context.Context, eventID int64) ([]int64, error)
	ListEventVotes(ctx context.Context, eventID int64) ([]models.Vote, error)
	ListActiveVotingSessions(ctx context.Context, eventID int64, since time.Time) ([]models.VotingSession, error)
}

// ResultsService computes leaderboards from stored ratings
type ResultsService struct {
	log     logger.Logger
	repo    ResultsServiceRepository
	clock   Clock
	metrics *metrics.Metrics
}

// NewResultsService creates a new ResultsService
func NewResultsService(log logger.Logger, repo ResultsServiceRepository, clock Clock, m *metrics.Metrics) *ResultsService {
	return &ResultsService{log: log, repo: repo, clock: clock, metrics: m}
}

// Progress reports how many complete votes the current presentation has
type Progress struct {
	CurrentPresentationID *int64 `json:"current_presentation_id"`
	CompleteVotes         int    `json:"complete_votes"`
	PotentialVoters       int    `json:"potential_voters"`
}

// ScoredGroups picks the groups that appear on the leaderboard: those placed in
// the presentation order, or every submitted group when no order is set.
// groups must already be sorted by presentation order.
func ScoredGroups(groups []models.Group) []models.Group {
	var ordered []models.Group
	for _, g := range groups {
		if g.PresentationOrder != nil {
			ordered = append(ordered, g)
		}
	}
	if len(ordered) > 0 {
		return ordered
	}
	var submitted []models.Group
	for _, g := range groups {
		if g.Status == models.GroupSubmitted || g.Status == models.GroupLate {
			submitted = append(submitted, g)
		}
	}
	return submitted
}

// ComputeLeaderboard recomputes the full leaderboard, podium and category winners
func (s *ResultsService) ComputeLeaderboard(ctx context.Context, eventID int64) (*scoring.Leaderboard, error) {
	start := time.Now()

	if _, err := loadEvent(ctx, s.repo, eventID); err != nil {
		return nil, err
	}
	categories, err := s.repo.ListCategories(ctx, eventID)
	if err != nil {
		return nil, err
	}
	groups, err := s.repo.ListGroups(ctx, eventID)
	if err != nil {
		return nil, err
	}
	votes, err := s.repo.ListEventVotes(ctx, eventID)
	if err != nil {
		return nil, err
	}

	lb := scoring.Compute(categories, ScoredGroups(groups), votes)
	s.metrics.LeaderboardComputed(time.Since(start))
	s.log.Debug("Leaderboard computed", "event_id", eventID, "groups", len(lb.Groups), "votes", len(votes))
	return &lb, nil
}

// PresentationProgress counts complete votes for the current presentation
// against everyone who could vote.
func (s *ResultsService) PresentationProgress(ctx context.Context, eventID int64) (*Progress, error) {
	event, err := loadEvent(ctx, s.repo, eventID)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.ListParticipantIDs(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.ListActiveVotingSessions(ctx, eventID, s.clock.Now().Add(-ActiveWindow))
	if err != nil {
		return nil, err
	}
	progress := &Progress{
		CurrentPresentationID: event.CurrentPresentationID,
		PotentialVoters:       len(users) + len(sessions),
	}
	if event.CurrentPresentationID == nil {
		return progress, nil
	}

	categories, err := s.repo.ListCategories(ctx, eventID)
	if err != nil {
		return nil, err
	}
	votes, err := s.repo.ListEventVotes(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for _, v := range votes {
		if v.GroupID == *event.CurrentPresentationID && scoring.IsComplete(v, categories) {
			progress.CompleteVotes++
		}
	}
	return progress, nil
}
