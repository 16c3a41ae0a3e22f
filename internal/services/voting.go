package services

import (
	"context"

	"github.com/abrezinsky/livevote/internal/logger"
	"github.com/abrezinsky/livevote/internal/metrics"
	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/repository"
)

// VotingServiceRepository defines the repository methods needed by VotingService
type VotingServiceRepository interface {
	repository.EventRepository
	repository.CategoryRepository
	repository.VoteRepository
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	GetVotingSession(ctx context.Context, id int64) (*models.VotingSession, error)
	DeleteVotingSession(ctx context.Context, id int64) error
}

// VotingService is the vote ledger: one vote per (event, group, voter)
type VotingService struct {
	notifier
	log     logger.Logger
	repo    VotingServiceRepository
	clock   Clock
	metrics *metrics.Metrics
}

// NewVotingService creates a new VotingService
func NewVotingService(log logger.Logger, repo VotingServiceRepository, clock Clock, m *metrics.Metrics) *VotingService {
	return &VotingService{log: log, repo: repo, clock: clock, metrics: m}
}

// VoterVotes maps group id -> category id -> stars
type VoterVotes map[int64]map[int64]int

// SubmitVote creates the voter's vote for a group or replaces all of its ratings.
// Resubmitting the same ratings leaves the stored state unchanged.
func (s *VotingService) SubmitVote(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity, ratings []models.RatingInput) (*models.Vote, error) {
	if !voter.Valid() {
		return nil, ErrNoVoterIdentity
	}
	if err := s.CheckBallot(ctx, eventID, groupID, ratings); err != nil {
		return nil, err
	}

	if _, err := s.repo.ReplaceVoteRatings(ctx, eventID, groupID, voter, ratings, s.clock.Now()); err != nil {
		return nil, err
	}
	s.metrics.VoteRecorded("submit")
	s.log.Debug("Vote submitted", "event_id", eventID, "group_id", groupID, "voter", voter.String(), "ratings", len(ratings))
	s.notify(eventID, MsgVotes, map[string]interface{}{"group_id": groupID})
	return s.repo.GetVoterVote(ctx, eventID, groupID, voter)
}

// AutoSaveRating upserts a single rating, creating the vote on first use
func (s *VotingService) AutoSaveRating(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity, categoryID int64, stars int) (*models.Vote, error) {
	if !voter.Valid() {
		return nil, ErrNoVoterIdentity
	}
	if err := s.CheckBallot(ctx, eventID, groupID, []models.RatingInput{{CategoryID: categoryID, Stars: stars}}); err != nil {
		return nil, err
	}

	if _, err := s.repo.UpsertRating(ctx, eventID, groupID, voter, categoryID, stars, s.clock.Now()); err != nil {
		return nil, err
	}
	s.metrics.VoteRecorded("autosave")
	s.notify(eventID, MsgVotes, map[string]interface{}{"group_id": groupID})
	return s.repo.GetVoterVote(ctx, eventID, groupID, voter)
}

// CheckBallot validates ratings for a group of the event without writing anything.
// Callers run it before creating a voter identity so a rejected vote leaves no trace.
func (s *VotingService) CheckBallot(ctx context.Context, eventID, groupID int64, ratings []models.RatingInput) error {
	if len(ratings) == 0 {
		return ErrEmptyRatings
	}
	if err := s.checkTarget(ctx, eventID, groupID); err != nil {
		return err
	}
	categories, err := s.categorySet(ctx, eventID)
	if err != nil {
		return err
	}

	seen := make(map[int64]bool, len(ratings))
	for _, r := range ratings {
		if err := checkRating(categories, r.CategoryID, r.Stars); err != nil {
			return err
		}
		if seen[r.CategoryID] {
			return ErrDuplicateRating
		}
		seen[r.CategoryID] = true
	}
	return nil
}

// ResetVotes deletes every vote and rating of the event. Host only.
func (s *VotingService) ResetVotes(ctx context.Context, eventID, actorID int64) (int64, error) {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return 0, err
	}
	removed, err := s.repo.DeleteEventVotes(ctx, eventID)
	if err != nil {
		return 0, err
	}
	s.metrics.VotesRemoved(removed)
	s.log.Info("Votes reset", "event_id", eventID, "removed", removed)
	s.notify(eventID, MsgVotes, map[string]interface{}{"reset": true})
	return removed, nil
}

// GetVoterVotes returns the voter's stored stars for pre-filling the ballot
func (s *VotingService) GetVoterVotes(ctx context.Context, eventID int64, voter models.VoterIdentity) (VoterVotes, error) {
	if !voter.Valid() {
		return nil, ErrNoVoterIdentity
	}
	votes, err := s.repo.ListVoterVotes(ctx, eventID, voter)
	if err != nil {
		return nil, err
	}
	result := make(VoterVotes, len(votes))
	for _, v := range votes {
		stars := make(map[int64]int, len(v.Ratings))
		for _, r := range v.Ratings {
			stars[r.CategoryID] = r.Stars
		}
		result[v.GroupID] = stars
	}
	return result, nil
}

// RemoveVotingSession deletes an anonymous voter and its votes. Host only.
func (s *VotingService) RemoveVotingSession(ctx context.Context, eventID, actorID, sessionID int64) error {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return err
	}
	session, err := s.repo.GetVotingSession(ctx, sessionID)
	if err == repository.ErrNotFound || (err == nil && session.EventID != eventID) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	if err := s.repo.DeleteVotingSession(ctx, sessionID); err != nil {
		return err
	}
	s.log.Info("Voting session removed", "event_id", eventID, "session_id", sessionID)
	s.notify(eventID, MsgParticipants, nil)
	s.notify(eventID, MsgVotes, map[string]interface{}{"session_removed": sessionID})
	return nil
}

// checkTarget ensures the event exists and the group belongs to it
func (s *VotingService) checkTarget(ctx context.Context, eventID, groupID int64) error {
	if _, err := loadEvent(ctx, s.repo, eventID); err != nil {
		return err
	}
	group, err := s.repo.GetGroup(ctx, groupID)
	if err == repository.ErrNotFound || (err == nil && group.EventID != eventID) {
		return ErrGroupNotFound
	}
	return err
}

func (s *VotingService) categorySet(ctx context.Context, eventID int64) (map[int64]bool, error) {
	categories, err := s.repo.ListCategories(ctx, eventID)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(categories))
	for _, c := range categories {
		set[c.ID] = true
	}
	return set, nil
}

func checkRating(categories map[int64]bool, categoryID int64, stars int) error {
	if stars < 1 || stars > 5 {
		return ErrStarsOutOfRange
	}
	if !categories[categoryID] {
		return ErrUnknownCategory
	}
	return nil
}
