package mock

import (
	"context"
	"time"

	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.ListEventVotesError = errors.New("database error")
//	svc := services.NewResultsService(log, mockRepo)
//	_, err := svc.Leaderboard(ctx, eventID)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== User Errors =====
	CreateUserError         error
	GetUserError            error
	GetUserByEmailError     error
	UpdateUserNameError     error
	UpdateUserEmailError    error
	UpdateUserPasswordError error
	DeleteUserError         error

	// ===== Event Errors =====
	CreateEventError            error
	GetEventError               error
	GetEventByJoinCodeError     error
	ListEventsByHostError       error
	DeleteEventError            error
	UpdateEventDetailsError     error
	SetSubmissionsClosedError   error
	ActivateEventError          error
	SetEventStatusError         error
	CompleteEventError          error
	SetCurrentPresentationError error
	SetRevealStepError          error
	IncrementConfettiError      error
	SetTimerError               error

	// ===== Category Errors =====
	ListCategoriesError    error
	ReorderCategoriesError error
	ReplaceCategoriesError error

	// ===== Group Errors =====
	CreateGroupError          error
	GetGroupError             error
	GetGroupByInviteCodeError error
	ListGroupsError           error
	AddGroupMemberError       error
	RemoveGroupMemberError    error
	RemoveParticipantError    error
	UpdateGroupError          error
	DeleteGroupError          error
	GetMembershipError        error
	SubmitGroupError          error
	ReorderPresentationsError error
	ListParticipantIDsError   error

	// ===== Voting Session Errors =====
	CreateVotingSessionError      error
	GetVotingSessionError         error
	GetVotingSessionByCodeError   error
	TouchVotingSessionError       error
	ListActiveVotingSessionsError error
	DeleteVotingSessionError      error

	// ===== Vote Errors =====
	ReplaceVoteRatingsError error
	UpsertRatingError       error
	GetVoterVoteError       error
	ListVoterVotesError     error
	ListEventVotesError     error
	DeleteEventVotesError   error

	PingError error

	// CreateVotingSessionDuplicates makes the first N CreateVotingSession calls
	// fail with repository.ErrDuplicate, simulating session code collisions.
	CreateVotingSessionDuplicates int
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== User Methods =====

func (m *Repository) CreateUser(ctx context.Context, email, name, passwordHash string, now time.Time) (int64, error) {
	if m.CreateUserError != nil {
		return 0, m.CreateUserError
	}
	return m.FullRepository.CreateUser(ctx, email, name, passwordHash, now)
}

func (m *Repository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	return m.FullRepository.GetUser(ctx, id)
}

func (m *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetUserByEmailError != nil {
		return nil, m.GetUserByEmailError
	}
	return m.FullRepository.GetUserByEmail(ctx, email)
}

func (m *Repository) UpdateUserName(ctx context.Context, id int64, name string) error {
	if m.UpdateUserNameError != nil {
		return m.UpdateUserNameError
	}
	return m.FullRepository.UpdateUserName(ctx, id, name)
}

func (m *Repository) UpdateUserEmail(ctx context.Context, id int64, email string) error {
	if m.UpdateUserEmailError != nil {
		return m.UpdateUserEmailError
	}
	return m.FullRepository.UpdateUserEmail(ctx, id, email)
}

func (m *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	if m.UpdateUserPasswordError != nil {
		return m.UpdateUserPasswordError
	}
	return m.FullRepository.UpdateUserPassword(ctx, id, passwordHash)
}

func (m *Repository) DeleteUser(ctx context.Context, id int64) error {
	if m.DeleteUserError != nil {
		return m.DeleteUserError
	}
	return m.FullRepository.DeleteUser(ctx, id)
}

// ===== Event Methods =====

func (m *Repository) CreateEvent(ctx context.Context, hostID int64, name, description, joinCode string, categories []models.Category, now time.Time) (int64, error) {
	if m.CreateEventError != nil {
		return 0, m.CreateEventError
	}
	return m.FullRepository.CreateEvent(ctx, hostID, name, description, joinCode, categories, now)
}

func (m *Repository) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	if m.GetEventError != nil {
		return nil, m.GetEventError
	}
	return m.FullRepository.GetEvent(ctx, id)
}

func (m *Repository) GetEventByJoinCode(ctx context.Context, joinCode string) (*models.Event, error) {
	if m.GetEventByJoinCodeError != nil {
		return nil, m.GetEventByJoinCodeError
	}
	return m.FullRepository.GetEventByJoinCode(ctx, joinCode)
}

func (m *Repository) ListEventsByHost(ctx context.Context, hostID int64) ([]models.Event, error) {
	if m.ListEventsByHostError != nil {
		return nil, m.ListEventsByHostError
	}
	return m.FullRepository.ListEventsByHost(ctx, hostID)
}

func (m *Repository) DeleteEvent(ctx context.Context, id int64) error {
	if m.DeleteEventError != nil {
		return m.DeleteEventError
	}
	return m.FullRepository.DeleteEvent(ctx, id)
}

func (m *Repository) UpdateEventDetails(ctx context.Context, id int64, name, description string) error {
	if m.UpdateEventDetailsError != nil {
		return m.UpdateEventDetailsError
	}
	return m.FullRepository.UpdateEventDetails(ctx, id, name, description)
}

func (m *Repository) SetSubmissionsClosed(ctx context.Context, id int64, closed bool) error {
	if m.SetSubmissionsClosedError != nil {
		return m.SetSubmissionsClosedError
	}
	return m.FullRepository.SetSubmissionsClosed(ctx, id, closed)
}

func (m *Repository) ActivateEvent(ctx context.Context, id int64) (bool, error) {
	if m.ActivateEventError != nil {
		return false, m.ActivateEventError
	}
	return m.FullRepository.ActivateEvent(ctx, id)
}

func (m *Repository) SetEventStatus(ctx context.Context, id int64, status models.EventStatus) error {
	if m.SetEventStatusError != nil {
		return m.SetEventStatusError
	}
	return m.FullRepository.SetEventStatus(ctx, id, status)
}

func (m *Repository) CompleteEvent(ctx context.Context, id int64) error {
	if m.CompleteEventError != nil {
		return m.CompleteEventError
	}
	return m.FullRepository.CompleteEvent(ctx, id)
}

func (m *Repository) SetCurrentPresentation(ctx context.Context, id int64, groupID *int64) error {
	if m.SetCurrentPresentationError != nil {
		return m.SetCurrentPresentationError
	}
	return m.FullRepository.SetCurrentPresentation(ctx, id, groupID)
}

func (m *Repository) SetRevealStep(ctx context.Context, id int64, step int) error {
	if m.SetRevealStepError != nil {
		return m.SetRevealStepError
	}
	return m.FullRepository.SetRevealStep(ctx, id, step)
}

func (m *Repository) IncrementConfetti(ctx context.Context, id int64, at time.Time) (int, error) {
	if m.IncrementConfettiError != nil {
		return 0, m.IncrementConfettiError
	}
	return m.FullRepository.IncrementConfetti(ctx, id, at)
}

func (m *Repository) SetTimer(ctx context.Context, id int64, timer models.Timer) error {
	if m.SetTimerError != nil {
		return m.SetTimerError
	}
	return m.FullRepository.SetTimer(ctx, id, timer)
}

// ===== Category Methods =====

func (m *Repository) ListCategories(ctx context.Context, eventID int64) ([]models.Category, error) {
	if m.ListCategoriesError != nil {
		return nil, m.ListCategoriesError
	}
	return m.FullRepository.ListCategories(ctx, eventID)
}

func (m *Repository) ReorderCategories(ctx context.Context, eventID int64, categoryIDs []int64) error {
	if m.ReorderCategoriesError != nil {
		return m.ReorderCategoriesError
	}
	return m.FullRepository.ReorderCategories(ctx, eventID, categoryIDs)
}

func (m *Repository) ReplaceCategories(ctx context.Context, eventID int64, categories []models.Category) error {
	if m.ReplaceCategoriesError != nil {
		return m.ReplaceCategoriesError
	}
	return m.FullRepository.ReplaceCategories(ctx, eventID, categories)
}

// ===== Group Methods =====

func (m *Repository) CreateGroup(ctx context.Context, eventID, leaderID int64, name, emoji, inviteCode string, now time.Time) (int64, error) {
	if m.CreateGroupError != nil {
		return 0, m.CreateGroupError
	}
	return m.FullRepository.CreateGroup(ctx, eventID, leaderID, name, emoji, inviteCode, now)
}

func (m *Repository) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	if m.GetGroupError != nil {
		return nil, m.GetGroupError
	}
	return m.FullRepository.GetGroup(ctx, id)
}

func (m *Repository) GetGroupByInviteCode(ctx context.Context, inviteCode string) (*models.Group, error) {
	if m.GetGroupByInviteCodeError != nil {
		return nil, m.GetGroupByInviteCodeError
	}
	return m.FullRepository.GetGroupByInviteCode(ctx, inviteCode)
}

func (m *Repository) ListGroups(ctx context.Context, eventID int64) ([]models.Group, error) {
	if m.ListGroupsError != nil {
		return nil, m.ListGroupsError
	}
	return m.FullRepository.ListGroups(ctx, eventID)
}

func (m *Repository) AddGroupMember(ctx context.Context, groupID, userID int64, isLeader bool, now time.Time) error {
	if m.AddGroupMemberError != nil {
		return m.AddGroupMemberError
	}
	return m.FullRepository.AddGroupMember(ctx, groupID, userID, isLeader, now)
}

func (m *Repository) RemoveGroupMember(ctx context.Context, groupID, userID int64) error {
	if m.RemoveGroupMemberError != nil {
		return m.RemoveGroupMemberError
	}
	return m.FullRepository.RemoveGroupMember(ctx, groupID, userID)
}

func (m *Repository) RemoveParticipant(ctx context.Context, eventID, userID int64) (int64, error) {
	if m.RemoveParticipantError != nil {
		return 0, m.RemoveParticipantError
	}
	return m.FullRepository.RemoveParticipant(ctx, eventID, userID)
}

func (m *Repository) UpdateGroup(ctx context.Context, id int64, name, emoji string) error {
	if m.UpdateGroupError != nil {
		return m.UpdateGroupError
	}
	return m.FullRepository.UpdateGroup(ctx, id, name, emoji)
}

func (m *Repository) DeleteGroup(ctx context.Context, id int64) error {
	if m.DeleteGroupError != nil {
		return m.DeleteGroupError
	}
	return m.FullRepository.DeleteGroup(ctx, id)
}

func (m *Repository) GetMembership(ctx context.Context, groupID, userID int64) (*models.GroupMember, error) {
	if m.GetMembershipError != nil {
		return nil, m.GetMembershipError
	}
	return m.FullRepository.GetMembership(ctx, groupID, userID)
}

func (m *Repository) SubmitGroup(ctx context.Context, groupID int64, link string, status models.GroupStatus, at time.Time) error {
	if m.SubmitGroupError != nil {
		return m.SubmitGroupError
	}
	return m.FullRepository.SubmitGroup(ctx, groupID, link, status, at)
}

func (m *Repository) ReorderPresentations(ctx context.Context, eventID int64, groupIDs []int64) error {
	if m.ReorderPresentationsError != nil {
		return m.ReorderPresentationsError
	}
	return m.FullRepository.ReorderPresentations(ctx, eventID, groupIDs)
}

func (m *Repository) ListParticipantIDs(ctx context.Context, eventID int64) ([]int64, error) {
	if m.ListParticipantIDsError != nil {
		return nil, m.ListParticipantIDsError
	}
	return m.FullRepository.ListParticipantIDs(ctx, eventID)
}

// ===== Voting Session Methods =====

func (m *Repository) CreateVotingSession(ctx context.Context, eventID int64, sessionCode, displayName string, now time.Time) (int64, error) {
	if m.CreateVotingSessionError != nil {
		return 0, m.CreateVotingSessionError
	}
	if m.CreateVotingSessionDuplicates > 0 {
		m.CreateVotingSessionDuplicates--
		return 0, repository.ErrDuplicate
	}
	return m.FullRepository.CreateVotingSession(ctx, eventID, sessionCode, displayName, now)
}

func (m *Repository) GetVotingSession(ctx context.Context, id int64) (*models.VotingSession, error) {
	if m.GetVotingSessionError != nil {
		return nil, m.GetVotingSessionError
	}
	return m.FullRepository.GetVotingSession(ctx, id)
}

func (m *Repository) GetVotingSessionByCode(ctx context.Context, sessionCode string) (*models.VotingSession, error) {
	if m.GetVotingSessionByCodeError != nil {
		return nil, m.GetVotingSessionByCodeError
	}
	return m.FullRepository.GetVotingSessionByCode(ctx, sessionCode)
}

func (m *Repository) TouchVotingSession(ctx context.Context, id int64, now time.Time) error {
	if m.TouchVotingSessionError != nil {
		return m.TouchVotingSessionError
	}
	return m.FullRepository.TouchVotingSession(ctx, id, now)
}

func (m *Repository) ListActiveVotingSessions(ctx context.Context, eventID int64, since time.Time) ([]models.VotingSession, error) {
	if m.ListActiveVotingSessionsError != nil {
		return nil, m.ListActiveVotingSessionsError
	}
	return m.FullRepository.ListActiveVotingSessions(ctx, eventID, since)
}

func (m *Repository) DeleteVotingSession(ctx context.Context, id int64) error {
	if m.DeleteVotingSessionError != nil {
		return m.DeleteVotingSessionError
	}
	return m.FullRepository.DeleteVotingSession(ctx, id)
}

// ===== Vote Methods =====

func (m *Repository) ReplaceVoteRatings(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity, ratings []models.RatingInput, now time.Time) (int64, error) {
	if m.ReplaceVoteRatingsError != nil {
		return 0, m.ReplaceVoteRatingsError
	}
	return m.FullRepository.ReplaceVoteRatings(ctx, eventID, groupID, voter, ratings, now)
}

func (m *Repository) UpsertRating(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity, categoryID int64, stars int, now time.Time) (int64, error) {
	if m.UpsertRatingError != nil {
		return 0, m.UpsertRatingError
	}
	return m.FullRepository.UpsertRating(ctx, eventID, groupID, voter, categoryID, stars, now)
}

func (m *Repository) GetVoterVote(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity) (*models.Vote, error) {
	if m.GetVoterVoteError != nil {
		return nil, m.GetVoterVoteError
	}
	return m.FullRepository.GetVoterVote(ctx, eventID, groupID, voter)
}

func (m *Repository) ListVoterVotes(ctx context.Context, eventID int64, voter models.VoterIdentity) ([]models.Vote, error) {
	if m.ListVoterVotesError != nil {
		return nil, m.ListVoterVotesError
	}
	return m.FullRepository.ListVoterVotes(ctx, eventID, voter)
}

func (m *Repository) ListEventVotes(ctx context.Context, eventID int64) ([]models.Vote, error) {
	if m.ListEventVotesError != nil {
		return nil, m.ListEventVotesError
	}
	return m.FullRepository.ListEventVotes(ctx, eventID)
}

func (m *Repository) DeleteEventVotes(ctx context.Context, eventID int64) (int64, error) {
	if m.DeleteEventVotesError != nil {
		return 0, m.DeleteEventVotesError
	}
	return m.FullRepository.DeleteEventVotes(ctx, eventID)
}

func (m *Repository) Ping(ctx context.Context) error {
	if m.PingError != nil {
		return m.PingError
	}
	return m.FullRepository.Ping(ctx)
}
