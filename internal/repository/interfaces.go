package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/livevote/internal/models"
)

// UserRepository defines account data operations
type UserRepository interface {
	CreateUser(ctx context.Context, email, name, passwordHash string, now time.Time) (int64, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserName(ctx context.Context, id int64, name string) error
	UpdateUserEmail(ctx context.Context, id int64, email string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error
}

// EventRepository defines event and live-state data operations
type EventRepository interface {
	CreateEvent(ctx context.Context, hostID int64, name, description, joinCode string, categories []models.Category, now time.Time) (int64, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	GetEventByJoinCode(ctx context.Context, joinCode string) (*models.Event, error)
	ListEventsByHost(ctx context.Context, hostID int64) ([]models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	UpdateEventDetails(ctx context.Context, id int64, name, description string) error
	SetSubmissionsClosed(ctx context.Context, id int64, closed bool) error
	ActivateEvent(ctx context.Context, id int64) (bool, error)
	SetEventStatus(ctx context.Context, id int64, status models.EventStatus) error
	CompleteEvent(ctx context.Context, id int64) error
	SetCurrentPresentation(ctx context.Context, id int64, groupID *int64) error
	SetRevealStep(ctx context.Context, id int64, step int) error
	IncrementConfetti(ctx context.Context, id int64, at time.Time) (int, error)
	SetTimer(ctx context.Context, id int64, timer models.Timer) error
}

// CategoryRepository defines category data operations
type CategoryRepository interface {
	ListCategories(ctx context.Context, eventID int64) ([]models.Category, error)
	ReorderCategories(ctx context.Context, eventID int64, categoryIDs []int64) error
	ReplaceCategories(ctx context.Context, eventID int64, categories []models.Category) error
}

// GroupRepository defines group and membership data operations
type GroupRepository interface {
	CreateGroup(ctx context.Context, eventID, leaderID int64, name, emoji, inviteCode string, now time.Time) (int64, error)
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	GetGroupByInviteCode(ctx context.Context, inviteCode string) (*models.Group, error)
	ListGroups(ctx context.Context, eventID int64) ([]models.Group, error)
	AddGroupMember(ctx context.Context, groupID, userID int64, isLeader bool, now time.Time) error
	RemoveGroupMember(ctx context.Context, groupID, userID int64) error
	RemoveParticipant(ctx context.Context, eventID, userID int64) (int64, error)
	UpdateGroup(ctx context.Context, id int64, name, emoji string) error
	DeleteGroup(ctx context.Context, id int64) error
	GetMembership(ctx context.Context, groupID, userID int64) (*models.GroupMember, error)
	SubmitGroup(ctx context.Context, groupID int64, link string, status models.GroupStatus, at time.Time) error
	ReorderPresentations(ctx context.Context, eventID int64, groupIDs []int64) error
	ListParticipantIDs(ctx context.Context, eventID int64) ([]int64, error)
}

// VotingSessionRepository defines anonymous voter data operations
type VotingSessionRepository interface {
	CreateVotingSession(ctx context.Context, eventID int64, sessionCode, displayName string, now time.Time) (int64, error)
	GetVotingSession(ctx context.Context, id int64) (*models.VotingSession, error)
	GetVotingSessionByCode(ctx context.Context, sessionCode string) (*models.VotingSession, error)
	TouchVotingSession(ctx context.Context, id int64, now time.Time) error
	ListActiveVotingSessions(ctx context.Context, eventID int64, since time.Time) ([]models.VotingSession, error)
	DeleteVotingSession(ctx context.Context, id int64) error
}

// VoteRepository defines vote and rating data operations
type VoteRepository interface {
	ReplaceVoteRatings(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity, ratings []models.RatingInput, now time.Time) (int64, error)
	UpsertRating(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity, categoryID int64, stars int, now time.Time) (int64, error)
	GetVoterVote(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity) (*models.Vote, error)
	ListVoterVotes(ctx context.Context, eventID int64, voter models.VoterIdentity) ([]models.Vote, error)
	ListEventVotes(ctx context.Context, eventID int64) ([]models.Vote, error)
	DeleteEventVotes(ctx context.Context, eventID int64) (int64, error)
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	UserRepository
	EventRepository
	CategoryRepository
	GroupRepository
	VotingSessionRepository
	VoteRepository
	Ping(ctx context.Context) error
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
