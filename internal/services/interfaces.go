package services

import (
	"context"

	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/scoring"
)

// UserServicer defines the interface for account operations
type UserServicer interface {
	Signup(ctx context.Context, email, name, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateName(ctx context.Context, userID int64, name string) (*models.User, error)
	UpdateEmail(ctx context.Context, userID int64, email, password string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, current, next string) error
	DeleteAccount(ctx context.Context, userID int64) error
}

// EventServicer defines the interface for event and group operations
type EventServicer interface {
	CreateEvent(ctx context.Context, hostID int64, in CreateEventInput) (*models.Event, error)
	GetEvent(ctx context.Context, eventID int64) (*EventDetails, error)
	GetEventByJoinCode(ctx context.Context, joinCode string) (*EventDetails, error)
	ListHostEvents(ctx context.Context, hostID int64) ([]models.Event, error)
	DeleteEvent(ctx context.Context, eventID, actorID int64) error
	UpdateEvent(ctx context.Context, eventID, actorID int64, name, description string) (*models.Event, error)
	UpdateCategories(ctx context.Context, eventID, actorID int64, inputs []CategoryInput) ([]models.Category, error)
	RemoveParticipant(ctx context.Context, eventID, actorID, userID int64) error
	CloseSubmissions(ctx context.Context, eventID, actorID int64, closed bool) error
	ReorderCategories(ctx context.Context, eventID, actorID int64, categoryIDs []int64) error
	ReorderPresentations(ctx context.Context, eventID, actorID int64, groupIDs []int64) error
	CreateGroup(ctx context.Context, joinCode string, userID int64, name, emoji string) (*models.Group, error)
	JoinGroup(ctx context.Context, joinCode, inviteCode string, userID int64) (*models.Group, error)
	SubmitPresentation(ctx context.Context, groupID, userID int64, link string) (*models.Group, error)
	UpdateGroup(ctx context.Context, groupID, actorID int64, name, emoji string) (*models.Group, error)
	DeleteGroup(ctx context.Context, groupID, actorID int64) error
	RemoveMember(ctx context.Context, groupID, actorID, userID int64) error
	ListGroups(ctx context.Context, eventID int64) ([]models.Group, error)
	JoinURL(event *models.Event) string
	JoinQRCode(ctx context.Context, eventID int64, size int) ([]byte, error)
	SetBroadcaster(b Broadcaster)
}

// IdentityServicer defines the interface for voter identity resolution
type IdentityServicer interface {
	ResolveVoterIdentity(ctx context.Context, req VoterRequest) (*ResolvedVoter, error)
	CreateVotingSession(ctx context.Context, eventID int64, displayName string) (*models.VotingSession, error)
	ActiveParticipants(ctx context.Context, eventID int64) (*Participants, error)
	SetBroadcaster(b Broadcaster)
}

// VotingServicer defines the interface for the vote ledger
type VotingServicer interface {
	CheckBallot(ctx context.Context, eventID, groupID int64, ratings []models.RatingInput) error
	SubmitVote(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity, ratings []models.RatingInput) (*models.Vote, error)
	AutoSaveRating(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity, categoryID int64, stars int) (*models.Vote, error)
	ResetVotes(ctx context.Context, eventID, actorID int64) (int64, error)
	GetVoterVotes(ctx context.Context, eventID int64, voter models.VoterIdentity) (VoterVotes, error)
	RemoveVotingSession(ctx context.Context, eventID, actorID, sessionID int64) error
	SetBroadcaster(b Broadcaster)
}

// ResultsServicer defines the interface for leaderboard operations
type ResultsServicer interface {
	ComputeLeaderboard(ctx context.Context, eventID int64) (*scoring.Leaderboard, error)
	PresentationProgress(ctx context.Context, eventID int64) (*Progress, error)
}

// LiveServicer defines the interface for live session and timer operations
type LiveServicer interface {
	LiveState(ctx context.Context, eventID int64) (*LiveState, error)
	ActivateIfHostViewing(ctx context.Context, eventID, actorID int64) (bool, error)
	OpenVoting(ctx context.Context, eventID, actorID int64) error
	ShowWinners(ctx context.Context, eventID, actorID int64) error
	BackToPresentations(ctx context.Context, eventID, actorID int64) error
	SetCurrentPresentation(ctx context.Context, eventID, actorID int64, groupID *int64) error
	StartTimer(ctx context.Context, eventID, actorID int64, minutes int) (*TimerState, error)
	PauseTimer(ctx context.Context, eventID, actorID int64) (*TimerState, error)
	ResumeTimer(ctx context.Context, eventID, actorID int64) (*TimerState, error)
	StopTimer(ctx context.Context, eventID, actorID int64) (*TimerState, error)
	RevealWinner(ctx context.Context, eventID, actorID int64, step int) error
	TriggerConfetti(ctx context.Context, eventID int64) (int, error)
	SetBroadcaster(b Broadcaster)
}

// Ensure concrete types implement interfaces
var (
	_ UserServicer     = (*UserService)(nil)
	_ EventServicer    = (*EventService)(nil)
	_ IdentityServicer = (*IdentityService)(nil)
	_ VotingServicer   = (*VotingService)(nil)
	_ ResultsServicer  = (*ResultsService)(nil)
	_ LiveServicer     = (*LiveService)(nil)
)
