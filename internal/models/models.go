package models

import (
	"fmt"
	"time"
)

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventSetup     EventStatus = "setup"
	EventLive      EventStatus = "live"
	EventVoting    EventStatus = "voting"
	EventCompleted EventStatus = "completed"
	// EventActive is set when the host backs out of the winners screen
	EventActive EventStatus = "active"
)

// GroupStatus is the submission state of a group
type GroupStatus string

const (
	GroupNotSubmitted GroupStatus = "not_submitted"
	GroupSubmitted    GroupStatus = "submitted"
	GroupLate         GroupStatus = "late"
)

// User is a registered account
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Timer holds the stored presentation timer fields.
// Running: StartedAt set and PausedAt nil. Paused: PausedAt set. Stopped: all nil.
type Timer struct {
	StartedAt       *time.Time `json:"timer_started_at,omitempty"`
	Duration        *int       `json:"timer_duration,omitempty"` // seconds
	PausedAt        *time.Time `json:"timer_paused_at,omitempty"`
	PausedRemaining *int       `json:"timer_paused_remaining,omitempty"` // seconds
}

// Event is a live presentation night
type Event struct {
	ID                    int64       `json:"id"`
	HostID                int64       `json:"host_id"`
	Name                  string      `json:"name"`
	Description           string      `json:"description,omitempty"`
	JoinCode              string      `json:"join_code"`
	Status                EventStatus `json:"status"`
	SubmissionsClosed     bool        `json:"submissions_closed"`
	CurrentPresentationID *int64      `json:"current_presentation_id"`
	Timer
	WinnersRevealStep   int        `json:"winners_reveal_step"`
	ConfettiCount       int        `json:"confetti_count"`
	ConfettiTriggeredAt *time.Time `json:"confetti_triggered_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Category is a rating dimension of an event
type Category struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"event_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
}

// Group is a team presenting at an event
type Group struct {
	ID                int64         `json:"id"`
	EventID           int64         `json:"event_id"`
	Name              string        `json:"name"`
	Emoji             string        `json:"emoji,omitempty"`
	InviteCode        string        `json:"invite_code,omitempty"`
	Status            GroupStatus   `json:"status"`
	SubmissionLink    string        `json:"submission_link,omitempty"`
	SubmittedAt       *time.Time    `json:"submitted_at,omitempty"`
	PresentationOrder *int          `json:"presentation_order"`
	Members           []GroupMember `json:"members,omitempty"`
}

// GroupMember links a user to a group
type GroupMember struct {
	GroupID  int64  `json:"group_id"`
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
	IsLeader bool   `json:"is_leader"`
}

// VotingSession is an anonymous voter bound to one event
type VotingSession struct {
	ID          int64     `json:"id"`
	EventID     int64     `json:"event_id"`
	SessionCode string    `json:"session_code"`
	DisplayName string    `json:"display_name"`
	LastActive  time.Time `json:"last_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// VoterIdentity identifies who cast a vote: exactly one field is set
type VoterIdentity struct {
	UserID          *int64 `json:"user_id,omitempty"`
	VotingSessionID *int64 `json:"voting_session_id,omitempty"`
}

// UserVoter returns the identity of an authenticated user
func UserVoter(userID int64) VoterIdentity {
	return VoterIdentity{UserID: &userID}
}

// SessionVoter returns the identity of an anonymous voting session
func SessionVoter(sessionID int64) VoterIdentity {
	return VoterIdentity{VotingSessionID: &sessionID}
}

// Valid reports whether exactly one of the identity fields is set
func (v VoterIdentity) Valid() bool {
	return (v.UserID == nil) != (v.VotingSessionID == nil)
}

// String renders the identity for logs, e.g. "user:4" or "session:9"
func (v VoterIdentity) String() string {
	switch {
	case v.UserID != nil && v.VotingSessionID == nil:
		return fmt.Sprintf("user:%d", *v.UserID)
	case v.VotingSessionID != nil && v.UserID == nil:
		return fmt.Sprintf("session:%d", *v.VotingSessionID)
	default:
		return "invalid"
	}
}

// Vote is one voter's ratings for one group
type Vote struct {
	ID      int64         `json:"id"`
	EventID int64         `json:"event_id"`
	GroupID int64         `json:"group_id"`
	Voter   VoterIdentity `json:"voter"`
	Ratings []Rating      `json:"ratings"`
	// UpdatedAt is the last time any rating of the vote was written
	UpdatedAt time.Time `json:"updated_at"`
}

// Rating is the star score of a vote in one category
type Rating struct {
	VoteID     int64 `json:"vote_id"`
	CategoryID int64 `json:"category_id"`
	Stars      int   `json:"stars"`
}

// RatingInput is a submitted (category, stars) pair
type RatingInput struct {
	CategoryID int64 `json:"category_id"`
	Stars      int   `json:"stars"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	EventID int64       `json:"event_id,omitempty"`
	Payload interface{} `json:"payload"`
}
