package services

import (
	"github.com/abrezinsky/livevote/internal/errors"
)

// Service errors
var (
	ErrEventNotFound     = errors.NotFound("event not found")
	ErrGroupNotFound     = errors.NotFound("group not found")
	ErrSessionNotFound   = errors.NotFound("voting session not found")
	ErrUserNotFound      = errors.NotFound("user not found")
	ErrNotHost           = errors.Forbidden("only the event host can do this")
	ErrNotGroupMember    = errors.Forbidden("only group members can submit a presentation")
	ErrNotGroupLeader    = errors.Forbidden("only the group leader can do this")
	ErrRemoveSelf        = errors.Validation("you cannot remove yourself from the group")
	ErrNotParticipant    = errors.NotFound("user is not in any group of this event")
	ErrMemberNotFound    = errors.NotFound("user is not a member of this group")
	ErrCategoryMismatch  = errors.Validation("category list contains unknown or repeated categories")
	ErrWrongPassword     = errors.Validation("current password is incorrect")
	ErrNameRequired      = errors.Validation("name is required")
	ErrNoVoterIdentity   = errors.Unauthenticated("sign in or provide a display name to vote")
	ErrInvalidSession    = errors.InvalidSession("voting session is not valid for this event")
	ErrBadCredentials    = errors.Unauthenticated("invalid email or password")
	ErrEmailTaken        = errors.Conflict("an account with this email already exists")
	ErrAlreadyMember     = errors.Conflict("already a member of this group")
	ErrEmptyRatings      = errors.Validation("at least one rating is required")
	ErrStarsOutOfRange   = errors.Validation("stars must be between 1 and 5")
	ErrUnknownCategory   = errors.Validation("category does not belong to this event")
	ErrDuplicateRating   = errors.Validation("each category may be rated once")
	ErrNoCategories      = errors.Validation("an event needs at least one category")
	ErrOrderMismatch     = errors.Validation("ordering contains missing, unknown or repeated items")
	ErrNegativeReveal    = errors.Validation("reveal step cannot be negative")
	ErrPasswordTooShort  = errors.Validation("password must be at least 8 characters")
	ErrSubmissionsClosed = errors.Validation("submissions are closed for this event")
	ErrCodeExhausted     = errors.Internalf("failed to generate a unique code")
)
