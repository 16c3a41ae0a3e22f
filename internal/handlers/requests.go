package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate decodes the JSON body and checks its validate tags
func decodeAndValidate(r *http.Request, target interface{}) error {
	if err := decodeJSON(r, target); err != nil {
		return err
	}
	return validateRequest(target)
}

// validateRequest turns validator failures into a 400 with a readable message
func validateRequest(target interface{}) error {
	err := validate.Struct(target)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return BadRequest(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return ValidationFailed(strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "eqfield":
		return field + " does not match"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// SignupRequest represents a request to create an account
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateNameRequest changes the signed-in user's display name
type UpdateNameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// UpdateEmailRequest changes the account email; the password confirms it
type UpdateEmailRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdatePasswordRequest changes the account password
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// LoginRequest represents a request to sign in
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CategoryRequest is one category of a new event
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// EventCreateRequest represents a request to create an event
type EventCreateRequest struct {
	Name        string            `json:"name" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=2000"`
	Categories  []CategoryRequest `json:"categories" validate:"required,min=1,dive"`
}

// EventUpdateRequest changes an event's name and description
type EventUpdateRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// CategoryUpdateRequest is one entry of an edited category list; id 0 adds a category
type CategoryUpdateRequest struct {
	ID          int64  `json:"id" validate:"min=0"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// CategoriesUpdateRequest replaces an event's category list
type CategoriesUpdateRequest struct {
	Categories []CategoryUpdateRequest `json:"categories" validate:"required,min=1,dive"`
}

// OrderRequest carries a new ordering of ids
type OrderRequest struct {
	IDs []int64 `json:"ids" validate:"dive,gt=0"`
}

// SubmissionsRequest opens or closes presentation submissions
type SubmissionsRequest struct {
	Closed *bool `json:"closed" validate:"required"`
}

// GroupCreateRequest represents a request to create a presentation group
type GroupCreateRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Emoji string `json:"emoji" validate:"max=16"`
}

// GroupUpdateRequest renames a group
type GroupUpdateRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Emoji string `json:"emoji" validate:"max=16"`
}

// GroupJoinRequest represents a request to join a group by invite code
type GroupJoinRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

// PresentationSubmitRequest represents a group's presentation submission
type PresentationSubmitRequest struct {
	Link string `json:"link" validate:"omitempty,url,max=2000"`
}

// VotingSessionRequest represents a request for an anonymous voting session
type VotingSessionRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=50"`
}

// CurrentPresentationRequest points the event at a group; null clears it
type CurrentPresentationRequest struct {
	GroupID *int64 `json:"group_id" validate:"omitempty,gt=0"`
}

// RatingRequest is one (category, stars) pair
type RatingRequest struct {
	CategoryID int64 `json:"category_id" validate:"required,gt=0"`
	Stars      int   `json:"stars" validate:"required,min=1,max=5"`
}

// VoteSubmitRequest represents a full vote for one group
type VoteSubmitRequest struct {
	GroupID     int64           `json:"group_id" validate:"required,gt=0"`
	Ratings     []RatingRequest `json:"ratings" validate:"required,min=1,dive"`
	DisplayName string          `json:"display_name" validate:"max=50"`
}

// RatingSaveRequest represents a single auto-saved rating
type RatingSaveRequest struct {
	GroupID     int64  `json:"group_id" validate:"required,gt=0"`
	CategoryID  int64  `json:"category_id" validate:"required,gt=0"`
	Stars       int    `json:"stars" validate:"required,min=1,max=5"`
	DisplayName string `json:"display_name" validate:"max=50"`
}

// TimerStartRequest represents a request to start the presentation timer
type TimerStartRequest struct {
	Minutes int `json:"minutes" validate:"required,min=1"`
}

// RevealRequest sets the winners reveal step
type RevealRequest struct {
	Step *int `json:"step" validate:"required,min=0"`
}
