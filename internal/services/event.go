package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/livevote/internal/errors"
	"github.com/abrezinsky/livevote/internal/logger"
	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/repository"
)

const defaultGroupEmoji = "📊"

// EventServiceRepository defines the repository methods needed by EventService
type EventServiceRepository interface {
	repository.EventRepository
	repository.CategoryRepository
	repository.GroupRepository
}

// EventService handles event setup, groups and submissions
type EventService struct {
	notifier
	log     logger.Logger
	repo    EventServiceRepository
	clock   Clock
	baseURL string
}

// NewEventService creates a new EventService
func NewEventService(log logger.Logger, repo EventServiceRepository, clock Clock, baseURL string) *EventService {
	return &EventService{
		log:     log,
		repo:    repo,
		clock:   clock,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// CategoryInput is a category to create with an event, or to keep (ID set)
// or add (ID zero) when the category list is edited
type CategoryInput struct {
	ID          int64
	Name        string
	Description string
}

// CreateEventInput holds the fields of a new event
type CreateEventInput struct {
	Name        string
	Description string
	Categories  []CategoryInput
}

// EventDetails is an event with its categories and groups
type EventDetails struct {
	Event      models.Event      `json:"event"`
	Categories []models.Category `json:"categories"`
	Groups     []models.Group    `json:"groups"`
}

// loadEvent fetches an event, translating a missing row
func loadEvent(ctx context.Context, repo repository.EventRepository, eventID int64) (*models.Event, error) {
	event, err := repo.GetEvent(ctx, eventID)
	if err == repository.ErrNotFound {
		return nil, ErrEventNotFound
	}
	return event, err
}

// requireHost loads the event and checks that actorID hosts it
func requireHost(ctx context.Context, repo repository.EventRepository, eventID, actorID int64) (*models.Event, error) {
	event, err := loadEvent(ctx, repo, eventID)
	if err != nil {
		return nil, err
	}
	if event.HostID != actorID {
		return nil, ErrNotHost
	}
	return event, nil
}

// CreateEvent creates an event in setup with its categories and a fresh join code
func (s *EventService) CreateEvent(ctx context.Context, hostID int64, in CreateEventInput) (*models.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.Validation("event name is required")
	}

	categories, err := categoryRows(in.Categories)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		joinCode := newReadableCode()
		id, err := s.repo.CreateEvent(ctx, hostID, name, strings.TrimSpace(in.Description), joinCode, categories, s.clock.Now())
		if err == repository.ErrDuplicate {
			s.log.Debug("Join code already taken, retrying", "code", joinCode, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.log.Info("Event created", "event_id", id, "host_id", hostID, "categories", len(categories))
		return s.repo.GetEvent(ctx, id)
	}
	return nil, ErrCodeExhausted
}

// categoryRows trims the inputs into ordered rows, skipping blank names
func categoryRows(inputs []CategoryInput) ([]models.Category, error) {
	var categories []models.Category
	for _, c := range inputs {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		categories = append(categories, models.Category{
			ID:          c.ID,
			Name:        name,
			Description: strings.TrimSpace(c.Description),
			Order:       len(categories),
		})
	}
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}
	return categories, nil
}

// GetEvent returns an event with its categories and groups
func (s *EventService) GetEvent(ctx context.Context, eventID int64) (*EventDetails, error) {
	event, err := loadEvent(ctx, s.repo, eventID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, event)
}

// GetEventByJoinCode resolves a join code to the event details
func (s *EventService) GetEventByJoinCode(ctx context.Context, joinCode string) (*EventDetails, error) {
	event, err := s.eventByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, event)
}

func (s *EventService) eventByJoinCode(ctx context.Context, joinCode string) (*models.Event, error) {
	event, err := s.repo.GetEventByJoinCode(ctx, strings.ToUpper(strings.TrimSpace(joinCode)))
	if err == repository.ErrNotFound {
		return nil, ErrEventNotFound
	}
	return event, err
}

func (s *EventService) details(ctx context.Context, event *models.Event) (*EventDetails, error) {
	categories, err := s.repo.ListCategories(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	groups, err := s.repo.ListGroups(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return &EventDetails{Event: *event, Categories: categories, Groups: groups}, nil
}

// ListHostEvents returns the events a user hosts, newest first
func (s *EventService) ListHostEvents(ctx context.Context, hostID int64) ([]models.Event, error) {
	return s.repo.ListEventsByHost(ctx, hostID)
}

// DeleteEvent removes an event and everything in it
func (s *EventService) DeleteEvent(ctx context.Context, eventID, actorID int64) error {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return err
	}
	if err := s.repo.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	s.log.Info("Event deleted", "event_id", eventID)
	s.notify(eventID, MsgStatus, map[string]interface{}{"deleted": true})
	return nil
}

// UpdateEvent changes the event's name and description
func (s *EventService) UpdateEvent(ctx context.Context, eventID, actorID int64, name, description string) (*models.Event, error) {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("event name is required")
	}
	if err := s.repo.UpdateEventDetails(ctx, eventID, name, strings.TrimSpace(description)); err != nil {
		return nil, err
	}
	s.log.Info("Event updated", "event_id", eventID)
	s.notify(eventID, MsgEvent, nil)
	return s.repo.GetEvent(ctx, eventID)
}

// UpdateCategories replaces the event's category list. Categories listed by ID
// keep their ratings; unlisted ones are deleted with theirs, which changes
// scores and vote completeness from then on.
func (s *EventService) UpdateCategories(ctx context.Context, eventID, actorID int64, inputs []CategoryInput) ([]models.Category, error) {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return nil, err
	}
	categories, err := categoryRows(inputs)
	if err != nil {
		return nil, err
	}
	err = s.repo.ReplaceCategories(ctx, eventID, categories)
	if err == repository.ErrOrderMismatch {
		return nil, ErrCategoryMismatch
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("Categories updated", "event_id", eventID, "categories", len(categories))
	s.notify(eventID, MsgEvent, nil)
	s.notify(eventID, MsgVotes, map[string]interface{}{"categories_changed": true})
	return s.repo.ListCategories(ctx, eventID)
}

// RemoveParticipant takes a user out of every group of the event. Host only.
// The user's votes stay.
func (s *EventService) RemoveParticipant(ctx context.Context, eventID, actorID, userID int64) error {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return err
	}
	removed, err := s.repo.RemoveParticipant(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotParticipant
	}
	s.log.Info("Participant removed", "event_id", eventID, "user_id", userID, "memberships", removed)
	s.notify(eventID, MsgParticipants, nil)
	s.notify(eventID, MsgGroups, map[string]interface{}{"removed_user": userID})
	return nil
}

// CloseSubmissions opens or closes presentation submissions
func (s *EventService) CloseSubmissions(ctx context.Context, eventID, actorID int64, closed bool) error {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return err
	}
	if err := s.repo.SetSubmissionsClosed(ctx, eventID, closed); err != nil {
		return err
	}
	s.log.Info("Submissions toggled", "event_id", eventID, "closed", closed)
	s.notify(eventID, MsgGroups, map[string]interface{}{"submissions_closed": closed})
	return nil
}

// ReorderCategories sets the display order of every category of the event
func (s *EventService) ReorderCategories(ctx context.Context, eventID, actorID int64, categoryIDs []int64) error {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return err
	}
	err := s.repo.ReorderCategories(ctx, eventID, categoryIDs)
	if err == repository.ErrOrderMismatch {
		return ErrOrderMismatch
	}
	return err
}

// ReorderPresentations replaces the presentation order of the event
func (s *EventService) ReorderPresentations(ctx context.Context, eventID, actorID int64, groupIDs []int64) error {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return err
	}
	err := s.repo.ReorderPresentations(ctx, eventID, groupIDs)
	if err == repository.ErrOrderMismatch {
		return ErrOrderMismatch
	}
	if err != nil {
		return err
	}
	s.notify(eventID, MsgGroups, map[string]interface{}{"order": groupIDs})
	return nil
}

// CreateGroup creates a group in the event with userID as its leader
func (s *EventService) CreateGroup(ctx context.Context, joinCode string, userID int64, name, emoji string) (*models.Group, error) {
	event, err := s.eventByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}
	if event.SubmissionsClosed {
		return nil, ErrSubmissionsClosed
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("presentation name is required")
	}
	if emoji = strings.TrimSpace(emoji); emoji == "" {
		emoji = defaultGroupEmoji
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		inviteCode := newReadableCode()
		id, err := s.repo.CreateGroup(ctx, event.ID, userID, name, emoji, inviteCode, s.clock.Now())
		if err == repository.ErrDuplicate {
			s.log.Debug("Invite code already taken, retrying", "code", inviteCode, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.log.Info("Group created", "event_id", event.ID, "group_id", id, "leader_id", userID)
		s.notify(event.ID, MsgGroups, map[string]interface{}{"group_id": id})
		return s.repo.GetGroup(ctx, id)
	}
	return nil, ErrCodeExhausted
}

// JoinGroup adds userID to the group with the invite code, which must belong to the event
func (s *EventService) JoinGroup(ctx context.Context, joinCode, inviteCode string, userID int64) (*models.Group, error) {
	event, err := s.eventByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}
	if event.SubmissionsClosed {
		return nil, ErrSubmissionsClosed
	}

	group, err := s.repo.GetGroupByInviteCode(ctx, strings.ToUpper(strings.TrimSpace(inviteCode)))
	if err == repository.ErrNotFound || (err == nil && group.EventID != event.ID) {
		return nil, errors.NotFound("invalid invite code for this event")
	}
	if err != nil {
		return nil, err
	}

	err = s.repo.AddGroupMember(ctx, group.ID, userID, false, s.clock.Now())
	if err == repository.ErrDuplicate {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("Joined group", "event_id", event.ID, "group_id", group.ID, "user_id", userID)
	s.notify(event.ID, MsgGroups, map[string]interface{}{"group_id": group.ID})
	return group, nil
}

// SubmitPresentation records a group's submission. Any member may submit;
// a submission after the host closed submissions is marked late.
func (s *EventService) SubmitPresentation(ctx context.Context, groupID, userID int64, link string) (*models.Group, error) {
	group, err := s.repo.GetGroup(ctx, groupID)
	if err == repository.ErrNotFound {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetMembership(ctx, groupID, userID); err == repository.ErrNotFound {
		return nil, ErrNotGroupMember
	} else if err != nil {
		return nil, err
	}

	event, err := loadEvent(ctx, s.repo, group.EventID)
	if err != nil {
		return nil, err
	}
	status := models.GroupSubmitted
	if event.SubmissionsClosed {
		status = models.GroupLate
	}

	if err := s.repo.SubmitGroup(ctx, groupID, strings.TrimSpace(link), status, s.clock.Now()); err != nil {
		return nil, err
	}
	s.log.Info("Presentation submitted", "event_id", group.EventID, "group_id", groupID, "status", status)
	s.notify(group.EventID, MsgGroups, map[string]interface{}{"group_id": groupID, "status": status})
	return s.repo.GetGroup(ctx, groupID)
}

// requireLeader loads the group and checks that actorID leads it
func (s *EventService) requireLeader(ctx context.Context, groupID, actorID int64) (*models.Group, error) {
	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, notFoundAs(err, ErrGroupNotFound)
	}
	member, err := s.repo.GetMembership(ctx, groupID, actorID)
	if err == repository.ErrNotFound || (err == nil && !member.IsLeader) {
		return nil, ErrNotGroupLeader
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateGroup renames a group and changes its emoji. Leader only.
func (s *EventService) UpdateGroup(ctx context.Context, groupID, actorID int64, name, emoji string) (*models.Group, error) {
	group, err := s.requireLeader(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("presentation name is required")
	}
	if emoji = strings.TrimSpace(emoji); emoji == "" {
		emoji = defaultGroupEmoji
	}
	if err := s.repo.UpdateGroup(ctx, groupID, name, emoji); err != nil {
		return nil, err
	}
	s.notify(group.EventID, MsgGroups, map[string]interface{}{"group_id": groupID})
	return s.repo.GetGroup(ctx, groupID)
}

// DeleteGroup removes a group with its members and the votes cast for it. Leader only.
func (s *EventService) DeleteGroup(ctx context.Context, groupID, actorID int64) error {
	group, err := s.requireLeader(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	s.log.Info("Group deleted", "event_id", group.EventID, "group_id", groupID)
	s.notify(group.EventID, MsgGroups, map[string]interface{}{"deleted": groupID})
	s.notify(group.EventID, MsgVotes, map[string]interface{}{"group_id": groupID})
	return nil
}

// RemoveMember takes userID out of the group. Leader only; leaders cannot remove themselves.
func (s *EventService) RemoveMember(ctx context.Context, groupID, actorID, userID int64) error {
	group, err := s.requireLeader(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if userID == actorID {
		return ErrRemoveSelf
	}
	if err := s.repo.RemoveGroupMember(ctx, groupID, userID); err != nil {
		return notFoundAs(err, ErrMemberNotFound)
	}
	s.log.Info("Member removed", "group_id", groupID, "user_id", userID)
	s.notify(group.EventID, MsgGroups, map[string]interface{}{"group_id": groupID})
	s.notify(group.EventID, MsgParticipants, nil)
	return nil
}

// ListGroups returns the event's groups in presentation order
func (s *EventService) ListGroups(ctx context.Context, eventID int64) ([]models.Group, error) {
	if _, err := loadEvent(ctx, s.repo, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListGroups(ctx, eventID)
}

// JoinURL returns the public join link for an event
func (s *EventService) JoinURL(event *models.Event) string {
	return fmt.Sprintf("%s/join/%s", s.baseURL, event.JoinCode)
}

// JoinQRCode renders the join link as a PNG QR code
func (s *EventService) JoinQRCode(ctx context.Context, eventID int64, size int) ([]byte, error) {
	event, err := loadEvent(ctx, s.repo, eventID)
	if err != nil {
		return nil, err
	}
	if s.baseURL == "" {
		return nil, errors.Validation("base URL is not configured")
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(s.JoinURL(event), qrcode.Medium, size)
}
