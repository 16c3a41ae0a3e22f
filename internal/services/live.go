package services

import (
	"context"
	"time"

	"github.com/abrezinsky/livevote/internal/errors"
	"github.com/abrezinsky/livevote/internal/logger"
	"github.com/abrezinsky/livevote/internal/metrics"
	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/repository"
	"github.com/abrezinsky/livevote/internal/timer"
)

// LiveServiceRepository defines the repository methods needed by LiveService
type LiveServiceRepository interface {
	repository.EventRepository
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
}

// LiveService drives the event during the show: status, current presentation,
// presentation timer, winner reveal and confetti.
type LiveService struct {
	notifier
	log     logger.Logger
	repo    LiveServiceRepository
	clock   Clock
	metrics *metrics.Metrics
}

// NewLiveService creates a new LiveService
func NewLiveService(log logger.Logger, repo LiveServiceRepository, clock Clock, m *metrics.Metrics) *LiveService {
	return &LiveService{log: log, repo: repo, clock: clock, metrics: m}
}

// TimerState is the countdown as derived at a point in time
type TimerState struct {
	State     timer.State `json:"state"`
	Remaining int         `json:"remaining"`
	Expired   bool        `json:"expired"`
	Duration  *int        `json:"duration,omitempty"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
	PausedAt  *time.Time  `json:"paused_at,omitempty"`
}

// LiveState is a snapshot of everything the live screen shows
type LiveState struct {
	EventID               int64              `json:"event_id"`
	Status                models.EventStatus `json:"status"`
	SubmissionsClosed     bool               `json:"submissions_closed"`
	CurrentPresentationID *int64             `json:"current_presentation_id"`
	Timer                 TimerState         `json:"timer"`
	WinnersRevealStep     int                `json:"winners_reveal_step"`
	ConfettiCount         int                `json:"confetti_count"`
	ConfettiTriggeredAt   *time.Time         `json:"confetti_triggered_at,omitempty"`
	ServerTime            time.Time          `json:"server_time"`
}

func timerState(t models.Timer, now time.Time) TimerState {
	return TimerState{
		State:     timer.StateOf(t),
		Remaining: timer.Remaining(t, now),
		Expired:   timer.Expired(t, now),
		Duration:  t.Duration,
		StartedAt: t.StartedAt,
		PausedAt:  t.PausedAt,
	}
}

// LiveState returns the current live snapshot of the event
func (s *LiveService) LiveState(ctx context.Context, eventID int64) (*LiveState, error) {
	event, err := loadEvent(ctx, s.repo, eventID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	return &LiveState{
		EventID:               event.ID,
		Status:                event.Status,
		SubmissionsClosed:     event.SubmissionsClosed,
		CurrentPresentationID: event.CurrentPresentationID,
		Timer:                 timerState(event.Timer, now),
		WinnersRevealStep:     event.WinnersRevealStep,
		ConfettiCount:         event.ConfettiCount,
		ConfettiTriggeredAt:   event.ConfettiTriggeredAt,
		ServerTime:            now,
	}, nil
}

// ActivateIfHostViewing moves the event from setup to live when the host opens
// the live screen. It is a no-op for anyone else and after the first call.
func (s *LiveService) ActivateIfHostViewing(ctx context.Context, eventID, actorID int64) (bool, error) {
	event, err := loadEvent(ctx, s.repo, eventID)
	if err != nil {
		return false, err
	}
	if event.HostID != actorID || event.Status != models.EventSetup {
		return false, nil
	}
	activated, err := s.repo.ActivateEvent(ctx, eventID)
	if err != nil {
		return false, err
	}
	if activated {
		s.metrics.Transition(string(models.EventLive))
		s.log.Info("Event is live", "event_id", eventID)
		s.notify(eventID, MsgStatus, map[string]interface{}{"status": models.EventLive})
	}
	return activated, nil
}

// OpenVoting moves a live (or resumed) event into the voting phase
func (s *LiveService) OpenVoting(ctx context.Context, eventID, actorID int64) error {
	event, err := requireHost(ctx, s.repo, eventID, actorID)
	if err != nil {
		return err
	}
	switch event.Status {
	case models.EventVoting:
		return nil
	case models.EventLive, models.EventActive:
	default:
		return errors.Validationf("cannot open voting while the event is %s", event.Status)
	}
	return s.setStatus(ctx, eventID, models.EventVoting)
}

// ShowWinners completes the event: clears the presentation pointer and resets the reveal
func (s *LiveService) ShowWinners(ctx context.Context, eventID, actorID int64) error {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return err
	}
	if err := s.repo.CompleteEvent(ctx, eventID); err != nil {
		return err
	}
	s.metrics.Transition(string(models.EventCompleted))
	s.log.Info("Showing winners", "event_id", eventID)
	s.notify(eventID, MsgStatus, map[string]interface{}{"status": models.EventCompleted})
	return nil
}

// BackToPresentations leaves the winners screen
func (s *LiveService) BackToPresentations(ctx context.Context, eventID, actorID int64) error {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return err
	}
	return s.setStatus(ctx, eventID, models.EventActive)
}

func (s *LiveService) setStatus(ctx context.Context, eventID int64, status models.EventStatus) error {
	if err := s.repo.SetEventStatus(ctx, eventID, status); err != nil {
		return err
	}
	s.metrics.Transition(string(status))
	s.log.Info("Event status changed", "event_id", eventID, "status", status)
	s.notify(eventID, MsgStatus, map[string]interface{}{"status": status})
	return nil
}

// SetCurrentPresentation points the event at a group, or clears it with nil
func (s *LiveService) SetCurrentPresentation(ctx context.Context, eventID, actorID int64, groupID *int64) error {
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return err
	}
	if groupID != nil {
		group, err := s.repo.GetGroup(ctx, *groupID)
		if err == repository.ErrNotFound || (err == nil && group.EventID != eventID) {
			return ErrGroupNotFound
		}
		if err != nil {
			return err
		}
	}
	if err := s.repo.SetCurrentPresentation(ctx, eventID, groupID); err != nil {
		return err
	}
	s.log.Info("Current presentation changed", "event_id", eventID, "group_id", groupID)
	s.notify(eventID, MsgPresentation, map[string]interface{}{"group_id": groupID})
	return nil
}

// StartTimer starts a fresh countdown, replacing any running or paused timer
func (s *LiveService) StartTimer(ctx context.Context, eventID, actorID int64, minutes int) (*TimerState, error) {
	return s.updateTimer(ctx, eventID, actorID, "start", func(_ models.Timer, now time.Time) (models.Timer, error) {
		return timer.Start(now, minutes)
	})
}

// PauseTimer freezes a running timer
func (s *LiveService) PauseTimer(ctx context.Context, eventID, actorID int64) (*TimerState, error) {
	return s.updateTimer(ctx, eventID, actorID, "pause", timer.Pause)
}

// ResumeTimer restarts a paused timer
func (s *LiveService) ResumeTimer(ctx context.Context, eventID, actorID int64) (*TimerState, error) {
	return s.updateTimer(ctx, eventID, actorID, "resume", timer.Resume)
}

// StopTimer clears the timer
func (s *LiveService) StopTimer(ctx context.Context, eventID, actorID int64) (*TimerState, error) {
	return s.updateTimer(ctx, eventID, actorID, "stop", func(models.Timer, time.Time) (models.Timer, error) {
		return timer.Stop(), nil
	})
}

func (s *LiveService) updateTimer(ctx context.Context, eventID, actorID int64, action string, next func(models.Timer, time.Time) (models.Timer, error)) (*TimerState, error) {
	event, err := requireHost(ctx, s.repo, eventID, actorID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	updated, err := next(event.Timer, now)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetTimer(ctx, eventID, updated); err != nil {
		return nil, err
	}

	state := timerState(updated, now)
	s.metrics.TimerAction(action)
	s.log.Info("Timer updated", "event_id", eventID, "action", action, "remaining", state.Remaining)
	s.notify(eventID, MsgTimer, state)
	return &state, nil
}

// RevealWinner sets the reveal step. Ordering is not enforced; the caller
// sequences the reveal.
func (s *LiveService) RevealWinner(ctx context.Context, eventID, actorID int64, step int) error {
	if step < 0 {
		return ErrNegativeReveal
	}
	if _, err := requireHost(ctx, s.repo, eventID, actorID); err != nil {
		return err
	}
	if err := s.repo.SetRevealStep(ctx, eventID, step); err != nil {
		return err
	}
	s.log.Info("Reveal step set", "event_id", eventID, "step", step)
	s.notify(eventID, MsgReveal, map[string]interface{}{"step": step})
	return nil
}

// TriggerConfetti bumps the confetti counter. Any caller may trigger it.
func (s *LiveService) TriggerConfetti(ctx context.Context, eventID int64) (int, error) {
	count, err := s.repo.IncrementConfetti(ctx, eventID, s.clock.Now())
	if err == repository.ErrNotFound {
		return 0, ErrEventNotFound
	}
	if err != nil {
		return 0, err
	}
	s.metrics.Confetti()
	s.notify(eventID, MsgConfetti, map[string]interface{}{"count": count})
	return count, nil
}
