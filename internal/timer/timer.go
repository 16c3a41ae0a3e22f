// Package timer derives a presentation countdown from stored timestamps.
// There is no ticking goroutine: every read computes the remaining time from now.
package timer

import (
	"math"
	"time"

	"github.com/abrezinsky/livevote/internal/errors"
	"github.com/abrezinsky/livevote/internal/models"
)

// State is the derived timer sub-state
type State string

const (
	Stopped State = "stopped"
	Running State = "running"
	Paused  State = "paused"
)

var (
	ErrInvalidMinutes = errors.Validation("timer minutes must be greater than zero")
	ErrNotRunning     = errors.Validation("timer is not running")
	ErrNotPaused      = errors.Validation("timer is not paused")
)

// StateOf classifies the stored fields
func StateOf(t models.Timer) State {
	switch {
	case t.PausedAt != nil:
		return Paused
	case t.StartedAt != nil:
		return Running
	default:
		return Stopped
	}
}

// Start overwrites any prior timer with a fresh countdown of minutes
func Start(now time.Time, minutes int) (models.Timer, error) {
	if minutes <= 0 {
		return models.Timer{}, ErrInvalidMinutes
	}
	started := now
	duration := minutes * 60
	return models.Timer{StartedAt: &started, Duration: &duration}, nil
}

// Pause freezes a running timer, storing the whole seconds left
func Pause(t models.Timer, now time.Time) (models.Timer, error) {
	if StateOf(t) != Running {
		return t, ErrNotRunning
	}
	remaining := runningRemaining(t, now)
	paused := now
	t.PausedAt = &paused
	t.PausedRemaining = &remaining
	return t, nil
}

// Resume restarts a paused timer with the stored remainder as its duration
func Resume(t models.Timer, now time.Time) (models.Timer, error) {
	if StateOf(t) != Paused {
		return t, ErrNotPaused
	}
	started := now
	duration := 0
	if t.PausedRemaining != nil {
		duration = *t.PausedRemaining
	}
	return models.Timer{StartedAt: &started, Duration: &duration}, nil
}

// Stop clears every timer field
func Stop() models.Timer {
	return models.Timer{}
}

// Remaining returns the seconds left, never negative
func Remaining(t models.Timer, now time.Time) int {
	switch StateOf(t) {
	case Paused:
		if t.PausedRemaining == nil {
			return 0
		}
		return *t.PausedRemaining
	case Running:
		return runningRemaining(t, now)
	default:
		return 0
	}
}

// Expired reports whether a running timer has reached zero
func Expired(t models.Timer, now time.Time) bool {
	return StateOf(t) == Running && runningRemaining(t, now) == 0
}

func runningRemaining(t models.Timer, now time.Time) int {
	duration := 0
	if t.Duration != nil {
		duration = *t.Duration
	}
	elapsed := int(math.Floor(now.Sub(*t.StartedAt).Seconds()))
	if elapsed < 0 {
		elapsed = 0
	}
	if remaining := duration - elapsed; remaining > 0 {
		return remaining
	}
	return 0
}
