package services_test

import (
	"sync"
	"testing"
	"time"

	"github.com/abrezinsky/livevote/internal/logger"
	"github.com/abrezinsky/livevote/internal/repository"
	"github.com/abrezinsky/livevote/internal/services"
	"github.com/abrezinsky/livevote/internal/testutil"
)

var epoch = time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)

// notice is one recorded broadcast
type notice struct {
	EventID int64
	Type    string
	Payload interface{}
}

// recordingBroadcaster captures broadcasts for assertions
type recordingBroadcaster struct {
	mu      sync.Mutex
	notices []notice
}

func (b *recordingBroadcaster) BroadcastEvent(eventID int64, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, notice{EventID: eventID, Type: msgType, Payload: payload})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, n := range b.notices {
		out = append(out, n.Type)
	}
	return out
}

func (b *recordingBroadcaster) has(msgType string) bool {
	for _, t := range b.types() {
		if t == msgType {
			return true
		}
	}
	return false
}

// env bundles a fresh repository with a fake clock and a seeded event
type env struct {
	repo    *repository.Repository
	clock   *services.FakeClock
	log     logger.Logger
	bc      *recordingBroadcaster
	fixture testutil.Fixture
}

// newEnv seeds an event with two categories and the named groups
func newEnv(t *testing.T, groups ...string) *env {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	return &env{
		repo:    repo,
		clock:   services.NewFakeClock(epoch),
		log:     logger.Discard(),
		bc:      &recordingBroadcaster{},
		fixture: testutil.SeedEvent(t, repo, []string{"Content", "Delivery"}, groups),
	}
}
