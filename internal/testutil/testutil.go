package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/abrezinsky/livevote/internal/models"
	"github.com/abrezinsky/livevote/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// SeedTime stamps every row the seed helpers write
var SeedTime = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

// Fixture is a seeded event with a host, categories and groups
type Fixture struct {
	HostID     int64
	EventID    int64
	Categories []models.Category
	Groups     []models.Group
}

// SeedUser inserts a user with a placeholder password hash
func SeedUser(t *testing.T, repo repository.FullRepository, email, name string) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), email, name, "x", SeedTime)
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return id
}

// SeedEvent creates a host, an event with the named categories and one group per
// group name. Each group is led by its own user. Groups are placed in presentation
// order in the order given.
func SeedEvent(t *testing.T, repo repository.FullRepository, categoryNames []string, groupNames []string) Fixture {
	t.Helper()
	ctx := context.Background()

	hostID := SeedUser(t, repo, "host@example.com", "Host")

	cats := make([]models.Category, len(categoryNames))
	for i, name := range categoryNames {
		cats[i] = models.Category{Name: name, Order: i}
	}
	eventID, err := repo.CreateEvent(ctx, hostID, "Demo Night", "", "JOIN-"+fmt.Sprint(hostID), cats, SeedTime)
	if err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}

	var groupIDs []int64
	for i, name := range groupNames {
		leader := SeedUser(t, repo, fmt.Sprintf("leader%d@example.com", i), fmt.Sprintf("Leader %d", i))
		gid, err := repo.CreateGroup(ctx, eventID, leader, name, "", fmt.Sprintf("INV%d-%d", eventID, i), SeedTime)
		if err != nil {
			t.Fatalf("failed to seed group %s: %v", name, err)
		}
		groupIDs = append(groupIDs, gid)
	}
	if len(groupIDs) > 0 {
		if err := repo.ReorderPresentations(ctx, eventID, groupIDs); err != nil {
			t.Fatalf("failed to order groups: %v", err)
		}
	}

	categories, err := repo.ListCategories(ctx, eventID)
	if err != nil {
		t.Fatalf("failed to list categories: %v", err)
	}
	groups, err := repo.ListGroups(ctx, eventID)
	if err != nil {
		t.Fatalf("failed to list groups: %v", err)
	}

	return Fixture{HostID: hostID, EventID: eventID, Categories: categories, Groups: groups}
}

// FullRatings returns one rating per category with the given stars
func FullRatings(categories []models.Category, stars ...int) []models.RatingInput {
	ratings := make([]models.RatingInput, len(categories))
	for i, c := range categories {
		ratings[i] = models.RatingInput{CategoryID: c.ID, Stars: stars[i%len(stars)]}
	}
	return ratings
}
