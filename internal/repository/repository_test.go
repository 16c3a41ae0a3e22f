package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/abrezinsky/livevote/internal/models"
)

// testNow stamps rows written by these tests
var testNow = time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)

// newTestRepo creates a new in-memory repository for testing.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

type seeded struct {
	hostID     int64
	eventID    int64
	categories []models.Category
	groupIDs   []int64
}

// seedEvent creates a host, an event with n categories and m groups
func seedEvent(t *testing.T, repo *Repository, nCategories, nGroups int) seeded {
	t.Helper()
	ctx := context.Background()

	hostID, err := repo.CreateUser(ctx, "host@example.com", "Host", "hash", testNow)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	var cats []models.Category
	for i := 0; i < nCategories; i++ {
		cats = append(cats, models.Category{Name: fmt.Sprintf("Cat %d", i), Order: i})
	}
	eventID, err := repo.CreateEvent(ctx, hostID, "Demo Night", "desc", "ABC123", cats, testNow)
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	var groupIDs []int64
	for i := 0; i < nGroups; i++ {
		leader, err := repo.CreateUser(ctx, fmt.Sprintf("lead%d@example.com", i), fmt.Sprintf("Lead %d", i), "hash", testNow)
		if err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		gid, err := repo.CreateGroup(ctx, eventID, leader, fmt.Sprintf("Group %d", i), "🚀", fmt.Sprintf("INV%d", i), testNow)
		if err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		groupIDs = append(groupIDs, gid)
	}

	categories, err := repo.ListCategories(ctx, eventID)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	return seeded{hostID: hostID, eventID: eventID, categories: categories, groupIDs: groupIDs}
}

// ==================== User Tests ====================

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, "a@example.com", "A", "hash", testNow); err != nil {
		t.Fatalf("first CreateUser failed: %v", err)
	}
	_, err := repo.CreateUser(ctx, "a@example.com", "B", "hash", testNow)
	if err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _ := repo.CreateUser(ctx, "a@example.com", "Ada", "hash", testNow)

	u, err := repo.GetUserByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if u.ID != id || u.Name != "Ada" || u.PasswordHash != "hash" {
		t.Errorf("unexpected user: %+v", u)
	}

	if _, err := repo.GetUserByEmail(ctx, "missing@example.com"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetUser(ctx, 999); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _ := repo.CreateUser(ctx, "a@example.com", "Ada", "hash", testNow)
	other, _ := repo.CreateUser(ctx, "b@example.com", "Bob", "hash", testNow)

	if err := repo.UpdateUserName(ctx, id, "Ada L"); err != nil {
		t.Fatalf("UpdateUserName failed: %v", err)
	}
	if err := repo.UpdateUserEmail(ctx, id, "ada@example.com"); err != nil {
		t.Fatalf("UpdateUserEmail failed: %v", err)
	}
	if err := repo.UpdateUserPassword(ctx, id, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword failed: %v", err)
	}
	u, _ := repo.GetUser(ctx, id)
	if u.Name != "Ada L" || u.Email != "ada@example.com" || u.PasswordHash != "newhash" {
		t.Errorf("unexpected user: %+v", u)
	}
	if !u.CreatedAt.Equal(testNow) {
		t.Errorf("expected created_at %v, got %v", testNow, u.CreatedAt)
	}

	if err := repo.UpdateUserEmail(ctx, other, "ada@example.com"); err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if err := repo.UpdateUserName(ctx, 999, "X"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser_CascadesHostedEventsAndVotes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 1)

	voter, _ := repo.CreateUser(ctx, "voter@example.com", "Voter", "hash", testNow)
	repo.AddGroupMember(ctx, s.groupIDs[0], voter, false, testNow)
	repo.ReplaceVoteRatings(ctx, s.eventID, s.groupIDs[0], models.UserVoter(voter), []models.RatingInput{
		{CategoryID: s.categories[0].ID, Stars: 4},
	}, testNow)

	if err := repo.DeleteUser(ctx, voter); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if votes, _ := repo.ListEventVotes(ctx, s.eventID); len(votes) != 0 {
		t.Errorf("expected the voter's votes to be removed, got %d", len(votes))
	}
	if _, err := repo.GetMembership(ctx, s.groupIDs[0], voter); err != ErrNotFound {
		t.Errorf("expected membership to be removed, got %v", err)
	}

	if err := repo.DeleteUser(ctx, s.hostID); err != nil {
		t.Fatalf("DeleteUser host failed: %v", err)
	}
	if _, err := repo.GetEvent(ctx, s.eventID); err != ErrNotFound {
		t.Errorf("expected hosted event to be removed, got %v", err)
	}
	if err := repo.DeleteUser(ctx, s.hostID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ==================== Event Tests ====================

func TestCreateEvent_WithCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 3, 0)

	event, err := repo.GetEvent(ctx, s.eventID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if event.Status != models.EventSetup {
		t.Errorf("expected setup status, got %s", event.Status)
	}
	if event.JoinCode != "ABC123" || event.Description != "desc" {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.CurrentPresentationID != nil || event.StartedAt != nil {
		t.Error("expected no presentation and no timer on a new event")
	}
	if len(s.categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(s.categories))
	}
	for i, c := range s.categories {
		if c.Order != i {
			t.Errorf("category %d has order %d", i, c.Order)
		}
	}

	byCode, err := repo.GetEventByJoinCode(ctx, "ABC123")
	if err != nil || byCode.ID != s.eventID {
		t.Errorf("GetEventByJoinCode: got %v, %v", byCode, err)
	}
	if !event.CreatedAt.Equal(testNow) {
		t.Errorf("expected created_at %v, got %v", testNow, event.CreatedAt)
	}
}

func TestUpdateEventDetails(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 0)

	if err := repo.UpdateEventDetails(ctx, s.eventID, "Renamed", ""); err != nil {
		t.Fatalf("UpdateEventDetails failed: %v", err)
	}
	event, _ := repo.GetEvent(ctx, s.eventID)
	if event.Name != "Renamed" || event.Description != "" {
		t.Errorf("unexpected event: %+v", event)
	}
	if err := repo.UpdateEventDetails(ctx, 999, "X", ""); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 3, 1)

	voter := models.UserVoter(s.hostID)
	repo.ReplaceVoteRatings(ctx, s.eventID, s.groupIDs[0], voter, []models.RatingInput{
		{CategoryID: s.categories[0].ID, Stars: 5},
		{CategoryID: s.categories[1].ID, Stars: 2},
	}, testNow)

	// Keep category 1 (renamed, moved first), drop 0 and 2, add one
	err := repo.ReplaceCategories(ctx, s.eventID, []models.Category{
		{ID: s.categories[1].ID, Name: "Delivery", Description: "stage presence"},
		{Name: "Humor"},
	})
	if err != nil {
		t.Fatalf("ReplaceCategories failed: %v", err)
	}

	categories, _ := repo.ListCategories(ctx, s.eventID)
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	if categories[0].ID != s.categories[1].ID || categories[0].Name != "Delivery" || categories[0].Order != 0 {
		t.Errorf("unexpected first category: %+v", categories[0])
	}
	if categories[1].Name != "Humor" || categories[1].Order != 1 {
		t.Errorf("unexpected second category: %+v", categories[1])
	}

	vote, _ := repo.GetVoterVote(ctx, s.eventID, s.groupIDs[0], voter)
	if len(vote.Ratings) != 1 || vote.Ratings[0].CategoryID != s.categories[1].ID || vote.Ratings[0].Stars != 2 {
		t.Errorf("expected only the kept category's rating to survive, got %+v", vote.Ratings)
	}

	if err := repo.ReplaceCategories(ctx, s.eventID, []models.Category{{ID: 999, Name: "X"}}); err != ErrOrderMismatch {
		t.Errorf("expected ErrOrderMismatch, got %v", err)
	}
}

func TestCreateEvent_DuplicateJoinCode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 0)

	_, err := repo.CreateEvent(ctx, s.hostID, "Other", "", "ABC123", nil, testNow)
	if err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestActivateEvent_OnlyFromSetup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 0)

	ok, err := repo.ActivateEvent(ctx, s.eventID)
	if err != nil || !ok {
		t.Fatalf("expected first activation to succeed, got %v, %v", ok, err)
	}
	ok, err = repo.ActivateEvent(ctx, s.eventID)
	if err != nil || ok {
		t.Errorf("expected second activation to be a no-op, got %v, %v", ok, err)
	}

	event, _ := repo.GetEvent(ctx, s.eventID)
	if event.Status != models.EventLive {
		t.Errorf("expected live, got %s", event.Status)
	}
}

func TestCompleteEvent_ClearsPresentationAndReveal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 1)

	gid := s.groupIDs[0]
	if err := repo.SetCurrentPresentation(ctx, s.eventID, &gid); err != nil {
		t.Fatalf("SetCurrentPresentation failed: %v", err)
	}
	if err := repo.SetRevealStep(ctx, s.eventID, 3); err != nil {
		t.Fatalf("SetRevealStep failed: %v", err)
	}
	if err := repo.CompleteEvent(ctx, s.eventID); err != nil {
		t.Fatalf("CompleteEvent failed: %v", err)
	}

	event, _ := repo.GetEvent(ctx, s.eventID)
	if event.Status != models.EventCompleted {
		t.Errorf("expected completed, got %s", event.Status)
	}
	if event.CurrentPresentationID != nil {
		t.Error("expected current presentation to be cleared")
	}
	if event.WinnersRevealStep != 0 {
		t.Errorf("expected reveal step 0, got %d", event.WinnersRevealStep)
	}
}

func TestEventUpdates_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SetEventStatus(ctx, 42, models.EventLive); err != ErrNotFound {
		t.Errorf("SetEventStatus: expected ErrNotFound, got %v", err)
	}
	if err := repo.SetRevealStep(ctx, 42, 1); err != ErrNotFound {
		t.Errorf("SetRevealStep: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.IncrementConfetti(ctx, 42, time.Now()); err != ErrNotFound {
		t.Errorf("IncrementConfetti: expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteEvent(ctx, 42); err != ErrNotFound {
		t.Errorf("DeleteEvent: expected ErrNotFound, got %v", err)
	}
}

func TestIncrementConfetti(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 0)

	at := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	for want := 1; want <= 3; want++ {
		got, err := repo.IncrementConfetti(ctx, s.eventID, at)
		if err != nil {
			t.Fatalf("IncrementConfetti failed: %v", err)
		}
		if got != want {
			t.Errorf("expected count %d, got %d", want, got)
		}
	}

	event, _ := repo.GetEvent(ctx, s.eventID)
	if event.ConfettiCount != 3 {
		t.Errorf("expected stored count 3, got %d", event.ConfettiCount)
	}
	if event.ConfettiTriggeredAt == nil || !event.ConfettiTriggeredAt.Equal(at) {
		t.Errorf("expected triggered at %v, got %v", at, event.ConfettiTriggeredAt)
	}
}

func TestSetTimer_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 0)

	started := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	paused := started.Add(30 * time.Second)
	duration, remaining := 600, 570
	timer := models.Timer{StartedAt: &started, Duration: &duration, PausedAt: &paused, PausedRemaining: &remaining}

	if err := repo.SetTimer(ctx, s.eventID, timer); err != nil {
		t.Fatalf("SetTimer failed: %v", err)
	}
	event, _ := repo.GetEvent(ctx, s.eventID)
	if event.StartedAt == nil || !event.StartedAt.Equal(started) {
		t.Errorf("unexpected started at: %v", event.StartedAt)
	}
	if event.Duration == nil || *event.Duration != 600 {
		t.Errorf("unexpected duration: %v", event.Duration)
	}
	if event.PausedRemaining == nil || *event.PausedRemaining != 570 {
		t.Errorf("unexpected remaining: %v", event.PausedRemaining)
	}

	// Clearing
	if err := repo.SetTimer(ctx, s.eventID, models.Timer{}); err != nil {
		t.Fatalf("SetTimer clear failed: %v", err)
	}
	event, _ = repo.GetEvent(ctx, s.eventID)
	if event.StartedAt != nil || event.Duration != nil || event.PausedAt != nil || event.PausedRemaining != nil {
		t.Errorf("expected cleared timer, got %+v", event.Timer)
	}
}

func TestListEventsByHost_NewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 0)

	second, err := repo.CreateEvent(ctx, s.hostID, "Second", "", "XYZ789", nil, testNow)
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	events, err := repo.ListEventsByHost(ctx, s.hostID)
	if err != nil {
		t.Fatalf("ListEventsByHost failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != second {
		t.Errorf("expected newest event first, got %d", events[0].ID)
	}
}

func TestDeleteEvent_Cascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 2, 1)

	voter := models.UserVoter(s.hostID)
	if _, err := repo.ReplaceVoteRatings(ctx, s.eventID, s.groupIDs[0], voter, []models.RatingInput{
		{CategoryID: s.categories[0].ID, Stars: 4},
	}, testNow); err != nil {
		t.Fatalf("ReplaceVoteRatings failed: %v", err)
	}

	if err := repo.DeleteEvent(ctx, s.eventID); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}

	if _, err := repo.GetGroup(ctx, s.groupIDs[0]); err != ErrNotFound {
		t.Errorf("expected group to be deleted, got %v", err)
	}
	var count int
	repo.DB().QueryRow(`SELECT COUNT(*) FROM ratings`).Scan(&count)
	if count != 0 {
		t.Errorf("expected ratings to cascade, %d left", count)
	}
}

// ==================== Category Tests ====================

func TestReorderCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 3, 0)

	reversed := []int64{s.categories[2].ID, s.categories[1].ID, s.categories[0].ID}
	if err := repo.ReorderCategories(ctx, s.eventID, reversed); err != nil {
		t.Fatalf("ReorderCategories failed: %v", err)
	}

	categories, _ := repo.ListCategories(ctx, s.eventID)
	for i, c := range categories {
		if c.ID != reversed[i] {
			t.Errorf("position %d: expected %d, got %d", i, reversed[i], c.ID)
		}
		if c.Order != i {
			t.Errorf("position %d: expected order %d, got %d", i, i, c.Order)
		}
	}
}

func TestReorderCategories_Mismatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 2, 0)

	tests := []struct {
		name string
		ids  []int64
	}{
		{"missing one", []int64{s.categories[0].ID}},
		{"duplicate", []int64{s.categories[0].ID, s.categories[0].ID}},
		{"foreign id", []int64{s.categories[0].ID, 999}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.ReorderCategories(ctx, s.eventID, tt.ids); err != ErrOrderMismatch {
				t.Errorf("expected ErrOrderMismatch, got %v", err)
			}
		})
	}
}

// ==================== Group Tests ====================

func TestCreateGroup_LeaderMembership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 1)

	groups, err := repo.ListGroups(ctx, s.eventID)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.Status != models.GroupNotSubmitted {
		t.Errorf("expected not_submitted, got %s", g.Status)
	}
	if len(g.Members) != 1 || !g.Members[0].IsLeader || g.Members[0].UserName != "Lead 0" {
		t.Errorf("unexpected members: %+v", g.Members)
	}

	byCode, err := repo.GetGroupByInviteCode(ctx, "INV0")
	if err != nil || byCode.ID != g.ID {
		t.Errorf("GetGroupByInviteCode: got %v, %v", byCode, err)
	}
}

func TestAddGroupMember_Duplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 1)

	if err := repo.AddGroupMember(ctx, s.groupIDs[0], s.hostID, false, testNow); err != nil {
		t.Fatalf("AddGroupMember failed: %v", err)
	}
	if err := repo.AddGroupMember(ctx, s.groupIDs[0], s.hostID, false, testNow); err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	m, err := repo.GetMembership(ctx, s.groupIDs[0], s.hostID)
	if err != nil || m.IsLeader {
		t.Errorf("unexpected membership %+v, %v", m, err)
	}
	if _, err := repo.GetMembership(ctx, s.groupIDs[0], 999); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAndDeleteGroup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 2)

	if err := repo.UpdateGroup(ctx, s.groupIDs[0], "Renamed", "🎸"); err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}
	g, _ := repo.GetGroup(ctx, s.groupIDs[0])
	if g.Name != "Renamed" || g.Emoji != "🎸" {
		t.Errorf("unexpected group: %+v", g)
	}

	gid := s.groupIDs[1]
	repo.SetCurrentPresentation(ctx, s.eventID, &gid)
	repo.ReplaceVoteRatings(ctx, s.eventID, gid, models.UserVoter(s.hostID), []models.RatingInput{
		{CategoryID: s.categories[0].ID, Stars: 3},
	}, testNow)

	if err := repo.DeleteGroup(ctx, gid); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}
	if _, err := repo.GetGroup(ctx, gid); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	event, _ := repo.GetEvent(ctx, s.eventID)
	if event.CurrentPresentationID != nil {
		t.Errorf("expected current presentation to be cleared, got %d", *event.CurrentPresentationID)
	}
	if votes, _ := repo.ListEventVotes(ctx, s.eventID); len(votes) != 0 {
		t.Errorf("expected the group's votes to be removed, got %d", len(votes))
	}
	if err := repo.DeleteGroup(ctx, gid); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveMembers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 2)

	repo.AddGroupMember(ctx, s.groupIDs[0], s.hostID, false, testNow)
	repo.AddGroupMember(ctx, s.groupIDs[1], s.hostID, false, testNow)

	if err := repo.RemoveGroupMember(ctx, s.groupIDs[0], s.hostID); err != nil {
		t.Fatalf("RemoveGroupMember failed: %v", err)
	}
	if err := repo.RemoveGroupMember(ctx, s.groupIDs[0], s.hostID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	repo.AddGroupMember(ctx, s.groupIDs[0], s.hostID, false, testNow)
	removed, err := repo.RemoveParticipant(ctx, s.eventID, s.hostID)
	if err != nil || removed != 2 {
		t.Fatalf("expected 2 memberships removed, got %d, %v", removed, err)
	}
	ids, _ := repo.ListParticipantIDs(ctx, s.eventID)
	if len(ids) != 2 {
		t.Errorf("expected only the two leaders left, got %v", ids)
	}
}

func TestSubmitGroup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 1)

	at := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	if err := repo.SubmitGroup(ctx, s.groupIDs[0], "https://slides.example.com/x", models.GroupLate, at); err != nil {
		t.Fatalf("SubmitGroup failed: %v", err)
	}
	g, _ := repo.GetGroup(ctx, s.groupIDs[0])
	if g.Status != models.GroupLate || g.SubmissionLink != "https://slides.example.com/x" {
		t.Errorf("unexpected group: %+v", g)
	}
	if g.SubmittedAt == nil || !g.SubmittedAt.Equal(at) {
		t.Errorf("unexpected submitted at: %v", g.SubmittedAt)
	}
}

func TestReorderPresentations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 3)

	order := []int64{s.groupIDs[2], s.groupIDs[0]}
	if err := repo.ReorderPresentations(ctx, s.eventID, order); err != nil {
		t.Fatalf("ReorderPresentations failed: %v", err)
	}

	groups, _ := repo.ListGroups(ctx, s.eventID)
	if groups[0].ID != s.groupIDs[2] || groups[1].ID != s.groupIDs[0] {
		t.Errorf("unexpected order: %d, %d", groups[0].ID, groups[1].ID)
	}
	if groups[2].PresentationOrder != nil {
		t.Errorf("expected unlisted group to have no position, got %d", *groups[2].PresentationOrder)
	}

	// A second reorder replaces the whole ordering
	if err := repo.ReorderPresentations(ctx, s.eventID, []int64{s.groupIDs[0], s.groupIDs[1], s.groupIDs[2]}); err != nil {
		t.Fatalf("second ReorderPresentations failed: %v", err)
	}
	groups, _ = repo.ListGroups(ctx, s.eventID)
	for i, g := range groups {
		if g.ID != s.groupIDs[i] || g.PresentationOrder == nil || *g.PresentationOrder != i {
			t.Errorf("position %d: unexpected group %+v", i, g)
		}
	}

	if err := repo.ReorderPresentations(ctx, s.eventID, []int64{999}); err != ErrOrderMismatch {
		t.Errorf("expected ErrOrderMismatch, got %v", err)
	}
}

func TestListParticipantIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 2)

	// Host joins both groups but is counted once
	repo.AddGroupMember(ctx, s.groupIDs[0], s.hostID, false, testNow)
	repo.AddGroupMember(ctx, s.groupIDs[1], s.hostID, false, testNow)

	ids, err := repo.ListParticipantIDs(ctx, s.eventID)
	if err != nil {
		t.Fatalf("ListParticipantIDs failed: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("expected 3 distinct participants, got %v", ids)
	}
}

// ==================== Voting Session Tests ====================

func TestVotingSessions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 0)

	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	old, err := repo.CreateVotingSession(ctx, s.eventID, "oldcode001", "Old", base.Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("CreateVotingSession failed: %v", err)
	}
	fresh, err := repo.CreateVotingSession(ctx, s.eventID, "newcode001", "New", base.Add(-time.Minute))
	if err != nil {
		t.Fatalf("CreateVotingSession failed: %v", err)
	}
	if _, err := repo.CreateVotingSession(ctx, s.eventID, "newcode001", "Dup", base); err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate for reused code, got %v", err)
	}

	active, err := repo.ListActiveVotingSessions(ctx, s.eventID, base.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("ListActiveVotingSessions failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != fresh {
		t.Errorf("expected only the fresh session, got %+v", active)
	}

	if err := repo.TouchVotingSession(ctx, old, base); err != nil {
		t.Fatalf("TouchVotingSession failed: %v", err)
	}
	active, _ = repo.ListActiveVotingSessions(ctx, s.eventID, base.Add(-5*time.Minute))
	if len(active) != 2 {
		t.Errorf("expected touched session to become active, got %d", len(active))
	}

	byCode, err := repo.GetVotingSessionByCode(ctx, "oldcode001")
	if err != nil || byCode.ID != old || byCode.DisplayName != "Old" {
		t.Errorf("GetVotingSessionByCode: got %+v, %v", byCode, err)
	}
}

func TestDeleteVotingSession_RemovesVotes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 1)

	sid, _ := repo.CreateVotingSession(ctx, s.eventID, "code000001", "Guest", time.Now())
	if _, err := repo.ReplaceVoteRatings(ctx, s.eventID, s.groupIDs[0], models.SessionVoter(sid), []models.RatingInput{
		{CategoryID: s.categories[0].ID, Stars: 5},
	}, testNow); err != nil {
		t.Fatalf("ReplaceVoteRatings failed: %v", err)
	}

	if err := repo.DeleteVotingSession(ctx, sid); err != nil {
		t.Fatalf("DeleteVotingSession failed: %v", err)
	}
	votes, _ := repo.ListEventVotes(ctx, s.eventID)
	if len(votes) != 0 {
		t.Errorf("expected session votes to be removed, got %d", len(votes))
	}
	if err := repo.DeleteVotingSession(ctx, sid); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

// ==================== Vote Tests ====================

func TestReplaceVoteRatings_ReplacesWholeSet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 2, 1)
	voter := models.UserVoter(s.hostID)

	first, err := repo.ReplaceVoteRatings(ctx, s.eventID, s.groupIDs[0], voter, []models.RatingInput{
		{CategoryID: s.categories[0].ID, Stars: 5},
		{CategoryID: s.categories[1].ID, Stars: 3},
	}, testNow)
	if err != nil {
		t.Fatalf("ReplaceVoteRatings failed: %v", err)
	}

	second, err := repo.ReplaceVoteRatings(ctx, s.eventID, s.groupIDs[0], voter, []models.RatingInput{
		{CategoryID: s.categories[1].ID, Stars: 1},
	}, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("second ReplaceVoteRatings failed: %v", err)
	}
	if first != second {
		t.Errorf("expected the same vote to be reused, got %d and %d", first, second)
	}

	vote, err := repo.GetVoterVote(ctx, s.eventID, s.groupIDs[0], voter)
	if err != nil {
		t.Fatalf("GetVoterVote failed: %v", err)
	}
	if len(vote.Ratings) != 1 || vote.Ratings[0].Stars != 1 {
		t.Errorf("expected only the replacement rating, got %+v", vote.Ratings)
	}
	if !vote.UpdatedAt.Equal(testNow.Add(time.Minute)) {
		t.Errorf("expected updated_at from the second write, got %v", vote.UpdatedAt)
	}
}

func TestReplaceVoteRatings_RollsBackOnBadStars(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 2, 1)
	voter := models.UserVoter(s.hostID)

	repo.ReplaceVoteRatings(ctx, s.eventID, s.groupIDs[0], voter, []models.RatingInput{
		{CategoryID: s.categories[0].ID, Stars: 4},
	}, testNow)

	_, err := repo.ReplaceVoteRatings(ctx, s.eventID, s.groupIDs[0], voter, []models.RatingInput{
		{CategoryID: s.categories[0].ID, Stars: 2},
		{CategoryID: s.categories[1].ID, Stars: 9},
	}, testNow)
	if err == nil {
		t.Fatal("expected CHECK constraint failure")
	}

	vote, _ := repo.GetVoterVote(ctx, s.eventID, s.groupIDs[0], voter)
	if len(vote.Ratings) != 1 || vote.Ratings[0].Stars != 4 {
		t.Errorf("expected previous ratings to survive rollback, got %+v", vote.Ratings)
	}
}

func TestUpsertRating(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 2, 1)
	sid, _ := repo.CreateVotingSession(ctx, s.eventID, "code000002", "Guest", time.Now())
	voter := models.SessionVoter(sid)

	if _, err := repo.UpsertRating(ctx, s.eventID, s.groupIDs[0], voter, s.categories[0].ID, 2, testNow); err != nil {
		t.Fatalf("UpsertRating failed: %v", err)
	}
	if _, err := repo.UpsertRating(ctx, s.eventID, s.groupIDs[0], voter, s.categories[0].ID, 5, testNow); err != nil {
		t.Fatalf("UpsertRating update failed: %v", err)
	}
	if _, err := repo.UpsertRating(ctx, s.eventID, s.groupIDs[0], voter, s.categories[1].ID, 3, testNow); err != nil {
		t.Fatalf("UpsertRating second category failed: %v", err)
	}

	votes, err := repo.ListVoterVotes(ctx, s.eventID, voter)
	if err != nil {
		t.Fatalf("ListVoterVotes failed: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("expected a single vote, got %d", len(votes))
	}
	if votes[0].Voter.VotingSessionID == nil || *votes[0].Voter.VotingSessionID != sid {
		t.Errorf("unexpected voter: %s", votes[0].Voter)
	}
	stars := map[int64]int{}
	for _, r := range votes[0].Ratings {
		stars[r.CategoryID] = r.Stars
	}
	if stars[s.categories[0].ID] != 5 || stars[s.categories[1].ID] != 3 {
		t.Errorf("unexpected ratings: %v", stars)
	}
}

func TestVotes_InvalidVoter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 1)

	if _, err := repo.ReplaceVoteRatings(ctx, s.eventID, s.groupIDs[0], models.VoterIdentity{}, nil, testNow); err != errInvalidVoter {
		t.Errorf("expected errInvalidVoter, got %v", err)
	}
	if _, err := repo.ListVoterVotes(ctx, s.eventID, models.VoterIdentity{}); err != errInvalidVoter {
		t.Errorf("expected errInvalidVoter, got %v", err)
	}
}

func TestDeleteEventVotes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := seedEvent(t, repo, 1, 2)

	for _, gid := range s.groupIDs {
		repo.ReplaceVoteRatings(ctx, s.eventID, gid, models.UserVoter(s.hostID), []models.RatingInput{
			{CategoryID: s.categories[0].ID, Stars: 3},
		}, testNow)
	}

	removed, err := repo.DeleteEventVotes(ctx, s.eventID)
	if err != nil {
		t.Fatalf("DeleteEventVotes failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 votes removed, got %d", removed)
	}
	votes, _ := repo.ListEventVotes(ctx, s.eventID)
	if len(votes) != 0 {
		t.Errorf("expected no votes left, got %d", len(votes))
	}
	var count int
	repo.DB().QueryRow(`SELECT COUNT(*) FROM ratings`).Scan(&count)
	if count != 0 {
		t.Errorf("expected no ratings left, got %d", count)
	}
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
