// Package storetest holds the behaviour every repository.Store must share.
// Each backend's tests call Run with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/journalize/internal/apperror"
	"github.com/sakif/journalize/internal/model"
	"github.com/sakif/journalize/internal/repository"
)

// Factory returns a new empty store. It should register its own cleanup.
type Factory func(t *testing.T) repository.Store

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"IDsUniqueAcrossKinds", testIDsUniqueAcrossKinds},
		{"CreateAndGetUser", testCreateAndGetUser},
		{"GetUserNotFound", testGetUserNotFound},
		{"GitHubLookup", testGitHubLookup},
		{"UpdateUserPassword", testUpdateUserPassword},
		{"CreateJournalDefaults", testCreateJournalDefaults},
		{"GetJournalNotFound", testGetJournalNotFound},
		{"UpdateJournalMerges", testUpdateJournalMerges},
		{"UpdateJournalClearsFolder", testUpdateJournalClearsFolder},
		{"OffsetDateRoundTrip", testOffsetDateRoundTrip},
		{"UpdateJournalNotFound", testUpdateJournalNotFound},
		{"DeleteJournalIdempotent", testDeleteJournalIdempotent},
		{"DeletedIDsNotReused", testDeletedIDsNotReused},
		{"UserJournalsScopedAndOrdered", testUserJournalsScopedAndOrdered},
		{"ReturnedJournalsDoNotAlias", testReturnedJournalsDoNotAlias},
		{"Folders", testFolders},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func mustUser(t *testing.T, s repository.Store, username string) *model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), model.UserInput{Username: username, PasswordHash: "hash"})
	require.NoError(t, err)
	return u
}

func mustJournal(t *testing.T, s repository.Store, ownerID int64, title string) *model.Journal {
	t.Helper()
	j, err := s.CreateJournal(context.Background(), ownerID, model.JournalInput{Title: title, Type: model.JournalDaily})
	require.NoError(t, err)
	return j
}

func testIDsUniqueAcrossKinds(t *testing.T, s repository.Store) {
	ctx := context.Background()

	u := mustUser(t, s, "alice")
	j := mustJournal(t, s, u.ID, "first")
	f, err := s.CreateFolder(ctx, u.ID, model.FolderInput{Name: "Work"})
	require.NoError(t, err)
	j2 := mustJournal(t, s, u.ID, "second")

	assert.Equal(t, int64(1), u.ID, "the counter starts at 1")
	assert.Less(t, u.ID, j.ID)
	assert.Less(t, j.ID, f.ID)
	assert.Less(t, f.ID, j2.ID)
}

func testCreateAndGetUser(t *testing.T, s repository.Store) {
	ctx := context.Background()
	created := mustUser(t, s, "alice")

	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "hash", created.PasswordHash)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Username, byID.Username)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func testGetUserNotFound(t *testing.T, s repository.Store) {
	ctx := context.Background()

	_, err := s.GetUser(ctx, 404)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "GetUser: %v", err)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "GetUserByUsername: %v", err)
}

func testGitHubLookup(t *testing.T, s repository.Store) {
	ctx := context.Background()

	_, err := s.CreateUser(ctx, model.UserInput{Username: "plain", PasswordHash: "h"})
	require.NoError(t, err)
	linked, err := s.CreateUser(ctx, model.UserInput{Username: "octo", GitHubID: ptr(int64(583231))})
	require.NoError(t, err)

	found, err := s.GetUserByGitHubID(ctx, 583231)
	require.NoError(t, err)
	assert.Equal(t, linked.ID, found.ID)
	require.NotNil(t, found.GitHubID)
	assert.Equal(t, int64(583231), *found.GitHubID)

	_, err = s.GetUserByGitHubID(ctx, 1)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func testUpdateUserPassword(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "alice")

	require.NoError(t, s.UpdateUserPassword(ctx, u.ID, "new-hash"))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	err = s.UpdateUserPassword(ctx, 999, "x")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func testCreateJournalDefaults(t *testing.T, s repository.Store) {
	ctx := context.Background()
	before := time.Now().Add(-time.Second)

	j := mustJournal(t, s, 1, "Morning")

	assert.Equal(t, int64(1), j.UserID)
	assert.NotNil(t, j.Tags)
	assert.Empty(t, j.Tags)
	assert.Equal(t, "", j.Mood)
	assert.Nil(t, j.FolderID)
	assert.True(t, j.Date.After(before), "date defaults to now")
	assert.True(t, j.CreatedAt.Equal(j.UpdatedAt))

	got, err := s.GetJournal(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morning", got.Title)
	assert.NotNil(t, got.Tags)
	assert.True(t, got.Date.Equal(j.Date))
}

func testGetJournalNotFound(t *testing.T, s repository.Store) {
	_, err := s.GetJournal(context.Background(), 12345)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func testUpdateJournalMerges(t *testing.T, s repository.Store) {
	ctx := context.Background()
	date := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	j, err := s.CreateJournal(ctx, 1, model.JournalInput{
		Title:    "Trip",
		Content:  "<p>day one</p>",
		Type:     model.JournalTravel,
		FolderID: ptr(int64(50)),
		Tags:     []string{"sea"},
		Mood:     "happy",
		Date:     &date,
	})
	require.NoError(t, err)

	updated, err := s.UpdateJournal(ctx, j.ID, model.JournalPatch{
		Title: ptr("Trip, day two"),
		Tags:  []string{},
		Mood:  ptr(""),
	})
	require.NoError(t, err)

	assert.Equal(t, "Trip, day two", updated.Title)
	assert.Equal(t, "<p>day one</p>", updated.Content)
	assert.Equal(t, []string{"sea"}, updated.Tags, "empty tags keep the stored list")
	assert.Equal(t, "happy", updated.Mood, "empty mood keeps the stored mood")
	require.NotNil(t, updated.FolderID)
	assert.Equal(t, int64(50), *updated.FolderID)
	assert.True(t, updated.Date.Equal(date))
	assert.False(t, updated.UpdatedAt.Before(j.UpdatedAt))

	// the merged record is what a later read sees
	got, err := s.GetJournal(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trip, day two", got.Title)
	assert.Equal(t, []string{"sea"}, got.Tags)
}

func testUpdateJournalClearsFolder(t *testing.T, s repository.Store) {
	ctx := context.Background()
	j, err := s.CreateJournal(ctx, 1, model.JournalInput{Title: "T", Type: model.JournalDaily, FolderID: ptr(int64(7))})
	require.NoError(t, err)

	updated, err := s.UpdateJournal(ctx, j.ID, model.JournalPatch{FolderID: model.Null()})
	require.NoError(t, err)
	assert.Nil(t, updated.FolderID)

	got, err := s.GetJournal(ctx, j.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FolderID)
}

func testOffsetDateRoundTrip(t *testing.T, s repository.Store) {
	ctx := context.Background()
	date, err := time.Parse(time.RFC3339, "2024-01-01T05:30:00+05:30")
	require.NoError(t, err)

	j, err := s.CreateJournal(ctx, 1, model.JournalInput{Title: "T", Type: model.JournalDaily, Date: &date})
	require.NoError(t, err)

	got, err := s.GetJournal(ctx, j.ID)
	require.NoError(t, err)
	assert.True(t, got.Date.Equal(date))
	assert.Equal(t, time.UTC, got.Date.Location())

	later, err := time.Parse(time.RFC3339, "2024-02-29T23:15:00-08:00")
	require.NoError(t, err)
	_, err = s.UpdateJournal(ctx, j.ID, model.JournalPatch{Date: &later})
	require.NoError(t, err)

	list, err := s.GetUserJournals(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Date.Equal(later))
	assert.False(t, list[0].UpdatedAt.Before(list[0].CreatedAt))
}

func testUpdateJournalNotFound(t *testing.T, s repository.Store) {
	_, err := s.UpdateJournal(context.Background(), 42, model.JournalPatch{Title: ptr("x")})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func testDeleteJournalIdempotent(t *testing.T, s repository.Store) {
	ctx := context.Background()
	j := mustJournal(t, s, 1, "gone")

	require.NoError(t, s.DeleteJournal(ctx, j.ID))
	require.NoError(t, s.DeleteJournal(ctx, j.ID), "second delete is a no-op")
	require.NoError(t, s.DeleteJournal(ctx, 9999), "deleting an unknown id is a no-op")

	_, err := s.GetJournal(ctx, j.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func testDeletedIDsNotReused(t *testing.T, s repository.Store) {
	ctx := context.Background()
	j := mustJournal(t, s, 1, "a")
	require.NoError(t, s.DeleteJournal(ctx, j.ID))

	next := mustJournal(t, s, 1, "b")
	assert.Greater(t, next.ID, j.ID)
}

func testUserJournalsScopedAndOrdered(t *testing.T, s repository.Store) {
	ctx := context.Background()

	a1 := mustJournal(t, s, 1, "a1")
	mustJournal(t, s, 2, "b1")
	a2 := mustJournal(t, s, 1, "a2")
	a3 := mustJournal(t, s, 1, "a3")
	require.NoError(t, s.DeleteJournal(ctx, a2.ID))

	list, err := s.GetUserJournals(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a1.ID, list[0].ID)
	assert.Equal(t, a3.ID, list[1].ID)

	empty, err := s.GetUserJournals(ctx, 3)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testReturnedJournalsDoNotAlias(t *testing.T, s repository.Store) {
	ctx := context.Background()
	j, err := s.CreateJournal(ctx, 1, model.JournalInput{Title: "T", Type: model.JournalDaily, Tags: []string{"one"}})
	require.NoError(t, err)

	j.Tags[0] = "mutated"

	got, err := s.GetJournal(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, got.Tags)
}

func testFolders(t *testing.T, s repository.Store) {
	ctx := context.Background()

	root, err := s.CreateFolder(ctx, 1, model.FolderInput{Name: "Travel"})
	require.NoError(t, err)
	child, err := s.CreateFolder(ctx, 1, model.FolderInput{Name: "2024", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, 2, model.FolderInput{Name: "Other"})
	require.NoError(t, err)

	got, err := s.GetFolder(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024", got.Name)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, root.ID, *got.ParentID)

	list, err := s.GetUserFolders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, root.ID, list[0].ID)
	assert.Nil(t, list[0].ParentID)
	assert.Equal(t, child.ID, list[1].ID)

	_, err = s.GetFolder(ctx, 777)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
