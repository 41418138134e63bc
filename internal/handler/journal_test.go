package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/journalize/internal/model"
)

func createJournal(t *testing.T, api *testAPI, token, body string) model.Journal {
	t.Helper()
	rr := api.do(t, http.MethodPost, "/api/journals", token, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[model.Journal](t, rr)
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestJournalCreate_RoundTrip(t *testing.T) {
	api := newTestAPI(t)
	userID, token := api.signUp(t, "alice")

	created := createJournal(t, api, token, `{"title":"T","type":"daily","date":"2024-01-01T00:00:00.000Z"}`)

	assert.Equal(t, userID, created.UserID)

	rr := api.do(t, http.MethodGet, fmt.Sprintf("/api/journals/%d", created.ID), token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	got := decode[model.Journal](t, rr)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, model.JournalDaily, got.Type)
	assert.Equal(t, []string{}, got.Tags)
	assert.Equal(t, "", got.Mood)
	assert.Equal(t, "", got.Content)
	assert.Nil(t, got.FolderID)
	assert.True(t, got.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestJournalCreate_ValidationError(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.signUp(t, "alice")

	rr := api.do(t, http.MethodPost, "/api/journals", token, `{"type":"weekly","date":"yesterday"}`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, "validation_error", body.Error)
	assert.Contains(t, body.Fields, "title")
	assert.Contains(t, body.Fields, "type")
	assert.Contains(t, body.Fields, "date")
}

func TestJournalCreate_InvalidJSON(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.signUp(t, "alice")

	rr := api.do(t, http.MethodPost, "/api/journals", token, `{"title":`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Contains(t, body.Fields, "body")
}

func TestJournalCreate_ForeignFolderRejected(t *testing.T) {
	api := newTestAPI(t)
	_, alice := api.signUp(t, "alice")
	_, bob := api.signUp(t, "bob")

	rr := api.do(t, http.MethodPost, "/api/folders", bob, `{"name":"bob's"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	folder := decode[model.Folder](t, rr)

	rr = api.do(t, http.MethodPost, "/api/journals", alice,
		fmt.Sprintf(`{"title":"T","type":"daily","date":"2024-01-01T00:00:00Z","folderId":%d}`, folder.ID))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[errorBody](t, rr).Fields, "folderId")
}

func TestJournalGet_NotFoundCases(t *testing.T) {
	api := newTestAPI(t)
	_, alice := api.signUp(t, "alice")
	_, bob := api.signUp(t, "bob")
	theirs := createJournal(t, api, bob, `{"title":"private","type":"dream","date":"2024-01-01T00:00:00Z"}`)

	tests := []struct {
		name string
		path string
	}{
		{"someone else's", fmt.Sprintf("/api/journals/%d", theirs.ID)},
		{"never existed", "/api/journals/9999"},
		{"not an integer", "/api/journals/abc"},
		{"zero", "/api/journals/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodGet, tt.path, alice, "")

			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.Equal(t, "not_found", decode[errorBody](t, rr).Error)
		})
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestJournalList_OnlyCallers(t *testing.T) {
	api := newTestAPI(t)
	_, alice := api.signUp(t, "alice")
	_, bob := api.signUp(t, "bob")

	createJournal(t, api, alice, `{"title":"a1","type":"daily","date":"2024-01-01T00:00:00Z"}`)
	createJournal(t, api, bob, `{"title":"b1","type":"daily","date":"2024-01-01T00:00:00Z"}`)
	createJournal(t, api, alice, `{"title":"a2","type":"casual","date":"2024-01-02T00:00:00Z"}`)

	rr := api.do(t, http.MethodGet, "/api/journals", alice, "")
	require.Equal(t, http.StatusOK, rr.Code)

	list := decode[[]model.Journal](t, rr)
	require.Len(t, list, 2)
	assert.Equal(t, "a1", list[0].Title)
	assert.Equal(t, "a2", list[1].Title)
}

func TestJournalList_EmptyIsArray(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.signUp(t, "alice")

	rr := api.do(t, http.MethodGet, "/api/journals", token, "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestJournalRoutes_RequireAuth(t *testing.T) {
	api := newTestAPI(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/journals"},
		{http.MethodPost, "/api/journals"},
		{http.MethodGet, "/api/journals/1"},
		{http.MethodPatch, "/api/journals/1"},
		{http.MethodDelete, "/api/journals/1"},
	} {
		rr := api.do(t, tc.method, tc.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", tc.method, tc.path)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestJournalUpdate_PartialMerge(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.signUp(t, "alice")
	orig := createJournal(t, api, token,
		`{"title":"old","content":"body","type":"travel","date":"2024-03-01T10:00:00Z","tags":["x","y"],"mood":"happy"}`)
	path := fmt.Sprintf("/api/journals/%d", orig.ID)

	rr := api.do(t, http.MethodPatch, path, token, `{"title":"new"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[model.Journal](t, rr)

	assert.Equal(t, "new", got.Title)
	assert.Equal(t, "body", got.Content)
	assert.Equal(t, []string{"x", "y"}, got.Tags)
	assert.Equal(t, "happy", got.Mood)
	assert.True(t, got.Date.Equal(orig.Date))
	assert.False(t, got.UpdatedAt.Before(orig.UpdatedAt))
}

func TestJournalUpdate_EmptyTagsAndMoodRetained(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.signUp(t, "alice")
	orig := createJournal(t, api, token, `{"title":"t","type":"daily","date":"2024-01-01T00:00:00Z","tags":["keep"],"mood":"calm"}`)

	rr := api.do(t, http.MethodPatch, fmt.Sprintf("/api/journals/%d", orig.ID), token, `{"tags":[],"mood":""}`)
	require.Equal(t, http.StatusOK, rr.Code)

	got := decode[model.Journal](t, rr)
	assert.Equal(t, []string{"keep"}, got.Tags)
	assert.Equal(t, "calm", got.Mood)
}

func TestJournalUpdate_FolderSetAndCleared(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.signUp(t, "alice")

	rr := api.do(t, http.MethodPost, "/api/folders", token, `{"name":"f"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	folder := decode[model.Folder](t, rr)

	j := createJournal(t, api, token, `{"title":"t","type":"daily","date":"2024-01-01T00:00:00Z"}`)
	path := fmt.Sprintf("/api/journals/%d", j.ID)

	rr = api.do(t, http.MethodPatch, path, token, fmt.Sprintf(`{"folderId":%d}`, folder.ID))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	moved := decode[model.Journal](t, rr)
	require.NotNil(t, moved.FolderID)
	assert.Equal(t, folder.ID, *moved.FolderID)

	rr = api.do(t, http.MethodPatch, path, token, `{"folderId":null}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decode[model.Journal](t, rr).FolderID)
}

func TestJournalUpdate_ForeignIsNotFoundAndUnchanged(t *testing.T) {
	api := newTestAPI(t)
	_, alice := api.signUp(t, "alice")
	_, bob := api.signUp(t, "bob")
	theirs := createJournal(t, api, bob, `{"title":"bob's","type":"daily","date":"2024-01-01T00:00:00Z"}`)
	path := fmt.Sprintf("/api/journals/%d", theirs.ID)

	// even an invalid body gets 404: ownership is checked first
	for _, body := range []string{`{"title":"hijacked"}`, `{"type":"weekly"}`, `{"title":5}`, `{not json`} {
		rr := api.do(t, http.MethodPatch, path, alice, body)
		assert.Equal(t, http.StatusNotFound, rr.Code, body)
	}

	rr := api.do(t, http.MethodGet, path, bob, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "bob's", decode[model.Journal](t, rr).Title)
}

func TestJournalUpdate_Validation(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.signUp(t, "alice")
	j := createJournal(t, api, token, `{"title":"t","type":"daily","date":"2024-01-01T00:00:00Z"}`)

	rr := api.do(t, http.MethodPatch, fmt.Sprintf("/api/journals/%d", j.ID), token, `{"type":"weekly"}`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[errorBody](t, rr).Fields, "type")
}

func TestJournalUpdate_MalformedBody(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.signUp(t, "alice")
	j := createJournal(t, api, token, `{"title":"t","type":"daily","date":"2024-01-01T00:00:00Z"}`)
	path := fmt.Sprintf("/api/journals/%d", j.ID)

	rr := api.do(t, http.MethodPatch, path, token, `{"title":5}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[errorBody](t, rr).Fields, "body")

	// a missing id is 404, same as a foreign one
	rr = api.do(t, http.MethodPatch, "/api/journals/9999", token, `{"title":5}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestJournalDelete(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.signUp(t, "alice")
	j := createJournal(t, api, token, `{"title":"t","type":"daily","date":"2024-01-01T00:00:00Z"}`)
	path := fmt.Sprintf("/api/journals/%d", j.ID)

	rr := api.do(t, http.MethodDelete, path, token, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = api.do(t, http.MethodGet, path, token, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestJournalDelete_Foreign(t *testing.T) {
	api := newTestAPI(t)
	_, alice := api.signUp(t, "alice")
	_, bob := api.signUp(t, "bob")
	theirs := createJournal(t, api, bob, `{"title":"t","type":"daily","date":"2024-01-01T00:00:00Z"}`)
	path := fmt.Sprintf("/api/journals/%d", theirs.ID)

	rr := api.do(t, http.MethodDelete, path, alice, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(t, http.MethodGet, path, bob, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
