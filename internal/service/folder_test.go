package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/journalize/internal/model"
	"github.com/sakif/journalize/internal/repository/memory"
)

func newTestFolderService(t *testing.T) (*FolderService, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewFolderService(store, newTestLogger()), store
}

func TestFolderCreate(t *testing.T) {
	svc, _ := newTestFolderService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, 1, CreateFolderRequest{Name: "  Travel  "})
	require.NoError(t, err)
	assert.Equal(t, "Travel", root.Name)
	assert.Equal(t, int64(1), root.UserID)
	assert.Nil(t, root.ParentID)

	child, err := svc.Create(ctx, 1, CreateFolderRequest{Name: "Japan", ParentID: &root.ID})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)
}

func TestFolderCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateFolderRequest
		field string
	}{
		{"missing name", CreateFolderRequest{}, "name"},
		{"blank name", CreateFolderRequest{Name: "   "}, "name"},
		{"long name", CreateFolderRequest{Name: strings.Repeat("n", MaxFolderNameLength+1)}, "name"},
		{"unknown parent", CreateFolderRequest{Name: "x", ParentID: ptr(int64(404))}, "parentId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestFolderService(t)
			_, err := svc.Create(context.Background(), 1, tt.req)
			assertFieldError(t, err, tt.field)
		})
	}
}

func TestFolderCreate_ParentMustBeCallers(t *testing.T) {
	svc, store := newTestFolderService(t)
	ctx := context.Background()
	theirs, err := store.CreateFolder(ctx, 2, model.FolderInput{Name: "theirs"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, 1, CreateFolderRequest{Name: "mine", ParentID: &theirs.ID})

	assertFieldError(t, err, "parentId")
}

func TestFolderList(t *testing.T) {
	svc, _ := newTestFolderService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateFolderRequest{Name: "a"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, CreateFolderRequest{Name: "b"})
	require.NoError(t, err)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Name)

	empty, err := svc.List(ctx, 3)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
