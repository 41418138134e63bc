// Package repository declares the storage contracts the service layer
// depends on. Implementations live in subpackages: memory (the default
// in-process store, also used by tests) and sqlite (file-backed).
//
// Every "get one" method returns an error wrapping apperror.ErrNotFound when
// the record does not exist. Nothing here knows about callers or ownership;
// that is the service layer's job.
package repository

import (
	"context"

	"github.com/sakif/journalize/internal/model"
)

type UserRepository interface {
	// CreateUser does not reject duplicate usernames by itself; callers
	// check GetUserByUsername first.
	CreateUser(ctx context.Context, in model.UserInput) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
}

type JournalRepository interface {
	CreateJournal(ctx context.Context, ownerID int64, in model.JournalInput) (*model.Journal, error)
	GetJournal(ctx context.Context, id int64) (*model.Journal, error)
	UpdateJournal(ctx context.Context, id int64, patch model.JournalPatch) (*model.Journal, error)
	// DeleteJournal is idempotent: deleting an absent id returns nil.
	DeleteJournal(ctx context.Context, id int64) error
	// GetUserJournals returns the owner's journals in creation order.
	GetUserJournals(ctx context.Context, ownerID int64) ([]model.Journal, error)
}

type FolderRepository interface {
	CreateFolder(ctx context.Context, ownerID int64, in model.FolderInput) (*model.Folder, error)
	GetFolder(ctx context.Context, id int64) (*model.Folder, error)
	GetUserFolders(ctx context.Context, ownerID int64) ([]model.Folder, error)
}

// Store is the full entity store. All three entity kinds draw identities
// from one shared counter, so an id is unique across the whole store.
type Store interface {
	UserRepository
	JournalRepository
	FolderRepository
	Close() error
}
