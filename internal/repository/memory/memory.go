// Package memory implements repository.Store with plain Go maps.
//
// It is the default backend and the one every service and handler test runs
// against. Data lives for the lifetime of the process.
//
// CONCURRENCY:
// net/http runs each request on its own goroutine, so every method takes the
// store's single RWMutex. Reads share the lock; anything that touches the id
// counter or a map value takes it exclusively, which makes each operation one
// atomic read-modify-write.
//
// COPY ON THE WAY IN AND OUT:
// Journals hold a slice (Tags) and pointers (FolderID). Returning the stored
// value directly would let a caller mutate the store without the lock, so
// every method hands out clones.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sakif/journalize/internal/apperror"
	"github.com/sakif/journalize/internal/model"
	"github.com/sakif/journalize/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	users    map[int64]model.User
	journals map[int64]model.Journal
	folders  map[int64]model.Folder
	nextID   int64

	// now is swappable so tests can drive timestamps.
	now func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[int64]model.User),
		journals: make(map[int64]model.Journal),
		folders:  make(map[int64]model.Folder),
		nextID:   1,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// allocateID hands out the next identity. Callers must hold s.mu for writing.
func (s *Store) allocateID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) Close() error {
	return nil
}

// =========================================================================
// USERS
// =========================================================================

func (s *Store) CreateUser(_ context.Context, in model.UserInput) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := model.User{
		ID:           s.allocateID(),
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		GitHubID:     cloneID(in.GitHubID),
		CreatedAt:    s.now().UTC(),
	}
	s.users[u.ID] = u

	return cloneUser(u), nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return cloneUser(u), nil
}

// GetUserByUsername scans every user. Maps have no order, so when duplicates
// exist the lowest id wins to keep "first match" deterministic.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.User
	for _, u := range s.users {
		if u.Username == username && (found == nil || u.ID < found.ID) {
			found = cloneUser(u)
		}
	}
	if found == nil {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found: " + username}
	}
	return found, nil
}

func (s *Store) GetUserByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.GitHubID != nil && *u.GitHubID == githubID {
			return cloneUser(u), nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "no user linked to that GitHub account"}
}

func (s *Store) UpdateUserPassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}

// =========================================================================
// JOURNALS
// =========================================================================

func (s *Store) CreateJournal(_ context.Context, ownerID int64, in model.JournalInput) (*model.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := model.NewJournal(s.allocateID(), ownerID, in, s.now())
	s.journals[j.ID] = j

	out := j.Clone()
	return &out, nil
}

func (s *Store) GetJournal(_ context.Context, id int64) (*model.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.journals[id]
	if !ok {
		return nil, apperror.NotFound("journal", id)
	}
	out := j.Clone()
	return &out, nil
}

func (s *Store) UpdateJournal(_ context.Context, id int64, patch model.JournalPatch) (*model.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.journals[id]
	if !ok {
		return nil, apperror.NotFound("journal", id)
	}

	merged := existing.Merge(patch, s.now())
	s.journals[id] = merged

	out := merged.Clone()
	return &out, nil
}

func (s *Store) DeleteJournal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// delete on a missing key is a no-op, which is exactly the contract.
	delete(s.journals, id)
	return nil
}

func (s *Store) GetUserJournals(_ context.Context, ownerID int64) ([]model.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Journal, 0)
	for _, j := range s.journals {
		if j.UserID == ownerID {
			out = append(out, j.Clone())
		}
	}
	sortByID(out, func(j model.Journal) int64 { return j.ID })
	return out, nil
}

// =========================================================================
// FOLDERS
// =========================================================================

func (s *Store) CreateFolder(_ context.Context, ownerID int64, in model.FolderInput) (*model.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := model.Folder{
		ID:       s.allocateID(),
		UserID:   ownerID,
		Name:     in.Name,
		ParentID: cloneID(in.ParentID),
	}
	s.folders[f.ID] = f

	return cloneFolder(f), nil
}

func (s *Store) GetFolder(_ context.Context, id int64) (*model.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.folders[id]
	if !ok {
		return nil, apperror.NotFound("folder", id)
	}
	return cloneFolder(f), nil
}

func (s *Store) GetUserFolders(_ context.Context, ownerID int64) ([]model.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Folder, 0)
	for _, f := range s.folders {
		if f.UserID == ownerID {
			out = append(out, *cloneFolder(f))
		}
	}
	sortByID(out, func(f model.Folder) int64 { return f.ID })
	return out, nil
}
