// Package service contains the business rules of the journaling backend.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)       → parses requests, writes responses
//	Service (this)       → validates, enforces ownership, orchestrates
//	Repository (storage) → reads and writes entities
//
// Services take repository interfaces, never a concrete store, so the same
// code runs on the memory store, on SQLite, and on the fakes in the tests.
// They know nothing about HTTP: errors come back as apperror values and the
// handler layer picks the status code.
//
// OWNERSHIP:
// Every journal and folder belongs to the user who created it. When a caller
// asks for someone else's record the service answers NotFound, exactly as if
// the record didn't exist, so ids can't be used to learn what others have.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/journalize/internal/apperror"
	"github.com/sakif/journalize/internal/model"
	"github.com/sakif/journalize/internal/repository"
)

type JournalService struct {
	journals repository.JournalRepository
	folders  repository.FolderRepository
	logger   *slog.Logger
}

func NewJournalService(journals repository.JournalRepository, folders repository.FolderRepository, logger *slog.Logger) *JournalService {
	return &JournalService{
		journals: journals,
		folders:  folders,
		logger:   logger,
	}
}

// Create validates req and stores a new journal owned by callerID.
func (s *JournalService) Create(ctx context.Context, callerID int64, req CreateJournalRequest) (*model.Journal, error) {
	if err := validationError(req.validate()); err != nil {
		return nil, err
	}
	in, err := req.toInput()
	if err != nil {
		return nil, err
	}
	if err := checkFolderRef(ctx, s.folders, callerID, "folderId", in.FolderID); err != nil {
		return nil, err
	}

	j, err := s.journals.CreateJournal(ctx, callerID, in)
	if err != nil {
		s.logger.Error("failed to create journal",
			slog.Int64("userID", callerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating journal: %w", err)
	}

	s.logger.Info("journal created",
		slog.Int64("id", j.ID),
		slog.Int64("userID", callerID),
		slog.String("type", string(j.Type)),
	)
	return j, nil
}

// List returns the caller's journals in creation order.
func (s *JournalService) List(ctx context.Context, callerID int64) ([]model.Journal, error) {
	journals, err := s.journals.GetUserJournals(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	return journals, nil
}

func (s *JournalService) Get(ctx context.Context, callerID, id int64) (*model.Journal, error) {
	return s.owned(ctx, callerID, id)
}

// Update applies a partial update to one of the caller's journals.
//
// Ownership is checked before the body is validated, so someone else's id
// is 404 whatever the request holds.
func (s *JournalService) Update(ctx context.Context, callerID, id int64, req UpdateJournalRequest) (*model.Journal, error) {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return nil, err
	}

	if err := validationError(req.validate()); err != nil {
		return nil, err
	}
	patch, err := req.toPatch()
	if err != nil {
		return nil, err
	}
	if patch.FolderID.Present {
		if err := checkFolderRef(ctx, s.folders, callerID, "folderId", patch.FolderID.Value); err != nil {
			return nil, err
		}
	}

	updated, err := s.journals.UpdateJournal(ctx, id, patch)
	if errors.Is(err, apperror.ErrNotFound) {
		// It existed a moment ago. Only a concurrent delete gets here.
		s.logger.Error("journal vanished during update",
			slog.Int64("id", id),
			slog.Int64("userID", callerID),
		)
		return nil, apperror.Internal(fmt.Sprintf("journal %d disappeared during update", id))
	}
	if err != nil {
		s.logger.Error("failed to update journal",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating journal %d: %w", id, err)
	}

	s.logger.Info("journal updated", slog.Int64("id", id), slog.Int64("userID", callerID))
	return updated, nil
}

// Delete removes one of the caller's journals.
func (s *JournalService) Delete(ctx context.Context, callerID, id int64) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.journals.DeleteJournal(ctx, id); err != nil {
		s.logger.Error("failed to delete journal",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting journal %d: %w", id, err)
	}

	s.logger.Info("journal deleted", slog.Int64("id", id), slog.Int64("userID", callerID))
	return nil
}

// owned fetches a journal and applies the ownership guard.
func (s *JournalService) owned(ctx context.Context, callerID, id int64) (*model.Journal, error) {
	j, err := s.journals.GetJournal(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading journal %d: %w", id, err)
	}
	if err := guard(callerID, j.UserID, "journal", id); err != nil {
		return nil, err
	}
	return j, nil
}

// guard is the single ownership rule: mismatches look exactly like a
// missing record.
func guard(callerID, ownerID int64, resource string, id int64) error {
	if callerID != ownerID {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// checkFolderRef makes sure a folder id in a payload names one of the
// caller's folders. A nil id is always fine.
func checkFolderRef(ctx context.Context, folders repository.FolderRepository, callerID int64, field string, folderID *int64) error {
	if folderID == nil {
		return nil
	}

	f, err := folders.GetFolder(ctx, *folderID)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.ValidationFailed(field, "folder not found")
	}
	if err != nil {
		return fmt.Errorf("loading folder %d: %w", *folderID, err)
	}
	if guard(callerID, f.UserID, "folder", f.ID) != nil {
		return apperror.ValidationFailed(field, "folder not found")
	}
	return nil
}
