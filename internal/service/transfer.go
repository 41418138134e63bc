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

// MaxImportJournals bounds a single import request.
const MaxImportJournals = 1000

// TransferService moves a user's journals in and out as JSON documents in
// the same shape the API returns them.
type TransferService struct {
	journals repository.JournalRepository
	folders  repository.FolderRepository
	logger   *slog.Logger
}

func NewTransferService(journals repository.JournalRepository, folders repository.FolderRepository, logger *slog.Logger) *TransferService {
	return &TransferService{journals: journals, folders: folders, logger: logger}
}

// Export returns every journal the caller owns.
func (s *TransferService) Export(ctx context.Context, callerID int64) ([]model.Journal, error) {
	journals, err := s.journals.GetUserJournals(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("exporting journals: %w", err)
	}
	s.logger.Info("journals exported", slog.Int64("userID", callerID), slog.Int("count", len(journals)))
	return journals, nil
}

// Import creates a new journal for every entry. The whole batch is validated
// before anything is written, so one bad entry rejects them all.
//
// Ids, owners and timestamps in the file are ignored: entries become fresh
// journals owned by the caller. A folderId that isn't one of the caller's
// folders (say, a file exported from another account) is dropped.
func (s *TransferService) Import(ctx context.Context, callerID int64, entries []CreateJournalRequest) (int, error) {
	if len(entries) > MaxImportJournals {
		return 0, apperror.ValidationFailed("journals",
			fmt.Sprintf("at most %d journals can be imported at once", MaxImportJournals))
	}

	fields := make(map[string]string)
	inputs := make([]model.JournalInput, 0, len(entries))
	for i := range entries {
		prefix := fmt.Sprintf("journals[%d]", i)
		if err := entries[i].validate(); err != nil {
			if !collectFieldErrors(prefix, err, fields) {
				return 0, fmt.Errorf("validating %s: %w", prefix, err)
			}
			continue
		}
		in, err := entries[i].toInput()
		if err != nil {
			fields[prefix+".date"] = "must be an ISO-8601 datetime"
			continue
		}
		inputs = append(inputs, in)
	}
	if len(fields) > 0 {
		return 0, apperror.ValidationFields(fields)
	}

	owned, err := s.ownedFolderIDs(ctx, callerID)
	if err != nil {
		return 0, err
	}

	for i, in := range inputs {
		if in.FolderID != nil && !owned[*in.FolderID] {
			in.FolderID = nil
		}
		if _, err := s.journals.CreateJournal(ctx, callerID, in); err != nil {
			s.logger.Error("import stopped part way",
				slog.Int64("userID", callerID),
				slog.Int("imported", i),
				slog.Int("total", len(inputs)),
				slog.String("error", err.Error()),
			)
			return i, fmt.Errorf("importing journal %d of %d: %w", i+1, len(inputs), err)
		}
	}

	s.logger.Info("journals imported", slog.Int64("userID", callerID), slog.Int("count", len(inputs)))
	return len(inputs), nil
}

func (s *TransferService) ownedFolderIDs(ctx context.Context, callerID int64) (map[int64]bool, error) {
	folders, err := s.folders.GetUserFolders(ctx, callerID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("listing folders: %w", err)
	}

	owned := make(map[int64]bool, len(folders))
	for _, f := range folders {
		owned[f.ID] = true
	}
	return owned, nil
}
