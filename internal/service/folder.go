package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/journalize/internal/model"
	"github.com/sakif/journalize/internal/repository"
)

type FolderService struct {
	folders repository.FolderRepository
	logger  *slog.Logger
}

func NewFolderService(folders repository.FolderRepository, logger *slog.Logger) *FolderService {
	return &FolderService{folders: folders, logger: logger}
}

// Create stores a new folder. A parentId must name one of the caller's own
// folders.
func (s *FolderService) Create(ctx context.Context, callerID int64, req CreateFolderRequest) (*model.Folder, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validationError(req.validate()); err != nil {
		return nil, err
	}
	if err := checkFolderRef(ctx, s.folders, callerID, "parentId", req.ParentID); err != nil {
		return nil, err
	}

	f, err := s.folders.CreateFolder(ctx, callerID, model.FolderInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		s.logger.Error("failed to create folder",
			slog.Int64("userID", callerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	s.logger.Info("folder created", slog.Int64("id", f.ID), slog.Int64("userID", callerID))
	return f, nil
}

func (s *FolderService) List(ctx context.Context, callerID int64) ([]model.Folder, error) {
	folders, err := s.folders.GetUserFolders(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}
