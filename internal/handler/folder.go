package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/journalize/internal/service"
)

type FolderHandler struct {
	folders *service.FolderService
	logger  *slog.Logger
}

func NewFolderHandler(folders *service.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{folders: folders, logger: logger}
}

// HTTP: POST /api/folders
// REQUEST BODY: {"name":"Travel","parentId":3}
func (h *FolderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var req service.CreateFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	f, err := h.folders.Create(r.Context(), callerID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, f)
}

// HTTP: GET /api/folders
func (h *FolderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	folders, err := h.folders.List(r.Context(), callerID)
	if err != nil {
		h.logger.Error("failed to list folders",
			slog.Int64("userID", callerID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, folders)
}
