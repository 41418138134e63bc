package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/journalize/internal/apperror"
	"github.com/sakif/journalize/internal/auth"
	"github.com/sakif/journalize/internal/service"
)

// JournalHandler serves the /api/journals endpoints.
//
// It only translates: decode the body, call the service with the caller's
// id, encode the result. Validation, ownership and the merge rules all live
// in service.JournalService.
type JournalHandler struct {
	journals *service.JournalService
	logger   *slog.Logger
}

func NewJournalHandler(journals *service.JournalService, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{journals: journals, logger: logger}
}

// HandleCreate stores a new journal for the caller.
//
// HTTP: POST /api/journals
// REQUEST BODY: {"title":"Day one","type":"daily","date":"2024-01-01T00:00:00.000Z","tags":["a"]}
func (h *JournalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var req service.CreateJournalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	j, err := h.journals.Create(r.Context(), callerID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, j)
}

// HandleList returns the caller's journals, oldest first.
//
// HTTP: GET /api/journals
func (h *JournalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	journals, err := h.journals.List(r.Context(), callerID)
	if err != nil {
		h.logger.Error("failed to list journals",
			slog.Int64("userID", callerID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, journals)
}

// HTTP: GET /api/journals/{id}
func (h *JournalHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "journal")
	if err != nil {
		writeError(w, err)
		return
	}

	j, err := h.journals.Get(r.Context(), callerID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, j)
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /api/journals/{id}
// REQUEST BODY: any subset of the create fields; "folderId": null moves the
// journal out of its folder.
//
// The journal is looked up before the body is decoded, so a foreign or
// missing id is 404 even when the body is malformed.
func (h *JournalHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "journal")
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.journals.Get(r.Context(), callerID, id); err != nil {
		writeError(w, err)
		return
	}

	var req service.UpdateJournalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	j, err := h.journals.Update(r.Context(), callerID, id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, j)
}

// HandleDelete removes one of the caller's journals. Missing and foreign
// ids are both 404.
//
// HTTP: DELETE /api/journals/{id}
func (h *JournalHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "journal")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.journals.Delete(r.Context(), callerID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// callerFromRequest reads the id RequireAuth put in the context. A missing
// id means the route was mounted outside the auth group; answer 401 rather
// than act on behalf of nobody.
func callerFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("authentication required"))
		return 0, false
	}
	return id, true
}
