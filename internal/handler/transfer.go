package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/journalize/internal/service"
)

// TransferHandler serves the export and import endpoints of the settings
// page. The export body is a JSON array of journals and import accepts that
// same array back.
type TransferHandler struct {
	transfer *service.TransferService
	logger   *slog.Logger
	now      func() time.Time
}

func NewTransferHandler(transfer *service.TransferService, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{transfer: transfer, logger: logger, now: time.Now}
}

// HandleExport downloads the caller's journals as journals-YYYY-MM-DD.json.
//
// HTTP: GET /api/export
func (h *TransferHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	journals, err := h.transfer.Export(r.Context(), callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	// Content-Disposition: attachment makes browsers save instead of render.
	filename := fmt.Sprintf("journals-%s.json", h.now().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeJSON(w, http.StatusOK, journals)
}

type importResponse struct {
	Imported int `json:"imported"`
}

// HandleImport recreates journals from an export file as new journals
// owned by the caller.
//
// HTTP: POST /api/import
// REQUEST BODY: the array produced by GET /api/export
func (h *TransferHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var entries []service.CreateJournalRequest
	if err := decodeJSON(w, r, &entries); err != nil {
		writeError(w, err)
		return
	}

	n, err := h.transfer.Import(r.Context(), callerID, entries)
	if err != nil {
		if n > 0 {
			h.logger.Warn("import stopped part way",
				slog.Int64("userID", callerID),
				slog.Int("imported", n),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, importResponse{Imported: n})
}
