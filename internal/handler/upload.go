package handler

import (
	"net/http"

	"github.com/sakif/journalize/internal/apperror"
)

// HandleUpload reserves POST /api/upload for attachments. Nothing is stored
// yet, so every call is 501.
func HandleUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFromRequest(w, r); !ok {
		return
	}
	writeError(w, apperror.NotImplemented("file upload is not implemented"))
}

// HandleHealth answers liveness checks.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
