package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"alloclab/internal/gateway/repository/uploadstore"
)

// maxUploadBytes caps one spreadsheet blob. The grid UI parses files
// client-side; the raw copy here is for re-download only.
const maxUploadBytes = 32 << 20

type UploadsHandler struct {
	store uploadstore.Store
}

func NewUploadsHandler(store uploadstore.Store) *UploadsHandler {
	return &UploadsHandler{store: store}
}

type uploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
	Size     int    `json:"size"`
}

// HandleUpload stores the raw request body under a fresh upload id. The
// original filename rides in the X-Filename header.
func (h *UploadsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: %v", err)
		return
	}
	if len(content) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds %d bytes", maxUploadBytes)
		return
	}

	blob := uploadstore.Blob{
		ID:          uuid.NewString(),
		Filename:    strings.TrimSpace(r.Header.Get("X-Filename")),
		ContentType: r.Header.Get("Content-Type"),
		Content:     content,
	}
	if err := h.store.Put(r.Context(), blob); err != nil {
		writeError(w, http.StatusInternalServerError, "store upload: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{ID: blob.ID, Filename: blob.Filename, Size: len(content)})
}

// HandleDownload returns the stored blob verbatim.
func (h *UploadsHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	blob, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, uploadstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "upload not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "load upload: %v", err)
		return
	}
	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if blob.Filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+blob.Filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Content)
}
