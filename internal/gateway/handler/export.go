package handler

import (
	"encoding/json"
	"net/http"

	"alloclab/internal/export"
	"alloclab/internal/gateway/service/dataset"
	"alloclab/internal/validate"
)

type ExportHandler struct {
	ds   *dataset.Service
	opts validate.Options
}

func NewExportHandler(ds *dataset.Service, opts validate.Options) *ExportHandler {
	return &ExportHandler{ds: ds, opts: opts}
}

type exportResponse struct {
	Clients json.RawMessage `json:"clients"`
	Workers json.RawMessage `json:"workers"`
	Tasks   json.RawMessage `json:"tasks"`
	Rules   json.RawMessage `json:"rules"`
	Version int64           `json:"version"`
}

// HandleExport renders the cleaned dataset plus the rules config. While hard
// errors remain the export is refused with 409; warnings never block.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	snap := h.ds.Snapshot()
	bundle, err := export.Build(snap.Dataset, snap.Rules, h.opts)
	if err != nil {
		writeError(w, http.StatusConflict, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{
		Clients: bundle.Clients,
		Workers: bundle.Workers,
		Tasks:   bundle.Tasks,
		Rules:   bundle.Rules,
		Version: snap.Version,
	})
}
