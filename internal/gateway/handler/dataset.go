package handler

import (
	"net/http"

	"alloclab/internal/entity"
	"alloclab/internal/gateway/service/dataset"
)

type DatasetHandler struct {
	ds *dataset.Service
}

func NewDatasetHandler(ds *dataset.Service) *DatasetHandler {
	return &DatasetHandler{ds: ds}
}

type datasetResponse struct {
	Clients  []entity.Client  `json:"clients"`
	Workers  []entity.Worker  `json:"workers"`
	Tasks    []entity.Task    `json:"tasks"`
	Version  int64            `json:"version"`
	Modified dataset.Modified `json:"modified"`
}

func datasetBody(snap dataset.Snapshot) datasetResponse {
	return datasetResponse{
		Clients:  snap.Dataset.Clients,
		Workers:  snap.Dataset.Workers,
		Tasks:    snap.Dataset.Tasks,
		Version:  snap.Version,
		Modified: snap.Modified,
	}
}

// HandleGet serves the current snapshot.
func (h *DatasetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, datasetBody(h.ds.Snapshot()))
}

// HandleReplace swaps one collection wholesale, as a fresh upload does.
// The body is the JSON array the client-side parser produced.
func (h *DatasetHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	t, ok := entityType(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown collection %q", r.PathValue("entity"))
		return
	}

	var (
		snap dataset.Snapshot
		err  error
	)
	switch t {
	case entity.TypeClient:
		var rows []entity.Client
		if !readJSON(w, r, &rows) {
			return
		}
		snap, err = h.ds.ReplaceCollection(t, rows, nil, nil)
	case entity.TypeWorker:
		var rows []entity.Worker
		if !readJSON(w, r, &rows) {
			return
		}
		snap, err = h.ds.ReplaceCollection(t, nil, rows, nil)
	case entity.TypeTask:
		var rows []entity.Task
		if !readJSON(w, r, &rows) {
			return
		}
		snap, err = h.ds.ReplaceCollection(t, nil, nil, rows)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, datasetBody(snap))
}

// HandleUpdateRow replaces one record in place.
func (h *DatasetHandler) HandleUpdateRow(w http.ResponseWriter, r *http.Request) {
	t, ok := entityType(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown collection %q", r.PathValue("entity"))
		return
	}
	index, err := rowIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row index")
		return
	}

	var snap dataset.Snapshot
	switch t {
	case entity.TypeClient:
		var row entity.Client
		if !readJSON(w, r, &row) {
			return
		}
		snap, err = h.ds.UpdateRow(t, index, &row, nil, nil)
	case entity.TypeWorker:
		var row entity.Worker
		if !readJSON(w, r, &row) {
			return
		}
		snap, err = h.ds.UpdateRow(t, index, nil, &row, nil)
	case entity.TypeTask:
		var row entity.Task
		if !readJSON(w, r, &row) {
			return
		}
		snap, err = h.ds.UpdateRow(t, index, nil, nil, &row)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, datasetBody(snap))
}

// HandleDeleteRow removes one record.
func (h *DatasetHandler) HandleDeleteRow(w http.ResponseWriter, r *http.Request) {
	t, ok := entityType(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown collection %q", r.PathValue("entity"))
		return
	}
	index, err := rowIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row index")
		return
	}
	snap, err := h.ds.DeleteRow(t, index)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, datasetBody(snap))
}
