package handler

import (
	"net/http"

	"alloclab/internal/fix"
	"alloclab/internal/gateway/metrics"
	"alloclab/internal/gateway/service/dataset"
	"alloclab/internal/gateway/service/validation"
	"alloclab/internal/validate"
)

type ValidationHandler struct {
	ds      *dataset.Service
	vs      *validation.Service
	advisor *fix.Advisor
}

func NewValidationHandler(ds *dataset.Service, vs *validation.Service, advisor *fix.Advisor) *ValidationHandler {
	return &ValidationHandler{ds: ds, vs: vs, advisor: advisor}
}

// HandleValidate runs validation now, bypassing the debounce.
func (h *ValidationHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.vs.ValidateNow())
}

type suggestRequest struct {
	Error validate.Error `json:"error"`
}

type suggestResponse struct {
	Suggestions []fix.Suggestion `json:"suggestions"`
}

// HandleSuggest returns ranked fix suggestions for one validation error.
func (h *ValidationHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Error.RuleType == "" {
		writeError(w, http.StatusBadRequest, "error.ruleType is required")
		return
	}
	snap := h.ds.Snapshot()
	writeJSON(w, http.StatusOK, suggestResponse{
		Suggestions: h.advisor.Suggest(req.Error, snap.Dataset),
	})
}

type applyRequest struct {
	Error        validate.Error `json:"error"`
	SuggestionID string         `json:"suggestionId"`
}

type applyResponse struct {
	Outcome fix.Outcome `json:"outcome"`
	Version int64       `json:"version"`
}

// HandleApply applies one suggestion. The new dataset is published only when
// the fix succeeds; a failed fix leaves the snapshot untouched.
func (h *ValidationHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.SuggestionID == "" {
		writeError(w, http.StatusBadRequest, "suggestionId is required")
		return
	}
	snap := h.ds.Snapshot()
	fixed, outcome := h.advisor.Apply(snap.Dataset, req.Error, req.SuggestionID)
	version := snap.Version
	if outcome.Success {
		version = h.ds.PublishDataset(fixed).Version
		metrics.FixApplied(string(req.Error.RuleType))
	}
	writeJSON(w, http.StatusOK, applyResponse{Outcome: outcome, Version: version})
}

type bulkResponse struct {
	Report  fix.BulkReport `json:"report"`
	Version int64          `json:"version"`
}

// HandleBulk auto-fixes everything fixable in the current error list.
// The errors are derived from the same snapshot the fixes are applied to,
// so a concurrent edit cannot make the advisor chase stale rows.
func (h *ValidationHandler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	snap := h.ds.Snapshot()
	summary := h.vs.Summarize(snap)
	fixed, report := h.advisor.BulkApply(snap.Dataset, summary.AllErrors())
	version := snap.Version
	if report.FixedCount > 0 {
		version = h.ds.PublishDataset(fixed).Version
		metrics.FixApplied("bulk")
	}
	writeJSON(w, http.StatusOK, bulkResponse{Report: report, Version: version})
}
