package handler

import (
	"encoding/json"
	"net/http"

	rulesvc "alloclab/internal/gateway/service/rules"
	"alloclab/internal/rules"
	"alloclab/internal/validate"
)

type RulesHandler struct {
	svc *rulesvc.Service
}

func NewRulesHandler(svc *rulesvc.Service) *RulesHandler {
	return &RulesHandler{svc: svc}
}

type rulesListResponse struct {
	Rules []json.RawMessage `json:"rules"`
}

func (h *RulesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if list == nil {
		list = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, rulesListResponse{Rules: list})
}

type ruleAddResponse struct {
	Rule     json.RawMessage  `json:"rule"`
	Warnings []validate.Error `json:"warnings"`
	Version  int64            `json:"version"`
}

// HandleAdd installs one rule. Feasibility warnings come back with the rule;
// they are advisory, the rule is installed either way.
func (h *RulesHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if !readJSON(w, r, &raw) {
		return
	}
	rule, warnings, version, err := h.svc.Add(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	encoded, err := rules.Encode(rule)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if warnings == nil {
		warnings = []validate.Error{}
	}
	writeJSON(w, http.StatusOK, ruleAddResponse{Rule: encoded, Warnings: warnings, Version: version})
}

func (h *RulesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	version, ok := h.svc.Delete(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no rule %q", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id, "version": version})
}

type convertRequest struct {
	Text string `json:"text"`
}

type convertResponse struct {
	Rule     json.RawMessage  `json:"rule"`
	Warnings []validate.Error `json:"warnings"`
}

// HandleConvert proposes a rule from natural language. The proposal is not
// installed; the client reviews it and posts it to HandleAdd.
func (h *RulesHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if !readJSON(w, r, &req) {
		return
	}
	rule, warnings, err := h.svc.Convert(r.Context(), req.Text)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "%v", err)
		return
	}
	if warnings == nil {
		warnings = []validate.Error{}
	}
	writeJSON(w, http.StatusOK, convertResponse{Rule: rule, Warnings: warnings})
}
