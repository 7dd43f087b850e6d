// Package handler exposes the validation engine over JSON HTTP for the grid
// UI. Handlers stay thin: decode, call a service, encode.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"alloclab/internal/entity"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorBody{Error: fmt.Sprintf(format, args...)})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return false
	}
	return true
}

func entityType(r *http.Request) (entity.Type, bool) {
	switch r.PathValue("entity") {
	case "clients":
		return entity.TypeClient, true
	case "workers":
		return entity.TypeWorker, true
	case "tasks":
		return entity.TypeTask, true
	default:
		return "", false
	}
}

func rowIndex(r *http.Request) (int, error) {
	return strconv.Atoi(r.PathValue("index"))
}
