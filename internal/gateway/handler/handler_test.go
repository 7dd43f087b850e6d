package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"alloclab/internal/fix"
	"alloclab/internal/gateway/handler"
	"alloclab/internal/gateway/repository/datasetstore"
	"alloclab/internal/gateway/repository/uploadstore"
	"alloclab/internal/gateway/server"
	datasetsvc "alloclab/internal/gateway/service/dataset"
	rulessvc "alloclab/internal/gateway/service/rules"
	validationsvc "alloclab/internal/gateway/service/validation"
	"alloclab/internal/validate"
)

func newTestMux(t *testing.T) http.Handler {
	t.Helper()
	ds := datasetsvc.New(datasetstore.New(filepath.Join(t.TempDir(), "ws.json")))
	vs := validationsvc.New(ds, validate.Options{}, 10*time.Millisecond)
	rs := rulessvc.New(ds, nil)
	advisor, err := fix.NewAdvisor()
	if err != nil {
		t.Fatalf("advisor: %v", err)
	}
	return server.NewMux(
		handler.NewDatasetHandler(ds),
		handler.NewValidationHandler(ds, vs, advisor),
		handler.NewWatchHandler(vs),
		handler.NewExportHandler(ds, validate.Options{}),
		handler.NewRulesHandler(rs),
		handler.NewUploadsHandler(uploadstore.NewMemoryStore()),
	)
}

func do(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body == "" {
		rdr = bytes.NewReader(nil)
	} else {
		rdr = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

const (
	cleanClients = `[{"ClientID":"C1","ClientName":"Acme","PriorityLevel":"3","RequestedTaskIDs":"T1","GroupTag":"g1"}]`
	cleanWorkers = `[{"WorkerID":"W1","WorkerName":"Ada","Skills":"go","AvailableSlots":"[1,2]","MaxLoadPerPhase":1,"WorkerGroup":"core","QualificationLevel":"Senior"}]`
	cleanTasks   = `[{"TaskID":"T1","TaskName":"Build","Duration":1,"RequiredSkills":"go","PreferredPhases":"[1]","MaxConcurrent":1}]`
)

func TestDatasetLifecycle(t *testing.T) {
	mux := newTestMux(t)

	// String-encoded numbers from the spreadsheet parser are accepted as-is.
	rec := do(t, mux, http.MethodPost, "/api/dataset/clients", cleanClients)
	if rec.Code != http.StatusOK {
		t.Fatalf("replace clients: status %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, mux, http.MethodGet, "/api/dataset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get dataset: status %d", rec.Code)
	}
	var snap struct {
		Clients []map[string]any `json:"clients"`
		Version int64            `json:"version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	if snap.Version != 1 || len(snap.Clients) != 1 {
		t.Fatalf("version=%d clients=%d, want 1 and 1", snap.Version, len(snap.Clients))
	}
	// Raw encoding survives the round trip untouched.
	if got := snap.Clients[0]["PriorityLevel"]; got != "3" {
		t.Fatalf("PriorityLevel round-trip = %v (%T), want the original string", got, got)
	}

	rec = do(t, mux, http.MethodDelete, "/api/dataset/clients/0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete row: status %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, mux, http.MethodDelete, "/api/dataset/clients/0", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("delete past end: status %d, want 400", rec.Code)
	}
	rec = do(t, mux, http.MethodPost, "/api/dataset/owls", "[]")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown collection: status %d, want 404", rec.Code)
	}
}

func TestValidateAndExportFlow(t *testing.T) {
	mux := newTestMux(t)

	// Client requests an unknown task: validation must report it and the
	// export must refuse.
	do(t, mux, http.MethodPost, "/api/dataset/clients", `[{"ClientID":"C1","PriorityLevel":3,"RequestedTaskIDs":"T9"}]`)
	do(t, mux, http.MethodPost, "/api/dataset/workers", cleanWorkers)
	do(t, mux, http.MethodPost, "/api/dataset/tasks", cleanTasks)

	rec := do(t, mux, http.MethodPost, "/api/validate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("validate: status %d", rec.Code)
	}
	var evt struct {
		Version int64             `json:"version"`
		Summary *validate.Summary `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
		t.Fatalf("decode validate response: %v", err)
	}
	if evt.Summary == nil || evt.Summary.TotalErrors == 0 {
		t.Fatalf("expected reference-integrity error, got %+v", evt.Summary)
	}

	rec = do(t, mux, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("export with errors: status %d, want 409", rec.Code)
	}

	// Point the client at the real task and the export unblocks.
	rec = do(t, mux, http.MethodPut, "/api/dataset/clients/0", `{"ClientID":"C1","PriorityLevel":3,"RequestedTaskIDs":"T1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update row: status %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, mux, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export after fix: status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"hoursPerDay"`) {
		t.Fatalf("export bundle missing rules config: %s", rec.Body.String())
	}
}

func TestFixEndpoints(t *testing.T) {
	mux := newTestMux(t)

	// Two workers sharing an ID: duplicate-detection, auto-fixable.
	do(t, mux, http.MethodPost, "/api/dataset/workers",
		`[{"WorkerID":"W1","Skills":"go","AvailableSlots":"[1]","MaxLoadPerPhase":1,"QualificationLevel":"Mid"},
		  {"WorkerID":"W1","Skills":"go","AvailableSlots":"[1]","MaxLoadPerPhase":1,"QualificationLevel":"Mid"}]`)

	rec := do(t, mux, http.MethodPost, "/api/validate", "")
	var evt struct {
		Summary *validate.Summary `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
		t.Fatalf("decode validate response: %v", err)
	}
	errs := evt.Summary.AllErrors()
	if len(errs) == 0 {
		t.Fatalf("expected a duplicate-detection error")
	}

	errJSON, err := json.Marshal(errs[0])
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	rec = do(t, mux, http.MethodPost, "/api/fix/suggest", `{"error":`+string(errJSON)+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("suggest: status %d: %s", rec.Code, rec.Body.String())
	}
	var sug struct {
		Suggestions []fix.Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sug); err != nil {
		t.Fatalf("decode suggestions: %v", err)
	}
	if len(sug.Suggestions) == 0 || !sug.Suggestions[0].CanAutoFix {
		t.Fatalf("expected an auto-fixable suggestion, got %+v", sug.Suggestions)
	}

	rec = do(t, mux, http.MethodPost, "/api/fix/apply",
		`{"error":`+string(errJSON)+`,"suggestionId":"`+sug.Suggestions[0].ID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("apply: status %d: %s", rec.Code, rec.Body.String())
	}
	var applied struct {
		Outcome fix.Outcome `json:"outcome"`
		Version int64       `json:"version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &applied); err != nil {
		t.Fatalf("decode apply response: %v", err)
	}
	if !applied.Outcome.Success {
		t.Fatalf("apply failed: %s", applied.Outcome.Message)
	}
	if applied.Version != 2 {
		t.Fatalf("apply version = %d, want 2", applied.Version)
	}

	// The duplicate is gone now.
	rec = do(t, mux, http.MethodPost, "/api/validate", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
		t.Fatalf("decode revalidate response: %v", err)
	}
	if n := len(evt.Summary.AllErrors()); n != 0 {
		t.Fatalf("errors after fix = %d, want 0", n)
	}
}

func TestBulkFixEndpoint(t *testing.T) {
	mux := newTestMux(t)

	do(t, mux, http.MethodPost, "/api/dataset/workers",
		`[{"WorkerID":"W1","Skills":"go","AvailableSlots":"[1]","MaxLoadPerPhase":1,"QualificationLevel":"Mid"},
		  {"WorkerID":"W1","Skills":"go","AvailableSlots":"[1]","MaxLoadPerPhase":1,"QualificationLevel":"Mid"}]`)

	rec := do(t, mux, http.MethodPost, "/api/fix/bulk", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk: status %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Report fix.BulkReport `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode bulk response: %v", err)
	}
	if res.Report.FixedCount != 1 {
		t.Fatalf("fixedCount = %d, want 1", res.Report.FixedCount)
	}
	if len(res.Report.Audit) == 0 || res.Report.Audit[0].AuditID == "" {
		t.Fatalf("bulk audit trail missing: %+v", res.Report.Audit)
	}
}

func TestRulesEndpoints(t *testing.T) {
	mux := newTestMux(t)
	do(t, mux, http.MethodPost, "/api/dataset/tasks", cleanTasks)

	rec := do(t, mux, http.MethodPost, "/api/rules", `{"type":"coRun","id":"pair","tasks":["T1","T9"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add rule: status %d: %s", rec.Code, rec.Body.String())
	}
	var added struct {
		Warnings []validate.Error `json:"warnings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &added); err != nil {
		t.Fatalf("decode add response: %v", err)
	}
	if len(added.Warnings) == 0 {
		t.Fatalf("expected feasibility warning for unknown task T9")
	}

	rec = do(t, mux, http.MethodGet, "/api/rules", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"pair"`) {
		t.Fatalf("list rules: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, mux, http.MethodPost, "/api/rules", `{"type":"loadLimit","id":"cap"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed rule: status %d, want 400", rec.Code)
	}

	rec = do(t, mux, http.MethodDelete, "/api/rules/pair", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete rule: status %d", rec.Code)
	}
	rec = do(t, mux, http.MethodDelete, "/api/rules/pair", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing rule: status %d, want 404", rec.Code)
	}

	// No converter configured: conversion fails loudly, nothing breaks.
	rec = do(t, mux, http.MethodPost, "/api/rules/convert", `{"text":"run T1 and T2 together"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("convert without llm: status %d, want 422", rec.Code)
	}
}

func TestUploadRoundTrip(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", bytes.NewReader([]byte("raw,spreadsheet,bytes")))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("X-Filename", "clients.csv")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: status %d: %s", rec.Code, rec.Body.String())
	}
	var up struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &up); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	rec = do(t, mux, http.MethodGet, "/api/uploads/"+up.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("download: status %d", rec.Code)
	}
	if rec.Body.String() != "raw,spreadsheet,bytes" {
		t.Fatalf("blob altered: %q", rec.Body.String())
	}

	rec = do(t, mux, http.MethodGet, "/api/uploads/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing upload: status %d, want 404", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t)
	rec := do(t, mux, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: status %d", rec.Code)
	}
}
