package fix

import (
	"strings"
	"testing"

	"alloclab/internal/entity"
	"alloclab/internal/validate"
)

func mustAdvisor(t *testing.T) *Advisor {
	t.Helper()
	a, err := NewAdvisor()
	if err != nil {
		t.Fatalf("NewAdvisor: %v", err)
	}
	return a
}

func TestNewAdvisor_CoversEveryRuleType(t *testing.T) {
	a := mustAdvisor(t)
	d := entity.Dataset{}
	for _, rt := range validate.AllRuleTypes() {
		e := validate.Error{RuleType: rt, EntityType: entity.TypeClient, RowIndex: 0}
		if got := a.Suggest(e, d); len(got) == 0 {
			t.Fatalf("no suggestions for rule type %q", rt)
		}
	}
}

func TestSuggest_DuplicateIDRanking(t *testing.T) {
	a := mustAdvisor(t)
	e := validate.Error{RuleType: validate.RuleDuplicateID, EntityType: entity.TypeWorker, RowIndex: 1}
	got := a.Suggest(e, entity.Dataset{})
	if len(got) != 2 {
		t.Fatalf("suggestions = %d, want 2", len(got))
	}
	if got[0].Confidence != ConfidenceHigh || !got[0].CanAutoFix {
		t.Fatalf("first suggestion must be high-confidence auto-fixable: %+v", got[0])
	}
	if got[1].Kind != KindSuffixID {
		t.Fatalf("second suggestion kind = %q", got[1].Kind)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	a := mustAdvisor(t)
	d := entity.Dataset{Clients: []entity.Client{
		{ClientID: "C1", PriorityLevel: entity.Int(3), AttributesJSON: "{broken"},
	}}
	e := validate.Error{
		RuleType:   validate.RuleInvalidFormat,
		EntityType: entity.TypeClient,
		RowIndex:   0,
		Field:      "AttributesJSON",
	}
	suggestions := a.Suggest(e, d)
	if suggestions[0].Kind != KindResetJSON {
		t.Fatalf("expected reset-json first, got %q", suggestions[0].Kind)
	}

	fixed, outcome := a.Apply(d, e, suggestions[0].ID)
	if !outcome.Success {
		t.Fatalf("apply failed: %s", outcome.Message)
	}
	if fixed.Clients[0].AttributesJSON != "{}" {
		t.Fatalf("fixed AttributesJSON = %q", fixed.Clients[0].AttributesJSON)
	}
	if d.Clients[0].AttributesJSON != "{broken" {
		t.Fatalf("input dataset was mutated")
	}
}

func TestApply_UnknownSuggestionFails(t *testing.T) {
	a := mustAdvisor(t)
	e := validate.Error{RuleType: validate.RuleDuplicateID, EntityType: entity.TypeClient, RowIndex: 5}
	_, outcome := a.Apply(entity.Dataset{}, e, "nope")
	if outcome.Success {
		t.Fatalf("expected failure for unknown suggestion")
	}
}

func TestApply_RowOutOfRangeFails(t *testing.T) {
	a := mustAdvisor(t)
	e := validate.Error{RuleType: validate.RuleDuplicateID, EntityType: entity.TypeWorker, RowIndex: 7}
	suggestions := a.Suggest(e, entity.Dataset{})
	_, outcome := a.Apply(entity.Dataset{}, e, suggestions[0].ID)
	if outcome.Success {
		t.Fatalf("expected structured failure, not success")
	}
	if outcome.Message == "" {
		t.Fatalf("failure must carry an explanatory message")
	}
}

func TestBulkApply_DuplicateWorkers(t *testing.T) {
	a := mustAdvisor(t)
	d := entity.Dataset{Workers: []entity.Worker{
		{WorkerID: "W1", Skills: "go", AvailableSlots: entity.String("[1]"), MaxLoadPerPhase: entity.Int(1)},
		{WorkerID: "W1", Skills: "go", AvailableSlots: entity.String("[1]"), MaxLoadPerPhase: entity.Int(1)},
	}}
	before := validate.Workers(d.Workers)
	var dupErrs []validate.Error
	for _, e := range before.Errors {
		if e.RuleType == validate.RuleDuplicateID {
			dupErrs = append(dupErrs, e)
		}
	}
	if len(dupErrs) != 1 {
		t.Fatalf("duplicate errors = %d, want 1 (occurrence-after-first convention)", len(dupErrs))
	}

	fixed, report := a.BulkApply(d, dupErrs)
	if report.FixedCount != 1 || report.SkippedCount != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Audit) != 1 || !report.Audit[0].Fixed || report.Audit[0].AuditID == "" {
		t.Fatalf("audit trail = %+v", report.Audit)
	}
	if fixed.Workers[0].WorkerID == fixed.Workers[1].WorkerID {
		t.Fatalf("duplicate not resolved: %q", fixed.Workers[0].WorkerID)
	}

	after := validate.Workers(fixed.Workers)
	for _, e := range after.Errors {
		if e.RuleType == validate.RuleDuplicateID {
			t.Fatalf("duplicate error survived bulk fix: %+v", e)
		}
	}
}

func TestBulkApply_SkipsManualSuggestions(t *testing.T) {
	a := mustAdvisor(t)
	e := validate.Error{RuleType: validate.RuleCapacityPlanning, EntityType: entity.TypeWorker, RowIndex: validate.AggregateRow}
	_, report := a.BulkApply(entity.Dataset{}, []validate.Error{e})
	if report.FixedCount != 0 || report.SkippedCount != 1 {
		t.Fatalf("report = %+v", report)
	}
	if !strings.Contains(report.Audit[0].Message, "no auto-fixable") {
		t.Fatalf("audit message = %q", report.Audit[0].Message)
	}
}

func TestStripReferences(t *testing.T) {
	a := mustAdvisor(t)
	d := entity.Dataset{
		Clients: []entity.Client{{ClientID: "C1", PriorityLevel: entity.Int(3), RequestedTaskIDs: "T1,T99"}},
		Tasks:   []entity.Task{{TaskID: "T1", Duration: entity.Int(1), MaxConcurrent: entity.Int(1)}},
	}
	e := validate.Error{
		RuleType:   validate.RuleReferenceIntegrity,
		EntityType: entity.TypeClient,
		RowIndex:   0,
		Field:      "RequestedTaskIDs",
	}
	suggestions := a.Suggest(e, d)
	if suggestions[0].Kind != KindStripReferences {
		t.Fatalf("first suggestion = %q", suggestions[0].Kind)
	}
	fixed, outcome := a.Apply(d, e, suggestions[0].ID)
	if !outcome.Success {
		t.Fatalf("apply failed: %s", outcome.Message)
	}
	if fixed.Clients[0].RequestedTaskIDs != "T1" {
		t.Fatalf("RequestedTaskIDs = %q, want %q", fixed.Clients[0].RequestedTaskIDs, "T1")
	}
	if !strings.Contains(outcome.Message, "T99") {
		t.Fatalf("outcome should name the stripped reference: %q", outcome.Message)
	}
}
