package validate

import (
	"strings"
	"testing"

	"alloclab/internal/entity"
)

func client(id string, priority int, requested string) entity.Client {
	return entity.Client{ClientID: id, PriorityLevel: entity.Int(priority), RequestedTaskIDs: requested}
}

func worker(id, skills, slots string, maxLoad int) entity.Worker {
	return entity.Worker{
		WorkerID:        id,
		Skills:          skills,
		AvailableSlots:  entity.String(slots),
		MaxLoadPerPhase: entity.Int(maxLoad),
	}
}

func task(id string, duration int, skills, phases string, maxConcurrent int) entity.Task {
	return entity.Task{
		TaskID:          id,
		Duration:        entity.Int(duration),
		RequiredSkills:  skills,
		PreferredPhases: entity.String(phases),
		MaxConcurrent:   entity.Int(maxConcurrent),
	}
}

func findByRule(findings []Error, rt RuleType) []Error {
	var out []Error
	for _, f := range findings {
		if f.RuleType == rt {
			out = append(out, f)
		}
	}
	return out
}

func TestClients_DuplicateIDConvention(t *testing.T) {
	res := Clients([]entity.Client{
		client("C1", 3, ""),
		client("C1", 3, ""),
		client("C1", 3, ""),
	})
	dups := findByRule(res.Errors, RuleDuplicateID)
	// One error per occurrence after the first.
	if len(dups) != 2 {
		t.Fatalf("duplicate errors = %d, want 2", len(dups))
	}
	if dups[0].RowIndex != 1 || dups[1].RowIndex != 2 {
		t.Fatalf("duplicate rows = %d, %d", dups[0].RowIndex, dups[1].RowIndex)
	}
	if res.IsValid {
		t.Fatalf("duplicates must invalidate the collection")
	}
}

func TestClients_PrioritySkewAggregate(t *testing.T) {
	clients := []entity.Client{
		client("C1", 5, ""),
		client("C2", 4, ""),
		client("C3", 1, ""),
	}
	res := Clients(clients)
	skew := findByRule(res.Warnings, RulePriorityDistribution)
	if len(skew) != 1 {
		t.Fatalf("priority skew warnings = %d, want exactly one aggregate", len(skew))
	}
	if skew[0].RowIndex != AggregateRow {
		t.Fatalf("aggregate warning rowIndex = %d", skew[0].RowIndex)
	}
}

func TestClients_ExcessiveRequests(t *testing.T) {
	ids := make([]string, 11)
	for i := range ids {
		ids[i] = "T1"
	}
	res := Clients([]entity.Client{client("C1", 2, strings.Join(ids, ","))})
	if n := len(findByRule(res.Warnings, RuleSanityRange)); n != 1 {
		t.Fatalf("excessive request warnings = %d, want 1", n)
	}
}

func TestClients_SchemaBounds(t *testing.T) {
	res := Clients([]entity.Client{client("C1", 9, "")})
	if n := len(findByRule(res.Errors, RuleSchema)); n != 1 {
		t.Fatalf("schema errors = %d, want 1 for out-of-range priority", n)
	}

	bad := entity.Client{ClientID: "C2", PriorityLevel: entity.Int(3), AttributesJSON: "{broken"}
	res = Clients([]entity.Client{bad})
	if n := len(findByRule(res.Errors, RuleInvalidFormat)); n != 1 {
		t.Fatalf("invalid-format errors = %d, want 1 for malformed JSON", n)
	}
}

func TestClients_CollectsAllViolationsPerRecord(t *testing.T) {
	res := Clients([]entity.Client{{AttributesJSON: "{broken"}})
	// Missing ClientID, missing PriorityLevel, malformed AttributesJSON.
	if len(res.Errors) != 3 {
		t.Fatalf("errors = %d, want all 3 collected", len(res.Errors))
	}
}

func TestWorkers_Heuristics(t *testing.T) {
	res := Workers([]entity.Worker{
		worker("W1", "", "", 5),                                  // no slots, no skills
		worker("W2", "go", "[1]", 5),                             // load 5 > 2*1
		worker("W3", strings.Repeat("s,", 16)+"x", "[1,2,3]", 1), // sprawl
	})
	if n := len(findByRule(res.Warnings, RuleCapacityPlanning)); n != 1 {
		t.Fatalf("zero-capacity warnings = %d, want 1", n)
	}
	if n := len(findByRule(res.Warnings, RuleSkillCoverage)); n != 1 {
		t.Fatalf("missing-skills warnings = %d, want 1", n)
	}
	if n := len(findByRule(res.Warnings, RuleLoadImbalance)); n != 1 {
		t.Fatalf("load-imbalance warnings = %d, want 1", n)
	}
	if n := len(findByRule(res.Warnings, RuleSanityRange)); n != 1 {
		t.Fatalf("skill-sprawl warnings = %d, want 1", n)
	}
	if !res.IsValid {
		t.Fatalf("warnings must not invalidate: %+v", res.Errors)
	}
}

func TestWorkers_InvalidSlotsFormat(t *testing.T) {
	w := worker("W1", "go", "whenever", 1)
	res := Workers([]entity.Worker{w})
	if n := len(findByRule(res.Errors, RuleInvalidFormat)); n != 1 {
		t.Fatalf("invalid-format errors = %d, want 1", n)
	}
}

func TestTasks_SanityRanges(t *testing.T) {
	res := Tasks([]entity.Task{
		task("T1", 41, "go", "[1]", 11),
	})
	warnings := findByRule(res.Warnings, RuleSanityRange)
	if len(warnings) != 2 {
		t.Fatalf("sanity warnings = %d, want duration + concurrency", len(warnings))
	}
}

func TestTasks_ZeroDurationIsSchemaErrorAndSanityFlag(t *testing.T) {
	res := Tasks([]entity.Task{task("T1", 0, "go", "[1]", 1)})
	if n := len(findByRule(res.Errors, RuleSchema)); n != 1 {
		t.Fatalf("schema errors = %d, want 1 for duration 0", n)
	}
	if n := len(findByRule(res.Warnings, RuleSanityRange)); n != 1 {
		t.Fatalf("sanity warnings = %d, want 1 for duration 0", n)
	}
}

func TestErrorIDs_StableAcrossRuns(t *testing.T) {
	clients := []entity.Client{client("C1", 9, "")}
	first := Clients(clients)
	second := Clients(clients)
	if first.Errors[0].ID != second.Errors[0].ID {
		t.Fatalf("error IDs differ across runs: %q vs %q", first.Errors[0].ID, second.Errors[0].ID)
	}
}
