package rules

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSet_DecodeDispatchesOnType(t *testing.T) {
	payload := `[
		{"type":"coRun","id":"r1","tasks":["T1","T2"]},
		{"type":"slotRestriction","id":"r2","group":"night","groupKind":"worker","minCommonSlots":2},
		{"type":"loadLimit","id":"r3","workerGroup":"day","maxSlotsPerPhase":3},
		{"type":"phaseWindow","id":"r4","taskId":"T1","allowedPhases":[1,2]},
		{"type":"patternMatch","id":"r5","regex":"^T[0-9]+$","template":"coRun"},
		{"type":"precedenceOverride","id":"r6","global":["r1"],"priority":1}
	]`
	var set Set
	if err := json.Unmarshal([]byte(payload), &set); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(set.Rules) != 6 {
		t.Fatalf("rules = %d, want 6", len(set.Rules))
	}
	wantTypes := []Type{TypeCoRun, TypeSlotRestriction, TypeLoadLimit, TypePhaseWindow, TypePatternMatch, TypePrecedenceOverride}
	for i, want := range wantTypes {
		if set.Rules[i].Type() != want {
			t.Fatalf("rules[%d].Type() = %q, want %q", i, set.Rules[i].Type(), want)
		}
	}
	if r, ok := set.ByID("r2"); !ok || r.(SlotRestriction).MinCommonSlots != 2 {
		t.Fatalf("ByID(r2) = %+v, %v", r, ok)
	}
}

func TestSet_UnknownTypeRejected(t *testing.T) {
	var set Set
	err := json.Unmarshal([]byte(`[{"type":"teleport","id":"r1"}]`), &set)
	if err == nil || !strings.Contains(err.Error(), "unknown type") {
		t.Fatalf("err = %v", err)
	}
}

func TestSet_StructuralChecks(t *testing.T) {
	var set Set
	err := json.Unmarshal([]byte(`[{"type":"coRun","id":"r1","tasks":["T1"]}]`), &set)
	if err == nil || !strings.Contains(err.Error(), "at least two tasks") {
		t.Fatalf("err = %v", err)
	}
}

func TestSet_RoundTripKeepsTags(t *testing.T) {
	set := Set{Rules: []Rule{
		CoRun{RuleID: "r1", Tasks: []string{"T1", "T2"}},
		PhaseWindow{RuleID: "r2", TaskID: "T1", AllowedPhases: []int{1}},
	}}
	b, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Set
	if err := json.Unmarshal(b, &again); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(again.Rules) != 2 || again.Rules[0].Type() != TypeCoRun || again.Rules[1].Type() != TypePhaseWindow {
		t.Fatalf("round trip = %+v", again.Rules)
	}
}

func TestSet_CloneIsDeep(t *testing.T) {
	set := Set{Rules: []Rule{
		CoRun{RuleID: "r1", Tasks: []string{"T1", "T2"}},
		PhaseWindow{RuleID: "r2", TaskID: "T1", AllowedPhases: []int{1, 2}},
		PatternMatch{RuleID: "r3", Regex: "^T", Template: "coRun", Params: map[string]string{"k": "v"}},
		PrecedenceOverride{RuleID: "r4", Global: []string{"r1"}, Specific: []string{"r2"}, Priority: 1},
	}}
	clone := set.Clone()

	clone.Rules[0].(CoRun).Tasks[0] = "X"
	clone.Rules[1].(PhaseWindow).AllowedPhases[0] = 9
	clone.Rules[2].(PatternMatch).Params["k"] = "mutated"
	clone.Rules[3].(PrecedenceOverride).Global[0] = "X"

	if set.Rules[0].(CoRun).Tasks[0] != "T1" {
		t.Fatalf("coRun tasks shared with clone: %+v", set.Rules[0])
	}
	if set.Rules[1].(PhaseWindow).AllowedPhases[0] != 1 {
		t.Fatalf("phaseWindow phases shared with clone: %+v", set.Rules[1])
	}
	if set.Rules[2].(PatternMatch).Params["k"] != "v" {
		t.Fatalf("patternMatch params shared with clone: %+v", set.Rules[2])
	}
	if set.Rules[3].(PrecedenceOverride).Global[0] != "r1" {
		t.Fatalf("precedenceOverride lists shared with clone: %+v", set.Rules[3])
	}
}
