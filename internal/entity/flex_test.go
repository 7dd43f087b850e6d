package entity

import (
	"encoding/json"
	"testing"
)

func TestStringOrNumber_Decode(t *testing.T) {
	var w Worker
	payload := `{
		"WorkerID": "W1",
		"QualificationLevel": 4,
		"AvailableSlots": [1, 2, 3]
	}`
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !w.QualificationLevel.IsNumber || w.QualificationLevel.Number != 4 {
		t.Fatalf("QualificationLevel = %+v", w.QualificationLevel)
	}
	// Arrays are kept as raw text for the normalizer.
	if w.AvailableSlots.IsNumber || w.AvailableSlots.Text == "" {
		t.Fatalf("AvailableSlots = %+v", w.AvailableSlots)
	}

	var w2 Worker
	if err := json.Unmarshal([]byte(`{"QualificationLevel":"Senior","AvailableSlots":"1,2"}`), &w2); err != nil {
		t.Fatalf("unmarshal string forms: %v", err)
	}
	if w2.QualificationLevel.Text != "Senior" || w2.AvailableSlots.Text != "1,2" {
		t.Fatalf("string forms = %+v / %+v", w2.QualificationLevel, w2.AvailableSlots)
	}
}

func TestStringOrNumber_RoundTrip(t *testing.T) {
	in := `{"WorkerID":"W1","AvailableSlots":[1,2],"QualificationLevel":5}`
	var w Worker
	if err := json.Unmarshal([]byte(in), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Worker
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if again.AvailableSlots.Text != w.AvailableSlots.Text {
		t.Fatalf("AvailableSlots lost raw encoding: %+v", again.AvailableSlots)
	}
	if !again.QualificationLevel.IsNumber || again.QualificationLevel.Number != 5 {
		t.Fatalf("QualificationLevel = %+v", again.QualificationLevel)
	}
}

func TestFlexInt_Decode(t *testing.T) {
	var c Client
	if err := json.Unmarshal([]byte(`{"ClientID":"C1","PriorityLevel":"4"}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !c.PriorityLevel.Valid || c.PriorityLevel.Value != 4 {
		t.Fatalf("numeric string: %+v", c.PriorityLevel)
	}

	var c2 Client
	if err := json.Unmarshal([]byte(`{"ClientID":"C2","PriorityLevel":"high"}`), &c2); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c2.PriorityLevel.Valid {
		t.Fatalf("garbage parsed as valid: %+v", c2.PriorityLevel)
	}
	if c2.PriorityLevel.Raw != "high" {
		t.Fatalf("raw text lost: %+v", c2.PriorityLevel)
	}
	if c2.PriorityLevel.IsZero() {
		t.Fatalf("present-but-invalid must not look absent")
	}

	var c3 Client
	if err := json.Unmarshal([]byte(`{"ClientID":"C3"}`), &c3); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !c3.PriorityLevel.IsZero() {
		t.Fatalf("absent field must be zero: %+v", c3.PriorityLevel)
	}
}

func TestFlexInt_RoundTripKeepsOriginalEncoding(t *testing.T) {
	// A grid cell holding "3" or 3.0 must come back exactly as entered,
	// not rewritten to the canonical 3.
	for _, in := range []string{`"3"`, `3.0`, `3`, `"high"`} {
		var v FlexInt
		if err := json.Unmarshal([]byte(in), &v); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %v", in, err)
		}
		if string(out) != in {
			t.Fatalf("round-trip rewrote %s to %s", in, out)
		}
	}

	// Constructed values have no original encoding and marshal canonically.
	out, err := json.Marshal(Int(3))
	if err != nil {
		t.Fatalf("marshal constructed: %v", err)
	}
	if string(out) != "3" {
		t.Fatalf("constructed value = %s, want 3", out)
	}
}

func TestDataset_CloneIsDeep(t *testing.T) {
	d := Dataset{
		Clients: []Client{{ClientID: "C1", PriorityLevel: Int(3)}},
		Workers: []Worker{{WorkerID: "W1", AvailableSlots: String("[1]")}},
		Tasks:   []Task{{TaskID: "T1", Duration: Int(1)}},
	}
	clone := d.Clone()
	clone.Clients[0].ClientID = "C2"
	clone.Workers[0].AvailableSlots = String("[9]")
	if d.Clients[0].ClientID != "C1" || d.Workers[0].AvailableSlots.Text != "[1]" {
		t.Fatalf("clone shares state with original")
	}
}
