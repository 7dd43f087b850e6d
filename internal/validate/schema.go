package validate

import (
	"encoding/json"
	"strings"

	"alloclab/internal/entity"
	"alloclab/internal/normalize"
)

// Schema validation parses each record against its declared field bounds and
// collects every violation for the record before moving on; it never stops at
// the first finding.

func schemaClients(clients []entity.Client) []Error {
	var findings []Error
	for i, c := range clients {
		findings = append(findings, checkRequiredID(entity.TypeClient, i, "ClientID", c.ClientID)...)
		findings = append(findings, checkBoundedInt(entity.TypeClient, i, "PriorityLevel", c.PriorityLevel, 1, 5)...)
		if strings.TrimSpace(c.AttributesJSON) != "" && !json.Valid([]byte(c.AttributesJSON)) {
			findings = append(findings, errorf(entity.TypeClient, RuleInvalidFormat, i, "AttributesJSON",
				"AttributesJSON is not valid JSON"))
		}
	}
	return findings
}

func schemaWorkers(workers []entity.Worker) []Error {
	var findings []Error
	for i, w := range workers {
		findings = append(findings, checkRequiredID(entity.TypeWorker, i, "WorkerID", w.WorkerID)...)
		findings = append(findings, checkBoundedInt(entity.TypeWorker, i, "MaxLoadPerPhase", w.MaxLoadPerPhase, 0, -1)...)
		if !w.AvailableSlots.IsZero() && len(normalize.AvailableSlots(w.AvailableSlots)) == 0 {
			findings = append(findings, errorf(entity.TypeWorker, RuleInvalidFormat, i, "AvailableSlots",
				"AvailableSlots %q is not a number, JSON array, or comma list of non-negative integers", rawText(w.AvailableSlots)))
		}
		if !w.QualificationLevel.IsZero() && !knownQualification(w.QualificationLevel) {
			findings = append(findings, warningf(entity.TypeWorker, RuleSchema, i, "QualificationLevel",
				"QualificationLevel %q is not a known level; it will default to Mid", rawText(w.QualificationLevel)))
		}
	}
	return findings
}

func schemaTasks(tasks []entity.Task) []Error {
	var findings []Error
	for i, t := range tasks {
		findings = append(findings, checkRequiredID(entity.TypeTask, i, "TaskID", t.TaskID)...)
		findings = append(findings, checkBoundedInt(entity.TypeTask, i, "Duration", t.Duration, 1, -1)...)
		findings = append(findings, checkBoundedInt(entity.TypeTask, i, "MaxConcurrent", t.MaxConcurrent, 1, -1)...)
		if !t.PreferredPhases.IsZero() && len(normalize.PreferredPhases(t.PreferredPhases)) == 0 {
			findings = append(findings, errorf(entity.TypeTask, RuleInvalidFormat, i, "PreferredPhases",
				"PreferredPhases %q is not a JSON array, range, or comma list of phases %d-%d",
				rawText(t.PreferredPhases), normalize.MinPhase, normalize.MaxPhase))
		}
	}
	return findings
}

func checkRequiredID(et entity.Type, row int, field, value string) []Error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return []Error{errorf(et, RuleSchema, row, field, "%s is required", field)}
}

// checkBoundedInt reports a missing value, an unparseable value, or a value
// outside [min, max]. max < 0 means unbounded above.
func checkBoundedInt(et entity.Type, row int, field string, v entity.FlexInt, min, max int) []Error {
	if v.IsZero() {
		return []Error{errorf(et, RuleSchema, row, field, "%s is required", field)}
	}
	if !v.Valid {
		return []Error{errorf(et, RuleInvalidFormat, row, field, "%s %q is not an integer", field, v.Raw)}
	}
	if v.Value < min {
		return []Error{errorf(et, RuleSchema, row, field, "%s must be at least %d (got %d)", field, min, v.Value)}
	}
	if max >= 0 && v.Value > max {
		return []Error{errorf(et, RuleSchema, row, field, "%s must be at most %d (got %d)", field, max, v.Value)}
	}
	return nil
}

func knownQualification(v entity.StringOrNumber) bool {
	if v.IsNumber {
		n := int(v.Number)
		return v.Number == float64(n) && n >= 1 && n <= 5
	}
	switch strings.ToLower(strings.TrimSpace(v.Text)) {
	case "junior", "mid", "senior", "expert", "1", "2", "3", "4", "5":
		return true
	}
	return false
}

func rawText(v entity.StringOrNumber) string {
	if v.IsNumber {
		b, _ := v.MarshalJSON()
		return string(b)
	}
	return v.Text
}
