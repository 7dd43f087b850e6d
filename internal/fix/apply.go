package fix

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"alloclab/internal/entity"
	"alloclab/internal/normalize"
	"alloclab/internal/refindex"
	"alloclab/internal/utils"
	"alloclab/internal/validate"
)

// Outcome reports one fix application. A fix that cannot locate its target
// returns Success=false with an explanation; it never panics or errors.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func failure(format string, args ...any) Outcome {
	return Outcome{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Apply re-derives the suggestions for the finding against the given dataset,
// locates the one with suggestionID, and applies it to a deep copy. The input
// dataset is never mutated.
func (a *Advisor) Apply(d entity.Dataset, e validate.Error, suggestionID string) (entity.Dataset, Outcome) {
	for _, s := range a.Suggest(e, d) {
		if s.ID != suggestionID {
			continue
		}
		if !s.CanAutoFix {
			return d, failure("suggestion %q requires manual input and cannot be auto-applied", s.Kind)
		}
		out := d.Clone()
		outcome := applySuggestion(&out, e, s)
		if !outcome.Success {
			return d, outcome
		}
		return out, outcome
	}
	return d, failure("no suggestion %q for error %q", suggestionID, e.ID)
}

// BulkEntry is the audit record for one error in a bulk run.
type BulkEntry struct {
	AuditID      string `json:"auditId"`
	ErrorID      string `json:"errorId"`
	SuggestionID string `json:"suggestionId,omitempty"`
	Kind         Kind   `json:"kind,omitempty"`
	Fixed        bool   `json:"fixed"`
	Message      string `json:"message"`
}

// BulkReport consolidates a bulk-fix run.
type BulkReport struct {
	FixedCount   int         `json:"fixedCount"`
	SkippedCount int         `json:"skippedCount"`
	Audit        []BulkEntry `json:"audit"`
}

// BulkApply walks the findings, applying the highest-confidence auto-fixable
// suggestion for each. Suggestions are re-derived against the progressively
// updated dataset so that, for example, fixing one duplicate ID cannot
// collide with fixing the next.
func (a *Advisor) BulkApply(d entity.Dataset, errs []validate.Error) (entity.Dataset, BulkReport) {
	current := d.Clone()
	report := BulkReport{Audit: make([]BulkEntry, 0, len(errs))}

	for _, e := range errs {
		entry := BulkEntry{AuditID: uuid.NewString(), ErrorID: e.ID}
		var chosen *Suggestion
		for _, s := range a.Suggest(e, current) {
			if s.CanAutoFix {
				s := s
				chosen = &s
				break
			}
		}
		if chosen == nil {
			entry.Message = "no auto-fixable suggestion"
			report.SkippedCount++
			report.Audit = append(report.Audit, entry)
			continue
		}
		entry.SuggestionID = chosen.ID
		entry.Kind = chosen.Kind

		next := current.Clone()
		outcome := applySuggestion(&next, e, *chosen)
		entry.Message = outcome.Message
		if outcome.Success {
			entry.Fixed = true
			report.FixedCount++
			current = next
		} else {
			report.SkippedCount++
		}
		report.Audit = append(report.Audit, entry)
	}
	return current, report
}

func applySuggestion(d *entity.Dataset, e validate.Error, s Suggestion) Outcome {
	switch s.Kind {
	case KindRegenerateID:
		return regenerateID(d, e, false)
	case KindSuffixID:
		return regenerateID(d, e, true)
	case KindResetJSON:
		return resetJSON(d, e)
	case KindResetDefault:
		return resetDefault(d, e, s.Params["value"])
	case KindClearField:
		return clearField(d, e)
	case KindStripReferences:
		return stripReferences(d, e)
	case KindCreatePlaceholder, KindAddSkills, KindCreateWorker, KindRebalance:
		return failure("suggestion %q requires manual input", s.Kind)
	}
	return failure("unknown suggestion kind %q", s.Kind)
}

func regenerateID(d *entity.Dataset, e validate.Error, suffix bool) Outcome {
	ids := collectIDs(*d)
	mint := func(old string) string {
		if suffix {
			return suffixID(old, ids)
		}
		seed := old
		if strings.TrimSpace(seed) == "" {
			seed = string(e.EntityType)
		}
		return utils.NewUIDGenerator(ids...).Generate(seed)
	}
	switch e.EntityType {
	case entity.TypeClient:
		if e.RowIndex < 0 || e.RowIndex >= len(d.Clients) {
			return failure("client row %d not found", e.RowIndex)
		}
		old := d.Clients[e.RowIndex].ClientID
		d.Clients[e.RowIndex].ClientID = mint(old)
		return Outcome{Success: true, Message: fmt.Sprintf("replaced ClientID %q with %q", old, d.Clients[e.RowIndex].ClientID)}
	case entity.TypeWorker:
		if e.RowIndex < 0 || e.RowIndex >= len(d.Workers) {
			return failure("worker row %d not found", e.RowIndex)
		}
		old := d.Workers[e.RowIndex].WorkerID
		d.Workers[e.RowIndex].WorkerID = mint(old)
		return Outcome{Success: true, Message: fmt.Sprintf("replaced WorkerID %q with %q", old, d.Workers[e.RowIndex].WorkerID)}
	case entity.TypeTask:
		if e.RowIndex < 0 || e.RowIndex >= len(d.Tasks) {
			return failure("task row %d not found", e.RowIndex)
		}
		old := d.Tasks[e.RowIndex].TaskID
		d.Tasks[e.RowIndex].TaskID = mint(old)
		return Outcome{Success: true, Message: fmt.Sprintf("replaced TaskID %q with %q", old, d.Tasks[e.RowIndex].TaskID)}
	}
	return failure("unknown entity type %q", e.EntityType)
}

func suffixID(old string, existing []string) string {
	used := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		used[id] = struct{}{}
	}
	base := strings.TrimSpace(old)
	if base == "" {
		base = "id"
	}
	for {
		candidate := fmt.Sprintf("%s-%04d", base, rand.Intn(10000))
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

func collectIDs(d entity.Dataset) []string {
	ids := make([]string, 0, len(d.Clients)+len(d.Workers)+len(d.Tasks))
	for _, c := range d.Clients {
		ids = append(ids, c.ClientID)
	}
	for _, w := range d.Workers {
		ids = append(ids, w.WorkerID)
	}
	for _, t := range d.Tasks {
		ids = append(ids, t.TaskID)
	}
	return ids
}

func resetJSON(d *entity.Dataset, e validate.Error) Outcome {
	if e.EntityType != entity.TypeClient {
		return failure("no JSON field on entity type %q", e.EntityType)
	}
	if e.RowIndex < 0 || e.RowIndex >= len(d.Clients) {
		return failure("client row %d not found", e.RowIndex)
	}
	d.Clients[e.RowIndex].AttributesJSON = "{}"
	return Outcome{Success: true, Message: "reset AttributesJSON to {}"}
}

func resetDefault(d *entity.Dataset, e validate.Error, value string) Outcome {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return failure("invalid default value %q", value)
	}
	switch {
	case e.EntityType == entity.TypeClient && e.Field == "PriorityLevel":
		if e.RowIndex < 0 || e.RowIndex >= len(d.Clients) {
			return failure("client row %d not found", e.RowIndex)
		}
		d.Clients[e.RowIndex].PriorityLevel = entity.Int(n)
	case e.EntityType == entity.TypeWorker && e.Field == "MaxLoadPerPhase":
		if e.RowIndex < 0 || e.RowIndex >= len(d.Workers) {
			return failure("worker row %d not found", e.RowIndex)
		}
		d.Workers[e.RowIndex].MaxLoadPerPhase = entity.Int(n)
	case e.EntityType == entity.TypeTask && e.Field == "Duration":
		if e.RowIndex < 0 || e.RowIndex >= len(d.Tasks) {
			return failure("task row %d not found", e.RowIndex)
		}
		d.Tasks[e.RowIndex].Duration = entity.Int(n)
	case e.EntityType == entity.TypeTask && e.Field == "MaxConcurrent":
		if e.RowIndex < 0 || e.RowIndex >= len(d.Tasks) {
			return failure("task row %d not found", e.RowIndex)
		}
		d.Tasks[e.RowIndex].MaxConcurrent = entity.Int(n)
	default:
		return failure("no default for %s.%s", e.EntityType, e.Field)
	}
	return Outcome{Success: true, Message: fmt.Sprintf("reset %s to %d", e.Field, n)}
}

func clearField(d *entity.Dataset, e validate.Error) Outcome {
	switch {
	case e.EntityType == entity.TypeWorker && e.Field == "AvailableSlots":
		if e.RowIndex < 0 || e.RowIndex >= len(d.Workers) {
			return failure("worker row %d not found", e.RowIndex)
		}
		d.Workers[e.RowIndex].AvailableSlots = entity.String("")
	case e.EntityType == entity.TypeTask && e.Field == "PreferredPhases":
		if e.RowIndex < 0 || e.RowIndex >= len(d.Tasks) {
			return failure("task row %d not found", e.RowIndex)
		}
		d.Tasks[e.RowIndex].PreferredPhases = entity.String("")
	default:
		return failure("cannot clear %s.%s", e.EntityType, e.Field)
	}
	return Outcome{Success: true, Message: fmt.Sprintf("cleared %s", e.Field)}
}

func stripReferences(d *entity.Dataset, e validate.Error) Outcome {
	if e.EntityType != entity.TypeClient {
		return failure("reference fix applies to clients, got %q", e.EntityType)
	}
	if e.RowIndex < 0 || e.RowIndex >= len(d.Clients) {
		return failure("client row %d not found", e.RowIndex)
	}
	ix := refindex.Build(d.Clients, d.Workers, d.Tasks)
	valid, invalid := normalize.PartitionTaskIDs(d.Clients[e.RowIndex].RequestedTaskIDs, ix.TaskIDs())
	if len(invalid) == 0 {
		return failure("client %q has no unresolved task references", d.Clients[e.RowIndex].ClientID)
	}
	d.Clients[e.RowIndex].RequestedTaskIDs = strings.Join(valid, ",")
	return Outcome{Success: true, Message: fmt.Sprintf("removed unresolved reference(s): %s", strings.Join(invalid, ", "))}
}
