package validate

import (
	"strings"

	"alloclab/internal/entity"
	"alloclab/internal/normalize"
)

// Business checks are fixed heuristics, independent of schema validity.
// Everything here is advisory except duplicate-ID detection: a duplicated
// identity breaks every downstream cross-reference, so it is always an error.

// Duplicate convention: the first occurrence of an ID owns it; each later
// occurrence gets one error.
func duplicateIDs(et entity.Type, field string, ids []string) []Error {
	var findings []Error
	seen := make(map[string]int, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if first, dup := seen[id]; dup {
			findings = append(findings, errorf(et, RuleDuplicateID, i, field,
				"duplicate %s %q (first used at row %d)", field, id, first))
			continue
		}
		seen[id] = i
	}
	return findings
}

const (
	highPriorityShareLimit = 0.30
	maxRequestedTasks      = 10
	maxSkillsPerWorker     = 15
	maxSaneDuration        = 40
	maxSaneConcurrency     = 10
)

func businessClients(clients []entity.Client) []Error {
	ids := make([]string, len(clients))
	for i, c := range clients {
		ids[i] = c.ClientID
	}
	findings := duplicateIDs(entity.TypeClient, "ClientID", ids)

	highPriority := 0
	for i, c := range clients {
		if c.PriorityLevel.Valid && c.PriorityLevel.Value >= 4 {
			highPriority++
		}
		requested := strings.Split(c.RequestedTaskIDs, ",")
		n := 0
		for _, id := range requested {
			if strings.TrimSpace(id) != "" {
				n++
			}
		}
		if n > maxRequestedTasks {
			findings = append(findings, warningf(entity.TypeClient, RuleSanityRange, i, "RequestedTaskIDs",
				"client %q requests %d tasks; consider splitting the request", c.ClientID, n))
		}
	}
	// One aggregate warning for priority skew, not one per client.
	if len(clients) > 0 && float64(highPriority) > highPriorityShareLimit*float64(len(clients)) {
		findings = append(findings, warningf(entity.TypeClient, RulePriorityDistribution, AggregateRow, "PriorityLevel",
			"%d of %d clients have priority 4 or 5; consider redistributing priorities", highPriority, len(clients)))
	}
	return findings
}

func businessWorkers(workers []entity.Worker) []Error {
	ids := make([]string, len(workers))
	for i, w := range workers {
		ids[i] = w.WorkerID
	}
	findings := duplicateIDs(entity.TypeWorker, "WorkerID", ids)

	for i, w := range workers {
		slots := normalize.AvailableSlots(w.AvailableSlots)
		if len(slots) == 0 {
			findings = append(findings, warningf(entity.TypeWorker, RuleCapacityPlanning, i, "AvailableSlots",
				"worker %q has no available slots", w.WorkerID))
		}
		if w.MaxLoadPerPhase.Valid && len(slots) > 0 && w.MaxLoadPerPhase.Value > 2*len(slots) {
			findings = append(findings, warningf(entity.TypeWorker, RuleLoadImbalance, i, "MaxLoadPerPhase",
				"worker %q allows %d per phase but is only available in %d slots", w.WorkerID, w.MaxLoadPerPhase.Value, len(slots)))
		}
		skills := normalize.Skills(w.Skills)
		if len(skills) == 0 {
			findings = append(findings, warningf(entity.TypeWorker, RuleSkillCoverage, i, "Skills",
				"worker %q lists no skills", w.WorkerID))
		}
		if len(skills) > maxSkillsPerWorker {
			findings = append(findings, warningf(entity.TypeWorker, RuleSanityRange, i, "Skills",
				"worker %q lists %d skills; verify the list is real", w.WorkerID, len(skills)))
		}
	}
	return findings
}

func businessTasks(tasks []entity.Task) []Error {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.TaskID
	}
	findings := duplicateIDs(entity.TypeTask, "TaskID", ids)

	for i, t := range tasks {
		if t.Duration.Valid {
			if t.Duration.Value == 0 {
				findings = append(findings, warningf(entity.TypeTask, RuleSanityRange, i, "Duration",
					"task %q has duration 0; likely a data error", t.TaskID))
			}
			if t.Duration.Value > maxSaneDuration {
				findings = append(findings, warningf(entity.TypeTask, RuleSanityRange, i, "Duration",
					"task %q has duration %d; consider splitting it", t.TaskID, t.Duration.Value))
			}
		}
		if t.MaxConcurrent.Valid && t.MaxConcurrent.Value > maxSaneConcurrency {
			findings = append(findings, warningf(entity.TypeTask, RuleSanityRange, i, "MaxConcurrent",
				"task %q allows %d concurrent assignments; confirm this is intended", t.TaskID, t.MaxConcurrent.Value))
		}
	}
	return findings
}
