package validate

import (
	"sort"
	"strings"

	"alloclab/internal/entity"
	"alloclab/internal/normalize"
	"alloclab/internal/refindex"
	"alloclab/internal/rules"
)

func crossEntity(clients []entity.Client, workers []entity.Worker, tasks []entity.Task, set rules.Set, opts Options) []Error {
	ix := refindex.Build(clients, workers, tasks)
	var findings []Error
	findings = append(findings, referenceIntegrity(clients, ix)...)
	findings = append(findings, skillCoverage(workers, tasks, ix)...)
	findings = append(findings, capacityPlanning(clients, workers, tasks, opts)...)
	findings = append(findings, ruleFeasibility(set, ix)...)
	return findings
}

// referenceIntegrity emits one error per unresolved RequestedTaskIDs entry,
// naming the missing ID so fix tooling can target it.
func referenceIntegrity(clients []entity.Client, ix *refindex.Index) []Error {
	var findings []Error
	for i, c := range clients {
		_, invalid := normalize.PartitionTaskIDs(c.RequestedTaskIDs, ix.TaskIDs())
		for _, missing := range invalid {
			findings = append(findings, errorf(entity.TypeClient, RuleReferenceIntegrity, i, "RequestedTaskIDs",
				"client %q requests unknown task %q", c.ClientID, missing))
		}
	}
	return findings
}

// skillCoverage compares the union of required skills against the union of
// worker skills and emits a single aggregated warning listing every missing
// skill. A staffing gap is a property of the dataset, not of one task.
func skillCoverage(workers []entity.Worker, tasks []entity.Task, ix *refindex.Index) []Error {
	missing := make(map[string]struct{})
	for _, t := range tasks {
		for _, skill := range normalize.Skills(t.RequiredSkills) {
			if !ix.HasSkill(skill) {
				missing[skill] = struct{}{}
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	list := make([]string, 0, len(missing))
	for skill := range missing {
		list = append(list, skill)
	}
	sort.Strings(list)
	return []Error{warningf(entity.TypeWorker, RuleSkillCoverage, AggregateRow, "Skills",
		"no worker covers required skill(s): %s", strings.Join(list, ", "))}
}

func capacityPlanning(clients []entity.Client, workers []entity.Worker, tasks []entity.Task, opts Options) []Error {
	var findings []Error

	totalSlots := 0
	seniorWorkers := 0
	for _, w := range workers {
		totalSlots += len(normalize.AvailableSlots(w.AvailableSlots))
		if normalize.QualificationLevel(w.QualificationLevel).SeniorOrAbove() {
			seniorWorkers++
		}
	}
	totalDuration := 0
	for _, t := range tasks {
		if t.Duration.Valid && t.Duration.Value > 0 {
			totalDuration += t.Duration.Value
		}
	}
	if supply := totalSlots * opts.hoursPerDay(); totalDuration > supply {
		findings = append(findings, warningf(entity.TypeWorker, RuleCapacityPlanning, AggregateRow, "AvailableSlots",
			"total task demand of %d hours exceeds worker capacity of %d hours (%d slots x %d h)",
			totalDuration, supply, totalSlots, opts.hoursPerDay()))
	}

	highPriority := 0
	for _, c := range clients {
		if c.PriorityLevel.Valid && c.PriorityLevel.Value >= 4 {
			highPriority++
		}
	}
	if highPriority > seniorWorkers {
		findings = append(findings, warningf(entity.TypeClient, RuleCapacityPlanning, AggregateRow, "PriorityLevel",
			"%d high-priority clients but only %d senior or expert workers", highPriority, seniorWorkers))
	}
	return findings
}

// ruleFeasibility flags allocation rules the current dataset cannot satisfy.
// The switch is exhaustive over the rule variants.
func ruleFeasibility(set rules.Set, ix *refindex.Index) []Error {
	var findings []Error
	for _, r := range set.Rules {
		switch rule := r.(type) {
		case rules.CoRun:
			for _, taskID := range rule.Tasks {
				if !ix.HasTask(taskID) {
					findings = append(findings, warningf(entity.TypeTask, RuleFeasibility, AggregateRow, "",
						"coRun rule %q names unknown task %q", rule.RuleID, taskID))
				}
			}
		case rules.SlotRestriction:
			if rule.GroupKind == rules.GroupClients {
				if len(ix.ClientsInGroup(rule.Group)) == 0 {
					findings = append(findings, warningf(entity.TypeClient, RuleFeasibility, AggregateRow, "GroupTag",
						"slotRestriction rule %q targets empty client group %q", rule.RuleID, rule.Group))
				}
				continue
			}
			common := ix.CommonWorkerSlots(rule.Group)
			if len(common) < rule.MinCommonSlots {
				findings = append(findings, warningf(entity.TypeWorker, RuleFeasibility, AggregateRow, "AvailableSlots",
					"slotRestriction rule %q needs %d common slots in group %q but only %d exist",
					rule.RuleID, rule.MinCommonSlots, rule.Group, len(common)))
			}
		case rules.LoadLimit:
			if len(ix.WorkersInGroup(rule.WorkerGroup)) == 0 {
				findings = append(findings, warningf(entity.TypeWorker, RuleFeasibility, AggregateRow, "WorkerGroup",
					"loadLimit rule %q targets empty worker group %q", rule.RuleID, rule.WorkerGroup))
			}
		case rules.PhaseWindow:
			if !ix.HasTask(rule.TaskID) {
				findings = append(findings, warningf(entity.TypeTask, RuleFeasibility, AggregateRow, "",
					"phaseWindow rule %q names unknown task %q", rule.RuleID, rule.TaskID))
			}
		case rules.PatternMatch:
			// Pattern rules bind at allocation time; nothing to check here.
		case rules.PrecedenceOverride:
			// Ordering is checked when rules are applied, not against data.
		}
	}
	return findings
}
