// Package validate runs schema, business-rule, and cross-entity checks over
// one dataset snapshot and assembles the summary the UI and fix advisor
// consume. Validators never fail: they only append findings to result lists.
package validate

import (
	"fmt"

	"alloclab/internal/entity"
	"alloclab/internal/utils"
)

// Level classifies a finding. Only errors block validity; warnings are
// advisory and never block export.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// RuleType tags a finding with the check family that produced it. The tag is
// the contract between validators and the fix advisor: the advisor dispatches
// suggestion providers on it, so values here are stable.
type RuleType string

const (
	RuleSchema               RuleType = "schema"
	RuleDuplicateID          RuleType = "duplicate-detection"
	RuleInvalidFormat        RuleType = "invalid-format"
	RuleReferenceIntegrity   RuleType = "reference-integrity"
	RuleSkillCoverage        RuleType = "skill-coverage"
	RuleCapacityPlanning     RuleType = "capacity-planning"
	RulePriorityDistribution RuleType = "priority-distribution"
	RuleLoadImbalance        RuleType = "load-imbalance"
	RuleSanityRange          RuleType = "sanity-range"
	RuleFeasibility          RuleType = "rule-feasibility"
)

// AllRuleTypes lists every tag the validators can emit. The fix advisor
// verifies at startup that it covers each one.
func AllRuleTypes() []RuleType {
	return []RuleType{
		RuleSchema,
		RuleDuplicateID,
		RuleInvalidFormat,
		RuleReferenceIntegrity,
		RuleSkillCoverage,
		RuleCapacityPlanning,
		RulePriorityDistribution,
		RuleLoadImbalance,
		RuleSanityRange,
		RuleFeasibility,
	}
}

// AggregateRow marks findings that concern the whole dataset rather than one
// row.
const AggregateRow = -1

// Error is one validation finding. The ID is deterministic over the finding's
// identity, so re-validating unchanged data yields the same IDs.
type Error struct {
	ID         string      `json:"id"`
	Level      Level       `json:"level"`
	Message    string      `json:"message"`
	Field      string      `json:"field,omitempty"`
	RowIndex   int         `json:"rowIndex"`
	EntityType entity.Type `json:"entityType"`
	RuleType   RuleType    `json:"ruleType"`
}

func newFinding(level Level, et entity.Type, rt RuleType, row int, field, message string) Error {
	seed := fmt.Sprintf("%s %s %d %s %s", et, rt, row, field, message)
	return Error{
		ID:         utils.StableUID(seed),
		Level:      level,
		Message:    message,
		Field:      field,
		RowIndex:   row,
		EntityType: et,
		RuleType:   rt,
	}
}

func errorf(et entity.Type, rt RuleType, row int, field, format string, args ...any) Error {
	return newFinding(LevelError, et, rt, row, field, fmt.Sprintf(format, args...))
}

func warningf(et entity.Type, rt RuleType, row int, field, format string, args ...any) Error {
	return newFinding(LevelWarning, et, rt, row, field, fmt.Sprintf(format, args...))
}

// Result groups the findings for one entity collection (or the cross-entity
// checks). IsValid is defined purely by the absence of errors.
type Result struct {
	IsValid  bool    `json:"isValid"`
	Errors   []Error `json:"errors"`
	Warnings []Error `json:"warnings"`
}

func newResult(findings []Error) Result {
	res := Result{Errors: []Error{}, Warnings: []Error{}}
	for _, f := range findings {
		switch f.Level {
		case LevelError:
			res.Errors = append(res.Errors, f)
		default:
			res.Warnings = append(res.Warnings, f)
		}
	}
	res.IsValid = len(res.Errors) == 0
	return res
}

// Summary is the unified report over all four validation groups.
type Summary struct {
	Clients       Result `json:"clients"`
	Workers       Result `json:"workers"`
	Tasks         Result `json:"tasks"`
	CrossEntity   Result `json:"crossEntity"`
	TotalErrors   int    `json:"totalErrors"`
	TotalWarnings int    `json:"totalWarnings"`
}

// AllErrors flattens the four groups' errors in summary order.
func (s Summary) AllErrors() []Error {
	out := make([]Error, 0, s.TotalErrors)
	out = append(out, s.Clients.Errors...)
	out = append(out, s.Workers.Errors...)
	out = append(out, s.Tasks.Errors...)
	out = append(out, s.CrossEntity.Errors...)
	return out
}

// IsValid reports whether no group produced an error.
func (s Summary) IsValid() bool { return s.TotalErrors == 0 }

// DefaultHoursPerDay scales task duration (hours) against worker slots
// (days) in the capacity-planning check. Whether eight is a business constant
// or a historical placeholder is unsettled, so it stays overridable.
const DefaultHoursPerDay = 8

// Options tunes validation heuristics.
type Options struct {
	// HoursPerDay is used by the capacity-planning check; zero means
	// DefaultHoursPerDay.
	HoursPerDay int
}

func (o Options) hoursPerDay() int {
	if o.HoursPerDay > 0 {
		return o.HoursPerDay
	}
	return DefaultHoursPerDay
}
