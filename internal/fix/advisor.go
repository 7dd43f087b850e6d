// Package fix turns validation findings into ranked, optionally
// auto-applicable remediation suggestions. Suggestion providers are held in a
// registry keyed by rule-type tag; the registry is verified at startup to
// cover every tag the validators emit, so a new validator tag without a
// provider fails loudly instead of silently yielding no suggestions.
package fix

import (
	"fmt"
	"strings"

	"alloclab/internal/entity"
	"alloclab/internal/normalize"
	"alloclab/internal/refindex"
	"alloclab/internal/utils"
	"alloclab/internal/validate"
)

// Confidence ranks a suggestion. Providers return suggestions ordered from
// highest to lowest confidence.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Kind is the machine-actionable action a suggestion performs; Apply
// dispatches on it.
type Kind string

const (
	KindRegenerateID      Kind = "regenerate-id"
	KindSuffixID          Kind = "suffix-id"
	KindResetJSON         Kind = "reset-json"
	KindResetDefault      Kind = "reset-default"
	KindClearField        Kind = "clear-field"
	KindStripReferences   Kind = "strip-references"
	KindCreatePlaceholder Kind = "create-placeholder"
	KindAddSkills         Kind = "add-skills"
	KindCreateWorker      Kind = "create-worker"
	KindRebalance         Kind = "rebalance"
)

// Suggestion is one proposed remediation for one validation finding.
type Suggestion struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"kind"`
	Description string            `json:"description"`
	Confidence  Confidence        `json:"confidence"`
	CanAutoFix  bool              `json:"canAutoFix"`
	Params      map[string]string `json:"params,omitempty"`
}

func suggestion(e validate.Error, kind Kind, conf Confidence, autoFix bool, description string) Suggestion {
	return Suggestion{
		ID:          utils.StableUID(fmt.Sprintf("%s %s", e.ID, kind)),
		Kind:        kind,
		Description: description,
		Confidence:  conf,
		CanAutoFix:  autoFix,
	}
}

// Provider produces ranked suggestions for one finding against the current
// dataset.
type Provider func(e validate.Error, d entity.Dataset) []Suggestion

// Advisor owns the provider registry.
type Advisor struct {
	providers map[validate.RuleType]Provider
}

// NewAdvisor builds the default registry and verifies it covers every rule
// type the validators can emit. The only error it returns is a programmer
// error, so callers typically treat it as fatal.
func NewAdvisor() (*Advisor, error) {
	a := &Advisor{providers: map[validate.RuleType]Provider{
		validate.RuleSchema:               suggestSchema,
		validate.RuleDuplicateID:          suggestDuplicateID,
		validate.RuleInvalidFormat:        suggestInvalidFormat,
		validate.RuleReferenceIntegrity:   suggestReferenceIntegrity,
		validate.RuleSkillCoverage:        suggestSkillCoverage,
		validate.RuleCapacityPlanning:     suggestRebalance,
		validate.RulePriorityDistribution: suggestRebalance,
		validate.RuleLoadImbalance:        suggestRebalance,
		validate.RuleSanityRange:          suggestRebalance,
		validate.RuleFeasibility:          suggestRebalance,
	}}
	for _, rt := range validate.AllRuleTypes() {
		if _, ok := a.providers[rt]; !ok {
			return nil, fmt.Errorf("fix: no suggestion provider registered for rule type %q", rt)
		}
	}
	return a, nil
}

// Suggest returns ranked suggestions for one finding. An unknown rule type
// yields no suggestions rather than an error; the finding is still visible to
// the user, just without automated help.
func (a *Advisor) Suggest(e validate.Error, d entity.Dataset) []Suggestion {
	provider, ok := a.providers[e.RuleType]
	if !ok {
		return []Suggestion{}
	}
	out := provider(e, d)
	if out == nil {
		out = []Suggestion{}
	}
	return out
}

func suggestDuplicateID(e validate.Error, d entity.Dataset) []Suggestion {
	return []Suggestion{
		suggestion(e, KindRegenerateID, ConfidenceHigh, true,
			"Replace the duplicate ID with a newly generated unique ID"),
		suggestion(e, KindSuffixID, ConfidenceMedium, true,
			"Append a numeric suffix to make the ID unique"),
	}
}

func suggestSchema(e validate.Error, d entity.Dataset) []Suggestion {
	if isIDField(e.Field) {
		return []Suggestion{suggestion(e, KindRegenerateID, ConfidenceHigh, true,
			"Generate a unique ID for the row")}
	}
	if value, ok := schemaDefault(e.Field); ok {
		s := suggestion(e, KindResetDefault, ConfidenceMedium, true,
			fmt.Sprintf("Reset %s to its default value %s", e.Field, value))
		s.Params = map[string]string{"value": value}
		return []Suggestion{s}
	}
	return []Suggestion{suggestion(e, KindRebalance, ConfidenceLow, false,
		"Review the field value manually")}
}

func suggestInvalidFormat(e validate.Error, d entity.Dataset) []Suggestion {
	switch {
	case isJSONField(e.Field):
		return []Suggestion{suggestion(e, KindResetJSON, ConfidenceHigh, true,
			fmt.Sprintf("Replace the malformed %s with an empty JSON object", e.Field))}
	case isPriorityField(e.Field):
		s := suggestion(e, KindResetDefault, ConfidenceHigh, true,
			"Reset the priority to the default mid value")
		s.Params = map[string]string{"value": "3"}
		return []Suggestion{s}
	default:
		return []Suggestion{suggestion(e, KindClearField, ConfidenceMedium, true,
			fmt.Sprintf("Clear the unparseable %s value", e.Field))}
	}
}

func suggestReferenceIntegrity(e validate.Error, d entity.Dataset) []Suggestion {
	out := []Suggestion{suggestion(e, KindStripReferences, ConfidenceHigh, true,
		"Remove the unresolved task references from the request list")}
	placeholder := suggestion(e, KindCreatePlaceholder, ConfidenceLow, false,
		"Create a placeholder task for the missing ID (needs manual details)")
	return append(out, placeholder)
}

func suggestSkillCoverage(e validate.Error, d entity.Dataset) []Suggestion {
	missing := missingSkills(d)
	desc := "Add the missing skill(s) to qualified workers"
	if len(missing) > 0 {
		desc = fmt.Sprintf("Add the missing skill(s) to qualified workers: %s", strings.Join(missing, ", "))
	}
	return []Suggestion{
		suggestion(e, KindAddSkills, ConfidenceMedium, false, desc),
		suggestion(e, KindCreateWorker, ConfidenceLow, false,
			"Create a new worker covering the missing skills"),
	}
}

func suggestRebalance(e validate.Error, d entity.Dataset) []Suggestion {
	return []Suggestion{suggestion(e, KindRebalance, ConfidenceLow, false,
		"Adjust the data proportionally; this is a business decision")}
}

func isIDField(field string) bool {
	switch field {
	case "ClientID", "WorkerID", "TaskID":
		return true
	}
	return false
}

func isJSONField(field string) bool {
	return strings.Contains(strings.ToLower(field), "json")
}

func isPriorityField(field string) bool {
	return strings.Contains(strings.ToLower(field), "priority")
}

// schemaDefault maps bounded numeric fields to the value a reset falls back
// to.
func schemaDefault(field string) (string, bool) {
	switch field {
	case "PriorityLevel":
		return "3", true
	case "Duration", "MaxConcurrent":
		return "1", true
	case "MaxLoadPerPhase":
		return "0", true
	}
	return "", false
}

func missingSkills(d entity.Dataset) []string {
	ix := refindex.Build(d.Clients, d.Workers, d.Tasks)
	seen := make(map[string]struct{})
	var out []string
	for _, t := range d.Tasks {
		for _, skill := range normalize.Skills(t.RequiredSkills) {
			if ix.HasSkill(skill) {
				continue
			}
			if _, dup := seen[skill]; dup {
				continue
			}
			seen[skill] = struct{}{}
			out = append(out, skill)
		}
	}
	return out
}
