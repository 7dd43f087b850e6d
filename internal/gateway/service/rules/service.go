package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"alloclab/internal/gateway/service/dataset"
	"alloclab/internal/llm"
	"alloclab/internal/refindex"
	"alloclab/internal/rules"
	"alloclab/internal/validate"
)

// Service manages the allocation-rule set. Every mutation republishes the
// dataset snapshot so validation picks up feasibility changes.
type Service struct {
	ds  *dataset.Service
	llm llm.Client
}

func New(ds *dataset.Service, llmClient llm.Client) *Service {
	return &Service{ds: ds, llm: llmClient}
}

// List returns the current rules in wire form.
func (s *Service) List() ([]json.RawMessage, error) {
	snap := s.ds.Snapshot()
	out := make([]json.RawMessage, 0, len(snap.Rules.Rules))
	for _, r := range snap.Rules.Rules {
		raw, err := rules.Encode(r)
		if err != nil {
			return nil, fmt.Errorf("encode rule %s: %w", r.ID(), err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// Add decodes and installs one rule. The returned warnings are feasibility
// findings for the new rule against the current dataset; an infeasible rule
// is still installed, warnings are advisory.
func (s *Service) Add(raw json.RawMessage) (rules.Rule, []validate.Error, int64, error) {
	rule, err := rules.Decode(raw)
	if err != nil {
		return nil, nil, 0, err
	}
	snap := s.ds.Snapshot()
	if _, exists := snap.Rules.ByID(rule.ID()); exists {
		return nil, nil, 0, fmt.Errorf("rule %q already exists", rule.ID())
	}
	next := snap.Rules.Clone()
	next.Rules = append(next.Rules, rule)
	newSnap := s.ds.SetRules(next)
	return rule, s.feasibility(newSnap, rule), newSnap.Version, nil
}

// Delete removes one rule by id.
func (s *Service) Delete(id string) (int64, bool) {
	id = strings.TrimSpace(id)
	snap := s.ds.Snapshot()
	if _, ok := snap.Rules.ByID(id); !ok {
		return snap.Version, false
	}
	next := rules.Set{Rules: make([]rules.Rule, 0, len(snap.Rules.Rules)-1)}
	for _, r := range snap.Rules.Rules {
		if r.ID() == id {
			continue
		}
		next.Rules = append(next.Rules, r)
	}
	newSnap := s.ds.SetRules(next)
	return newSnap.Version, true
}

// Convert turns a natural-language description into a proposed rule via the
// LLM collaborator. The proposal is returned, never installed; callers add
// it explicitly. Conversion failure is a normal outcome, never fatal.
func (s *Service) Convert(ctx context.Context, text string) (json.RawMessage, []validate.Error, error) {
	if s.llm == nil {
		return nil, nil, fmt.Errorf("no rule converter configured")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, fmt.Errorf("text is required")
	}

	snap := s.ds.Snapshot()
	raw, err := s.llm.GenerateJSON(ctx, convertPrompt(snap), map[string]any{"request": text})
	if err != nil {
		return nil, nil, fmt.Errorf("rule conversion: %w", err)
	}
	rule, err := rules.Decode(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("rule conversion produced an invalid rule: %w", err)
	}
	encoded, err := rules.Encode(rule)
	if err != nil {
		return nil, nil, err
	}
	return encoded, s.feasibility(snap, rule), nil
}

// feasibility checks one rule in isolation against the dataset and keeps
// only the findings about rules.
func (s *Service) feasibility(snap dataset.Snapshot, rule rules.Rule) []validate.Error {
	res := validate.CrossEntity(
		snap.Dataset.Clients,
		snap.Dataset.Workers,
		snap.Dataset.Tasks,
		rules.Set{Rules: []rules.Rule{rule}},
		validate.Options{},
	)
	out := make([]validate.Error, 0, 2)
	for _, w := range res.Warnings {
		if w.RuleType == validate.RuleFeasibility {
			out = append(out, w)
		}
	}
	for _, e := range res.Errors {
		if e.RuleType == validate.RuleFeasibility {
			out = append(out, e)
		}
	}
	return out
}

func convertPrompt(snap dataset.Snapshot) string {
	ix := refindex.Build(snap.Dataset.Clients, snap.Dataset.Workers, snap.Dataset.Tasks)
	taskIDs := make([]string, 0, len(ix.TaskIDs()))
	for id := range ix.TaskIDs() {
		taskIDs = append(taskIDs, id)
	}
	sort.Strings(taskIDs)

	var b strings.Builder
	b.WriteString(`Convert the user's request into exactly one allocation rule as JSON.
Output only the JSON object, no prose. The "type" field selects the shape:

{"type":"coRun","id":"...","tasks":["T1","T2"]}
{"type":"slotRestriction","id":"...","group":"...","groupKind":"worker"|"client","minCommonSlots":N}
{"type":"loadLimit","id":"...","workerGroup":"...","maxSlotsPerPhase":N}
{"type":"phaseWindow","id":"...","taskId":"...","allowedPhases":[1,2]}
{"type":"patternMatch","id":"...","regex":"...","template":"...","params":{}}
{"type":"precedenceOverride","id":"...","global":["ruleId"],"specific":["ruleId"],"priority":N}

`)
	if len(taskIDs) > 0 {
		b.WriteString("Known task IDs: " + strings.Join(taskIDs, ", ") + "\n")
	}
	if groups := ix.WorkerGroups(); len(groups) > 0 {
		b.WriteString("Known worker groups: " + strings.Join(groups, ", ") + "\n")
	}
	return b.String()
}
