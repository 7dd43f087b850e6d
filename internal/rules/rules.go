// Package rules models user-authored allocation rules as a closed tagged
// union. Every consumption site switches over the concrete variants; adding a
// variant without handling it everywhere is a compile-visible gap, not a
// silent string mismatch.
package rules

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type tags the rule variants on the wire.
type Type string

const (
	TypeCoRun              Type = "coRun"
	TypeSlotRestriction    Type = "slotRestriction"
	TypeLoadLimit          Type = "loadLimit"
	TypePhaseWindow        Type = "phaseWindow"
	TypePatternMatch       Type = "patternMatch"
	TypePrecedenceOverride Type = "precedenceOverride"
)

// Rule is one allocation rule. The concrete types below are the only
// implementations.
type Rule interface {
	ID() string
	Type() Type
	// Check validates the rule's own shape (not cross-entity feasibility).
	Check() error
}

// GroupKind says which grouping label a slotRestriction targets.
type GroupKind string

const (
	GroupWorkers GroupKind = "worker"
	GroupClients GroupKind = "client"
)

// CoRun requires a set of tasks to run together.
type CoRun struct {
	RuleID string   `json:"id"`
	Tasks  []string `json:"tasks"`
}

func (r CoRun) ID() string { return r.RuleID }
func (r CoRun) Type() Type { return TypeCoRun }
func (r CoRun) Check() error {
	if len(r.Tasks) < 2 {
		return fmt.Errorf("coRun rule %q needs at least two tasks", r.RuleID)
	}
	return nil
}

// SlotRestriction requires a group to share a minimum number of common slots.
type SlotRestriction struct {
	RuleID         string    `json:"id"`
	Group          string    `json:"group"`
	GroupKind      GroupKind `json:"groupKind"`
	MinCommonSlots int       `json:"minCommonSlots"`
}

func (r SlotRestriction) ID() string { return r.RuleID }
func (r SlotRestriction) Type() Type { return TypeSlotRestriction }
func (r SlotRestriction) Check() error {
	if strings.TrimSpace(r.Group) == "" {
		return fmt.Errorf("slotRestriction rule %q needs a group", r.RuleID)
	}
	if r.MinCommonSlots < 1 {
		return fmt.Errorf("slotRestriction rule %q needs minCommonSlots >= 1", r.RuleID)
	}
	return nil
}

// LoadLimit caps how many slots a worker group may fill per phase.
type LoadLimit struct {
	RuleID           string `json:"id"`
	WorkerGroup      string `json:"workerGroup"`
	MaxSlotsPerPhase int    `json:"maxSlotsPerPhase"`
}

func (r LoadLimit) ID() string { return r.RuleID }
func (r LoadLimit) Type() Type { return TypeLoadLimit }
func (r LoadLimit) Check() error {
	if strings.TrimSpace(r.WorkerGroup) == "" {
		return fmt.Errorf("loadLimit rule %q needs a workerGroup", r.RuleID)
	}
	if r.MaxSlotsPerPhase < 1 {
		return fmt.Errorf("loadLimit rule %q needs maxSlotsPerPhase >= 1", r.RuleID)
	}
	return nil
}

// PhaseWindow restricts a task to a set of allowed phases.
type PhaseWindow struct {
	RuleID        string `json:"id"`
	TaskID        string `json:"taskId"`
	AllowedPhases []int  `json:"allowedPhases"`
}

func (r PhaseWindow) ID() string { return r.RuleID }
func (r PhaseWindow) Type() Type { return TypePhaseWindow }
func (r PhaseWindow) Check() error {
	if strings.TrimSpace(r.TaskID) == "" {
		return fmt.Errorf("phaseWindow rule %q needs a taskId", r.RuleID)
	}
	if len(r.AllowedPhases) == 0 {
		return fmt.Errorf("phaseWindow rule %q needs allowedPhases", r.RuleID)
	}
	return nil
}

// PatternMatch applies a rule template to entities matched by a regex.
type PatternMatch struct {
	RuleID   string            `json:"id"`
	Regex    string            `json:"regex"`
	Template string            `json:"template"`
	Params   map[string]string `json:"params,omitempty"`
}

func (r PatternMatch) ID() string { return r.RuleID }
func (r PatternMatch) Type() Type { return TypePatternMatch }
func (r PatternMatch) Check() error {
	if strings.TrimSpace(r.Regex) == "" {
		return fmt.Errorf("patternMatch rule %q needs a regex", r.RuleID)
	}
	return nil
}

// PrecedenceOverride orders rule application globally or per rule.
type PrecedenceOverride struct {
	RuleID   string   `json:"id"`
	Global   []string `json:"global,omitempty"`
	Specific []string `json:"specific,omitempty"`
	Priority int      `json:"priority"`
}

func (r PrecedenceOverride) ID() string { return r.RuleID }
func (r PrecedenceOverride) Type() Type { return TypePrecedenceOverride }
func (r PrecedenceOverride) Check() error {
	if len(r.Global) == 0 && len(r.Specific) == 0 {
		return fmt.Errorf("precedenceOverride rule %q is empty", r.RuleID)
	}
	return nil
}

type envelope struct {
	Type Type `json:"type"`
}

// Decode parses one rule object, dispatching on its "type" tag.
func Decode(raw json.RawMessage) (Rule, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("rule: %w", err)
	}
	var (
		rule Rule
		err  error
	)
	switch env.Type {
	case TypeCoRun:
		var r CoRun
		err = json.Unmarshal(raw, &r)
		rule = r
	case TypeSlotRestriction:
		var r SlotRestriction
		err = json.Unmarshal(raw, &r)
		rule = r
	case TypeLoadLimit:
		var r LoadLimit
		err = json.Unmarshal(raw, &r)
		rule = r
	case TypePhaseWindow:
		var r PhaseWindow
		err = json.Unmarshal(raw, &r)
		rule = r
	case TypePatternMatch:
		var r PatternMatch
		err = json.Unmarshal(raw, &r)
		rule = r
	case TypePrecedenceOverride:
		var r PrecedenceOverride
		err = json.Unmarshal(raw, &r)
		rule = r
	default:
		return nil, fmt.Errorf("rule: unknown type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", env.Type, err)
	}
	if err := rule.Check(); err != nil {
		return nil, err
	}
	return rule, nil
}

// Encode serializes one rule with its type tag.
func Encode(r Rule) (json.RawMessage, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	m["type"] = string(r.Type())
	return json.Marshal(m)
}

// Set is an ordered collection of rules.
type Set struct {
	Rules []Rule
}

func (s *Set) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}
	out := make([]Rule, 0, len(raws))
	for i, raw := range raws {
		r, err := Decode(raw)
		if err != nil {
			return fmt.Errorf("rules[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	s.Rules = out
	return nil
}

func (s Set) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(s.Rules))
	for _, r := range s.Rules {
		raw, err := Encode(r)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return json.Marshal(raws)
}

// ByID returns the rule with the given id, if present.
func (s Set) ByID(id string) (Rule, bool) {
	for _, r := range s.Rules {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// Clone deep-copies the set: the slices and maps inside each variant get
// fresh backing storage, so mutating a clone never leaks into the source.
func (s Set) Clone() Set {
	out := Set{Rules: make([]Rule, len(s.Rules))}
	for i, r := range s.Rules {
		switch rule := r.(type) {
		case CoRun:
			rule.Tasks = append([]string(nil), rule.Tasks...)
			out.Rules[i] = rule
		case PhaseWindow:
			rule.AllowedPhases = append([]int(nil), rule.AllowedPhases...)
			out.Rules[i] = rule
		case PatternMatch:
			params := make(map[string]string, len(rule.Params))
			for k, v := range rule.Params {
				params[k] = v
			}
			rule.Params = params
			out.Rules[i] = rule
		case PrecedenceOverride:
			rule.Global = append([]string(nil), rule.Global...)
			rule.Specific = append([]string(nil), rule.Specific...)
			out.Rules[i] = rule
		default:
			out.Rules[i] = r
		}
	}
	return out
}
