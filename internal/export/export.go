// Package export produces the cleaned dataset and rules configuration.
// Validation only reports out-of-range values; this is the layer that
// actually coerces them, so exported files are always canonical.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"alloclab/internal/entity"
	"alloclab/internal/normalize"
	"alloclab/internal/rules"
	"alloclab/internal/util/jsonutil"
	"alloclab/internal/validate"
)

// Normalize returns a canonical copy of the dataset: bounded numerics are
// clamped, dual-encoded fields are rewritten into one canonical text
// encoding, and AttributesJSON is guaranteed to parse.
func Normalize(d entity.Dataset) entity.Dataset {
	out := d.Clone()
	for i := range out.Clients {
		c := &out.Clients[i]
		c.ClientID = strings.TrimSpace(c.ClientID)
		c.PriorityLevel = clamp(c.PriorityLevel, 1, 5, 3)
		c.RequestedTaskIDs = canonicalCSV(c.RequestedTaskIDs)
		c.AttributesJSON = normalize.AttributesJSON(c.AttributesJSON)
	}
	for i := range out.Workers {
		w := &out.Workers[i]
		w.WorkerID = strings.TrimSpace(w.WorkerID)
		w.Skills = strings.Join(normalize.Skills(w.Skills), ",")
		w.AvailableSlots = entity.String(intListJSON(normalize.AvailableSlots(w.AvailableSlots)))
		w.MaxLoadPerPhase = clamp(w.MaxLoadPerPhase, 0, -1, 0)
		w.QualificationLevel = entity.String(string(normalize.QualificationLevel(w.QualificationLevel)))
	}
	for i := range out.Tasks {
		t := &out.Tasks[i]
		t.TaskID = strings.TrimSpace(t.TaskID)
		t.Duration = clamp(t.Duration, 1, -1, 1)
		t.RequiredSkills = strings.Join(normalize.Skills(t.RequiredSkills), ",")
		t.PreferredPhases = entity.String(intListJSON(normalize.PreferredPhases(t.PreferredPhases)))
		t.MaxConcurrent = clamp(t.MaxConcurrent, 1, -1, 1)
	}
	return out
}

// clamp coerces v into [min, max] (max < 0 means unbounded above); an
// unparseable value falls back to def.
func clamp(v entity.FlexInt, min, max, def int) entity.FlexInt {
	if !v.Valid {
		return entity.Int(def)
	}
	n := v.Value
	if n < min {
		n = min
	}
	if max >= 0 && n > max {
		n = max
	}
	return entity.Int(n)
}

func canonicalCSV(csv string) string {
	var parts []string
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ",")
}

func intListJSON(list []int) string {
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Bundle is the full export payload: one cleaned JSON document per entity
// collection plus the rules configuration.
type Bundle struct {
	Clients []byte
	Workers []byte
	Tasks   []byte
	Rules   []byte
}

// rulesConfig is the exported rules file shape.
type rulesConfig struct {
	Version int          `json:"version"`
	Rules   rules.Set    `json:"rules"`
	Hours   hoursSetting `json:"capacity"`
}

type hoursSetting struct {
	HoursPerDay int `json:"hoursPerDay"`
}

// Build normalizes the dataset and renders the export files. It refuses to
// export while hard errors remain; warnings never block.
func Build(d entity.Dataset, set rules.Set, opts validate.Options) (Bundle, error) {
	summary := validate.AllWithRules(d.Clients, d.Workers, d.Tasks, set, opts)
	if summary.TotalErrors > 0 {
		return Bundle{}, fmt.Errorf("export blocked: %d validation error(s) outstanding", summary.TotalErrors)
	}
	clean := Normalize(d)

	var bundle Bundle
	var err error
	if bundle.Clients, err = jsonutil.MarshalNoEscapeIndent(clean.Clients, "", "  "); err != nil {
		return Bundle{}, fmt.Errorf("export clients: %w", err)
	}
	if bundle.Workers, err = jsonutil.MarshalNoEscapeIndent(clean.Workers, "", "  "); err != nil {
		return Bundle{}, fmt.Errorf("export workers: %w", err)
	}
	if bundle.Tasks, err = jsonutil.MarshalNoEscapeIndent(clean.Tasks, "", "  "); err != nil {
		return Bundle{}, fmt.Errorf("export tasks: %w", err)
	}
	cfg := rulesConfig{Version: 1, Rules: set, Hours: hoursSetting{HoursPerDay: opts.HoursPerDay}}
	if cfg.Hours.HoursPerDay == 0 {
		cfg.Hours.HoursPerDay = validate.DefaultHoursPerDay
	}
	if bundle.Rules, err = jsonutil.MarshalNoEscapeIndent(cfg, "", "  "); err != nil {
		return Bundle{}, fmt.Errorf("export rules: %w", err)
	}
	return bundle, nil
}
