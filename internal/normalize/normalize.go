// Package normalize converts raw spreadsheet field encodings into canonical
// in-memory values. Every function here is total: malformed input degrades to
// an empty or default canonical value, and the validate package decides
// whether that is acceptable. Nothing in this package ever returns an error.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"alloclab/internal/entity"
)

// Phase bounds. Range and list encodings outside this window are rejected
// entry by entry, never clamped, so a typo like "1 - 300" cannot expand into
// hundreds of phases.
const (
	MinPhase = 1
	MaxPhase = 10
)

var rangePattern = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s*$`)

// skillSynonyms folds common alternate spellings onto one token before any
// set comparison happens.
var skillSynonyms = map[string]string{
	"ui/ux":    "ui-ux",
	"ml":       "machine-learning",
	"js":       "javascript",
	"ts":       "typescript",
	"k8s":      "kubernetes",
	"postgres": "postgresql",
}

// timeNow is swapped in tests.
var timeNow = time.Now

// QualificationLevel maps the dual string/numeric encoding onto the canonical
// enum. It never fails: unmapped numbers and unrecognized strings both come
// back as Mid.
func QualificationLevel(v entity.StringOrNumber) entity.QualificationLevel {
	if v.IsNumber {
		return qualificationFromNumber(int(v.Number))
	}
	text := strings.TrimSpace(v.Text)
	if n, err := strconv.Atoi(text); err == nil {
		return qualificationFromNumber(n)
	}
	switch strings.ToLower(text) {
	case "junior":
		return entity.QualJunior
	case "mid":
		return entity.QualMid
	case "senior":
		return entity.QualSenior
	case "expert":
		return entity.QualExpert
	}
	return entity.QualMid
}

func qualificationFromNumber(n int) entity.QualificationLevel {
	switch {
	case n == 1 || n == 2:
		return entity.QualJunior
	case n == 3:
		return entity.QualMid
	case n == 4:
		return entity.QualSenior
	case n == 5:
		return entity.QualExpert
	}
	return entity.QualMid
}

// PreferredPhases reads the three textual phase encodings, in priority order:
// JSON array, "start - end" range, comma list. Unparseable input yields an
// empty list.
func PreferredPhases(v entity.StringOrNumber) []int {
	if v.IsNumber {
		return dedupPhases([]int{int(v.Number)})
	}
	text := strings.TrimSpace(v.Text)
	if text == "" {
		return []int{}
	}

	if strings.HasPrefix(text, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(text), &arr); err == nil {
			phases := make([]int, 0, len(arr))
			for _, item := range arr {
				if f, ok := item.(float64); ok && f == float64(int(f)) {
					phases = append(phases, int(f))
				}
			}
			return dedupPhases(phases)
		}
		return []int{}
	}

	if m := rangePattern.FindStringSubmatch(text); m != nil {
		start, err1 := strconv.Atoi(m[1])
		end, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return []int{}
		}
		if start < MinPhase || end > MaxPhase || start > end {
			return []int{}
		}
		phases := make([]int, 0, end-start+1)
		for p := start; p <= end; p++ {
			phases = append(phases, p)
		}
		return phases
	}

	parts := strings.Split(text, ",")
	phases := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return []int{}
		}
		phases = append(phases, n)
	}
	return dedupPhases(phases)
}

// dedupPhases drops out-of-bound entries and duplicates, keeping ascending
// order.
func dedupPhases(phases []int) []int {
	seen := make(map[int]struct{}, len(phases))
	out := make([]int, 0, len(phases))
	for _, p := range phases {
		if p < MinPhase || p > MaxPhase {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// AvailableSlots reads the slot list encodings: bare number, JSON array,
// comma list, or bare numeric string. Unparseable input yields an empty list.
func AvailableSlots(v entity.StringOrNumber) []int {
	if v.IsNumber {
		if v.Number != float64(int(v.Number)) || int(v.Number) < 0 {
			return []int{}
		}
		return []int{int(v.Number)}
	}
	text := strings.TrimSpace(v.Text)
	if text == "" {
		return []int{}
	}

	if strings.HasPrefix(text, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(text), &arr); err == nil {
			slots := make([]int, 0, len(arr))
			for _, item := range arr {
				if f, ok := item.(float64); ok && f == float64(int(f)) && int(f) >= 0 {
					slots = append(slots, int(f))
				}
			}
			return slots
		}
		return []int{}
	}

	parts := strings.Split(text, ",")
	slots := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return []int{}
		}
		slots = append(slots, n)
	}
	return slots
}

// AttributesJSON guarantees valid JSON text downstream. Already-valid JSON
// passes through unchanged; anything else is wrapped so the original text
// stays inspectable instead of being dropped.
func AttributesJSON(text string) string {
	if strings.TrimSpace(text) != "" && json.Valid([]byte(text)) {
		return text
	}
	wrapped, err := json.Marshal(map[string]string{
		"message":   text,
		"source":    "auto-converted",
		"timestamp": timeNow().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "{}"
	}
	return string(wrapped)
}

// Skills splits a comma list into lowercase skill tokens with synonyms
// folded. The list keeps its order and is not deduplicated here; set
// construction happens in refindex.
func Skills(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		if canonical, ok := skillSynonyms[token]; ok {
			token = canonical
		}
		out = append(out, token)
	}
	return out
}

// PartitionTaskIDs splits a comma list of task IDs and partitions it against
// the supplied valid-ID set. The caller decides whether invalid entries are
// errors or should be stripped.
func PartitionTaskIDs(csv string, validIDs map[string]struct{}) (valid, invalid []string) {
	valid = []string{}
	invalid = []string{}
	for _, part := range strings.Split(csv, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, ok := validIDs[id]; ok {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	return valid, invalid
}
