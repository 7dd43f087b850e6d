package utils

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// UIDGenerator mints unique identifiers derived from existing IDs and
// resolves collisions. A generated ID's shape is "<slug>-<hash>" (or
// "<slug>-<hash>-N" on collision). The fix advisor uses it to replace
// duplicate entity IDs without colliding with the rest of a collection.
type UIDGenerator struct {
	used    map[string]struct{}
	counter map[string]int
}

// NewUIDGenerator creates a generator with the given IDs pre-reserved.
func NewUIDGenerator(existing ...string) *UIDGenerator {
	g := &UIDGenerator{
		used:    make(map[string]struct{}, len(existing)+8),
		counter: make(map[string]int, len(existing)+8),
	}
	for _, uid := range existing {
		uid = strings.TrimSpace(uid)
		if uid == "" {
			continue
		}
		g.used[uid] = struct{}{}
	}
	return g
}

// Generate returns a fresh ID derived from id that collides with neither the
// reserved set nor anything generated earlier.
func (g *UIDGenerator) Generate(id string) string {
	if g == nil {
		g = NewUIDGenerator()
	}
	base := StableUID(id)
	if _, ok := g.used[base]; !ok {
		g.used[base] = struct{}{}
		g.counter[base] = 1
		return base
	}
	n := g.counter[base]
	if n < 1 {
		n = 1
	}
	for {
		n++
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, exists := g.used[candidate]; exists {
			continue
		}
		g.used[candidate] = struct{}{}
		g.counter[base] = n
		return candidate
	}
}

// StableUID derives a deterministic "<slug>-<hash>" identifier from s. The
// same input always yields the same output, which is what keeps validation
// error IDs stable across runs over unchanged data.
func StableUID(s string) string {
	slug := slugifyASCII(s)
	if slug == "" {
		slug = "item"
	}
	if len(slug) > 48 {
		slug = strings.Trim(slug[:48], "-")
	}
	return fmt.Sprintf("%s-%s", slug, shortHashHex(s))
}

func shortHashHex(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	sum := h.Sum64()
	return fmt.Sprintf("%08x", uint32(sum&0xffffffff))
}

func slugifyASCII(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
