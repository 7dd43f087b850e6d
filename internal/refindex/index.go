// Package refindex builds the lookup structures cross-entity validation and
// fix tooling consume. An Index is recomputed on demand from the current
// collections and holds no mutable state.
package refindex

import (
	"sort"
	"strings"

	"alloclab/internal/entity"
	"alloclab/internal/normalize"
)

// Index is a read-only view over one dataset snapshot.
type Index struct {
	taskIDs        map[string]struct{}
	workerSkills   map[string]struct{}
	workersByGroup map[string][]entity.Worker
	clientsByGroup map[string][]entity.Client
}

// Build computes the index for the given collections.
func Build(clients []entity.Client, workers []entity.Worker, tasks []entity.Task) *Index {
	ix := &Index{
		taskIDs:        make(map[string]struct{}, len(tasks)),
		workerSkills:   make(map[string]struct{}),
		workersByGroup: make(map[string][]entity.Worker),
		clientsByGroup: make(map[string][]entity.Client),
	}
	for _, t := range tasks {
		id := strings.TrimSpace(t.TaskID)
		if id == "" {
			continue
		}
		ix.taskIDs[id] = struct{}{}
	}
	for _, w := range workers {
		for _, skill := range normalize.Skills(w.Skills) {
			ix.workerSkills[skill] = struct{}{}
		}
		if group := strings.TrimSpace(w.WorkerGroup); group != "" {
			ix.workersByGroup[group] = append(ix.workersByGroup[group], w)
		}
	}
	for _, c := range clients {
		if group := strings.TrimSpace(c.GroupTag); group != "" {
			ix.clientsByGroup[group] = append(ix.clientsByGroup[group], c)
		}
	}
	return ix
}

// TaskIDs returns the valid task-ID set.
func (ix *Index) TaskIDs() map[string]struct{} { return ix.taskIDs }

// HasTask reports whether id resolves to an existing task.
func (ix *Index) HasTask(id string) bool {
	_, ok := ix.taskIDs[strings.TrimSpace(id)]
	return ok
}

// HasSkill reports whether any worker carries the (already normalized) skill.
func (ix *Index) HasSkill(skill string) bool {
	_, ok := ix.workerSkills[skill]
	return ok
}

// WorkerSkills returns the union of all workers' normalized skill tokens.
func (ix *Index) WorkerSkills() map[string]struct{} { return ix.workerSkills }

// WorkerGroups returns the group labels present, sorted.
func (ix *Index) WorkerGroups() []string {
	groups := make([]string, 0, len(ix.workersByGroup))
	for g := range ix.workersByGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// WorkersInGroup returns the workers carrying the given group label.
func (ix *Index) WorkersInGroup(group string) []entity.Worker {
	return ix.workersByGroup[strings.TrimSpace(group)]
}

// ClientsInGroup returns the clients carrying the given group tag.
func (ix *Index) ClientsInGroup(group string) []entity.Client {
	return ix.clientsByGroup[strings.TrimSpace(group)]
}

// CommonWorkerSlots intersects the normalized AvailableSlots of every worker
// in a group, sorted ascending. An empty intersection is a valid outcome; an
// unknown or empty group also yields an empty list.
func (ix *Index) CommonWorkerSlots(group string) []int {
	members := ix.WorkersInGroup(group)
	if len(members) == 0 {
		return []int{}
	}
	counts := make(map[int]int)
	for _, w := range members {
		seen := make(map[int]struct{})
		for _, slot := range normalize.AvailableSlots(w.AvailableSlots) {
			if _, dup := seen[slot]; dup {
				continue
			}
			seen[slot] = struct{}{}
			counts[slot]++
		}
	}
	common := make([]int, 0, len(counts))
	for slot, n := range counts {
		if n == len(members) {
			common = append(common, slot)
		}
	}
	sort.Ints(common)
	return common
}
