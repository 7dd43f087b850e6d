package datasetstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []Workspace
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			id := strings.TrimSpace(row.ID)
			if id == "" {
				continue
			}
			s.byID[id] = normalizeWorkspace(row)
		}
	})
}

func (s *Store) saveFile() {
	s.mu.RLock()
	rows := make([]Workspace, 0, len(s.byID))
	for _, w := range s.byID {
		rows = append(rows, w)
	}
	s.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, b, 0o644)
}

func (s *Store) getFile(id string) (Workspace, bool) {
	s.ensureLoadedFile()
	id = strings.TrimSpace(id)
	if id == "" {
		return Workspace{}, false
	}
	s.mu.RLock()
	w, ok := s.byID[id]
	s.mu.RUnlock()
	return w, ok
}

func (s *Store) putFile(w Workspace) {
	s.ensureLoadedFile()
	n := normalizeWorkspace(w)
	if n.ID == "" {
		return
	}
	s.mu.Lock()
	s.byID[n.ID] = n
	s.mu.Unlock()
	s.saveFile()
}

func (s *Store) deleteFile(id string) bool {
	s.ensureLoadedFile()
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	s.mu.Lock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	s.mu.Unlock()
	if ok {
		s.saveFile()
	}
	return ok
}

func (s *Store) listFile() []Workspace {
	s.ensureLoadedFile()
	s.mu.RLock()
	out := make([]Workspace, 0, len(s.byID))
	for _, w := range s.byID {
		out = append(out, w)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
