package datasetstore

import (
	"encoding/json"
	"strings"
	"time"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS workspaces (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT 'Workspace',
  payload JSONB NOT NULL DEFAULT '{}'::jsonb,
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`)
	})
	return s.schemaErr
}

// payload carries the dataset and rules as one JSONB column so schema churn
// in the entity types never needs a migration.
type wsPayload struct {
	Dataset json.RawMessage `json:"dataset"`
	Rules   json.RawMessage `json:"rules"`
}

func (s *Store) getDB(id string) (Workspace, bool) {
	if err := s.ensureSchema(); err != nil {
		return Workspace{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Workspace{}, false
	}
	var (
		w   Workspace
		raw []byte
	)
	row := s.db.QueryRow(`SELECT id, name, payload, updated_at FROM workspaces WHERE id = $1`, id)
	if err := row.Scan(&w.ID, &w.Name, &raw, &w.UpdatedAt); err != nil {
		return Workspace{}, false
	}
	if !decodePayload(raw, &w) {
		return Workspace{}, false
	}
	return normalizeWorkspace(w), true
}

func (s *Store) putDB(w Workspace) {
	if err := s.ensureSchema(); err != nil {
		return
	}
	n := normalizeWorkspace(w)
	if n.ID == "" {
		return
	}
	raw, err := encodePayload(n)
	if err != nil {
		return
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}
	_, _ = s.db.Exec(`
INSERT INTO workspaces (id, name, payload, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id)
DO UPDATE SET name=EXCLUDED.name,
  payload=EXCLUDED.payload,
  updated_at=EXCLUDED.updated_at`,
		n.ID, n.Name, raw, n.UpdatedAt)
}

func (s *Store) deleteDB(id string) bool {
	if err := s.ensureSchema(); err != nil {
		return false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	res, err := s.db.Exec(`DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *Store) listDB() []Workspace {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT id, name, payload, updated_at FROM workspaces ORDER BY id`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]Workspace, 0, 16)
	for rows.Next() {
		var (
			w   Workspace
			raw []byte
		)
		if err := rows.Scan(&w.ID, &w.Name, &raw, &w.UpdatedAt); err != nil {
			continue
		}
		if !decodePayload(raw, &w) {
			continue
		}
		out = append(out, normalizeWorkspace(w))
	}
	return out
}

func encodePayload(w Workspace) ([]byte, error) {
	ds, err := json.Marshal(w.Dataset)
	if err != nil {
		return nil, err
	}
	rs, err := json.Marshal(w.Rules)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wsPayload{Dataset: ds, Rules: rs})
}

func decodePayload(raw []byte, w *Workspace) bool {
	var p wsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	if len(p.Dataset) > 0 {
		if err := json.Unmarshal(p.Dataset, &w.Dataset); err != nil {
			return false
		}
	}
	if len(p.Rules) > 0 {
		if err := json.Unmarshal(p.Rules, &w.Rules); err != nil {
			return false
		}
	}
	return true
}
