package datasetstore

import (
	"strings"
	"time"

	"alloclab/internal/entity"
	"alloclab/internal/rules"
)

// Workspace is one named dataset + rule set, the unit of persistence.
type Workspace struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Dataset   entity.Dataset `json:"dataset"`
	Rules     rules.Set      `json:"rules"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func normalizeWorkspace(w Workspace) Workspace {
	w.ID = strings.TrimSpace(w.ID)
	if strings.TrimSpace(w.Name) == "" {
		w.Name = "Workspace"
	}
	return w
}
