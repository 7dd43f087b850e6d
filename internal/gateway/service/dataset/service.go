package dataset

import (
	"fmt"
	"sync"
	"time"

	"alloclab/internal/entity"
	"alloclab/internal/gateway/repository/datasetstore"
	"alloclab/internal/rules"
)

const defaultWorkspaceID = "default"

// Modified tracks which collections changed since their last wholesale
// upload. A fresh upload clears the flag for that collection.
type Modified struct {
	Clients bool `json:"clients"`
	Workers bool `json:"workers"`
	Tasks   bool `json:"tasks"`
}

// Snapshot is one immutable view of the workbench state. Version increases
// on every mutation and never repeats within a process.
type Snapshot struct {
	Dataset  entity.Dataset
	Rules    rules.Set
	Version  int64
	Modified Modified
}

type Listener func(Snapshot)

// Service owns the single current dataset. All mutations clone, edit, and
// publish a new snapshot under the lock; readers get value copies.
type Service struct {
	store *datasetstore.Store

	mu       sync.RWMutex
	dataset  entity.Dataset
	rules    rules.Set
	version  int64
	modified Modified

	listeners []Listener
}

func New(store *datasetstore.Store) *Service {
	s := &Service{store: store}
	if ws, ok := store.Get(defaultWorkspaceID); ok {
		s.dataset = ws.Dataset
		s.rules = ws.Rules
	}
	return s
}

// Subscribe registers a listener for every published snapshot. Listeners run
// synchronously under the mutation path and must not call back into the
// service.
func (s *Service) Subscribe(fn Listener) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Dataset:  s.dataset.Clone(),
		Rules:    s.rules.Clone(),
		Version:  s.version,
		Modified: s.modified,
	}
}

// ReplaceCollection swaps one collection wholesale, as after a fresh file
// upload. The collection's modified flag resets.
func (s *Service) ReplaceCollection(t entity.Type, clients []entity.Client, workers []entity.Worker, tasks []entity.Task) (Snapshot, error) {
	return s.mutate(func(d *entity.Dataset, m *Modified) error {
		switch t {
		case entity.TypeClient:
			d.Clients = clients
			m.Clients = false
		case entity.TypeWorker:
			d.Workers = workers
			m.Workers = false
		case entity.TypeTask:
			d.Tasks = tasks
			m.Tasks = false
		default:
			return fmt.Errorf("unknown entity type %q", t)
		}
		return nil
	})
}

// UpdateRow replaces one record in place (a grid cell edit posts the whole
// row back).
func (s *Service) UpdateRow(t entity.Type, index int, client *entity.Client, worker *entity.Worker, task *entity.Task) (Snapshot, error) {
	return s.mutate(func(d *entity.Dataset, m *Modified) error {
		switch t {
		case entity.TypeClient:
			if client == nil || index < 0 || index >= len(d.Clients) {
				return fmt.Errorf("client row %d out of range", index)
			}
			d.Clients[index] = *client
			m.Clients = true
		case entity.TypeWorker:
			if worker == nil || index < 0 || index >= len(d.Workers) {
				return fmt.Errorf("worker row %d out of range", index)
			}
			d.Workers[index] = *worker
			m.Workers = true
		case entity.TypeTask:
			if task == nil || index < 0 || index >= len(d.Tasks) {
				return fmt.Errorf("task row %d out of range", index)
			}
			d.Tasks[index] = *task
			m.Tasks = true
		default:
			return fmt.Errorf("unknown entity type %q", t)
		}
		return nil
	})
}

func (s *Service) DeleteRow(t entity.Type, index int) (Snapshot, error) {
	return s.mutate(func(d *entity.Dataset, m *Modified) error {
		switch t {
		case entity.TypeClient:
			if index < 0 || index >= len(d.Clients) {
				return fmt.Errorf("client row %d out of range", index)
			}
			d.Clients = append(d.Clients[:index], d.Clients[index+1:]...)
			m.Clients = true
		case entity.TypeWorker:
			if index < 0 || index >= len(d.Workers) {
				return fmt.Errorf("worker row %d out of range", index)
			}
			d.Workers = append(d.Workers[:index], d.Workers[index+1:]...)
			m.Workers = true
		case entity.TypeTask:
			if index < 0 || index >= len(d.Tasks) {
				return fmt.Errorf("task row %d out of range", index)
			}
			d.Tasks = append(d.Tasks[:index], d.Tasks[index+1:]...)
			m.Tasks = true
		default:
			return fmt.Errorf("unknown entity type %q", t)
		}
		return nil
	})
}

// PublishDataset installs an externally produced dataset, e.g. the result of
// an applied fix. Every collection counts as modified.
func (s *Service) PublishDataset(d entity.Dataset) Snapshot {
	snap, _ := s.mutate(func(cur *entity.Dataset, m *Modified) error {
		*cur = d.Clone()
		m.Clients = true
		m.Workers = true
		m.Tasks = true
		return nil
	})
	return snap
}

func (s *Service) SetRules(set rules.Set) Snapshot {
	snap, _ := s.mutate(func(_ *entity.Dataset, _ *Modified) error {
		s.rules = set.Clone()
		return nil
	})
	return snap
}

func (s *Service) mutate(fn func(*entity.Dataset, *Modified) error) (Snapshot, error) {
	if s == nil {
		return Snapshot{}, fmt.Errorf("service is nil")
	}
	s.mu.Lock()
	next := s.dataset.Clone()
	mod := s.modified
	if err := fn(&next, &mod); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	s.dataset = next
	s.modified = mod
	s.version++
	snap := Snapshot{
		Dataset:  next.Clone(),
		Rules:    s.rules.Clone(),
		Version:  s.version,
		Modified: mod,
	}
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.persist(snap)
	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}

func (s *Service) persist(snap Snapshot) {
	if s.store == nil {
		return
	}
	s.store.Put(datasetstore.Workspace{
		ID:        defaultWorkspaceID,
		Name:      "Workspace",
		Dataset:   snap.Dataset,
		Rules:     snap.Rules,
		UpdatedAt: time.Now(),
	})
}
