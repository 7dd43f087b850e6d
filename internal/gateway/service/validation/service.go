package validation

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"alloclab/internal/gateway/metrics"
	"alloclab/internal/gateway/service/dataset"
	"alloclab/internal/validate"
)

const (
	// Debounce window for edit bursts. A cell edit storm produces one run.
	DefaultDebounce = 300 * time.Millisecond

	summaryCacheSize = 64
	subscriberBuffer = 8
)

// Event is one completed validation run, keyed by the dataset version it was
// computed against.
type Event struct {
	Version int64             `json:"version"`
	Summary *validate.Summary `json:"summary"`
}

// Service recomputes the validation summary when the dataset changes.
// Runs are keyed by dataset version; a run that finishes after a newer
// version has been published is dropped, never surfaced.
type Service struct {
	ds       *dataset.Service
	opts     validate.Options
	debounce time.Duration

	mu            sync.Mutex
	timer         *time.Timer
	latestVersion int64
	latest        *Event
	cache         *lru.Cache[int64, *validate.Summary]
	subs          map[int64]chan Event
	nextSub       int64
}

func New(ds *dataset.Service, opts validate.Options, debounce time.Duration) *Service {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	cache, _ := lru.New[int64, *validate.Summary](summaryCacheSize)
	s := &Service{
		ds:       ds,
		opts:     opts,
		debounce: debounce,
		cache:    cache,
		subs:     make(map[int64]chan Event),
	}
	ds.Subscribe(s.onSnapshot)
	return s
}

func (s *Service) onSnapshot(snap dataset.Snapshot) {
	s.mu.Lock()
	s.latestVersion = snap.Version
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(snap)
	})
	s.mu.Unlock()
}

// ValidateNow runs synchronously against the current snapshot and returns
// the summary. Explicit validate requests bypass the debounce.
func (s *Service) ValidateNow() Event {
	snap := s.ds.Snapshot()
	s.mu.Lock()
	if snap.Version > s.latestVersion {
		s.latestVersion = snap.Version
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.run(snap)
}

// Latest returns the most recently published run, if any.
func (s *Service) Latest() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Event{}, false
	}
	return *s.latest, true
}

// Subscribe delivers every published run until ctx is done. Slow consumers
// lose the oldest buffered event, never the newest.
func (s *Service) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	latest := s.latest
	s.mu.Unlock()

	if latest != nil {
		pushEvent(ch, *latest)
	}

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}()
	return ch
}

// Summarize computes the summary for the given snapshot, or returns the
// cached one for that version. Unlike ValidateNow it never publishes a run,
// so callers that pair errors with the snapshot's own data stay consistent.
func (s *Service) Summarize(snap dataset.Snapshot) *validate.Summary {
	if summary, ok := s.cache.Get(snap.Version); ok {
		return summary
	}
	start := time.Now()
	computed := validate.AllWithRules(
		snap.Dataset.Clients,
		snap.Dataset.Workers,
		snap.Dataset.Tasks,
		snap.Rules,
		s.opts,
	)
	metrics.ObserveValidation(time.Since(start), computed.IsValid())
	summary := &computed
	s.cache.Add(snap.Version, summary)
	return summary
}

func (s *Service) run(snap dataset.Snapshot) Event {
	evt := Event{Version: snap.Version, Summary: s.Summarize(snap)}

	s.mu.Lock()
	if snap.Version < s.latestVersion {
		s.mu.Unlock()
		metrics.StaleRunDropped()
		return evt
	}
	s.latest = &evt
	subs := make([]chan Event, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		pushEvent(ch, evt)
	}
	return evt
}

func pushEvent(ch chan Event, evt Event) {
	select {
	case ch <- evt:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- evt:
	default:
	}
}
