package store

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"mealhub/internal/metrics"
	"mealhub/pkg/models"
)

// Source names the fetch sequence that produced a snapshot.
type Source string

const (
	SourceCatalog Source = "catalog" // full, deduplicated aggregation
	SourceGallery Source = "gallery" // filtered concatenation
)

// Snapshot is one published collection. It is never modified after
// publication; Store hands out copies of the slice.
type Snapshot struct {
	Generation string        `json:"generation,omitempty"`
	Source     Source        `json:"source,omitempty"`
	Meals      []models.Meal `json:"meals"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (s Snapshot) Empty() bool {
	return len(s.Meals) == 0
}

// IndexOf returns the position of id in iteration order, or -1.
func (s Snapshot) IndexOf(id string) int {
	return slices.IndexFunc(s.Meals, func(m models.Meal) bool { return m.ID == id })
}

func (s Snapshot) Find(id string) (models.Meal, bool) {
	if i := s.IndexOf(id); i >= 0 {
		return s.Meals[i], true
	}
	return models.Meal{}, false
}

// Listener is called after every replace with the new snapshot.
type Listener func(Snapshot)

type subscription struct {
	id int
	fn Listener
}

// Store is the shared record cache: a single cell holding the current
// snapshot, replaced only as a whole.
type Store struct {
	mu     sync.RWMutex
	snap   Snapshot
	nextID int
	subs   []subscription
}

func New() *Store {
	return &Store{}
}

// Snapshot returns the current collection. The Meals slice is a copy.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.snap
	out.Meals = slices.Clone(s.snap.Meals)
	return out
}

func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Empty()
}

// Generation returns the id of the current snapshot ("" before the first
// publication).
func (s *Store) Generation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Generation
}

// Replace swaps in meals as the new collection and notifies subscribers.
func (s *Store) Replace(source Source, meals []models.Meal) Snapshot {
	s.mu.Lock()
	snap := s.swapLocked(source, meals)
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	notify(subs, snap)
	return snap
}

// PublishIfEmpty replaces the collection only when the cache is still
// empty. The bool reports whether it published.
func (s *Store) PublishIfEmpty(source Source, meals []models.Meal) (Snapshot, bool) {
	s.mu.Lock()
	if !s.snap.Empty() {
		cur := s.snap
		cur.Meals = slices.Clone(s.snap.Meals)
		s.mu.Unlock()
		return cur, false
	}
	snap := s.swapLocked(source, meals)
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	notify(subs, snap)
	return snap, true
}

// Subscribe registers fn for replace notifications and returns a func that
// removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool { return sub.id == id })
	}
}

func (s *Store) swapLocked(source Source, meals []models.Meal) Snapshot {
	s.snap = Snapshot{
		Generation: uuid.NewString(),
		Source:     source,
		Meals:      slices.Clone(meals),
		UpdatedAt:  time.Now(),
	}
	metrics.SetCachedMeals(len(s.snap.Meals))

	out := s.snap
	out.Meals = slices.Clone(s.snap.Meals)
	return out
}

func notify(subs []subscription, snap Snapshot) {
	for _, sub := range subs {
		sub.fn(snap)
	}
}
