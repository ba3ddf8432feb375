package params

import (
	"sync"

	"github.com/pkg/errors"
)

// Store holds the live parameter set. Readers take snapshots; writers go
// through Update, Replace or Reset and subscribers are told about each change.
type Store struct {
	mu      sync.RWMutex
	current Set
	subs    map[int]chan Set
	nextID  int
}

// NewStore creates a store holding initial, clamped.
//
// @example
// store := params.NewStore(params.Defaults())
// snapshot := store.Snapshot()
func NewStore(initial Set) *Store {
	return &Store{
		current: initial.Clamp(),
		subs:    make(map[int]chan Set),
	}
}

// Snapshot returns a copy of the current parameters.
func (s *Store) Snapshot() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies fn to a copy of the current set, clamps the result, stores
// it and returns it.
func (s *Store) Update(fn func(*Set)) Set {
	s.mu.Lock()
	next := s.current
	fn(&next)
	next = next.Clamp()
	s.current = next
	s.notifyLocked(next)
	s.mu.Unlock()
	return next
}

// Replace stores set, clamped, and returns what was stored.
func (s *Store) Replace(set Set) Set {
	return s.Update(func(p *Set) { *p = set })
}

// SetNamed assigns a single tunable by name.
func (s *Store) SetNamed(name string, value float64) (Set, error) {
	if _, ok := Lookup(name); !ok {
		return s.Snapshot(), errors.Wrapf(ErrUnknownParameter, "%q", name)
	}
	return s.Update(func(p *Set) { _ = p.SetNamed(name, value) }), nil
}

// Reset restores the defaults.
func (s *Store) Reset() Set {
	return s.Replace(Defaults())
}

// Subscribe returns a channel that receives the parameter set after every
// change, and a function that ends the subscription. Slow subscribers only
// see the latest value.
func (s *Store) Subscribe() (<-chan Set, func()) {
	ch := make(chan Set, 1)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) notifyLocked(set Set) {
	for _, ch := range s.subs {
		// Drop a stale pending value so the newest one always fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- set:
		default:
		}
	}
}
