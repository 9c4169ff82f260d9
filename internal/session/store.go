package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

var (
	// ErrNotFound is returned for unknown session IDs.
	ErrNotFound = errors.New("session not found")
	// ErrStoreFull is returned by Create when the store is at capacity.
	ErrStoreFull = errors.New("session store full")
)

// Summary describes a session without its text and tokens.
type Summary struct {
	ID           string    `json:"id" cbor:"id"`
	SourceURL    string    `json:"sourceUrl" cbor:"sourceUrl"`
	CreatedAt    time.Time `json:"createdAt" cbor:"createdAt"`
	CurrentIndex int       `json:"currentIndex" cbor:"currentIndex"`
	Total        int       `json:"total" cbor:"total"`
	WPM          float64   `json:"wpm" cbor:"wpm"`
	State        State     `json:"state" cbor:"state"`
}

// Store is an in-memory registry of live sessions. Sessions live from Create
// until Clear or until an exit event closes them through Update.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
}

// NewStore returns an empty store holding at most max sessions.
// max <= 0 means unbounded.
func NewStore(max int) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		max:      max,
	}
}

// Create starts a new session for raw and registers it.
func (st *Store) Create(raw string, opts Options) (*Session, error) {
	s, err := New(raw, opts)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.max > 0 && len(st.sessions) >= st.max {
		return nil, fmt.Errorf("%w (%d sessions)", ErrStoreFull, st.max)
	}
	st.sessions[s.id] = s
	return s, nil
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Update applies ev to the session with the given ID. A session closed by
// the event is removed from the store.
func (st *Store) Update(id string, ev Event) (Snapshot, error) {
	s, err := st.Get(id)
	if err != nil {
		return Snapshot{}, err
	}

	snap, err := s.Apply(ev)
	if snap.Closed {
		st.remove(id)
	}
	return snap, err
}

// Clear removes the session with the given ID.
func (st *Store) Clear(id string) error {
	if !st.remove(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (st *Store) remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// List returns summaries of all sessions, oldest first.
func (st *Store) List() []Summary {
	st.mu.RLock()
	sessions := lo.Values(st.sessions)
	st.mu.RUnlock()

	out := lo.Map(sessions, func(s *Session, _ int) Summary {
		snap := s.Snapshot()
		return Summary{
			ID:           snap.ID,
			SourceURL:    snap.SourceURL,
			CreatedAt:    snap.CreatedAt,
			CurrentIndex: snap.CurrentIndex,
			Total:        len(snap.Tokens),
			WPM:          snap.WPM,
			State:        snap.State,
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
