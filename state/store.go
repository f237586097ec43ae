package state

import (
	"sync"

	"github.com/pithecene-io/corpus/types"
)

// Store holds the cumulative UIState of one client.
//
// There is one writer, the session loop. Readers take snapshots or
// subscribe; a subscriber that falls behind only ever misses
// intermediate states, never the latest one.
type Store struct {
	mu     sync.Mutex
	state  types.UIState
	subs   map[int]chan types.UIState
	nextID int
}

// NewStore creates a store in the idle state.
func NewStore() *Store {
	return &Store{
		state: types.NewUIState(),
		subs:  make(map[int]chan types.UIState),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() types.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a subscriber. The current state is delivered
// immediately. buffer below 1 is treated as 1. The returned cancel
// closes the channel and is safe to call more than once.
func (s *Store) Subscribe(buffer int) (<-chan types.UIState, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan types.UIState, buffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Apply reduces msg into the current state and returns the result.
func (s *Store) Apply(msg types.Message) types.UIState {
	return s.update(func(st types.UIState) types.UIState {
		return Reduce(st, msg)
	})
}

// Begin marks a new session live. Status and progress restart from
// idle; the transcript is kept so history spans sessions.
func (s *Store) Begin(sessionID string) types.UIState {
	return s.update(func(st types.UIState) types.UIState {
		st.Live = true
		st.Status = types.StatusIdle
		st.Progress = 0
		st.LocalError = ""
		st.SessionID = sessionID
		return st
	})
}

// Finalize applies end-of-body completion. See the package function.
func (s *Store) Finalize() types.UIState {
	return s.update(Finalize)
}

// End clears the live flag.
func (s *Store) End() types.UIState {
	return s.update(func(st types.UIState) types.UIState {
		st.Live = false
		return st
	})
}

// SetLocalError records a client-side failure that never reached the
// service.
func (s *Store) SetLocalError(msg string) types.UIState {
	return s.update(func(st types.UIState) types.UIState {
		st.LocalError = msg
		return st
	})
}

func (s *Store) update(fn func(types.UIState) types.UIState) types.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = fn(s.state)
	for _, ch := range s.subs {
		publish(ch, s.state)
	}
	return s.state
}

// publish delivers st without blocking, evicting the oldest queued
// state when the channel is full. Callers hold the store lock, so
// this goroutine is the only sender.
func publish(ch chan types.UIState, st types.UIState) {
	for {
		select {
		case ch <- st:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
