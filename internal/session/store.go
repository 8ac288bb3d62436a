package session

import (
	"context"
	"fmt"
	"sync"
)

// UserFetcher obtains the authoritative user record from the backend.
// A nil record with a nil error means the server reported no session.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (*UserRecord, error)
}

// Store is the single writer over session State. All mutation goes
// through Dispatch; subscribers observe every transition in order.
type Store struct {
	mu     sync.Mutex
	state  State
	nextID int
	subs   map[int]func(State)
}

// NewStore returns a Store in the initial "unknown" state: a load is
// considered outstanding until the first refresh settles.
func NewStore() *Store {
	return &Store{
		state: State{Loading: true},
		subs:  make(map[int]func(State)),
	}
}

// State returns the current session state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies an action through the reducer and notifies
// subscribers with the resulting state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	notify := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		notify = append(notify, fn)
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn(next)
	}
	return next
}

// Subscribe registers a callback invoked after every dispatch. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Refresh re-syncs the session from the server: dispatch loading, fetch
// the user record, then settle with login, logout or interrupt.
//
// Refresh is idempotent and safe to call concurrently; each call
// fetches authoritative server state, so overlapping calls resolving
// out of order degrade to last-write-wins. A response arriving after
// the context is cancelled dispatches nothing, so an abandoned call
// cannot overwrite newer state.
func (s *Store) Refresh(ctx context.Context, fetcher UserFetcher) error {
	s.Dispatch(Action{Type: ActionLoading})

	info, err := fetcher.CurrentUser(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.Dispatch(Action{Type: ActionInterrupt})
		return fmt.Errorf("refresh session: %w", err)
	}

	if info == nil {
		s.Dispatch(Action{Type: ActionLogout})
		return nil
	}

	s.Dispatch(Action{Type: ActionLogin, Info: info})
	return nil
}
