// Package memory implements store.Store in process memory. It backs tests and
// the "memory" store mode, and can inject failures and stale reads.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/alfredjeanlab/flags/internal/model"
	"github.com/alfredjeanlab/flags/internal/store"
)

// errInjected is the cause reported for injected outages.
var errInjected = errors.New("injected outage")

// Store is an in-memory store.Store.
type Store struct {
	mu    sync.RWMutex
	flags map[string]*model.Flag

	down       bool
	failPuts   int
	failGets   int
	staleReads int
	puts       int
}

// Compile-time checks.
var (
	_ store.Store   = (*Store)(nil)
	_ store.Deleter = (*Store)(nil)
	_ store.Pinger  = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{flags: make(map[string]*model.Flag)}
}

// SetUnavailable makes every operation fail with store.ErrUnavailable until
// it is called again with false.
func (s *Store) SetUnavailable(down bool) {
	s.mu.Lock()
	s.down = down
	s.mu.Unlock()
}

// FailNextPuts makes the next n Put calls fail without writing.
func (s *Store) FailNextPuts(n int) {
	s.mu.Lock()
	s.failPuts = n
	s.mu.Unlock()
}

// FailNextGets makes the next n Get calls fail.
func (s *Store) FailNextGets(n int) {
	s.mu.Lock()
	s.failGets = n
	s.mu.Unlock()
}

// StaleReads makes the next n Get calls of an existing record report its
// gate flipped, the way a replica that missed the latest write would.
func (s *Store) StaleReads(n int) {
	s.mu.Lock()
	s.staleReads = n
	s.mu.Unlock()
}

// Puts returns how many successful writes the store has accepted.
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

func (s *Store) Get(_ context.Context, name string) (*model.Flag, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, false, store.Unavailable("get flag", errInjected)
	}
	if s.failGets > 0 {
		s.failGets--
		return nil, false, store.Unavailable("get flag", errInjected)
	}
	f, ok := s.flags[name]
	if !ok {
		return nil, false, nil
	}
	if s.staleReads > 0 {
		s.staleReads--
		return staleView(f), true, nil
	}
	return f.Clone(), true, nil
}

// staleView returns what a lagging replica would report for f: the same
// record with the gate flipped back.
func staleView(f *model.Flag) *model.Flag {
	prev := f.Clone()
	prev.Enabled = !f.Enabled
	return prev
}

func (s *Store) Put(_ context.Context, flag *model.Flag) error {
	if err := model.ValidateFlag(flag); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return store.Unavailable("put flag", errInjected)
	}
	if s.failPuts > 0 {
		s.failPuts--
		return store.Unavailable("put flag", errInjected)
	}
	if cur, ok := s.flags[flag.Name]; ok && cur.UpdatedAt.After(flag.UpdatedAt) {
		// A newer write already landed; keep it.
		return nil
	}
	s.flags[flag.Name] = flag.Clone()
	s.puts++
	return nil
}

func (s *Store) List(_ context.Context) ([]*model.Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, store.Unavailable("list flags", errInjected)
	}
	out := make([]*model.Flag, 0, len(s.flags))
	for _, f := range s.flags {
		out = append(out, f.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return false, store.Unavailable("delete flag", errInjected)
	}
	if _, ok := s.flags[name]; !ok {
		return false, nil
	}
	delete(s.flags, name)
	return true, nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return store.Unavailable("ping", errInjected)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
