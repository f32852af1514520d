// Package breaker decorates a store.Store with a circuit breaker so that a
// backend which keeps timing out fails fast instead of stalling every caller.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/alfredjeanlab/flags/internal/model"
	"github.com/alfredjeanlab/flags/internal/store"
)

// Settings configures the breaker.
type Settings struct {
	// Failures is the number of consecutive unavailability errors that open
	// the breaker. Zero disables wrapping.
	Failures uint32
	// Cooldown is how long the breaker stays open before a trial request.
	Cooldown time.Duration
	Logger   *slog.Logger
}

// Store wraps another store.Store.
type Store struct {
	inner store.Store
	cb    *gobreaker.CircuitBreaker
}

// Compile-time checks.
var (
	_ store.Store   = (*Store)(nil)
	_ store.Deleter = (*Store)(nil)
	_ store.Pinger  = (*Store)(nil)
)

// Wrap returns inner guarded by a breaker. With Failures == 0 inner is
// returned unchanged.
func Wrap(inner store.Store, st Settings) store.Store {
	if st.Failures == 0 {
		return inner
	}
	return New(inner, st)
}

// New always wraps inner.
func New(inner store.Store, st Settings) *Store {
	logger := st.Logger
	if logger == nil {
		logger = slog.Default()
	}
	failures := st.Failures
	if failures == 0 {
		failures = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "flag-store",
		MaxRequests: 1,
		Timeout:     st.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
		// Only infrastructure failures count; validation errors and the
		// like say nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || !store.IsUnavailable(err)
		},
	})
	return &Store{inner: inner, cb: cb}
}

// State reports the breaker state (closed, half-open or open).
func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

func (s *Store) Get(ctx context.Context, name string) (*model.Flag, bool, error) {
	type result struct {
		flag *model.Flag
		ok   bool
	}
	v, err := s.execute("get flag", func() (any, error) {
		f, ok, err := s.inner.Get(ctx, name)
		return result{f, ok}, err
	})
	if err != nil {
		return nil, false, err
	}
	r := v.(result)
	return r.flag, r.ok, nil
}

func (s *Store) Put(ctx context.Context, flag *model.Flag) error {
	_, err := s.execute("put flag", func() (any, error) {
		return nil, s.inner.Put(ctx, flag)
	})
	return err
}

func (s *Store) List(ctx context.Context) ([]*model.Flag, error) {
	v, err := s.execute("list flags", func() (any, error) {
		return s.inner.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*model.Flag), nil
}

func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	d, ok := s.inner.(store.Deleter)
	if !ok {
		return false, store.ErrNotSupported
	}
	v, err := s.execute("delete flag", func() (any, error) {
		return d.Delete(ctx, name)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Ping bypasses the breaker so health checks see the backend itself.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.inner.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Store) Close() error {
	return s.inner.Close()
}

func (s *Store) execute(op string, fn func() (any, error)) (any, error) {
	v, err := s.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, store.Unavailable(op, err)
	}
	return v, err
}
