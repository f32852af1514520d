// Package registry enforces the flag invariants on top of a store.Store and
// provides the read-after-write contract callers rely on: every enable or
// disable re-reads the record it wrote and reports ErrVerificationFailed if
// the store did not reflect it.
//
// A Registry holds no lock of its own. Concurrent writers to the same flag
// converge because each write is a single atomic store.Put of a complete
// record, and the store keeps the record with the latest UpdatedAt.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/alfredjeanlab/flags/internal/events"
	"github.com/alfredjeanlab/flags/internal/model"
	"github.com/alfredjeanlab/flags/internal/store"
)

// Outcome describes what a write call did.
type Outcome int

const (
	// OutcomeUpdated means an existing record was rewritten.
	OutcomeUpdated Outcome = iota
	// OutcomeCreated means the flag had no record before the call.
	OutcomeCreated
	// OutcomeUnchanged means the flag was already in the requested state
	// and nothing was written.
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "updated"
	}
}

// Result is returned by Enable and Disable.
type Result struct {
	// Flag is the record as verified after the write, or the stored record
	// when the outcome is OutcomeUnchanged.
	Flag    *model.Flag
	Outcome Outcome
}

// Message is the human-readable summary, e.g. "already enabled".
func (r *Result) Message() string {
	state := model.ActionFor(r.Flag.Enabled).String()
	switch r.Outcome {
	case OutcomeUnchanged:
		return "already " + state
	case OutcomeCreated:
		return "created " + state
	default:
		return state
	}
}

type cached struct {
	flag *model.Flag
	ok   bool
}

// Registry is the sole writer of flag records.
type Registry struct {
	store store.Store
	cache *expirable.LRU[string, cached]

	// gen counts invalidations per name. A read only fills the cache when
	// no write to the same name was invalidated while it was in flight.
	genMu sync.Mutex
	gen   map[string]uint64

	pub     events.Publisher
	logger  *slog.Logger
	now     func() time.Time
	timeout time.Duration
	actor   string
}

// Option configures a Registry.
type Option func(*Registry)

// WithCache puts a TTL-bounded LRU of at most size entries in front of reads.
// A zero ttl or size leaves the cache off.
func WithCache(size int, ttl time.Duration) Option {
	return func(r *Registry) {
		if size > 0 && ttl > 0 {
			r.cache = expirable.NewLRU[string, cached](size, nil, ttl)
			r.gen = make(map[string]uint64)
		}
	}
}

// WithPublisher sets where change events are sent after a write lands.
func WithPublisher(p events.Publisher) Option {
	return func(r *Registry) {
		if p != nil {
			r.pub = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithTimeout bounds every store call. A store call that exceeds it fails
// with ErrUnavailable.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithActor names the writer in published change events.
func WithActor(actor string) Option {
	return func(r *Registry) { r.actor = actor }
}

// New returns a Registry backed by s.
func New(s store.Store, opts ...Option) *Registry {
	r := &Registry{
		store:  s,
		pub:    &events.NoopPublisher{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsEnabled reports whether name is enabled. An unknown flag is disabled.
func (r *Registry) IsEnabled(ctx context.Context, name string) (bool, error) {
	f, ok, err := r.Get(ctx, name)
	if err != nil {
		return false, err
	}
	return ok && f.Enabled, nil
}

// Get returns the record for name, or ok == false when there is none.
func (r *Registry) Get(ctx context.Context, name string) (*model.Flag, bool, error) {
	if err := model.ValidateName(name); err != nil {
		return nil, false, invalidArgument(err)
	}
	if r.cache == nil {
		return r.read(ctx, name)
	}
	if c, hit := r.cache.Get(name); hit {
		return c.flag.Clone(), c.ok, nil
	}

	gen := r.generation(name)
	f, ok, err := r.read(ctx, name)
	if err != nil {
		return nil, false, err
	}
	r.fill(name, gen, cached{flag: f.Clone(), ok: ok})
	return f, ok, nil
}

// List maps every known flag to its state.
func (r *Registry) List(ctx context.Context) (map[string]bool, error) {
	records, err := r.Records(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(records))
	for _, f := range records {
		out[f.Name] = f.Enabled
	}
	return out, nil
}

// Records returns a snapshot of every record sorted by name. It never uses
// the cache.
func (r *Registry) Records(ctx context.Context) ([]*model.Flag, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	records, err := r.store.List(ctx)
	if err != nil {
		return nil, storeError("list", "flags", err)
	}
	return records, nil
}

// Enable turns name on. An empty description keeps the previous one. When the
// flag is already on and the description would not change, nothing is
// written and the outcome is OutcomeUnchanged.
func (r *Registry) Enable(ctx context.Context, name, description string) (*Result, error) {
	return r.set(ctx, name, true, description)
}

// Disable turns name off. A non-empty reason replaces the description.
// Disabling an unknown flag creates a disabled record.
func (r *Registry) Disable(ctx context.Context, name, reason string) (*Result, error) {
	return r.set(ctx, name, false, reason)
}

func (r *Registry) set(ctx context.Context, name string, enabled bool, description string) (*Result, error) {
	op := model.ActionFor(enabled).String()
	if err := model.ValidateName(name); err != nil {
		return nil, invalidArgument(err)
	}

	// The current record always comes from the store; a stale cache entry
	// must not turn a real write into a no-op.
	prev, exists, err := r.read(ctx, name)
	if err != nil {
		return nil, err
	}

	if exists && prev.Enabled == enabled && (description == "" || description == prev.Description) {
		r.logger.Debug("flag unchanged", "flag", name, "enabled", enabled)
		return &Result{Flag: prev, Outcome: OutcomeUnchanged}, nil
	}

	next := &model.Flag{
		Name:        name,
		Enabled:     enabled,
		Description: description,
		UpdatedAt:   r.stamp(prev),
	}
	if next.Description == "" && exists {
		next.Description = prev.Description
	}

	err = r.put(ctx, next)
	// The write may have landed even when it reports an error, so the cached
	// entry goes either way.
	r.invalidate(name)
	if err != nil {
		r.logger.Error("flag write failed", "flag", name, "op", op, "err", err)
		return nil, err
	}

	got, err := r.verify(ctx, next)
	if err != nil {
		r.logger.Warn("flag write not reflected on read-back", "flag", name, "op", op, "err", err)
		return nil, err
	}

	outcome := OutcomeUpdated
	if !exists {
		outcome = OutcomeCreated
	}
	r.logger.Info("flag "+op, "flag", name, "outcome", outcome.String())
	r.publish(ctx, model.ActionFor(enabled), got)
	return &Result{Flag: got, Outcome: outcome}, nil
}

// Delete removes name. It reports false when there was no record, and
// ErrNotSupported when the store cannot delete.
func (r *Registry) Delete(ctx context.Context, name string) (bool, error) {
	if err := model.ValidateName(name); err != nil {
		return false, invalidArgument(err)
	}
	d, ok := r.store.(store.Deleter)
	if !ok {
		return false, ErrNotSupported
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	deleted, err := d.Delete(ctx, name)
	r.invalidate(name)
	if err != nil {
		return false, storeError("delete", name, err)
	}
	if deleted {
		r.logger.Info("flag deleted", "flag", name)
		r.publish(ctx, model.ActionDeleted, &model.Flag{Name: name, UpdatedAt: r.now().UTC()})
	}
	return deleted, nil
}

// Ping checks store health when the backend supports it.
func (r *Registry) Ping(ctx context.Context) error {
	p, ok := r.store.(store.Pinger)
	if !ok {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return storeError("ping", "store", err)
	}
	return nil
}

// stamp returns the UpdatedAt for a write following prev. Timestamps are cut
// to microseconds, the coarsest precision of any backend, and never go
// backwards relative to the stored record.
func (r *Registry) stamp(prev *model.Flag) time.Time {
	ts := r.now().UTC().Truncate(time.Microsecond)
	if prev != nil && !ts.After(prev.UpdatedAt) {
		ts = prev.UpdatedAt.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return ts
}

// verify re-reads want from the store, bypassing the cache.
func (r *Registry) verify(ctx context.Context, want *model.Flag) (*model.Flag, error) {
	got, ok, err := r.read(ctx, want.Name)
	switch {
	case err != nil:
		return nil, fmt.Errorf("%w: read back %s: %w", ErrVerificationFailed, want.Name, err)
	case !ok:
		return nil, fmt.Errorf("%w: %s not found after write", ErrVerificationFailed, want.Name)
	case got.Enabled != want.Enabled:
		return nil, fmt.Errorf("%w: %s reads enabled=%t after writing enabled=%t",
			ErrVerificationFailed, want.Name, got.Enabled, want.Enabled)
	}
	return got, nil
}

func (r *Registry) read(ctx context.Context, name string) (*model.Flag, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	f, ok, err := r.store.Get(ctx, name)
	if err != nil {
		return nil, false, storeError("get", name, err)
	}
	return f, ok, nil
}

func (r *Registry) put(ctx context.Context, f *model.Flag) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.store.Put(ctx, f); err != nil {
		return storeError("put", f.Name, err)
	}
	return nil
}

func (r *Registry) generation(name string) uint64 {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	return r.gen[name]
}

// fill caches c unless name was invalidated since gen was taken.
func (r *Registry) fill(name string, gen uint64, c cached) {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	if r.gen[name] == gen {
		r.cache.Add(name, c)
	}
}

func (r *Registry) invalidate(name string) {
	if r.cache == nil {
		return
	}
	r.genMu.Lock()
	r.gen[name]++
	r.cache.Remove(name)
	r.genMu.Unlock()
}

// publish sends a change event. Failures are logged and otherwise ignored.
func (r *Registry) publish(ctx context.Context, action model.Action, f *model.Flag) {
	ev, err := events.NewFlagChanged(action, f, r.actor, r.now())
	if err == nil {
		err = r.pub.Publish(ctx, events.TopicFor(action), ev)
	}
	if err != nil {
		r.logger.Warn("publish flag event", "flag", f.Name, "action", action, "err", err)
	}
}

func (r *Registry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}
