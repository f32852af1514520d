// Package natskv implements store.Store on a NATS JetStream key-value bucket.
// Each flag is one key holding its JSON-encoded record.
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/alfredjeanlab/flags/internal/model"
	"github.com/alfredjeanlab/flags/internal/store"
)

// DefaultBucket is the bucket used when none is configured.
const DefaultBucket = "feature_flags"

// maxPutAttempts bounds the revision-conflict retry loop in Put.
const maxPutAttempts = 16

// KVStore implements store.Store using a JetStream KV bucket.
type KVStore struct {
	nc *nats.Conn
	kv jetstream.KeyValue
}

// Compile-time checks.
var (
	_ store.Store   = (*KVStore)(nil)
	_ store.Deleter = (*KVStore)(nil)
	_ store.Pinger  = (*KVStore)(nil)
)

// Open connects to the NATS server at url and creates the bucket if it does
// not exist yet. Extra nats.Option values are appended to the defaults.
func Open(ctx context.Context, url, bucket string, opts ...nats.Option) (*KVStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	defaults := []nats.Option{
		nats.Name("flags-kv"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, store.Unavailable("connect to NATS", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "feature flag records",
		History:     1,
	})
	if err != nil {
		nc.Close()
		return nil, classify(nc, "open bucket "+bucket, err)
	}

	return &KVStore{nc: nc, kv: kv}, nil
}

// Close closes the NATS connection.
func (s *KVStore) Close() error {
	s.nc.Close()
	return nil
}

// Get retrieves a single flag by name.
func (s *KVStore) Get(ctx context.Context, name string) (*model.Flag, bool, error) {
	entry, err := s.kv.Get(ctx, name)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(s.nc, "get flag", err)
	}
	f, err := decode(entry)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// Put stores value under its name. The write is conditional on the revision
// last read, so a concurrent writer forces a re-read rather than being
// overwritten blindly. A stored record with a newer UpdatedAt is kept.
func (s *KVStore) Put(ctx context.Context, value *model.Flag) error {
	if err := model.ValidateFlag(value); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal flag: %w", err)
	}

	for attempt := 0; attempt < maxPutAttempts; attempt++ {
		entry, err := s.kv.Get(ctx, value.Name)
		switch {
		case errors.Is(err, jetstream.ErrKeyNotFound):
			_, err = s.kv.Create(ctx, value.Name, data)
		case err != nil:
			return classify(s.nc, "put flag", err)
		default:
			current, derr := decode(entry)
			if derr == nil && current.UpdatedAt.After(value.UpdatedAt) {
				return nil
			}
			_, err = s.kv.Update(ctx, value.Name, data, entry.Revision())
		}
		if err == nil {
			return nil
		}
		if !isConflict(err) {
			return classify(s.nc, "put flag", err)
		}
	}
	return fmt.Errorf("put flag %s: too many concurrent writers", value.Name)
}

// List returns the latest value of every key, sorted by name. It lists the
// keys first and then reads each one, so the result is a copy of each
// record at the time it was read rather than one point-in-time snapshot of
// the bucket. A key deleted in between is left out.
func (s *KVStore) List(ctx context.Context) ([]*model.Flag, error) {
	lister, err := s.kv.ListKeys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return []*model.Flag{}, nil
	}
	if err != nil {
		return nil, classify(s.nc, "list flags", err)
	}
	// The channel closes once the initial keys are drained or ctx is done,
	// and the lister stops its own watcher then.
	var keys []string
	for k := range lister.Keys() {
		keys = append(keys, k)
	}
	if err := ctx.Err(); err != nil {
		return nil, store.Unavailable("list flags", err)
	}

	out := make([]*model.Flag, 0, len(keys))
	for _, k := range keys {
		entry, err := s.kv.Get(ctx, k)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			// deleted between listing and reading
			continue
		}
		if err != nil {
			return nil, classify(s.nc, "list flags", err)
		}
		f, err := decode(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a flag by name. The bucket keeps a delete marker.
func (s *KVStore) Delete(ctx context.Context, name string) (bool, error) {
	_, ok, err := s.Get(ctx, name)
	if err != nil || !ok {
		return false, err
	}
	if err := s.kv.Delete(ctx, name); err != nil {
		return false, classify(s.nc, "delete flag", err)
	}
	return true, nil
}

// Ping checks the connection and the bucket.
func (s *KVStore) Ping(ctx context.Context) error {
	if !s.nc.IsConnected() {
		return store.Unavailable("ping", nats.ErrConnectionClosed)
	}
	if _, err := s.kv.Status(ctx); err != nil {
		return classify(s.nc, "ping", err)
	}
	return nil
}

func decode(entry jetstream.KeyValueEntry) (*model.Flag, error) {
	var f model.Flag
	if err := json.Unmarshal(entry.Value(), &f); err != nil {
		return nil, fmt.Errorf("decode flag %s: %w", entry.Key(), err)
	}
	if f.Name == "" {
		f.Name = entry.Key()
	}
	f.UpdatedAt = f.UpdatedAt.UTC()
	return &f, nil
}

func isConflict(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

// classify marks connection loss and timeouts as store.ErrUnavailable.
func classify(nc *nats.Conn, op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrConnectionDraining),
		errors.Is(err, nats.ErrConnectionReconnecting),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrNoResponders),
		errors.Is(err, jetstream.ErrJetStreamNotEnabled):
		return store.Unavailable(op, err)
	}
	if nc != nil && !nc.IsConnected() {
		return store.Unavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
