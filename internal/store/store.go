// Package store defines the persistence contract for flag records.
package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/flags/internal/model"
)

// ErrUnavailable marks a backend that could not be reached or timed out.
// Backends wrap their transport errors with it so callers can tell an
// infrastructure failure apart from an absent record.
var ErrUnavailable = errors.New("store unavailable")

// ErrNotSupported is returned by decorators when the wrapped backend lacks an
// optional capability such as Deleter.
var ErrNotSupported = errors.New("operation not supported by store")

// Store defines the persistence interface for flag records.
type Store interface {
	// Get returns the record for name. A missing record is not an error:
	// it returns (nil, false, nil).
	Get(ctx context.Context, name string) (*model.Flag, bool, error)

	// Put upserts the record. Readers never observe a half-written record.
	Put(ctx context.Context, flag *model.Flag) error

	// List returns a snapshot of every record sorted by name. The returned
	// records are copies; concurrent writes do not affect them.
	List(ctx context.Context) ([]*model.Flag, error)

	// Close releases the backend connection.
	Close() error
}

// Deleter is implemented by backends that support administrative removal.
// Delete returns (false, nil) when no record existed.
type Deleter interface {
	Delete(ctx context.Context, name string) (bool, error)
}

// Pinger is implemented by backends that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds while the
// original cause stays reachable through errors.Unwrap chains.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &unavailableError{op: op, err: err}
}

// IsUnavailable reports whether err is (or wraps) ErrUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

type unavailableError struct {
	op  string
	err error
}

func (e *unavailableError) Error() string {
	return e.op + ": " + ErrUnavailable.Error() + ": " + e.err.Error()
}

func (e *unavailableError) Unwrap() []error { return []error{ErrUnavailable, e.err} }
