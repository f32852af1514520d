package registry

import (
	"errors"
	"fmt"

	"github.com/alfredjeanlab/flags/internal/model"
	"github.com/alfredjeanlab/flags/internal/store"
)

// Sentinel errors. Callers match them with errors.Is; an absent flag is not
// an error and is reported through the ok result instead.
var (
	// ErrInvalidArgument reports an empty or malformed flag name.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable reports that the store could not be reached or timed
	// out. It is the same value as store.ErrUnavailable, so backend errors
	// match it directly.
	ErrUnavailable = store.ErrUnavailable

	// ErrVerificationFailed reports a write that was accepted but not
	// reflected by the read that followed it.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrNotSupported reports an administrative action the store cannot do.
	ErrNotSupported = store.ErrNotSupported
)

func invalidArgument(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
}

// storeError maps any error returned by the store to the registry taxonomy.
// Validation failures stay InvalidArgument; everything else is an
// infrastructure failure and must not read as "disabled".
func storeError(op, name string, err error) error {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return invalidArgument(err)
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrNotSupported):
		return fmt.Errorf("%s %s: %w", op, name, err)
	default:
		return fmt.Errorf("%s %s: %w: %w", op, name, ErrUnavailable, err)
	}
}
