package client

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alfredjeanlab/flags/internal/registry"
)

// APIError represents an error response from the HTTP API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the response code back to the registry sentinel.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "invalid_argument":
		return registry.ErrInvalidArgument
	case "unavailable":
		return registry.ErrUnavailable
	case "verification_failed":
		return registry.ErrVerificationFailed
	case "not_supported":
		return registry.ErrNotSupported
	}
	return nil
}

// fromStatus maps a gRPC status error back to the registry sentinels.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.InvalidArgument:
		sentinel = registry.ErrInvalidArgument
	case codes.Unavailable, codes.DeadlineExceeded:
		sentinel = registry.ErrUnavailable
	case codes.Aborted:
		sentinel = registry.ErrVerificationFailed
	case codes.Unimplemented:
		sentinel = registry.ErrNotSupported
	default:
		return err
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
