package server

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alfredjeanlab/flags/internal/registry"
)

// Error codes carried in HTTP error bodies.
const (
	CodeInvalidArgument    = "invalid_argument"
	CodeUnavailable        = "unavailable"
	CodeVerificationFailed = "verification_failed"
	CodeNotSupported       = "not_supported"
	CodeNotFound           = "not_found"
	CodeUnauthenticated    = "unauthenticated"
	CodeInternal           = "internal"
)

// classify maps a registry error to its gRPC code, HTTP status and body code.
// Verification is checked first: it is the more specific condition.
func classify(err error) (codes.Code, int, string) {
	switch {
	case errors.Is(err, registry.ErrInvalidArgument):
		return codes.InvalidArgument, http.StatusBadRequest, CodeInvalidArgument
	case errors.Is(err, registry.ErrVerificationFailed):
		return codes.Aborted, http.StatusConflict, CodeVerificationFailed
	case errors.Is(err, registry.ErrNotSupported):
		return codes.Unimplemented, http.StatusNotImplemented, CodeNotSupported
	case errors.Is(err, registry.ErrUnavailable):
		return codes.Unavailable, http.StatusServiceUnavailable, CodeUnavailable
	default:
		return codes.Internal, http.StatusInternalServerError, CodeInternal
	}
}

func toStatus(err error) error {
	code, _, _ := classify(err)
	return status.Error(code, err.Error())
}
