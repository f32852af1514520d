// Package client provides a transport-agnostic interface for the flag
// service, with HTTP/JSON, gRPC and in-process implementations.
package client

import (
	"context"

	"github.com/alfredjeanlab/flags/internal/flags"
)

// FlagsClient is the interface every kf command talks through. Errors match
// the registry sentinels (registry.ErrUnavailable and so on) regardless of
// transport.
type FlagsClient interface {
	IsEnabled(ctx context.Context, name string) (bool, error)
	EnableFlag(ctx context.Context, name, description string) (bool, error)
	DisableFlag(ctx context.Context, name, reason string) (bool, error)
	ListFlags(ctx context.Context) (map[string]bool, error)
	// GetFlagDetails returns nil, nil when the flag does not exist.
	GetFlagDetails(ctx context.Context, name string) (*flags.Details, error)

	// ListDetails returns every record sorted by name.
	ListDetails(ctx context.Context) ([]*flags.Details, error)
	DeleteFlag(ctx context.Context, name string) (bool, error)

	// Health returns the server's health status string ("ok" when the
	// store answers).
	Health(ctx context.Context) (string, error)

	Close() error
}
