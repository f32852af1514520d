package client

import (
	"context"
	"io"

	flagsv1 "github.com/alfredjeanlab/flags/api/flags/v1"
	"github.com/alfredjeanlab/flags/internal/flags"
)

// LocalClient implements FlagsClient in-process on a flags.Service, for
// running kf directly against a store without a server.
type LocalClient struct {
	svc    *flags.Service
	closer io.Closer
}

var _ FlagsClient = (*LocalClient)(nil)

// NewLocalClient wraps svc. closer (usually the store) is closed by Close and
// may be nil.
func NewLocalClient(svc *flags.Service, closer io.Closer) *LocalClient {
	return &LocalClient{svc: svc, closer: closer}
}

func (c *LocalClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func (c *LocalClient) IsEnabled(ctx context.Context, name string) (bool, error) {
	return c.svc.IsEnabled(ctx, name)
}

func (c *LocalClient) EnableFlag(ctx context.Context, name, description string) (bool, error) {
	return c.svc.EnableFlag(ctx, name, description)
}

func (c *LocalClient) DisableFlag(ctx context.Context, name, reason string) (bool, error) {
	return c.svc.DisableFlag(ctx, name, reason)
}

func (c *LocalClient) ListFlags(ctx context.Context) (map[string]bool, error) {
	return c.svc.ListFlags(ctx)
}

func (c *LocalClient) ListDetails(ctx context.Context) ([]*flags.Details, error) {
	return c.svc.ListDetails(ctx)
}

func (c *LocalClient) GetFlagDetails(ctx context.Context, name string) (*flags.Details, error) {
	return c.svc.GetFlagDetails(ctx, name)
}

func (c *LocalClient) DeleteFlag(ctx context.Context, name string) (bool, error) {
	return c.svc.DeleteFlag(ctx, name)
}

func (c *LocalClient) Health(ctx context.Context) (string, error) {
	if err := c.svc.Health(ctx); err != nil {
		return flagsv1.StatusUnavailable, nil
	}
	return flagsv1.StatusOK, nil
}
