package client

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/alfredjeanlab/flags/internal/flags"
	"github.com/alfredjeanlab/flags/internal/registry"
	"github.com/alfredjeanlab/flags/internal/server"
	"github.com/alfredjeanlab/flags/internal/store/memory"
)

// newTestService builds a façade over a fresh memory store.
func newTestService(t *testing.T) (*flags.Service, *memory.Store) {
	t.Helper()
	mem := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return flags.New(registry.New(mem, registry.WithLogger(logger)), logger), mem
}

// startServer serves a FlagServer over bufconn and returns a connected client.
func startServer(t *testing.T, token, clientToken string) (*GRPCClient, *memory.Store) {
	t.Helper()
	svc, mem := newTestService(t)
	fs := server.NewFlagServer(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	lis := bufconn.Listen(1 << 20)
	gs := fs.NewGRPCServer(token)
	go gs.Serve(lis) //nolint:errcheck
	t.Cleanup(gs.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet", clientToken,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mem
}

func TestGRPCClient_RoundTrip(t *testing.T) {
	c, _ := startServer(t, "secret", "secret")
	ctx := context.Background()

	on, err := c.IsEnabled(ctx, "agent_triggers")
	require.NoError(t, err)
	assert.False(t, on)

	d, err := c.GetFlagDetails(ctx, "agent_triggers")
	require.NoError(t, err)
	assert.Nil(t, d)

	ok, err := c.EnableFlag(ctx, "agent_triggers", "Enable agent triggers functionality")
	require.NoError(t, err)
	assert.True(t, ok)

	d, err = c.GetFlagDetails(ctx, "agent_triggers")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Enable agent triggers functionality", d.Description)

	ok, err = c.DisableFlag(ctx, "agent_triggers", "")
	require.NoError(t, err)
	assert.True(t, ok)

	m, err := c.ListFlags(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"agent_triggers": false}, m)

	list, err := c.ListDetails(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	deleted, err := c.DeleteFlag(ctx, "agent_triggers")
	require.NoError(t, err)
	assert.True(t, deleted)

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", h)
}

func TestGRPCClient_MapsErrors(t *testing.T) {
	c, mem := startServer(t, "", "")
	ctx := context.Background()

	_, err := c.EnableFlag(ctx, "bad name", "")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)

	// A stale read only hits the verification read of a new record.
	mem.StaleReads(1)
	_, err = c.EnableFlag(ctx, "a", "")
	assert.ErrorIs(t, err, registry.ErrVerificationFailed)

	mem.SetUnavailable(true)
	_, err = c.ListFlags(ctx)
	assert.ErrorIs(t, err, registry.ErrUnavailable)
}

func TestGRPCClient_WrongToken(t *testing.T) {
	c, _ := startServer(t, "secret", "wrong")
	_, err := c.ListFlags(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestFromStatus(t *testing.T) {
	assert.Nil(t, fromStatus(nil))
	plain := assert.AnError
	assert.Same(t, plain, fromStatus(plain))

	err := fromStatus(status.Error(codes.DeadlineExceeded, "slow"))
	assert.ErrorIs(t, err, registry.ErrUnavailable)

	internal := status.Error(codes.Internal, "x")
	assert.Equal(t, internal, fromStatus(internal))
}
