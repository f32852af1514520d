package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	flagsv1 "github.com/alfredjeanlab/flags/api/flags/v1"
	"github.com/alfredjeanlab/flags/internal/registry"
)

// startGRPC serves srv on an in-memory listener and returns a connection.
func startGRPC(t *testing.T, srv *FlagServer, token string) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := srv.NewGRPCServer(token)
	go gs.Serve(lis) //nolint:errcheck
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// requireCode asserts that err is a gRPC error with the given status code.
func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %v", err)
	require.Equal(t, code, st.Code(), st.Message())
}

func TestGRPC_Verbs(t *testing.T) {
	srv, _ := newTestServer(t)
	client := flagsv1.NewFlagServiceClient(startGRPC(t, srv, ""))
	ctx := context.Background()

	on, err := client.IsEnabled(ctx, &flagsv1.IsEnabledRequest{Name: "agent_triggers"})
	require.NoError(t, err)
	assert.False(t, on.Enabled)

	details, err := client.GetFlagDetails(ctx, &flagsv1.GetFlagDetailsRequest{Name: "agent_triggers"})
	require.NoError(t, err)
	assert.Nil(t, details.Flag)

	en, err := client.EnableFlag(ctx, &flagsv1.EnableFlagRequest{Name: "agent_triggers", Description: "Enable agent triggers functionality"})
	require.NoError(t, err)
	assert.True(t, en.Success)

	details, err = client.GetFlagDetails(ctx, &flagsv1.GetFlagDetailsRequest{Name: "agent_triggers"})
	require.NoError(t, err)
	require.NotNil(t, details.Flag)
	assert.True(t, details.Flag.Enabled)
	assert.Equal(t, "Enable agent triggers functionality", details.Flag.Description)

	dis, err := client.DisableFlag(ctx, &flagsv1.DisableFlagRequest{Name: "agent_triggers"})
	require.NoError(t, err)
	assert.True(t, dis.Success)

	list, err := client.ListFlags(ctx, &flagsv1.ListFlagsRequest{Details: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"agent_triggers": false}, list.Flags)
	require.Len(t, list.Records, 1)

	del, err := client.DeleteFlag(ctx, &flagsv1.DeleteFlagRequest{Name: "agent_triggers"})
	require.NoError(t, err)
	assert.True(t, del.Deleted)
}

func TestGRPC_ErrorCodes(t *testing.T) {
	srv, mem := newTestServer(t)
	client := flagsv1.NewFlagServiceClient(startGRPC(t, srv, ""))
	ctx := context.Background()

	_, err := client.EnableFlag(ctx, &flagsv1.EnableFlagRequest{Name: ""})
	requireCode(t, err, codes.InvalidArgument)

	mem.StaleReads(1)
	_, err = client.EnableFlag(ctx, &flagsv1.EnableFlagRequest{Name: "a"})
	requireCode(t, err, codes.Aborted)

	mem.SetUnavailable(true)
	_, err = client.IsEnabled(ctx, &flagsv1.IsEnabledRequest{Name: "a"})
	requireCode(t, err, codes.Unavailable)

	h, err := client.Health(ctx, &flagsv1.HealthRequest{})
	require.NoError(t, err)
	assert.Equal(t, flagsv1.StatusUnavailable, h.Status)
}

func TestGRPC_Auth(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := startGRPC(t, srv, "secret")
	client := flagsv1.NewFlagServiceClient(conn)
	ctx := context.Background()

	_, err := client.ListFlags(ctx, &flagsv1.ListFlagsRequest{})
	requireCode(t, err, codes.Unauthenticated)

	// Health stays reachable without a token.
	h, err := client.Health(ctx, &flagsv1.HealthRequest{})
	require.NoError(t, err)
	assert.Equal(t, flagsv1.StatusOK, h.Status)

	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer secret")
	_, err = client.ListFlags(authed, &flagsv1.ListFlagsRequest{})
	require.NoError(t, err)
}

func TestGRPC_HealthService(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := startGRPC(t, srv, "secret")
	hc := healthpb.NewHealthClient(conn)

	resp, err := hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: flagsv1.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	srv.Shutdown()
	resp, err = hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: flagsv1.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		code       codes.Code
		httpStatus int
	}{
		{fmt.Errorf("x: %w", registry.ErrInvalidArgument), codes.InvalidArgument, http.StatusBadRequest},
		{fmt.Errorf("x: %w", registry.ErrUnavailable), codes.Unavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("x: %w", registry.ErrVerificationFailed), codes.Aborted, http.StatusConflict},
		{registry.ErrNotSupported, codes.Unimplemented, http.StatusNotImplemented},
		{assert.AnError, codes.Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, httpStatus, _ := classify(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
		assert.Equal(t, tt.httpStatus, httpStatus, tt.err.Error())
	}
}
