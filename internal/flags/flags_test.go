package flags

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/flags/internal/registry"
	"github.com/alfredjeanlab/flags/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store, *bytes.Buffer) {
	t.Helper()
	mem := memory.New()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	return New(registry.New(mem, registry.WithLogger(logger)), logger), mem, &logs
}

func TestService_Verbs(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	on, err := svc.IsEnabled(ctx, "agent_triggers")
	require.NoError(t, err)
	assert.False(t, on)

	d, err := svc.GetFlagDetails(ctx, "agent_triggers")
	require.NoError(t, err)
	assert.Nil(t, d, "absent flag has no details")

	ok, err := svc.EnableFlag(ctx, "agent_triggers", "Enable agent triggers functionality")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.EnableFlag(ctx, "agent_triggers", "Enable agent triggers functionality")
	require.NoError(t, err)
	assert.True(t, ok, "already enabled is still success")

	d, err = svc.GetFlagDetails(ctx, "agent_triggers")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "agent_triggers", d.Name)
	assert.True(t, d.Enabled)
	assert.Equal(t, "Enable agent triggers functionality", d.Description)
	assert.False(t, d.UpdatedAt.IsZero())

	ok, err = svc.DisableFlag(ctx, "agent_triggers", "")
	require.NoError(t, err)
	assert.True(t, ok)

	m, err := svc.ListFlags(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"agent_triggers": false}, m)
}

func TestService_InvalidName(t *testing.T) {
	svc, mem, logs := newTestService(t)
	ctx := context.Background()

	ok, err := svc.EnableFlag(ctx, "", "d")
	assert.False(t, ok)
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)

	ok, err = svc.DisableFlag(ctx, "bad name", "")
	assert.False(t, ok)
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)

	_, err = svc.IsEnabled(ctx, "")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)

	_, err = svc.GetFlagDetails(ctx, "a/b")
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)

	assert.Zero(t, mem.Puts())
	assert.Contains(t, logs.String(), "enable_flag failed")
}

func TestService_StoreUnavailable(t *testing.T) {
	svc, mem, logs := newTestService(t)
	ctx := context.Background()
	mem.SetUnavailable(true)

	ok, err := svc.EnableFlag(ctx, "a", "")
	assert.False(t, ok)
	assert.ErrorIs(t, err, registry.ErrUnavailable)

	on, err := svc.IsEnabled(ctx, "a")
	assert.False(t, on)
	assert.ErrorIs(t, err, registry.ErrUnavailable)

	d, err := svc.GetFlagDetails(ctx, "a")
	assert.Nil(t, d)
	assert.ErrorIs(t, err, registry.ErrUnavailable, "unavailable must not look like not found")

	_, err = svc.ListFlags(ctx)
	assert.ErrorIs(t, err, registry.ErrUnavailable)

	assert.Contains(t, logs.String(), "list_flags failed")
}

func TestService_VerificationFailed(t *testing.T) {
	svc, mem, _ := newTestService(t)
	mem.StaleReads(1)

	ok, err := svc.EnableFlag(context.Background(), "a", "")
	assert.False(t, ok)
	assert.ErrorIs(t, err, registry.ErrVerificationFailed)
}

func TestDetailsOf_Nil(t *testing.T) {
	assert.Nil(t, DetailsOf(nil))
}

func TestService_ListDetailsAndDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnableFlag(ctx, "b", "second")
	require.NoError(t, err)
	_, err = svc.DisableFlag(ctx, "a", "first")
	require.NoError(t, err)

	list, err := svc.ListDetails(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "first", list[0].Description)
	assert.True(t, list[1].Enabled)

	deleted, err := svc.DeleteFlag(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	d, err := svc.GetFlagDetails(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestService_Health(t *testing.T) {
	svc, mem, _ := newTestService(t)
	require.NoError(t, svc.Health(context.Background()))
	mem.SetUnavailable(true)
	assert.ErrorIs(t, svc.Health(context.Background()), registry.ErrUnavailable)
}
