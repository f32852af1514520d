package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/flags/internal/client"
	"github.com/alfredjeanlab/flags/internal/flags"
	"github.com/alfredjeanlab/flags/internal/registry"
	"github.com/alfredjeanlab/flags/internal/store/memory"
	"github.com/alfredjeanlab/flags/internal/ui"
)

// useLocalClient points the commands at a façade over a fresh memory store.
func useLocalClient(t *testing.T) *memory.Store {
	t.Helper()
	mem := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flagsClient = client.NewLocalClient(flags.New(registry.New(mem, registry.WithLogger(logger)), logger), nil)
	ui.SetColor(false)
	t.Cleanup(func() {
		flagsClient = nil
		jsonOutput = false
		ui.SetColor(true)
	})
	return mem
}

// run invokes cmd's RunE directly with the given local flag values, which
// are reset to their defaults afterwards.
func run(t *testing.T, cmd *cobra.Command, set map[string]string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	for k, v := range set {
		require.NoError(t, cmd.Flags().Set(k, v))
	}
	defer cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

func TestEnableCmd(t *testing.T) {
	useLocalClient(t)

	out, err := run(t, enableCmd, map[string]string{"description": "Enable agent triggers functionality"}, "agent_triggers")
	require.NoError(t, err)
	assert.Equal(t, "Enabled feature flag: agent_triggers\n", out)

	out, err = run(t, enableCmd, nil, "agent_triggers")
	require.NoError(t, err)
	assert.Equal(t, "Feature flag 'agent_triggers' is already enabled\n", out)

	// A new description on an enabled flag is still written.
	out, err = run(t, enableCmd, map[string]string{"description": "v2"}, "agent_triggers")
	require.NoError(t, err)
	assert.Contains(t, out, "Enabled feature flag")
	d, err := flagsClient.GetFlagDetails(context.Background(), "agent_triggers")
	require.NoError(t, err)
	assert.Equal(t, "v2", d.Description)
}

func TestEnableCmd_ContinuesPastErrors(t *testing.T) {
	useLocalClient(t)

	out, err := run(t, enableCmd, nil, "bad name", "good")
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "enabling bad name")
	assert.Contains(t, out, "Enabled feature flag: good")
}

func TestEnableCommonCmd(t *testing.T) {
	useLocalClient(t)
	ctx := context.Background()
	_, err := flagsClient.EnableFlag(ctx, "agent_triggers", "")
	require.NoError(t, err)

	out, err := run(t, enableCommonCmd, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Feature flag 'agent_triggers' is already enabled\n")
	assert.Contains(t, out, "Enabled feature flag: custom_agents\n")
	assert.Contains(t, out, "  suna_default_agent        Enabled\n")
	assert.True(t, strings.HasSuffix(out, "\nSuccessfully enabled 10/10 feature flags\n"), out)

	list, err := flagsClient.ListFlags(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(commonFlags))
	for _, f := range commonFlags {
		assert.True(t, list[f.Name], f.Name)
	}

	d, err := flagsClient.GetFlagDetails(ctx, "mcp_module")
	require.NoError(t, err)
	assert.Equal(t, "Enable MCP (Model Context Protocol) module", d.Description)
}

func TestEnableCommonCmd_ReportsFailures(t *testing.T) {
	mem := useLocalClient(t)
	mem.FailNextPuts(1)

	out, err := run(t, enableCommonCmd, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrUnavailable)
	assert.Contains(t, out, "Failed to enable agent_triggers")
	assert.Contains(t, out, "  agent_triggers            Failed\n")
	assert.Contains(t, out, "Successfully enabled 9/10 feature flags")
}

func TestDisableCmd_DefaultReason(t *testing.T) {
	useLocalClient(t)
	ctx := context.Background()

	_, err := flagsClient.EnableFlag(ctx, "a", "first")
	require.NoError(t, err)

	out, err := run(t, disableCmd, nil, "a")
	require.NoError(t, err)
	assert.Equal(t, "Disabled feature flag: a\n", out)

	d, err := flagsClient.GetFlagDetails(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Enabled)
	assert.Equal(t, defaultDisableReason, d.Description)

	out, err = run(t, disableCmd, nil, "a")
	require.NoError(t, err)
	assert.Equal(t, "Feature flag 'a' is already disabled\n", out)
}

func TestDisableCmd_JSON(t *testing.T) {
	useLocalClient(t)
	_, err := flagsClient.EnableFlag(context.Background(), "a", "")
	require.NoError(t, err)
	jsonOutput = true

	out, err := run(t, disableCmd, map[string]string{"reason": "incident"}, "a", "never_set")
	require.NoError(t, err)

	var got []writeResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []writeResult{
		{Name: "a", Changed: true},
		{Name: "never_set"},
	}, got)
}

func TestCheckCmd(t *testing.T) {
	useLocalClient(t)

	out, err := run(t, checkCmd, nil, "agent_triggers")
	require.NoError(t, err)
	assert.Contains(t, out, "Feature Flag: agent_triggers")
	assert.Contains(t, out, "Status:       DISABLED")
	assert.Contains(t, out, "Description:  No description")
	assert.Contains(t, out, "Last Updated: Unknown")

	_, err = flagsClient.EnableFlag(context.Background(), "agent_triggers", "Enable agent triggers functionality")
	require.NoError(t, err)

	out, err = run(t, checkCmd, nil, "agent_triggers")
	require.NoError(t, err)
	assert.Contains(t, out, "Status:       ENABLED")
	assert.Contains(t, out, "Description:  Enable agent triggers functionality")
	assert.NotContains(t, out, "Unknown")
}

func TestCheckCmd_JSONAbsent(t *testing.T) {
	useLocalClient(t)
	jsonOutput = true

	out, err := run(t, checkCmd, nil, "missing")
	require.NoError(t, err)
	var d flags.Details
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "missing", d.Name)
	assert.False(t, d.Enabled)
}

func TestListCmd(t *testing.T) {
	useLocalClient(t)

	out, err := run(t, listCmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "No feature flags found.\n", out)

	ctx := context.Background()
	_, err = flagsClient.EnableFlag(ctx, "zeta", "last one")
	require.NoError(t, err)
	_, err = flagsClient.DisableFlag(ctx, "alpha", "")
	require.NoError(t, err)

	out, err = run(t, listCmd, nil)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[1], "alpha"), lines[1])
	assert.Contains(t, lines[1], "DISABLED")
	assert.Contains(t, lines[1], "No description")
	assert.True(t, strings.HasPrefix(lines[2], "zeta"), lines[2])
	assert.Contains(t, lines[2], "ENABLED")
	assert.Contains(t, out, "2 flags (1 enabled)")
}

func TestDeleteCmd(t *testing.T) {
	useLocalClient(t)
	_, err := flagsClient.EnableFlag(context.Background(), "a", "")
	require.NoError(t, err)

	out, err := run(t, deleteCmd, nil, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "Deleted a\nFeature flag 'b' not found\n", out)
}

func TestHealthCmd(t *testing.T) {
	mem := useLocalClient(t)

	out, err := run(t, healthCmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "Health: ok\n", out)

	mem.SetUnavailable(true)
	out, err = run(t, healthCmd, nil)
	require.Error(t, err)
	assert.Contains(t, out, "unavailable")
}
