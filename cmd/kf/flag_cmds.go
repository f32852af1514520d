package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flags/internal/flags"
	"github.com/alfredjeanlab/flags/internal/ui"
)

// defaultDisableReason is recorded when disable is called without --reason.
const defaultDisableReason = "Disabled via management script"

// writeResult is the JSON shape of enable and disable output.
type writeResult struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Changed bool   `json:"changed"`
}

var checkCmd = &cobra.Command{
	Use:     "check <name>",
	Short:   "Show the status of a feature flag",
	GroupID: "flags",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		enabled, err := flagsClient.IsEnabled(ctx, name)
		if err != nil {
			return fmt.Errorf("checking %s: %w", name, err)
		}
		details, err := flagsClient.GetFlagDetails(ctx, name)
		if err != nil {
			return fmt.Errorf("checking %s: %w", name, err)
		}

		if jsonOutput {
			if details == nil {
				details = &flags.Details{Name: name, Enabled: enabled}
			}
			return printJSON(cmd.OutOrStdout(), details)
		}
		printFlagStatus(cmd.OutOrStdout(), name, enabled, details)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all feature flags",
	GroupID: "flags",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := flagsClient.ListDetails(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing flags: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), list)
		}
		printFlagList(cmd.OutOrStdout(), list)
		return nil
	},
}

var enableCmd = &cobra.Command{
	Use:     "enable <name>...",
	Short:   "Enable one or more feature flags",
	GroupID: "flags",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		out := cmd.OutOrStdout()

		var results []writeResult
		var failed []error
		for _, name := range args {
			// Re-enabling with a new description still writes it.
			res, err := enableOne(cmd.Context(), out, name, description, description != "")
			if err != nil {
				failed = append(failed, err)
				continue
			}
			results = append(results, res)
		}

		if jsonOutput {
			if err := printJSON(out, results); err != nil {
				return err
			}
		}
		return errors.Join(failed...)
	},
}

// commonFlags are the flags a fresh deployment turns on, in order.
var commonFlags = []struct {
	Name        string
	Description string
}{
	{"agent_triggers", "Enable agent triggers functionality for automated agent execution"},
	{"custom_agents", "Enable custom agent creation and management"},
	{"triggers_api", "Enable triggers API endpoints"},
	{"workflows_api", "Enable workflows API endpoints"},
	{"knowledge_base", "Enable knowledge base functionality"},
	{"mcp_module", "Enable MCP (Model Context Protocol) module"},
	{"templates_api", "Enable templates API"},
	{"pipedream", "Enable Pipedream integration"},
	{"credentials_api", "Enable credentials API"},
	{"suna_default_agent", "Enable Suna default agent"},
}

var enableCommonCmd = &cobra.Command{
	Use:     "enable-common",
	Short:   "Enable the commonly used feature flags",
	GroupID: "flags",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		// Per-flag lines go to stderr in JSON mode so stdout stays parseable.
		progress := out
		if jsonOutput {
			progress = cmd.ErrOrStderr()
		}

		results := make([]writeResult, 0, len(commonFlags))
		var failed []error
		ok := make(map[string]bool, len(commonFlags))
		for _, f := range commonFlags {
			res, err := enableOne(cmd.Context(), progress, f.Name, f.Description, false)
			if err != nil {
				fmt.Fprintf(progress, "Failed to enable %s: %v\n", f.Name, err)
				failed = append(failed, err)
				continue
			}
			ok[f.Name] = true
			results = append(results, res)
		}

		if jsonOutput {
			if err := printJSON(out, results); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(out)
			for _, f := range commonFlags {
				status := "Enabled"
				if !ok[f.Name] {
					status = ui.RenderWarn("Failed")
				}
				fmt.Fprintf(out, "  %-25s %s\n", f.Name, status)
			}
			fmt.Fprintf(out, "\nSuccessfully enabled %d/%d feature flags\n", len(ok), len(commonFlags))
		}
		return errors.Join(failed...)
	},
}

// enableOne enables name unless it is already on. With rewrite set, an
// enabled flag is written anyway so a new description lands.
func enableOne(ctx context.Context, out io.Writer, name, description string, rewrite bool) (writeResult, error) {
	on, err := flagsClient.IsEnabled(ctx, name)
	if err != nil {
		return writeResult{}, fmt.Errorf("enabling %s: %w", name, err)
	}
	if on && !rewrite {
		if !jsonOutput {
			fmt.Fprintf(out, "Feature flag '%s' is already enabled\n", name)
		}
		return writeResult{Name: name, Enabled: true}, nil
	}
	if _, err := flagsClient.EnableFlag(ctx, name, description); err != nil {
		return writeResult{}, fmt.Errorf("enabling %s: %w", name, err)
	}
	if !jsonOutput {
		fmt.Fprintf(out, "Enabled feature flag: %s\n", name)
	}
	return writeResult{Name: name, Enabled: true, Changed: true}, nil
}

var disableCmd = &cobra.Command{
	Use:     "disable <name>...",
	Short:   "Disable one or more feature flags",
	GroupID: "flags",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		var results []writeResult
		var failed []error
		for _, name := range args {
			on, err := flagsClient.IsEnabled(ctx, name)
			if err != nil {
				failed = append(failed, fmt.Errorf("disabling %s: %w", name, err))
				continue
			}
			if !on {
				results = append(results, writeResult{Name: name})
				if !jsonOutput {
					fmt.Fprintf(out, "Feature flag '%s' is already disabled\n", name)
				}
				continue
			}
			if _, err := flagsClient.DisableFlag(ctx, name, reason); err != nil {
				failed = append(failed, fmt.Errorf("disabling %s: %w", name, err))
				continue
			}
			results = append(results, writeResult{Name: name, Changed: true})
			if !jsonOutput {
				fmt.Fprintf(out, "Disabled feature flag: %s\n", name)
			}
		}

		if jsonOutput {
			if err := printJSON(out, results); err != nil {
				return err
			}
		}
		return errors.Join(failed...)
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <name>...",
	Short:   "Delete one or more feature flag records",
	GroupID: "flags",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range args {
			deleted, err := flagsClient.DeleteFlag(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("deleting %s: %w", name, err)
			}
			if deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Feature flag '%s' not found\n", name)
			}
		}
		return nil
	},
}

func init() {
	enableCmd.Flags().StringP("description", "d", "", "description stored with the flag")
	disableCmd.Flags().StringP("reason", "r", defaultDisableReason, "reason stored as the description")
}
