package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flags/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the flag service",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := flagsClient.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), map[string]string{"status": status}); err != nil {
				return err
			}
		} else if status == "ok" {
			fmt.Fprintf(cmd.OutOrStdout(), "Health: %s\n", status)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Health: %s\n", ui.RenderWarn(status))
		}

		if status != "ok" {
			return fmt.Errorf("unhealthy: %s", status)
		}
		return nil
	},
}
