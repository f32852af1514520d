package main

import (
	"fmt"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flags/internal/config"
)

// The active remote, loaded once per process.
var (
	remoteOnce   sync.Once
	cachedRemote config.Remote
	haveRemote   bool
)

func activeRemote() (config.Remote, bool) {
	remoteOnce.Do(func() {
		path, err := config.RemotesPath()
		if err != nil {
			return
		}
		remotes, err := config.LoadRemotes(path)
		if err != nil {
			return
		}
		cachedRemote, haveRemote = remotes.Current()
	})
	return cachedRemote, haveRemote
}

// editRemotes loads the remotes file, applies fn and saves the result.
func editRemotes(fn func(*config.Remotes) error) error {
	path, err := config.RemotesPath()
	if err != nil {
		return err
	}
	remotes, err := config.LoadRemotes(path)
	if err != nil {
		return err
	}
	if err := fn(remotes); err != nil {
		return err
	}
	return remotes.Save(path)
}

func maskToken(token string) string {
	if len(token) > 8 {
		return token[:8] + strings.Repeat("*", len(token)-8)
	}
	return token
}

var remoteCmd = &cobra.Command{
	Use:     "remote",
	Short:   "Manage named server remotes",
	GroupID: "system",
	// All remote subcommands are local file operations.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add or update a named remote",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]
		token, _ := cmd.Flags().GetString("token")
		via, _ := cmd.Flags().GetString("via")
		natsURL, _ := cmd.Flags().GetString("nats")
		desc, _ := cmd.Flags().GetString("description")
		if via != "http" && via != "grpc" {
			return fmt.Errorf("unknown transport %q (must be http or grpc)", via)
		}

		err := editRemotes(func(r *config.Remotes) error {
			r.Remotes[name] = config.Remote{URL: url, Transport: via, Token: token, NATSURL: natsURL, Description: desc}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q added (%s)\n", name, url)
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := editRemotes(func(r *config.Remotes) error { return r.Remove(name) }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q removed\n", name)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all remotes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.RemotesPath()
		if err != nil {
			return err
		}
		remotes, err := config.LoadRemotes(path)
		if err != nil {
			return err
		}
		if len(remotes.Remotes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no remotes configured")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tURL\tVIA\tTOKEN\tDESCRIPTION")
		for _, name := range remotes.Names() {
			r := remotes.Remotes[name]
			marker := "  "
			if name == remotes.Active {
				marker = "* "
			}
			via := r.Transport
			if via == "" {
				via = "http"
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\n", marker, name, r.URL, via, maskToken(r.Token), r.Description)
		}
		return w.Flush()
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the active remote (no args clears it)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		if err := editRemotes(func(r *config.Remotes) error { return r.Use(name) }); err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "active remote cleared")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "active remote set to %q\n", name)
		}
		return nil
	},
}

func init() {
	remoteAddCmd.Flags().String("token", "", "bearer token for authentication")
	remoteAddCmd.Flags().String("via", "http", "transport for this remote (http or grpc)")
	remoteAddCmd.Flags().String("nats", "", "NATS URL for kf watch")
	remoteAddCmd.Flags().String("description", "", "human-readable description of the remote")

	remoteCmd.AddCommand(remoteAddCmd)
	remoteCmd.AddCommand(remoteRemoveCmd)
	remoteCmd.AddCommand(remoteListCmd)
	remoteCmd.AddCommand(remoteUseCmd)
}
