package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flags/internal/client"
	"github.com/alfredjeanlab/flags/internal/config"
	"github.com/alfredjeanlab/flags/internal/ui"
)

var (
	serverAddr string
	httpURL    string
	transport  string
	authToken  string
	jsonOutput bool
	actor      string

	flagsClient client.FlagsClient
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultHTTPURL() string {
	if s := os.Getenv("FLAGS_HTTP_URL"); s != "" {
		return s
	}
	if r, ok := activeRemote(); ok && r.Transport != "grpc" {
		return r.URL
	}
	return "http://localhost:8080"
}

func defaultServer() string {
	if s := os.Getenv("FLAGS_SERVER"); s != "" {
		return s
	}
	if r, ok := activeRemote(); ok && r.Transport == "grpc" {
		return r.URL
	}
	return "localhost:9090"
}

func defaultTransport() string {
	if r, ok := activeRemote(); ok && r.Transport != "" {
		return r.Transport
	}
	return "http"
}

func defaultToken() string {
	if s := os.Getenv("FLAGS_TOKEN"); s != "" {
		return s
	}
	r, _ := activeRemote()
	return r.Token
}

// connect builds flagsClient for the selected transport.
func connect(cmd *cobra.Command) error {
	switch transport {
	case "http":
		flagsClient = client.NewHTTPClient(httpURL, authToken)
	case "grpc":
		c, err := client.NewGRPCClient(serverAddr, authToken)
		if err != nil {
			return fmt.Errorf("failed to connect to server: %w", err)
		}
		flagsClient = c
	case "local":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		st, err := buildStack(cmd.Context(), cfg, quietLogger(cfg), actor)
		if err != nil {
			return err
		}
		flagsClient = client.NewLocalClient(st.service, st)
	default:
		return fmt.Errorf("unknown transport %q (must be http, grpc or local)", transport)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:           "kf <command>",
	Short:         "Manage feature flags",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return connect(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if flagsClient != nil {
			flagsClient.Close()
			flagsClient = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", defaultTransport(), "transport protocol (http, grpc or local)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name recorded in change events (local transport)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "flags", Title: "Flags:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.OnInitialize(func() { ui.SetColor(ui.ShouldUseColor() && !jsonOutput) })
	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Flags
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(enableCommonCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
