package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flags/internal/events"
)

func watchNATSURL() string {
	if s := os.Getenv("FLAGS_NATS_URL"); s != "" {
		return s
	}
	r, _ := activeRemote()
	return r.NATSURL
}

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Print flag changes as they happen",
	GroupID: "flags",
	Args:    cobra.NoArgs,
	// Events come straight from the bus; no flag client is needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("nats")
		if url == "" {
			return fmt.Errorf("no NATS URL: set FLAGS_NATS_URL, pass --nats, or add one to the active remote")
		}
		topic, _ := cmd.Flags().GetString("topic")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		w, err := events.NewWatcher(url,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				slog.Warn("nats: disconnected", "err", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				slog.Info("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer w.Close()

		ch, err := w.Watch(ctx, topic)
		if err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s on %s (Ctrl-C to stop)\n", topic, url)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		for ev := range ch {
			if jsonOutput {
				if err := enc.Encode(ev); err != nil {
					return err
				}
				continue
			}
			printEvent(cmd.OutOrStdout(), ev)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().String("nats", watchNATSURL(), "NATS URL to subscribe to")
	watchCmd.Flags().String("topic", events.TopicAll, "subject to watch (wildcards allowed)")
}
