package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/flags/internal/events"
	"github.com/alfredjeanlab/flags/internal/flags"
	"github.com/alfredjeanlab/flags/internal/model"
	"github.com/alfredjeanlab/flags/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05 MST"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func describe(d *flags.Details) string {
	if d == nil || d.Description == "" {
		return "No description"
	}
	return d.Description
}

// printFlagStatus prints the check view of one flag. d is nil when the flag
// has no record.
func printFlagStatus(w io.Writer, name string, enabled bool, d *flags.Details) {
	updated := "Unknown"
	if d != nil && !d.UpdatedAt.IsZero() {
		updated = d.UpdatedAt.Local().Format(timeLayout)
	}
	fmt.Fprintf(w, "Feature Flag: %s\n", ui.RenderAccent(name))
	fmt.Fprintf(w, "Status:       %s\n", ui.RenderStatus(enabled))
	fmt.Fprintf(w, "Description:  %s\n", describe(d))
	fmt.Fprintf(w, "Last Updated: %s\n", updated)
}

func printFlagList(w io.Writer, list []*flags.Details) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No feature flags found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tDESCRIPTION")
	enabled := 0
	for _, d := range list {
		desc := describe(d)
		if len(desc) > 60 {
			desc = desc[:57] + "..."
		}
		if d.Enabled {
			enabled++
		}
		// tabwriter counts escape bytes; equal-width labels keep columns aligned.
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, padStatus(d.Enabled), desc)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d flags (%d enabled)\n", len(list), enabled)
}

func padStatus(enabled bool) string {
	pad := len(ui.StatusLabel(false)) - len(ui.StatusLabel(enabled))
	return ui.RenderStatus(enabled) + strings.Repeat(" ", pad)
}

func printEvent(w io.Writer, ev events.FlagChanged) {
	if ev.Flag == nil {
		return
	}
	line := fmt.Sprintf("%s  %-8s  %s", ev.At.Local().Format(time.TimeOnly), ev.Action, ui.RenderAccent(ev.Flag.Name))
	if ev.Flag.Description != "" && ev.Action != model.ActionDeleted {
		line += "  " + ui.RenderMuted(ev.Flag.Description)
	}
	if ev.Actor != "" {
		line += ui.RenderMuted("  (by " + ev.Actor + ")")
	}
	fmt.Fprintln(w, line)
}
