// Package ui renders terminal output for the kf CLI.
package ui

import "fmt"

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent   = 74  // blue
	colorCmd      = 250 // light gray
	colorMuted    = 245 // medium gray
	colorEnabled  = 114 // green
	colorDisabled = 203 // red
	colorWarn     = 215 // orange
)

var noColor bool

// SetColor turns ANSI colors on or off globally.
func SetColor(on bool) {
	noColor = !on
}

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderWarn returns s in the warning (orange) color.
func RenderWarn(s string) string { return render(colorWarn, s) }

// StatusLabel is the upper-case word for a flag state.
func StatusLabel(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// RenderStatus returns StatusLabel(enabled), green when on and red when off.
func RenderStatus(enabled bool) string {
	if enabled {
		return render(colorEnabled, StatusLabel(true))
	}
	return render(colorDisabled, StatusLabel(false))
}
