package main

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flags/internal/ui"
)

// helpRule colors every match of re. Capture group 1, when present, is
// kept as-is and only the remainder is styled.
type helpRule struct {
	re    *regexp.Regexp
	style func(string) string
}

var helpRules = []helpRule{
	// Section headers: "Flags:", "System:", "Usage:".
	{regexp.MustCompile(`(?m)^()([A-Z][^\n]*:)[ \t]*$`), ui.RenderAccent},
	// Command names in the command lists.
	{regexp.MustCompile(`(?m)^(  )(\S+)(?:  )`), ui.RenderCommand},
	// Flag value types such as "--reason string".
	{regexp.MustCompile(`(--?\S+\s+)(string|int|duration)\b`), ui.RenderMuted},
	// Quoted defaults, e.g. (default "http").
	{regexp.MustCompile(`()(\(default "[^"]*"\))`), ui.RenderMuted},
}

// colorizedHelpFunc renders Cobra's usage text, colored when stdout is a
// terminal.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		orig := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(orig)
		fmt.Fprint(orig, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, rule := range helpRules {
		s = rule.re.ReplaceAllStringFunc(s, func(match string) string {
			m := rule.re.FindStringSubmatch(match)
			// Text matched after group 2 (the command-list spacing) is kept.
			rest := match[len(m[1])+len(m[2]):]
			return m[1] + rule.style(m[2]) + rest
		})
	}
	return s
}
