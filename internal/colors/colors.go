// Package colors provides the terminal colors used by the CLI.
//
// Colors are disabled automatically when stdout is not a terminal. Init
// overrides that from the --color/--no-color flags.
package colors

import (
	"os"
	"strings"

	"github.com/fatih/color"
)

// Init overrides the auto-detected color setting:
//   - forceColor == nil: keep the auto-detected value, honoring CLICOLOR=0
//   - forceColor == true: force colors on (--color)
//   - forceColor == false: force colors off (--no-color)
func Init(forceColor *bool) {
	if forceColor != nil {
		color.NoColor = !*forceColor
		return
	}
	if os.Getenv("CLICOLOR") == "0" {
		color.NoColor = true
	}
}

// Enabled returns true if colors are currently enabled.
func Enabled() bool {
	return !color.NoColor
}

var (
	Bold   = color.New(color.Bold).SprintFunc()
	Faint  = color.New(color.Faint).SprintFunc()
	Key    = color.New(color.Bold, color.FgBlue).SprintFunc()
	Name   = color.New(color.Bold, color.FgHiCyan).SprintFunc()
	Good   = color.New(color.FgHiGreen).SprintFunc()
	Warn   = color.New(color.FgHiYellow).SprintFunc()
	Bad    = color.New(color.FgHiRed).SprintFunc()
	Header = color.New(color.Bold, color.Underline).SprintFunc()
)

// Status colors a state word reported by one of the tools.
func Status(s string) string {
	switch strings.ToLower(s) {
	case "online", "active", "up", "charging", "full", "attached", "mounted", "yes", "true":
		return Good(s)
	case "offline", "failed", "down", "detached", "no", "false":
		return Bad(s)
	case "":
		return s
	default:
		return Warn(s)
	}
}

// Percent colors a usage percentage, red when nearly full.
func Percent(p int, s string) string {
	switch {
	case p >= 90:
		return Bad(s)
	case p >= 75:
		return Warn(s)
	default:
		return Good(s)
	}
}
