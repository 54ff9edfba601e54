package cmd

import "github.com/fatih/color"

// Sprint color functions for CLI output. They honour NO_COLOR and fall back
// to plain text when stdout is not a terminal.
var (
	Bold   = color.New(color.Bold).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
)

// checkbox renders the done marker of a task.
func checkbox(done bool) string {
	if done {
		return Green("[x]")
	}
	return Yellow("[ ]")
}
