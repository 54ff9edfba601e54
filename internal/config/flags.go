package config

import (
	"flag"
)

// flagToField maps CLI flag names to config keys.
var flagToField = map[string]string{
	"file":           "task_file",
	"log-dir":        "log_dir",
	"confirm-delete": "confirm_delete",
	"indent":         "indent_width",
	"hook":           "hook_command",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
}

// parseFlags defines and parses the global CLI flags. Values only reach cfg
// when the flag was explicitly set, so lower-priority sources survive.
// If sources is non-nil, it tracks the source of each value.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasknest", flag.ContinueOnError)
	}

	// Paths
	var taskFile, logDir string
	fs.StringVar(&taskFile, "file", cfg.TaskFile, "Path to task file")
	fs.StringVar(&logDir, "log-dir", cfg.LogDir, "Log directory")

	// Views
	var confirmDelete bool
	var indent int
	fs.BoolVar(&confirmDelete, "confirm-delete", cfg.ConfirmDelete, "Ask before deleting a task")
	fs.IntVar(&indent, "indent", cfg.IndentWidth, "Spaces per nesting level in listings")

	// Hooks
	var hook string
	fs.StringVar(&hook, "hook", cfg.HookCommand, "Hook command to run after each save")

	// Logging
	var logLevel, logFormat string
	var logTimestamps, logCaller bool
	fs.StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&logFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&logTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&logCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "file":
			cfg.TaskFile = taskFile
		case "log-dir":
			cfg.LogDir = logDir
		case "confirm-delete":
			cfg.ConfirmDelete = confirmDelete
		case "indent":
			cfg.IndentWidth = indent
		case "hook":
			cfg.HookCommand = hook
		case "log-level":
			cfg.LogLevel = logLevel
		case "log-format":
			cfg.LogFormat = logFormat
		case "log-timestamps":
			cfg.LogTimestamps = logTimestamps
		case "log-caller":
			cfg.LogCaller = logCaller
		}
		if sources == nil {
			return
		}
		if field, ok := flagToField[f.Name]; ok {
			sources[field] = SourceFlag
		}
	})

	return nil
}
