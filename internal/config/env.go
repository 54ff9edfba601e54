package config

import (
	"os"
	"strconv"
	"strings"
)

// loadFromEnv overrides config from environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	mark := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}

	if v := os.Getenv("TASKNEST_FILE"); v != "" {
		cfg.TaskFile = v
		mark("task_file")
	}
	if v := os.Getenv("TASKNEST_LOG_DIR"); v != "" {
		cfg.LogDir = v
		mark("log_dir")
	}
	if v := os.Getenv("TASKNEST_CONFIRM_DELETE"); v != "" {
		cfg.ConfirmDelete = boolFromString(v)
		mark("confirm_delete")
	}
	if v := os.Getenv("TASKNEST_INDENT"); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.IndentWidth = i
			mark("indent_width")
		}
	}
	if v := os.Getenv("TASKNEST_HOOK"); v != "" {
		cfg.HookCommand = v
		mark("hook_command")
	}

	// Logging configuration
	if v := os.Getenv("TASKNEST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		mark("log_level")
	}
	if v := os.Getenv("TASKNEST_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
		mark("log_format")
	}
	if v := os.Getenv("TASKNEST_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		mark("log_timestamps")
	}
	if v := os.Getenv("TASKNEST_LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
		mark("log_caller")
	}
}
