package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasknest configuration file
# Values can be overridden by TASKNEST_* environment variables or CLI flags

# Task file (relative paths resolve against the working directory)
task_file = "tasks_nested.json"

# Ask for confirmation before deleting a task and its subtasks
confirm_delete = true

# Spaces per nesting level in listings (1-8)
indent_width = 2

# Command run after every successful save.
# Invoked as: <hook_command> <task file> <operation>
# hook_command = "/path/to/hook.sh"

# Log directory for interactive sessions (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.tasknest/logs"

# Logging: debug, info, warn, error
log_level = "info"

# Log format: text, json, logfmt
log_format = "text"

log_timestamps = false
log_caller = false
`
}
