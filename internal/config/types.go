package config

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultTaskFile      = "tasks_nested.json"
	DefaultLogDir        = "~/.tasknest/logs"
	DefaultConfirmDelete = true
	DefaultIndentWidth   = 2
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"

	minIndentWidth = 1
	maxIndentWidth = 8
)

// Config holds the full configuration for tasknest.
type Config struct {
	// Paths
	TaskFile string `toml:"task_file"`
	LogDir   string `toml:"log_dir"`

	// Views
	ConfirmDelete bool `toml:"confirm_delete"`
	IndentWidth   int  `toml:"indent_width"`

	// Command run after every successful save
	HookCommand string `toml:"hook_command"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Working directory (computed)
	ProjectRoot string `toml:"-"`
}

// fileConfig mirrors Config with pointer fields so a decoded file only
// overrides the keys it actually sets.
type fileConfig struct {
	TaskFile      *string `toml:"task_file"`
	LogDir        *string `toml:"log_dir"`
	ConfirmDelete *bool   `toml:"confirm_delete"`
	IndentWidth   *int    `toml:"indent_width"`
	HookCommand   *string `toml:"hook_command"`
	LogLevel      *string `toml:"log_level"`
	LogFormat     *string `toml:"log_format"`
	LogTimestamps *bool   `toml:"log_timestamps"`
	LogCaller     *bool   `toml:"log_caller"`
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"task_file",
		"log_dir",
		"confirm_delete",
		"indent_width",
		"hook_command",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// Fields returns the configurable keys in display order.
func Fields() []string {
	return configFields()
}

// Value returns the display value of a configurable key.
func (c *Config) Value(field string) string {
	switch field {
	case "task_file":
		return c.TaskFile
	case "log_dir":
		return c.LogDir
	case "confirm_delete":
		return boolString(c.ConfirmDelete)
	case "indent_width":
		return itoa(c.IndentWidth)
	case "hook_command":
		return c.HookCommand
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return boolString(c.LogTimestamps)
	case "log_caller":
		return boolString(c.LogCaller)
	}
	return ""
}
