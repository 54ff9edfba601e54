// Package cmd implements the CLI command structure for tasknest.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasknest/internal/config"
	"github.com/nibzard/tasknest/internal/hooks"
	"github.com/nibzard/tasknest/internal/logging"
	"github.com/nibzard/tasknest/internal/todo"
	"github.com/nibzard/tasknest/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Process streams, swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

// Run executes the tasknest CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("tasknest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	loaded, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// Determine the subcommand
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	logger := logging.NewFromConfig(stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)

	switch subcommand {
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "add":
		return addCommand(ctx, cfg, logger, remainingArgs)
	case "toggle":
		return toggleCommand(ctx, cfg, logger, remainingArgs)
	case "edit":
		return editCommand(ctx, cfg, logger, remainingArgs)
	case "rm":
		return rmCommand(ctx, cfg, logger, remainingArgs)
	case "ls":
		return lsCommand(ctx, cfg, logger, remainingArgs)
	case "export":
		return exportCommand(ctx, cfg, logger, remainingArgs)
	case "check":
		return checkCommand(cfg, remainingArgs)
	case "config":
		return configCommand(loaded, remainingArgs)
	case "logs":
		return logsCommand(ctx, cfg, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// tuiCommand launches the interactive view. Log output goes to a per-run
// file since the view owns the terminal.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasknest tui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if !ui.IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY; use ls, add, toggle, edit or rm instead")
	}

	runLog, err := logging.OpenRunLog(cfg.LogDir, filepath.Dir(cfg.TaskFile))
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer runLog.Close()

	logger := logging.NewFromConfig(runLog.Writer(), cfg.LogLevel, cfg.LogFormat, true, cfg.LogCaller)
	logger.Info("starting tui", "file", cfg.TaskFile, "version", Version)

	store := openStore(ctx, cfg, logger, runLog.Writer())
	err = ui.RunTUI(ctx, store,
		ui.WithConfirmDelete(cfg.ConfirmDelete),
		ui.WithIndent(cfg.IndentWidth),
		ui.WithLogger(logger),
	)
	if err != nil {
		logger.Error("tui exited with error", "err", err)
		return reportSave(err)
	}
	logger.Info("tui closed", "tasks", store.Stats().Total)
	return nil
}

// configCommand prints the effective configuration and where each value
// came from, or an annotated example file.
func configCommand(loaded *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("tasknest config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *example {
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}

	if len(loaded.Files) == 0 {
		fmt.Fprintln(stdout, "Config files: (none)")
	} else {
		fmt.Fprintln(stdout, "Config files:")
		for _, f := range loaded.Files {
			fmt.Fprintf(stdout, "  %s\n", f)
		}
	}
	fmt.Fprintln(stdout)

	for _, field := range config.Fields() {
		value := loaded.Config.Value(field)
		if value == "" {
			value = `""`
		}
		fmt.Fprintf(stdout, "%-15s %-40s %s\n", field, value, Dim("("+string(loaded.Sources[field])+")"))
	}
	return nil
}

// logsCommand prints the latest TUI run log for this project.
func logsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasknest logs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n < 0 {
		return fmt.Errorf("-n must not be negative")
	}

	logDir, err := logging.FindLogDir(cfg.LogDir, filepath.Dir(cfg.TaskFile))
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}

	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(stderr, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(stderr, "(Ctrl+C to stop)")
	}

	err = logging.TailLog(ctx, stdout, logPath, *n, *follow)
	if err != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func versionCommand() error {
	fmt.Fprintf(stdout, "tasknest version %s\n", Version)
	return nil
}

// openStore loads the configured task file. Every successful save runs the
// configured hook with its output sent to hookOut.
func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger, hookOut io.Writer) *todo.Store {
	var store *todo.Store
	store = todo.NewStore(cfg.TaskFile,
		todo.WithLogger(logger),
		todo.WithSaveHook(func(op string) {
			runHook(ctx, cfg, logger, store, op, hookOut)
		}),
	)
	store.Load()
	return store
}

func runHook(ctx context.Context, cfg *config.Config, logger *log.Logger, store *todo.Store, op string, out io.Writer) {
	if cfg.HookCommand == "" {
		return
	}
	stats := store.Stats()
	res, err := hooks.Invoke(ctx, hooks.Options{
		Command:  cfg.HookCommand,
		TaskFile: store.Path(),
		Op:       op,
		Total:    stats.Total,
		Done:     stats.Done,
		WorkDir:  cfg.ProjectRoot,
		Stdout:   out,
		Stderr:   out,
	})
	if err != nil {
		logger.Warn("hook failed", "command", cfg.HookCommand, "op", op, "exit", res.ExitCode, "err", err)
		return
	}
	if res.Ran {
		logger.Debug("hook ran", "command", cfg.HookCommand, "op", op)
	}
}

// reportSave turns a failed save into a warning. The command itself still
// succeeds since the in-memory change was applied.
func reportSave(err error) error {
	var perr *todo.PersistenceError
	if errors.As(err, &perr) {
		fmt.Fprintf(stderr, "%s %v\n", Yellow("Warning:"), err)
		return nil
	}
	return err
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "tasknest - A nested task list for the terminal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasknest [options] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui                         Launch terminal UI (default command)")
	fmt.Fprintln(w, "  add [-parent N] TEXT...     Add a task, or a subtask of N")
	fmt.Fprintln(w, "  toggle N                    Mark task N done or not done")
	fmt.Fprintln(w, "  edit N TEXT...              Replace the text of task N")
	fmt.Fprintln(w, "  rm [-y] N                   Delete task N and its subtasks")
	fmt.Fprintln(w, "  ls [-pending] [-depth D]    Print the task tree")
	fmt.Fprintln(w, "  export [-format F] [-o FILE]  Export tasks as "+strings.Join(formatNames(), ", "))
	fmt.Fprintln(w, "  check [file]                Validate a task file")
	fmt.Fprintln(w, "  config [-example]           Show effective configuration")
	fmt.Fprintln(w, "  logs [-n N] [-f]            Show the latest TUI log")
	fmt.Fprintln(w, "  version                     Show version information")
	fmt.Fprintln(w, "  help                        Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tasks are addressed by dotted positions: 2.1 is the first subtask of the")
	fmt.Fprintln(w, "second task.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
