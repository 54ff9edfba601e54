// Package hooks invokes the external command configured to run after saves.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// Options configures a hook invocation.
type Options struct {
	Command  string
	TaskFile string
	// Op names the mutation that triggered the save (add, toggle, edit,
	// delete or save).
	Op      string
	Total   int
	Done    int
	WorkDir string
	// Stdout and Stderr default to the process streams when nil.
	Stdout io.Writer
	Stderr io.Writer
}

// Result captures the outcome of a hook invocation.
type Result struct {
	Ran      bool
	Command  []string
	ExitCode int
}

// Invoke runs the hook command as
//
//	<command> <task file> <op>
//
// with TASKNEST_FILE, TASKNEST_OP, TASKNEST_TOTAL and TASKNEST_DONE added to
// its environment. Nothing runs when no command is configured or the task
// file does not exist.
func Invoke(ctx context.Context, opts Options) (Result, error) {
	if opts.Command == "" || opts.TaskFile == "" {
		return Result{}, nil
	}

	info, err := os.Stat(opts.TaskFile)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("stat task file: %w", err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("task file is a directory: %s", opts.TaskFile)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	cmd := exec.CommandContext(ctx, opts.Command, opts.TaskFile, opts.Op)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Env = append(os.Environ(),
		"TASKNEST_FILE="+opts.TaskFile,
		"TASKNEST_OP="+opts.Op,
		"TASKNEST_TOTAL="+strconv.Itoa(opts.Total),
		"TASKNEST_DONE="+strconv.Itoa(opts.Done),
	)
	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err = cmd.Run()
	result := Result{
		Ran:      true,
		Command:  cmd.Args,
		ExitCode: exitCodeFromError(err),
	}
	if err != nil {
		return result, fmt.Errorf("hook command failed: %w", err)
	}
	return result, nil
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
