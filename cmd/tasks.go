package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasknest/internal/config"
	"github.com/nibzard/tasknest/internal/export"
	"github.com/nibzard/tasknest/internal/todo"
)

// addCommand appends a root task, or a subtask when -parent is given.
func addCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("tasknest add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	parentLabel := fs.String("parent", "", "Add as a subtask of the task at this position (e.g. 2.1)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("usage: tasknest add [-parent N] TEXT...")
	}

	var parent todo.Path
	if *parentLabel != "" {
		p, err := todo.ParsePath(*parentLabel)
		if err != nil {
			return err
		}
		parent = p
	}

	store := openStore(ctx, cfg, logger, stderr)
	if parent != nil {
		if _, err := store.Resolve(parent); err != nil {
			logger.Debug("add: parent not found", "path", parent.String())
			return nil
		}
	}

	if err := store.AddTask(text, parent); err != nil {
		return reportSave(err)
	}

	siblings := len(store.Tree())
	if parent != nil {
		task, _ := store.Resolve(parent)
		siblings = len(task.Subtasks)
	}
	added := append(append(todo.Path{}, parent...), siblings-1)
	fmt.Fprintf(stdout, "Added %s %s\n", Cyan(added.String()), strings.TrimSpace(text))
	return nil
}

// toggleCommand flips the done flag of one task.
func toggleCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	p, rest, err := labelArg("toggle", args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	store := openStore(ctx, cfg, logger, stderr)
	task, err := store.Resolve(p)
	if err != nil {
		logger.Debug("toggle: task not found", "path", p.String())
		return nil
	}
	if err := store.ToggleTask(p); err != nil {
		return reportSave(err)
	}
	state := "not done"
	if task.Done {
		state = "done"
	}
	fmt.Fprintf(stdout, "Marked %s %s\n", Cyan(p.String()), state)
	return nil
}

// editCommand replaces the text of one task.
func editCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	p, rest, err := labelArg("edit", args)
	if err != nil {
		return err
	}
	text := strings.Join(rest, " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("usage: tasknest edit N TEXT...")
	}

	store := openStore(ctx, cfg, logger, stderr)
	if _, err := store.Resolve(p); err != nil {
		logger.Debug("edit: task not found", "path", p.String())
		return nil
	}
	if err := store.EditTask(p, text); err != nil {
		return reportSave(err)
	}
	fmt.Fprintf(stdout, "Updated %s %s\n", Cyan(p.String()), strings.TrimSpace(text))
	return nil
}

// rmCommand deletes one task and its subtree, asking first when
// confirm_delete is on.
func rmCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("tasknest rm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	yes := fs.Bool("y", false, "Delete without asking")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, rest, err := labelArg("rm", fs.Args())
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	store := openStore(ctx, cfg, logger, stderr)
	task, err := store.Resolve(p)
	if err != nil {
		logger.Debug("rm: task not found", "path", p.String())
		return nil
	}
	text := task.Text
	nested := todo.Tree(task.Subtasks).Stats().Total

	if cfg.ConfirmDelete && !*yes {
		prompt := fmt.Sprintf("Delete %s %q and %d subtask(s)? [y/N] ", p.String(), text, nested)
		if !confirm(stdin, stdout, prompt) {
			fmt.Fprintln(stdout, "Cancelled.")
			return nil
		}
	}

	if err := store.DeleteTask(p); err != nil {
		return reportSave(err)
	}
	fmt.Fprintf(stdout, "Deleted %s %s\n", Cyan(p.String()), text)
	return nil
}

// lsCommand prints the tree with dotted labels.
func lsCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("tasknest ls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	pending := fs.Bool("pending", false, "Hide finished tasks that have nothing left to do")
	depth := fs.Int("depth", 0, "Maximum depth to print (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *depth < 0 {
		return fmt.Errorf("-depth must not be negative")
	}

	store := openStore(ctx, cfg, logger, stderr)
	printTree(stdout, store.Tree(), listOptions{
		Indent:  cfg.IndentWidth,
		Depth:   *depth,
		Pending: *pending,
	})
	return nil
}

type listOptions struct {
	Indent  int
	Depth   int
	Pending bool
}

func printTree(w io.Writer, tree todo.Tree, opts listOptions) {
	stats := tree.Stats()
	if stats.Total == 0 {
		fmt.Fprintln(w, "No tasks yet.")
		return
	}

	tree.Walk(func(e todo.Entry) error {
		if opts.Pending && !hasPending(*e.Task) {
			return todo.SkipChildren
		}
		text := e.Task.Text
		if e.Task.Done {
			text = Dim(text)
		}
		fmt.Fprintf(w, "%s%s %s %s", strings.Repeat(" ", opts.Indent*e.Depth), checkbox(e.Task.Done), Cyan(e.Path.String()), text)

		if opts.Depth > 0 && e.Depth+1 >= opts.Depth {
			if hidden := todo.Tree(e.Task.Subtasks).Stats().Total; hidden > 0 {
				fmt.Fprintf(w, " %s", Dim(fmt.Sprintf("(+%d)", hidden)))
			}
			fmt.Fprintln(w)
			return todo.SkipChildren
		}
		fmt.Fprintln(w)
		return nil
	})

	fmt.Fprintf(w, "\n%s done, %s pending\n",
		Bold(fmt.Sprintf("%d/%d", stats.Done, stats.Total)),
		Bold(fmt.Sprint(stats.Pending())))
}

// hasPending reports whether the task or anything below it is unfinished.
func hasPending(t todo.Task) bool {
	return !t.Done || todo.Tree(t.Subtasks).Stats().Pending() > 0
}

// exportCommand writes the tree in another format.
func exportCommand(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("tasknest export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	formatName := fs.String("format", string(export.FormatJSON), "Output format ("+strings.Join(formatNames(), "|")+")")
	output := fs.String("o", "", "Write to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	store := openStore(ctx, cfg, logger, stderr)
	if *output == "" {
		return export.Write(stdout, store.Tree(), format)
	}

	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := export.Write(f, store.Tree(), format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	logger.Info("exported tasks", "format", format, "path", *output, "tasks", store.Stats().Total)
	return nil
}

// checkCommand validates a task file strictly. Unlike loading, any problem
// is reported and fails the command.
func checkCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasknest check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}
	path := cfg.TaskFile
	if fs.NArg() == 1 {
		path = fs.Arg(0)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read task file: %w", err)
	}

	result := todo.Validate(data)
	if !result.Valid {
		fmt.Fprintf(stdout, "%s %s\n", Red("✗"), path)
		for _, verr := range result.Errors {
			fmt.Fprintf(stdout, "  %v\n", verr)
		}
		return fmt.Errorf("%s: %d problem(s)", path, len(result.Errors))
	}

	tree, err := todo.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdout, "%s %s\n", Red("✗"), path)
		return err
	}
	stats := tree.Stats()
	fmt.Fprintf(stdout, "%s %s (%d tasks, %d done)\n", Green("✓"), path, stats.Total, stats.Done)
	return nil
}

// labelArg parses the leading task label of a command's arguments.
func labelArg(command string, args []string) (todo.Path, []string, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("%s: task position required (e.g. 1 or 2.1)", command)
	}
	p, err := todo.ParsePath(args[0])
	if err != nil {
		return nil, nil, err
	}
	return p, args[1:], nil
}

// confirm asks a yes/no question and reports whether the answer was yes.
// End of input counts as no.
func confirm(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprint(w, prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func formatNames() []string {
	formats := export.Formats()
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f))
	}
	return names
}
