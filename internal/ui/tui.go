// Package ui provides the interactive terminal view of the task tree.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasknest/internal/todo"
)

// RunTUI runs the interactive view over store until the user quits or ctx
// is cancelled. The store is saved one final time on the way out and an
// error from that save is returned.
func RunTUI(ctx context.Context, store *todo.Store, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := NewModel(store, opts...)
	return runProgram(ctx, store, model, tea.WithAltScreen(), tea.WithContext(ctx))
}

func runProgram(ctx context.Context, store *todo.Store, model *Model, opts ...tea.ProgramOption) error {
	program := tea.NewProgram(model, opts...)
	finalModel, err := program.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}

	m, ok := finalModel.(*Model)
	if !ok || !m.Closed() {
		// Interrupted before the model could quit on its own.
		return errors.Join(err, store.Close())
	}
	if err != nil {
		return err
	}
	return m.CloseErr()
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
