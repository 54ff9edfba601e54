package ui

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasknest/internal/logging"
	"github.com/nibzard/tasknest/internal/todo"
)

// newStore returns a file-backed store seeded with
//
//	1 Groceries
//	  1.1 Milk
//	  1.2 Bread
//	2 Taxes
func newStore(t *testing.T) *todo.Store {
	t.Helper()
	s := todo.NewStore(filepath.Join(t.TempDir(), "tasks_nested.json"))
	s.Load()
	for _, err := range []error{
		s.AddTask("Groceries", nil),
		s.AddTask("Taxes", nil),
		s.AddTask("Milk", todo.Path{0}),
		s.AddTask("Bread", todo.Path{0}),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	up    = tea.KeyMsg{Type: tea.KeyUp}
	left  = tea.KeyMsg{Type: tea.KeyLeft}
	right = tea.KeyMsg{Type: tea.KeyRight}
)

// press feeds msgs to the model in order and returns the last command.
func press(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func texts(m *Model) []string {
	out := make([]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.path.String() + " " + r.text
	}
	return out
}

func selectedText(t *testing.T, m *Model) string {
	t.Helper()
	r, ok := m.selected()
	if !ok {
		t.Fatal("no row selected")
	}
	return r.text
}

func TestRowsFollowWalkOrder(t *testing.T) {
	m := NewModel(newStore(t))

	want := []string{"1 Groceries", "1.1 Milk", "1.2 Bread", "2 Taxes"}
	if got := texts(m); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("rows = %v, want %v", got, want)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestCursorMovementClamps(t *testing.T) {
	m := NewModel(newStore(t))

	press(m, up)
	if m.cursor != 0 {
		t.Errorf("cursor moved above first row: %d", m.cursor)
	}
	press(m, down, runes("j"), down, down, down)
	if m.cursor != 3 {
		t.Errorf("cursor = %d, want 3", m.cursor)
	}
	press(m, runes("k"))
	if got := selectedText(t, m); got != "Bread" {
		t.Errorf("selected %q, want Bread", got)
	}
}

func TestToggleSelected(t *testing.T) {
	s := newStore(t)
	m := NewModel(s)

	press(m, down, runes("x"))

	task, err := s.Resolve(todo.Path{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if !task.Done {
		t.Error("Milk was not toggled")
	}
	if got := selectedText(t, m); got != "Milk" {
		t.Errorf("cursor moved to %q after toggle", got)
	}

	press(m, runes("x"))
	if task, _ := s.Resolve(todo.Path{0, 0}); task.Done {
		t.Error("second toggle did not restore done")
	}
}

func TestAddRootTask(t *testing.T) {
	s := newStore(t)
	m := NewModel(s)

	press(m, runes("a"))
	if m.mode != modeAdd {
		t.Fatalf("mode = %v, want add", m.mode)
	}
	press(m, runes("Buy milk"), enter)

	if m.mode != modeBrowse {
		t.Errorf("dialog still open after submit")
	}
	tree := s.Tree()
	if len(tree) != 3 || tree[2].Text != "Buy milk" {
		t.Fatalf("roots after add = %+v", tree)
	}
	if got := selectedText(t, m); got != "Buy milk" {
		t.Errorf("cursor on %q, want the new task", got)
	}
}

func TestAddIgnoresQuitKeyWhileTyping(t *testing.T) {
	s := newStore(t)
	m := NewModel(s)

	cmd := press(m, runes("a"), runes("q"), enter)
	if m.quitting {
		t.Fatal("typing q in a dialog quit the program")
	}
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("typing q in a dialog returned tea.Quit")
		}
	}
	if tree := s.Tree(); tree[len(tree)-1].Text != "q" {
		t.Errorf("last root = %q, want q", tree[len(tree)-1].Text)
	}
}

func TestAddBlankTextIsNoop(t *testing.T) {
	s := newStore(t)
	m := NewModel(s)

	press(m, runes("a"), runes("   "), enter)

	if got := s.Stats().Total; got != 4 {
		t.Errorf("task count = %d, want 4", got)
	}
	if m.warning != "" {
		t.Errorf("unexpected warning %q", m.warning)
	}
}

func TestCancelDialog(t *testing.T) {
	s := newStore(t)
	m := NewModel(s)

	press(m, runes("e"), runes(" and more"), esc)

	if m.mode != modeBrowse {
		t.Error("esc did not close the dialog")
	}
	if task, _ := s.Resolve(todo.Path{0}); task.Text != "Groceries" {
		t.Errorf("text changed to %q after cancel", task.Text)
	}
}

func TestAddSubtaskExpandsParent(t *testing.T) {
	s := newStore(t)
	m := NewModel(s)

	press(m, left) // collapse Groceries
	if len(m.rows) != 2 {
		t.Fatalf("rows after collapse = %v", texts(m))
	}

	press(m, runes("s"), runes("Eggs"), enter)

	want := []string{"1 Groceries", "1.1 Milk", "1.2 Bread", "1.3 Eggs", "2 Taxes"}
	if got := texts(m); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

func TestEditPrefillsAndReplaces(t *testing.T) {
	s := newStore(t)
	m := NewModel(s)

	press(m, down, down, runes("e"))
	if m.input.Value() != "Bread" {
		t.Errorf("edit prefilled %q, want Bread", m.input.Value())
	}
	press(m, runes(" rolls"), enter)

	if task, _ := s.Resolve(todo.Path{0, 1}); task.Text != "Bread rolls" {
		t.Errorf("text = %q, want \"Bread rolls\"", task.Text)
	}
}

func TestDialogTargetsTaskNotPosition(t *testing.T) {
	s := newStore(t)
	m := NewModel(s)

	// Open an edit dialog on Taxes, then remove Groceries behind the
	// view's back so every index shifts.
	press(m, down, down, down, runes("e"))
	if err := s.DeleteTask(todo.Path{0}); err != nil {
		t.Fatal(err)
	}
	press(m, runes(" 2024"), enter)

	task, err := s.Resolve(todo.Path{0})
	if err != nil {
		t.Fatal(err)
	}
	if task.Text != "Taxes 2024" {
		t.Errorf("edit landed on %q", task.Text)
	}
}

func TestStaleDialogIsNoop(t *testing.T) {
	s := newStore(t)
	m := NewModel(s)

	press(m, down, runes("e"))
	if err := s.DeleteTask(todo.Path{0, 0}); err != nil {
		t.Fatal(err)
	}
	before := s.Tree().Clone()
	press(m, runes("!"), enter)

	if got := s.Tree(); len(got) != len(before) || got[0].Subtasks[0].Text != "Bread" {
		t.Errorf("stale edit changed the tree: %+v", got)
	}
}

func TestDeleteWithConfirmation(t *testing.T) {
	s := newStore(t)
	m := NewModel(s, WithConfirmDelete(true))

	press(m, runes("d"))
	if m.mode != modeConfirmDelete {
		t.Fatalf("mode = %v, want confirm", m.mode)
	}
	if !strings.Contains(m.View(), "2 subtask(s)") {
		t.Errorf("confirm prompt missing subtask count:\n%s", m.View())
	}

	press(m, runes("n"))
	if s.Stats().Total != 4 {
		t.Fatal("n deleted the task")
	}

	press(m, runes("d"), runes("y"))
	want := []string{"1 Taxes"}
	if got := texts(m); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("rows = %v, want %v", got, want)
	}
	if got := selectedText(t, m); got != "Taxes" {
		t.Errorf("cursor on %q after delete", got)
	}
}

func TestDeleteConfirmIgnoresOtherKeys(t *testing.T) {
	s := newStore(t)
	m := NewModel(s)

	press(m, runes("d"), runes("q"), runes("j"))
	if m.mode != modeConfirmDelete {
		t.Errorf("mode = %v, want confirm to stay open", m.mode)
	}
	if m.quitting {
		t.Error("q quit from the confirm prompt")
	}
}

func TestDeleteWithoutConfirmation(t *testing.T) {
	s := newStore(t)
	m := NewModel(s, WithConfirmDelete(false))

	press(m, down, down, down, runes("d"))

	if s.Stats().Total != 3 {
		t.Errorf("total = %d, want 3", s.Stats().Total)
	}
	if got := selectedText(t, m); got != "Bread" {
		t.Errorf("cursor on %q after deleting the last row, want Bread", got)
	}
}

func TestCollapseAndExpand(t *testing.T) {
	m := NewModel(newStore(t))

	press(m, down, left)
	if got := selectedText(t, m); got != "Groceries" {
		t.Errorf("left on a leaf should move to its parent, got %q", got)
	}

	press(m, left)
	if len(m.rows) != 2 {
		t.Errorf("rows after collapse = %v", texts(m))
	}
	if !strings.Contains(m.View(), "Groceries (2)") {
		t.Errorf("collapsed row should show its subtask count:\n%s", m.View())
	}

	press(m, right)
	if len(m.rows) != 4 {
		t.Errorf("rows after expand = %v", texts(m))
	}
}

func TestPersistenceErrorShowsWarning(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	s := todo.NewStore(filepath.Join(blocker, "tasks.json"))
	s.Load()
	m := NewModel(s)

	press(m, runes("a"), runes("Buy milk"), enter)

	if s.Stats().Total != 1 {
		t.Errorf("task not kept in memory after failed save")
	}
	if m.warning == "" {
		t.Fatal("expected a warning after failed save")
	}
	if !strings.Contains(m.View(), "Could not save") {
		t.Errorf("warning not rendered:\n%s", m.View())
	}
}

func TestQuitSavesStore(t *testing.T) {
	s := newStore(t)
	m := NewModel(s)

	cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not return tea.Quit")
	}
	if !m.Closed() || m.CloseErr() != nil {
		t.Errorf("Closed() = %v, CloseErr() = %v", m.Closed(), m.CloseErr())
	}

	tree, err := todo.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 2 {
		t.Errorf("saved tree has %d roots, want 2", len(tree))
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestCtrlCQuitsFromDialog(t *testing.T) {
	m := NewModel(newStore(t))

	cmd := press(m, runes("a"), tea.KeyMsg{Type: tea.KeyCtrlC})
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c did not quit from a dialog")
	}
}

func TestQuitReportsFinalSaveFailure(t *testing.T) {
	dir := t.TempDir()
	s := todo.NewStore(filepath.Join(dir, "tasks.json"))
	s.Load()
	m := NewModel(s)

	// Replace the directory with a file so the final save fails.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	press(m, runes("q"))
	var persistErr *todo.PersistenceError
	if !errors.As(m.CloseErr(), &persistErr) {
		t.Errorf("CloseErr() = %v, want *todo.PersistenceError", m.CloseErr())
	}
}

func TestViewRendersTree(t *testing.T) {
	s := newStore(t)
	if err := s.ToggleTask(todo.Path{1}); err != nil {
		t.Fatal(err)
	}
	m := NewModel(s, WithIndent(4))

	view := m.View()
	for _, want := range []string{"tasknest", "1/4 done", "tasks_nested.json", "[ ]", "[x]", "1.2", "Bread"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	// Cursor gutter, four spaces of indent, then the empty fold column.
	if !strings.Contains(view, "\n        [ ] 1.1 Milk") {
		t.Errorf("subtask not indented by four spaces:\n%s", view)
	}
}

func TestViewEmptyTree(t *testing.T) {
	s := todo.NewStore("")
	s.Load()
	m := NewModel(s)

	if !strings.Contains(m.View(), "No tasks yet") {
		t.Errorf("empty view:\n%s", m.View())
	}
	// Keys that need a selection do nothing.
	press(m, runes("x"), runes("e"), runes("s"), runes("d"), left, right)
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse", m.mode)
	}
}

func TestScrollKeepsCursorVisible(t *testing.T) {
	s := todo.NewStore("")
	s.Load()
	for i := 0; i < 30; i++ {
		if err := s.AddTask("task", nil); err != nil {
			t.Fatal(err)
		}
	}
	m := NewModel(s)
	press(m, tea.WindowSizeMsg{Width: 80, Height: 12})

	for i := 0; i < 20; i++ {
		press(m, down)
	}
	visible := m.visibleRows()
	if m.cursor < m.offset || m.cursor >= m.offset+visible {
		t.Errorf("cursor %d outside window [%d, %d)", m.cursor, m.offset, m.offset+visible)
	}
	if strings.Count(m.View(), "[ ]") != visible {
		t.Errorf("rendered %d rows, want %d", strings.Count(m.View(), "[ ]"), visible)
	}
}

func TestHelpToggle(t *testing.T) {
	m := NewModel(newStore(t))
	short := m.View()

	press(m, runes("?"))
	if !m.help.ShowAll {
		t.Fatal("? did not expand help")
	}
	if len(m.View()) <= len(short) {
		t.Error("full help should be longer than short help")
	}
}

func TestLoggerReceivesSaveWarnings(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	s := todo.NewStore(filepath.Join(blocker, "tasks.json"))
	s.Load()
	m := NewModel(s, WithLogger(logging.NewTestLogger(&buf)))

	press(m, runes("a"), runes("x"), enter)
	if !strings.Contains(buf.String(), "save failed") {
		t.Errorf("log output = %q", buf.String())
	}
}
