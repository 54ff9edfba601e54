package ui

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nibzard/tasknest/internal/todo"
)

// mode is the interaction state of the view.
type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeAddSubtask
	modeEdit
	modeConfirmDelete
)

// reservedLines is the number of lines used by everything but task rows.
const reservedLines = 7

// row is one visible line of the tree.
type row struct {
	id       string
	path     todo.Path
	depth    int
	text     string
	done     bool
	children int
}

// Model is the bubbletea model of the task tree view. Dialogs remember the
// ID of the task they act on, so a dialog whose task disappeared does
// nothing when submitted.
type Model struct {
	store  *todo.Store
	logger *log.Logger

	keys       keyMap
	dialogKeys dialogKeys
	help       help.Model
	input      textinput.Model
	styles     styles

	indent        int
	confirmDelete bool

	rows      []row
	cursor    int
	offset    int
	collapsed map[string]bool

	mode     mode
	targetID string
	warning  string

	width, height int

	quitting bool
	closed   bool
	closeErr error
}

// NewModel returns a view over store. The store should already be loaded.
func NewModel(store *todo.Store, opts ...TUIOption) *Model {
	c := defaultTUIConfig()
	for _, opt := range opts {
		opt(c)
	}

	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 0

	m := &Model{
		store:         store,
		logger:        c.logger,
		keys:          defaultKeyMap(),
		dialogKeys:    defaultDialogKeys(),
		help:          help.New(),
		input:         input,
		styles:        defaultStyles(),
		indent:        c.indent,
		confirmDelete: c.confirmDelete,
		collapsed:     make(map[string]bool),
	}
	m.rebuild("")
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-20, 10)
		m.scrollToCursor()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, m.quit()
		}
		switch m.mode {
		case modeBrowse:
			return m.updateBrowse(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateInput(msg)
		}
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Add):
		return m, m.openInput(modeAdd, "", "")
	case key.Matches(msg, m.keys.Toggle):
		if r, ok := m.selected(); ok {
			m.apply(m.store.ToggleByID(r.id), r.id)
		}
	case key.Matches(msg, m.keys.Subtask):
		if r, ok := m.selected(); ok {
			return m, m.openInput(modeAddSubtask, r.id, "")
		}
	case key.Matches(msg, m.keys.Edit):
		if r, ok := m.selected(); ok {
			return m, m.openInput(modeEdit, r.id, r.text)
		}
	case key.Matches(msg, m.keys.Delete):
		if r, ok := m.selected(); ok {
			if m.confirmDelete {
				m.mode = modeConfirmDelete
				m.targetID = r.id
				return m, nil
			}
			m.apply(m.store.DeleteByID(r.id), "")
		}
	case key.Matches(msg, m.keys.Expand):
		if r, ok := m.selected(); ok && m.collapsed[r.id] {
			delete(m.collapsed, r.id)
			m.rebuild(r.id)
		}
	case key.Matches(msg, m.keys.Collapse):
		m.collapseSelected()
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.dialogKeys.Cancel):
		m.closeDialog()
		return m, nil
	case key.Matches(msg, m.dialogKeys.Submit):
		m.submit(m.input.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y":
		id := m.targetID
		m.closeDialog()
		m.apply(m.store.DeleteByID(id), "")
	case "n", "esc":
		m.closeDialog()
	}
	return m, nil
}

func (m *Model) submit(text string) {
	id := m.targetID
	current := ""
	if r, ok := m.selected(); ok {
		current = r.id
	}
	submitted := m.mode
	m.closeDialog()

	switch submitted {
	case modeAdd:
		before := len(m.store.Tree())
		err := m.store.AddTask(text, nil)
		if tree := m.store.Tree(); len(tree) > before {
			current = tree[len(tree)-1].ID
		}
		m.apply(err, current)
	case modeAddSubtask:
		delete(m.collapsed, id)
		m.apply(m.store.AddSubtaskByID(id, text), current)
	case modeEdit:
		m.apply(m.store.EditByID(id, text), current)
	}
}

func (m *Model) openInput(md mode, targetID, value string) tea.Cmd {
	m.mode = md
	m.targetID = targetID
	m.input.Reset()
	m.input.SetValue(value)
	m.input.CursorEnd()
	switch md {
	case modeAdd:
		m.input.Placeholder = "New task"
	case modeAddSubtask:
		m.input.Placeholder = "New subtask"
	default:
		m.input.Placeholder = ""
	}
	return m.input.Focus()
}

func (m *Model) closeDialog() {
	m.mode = modeBrowse
	m.targetID = ""
	m.input.Blur()
	m.input.Reset()
}

// apply records the outcome of a mutation and rebuilds the rows, keeping
// the cursor on keepID when it still exists.
func (m *Model) apply(err error, keepID string) {
	var persistErr *todo.PersistenceError
	switch {
	case err == nil:
		m.warning = ""
	case errors.As(err, &persistErr):
		m.warning = fmt.Sprintf("Could not save %s: %v", filepath.Base(persistErr.Path), persistErr.Err)
		m.logger.Warn("save failed", "err", err)
	default:
		m.warning = err.Error()
		m.logger.Error("mutation failed", "err", err)
	}
	m.rebuild(keepID)
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.closeErr = m.store.Close()
	m.closed = true
	if m.closeErr != nil {
		m.logger.Error("final save failed", "err", m.closeErr)
	}
	return tea.Quit
}

// Closed reports whether the model performed its final save.
func (m *Model) Closed() bool {
	return m.closed
}

// CloseErr returns the error of the final save, if any.
func (m *Model) CloseErr() error {
	return m.closeErr
}

// rebuild recomputes the visible rows from the store.
func (m *Model) rebuild(keepID string) {
	if keepID == "" {
		if r, ok := m.selected(); ok {
			keepID = r.id
		}
	}

	var rows []row
	_ = m.store.Tree().Walk(func(e todo.Entry) error {
		rows = append(rows, row{
			id:       e.Task.ID,
			path:     e.Path,
			depth:    e.Depth,
			text:     e.Task.Text,
			done:     e.Task.Done,
			children: len(e.Task.Subtasks),
		})
		if m.collapsed[e.Task.ID] {
			return todo.SkipChildren
		}
		return nil
	})
	for id := range m.collapsed {
		if _, ok := m.store.Locate(id); !ok {
			delete(m.collapsed, id)
		}
	}

	m.rows = rows
	if keepID != "" {
		for i, r := range rows {
			if r.id == keepID {
				m.cursor = i
				m.scrollToCursor()
				return
			}
		}
	}
	m.clampCursor()
}

func (m *Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scrollToCursor()
}

// collapseSelected folds the selected task, or moves to its parent when it
// is already folded or has no subtasks.
func (m *Model) collapseSelected() {
	r, ok := m.selected()
	if !ok {
		return
	}
	if r.children > 0 && !m.collapsed[r.id] {
		m.collapsed[r.id] = true
		m.rebuild(r.id)
		return
	}
	parent := r.path.Parent()
	if parent == nil {
		return
	}
	for i, candidate := range m.rows {
		if candidate.path.Equal(parent) {
			m.cursor = i
			m.scrollToCursor()
			return
		}
	}
}

func (m *Model) visibleRows() int {
	if m.height <= 0 {
		return len(m.rows)
	}
	return max(m.height-reservedLines, 1)
}

func (m *Model) scrollToCursor() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset > len(m.rows)-visible {
		m.offset = max(len(m.rows)-visible, 0)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	m.writeHeader(&b)
	m.writeRows(&b)
	m.writeDialog(&b)
	if m.warning != "" {
		b.WriteString(m.styles.Warning.Render("! "+m.warning) + "\n")
	}
	b.WriteString("\n")
	if m.mode == modeBrowse {
		b.WriteString(m.help.View(m.keys))
	} else {
		b.WriteString(m.help.View(m.dialogKeys))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) writeHeader(b *strings.Builder) {
	stats := m.store.Stats()
	b.WriteString(m.styles.Title.Render("tasknest"))
	b.WriteString("  ")
	b.WriteString(m.styles.Counts.Render(fmt.Sprintf("%d/%d done", stats.Done, stats.Total)))
	if path := m.store.Path(); path != "" {
		b.WriteString(m.styles.Counts.Render("  " + filepath.Base(path)))
	}
	b.WriteString("\n\n")
}

func (m *Model) writeRows(b *strings.Builder) {
	if len(m.rows) == 0 {
		b.WriteString(m.styles.Empty.Render("No tasks yet. Press a to add one.") + "\n")
		return
	}
	end := min(m.offset+m.visibleRows(), len(m.rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i, m.rows[i]))
		b.WriteString("\n")
	}
}

func (m *Model) renderRow(i int, r row) string {
	cursor := "  "
	if i == m.cursor {
		cursor = m.styles.Cursor.Render("> ")
	}

	fold := "  "
	if r.children > 0 {
		if m.collapsed[r.id] {
			fold = "▸ "
		} else {
			fold = "▾ "
		}
	}

	box := "[ ]"
	if r.done {
		box = "[x]"
	}

	text := r.text
	if m.collapsed[r.id] {
		text = fmt.Sprintf("%s (%d)", text, r.children)
	}
	switch {
	case r.done:
		text = m.styles.Done.Render(text)
	case i == m.cursor:
		text = m.styles.Selected.Render(text)
	}

	return fmt.Sprintf("%s%s%s%s %s %s",
		cursor,
		strings.Repeat(" ", r.depth*m.indent),
		fold,
		box,
		m.styles.Label.Render(r.path.String()),
		text,
	)
}

func (m *Model) writeDialog(b *strings.Builder) {
	var prompt string
	switch m.mode {
	case modeBrowse:
		return
	case modeAdd:
		prompt = "Add task: "
	case modeAddSubtask:
		prompt = "Add subtask to " + m.targetLabel() + ": "
	case modeEdit:
		prompt = "Edit " + m.targetLabel() + ": "
	case modeConfirmDelete:
		b.WriteString("\n")
		b.WriteString(m.styles.Prompt.Render(m.deletePrompt()))
		b.WriteString("\n")
		return
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Prompt.Render(prompt))
	b.WriteString(m.input.View())
	b.WriteString("\n")
}

func (m *Model) targetLabel() string {
	if p, ok := m.store.Locate(m.targetID); ok {
		return p.String()
	}
	return "?"
}

func (m *Model) deletePrompt() string {
	p, ok := m.store.Locate(m.targetID)
	if !ok {
		return "Task no longer exists. Press n to go back."
	}
	task, err := m.store.Resolve(p)
	if err != nil {
		return "Task no longer exists. Press n to go back."
	}
	count := todo.Tree(task.Subtasks).Stats().Total
	if count == 0 {
		return fmt.Sprintf("Delete %s %q? (y/n)", p, task.Text)
	}
	return fmt.Sprintf("Delete %s %q and %d subtask(s)? (y/n)", p, task.Text, count)
}

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	confirmDelete bool
	indent        int
	logger        *log.Logger
}

func defaultTUIConfig() *tuiConfig {
	return &tuiConfig{
		confirmDelete: true,
		indent:        2,
		logger:        log.New(io.Discard),
	}
}

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// WithConfirmDelete controls whether deletes ask for confirmation.
func WithConfirmDelete(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.confirmDelete = enabled
	}
}

// WithIndent sets the number of spaces per nesting level.
func WithIndent(width int) TUIOption {
	return func(c *tuiConfig) {
		if width > 0 {
			c.indent = width
		}
	}
}

// WithLogger sets the logger for view diagnostics.
func WithLogger(logger *log.Logger) TUIOption {
	return func(c *tuiConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
