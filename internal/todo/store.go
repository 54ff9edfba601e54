package todo

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// CorruptSuffix is appended to the task file name when a malformed file is
// set aside on load.
const CorruptSuffix = ".corrupt"

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and save diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSaveHook registers fn to run after every successful save. op names
// the operation that triggered the save ("add", "toggle", "edit", "delete",
// "save").
func WithSaveHook(fn func(op string)) Option {
	return func(s *Store) {
		s.onSave = fn
	}
}

// Store owns the task tree and keeps it in sync with the task file.
// It is not safe for concurrent use.
type Store struct {
	path   string
	tree   Tree
	index  map[string]Path
	logger *log.Logger
	onSave func(op string)
}

// NewStore returns an empty store backed by the file at path. An empty path
// keeps the tree in memory only. Call Load to read the file.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		tree:   Tree{},
		index:  make(map[string]Path),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Tree returns the live tree. Callers must not modify it.
func (s *Store) Tree() Tree {
	return s.tree
}

// Stats returns total and completed task counts.
func (s *Store) Stats() Stats {
	return s.tree.Stats()
}

// Load replaces the in-memory tree with the contents of the task file.
// It never fails: a missing, empty, unreadable or malformed file yields an
// empty tree. Malformed content is copied aside first so a later save does
// not destroy it.
func (s *Store) Load() Tree {
	tree := Tree{}
	if s.path != "" {
		loaded, err := ReadFile(s.path)
		var malformed *MalformedError
		switch {
		case err == nil:
			tree = loaded
		case errors.Is(err, fs.ErrNotExist):
			s.logger.Debug("task file not found, starting empty", "path", s.path)
		case errors.As(err, &malformed):
			s.logger.Warn("task file is malformed, starting empty", "path", s.path, "err", err)
			s.setAside()
		default:
			s.logger.Warn("could not read task file, starting empty", "path", s.path, "err", err)
		}
	}

	assignIDs(tree)
	s.tree = tree
	s.reindex()
	s.logger.Debug("loaded tasks", "path", s.path, "tasks", s.tree.Stats().Total)
	return s.tree
}

func (s *Store) setAside() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	backup := s.path + CorruptSuffix
	if err := os.WriteFile(backup, data, 0644); err != nil {
		s.logger.Warn("could not back up malformed task file", "path", backup, "err", err)
		return
	}
	s.logger.Info("backed up malformed task file", "path", backup)
}

// Save writes the whole tree to the task file.
func (s *Store) Save() error {
	return s.persist("save")
}

// Close performs the final save at shutdown.
func (s *Store) Close() error {
	return s.persist("save")
}

func (s *Store) persist(op string) error {
	if s.path == "" {
		return nil
	}
	if err := WriteFile(s.path, s.tree); err != nil {
		s.logger.Warn("failed to save tasks", "path", s.path, "op", op, "err", err)
		return &PersistenceError{Path: s.path, Err: err}
	}
	s.logger.Debug("saved tasks", "path", s.path, "op", op)
	if s.onSave != nil {
		s.onSave(op)
	}
	return nil
}

// Resolve returns the task at p.
func (s *Store) Resolve(p Path) (*Task, error) {
	return s.tree.Resolve(p)
}

// ResolveParentList returns the sibling list containing the task at p.
func (s *Store) ResolveParentList(p Path) (*[]Task, error) {
	return s.tree.ResolveParentList(p)
}

// Locate returns the current path of the task with the given ID.
func (s *Store) Locate(id string) (Path, bool) {
	p, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(p), true
}

// AddTask appends a new task under parent, or to the roots when parent is
// nil. Blank text and an unresolvable parent are no-ops.
func (s *Store) AddTask(text string, parent Path) error {
	text, ok := normalizeText(text)
	if !ok {
		return nil
	}
	task := newTask(text)

	if parent == nil {
		s.tree = append(s.tree, task)
	} else {
		p, err := s.tree.Resolve(parent)
		if err != nil {
			s.logger.Debug("add: parent not found", "path", parent.String())
			return nil
		}
		if p.Subtasks == nil {
			p.Subtasks = []Task{}
		}
		p.Subtasks = append(p.Subtasks, task)
	}

	s.reindex()
	return s.persist("add")
}

// AddSubtask appends a subtask to the task at parent.
func (s *Store) AddSubtask(parent Path, text string) error {
	if parent == nil {
		return nil
	}
	return s.AddTask(text, parent)
}

// ToggleTask flips the done flag of the task at p.
func (s *Store) ToggleTask(p Path) error {
	task, err := s.tree.Resolve(p)
	if err != nil {
		s.logger.Debug("toggle: task not found", "path", p.String())
		return nil
	}
	task.Done = !task.Done
	return s.persist("toggle")
}

// EditTask replaces the text of the task at p. Blank text is a no-op.
func (s *Store) EditTask(p Path, text string) error {
	text, ok := normalizeText(text)
	if !ok {
		return nil
	}
	task, err := s.tree.Resolve(p)
	if err != nil {
		s.logger.Debug("edit: task not found", "path", p.String())
		return nil
	}
	if task.Text == text {
		return nil
	}
	task.Text = text
	return s.persist("edit")
}

// DeleteTask removes the task at p together with all of its subtasks.
func (s *Store) DeleteTask(p Path) error {
	list, err := s.tree.ResolveParentList(p)
	if err != nil {
		s.logger.Debug("delete: task not found", "path", p.String())
		return nil
	}
	idx := p[len(p)-1]
	if idx < 0 || idx >= len(*list) {
		s.logger.Debug("delete: task not found", "path", p.String())
		return nil
	}
	*list = slices.Delete(*list, idx, idx+1)

	s.reindex()
	return s.persist("delete")
}

// AddSubtaskByID appends a subtask to the task with the given ID.
func (s *Store) AddSubtaskByID(id, text string) error {
	p, ok := s.index[id]
	if !ok {
		return nil
	}
	return s.AddTask(text, p)
}

// ToggleByID flips the done flag of the task with the given ID.
func (s *Store) ToggleByID(id string) error {
	p, ok := s.index[id]
	if !ok {
		return nil
	}
	return s.ToggleTask(p)
}

// EditByID replaces the text of the task with the given ID.
func (s *Store) EditByID(id, text string) error {
	p, ok := s.index[id]
	if !ok {
		return nil
	}
	return s.EditTask(p, text)
}

// DeleteByID removes the task with the given ID and its subtree.
func (s *Store) DeleteByID(id string) error {
	p, ok := s.index[id]
	if !ok {
		return nil
	}
	return s.DeleteTask(p)
}

// reindex rebuilds the ID to path index after a structural change.
func (s *Store) reindex() {
	index := make(map[string]Path, len(s.index))
	_ = s.tree.Walk(func(e Entry) error {
		index[e.Task.ID] = e.Path
		return nil
	})
	s.index = index
}

func newTask(text string) Task {
	return Task{
		ID:       uuid.NewString(),
		Text:     text,
		Subtasks: []Task{},
	}
}

func assignIDs(list []Task) {
	for i := range list {
		if list[i].ID == "" {
			list[i].ID = uuid.NewString()
		}
		assignIDs(list[i].Subtasks)
	}
}
