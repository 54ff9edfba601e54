package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned by Resolve and ResolveParentList when a path does
// not address a task in the current tree.
var ErrNotFound = errors.New("task not found")

// Task is a single node of the task tree.
type Task struct {
	ID       string `json:"-" yaml:"-" toml:"-"`
	Text     string `json:"text" yaml:"text" toml:"text"`
	Done     bool   `json:"done" yaml:"done" toml:"done"`
	Subtasks []Task `json:"subtasks" yaml:"subtasks" toml:"subtasks"`
}

// MarshalJSON always emits "subtasks", using [] for an empty collection.
func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task
	p := plain(t)
	if p.Subtasks == nil {
		p.Subtasks = []Task{}
	}
	return json.Marshal(p)
}

// Tree is the ordered list of root tasks.
type Tree []Task

// Path addresses a task by its index at each level, starting at the roots.
type Path []int

// String returns the one-based dotted label for p, e.g. "2.1" for [1 0].
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx + 1)
	}
	return strings.Join(parts, ".")
}

// Parent returns the path of the enclosing task, or nil for a root.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return nil
	}
	return p[:len(p)-1 : len(p)-1]
}

// Equal reports whether p and q address the same position.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// ParsePath parses a one-based dotted label such as "2.1" into a Path.
func ParsePath(label string) (Path, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("empty task path")
	}
	parts := strings.Split(label, ".")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid task path %q: %q is not a number", label, part)
		}
		if n < 1 {
			return nil, fmt.Errorf("invalid task path %q: positions start at 1", label)
		}
		p = append(p, n-1)
	}
	return p, nil
}

// PersistenceError reports a failed write of the task file. The in-memory
// tree is unaffected.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // location in the document, e.g. [0].subtasks[1].done
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Stats summarises completion across the whole tree.
type Stats struct {
	Total int
	Done  int
}

// Pending returns the number of tasks not yet done.
func (s Stats) Pending() int {
	return s.Total - s.Done
}

// normalizeText trims text and reports whether anything is left.
func normalizeText(text string) (string, bool) {
	text = strings.TrimSpace(text)
	return text, text != ""
}
