package todo

import "errors"

// SkipChildren can be returned from a WalkFunc to skip the subtasks of the
// task just visited.
var SkipChildren = errors.New("skip children")

// Entry is one task as seen by a traversal.
type Entry struct {
	Path  Path
	Depth int
	Task  *Task
}

// WalkFunc is called for every task visited by Walk.
type WalkFunc func(e Entry) error

// Resolve returns the task addressed by p.
func (t Tree) Resolve(p Path) (*Task, error) {
	if len(p) == 0 {
		return nil, ErrNotFound
	}
	list := []Task(t)
	for i, idx := range p {
		if idx < 0 || idx >= len(list) {
			return nil, ErrNotFound
		}
		if i == len(p)-1 {
			return &list[idx], nil
		}
		list = list[idx].Subtasks
	}
	return nil, ErrNotFound
}

// ResolveParentList returns the sibling list that directly contains the task
// at p: the root list for a one-element path, otherwise the subtasks of the
// parent. The final index of p is not checked.
func (t *Tree) ResolveParentList(p Path) (*[]Task, error) {
	switch len(p) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return (*[]Task)(t), nil
	}
	parent, err := t.Resolve(p.Parent())
	if err != nil {
		return nil, err
	}
	return &parent.Subtasks, nil
}

// Walk visits every task in pre-order, depth first. Roots are visited at
// depth 0 with path [i]; each subtask at depth+1 with its parent's path plus
// its own index. If fn returns SkipChildren the task's subtasks are not
// visited; any other error stops the walk and is returned.
func (t Tree) Walk(fn WalkFunc) error {
	err := walkList(t, nil, 0, fn)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	return err
}

func walkList(list []Task, parent Path, depth int, fn WalkFunc) error {
	for i := range list {
		p := make(Path, len(parent)+1)
		copy(p, parent)
		p[len(parent)] = i

		err := fn(Entry{Path: p, Depth: depth, Task: &list[i]})
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		if err := walkList(list[i].Subtasks, p, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Flatten returns every task in Walk order.
func (t Tree) Flatten() []Entry {
	var entries []Entry
	_ = t.Walk(func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	return entries
}

// Stats counts all tasks and completed tasks in the tree.
func (t Tree) Stats() Stats {
	var s Stats
	_ = t.Walk(func(e Entry) error {
		s.Total++
		if e.Task.Done {
			s.Done++
		}
		return nil
	})
	return s
}

// Clone returns a deep copy of the tree, IDs included.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	return Tree(cloneList(t))
}

func cloneList(list []Task) []Task {
	out := make([]Task, len(list))
	for i, task := range list {
		out[i] = Task{
			ID:       task.ID,
			Text:     task.Text,
			Done:     task.Done,
			Subtasks: cloneList(task.Subtasks),
		}
	}
	return out
}
