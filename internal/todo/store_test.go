package todo

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var ignoreIDs = cmpopts.IgnoreFields(Task{}, "ID")

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "tasks.json"))
	s.Load()
	return s
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	mustNoErr(t, s.AddTask("Groceries", nil))
	mustNoErr(t, s.AddTask("Milk", Path{0}))
	mustNoErr(t, s.AddTask("Bread", Path{0}))
	mustNoErr(t, s.AddTask("Sourdough", Path{0, 1}))
	mustNoErr(t, s.AddTask("Taxes", nil))
	return s
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScenarioBuyMilk(t *testing.T) {
	s := newTestStore(t)

	mustNoErr(t, s.AddTask("Buy milk", nil))
	want := Tree{{Text: "Buy milk", Done: false, Subtasks: []Task{}}}
	if diff := cmp.Diff(want, s.Tree(), ignoreIDs); diff != "" {
		t.Fatalf("after add root (-want +got):\n%s", diff)
	}

	mustNoErr(t, s.AddTask("2%", Path{0}))
	wantSub := []Task{{Text: "2%", Done: false, Subtasks: []Task{}}}
	if diff := cmp.Diff(wantSub, s.Tree()[0].Subtasks, ignoreIDs); diff != "" {
		t.Fatalf("after add subtask (-want +got):\n%s", diff)
	}

	mustNoErr(t, s.ToggleTask(Path{0, 0}))
	if !s.Tree()[0].Subtasks[0].Done {
		t.Fatalf("subtask not marked done after toggle")
	}

	mustNoErr(t, s.DeleteTask(Path{0}))
	if len(s.Tree()) != 0 {
		t.Fatalf("tree not empty after deleting root: %+v", s.Tree())
	}

	reloaded := NewStore(s.Path())
	if got := reloaded.Load(); len(got) != 0 {
		t.Errorf("persisted tree not empty: %+v", got)
	}
}

func TestScenarioStalePath(t *testing.T) {
	s := newTestStore(t)
	mustNoErr(t, s.AddTask("Only", nil))

	if _, err := s.Resolve(Path{5}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve([5]): got %v, want ErrNotFound", err)
	}

	before := s.Tree().Clone()
	mustNoErr(t, s.ToggleTask(Path{5}))
	if diff := cmp.Diff(before, s.Tree()); diff != "" {
		t.Errorf("ToggleTask([5]) changed the tree (-before +after):\n%s", diff)
	}
}

func TestAddTaskRejectsBlankText(t *testing.T) {
	s := seededStore(t)
	before := s.Tree().Clone()

	for _, text := range []string{"", "   ", "\t\n"} {
		mustNoErr(t, s.AddTask(text, nil))
		mustNoErr(t, s.AddTask(text, Path{0}))
	}
	if diff := cmp.Diff(before, s.Tree()); diff != "" {
		t.Errorf("blank add changed the tree (-before +after):\n%s", diff)
	}
}

func TestAddTaskTrimsText(t *testing.T) {
	s := newTestStore(t)
	mustNoErr(t, s.AddTask("  padded  ", nil))
	if got := s.Tree()[0].Text; got != "padded" {
		t.Errorf("Text: got %q, want %q", got, "padded")
	}
}

func TestAddTaskMissingParentIsNoop(t *testing.T) {
	s := seededStore(t)
	before := s.Tree().Clone()

	mustNoErr(t, s.AddTask("orphan", Path{9}))
	mustNoErr(t, s.AddTask("orphan", Path{}))
	mustNoErr(t, s.AddSubtask(nil, "orphan"))
	if diff := cmp.Diff(before, s.Tree()); diff != "" {
		t.Errorf("add under missing parent changed the tree (-before +after):\n%s", diff)
	}
}

func TestAddTaskInitializesMissingSubtasks(t *testing.T) {
	s := NewStore("")
	s.tree = Tree{{ID: "a", Text: "legacy"}}
	s.reindex()

	mustNoErr(t, s.AddSubtask(Path{0}, "child"))
	if len(s.Tree()[0].Subtasks) != 1 {
		t.Fatalf("subtask not appended: %+v", s.Tree())
	}
}

func TestEditTask(t *testing.T) {
	s := seededStore(t)

	mustNoErr(t, s.EditTask(Path{0, 1}, "  Rye bread "))
	if got := s.Tree()[0].Subtasks[1].Text; got != "Rye bread" {
		t.Errorf("Text: got %q, want %q", got, "Rye bread")
	}

	before := s.Tree().Clone()
	mustNoErr(t, s.EditTask(Path{0, 1}, "  "))
	mustNoErr(t, s.EditTask(Path{0, 7}, "ghost"))
	if diff := cmp.Diff(before, s.Tree()); diff != "" {
		t.Errorf("rejected edit changed the tree (-before +after):\n%s", diff)
	}
}

func TestToggleIsInvolution(t *testing.T) {
	s := seededStore(t)
	for _, e := range s.Tree().Flatten() {
		original := e.Task.Done
		mustNoErr(t, s.ToggleTask(e.Path))
		task, _ := s.Resolve(e.Path)
		if task.Done == original {
			t.Errorf("ToggleTask(%v) did not flip done", e.Path)
		}
		mustNoErr(t, s.ToggleTask(e.Path))
		task, _ = s.Resolve(e.Path)
		if task.Done != original {
			t.Errorf("ToggleTask(%v) twice: got %v, want %v", e.Path, task.Done, original)
		}
	}
}

func TestDeleteTaskRemovesExactlyOneSubtree(t *testing.T) {
	s := seededStore(t)

	mustNoErr(t, s.DeleteTask(Path{0, 1}))

	want := Tree{
		{Text: "Groceries", Subtasks: []Task{
			{Text: "Milk", Subtasks: []Task{}},
		}},
		{Text: "Taxes", Subtasks: []Task{}},
	}
	if diff := cmp.Diff(want, s.Tree(), ignoreIDs); diff != "" {
		t.Errorf("after delete (-want +got):\n%s", diff)
	}
}

func TestDeleteTaskInvalidPaths(t *testing.T) {
	s := seededStore(t)
	before := s.Tree().Clone()

	for _, p := range []Path{nil, {}, {2}, {0, 5}, {1, 0}, {0, -1}} {
		mustNoErr(t, s.DeleteTask(p))
	}
	if diff := cmp.Diff(before, s.Tree()); diff != "" {
		t.Errorf("invalid delete changed the tree (-before +after):\n%s", diff)
	}
}

func TestStalePathAfterDeletion(t *testing.T) {
	s := newTestStore(t)
	mustNoErr(t, s.AddTask("a", nil))
	mustNoErr(t, s.AddTask("b", nil))

	// A view that rendered [1] for "b" deletes "a" first; [1] is now stale.
	mustNoErr(t, s.DeleteTask(Path{0}))
	mustNoErr(t, s.ToggleTask(Path{1}))
	if s.Tree()[0].Done {
		t.Errorf("stale path toggled a different task")
	}
}

func TestIDAddressing(t *testing.T) {
	s := seededStore(t)

	sourdough := s.Tree()[0].Subtasks[1].Subtasks[0].ID
	milk := s.Tree()[0].Subtasks[0].ID
	if sourdough == "" || milk == "" {
		t.Fatalf("tasks were not assigned IDs")
	}

	p, ok := s.Locate(sourdough)
	if !ok || !p.Equal(Path{0, 1, 0}) {
		t.Fatalf("Locate(sourdough): got %v, %v", p, ok)
	}

	// Removing an earlier sibling shifts positions but not identities.
	mustNoErr(t, s.DeleteByID(milk))
	p, ok = s.Locate(sourdough)
	if !ok || !p.Equal(Path{0, 0, 0}) {
		t.Fatalf("Locate(sourdough) after delete: got %v, %v", p, ok)
	}

	mustNoErr(t, s.ToggleByID(sourdough))
	mustNoErr(t, s.EditByID(sourdough, "Rye"))
	mustNoErr(t, s.AddSubtaskByID(sourdough, "Slice it"))

	task, err := s.Resolve(Path{0, 0, 0})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if task.Text != "Rye" || !task.Done || len(task.Subtasks) != 1 {
		t.Errorf("unexpected task after id-addressed edits: %+v", task)
	}

	if _, ok := s.Locate(milk); ok {
		t.Errorf("deleted task is still indexed")
	}
	before := s.Tree().Clone()
	mustNoErr(t, s.ToggleByID(milk))
	mustNoErr(t, s.EditByID(milk, "x"))
	mustNoErr(t, s.AddSubtaskByID(milk, "x"))
	mustNoErr(t, s.DeleteByID(milk))
	if diff := cmp.Diff(before, s.Tree()); diff != "" {
		t.Errorf("operations on a deleted ID changed the tree (-before +after):\n%s", diff)
	}
}

func TestDeleteRemovesSubtreeFromIndex(t *testing.T) {
	s := seededStore(t)
	bread := s.Tree()[0].Subtasks[1]
	child := bread.Subtasks[0].ID

	mustNoErr(t, s.DeleteByID(bread.ID))
	if _, ok := s.Locate(child); ok {
		t.Errorf("descendant of deleted task is still indexed")
	}
}

func TestMutationsPersist(t *testing.T) {
	s := seededStore(t)
	mustNoErr(t, s.ToggleTask(Path{1}))
	mustNoErr(t, s.EditTask(Path{0, 0}, "Oat milk"))

	reloaded := NewStore(s.Path())
	got := reloaded.Load()
	if diff := cmp.Diff(s.Tree(), got, ignoreIDs); diff != "" {
		t.Errorf("reloaded tree differs (-memory +disk):\n%s", diff)
	}
}

func TestNoopDoesNotWrite(t *testing.T) {
	s := newTestStore(t)
	mustNoErr(t, s.ToggleTask(Path{0}))
	mustNoErr(t, s.AddTask(" ", nil))
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("no-op operations created the task file: %v", err)
	}
}

func TestPersistenceFailureKeepsMemory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	// The parent "directory" is a regular file, so every write fails.
	s := NewStore(filepath.Join(blocker, "tasks.json"))
	s.Load()

	err := s.AddTask("kept", nil)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("AddTask error: got %v, want *PersistenceError", err)
	}
	if perr.Path != s.Path() {
		t.Errorf("PersistenceError.Path: got %q, want %q", perr.Path, s.Path())
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("PersistenceError does not unwrap")
	}
	if len(s.Tree()) != 1 || s.Tree()[0].Text != "kept" {
		t.Errorf("in-memory tree lost after failed save: %+v", s.Tree())
	}
	if err := s.Close(); err == nil {
		t.Errorf("Close: expected the final save to fail")
	}
}

func TestSaveHook(t *testing.T) {
	var ops []string
	s := NewStore(filepath.Join(t.TempDir(), "tasks.json"), WithSaveHook(func(op string) {
		ops = append(ops, op)
	}))
	s.Load()

	mustNoErr(t, s.AddTask("a", nil))
	mustNoErr(t, s.ToggleTask(Path{0}))
	mustNoErr(t, s.EditTask(Path{0}, "b"))
	mustNoErr(t, s.ToggleTask(Path{3}))
	mustNoErr(t, s.DeleteTask(Path{0}))
	mustNoErr(t, s.Close())

	want := []string{"add", "toggle", "edit", "delete", "save"}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("hook ops (-want +got):\n%s", diff)
	}
}

func TestLoadStartsFresh(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{"missing file", nil},
		{"empty file", strPtr("")},
		{"whitespace", strPtr("  \n\t")},
		{"not json", strPtr("{{{")},
		{"object instead of array", strPtr(`{"text": "x"}`)},
		{"wrong field type", strPtr(`[{"text": 1, "done": false, "subtasks": []}]`)},
		{"missing text", strPtr(`[{"done": true}]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tasks.json")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0644); err != nil {
					t.Fatal(err)
				}
			}
			s := NewStore(path)
			tree := s.Load()
			if tree == nil || len(tree) != 0 {
				t.Errorf("Load: got %+v, want empty non-nil tree", tree)
			}
		})
	}
}

func TestLoadSetsAsideMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	content := []byte(`[{"text": 42}]`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	s := NewStore(path, WithLogger(log.New(&buf)))
	s.Load()

	backup, err := os.ReadFile(path + CorruptSuffix)
	if err != nil {
		t.Fatalf("backup not written: %v", err)
	}
	if !bytes.Equal(backup, content) {
		t.Errorf("backup content: got %q, want %q", backup, content)
	}
	if !strings.Contains(buf.String(), "malformed") {
		t.Errorf("expected a malformed-file warning, got %q", buf.String())
	}
}

func TestLoadLenientFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	content := `[
		{"text": "no done, no subtasks"},
		{"text": "null subtasks", "done": true, "subtasks": null, "priority": 3}
	]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got := NewStore(path).Load()
	want := Tree{
		{Text: "no done, no subtasks", Subtasks: []Task{}},
		{Text: "null subtasks", Done: true, Subtasks: []Task{}},
	}
	if diff := cmp.Diff(want, got, ignoreIDs); diff != "" {
		t.Errorf("lenient load (-want +got):\n%s", diff)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := seededStore(t)
	mustNoErr(t, s.ToggleTask(Path{0, 1, 0}))

	first := NewStore(s.Path())
	loaded := first.Load()
	mustNoErr(t, first.Save())

	second := NewStore(s.Path())
	if diff := cmp.Diff(loaded, second.Load(), ignoreIDs); diff != "" {
		t.Errorf("save(load()) is not idempotent (-first +second):\n%s", diff)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewStore("")
	s.Load()
	mustNoErr(t, s.AddTask("in memory", nil))
	mustNoErr(t, s.Close())
	if len(s.Tree()) != 1 {
		t.Errorf("memory store lost its task")
	}
}

func strPtr(s string) *string {
	return &s
}
