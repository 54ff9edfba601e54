// Package todo holds the nested task tree, its path- and id-addressed
// mutations, and the task file it is persisted to.
//
// The task file (tasks_nested.json by default) is a JSON array of tasks:
//
//	[
//	  {
//	    "text": "Buy milk",
//	    "done": false,
//	    "subtasks": [
//	      {"text": "2%", "done": true, "subtasks": []}
//	    ]
//	  }
//	]
//
// There is no version tag. Hand-edited files are accepted as long as they
// match the embedded JSON Schema: "done" may be omitted (false) and
// "subtasks" may be omitted or null (empty).
//
// # Addressing
//
// A Path is a sequence of zero-based indices descending from the roots:
// Path{1, 0} is the second root's first subtask. Paths are positional and
// go stale as soon as sibling order changes. Every task also carries an
// in-memory ID that is assigned on creation and on load; the Store keeps an
// index from ID to current Path so views can hold on to a task across
// structural edits.
//
// Human-facing labels are one-based and dot separated: Path{1, 0} prints
// as "2.1" and ParsePath("2.1") returns Path{1, 0}.
//
// # Mutations
//
// Every Store mutation follows the same contract: validate, mutate in
// place, persist, return. A path or ID that no longer resolves makes the
// call a silent no-op. The only error a mutation returns is a
// *PersistenceError, after which the in-memory tree is still current.
//
// # File Format
//
// When writing task files, the package uses:
//   - 2-space indentation
//   - Trailing newline
//   - "subtasks" always present, [] when empty
package todo
