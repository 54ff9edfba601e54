package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MalformedError reports task file content that could not be decoded into a
// tree, either because it is not JSON or because it fails the schema.
type MalformedError struct {
	Path   string
	Errors []error
}

func (e *MalformedError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("malformed task file %s: %s", e.Path, strings.Join(msgs, "; "))
}

// ReadFile reads and decodes the task file at path. An empty or
// whitespace-only file decodes to an empty tree. Content that is not a
// schema-valid task list yields a *MalformedError.
func ReadFile(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tree{}, fmt.Errorf("read task file: %w", err)
	}
	tree, err := Decode(data)
	if err != nil {
		if me, ok := err.(*MalformedError); ok {
			me.Path = path
		}
		return Tree{}, err
	}
	return tree, nil
}

// Decode parses task file content. IDs are not assigned.
func Decode(data []byte) (Tree, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Tree{}, nil
	}

	result := Validate(data)
	if !result.Valid {
		return Tree{}, &MalformedError{Errors: result.Errors}
	}

	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return Tree{}, &MalformedError{Errors: []error{fmt.Errorf("parse task file: %w", err)}}
	}
	normalize(tree)
	if tree == nil {
		tree = Tree{}
	}
	return tree, nil
}

// Encode serialises the tree with 2-space indentation and a trailing newline.
func Encode(tree Tree) ([]byte, error) {
	if tree == nil {
		tree = Tree{}
	}
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal task file: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile overwrites path with the encoded tree, creating parent
// directories as needed.
func WriteFile(path string, tree Tree) error {
	data, err := Encode(tree)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create task dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	return nil
}

// normalize replaces missing subtask lists with empty ones.
func normalize(list []Task) {
	for i := range list {
		if list[i].Subtasks == nil {
			list[i].Subtasks = []Task{}
		}
		normalize(list[i].Subtasks)
	}
}
