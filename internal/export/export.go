// Package export renders a task tree in formats other tools can consume.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nibzard/tasknest/internal/todo"
)

// Format identifies an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatTOML     Format = "toml"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatTOML, FormatMarkdown}
}

// ParseFormat maps a user-supplied name to a Format. "yml" and "md" are
// accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, yaml, toml or markdown)", name)
}

// Document is the top-level shape used by formats that cannot encode a bare
// list, such as TOML.
type Document struct {
	Tasks []todo.Task `toml:"tasks" yaml:"tasks"`
}

// Write encodes tree to w in the given format.
func Write(w io.Writer, tree todo.Tree, format Format) error {
	switch format {
	case FormatJSON:
		data, err := todo.Encode(tree)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatYAML:
		return writeYAML(w, tree)
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(Document{Tasks: withSubtasks(tree)}); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	case FormatMarkdown:
		return writeMarkdown(w, tree)
	}
	return fmt.Errorf("unknown export format %q", format)
}

func writeYAML(w io.Writer, tree todo.Tree) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode([]todo.Task(withSubtasks(tree))); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// writeMarkdown renders a GitHub-style checklist, two spaces per level.
func writeMarkdown(w io.Writer, tree todo.Tree) error {
	var b strings.Builder
	_ = tree.Walk(func(e todo.Entry) error {
		mark := " "
		if e.Task.Done {
			mark = "x"
		}
		fmt.Fprintf(&b, "%s- [%s] %s\n", strings.Repeat("  ", e.Depth), mark, e.Task.Text)
		return nil
	})
	_, err := io.WriteString(w, b.String())
	return err
}

// withSubtasks returns a deep copy of tree whose subtask lists are never
// nil, so encoders emit [] rather than null.
func withSubtasks(tree todo.Tree) todo.Tree {
	if tree == nil {
		return todo.Tree{}
	}
	return tree.Clone()
}
