package rules

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeUpdate  Mode = "update"
	ModeReplace Mode = "replace"
)

const modeKey = "mode"

// Override is a parsed override document. Categories keep document order.
type Override struct {
	Mode       Mode
	Categories []*Category
	// Skipped lists keys whose value was not an object.
	Skipped []string
}

// ParseOverride decodes a JSON (or YAML) override document. yaml.v3 nodes
// are used instead of maps so that category and needle order survive.
func ParseOverride(data []byte) (*Override, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &OverrideError{Detail: "invalid document", Kind: ErrIO, Err: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, &OverrideError{Detail: "patch file must contain an object", Kind: ErrConfiguration}
	}
	doc := root.Content[0]

	out := &Override{Mode: ModeUpdate}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i], doc.Content[i+1]

		if key.Value == modeKey {
			mode, err := parseMode(value)
			if err != nil {
				return nil, err
			}
			out.Mode = mode
			continue
		}

		if key.Value == "" {
			return nil, &OverrideError{Detail: fmt.Sprintf("line %d: empty category name", key.Line), Kind: ErrConfiguration}
		}
		if value.Kind != yaml.MappingNode {
			out.Skipped = append(out.Skipped, key.Value)
			continue
		}

		cat, err := parseCategory(key.Value, value)
		if err != nil {
			return nil, err
		}
		out.Categories = append(out.Categories, cat)
	}
	return out, nil
}

func parseMode(n *yaml.Node) (Mode, error) {
	if n.Kind != yaml.ScalarNode {
		return "", &OverrideError{Detail: fmt.Sprintf("line %d: mode must be a string", n.Line), Kind: ErrConfiguration}
	}
	switch mode := Mode(strings.ToLower(n.Value)); mode {
	case ModeUpdate, ModeReplace:
		return mode, nil
	default:
		return "", &OverrideError{Detail: fmt.Sprintf("line %d: mode must be update|replace, got %q", n.Line, n.Value), Kind: ErrConfiguration}
	}
}

func parseCategory(name string, n *yaml.Node) (*Category, error) {
	cat := &Category{Name: name, index: map[string]int{}}
	for j := 0; j+1 < len(n.Content); j += 2 {
		needle, patch := n.Content[j], n.Content[j+1]
		// Unquoted YAML numbers and booleans are rejected too.
		if patch.Kind != yaml.ScalarNode || patch.ShortTag() != "!!str" {
			return nil, &OverrideError{
				Detail: fmt.Sprintf("line %d: patch for %s/%s must be a string", patch.Line, name, needle.Value),
				Kind:   ErrConfiguration,
			}
		}
		cat.set(needle.Value, patch.Value)
	}
	return cat, nil
}

// Merge returns a new catalog with o applied. In update mode the override's
// rules are added to (or overwrite) the existing categories; in replace mode
// the result holds the override's categories only.
func (c *Catalog) Merge(o *Override) *Catalog {
	var out *Catalog
	switch o.Mode {
	case ModeReplace:
		out = NewCatalog()
	default:
		out = c.Clone()
	}

	for _, cat := range o.Categories {
		for _, r := range cat.Rules {
			out.Set(cat.Name, r.Needle, r.Patch)
		}
		if len(cat.Rules) == 0 {
			if _, ok := out.Category(cat.Name); !ok {
				out.addCategory(&Category{Name: cat.Name, index: map[string]int{}})
			}
		}
	}
	return out
}

func withPath(err error, path string) error {
	var oe *OverrideError
	if errors.As(err, &oe) {
		oe.Path = path
	}
	return err
}
