package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MarshalJSON writes categories and needles in catalog order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := c.writeCategories(&buf, false); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML builds an ordered mapping node, since yaml.v3 sorts plain maps.
func (c *Catalog) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, cat := range c.categories {
		rules := &yaml.Node{Kind: yaml.MappingNode}
		for _, r := range cat.Rules {
			rules.Content = append(rules.Content, stringNode(r.Needle), stringNode(r.Patch))
		}
		root.Content = append(root.Content, stringNode(cat.Name), rules)
	}
	return root, nil
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// Export writes c as a replace-mode override document, so that loading the
// file back with Build reproduces the catalog exactly.
func Export(path string, c *Catalog) error {
	if c == nil {
		return fmt.Errorf("catalog is nil")
	}

	var raw bytes.Buffer
	raw.WriteString(`{"mode":"replace"`)
	if err := c.writeCategories(&raw, true); err != nil {
		return err
	}
	raw.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, raw.Bytes(), "", "    "); err != nil {
		return err
	}
	out.WriteByte('\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func (c *Catalog) writeCategories(buf *bytes.Buffer, leadingComma bool) error {
	for i, cat := range c.categories {
		if i > 0 || leadingComma {
			buf.WriteByte(',')
		}
		if err := writeString(buf, cat.Name); err != nil {
			return err
		}
		buf.WriteString(":{")
		for j, r := range cat.Rules {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, r.Needle); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeString(buf, r.Patch); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}
