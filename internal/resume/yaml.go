package resume

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	maxYAMLDepth   = 64
	maxYAMLScalars = 10000
)

var ErrYAMLTooComplex = errors.New("yaml resume is nested too deeply or expands too far")

// Top-level rendercv keys that hold layout settings rather than resume content.
var ignoredYAMLKeys = map[string]bool{
	"design":            true,
	"locale":            true,
	"locale_catalog":    true,
	"rendercv_settings": true,
}

// extractYAMLText flattens a YAML CV (rendercv layout or any other shape)
// into one line per scalar value, in document order.
func extractYAMLText(data []byte) (string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return "", fmt.Errorf("failed to parse yaml resume: %w", err)
	}

	w := &yamlWalker{expanding: make(map[*yaml.Node]bool)}
	if err := w.walk(&root, 0); err != nil {
		return "", fmt.Errorf("failed to flatten yaml resume: %w", err)
	}
	return strings.Join(w.lines, "\n"), nil
}

// yamlWalker bounds alias expansion. An alias that points back into a node
// still being walked is skipped.
type yamlWalker struct {
	lines     []string
	scalars   int
	expanding map[*yaml.Node]bool
}

func (w *yamlWalker) walk(n *yaml.Node, depth int) error {
	if depth > maxYAMLDepth {
		return fmt.Errorf("%w: depth exceeds %d", ErrYAMLTooComplex, maxYAMLDepth)
	}
	if w.expanding[n] {
		return nil
	}
	w.expanding[n] = true
	defer delete(w.expanding, n)

	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			if err := w.walk(c, depth+1); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if depth == 1 && ignoredYAMLKeys[key.Value] {
				continue
			}
			if err := w.walk(value, depth+1); err != nil {
				return err
			}
		}
	case yaml.AliasNode:
		if n.Alias != nil {
			return w.walk(n.Alias, depth+1)
		}
	case yaml.ScalarNode:
		w.scalars++
		if w.scalars > maxYAMLScalars {
			return fmt.Errorf("%w: more than %d values", ErrYAMLTooComplex, maxYAMLScalars)
		}
		if v := strings.TrimSpace(n.Value); v != "" && n.Tag != "!!null" {
			w.lines = append(w.lines, v)
		}
	}
	return nil
}
