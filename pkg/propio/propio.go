// Package propio writes property trees to YAML and reads them back.
//
// Values travel through Property.AsString and Property.SetAsString, so every
// kind the property package knows round-trips without a per-kind codec here.
// Import applies values by name onto an existing tree: it never creates
// properties, skips INFORMATION properties, and reports values the target's
// constraints rejected instead of failing.
package propio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agilira/go-errors"
	"gopkg.in/yaml.v3"

	"fibernav/pkg/property"
)

// Error codes raised by this package.
const (
	ErrCodeTypeMismatch = "PROPIO_TYPE_MISMATCH"
	ErrCodeParse        = "PROPIO_PARSE"
	ErrCodeIO           = "PROPIO_IO"
)

// Node is the YAML form of one property.
type Node struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Value    string `yaml:"value,omitempty"`
	Info     bool   `yaml:"info,omitempty"`
	Hidden   bool   `yaml:"hidden,omitempty"`
	Children []Node `yaml:"children,omitempty"`
}

// Report summarises an Import.
type Report struct {
	// Applied lists paths whose value was set.
	Applied []string
	// Rejected lists paths whose value failed to parse or violated a constraint.
	Rejected []string
	// Unknown lists paths present in the document but not in the tree.
	Unknown []string
}

// Export converts p and everything below it into a Node.
func Export(p property.Property) Node {
	n := Node{
		Name:   p.Name(),
		Kind:   p.Kind().String(),
		Info:   p.Purpose() == property.PurposeInformation,
		Hidden: p.Hidden(),
	}
	if g, ok := property.AsGroup(p); ok {
		for _, c := range g.Properties() {
			n.Children = append(n.Children, Export(c))
		}
		return n
	}
	n.Value = p.AsString()
	return n
}

// Marshal exports g as a YAML document.
func Marshal(g *property.Group) ([]byte, error) {
	data, err := yaml.Marshal(Export(g))
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeParse, "cannot encode property tree")
	}
	return data, nil
}

// Unmarshal parses data and applies it to g.
func Unmarshal(data []byte, g *property.Group) (Report, error) {
	var root Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Report{}, errors.Wrap(err, ErrCodeParse, "cannot decode property tree")
	}
	return Import(root, g)
}

// Import applies the children of root to the children of g, recursively.
// The names of root and g are not compared. A kind mismatch aborts the import
// with ErrCodeTypeMismatch; values already applied stay applied.
func Import(root Node, g *property.Group) (Report, error) {
	var r Report
	err := apply(root.Children, g, "", &r)
	return r, err
}

func apply(nodes []Node, g *property.Group, prefix string, r *Report) error {
	for _, n := range nodes {
		path := n.Name
		if prefix != "" {
			path = prefix + property.PathSeparator + n.Name
		}

		p, ok := g.Find(n.Name)
		if !ok {
			r.Unknown = append(r.Unknown, path)
			continue
		}
		if p.Kind().String() != n.Kind {
			return errors.New(ErrCodeTypeMismatch,
				fmt.Sprintf("property %q is %s, document has %s", path, p.Kind(), n.Kind))
		}

		if sub, isGroup := property.AsGroup(p); isGroup {
			if err := apply(n.Children, sub, path, r); err != nil {
				return err
			}
			continue
		}
		if p.Purpose() == property.PurposeInformation {
			continue
		}
		if p.SetAsString(n.Value) {
			r.Applied = append(r.Applied, path)
		} else {
			r.Rejected = append(r.Rejected, path)
		}
	}
	return nil
}

// Save writes g to path, creating parent directories.
func Save(g *property.Group, path string) error {
	data, err := Marshal(g)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, ErrCodeIO, "error creating property file directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, ErrCodeIO, fmt.Sprintf("error writing property file %s", path))
	}
	return nil
}

// Load reads path and applies it to g.
func Load(path string, g *property.Group) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, errors.Wrap(err, ErrCodeIO, fmt.Sprintf("error reading property file %s", path))
	}
	return Unmarshal(data, g)
}
