// Package dataset reads and writes the hierarchy files taxoview is fed with.
//
// A dataset is a list of child -> parent relations plus a label dictionary.
// The canonical JSON form stores relations as Wikidata-style triples:
//
//	{
//	  "hierarchy": [["Q5", "P279", "Q215627"]],
//	  "labels": [{"id": "Q5", "label": "human"}]
//	}
//
// Each triple is [child, relation, parent]. Relations may also be given as
// objects under "edges" ({"child", "parent", "relation"}), and the same
// document can be written in YAML. An optional "root" overrides the entity
// that receives parentless nodes.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/ontology"
)

// Format is a dataset encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the format from a file extension. Unknown
// extensions are read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Label attaches a display name to an entity.
type Label struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Dataset is the decoded form of a hierarchy file.
type Dataset struct {
	Root      string          `json:"root,omitempty" yaml:"root,omitempty"`
	Hierarchy [][]string      `json:"hierarchy,omitempty" yaml:"hierarchy,omitempty"`
	Edges     []ontology.Edge `json:"edges,omitempty" yaml:"edges,omitempty"`
	Labels    []Label         `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Validate checks triple arity and entity ids. Missing labels are allowed.
func (d *Dataset) Validate() error {
	for i, t := range d.Hierarchy {
		if len(t) != 3 {
			return errors.New(errors.ErrCodeInvalidFormat, "hierarchy[%d]: want [child, relation, parent], got %d fields", i, len(t))
		}
		if err := validatePair(t[0], t[2]); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "hierarchy[%d]", i)
		}
	}
	for i, e := range d.Edges {
		if err := validatePair(e.Child, e.Parent); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "edges[%d]", i)
		}
	}
	for i, l := range d.Labels {
		if err := errors.ValidateEntityID(l.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "labels[%d]", i)
		}
	}
	if d.Root != "" {
		if err := errors.ValidateEntityID(d.Root); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "root")
		}
	}
	return nil
}

func validatePair(child, parent string) error {
	if err := errors.ValidateEntityID(child); err != nil {
		return fmt.Errorf("child: %w", err)
	}
	if err := errors.ValidateEntityID(parent); err != nil {
		return fmt.Errorf("parent: %w", err)
	}
	return nil
}

// EdgeList returns triples followed by object edges as ontology edges.
func (d *Dataset) EdgeList() []ontology.Edge {
	out := make([]ontology.Edge, 0, len(d.Hierarchy)+len(d.Edges))
	for _, t := range d.Hierarchy {
		if len(t) != 3 {
			continue
		}
		out = append(out, ontology.Edge{Child: t[0], Relation: t[1], Parent: t[2]})
	}
	return append(out, d.Edges...)
}

// LabelMap returns the label dictionary. Later entries win.
func (d *Dataset) LabelMap() map[string]string {
	out := make(map[string]string, len(d.Labels))
	for _, l := range d.Labels {
		out[l.ID] = l.Label
	}
	return out
}

// Graph builds the ontology graph. The dataset's Root applies unless an
// explicit option overrides it.
func (d *Dataset) Graph(opts ...ontology.Option) *ontology.Graph {
	if d.Root != "" {
		opts = append([]ontology.Option{ontology.WithRoot(d.Root)}, opts...)
	}
	return ontology.Build(d.EdgeList(), d.LabelMap(), opts...)
}

// AddLabel appends a label unless the id already has one.
func (d *Dataset) AddLabel(id, label string) {
	for _, l := range d.Labels {
		if l.ID == id {
			return
		}
	}
	d.Labels = append(d.Labels, Label{ID: id, Label: label})
}

// =============================================================================
// Dataset Serialization API
// =============================================================================

// Read decodes and validates a dataset. Read does not close r.
func Read(r io.Reader, format Format) (*Dataset, error) {
	var d Dataset
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&d); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&d); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported dataset format %q", format)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ReadFile reads a dataset from path, inferring the format from the
// extension.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, err := Read(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return d, nil
}

// Marshal encodes the dataset. JSON output is indented.
func Marshal(d *Dataset, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return json.MarshalIndent(d, "", "  ")
	}
}

// WriteFile writes the dataset to path in the format implied by its
// extension.
func WriteFile(d *Dataset, path string) error {
	data, err := Marshal(d, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// FromGraph exports a graph as a dataset with object edges. Synthetic root
// links are included, so the result rebuilds the same graph.
func FromGraph(g *ontology.Graph) *Dataset {
	d := &Dataset{Root: g.RootID(), Edges: g.Edges()}
	for _, n := range g.Nodes() {
		if n.Label != n.ID {
			d.Labels = append(d.Labels, Label{ID: n.ID, Label: n.Label})
		}
	}
	return d
}
