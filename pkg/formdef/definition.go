package formdef

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/validation"
)

// Sanitizer names accepted in a field's sanitize entry.
const (
	SanitizeText = "text"
	SanitizeURL  = "url"
)

// RefineEquals requires Field to equal Other.
const RefineEquals = "equals"

// Definition describes one form.
type Definition struct {
	ID       string              `json:"id" yaml:"id"`
	Title    string              `json:"title,omitempty" yaml:"title,omitempty"`
	Rules    string              `json:"rules,omitempty" yaml:"rules,omitempty"`
	Fields   []Field             `json:"fields" yaml:"fields"`
	Steps    []Step              `json:"steps,omitempty" yaml:"steps,omitempty"`
	Schema   map[string]any      `json:"schema,omitempty" yaml:"schema,omitempty"`
	Messages validation.Messages `json:"messages,omitempty" yaml:"messages,omitempty"`
	Refine   []Refinement        `json:"refine,omitempty" yaml:"refine,omitempty"`

	// Source is the file the definition was read from.
	Source string `json:"-" yaml:"-"`
}

// Field describes a single input.
type Field struct {
	Name     string `json:"name" yaml:"name"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
	Initial  string `json:"initial,omitempty" yaml:"initial,omitempty"`
	Secret   bool   `json:"secret,omitempty" yaml:"secret,omitempty"`
	Sanitize string `json:"sanitize,omitempty" yaml:"sanitize,omitempty"`
	Help     string `json:"help,omitempty" yaml:"help,omitempty"`
}

// DisplayLabel returns Label, falling back to Name.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Name
}

// Step groups fields into one wizard page.
type Step struct {
	Name   string   `json:"name" yaml:"name"`
	Title  string   `json:"title,omitempty" yaml:"title,omitempty"`
	Fields []string `json:"fields" yaml:"fields"`
}

// Refinement is a cross-field rule applied after the schema or rule set.
type Refinement struct {
	Kind    string `json:"kind" yaml:"kind"`
	Field   string `json:"field" yaml:"field"`
	Other   string `json:"other" yaml:"other"`
	Message string `json:"message" yaml:"message"`
}

// Field returns the named field definition.
func (d Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns field names in declaration order.
func (d Definition) FieldNames() []string {
	out := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		out[i] = f.Name
	}
	return out
}

// IsWizard reports whether the definition declares steps.
func (d Definition) IsWizard() bool {
	return len(d.Steps) > 0
}

// Catalog holds definitions keyed by id.
type Catalog struct {
	defs map[string]Definition
}

// Get returns the definition registered under id.
func (c *Catalog) Get(id string) (Definition, bool) {
	if c == nil {
		return Definition{}, false
	}
	def, ok := c.defs[id]
	return def, ok
}

// IDs returns the registered ids in sorted order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether the catalog holds any definitions.
func (c *Catalog) Empty() bool {
	return c == nil || len(c.defs) == 0
}

// LoadFS walks fsys and parses every JSON or YAML file as a definition.
// A nil fsys yields an empty catalog.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	catalog := &Catalog{defs: make(map[string]Definition)}
	if fsys == nil {
		return catalog, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("formdef: read %s: %w", path, err)
		}
		def, err := Parse(data, path)
		if err != nil {
			return err
		}
		if existing, exists := catalog.defs[def.ID]; exists {
			return fmt.Errorf("formdef: duplicate definition %q (files %s and %s)", def.ID, existing.Source, path)
		}
		catalog.defs[def.ID] = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// Parse decodes a JSON or YAML definition and normalises it. source is used
// in error messages only.
func Parse(data []byte, source string) (Definition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Definition{}, fmt.Errorf("formdef: file %s is empty", source)
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		def = Definition{}
		if err := yaml.Unmarshal(data, &def); err != nil {
			return Definition{}, fmt.Errorf("formdef: parse %s: invalid JSON or YAML: %w", source, err)
		}
	}
	def.Source = source
	return normalise(def)
}

func normalise(def Definition) (Definition, error) {
	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" {
		return Definition{}, fmt.Errorf("formdef: file %s defines no id", def.Source)
	}
	if len(def.Fields) == 0 {
		return Definition{}, fmt.Errorf("formdef: definition %q (file %s) declares no fields", def.ID, def.Source)
	}

	seen := make(map[string]struct{}, len(def.Fields))
	for i := range def.Fields {
		f := &def.Fields[i]
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			return Definition{}, fmt.Errorf("formdef: definition %q (file %s) field %d has no name", def.ID, def.Source, i)
		}
		if _, dup := seen[f.Name]; dup {
			return Definition{}, fmt.Errorf("formdef: definition %q (file %s) declares field %q twice", def.ID, def.Source, f.Name)
		}
		seen[f.Name] = struct{}{}

		f.Sanitize = strings.ToLower(strings.TrimSpace(f.Sanitize))
		switch f.Sanitize {
		case "", SanitizeText, SanitizeURL:
		default:
			return Definition{}, fmt.Errorf("formdef: definition %q field %q: unknown sanitizer %q", def.ID, f.Name, f.Sanitize)
		}
	}

	for i := range def.Steps {
		step := &def.Steps[i]
		step.Name = strings.TrimSpace(step.Name)
		if step.Name == "" {
			step.Name = fmt.Sprintf("step-%d", i+1)
		}
		for j, name := range step.Fields {
			step.Fields[j] = strings.TrimSpace(name)
		}
	}

	def.Rules = strings.ToLower(strings.TrimSpace(def.Rules))
	for i := range def.Refine {
		r := &def.Refine[i]
		r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
		r.Field = strings.TrimSpace(r.Field)
		r.Other = strings.TrimSpace(r.Other)
		if r.Kind != RefineEquals {
			return Definition{}, fmt.Errorf("formdef: definition %q refinement %d: unknown kind %q", def.ID, i, r.Kind)
		}
	}
	return def, nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
