package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/danmuck/structwire/internal/protocol/schema"
)

// Document describes one struct: its name and ordered fields. Values are
// optional; a document without values is a schema.
type Document struct {
	Name   string       `toml:"name" yaml:"name"`
	Fields []FieldEntry `toml:"fields" yaml:"fields"`
}

type FieldEntry struct {
	Name  string `toml:"name" yaml:"name"`
	Type  string `toml:"type" yaml:"type"`
	Value any    `toml:"value,omitempty" yaml:"value,omitempty"`
}

// LoadDocument reads a TOML document, or YAML when the extension is
// .yaml or .yml, and validates it.
func LoadDocument(path string) (Document, error) {
	var doc Document
	if err := loadFile(path, &doc); err != nil {
		return Document{}, err
	}
	if err := ValidateDocument(doc); err != nil {
		return Document{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	log.Debug().Str("path", path).Str("struct", doc.Name).Int("fields", len(doc.Fields)).Msg("config.LoadDocument")
	return doc, nil
}

func loadFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if isYAML(path) {
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		return nil
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func ValidateDocument(doc Document) error {
	if strings.TrimSpace(doc.Name) == "" {
		return fmt.Errorf("document missing name")
	}
	for i, f := range doc.Fields {
		if strings.TrimSpace(f.Type) == "" {
			return fmt.Errorf("field[%d] %q missing type", i, f.Name)
		}
		if _, err := schema.ParseType(f.Type); err != nil {
			return fmt.Errorf("field[%d] %q: %w", i, f.Name, err)
		}
	}
	s, err := doc.Schema()
	if err != nil {
		return err
	}
	return s.Validate()
}

// Schema returns the struct shape described by doc.
func (d Document) Schema() (schema.Schema, error) {
	s := schema.Schema{Name: d.Name, Fields: make([]schema.FieldSpec, len(d.Fields))}
	for i, f := range d.Fields {
		t, err := schema.ParseType(f.Type)
		if err != nil {
			return schema.Schema{}, fmt.Errorf("field[%d] %q: %w", i, f.Name, err)
		}
		s.Fields[i] = schema.FieldSpec{Name: f.Name, Type: t}
	}
	return s, nil
}

// Values returns the field values in order. Every field must carry one.
func (d Document) Values() ([]any, error) {
	values := make([]any, len(d.Fields))
	for i, f := range d.Fields {
		if f.Value == nil {
			return nil, fmt.Errorf("field[%d] %q missing value", i, f.Name)
		}
		values[i] = f.Value
	}
	return values, nil
}

// Encode builds the wire buffer for doc's values.
func (d Document) Encode() ([]byte, error) {
	s, err := d.Schema()
	if err != nil {
		return nil, err
	}
	values, err := d.Values()
	if err != nil {
		return nil, err
	}
	return schema.Encode(s, values)
}
