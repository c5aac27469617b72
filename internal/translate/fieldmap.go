package translate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldFormat tells the extractor how to project a field value to plain text
// for fingerprinting.
type FieldFormat string

const (
	FormatPlain    FieldFormat = "plain"
	FormatHTML     FieldFormat = "html"
	FormatMarkdown FieldFormat = "markdown"
)

// Field names one translatable settings key on a widget type.
type Field struct {
	Key    string      `yaml:"key" json:"key"`
	Format FieldFormat `yaml:"format" json:"format"`
}

// FieldMap maps widgetType to its translatable fields. Widget types absent
// from the map are passed through unexamined; the engine interprets nothing
// else about widget semantics.
type FieldMap map[string][]Field

// DefaultFieldMap covers the stock text-bearing widgets.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		"heading":     {{Key: "title", Format: FormatPlain}},
		"text-editor": {{Key: "editor", Format: FormatHTML}},
		"button":      {{Key: "text", Format: FormatPlain}},
		"image":       {{Key: "caption", Format: FormatPlain}},
		"markdown":    {{Key: "content", Format: FormatMarkdown}},
	}
}

// LoadFieldMap reads a YAML field map and overlays it on the defaults.
// Entries in the file replace the default entry for the same widget type;
// an entry with no fields removes the widget type.
func LoadFieldMap(path string) (FieldMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field map: %w", err)
	}
	var loaded FieldMap
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse field map %s: %w", path, err)
	}

	fm := DefaultFieldMap()
	for widget, fields := range loaded {
		if len(fields) == 0 {
			delete(fm, widget)
			continue
		}
		for i, f := range fields {
			if f.Key == "" {
				return nil, fmt.Errorf("field map %s: widget %q: field %d has no key", path, widget, i)
			}
			switch f.Format {
			case "":
				fields[i].Format = FormatPlain
			case FormatPlain, FormatHTML, FormatMarkdown:
			default:
				return nil, fmt.Errorf("field map %s: widget %q: unknown format %q", path, widget, f.Format)
			}
		}
		fm[widget] = fields
	}
	return fm, nil
}
