package translate

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dgallion1/pagetree/internal/pagetree"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// Status tracks whether a unit still awaits translation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusTranslated Status = "translated"
)

// Unit is one translatable text leaf with everything needed to relocate it
// later: id, positional path, widget shape, and a fingerprint of the original
// text.
type Unit struct {
	ID          string               `json:"id,omitempty"`
	Path        pagetree.Path        `json:"path"`
	ElementType pagetree.ElementType `json:"elementType"`
	WidgetType  string               `json:"widgetType"`
	Field       string               `json:"field"`
	Format      FieldFormat          `json:"format"`
	Text        string               `json:"text"`
	Fingerprint string               `json:"contentFingerprint"`
	Status      Status               `json:"translationStatus"`
}

// Extractor collects visible-text leaves from an indexed document according
// to its field map.
type Extractor struct {
	fields FieldMap
}

// NewExtractor returns an extractor over the given field map (defaults when
// nil).
func NewExtractor(fm FieldMap) *Extractor {
	if fm == nil {
		fm = DefaultFieldMap()
	}
	return &Extractor{fields: fm}
}

// Extract walks the index in document order and emits a Unit per mapped
// string field. Non-string values and unmapped widget types pass through
// untouched.
func (e *Extractor) Extract(idx *pagetree.Index) []Unit {
	units := []Unit{}
	for entry := range idx.All() {
		if entry.ElementType != pagetree.ElementWidget {
			continue
		}
		fields, ok := e.fields[entry.Node.WidgetType]
		if !ok {
			continue
		}
		for _, f := range fields {
			raw, ok := entry.Node.Settings[f.Key].(string)
			if !ok || strings.TrimSpace(raw) == "" {
				continue
			}
			units = append(units, Unit{
				ID:          entry.ID,
				Path:        entry.Path.Clone(),
				ElementType: entry.ElementType,
				WidgetType:  entry.Node.WidgetType,
				Field:       f.Key,
				Format:      f.Format,
				Text:        raw,
				Fingerprint: Fingerprint(raw, f.Format),
				Status:      StatusPending,
			})
		}
	}
	return units
}

// Fingerprint hashes the whitespace-normalized plain-text projection of a
// field value. Markup-only edits to html/markdown fields therefore do not
// change the fingerprint; text edits do. Matching is exact, never fuzzy.
func Fingerprint(text string, format FieldFormat) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(PlainText(text, format)))
}

// PlainText projects a field value to normalized plain text. html fields are
// flattened by walking the parsed fragment; markdown fields are rendered to
// HTML first, then flattened the same way.
func PlainText(text string, format FieldFormat) string {
	switch format {
	case FormatHTML:
		return normalizeSpace(flattenHTML(text))
	case FormatMarkdown:
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(text), &buf); err != nil {
			// Degrade to the raw text rather than failing extraction.
			return normalizeSpace(text)
		}
		return normalizeSpace(flattenHTML(buf.String()))
	default:
		return normalizeSpace(text)
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// flattenHTML concatenates the text nodes of an HTML fragment, skipping
// script and style subtrees.
func flattenHTML(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var buf strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return buf.String()
}
