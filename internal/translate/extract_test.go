package translate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/pagetree/internal/pagetree"
)

func indexFrom(t *testing.T, raw string) *pagetree.Index {
	t.Helper()
	doc, err := pagetree.Parse(raw, pagetree.Limits{})
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	idx, err := pagetree.BuildIndex(doc, pagetree.Limits{})
	if err != nil {
		t.Fatalf("index fixture: %v", err)
	}
	return idx
}

const translateRaw = `[
	{"id":"s1","elType":"section","elements":[
		{"id":"h1","elType":"widget","widgetType":"heading","settings":{"title":"Hello","size":"xl"},"elements":[]},
		{"id":"e1","elType":"widget","widgetType":"text-editor","settings":{"editor":"<p>Rich <b>body</b> text</p>"},"elements":[]},
		{"id":"b1","elType":"widget","widgetType":"button","settings":{"text":"Click me","link":"/go"},"elements":[]},
		{"id":"x1","elType":"widget","widgetType":"spacer","settings":{"height":20},"elements":[]}
	]}
]`

func TestExtract_MappedFieldsOnly(t *testing.T) {
	idx := indexFrom(t, translateRaw)
	units := NewExtractor(nil).Extract(idx)

	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}

	h := units[0]
	if h.ID != "h1" || h.Field != "title" || h.Text != "Hello" {
		t.Errorf("unexpected heading unit: %+v", h)
	}
	if !h.Path.Equal(pagetree.Path{0, 0}) {
		t.Errorf("heading path: expected [0,0], got %v", h.Path)
	}
	if h.Status != StatusPending {
		t.Errorf("new units should be pending, got %q", h.Status)
	}
	if h.Fingerprint == "" {
		t.Error("unit is missing a fingerprint")
	}

	for _, u := range units {
		if u.WidgetType == "spacer" {
			t.Error("unmapped widget type was extracted")
		}
		if u.Field == "size" || u.Field == "link" || u.Field == "height" {
			t.Errorf("non-translatable field %q was extracted", u.Field)
		}
	}
}

func TestExtract_SkipsEmptyAndNonString(t *testing.T) {
	raw := `[
		{"id":"h1","elType":"widget","widgetType":"heading","settings":{"title":"   "},"elements":[]},
		{"id":"h2","elType":"widget","widgetType":"heading","settings":{"title":42},"elements":[]},
		{"id":"h3","elType":"widget","widgetType":"heading","settings":{},"elements":[]}
	]`
	idx := indexFrom(t, raw)
	units := NewExtractor(nil).Extract(idx)
	if len(units) != 0 {
		t.Fatalf("expected no units, got %d: %+v", len(units), units)
	}
}

func TestFingerprint_StableAcrossMarkupEdits(t *testing.T) {
	a := Fingerprint("<p>Rich <b>body</b> text</p>", FormatHTML)
	b := Fingerprint("<div>Rich   <em>body</em>\n text</div>", FormatHTML)
	if a != b {
		t.Error("markup-only edits changed the html fingerprint")
	}

	c := Fingerprint("<p>Rich body text!</p>", FormatHTML)
	if a == c {
		t.Error("a text edit did not change the fingerprint")
	}
}

func TestFingerprint_MarkdownRendersBeforeHashing(t *testing.T) {
	a := Fingerprint("# Title\n\nSome *body* text", FormatMarkdown)
	b := Fingerprint("# Title\nSome body   text", FormatMarkdown)
	if a != b {
		t.Error("equivalent markdown content produced different fingerprints")
	}

	c := Fingerprint("# Other\n\nSome body text", FormatMarkdown)
	if a == c {
		t.Error("a markdown text edit did not change the fingerprint")
	}
}

func TestPlainText_HTMLSkipsScriptAndStyle(t *testing.T) {
	got := PlainText(`<p>Visible</p><script>alert(1)</script><style>p{}</style>`, FormatHTML)
	if got != "Visible" {
		t.Errorf("expected %q, got %q", "Visible", got)
	}
}

func TestPlainText_NormalizesWhitespace(t *testing.T) {
	got := PlainText("  Hello \t  world \n", FormatPlain)
	if got != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", got)
	}
}

func TestLoadFieldMap_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	content := strings.TrimSpace(`
heading:
  - key: title
    format: plain
  - key: subtitle
button: []
pricing-table:
  - key: plan_name
`)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fm, err := LoadFieldMap(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(fm["heading"]) != 2 {
		t.Errorf("heading override lost: %+v", fm["heading"])
	}
	if fm["heading"][1].Format != FormatPlain {
		t.Errorf("missing format should default to plain, got %q", fm["heading"][1].Format)
	}
	if _, ok := fm["button"]; ok {
		t.Error("empty field list should remove the widget type")
	}
	if len(fm["pricing-table"]) != 1 || fm["pricing-table"][0].Key != "plan_name" {
		t.Errorf("new widget type not added: %+v", fm["pricing-table"])
	}
	// Untouched defaults survive.
	if len(fm["text-editor"]) != 1 || fm["text-editor"][0].Format != FormatHTML {
		t.Errorf("default text-editor entry disturbed: %+v", fm["text-editor"])
	}
}

func TestLoadFieldMap_RejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	if err := os.WriteFile(path, []byte("heading:\n  - key: title\n    format: rtf\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFieldMap(path); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
