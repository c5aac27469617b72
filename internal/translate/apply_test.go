package translate

import (
	"testing"

	"github.com/dgallion1/pagetree/internal/pagetree"
)

func TestApply_ByIDPatchesOnlyTargetField(t *testing.T) {
	idx := indexFrom(t, translateRaw)
	a := NewApplier(nil)

	res := a.Apply(idx, []TranslatedUnit{
		{ID: "h1", Field: "title", Text: "Bonjour"},
	})
	if res.Applied != 1 || len(res.Unresolved) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	h1, err := idx.FindByID("h1")
	if err != nil {
		t.Fatal(err)
	}
	if h1.Node.Settings["title"] != "Bonjour" {
		t.Errorf("title not patched: %v", h1.Node.Settings["title"])
	}
	if h1.Node.Settings["size"] != "xl" {
		t.Errorf("unrelated setting clobbered: %v", h1.Node.Settings["size"])
	}
	b1, _ := idx.FindByID("b1")
	if b1.Node.Settings["text"] != "Click me" {
		t.Error("a unit for h1 touched b1")
	}
}

func TestApply_FieldDefaultsFromMap(t *testing.T) {
	idx := indexFrom(t, translateRaw)
	res := NewApplier(nil).Apply(idx, []TranslatedUnit{{ID: "b1", Text: "Cliquez"}})
	if res.Applied != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	b1, _ := idx.FindByID("b1")
	if b1.Node.Settings["text"] != "Cliquez" {
		t.Errorf("button text not patched: %v", b1.Node.Settings["text"])
	}
}

func TestApply_PathFallbackWhenIDMissing(t *testing.T) {
	idx := indexFrom(t, translateRaw)

	res := NewApplier(nil).Apply(idx, []TranslatedUnit{
		{ID: "gone", Path: pagetree.Path{0, 0}, Field: "title", Text: "Hallo"},
	})
	if res.Applied != 1 || len(res.Unresolved) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	h1, _ := idx.FindByID("h1")
	if h1.Node.Settings["title"] != "Hallo" {
		t.Errorf("path fallback did not patch: %v", h1.Node.Settings["title"])
	}
}

func TestApply_FingerprintFallback(t *testing.T) {
	idx := indexFrom(t, translateRaw)
	fp := Fingerprint("Hello", FormatPlain)

	// Neither the id nor the path resolves; only the fingerprint can.
	res := NewApplier(nil).Apply(idx, []TranslatedUnit{
		{ID: "gone", Path: pagetree.Path{9, 9}, WidgetType: "heading", Field: "title", Fingerprint: fp, Text: "Hola"},
	})
	if res.Applied != 1 || len(res.Unresolved) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	h1, _ := idx.FindByID("h1")
	if h1.Node.Settings["title"] != "Hola" {
		t.Errorf("fingerprint fallback did not patch: %v", h1.Node.Settings["title"])
	}
}

func TestApply_AmbiguousFingerprintFailsClosed(t *testing.T) {
	raw := `[
		{"id":"h1","elType":"widget","widgetType":"heading","settings":{"title":"Same"},"elements":[]},
		{"id":"h2","elType":"widget","widgetType":"heading","settings":{"title":"Same"},"elements":[]}
	]`
	idx := indexFrom(t, raw)
	fp := Fingerprint("Same", FormatPlain)

	res := NewApplier(nil).Apply(idx, []TranslatedUnit{
		{WidgetType: "heading", Field: "title", Fingerprint: fp, Text: "Igual"},
	})
	if res.Applied != 0 || len(res.Unresolved) != 1 {
		t.Fatalf("ambiguous fingerprint must not apply: %+v", res)
	}
	h1, _ := idx.FindByID("h1")
	if h1.Node.Settings["title"] != "Same" {
		t.Error("ambiguous fingerprint patched a node anyway")
	}
}

func TestApply_UnresolvedAccumulateWithoutAborting(t *testing.T) {
	idx := indexFrom(t, translateRaw)

	res := NewApplier(nil).Apply(idx, []TranslatedUnit{
		{ID: "missing-1", Text: "a"},
		{ID: "h1", Field: "title", Text: "Bonjour"},
		{ID: "missing-2", Text: "b"},
	})
	if res.Applied != 1 {
		t.Errorf("expected 1 applied, got %d", res.Applied)
	}
	if len(res.Unresolved) != 2 {
		t.Fatalf("expected 2 unresolved, got %d", len(res.Unresolved))
	}
	for _, u := range res.Unresolved {
		if u.Reason == "" {
			t.Error("unresolved unit carries no reason")
		}
	}
	h1, _ := idx.FindByID("h1")
	if h1.Node.Settings["title"] != "Bonjour" {
		t.Error("resolvable unit was skipped because of earlier failures")
	}
}

func TestUnitsFromMap(t *testing.T) {
	units := UnitsFromMap(map[string]string{"h1": "Bonjour", "b1": "Cliquez"})
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	for _, u := range units {
		if u.ID == "" || u.Text == "" {
			t.Errorf("incomplete unit: %+v", u)
		}
	}
}

func TestReplaceTree_CopiesSourceVerbatim(t *testing.T) {
	srcIdx := indexFrom(t, translateRaw)
	tgtIdx := indexFrom(t, `[{"id":"old","elType":"section","elements":[]}]`)
	target := tgtIdx.Document()

	idx, err := ReplaceTree(target, srcIdx.Document(), pagetree.Limits{})
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if idx.HasID("old") {
		t.Error("old tree survived the replacement")
	}
	h1, err := idx.FindByID("h1")
	if err != nil {
		t.Fatalf("source node missing after replacement: %v", err)
	}

	// The copy is deep: patching the target leaves the source untouched.
	h1.Node.Settings["title"] = "Bonjour"
	srcH1, _ := srcIdx.FindByID("h1")
	if srcH1.Node.Settings["title"] != "Hello" {
		t.Error("replacement aliases the source tree")
	}
}
