package pagetree

import (
	"errors"
	"testing"
)

const queryRaw = `[
	{"id":"s1","elType":"section","elements":[
		{"id":"c1","elType":"column","elements":[
			{"id":"w1","elType":"widget","widgetType":"heading","settings":{"title":"one"},"elements":[]},
			{"id":"w2","elType":"widget","widgetType":"button","settings":{"text":"go"},"elements":[]}
		]}
	]},
	{"id":"s2","elType":"section","elements":[
		{"id":"w3","elType":"widget","widgetType":"heading","settings":{"title":"two"},"elements":[]}
	]}
]`

func TestFindByPath_Resolves(t *testing.T) {
	idx := mustIndex(t, queryRaw)

	e, err := idx.FindByPath(Path{0, 0, 1})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if e.ID != "w2" {
		t.Errorf("expected w2, got %q", e.ID)
	}
}

func TestFindByPath_OutOfRange(t *testing.T) {
	idx := mustIndex(t, queryRaw)

	for _, p := range []Path{{5}, {0, 3}, {0, 0, 0, 0}, {-1}, {}} {
		if _, err := idx.FindByPath(p); !errors.Is(err, ErrNotFound) {
			t.Errorf("path %v: expected not-found, got %v", p, err)
		}
	}
}

func TestFindByID_NotFound(t *testing.T) {
	idx := mustIndex(t, queryRaw)
	_, err := idx.FindByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestWidgetsByType_DocumentOrder(t *testing.T) {
	idx := mustIndex(t, queryRaw)

	var ids []string
	for e := range idx.WidgetsByType("heading") {
		ids = append(ids, e.ID)
	}
	if len(ids) != 2 || ids[0] != "w1" || ids[1] != "w3" {
		t.Fatalf("expected [w1 w3] in document order, got %v", ids)
	}
}

func TestNodesByType_Restartable(t *testing.T) {
	idx := mustIndex(t, queryRaw)
	seq := idx.NodesByType(ElementSection)

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	if first != 2 || second != 2 {
		t.Errorf("sequence not restartable: first=%d second=%d", first, second)
	}
}

func TestNodesByType_EarlyBreak(t *testing.T) {
	idx := mustIndex(t, queryRaw)

	count := 0
	for range idx.All() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("expected early break after 2, got %d", count)
	}
}
