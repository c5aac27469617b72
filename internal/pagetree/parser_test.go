package pagetree

import (
	"errors"
	"strings"
	"testing"
)

const sampleRaw = `[
	{"id":"a1","elType":"section","elements":[
		{"id":"b1","elType":"widget","widgetType":"heading","settings":{"title":"Hello"},"elements":[]}
	]}
]`

func TestParse_BareJSONString(t *testing.T) {
	doc, err := Parse(sampleRaw, Limits{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Nodes) != 1 {
		t.Fatalf("expected 1 top-level node, got %d", len(doc.Nodes))
	}
	sec := doc.Nodes[0]
	if sec.ID != "a1" || sec.ElementType != ElementSection {
		t.Errorf("unexpected root node: id=%q type=%q", sec.ID, sec.ElementType)
	}
	if len(sec.Children) != 1 || sec.Children[0].ID != "b1" {
		t.Fatalf("expected child b1, got %+v", sec.Children)
	}
	if got := sec.Children[0].Settings["title"]; got != "Hello" {
		t.Errorf("expected title Hello, got %v", got)
	}
	if doc.RawData != sampleRaw {
		t.Errorf("raw payload not retained")
	}
}

func TestParse_EmptyArray(t *testing.T) {
	doc, err := Parse("[]", Limits{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Nodes) != 0 {
		t.Errorf("expected zero nodes, got %d", len(doc.Nodes))
	}
}

func TestParse_StructuredInput(t *testing.T) {
	nodes := []*Node{
		{ID: "x", ElementType: ElementSection, Settings: map[string]any{"custom_key": "kept"}},
	}
	doc, err := Parse(nodes, Limits{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].ID != "x" {
		t.Fatalf("structured input not normalized: %+v", doc.Nodes)
	}
	if doc.Nodes[0].Settings["custom_key"] != "kept" {
		t.Errorf("unknown settings key dropped")
	}
}

func TestParse_EmbeddedPayloadAfterDelimiter(t *testing.T) {
	blob := "export metadata, ignore this\n" + PayloadDelimiter + "\n" + sampleRaw + "\n"
	doc, err := Parse(blob, Limits{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].ID != "a1" {
		t.Fatalf("embedded payload not located: %+v", doc.Nodes)
	}
}

func TestParse_EmbeddedPayloadAfterMarker(t *testing.T) {
	blob := "header line\npage_data: " + sampleRaw
	doc, err := Parse(blob, Limits{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(doc.Nodes))
	}
}

// Leading commentary often starts with a byte that also starts a JSON value
// (a digit in a date, a quoted title, words like "true"). The delimiter scan
// must win over the bare-JSON sniff for those blobs.
func TestParse_CommentaryLooksLikeJSON(t *testing.T) {
	blobs := []string{
		"true story about this export\n" + PayloadDelimiter + "\n" + sampleRaw,
		"2024-06-01 export\n" + PayloadDelimiter + "\n" + sampleRaw,
		"null checks passed\n" + PayloadDelimiter + "\n" + sampleRaw,
		"\"quoted title\"\npage_data: " + sampleRaw,
		"false alarm, data follows\npage_data: " + sampleRaw,
	}
	for _, blob := range blobs {
		doc, err := Parse(blob, Limits{})
		if err != nil {
			t.Errorf("blob %q: parse failed: %v", blob[:20], err)
			continue
		}
		if len(doc.Nodes) != 1 || doc.Nodes[0].ID != "a1" {
			t.Errorf("blob %q: embedded payload not located: %+v", blob[:20], doc.Nodes)
		}
	}
}

func TestParse_TrailingTextAfterPayload(t *testing.T) {
	blob := "export header\n" + PayloadDelimiter + "\n" + sampleRaw + "\nfooter notes, ignore"
	doc, err := Parse(blob, Limits{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].ID != "a1" {
		t.Fatalf("payload with trailing text not parsed: %+v", doc.Nodes)
	}
}

func TestParse_NonArrayRootNamesShape(t *testing.T) {
	cases := map[string]string{
		`{"id":"a"}`: "an object",
		`"hello"`:    "a string",
		`42`:         "a number",
		`true`:       "a boolean",
		`null`:       "null",
	}
	for input, shape := range cases {
		_, err := Parse(input, Limits{})
		if err == nil {
			t.Errorf("input %q: expected error", input)
			continue
		}
		if !errors.Is(err, ErrParse) {
			t.Errorf("input %q: expected parse error, got %v", input, err)
		}
		if !strings.Contains(err.Error(), shape) {
			t.Errorf("input %q: diagnostic should name %s, got %q", input, shape, err)
		}
	}
}

func TestParse_MalformedCarriesOffset(t *testing.T) {
	_, err := Parse(`[{"id":"a1","elType":}]`, Limits{})
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Offset < 0 {
		t.Errorf("expected offset, got %d", pe.Offset)
	}
	if pe.Snippet == "" {
		t.Errorf("expected offending snippet")
	}
}

func TestParse_ByteSizeCeiling(t *testing.T) {
	_, err := Parse(sampleRaw, Limits{MaxBytes: 10})
	if !errors.Is(err, ErrSizeLimit) {
		t.Fatalf("expected size limit error, got %v", err)
	}
}

func TestParse_NodeCountCeiling(t *testing.T) {
	_, err := Parse(sampleRaw, Limits{MaxNodes: 1})
	if !errors.Is(err, ErrSizeLimit) {
		t.Fatalf("expected size limit error, got %v", err)
	}
}

func TestParse_UnsupportedInputType(t *testing.T) {
	_, err := Parse(42, Limits{})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

// Normalization is idempotent: reparsing a serialized document yields the
// same tree.
func TestParse_SerializeRoundtrip(t *testing.T) {
	doc, err := Parse(sampleRaw, Limits{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	data, err := doc.Serialize()
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	doc2, err := Parse(string(data), Limits{})
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	data2, err := doc2.Serialize()
	if err != nil {
		t.Fatalf("reserialize failed: %v", err)
	}
	if string(data) != string(data2) {
		t.Errorf("normalization not idempotent:\n%s\n%s", data, data2)
	}
}

func TestParseToResult_SuccessIncludesIndex(t *testing.T) {
	res := ParseToResult(sampleRaw, Limits{})
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if len(res.Index) != 2 {
		t.Fatalf("expected 2 index entries, got %d", len(res.Index))
	}
	b1 := res.Index["b1"]
	if b1 == nil || b1.ParentID != "a1" {
		t.Errorf("b1 entry wrong: %+v", b1)
	}
	if len(res.DuplicateIDs) != 0 {
		t.Errorf("unexpected duplicates: %v", res.DuplicateIDs)
	}
}

func TestParseToResult_FailureIsStructured(t *testing.T) {
	res := ParseToResult(`{"not":"an array"}`, Limits{})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error == "" {
		t.Errorf("expected error message")
	}
}
