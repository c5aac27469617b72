package pagetree

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

// chunkDoc builds a document of n top-level sections with padded settings so
// each serializes to a predictable, non-trivial size.
func chunkDoc(t *testing.T, n int) *Document {
	t.Helper()
	nodes := make([]*Node, n)
	for i := range nodes {
		nodes[i] = &Node{
			ID:          fmt.Sprintf("s%d", i),
			ElementType: ElementSection,
			Settings:    map[string]any{"pad": strings.Repeat("x", 100)},
			Children:    []*Node{},
		}
	}
	return &Document{Nodes: nodes}
}

func TestSplitChunks_ConcatenationReconstructs(t *testing.T) {
	doc := chunkDoc(t, 10)
	want, err := doc.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := SplitChunks(doc, 300)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks at this limit, got %d", len(chunks))
	}

	var all []*Node
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d carries index %d", i, c.ChunkIndex)
		}
		if c.TotalChunks != len(chunks) {
			t.Errorf("chunk %d carries total %d, want %d", i, c.TotalChunks, len(chunks))
		}
		all = append(all, c.Nodes...)
	}
	got, err := (&Document{Nodes: all}).Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Error("concatenated chunks do not reconstruct the original array")
	}
}

func TestSplitChunks_EachChunkUnderLimit(t *testing.T) {
	doc := chunkDoc(t, 10)
	const limit = 400

	chunks, err := SplitChunks(doc, limit)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	for _, c := range chunks {
		data, err := json.Marshal(c.Nodes)
		if err != nil {
			t.Fatal(err)
		}
		if !c.Oversized && len(data) > limit {
			t.Errorf("chunk %d is %d bytes, over the %d limit", c.ChunkIndex, len(data), limit)
		}
	}
}

func TestSplitChunks_WholeDocumentFits(t *testing.T) {
	doc := chunkDoc(t, 3)
	chunks, err := SplitChunks(doc, 1<<20)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(chunks))
	}
	if chunks[0].ContinuationToken != "" {
		t.Error("single chunk should not carry a continuation token")
	}
	if len(chunks[0].Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(chunks[0].Nodes))
	}
}

func TestSplitChunks_OversizedNodeStandsAlone(t *testing.T) {
	doc := chunkDoc(t, 3)
	doc.Nodes[1].Settings["pad"] = strings.Repeat("y", 2000)

	chunks, err := SplitChunks(doc, 500)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}

	found := false
	for _, c := range chunks {
		if c.Oversized {
			found = true
			if len(c.Nodes) != 1 || c.Nodes[0].ID != "s1" {
				t.Errorf("oversized chunk should hold only s1, got %d nodes", len(c.Nodes))
			}
		}
	}
	if !found {
		t.Fatal("no chunk was flagged oversized")
	}

	var all []*Node
	for _, c := range chunks {
		all = append(all, c.Nodes...)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 nodes across chunks, got %d", len(all))
	}
	for i, n := range all {
		if n != doc.Nodes[i] {
			t.Errorf("node %d out of order after oversized split", i)
		}
	}
}

func TestSplitChunks_EmptyDocument(t *testing.T) {
	chunks, err := SplitChunks(&Document{}, 100)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(chunks) != 1 || len(chunks[0].Nodes) != 0 {
		t.Fatalf("empty document should yield one empty chunk, got %+v", chunks)
	}
	if chunks[0].TotalChunks != 1 {
		t.Errorf("total chunks: expected 1, got %d", chunks[0].TotalChunks)
	}
}

func TestResumeSplit_MatchesFullSplit(t *testing.T) {
	doc := chunkDoc(t, 10)
	full, err := SplitChunks(doc, 300)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(full) < 3 {
		t.Fatalf("need at least 3 chunks for this test, got %d", len(full))
	}

	rest, err := ResumeSplit(doc, 300, full[0].ContinuationToken)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if len(rest) != len(full)-1 {
		t.Fatalf("resume returned %d chunks, want %d", len(rest), len(full)-1)
	}
	for i, c := range rest {
		want := full[i+1]
		if c.ChunkIndex != want.ChunkIndex || c.TotalChunks != want.TotalChunks {
			t.Errorf("resumed chunk %d: index %d/%d, want %d/%d",
				i, c.ChunkIndex, c.TotalChunks, want.ChunkIndex, want.TotalChunks)
		}
		if len(c.Nodes) != len(want.Nodes) {
			t.Errorf("resumed chunk %d holds %d nodes, want %d", i, len(c.Nodes), len(want.Nodes))
		}
	}
}

func TestResumeSplit_MalformedToken(t *testing.T) {
	doc := chunkDoc(t, 2)
	for _, token := range []string{"not base64 ???", "cGxhaW4", encodeContinuation(99, 0)} {
		if _, err := ResumeSplit(doc, 300, token); err == nil {
			t.Errorf("token %q: expected error", token)
		}
	}
}

func TestStructureSummary_OmitsSettings(t *testing.T) {
	idx := mustIndex(t, queryRaw)

	entries := idx.StructureSummary()
	if len(entries) != idx.Len() {
		t.Fatalf("summary has %d entries for %d nodes", len(entries), idx.Len())
	}

	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "settings") {
		t.Error("structure summary must not include settings")
	}

	first := entries[0]
	if first.ID != "s1" || !first.Path.Equal(Path{0}) {
		t.Errorf("first entry should be s1 at [0], got %q at %v", first.ID, first.Path)
	}
	for _, e := range entries {
		if e.ID == "c1" && e.ChildCount != 2 {
			t.Errorf("c1 child count: expected 2, got %d", e.ChildCount)
		}
	}
}
