package pagetree

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultMaxChunkBytes bounds a chunk payload when the caller does not
// configure a size.
const DefaultMaxChunkBytes = 512 << 10

// Chunk is an independently parseable slice of a document. Chunk boundaries
// fall only on top-level node boundaries; a single top-level node larger than
// the limit becomes its own chunk, flagged Oversized, rather than being split
// mid-node.
type Chunk struct {
	ChunkIndex        int     `json:"chunkIndex"`
	TotalChunks       int     `json:"totalChunks"`
	ContinuationToken string  `json:"continuationToken,omitempty"`
	Oversized         bool    `json:"oversized,omitempty"`
	Nodes             []*Node `json:"nodes"`
}

// SplitChunks partitions the document's top-level nodes into chunks whose
// serialized size stays under maxBytes. Concatenating all chunk node lists in
// order reconstructs the original top-level array exactly.
func SplitChunks(doc *Document, maxBytes int) ([]Chunk, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxChunkBytes
	}

	type sized struct {
		node  *Node
		bytes int
	}
	sizes := make([]sized, len(doc.Nodes))
	for i, n := range doc.Nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return nil, &ParseError{Offset: -1, Reason: fmt.Sprintf("serialize node %q: %s", n.ID, err)}
		}
		sizes[i] = sized{node: n, bytes: len(data)}
	}

	// Array overhead: brackets plus one comma per extra element.
	const bracketBytes = 2

	var chunks []Chunk
	var cur []*Node
	curBytes := bracketBytes
	flush := func(oversized bool) {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, Chunk{Nodes: cur, Oversized: oversized})
		cur = nil
		curBytes = bracketBytes
	}

	for _, s := range sizes {
		nodeCost := s.bytes
		if len(cur) > 0 {
			nodeCost++ // comma
		}
		if s.bytes+bracketBytes > maxBytes {
			// Oversized node: emit alone rather than splitting mid-node.
			flush(false)
			cur = []*Node{s.node}
			flush(true)
			continue
		}
		if curBytes+nodeCost > maxBytes {
			flush(false)
			nodeCost = s.bytes
		}
		cur = append(cur, s.node)
		curBytes += nodeCost
	}
	flush(false)

	if len(chunks) == 0 {
		chunks = []Chunk{{Nodes: []*Node{}}}
	}

	next := 0
	for i := range chunks {
		chunks[i].ChunkIndex = i
		chunks[i].TotalChunks = len(chunks)
		next += len(chunks[i].Nodes)
		if i < len(chunks)-1 {
			chunks[i].ContinuationToken = encodeContinuation(i+1, next)
		}
	}
	return chunks, nil
}

// ResumeSplit re-runs the split and returns the chunks from the token's
// position onward. Chunk indexes and totals are identical to a full split,
// so a resumed transfer is indistinguishable from a continued one.
func ResumeSplit(doc *Document, maxBytes int, token string) ([]Chunk, error) {
	chunkIdx, _, err := decodeContinuation(token)
	if err != nil {
		return nil, err
	}
	chunks, err := SplitChunks(doc, maxBytes)
	if err != nil {
		return nil, err
	}
	if chunkIdx < 0 || chunkIdx >= len(chunks) {
		return nil, &ParseError{Offset: -1, Reason: fmt.Sprintf("continuation token out of range: chunk %d of %d", chunkIdx, len(chunks))}
	}
	return chunks[chunkIdx:], nil
}

const continuationPrefix = "ptc1"

func encodeContinuation(chunkIdx, nodeIdx int) string {
	raw := fmt.Sprintf("%s:%d:%d", continuationPrefix, chunkIdx, nodeIdx)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeContinuation(token string) (chunkIdx, nodeIdx int, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, 0, &ParseError{Offset: -1, Reason: "malformed continuation token"}
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 || parts[0] != continuationPrefix {
		return 0, 0, &ParseError{Offset: -1, Reason: "malformed continuation token"}
	}
	chunkIdx, err1 := strconv.Atoi(parts[1])
	nodeIdx, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return 0, 0, &ParseError{Offset: -1, Reason: "malformed continuation token"}
	}
	return chunkIdx, nodeIdx, nil
}

// StructureEntry is the lightweight browsing view of one node: position and
// shape, no settings.
type StructureEntry struct {
	ID          string      `json:"id"`
	ElementType ElementType `json:"elementType"`
	WidgetType  string      `json:"widgetType,omitempty"`
	Path        Path        `json:"path"`
	ChildCount  int         `json:"childCount"`
}

// StructureSummary returns every node's structural metadata in document
// order, omitting settings entirely.
func (x *Index) StructureSummary() []StructureEntry {
	out := make([]StructureEntry, 0, x.Len())
	for e := range x.All() {
		out = append(out, StructureEntry{
			ID:          e.ID,
			ElementType: e.ElementType,
			WidgetType:  e.Node.WidgetType,
			Path:        e.Path,
			ChildCount:  len(e.Node.Children),
		})
	}
	return out
}
