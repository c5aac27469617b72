package pagetree

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ElementType classifies a node in the page tree.
type ElementType string

const (
	ElementSection   ElementType = "section"
	ElementContainer ElementType = "container"
	ElementColumn    ElementType = "column"
	ElementWidget    ElementType = "widget"
)

// CanHaveChildren reports whether nodes of this type may hold children.
// Widgets are always leaves.
func (t ElementType) CanHaveChildren() bool {
	return t != ElementWidget
}

// Node is one element of a page tree. Settings is free-form and round-tripped
// verbatim, including keys the engine does not understand. Parent links are
// never stored on the node; they live in the index only.
type Node struct {
	ID          string         `json:"id"`
	ElementType ElementType    `json:"elType"`
	WidgetType  string         `json:"widgetType,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	Children    []*Node        `json:"elements"`
}

// Path addresses a node by child positions from the root, e.g. [0 2] is the
// third child of the first top-level node.
type Path []int

func (p Path) String() string {
	if len(p) == 0 {
		return "[]"
	}
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ".") + "]"
}

// Clone returns a deep copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Child returns a new path extended by one step. The receiver is copied, so
// sibling descents never share backing arrays.
func (p Path) Child(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// Equal reports whether two paths address the same position.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether p is a (proper or equal) prefix of q.
func (p Path) IsPrefixOf(q Path) bool {
	if len(p) > len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Document is an ordered top-level node list plus the raw payload it was
// parsed from, retained for fidelity comparison.
type Document struct {
	Nodes   []*Node
	RawData string
}

// Serialize renders the current node list back to JSON. Settings values pass
// through encoding/json untouched, so unknown keys survive the roundtrip.
func (d *Document) Serialize() ([]byte, error) {
	nodes := d.Nodes
	if nodes == nil {
		nodes = []*Node{}
	}
	return json.Marshal(nodes)
}

// CountNodes walks the tree and returns the total node count. Depth-limited
// by the guard so a malformed self-referential structure cannot hang it.
func CountNodes(nodes []*Node) int {
	total := 0
	g := NewGuard(defaultCountBudget)
	var walk func(n *Node, seen ancestorSet) bool
	walk = func(n *Node, seen ancestorSet) bool {
		if !g.Step() || seen.contains(n) {
			return false
		}
		total++
		child := seen.with(n)
		for _, c := range n.Children {
			if !walk(c, child) {
				return false
			}
		}
		return true
	}
	for _, n := range nodes {
		if !walk(n, ancestorSet{}) {
			break
		}
	}
	return total
}

const defaultCountBudget = 1_000_000

// CloneNodes deep-copies a node list, ids included. Used for structural
// replacement, where the target document takes over the source tree
// verbatim.
func CloneNodes(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = deepCopyNode(n)
	}
	return out
}

// deepCopyNode clones a node and its subtree. Ids are copied as-is; callers
// that need fresh ids (clone mutation) reassign them afterwards.
func deepCopyNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		ID:          n.ID,
		ElementType: n.ElementType,
		WidgetType:  n.WidgetType,
		Settings:    deepCopyValue(n.Settings).(map[string]any),
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = deepCopyNode(c)
		}
	}
	return out
}

// deepCopyValue copies the JSON-shaped subset of Go values (maps, slices,
// scalars). Anything else is passed through by reference.
func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopyValue(val)
		}
		return out
	default:
		return v
	}
}
