package pagetree

import "sort"

// IndexEntry is the flattened metadata for one node. Node is a reference into
// the live tree, not a copy: mutations on the node are visible through the
// index.
type IndexEntry struct {
	ID          string      `json:"id"`
	ElementType ElementType `json:"elementType"`
	ParentID    string      `json:"parentId,omitempty"`
	Path        Path        `json:"path"`
	Node        *Node       `json:"data"`
}

// Index is the flattened id lookup over one Document. Every node reachable
// from the top-level list appears exactly once; nothing else does. Duplicate
// ids (legitimate after external cloning) are tracked in a side list and fail
// closed on id-only lookup.
type Index struct {
	doc    *Document
	lim    Limits
	byID   map[string][]*IndexEntry
	byNode map[*Node]*IndexEntry
}

// BuildIndex does an eager depth-first walk of the document, recording
// positional paths and parent ids. Duplicate ids are recorded, never
// rejected; cycles and budget exhaustion are.
func BuildIndex(doc *Document, lim Limits) (*Index, error) {
	lim = lim.withDefaults()
	idx := &Index{
		doc:    doc,
		lim:    lim,
		byID:   make(map[string][]*IndexEntry),
		byNode: make(map[*Node]*IndexEntry),
	}
	g := NewGuard(lim.TraversalBudget)
	for i, n := range doc.Nodes {
		if err := idx.addSubtree(n, "", Path{i}, g, ancestorSet{}); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (x *Index) addSubtree(n *Node, parentID string, path Path, g *Guard, seen ancestorSet) error {
	if !g.Step() {
		return g.Err()
	}
	if seen.contains(n) {
		return &CycleError{ID: n.ID, Reason: "node appears among its own ancestors"}
	}
	e := &IndexEntry{
		ID:          n.ID,
		ElementType: n.ElementType,
		ParentID:    parentID,
		Path:        path,
		Node:        n,
	}
	x.byID[n.ID] = append(x.byID[n.ID], e)
	x.byNode[n] = e

	child := seen.with(n)
	for i, c := range n.Children {
		if err := x.addSubtree(c, n.ID, path.Child(i), g, child); err != nil {
			return err
		}
	}
	return nil
}

// removeSubtree drops the entries for n and its whole subtree. Called after
// the node has been (or is about to be) detached, so the subtree is acyclic
// by construction; the guard still bounds the walk.
func (x *Index) removeSubtree(n *Node, g *Guard) error {
	if !g.Step() {
		return g.Err()
	}
	if e := x.byNode[n]; e != nil {
		delete(x.byNode, n)
		entries := x.byID[e.ID]
		for i, cand := range entries {
			if cand == e {
				x.byID[e.ID] = append(entries[:i], entries[i+1:]...)
				break
			}
		}
		if len(x.byID[e.ID]) == 0 {
			delete(x.byID, e.ID)
		}
	}
	for _, c := range n.Children {
		if err := x.removeSubtree(c, g); err != nil {
			return err
		}
	}
	return nil
}

// repathSubtree rewrites the recorded path (and parent id) for n and every
// descendant, rooted at the given path.
func (x *Index) repathSubtree(n *Node, parentID string, path Path, g *Guard) error {
	if !g.Step() {
		return g.Err()
	}
	if e := x.byNode[n]; e != nil {
		e.ParentID = parentID
		e.Path = path
	}
	for i, c := range n.Children {
		if err := x.repathSubtree(c, n.ID, path.Child(i), g); err != nil {
			return err
		}
	}
	return nil
}

// repathChildrenFrom recomputes paths for parent's children starting at
// position from. Only the shifted siblings and their subtrees are touched;
// the rest of the index stays as-is.
func (x *Index) repathChildrenFrom(parentID string, parentPath Path, children []*Node, from int, g *Guard) error {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(children); i++ {
		if err := x.repathSubtree(children[i], parentID, parentPath.Child(i), g); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of indexed nodes.
func (x *Index) Len() int { return len(x.byNode) }

// Entry returns the entry for a live node, or nil if the node is not in the
// document.
func (x *Index) Entry(n *Node) *IndexEntry { return x.byNode[n] }

// Entries returns an id-keyed view of the index. For a duplicated id the
// first-indexed occurrence is exposed; DuplicateIDs names which ids those
// are so the caller knows the view is lossy there.
func (x *Index) Entries() map[string]*IndexEntry {
	out := make(map[string]*IndexEntry, len(x.byID))
	for id, entries := range x.byID {
		out[id] = entries[0]
	}
	return out
}

// DuplicateIDs lists ids occurring more than once, sorted for determinism.
func (x *Index) DuplicateIDs() []string {
	var dups []string
	for id, entries := range x.byID {
		if len(entries) > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}

// HasID reports whether any indexed node carries the id.
func (x *Index) HasID(id string) bool {
	return len(x.byID[id]) > 0
}

// Document returns the document this index was built over.
func (x *Index) Document() *Document { return x.doc }
