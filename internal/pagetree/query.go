package pagetree

import "iter"

// FindByID resolves a node by id. Fails closed with ErrAmbiguousID when the
// id is duplicated; callers must fall back to a path in that case.
func (x *Index) FindByID(id string) (*IndexEntry, error) {
	entries := x.byID[id]
	switch len(entries) {
	case 0:
		return nil, &RefError{Kind: ErrNotFound, ID: id}
	case 1:
		return entries[0], nil
	default:
		return nil, &RefError{Kind: ErrAmbiguousID, ID: id}
	}
}

// FindByPath resolves a node by its positional path in O(depth). Paths are
// always unambiguous.
func (x *Index) FindByPath(p Path) (*IndexEntry, error) {
	if len(p) == 0 {
		return nil, &RefError{Kind: ErrNotFound, Path: p}
	}
	siblings := x.doc.Nodes
	var node *Node
	for _, step := range p {
		if step < 0 || step >= len(siblings) {
			return nil, &RefError{Kind: ErrNotFound, Path: p}
		}
		node = siblings[step]
		siblings = node.Children
	}
	e := x.byNode[node]
	if e == nil {
		// Path resolved through the tree but the node is unindexed: the
		// index is stale relative to the tree.
		return nil, &RefError{Kind: ErrNotFound, Path: p}
	}
	return e, nil
}

// NodesByType yields entries of the given element type in document order.
// The sequence is lazy and restartable: each range statement walks the tree
// afresh.
func (x *Index) NodesByType(t ElementType) iter.Seq[*IndexEntry] {
	return x.matching(func(n *Node) bool {
		return n.ElementType == t
	})
}

// WidgetsByType yields widget entries with the given widget type in document
// order.
func (x *Index) WidgetsByType(widgetType string) iter.Seq[*IndexEntry] {
	return x.matching(func(n *Node) bool {
		return n.ElementType == ElementWidget && n.WidgetType == widgetType
	})
}

// All yields every indexed entry in document order.
func (x *Index) All() iter.Seq[*IndexEntry] {
	return x.matching(func(*Node) bool { return true })
}

func (x *Index) matching(pred func(*Node) bool) iter.Seq[*IndexEntry] {
	return func(yield func(*IndexEntry) bool) {
		g := NewGuard(x.lim.TraversalBudget)
		var walk func(n *Node) bool
		walk = func(n *Node) bool {
			if !g.Step() {
				return false
			}
			if pred(n) {
				if e := x.byNode[n]; e != nil && !yield(e) {
					return false
				}
			}
			for _, c := range n.Children {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		for _, n := range x.doc.Nodes {
			if !walk(n) {
				return
			}
		}
	}
}
