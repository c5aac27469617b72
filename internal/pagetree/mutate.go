package pagetree

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Ref addresses a node for mutation: by id when the id is unambiguous,
// otherwise by path. A Ref carrying both tries the id first and falls back
// to the path only if the id is duplicated. The zero Ref addresses the
// document root (valid only as an insertion/move target).
type Ref struct {
	ID   string `json:"id,omitempty"`
	Path Path   `json:"path,omitempty"`
}

// RefID addresses a node by id.
func RefID(id string) Ref { return Ref{ID: id} }

// RefPath addresses a node by positional path.
func RefPath(p Path) Ref { return Ref{Path: p} }

// IsRoot reports whether the ref addresses the document's top level.
func (r Ref) IsRoot() bool { return r.ID == "" && len(r.Path) == 0 }

func (x *Index) resolve(ref Ref) (*IndexEntry, error) {
	if ref.ID != "" {
		e, err := x.FindByID(ref.ID)
		if err == nil {
			return e, nil
		}
		if errors.Is(err, ErrAmbiguousID) && len(ref.Path) > 0 {
			return x.FindByPath(ref.Path)
		}
		return nil, err
	}
	return x.FindByPath(ref.Path)
}

// siblingsOf returns the slice holding e's node, its position in that slice,
// and the parent entry (nil at top level). The returned pointer aliases the
// live tree so callers can splice in place.
func (x *Index) siblingsOf(e *IndexEntry) (siblings *[]*Node, pos int, parent *IndexEntry, err error) {
	pos = e.Path[len(e.Path)-1]
	if len(e.Path) == 1 {
		siblings = &x.doc.Nodes
	} else {
		parent, err = x.FindByPath(e.Path[: len(e.Path)-1 : len(e.Path)-1])
		if err != nil {
			return nil, 0, nil, err
		}
		siblings = &parent.Node.Children
	}
	if pos < 0 || pos >= len(*siblings) || (*siblings)[pos] != e.Node {
		// The entry's recorded path no longer matches the tree.
		return nil, 0, nil, &RefError{Kind: ErrNotFound, ID: e.ID, Path: e.Path}
	}
	return siblings, pos, parent, nil
}

// containerOf resolves a target ref into the child slice it designates,
// failing with a structural error when the target cannot hold children.
func (x *Index) containerOf(ref Ref) (children *[]*Node, parent *IndexEntry, parentID string, parentPath Path, err error) {
	if ref.IsRoot() {
		return &x.doc.Nodes, nil, "", nil, nil
	}
	parent, err = x.resolve(ref)
	if err != nil {
		return nil, nil, "", nil, err
	}
	if !parent.ElementType.CanHaveChildren() {
		return nil, nil, "", nil, &StructuralError{
			ID:     parent.ID,
			Reason: "widget nodes cannot hold children",
		}
	}
	return &parent.Node.Children, parent, parent.ID, parent.Path, nil
}

// validateNewSubtree rejects subtrees that are internally cyclic or that
// share any node with the current document (which would alias one node under
// two parents).
func (x *Index) validateNewSubtree(n *Node, g *Guard, seen ancestorSet) error {
	if !g.Step() {
		return g.Err()
	}
	if seen.contains(n) {
		return &CycleError{ID: n.ID, Reason: "new subtree contains itself"}
	}
	if x.byNode[n] != nil {
		return &StructuralError{ID: n.ID, Reason: "node is already attached to the document"}
	}
	child := seen.with(n)
	for _, c := range n.Children {
		if err := x.validateNewSubtree(c, g, child); err != nil {
			return err
		}
	}
	return nil
}

func clampPosition(pos, count int) int {
	if pos < 0 {
		return 0
	}
	if pos > count {
		return count
	}
	return pos
}

// InsertChild attaches newNode (and its subtree) under the target at the
// given position. Position is clamped into [0, childCount]. Fails with a
// structural error when the target is a widget or when the subtree aliases
// nodes already in the document.
func (x *Index) InsertChild(parentRef Ref, newNode *Node, pos int) (*IndexEntry, error) {
	if newNode == nil {
		return nil, &StructuralError{Reason: "nil node"}
	}
	children, _, parentID, parentPath, err := x.containerOf(parentRef)
	if err != nil {
		return nil, err
	}
	g := NewGuard(x.lim.TraversalBudget)
	if err := x.validateNewSubtree(newNode, g, ancestorSet{}); err != nil {
		return nil, err
	}
	added := CountNodes([]*Node{newNode})
	if total := x.Len() + added; total > x.lim.MaxNodes {
		return nil, &SizeLimitError{What: "nodes", Got: total, Limit: x.lim.MaxNodes}
	}

	pos = clampPosition(pos, len(*children))
	// The add and the sibling repath below must both complete or the index
	// diverges from the tree; refuse up front when the budget cannot cover
	// them.
	if !g.affords(added + CountNodes((*children)[pos:])) {
		return nil, &CycleError{ID: newNode.ID, Budget: true, Reason: "traversal step budget exhausted"}
	}
	*children = append(*children, nil)
	copy((*children)[pos+1:], (*children)[pos:])
	(*children)[pos] = newNode

	if err := x.addSubtree(newNode, parentID, parentPath.Child(pos), g, ancestorSet{}); err != nil {
		return nil, err
	}
	if err := x.repathChildrenFrom(parentID, parentPath, *children, pos+1, g); err != nil {
		return nil, err
	}
	return x.byNode[newNode], nil
}

// MoveNode detaches the node and reattaches it under the new parent at the
// given position. Fails with a cycle error when the target is the node
// itself or one of its descendants. Only the moved subtree and the siblings
// shifted at the detach/attach points are repathed.
func (x *Index) MoveNode(nodeRef, newParentRef Ref, pos int) error {
	e, err := x.resolve(nodeRef)
	if err != nil {
		return err
	}
	children, target, parentID, parentPath, err := x.containerOf(newParentRef)
	if err != nil {
		return err
	}

	if target != nil {
		if target.Node == e.Node {
			return &CycleError{ID: e.ID, Reason: "cannot move a node into itself"}
		}
		if e.Path.IsPrefixOf(target.Path) {
			return &CycleError{ID: e.ID, Reason: "cannot move a node into its own descendant"}
		}
	}

	oldSiblings, oldPos, oldParent, err := x.siblingsOf(e)
	if err != nil {
		return err
	}
	oldParentID, oldParentPath := "", Path(nil)
	if oldParent != nil {
		oldParentID, oldParentPath = oldParent.ID, oldParent.Path
	}

	// All repathing must complete once the node is detached, so the budget
	// is checked against an upper bound on the repath work first.
	g := NewGuard(x.lim.TraversalBudget)
	if !g.affords(CountNodes(*oldSiblings) + CountNodes(*children)) {
		return &CycleError{ID: e.ID, Budget: true, Reason: "traversal step budget exhausted"}
	}

	// Detach.
	*oldSiblings = append((*oldSiblings)[:oldPos], (*oldSiblings)[oldPos+1:]...)

	if err := x.repathChildrenFrom(oldParentID, oldParentPath, *oldSiblings, oldPos, g); err != nil {
		return err
	}
	// The detach may have shifted the target parent itself; re-read its
	// path from the (just repathed) index entry.
	if target != nil {
		parentPath = target.Path
	}

	// The target slice may be the one we just spliced; positions are
	// clamped against its post-detach length.
	pos = clampPosition(pos, len(*children))
	*children = append(*children, nil)
	copy((*children)[pos+1:], (*children)[pos:])
	(*children)[pos] = e.Node

	if err := x.repathSubtree(e.Node, parentID, parentPath.Child(pos), g); err != nil {
		return err
	}
	return x.repathChildrenFrom(parentID, parentPath, *children, pos+1, g)
}

// CloneNode deep-copies the node's subtree, mints fresh ids for the clone and
// every descendant (disjoint from all pre-existing ids), and inserts the
// clone as the node's next sibling.
func (x *Index) CloneNode(nodeRef Ref) (*IndexEntry, error) {
	e, err := x.resolve(nodeRef)
	if err != nil {
		return nil, err
	}
	_, pos, parent, err := x.siblingsOf(e)
	if err != nil {
		return nil, err
	}

	clone := deepCopyNode(e.Node)
	g := NewGuard(x.lim.TraversalBudget)
	if err := x.reassignIDs(clone, g); err != nil {
		return nil, err
	}

	parentRef := Ref{}
	if parent != nil {
		parentRef = Ref{ID: parent.ID, Path: parent.Path}
	}
	return x.InsertChild(parentRef, clone, pos+1)
}

func (x *Index) reassignIDs(n *Node, g *Guard) error {
	if !g.Step() {
		return g.Err()
	}
	n.ID = x.freshID()
	for _, c := range n.Children {
		if err := x.reassignIDs(c, g); err != nil {
			return err
		}
	}
	return nil
}

// freshID mints a short hex id guaranteed disjoint from every id currently
// in the document.
func (x *Index) freshID() string {
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		if !x.HasID(id) {
			return id
		}
	}
}

// DeleteNode removes the node and its entire subtree from the tree and the
// index. No orphan index entries remain.
func (x *Index) DeleteNode(nodeRef Ref) error {
	e, err := x.resolve(nodeRef)
	if err != nil {
		return err
	}
	siblings, pos, parent, err := x.siblingsOf(e)
	if err != nil {
		return err
	}
	parentID, parentPath := "", Path(nil)
	if parent != nil {
		parentID, parentPath = parent.ID, parent.Path
	}

	g := NewGuard(x.lim.TraversalBudget)
	if !g.affords(CountNodes(*siblings)) {
		return &CycleError{ID: e.ID, Budget: true, Reason: "traversal step budget exhausted"}
	}

	*siblings = append((*siblings)[:pos], (*siblings)[pos+1:]...)

	if err := x.removeSubtree(e.Node, g); err != nil {
		return err
	}
	return x.repathChildrenFrom(parentID, parentPath, *siblings, pos, g)
}

// ReorderChildren rearranges the target's children to match order. Fails
// with a structural error unless order is an exact permutation of the
// current children. Children with duplicated ids must be referenced by path.
func (x *Index) ReorderChildren(parentRef Ref, order []Ref) error {
	children, _, parentID, parentPath, err := x.containerOf(parentRef)
	if err != nil {
		return err
	}
	if len(order) != len(*children) {
		return &StructuralError{
			ID:     parentID,
			Reason: "order list is not a permutation of the current children",
		}
	}

	current := make(map[*Node]bool, len(*children))
	for _, c := range *children {
		current[c] = true
	}

	reordered := make([]*Node, 0, len(order))
	for _, ref := range order {
		e, err := x.resolve(ref)
		if err != nil {
			return err
		}
		if !current[e.Node] {
			return &StructuralError{
				ID:     parentID,
				Reason: "order list is not a permutation of the current children",
			}
		}
		delete(current, e.Node)
		reordered = append(reordered, e.Node)
	}

	g := NewGuard(x.lim.TraversalBudget)
	if !g.affords(CountNodes(reordered)) {
		return &CycleError{ID: parentID, Budget: true, Reason: "traversal step budget exhausted"}
	}
	*children = reordered
	return x.repathChildrenFrom(parentID, parentPath, *children, 0, g)
}

// UpdateNodeSettings shallow-merges patch into the node's settings. Keys not
// named in the patch are preserved verbatim, including keys the engine does
// not understand.
func (x *Index) UpdateNodeSettings(nodeRef Ref, patch map[string]any) (*IndexEntry, error) {
	e, err := x.resolve(nodeRef)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return e, nil
	}
	if e.Node.Settings == nil {
		e.Node.Settings = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		e.Node.Settings[k] = v
	}
	return e, nil
}
