package pagetree

import "context"

// Guard bounds recursive walks. It carries a shared step budget for the whole
// walk; the ancestor set is NOT stored here. Each descent carries its own
// copy (see ancestorSet), so sibling subtrees never observe each other's
// visited state. Sharing one mutable visited set across sibling calls is the
// failure mode this type exists to prevent.
type Guard struct {
	remaining int
	ctx       context.Context
}

// NewGuard returns a guard with the given step budget. A budget <= 0 selects
// the default.
func NewGuard(budget int) *Guard {
	if budget <= 0 {
		budget = DefaultTraversalBudget
	}
	return &Guard{remaining: budget, ctx: context.Background()}
}

// NewGuardContext is NewGuard with cancellation: Step returns false once ctx
// is done, even with budget remaining.
func NewGuardContext(ctx context.Context, budget int) *Guard {
	g := NewGuard(budget)
	if ctx != nil {
		g.ctx = ctx
	}
	return g
}

// DefaultTraversalBudget bounds a single walk when the caller does not
// configure one. Generous enough for any real page; small enough to stop a
// runaway structure quickly.
const DefaultTraversalBudget = 100_000

// Step consumes one unit of budget. Returns false when the budget is
// exhausted or the context is cancelled; walks must unwind immediately.
func (g *Guard) Step() bool {
	if g.remaining <= 0 {
		return false
	}
	select {
	case <-g.ctx.Done():
		return false
	default:
	}
	g.remaining--
	return true
}

// affords reports whether at least n steps of budget remain. Mutations check
// this before touching the tree so a walk can never exhaust mid-edit.
func (g *Guard) affords(n int) bool { return g.remaining >= n }

// Exhausted reports whether the guard stopped a walk early.
func (g *Guard) Exhausted() bool {
	if g.remaining <= 0 {
		return true
	}
	select {
	case <-g.ctx.Done():
		return true
	default:
		return false
	}
}

// Err converts an exhausted guard into its diagnostic. Nil if the guard still
// has budget.
func (g *Guard) Err() error {
	if !g.Exhausted() {
		return nil
	}
	if err := g.ctx.Err(); err != nil {
		return err
	}
	return &CycleError{Budget: true, Reason: "traversal step budget exhausted"}
}

// ancestorSet is the set of node identities on the current descent path.
// It is an immutable linked chain: with() allocates a new head and leaves the
// parent chain untouched, which gives every sibling descent an independent
// view for free. Lookup is O(depth), which matches the tree's natural cost.
// The zero value is the empty set.
type ancestorSet struct {
	node   *Node
	parent *ancestorSet
}

// with returns a new set extended by n. The receiver is copied, never
// modified, so the caller's set is safe to reuse for the next sibling.
func (s ancestorSet) with(n *Node) ancestorSet {
	parent := s
	return ancestorSet{node: n, parent: &parent}
}

// contains reports whether n is on the current ancestor path. Identity
// comparison: two structurally identical sibling subtrees are distinct nodes
// and must never be mis-flagged as a cycle.
func (s ancestorSet) contains(n *Node) bool {
	if n == nil {
		return false
	}
	for cur := &s; cur != nil; cur = cur.parent {
		if cur.node == n {
			return true
		}
	}
	return false
}
