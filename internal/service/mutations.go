package service

import (
	"context"
	"fmt"

	"github.com/dgallion1/pagetree/internal/pagetree"
)

// MutationOp is one structural edit in a mutation request.
type MutationOp struct {
	Op       string         `json:"op"` // insert | move | clone | delete | reorder | patch
	Target   pagetree.Ref   `json:"target,omitzero"`
	Parent   pagetree.Ref   `json:"parent,omitzero"`
	Node     *pagetree.Node `json:"node,omitempty"`
	Position *int           `json:"position,omitempty"`
	Order    []pagetree.Ref `json:"order,omitempty"`
	Patch    map[string]any `json:"patch,omitempty"`
}

// MutationOutcome reports one applied op; NewID is set for insert and clone.
type MutationOutcome struct {
	Op    string `json:"op"`
	NewID string `json:"newId,omitempty"`
}

// ApplyMutations runs the ops in order against a stored page and persists
// the result. The batch is transactional: the first failing op aborts the
// request and nothing is saved.
func (s *Service) ApplyMutations(ctx context.Context, docID string, ops []MutationOp) ([]MutationOutcome, error) {
	page, idx, err := s.GetParsed(ctx, docID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]MutationOutcome, 0, len(ops))
	for i, op := range ops {
		out, err := applyOp(idx, op)
		if err != nil {
			return nil, fmt.Errorf("mutation %d (%s): %w", i, op.Op, err)
		}
		outcomes = append(outcomes, out)
	}

	if err := s.savePage(ctx, page, idx.Document(), page.Language); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func applyOp(idx *pagetree.Index, op MutationOp) (MutationOutcome, error) {
	out := MutationOutcome{Op: op.Op}
	switch op.Op {
	case "insert":
		pos := 1 << 30 // append when no position given; InsertChild clamps
		if op.Position != nil {
			pos = *op.Position
		}
		e, err := idx.InsertChild(op.Parent, op.Node, pos)
		if err != nil {
			return out, err
		}
		out.NewID = e.ID
	case "move":
		pos := 1 << 30
		if op.Position != nil {
			pos = *op.Position
		}
		if err := idx.MoveNode(op.Target, op.Parent, pos); err != nil {
			return out, err
		}
	case "clone":
		e, err := idx.CloneNode(op.Target)
		if err != nil {
			return out, err
		}
		out.NewID = e.ID
	case "delete":
		if err := idx.DeleteNode(op.Target); err != nil {
			return out, err
		}
	case "reorder":
		if err := idx.ReorderChildren(op.Parent, op.Order); err != nil {
			return out, err
		}
	case "patch":
		if _, err := idx.UpdateNodeSettings(op.Target, op.Patch); err != nil {
			return out, err
		}
	default:
		return out, fmt.Errorf("unknown op %q", op.Op)
	}
	return out, nil
}
