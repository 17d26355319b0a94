// Package flow propagates qualifier facts of local variables along control flow edges.
//
// Facts are kept per basic block entry in a [Store]. A block entry store is the merge of stores
// leaving its reached predecessors; [Solve] iterates until no entry store changes. Two-way
// branches ending with a condition are refined separately for their true and false edges.
package flow

import (
	"go/ast"

	"golang.org/x/tools/go/cfg"

	"github.com/sirkon/qualcheck/internal/lattice"
)

// Transfer applies program effects to a store.
type Transfer interface {
	// Node applies the effect of a single CFG node.
	Node(n ast.Node, s *Store)

	// Branch refines s along the edge taken when cond evaluates to taken.
	Branch(cond ast.Expr, taken bool, s *Store)
}

// Result holds the fixpoint.
type Result struct {
	in map[int32]*Store
}

// In returns the store at the entry of b, nil for unreached blocks.
func (r *Result) In(b *cfg.Block) *Store {
	return r.in[b.Index]
}

// Walk replays b calling visit before every node with the store valid at that point.
// Stores passed to visit must not be retained. Unreached blocks are not visited.
func (r *Result) Walk(b *cfg.Block, tr Transfer, visit func(n ast.Node, s *Store)) {
	in := r.In(b)
	if in == nil {
		return
	}

	s := in.Clone()
	for _, n := range b.Nodes {
		visit(n, s)
		tr.Node(n, s)
	}
}

type edge struct {
	from int32
	succ int
}

// Solve computes entry stores of every reachable block of g.
func Solve(g *cfg.CFG, lat *lattice.Lattice, entry *Store, tr Transfer) *Result {
	res := &Result{in: make(map[int32]*Store, len(g.Blocks))}
	if len(g.Blocks) == 0 {
		return res
	}
	if entry == nil {
		entry = NewStore(lat)
	}

	preds := make(map[int32][]edge, len(g.Blocks))
	for _, b := range g.Blocks {
		for i, s := range b.Succs {
			preds[s.Index] = append(preds[s.Index], edge{from: b.Index, succ: i})
		}
	}

	start := g.Blocks[0]
	res.in[start.Index] = entry.Clone()

	outs := make(map[edge]*Store)
	work := []*cfg.Block{start}
	queued := map[int32]bool{start.Index: true}

	for len(work) > 0 {
		b := work[0]
		work = work[1:]
		queued[b.Index] = false

		s := res.in[b.Index].Clone()
		for _, n := range b.Nodes {
			tr.Node(n, s)
		}

		cond := branchCond(b)
		for i, succ := range b.Succs {
			es := s
			if cond != nil {
				es = s.Clone()
				tr.Branch(cond, i == 0, es)
			}
			outs[edge{from: b.Index, succ: i}] = es

			var merged *Store
			for _, p := range preds[succ.Index] {
				ps, ok := outs[p]
				if !ok {
					continue
				}
				if merged == nil {
					merged = ps.Clone()
					continue
				}
				merged = merged.Merge(ps)
			}
			if succ == start {
				merged = merged.Merge(entry)
			}

			if old, ok := res.in[succ.Index]; ok && old.Equal(merged) {
				continue
			}
			res.in[succ.Index] = merged
			if !queued[succ.Index] {
				queued[succ.Index] = true
				work = append(work, succ)
			}
		}
	}

	return res
}

// branchCond returns the condition of a two-way branch.
func branchCond(b *cfg.Block) ast.Expr {
	if len(b.Succs) != 2 || len(b.Nodes) == 0 {
		return nil
	}
	cond, ok := b.Nodes[len(b.Nodes)-1].(ast.Expr)
	if !ok {
		return nil
	}
	return cond
}
