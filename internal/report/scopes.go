package report

import (
	"cmp"
	"go/token"
	"slices"

	"github.com/sirkon/rbtree"

	"github.com/sirkon/qualcheck/internal/qualrules"
)

// Scopes indexes source spans where diagnostics are suppressed.
//
// Spans are kept in an RB-tree of disjoint siblings, each with a nested tree of the spans it
// contains. Partial overlaps are impossible for AST based spans.
type Scopes struct {
	spans []*scopeSpan
	dirty bool
	tree  *rbtree.Tree[*scopeSpan]
}

// NewScopes creates an empty index.
func NewScopes() *Scopes {
	return &Scopes{tree: rbtree.New[*scopeSpan]()}
}

// Add suppresses given rules in [start, end]. No rules means every rule.
func (s *Scopes) Add(start, end token.Pos, rules ...qualrules.Rule) {
	span := &scopeSpan{start: start, end: end}
	if len(rules) > 0 {
		span.rules = make(map[qualrules.Rule]struct{}, len(rules))
		for _, r := range rules {
			span.rules[r] = struct{}{}
		}
	}
	s.spans = append(s.spans, span)
	s.dirty = true
}

// Suppressed reports whether any span covering pos suppresses the rule.
func (s *Scopes) Suppressed(pos token.Pos, rule qualrules.Rule) bool {
	s.flush()

	for _, span := range collectChain(s.tree, pos, nil) {
		if span.suppresses(rule) {
			return true
		}
	}
	return false
}

// flush rebuilds the tree inserting spans outermost first, so that a new span is never a
// superspan of an already inserted one other than an equal span.
func (s *Scopes) flush() {
	if !s.dirty {
		return
	}

	slices.SortStableFunc(s.spans, func(a, b *scopeSpan) int {
		if c := cmp.Compare(a.start, b.start); c != 0 {
			return c
		}
		return cmp.Compare(b.end, a.end)
	})
	s.tree = rbtree.New[*scopeSpan]()
	for _, span := range s.spans {
		span.children = nil
		attachInto(s.tree, span)
	}
	s.dirty = false
}

// scopeSpan stores a [start,end] suppression span and, if needed,
// a nested RB-tree for child spans fully contained in this span.
type scopeSpan struct {
	start token.Pos
	end   token.Pos
	rules map[qualrules.Rule]struct{}

	children *rbtree.Tree[*scopeSpan]
}

// Cmp defines ordering for the RB-tree as "disjoint by position". Overlapping spans
// compare equal so that InsertReturn hands the overlapping node back.
func (n *scopeSpan) Cmp(other *scopeSpan) int {
	if n.end < other.start {
		return -1
	}
	if n.start > other.end {
		return 1
	}
	return 0
}

func (n *scopeSpan) suppresses(rule qualrules.Rule) bool {
	if n.rules == nil {
		return true
	}
	_, ok := n.rules[rule]
	return ok
}

func contains(a, b *scopeSpan) bool {
	return a.start <= b.start && a.end >= b.end
}

// attachInto inserts span s into RB-tree t:
//   - s becomes a new sibling when nothing overlaps it;
//   - s descends into the children of an overlapping span containing it;
//   - an overlapping span contained in s is rewritten in place to become s and
//     its old value goes down as a child.
func attachInto(t *rbtree.Tree[*scopeSpan], s *scopeSpan) {
	r := t.InsertReturn(s)
	if r == s {
		return
	}

	if contains(r, s) {
		if r.children == nil {
			r.children = rbtree.New[*scopeSpan]()
		}
		attachInto(r.children, s)
		return
	}

	if contains(s, r) {
		old := *r
		*r = *s
		r.children = rbtree.New[*scopeSpan]()
		attachInto(r.children, &old)
		return
	}

	panic("attachInto: partial-overlap spans are not supported")
}

// collectChain appends every span covering pos from the outermost to the innermost.
func collectChain(t *rbtree.Tree[*scopeSpan], pos token.Pos, chain []*scopeSpan) []*scopeSpan {
	if t == nil {
		return chain
	}

	// Siblings are disjoint and ordered by position, at most one of them covers pos.
	for n := range t.Iter() {
		if n.start > pos {
			break
		}
		if n.end < pos {
			continue
		}

		chain = append(chain, n)
		return collectChain(n.children, pos, chain)
	}
	return chain
}
