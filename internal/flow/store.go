package flow

import (
	"go/types"
	"slices"
	"strings"

	"github.com/sirkon/qualcheck/internal/lattice"
)

// Store maps refinable variables to their refined qualifiers at some program point.
// A variable missing in a store has its declared qualifier.
type Store struct {
	lat   *lattice.Lattice
	facts map[*types.Var]*lattice.Qualifier
}

// NewStore creates an empty store over the lattice.
func NewStore(lat *lattice.Lattice) *Store {
	return &Store{
		lat:   lat,
		facts: make(map[*types.Var]*lattice.Qualifier),
	}
}

// Get returns the refined qualifier of v.
func (s *Store) Get(v *types.Var) (*lattice.Qualifier, bool) {
	q, ok := s.facts[v]
	return q, ok
}

// Set refines v to q.
func (s *Store) Set(v *types.Var, q *lattice.Qualifier) {
	if !s.lat.Owns(q) {
		panic(&lattice.ContractError{
			Op:        "Store.Set",
			Lattice:   s.lat.Name(),
			Qualifier: q.String(),
			Foreign:   foreignName(q),
		})
	}
	s.facts[v] = q
}

// Kill drops the refinement of v.
func (s *Store) Kill(v *types.Var) {
	delete(s.facts, v)
}

// Len returns the number of refined variables.
func (s *Store) Len() int {
	return len(s.facts)
}

// Clone returns an independent copy.
func (s *Store) Clone() *Store {
	res := &Store{
		lat:   s.lat,
		facts: make(map[*types.Var]*lattice.Qualifier, len(s.facts)),
	}
	for v, q := range s.facts {
		res.facts[v] = q
	}
	return res
}

// Merge returns the join of two stores: every variable known on both sides gets the join of its
// qualifiers, a variable known on one side only is dropped.
func (s *Store) Merge(other *Store) *Store {
	res := NewStore(s.lat)
	for v, q := range s.facts {
		oq, ok := other.facts[v]
		if !ok {
			continue
		}
		res.facts[v] = s.lat.Join(q, oq)
	}
	return res
}

// Equal checks both stores hold the same facts.
func (s *Store) Equal(other *Store) bool {
	if len(s.facts) != len(other.facts) {
		return false
	}
	for v, q := range s.facts {
		if oq, ok := other.facts[v]; !ok || oq != q {
			return false
		}
	}
	return true
}

func (s *Store) String() string {
	parts := make([]string, 0, len(s.facts))
	for v, q := range s.facts {
		parts = append(parts, v.Name()+": "+q.Name())
	}
	slices.Sort(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

func foreignName(q *lattice.Qualifier) string {
	if q == nil || q.Lattice() == nil {
		return ""
	}
	return q.Lattice().Name()
}
