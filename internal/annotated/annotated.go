// Package annotated defines a host type decorated with qualifiers and a per-unit map from
// expressions to their freshly computed annotated types.
package annotated

import (
	"go/ast"
	"go/types"
	"strings"

	"github.com/sirkon/qualcheck/internal/lattice"
)

// Type is an underlying Go type plus the set of qualifiers attached to it.
// It normally holds exactly one qualifier per lattice and may transiently hold none.
type Type struct {
	underlying types.Type
	quals      []*lattice.Qualifier
}

// New creates an annotated type with the given qualifiers.
func New(t types.Type, quals ...*lattice.Qualifier) *Type {
	res := &Type{underlying: t}
	for _, q := range quals {
		res.Add(q)
	}
	return res
}

// Underlying returns the host type.
func (t *Type) Underlying() types.Type {
	return t.underlying
}

// Qualifiers returns attached qualifiers.
func (t *Type) Qualifiers() []*lattice.Qualifier {
	res := make([]*lattice.Qualifier, len(t.quals))
	copy(res, t.quals)
	return res
}

// IsEmpty reports the type has no qualifiers attached yet.
func (t *Type) IsEmpty() bool {
	return len(t.quals) == 0
}

// Has reports whether q is attached.
func (t *Type) Has(q *lattice.Qualifier) bool {
	for _, v := range t.quals {
		if v == q {
			return true
		}
	}
	return false
}

// Add attaches q unless it is already there.
func (t *Type) Add(q *lattice.Qualifier) {
	if q == nil || t.Has(q) {
		return
	}
	t.quals = append(t.quals, q)
}

// Replace drops every qualifier of q's lattice and attaches q instead.
func (t *Type) Replace(q *lattice.Qualifier) {
	if q == nil {
		return
	}

	lat := q.Lattice()
	kept := t.quals[:0]
	for _, v := range t.quals {
		if v.Lattice() != lat {
			kept = append(kept, v)
		}
	}
	t.quals = append(kept, q)
}

// Primary returns the qualifier from the lattice l. The second value is false when there is none
// or when several qualifiers of l are attached.
func (t *Type) Primary(l *lattice.Lattice) (*lattice.Qualifier, bool) {
	var res *lattice.Qualifier
	for _, q := range t.quals {
		if !l.Owns(q) {
			continue
		}
		if res != nil {
			return nil, false
		}
		res = q
	}

	return res, res != nil
}

// Clone returns an independent copy.
func (t *Type) Clone() *Type {
	return &Type{
		underlying: t.underlying,
		quals:      t.Qualifiers(),
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	var b strings.Builder
	for _, q := range t.quals {
		b.WriteByte('@')
		b.WriteString(q.Name())
		b.WriteByte(' ')
	}
	if t.underlying == nil {
		b.WriteString("untyped")
	} else {
		b.WriteString(t.underlying.String())
	}
	return b.String()
}

// Map is an expression identity to annotated type mapping for one compilation unit.
type Map struct {
	types map[ast.Expr]*Type
}

// NewMap creates an empty mapping.
func NewMap() *Map {
	return &Map{types: make(map[ast.Expr]*Type)}
}

// Get returns the type recorded for e.
func (m *Map) Get(e ast.Expr) (*Type, bool) {
	t, ok := m.types[e]
	return t, ok
}

// Set records the type of e replacing any previous one.
func (m *Map) Set(e ast.Expr, t *Type) {
	m.types[e] = t
}

// Delete forgets the type of e.
func (m *Map) Delete(e ast.Expr) {
	delete(m.types, e)
}

// Len returns the number of recorded expressions.
func (m *Map) Len() int {
	return len(m.types)
}
