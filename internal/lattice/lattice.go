package lattice

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by [Builder.Build].
var (
	ErrEmptyName        = errors.New("empty qualifier name")
	ErrDuplicate        = errors.New("duplicate qualifier")
	ErrUnknownSupertype = errors.New("unknown supertype")
	ErrCycle            = errors.New("qualifier hierarchy has a cycle")
	ErrNoTop            = errors.New("qualifier hierarchy must have exactly one top")
	ErrNoJoin           = errors.New("qualifiers have no unique least upper bound")
)

// Qualifier is a named type qualifier with a fixed place in its lattice.
type Qualifier struct {
	name   string
	index  int
	supers []*Qualifier
	owner  *Lattice
}

// Name returns the qualifier name.
func (q *Qualifier) Name() string {
	return q.name
}

func (q *Qualifier) String() string {
	if q == nil {
		return "<nil>"
	}
	return q.name
}

// Lattice returns the lattice the qualifier belongs to.
func (q *Qualifier) Lattice() *Lattice {
	return q.owner
}

// DirectSupertypes returns qualifiers this one was declared a subtype of.
func (q *Qualifier) DirectSupertypes() []*Qualifier {
	res := make([]*Qualifier, len(q.supers))
	copy(res, q.supers)
	return res
}

// Lattice is an immutable qualifier hierarchy.
type Lattice struct {
	name   string
	quals  []*Qualifier
	byName map[string]*Qualifier

	// sub[i][j] reports quals[i] <: quals[j].
	sub    [][]bool
	join   [][]*Qualifier
	meet   [][]*Qualifier
	top    *Qualifier
	bottom *Qualifier
}

// Name returns the lattice name, usually the name of its checker.
func (l *Lattice) Name() string {
	return l.name
}

// Top returns the unique maximum: the "no information" qualifier.
func (l *Lattice) Top() *Qualifier {
	return l.top
}

// Bottom returns the unique minimum or nil if there is none.
func (l *Lattice) Bottom() *Qualifier {
	return l.bottom
}

// Qualifiers returns all qualifiers in definition order.
func (l *Lattice) Qualifiers() []*Qualifier {
	res := make([]*Qualifier, len(l.quals))
	copy(res, l.quals)
	return res
}

// Leaves returns qualifiers having no proper subtypes.
func (l *Lattice) Leaves() []*Qualifier {
	var res []*Qualifier
	for i, q := range l.quals {
		leaf := true
		for j := range l.quals {
			if i != j && l.sub[j][i] {
				leaf = false
				break
			}
		}
		if leaf {
			res = append(res, q)
		}
	}
	return res
}

// ByName looks a qualifier up by its name.
func (l *Lattice) ByName(name string) (*Qualifier, bool) {
	q, ok := l.byName[name]
	return q, ok
}

// Owns reports whether q belongs to this lattice.
func (l *Lattice) Owns(q *Qualifier) bool {
	return q != nil && q.owner == l
}

// IsSubtype reports whether a is a subtype of b.
func (l *Lattice) IsSubtype(a, b *Qualifier) bool {
	l.mustOwn("IsSubtype", a, b)
	return l.sub[a.index][b.index]
}

// Join returns the least upper bound of a and b.
func (l *Lattice) Join(a, b *Qualifier) *Qualifier {
	l.mustOwn("Join", a, b)
	return l.join[a.index][b.index]
}

// Meet returns the greatest lower bound of a and b. Lattices without a bottom may have none.
func (l *Lattice) Meet(a, b *Qualifier) (*Qualifier, bool) {
	l.mustOwn("Meet", a, b)
	q := l.meet[a.index][b.index]
	return q, q != nil
}

// JoinAll returns the least upper bound of all given qualifiers. It returns nil for no input.
func (l *Lattice) JoinAll(qs ...*Qualifier) *Qualifier {
	var res *Qualifier
	for _, q := range qs {
		if res == nil {
			l.mustOwn("JoinAll", q)
			res = q
			continue
		}
		res = l.Join(res, q)
	}
	return res
}

func (l *Lattice) String() string {
	var b strings.Builder
	b.WriteString(l.name)
	b.WriteString(" {")
	for i, q := range l.quals {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(q.name)
		if len(q.supers) == 0 {
			continue
		}
		b.WriteString(" <: ")
		for j, s := range q.supers {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(s.name)
		}
	}
	b.WriteString("}")
	return b.String()
}

func (l *Lattice) mustOwn(op string, qs ...*Qualifier) {
	for _, q := range qs {
		if q == nil {
			panic(&ContractError{Op: op, Lattice: l.name, Qualifier: "<nil>"})
		}
		if q.owner != l {
			panic(&ContractError{
				Op:        op,
				Lattice:   l.name,
				Qualifier: q.name,
				Foreign:   q.owner.Name(),
			})
		}
	}
}

// ContractError signals a misuse of a lattice by the checker code, like mixing qualifiers of
// different hierarchies.
type ContractError struct {
	Op        string
	Lattice   string
	Qualifier string
	Foreign   string
}

func (e *ContractError) Error() string {
	if e.Foreign == "" {
		return fmt.Sprintf("lattice %s: %s: invalid qualifier %s", e.Lattice, e.Op, e.Qualifier)
	}

	return fmt.Sprintf(
		"lattice %s: %s: qualifier %s belongs to lattice %s",
		e.Lattice,
		e.Op,
		e.Qualifier,
		e.Foreign,
	)
}
