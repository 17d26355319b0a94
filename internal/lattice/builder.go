package lattice

import (
	"fmt"
)

// Builder collects qualifier definitions for a lattice.
type Builder struct {
	name string
	defs []definition
}

type definition struct {
	name   string
	supers []string
}

// NewBuilder starts a definition of a lattice with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Add defines a qualifier with its direct supertypes. Supertypes may be defined later.
func (b *Builder) Add(name string, supers ...string) *Builder {
	b.defs = append(b.defs, definition{name: name, supers: supers})
	return b
}

// Build validates definitions and computes the order, the join and the meet tables.
func (b *Builder) Build() (*Lattice, error) {
	l := &Lattice{
		name:   b.name,
		byName: make(map[string]*Qualifier, len(b.defs)),
	}

	for i, d := range b.defs {
		if d.name == "" {
			return nil, fmt.Errorf("lattice %s: qualifier #%d: %w", b.name, i, ErrEmptyName)
		}
		if _, ok := l.byName[d.name]; ok {
			return nil, fmt.Errorf("lattice %s: %s: %w", b.name, d.name, ErrDuplicate)
		}
		q := &Qualifier{
			name:  d.name,
			index: i,
			owner: l,
		}
		l.quals = append(l.quals, q)
		l.byName[d.name] = q
	}

	n := len(l.quals)
	l.sub = make([][]bool, n)
	for i := range l.sub {
		l.sub[i] = make([]bool, n)
		l.sub[i][i] = true
	}

	for i, d := range b.defs {
		q := l.quals[i]
		for _, s := range d.supers {
			sq, ok := l.byName[s]
			if !ok {
				return nil, fmt.Errorf("lattice %s: %s <: %s: %w", b.name, d.name, s, ErrUnknownSupertype)
			}
			q.supers = append(q.supers, sq)
			l.sub[i][sq.index] = true
		}
	}

	// Transitive closure.
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !l.sub[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if l.sub[k][j] {
					l.sub[i][j] = true
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if l.sub[i][j] && l.sub[j][i] {
				return nil, fmt.Errorf(
					"lattice %s: %s and %s: %w",
					b.name,
					l.quals[i].name,
					l.quals[j].name,
					ErrCycle,
				)
			}
		}
	}

	if err := l.findExtremes(); err != nil {
		return nil, fmt.Errorf("lattice %s: %w", b.name, err)
	}

	if err := l.computeJoins(); err != nil {
		return nil, fmt.Errorf("lattice %s: %w", b.name, err)
	}

	return l, nil
}

func (l *Lattice) findExtremes() error {
	var tops, bottoms []*Qualifier
	for i, q := range l.quals {
		above, below := true, true
		for j := range l.quals {
			if !l.sub[j][i] {
				above = false
			}
			if !l.sub[i][j] {
				below = false
			}
		}
		if above {
			tops = append(tops, q)
		}
		if below {
			bottoms = append(bottoms, q)
		}
	}

	if len(tops) != 1 {
		return fmt.Errorf("%d top candidates: %w", len(tops), ErrNoTop)
	}
	l.top = tops[0]
	if len(bottoms) == 1 {
		l.bottom = bottoms[0]
	}

	return nil
}

func (l *Lattice) computeJoins() error {
	n := len(l.quals)
	l.join = make([][]*Qualifier, n)
	l.meet = make([][]*Qualifier, n)
	for i := range l.join {
		l.join[i] = make([]*Qualifier, n)
		l.meet[i] = make([]*Qualifier, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			lub := l.leastUpperBound(i, j)
			if lub == nil {
				return fmt.Errorf("%s and %s: %w", l.quals[i].name, l.quals[j].name, ErrNoJoin)
			}
			l.join[i][j] = lub
			l.join[j][i] = lub

			glb := l.greatestLowerBound(i, j)
			l.meet[i][j] = glb
			l.meet[j][i] = glb
		}
	}

	return nil
}

// leastUpperBound looks for the upper bound of i and j which is below every other upper bound.
func (l *Lattice) leastUpperBound(i, j int) *Qualifier {
	var bounds []int
	for k := range l.quals {
		if l.sub[i][k] && l.sub[j][k] {
			bounds = append(bounds, k)
		}
	}

	for _, c := range bounds {
		least := true
		for _, o := range bounds {
			if !l.sub[c][o] {
				least = false
				break
			}
		}
		if least {
			return l.quals[c]
		}
	}

	return nil
}

// greatestLowerBound is the dual of leastUpperBound. It is nil when no unique bound exists.
func (l *Lattice) greatestLowerBound(i, j int) *Qualifier {
	var bounds []int
	for k := range l.quals {
		if l.sub[k][i] && l.sub[k][j] {
			bounds = append(bounds, k)
		}
	}

	for _, c := range bounds {
		greatest := true
		for _, o := range bounds {
			if !l.sub[o][c] {
				greatest = false
				break
			}
		}
		if greatest {
			return l.quals[c]
		}
	}

	return nil
}
