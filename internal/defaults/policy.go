// Package defaults assigns qualifiers to type uses having none declared.
package defaults

import (
	"errors"
	"fmt"
	"maps"

	"github.com/sirkon/qualcheck/internal/annotated"
	"github.com/sirkon/qualcheck/internal/lattice"
)

// Errors returned by [PolicyBuilder.Build].
var (
	ErrDuplicateDefault  = errors.New("location default is already set")
	ErrDuplicateImplicit = errors.New("type kind implicit is already set")
	ErrUnknownQualifier  = errors.New("unknown qualifier")
)

// Location is a kind of type-use location.
type Location int

const (
	LocationInvalid Location = iota
	LocationLocalVariable
	LocationField
	LocationParameter
	LocationReturn
	LocationOther
)

var locationValueMap = map[Location]string{
	LocationLocalVariable: "local",
	LocationField:         "field",
	LocationParameter:     "parameter",
	LocationReturn:        "return",
	LocationOther:         "other",
}

func (l Location) String() string {
	v, ok := locationValueMap[l]
	if !ok {
		return fmt.Sprintf("invalid(%d)", l)
	}

	return v
}

// UnmarshalText for setting locations with configs.
func (l *Location) UnmarshalText(rawtext []byte) error {
	text := string(rawtext)
	for k, v := range locationValueMap {
		if v == text {
			*l = k
			return nil
		}
	}

	return fmt.Errorf("unknown location kind %q", text)
}

// Policy is an immutable set of defaulting rules of one checker.
type Policy struct {
	lat       *lattice.Lattice
	defaults  map[Location]*lattice.Qualifier
	implicits map[annotated.Kind]*lattice.Qualifier
	refinable map[Location]bool
}

// Lattice returns the lattice the policy qualifiers belong to.
func (p *Policy) Lattice() *lattice.Lattice {
	return p.lat
}

// Default returns the location default.
func (p *Policy) Default(loc Location) (*lattice.Qualifier, bool) {
	q, ok := p.defaults[loc]
	return q, ok
}

// Implicit returns the type-kind implicit qualifier.
func (p *Policy) Implicit(kind annotated.Kind) (*lattice.Qualifier, bool) {
	q, ok := p.implicits[kind]
	return q, ok
}

// IsRefinable reports whether the location is left to flow refinement.
func (p *Policy) IsRefinable(loc Location) bool {
	return p.refinable[loc]
}

// PolicyBuilder collects rules of a [Policy]. The first error stops further collection and is
// returned by Build.
type PolicyBuilder struct {
	p   *Policy
	err error
}

// NewPolicy starts a policy over the given lattice.
func NewPolicy(lat *lattice.Lattice) *PolicyBuilder {
	return &PolicyBuilder{
		p: &Policy{
			lat:       lat,
			defaults:  make(map[Location]*lattice.Qualifier),
			implicits: make(map[annotated.Kind]*lattice.Qualifier),
			refinable: make(map[Location]bool),
		},
	}
}

// Default sets the qualifier of the given location kind. Each kind may be set once.
func (b *PolicyBuilder) Default(loc Location, qualifier string) *PolicyBuilder {
	if b.err != nil {
		return b
	}

	if _, ok := b.p.defaults[loc]; ok {
		b.err = fmt.Errorf("%s: %w", loc, ErrDuplicateDefault)
		return b
	}
	q, ok := b.p.lat.ByName(qualifier)
	if !ok {
		b.err = fmt.Errorf("%s default %s: %w", loc, qualifier, ErrUnknownQualifier)
		return b
	}
	b.p.defaults[loc] = q

	return b
}

// Implicit sets the qualifier every type of the given kind gets unless declared otherwise.
func (b *PolicyBuilder) Implicit(kind annotated.Kind, qualifier string) *PolicyBuilder {
	if b.err != nil {
		return b
	}

	if _, ok := b.p.implicits[kind]; ok {
		b.err = fmt.Errorf("%s: %w", kind, ErrDuplicateImplicit)
		return b
	}
	q, ok := b.p.lat.ByName(qualifier)
	if !ok {
		b.err = fmt.Errorf("%s implicit %s: %w", kind, qualifier, ErrUnknownQualifier)
		return b
	}
	b.p.implicits[kind] = q

	return b
}

// Refinable marks location kinds whose numeric types default to top so flow can refine them.
func (b *PolicyBuilder) Refinable(locs ...Location) *PolicyBuilder {
	for _, loc := range locs {
		b.p.refinable[loc] = true
	}
	return b
}

// Build returns the policy or the first error met.
func (b *PolicyBuilder) Build() (*Policy, error) {
	if b.err != nil {
		return nil, fmt.Errorf("policy for %s: %w", b.p.lat.Name(), b.err)
	}

	return &Policy{
		lat:       b.p.lat,
		defaults:  maps.Clone(b.p.defaults),
		implicits: maps.Clone(b.p.implicits),
		refinable: maps.Clone(b.p.refinable),
	}, nil
}
