package signedness

import (
	"fmt"

	"github.com/sirkon/qualcheck/internal/annotated"
	"github.com/sirkon/qualcheck/internal/defaults"
	"github.com/sirkon/qualcheck/internal/engine"
	"github.com/sirkon/qualcheck/internal/lattice"
	"github.com/sirkon/qualcheck/internal/treeannotator"
)

// Name is the checker name used in configuration.
const Name = "signedness"

// Qualifier names.
const (
	UnknownSignedness = "UnknownSignedness"
	Signed            = "Signed"
	Unsigned          = "Unsigned"
	Literal           = "Literal"
	ConstantPositive  = "ConstantPositive"
	Bottom            = "SignednessBottom"
)

// Checker is the signedness checker.
type Checker struct {
	lat    *lattice.Lattice
	policy *defaults.Policy

	top      *lattice.Qualifier
	signed   *lattice.Qualifier
	unsigned *lattice.Qualifier
	literal  *lattice.Qualifier
	positive *lattice.Qualifier
}

var (
	_ engine.Checker          = &Checker{}
	_ engine.ValueClassifier  = &Checker{}
	_ engine.OperationChecker = &Checker{}
)

// New builds the checker.
func New() (*Checker, error) {
	lat, err := lattice.NewBuilder(Name).
		Add(UnknownSignedness).
		Add(Signed, UnknownSignedness).
		Add(Unsigned, UnknownSignedness).
		Add(Literal, Signed, Unsigned).
		Add(ConstantPositive, Literal).
		Add(Bottom, ConstantPositive).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build lattice: %w", err)
	}

	policy, err := defaults.NewPolicy(lat).
		Default(defaults.LocationField, Signed).
		Default(defaults.LocationParameter, Signed).
		Default(defaults.LocationReturn, Signed).
		Default(defaults.LocationOther, Signed).
		Default(defaults.LocationLocalVariable, UnknownSignedness).
		Implicit(annotated.KindUnsignedInt, Unsigned).
		Refinable(defaults.LocationLocalVariable).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build default policy: %w", err)
	}

	c := &Checker{
		lat:    lat,
		policy: policy,
		top:    lat.Top(),
	}
	c.signed, _ = lat.ByName(Signed)
	c.unsigned, _ = lat.ByName(Unsigned)
	c.literal, _ = lat.ByName(Literal)
	c.positive, _ = lat.ByName(ConstantPositive)

	return c, nil
}

// Name implements engine.Checker.
func (c *Checker) Name() string {
	return Name
}

// Lattice implements engine.Checker.
func (c *Checker) Lattice() *lattice.Lattice {
	return c.lat
}

// Policy implements engine.Checker.
func (c *Checker) Policy() *defaults.Policy {
	return c.policy
}

// TreeAnnotator implements engine.Checker.
func (c *Checker) TreeAnnotator() treeannotator.TreeAnnotator {
	return annotator{c: c}
}

// isLiteralOrConstantPositive checks if the qualifier is one of two refined constant leaves.
func (c *Checker) isLiteralOrConstantPositive(q *lattice.Qualifier) bool {
	return q == c.literal || q == c.positive
}
