// Package consistency validates qualifiers at type-use sites requiring compatibility.
package consistency

import (
	"fmt"
	"go/token"

	"github.com/sirkon/qualcheck/internal/lattice"
	"github.com/sirkon/qualcheck/internal/qualrules"
	"github.com/sirkon/qualcheck/internal/report"
)

// Site is a kind of type-use site.
type Site int

const (
	SiteInvalid Site = iota
	SiteAssignment
	SiteArgument
	SiteReturn
	SiteCompositeField
)

func (s Site) String() string {
	switch s {
	case SiteAssignment:
		return "assignment"
	case SiteArgument:
		return "argument"
	case SiteReturn:
		return "return"
	case SiteCompositeField:
		return "composite literal field"
	default:
		return fmt.Sprintf("invalid-site(%d)", s)
	}
}

// Rule returns the rule violated by an incompatibility at this site.
func (s Site) Rule() qualrules.Rule {
	switch s {
	case SiteAssignment:
		return qualrules.IncompatibleAssignment()
	case SiteArgument:
		return qualrules.IncompatibleArgument()
	case SiteReturn:
		return qualrules.IncompatibleReturn()
	case SiteCompositeField:
		return qualrules.IncompatibleCompositeField()
	default:
		panic(fmt.Errorf("missing rule for site %s", s))
	}
}

// Checker reports incompatible qualifiers.
type Checker struct {
	lat *lattice.Lattice
	r   *report.ReporterPhase
}

// New creates a checker over the lattice reporting into r.
func New(lat *lattice.Lattice, r *report.ReporterPhase) *Checker {
	return &Checker{lat: lat, r: r}
}

// IsSubtype reports whether actual may be used where required is expected.
func (c *Checker) IsSubtype(actual, required *lattice.Qualifier) bool {
	return c.lat.IsSubtype(actual, required)
}

// Check reports a diagnostic at pos when actual is not a subtype of required.
// It returns false in this case. Analysis continues either way.
func (c *Checker) Check(site Site, actual, required *lattice.Qualifier, pos token.Pos) bool {
	if c.IsSubtype(actual, required) {
		return true
	}

	c.r.Reportf(
		site.Rule(),
		pos,
		"incompatible qualifier in %s: found %s, required %s",
		site,
		actual,
		required,
	)
	return false
}
