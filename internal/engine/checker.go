package engine

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"github.com/sirkon/qualcheck/internal/defaults"
	"github.com/sirkon/qualcheck/internal/lattice"
	"github.com/sirkon/qualcheck/internal/report"
	"github.com/sirkon/qualcheck/internal/treeannotator"
)

// Checker is a pluggable qualifier checker.
type Checker interface {
	Name() string
	Lattice() *lattice.Lattice
	Policy() *defaults.Policy
	TreeAnnotator() treeannotator.TreeAnnotator
}

// ValueClassifier is an optional Checker extension giving qualifiers to constant expressions.
type ValueClassifier interface {
	// ClassifyConstant returns nil when the value gets no special qualifier. literal is true for
	// basic literals written in the source.
	ClassifyConstant(v constant.Value, t types.Type, literal bool) *lattice.Qualifier
}

// Operation is a binary operation, either an expression or a compound assignment.
type Operation struct {
	Op   token.Token
	X, Y ast.Expr
	Pos  token.Pos

	// Compound is true for assignments like x += y. Op is the binary operator then.
	Compound bool
}

// OperationChecker is an optional Checker extension validating operations with checker rules.
type OperationChecker interface {
	CheckOperation(tt treeannotator.Types, op Operation, r *report.ReporterPhase)
}

// Instance is a checker prepared for analysis. It is immutable and may be shared
// between units of different packages.
type Instance struct {
	checker    Checker
	lat        *lattice.Lattice
	defaults   *defaults.Engine
	annotator  treeannotator.TreeAnnotator
	classifier ValueClassifier
	operations OperationChecker
	markerPkg  string
}

// Option configures an Instance.
type Option func(*Instance)

// WithMarkerPackage sets the import path of the package whose identity functions act as
// qualified casts.
func WithMarkerPackage(path string) Option {
	return func(inst *Instance) {
		inst.markerPkg = path
	}
}

// NewInstance prepares the checker. Its tree annotator is followed by the general propagation.
func NewInstance(c Checker, opts ...Option) *Instance {
	inst := &Instance{
		checker:   c,
		lat:       c.Lattice(),
		defaults:  defaults.NewEngine(c.Policy()),
		annotator: treeannotator.List{c.TreeAnnotator(), treeannotator.Propagation{}},
	}
	if v, ok := c.(ValueClassifier); ok {
		inst.classifier = v
	}
	if v, ok := c.(OperationChecker); ok {
		inst.operations = v
	}
	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// Name returns the checker name.
func (inst *Instance) Name() string {
	return inst.checker.Name()
}

// Lattice returns the checker lattice.
func (inst *Instance) Lattice() *lattice.Lattice {
	return inst.lat
}
