package engine

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/sirkon/deepequal"

	"github.com/sirkon/qualcheck/internal/defaults"
	"github.com/sirkon/qualcheck/internal/lattice"
	"github.com/sirkon/qualcheck/internal/report"
	"github.com/sirkon/qualcheck/internal/treeannotator"
)

// taint is a minimal checker: everything is Clean unless marked Tainted.
type taint struct {
	lat    *lattice.Lattice
	policy *defaults.Policy
}

func newTaint(t *testing.T) *taint {
	t.Helper()

	lat, err := lattice.NewBuilder("taint").
		Add("Tainted").
		Add("Clean", "Tainted").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	policy, err := defaults.NewPolicy(lat).
		Default(defaults.LocationField, "Clean").
		Default(defaults.LocationParameter, "Clean").
		Default(defaults.LocationReturn, "Clean").
		Default(defaults.LocationOther, "Clean").
		Refinable(defaults.LocationLocalVariable).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	return &taint{lat: lat, policy: policy}
}

func (c *taint) Name() string                               { return "taint" }
func (c *taint) Lattice() *lattice.Lattice                  { return c.lat }
func (c *taint) Policy() *defaults.Policy                   { return c.policy }
func (c *taint) TreeAnnotator() treeannotator.TreeAnnotator { return treeannotator.Base{} }

const markerPath = "example.com/q"

const markerSource = `package q

func Tainted[T any](v T) T { return v }
func Clean[T any](v T) T   { return v }
`

type importerFunc func(path string) (*types.Package, error)

func (f importerFunc) Import(path string) (*types.Package, error) { return f(path) }

type checked struct {
	fset  *token.FileSet
	file  *ast.File
	info  *types.Info
	lines []string
}

func typeCheck(t *testing.T, src string) *checked {
	t.Helper()

	fset := token.NewFileSet()
	qfile, err := parser.ParseFile(fset, "q.go", markerSource, 0)
	if err != nil {
		t.Fatal(err)
	}
	qpkg, err := (&types.Config{}).Check(markerPath, fset, []*ast.File{qfile}, nil)
	if err != nil {
		t.Fatal(err)
	}

	file, err := parser.ParseFile(fset, "p.go", src, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}
	info := &types.Info{
		Types:      map[ast.Expr]types.TypeAndValue{},
		Defs:       map[*ast.Ident]types.Object{},
		Uses:       map[*ast.Ident]types.Object{},
		Implicits:  map[ast.Node]types.Object{},
		Selections: map[*ast.SelectorExpr]*types.Selection{},
		Instances:  map[*ast.Ident]types.Instance{},
	}
	conf := &types.Config{
		Importer: importerFunc(func(path string) (*types.Package, error) {
			if path == markerPath {
				return qpkg, nil
			}
			return nil, fmt.Errorf("unknown package %s", path)
		}),
	}
	if _, err := conf.Check("p", fset, []*ast.File{file}, info); err != nil {
		t.Fatal(err)
	}

	return &checked{
		fset:  fset,
		file:  file,
		info:  info,
		lines: strings.Split(src, "\n"),
	}
}

func (c *checked) unit(t *testing.T, r *report.Reporter) *Unit {
	t.Helper()

	inst := NewInstance(newTaint(t), WithMarkerPackage(markerPath))
	return inst.NewUnit(UnitConfig{
		Info:     c.info,
		Reporter: r,
	})
}

func (c *checked) checkAll(u *Unit) {
	for _, decl := range c.file.Decls {
		switch decl := decl.(type) {
		case *ast.FuncDecl:
			u.CheckFunc(decl)
		case *ast.GenDecl:
			u.CheckPackageVars(decl)
		}
	}
}

// expected collects "line: RULE" entries from trailing "// RULE" comments.
func (c *checked) expected() []string {
	var res []string
	for i, line := range c.lines {
		idx := strings.Index(line, "// QUAL")
		if idx < 0 {
			continue
		}
		for _, code := range strings.Fields(line[idx+3:]) {
			res = append(res, fmt.Sprintf("%d: %s", i+1, code))
		}
	}
	slices.Sort(res)
	return res
}

func (c *checked) got(r *report.Reporter) []string {
	var res []string
	for _, rep := range r.Sorted(nil) {
		res = append(res, fmt.Sprintf("%d: %s", c.fset.Position(rep.Pos).Line, rep.RuleCode.Code()))
	}
	slices.Sort(res)
	return res
}

func TestUnitReports(t *testing.T) {
	const header = `package p

import "example.com/q"

func sink(v int)         {}
func many(vs ...int)     {}
func two() (int, int)    { return 1, 2 }

type Pair struct{ A, B int }
`

	tests := []struct {
		name string
		src  string
	}{
		{
			name: "refined-local",
			src: `
func f() {
	x := q.Tainted(1)
	x = 2
	sink(x)
}`,
		},
		{
			name: "tainted-argument",
			src: `
func f() {
	x := q.Tainted(1)
	sink(x) // QUAL010
}`,
		},
		{
			name: "join-at-merge",
			src: `
func f(c bool) {
	x := 1
	if c {
		x = q.Tainted(2)
	}
	sink(x) // QUAL010
}`,
		},
		{
			name: "both-branches-clean",
			src: `
func f(c bool) {
	x := q.Tainted(1)
	if c {
		x = 2
	} else {
		x = 3
	}
	sink(x)
}`,
		},
		{
			name: "zero-valued-local",
			src: `
func f() {
	var n int
	sink(n)
	var a, b int
	sink(a + b)
}`,
		},
		{
			name: "zero-value-joins-branch",
			src: `
func f(c bool) {
	var w int
	if c {
		w = 3
	}
	sink(w)
	var t int
	if c {
		t = q.Tainted(1)
	}
	sink(t) // QUAL010
}`,
		},
		{
			name: "equality-refinement",
			src: `
func f() {
	x := q.Tainted(1)
	if x == 3 {
		sink(x)
	}
	if x != 4 {
		return
	}
	sink(x)
}`,
		},
		{
			name: "loop",
			src: `
func f(n int) {
	x := 0
	for i := 0; i < n; i++ {
		sink(x) // QUAL010
		x = q.Tainted(i)
	}
}`,
		},
		{
			name: "return",
			src: `
func f() int {
	return q.Tainted(1) // QUAL020
}`,
		},
		{
			name: "multi-value-return",
			src: `
func f() (int, int) {
	return 1, q.Tainted(2) // QUAL020
}`,
		},
		{
			name: "multi-value-assignment",
			src: `
func f() {
	a, b := two()
	sink(a)
	sink(q.Clean(b))
}`,
		},
		{
			name: "composite-field",
			src: `
func f() Pair {
	return Pair{A: 1, B: q.Tainted(2)} // QUAL025
}`,
		},
		{
			name: "slice-element",
			src: `
func f() []int {
	return []int{1, q.Tainted(2)} // QUAL025
}`,
		},
		{
			name: "field-assignment",
			src: `
func f(p *Pair) {
	p.A = q.Tainted(1) // QUAL000
	p.B = q.Clean(p.A)
}`,
		},
		{
			name: "variadic",
			src: `
func f() {
	many(1, 2, q.Tainted(3)) // QUAL010
}`,
		},
		{
			name: "variadic-from-multi-value-call",
			src: `
func f() {
	many(two())
	many(q.Clean(1), 2)
}`,
		},
		{
			name: "type-switch-variable",
			src: `
func f(x any) {
	switch v := x.(type) {
	case int:
		sink(v)
	case string:
		sink(q.Tainted(len(v))) // QUAL010
	}
}`,
		},
		{
			name: "compound-assignment",
			src: `
func f() {
	x := 1
	x += q.Tainted(2)
	sink(x) // QUAL010
}`,
		},
		{
			name: "address-taken-is-fixed",
			src: `
func f() {
	x := q.Tainted(1) // QUAL000
	p := &x
	_ = p
}`,
		},
		{
			name: "closure-sees-assigned-qualifiers",
			src: `
func f() func() {
	x := 1
	g := func() {
		sink(x) // QUAL010
	}
	x = q.Tainted(2)
	return g
}`,
		},
		{
			name: "closure-assignment-is-fixed",
			src: `
func f() {
	x := 1
	func() {
		x = q.Tainted(2) // QUAL000
	}()
	sink(x)
}`,
		},
		{
			name: "unreachable-code",
			src: `
func f() {
	return
	sink(q.Tainted(1)) // QUAL010
}`,
		},
		{
			name: "package-var",
			src: `
var total int = q.Tainted(1) // QUAL000

var fine = q.Clean(2)
`,
		},
		{
			name: "min-joins-arguments",
			src: `
func f() {
	sink(min(1, q.Tainted(2))) // QUAL010
}`,
		},
		{
			name: "range-rebinds",
			src: `
func f(vs []int) {
	v := q.Tainted(0)
	for _, v = range vs {
	}
	sink(v)
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := typeCheck(t, header+tt.src)

			var r report.Reporter
			u := c.unit(t, &r)
			c.checkAll(u)

			expected := c.expected()
			got := c.got(&r)
			if !reflect.DeepEqual(expected, got) {
				deepequal.SideBySide(t, "reports", expected, got)
			}
		})
	}
}

const observeSource = `package p

import "example.com/q"

func observe(any) {}

func f(c bool, n int) {
	x := q.Tainted(1)
	observe(x)
	x = 2
	observe(x)
	if c {
		x = q.Tainted(3)
	}
	observe(x)
	y := x + 1
	observe(y)
	observe(n)
	z := n
	if c {
		z = q.Tainted(n)
	} else {
		return
	}
	observe(z)
}
`

// observes returns qualifiers of observe call arguments in source order.
func observes(c *checked, u *Unit) []string {
	var res []string
	ast.Inspect(c.file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if id, ok := call.Fun.(*ast.Ident); !ok || id.Name != "observe" {
			return true
		}
		t := u.TypeOf(call.Args[0])
		if t == nil {
			res = append(res, "<nil>")
			return true
		}
		res = append(res, t.String())
		return true
	})
	return res
}

func TestUnitTypes(t *testing.T) {
	c := typeCheck(t, observeSource)

	var r report.Reporter
	u := c.unit(t, &r)
	c.checkAll(u)

	expected := []string{
		"@Tainted int",
		"@Clean int",
		"@Tainted int",
		"@Tainted int",
		"@Clean int",
		"@Tainted int",
	}
	got := observes(c, u)
	if !reflect.DeepEqual(expected, got) {
		deepequal.SideBySide(t, "observes", expected, got)
	}

	// Checking an unchanged tree once more gives the same qualifiers.
	c.checkAll(u)
	again := observes(c, u)
	if !reflect.DeepEqual(got, again) {
		deepequal.SideBySide(t, "second pass", got, again)
	}
}
