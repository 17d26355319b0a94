package flow

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/cfg"

	"github.com/sirkon/qualcheck/internal/lattice"
)

func testLattice(t *testing.T) *lattice.Lattice {
	t.Helper()

	l, err := lattice.NewBuilder("signedness").
		Add("UnknownSignedness").
		Add("Signed", "UnknownSignedness").
		Add("Unsigned", "UnknownSignedness").
		Add("Literal", "Signed", "Unsigned").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return l
}

// testTransfer gives basic literals the Literal qualifier and identifiers s and u the Signed and
// Unsigned ones. Other variables pass their facts through. Anything else kills the assigned
// variable. x == <literal> refines x to Literal
// on the true edge.
type testTransfer struct {
	info  *types.Info
	lat   *lattice.Lattice
	names map[string]string
}

func (tr *testTransfer) varOf(e ast.Expr) *types.Var {
	id, ok := e.(*ast.Ident)
	if !ok {
		return nil
	}
	v, _ := tr.info.ObjectOf(id).(*types.Var)
	return v
}

func (tr *testTransfer) valueOf(e ast.Expr) *lattice.Qualifier {
	switch v := e.(type) {
	case *ast.BasicLit:
		q, _ := tr.lat.ByName("Literal")
		return q
	case *ast.Ident:
		if name, ok := tr.names[v.Name]; ok {
			q, _ := tr.lat.ByName(name)
			return q
		}
	}
	return nil
}

func (tr *testTransfer) assign(s *Store, lhs, rhs ast.Expr) {
	v := tr.varOf(lhs)
	if v == nil {
		return
	}
	if q := tr.valueOf(rhs); q != nil {
		s.Set(v, q)
		return
	}
	if rv := tr.varOf(rhs); rv != nil {
		if q, ok := s.Get(rv); ok {
			s.Set(v, q)
			return
		}
	}
	s.Kill(v)
}

func (tr *testTransfer) Node(n ast.Node, s *Store) {
	switch n := n.(type) {
	case *ast.AssignStmt:
		for i := range n.Lhs {
			tr.assign(s, n.Lhs[i], n.Rhs[i])
		}
	case *ast.ValueSpec:
		for i, name := range n.Names {
			var value ast.Expr
			if i < len(n.Values) {
				value = n.Values[i]
			}
			tr.assign(s, name, value)
		}
	}
}

func (tr *testTransfer) Branch(cond ast.Expr, taken bool, s *Store) {
	be, ok := cond.(*ast.BinaryExpr)
	if !ok || be.Op != token.EQL || !taken {
		return
	}
	if _, ok := be.Y.(*ast.BasicLit); !ok {
		return
	}
	if v := tr.varOf(be.X); v != nil {
		q, _ := tr.lat.ByName("Literal")
		s.Set(v, q)
	}
}

// observes solves the body of f and returns the qualifier of x at every observe(N, x) call keyed by N.
// A missing fact is reported as an empty string.
func observes(t *testing.T, src string) map[int]string {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "f.go", "package p\n\nfunc observe(int, int) {}\n\n"+src, 0)
	if err != nil {
		t.Fatal(err)
	}
	info := &types.Info{
		Defs: map[*ast.Ident]types.Object{},
		Uses: map[*ast.Ident]types.Object{},
	}
	if _, err := (&types.Config{}).Check("p", fset, []*ast.File{file}, info); err != nil {
		t.Fatal(err)
	}

	var fn *ast.FuncDecl
	for _, d := range file.Decls {
		if f, ok := d.(*ast.FuncDecl); ok && f.Name.Name == "f" {
			fn = f
		}
	}
	if fn == nil {
		t.Fatal("function f not found")
	}

	lat := testLattice(t)
	tr := &testTransfer{
		info:  info,
		lat:   lat,
		names: map[string]string{"s": "Signed", "u": "Unsigned"},
	}
	g := cfg.New(fn.Body, func(*ast.CallExpr) bool { return true })
	res := Solve(g, lat, NewStore(lat), tr)

	got := map[int]string{}
	for _, b := range g.Blocks {
		res.Walk(b, tr, func(n ast.Node, s *Store) {
			es, ok := n.(*ast.ExprStmt)
			if !ok {
				return
			}
			call, ok := es.X.(*ast.CallExpr)
			if !ok || len(call.Args) != 2 {
				return
			}
			tag, err := strconv.Atoi(call.Args[0].(*ast.BasicLit).Value)
			if err != nil {
				t.Fatal(err)
			}
			q, ok := s.Get(tr.varOf(call.Args[1]))
			if !ok {
				got[tag] = ""
				return
			}
			got[tag] = q.Name()
		})
	}

	return got
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[int]string
	}{
		{
			name: "straight-line",
			src: `func f(s, u int) {
	x := s
	observe(1, x)
	x = u
	observe(2, x)
	x = 10
	observe(3, x)
}`,
			want: map[int]string{1: "Signed", 2: "Unsigned", 3: "Literal"},
		},
		{
			name: "if-else-merge-is-join",
			src: `func f(c bool, s, u int) {
	x := s
	if c {
		x = u
	}
	observe(1, x)
}`,
			want: map[int]string{1: "UnknownSignedness"},
		},
		{
			name: "literal-and-signed-join",
			src: `func f(c bool, s int) {
	x := 1
	if c {
		x = s
	} else {
		x = 2
	}
	observe(1, x)
}`,
			want: map[int]string{1: "Signed"},
		},
		{
			name: "one-sided-fact-dropped",
			src: `func f(c bool, s int) {
	var x int
	if c {
		x = s
	}
	observe(1, x)
}`,
			want: map[int]string{1: ""},
		},
		{
			name: "loop-fixpoint",
			src: `func f(s int) {
	x := 0
	for i := 0; i < 10; i++ {
		observe(1, x)
		x = s
	}
	observe(2, x)
}`,
			want: map[int]string{1: "Signed", 2: "Signed"},
		},
		{
			name: "equality-refines-true-edge",
			src: `func f(s int) {
	x := s
	if x == 0 {
		observe(1, x)
	} else {
		observe(2, x)
	}
	observe(3, x)
}`,
			want: map[int]string{1: "Literal", 2: "Signed", 3: "Signed"},
		},
		{
			name: "unreachable-after-return",
			src: `func f(s int) {
	x := s
	return
	observe(1, x)
}`,
			want: map[int]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := observes(t, tt.src)
			if len(got) != len(tt.want) {
				t.Fatalf("expected observes %v, got %v", tt.want, got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("observe %d: got %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

// chainSource builds a loop where a Signed value needs n iterations to travel from vN-1 to v0
// through a chain of copies. Every v starts Unsigned.
func chainSource(n int) string {
	var names, values []string
	for i := range n {
		names = append(names, "v"+strconv.Itoa(i))
		values = append(values, "u")
	}

	var b strings.Builder
	b.WriteString("func f(s, u int) {\n")
	b.WriteString("\t" + strings.Join(names, ", ") + " := " + strings.Join(values, ", ") + "\n")
	b.WriteString("\tfor i := 0; i < 10; i++ {\n")
	b.WriteString("\t\tobserve(1, v0)\n")
	for i := range n - 1 {
		b.WriteString("\t\t" + names[i] + " = " + names[i+1] + "\n")
	}
	b.WriteString("\t\t" + names[n-1] + " = s\n")
	b.WriteString("\t}\n")
	b.WriteString("\tobserve(2, v0)\n")
	b.WriteString("}\n")
	return b.String()
}

func TestSolveLongChain(t *testing.T) {
	for _, n := range []int{8, 70, 200} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			got := observes(t, chainSource(n))
			want := map[int]string{1: "UnknownSignedness", 2: "UnknownSignedness"}
			if len(got) != len(want) {
				t.Fatalf("expected observes %v, got %v", want, got)
			}
			for k, v := range want {
				if got[k] != v {
					t.Errorf("observe %d: got %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestStoreMerge(t *testing.T) {
	lat := testLattice(t)
	signed, _ := lat.ByName("Signed")
	unsigned, _ := lat.ByName("Unsigned")
	literal, _ := lat.ByName("Literal")

	a := types.NewVar(token.NoPos, nil, "a", types.Typ[types.Int])
	b := types.NewVar(token.NoPos, nil, "b", types.Typ[types.Int])
	c := types.NewVar(token.NoPos, nil, "c", types.Typ[types.Int])

	left := NewStore(lat)
	left.Set(a, signed)
	left.Set(b, literal)
	left.Set(c, literal)

	right := NewStore(lat)
	right.Set(a, unsigned)
	right.Set(b, signed)

	merged := left.Merge(right)
	if got := merged.String(); got != "{a: UnknownSignedness, b: Signed}" {
		t.Errorf("unexpected merge result %s", got)
	}
	if !merged.Equal(right.Merge(left)) {
		t.Error("merge must be commutative")
	}

	clone := left.Clone()
	clone.Kill(a)
	if _, ok := left.Get(a); !ok {
		t.Error("clone must be independent")
	}
}

func TestStoreForeignQualifier(t *testing.T) {
	lat := testLattice(t)
	other, err := lattice.NewBuilder("nullness").Add("Nullable").Build()
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		if _, ok := recover().(*lattice.ContractError); !ok {
			t.Error("contract error panic expected")
		}
	}()
	NewStore(lat).Set(types.NewVar(token.NoPos, nil, "v", types.Typ[types.Int]), other.Top())
}
