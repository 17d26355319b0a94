package defaults

import (
	"errors"
	"go/types"
	"testing"

	"github.com/sirkon/qualcheck/internal/annotated"
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

func testPolicy(t *testing.T, l *lattice.Lattice) *Policy {
	t.Helper()

	p, err := NewPolicy(l).
		Default(LocationField, "Signed").
		Default(LocationParameter, "Signed").
		Default(LocationOther, "Signed").
		Implicit(annotated.KindUnsignedInt, "Unsigned").
		Refinable(LocationLocalVariable).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestApply(t *testing.T) {
	l := testLattice(t)
	e := NewEngine(testPolicy(t, l))
	literal, _ := l.ByName("Literal")

	tests := []struct {
		name     string
		loc      Location
		typ      types.Type
		existing *lattice.Qualifier
		want     string
	}{
		{
			name:     "explicit-stays",
			loc:      LocationField,
			typ:      types.Typ[types.Int],
			existing: literal,
			want:     "Literal",
		},
		{
			name: "local-int-top",
			loc:  LocationLocalVariable,
			typ:  types.Typ[types.Int],
			want: "UnknownSignedness",
		},
		{
			name: "local-uint-top",
			loc:  LocationLocalVariable,
			typ:  types.Typ[types.Uint8],
			want: "UnknownSignedness",
		},
		{
			name: "field-uint-implicit",
			loc:  LocationField,
			typ:  types.Typ[types.Uint],
			want: "Unsigned",
		},
		{
			name: "param-int-default",
			loc:  LocationParameter,
			typ:  types.Typ[types.Int32],
			want: "Signed",
		},
		{
			name: "return-falls-back-to-other",
			loc:  LocationReturn,
			typ:  types.Typ[types.Float64],
			want: "Signed",
		},
		{
			name: "bool-top",
			loc:  LocationField,
			typ:  types.Typ[types.Bool],
			want: "UnknownSignedness",
		},
		{
			name: "string-top",
			loc:  LocationParameter,
			typ:  types.Typ[types.String],
			want: "UnknownSignedness",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := annotated.New(tt.typ, tt.existing)
			res := e.Apply(Site{Location: tt.loc}, typ)
			if res != typ {
				t.Fatal("type must be mutated in place")
			}
			q, ok := res.Primary(l)
			if !ok {
				t.Fatalf("no qualifier after defaulting: %s", res)
			}
			if q.Name() != tt.want {
				t.Errorf("got %s, want %s", q, tt.want)
			}
		})
	}
}

func TestApplyWithoutOtherDefault(t *testing.T) {
	l := testLattice(t)
	p, err := NewPolicy(l).Default(LocationField, "Signed").Build()
	if err != nil {
		t.Fatal(err)
	}

	res := NewEngine(p).Apply(Site{Location: LocationReturn}, annotated.New(types.Typ[types.Int]))
	if q, _ := res.Primary(l); q != l.Top() {
		t.Errorf("top expected when nothing matches, got %s", q)
	}
}

func TestPolicyErrors(t *testing.T) {
	l := testLattice(t)

	tests := []struct {
		name string
		b    *PolicyBuilder
		err  error
	}{
		{
			name: "duplicate-default",
			b:    NewPolicy(l).Default(LocationField, "Signed").Default(LocationField, "Unsigned"),
			err:  ErrDuplicateDefault,
		},
		{
			name: "duplicate-implicit",
			b: NewPolicy(l).
				Implicit(annotated.KindUnsignedInt, "Unsigned").
				Implicit(annotated.KindUnsignedInt, "Signed"),
			err: ErrDuplicateImplicit,
		},
		{
			name: "unknown-qualifier",
			b:    NewPolicy(l).Default(LocationReturn, "NonNull"),
			err:  ErrUnknownQualifier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.b.Build(); !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestLocationUnmarshalText(t *testing.T) {
	var loc Location
	if err := loc.UnmarshalText([]byte("parameter")); err != nil {
		t.Fatal(err)
	}
	if loc != LocationParameter {
		t.Errorf("unexpected location %s", loc)
	}
	if err := loc.UnmarshalText([]byte("receiver")); err == nil {
		t.Error("error expected")
	}
}
