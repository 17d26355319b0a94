package lattice

import (
	"errors"
	"testing"
)

func signedness(t *testing.T) *Lattice {
	t.Helper()

	l, err := NewBuilder("signedness").
		Add("UnknownSignedness").
		Add("Signed", "UnknownSignedness").
		Add("Unsigned", "UnknownSignedness").
		Add("Literal", "Signed", "Unsigned").
		Add("ConstantPositive", "Literal").
		Add("SignednessBottom", "ConstantPositive").
		Build()
	if err != nil {
		t.Fatalf("build lattice: %s", err)
	}

	return l
}

func get(t *testing.T, l *Lattice, name string) *Qualifier {
	t.Helper()

	q, ok := l.ByName(name)
	if !ok {
		t.Fatalf("no qualifier %s in %s", name, l.Name())
	}
	return q
}

func TestTopIsUniqueMaximum(t *testing.T) {
	l := signedness(t)
	top := l.Top()
	if top.Name() != "UnknownSignedness" {
		t.Fatalf("unexpected top %s", top)
	}

	for _, q := range l.Qualifiers() {
		t.Run(q.Name(), func(t *testing.T) {
			if !l.IsSubtype(q, top) {
				t.Errorf("%s must be a subtype of top", q)
			}
			if l.IsSubtype(top, q) != (q == top) {
				t.Errorf("top <: %s must hold only for top itself", q)
			}
		})
	}
}

func TestSubtypeOrder(t *testing.T) {
	l := signedness(t)

	tests := []struct {
		a, b string
		want bool
	}{
		{"Signed", "Signed", true},
		{"Signed", "Unsigned", false},
		{"Unsigned", "Signed", false},
		{"Literal", "Signed", true},
		{"Literal", "Unsigned", true},
		{"ConstantPositive", "Signed", true},
		{"ConstantPositive", "Literal", true},
		{"Literal", "ConstantPositive", false},
		{"SignednessBottom", "UnknownSignedness", true},
		{"UnknownSignedness", "Signed", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"<:"+tt.b, func(t *testing.T) {
			if got := l.IsSubtype(get(t, l, tt.a), get(t, l, tt.b)); got != tt.want {
				t.Errorf("IsSubtype(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	l := signedness(t)

	tests := []struct {
		a, b string
		want string
	}{
		{"Signed", "Unsigned", "UnknownSignedness"},
		{"Signed", "Signed", "Signed"},
		{"Literal", "Signed", "Signed"},
		{"ConstantPositive", "Unsigned", "Unsigned"},
		{"ConstantPositive", "Literal", "Literal"},
		{"SignednessBottom", "Signed", "Signed"},
		{"UnknownSignedness", "Literal", "UnknownSignedness"},
	}

	for _, tt := range tests {
		t.Run(tt.a+"+"+tt.b, func(t *testing.T) {
			a, b := get(t, l, tt.a), get(t, l, tt.b)
			got := l.Join(a, b)
			if got.Name() != tt.want {
				t.Errorf("Join(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
			if l.Join(b, a) != got {
				t.Errorf("join must be commutative")
			}
			if !l.IsSubtype(a, got) || !l.IsSubtype(b, got) {
				t.Errorf("join %s must be above both operands", got)
			}
		})
	}

	if got := l.JoinAll(get(t, l, "Literal"), get(t, l, "Signed"), get(t, l, "Unsigned")); got != l.Top() {
		t.Errorf("JoinAll = %s, want top", got)
	}
	if l.JoinAll() != nil {
		t.Error("JoinAll of nothing must be nil")
	}
}

func TestMeet(t *testing.T) {
	l := signedness(t)

	tests := []struct {
		a, b string
		want string
	}{
		{"Signed", "Unsigned", "Literal"},
		{"Signed", "Signed", "Signed"},
		{"Literal", "Signed", "Literal"},
		{"ConstantPositive", "Unsigned", "ConstantPositive"},
		{"UnknownSignedness", "Unsigned", "Unsigned"},
		{"SignednessBottom", "Signed", "SignednessBottom"},
	}

	for _, tt := range tests {
		t.Run(tt.a+"*"+tt.b, func(t *testing.T) {
			a, b := get(t, l, tt.a), get(t, l, tt.b)
			got, ok := l.Meet(a, b)
			if !ok {
				t.Fatalf("Meet(%s, %s) must exist", tt.a, tt.b)
			}
			if got.Name() != tt.want {
				t.Errorf("Meet(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
			if again, _ := l.Meet(b, a); again != got {
				t.Errorf("meet must be commutative")
			}
			if !l.IsSubtype(got, a) || !l.IsSubtype(got, b) {
				t.Errorf("meet %s must be below both operands", got)
			}
		})
	}

	// Two minimal qualifiers have no common lower bound.
	forked, err := NewBuilder("forked").
		Add("Any").
		Add("Left", "Any").
		Add("Right", "Any").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if q, ok := forked.Meet(get(t, forked, "Left"), get(t, forked, "Right")); ok {
		t.Errorf("no meet expected, got %s", q)
	}
}

func TestBottomAndLeaves(t *testing.T) {
	l := signedness(t)
	if b := l.Bottom(); b == nil || b.Name() != "SignednessBottom" {
		t.Fatalf("unexpected bottom %s", b)
	}

	leaves := l.Leaves()
	if len(leaves) != 1 || leaves[0] != l.Bottom() {
		t.Fatalf("unexpected leaves %v", leaves)
	}

	flat, err := NewBuilder("flat").Add("Top").Add("A", "Top").Add("B", "Top").Build()
	if err != nil {
		t.Fatal(err)
	}
	if flat.Bottom() != nil {
		t.Errorf("flat lattice must have no bottom, got %s", flat.Bottom())
	}
	if got := len(flat.Leaves()); got != 2 {
		t.Errorf("expected 2 leaves, got %d", got)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		b    *Builder
		err  error
	}{
		{
			name: "empty-name",
			b:    NewBuilder("x").Add(""),
			err:  ErrEmptyName,
		},
		{
			name: "duplicate",
			b:    NewBuilder("x").Add("A").Add("A"),
			err:  ErrDuplicate,
		},
		{
			name: "unknown-supertype",
			b:    NewBuilder("x").Add("A", "B"),
			err:  ErrUnknownSupertype,
		},
		{
			name: "cycle",
			b:    NewBuilder("x").Add("A", "B").Add("B", "A"),
			err:  ErrCycle,
		},
		{
			name: "two-tops",
			b:    NewBuilder("x").Add("A").Add("B"),
			err:  ErrNoTop,
		},
		{
			// C and D are both below A and B which are incomparable.
			name: "no-join",
			b: NewBuilder("x").
				Add("Top").
				Add("A", "Top").
				Add("B", "Top").
				Add("C", "A", "B").
				Add("D", "A", "B"),
			err: ErrNoJoin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Build()
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestForeignQualifierPanics(t *testing.T) {
	l := signedness(t)
	other, err := NewBuilder("nullness").Add("Nullable").Add("NonNull", "Nullable").Build()
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("panic expected")
		}
		ce, ok := r.(*ContractError)
		if !ok {
			t.Fatalf("unexpected panic value %#v", r)
		}
		if ce.Lattice != "signedness" || ce.Foreign != "nullness" {
			t.Errorf("unexpected contract error %s", ce)
		}
	}()

	l.IsSubtype(l.Top(), other.Top())
}

func TestOwns(t *testing.T) {
	l := signedness(t)
	other, err := NewBuilder("other").Add("T").Build()
	if err != nil {
		t.Fatal(err)
	}

	if !l.Owns(l.Top()) {
		t.Error("lattice must own its top")
	}
	if l.Owns(other.Top()) {
		t.Error("lattice must not own a foreign qualifier")
	}
	if q := get(t, l, "Literal"); len(q.DirectSupertypes()) != 2 || q.Lattice() != l {
		t.Errorf("unexpected qualifier metadata for %s", q)
	}
}
