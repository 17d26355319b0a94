package main

import (
	"go/types"
	"maps"

	"github.com/sirkon/qualcheck/internal/directives"
	"github.com/sirkon/qualcheck/internal/engine"
	"github.com/sirkon/qualcheck/internal/signedness"
)

// knownFuncs gives qualifiers to signatures of functions out of reach of directives:
// the standard library and third party packages.
type knownFuncs struct {
	known map[directives.Reference]FunctionConfig
}

var _ engine.Declarations = (*knownFuncs)(nil)

func newKnownFuncs(custom []FunctionConfig) *knownFuncs {
	predefined := map[directives.Reference]FunctionConfig{
		{Package: "strconv", Name: "FormatUint"}: {
			Params: []string{signedness.Unsigned},
		},
		{Package: "strconv", Name: "AppendUint"}: {
			Params: []string{"", signedness.Unsigned},
		},
		{Package: "strconv", Name: "ParseUint"}: {
			Results: []string{signedness.Unsigned},
		},
	}

	// Custom definitions override predefined ones.
	known := maps.Clone(predefined)
	for _, f := range custom {
		known[f.Ref] = f
	}

	return &knownFuncs{known: known}
}

func (*knownFuncs) VarQualifiers(*types.Var) []string {
	return nil
}

func (k *knownFuncs) ParamQualifiers(fn *types.Func, i int) []string {
	f, ok := k.lookup(fn)
	if !ok {
		return nil
	}
	return nameAt(f.Params, i)
}

func (k *knownFuncs) ResultQualifiers(fn *types.Func, i int) []string {
	f, ok := k.lookup(fn)
	if !ok {
		return nil
	}
	return nameAt(f.Results, i)
}

func (k *knownFuncs) lookup(fn *types.Func) (FunctionConfig, bool) {
	ref, ok := directives.ReferenceOf(fn)
	if !ok {
		return FunctionConfig{}, false
	}
	f, ok := k.known[ref]
	return f, ok
}

// nameAt returns the i-th name of the list. Empty names mean nothing is declared.
func nameAt(names []string, i int) []string {
	if i < 0 || i >= len(names) || names[i] == "" {
		return nil
	}
	return names[i : i+1]
}
