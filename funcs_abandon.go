package main

import (
	"go/ast"
	"go/types"
	"maps"

	"golang.org/x/tools/go/types/typeutil"

	"github.com/sirkon/qualcheck/internal/directives"
)

// Some funcs are known for stopping current func execution or even stopping the whole program.
// Calls to them end a basic block: nothing after them is reached and facts computed on the way
// to them never flow any further.
type knownAbandonFuncs struct {
	known map[directives.Reference]struct{}
}

func newKnownAbandonFuncs(custom []directives.Reference) *knownAbandonFuncs {
	predefined := map[directives.Reference]struct{}{
		// Stdlib.
		{Package: "os", Name: "Exit"}:        {},
		{Package: "runtime", Name: "Goexit"}: {},
		{Package: "log", Name: "Fatal"}:      {},
		{Package: "log", Name: "Fatalf"}:     {},
		{Package: "log", Name: "Fatalln"}:    {},
		{Package: "log", Name: "Panic"}:      {},
		{Package: "log", Name: "Panicf"}:     {},
		{Package: "log", Name: "Panicln"}:    {},

		{Package: "log", Type: "Logger", Name: "Fatal"}:   {},
		{Package: "log", Type: "Logger", Name: "Fatalf"}:  {},
		{Package: "log", Type: "Logger", Name: "Fatalln"}: {},
		{Package: "log", Type: "Logger", Name: "Panic"}:   {},
		{Package: "log", Type: "Logger", Name: "Panicf"}:  {},
		{Package: "log", Type: "Logger", Name: "Panicln"}: {},

		// Testing helpers are promoted from the unexported common type or called through TB.
		{Package: "testing", Type: "common", Name: "Fatal"}:   {},
		{Package: "testing", Type: "common", Name: "Fatalf"}:  {},
		{Package: "testing", Type: "common", Name: "FailNow"}: {},
		{Package: "testing", Type: "common", Name: "Skip"}:    {},
		{Package: "testing", Type: "common", Name: "Skipf"}:   {},
		{Package: "testing", Type: "common", Name: "SkipNow"}: {},
		{Package: "testing", Type: "TB", Name: "Fatal"}:       {},
		{Package: "testing", Type: "TB", Name: "Fatalf"}:      {},
		{Package: "testing", Type: "TB", Name: "FailNow"}:     {},
		{Package: "testing", Type: "TB", Name: "Skip"}:        {},
		{Package: "testing", Type: "TB", Name: "Skipf"}:       {},
		{Package: "testing", Type: "TB", Name: "SkipNow"}:     {},
	}

	known := maps.Clone(predefined)
	for _, ref := range custom {
		known[ref] = struct{}{}
	}

	return &knownAbandonFuncs{
		known: known,
	}
}

// mayReturn builds a predicate telling calls that may return from those that never do.
func (c *knownAbandonFuncs) mayReturn(info *types.Info) func(*ast.CallExpr) bool {
	return func(call *ast.CallExpr) bool {
		switch fn := typeutil.Callee(info, call).(type) {
		case *types.Builtin:
			return fn.Name() != "panic"
		case *types.Func:
			ref, ok := directives.ReferenceOf(fn)
			if !ok {
				return true
			}
			_, abandons := c.known[ref]
			return !abandons
		default:
			// Function values and closures.
			return true
		}
	}
}
