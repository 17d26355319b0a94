package directives

import (
	"errors"
	"go/ast"
	"go/token"
	"go/types"
	"strconv"

	"github.com/sirkon/qualcheck/internal/qualrules"
	"github.com/sirkon/qualcheck/internal/report"
)

// ScrapEngine collects //qual: directives of a package.
type ScrapEngine struct {
	vocab map[string]struct{}

	r *report.ReporterPhase
}

func NewScrapEngine(r *report.ReporterPhase) *ScrapEngine {
	return &ScrapEngine{
		vocab: make(map[string]struct{}),
		r:     r,
	}
}

// --- Config-related -------------------------------------------------------------------------------------------------

// RegisterQualifiers adds qualifier names directives may refer to.
func (e *ScrapEngine) RegisterQualifiers(names ...string) {
	for _, name := range names {
		e.vocab[name] = struct{}{}
	}
}

// --- Actual logic ---------------------------------------------------------------------------------------------------

// Scrap records qualifiers declared by directives of the file into set and suppression spans
// of //qual:ignore into scopes.
func (e *ScrapEngine) Scrap(
	set *Set,
	scopes *report.Scopes,
	fset *token.FileSet,
	info *types.Info,
	file *ast.File,
) {
	cmap := ast.NewCommentMap(fset, file, file.Comments)

	for node, groups := range cmap {
		var ds []directive
		for _, g := range groups {
			for _, c := range g.List {
				d, err := parseDirective(c)
				if errors.Is(err, errNotDirective) {
					continue
				}
				if err != nil {
					e.r.Reportf(qualrules.MalformedDirective(), c.Slash, "malformed directive: %s", err)
					continue
				}
				ds = append(ds, d)
			}
		}

		for _, d := range ds {
			switch d.kind {
			case directiveIgnore:
				e.scrapIgnore(scopes, node, d)
			case directiveQualifier:
				e.scrapQualifier(set, info, node, d)
			case directiveParam, directiveResult:
				e.scrapSignature(set, info, node, d)
			}
		}
	}
}

func (e *ScrapEngine) scrapIgnore(scopes *report.Scopes, node ast.Node, d directive) {
	if _, ok := node.(*ast.File); ok {
		e.r.Report(
			qualrules.MalformedDirective(),
			"ignore directive must precede a statement or a declaration",
			d.pos,
		)
		return
	}

	scopes.Add(node.Pos(), node.End(), d.rules...)
}

func (e *ScrapEngine) scrapQualifier(set *Set, info *types.Info, node ast.Node, d directive) {
	vars := declaredVars(info, node)
	if len(vars) == 0 {
		e.r.Reportf(
			qualrules.MalformedDirective(),
			d.pos,
			"qualifier directive %s must be attached to a variable or a field declaration",
			d.qualifier,
		)
		return
	}
	if !e.known(d) {
		return
	}

	for _, v := range vars {
		set.Declare(v, d.qualifier)
	}
}

func (e *ScrapEngine) scrapSignature(set *Set, info *types.Info, node ast.Node, d directive) {
	fn := declaredFunc(info, node)
	if fn == nil {
		e.r.Report(
			qualrules.MalformedDirective(),
			"param and result directives must be attached to a function or a method",
			d.pos,
		)
		return
	}
	if !e.known(d) {
		return
	}

	sig := fn.Type().(*types.Signature)
	if d.kind == directiveParam {
		v := lookupVar(sig.Params(), d.target)
		if v == nil {
			e.r.Reportf(qualrules.MalformedDirective(), d.pos, "%s has no parameter %s", fn.Name(), d.target)
			return
		}
		set.Declare(v, d.qualifier)
		return
	}

	if d.target == "" {
		for i := 0; i < sig.Results().Len(); i++ {
			set.Declare(sig.Results().At(i), d.qualifier)
		}
		return
	}

	v := lookupVar(sig.Results(), d.target)
	if v == nil {
		e.r.Reportf(qualrules.MalformedDirective(), d.pos, "%s has no result %s", fn.Name(), d.target)
		return
	}
	set.Declare(v, d.qualifier)
}

func (e *ScrapEngine) known(d directive) bool {
	if _, ok := e.vocab[d.qualifier]; ok {
		return true
	}

	e.r.Reportf(qualrules.UnknownQualifier(), d.pos, "unknown qualifier %s", d.qualifier)
	return false
}

// declaredVars returns variables defined by a declaration node.
func declaredVars(info *types.Info, node ast.Node) []*types.Var {
	var res []*types.Var
	addIdent := func(id *ast.Ident) {
		if v, ok := info.Defs[id].(*types.Var); ok {
			res = append(res, v)
		}
	}

	switch n := node.(type) {
	case *ast.ValueSpec:
		for _, name := range n.Names {
			addIdent(name)
		}

	case *ast.GenDecl:
		if n.Tok != token.VAR {
			return nil
		}
		for _, spec := range n.Specs {
			res = append(res, declaredVars(info, spec)...)
		}

	case *ast.DeclStmt:
		return declaredVars(info, n.Decl)

	case *ast.Field:
		for _, name := range n.Names {
			addIdent(name)
		}

	case *ast.AssignStmt:
		if n.Tok != token.DEFINE {
			return nil
		}
		for _, lhs := range n.Lhs {
			if id, ok := lhs.(*ast.Ident); ok {
				addIdent(id)
			}
		}
	}

	return res
}

// declaredFunc returns a function or an interface method declared by the node.
func declaredFunc(info *types.Info, node ast.Node) *types.Func {
	switch n := node.(type) {
	case *ast.FuncDecl:
		fn, _ := info.Defs[n.Name].(*types.Func)
		return fn

	case *ast.Field:
		if len(n.Names) != 1 {
			return nil
		}
		fn, _ := info.Defs[n.Names[0]].(*types.Func)
		return fn

	default:
		return nil
	}
}

// lookupVar finds a tuple member by its name or index.
func lookupVar(t *types.Tuple, target string) *types.Var {
	for i := 0; i < t.Len(); i++ {
		if t.At(i).Name() == target {
			return t.At(i)
		}
	}

	i, err := strconv.Atoi(target)
	if err != nil {
		return nil
	}
	return tupleAt(t, i)
}
