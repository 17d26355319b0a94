package directives

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"github.com/sirkon/qualcheck/internal/qualrules"
)

const prefix = "//qual:"

type directiveKind int

const (
	_ directiveKind = iota
	directiveQualifier
	directiveParam
	directiveResult
	directiveIgnore
)

// directive is a parsed //qual: comment.
//
//	//qual:<Qualifier>
//	//qual:param <name> <Qualifier>
//	//qual:result [<name>|<index>] <Qualifier>
//	//qual:ignore [<RULE>...]
//
// Text after another // is a free form explanation.
type directive struct {
	kind      directiveKind
	target    string
	qualifier string
	rules     []qualrules.Rule
	pos       token.Pos
}

var errNotDirective = errors.New("not a directive")

func parseDirective(c *ast.Comment) (directive, error) {
	if !strings.HasPrefix(c.Text, prefix) {
		return directive{}, errNotDirective
	}

	d := directive{pos: c.Slash}
	text := c.Text[len(prefix):]
	if i := strings.Index(text, "//"); i >= 0 {
		// An explanation follows.
		text = text[:i]
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return d, errors.New("empty directive")
	}

	switch fields[0] {
	case "ignore":
		d.kind = directiveIgnore
		for _, f := range fields[1:] {
			var r qualrules.Rule
			if err := r.UnmarshalText([]byte(f)); err != nil {
				return d, fmt.Errorf("ignore: %w", err)
			}
			d.rules = append(d.rules, r)
		}

	case "param":
		d.kind = directiveParam
		if len(fields) != 3 {
			return d, errors.New("param directive needs a parameter name and a qualifier")
		}
		d.target = fields[1]
		d.qualifier = fields[2]

	case "result":
		d.kind = directiveResult
		switch len(fields) {
		case 2:
			d.qualifier = fields[1]
		case 3:
			d.target = fields[1]
			d.qualifier = fields[2]
		default:
			return d, errors.New("result directive needs an optional result name or index and a qualifier")
		}

	default:
		if len(fields) != 1 {
			return d, fmt.Errorf("unexpected text after qualifier %s", fields[0])
		}
		d.kind = directiveQualifier
		d.qualifier = fields[0]
	}

	return d, nil
}
