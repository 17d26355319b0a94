// Package qualrules defines the canonical rule codes (QUAL-series) reported by qualcheck.
//
// Rule numbering scheme:
//
//	000–029  Consistency of qualifiers at type-use sites
//	030–049  Operations checked by a particular checker
//	050–069  Source vocabulary: directives and markers
package qualrules

import (
	"fmt"
	"strings"
)

// Rule represents a qualcheck rule code.
type Rule int

const (
	ruleInvalid Rule = iota

	QUAL000IncompatibleAssignment
	QUAL010IncompatibleArgument
	QUAL020IncompatibleReturn
	QUAL025IncompatibleCompositeField
	QUAL030MixedSignedness
	QUAL040SignSensitiveOperation
	QUAL050UnknownQualifier
	QUAL060MalformedDirective
)

var ruleCodes = map[Rule]string{
	QUAL000IncompatibleAssignment:     "QUAL000",
	QUAL010IncompatibleArgument:       "QUAL010",
	QUAL020IncompatibleReturn:         "QUAL020",
	QUAL025IncompatibleCompositeField: "QUAL025",
	QUAL030MixedSignedness:            "QUAL030",
	QUAL040SignSensitiveOperation:     "QUAL040",
	QUAL050UnknownQualifier:           "QUAL050",
	QUAL060MalformedDirective:         "QUAL060",
}

// Code returns the bare code of the rule, like "QUAL000".
func (r Rule) Code() string {
	v, ok := ruleCodes[r]
	if !ok {
		return fmt.Sprintf("QUAL???(%d)", r)
	}
	return v
}

// String returns the canonical code and short name of the rule.
// Example: "QUAL000: IncompatibleAssignment"
func (r Rule) String() string {
	switch r {
	case QUAL000IncompatibleAssignment:
		return "QUAL000: IncompatibleAssignment"
	case QUAL010IncompatibleArgument:
		return "QUAL010: IncompatibleArgument"
	case QUAL020IncompatibleReturn:
		return "QUAL020: IncompatibleReturn"
	case QUAL025IncompatibleCompositeField:
		return "QUAL025: IncompatibleCompositeField"
	case QUAL030MixedSignedness:
		return "QUAL030: MixedSignedness"
	case QUAL040SignSensitiveOperation:
		return "QUAL040: SignSensitiveOperation"
	case QUAL050UnknownQualifier:
		return "QUAL050: UnknownQualifier"
	case QUAL060MalformedDirective:
		return "QUAL060: MalformedDirective"
	default:
		return fmt.Sprintf("rule-unknown(%d)", r)
	}
}

// Description returns the human-readable explanation of the rule.
func (r Rule) Description() string {
	switch r {
	case QUAL000IncompatibleAssignment:
		return "Assigned value qualifier must be a subtype of the target qualifier."
	case QUAL010IncompatibleArgument:
		return "Argument qualifier must be a subtype of the parameter qualifier."
	case QUAL020IncompatibleReturn:
		return "Returned value qualifier must be a subtype of the result qualifier."
	case QUAL025IncompatibleCompositeField:
		return "Composite literal element qualifier must be a subtype of the field qualifier."
	case QUAL030MixedSignedness:
		return "Operands of an operation must not mix signed and unsigned values."
	case QUAL040SignSensitiveOperation:
		return "Sign-sensitive operations must agree with the signedness of the operand type."
	case QUAL050UnknownQualifier:
		return "Qualifier must belong to the vocabulary of an enabled checker."
	case QUAL060MalformedDirective:
		return "Directive must follow the //qual: syntax."
	default:
		return fmt.Sprintf("unknown-rule(%d)", r)
	}
}

// UnmarshalText accepts both a bare code ("QUAL030") and the canonical form
// ("QUAL030: MixedSignedness").
func (r *Rule) UnmarshalText(rawtext []byte) error {
	text := strings.TrimSpace(string(rawtext))
	for k, v := range ruleCodes {
		if text == v || text == k.String() {
			*r = k
			return nil
		}
	}

	return fmt.Errorf("unknown rule %q", text)
}

func (r Rule) MarshalText() ([]byte, error) {
	if _, ok := ruleCodes[r]; !ok {
		return nil, fmt.Errorf("invalid rule %d", r)
	}
	return []byte(r.Code()), nil
}

// All returns every known rule in code order.
func All() []Rule {
	return []Rule{
		QUAL000IncompatibleAssignment,
		QUAL010IncompatibleArgument,
		QUAL020IncompatibleReturn,
		QUAL025IncompatibleCompositeField,
		QUAL030MixedSignedness,
		QUAL040SignSensitiveOperation,
		QUAL050UnknownQualifier,
		QUAL060MalformedDirective,
	}
}

// Canonical constructors for readability and stable call sites.

func IncompatibleAssignment() Rule     { return QUAL000IncompatibleAssignment }
func IncompatibleArgument() Rule       { return QUAL010IncompatibleArgument }
func IncompatibleReturn() Rule         { return QUAL020IncompatibleReturn }
func IncompatibleCompositeField() Rule { return QUAL025IncompatibleCompositeField }
func MixedSignedness() Rule            { return QUAL030MixedSignedness }
func SignSensitiveOperation() Rule     { return QUAL040SignSensitiveOperation }
func UnknownQualifier() Rule           { return QUAL050UnknownQualifier }
func MalformedDirective() Rule         { return QUAL060MalformedDirective }
