package signedness

import (
	"go/constant"
	"go/types"

	"fortio.org/safecast"

	"github.com/sirkon/qualcheck/internal/lattice"
)

// ClassifyConstant implements engine.ValueClassifier.
//
// Non-negative constants fitting the signed range of their type read the same either way: they
// are Literal when written in the source and ConstantPositive when computed. Negative constants
// are Signed, constants fitting only the unsigned range are Unsigned.
func (c *Checker) ClassifyConstant(v constant.Value, t types.Type, literal bool) *lattice.Qualifier {
	switch v.Kind() {
	case constant.Int:
	case constant.Float:
		if constant.Sign(v) < 0 {
			return c.signed
		}
		return c.positiveOrLiteral(literal)
	default:
		return nil
	}

	if constant.Sign(v) < 0 {
		return c.signed
	}

	kind := basicKind(t)
	switch {
	case fitsSigned(v, kind):
		return c.positiveOrLiteral(literal)
	case fitsUnsigned(v, kind):
		return c.unsigned
	default:
		return nil
	}
}

func (c *Checker) positiveOrLiteral(literal bool) *lattice.Qualifier {
	if literal {
		return c.literal
	}
	return c.positive
}

func basicKind(t types.Type) types.BasicKind {
	b, ok := t.Underlying().(*types.Basic)
	if !ok {
		return types.Int64
	}
	if b.Info()&types.IsUntyped != 0 {
		return types.Int64
	}
	return b.Kind()
}

// fitsSigned checks if a non-negative value fits the signed integer of the kind's width.
func fitsSigned(v constant.Value, kind types.BasicKind) bool {
	u, exact := constant.Uint64Val(v)
	if !exact {
		return false
	}

	var err error
	switch kind {
	case types.Int8, types.Uint8:
		_, err = safecast.Conv[int8](u)
	case types.Int16, types.Uint16:
		_, err = safecast.Conv[int16](u)
	case types.Int32, types.Uint32:
		_, err = safecast.Conv[int32](u)
	case types.Int, types.Uint, types.Uintptr:
		_, err = safecast.Conv[int](u)
	default:
		_, err = safecast.Conv[int64](u)
	}
	return err == nil
}

// fitsUnsigned checks if a non-negative value fits the unsigned integer of the kind's width.
func fitsUnsigned(v constant.Value, kind types.BasicKind) bool {
	u, exact := constant.Uint64Val(v)
	if !exact {
		return false
	}

	var err error
	switch kind {
	case types.Int8, types.Uint8:
		_, err = safecast.Conv[uint8](u)
	case types.Int16, types.Uint16:
		_, err = safecast.Conv[uint16](u)
	case types.Int32, types.Uint32:
		_, err = safecast.Conv[uint32](u)
	case types.Int, types.Uint, types.Uintptr:
		_, err = safecast.Conv[uint](u)
	default:
		_, err = safecast.Conv[uint64](u)
	}
	return err == nil
}
