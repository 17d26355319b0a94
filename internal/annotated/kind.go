package annotated

import (
	"fmt"
	"go/types"
)

// Kind classifies host types for defaulting purposes.
type Kind int

const (
	KindOther Kind = iota
	KindBoolean
	KindSignedInt
	KindUnsignedInt
	KindFloat
	KindComplex
)

var kindValueMap = map[Kind]string{
	KindOther:       "other",
	KindBoolean:     "boolean",
	KindSignedInt:   "signed",
	KindUnsignedInt: "unsigned",
	KindFloat:       "float",
	KindComplex:     "complex",
}

func (k Kind) String() string {
	v, ok := kindValueMap[k]
	if !ok {
		return fmt.Sprintf("invalid(%d)", k)
	}

	return v
}

// UnmarshalText for setting kinds with configs.
func (k *Kind) UnmarshalText(rawtext []byte) error {
	text := string(rawtext)
	for key, v := range kindValueMap {
		if v == text {
			*k = key
			return nil
		}
	}

	return fmt.Errorf("unknown type kind %q", text)
}

// IsNumeric reports whether the kind carries a numeric value. Runes and bytes are integers here.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindSignedInt, KindUnsignedInt, KindFloat, KindComplex:
		return true
	default:
		return false
	}
}

// KindOf classifies t by its underlying basic type. Type parameters are classified by their core
// type when all terms agree, untyped constants by their default type.
func KindOf(t types.Type) Kind {
	if t == nil {
		return KindOther
	}

	if tp, ok := t.(*types.TypeParam); ok {
		return typeParamKind(tp)
	}

	b, ok := t.Underlying().(*types.Basic)
	if !ok {
		return KindOther
	}
	if b.Info()&types.IsUntyped != 0 {
		b, ok = types.Default(b).(*types.Basic)
		if !ok {
			return KindOther
		}
	}

	info := b.Info()
	switch {
	case info&types.IsBoolean != 0:
		return KindBoolean
	case info&types.IsUnsigned != 0:
		return KindUnsignedInt
	case info&types.IsInteger != 0:
		return KindSignedInt
	case info&types.IsFloat != 0:
		return KindFloat
	case info&types.IsComplex != 0:
		return KindComplex
	default:
		return KindOther
	}
}

func typeParamKind(tp *types.TypeParam) Kind {
	iface, ok := tp.Constraint().Underlying().(*types.Interface)
	if !ok {
		return KindOther
	}

	res := KindOther
	found := false
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		u, ok := iface.EmbeddedType(i).(*types.Union)
		if !ok {
			continue
		}
		for j := 0; j < u.Len(); j++ {
			k := KindOf(u.Term(j).Type())
			if !found {
				res, found = k, true
				continue
			}
			if k != res {
				return KindOther
			}
		}
	}

	return res
}
