package evaluator

import (
	"fmt"

	"github.com/sandrolain/goxq/pkg/types"
)

// PerformFunctionConversion applies the function conversion rules of a
// declared type to seq: atomization for atomic declarations, the
// multiplicity check, and per-item casting of untyped values and
// promotion. functionName and isReturn only shape error messages. The
// returned sequence is lazy; errors surface when the offending item is
// pulled.
func PerformFunctionConversion(decl types.TypeDeclaration, seq *Sequence, ep *ExecutionParameters, functionName string, isReturn bool) *Sequence {
	if decl.Type == types.TypeItem && decl.Multiplicity == types.ZeroOrMore {
		return seq
	}
	if decl.Type.IsAtomic() {
		seq = AtomizeSequence(seq, ep)
	}

	where := "argument of " + functionName
	if isReturn {
		where = "return value of " + functionName
	}
	cardinalityError := func(s *Sequence) *Sequence {
		return s.MapAll(func(values []Value) *Sequence {
			actual := "empty-sequence()"
			if len(values) > 0 {
				actual = values[0].Type().String() + types.CardinalitySymbol(len(values))
			}
			return Errored(types.Errorf(types.ErrType,
				"multiplicity of %s does not match: expected %s (%s), got %s (%d items)",
				where, decl, multiplicitySymbol(decl.Multiplicity), actual, len(values)))
		})
	}

	var checked *Sequence
	switch decl.Multiplicity {
	case types.ExactlyOne:
		checked = seq.SwitchCases(Cases{Empty: cardinalityError, Multiple: cardinalityError})
	case types.ZeroOrOne:
		checked = seq.SwitchCases(Cases{Multiple: cardinalityError})
	case types.OneOrMore:
		checked = seq.SwitchCases(Cases{Empty: cardinalityError})
	default:
		checked = seq
	}
	return checked.Map(func(v Value) (Value, error) {
		return convertItem(decl.Type, v, where)
	})
}

func multiplicitySymbol(m types.Multiplicity) string {
	if s := m.Symbol(); s != "" {
		return s
	}
	return "exactly one"
}

// convertItem maps one item to the declared item type.
func convertItem(target types.ValueType, v Value, where string) (Value, error) {
	if types.IsSubtypeOf(v.Type(), target) {
		return v, nil
	}
	if target == types.TypeFunction {
		if _, ok := asFunction(v); ok {
			return v, nil
		}
	}
	a, ok := v.(AtomicValue)
	if !ok || !target.IsAtomic() {
		return nil, typeMismatch(target, v, where)
	}
	if target == types.TypeAnyAtomic {
		return a, nil
	}
	if a.typ == types.TypeUntypedAtomic {
		to := target
		if to == types.TypeNumeric {
			to = types.TypeDouble
		}
		return CastToType(a, to)
	}
	if p, ok := PromoteToType(a, target); ok {
		return p, nil
	}
	return nil, typeMismatch(target, v, where)
}

func typeMismatch(target types.ValueType, v Value, where string) error {
	return types.Errorf(types.ErrType, "%s: expected %s, got %s", where, target, describeItem(v))
}

func describeItem(v Value) string {
	if a, ok := v.(AtomicValue); ok {
		s := a.String()
		if len(s) > 32 {
			s = s[:32] + "..."
		}
		return fmt.Sprintf("%s(%q)", a.typ, s)
	}
	return v.Type().String()
}
