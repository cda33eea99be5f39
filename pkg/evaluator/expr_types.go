package evaluator

import (
	"github.com/sandrolain/goxq/pkg/types"
)

// CastExpr is "e cast as T" or, with castable set, "e castable as T".
type CastExpr struct {
	base
	operand  Expression
	target   types.TypeDeclaration
	castable bool
}

func (e *CastExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	t := e.target.Type
	if !t.IsAtomic() || t == types.TypeAnyAtomic || t == types.TypeNumeric {
		return e.errorf(types.ErrUnknownAtomicType, "%s is not a castable atomic type", t)
	}
	if m := e.target.Multiplicity; m != types.ExactlyOne && m != types.ZeroOrOne {
		return e.errorf(types.ErrSyntax, "the target of cast must be a single atomic type, got %s", e.target)
	}
	if err := e.operand.PerformStaticEvaluation(sc); err != nil {
		return err
	}
	return e.rejectUpdating(e.operand)
}

func (e *CastExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return evaluateAtomized(e.operand, dc, ep).MapAll(func(values []Value) *Sequence {
		v, err := e.cast(values)
		if e.castable {
			return boolSequence(err == nil)
		}
		if err != nil {
			return Errored(err)
		}
		if v == nil {
			return Empty()
		}
		return FromValue(*v)
	})
}

func (e *CastExpr) cast(values []Value) (*AtomicValue, error) {
	switch len(values) {
	case 0:
		if e.target.Multiplicity == types.ZeroOrOne {
			return nil, nil
		}
		return nil, e.errorf(types.ErrType, "cannot cast an empty sequence to %s", e.target)
	case 1:
	default:
		return nil, e.errorf(types.ErrType, "cannot cast a sequence of %d items to %s", len(values), e.target)
	}
	a, ok := values[0].(AtomicValue)
	if !ok {
		return nil, e.errorf(types.ErrType, "cannot cast %s to %s", values[0].Type(), e.target)
	}
	v, err := CastToType(a, e.target.Type)
	if err != nil {
		return nil, withPosition(err, e.position)
	}
	return &v, nil
}

// matchesDeclaration reports whether values is an instance of decl.
func matchesDeclaration(values []Value, decl types.TypeDeclaration) bool {
	if !decl.Multiplicity.Allows(len(values)) {
		return false
	}
	for _, v := range values {
		if !types.IsSubtypeOf(v.Type(), decl.Type) {
			return false
		}
	}
	return true
}

// InstanceOfExpr is "e instance of T".
type InstanceOfExpr struct {
	base
	operand Expression
	decl    types.TypeDeclaration
}

func (e *InstanceOfExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := e.operand.PerformStaticEvaluation(sc); err != nil {
		return err
	}
	return e.rejectUpdating(e.operand)
}

func (e *InstanceOfExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return e.operand.Evaluate(dc, ep).MapAll(func(values []Value) *Sequence {
		return boolSequence(matchesDeclaration(values, e.decl))
	})
}

// TreatAsExpr is "e treat as T": the value passes through unchanged when it
// matches, XPDY0050 otherwise.
type TreatAsExpr struct {
	base
	operand Expression
	decl    types.TypeDeclaration
}

func (e *TreatAsExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := e.operand.PerformStaticEvaluation(sc); err != nil {
		return err
	}
	return e.rejectUpdating(e.operand)
}

func (e *TreatAsExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return e.operand.Evaluate(dc, ep).MapAll(func(values []Value) *Sequence {
		if !matchesDeclaration(values, e.decl) {
			actual := "empty-sequence()"
			if len(values) > 0 {
				actual = values[0].Type().String() + types.CardinalitySymbol(len(values))
			}
			return Errored(e.errorf(types.ErrTreatAsMismatch, "expected %s, got %s", e.decl, actual))
		}
		return FromValues(values...)
	})
}
