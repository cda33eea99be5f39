package evaluator

import (
	"github.com/sandrolain/goxq/pkg/types"
)

// binaryAtomic evaluates two operands, each atomized to at most one value,
// and applies fn when both are present. An empty operand yields ().
func binaryAtomic(lhs, rhs Expression, dc *DynamicContext, ep *ExecutionParameters, what string, fn func(a, b AtomicValue) (Value, error)) *Sequence {
	operands := []*Sequence{evaluateAtomized(lhs, dc, ep), evaluateAtomized(rhs, dc, ep)}
	return collect(operands, func(values [][]Value) *Sequence {
		a, err := atomicOperand(values[0], what)
		if err != nil {
			return Errored(err)
		}
		b, err := atomicOperand(values[1], what)
		if err != nil {
			return Errored(err)
		}
		if a == nil || b == nil {
			return Empty()
		}
		v, err := fn(*a, *b)
		if err != nil {
			return Errored(err)
		}
		return FromValue(v)
	})
}

// ArithmeticExpr is a binary arithmetic operator.
type ArithmeticExpr struct {
	base
	op       string
	lhs, rhs Expression
}

func (e *ArithmeticExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := staticAll(sc, e.lhs, e.rhs); err != nil {
		return err
	}
	return e.rejectUpdating(e.lhs, e.rhs)
}

func (e *ArithmeticExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return binaryAtomic(e.lhs, e.rhs, dc, ep, "operand of "+e.op, func(a, b AtomicValue) (Value, error) {
		return Arithmetic(e.op, a, b, dc.timezone)
	})
}

// UnaryExpr is unary minus or plus.
type UnaryExpr struct {
	base
	minus   bool
	operand Expression
}

func (e *UnaryExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := e.operand.PerformStaticEvaluation(sc); err != nil {
		return err
	}
	return e.rejectUpdating(e.operand)
}

func (e *UnaryExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return evaluateAtomized(e.operand, dc, ep).MapAll(func(values []Value) *Sequence {
		a, err := atomicOperand(values, "operand of unary operator")
		if err != nil {
			return Errored(err)
		}
		if a == nil {
			return Empty()
		}
		if e.minus {
			v, err := Negate(*a)
			if err != nil {
				return Errored(err)
			}
			return FromValue(v)
		}
		v := *a
		if v.typ == types.TypeUntypedAtomic {
			if v, err = CastToType(v, types.TypeDouble); err != nil {
				return Errored(err)
			}
		}
		if !v.typ.IsNumeric() {
			return Errored(e.errorf(types.ErrType, "unary plus is not defined for %s", v.typ))
		}
		return FromValue(v)
	})
}

// ValueCompareExpr is eq, ne, lt, le, gt or ge.
type ValueCompareExpr struct {
	base
	op       string
	lhs, rhs Expression
}

func (e *ValueCompareExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := staticAll(sc, e.lhs, e.rhs); err != nil {
		return err
	}
	return e.rejectUpdating(e.lhs, e.rhs)
}

func (e *ValueCompareExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return binaryAtomic(e.lhs, e.rhs, dc, ep, "operand of "+e.op, func(a, b AtomicValue) (Value, error) {
		r, err := ValueCompare(e.op, a, b, dc.timezone)
		return NewBoolean(r), err
	})
}

// GeneralCompareExpr is =, !=, <, <=, > or >=.
type GeneralCompareExpr struct {
	base
	op       string
	lhs, rhs Expression
}

func (e *GeneralCompareExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := staticAll(sc, e.lhs, e.rhs); err != nil {
		return err
	}
	return e.rejectUpdating(e.lhs, e.rhs)
}

func (e *GeneralCompareExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	operands := []*Sequence{evaluateAtomized(e.lhs, dc, ep), evaluateAtomized(e.rhs, dc, ep)}
	return collect(operands, func(values [][]Value) *Sequence {
		r, err := GeneralCompare(e.op, atomics(values[0]), atomics(values[1]), dc.timezone)
		if err != nil {
			return Errored(err)
		}
		return boolSequence(r)
	})
}

// atomics narrows atomized values.
func atomics(values []Value) []AtomicValue {
	out := make([]AtomicValue, 0, len(values))
	for _, v := range values {
		if a, ok := v.(AtomicValue); ok {
			out = append(out, a)
		}
	}
	return out
}

// RangeExpr is "a to b".
type RangeExpr struct {
	base
	lhs, rhs Expression
}

func (e *RangeExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := staticAll(sc, e.lhs, e.rhs); err != nil {
		return err
	}
	return e.rejectUpdating(e.lhs, e.rhs)
}

var optionalInteger = types.TypeDeclaration{Type: types.TypeInteger, Multiplicity: types.ZeroOrOne}

func (e *RangeExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	operands := []*Sequence{
		PerformFunctionConversion(optionalInteger, e.lhs.Evaluate(dc, ep), ep, "range", false),
		PerformFunctionConversion(optionalInteger, e.rhs.Evaluate(dc, ep), ep, "range", false),
	}
	return collect(operands, func(values [][]Value) *Sequence {
		if len(values[0]) == 0 || len(values[1]) == 0 {
			return Empty()
		}
		return IntegerRange(values[0][0].(AtomicValue).Int(), values[1][0].(AtomicValue).Int())
	})
}

// IntegerRange yields from..to lazily; it is empty when from > to.
func IntegerRange(from, to int64) *Sequence {
	if from > to {
		return Empty()
	}
	next := from
	exhausted := false
	s := &Sequence{}
	s.next = func() (Result, error) {
		if exhausted {
			return doneResult, nil
		}
		v := next
		if next == to {
			exhausted = true
		} else {
			next++
		}
		return readyResult(NewInteger(v)), nil
	}
	s.remaining = func() int {
		if exhausted {
			return 0
		}
		return int(to - next + 1)
	}
	return s
}
