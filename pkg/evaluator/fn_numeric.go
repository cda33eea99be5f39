package evaluator

import (
	"math"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/goxq/pkg/types"
)

var numericFunctions = []builtin{
	fn("number", "() as xs:double", fnNumber),
	fn("number", "(xs:anyAtomicType?) as xs:double", fnNumber),
	fn("sum", "(xs:anyAtomicType*) as xs:anyAtomicType", fnSum),
	fn("sum", "(xs:anyAtomicType*, xs:anyAtomicType?) as xs:anyAtomicType?", fnSum),
	fn("avg", "(xs:anyAtomicType*) as xs:anyAtomicType?", fnAvg),
	fn("min", "(xs:anyAtomicType*) as xs:anyAtomicType?", fnExtremum("lt")),
	fn("max", "(xs:anyAtomicType*) as xs:anyAtomicType?", fnExtremum("gt")),
	fn("abs", "(xs:numeric?) as xs:numeric?", fnRounding(roundAbs)),
	fn("ceiling", "(xs:numeric?) as xs:numeric?", fnRounding(roundCeiling)),
	fn("floor", "(xs:numeric?) as xs:numeric?", fnRounding(roundFloor)),
	fn("round", "(xs:numeric?) as xs:numeric?", fnRound),
	fn("round", "(xs:numeric?, xs:integer) as xs:numeric?", fnRound),

	{ns: types.NamespaceMath, name: "pi", sig: "() as xs:double", impl: fnPi},
	{ns: types.NamespaceMath, name: "sqrt", sig: "(xs:double?) as xs:double?", impl: fnMath(math.Sqrt)},
	{ns: types.NamespaceMath, name: "exp", sig: "(xs:double?) as xs:double?", impl: fnMath(math.Exp)},
	{ns: types.NamespaceMath, name: "log", sig: "(xs:double?) as xs:double?", impl: fnMath(math.Log)},
	{ns: types.NamespaceMath, name: "pow", sig: "(xs:double?, xs:numeric) as xs:double?", impl: fnPow},
}

// toDouble converts an atomic value as fn:number does: NaN when no
// conversion exists.
func toDouble(a AtomicValue) float64 {
	if a.typ.IsNumeric() {
		return a.Float()
	}
	d, err := CastToType(a, types.TypeDouble)
	if err != nil {
		return math.NaN()
	}
	return d.Float()
}

func fnNumber(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	var arg *Sequence
	if len(args) == 0 {
		arg = AtomizeSequence(contextItemArgument(dc, "fn:number"), ep)
	} else {
		arg = args[0]
	}
	return arg.MapAll(func(values []Value) *Sequence {
		if len(values) == 0 {
			return FromValue(NewDouble(math.NaN()))
		}
		a, ok := values[0].(AtomicValue)
		if !ok || len(values) > 1 {
			return Errored(types.Errorf(types.ErrType, "fn:number: expected at most one atomic value"))
		}
		return FromValue(NewDouble(toDouble(a)))
	})
}

// numericOperands casts untyped values to xs:double.
func numericOperands(values []Value) ([]AtomicValue, error) {
	out := make([]AtomicValue, len(values))
	for i, v := range values {
		a := v.(AtomicValue)
		if a.typ == types.TypeUntypedAtomic {
			d, err := CastToType(a, types.TypeDouble)
			if err != nil {
				return nil, err
			}
			a = d
		}
		out[i] = a
	}
	return out, nil
}

func sumValues(dc *DynamicContext, values []Value) (AtomicValue, error) {
	items, err := numericOperands(values)
	if err != nil {
		return AtomicValue{}, err
	}
	total := items[0]
	for _, a := range items[1:] {
		if total, err = Arithmetic("+", total, a, dc.timezone); err != nil {
			return AtomicValue{}, types.Errorf(types.ErrInvalidBooleanValue, "fn:sum: %v", err)
		}
	}
	return total, nil
}

func fnSum(dc *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		if len(values[0]) == 0 {
			if len(values) > 1 {
				return FromValues(values[1]...)
			}
			return FromValue(NewInteger(0))
		}
		return valueResult(sumValues(dc, values[0]))
	})
}

func fnAvg(dc *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		if len(values) == 0 {
			return Empty()
		}
		total, err := sumValues(dc, values)
		if err != nil {
			return Errored(err)
		}
		return valueResult(Arithmetic("div", total, NewInteger(int64(len(values))), dc.timezone))
	})
}

func fnExtremum(op string) FunctionImpl {
	return func(dc *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
		return args[0].MapAll(func(values []Value) *Sequence {
			if len(values) == 0 {
				return Empty()
			}
			items, err := numericOperands(values)
			if err != nil {
				return Errored(err)
			}
			best := items[0]
			resultType := best.typ
			for _, a := range items[1:] {
				if best.IsNaN() {
					break
				}
				if a.IsNaN() {
					best = a
					continue
				}
				if a.typ.IsNumeric() && best.typ.IsNumeric() {
					resultType = numericResultType(resultType, a.typ)
				}
				better, err := ValueCompare(op, a, best, dc.timezone)
				if err != nil {
					return Errored(types.Errorf(types.ErrInvalidBooleanValue, "cannot compare %s with %s", a.typ, best.typ))
				}
				if better {
					best = a
				}
			}
			if best.typ.IsNumeric() && resultType != best.typ && !types.IsSubtypeOf(best.typ, resultType) {
				if p, ok := PromoteToType(best, resultType); ok {
					best = p
				}
			}
			return FromValue(best)
		})
	}
}

type rounding func(a AtomicValue) (AtomicValue, error)

func fnRounding(r rounding) FunctionImpl {
	return func(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
		return args[0].MapAll(func(values []Value) *Sequence {
			a, ok := optionalAtomic(values)
			if !ok {
				return Empty()
			}
			return valueResult(r(a))
		})
	}
}

func roundAbs(a AtomicValue) (AtomicValue, error) {
	switch v := a.v.(type) {
	case int64:
		if v >= 0 {
			return a, nil
		}
		if v == math.MinInt64 {
			return AtomicValue{}, overflow("fn:abs")
		}
		return NewInteger(-v), nil
	case *apd.Decimal:
		d := new(apd.Decimal)
		d.Abs(v)
		return NewDecimal(d), nil
	case float64:
		return AtomicValue{typ: a.typ, v: math.Abs(v)}, nil
	}
	return a, nil
}

func roundCeiling(a AtomicValue) (AtomicValue, error) {
	switch v := a.v.(type) {
	case *apd.Decimal:
		d := new(apd.Decimal)
		if _, err := decimalCtx.Ceil(d, v); err != nil {
			return AtomicValue{}, overflow("fn:ceiling")
		}
		return NewDecimal(d), nil
	case float64:
		return AtomicValue{typ: a.typ, v: math.Ceil(v)}, nil
	}
	return a, nil
}

func roundFloor(a AtomicValue) (AtomicValue, error) {
	switch v := a.v.(type) {
	case *apd.Decimal:
		d := new(apd.Decimal)
		if _, err := decimalCtx.Floor(d, v); err != nil {
			return AtomicValue{}, overflow("fn:floor")
		}
		return NewDecimal(d), nil
	case float64:
		return AtomicValue{typ: a.typ, v: math.Floor(v)}, nil
	}
	return a, nil
}

// roundDecimal rounds half towards positive infinity at precision digits
// after the decimal point.
func roundDecimal(x *apd.Decimal, precision int64) (*apd.Decimal, error) {
	scale := apd.New(1, int32(precision))
	half := apd.New(5, -1)
	y := new(apd.Decimal)
	if _, err := decimalCtx.Mul(y, x, scale); err != nil {
		return nil, err
	}
	if _, err := decimalCtx.Add(y, y, half); err != nil {
		return nil, err
	}
	if _, err := decimalCtx.Floor(y, y); err != nil {
		return nil, err
	}
	if _, err := decimalCtx.Quo(y, y, scale); err != nil {
		return nil, err
	}
	return y, nil
}

func fnRound(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		a, ok := optionalAtomic(values[0])
		if !ok {
			return Empty()
		}
		precision := int64(0)
		if len(values) > 1 {
			precision = values[1][0].(AtomicValue).Int()
		}
		switch v := a.v.(type) {
		case int64:
			if precision >= 0 {
				return FromValue(a)
			}
			d, err := roundDecimal(apd.New(v, 0), precision)
			if err != nil {
				return Errored(overflow("fn:round"))
			}
			i, err := d.Int64()
			if err != nil {
				return Errored(overflow("fn:round"))
			}
			return FromValue(NewInteger(i))
		case *apd.Decimal:
			d, err := roundDecimal(v, precision)
			if err != nil {
				return Errored(overflow("fn:round"))
			}
			return FromValue(NewDecimal(d))
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
				return FromValue(a)
			}
			scale := math.Pow(10, float64(precision))
			return FromValue(AtomicValue{typ: a.typ, v: roundHalfUp(v*scale) / scale})
		}
		return FromValue(a)
	})
}

func fnPi(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, _ ...*Sequence) *Sequence {
	return FromValue(NewDouble(math.Pi))
}

func fnMath(f func(float64) float64) FunctionImpl {
	return func(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
		return args[0].MapAll(func(values []Value) *Sequence {
			a, ok := optionalAtomic(values)
			if !ok {
				return Empty()
			}
			return FromValue(NewDouble(f(a.Float())))
		})
	}
}

func fnPow(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		x, ok := optionalAtomic(values[0])
		if !ok {
			return Empty()
		}
		y := values[1][0].(AtomicValue)
		return FromValue(NewDouble(math.Pow(x.Float(), y.Float())))
	})
}
