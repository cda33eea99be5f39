package evaluator

import (
	"math"

	"github.com/sandrolain/goxq/pkg/types"
)

var sequenceFunctions = []builtin{
	fn("boolean", "(item()*) as xs:boolean", fnBoolean),
	fn("not", "(item()*) as xs:boolean", fnNot),
	fn("true", "() as xs:boolean", fnConstant(true)),
	fn("false", "() as xs:boolean", fnConstant(false)),
	fn("data", "() as xs:anyAtomicType*", fnData),
	fn("data", "(item()*) as xs:anyAtomicType*", fnData),
	fn("count", "(item()*) as xs:integer", fnCount),
	fn("empty", "(item()*) as xs:boolean", fnEmpty),
	fn("exists", "(item()*) as xs:boolean", fnExists),
	fn("head", "(item()*) as item()?", fnHead),
	fn("tail", "(item()*) as item()*", fnTail),
	fn("reverse", "(item()*) as item()*", fnReverse),
	fn("subsequence", "(item()*, xs:double) as item()*", fnSubsequence),
	fn("subsequence", "(item()*, xs:double, xs:double) as item()*", fnSubsequence),
	fn("distinct-values", "(xs:anyAtomicType*) as xs:anyAtomicType*", fnDistinctValues),
	fn("index-of", "(xs:anyAtomicType*, xs:anyAtomicType) as xs:integer*", fnIndexOf),
	fn("insert-before", "(item()*, xs:integer, item()*) as item()*", fnInsertBefore),
	fn("remove", "(item()*, xs:integer) as item()*", fnRemove),
	fn("zero-or-one", "(item()*) as item()?", fnCardinality(types.ZeroOrOne, types.ErrZeroOrOne)),
	fn("one-or-more", "(item()*) as item()+", fnCardinality(types.OneOrMore, types.ErrOneOrMore)),
	fn("exactly-one", "(item()*) as item()", fnCardinality(types.ExactlyOne, types.ErrExactlyOne)),
	fn("deep-equal", "(item()*, item()*) as xs:boolean", fnDeepEqual),
}

func fnBoolean(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return ebvThen(args[0], boolSequence)
}

func fnNot(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return ebvThen(args[0], func(b bool) *Sequence { return boolSequence(!b) })
}

func fnConstant(b bool) FunctionImpl {
	return func(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, _ ...*Sequence) *Sequence {
		return boolSequence(b)
	}
}

func fnData(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	if len(args) == 0 {
		return AtomizeSequence(contextItemArgument(dc, "fn:data"), ep)
	}
	return AtomizeSequence(args[0], ep)
}

func fnCount(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		return FromValue(NewInteger(int64(len(values))))
	})
}

func fnEmpty(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].SwitchCases(Cases{
		Empty:   func(*Sequence) *Sequence { return boolSequence(true) },
		Default: func(*Sequence) *Sequence { return boolSequence(false) },
	})
}

func fnExists(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].SwitchCases(Cases{
		Empty:   func(*Sequence) *Sequence { return boolSequence(false) },
		Default: func(*Sequence) *Sequence { return boolSequence(true) },
	})
}

func fnHead(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return subsequence(args[0], 1, 1)
}

func fnTail(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return subsequence(args[0], 2, math.Inf(1))
}

func fnReverse(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		out := make([]Value, len(values))
		for i, v := range values {
			out[len(values)-1-i] = v
		}
		return FromValues(out...)
	})
}

func fnSubsequence(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args[1:], func(values [][]Value) *Sequence {
		start := values[0][0].(AtomicValue).Float()
		length := math.Inf(1)
		if len(values) > 1 {
			length = values[1][0].(AtomicValue).Float()
		}
		return subsequence(args[0], start, length)
	})
}

// roundHalfUp rounds as fn:round does for doubles.
func roundHalfUp(f float64) float64 {
	return math.Floor(f + 0.5)
}

// subsequence yields the items at positions p with
// round(start) <= p < round(start) + round(length), lazily. Items past the
// window are never pulled.
func subsequence(s *Sequence, start, length float64) *Sequence {
	first := roundHalfUp(start)
	end := first + roundHalfUp(length)
	pos := 0
	return s.derive(func() (Result, error) {
		for {
			if float64(pos+1) >= end {
				return doneResult, nil
			}
			r, err := s.Next()
			if err != nil || r.State != Ready {
				return r, err
			}
			pos++
			if float64(pos) >= first {
				return r, nil
			}
		}
	})
}

// sameAtomic is the equality used by distinct-values: NaN equals NaN and
// values of incomparable types are distinct.
func sameAtomic(a, b AtomicValue, dc *DynamicContext) bool {
	eq, _ := deepEqualItem(a, b, nil, dc.timezone)
	return eq
}

func fnDistinctValues(dc *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	var seen []AtomicValue
	return args[0].Filter(func(v Value) (bool, error) {
		a := v.(AtomicValue)
		for _, s := range seen {
			if sameAtomic(s, a, dc) {
				return false, nil
			}
		}
		seen = append(seen, a)
		return true, nil
	})
}

func fnIndexOf(dc *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		search := values[1][0].(AtomicValue)
		var out []Value
		for i, v := range values[0] {
			eq, err := ValueCompare("eq", v.(AtomicValue), search, dc.timezone)
			if err == nil && eq {
				out = append(out, NewInteger(int64(i+1)))
			}
		}
		return FromValues(out...)
	})
}

func fnInsertBefore(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		target, inserts := values[0], values[2]
		pos := values[1][0].(AtomicValue).Int()
		switch {
		case pos < 1:
			pos = 1
		case pos > int64(len(target)):
			pos = int64(len(target)) + 1
		}
		out := make([]Value, 0, len(target)+len(inserts))
		out = append(out, target[:pos-1]...)
		out = append(out, inserts...)
		out = append(out, target[pos-1:]...)
		return FromValues(out...)
	})
}

func fnRemove(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args[1:], func(values [][]Value) *Sequence {
		pos := values[0][0].(AtomicValue).Int()
		i := int64(0)
		return args[0].Filter(func(Value) (bool, error) {
			i++
			return i != pos, nil
		})
	})
}

func fnCardinality(m types.Multiplicity, code types.ErrorCode) FunctionImpl {
	return func(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
		fail := func(s *Sequence) *Sequence {
			return s.MapAll(func(values []Value) *Sequence {
				return Errored(types.Errorf(code, "expected %s item(s), got %d", m, len(values)))
			})
		}
		switch m {
		case types.ZeroOrOne:
			return args[0].SwitchCases(Cases{Multiple: fail})
		case types.OneOrMore:
			return args[0].SwitchCases(Cases{Empty: fail})
		}
		return args[0].SwitchCases(Cases{Empty: fail, Multiple: fail})
	}
}

func fnDeepEqual(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		return DeepEqual(values[0], values[1], ep, dc.timezone)
	})
}
