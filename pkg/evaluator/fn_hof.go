package evaluator

import (
	"github.com/sandrolain/goxq/pkg/types"
)

var hofFunctions = []builtin{
	fn("function-arity", "(function(*)) as xs:integer", fnFunctionArity),
	fn("function-lookup", "(xs:QName, xs:integer) as function(*)?", fnFunctionLookup),
	fn("for-each", "(item()*, function(*)) as item()*", fnForEach),
	fn("filter", "(item()*, function(*)) as item()*", fnFilter),
	fn("fold-left", "(item()*, item()*, function(*)) as item()*", fnFoldLeft),
	fn("apply", "(function(*), array(*)) as item()*", fnApply),
}

// functionArg returns the function item of a converted function(*)
// argument.
func functionArg(values []Value) *FunctionValue {
	f, _ := asFunction(values[0])
	return f
}

func fnFunctionArity(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		return FromValue(NewInteger(int64(functionArg(values).Arity())))
	})
}

func fnFunctionLookup(_ *DynamicContext, _ *ExecutionParameters, sc *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		if sc == nil {
			return Empty()
		}
		name := values[0][0].(AtomicValue).QName()
		arity := int(values[1][0].(AtomicValue).Int())
		props, ok := sc.LookupFunction(name, arity)
		if !ok {
			return Empty()
		}
		return FromValue(functionItem(props, arity, sc))
	})
}

func fnForEach(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[1].MapAll(func(fs []Value) *Sequence {
		f := functionArg(fs)
		return args[0].FlatMap(func(v Value) *Sequence {
			return CallFunction(f, dc, ep, []*Sequence{FromValue(v)})
		})
	})
}

func fnFilter(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[1].MapAll(func(fs []Value) *Sequence {
		f := functionArg(fs)
		return args[0].FlatMap(func(v Value) *Sequence {
			return CallFunction(f, dc, ep, []*Sequence{FromValue(v)}).MapAll(func(result []Value) *Sequence {
				if len(result) != 1 || result[0].Type() != types.TypeBoolean {
					return Errored(types.Errorf(types.ErrType, "fn:filter: the predicate must return a single xs:boolean"))
				}
				if result[0].(AtomicValue).Bool() {
					return FromValue(v)
				}
				return Empty()
			})
		})
	})
}

func fnFoldLeft(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect([]*Sequence{args[0], args[2]}, func(values [][]Value) *Sequence {
		f := functionArg(values[1])
		acc := args[1]
		for _, v := range values[0] {
			acc = CallFunction(f, dc, ep, []*Sequence{acc, FromValue(v)})
		}
		return acc
	})
}

func fnApply(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		f := functionArg(values[0])
		members := values[1][0].(*ArrayValue).Members()
		callArgs := make([]*Sequence, len(members))
		for i, m := range members {
			callArgs[i] = m()
		}
		return CallFunction(f, dc, ep, callArgs)
	})
}
