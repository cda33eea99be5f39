package evaluator

import (
	"github.com/sandrolain/goxq/pkg/types"
)

func arrayFn(name, sig string, impl FunctionImpl) builtin {
	return builtin{ns: types.NamespaceArray, name: name, sig: sig, impl: impl}
}

var arrayFunctions = []builtin{
	arrayFn("get", "(array(*), xs:integer) as item()*", fnArrayGet),
	arrayFn("size", "(array(*)) as xs:integer", fnArraySize),
	arrayFn("put", "(array(*), xs:integer, item()*) as array(*)", fnArrayPut),
	arrayFn("append", "(array(*), item()*) as array(*)", fnArrayAppend),
	arrayFn("head", "(array(*)) as item()*", fnArrayHead),
	arrayFn("tail", "(array(*)) as array(*)", fnArrayTail),
	arrayFn("subarray", "(array(*), xs:integer) as array(*)", fnSubarray),
	arrayFn("subarray", "(array(*), xs:integer, xs:integer) as array(*)", fnSubarray),
	arrayFn("join", "(array(*)*) as array(*)", fnArrayJoin),
	arrayFn("flatten", "(item()*) as item()*", fnArrayFlatten),
	arrayFn("for-each", "(array(*), function(*)) as array(*)", fnArrayForEach),
	arrayFn("reverse", "(array(*)) as array(*)", fnArrayReverse),
}

func arrayArg(values []Value) *ArrayValue {
	return values[0].(*ArrayValue)
}

func fnArrayGet(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		l, err := arrayArg(values[0]).Get(values[1][0].(AtomicValue).Int())
		if err != nil {
			return Errored(err)
		}
		return l()
	})
}

func fnArraySize(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		return FromValue(NewInteger(int64(arrayArg(values).Size())))
	})
}

func fnArrayPut(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	member := args[2].Replayable()
	return collect(args[:2], func(values [][]Value) *Sequence {
		a, err := arrayArg(values[0]).Put(values[1][0].(AtomicValue).Int(), member)
		if err != nil {
			return Errored(err)
		}
		return FromValue(a)
	})
}

func fnArrayAppend(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	member := args[1].Replayable()
	return args[0].MapAll(func(values []Value) *Sequence {
		return FromValue(arrayArg(values).Append(member))
	})
}

func fnArrayHead(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		l, err := arrayArg(values).Get(1)
		if err != nil {
			return Errored(err)
		}
		return l()
	})
}

func fnArrayTail(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		a := arrayArg(values)
		if a.Size() == 0 {
			return Errored(types.Errorf(types.ErrArrayIndexOutOfBounds, "array:tail of an empty array"))
		}
		return FromValue(NewArray(a.Members()[1:]...))
	})
}

func fnSubarray(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		a := arrayArg(values[0])
		start := values[1][0].(AtomicValue).Int()
		length := int64(a.Size()) - start + 1
		if len(values) > 2 {
			length = values[2][0].(AtomicValue).Int()
		}
		sub, err := a.Subarray(start, length)
		if err != nil {
			return Errored(err)
		}
		return FromValue(sub)
	})
}

func fnArrayJoin(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		var members []Lazy
		for _, v := range values {
			members = append(members, v.(*ArrayValue).Members()...)
		}
		return FromValue(NewArray(members...))
	})
}

func flatten(s *Sequence) *Sequence {
	return s.FlatMap(func(v Value) *Sequence {
		a, ok := v.(*ArrayValue)
		if !ok {
			return FromValue(v)
		}
		parts := make([]*Sequence, a.Size())
		for i, m := range a.Members() {
			parts[i] = flatten(m())
		}
		return Concat(parts...)
	})
}

func fnArrayFlatten(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return flatten(args[0])
}

func fnArrayForEach(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		f := functionArg(values[1])
		members := arrayArg(values[0]).Members()
		out := make([]Lazy, len(members))
		for i, m := range members {
			out[i] = CallFunction(f, dc, ep, []*Sequence{m()}).Replayable()
		}
		return FromValue(NewArray(out...))
	})
}

func fnArrayReverse(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		members := arrayArg(values).Members()
		out := make([]Lazy, len(members))
		for i, m := range members {
			out[len(members)-1-i] = m
		}
		return FromValue(NewArray(out...))
	})
}
