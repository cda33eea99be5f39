package evaluator

import (
	"github.com/sandrolain/goxq/pkg/types"
)

func mapFn(name, sig string, impl FunctionImpl) builtin {
	return builtin{ns: types.NamespaceMap, name: name, sig: sig, impl: impl}
}

var mapFunctions = []builtin{
	mapFn("entry", "(xs:anyAtomicType, item()*) as map(*)", fnMapEntry),
	mapFn("put", "(map(*), xs:anyAtomicType, item()*) as map(*)", fnMapPut),
	mapFn("get", "(map(*), xs:anyAtomicType) as item()*", fnMapGet),
	mapFn("contains", "(map(*), xs:anyAtomicType) as xs:boolean", fnMapContains),
	mapFn("size", "(map(*)) as xs:integer", fnMapSize),
	mapFn("keys", "(map(*)) as xs:anyAtomicType*", fnMapKeys),
	mapFn("remove", "(map(*), xs:anyAtomicType*) as map(*)", fnMapRemove),
	mapFn("merge", "(map(*)*) as map(*)", fnMapMerge),
	mapFn("merge", "(map(*)*, map(*)) as map(*)", fnMapMerge),
	mapFn("for-each", "(map(*), function(*)) as item()*", fnMapForEach),
}

func fnMapEntry(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	value := args[1].Replayable()
	return args[0].MapAll(func(keys []Value) *Sequence {
		return FromValue(NewMap(MapEntry{Key: keys[0].(AtomicValue), Value: value}))
	})
}

func fnMapPut(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	value := args[2].Replayable()
	return collect(args[:2], func(values [][]Value) *Sequence {
		m := values[0][0].(*MapValue)
		return FromValue(m.Put(values[1][0].(AtomicValue), value))
	})
}

func fnMapGet(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		if l, ok := values[0][0].(*MapValue).Get(values[1][0].(AtomicValue)); ok {
			return l()
		}
		return Empty()
	})
}

func fnMapContains(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		return boolSequence(values[0][0].(*MapValue).Contains(values[1][0].(AtomicValue)))
	})
}

func fnMapSize(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		return FromValue(NewInteger(int64(values[0].(*MapValue).Size())))
	})
}

func fnMapKeys(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		return FromValues(values[0].(*MapValue).Keys()...)
	})
}

func fnMapRemove(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		keys := make([]AtomicValue, len(values[1]))
		for i, k := range values[1] {
			keys[i] = k.(AtomicValue)
		}
		return FromValue(values[0][0].(*MapValue).Remove(keys...))
	})
}

// duplicatesPolicy reads the "duplicates" option of map:merge.
func duplicatesPolicy(options *MapValue) *Sequence {
	l, ok := options.Get(NewString("duplicates"))
	if !ok {
		return stringResult("use-first")
	}
	return l().MapAll(func(values []Value) *Sequence {
		if len(values) == 1 {
			if a, ok := values[0].(AtomicValue); ok && types.IsSubtypeOf(a.typ, types.TypeString) {
				switch a.Str() {
				case "reject", "use-first", "use-last", "use-any", "combine":
					return stringResult(a.Str())
				}
			}
		}
		return Errored(types.Errorf(types.ErrInvalidOptionParameter, "map:merge: invalid value for option \"duplicates\""))
	})
}

func mergeMaps(maps []Value, policy string) (*MapValue, error) {
	out := NewMap()
	for _, v := range maps {
		for _, e := range v.(*MapValue).Entries() {
			existing, dup := out.Get(e.Key)
			if !dup {
				out.set(e)
				continue
			}
			switch policy {
			case "reject":
				return nil, types.Errorf(types.ErrDuplicateKeys, "map:merge: duplicate key %s", e.Key)
			case "use-last":
				out.set(e)
			case "combine":
				first, second := existing, e.Value
				out.set(MapEntry{Key: e.Key, Value: func() *Sequence { return Concat(first(), second()) }})
			}
		}
	}
	return out, nil
}

func fnMapMerge(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		policy := stringResult("use-first")
		if len(values) > 1 {
			policy = duplicatesPolicy(values[1][0].(*MapValue))
		}
		return policy.MapAll(func(p []Value) *Sequence {
			m, err := mergeMaps(values[0], p[0].(AtomicValue).Str())
			if err != nil {
				return Errored(err)
			}
			return FromValue(m)
		})
	})
}

func fnMapForEach(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		f := functionArg(values[1])
		entries := values[0][0].(*MapValue).Entries()
		parts := make([]*Sequence, len(entries))
		for i, e := range entries {
			parts[i] = CallFunction(f, dc, ep, []*Sequence{FromValue(e.Key), e.Value()})
		}
		return Concat(parts...)
	})
}
