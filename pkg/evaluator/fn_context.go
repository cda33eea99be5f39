package evaluator

import (
	"time"

	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

var contextFunctions = []builtin{
	fn("position", "() as xs:integer", fnPosition),
	fn("last", "() as xs:integer", fnLast),
	fn("name", "() as xs:string", nodeName(nameOf, NewString(""))),
	fn("name", "(node()?) as xs:string", nodeName(nameOf, NewString(""))),
	fn("local-name", "() as xs:string", nodeName(localNameOf, NewString(""))),
	fn("local-name", "(node()?) as xs:string", nodeName(localNameOf, NewString(""))),
	fn("namespace-uri", "() as xs:anyURI", nodeName(namespaceOf, NewAnyURI(""))),
	fn("namespace-uri", "(node()?) as xs:anyURI", nodeName(namespaceOf, NewAnyURI(""))),
	fn("root", "() as node()", fnRoot),
	fn("root", "(node()?) as node()?", fnRoot),
	fn("outermost", "(node()*) as node()*", fnOutermost),
	fn("innermost", "(node()*) as node()*", fnInnermost),
	fn("current-dateTime", "() as xs:dateTime", currentTime(types.TypeDateTime)),
	fn("current-date", "() as xs:date", currentTime(types.TypeDate)),
	fn("current-time", "() as xs:time", currentTime(types.TypeTime)),
	fn("implicit-timezone", "() as xs:dayTimeDuration", fnImplicitTimezone),
}

func fnPosition(dc *DynamicContext, _ *ExecutionParameters, _ *StaticContext, _ ...*Sequence) *Sequence {
	if _, ok := dc.ContextItem(); !ok {
		return Errored(types.Errorf(types.ErrAbsentContext, "fn:position: the focus is absent"))
	}
	return FromValue(NewInteger(int64(dc.Position())))
}

func fnLast(dc *DynamicContext, _ *ExecutionParameters, _ *StaticContext, _ ...*Sequence) *Sequence {
	if _, ok := dc.ContextItem(); !ok {
		return Errored(types.Errorf(types.ErrAbsentContext, "fn:last: the focus is absent"))
	}
	return FromValue(NewInteger(int64(dc.Size())))
}

// nodeArgument resolves the optional node argument of the naming functions,
// falling back to the context item, which must then be a node.
func nodeArgument(dc *DynamicContext, args []*Sequence, function string) *Sequence {
	if len(args) > 0 {
		return args[0]
	}
	return contextItemArgument(dc, function).Map(func(v Value) (Value, error) {
		if _, ok := v.(NodeValue); !ok {
			return nil, types.Errorf(types.ErrType, "%s: the context item is not a node", function)
		}
		return v, nil
	})
}

// nameOf renders the node name. The facade does not expose prefixes, so
// namespaced names use the local part.
func nameOf(f tree.Facade, p tree.Pointer) AtomicValue {
	return localNameOf(f, p)
}

func localNameOf(f tree.Facade, p tree.Pointer) AtomicValue {
	switch f.Kind(p) {
	case tree.ElementKind, tree.AttributeKind:
		return NewString(f.LocalName(p))
	case tree.ProcessingInstructionKind:
		return NewString(f.Target(p))
	}
	return NewString("")
}

func namespaceOf(f tree.Facade, p tree.Pointer) AtomicValue {
	switch f.Kind(p) {
	case tree.ElementKind, tree.AttributeKind:
		return NewAnyURI(f.NamespaceURI(p))
	}
	return NewAnyURI("")
}

func nodeName(name func(tree.Facade, tree.Pointer) AtomicValue, empty AtomicValue) FunctionImpl {
	return func(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
		return nodeArgument(dc, args, "node name").MapAll(func(values []Value) *Sequence {
			if len(values) == 0 {
				return FromValue(empty)
			}
			f, err := ep.requireTree()
			if err != nil {
				return Errored(err)
			}
			return FromValue(name(f, values[0].(NodeValue).pointer))
		})
	}
}

func fnRoot(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return nodeArgument(dc, args, "fn:root").MapAll(func(values []Value) *Sequence {
		if len(values) == 0 {
			return Empty()
		}
		f, err := ep.requireTree()
		if err != nil {
			return Errored(err)
		}
		root := tree.Root(f, values[0].(NodeValue).pointer)
		return FromValue(NewNodeValue(root, f.Kind(root)))
	})
}

// nodeSet indexes the pointers of a node sequence.
func nodeSet(values []Value) map[tree.Pointer]bool {
	set := make(map[tree.Pointer]bool, len(values))
	for _, v := range values {
		set[v.(NodeValue).pointer] = true
	}
	return set
}

func fnOutermost(_ *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		if len(values) == 0 {
			return Empty()
		}
		f, err := ep.requireTree()
		if err != nil {
			return Errored(err)
		}
		set := nodeSet(values)
		var out []Value
		for _, v := range values {
			nested := false
			for _, a := range tree.Ancestors(f, v.(NodeValue).pointer) {
				if set[a] {
					nested = true
					break
				}
			}
			if !nested {
				out = append(out, v)
			}
		}
		return FromValues(documentOrder(f, out)...)
	})
}

func fnInnermost(_ *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		if len(values) == 0 {
			return Empty()
		}
		f, err := ep.requireTree()
		if err != nil {
			return Errored(err)
		}
		enclosing := map[tree.Pointer]bool{}
		for _, v := range values {
			for _, a := range tree.Ancestors(f, v.(NodeValue).pointer) {
				enclosing[a] = true
			}
		}
		var out []Value
		for _, v := range values {
			if !enclosing[v.(NodeValue).pointer] {
				out = append(out, v)
			}
		}
		return FromValues(documentOrder(f, out)...)
	})
}

func currentTime(typ types.ValueType) FunctionImpl {
	return func(dc *DynamicContext, _ *ExecutionParameters, _ *StaticContext, _ ...*Sequence) *Sequence {
		t := dc.Now().In(dc.Timezone())
		switch typ {
		case types.TypeDate:
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		case types.TypeTime:
			t = time.Date(1972, time.January, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
		}
		return FromValue(NewDateTime(typ, t, true))
	}
}

func fnImplicitTimezone(dc *DynamicContext, _ *ExecutionParameters, _ *StaticContext, _ ...*Sequence) *Sequence {
	_, offset := dc.Now().In(dc.Timezone()).Zone()
	return FromValue(NewDuration(types.TypeDayTimeDuration, 0, time.Duration(offset)*time.Second))
}
