package evaluator

import (
	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

// Atomize reduces v to atomic values. A node yields the single atomic value
// of its content, an array yields its atomized members, and other function
// items cannot be atomized.
func Atomize(v Value, ep *ExecutionParameters) *Sequence {
	switch x := v.(type) {
	case AtomicValue:
		return FromValue(x)
	case NodeValue:
		a, err := atomizeNode(x, ep)
		if err != nil {
			return Errored(err)
		}
		return FromValue(a)
	case *ArrayValue:
		parts := make([]*Sequence, len(x.members))
		for i, m := range x.members {
			parts[i] = AtomizeSequence(m(), ep)
		}
		return Concat(parts...)
	}
	return Errored(types.Errorf(types.ErrAtomizeFunction, "cannot atomize a function item (%s)", v))
}

// AtomizeSequence atomizes every item of s.
func AtomizeSequence(s *Sequence, ep *ExecutionParameters) *Sequence {
	return s.FlatMap(func(v Value) *Sequence {
		if a, ok := v.(AtomicValue); ok {
			return FromValue(a)
		}
		return Atomize(v, ep)
	})
}

func atomizeNode(n NodeValue, ep *ExecutionParameters) (AtomicValue, error) {
	f, err := ep.requireTree()
	if err != nil {
		return AtomicValue{}, err
	}
	s := tree.StringValue(f, n.pointer)
	switch n.typ {
	case types.TypeComment, types.TypeProcessingInstruction:
		return NewString(s), nil
	}
	return NewUntypedAtomic(s), nil
}

// stringValue renders an item as fn:string does.
func stringValue(v Value, ep *ExecutionParameters) (string, error) {
	switch x := v.(type) {
	case AtomicValue:
		return x.String(), nil
	case NodeValue:
		f, err := ep.requireTree()
		if err != nil {
			return "", err
		}
		return tree.StringValue(f, x.pointer), nil
	}
	return "", types.Errorf(types.ErrStringOfFunction, "cannot take the string value of a function item (%s)", v)
}

// effectiveBooleanValue applies the EBV rules to the first (at most two)
// items of a sequence.
func effectiveBooleanValue(items []Value) (bool, error) {
	if len(items) == 0 {
		return false, nil
	}
	if _, ok := items[0].(NodeValue); ok {
		return true, nil
	}
	if len(items) > 1 {
		return false, types.Errorf(types.ErrInvalidBooleanValue, "effective boolean value is not defined for a sequence of two or more items starting with %s", items[0].Type())
	}
	a, ok := items[0].(AtomicValue)
	if !ok {
		return false, types.Errorf(types.ErrInvalidBooleanValue, "effective boolean value is not defined for %s", items[0].Type())
	}
	switch {
	case a.typ == types.TypeBoolean:
		return a.Bool(), nil
	case types.IsSubtypeOf(a.typ, types.TypeString), a.typ == types.TypeUntypedAtomic, a.typ == types.TypeAnyURI:
		return a.Str() != "", nil
	case a.typ.IsNumeric():
		if a.IsNaN() {
			return false, nil
		}
		switch a.v.(type) {
		case int64:
			return a.Int() != 0, nil
		case float64:
			return a.Float() != 0, nil
		}
		return !a.Decimal().IsZero(), nil
	}
	return false, types.Errorf(types.ErrInvalidBooleanValue, "effective boolean value is not defined for %s", a.typ)
}
