package evaluator

import (
	"github.com/sandrolain/goxq/pkg/types"
)

// mapEntryExpr is one "key: value" pair of a map constructor.
type mapEntryExpr struct {
	key, value Expression
}

// MapConstructor is map { k: v, ... }.
type MapConstructor struct {
	base
	entries []mapEntryExpr
}

func (e *MapConstructor) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	for _, en := range e.entries {
		if err := staticAll(sc, en.key, en.value); err != nil {
			return err
		}
		if err := e.rejectUpdating(en.key, en.value); err != nil {
			return err
		}
	}
	return nil
}

var singleAtomic = types.TypeDeclaration{Type: types.TypeAnyAtomic, Multiplicity: types.ExactlyOne}

func (e *MapConstructor) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	keys := make([]*Sequence, len(e.entries))
	for i, en := range e.entries {
		keys[i] = PerformFunctionConversion(singleAtomic, en.key.Evaluate(dc, ep), ep, "map constructor", false)
	}
	return collect(keys, func(values [][]Value) *Sequence {
		m := &MapValue{index: make(map[string]int, len(values))}
		for i, kv := range values {
			key := kv[0].(AtomicValue)
			if m.Contains(key) {
				return Errored(e.errorf(types.ErrDuplicateMapKey, "duplicate key %s in map constructor", key))
			}
			m.set(MapEntry{Key: key, Value: e.entries[i].value.Evaluate(dc, ep).Replayable()})
		}
		return FromValue(m)
	})
}

// SquareArrayConstructor is [a, b, ...]: one member per operand.
type SquareArrayConstructor struct {
	base
	members []Expression
}

func (e *SquareArrayConstructor) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := staticAll(sc, e.members...); err != nil {
		return err
	}
	return e.rejectUpdating(e.members...)
}

func (e *SquareArrayConstructor) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	members := make([]Lazy, len(e.members))
	for i, m := range e.members {
		members[i] = m.Evaluate(dc, ep).Replayable()
	}
	return FromValue(NewArray(members...))
}

// CurlyArrayConstructor is array { e }: one member per item of e.
type CurlyArrayConstructor struct {
	base
	content Expression
}

func (e *CurlyArrayConstructor) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if e.content == nil {
		return nil
	}
	if err := e.content.PerformStaticEvaluation(sc); err != nil {
		return err
	}
	return e.rejectUpdating(e.content)
}

func (e *CurlyArrayConstructor) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	if e.content == nil {
		return FromValue(NewArray())
	}
	return e.content.Evaluate(dc, ep).MapAll(func(values []Value) *Sequence {
		members := make([]Lazy, len(values))
		for i, v := range values {
			members[i] = ValuesLazy(v)
		}
		return FromValue(NewArray(members...))
	})
}
