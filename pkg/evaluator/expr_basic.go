package evaluator

import (
	"github.com/sandrolain/goxq/pkg/types"
)

// LiteralExpr is a constant atomic value.
type LiteralExpr struct {
	base
	value AtomicValue
}

func (e *LiteralExpr) PerformStaticEvaluation(sc *StaticContext) error {
	return e.bind()
}

func (e *LiteralExpr) Evaluate(_ *DynamicContext, _ *ExecutionParameters) *Sequence {
	return FromValue(e.value)
}

// SequenceExpr is the comma operator; with no items it is ().
type SequenceExpr struct {
	base
	items []Expression
}

func (e *SequenceExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := staticAll(sc, e.items...); err != nil {
		return err
	}
	return e.combineUpdating(e.items...)
}

func (e *SequenceExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	switch len(e.items) {
	case 0:
		return Empty()
	case 1:
		return e.items[0].Evaluate(dc, ep)
	}
	parts := make([]*Sequence, len(e.items))
	for i, item := range e.items {
		parts[i] = item.Evaluate(dc, ep)
	}
	return Concat(parts...)
}

// ContextItemExpr is ".".
type ContextItemExpr struct {
	base
}

func (e *ContextItemExpr) PerformStaticEvaluation(sc *StaticContext) error {
	return e.bind()
}

func (e *ContextItemExpr) Evaluate(dc *DynamicContext, _ *ExecutionParameters) *Sequence {
	item, ok := dc.ContextItem()
	if !ok {
		return Errored(e.errorf(types.ErrAbsentContext, "the context item is absent"))
	}
	return FromValue(item)
}

// VarRefExpr references an in-scope variable.
type VarRefExpr struct {
	base
	name string
	key  BindingKey
}

func (e *VarRefExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	q, err := sc.ResolveQName(e.name, "")
	if err != nil {
		return err
	}
	key, ok := sc.LookupVariable(q.Namespace, q.Local)
	if !ok {
		return e.errorf(types.ErrUndefinedVariable, "variable $%s is not declared", e.name)
	}
	e.key = key
	return nil
}

func (e *VarRefExpr) Evaluate(dc *DynamicContext, _ *ExecutionParameters) *Sequence {
	l, ok := dc.Lookup(e.key)
	if !ok {
		return Errored(e.errorf(types.ErrAbsentContext, "variable $%s has no value", e.name))
	}
	return l()
}

// LetExpr binds one variable for its return expression.
type LetExpr struct {
	base
	name    string
	key     BindingKey
	binding Expression
	ret     Expression
}

func (e *LetExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := e.binding.PerformStaticEvaluation(sc); err != nil {
		return err
	}
	if err := e.rejectUpdating(e.binding); err != nil {
		return err
	}
	q, err := sc.ResolveQName(e.name, "")
	if err != nil {
		return err
	}
	sc.IntroduceScope()
	e.key = sc.RegisterVariable(q.Namespace, q.Local)
	err = e.ret.PerformStaticEvaluation(sc)
	sc.RemoveScope()
	if err != nil {
		return err
	}
	e.updating = e.ret.IsUpdating()
	sc.debugf("static let", "variable", e.name, "key", string(e.key))
	return nil
}

func (e *LetExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	value := e.binding.Evaluate(dc, ep).Replayable()
	return e.ret.Evaluate(dc.ScopeWithVariableBindings(map[BindingKey]Lazy{e.key: value}), ep)
}

// ForExpr iterates its binding sequence, optionally with a positional
// variable.
type ForExpr struct {
	base
	name    string
	at      string
	key     BindingKey
	atKey   BindingKey
	binding Expression
	ret     Expression
}

func (e *ForExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := e.binding.PerformStaticEvaluation(sc); err != nil {
		return err
	}
	if err := e.rejectUpdating(e.binding); err != nil {
		return err
	}
	q, err := sc.ResolveQName(e.name, "")
	if err != nil {
		return err
	}
	sc.IntroduceScope()
	e.key = sc.RegisterVariable(q.Namespace, q.Local)
	if e.at != "" {
		aq, err := sc.ResolveQName(e.at, "")
		if err != nil {
			sc.RemoveScope()
			return err
		}
		e.atKey = sc.RegisterVariable(aq.Namespace, aq.Local)
	}
	err = e.ret.PerformStaticEvaluation(sc)
	sc.RemoveScope()
	if err != nil {
		return err
	}
	e.updating = e.ret.IsUpdating()
	return nil
}

func (e *ForExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	pos := int64(0)
	return e.binding.Evaluate(dc, ep).FlatMap(func(v Value) *Sequence {
		pos++
		bindings := map[BindingKey]Lazy{e.key: ValuesLazy(v)}
		if e.atKey != "" {
			bindings[e.atKey] = ValuesLazy(NewInteger(pos))
		}
		return e.ret.Evaluate(dc.ScopeWithVariableBindings(bindings), ep)
	})
}

// IfExpr is a conditional.
type IfExpr struct {
	base
	cond, then, els Expression
}

func (e *IfExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := staticAll(sc, e.cond, e.then, e.els); err != nil {
		return err
	}
	if err := e.rejectUpdating(e.cond); err != nil {
		return err
	}
	return e.combineUpdating(e.then, e.els)
}

func (e *IfExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return ebvThen(e.cond.Evaluate(dc, ep), func(b bool) *Sequence {
		if b {
			return e.then.Evaluate(dc, ep)
		}
		return e.els.Evaluate(dc, ep)
	})
}

// ebvThen computes the effective boolean value of cond without blocking
// and continues with the sequence fn returns for it.
func ebvThen(cond *Sequence, fn func(bool) *Sequence) *Sequence {
	var inner *Sequence
	s := cond.derive(nil)
	s.next = func() (Result, error) {
		if inner == nil {
			b, w, err := cond.TryEffectiveBooleanValue()
			if err != nil {
				return Result{}, err
			}
			if w != nil {
				return pendingResult(w), nil
			}
			_ = cond.Close()
			inner = fn(b)
			s.closers = append(s.closers, inner.Close)
		}
		return inner.Next()
	}
	return s
}

// LogicalExpr is "and" or "or" over two or more operands, evaluated left to
// right with short-circuiting.
type LogicalExpr struct {
	base
	and      bool
	operands []Expression
}

func (e *LogicalExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := staticAll(sc, e.operands...); err != nil {
		return err
	}
	return e.rejectUpdating(e.operands...)
}

func (e *LogicalExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	var step func(i int) *Sequence
	step = func(i int) *Sequence {
		return ebvThen(e.operands[i].Evaluate(dc, ep), func(b bool) *Sequence {
			if b != e.and || i == len(e.operands)-1 {
				return boolSequence(b)
			}
			return step(i + 1)
		})
	}
	return step(0)
}
