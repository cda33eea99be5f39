package evaluator

import (
	"github.com/pkg/errors"

	"github.com/sandrolain/goxq/pkg/types"
)

// Expression is a compiled expression node.
//
// PerformStaticEvaluation runs exactly once, before any evaluation, and
// resolves names against the static context. Evaluate may then run any
// number of times with different dynamic contexts; it never fails
// directly, errors surface from the returned sequence when pulled.
type Expression interface {
	PerformStaticEvaluation(sc *StaticContext) error
	Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence
	// IsUpdating reports whether the expression may schedule updates. It
	// is known after the static pass.
	IsUpdating() bool
}

// base holds the state every expression kind shares.
type base struct {
	position int
	bound    bool
	updating bool
}

func (b *base) IsUpdating() bool { return b.updating }

// bind marks the static pass as done for this node.
func (b *base) bind() error {
	if b.bound {
		return ErrAlreadyBound
	}
	b.bound = true
	return nil
}

func (b *base) errorf(code types.ErrorCode, format string, args ...any) error {
	return types.Errorf(code, format, args...).WithPosition(b.position)
}

// withPosition attaches pos to a language error that has none.
func withPosition(err error, pos int) error {
	var xe *types.Error
	if errors.As(err, &xe) {
		xe.WithPosition(pos)
	}
	return err
}

// staticAll runs the static pass over children in order.
func staticAll(sc *StaticContext, exprs ...Expression) error {
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if err := e.PerformStaticEvaluation(sc); err != nil {
			return err
		}
	}
	return nil
}

// rejectUpdating fails when any operand is updating.
func (b *base) rejectUpdating(exprs ...Expression) error {
	for _, e := range exprs {
		if e != nil && e.IsUpdating() {
			return b.errorf(types.ErrUpdatingNotAllowed, "an updating expression is not allowed here")
		}
	}
	return nil
}

// isVacuous reports whether e is the empty sequence literal, which may be
// mixed with updating expressions.
func isVacuous(e Expression) bool {
	s, ok := e.(*SequenceExpr)
	return ok && len(s.items) == 0
}

// combineUpdating sets the updating flag of a node whose operands may all
// be updating; mixing updating and non-updating operands is an error.
func (b *base) combineUpdating(exprs ...Expression) error {
	updating, simple := false, false
	for _, e := range exprs {
		switch {
		case e.IsUpdating():
			updating = true
		case !isVacuous(e):
			simple = true
		}
	}
	if updating && simple {
		return b.errorf(types.ErrUpdatingNotAllowed, "updating and non-updating expressions cannot be mixed")
	}
	b.updating = updating
	return nil
}

// collect realizes every sequence without blocking and continues with all
// of their values. Pending production is propagated.
func collect(seqs []*Sequence, fn func([][]Value) *Sequence) *Sequence {
	var step func(i int, acc [][]Value) *Sequence
	step = func(i int, acc [][]Value) *Sequence {
		if i == len(seqs) {
			return fn(acc)
		}
		return seqs[i].MapAll(func(values []Value) *Sequence {
			return step(i+1, append(acc, values))
		})
	}
	return step(0, make([][]Value, 0, len(seqs)))
}

// atomicOperand realizes an operand as at most one atomic value.
func atomicOperand(values []Value, what string) (*AtomicValue, error) {
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		a, ok := values[0].(AtomicValue)
		if !ok {
			return nil, types.Errorf(types.ErrType, "%s: expected an atomic value, got %s", what, values[0].Type())
		}
		return &a, nil
	}
	return nil, types.Errorf(types.ErrType, "%s: expected at most one item, got %d", what, len(values))
}

// evaluateAtomized evaluates e and atomizes its result.
func evaluateAtomized(e Expression, dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return AtomizeSequence(e.Evaluate(dc, ep), ep)
}

// boolSequence wraps a boolean result.
func boolSequence(b bool) *Sequence {
	return FromValue(NewBoolean(b))
}
