package evaluator

import (
	"github.com/sandrolain/goxq/pkg/types"
)

// DeleteExpr is "delete node e". It yields () and schedules the removal of
// every target node on the pending update list of the evaluation.
type DeleteExpr struct {
	base
	target Expression
}

func (e *DeleteExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := e.target.PerformStaticEvaluation(sc); err != nil {
		return err
	}
	if err := e.rejectUpdating(e.target); err != nil {
		return err
	}
	e.updating = true
	return nil
}

func (e *DeleteExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return e.target.Evaluate(dc, ep).MapAll(func(values []Value) *Sequence {
		if ep.updates == nil {
			return Errored(e.errorf(types.ErrUpdatingNotAllowed, "the evaluation does not accept pending updates"))
		}
		for _, v := range values {
			if _, ok := v.(NodeValue); !ok {
				return Errored(e.errorf(types.ErrType, "the target of delete must be nodes, got %s", v.Type()))
			}
		}
		for _, v := range values {
			ep.updates.Delete(v.(NodeValue).pointer)
		}
		return Empty()
	})
}
