package evaluator

import (
	"github.com/sandrolain/goxq/pkg/types"
)

// CallFunction applies f to args. A nil argument is a gap: when any gap
// remains the result is a partially applied function item instead of an
// invocation. Non-gap arguments are converted to the declared parameter
// types.
func CallFunction(f *FunctionValue, dc *DynamicContext, ep *ExecutionParameters, args []*Sequence) *Sequence {
	if len(args) != f.Arity() {
		return Errored(types.Errorf(types.ErrType,
			"%s: expected %d arguments, got %d", f.DisplayName(), f.Arity(), len(args)))
	}
	gaps := false
	converted := make([]*Sequence, len(args))
	for i, a := range args {
		if a == nil {
			gaps = true
			continue
		}
		converted[i] = PerformFunctionConversion(f.argumentTypes[i], a, ep, f.DisplayName(), false)
	}
	if gaps {
		return FromValue(f.Partial(converted))
	}
	return f.invoke(dc, ep, converted)
}

// Partial binds the non-nil arguments and returns a function over the
// remaining positions. Bound arguments are replayed on every call.
func (f *FunctionValue) Partial(args []*Sequence) *FunctionValue {
	bound := make([]Lazy, len(args))
	var remaining []types.TypeDeclaration
	for i, a := range args {
		if a == nil {
			remaining = append(remaining, f.argumentTypes[i])
			continue
		}
		bound[i] = a.Replayable()
	}
	return &FunctionValue{
		name:          f.name,
		argumentTypes: remaining,
		returnType:    f.returnType,
		sc:            f.sc,
		kind:          partialFunction,
		anonymous:     true,
		updating:      f.updating,
		impl: func(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, gapArgs ...*Sequence) *Sequence {
			full := make([]*Sequence, len(bound))
			next := 0
			for i, b := range bound {
				if b == nil {
					full[i] = gapArgs[next]
					next++
					continue
				}
				full[i] = b()
			}
			return f.invoke(dc, ep, full)
		},
	}
}

// invoke runs the body with converted arguments. Inline and host functions
// get their result checked against the declared return type; built-ins only
// in debug mode.
func (f *FunctionValue) invoke(dc *DynamicContext, ep *ExecutionParameters, args []*Sequence) *Sequence {
	if f.kind == partialFunction {
		// The target's own invoke counts the call.
		return f.impl(dc, ep, f.sc, args...)
	}
	if ep.maxDepth > 0 && dc.depth >= ep.maxDepth {
		return Errored(types.Errorf(types.ErrImplementationLimit,
			"maximum function call depth of %d exceeded calling %s", ep.maxDepth, f.DisplayName()))
	}
	ep.metrics.functionCalled(f.DisplayName())
	if ep.debug {
		ep.logger.Debug("invoking function", "function", f.DisplayName(), "arity", len(args))
	}
	result := f.impl(dc.enterFunction(), ep, f.sc, args...)
	if f.kind == builtinFunction && !ep.debug {
		return result
	}
	return PerformFunctionConversion(f.returnType, result, ep, f.DisplayName(), true)
}
