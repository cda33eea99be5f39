package evaluator

import (
	"strconv"
	"strings"

	"github.com/sandrolain/goxq/pkg/functions"
	"github.com/sandrolain/goxq/pkg/types"
)

// builtinNamespaces hold the functions whose return values are trusted
// outside debug mode.
var builtinNamespaces = map[string]bool{
	types.NamespaceFn:    true,
	types.NamespaceMap:   true,
	types.NamespaceArray: true,
	types.NamespaceMath:  true,
}

// lookupFunction resolves a static function name and arity, reporting
// XPST0017 with suggestions when no overload matches.
func lookupFunction(sc *StaticContext, lexical string, arity int) (*functions.Properties[FunctionImpl], error) {
	name, err := sc.ResolveFunctionName(lexical)
	if err != nil {
		return nil, err
	}
	if props, ok := sc.LookupFunction(name, arity); ok {
		return props, nil
	}
	reg := sc.Registry()
	if reg.Has(name.Namespace, name.Local) {
		arities := reg.Arities(name.Namespace, name.Local)
		list := make([]string, len(arities))
		for i, a := range arities {
			list[i] = strconv.Itoa(a)
		}
		return nil, types.Errorf(types.ErrUnknownFunction,
			"function %s: expected %s arguments, got %d", name, strings.Join(list, " or "), arity)
	}
	return nil, types.Errorf(types.ErrUnknownFunction,
		"function %s#%d is not defined.%s", name, arity, reg.DidYouMean(name.Local))
}

// functionItem materializes an overload as a function item of the given
// arity.
func functionItem(props *functions.Properties[FunctionImpl], arity int, sc *StaticContext) *FunctionValue {
	argTypes := make([]types.TypeDeclaration, arity)
	for i := range argTypes {
		argTypes[i] = props.ArgumentType(i)
	}
	kind := customFunction
	if builtinNamespaces[props.Namespace] {
		kind = builtinFunction
	}
	return &FunctionValue{
		name:          props.Key().QName(),
		argumentTypes: argTypes,
		returnType:    props.ReturnType,
		impl:          props.Impl,
		sc:            sc,
		kind:          kind,
		updating:      props.Updating,
	}
}

// FunctionCall is a static call such as fn:concat($a, "b"). Nil arguments
// are "?" placeholders.
type FunctionCall struct {
	base
	name  string
	args  []Expression
	props *functions.Properties[FunctionImpl]
	sc    *StaticContext
}

func (e *FunctionCall) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	props, err := lookupFunction(sc, e.name, len(e.args))
	if err != nil {
		return withPosition(err, e.position)
	}
	e.props, e.sc = props, sc
	if err := staticAll(sc, e.args...); err != nil {
		return err
	}
	if err := e.rejectUpdating(e.args...); err != nil {
		return err
	}
	e.updating = props.Updating
	sc.debugf("static function call", "function", props.Name(), "arity", len(e.args))
	return nil
}

func (e *FunctionCall) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	f := functionItem(e.props, len(e.args), e.sc)
	return CallFunction(f, dc, ep, evaluateArguments(e.args, dc, ep))
}

// evaluateArguments evaluates non-placeholder arguments; placeholders stay
// nil.
func evaluateArguments(args []Expression, dc *DynamicContext, ep *ExecutionParameters) []*Sequence {
	out := make([]*Sequence, len(args))
	for i, a := range args {
		if a != nil {
			out[i] = a.Evaluate(dc, ep)
		}
	}
	return out
}

// NamedFunctionRef is f#N.
type NamedFunctionRef struct {
	base
	name  string
	arity int
	props *functions.Properties[FunctionImpl]
	sc    *StaticContext
}

func (e *NamedFunctionRef) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	props, err := lookupFunction(sc, e.name, e.arity)
	if err != nil {
		return withPosition(err, e.position)
	}
	e.props, e.sc = props, sc
	return nil
}

func (e *NamedFunctionRef) Evaluate(_ *DynamicContext, _ *ExecutionParameters) *Sequence {
	return FromValue(functionItem(e.props, e.arity, e.sc))
}

// inlineParam is one parameter of an inline function.
type inlineParam struct {
	name string
	decl types.TypeDeclaration
	key  BindingKey
}

// InlineFunction is function($a as T, ...) as R { body }. It closes over
// the variables in scope where it is evaluated.
type InlineFunction struct {
	base
	params     []inlineParam
	returnType types.TypeDeclaration
	body       Expression
	sc         *StaticContext
}

func (e *InlineFunction) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	sc.IntroduceScope()
	defer sc.RemoveScope()
	for i := range e.params {
		q, err := sc.ResolveQName(e.params[i].name, "")
		if err != nil {
			return err
		}
		e.params[i].key = sc.RegisterVariable(q.Namespace, q.Local)
	}
	if err := e.body.PerformStaticEvaluation(sc); err != nil {
		return err
	}
	e.sc = sc
	return e.rejectUpdating(e.body)
}

func (e *InlineFunction) Evaluate(dc *DynamicContext, _ *ExecutionParameters) *Sequence {
	argTypes := make([]types.TypeDeclaration, len(e.params))
	for i, p := range e.params {
		argTypes[i] = p.decl
	}
	closure := dc.WithoutFocus()
	f := NewAnonymousFunction(argTypes, e.returnType, func(call *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
		bindings := make(map[BindingKey]Lazy, len(args))
		for i, a := range args {
			bindings[e.params[i].key] = a.Replayable()
		}
		scope := closure.ScopeWithVariableBindings(bindings)
		scope.depth = call.depth
		return e.body.Evaluate(scope, ep)
	})
	f.kind = inlineFunction
	f.sc = e.sc
	return FromValue(f)
}

// DynamicCall is $f(args): the callee must evaluate to exactly one function
// item (maps and arrays included).
type DynamicCall struct {
	base
	callee Expression
	args   []Expression
}

func (e *DynamicCall) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := e.callee.PerformStaticEvaluation(sc); err != nil {
		return err
	}
	if err := staticAll(sc, e.args...); err != nil {
		return err
	}
	return e.rejectUpdating(append([]Expression{e.callee}, e.args...)...)
}

func (e *DynamicCall) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return e.callee.Evaluate(dc, ep).MapAll(func(values []Value) *Sequence {
		if len(values) != 1 {
			return Errored(e.errorf(types.ErrType,
				"the target of a dynamic function call must be a single function, got %d items", len(values)))
		}
		f, ok := asFunction(values[0])
		if !ok {
			return Errored(e.errorf(types.ErrType,
				"the target of a dynamic function call must be a function, got %s", values[0].Type()))
		}
		return CallFunction(f, dc, ep, evaluateArguments(e.args, dc, ep))
	})
}
