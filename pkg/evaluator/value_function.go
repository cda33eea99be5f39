package evaluator

import (
	"fmt"

	"github.com/sandrolain/goxq/pkg/types"
)

// FunctionImpl is the body of a function item. Arguments arrive already
// converted to the declared parameter types.
type FunctionImpl func(dc *DynamicContext, ep *ExecutionParameters, sc *StaticContext, args ...*Sequence) *Sequence

type functionKind int

const (
	builtinFunction functionKind = iota
	inlineFunction
	customFunction
	partialFunction
)

// FunctionValue is a function item. Its arity is exact.
type FunctionValue struct {
	name          types.QName
	argumentTypes []types.TypeDeclaration
	returnType    types.TypeDeclaration
	impl          FunctionImpl
	// sc is the static context the function was created in; built-ins
	// receive it on invocation.
	sc        *StaticContext
	kind      functionKind
	anonymous bool
	updating  bool
}

// NewFunctionValue creates a named function item.
func NewFunctionValue(name types.QName, argumentTypes []types.TypeDeclaration, returnType types.TypeDeclaration, impl FunctionImpl) *FunctionValue {
	return &FunctionValue{
		name:          name,
		argumentTypes: argumentTypes,
		returnType:    returnType,
		impl:          impl,
		kind:          customFunction,
	}
}

// NewAnonymousFunction creates an anonymous function item.
func NewAnonymousFunction(argumentTypes []types.TypeDeclaration, returnType types.TypeDeclaration, impl FunctionImpl) *FunctionValue {
	f := NewFunctionValue(types.QName{}, argumentTypes, returnType, impl)
	f.anonymous = true
	return f
}

// Type implements Value.
func (f *FunctionValue) Type() types.ValueType { return types.TypeFunction }

// Name returns the function name; anonymous functions have none.
func (f *FunctionValue) Name() types.QName { return f.name }

// Arity returns the number of parameters.
func (f *FunctionValue) Arity() int { return len(f.argumentTypes) }

// ArgumentTypes returns the declared parameter types.
func (f *FunctionValue) ArgumentTypes() []types.TypeDeclaration { return f.argumentTypes }

// ReturnType returns the declared return type.
func (f *FunctionValue) ReturnType() types.TypeDeclaration { return f.returnType }

// IsAnonymous reports whether the function has no name.
func (f *FunctionValue) IsAnonymous() bool { return f.anonymous }

// IsUpdating reports whether invoking the function may produce updates.
func (f *FunctionValue) IsUpdating() bool { return f.updating }

// DisplayName renders the name used in diagnostics.
func (f *FunctionValue) DisplayName() string {
	if f.anonymous {
		return "(anonymous function)"
	}
	return f.name.String()
}

func (f *FunctionValue) String() string {
	return fmt.Sprintf("%s#%d", f.DisplayName(), f.Arity())
}

// asFunction views maps and arrays as the single-argument functions they
// are.
func asFunction(v Value) (*FunctionValue, bool) {
	switch fv := v.(type) {
	case *FunctionValue:
		return fv, true
	case *MapValue:
		return &FunctionValue{
			argumentTypes: []types.TypeDeclaration{{Type: types.TypeAnyAtomic, Multiplicity: types.ExactlyOne}},
			returnType:    types.AnyItems,
			anonymous:     true,
			kind:          builtinFunction,
			impl: func(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
				return args[0].MapAll(func(keys []Value) *Sequence {
					key, _ := keys[0].(AtomicValue)
					if l, ok := fv.Get(key); ok {
						return l()
					}
					return Empty()
				})
			},
		}, true
	case *ArrayValue:
		return &FunctionValue{
			argumentTypes: []types.TypeDeclaration{{Type: types.TypeInteger, Multiplicity: types.ExactlyOne}},
			returnType:    types.AnyItems,
			anonymous:     true,
			kind:          builtinFunction,
			impl: func(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
				return args[0].MapAll(func(pos []Value) *Sequence {
					l, err := fv.Get(pos[0].(AtomicValue).Int())
					if err != nil {
						return Errored(err)
					}
					return l()
				})
			},
		}, true
	}
	return nil, false
}
