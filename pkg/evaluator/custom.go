package evaluator

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sandrolain/goxq/pkg/functions"
	"github.com/sandrolain/goxq/pkg/types"
)

// CustomFunc is the body of a host function. Each argument arrives as the
// values of one converted parameter; the result is checked against the
// declared return type.
type CustomFunc func(ctx context.Context, args ...[]Value) ([]Value, error)

// FunctionEntry is a host function definition accepted by WithFunctions.
// It is implemented by CustomFunctionDef and AdvancedCustomFunctionDef.
type FunctionEntry interface {
	properties() (functions.Properties[FunctionImpl], error)
}

// CustomFunctionDef declares a host function over materialized values.
type CustomFunctionDef struct {
	// Namespace defaults to types.NamespaceExt.
	Namespace string
	Name      string
	// Signature such as "(xs:string?, xs:integer) as xs:string".
	Signature string
	Fn        CustomFunc
}

// AdvancedCustomFunctionDef declares a host function working on lazy
// sequences with access to the evaluation contexts, e.g. to call function
// items with CallFunction.
type AdvancedCustomFunctionDef struct {
	Namespace string
	Name      string
	Signature string
	Impl      FunctionImpl
}

func definitionProperties(namespace, name, signature string, impl FunctionImpl) (functions.Properties[FunctionImpl], error) {
	if namespace == "" {
		namespace = types.NamespaceExt
	}
	if signature == "" {
		signature = "() as item()*"
	}
	sig, err := ParseSignature(signature)
	if err != nil {
		return functions.Properties[FunctionImpl]{}, errors.Wrapf(err, "custom function %s", name)
	}
	return functions.Properties[FunctionImpl]{
		Namespace:     namespace,
		Local:         name,
		ArgumentTypes: sig.Params,
		Variadic:      sig.Variadic,
		ReturnType:    sig.Return,
		Impl:          impl,
	}, nil
}

func (d CustomFunctionDef) properties() (functions.Properties[FunctionImpl], error) {
	if d.Fn == nil {
		return functions.Properties[FunctionImpl]{}, errors.Errorf("custom function %s: nil implementation", d.Name)
	}
	fn := d.Fn
	return definitionProperties(d.Namespace, d.Name, d.Signature,
		func(_ *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
			return collect(args, func(values [][]Value) *Sequence {
				out, err := fn(ep.Context(), values...)
				if err != nil {
					if types.CodeOf(err) == "" {
						err = types.Errorf(types.ErrUserError, "%s: %v", d.Name, err).WithCause(err)
					}
					return Errored(err)
				}
				return FromValues(out...)
			})
		})
}

func (d AdvancedCustomFunctionDef) properties() (functions.Properties[FunctionImpl], error) {
	if d.Impl == nil {
		return functions.Properties[FunctionImpl]{}, errors.Errorf("custom function %s: nil implementation", d.Name)
	}
	return definitionProperties(d.Namespace, d.Name, d.Signature, d.Impl)
}
