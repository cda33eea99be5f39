package evaluator

import (
	"sync"

	"github.com/sandrolain/goxq/pkg/functions"
	"github.com/sandrolain/goxq/pkg/types"
)

// builtin declares one overload of the built-in catalog.
type builtin struct {
	ns   string
	name string
	sig  string
	impl FunctionImpl
}

var (
	builtinFunctions     []functions.Properties[FunctionImpl]
	builtinFunctionsOnce sync.Once
)

// initBuiltinFunctions parses the signatures of the catalog once.
func initBuiltinFunctions() {
	builtinFunctionsOnce.Do(func() {
		groups := [][]builtin{
			sequenceFunctions,
			numericFunctions,
			stringFunctions,
			regexFunctions,
			contextFunctions,
			miscFunctions,
			hofFunctions,
			resourceFunctions,
			mapFunctions,
			arrayFunctions,
		}
		for _, group := range groups {
			for _, b := range group {
				sig := MustParseSignature(b.sig)
				builtinFunctions = append(builtinFunctions, functions.Properties[FunctionImpl]{
					Namespace:     b.ns,
					Local:         b.name,
					ArgumentTypes: sig.Params,
					Variadic:      sig.Variadic,
					ReturnType:    sig.Return,
					Impl:          b.impl,
				})
			}
		}
	})
}

// BuiltinFunctions returns the overloads of the built-in catalog.
func BuiltinFunctions() []functions.Properties[FunctionImpl] {
	initBuiltinFunctions()
	out := make([]functions.Properties[FunctionImpl], len(builtinFunctions))
	copy(out, builtinFunctions)
	return out
}

// NewRegistry creates a registry holding the built-in catalog.
func NewRegistry() (*functions.Registry[FunctionImpl], error) {
	r := functions.New[FunctionImpl]()
	if err := r.RegisterAll(BuiltinFunctions()...); err != nil {
		return nil, err
	}
	return r, nil
}

// Helpers shared by the catalog. Arguments arrive converted, so an
// xs:string? argument is either empty or a single xs:string.

// optionalAtomic returns the single value of an optional atomic argument.
func optionalAtomic(values []Value) (AtomicValue, bool) {
	if len(values) == 0 {
		return AtomicValue{}, false
	}
	a, ok := values[0].(AtomicValue)
	return a, ok
}

// stringArg returns an xs:string? argument, "" when empty.
func stringArg(values []Value) string {
	a, ok := optionalAtomic(values)
	if !ok {
		return ""
	}
	return a.Str()
}

// valueResult wraps a single result or an error.
func valueResult(v Value, err error) *Sequence {
	if err != nil {
		return Errored(err)
	}
	return FromValue(v)
}

// stringResult wraps a string result.
func stringResult(s string) *Sequence {
	return FromValue(NewString(s))
}

// contextItemArgument returns the context item as a one-item sequence, the
// implicit argument of the zero-arity forms.
func contextItemArgument(dc *DynamicContext, function string) *Sequence {
	item, ok := dc.ContextItem()
	if !ok {
		return Errored(types.Errorf(types.ErrAbsentContext, "%s: the context item is absent", function))
	}
	return FromValue(item)
}

// fn declares an overload in the fn namespace.
func fn(name, sig string, impl FunctionImpl) builtin {
	return builtin{ns: types.NamespaceFn, name: name, sig: sig, impl: impl}
}
