// Package ext provides optional extension functions that go beyond the
// fn:, map:, array: and math: catalogs. They live in the ext namespace
// (types.NamespaceExt) unless stated otherwise.
//
// The extension functions live in sub-packages grouped by category:
//   - extstring – ext:camel-case, ext:snake-case, ext:template, ext:words, …
//   - extcrypto – ext:uuid, ext:hash, ext:hmac
//   - extwasm   – exported functions of a WebAssembly module
//
// # Integration – all extensions at once
//
//	import "github.com/sandrolain/goxq/pkg/ext"
//
//	values, err := goxq.Evaluate(tree, in, ext.WithAll())
//
// # Integration – by category
//
//	values, err := goxq.Evaluate(tree, in,
//	    ext.WithString(),
//	    ext.WithCrypto(),
//	)
//
// # Integration – single function from a sub-package
//
//	import "github.com/sandrolain/goxq/pkg/ext/extstring"
//
//	values, err := goxq.Evaluate(tree, in,
//	    goxq.WithFunctions(extstring.SnakeCase()),
//	)
package ext

import (
	"github.com/sandrolain/goxq/pkg/evaluator"
	"github.com/sandrolain/goxq/pkg/ext/extcrypto"
	"github.com/sandrolain/goxq/pkg/ext/extstring"
)

// All returns all built-in extension function definitions. WebAssembly
// functions are not included since they depend on a loaded module.
func All() []evaluator.CustomFunctionDef {
	var all []evaluator.CustomFunctionDef
	all = append(all, extstring.All()...)
	all = append(all, extcrypto.All()...)
	return all
}

// AllEntries returns All as [evaluator.FunctionEntry], suitable for
// spreading into WithFunctions:
//
//	goxq.WithFunctions(ext.AllEntries()...)
func AllEntries() []evaluator.FunctionEntry {
	all := All()
	out := make([]evaluator.FunctionEntry, len(all))
	for i, f := range all {
		out[i] = f
	}
	return out
}

// WithAll returns an EvalOption that registers all extension functions.
func WithAll() evaluator.EvalOption {
	return evaluator.WithFunctions(AllEntries()...)
}

// WithString returns an EvalOption for the extended string functions.
func WithString() evaluator.EvalOption {
	return evaluator.WithFunctions(extstring.AllEntries()...)
}

// WithCrypto returns an EvalOption for the identifier and hashing functions.
func WithCrypto() evaluator.EvalOption {
	return evaluator.WithFunctions(extcrypto.AllEntries()...)
}
