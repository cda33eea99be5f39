// Package goxq provides the evaluation core of an XPath 3.1 / XQuery 3.1
// engine in Go.
//
// goxq evaluates expression-construction trees produced by an external
// parser. Evaluation is lazy: results are pull-based sequences that can
// suspend while external resources load.
//
// # Quick Start
//
//	// Simple evaluation of a JSON-encoded expression tree
//	values, err := goxq.Evaluate(tree, goxq.Input{})
//
//	// Compile once, evaluate many times
//	compiled, err := goxq.Compile(tree)
//	values1, _ := compiled.EvaluateAll(ctx, evaluator.WithContextItem(item1))
//	values2, _ := compiled.EvaluateAll(ctx, evaluator.WithContextItem(item2))
//
//	// With options
//	values, err := goxq.Evaluate(tree, goxq.Input{},
//	    goxq.WithCaching(true),
//	    goxq.WithTimeout(5*time.Second),
//	)
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/goxq/pkg/parser
//   - Evaluator: github.com/sandrolain/goxq/pkg/evaluator
//   - Functions: github.com/sandrolain/goxq/pkg/functions
//   - Types: github.com/sandrolain/goxq/pkg/types
//   - Tree: github.com/sandrolain/goxq/pkg/tree
package goxq

import (
	"context"
	"fmt"
	"sort"

	"github.com/sandrolain/goxq/pkg/evaluator"
	"github.com/sandrolain/goxq/pkg/parser"
	"github.com/sandrolain/goxq/pkg/tree"
)

// Version returns the current version of goxq.
func Version() string {
	return "v0.1.0-dev"
}

// Input is the data an evaluation runs against.
type Input struct {
	// ContextItem is the initial context item, if any.
	ContextItem evaluator.Value
	// Tree navigates the nodes of the input.
	Tree tree.Facade
	// Variables are declared as external variables and bound by name.
	Variables map[string][]evaluator.Value
	// Updates collects pending updates of updating expressions.
	Updates *evaluator.PendingUpdateList
}

// Document returns an Input focused on the root of doc.
func Document(doc *tree.Document) Input {
	return Input{
		ContextItem: evaluator.NewNodeValue(doc.Root(), tree.DocumentKind),
		Tree:        tree.XMLFacade{},
	}
}

func (in Input) compileOptions() []evaluator.CompileOption {
	names := make([]string, 0, len(in.Variables))
	for name := range in.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	opts := make([]evaluator.CompileOption, len(names))
	for i, name := range names {
		opts[i] = evaluator.WithExternalVariable(name)
	}
	return opts
}

func (in Input) evaluateOptions() []evaluator.EvaluateOption {
	opts := []evaluator.EvaluateOption{
		evaluator.WithTree(in.Tree),
		evaluator.WithUpdates(in.Updates),
	}
	if in.ContextItem != nil {
		opts = append(opts, evaluator.WithContextItem(in.ContextItem))
	}
	for name, values := range in.Variables {
		opts = append(opts, evaluator.WithVariable(name, values...))
	}
	return opts
}

// Compile decodes a JSON expression tree and statically evaluates it for
// repeated evaluation.
//
// The compiled expression can be evaluated multiple times against different
// inputs. It is safe for concurrent use.
func Compile(src []byte, opts ...EvalOption) (*evaluator.Compiled, error) {
	expr, err := parser.Parse(src, parser.WithSource(string(src)))
	if err != nil {
		return nil, err
	}
	return evaluator.New(opts...).Compile(expr)
}

// Evaluate is a convenience function that compiles and evaluates an
// expression tree in a single call, bounded by the evaluator timeout.
//
// For repeated evaluations of the same expression, use Compile instead.
func Evaluate(src []byte, in Input, opts ...EvalOption) ([]evaluator.Value, error) {
	return EvaluateWithContext(context.Background(), src, in, opts...)
}

// EvaluateWithContext evaluates an expression tree with a custom context.
func EvaluateWithContext(ctx context.Context, src []byte, in Input, opts ...EvalOption) ([]evaluator.Value, error) {
	expr, err := parser.Parse(src, parser.WithSource(string(src)))
	if err != nil {
		return nil, err
	}
	compiled, err := evaluator.New(opts...).Compile(expr, in.compileOptions()...)
	if err != nil {
		return nil, err
	}
	return compiled.EvaluateAll(ctx, in.evaluateOptions()...)
}

// MustCompile is like Compile but panics if the expression cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(src []byte, opts ...EvalOption) *evaluator.Compiled {
	compiled, err := Compile(src, opts...)
	if err != nil {
		panic(fmt.Sprintf("goxq: Compile: %v", err))
	}
	return compiled
}
