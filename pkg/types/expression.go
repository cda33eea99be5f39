// Package types defines the shared vocabulary of goxq.
//
// This package contains:
//   - ValueType: the fixed subtype lattice and IsSubtypeOf
//   - Multiplicity and TypeDeclaration: sequence types used by signatures
//   - QName: expanded names and the well-known namespaces
//   - ASTNode and Expression: the parsed unit handed over by a parser
//   - Error: structured errors carrying canonical error codes
package types

// Expression is a parsed, not yet compiled, expression: the root of an
// expression-construction tree plus the source it was produced from.
//
// An Expression is immutable and may be compiled any number of times.
type Expression struct {
	ast    *ASTNode
	source string
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *ASTNode, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// AST returns the root of the expression-construction tree.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the text the tree was produced from, if known.
func (e *Expression) Source() string {
	return e.source
}

// String returns the source, or the root node kind when no source is known.
func (e *Expression) String() string {
	if e.source != "" {
		return e.source
	}
	if e.ast == nil {
		return "<nil>"
	}
	return e.ast.String()
}
