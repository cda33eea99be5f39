// Package parser decodes serialized expression-construction trees.
//
// The textual XPath/XQuery grammar lives outside this module. External
// parsers hand over their output as a tree of nodes in JSON (or YAML), and
// this package turns it into a validated [types.Expression].
//
// # Example
//
//	expr, err := parser.Parse([]byte(`{"type":"functionCall","value":"fn:upper-case",
//	    "children":[{"type":"stringLiteral","value":"abc"}]}`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()
//
// Every node type is checked against the set the evaluator understands, and
// the shape of each node (child counts, required attributes) is validated,
// so malformed trees fail here with XPST0003 rather than during evaluation.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sandrolain/goxq/pkg/types"
)

// Parse decodes a JSON expression tree and validates it.
func Parse(data []byte, opts ...CompileOption) (*types.Expression, error) {
	return ParseReader(bytes.NewReader(data), opts...)
}

// ParseReader is like Parse but reads the JSON tree from r.
func ParseReader(r io.Reader, opts ...CompileOption) (*types.Expression, error) {
	var root types.ASTNode
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&root); err != nil {
		return nil, types.NewError(types.ErrSyntax, fmt.Sprintf("invalid expression tree: %v", err), -1).WithCause(err)
	}
	return build(&root, opts)
}

// ParseYAML decodes a YAML expression tree and validates it. YAML trees are
// convenient for hand-written fixtures.
func ParseYAML(data []byte, opts ...CompileOption) (*types.Expression, error) {
	var root types.ASTNode
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, types.NewError(types.ErrSyntax, fmt.Sprintf("invalid expression tree: %v", err), -1).WithCause(err)
	}
	return build(&root, opts)
}

// FromAST validates a tree built in Go.
func FromAST(root *types.ASTNode, opts ...CompileOption) (*types.Expression, error) {
	if root == nil {
		return nil, types.Errorf(types.ErrSyntax, "empty expression tree")
	}
	return build(root, opts)
}

// Encode serializes an expression tree to JSON.
func Encode(root *types.ASTNode) ([]byte, error) {
	data, err := json.Marshal(root)
	if err != nil {
		return nil, errors.Wrap(err, "parser: encode expression tree")
	}
	return data, nil
}

func build(root *types.ASTNode, opts []CompileOption) (*types.Expression, error) {
	options := CompileOptions{MaxDepth: 1000}
	for _, opt := range opts {
		opt(&options)
	}
	if root.Type == "" {
		return nil, types.Errorf(types.ErrSyntax, "empty expression tree")
	}
	if err := validate(root, 0, options.MaxDepth); err != nil {
		return nil, err
	}
	return types.NewExpression(root, options.Source), nil
}

// CompileOption configures decoding.
type CompileOption func(*CompileOptions)

// CompileOptions holds decoder configuration.
type CompileOptions struct {
	// MaxDepth limits tree depth to prevent stack exhaustion.
	MaxDepth int
	// Source is the text the tree was produced from, kept for diagnostics.
	Source string
}

// WithMaxDepth sets the maximum tree depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

// WithSource records the source text the tree was produced from.
func WithSource(source string) CompileOption {
	return func(opts *CompileOptions) {
		opts.Source = source
	}
}
