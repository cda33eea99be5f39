package types

import "strconv"

// NodeType identifies the kind of an expression-construction node.
type NodeType string

// AST node types understood by the evaluator.
const (
	// Literals
	NodeIntegerLiteral NodeType = "integerLiteral"
	NodeDecimalLiteral NodeType = "decimalLiteral"
	NodeDoubleLiteral  NodeType = "doubleLiteral"
	NodeStringLiteral  NodeType = "stringLiteral"

	// Structure
	NodeSequence    NodeType = "sequence"    // (a, b, c); no children is ()
	NodeContextItem NodeType = "contextItem" // .
	NodeVarRef      NodeType = "varRef"      // $name
	NodeLet         NodeType = "let"         // let $name := a return b
	NodeFor         NodeType = "for"         // for $name at $pos in a return b
	NodeIf          NodeType = "if"          // if (a) then b else c

	// Operators
	NodeAnd            NodeType = "and"
	NodeOr             NodeType = "or"
	NodeArithmetic     NodeType = "arithmetic"     // Value: + - * div idiv mod
	NodeUnaryMinus     NodeType = "unaryMinus"     // -a
	NodeUnaryPlus      NodeType = "unaryPlus"      // +a
	NodeValueCompare   NodeType = "valueCompare"   // Value: eq ne lt le gt ge
	NodeGeneralCompare NodeType = "generalCompare" // Value: = != < <= > >=
	NodeStringConcat   NodeType = "stringConcat"   // a || b
	NodeRange          NodeType = "range"          // a to b

	// Paths
	NodePath   NodeType = "path"   // a/b/c
	NodeStep   NodeType = "step"   // axis::test[predicates]
	NodeRoot   NodeType = "root"   // leading /
	NodeFilter NodeType = "filter" // primary[predicates]

	// Functions
	NodeFunctionCall        NodeType = "functionCall"        // f(a, ?)
	NodeDynamicCall         NodeType = "dynamicCall"         // $f(a)
	NodeNamedFunctionRef    NodeType = "namedFunctionRef"    // f#2
	NodeInlineFunction      NodeType = "inlineFunction"      // function($a) { ... }
	NodeParam               NodeType = "param"               // inline function parameter
	NodeArgumentPlaceholder NodeType = "argumentPlaceholder" // ?

	// Constructors
	NodeMap         NodeType = "map"         // map { k: v }
	NodeMapEntry    NodeType = "mapEntry"    // k: v
	NodeSquareArray NodeType = "squareArray" // [a, b]
	NodeCurlyArray  NodeType = "curlyArray"  // array { a }

	// Types
	NodeCastAs     NodeType = "castAs"
	NodeCastableAs NodeType = "castableAs"
	NodeInstanceOf NodeType = "instanceOf"
	NodeTreatAs    NodeType = "treatAs"

	// Updating
	NodeDelete NodeType = "delete" // delete node a
)

// Attribute names carried by AST nodes.
const (
	AttrName       = "name"       // let/for variable, param name
	AttrAt         = "at"         // for positional variable
	AttrArity      = "arity"      // namedFunctionRef
	AttrType       = "type"       // cast/castable/instance/treat target, param type
	AttrReturnType = "returnType" // inlineFunction declared return
	AttrAxis       = "axis"       // step axis
	AttrTest       = "test"       // step node test
)

// ASTNode is one node of the expression-construction tree produced by an
// external parser. Structural queries are limited to kind, ordered children
// and attributes.
type ASTNode struct {
	Type       NodeType          `json:"type" yaml:"type"`
	Value      string            `json:"value,omitempty" yaml:"value,omitempty"`
	Children   []*ASTNode        `json:"children,omitempty" yaml:"children,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Position   int               `json:"position,omitempty" yaml:"position,omitempty"`
}

// NewASTNode creates a new AST node of the specified type.
func NewASTNode(nodeType NodeType, value string, children ...*ASTNode) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Value:    value,
		Children: children,
	}
}

// WithAttr sets an attribute and returns the node for chaining.
func (n *ASTNode) WithAttr(name, value string) *ASTNode {
	if n.Attributes == nil {
		n.Attributes = make(map[string]string, 2)
	}
	n.Attributes[name] = value
	return n
}

// Attr returns an attribute value and whether it was set.
func (n *ASTNode) Attr(name string) (string, bool) {
	v, ok := n.Attributes[name]
	return v, ok
}

// Child returns the i-th child or nil.
func (n *ASTNode) Child(i int) *ASTNode {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// String returns a short description of the node.
func (n *ASTNode) String() string {
	if n.Value != "" {
		return string(n.Type) + "(" + strconv.Quote(n.Value) + ")"
	}
	return string(n.Type)
}

// Convenience constructors, mostly used by hosts building trees in Go and
// by tests.

// Int builds an integer literal.
func Int(v int64) *ASTNode {
	return NewASTNode(NodeIntegerLiteral, strconv.FormatInt(v, 10))
}

// Str builds a string literal.
func Str(v string) *ASTNode {
	return NewASTNode(NodeStringLiteral, v)
}

// Dbl builds a double literal.
func Dbl(v float64) *ASTNode {
	return NewASTNode(NodeDoubleLiteral, strconv.FormatFloat(v, 'g', -1, 64))
}

// Seq builds a comma expression; no arguments yields ().
func Seq(items ...*ASTNode) *ASTNode {
	return NewASTNode(NodeSequence, "", items...)
}

// Call builds a static function call by lexical name.
func Call(name string, args ...*ASTNode) *ASTNode {
	return NewASTNode(NodeFunctionCall, name, args...)
}

// Var builds a variable reference.
func Var(name string) *ASTNode {
	return NewASTNode(NodeVarRef, name)
}

// Placeholder builds an argument placeholder for partial application.
func Placeholder() *ASTNode {
	return NewASTNode(NodeArgumentPlaceholder, "")
}
