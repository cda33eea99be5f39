package parser

import (
	"fmt"

	"github.com/sandrolain/goxq/pkg/types"
)

// shape constrains one node type.
type shape struct {
	minChildren int
	maxChildren int // -1 for unlimited
	needsValue  bool
	attrs       []string
	values      []string
}

var shapes = map[types.NodeType]shape{
	types.NodeIntegerLiteral: {needsValue: true},
	types.NodeDecimalLiteral: {needsValue: true},
	types.NodeDoubleLiteral:  {needsValue: true},
	types.NodeStringLiteral:  {},

	types.NodeSequence:    {maxChildren: -1},
	types.NodeContextItem: {},
	types.NodeVarRef:      {needsValue: true},
	types.NodeLet:         {minChildren: 2, maxChildren: 2, attrs: []string{types.AttrName}},
	types.NodeFor:         {minChildren: 2, maxChildren: 2, attrs: []string{types.AttrName}},
	types.NodeIf:          {minChildren: 3, maxChildren: 3},

	types.NodeAnd:            {minChildren: 2, maxChildren: -1},
	types.NodeOr:             {minChildren: 2, maxChildren: -1},
	types.NodeArithmetic:     {minChildren: 2, maxChildren: 2, values: []string{"+", "-", "*", "div", "idiv", "mod"}},
	types.NodeUnaryMinus:     {minChildren: 1, maxChildren: 1},
	types.NodeUnaryPlus:      {minChildren: 1, maxChildren: 1},
	types.NodeValueCompare:   {minChildren: 2, maxChildren: 2, values: []string{"eq", "ne", "lt", "le", "gt", "ge"}},
	types.NodeGeneralCompare: {minChildren: 2, maxChildren: 2, values: []string{"=", "!=", "<", "<=", ">", ">="}},
	types.NodeStringConcat:   {minChildren: 2, maxChildren: -1},
	types.NodeRange:          {minChildren: 2, maxChildren: 2},

	types.NodePath:   {minChildren: 1, maxChildren: -1},
	types.NodeStep:   {maxChildren: -1, attrs: []string{types.AttrAxis, types.AttrTest}},
	types.NodeRoot:   {},
	types.NodeFilter: {minChildren: 1, maxChildren: -1},

	types.NodeFunctionCall:        {maxChildren: -1, needsValue: true},
	types.NodeDynamicCall:         {minChildren: 1, maxChildren: -1},
	types.NodeNamedFunctionRef:    {needsValue: true, attrs: []string{types.AttrArity}},
	types.NodeInlineFunction:      {minChildren: 1, maxChildren: -1},
	types.NodeParam:               {needsValue: true},
	types.NodeArgumentPlaceholder: {},

	types.NodeMap:         {maxChildren: -1},
	types.NodeMapEntry:    {minChildren: 2, maxChildren: 2},
	types.NodeSquareArray: {maxChildren: -1},
	types.NodeCurlyArray:  {maxChildren: 1},

	types.NodeCastAs:     {minChildren: 1, maxChildren: 1, attrs: []string{types.AttrType}},
	types.NodeCastableAs: {minChildren: 1, maxChildren: 1, attrs: []string{types.AttrType}},
	types.NodeInstanceOf: {minChildren: 1, maxChildren: 1, attrs: []string{types.AttrType}},
	types.NodeTreatAs:    {minChildren: 1, maxChildren: 1, attrs: []string{types.AttrType}},

	types.NodeDelete: {minChildren: 1, maxChildren: 1},
}

func validate(n *types.ASTNode, depth, maxDepth int) error {
	if n == nil {
		return types.Errorf(types.ErrSyntax, "missing node")
	}
	if maxDepth > 0 && depth > maxDepth {
		return types.NewError(types.ErrSyntax, fmt.Sprintf("expression tree deeper than %d", maxDepth), n.Position)
	}
	sh, ok := shapes[n.Type]
	if !ok {
		return types.NewError(types.ErrSyntax, fmt.Sprintf("unknown node type %q", n.Type), n.Position)
	}
	if len(n.Children) < sh.minChildren || sh.maxChildren >= 0 && len(n.Children) > sh.maxChildren {
		return types.NewError(types.ErrSyntax, fmt.Sprintf("%s: unexpected number of operands (%d)", n.Type, len(n.Children)), n.Position)
	}
	if sh.needsValue && n.Value == "" {
		return types.NewError(types.ErrSyntax, fmt.Sprintf("%s: missing value", n.Type), n.Position)
	}
	for _, a := range sh.attrs {
		if _, ok := n.Attr(a); !ok {
			return types.NewError(types.ErrSyntax, fmt.Sprintf("%s: missing attribute %q", n.Type, a), n.Position)
		}
	}
	if sh.values != nil && !contains(sh.values, n.Value) {
		return types.NewError(types.ErrSyntax, fmt.Sprintf("%s: unknown operator %q", n.Type, n.Value), n.Position)
	}

	for i, c := range n.Children {
		if c != nil && c.Type == types.NodeArgumentPlaceholder && !acceptsPlaceholder(n, i) {
			return types.NewError(types.ErrSyntax, "argument placeholder outside a function call", c.Position)
		}
		if err := validate(c, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

func acceptsPlaceholder(parent *types.ASTNode, i int) bool {
	switch parent.Type {
	case types.NodeFunctionCall:
		return true
	case types.NodeDynamicCall:
		return i > 0
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
