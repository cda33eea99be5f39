package evaluator

import (
	"fmt"
	"strconv"

	"github.com/sandrolain/goxq/pkg/types"
)

// Build turns an expression-construction tree into an unbound expression.
// The result still needs its static pass.
func Build(n *types.ASTNode) (Expression, error) {
	if n == nil {
		return nil, types.Errorf(types.ErrSyntax, "missing expression")
	}
	b := base{position: n.Position}
	switch n.Type {
	case types.NodeIntegerLiteral:
		return literal(b, n.Value, types.TypeInteger)
	case types.NodeDecimalLiteral:
		return literal(b, n.Value, types.TypeDecimal)
	case types.NodeDoubleLiteral:
		return literal(b, n.Value, types.TypeDouble)
	case types.NodeStringLiteral:
		return &LiteralExpr{base: b, value: NewString(n.Value)}, nil

	case types.NodeSequence:
		items, err := buildAll(n.Children)
		if err != nil {
			return nil, err
		}
		return &SequenceExpr{base: b, items: items}, nil
	case types.NodeContextItem:
		return &ContextItemExpr{base: b}, nil
	case types.NodeVarRef:
		return &VarRefExpr{base: b, name: n.Value}, nil
	case types.NodeLet:
		ops, err := operands(n, 2)
		if err != nil {
			return nil, err
		}
		name, _ := n.Attr(types.AttrName)
		return &LetExpr{base: b, name: name, binding: ops[0], ret: ops[1]}, nil
	case types.NodeFor:
		ops, err := operands(n, 2)
		if err != nil {
			return nil, err
		}
		name, _ := n.Attr(types.AttrName)
		at, _ := n.Attr(types.AttrAt)
		return &ForExpr{base: b, name: name, at: at, binding: ops[0], ret: ops[1]}, nil
	case types.NodeIf:
		ops, err := operands(n, 3)
		if err != nil {
			return nil, err
		}
		return &IfExpr{base: b, cond: ops[0], then: ops[1], els: ops[2]}, nil

	case types.NodeAnd, types.NodeOr:
		ops, err := buildAll(n.Children)
		if err != nil {
			return nil, err
		}
		return &LogicalExpr{base: b, and: n.Type == types.NodeAnd, operands: ops}, nil
	case types.NodeArithmetic, types.NodeValueCompare, types.NodeGeneralCompare, types.NodeRange:
		ops, err := operands(n, 2)
		if err != nil {
			return nil, err
		}
		switch n.Type {
		case types.NodeArithmetic:
			return &ArithmeticExpr{base: b, op: n.Value, lhs: ops[0], rhs: ops[1]}, nil
		case types.NodeValueCompare:
			return &ValueCompareExpr{base: b, op: n.Value, lhs: ops[0], rhs: ops[1]}, nil
		case types.NodeGeneralCompare:
			return &GeneralCompareExpr{base: b, op: n.Value, lhs: ops[0], rhs: ops[1]}, nil
		}
		return &RangeExpr{base: b, lhs: ops[0], rhs: ops[1]}, nil
	case types.NodeUnaryMinus, types.NodeUnaryPlus:
		ops, err := operands(n, 1)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{base: b, minus: n.Type == types.NodeUnaryMinus, operand: ops[0]}, nil
	case types.NodeStringConcat:
		ops, err := buildAll(n.Children)
		if err != nil {
			return nil, err
		}
		return &FunctionCall{base: b, name: "Q{" + types.NamespaceFn + "}concat", args: ops}, nil

	case types.NodePath:
		steps, err := buildAll(n.Children)
		if err != nil {
			return nil, err
		}
		if len(steps) == 0 {
			return nil, syntaxError(n, "empty path")
		}
		return &PathExpr{base: b, steps: steps}, nil
	case types.NodeStep:
		preds, err := buildAll(n.Children)
		if err != nil {
			return nil, err
		}
		axis, _ := n.Attr(types.AttrAxis)
		test, _ := n.Attr(types.AttrTest)
		return &StepExpr{base: b, axis: axis, testSource: test, predicates: preds}, nil
	case types.NodeRoot:
		return &RootExpr{base: b}, nil
	case types.NodeFilter:
		ops, err := buildAll(n.Children)
		if err != nil {
			return nil, err
		}
		if len(ops) == 0 {
			return nil, syntaxError(n, "missing filtered expression")
		}
		return &FilterExpr{base: b, primary: ops[0], predicates: ops[1:]}, nil

	case types.NodeFunctionCall:
		args, err := buildArguments(n.Children)
		if err != nil {
			return nil, err
		}
		return &FunctionCall{base: b, name: n.Value, args: args}, nil
	case types.NodeDynamicCall:
		if len(n.Children) == 0 {
			return nil, syntaxError(n, "missing function operand")
		}
		callee, err := Build(n.Children[0])
		if err != nil {
			return nil, err
		}
		args, err := buildArguments(n.Children[1:])
		if err != nil {
			return nil, err
		}
		return &DynamicCall{base: b, callee: callee, args: args}, nil
	case types.NodeNamedFunctionRef:
		a, _ := n.Attr(types.AttrArity)
		arity, err := strconv.Atoi(a)
		if err != nil || arity < 0 {
			return nil, syntaxError(n, fmt.Sprintf("invalid arity %q", a))
		}
		return &NamedFunctionRef{base: b, name: n.Value, arity: arity}, nil
	case types.NodeInlineFunction:
		return buildInlineFunction(b, n)

	case types.NodeMap:
		m := &MapConstructor{base: b}
		for _, c := range n.Children {
			if c == nil || c.Type != types.NodeMapEntry || len(c.Children) != 2 {
				return nil, syntaxError(n, "map constructor entries must be key/value pairs")
			}
			kv, err := buildAll(c.Children)
			if err != nil {
				return nil, err
			}
			m.entries = append(m.entries, mapEntryExpr{key: kv[0], value: kv[1]})
		}
		return m, nil
	case types.NodeSquareArray:
		members, err := buildAll(n.Children)
		if err != nil {
			return nil, err
		}
		return &SquareArrayConstructor{base: b, members: members}, nil
	case types.NodeCurlyArray:
		members, err := buildAll(n.Children)
		if err != nil {
			return nil, err
		}
		c := &CurlyArrayConstructor{base: b}
		if len(members) == 1 {
			c.content = members[0]
		}
		return c, nil

	case types.NodeCastAs, types.NodeCastableAs, types.NodeInstanceOf, types.NodeTreatAs:
		ops, err := operands(n, 1)
		if err != nil {
			return nil, err
		}
		t, _ := n.Attr(types.AttrType)
		decl, err := types.ParseTypeDeclaration(t)
		if err != nil {
			return nil, withPosition(err, n.Position)
		}
		switch n.Type {
		case types.NodeCastAs, types.NodeCastableAs:
			return &CastExpr{base: b, operand: ops[0], target: decl, castable: n.Type == types.NodeCastableAs}, nil
		case types.NodeInstanceOf:
			return &InstanceOfExpr{base: b, operand: ops[0], decl: decl}, nil
		}
		return &TreatAsExpr{base: b, operand: ops[0], decl: decl}, nil

	case types.NodeDelete:
		ops, err := operands(n, 1)
		if err != nil {
			return nil, err
		}
		return &DeleteExpr{base: b, target: ops[0]}, nil
	}
	return nil, syntaxError(n, fmt.Sprintf("unsupported node type %q", n.Type))
}

func syntaxError(n *types.ASTNode, msg string) error {
	return types.NewError(types.ErrSyntax, string(n.Type)+": "+msg, n.Position)
}

func literal(b base, lexical string, t types.ValueType) (Expression, error) {
	v, err := parseLexical(lexical, t)
	if err != nil {
		return nil, withPosition(err, b.position)
	}
	return &LiteralExpr{base: b, value: v}, nil
}

func buildAll(nodes []*types.ASTNode) ([]Expression, error) {
	out := make([]Expression, len(nodes))
	for i, c := range nodes {
		e, err := Build(c)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// operands builds exactly count children.
func operands(n *types.ASTNode, count int) ([]Expression, error) {
	if len(n.Children) != count {
		return nil, syntaxError(n, fmt.Sprintf("expected %d operands, got %d", count, len(n.Children)))
	}
	return buildAll(n.Children)
}

// buildArguments builds call arguments, leaving placeholders nil.
func buildArguments(nodes []*types.ASTNode) ([]Expression, error) {
	out := make([]Expression, len(nodes))
	for i, c := range nodes {
		if c != nil && c.Type == types.NodeArgumentPlaceholder {
			continue
		}
		e, err := Build(c)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func buildInlineFunction(b base, n *types.ASTNode) (Expression, error) {
	if len(n.Children) == 0 {
		return nil, syntaxError(n, "missing function body")
	}
	f := &InlineFunction{base: b, returnType: types.AnyItems}
	if rt, ok := n.Attr(types.AttrReturnType); ok {
		decl, err := types.ParseTypeDeclaration(rt)
		if err != nil {
			return nil, withPosition(err, n.Position)
		}
		f.returnType = decl
	}
	last := len(n.Children) - 1
	for _, p := range n.Children[:last] {
		if p == nil || p.Type != types.NodeParam {
			return nil, syntaxError(n, "inline function parameters must be param nodes")
		}
		decl := types.AnyItems
		if t, ok := p.Attr(types.AttrType); ok {
			d, err := types.ParseTypeDeclaration(t)
			if err != nil {
				return nil, withPosition(err, p.Position)
			}
			decl = d
		}
		f.params = append(f.params, inlineParam{name: p.Value, decl: decl})
	}
	body, err := Build(n.Children[last])
	if err != nil {
		return nil, err
	}
	f.body = body
	return f, nil
}
