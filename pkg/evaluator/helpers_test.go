package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/sandrolain/goxq/pkg/parser"
	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

// fixedNow is the clock of every test evaluator.
var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func testEvaluator(opts ...EvalOption) *Evaluator {
	base := []EvalOption{
		WithClock(func() time.Time { return fixedNow }),
		WithTimezone(time.UTC),
	}
	return New(append(base, opts...)...)
}

func compileTree(t testing.TB, ev *Evaluator, n *types.ASTNode, opts ...CompileOption) (*Compiled, error) {
	t.Helper()
	expr, err := parser.FromAST(n)
	if err != nil {
		t.Fatalf("FromAST(%v): %v", n, err)
	}
	return ev.Compile(expr, opts...)
}

// run compiles and evaluates n with a fresh evaluator.
func run(t *testing.T, n *types.ASTNode, opts ...EvaluateOption) ([]Value, error) {
	t.Helper()
	return runWith(t, testEvaluator(), n, opts...)
}

func runWith(t *testing.T, ev *Evaluator, n *types.ASTNode, opts ...EvaluateOption) ([]Value, error) {
	t.Helper()
	c, err := compileTree(t, ev, n)
	if err != nil {
		return nil, err
	}
	return c.EvaluateAll(context.Background(), opts...)
}

func mustRun(t *testing.T, n *types.ASTNode, opts ...EvaluateOption) []Value {
	t.Helper()
	values, err := run(t, n, opts...)
	if err != nil {
		t.Fatalf("evaluate %v: %v", n, err)
	}
	return values
}

// render gives the string value of every item; nodes use their string
// value in the XML tree.
func render(values []Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if n, ok := v.(NodeValue); ok {
			out[i] = tree.StringValue(tree.XMLFacade{}, n.Pointer())
			continue
		}
		out[i] = v.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// expectValues evaluates n and compares the rendered items.
func expectValues(t *testing.T, n *types.ASTNode, want []string, opts ...EvaluateOption) {
	t.Helper()
	values, err := run(t, n, opts...)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := render(values); !equalStrings(got, want) {
		t.Errorf("got %q, want %q\n%s", got, want, spew.Sdump(values))
	}
}

// expectCode evaluates n and checks the error code.
func expectCode(t *testing.T, n *types.ASTNode, want types.ErrorCode, opts ...EvaluateOption) {
	t.Helper()
	values, err := run(t, n, opts...)
	if got := types.CodeOf(err); got != want {
		t.Errorf("got error %v (values %q), want %s", err, render(values), want)
	}
}

// AST shorthands.

func node(typ types.NodeType, value string, children ...*types.ASTNode) *types.ASTNode {
	return types.NewASTNode(typ, value, children...)
}

func dec(lexical string) *types.ASTNode { return node(types.NodeDecimalLiteral, lexical) }

func arith(op string, a, b *types.ASTNode) *types.ASTNode {
	return node(types.NodeArithmetic, op, a, b)
}

func vcmp(op string, a, b *types.ASTNode) *types.ASTNode {
	return node(types.NodeValueCompare, op, a, b)
}

func gcmp(op string, a, b *types.ASTNode) *types.ASTNode {
	return node(types.NodeGeneralCompare, op, a, b)
}

func let(name string, binding, ret *types.ASTNode) *types.ASTNode {
	return node(types.NodeLet, "", binding, ret).WithAttr(types.AttrName, name)
}

func forIn(name string, binding, ret *types.ASTNode) *types.ASTNode {
	return node(types.NodeFor, "", binding, ret).WithAttr(types.AttrName, name)
}

func ifThen(cond, then, els *types.ASTNode) *types.ASTNode {
	return node(types.NodeIf, "", cond, then, els)
}

func rangeTo(a, b int64) *types.ASTNode {
	return node(types.NodeRange, "", types.Int(a), types.Int(b))
}

func step(axis, test string, predicates ...*types.ASTNode) *types.ASTNode {
	return node(types.NodeStep, "", predicates...).
		WithAttr(types.AttrAxis, axis).
		WithAttr(types.AttrTest, test)
}

func pathOf(steps ...*types.ASTNode) *types.ASTNode {
	return node(types.NodePath, "", steps...)
}

func rootStep() *types.ASTNode { return node(types.NodeRoot, "") }

func ctxItem() *types.ASTNode { return node(types.NodeContextItem, "") }

func filter(primary *types.ASTNode, predicates ...*types.ASTNode) *types.ASTNode {
	return node(types.NodeFilter, "", append([]*types.ASTNode{primary}, predicates...)...)
}

func param(name, typ string) *types.ASTNode {
	p := node(types.NodeParam, name)
	if typ != "" {
		p.WithAttr(types.AttrType, typ)
	}
	return p
}

func inline(returnType string, body *types.ASTNode, params ...*types.ASTNode) *types.ASTNode {
	n := node(types.NodeInlineFunction, "", append(params, body)...)
	if returnType != "" {
		n.WithAttr(types.AttrReturnType, returnType)
	}
	return n
}

func dynCall(callee *types.ASTNode, args ...*types.ASTNode) *types.ASTNode {
	return node(types.NodeDynamicCall, "", append([]*types.ASTNode{callee}, args...)...)
}

func funcRef(name string, arity int) *types.ASTNode {
	return node(types.NodeNamedFunctionRef, name).WithAttr(types.AttrArity, itoa(arity))
}

func itoa(i int) string {
	return types.Int(int64(i)).Value
}

func mapCons(kv ...*types.ASTNode) *types.ASTNode {
	m := node(types.NodeMap, "")
	for i := 0; i+1 < len(kv); i += 2 {
		m.Children = append(m.Children, node(types.NodeMapEntry, "", kv[i], kv[i+1]))
	}
	return m
}

func array(members ...*types.ASTNode) *types.ASTNode {
	return node(types.NodeSquareArray, "", members...)
}

func typed(typ types.NodeType, decl string, operand *types.ASTNode) *types.ASTNode {
	return node(typ, "", operand).WithAttr(types.AttrType, decl)
}

// testDocument parses xml and returns the evaluate options focusing its
// document node.
func testDocument(t *testing.T, xml string) (*tree.Document, []EvaluateOption) {
	t.Helper()
	doc, err := tree.ParseString(xml)
	if err != nil {
		t.Fatalf("parse XML: %v", err)
	}
	return doc, []EvaluateOption{
		WithTree(tree.XMLFacade{}),
		WithContextItem(NewNodeValue(doc.Root(), tree.DocumentKind)),
	}
}
