package evaluator

import (
	"context"
	"strings"
	"testing"

	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

func TestLiteralsAndOperators(t *testing.T) {
	tests := []struct {
		name string
		expr *types.ASTNode
		want []string
	}{
		{"integer", types.Int(42), []string{"42"}},
		{"decimal", dec("1.50"), []string{"1.5"}},
		{"double", types.Dbl(1e7), []string{"1.0E7"}},
		{"sequence", types.Seq(types.Int(1), types.Str("a"), types.Seq()), []string{"1", "a"}},
		{"empty", types.Seq(), nil},
		{"add", arith("+", types.Int(1), types.Int(2)), []string{"3"}},
		{"div integers", arith("div", types.Int(1), types.Int(4)), []string{"0.25"}},
		{"idiv", arith("idiv", types.Int(7), types.Int(2)), []string{"3"}},
		{"mod", arith("mod", types.Int(7), types.Int(2)), []string{"1"}},
		{"decimal plus integer", arith("+", dec("1.5"), types.Int(1)), []string{"2.5"}},
		{"arithmetic on empty", arith("+", types.Seq(), types.Int(1)), nil},
		{"unary minus", node(types.NodeUnaryMinus, "", types.Int(5)), []string{"-5"}},
		{"range", rangeTo(2, 4), []string{"2", "3", "4"}},
		{"empty range", rangeTo(4, 2), nil},
		{"value compare", vcmp("lt", types.Int(1), types.Dbl(1.5)), []string{"true"}},
		{"value compare empty", vcmp("eq", types.Seq(), types.Int(1)), nil},
		{"general compare", gcmp("=", types.Seq(types.Int(1), types.Int(2), types.Int(3)), types.Int(3)), []string{"true"}},
		{"general compare none", gcmp("=", types.Seq(types.Int(1), types.Int(2)), types.Seq()), []string{"false"}},
		{"and", node(types.NodeAnd, "", types.Int(1), types.Str("")), []string{"false"}},
		{"or", node(types.NodeOr, "", types.Seq(), types.Str("x")), []string{"true"}},
		{"string concat", node(types.NodeStringConcat, "", types.Str("a"), types.Int(1), types.Seq()), []string{"a1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValues(t, tt.expr, tt.want)
		})
	}
}

func TestOperatorErrors(t *testing.T) {
	tests := []struct {
		name string
		expr *types.ASTNode
		want types.ErrorCode
	}{
		{"division by zero", arith("idiv", types.Int(1), types.Int(0)), types.ErrDivisionByZero},
		{"string operand", arith("+", types.Str("a"), types.Int(1)), types.ErrType},
		{"value compare sequence", vcmp("eq", types.Seq(types.Int(1), types.Int(2)), types.Int(1)), types.ErrType},
		{"incomparable", vcmp("eq", types.Str("1"), types.Int(1)), types.ErrType},
		{"ebv of two numbers", ifThen(types.Seq(types.Int(1), types.Int(2)), types.Int(1), types.Int(2)), types.ErrInvalidBooleanValue},
		{"undefined variable", types.Var("nope"), types.ErrUndefinedVariable},
		{"unbound prefix", types.Call("nope:f"), types.ErrUnresolvedPrefix},
		{"absent context", ctxItem(), types.ErrAbsentContext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectCode(t, tt.expr, tt.want)
		})
	}
}

func TestBindings(t *testing.T) {
	tests := []struct {
		name string
		expr *types.ASTNode
		want []string
	}{
		{"let", let("x", types.Int(20), arith("+", types.Var("x"), types.Var("x"))), []string{"40"}},
		{"nested let shadows", let("x", types.Int(1), let("x", types.Int(2), types.Var("x"))), []string{"2"}},
		{"for", forIn("x", rangeTo(1, 3), arith("*", types.Var("x"), types.Int(2))), []string{"2", "4", "6"}},
		{"for at", forIn("x", types.Seq(types.Str("a"), types.Str("b")),
			node(types.NodeStringConcat, "", types.Var("i"), types.Var("x"))).WithAttr(types.AttrAt, "i"),
			[]string{"1a", "2b"}},
		{"if then", ifThen(types.Str("yes"), types.Int(1), types.Int(2)), []string{"1"}},
		{"if else", ifThen(types.Seq(), types.Int(1), types.Int(2)), []string{"2"}},
		{"binding read twice", let("s", rangeTo(1, 3),
			types.Seq(types.Call("fn:count", types.Var("s")), types.Call("fn:sum", types.Var("s")))),
			[]string{"3", "6"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValues(t, tt.expr, tt.want)
		})
	}
}

func TestFilterPredicates(t *testing.T) {
	tests := []struct {
		name string
		expr *types.ASTNode
		want []string
	}{
		{"numeric", filter(rangeTo(10, 15), types.Int(2)), []string{"11"}},
		{"boolean", filter(rangeTo(1, 6), vcmp("eq", arith("mod", ctxItem(), types.Int(2)), types.Int(0))),
			[]string{"2", "4", "6"}},
		{"last", filter(rangeTo(1, 4), vcmp("eq", types.Call("fn:position"), types.Call("fn:last"))), []string{"4"}},
		{"chained", filter(rangeTo(1, 10), gcmp(">", ctxItem(), types.Int(5)), types.Int(1)), []string{"6"}},
		{"out of range", filter(rangeTo(1, 3), types.Int(9)), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValues(t, tt.expr, tt.want)
		})
	}
}

const library = `<lib><book id="1"><title>A</title><year>2001</year></book>` +
	`<book id="2"><title>B</title><year>1999</year></book><!--end--></lib>`

func TestPaths(t *testing.T) {
	_, opts := testDocument(t, library)
	tests := []struct {
		name string
		expr *types.ASTNode
		want []string
	}{
		{"child steps", pathOf(rootStep(), step("child", "lib"), step("child", "book"), step("child", "title")), []string{"A", "B"}},
		{"positional predicate", pathOf(rootStep(), step("child", "lib"), step("child", "book", types.Int(2)), step("child", "title")), []string{"B"}},
		{"attribute", pathOf(rootStep(), step("descendant", "book"), step("attribute", "id")), []string{"1", "2"}},
		{"attribute predicate", pathOf(rootStep(), step("descendant", "book",
			gcmp("=", step("attribute", "id"), types.Str("2"))), step("child", "year")), []string{"1999"}},
		{"wildcard", types.Call("fn:count", pathOf(rootStep(), step("descendant", "*"))), []string{"7"}},
		{"comment", pathOf(rootStep(), step("child", "lib"), step("child", "comment()")), []string{"end"}},
		{"parent", pathOf(rootStep(), step("descendant", "title"), step("parent", "node()"), step("child", "year")), []string{"2001", "1999"}},
		{"ancestor nearest first", pathOf(rootStep(), step("descendant", "title"), step("ancestor", "*", types.Int(1)), step("attribute", "id")), []string{"1", "2"}},
		{"preceding sibling", pathOf(rootStep(), step("descendant", "year"), step("preceding-sibling", "*")), []string{"A", "B"}},
		{"following sibling", pathOf(rootStep(), step("descendant", "book", types.Int(1)), step("following-sibling", "book"), step("child", "title")), []string{"B"}},
		{"duplicates removed", types.Call("fn:count", pathOf(rootStep(), step("descendant", "title"), step("ancestor", "lib"))), []string{"1"}},
		{"atomic last step", pathOf(rootStep(), step("descendant", "year"), arith("+", types.Call("fn:number"), types.Int(1))), []string{"2002", "2000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValues(t, tt.expr, tt.want, opts...)
		})
	}
}

func TestReverseAxisOrder(t *testing.T) {
	_, opts := testDocument(t, `<a><b><c>x</c></b><d>1</d><e>2</e></a>`)
	focus := func(name string) EvaluateOption {
		values := mustRun(t, pathOf(rootStep(), step("descendant", name)), opts...)
		if len(values) != 1 {
			t.Fatalf("found %d %s elements, want 1", len(values), name)
		}
		return WithContextItem(values[0])
	}
	onC, onE := focus("c"), focus("e")

	tests := []struct {
		name  string
		expr  *types.ASTNode
		focus EvaluateOption
		want  []string
	}{
		{"ancestor", step("ancestor", "*"), onC, []string{"x12", "x"}},
		{"ancestor-or-self", step("ancestor-or-self", "*"), onC, []string{"x12", "x", "x"}},
		{"preceding-sibling", step("preceding-sibling", "*"), onE, []string{"x", "1"}},
		{"ancestor predicate nearest", step("ancestor", "*", types.Int(1)), onC, []string{"x"}},
		{"preceding-sibling predicate nearest", step("preceding-sibling", "*", types.Int(1)), onE, []string{"1"}},
		{"filter over reverse step", filter(step("ancestor", "*"), types.Int(1)), onC, []string{"x12"}},
		{"path ending in reverse step", pathOf(ctxItem(), step("preceding-sibling", "*")), onE, []string{"x", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValues(t, tt.expr, tt.want, append(opts, tt.focus)...)
		})
	}
}

func TestPathErrors(t *testing.T) {
	_, opts := testDocument(t, library)
	tests := []struct {
		name string
		expr *types.ASTNode
		want types.ErrorCode
		opts []EvaluateOption
	}{
		{"step on atomic", pathOf(types.Int(1), step("child", "a")), types.ErrPathStepNotNode, opts},
		{"axis without context", step("child", "a"), types.ErrAbsentContext, nil},
		{"axis on atomic", step("child", "a"), types.ErrAxisStepNotNode, []EvaluateOption{WithContextItem(NewInteger(1))}},
		{"mixed results", pathOf(rootStep(), step("descendant", "book"),
			ifThen(vcmp("eq", types.Call("fn:position"), types.Int(1)), ctxItem(), types.Int(1))), types.ErrMixedPathResult, opts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectCode(t, tt.expr, tt.want, tt.opts...)
		})
	}
}

func TestDeleteSchedulesUpdates(t *testing.T) {
	doc, opts := testDocument(t, library)
	updates := NewPendingUpdateList()
	expr := node(types.NodeDelete, "", pathOf(rootStep(), step("descendant", "book", types.Int(1))))

	c, err := compileTree(t, testEvaluator(), expr)
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsUpdating() {
		t.Error("delete should be updating")
	}
	values, err := c.EvaluateAll(context.Background(), append(opts, WithUpdates(updates))...)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 0 {
		t.Errorf("got %d values, want none", len(values))
	}
	if updates.Len() != 1 {
		t.Fatalf("got %d updates, want 1", updates.Len())
	}
	if err := updates.Apply(doc.Remove); err != nil {
		t.Fatal(err)
	}

	expectValues(t, pathOf(rootStep(), step("descendant", "title")), []string{"B"}, opts...)

	t.Run("empty target", func(t *testing.T) {
		list := NewPendingUpdateList()
		del := node(types.NodeDelete, "", pathOf(rootStep(), step("descendant", "missing")))
		expectValues(t, del, nil, append(opts, WithUpdates(list))...)
		if list.Len() != 0 {
			t.Errorf("got %d updates, want 0", list.Len())
		}
	})
	t.Run("atomic target", func(t *testing.T) {
		expectCode(t, node(types.NodeDelete, "", types.Int(1)), types.ErrType, WithUpdates(NewPendingUpdateList()))
	})
	t.Run("no update list", func(t *testing.T) {
		expectCode(t, expr, types.ErrUpdatingNotAllowed, opts...)
	})
	t.Run("updating operand", func(t *testing.T) {
		_, err := compileTree(t, testEvaluator(), types.Seq(types.Int(1), expr))
		if got := types.CodeOf(err); got != types.ErrUpdatingNotAllowed {
			t.Errorf("got %v, want XUST0001", err)
		}
	})
}

func TestTypeExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr *types.ASTNode
		want []string
	}{
		{"cast string to integer", typed(types.NodeCastAs, "xs:integer", types.Str(" 42 ")), []string{"42"}},
		{"cast double to string", typed(types.NodeCastAs, "xs:string", types.Dbl(2.5)), []string{"2.5"}},
		{"cast optional empty", typed(types.NodeCastAs, "xs:integer?", types.Seq()), nil},
		{"cast to boolean", typed(types.NodeCastAs, "xs:boolean", types.Str("1")), []string{"true"}},
		{"castable", typed(types.NodeCastableAs, "xs:integer", types.Str("abc")), []string{"false"}},
		{"castable date", typed(types.NodeCastableAs, "xs:date", types.Str("2024-02-29")), []string{"true"}},
		{"instance of subtype", typed(types.NodeInstanceOf, "xs:decimal", types.Int(1)), []string{"true"}},
		{"instance of multiplicity", typed(types.NodeInstanceOf, "xs:integer+", types.Seq()), []string{"false"}},
		{"instance of star", typed(types.NodeInstanceOf, "xs:integer*", rangeTo(1, 3)), []string{"true"}},
		{"instance of function", typed(types.NodeInstanceOf, "function(*)", mapCons()), []string{"true"}},
		{"treat as", typed(types.NodeTreatAs, "xs:decimal", types.Int(3)), []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValues(t, tt.expr, tt.want)
		})
	}

	errs := []struct {
		name string
		expr *types.ASTNode
		want types.ErrorCode
	}{
		{"invalid lexical", typed(types.NodeCastAs, "xs:integer", types.Str("abc")), types.ErrInvalidCastValue},
		{"cast empty", typed(types.NodeCastAs, "xs:integer", types.Seq()), types.ErrType},
		{"treat mismatch", typed(types.NodeTreatAs, "xs:string", types.Int(1)), types.ErrTreatAsMismatch},
		{"out of range", typed(types.NodeCastAs, "xs:byte", types.Int(300)), types.ErrInvalidCastValue},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			expectCode(t, tt.expr, tt.want)
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		expr *types.ASTNode
		want []string
	}{
		{"map size", types.Call("map:size", mapCons(types.Str("a"), types.Int(1), types.Str("b"), types.Int(2))), []string{"2"}},
		{"map lookup", types.Call("map:get", mapCons(types.Int(1), types.Str("x")), types.Dbl(1)), []string{"x"}},
		{"array size", types.Call("array:size", array(types.Seq(types.Int(1), types.Int(2)), types.Seq())), []string{"2"}},
		{"curly array", types.Call("array:size", node(types.NodeCurlyArray, "", rangeTo(1, 5))), []string{"5"}},
		{"empty curly array", types.Call("array:size", node(types.NodeCurlyArray, "")), []string{"0"}},
		{"map as function", dynCall(mapCons(types.Str("k"), types.Str("v")), types.Str("k")), []string{"v"}},
		{"array as function", dynCall(array(types.Str("a"), types.Str("b")), types.Int(2)), []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValues(t, tt.expr, tt.want)
		})
	}

	t.Run("duplicate key", func(t *testing.T) {
		expectCode(t, mapCons(types.Str("a"), types.Int(1), types.Str("a"), types.Int(2)), types.ErrDuplicateMapKey)
	})
	t.Run("duplicate numeric key", func(t *testing.T) {
		expectCode(t, mapCons(types.Int(1), types.Int(1), types.Dbl(1), types.Int(2)), types.ErrDuplicateMapKey)
	})
}

// Scenarios shared with other implementations of the evaluation core.
func TestScenarios(t *testing.T) {
	abc := array(types.Str("a"), types.Str("b"), types.Str("c"))

	t.Run("array get", func(t *testing.T) {
		expectValues(t, types.Call("array:get", abc, types.Int(2)), []string{"b"})
		expectCode(t, types.Call("array:get", abc, types.Int(0)), types.ErrArrayIndexOutOfBounds)
		expectCode(t, types.Call("array:get", abc, types.Int(4)), types.ErrArrayIndexOutOfBounds)
	})

	t.Run("substring", func(t *testing.T) {
		expectValues(t, types.Call("fn:substring", types.Str("motor car"), types.Int(6)), []string{" car"})
		expectValues(t, types.Call("fn:substring", types.Str("metadata"), types.Int(4), types.Int(3)), []string{"ada"})
		expectValues(t, types.Call("fn:substring", types.Str("12345"), types.Dbl(1.5), types.Dbl(2.6)), []string{"234"})
	})

	t.Run("map put replaces", func(t *testing.T) {
		m := types.Call("map:put", mapCons(types.Str("a"), types.Int(1)), types.Str("a"), types.Int(2))
		expectValues(t, types.Call("map:size", m), []string{"1"})
		expectValues(t, types.Call("map:get", m, types.Str("a")), []string{"2"})
	})

	t.Run("number coercion", func(t *testing.T) {
		expectValues(t, types.Call("fn:number", types.Seq()), []string{"NaN"})
		expectValues(t, types.Call("fn:number", types.Str("abc")), []string{"NaN"})
		expectValues(t, types.Call("fn:number", types.Str("12")), []string{"12"})
	})

	t.Run("deep equal across numeric types", func(t *testing.T) {
		lhs := array(types.Int(1), mapCons(types.Str("k"), types.Int(1)))
		rhs := array(types.Dbl(1), mapCons(types.Str("k"), types.Dbl(1)))
		expectValues(t, types.Call("fn:deep-equal", lhs, rhs), []string{"true"})
		expectValues(t, types.Call("fn:deep-equal", lhs, array(types.Int(2), mapCons())), []string{"false"})
	})

	t.Run("arity mismatch", func(t *testing.T) {
		pair := WithCustomFunction("pair", "(item()*, item()*) as item()*",
			func(_ context.Context, args ...[]Value) ([]Value, error) {
				return append(args[0], args[1]...), nil
			})
		ev := testEvaluator(pair)

		_, err := runWith(t, ev, types.Call("ext:pair", types.Int(1), types.Int(2), types.Int(3)))
		if got := types.CodeOf(err); got != types.ErrUnknownFunction {
			t.Fatalf("static call: got %v, want XPST0017", err)
		}
		if msg := err.Error(); !strings.Contains(msg, "expected 2 arguments, got 3") {
			t.Errorf("static call: message %q does not name both arities", msg)
		}

		_, err = runWith(t, ev, dynCall(funcRef("ext:pair", 2), types.Int(1), types.Int(2), types.Int(3)))
		if got := types.CodeOf(err); got != types.ErrType {
			t.Fatalf("dynamic call: got %v, want XPTY0004", err)
		}
		if msg := err.Error(); !strings.Contains(msg, "expected 2 arguments, got 3") {
			t.Errorf("dynamic call: message %q does not name both arities", msg)
		}
	})
}

func TestStaticPassOnce(t *testing.T) {
	e, err := Build(types.Int(1))
	if err != nil {
		t.Fatal(err)
	}
	sc := NewStaticContext(nil)
	if err := e.PerformStaticEvaluation(sc); err != nil {
		t.Fatal(err)
	}
	if err := e.PerformStaticEvaluation(sc); err != ErrAlreadyBound {
		t.Errorf("got %v, want ErrAlreadyBound", err)
	}
}

func TestNodeValueAtomization(t *testing.T) {
	doc, opts := testDocument(t, library)
	el, ok := doc.DocumentElement()
	if !ok {
		t.Fatal("no document element")
	}
	v := NewNodeValue(el, tree.ElementKind)
	if v.Type() != types.TypeElement {
		t.Errorf("got %v, want element()", v.Type())
	}
	expectValues(t, types.Call("fn:string-length", types.Call("fn:string", pathOf(rootStep(), step("child", "lib")))), []string{"10"}, opts...)
	expectValues(t, arith("+", pathOf(rootStep(), step("descendant", "book", types.Int(1)), step("child", "year")), types.Int(1)), []string{"2002"}, opts...)
}
