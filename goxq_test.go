package goxq_test

import (
	"context"
	"testing"

	"github.com/sandrolain/goxq"
	"github.com/sandrolain/goxq/pkg/evaluator"
	"github.com/sandrolain/goxq/pkg/parser"
	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

func encode(t *testing.T, n *types.ASTNode) []byte {
	t.Helper()
	src, err := parser.Encode(n)
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func rendered(values []evaluator.Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if n, ok := v.(evaluator.NodeValue); ok {
			out[i] = tree.StringValue(tree.XMLFacade{}, n.Pointer())
			continue
		}
		out[i] = v.String()
	}
	return out
}

func equal(a, b []string) bool {
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

func TestEvaluate(t *testing.T) {
	src := encode(t, types.Call("fn:concat", types.Str("a"), types.Int(1)))
	values, err := goxq.Evaluate(src, goxq.Input{})
	if err != nil {
		t.Fatal(err)
	}
	if got := rendered(values); !equal(got, []string{"a1"}) {
		t.Errorf("got %q, want [a1]", got)
	}

	if _, err := goxq.Evaluate([]byte(`{"type":`), goxq.Input{}); types.CodeOf(err) != types.ErrSyntax {
		t.Errorf("got %v, want XPST0003", err)
	}
}

func TestEvaluateVariables(t *testing.T) {
	src := encode(t, types.NewASTNode(types.NodeStringConcat, "", types.Var("greeting"), types.Str(", "), types.Var("name")))
	in := goxq.Input{Variables: map[string][]evaluator.Value{
		"greeting": {evaluator.NewString("Hello")},
		"name":     {evaluator.NewString("World")},
	}}
	values, err := goxq.Evaluate(src, in)
	if err != nil {
		t.Fatal(err)
	}
	if got := rendered(values); !equal(got, []string{"Hello, World"}) {
		t.Errorf("got %q, want [Hello, World]", got)
	}

	if _, err := goxq.Evaluate(src, goxq.Input{}); types.CodeOf(err) != types.ErrUndefinedVariable {
		t.Errorf("got %v, want XPST0008", err)
	}
}

func TestDocument(t *testing.T) {
	doc, err := tree.ParseString(`<order><item price="2.5"/><item price="4"/></order>`)
	if err != nil {
		t.Fatal(err)
	}
	total := types.Call("fn:sum", types.NewASTNode(types.NodePath, "",
		types.NewASTNode(types.NodeStep, "").WithAttr(types.AttrAxis, "descendant").WithAttr(types.AttrTest, "item"),
		types.NewASTNode(types.NodeStep, "").WithAttr(types.AttrAxis, "attribute").WithAttr(types.AttrTest, "price")))

	values, err := goxq.EvaluateWithContext(context.Background(), encode(t, total), goxq.Document(doc))
	if err != nil {
		t.Fatal(err)
	}
	if got := rendered(values); !equal(got, []string{"6.5"}) {
		t.Errorf("got %q, want [6.5]", got)
	}
}

func TestUpdates(t *testing.T) {
	doc, err := tree.ParseString(`<list><a/><b/><a/></list>`)
	if err != nil {
		t.Fatal(err)
	}
	del := types.NewASTNode(types.NodeDelete, "", types.NewASTNode(types.NodePath, "",
		types.NewASTNode(types.NodeStep, "").WithAttr(types.AttrAxis, "descendant").WithAttr(types.AttrTest, "a")))

	in := goxq.Document(doc)
	in.Updates = evaluator.NewPendingUpdateList()
	if _, err := goxq.Evaluate(encode(t, del), in); err != nil {
		t.Fatal(err)
	}
	if in.Updates.Len() != 2 {
		t.Fatalf("got %d pending deletes, want 2", in.Updates.Len())
	}
	if err := in.Updates.Apply(doc.Remove); err != nil {
		t.Fatal(err)
	}
	el, _ := doc.DocumentElement()
	if n := len(tree.XMLFacade{}.Children(el)); n != 1 {
		t.Errorf("got %d children after delete, want 1", n)
	}
}

func TestCompile(t *testing.T) {
	compiled := goxq.MustCompile(encode(t, types.NewASTNode(types.NodeArithmetic, "*",
		types.NewASTNode(types.NodeContextItem, ""), types.Int(3))))
	for _, tt := range []struct {
		in   int64
		want string
	}{{1, "3"}, {14, "42"}} {
		values, err := compiled.EvaluateAll(context.Background(), evaluator.WithContextItem(evaluator.NewInteger(tt.in)))
		if err != nil {
			t.Fatal(err)
		}
		if got := rendered(values); !equal(got, []string{tt.want}) {
			t.Errorf("got %q, want %s", got, tt.want)
		}
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	goxq.MustCompile(encode(t, types.Call("fn:undefined-function")))
}

func TestVersion(t *testing.T) {
	if goxq.Version() == "" {
		t.Error("empty version")
	}
}
