package evaluator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

// usersXML builds a document with n user elements.
func usersXML(n int) string {
	departments := []string{"Engineering", "Sales", "Marketing", "HR", "Finance"}
	var b strings.Builder
	b.WriteString("<users>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<user id="%d" department="%s"><name>User%d</name><age>%d</age></user>`,
			i+1, departments[i%5], i+1, 20+i%40)
	}
	b.WriteString("</users>")
	return b.String()
}

// benchEvaluator is shared; compiled expressions are safe for concurrent use.
var benchEvaluator = New()

func benchCompiled(b *testing.B, n *types.ASTNode) *Compiled {
	b.Helper()
	c, err := compileTree(b, benchEvaluator, n)
	if err != nil {
		b.Fatal(err)
	}
	return c
}

func benchDocument(b *testing.B, users int) []EvaluateOption {
	b.Helper()
	doc, err := tree.ParseString(usersXML(users))
	if err != nil {
		b.Fatal(err)
	}
	return []EvaluateOption{
		WithTree(tree.XMLFacade{}),
		WithContextItem(NewNodeValue(doc.Root(), tree.DocumentKind)),
	}
}

func runBench(b *testing.B, c *Compiled, opts ...EvaluateOption) {
	b.Helper()
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.EvaluateAll(ctx, opts...); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvalArithmetic(b *testing.B) {
	runBench(b, benchCompiled(b, types.Call("fn:sum", forIn("x", rangeTo(1, 1000), arith("*", types.Var("x"), types.Int(2))))))
}

func BenchmarkEvalFirstItem(b *testing.B) {
	runBench(b, benchCompiled(b, types.Call("fn:head", rangeTo(1, 1000000))))
}

func BenchmarkEvalStringFunctions(b *testing.B) {
	runBench(b, benchCompiled(b, types.Call("fn:string-join",
		types.Call("fn:for-each", rangeTo(1, 200), funcRef("fn:string", 1)), types.Str(","))))
}

func BenchmarkEvalPath(b *testing.B) {
	for _, users := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("users=%d", users), func(b *testing.B) {
			opts := benchDocument(b, users)
			c := benchCompiled(b, types.Call("fn:count", pathOf(rootStep(), step("child", "users"),
				step("child", "user", gcmp("=", step("attribute", "department"), types.Str("Engineering"))))))
			runBench(b, c, opts...)
		})
	}
}

func BenchmarkEvalDescendants(b *testing.B) {
	opts := benchDocument(b, 1000)
	runBench(b, benchCompiled(b, types.Call("fn:avg", pathOf(rootStep(), step("descendant", "age")))), opts...)
}

func BenchmarkEvalParallel(b *testing.B) {
	opts := benchDocument(b, 100)
	c := benchCompiled(b, types.Call("fn:count", pathOf(rootStep(), step("descendant", "name"))))
	ctx := context.Background()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := c.EvaluateAll(ctx, opts...); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
