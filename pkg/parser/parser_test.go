package parser

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/sandrolain/goxq/pkg/types"
)

func TestParseJSON(t *testing.T) {
	src := `{"type":"functionCall","value":"fn:substring","children":[
		{"type":"stringLiteral","value":"motor car"},
		{"type":"integerLiteral","value":"6"}]}`
	expr, err := Parse([]byte(src), WithSource(`substring("motor car", 6)`))
	if err != nil {
		t.Fatal(err)
	}
	want := types.Call("fn:substring", types.Str("motor car"), types.Int(6))
	if diff := pretty.Compare(expr.AST(), want); diff != "" {
		t.Errorf("AST diff (-got +want):\n%s", diff)
	}
	if expr.String() != `substring("motor car", 6)` {
		t.Errorf("source = %q", expr.String())
	}
}

func TestParseYAML(t *testing.T) {
	src := `
type: let
attributes: {name: x}
children:
  - {type: integerLiteral, value: "1"}
  - type: arithmetic
    value: "+"
    children:
      - {type: varRef, value: x}
      - {type: integerLiteral, value: "2"}
`
	expr, err := ParseYAML([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if got := expr.AST().Child(1).Child(0).Value; got != "x" {
		t.Errorf("varRef = %q", got)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	tree := types.Call("fn:concat", types.Str("a"), types.Placeholder())
	data, err := Encode(tree)
	if err != nil {
		t.Fatal(err)
	}
	expr, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Compare(expr.AST(), tree); diff != "" {
		t.Errorf("diff (-got +want):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not json", `{`},
		{"unknown field", `{"type":"sequence","bogus":1}`},
		{"unknown type", `{"type":"lambda"}`},
		{"empty", `{}`},
		{"arity", `{"type":"if","children":[{"type":"contextItem"}]}`},
		{"operator", `{"type":"arithmetic","value":"**","children":[{"type":"contextItem"},{"type":"contextItem"}]}`},
		{"missing attr", `{"type":"let","children":[{"type":"contextItem"},{"type":"contextItem"}]}`},
		{"placeholder", `{"type":"sequence","children":[{"type":"argumentPlaceholder"}]}`},
		{"missing value", `{"type":"varRef"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if got := types.CodeOf(err); got != types.ErrSyntax {
				t.Errorf("got %v, want XPST0003", err)
			}
		})
	}
}

func TestMaxDepth(t *testing.T) {
	tree := types.Int(1)
	for i := 0; i < 10; i++ {
		tree = types.NewASTNode(types.NodeUnaryMinus, "", tree)
	}
	if _, err := FromAST(tree, WithMaxDepth(5)); types.CodeOf(err) != types.ErrSyntax {
		t.Errorf("expected depth error, got %v", err)
	}
	if _, err := FromAST(tree); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
