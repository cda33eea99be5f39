package parser

import (
	"testing"
)

func FuzzParse(f *testing.F) {
	seeds := []string{
		`{"type":"integerLiteral","value":"1"}`,
		`{"type":"functionCall","value":"fn:count","children":[{"type":"sequence"}]}`,
		`{"type":"path","children":[{"type":"root"},{"type":"step","attributes":{"axis":"child","test":"a"}}]}`,
		`{"type":"let","attributes":{"name":"x"},"children":[{"type":"stringLiteral","value":"a"},{"type":"varRef","value":"x"}]}`,
		`{"type":"step"}`,
		`{"type":""}`,
		`{`,
		``,
		`[]`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		expr, err := Parse([]byte(input))
		if err != nil {
			return
		}
		if _, err := Encode(expr.AST()); err != nil {
			t.Errorf("Encode of a valid tree failed: %v", err)
		}
	})
}
