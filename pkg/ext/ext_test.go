package ext_test

import (
	"regexp"
	"testing"

	"github.com/sandrolain/goxq"
	"github.com/sandrolain/goxq/pkg/evaluator"
	"github.com/sandrolain/goxq/pkg/ext"
	"github.com/sandrolain/goxq/pkg/ext/extstring"
	"github.com/sandrolain/goxq/pkg/parser"
	"github.com/sandrolain/goxq/pkg/types"
)

func eval(t *testing.T, tree *types.ASTNode, opts ...goxq.EvalOption) ([]evaluator.Value, error) {
	t.Helper()
	src, err := parser.Encode(tree)
	if err != nil {
		t.Fatalf("Encode(%v) error: %v", tree, err)
	}
	return goxq.Evaluate(src, goxq.Input{}, opts...)
}

func evalString(t *testing.T, tree *types.ASTNode, opts ...goxq.EvalOption) string {
	t.Helper()
	values, err := eval(t, tree, opts...)
	if err != nil {
		t.Fatalf("Evaluate(%v) error: %v", tree, err)
	}
	if len(values) != 1 {
		t.Fatalf("Evaluate(%v) returned %d items, want 1", tree, len(values))
	}
	return values[0].String()
}

func mapOf(key, value string) *types.ASTNode {
	return types.NewASTNode(types.NodeMap, "",
		types.NewASTNode(types.NodeMapEntry, "", types.Str(key), types.Str(value)))
}

// ── WithAll ────────────────────────────────────────────────────────────────

func TestWithAll_StringFunctions(t *testing.T) {
	opt := ext.WithAll()

	tests := []struct {
		name string
		tree *types.ASTNode
		want string
	}{
		{"index-of", types.Call("ext:index-of-string", types.Str("abcabc"), types.Str("bc")), "2"},
		{"index-of from", types.Call("ext:index-of-string", types.Str("abcabc"), types.Str("bc"), types.Int(3)), "5"},
		{"index-of missing", types.Call("ext:index-of-string", types.Str("abc"), types.Str("x")), "0"},
		{"last-index-of", types.Call("ext:last-index-of", types.Str("abcabc"), types.Str("bc")), "5"},
		{"capitalize", types.Call("ext:capitalize", types.Str("hello world")), "Hello world"},
		{"title-case", types.Call("ext:title-case", types.Str("hello WORLD")), "Hello World"},
		{"camel-case", types.Call("ext:camel-case", types.Str("hello_world")), "helloWorld"},
		{"pascal-case", types.Call("ext:pascal-case", types.Str("hello_world")), "HelloWorld"},
		{"snake-case", types.Call("ext:snake-case", types.Str("helloWorld")), "hello_world"},
		{"kebab-case", types.Call("ext:kebab-case", types.Str("helloWorld")), "hello-world"},
		{"repeat", types.Call("ext:repeat", types.Str("ab"), types.Int(3)), "ababab"},
		{"template", types.Call("ext:template", types.Str("Hello, {name}!"), mapOf("name", "World")), "Hello, World!"},
		{"template unknown", types.Call("ext:template", types.Str("{x}"), mapOf("name", "World")), "{x}"},
		{"words", types.Call("fn:count", types.Call("ext:words", types.Str("  a b   c "))), "3"},
		{"empty input", types.Call("ext:snake-case", types.Seq()), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalString(t, tt.tree, opt); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithAll_CryptoFunctions(t *testing.T) {
	opt := ext.WithAll()

	tests := []struct {
		name string
		tree *types.ASTNode
		want string
	}{
		{"md5", types.Call("ext:hash", types.Str("abc"), types.Str("md5")), "900150983cd24fb0d6963f7d28e17f72"},
		{"sha256", types.Call("ext:hash", types.Str("abc"), types.Str("SHA256")), "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"hmac", types.Call("ext:hmac", types.Str("The quick brown fox jumps over the lazy dog"), types.Str("key"), types.Str("sha256")),
			"f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalString(t, tt.tree, opt); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("uuid", func(t *testing.T) {
		got := evalString(t, types.Call("ext:uuid"), opt)
		pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
		if !pattern.MatchString(got) {
			t.Errorf("got %q, want a version 4 UUID", got)
		}
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := eval(t, types.Call("ext:hash", types.Str("abc"), types.Str("crc32")), opt)
		if got := types.CodeOf(err); got != types.ErrInvalidOptionParameter {
			t.Errorf("got %v, want %s", err, types.ErrInvalidOptionParameter)
		}
	})
}

func TestRepeatLimits(t *testing.T) {
	tests := []struct {
		name  string
		count int64
		want  types.ErrorCode
	}{
		{"negative", -1, types.ErrInvalidCastValue},
		{"too long", 1 << 30, types.ErrImplementationLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval(t, types.Call("ext:repeat", types.Str("ab"), types.Int(tt.count)), ext.WithString())
			if got := types.CodeOf(err); got != tt.want {
				t.Errorf("got %v, want %s", err, tt.want)
			}
		})
	}
}

func TestCategoryOptions(t *testing.T) {
	// Crypto functions are not registered by WithString.
	_, err := eval(t, types.Call("ext:uuid"), ext.WithString())
	if got := types.CodeOf(err); got != types.ErrUnknownFunction {
		t.Errorf("got %v, want %s", err, types.ErrUnknownFunction)
	}

	got := evalString(t, types.Call("ext:uuid"), ext.WithCrypto())
	if len(got) != 36 {
		t.Errorf("got %q, want a UUID", got)
	}
}

func TestSingleFunction(t *testing.T) {
	opt := goxq.WithFunctions(extstring.SnakeCase())
	if got := evalString(t, types.Call("ext:snake-case", types.Str("XMLHttpRequest")), opt); got != "xml_http_request" {
		t.Errorf("got %q, want %q", got, "xml_http_request")
	}
	_, err := eval(t, types.Call("ext:kebab-case", types.Str("a")), opt)
	if err == nil {
		t.Error("expected an error for an unregistered function")
	}
}

func TestAllEntries(t *testing.T) {
	if got, want := len(ext.AllEntries()), len(ext.All()); got != want {
		t.Errorf("got %d entries, want %d", got, want)
	}
}
