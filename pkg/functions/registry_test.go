package functions

import (
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/sandrolain/goxq/pkg/types"
)

func decls(ss ...string) []types.TypeDeclaration {
	out := make([]types.TypeDeclaration, len(ss))
	for i, s := range ss {
		out[i] = types.MustParseTypeDeclaration(s)
	}
	return out
}

func newTestRegistry(t *testing.T) *Registry[string] {
	t.Helper()
	r := New[string]()
	err := r.RegisterAll(
		Properties[string]{Namespace: types.NamespaceFn, Local: "contains", ArgumentTypes: decls("xs:string?", "xs:string?"), Impl: "contains#2"},
		Properties[string]{Namespace: types.NamespaceFn, Local: "substring", ArgumentTypes: decls("xs:string?", "xs:double"), Impl: "substring#2"},
		Properties[string]{Namespace: types.NamespaceFn, Local: "substring", ArgumentTypes: decls("xs:string?", "xs:double", "xs:double"), Impl: "substring#3"},
		Properties[string]{Namespace: types.NamespaceFn, Local: "concat", ArgumentTypes: decls("xs:anyAtomicType?", "xs:anyAtomicType?", "xs:anyAtomicType?"), Variadic: true, Impl: "concat"},
		Properties[string]{Namespace: types.NamespaceFn, Local: "count", ArgumentTypes: decls("item()*"), Impl: "count#1"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestGetFunctionByArity(t *testing.T) {
	r := newTestRegistry(t)
	tests := []struct {
		local string
		arity int
		want  string
	}{
		{"substring", 2, "substring#2"},
		{"substring", 3, "substring#3"},
		{"substring", 1, ""},
		{"substring", 4, ""},
		{"concat", 1, ""},
		{"concat", 2, "concat"},
		{"concat", 7, "concat"},
		{"contains", 3, ""},
		{"missing", 0, ""},
	}
	for _, tt := range tests {
		p, ok := r.GetFunctionByArity(types.NamespaceFn, tt.local, tt.arity)
		got := ""
		if ok {
			got = p.Impl
		}
		if got != tt.want {
			t.Errorf("GetFunctionByArity(%s, %d) = %q, want %q", tt.local, tt.arity, got, tt.want)
		}
	}
}

func TestArityNeverCrossesOverloads(t *testing.T) {
	r := newTestRegistry(t)
	for i := 0; i < 100; i++ {
		p, ok := r.GetFunctionByArity(types.NamespaceFn, "substring", 2)
		if !ok || len(p.ArgumentTypes) != 2 {
			t.Fatal("expected the 2-argument overload")
		}
	}
}

func TestVariadicArgumentType(t *testing.T) {
	r := newTestRegistry(t)
	p, _ := r.GetFunctionByArity(types.NamespaceFn, "concat", 5)
	if got := p.ArgumentType(4).String(); got != "xs:anyAtomicType?" {
		t.Errorf("ArgumentType(4) = %s", got)
	}
}

func TestRegisterReplacesSameArity(t *testing.T) {
	r := newTestRegistry(t)
	_ = r.Register(Properties[string]{Namespace: types.NamespaceFn, Local: "count", ArgumentTypes: decls("item()*"), Impl: "replaced"})
	p, _ := r.GetFunctionByArity(types.NamespaceFn, "count", 1)
	if p.Impl != "replaced" {
		t.Errorf("got %q, want replaced", p.Impl)
	}
	if got := r.Arities(types.NamespaceFn, "substring"); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("Arities = %v", got)
	}
}

func TestRegisterAllAggregatesErrors(t *testing.T) {
	r := New[string]()
	err := r.RegisterAll(
		Properties[string]{Namespace: types.NamespaceFn},
		Properties[string]{Namespace: types.NamespaceFn, Local: "v", Variadic: true},
	)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "2 errors occurred") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSuggest(t *testing.T) {
	r := newTestRegistry(t)
	if diff := pretty.Compare(r.Suggest("substrin"), []string{"fn:substring"}); diff != "" {
		t.Errorf("diff (-got +want):\n%s", diff)
	}
	if got := r.Suggest("xyz"); len(got) != 0 {
		t.Errorf("expected no suggestion, got %v", got)
	}
	if got := r.DidYouMean("cont"); got != " Did you mean fn:count?" {
		t.Errorf("DidYouMean = %q", got)
	}
}
