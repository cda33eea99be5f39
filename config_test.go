package goxq_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/spf13/afero"

	"github.com/sandrolain/goxq"
	"github.com/sandrolain/goxq/pkg/types"
)

const configYAML = `
debug: false
max_depth: 50
timeout: 2s
caching: true
cache_size: 16
timezone: Europe/Rome
namespaces:
  bk: http://example.com/books
resource_root: /srv/data
`

func TestLoadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/goxq.yaml", []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := goxq.LoadConfig(fs, "/etc/goxq.yaml")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		got, want any
	}{
		{"max depth", c.MaxDepth, 50},
		{"timeout", c.Timeout, 2 * time.Second},
		{"caching", c.Caching, true},
		{"cache size", c.CacheSize, 16},
		{"timezone", c.Timezone, "Europe/Rome"},
		{"namespace", c.Namespaces["bk"], "http://example.com/books"},
		{"resource root", c.ResourceRoot, "/srv/data"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if _, err := goxq.LoadConfig(fs, "/etc/missing.yaml"); err == nil {
		t.Error("expected an error for a missing file")
	}
	if err := afero.WriteFile(fs, "/etc/bad.yaml", []byte("max_depth: [1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := goxq.LoadConfig(fs, "/etc/bad.yaml"); err == nil {
		t.Error("expected an error for invalid YAML")
	}
}

func TestConfigOptions(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/goxq.yaml", []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/srv/data/note.txt", []byte("from the resource root"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := goxq.LoadConfig(fs, "/etc/goxq.yaml")
	if err != nil {
		t.Fatal(err)
	}
	opts, err := c.Options()
	if err != nil {
		t.Fatal(err)
	}

	t.Run("resource root", func(t *testing.T) {
		values, err := goxq.Evaluate(encode(t, types.Call("fn:unparsed-text", types.Str("/note.txt"))), goxq.Input{}, opts...)
		if err != nil {
			t.Fatal(err)
		}
		if got := rendered(values); !equal(got, []string{"from the resource root"}) {
			t.Errorf("got %q", got)
		}
	})

	t.Run("namespaces", func(t *testing.T) {
		_, err := goxq.Evaluate(encode(t, types.Call("bk:missing")), goxq.Input{}, opts...)
		if got := types.CodeOf(err); got != types.ErrUnknownFunction {
			t.Errorf("got %v, want XPST0017 for a bound prefix", err)
		}
	})

	t.Run("timezone", func(t *testing.T) {
		values, err := goxq.Evaluate(encode(t, types.Call("fn:implicit-timezone")), goxq.Input{}, opts...)
		if err != nil {
			t.Fatal(err)
		}
		if got := rendered(values); !equal(got, []string{"PT1H"}) && !equal(got, []string{"PT2H"}) {
			t.Errorf("got %q, want the Rome offset", got)
		}
	})

	t.Run("max depth", func(t *testing.T) {
		// let $f := function($f, $n) { $f($f, $n + 1) } return $f($f, 0)
		f := types.Var("f")
		body := types.NewASTNode(types.NodeDynamicCall, "", f, types.Var("f"),
			types.NewASTNode(types.NodeArithmetic, "+", types.Var("n"), types.Int(1)))
		fn := types.NewASTNode(types.NodeInlineFunction, "",
			types.NewASTNode(types.NodeParam, "f"), types.NewASTNode(types.NodeParam, "n"), body)
		expr := types.NewASTNode(types.NodeLet, "", fn,
			types.NewASTNode(types.NodeDynamicCall, "", types.Var("f"), types.Var("f"), types.Int(0))).
			WithAttr(types.AttrName, "f")
		_, err := goxq.Evaluate(encode(t, expr), goxq.Input{}, opts...)
		if got := types.CodeOf(err); got != types.ErrImplementationLimit {
			t.Errorf("got %v, want XPDY0130", err)
		}
	})

	t.Run("bad timezone", func(t *testing.T) {
		bad := &goxq.Config{Timezone: "Nowhere/Special"}
		if _, err := bad.Options(); err == nil {
			t.Error("expected an error for an unknown timezone")
		}
	})
}
