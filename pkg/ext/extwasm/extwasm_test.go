package extwasm_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/sandrolain/goxq/pkg/evaluator"
	"github.com/sandrolain/goxq/pkg/ext/extwasm"
	"github.com/sandrolain/goxq/pkg/parser"
	"github.com/sandrolain/goxq/pkg/types"
)

// addInts exports addInts(i64, i64) -> i64.
var addInts = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: (i64, i64) -> i64
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7e, 0x7e, 0x01, 0x7e,
	// function section
	0x03, 0x02, 0x01, 0x00,
	// export section: "addInts"
	0x07, 0x0b, 0x01, 0x07, 0x61, 0x64, 0x64, 0x49, 0x6e, 0x74, 0x73, 0x00, 0x00,
	// code section: local.get 0, local.get 1, i64.add
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x7c, 0x0b,
}

func evaluate(t *testing.T, tree *types.ASTNode, opts ...evaluator.EvalOption) ([]evaluator.Value, error) {
	t.Helper()
	expr, err := parser.FromAST(tree)
	if err != nil {
		t.Fatal(err)
	}
	compiled, err := evaluator.New(opts...).Compile(expr)
	if err != nil {
		return nil, err
	}
	return compiled.EvaluateAll(context.Background())
}

func TestExportedFunction(t *testing.T) {
	ctx := context.Background()
	mod, err := extwasm.Load(ctx, addInts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer mod.Close(ctx)

	entries := mod.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if skipped := mod.Skipped(); len(skipped) != 0 {
		t.Errorf("got skipped %v, want none", skipped)
	}

	tests := []struct {
		name string
		a, b int64
		want string
	}{
		{"small", 2, 40, "42"},
		{"negative", -5, 3, "-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := evaluate(t, types.Call("ext:add-ints", types.Int(tt.a), types.Int(tt.b)), mod.Option())
			if err != nil {
				t.Fatal(err)
			}
			if len(values) != 1 || values[0].String() != tt.want {
				t.Errorf("got %v, want %s", values, tt.want)
			}
			if got := values[0].Type(); got != types.TypeInteger {
				t.Errorf("got type %v, want xs:integer", got)
			}
		})
	}
}

func TestNamespace(t *testing.T) {
	ctx := context.Background()
	mod, err := extwasm.Load(ctx, addInts, extwasm.WithNamespace("urn:calc"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer mod.Close(ctx)

	expr, err := parser.FromAST(types.Call("calc:add-ints", types.Int(1), types.Int(1)))
	if err != nil {
		t.Fatal(err)
	}
	compiled, err := evaluator.New(mod.Option()).Compile(expr, evaluator.WithStaticNamespace("calc", "urn:calc"))
	if err != nil {
		t.Fatal(err)
	}
	values, err := compiled.EvaluateAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 1 || values[0].String() != "2" {
		t.Errorf("got %v, want 2", values)
	}
}

func TestArgumentType(t *testing.T) {
	ctx := context.Background()
	mod, err := extwasm.Load(ctx, addInts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer mod.Close(ctx)

	_, err = evaluate(t, types.Call("ext:add-ints", types.Str("1"), types.Int(1)), mod.Option())
	if got := types.CodeOf(err); got != types.ErrType {
		t.Errorf("got %v, want %s", err, types.ErrType)
	}
}

func TestLoadFile(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/mods/add.wasm", addInts, 0o644); err != nil {
		t.Fatal(err)
	}

	mod, err := extwasm.LoadFile(ctx, fs, "/mods/add.wasm")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := mod.Close(ctx); err != nil {
		t.Errorf("Close: %v", err)
	}

	if _, err := extwasm.LoadFile(ctx, fs, "/mods/missing.wasm"); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := extwasm.Load(ctx, []byte("not wasm")); err == nil {
		t.Error("expected an error for an invalid binary")
	}
}
