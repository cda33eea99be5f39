// Package extwasm exposes the exported functions of a WebAssembly module
// as XPath functions.
//
// Every exported function whose parameters and results are numeric
// (i32, i64, f32, f64) is registered under the kebab-case form of its
// export name:
//
//	mod, err := extwasm.Load(ctx, wasmBytes)
//	if err != nil { ... }
//	defer mod.Close(ctx)
//	compiled, err := goxq.Compile(tree, goxq.WithFunctions(mod.Entries()...))
//
// An export "addNumbers" is then callable as ext:add-numbers#2.
package extwasm

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/sandrolain/goxq/pkg/evaluator"
	"github.com/sandrolain/goxq/pkg/types"
)

// Module is an instantiated WebAssembly module. Calls into the module are
// serialized.
type Module struct {
	mu        sync.Mutex
	runtime   wazero.Runtime
	instance  api.Module
	namespace string
	skipped   []string
}

type options struct {
	namespace string
	wasi      bool
}

// Option configures Load.
type Option func(*options)

// WithNamespace registers the functions in uri instead of the ext
// namespace.
func WithNamespace(uri string) Option {
	return func(o *options) { o.namespace = uri }
}

// WithWASI makes the WASI preview 1 host module available to the guest.
func WithWASI() Option {
	return func(o *options) { o.wasi = true }
}

// Load compiles and instantiates a WebAssembly binary.
func Load(ctx context.Context, wasm []byte, opts ...Option) (*Module, error) {
	o := options{namespace: types.NamespaceExt}
	for _, opt := range opts {
		opt(&o)
	}

	r := wazero.NewRuntime(ctx)
	if o.wasi {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			_ = r.Close(ctx)
			return nil, errors.Wrap(err, "extwasm: instantiate wasi")
		}
	}
	instance, err := r.Instantiate(ctx, wasm)
	if err != nil {
		_ = r.Close(ctx)
		return nil, errors.Wrap(err, "extwasm: instantiate module")
	}
	return &Module{runtime: r, instance: instance, namespace: o.namespace}, nil
}

// LoadFile reads the binary at path from fs and loads it.
func LoadFile(ctx context.Context, fs afero.Fs, path string, opts ...Option) (*Module, error) {
	wasm, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "extwasm: read %s", path)
	}
	return Load(ctx, wasm, opts...)
}

// Close releases the runtime and every module instantiated in it.
func (m *Module) Close(ctx context.Context) error {
	return errors.Wrap(m.runtime.Close(ctx), "extwasm: close")
}

// Skipped returns the exports that were not registered because their
// signature uses non-numeric value types. It is filled by Entries.
func (m *Module) Skipped() []string {
	return m.skipped
}

// Entries returns one function definition per exported numeric function,
// in export-name order.
func (m *Module) Entries() []evaluator.FunctionEntry {
	defs := m.instance.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	m.skipped = m.skipped[:0]
	var out []evaluator.FunctionEntry
	for _, name := range names {
		def := defs[name]
		sig, ok := signature(def)
		if !ok {
			m.skipped = append(m.skipped, name)
			continue
		}
		out = append(out, evaluator.CustomFunctionDef{
			Namespace: m.namespace,
			Name:      strcase.ToKebab(name),
			Signature: sig,
			Fn:        m.call(name, def.ParamTypes(), def.ResultTypes()),
		})
	}
	return out
}

// Option returns an evaluator option registering every entry.
func (m *Module) Option() evaluator.EvalOption {
	return evaluator.WithFunctions(m.Entries()...)
}

func sequenceType(t api.ValueType) (string, bool) {
	switch t {
	case api.ValueTypeI32, api.ValueTypeI64:
		return "xs:integer", true
	case api.ValueTypeF32:
		return "xs:float", true
	case api.ValueTypeF64:
		return "xs:double", true
	}
	return "", false
}

func signature(def api.FunctionDefinition) (string, bool) {
	params := make([]string, len(def.ParamTypes()))
	for i, t := range def.ParamTypes() {
		s, ok := sequenceType(t)
		if !ok {
			return "", false
		}
		params[i] = s
	}
	ret := "item()*"
	results := def.ResultTypes()
	for _, t := range results {
		if _, ok := sequenceType(t); !ok {
			return "", false
		}
	}
	switch {
	case len(results) == 1:
		ret, _ = sequenceType(results[0])
	case len(results) > 1:
		ret = "xs:anyAtomicType*"
	}
	return "(" + strings.Join(params, ", ") + ") as " + ret, true
}

func (m *Module) call(name string, params, results []api.ValueType) evaluator.CustomFunc {
	return func(ctx context.Context, args ...[]evaluator.Value) ([]evaluator.Value, error) {
		stack := make([]uint64, len(params))
		for i, t := range params {
			a := args[i][0].(evaluator.AtomicValue)
			word, err := encode(t, a)
			if err != nil {
				return nil, types.Errorf(types.ErrInvalidCastValue, "ext:%s: argument %d: %v", strcase.ToKebab(name), i+1, err)
			}
			stack[i] = word
		}

		m.mu.Lock()
		ret, err := m.instance.ExportedFunction(name).Call(ctx, stack...)
		m.mu.Unlock()
		if err != nil {
			return nil, errors.Wrapf(err, "extwasm: call %s", name)
		}

		out := make([]evaluator.Value, len(results))
		for i, t := range results {
			out[i] = decode(t, ret[i])
		}
		return out, nil
	}
}

func encode(t api.ValueType, a evaluator.AtomicValue) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		i := a.Int()
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, errors.Errorf("%d does not fit in i32", i)
		}
		return api.EncodeI32(int32(i)), nil
	case api.ValueTypeI64:
		return api.EncodeI64(a.Int()), nil
	case api.ValueTypeF32:
		return api.EncodeF32(float32(a.Float())), nil
	default:
		return api.EncodeF64(a.Float()), nil
	}
}

func decode(t api.ValueType, word uint64) evaluator.Value {
	switch t {
	case api.ValueTypeI32:
		return evaluator.NewInteger(int64(api.DecodeI32(word)))
	case api.ValueTypeI64:
		return evaluator.NewInteger(int64(word))
	case api.ValueTypeF32:
		return evaluator.NewFloat(float64(api.DecodeF32(word)))
	default:
		return evaluator.NewDouble(api.DecodeF64(word))
	}
}
