package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sandrolain/goxq/pkg/functions"
	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

// BindingKey identifies a variable binding. Keys are generated during the
// static pass, so two variables with the same name in different scopes get
// different keys.
type BindingKey string

type varKey struct {
	namespace string
	local     string
}

// StaticContext is the compile-time scope of an expression tree. It is
// mutated only during the static pass and frozen afterwards.
type StaticContext struct {
	registry                 *functions.Registry[FunctionImpl]
	namespaces               []map[string]string
	variables                []map[varKey]BindingKey
	defaultFunctionNamespace string
	logger                   *slog.Logger
	debug                    bool
	frozen                   bool
	keys                     int
}

// NewStaticContext creates a static context resolving functions through
// registry. The well-known prefixes (xs, fn, map, array, math, ...) are in
// scope.
func NewStaticContext(registry *functions.Registry[FunctionImpl]) *StaticContext {
	ns := make(map[string]string, len(types.DefaultNamespaces))
	for p, uri := range types.DefaultNamespaces {
		ns[p] = uri
	}
	return &StaticContext{
		registry:                 registry,
		namespaces:               []map[string]string{ns},
		variables:                []map[varKey]BindingKey{{}},
		defaultFunctionNamespace: types.NamespaceFn,
		logger:                   slog.Default(),
	}
}

func (sc *StaticContext) mustNotBeFrozen() {
	if sc.frozen {
		panic("evaluator: static context modified after the static pass")
	}
}

// Registry returns the function registry.
func (sc *StaticContext) Registry() *functions.Registry[FunctionImpl] { return sc.registry }

// Logger returns the logger used for static diagnostics.
func (sc *StaticContext) Logger() *slog.Logger { return sc.logger }

// SetDefaultFunctionNamespace sets the namespace of unprefixed function names.
func (sc *StaticContext) SetDefaultFunctionNamespace(uri string) {
	sc.mustNotBeFrozen()
	sc.defaultFunctionNamespace = uri
}

// IntroduceScope opens a lexical scope for namespaces and variables.
func (sc *StaticContext) IntroduceScope() {
	sc.mustNotBeFrozen()
	sc.namespaces = append(sc.namespaces, map[string]string{})
	sc.variables = append(sc.variables, map[varKey]BindingKey{})
}

// RemoveScope closes the innermost scope.
func (sc *StaticContext) RemoveScope() {
	sc.mustNotBeFrozen()
	if len(sc.variables) == 1 {
		panic("evaluator: RemoveScope without IntroduceScope")
	}
	sc.namespaces = sc.namespaces[:len(sc.namespaces)-1]
	sc.variables = sc.variables[:len(sc.variables)-1]
}

// RegisterNamespace binds prefix to uri in the innermost scope.
func (sc *StaticContext) RegisterNamespace(prefix, uri string) {
	sc.mustNotBeFrozen()
	sc.namespaces[len(sc.namespaces)-1][prefix] = uri
}

// ResolveNamespace looks prefix up from the innermost scope outwards.
func (sc *StaticContext) ResolveNamespace(prefix string) (string, bool) {
	for i := len(sc.namespaces) - 1; i >= 0; i-- {
		if uri, ok := sc.namespaces[i][prefix]; ok {
			return uri, true
		}
	}
	return "", false
}

// RegisterVariable declares a variable in the innermost scope and returns
// its fresh binding key.
func (sc *StaticContext) RegisterVariable(namespace, local string) BindingKey {
	sc.mustNotBeFrozen()
	sc.keys++
	key := BindingKey(fmt.Sprintf("%s#%d", local, sc.keys))
	sc.variables[len(sc.variables)-1][varKey{namespace, local}] = key
	return key
}

// LookupVariable returns the binding key of the innermost variable with
// the given name.
func (sc *StaticContext) LookupVariable(namespace, local string) (BindingKey, bool) {
	k := varKey{namespace, local}
	for i := len(sc.variables) - 1; i >= 0; i-- {
		if key, ok := sc.variables[i][k]; ok {
			return key, true
		}
	}
	return "", false
}

// ResolveQName expands a lexical name. Names may be written as
// "prefix:local", "Q{uri}local" or "local"; unprefixed names take
// defaultNamespace.
func (sc *StaticContext) ResolveQName(lexical, defaultNamespace string) (types.QName, error) {
	if strings.HasPrefix(lexical, "Q{") {
		end := strings.IndexByte(lexical, '}')
		if end < 0 {
			return types.QName{}, types.Errorf(types.ErrSyntax, "invalid EQName %q", lexical)
		}
		return types.NewQName(lexical[2:end], lexical[end+1:]), nil
	}
	prefix, local := types.SplitLexicalQName(lexical)
	if prefix == "" {
		return types.QName{Namespace: defaultNamespace, Local: local}, nil
	}
	uri, ok := sc.ResolveNamespace(prefix)
	if !ok {
		return types.QName{}, types.Errorf(types.ErrUnresolvedPrefix, "namespace prefix %q is not bound", prefix)
	}
	return types.QName{Prefix: prefix, Namespace: uri, Local: local}, nil
}

// ResolveFunctionName expands a function name, using the default function
// namespace for unprefixed names.
func (sc *StaticContext) ResolveFunctionName(lexical string) (types.QName, error) {
	return sc.ResolveQName(lexical, sc.defaultFunctionNamespace)
}

// LookupFunction selects the overload of name that accepts arity arguments.
func (sc *StaticContext) LookupFunction(name types.QName, arity int) (*functions.Properties[FunctionImpl], bool) {
	return sc.registry.GetFunctionByArity(name.Namespace, name.Local, arity)
}

// Freeze ends the static pass.
func (sc *StaticContext) Freeze() {
	sc.frozen = true
}

func (sc *StaticContext) debugf(msg string, args ...any) {
	if sc.debug {
		sc.logger.Debug(msg, args...)
	}
}

// DynamicContext is the immutable evaluation-time focus and variable
// environment. Scope changes derive a new context.
type DynamicContext struct {
	contextItem Value
	position    int
	size        int
	bindings    map[BindingKey]Lazy
	now         time.Time
	timezone    *time.Location
	depth       int
}

// NewDynamicContext creates a context without focus.
func NewDynamicContext(now time.Time, tz *time.Location) *DynamicContext {
	if tz == nil {
		tz = time.UTC
	}
	return &DynamicContext{
		bindings: map[BindingKey]Lazy{},
		now:      now,
		timezone: tz,
	}
}

func (dc *DynamicContext) clone() *DynamicContext {
	c := *dc
	return &c
}

// ContextItem returns the context item, or false when the focus is absent.
func (dc *DynamicContext) ContextItem() (Value, bool) {
	return dc.contextItem, dc.contextItem != nil
}

// Position returns the 1-based context position, 0 when the focus is absent.
func (dc *DynamicContext) Position() int { return dc.position }

// Size returns the context size, 0 when the focus is absent.
func (dc *DynamicContext) Size() int { return dc.size }

// Now returns the current dateTime, stable for the whole evaluation.
func (dc *DynamicContext) Now() time.Time { return dc.now }

// Timezone returns the implicit timezone.
func (dc *DynamicContext) Timezone() *time.Location { return dc.timezone }

// Depth returns the function invocation depth.
func (dc *DynamicContext) Depth() int { return dc.depth }

// Lookup returns the binding for key.
func (dc *DynamicContext) Lookup(key BindingKey) (Lazy, bool) {
	l, ok := dc.bindings[key]
	return l, ok
}

// ScopeWithFocus derives a context focused on item at position of size.
func (dc *DynamicContext) ScopeWithFocus(item Value, position, size int) *DynamicContext {
	c := dc.clone()
	c.contextItem = item
	c.position = position
	c.size = size
	return c
}

// WithoutFocus derives a context with an absent focus, as in function bodies.
func (dc *DynamicContext) WithoutFocus() *DynamicContext {
	c := dc.clone()
	c.contextItem = nil
	c.position = 0
	c.size = 0
	return c
}

// ScopeWithVariableBindings derives a context with additional bindings.
func (dc *DynamicContext) ScopeWithVariableBindings(bindings map[BindingKey]Lazy) *DynamicContext {
	c := dc.clone()
	c.bindings = make(map[BindingKey]Lazy, len(dc.bindings)+len(bindings))
	for k, v := range dc.bindings {
		c.bindings[k] = v
	}
	for k, v := range bindings {
		c.bindings[k] = v
	}
	return c
}

func (dc *DynamicContext) enterFunction() *DynamicContext {
	c := dc.clone()
	c.depth++
	return c
}

// ExecutionParameters carries the host services of one evaluation. The
// core never mutates it.
type ExecutionParameters struct {
	ctx      context.Context
	facade   tree.Facade
	debug    bool
	logger   *slog.Logger
	loader   ResourceLoader
	updates  *PendingUpdateList
	metrics  *Metrics
	maxDepth int
}

// NewExecutionParameters creates parameters navigating nodes with facade.
// facade may be nil when no nodes are involved.
func NewExecutionParameters(ctx context.Context, facade tree.Facade) *ExecutionParameters {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ExecutionParameters{
		ctx:    ctx,
		facade: facade,
		logger: slog.Default(),
	}
}

// Context returns the Go context blocking operations honour.
func (ep *ExecutionParameters) Context() context.Context { return ep.ctx }

// Tree returns the DOM facade, or nil.
func (ep *ExecutionParameters) Tree() tree.Facade { return ep.facade }

// Debug reports whether debug checks and logging are on.
func (ep *ExecutionParameters) Debug() bool { return ep.debug }

// Logger returns the evaluation logger.
func (ep *ExecutionParameters) Logger() *slog.Logger { return ep.logger }

// Loader returns the resource loader, or nil.
func (ep *ExecutionParameters) Loader() ResourceLoader { return ep.loader }

// Updates returns the pending update list, or nil when updates are not
// accepted.
func (ep *ExecutionParameters) Updates() *PendingUpdateList { return ep.updates }

// Metrics returns the metrics collector, or nil.
func (ep *ExecutionParameters) Metrics() *Metrics { return ep.metrics }

func (ep *ExecutionParameters) requireTree() (tree.Facade, error) {
	if ep.facade == nil {
		return nil, types.Errorf(types.ErrAbsentContext, "no tree access capability is available")
	}
	return ep.facade, nil
}
