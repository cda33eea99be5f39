// Package evaluator implements the evaluation core of goxq.
//
// The evaluator receives an expression-construction tree (types.ASTNode),
// builds it into expressions, runs their static pass against a static
// context, and evaluates them lazily into sequences. It provides:
//   - A pull-based Sequence cursor whose production can suspend on external
//     resources (Ready/Pending/Done)
//   - The function conversion rules (atomization, casting, promotion,
//     multiplicity checks) applied to every call
//   - A built-in function catalog and host custom functions
//   - Timeout and cancellation via context.Context
//
// # Example
//
//	ev := evaluator.New(evaluator.WithTimeout(5 * time.Second))
//	compiled, err := ev.Compile(expr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	values, err := compiled.EvaluateAll(ctx, evaluator.WithContextItem(doc))
package evaluator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sandrolain/goxq/pkg/cache"
	"github.com/sandrolain/goxq/pkg/functions"
	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

// Evaluator compiles and evaluates expressions. It is safe for concurrent
// use once created.
type Evaluator struct {
	opts     EvalOptions
	logger   *slog.Logger
	registry *functions.Registry[FunctionImpl]
	cache    *cache.Cache[*Compiled] // non-nil when caching is enabled
	// err records a failure to set up the function registry; Compile
	// reports it.
	err error
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables caching of compiled expressions by source text.
	// The default cache holds up to 256 entries with LRU eviction.
	Caching bool
	// CacheSize sets the maximum number of cached expressions.
	// Only used when Caching is true and no explicit Cache is provided.
	CacheSize int
	// Cache is a custom expression cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache[*Compiled]
	// MaxDepth limits nested function invocations (XPDY0130 beyond it).
	MaxDepth int
	// Timeout bounds the blocking helpers (EvaluateAll).
	Timeout time.Duration
	// Debug enables debug logging and return-type checks of built-ins.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// Clock supplies the current dateTime of each evaluation.
	Clock func() time.Time
	// Timezone is the implicit timezone.
	Timezone *time.Location
	// Namespaces are extra prefix bindings of every static context.
	Namespaces map[string]string
	// Loader resolves fn:unparsed-text and fn:doc.
	Loader ResourceLoader
	// Metrics collects counters; nil disables them.
	Metrics *Metrics
	// CustomFunctions are registered next to the built-in catalog.
	CustomFunctions []FunctionEntry
}

// New creates a new Evaluator with default options.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		MaxDepth: 10000,
		Timeout:  30 * time.Second,
		Clock:    time.Now,
		Timezone: time.Local,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	var c *cache.Cache[*Compiled]
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		c = cache.New[*Compiled](options.CacheSize)
	}

	e := &Evaluator{
		opts:   options,
		logger: options.Logger,
		cache:  c,
	}
	e.registry, e.err = NewRegistry()
	if e.err == nil {
		for _, entry := range options.CustomFunctions {
			props, err := entry.properties()
			if err == nil {
				err = e.registry.Register(props)
			}
			if err != nil {
				e.err = errors.Wrap(err, "evaluator: register custom function")
				break
			}
		}
	}
	return e
}

// Cache returns the expression cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache[*Compiled] {
	return e.cache
}

// Registry returns the function registry of the evaluator.
func (e *Evaluator) Registry() *functions.Registry[FunctionImpl] {
	return e.registry
}

// Compiled is an expression after its static pass. It is immutable and
// may be evaluated concurrently.
type Compiled struct {
	// ID correlates log records of one compiled expression.
	ID        uuid.UUID
	source    string
	expr      Expression
	variables map[string]BindingKey
	eval      *Evaluator
}

// Source returns the source text of the expression, if known.
func (c *Compiled) Source() string { return c.source }

// IsUpdating reports whether evaluating the expression may schedule
// updates.
func (c *Compiled) IsUpdating() bool { return c.expr.IsUpdating() }

// Compile builds and statically evaluates expr. Without compile options
// and with caching enabled, results are cached by source text.
func (e *Evaluator) Compile(expr *types.Expression, opts ...CompileOption) (*Compiled, error) {
	if e.err != nil {
		return nil, e.err
	}
	if expr == nil || expr.AST() == nil {
		return nil, errors.New("evaluator: invalid expression")
	}
	if e.cache != nil && len(opts) == 0 && expr.Source() != "" {
		c, hit, err := e.cache.GetOrCompile(expr.Source(), func() (*Compiled, error) {
			return e.compile(expr, nil)
		})
		e.opts.Metrics.cacheLookup(hit)
		return c, err
	}
	return e.compile(expr, opts)
}

func (e *Evaluator) compile(expr *types.Expression, opts []CompileOption) (*Compiled, error) {
	var options CompileOptions
	for _, opt := range opts {
		opt(&options)
	}

	sc := NewStaticContext(e.registry)
	sc.logger = e.logger
	sc.debug = e.opts.Debug
	for prefix, uri := range e.opts.Namespaces {
		sc.RegisterNamespace(prefix, uri)
	}
	for prefix, uri := range options.Namespaces {
		sc.RegisterNamespace(prefix, uri)
	}
	if options.DefaultFunctionNamespace != "" {
		sc.SetDefaultFunctionNamespace(options.DefaultFunctionNamespace)
	}
	variables := make(map[string]BindingKey, len(options.ExternalVariables))
	for _, name := range options.ExternalVariables {
		variables[name] = sc.RegisterVariable("", name)
	}

	compiled, err := Build(expr.AST())
	if err == nil {
		err = compiled.PerformStaticEvaluation(sc)
	}
	sc.Freeze()
	e.opts.Metrics.compiled(err)
	if err != nil {
		e.opts.Metrics.errorRaised(err)
		return nil, err
	}

	c := &Compiled{
		ID:        uuid.New(),
		source:    expr.Source(),
		expr:      compiled,
		variables: variables,
		eval:      e,
	}
	if e.opts.Debug {
		e.logger.Debug("expression compiled", "expression", c.ID, "source", c.source, "updating", c.IsUpdating())
	}
	return c, nil
}

// Evaluate starts a lazy evaluation. The returned sequence stops with the
// context error once ctx is done; the caller should Close it when
// abandoning iteration early.
func (c *Compiled) Evaluate(ctx context.Context, opts ...EvaluateOption) *Sequence {
	if ctx == nil {
		ctx = context.Background()
	}
	var options EvaluateOptions
	for _, opt := range opts {
		opt(&options)
	}
	e := c.eval

	dc := NewDynamicContext(e.opts.Clock(), e.opts.Timezone)
	if options.ContextItem != nil {
		dc = dc.ScopeWithFocus(options.ContextItem, 1, 1)
	}
	bindings := make(map[BindingKey]Lazy, len(c.variables))
	for name, key := range c.variables {
		values, ok := options.Variables[name]
		if !ok {
			return Errored(types.Errorf(types.ErrAbsentContext, "no value supplied for external variable $%s", name))
		}
		bindings[key] = ValuesLazy(values...)
	}
	dc = dc.ScopeWithVariableBindings(bindings)

	ep := NewExecutionParameters(ctx, options.Tree)
	ep.debug = e.opts.Debug
	ep.logger = e.logger
	ep.loader = e.opts.Loader
	ep.updates = options.Updates
	ep.metrics = e.opts.Metrics
	ep.maxDepth = e.opts.MaxDepth

	if e.opts.Debug {
		e.logger.Debug("evaluation started", "expression", c.ID)
	}
	return observe(c.expr.Evaluate(dc, ep).WithContext(ctx), func(err error) {
		e.opts.Metrics.errorRaised(err)
		if e.opts.Debug {
			e.logger.Debug("evaluation failed", "expression", c.ID, "error", err)
		}
	}, func() {
		if e.opts.Debug {
			e.logger.Debug("evaluation finished", "expression", c.ID)
		}
	})
}

// EvaluateAll evaluates the expression and waits for all values, bounded by
// the evaluator timeout.
func (c *Compiled) EvaluateAll(ctx context.Context, opts ...EvaluateOption) ([]Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.eval.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.eval.opts.Timeout)
		defer cancel()
	}
	seq := c.Evaluate(ctx, opts...)
	defer seq.Close()
	return seq.GetAllValues(ctx)
}

// observe reports the first error and the end of s.
func observe(s *Sequence, onError func(error), onDone func()) *Sequence {
	reported := false
	return s.derive(func() (Result, error) {
		r, err := s.Next()
		if reported {
			return r, err
		}
		switch {
		case err != nil:
			reported = true
			onError(err)
		case r.State == Done:
			reported = true
			onDone()
		}
		return r, err
	})
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithCaching enables or disables caching of compiled expressions.
// When enabled, a default LRU cache of 256 entries is created.
// To control the cache size use WithCacheSize; to supply your own cache use WithCache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached expressions.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external expression cache.
// The evaluator will use this cache regardless of the Caching flag.
func WithCache(c *cache.Cache[*Compiled]) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithTimeout sets the timeout of EvaluateAll.
func WithTimeout(timeout time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timeout = timeout
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum function invocation depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithClock sets the source of fn:current-dateTime.
func WithClock(clock func() time.Time) EvalOption {
	return func(opts *EvalOptions) {
		opts.Clock = clock
	}
}

// WithTimezone sets the implicit timezone.
func WithTimezone(tz *time.Location) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timezone = tz
	}
}

// WithNamespace binds prefix to uri in every static context.
func WithNamespace(prefix, uri string) EvalOption {
	return func(opts *EvalOptions) {
		if opts.Namespaces == nil {
			opts.Namespaces = map[string]string{}
		}
		opts.Namespaces[prefix] = uri
	}
}

// WithResourceLoader sets the loader of fn:unparsed-text and fn:doc.
func WithResourceLoader(loader ResourceLoader) EvalOption {
	return func(opts *EvalOptions) {
		opts.Loader = loader
	}
}

// WithMetrics enables metrics collection.
func WithMetrics(m *Metrics) EvalOption {
	return func(opts *EvalOptions) {
		opts.Metrics = m
	}
}

// WithCustomFunction registers a host function in the ext namespace.
// signature is a sequence-type signature such as "(xs:string?) as xs:string".
//
// Example:
//
//	evaluator.WithCustomFunction("greet", "(xs:string) as xs:string",
//	    func(_ context.Context, args ...[]evaluator.Value) ([]evaluator.Value, error) {
//	        return []evaluator.Value{evaluator.NewString("Hello, " + args[0][0].String())}, nil
//	    })
func WithCustomFunction(name, signature string, fn CustomFunc) EvalOption {
	return WithFunctions(CustomFunctionDef{Name: name, Signature: signature, Fn: fn})
}

// WithFunctions registers host function definitions.
func WithFunctions(entries ...FunctionEntry) EvalOption {
	return func(opts *EvalOptions) {
		opts.CustomFunctions = append(opts.CustomFunctions, entries...)
	}
}

// CompileOptions configures one compilation.
type CompileOptions struct {
	Namespaces               map[string]string
	ExternalVariables        []string
	DefaultFunctionNamespace string
}

// CompileOption configures one compilation.
type CompileOption func(*CompileOptions)

// WithStaticNamespace binds prefix to uri for this compilation.
func WithStaticNamespace(prefix, uri string) CompileOption {
	return func(opts *CompileOptions) {
		if opts.Namespaces == nil {
			opts.Namespaces = map[string]string{}
		}
		opts.Namespaces[prefix] = uri
	}
}

// WithExternalVariable declares a variable in no namespace whose value is
// supplied at evaluation time with WithVariable.
func WithExternalVariable(local string) CompileOption {
	return func(opts *CompileOptions) {
		opts.ExternalVariables = append(opts.ExternalVariables, local)
	}
}

// WithDefaultFunctionNamespace sets the namespace of unprefixed function
// names.
func WithDefaultFunctionNamespace(uri string) CompileOption {
	return func(opts *CompileOptions) {
		opts.DefaultFunctionNamespace = uri
	}
}

// EvaluateOptions configures one evaluation.
type EvaluateOptions struct {
	ContextItem Value
	Variables   map[string][]Value
	Tree        tree.Facade
	Updates     *PendingUpdateList
}

// EvaluateOption configures one evaluation.
type EvaluateOption func(*EvaluateOptions)

// WithContextItem sets the initial context item.
func WithContextItem(v Value) EvaluateOption {
	return func(opts *EvaluateOptions) {
		opts.ContextItem = v
	}
}

// WithVariable supplies the value of an external variable.
func WithVariable(local string, values ...Value) EvaluateOption {
	return func(opts *EvaluateOptions) {
		if opts.Variables == nil {
			opts.Variables = map[string][]Value{}
		}
		opts.Variables[local] = values
	}
}

// WithTree sets the DOM facade nodes are navigated with.
func WithTree(f tree.Facade) EvaluateOption {
	return func(opts *EvaluateOptions) {
		opts.Tree = f
	}
}

// WithUpdates collects pending updates of updating expressions into l.
func WithUpdates(l *PendingUpdateList) EvaluateOption {
	return func(opts *EvaluateOptions) {
		opts.Updates = l
	}
}
