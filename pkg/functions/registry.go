// Package functions provides the arity-keyed function overload registry.
//
// A Registry maps an expanded name (namespace URI, local name) to the list of
// overloads declared for it. Lookups select an overload by the number of
// arguments at a call site. The registry is generic over the
// implementation type so the evaluator can store its own function bodies
// without this package depending on it.
//
// # Example
//
//	r := functions.New[Impl]()
//	_ = r.Register(functions.Properties[Impl]{
//	    Namespace:     types.NamespaceFn,
//	    Local:         "upper-case",
//	    ArgumentTypes: []types.TypeDeclaration{types.MustParseTypeDeclaration("xs:string?")},
//	    ReturnType:    types.MustParseTypeDeclaration("xs:string"),
//	    Impl:          upperCase,
//	})
//	props, ok := r.GetFunctionByArity(types.NamespaceFn, "upper-case", 1)
package functions

import (
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"

	"github.com/sandrolain/goxq/pkg/types"
)

// Key is the composite key of a function name.
type Key struct {
	Namespace string
	Local     string
}

// QName returns the key as a types.QName.
func (k Key) QName() types.QName {
	return types.NewQName(k.Namespace, k.Local)
}

// Properties describes one overload.
type Properties[I any] struct {
	Namespace string
	Local     string
	// ArgumentTypes declares one entry per parameter. When Variadic is set
	// the last entry may repeat any number of times, zero included.
	ArgumentTypes []types.TypeDeclaration
	Variadic      bool
	ReturnType    types.TypeDeclaration
	// Updating marks functions that may produce pending updates.
	Updating bool
	Impl     I
}

// Key returns the composite name of the overload.
func (p *Properties[I]) Key() Key {
	return Key{Namespace: p.Namespace, Local: p.Local}
}

// Name renders the function name, e.g. "fn:concat".
func (p *Properties[I]) Name() string {
	return p.Key().QName().String()
}

// Accepts reports whether the overload can be called with arity arguments.
func (p *Properties[I]) Accepts(arity int) bool {
	if p.Variadic {
		return arity >= len(p.ArgumentTypes)-1
	}
	return arity == len(p.ArgumentTypes)
}

// ArgumentType returns the declared type of the i-th (0-based) argument,
// repeating the last declaration for variadic overloads.
func (p *Properties[I]) ArgumentType(i int) types.TypeDeclaration {
	if i >= len(p.ArgumentTypes) {
		if len(p.ArgumentTypes) == 0 {
			return types.AnyItems
		}
		return p.ArgumentTypes[len(p.ArgumentTypes)-1]
	}
	return p.ArgumentTypes[i]
}

// Registry is a table of function overloads. Registration is additive;
// registering the same name and fixed arity again replaces the earlier
// overload.
//
// Safe for concurrent use by multiple goroutines.
type Registry[I any] struct {
	mu      sync.RWMutex
	entries map[Key][]*Properties[I]
}

// New creates an empty registry.
func New[I any]() *Registry[I] {
	return &Registry[I]{
		entries: make(map[Key][]*Properties[I]),
	}
}

// Register adds an overload.
func (r *Registry[I]) Register(p Properties[I]) error {
	if p.Local == "" {
		return errors.New("functions: empty local name")
	}
	if p.Variadic && len(p.ArgumentTypes) == 0 {
		return errors.Errorf("functions: variadic %s declares no argument types", p.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := p.Key()
	overloads := r.entries[key]
	for i, existing := range overloads {
		if existing.Variadic == p.Variadic && len(existing.ArgumentTypes) == len(p.ArgumentTypes) {
			overloads[i] = &p
			return nil
		}
	}
	r.entries[key] = append(overloads, &p)
	return nil
}

// RegisterAll adds every overload and reports all failures at once.
func (r *Registry[I]) RegisterAll(ps ...Properties[I]) error {
	var result *multierror.Error
	for _, p := range ps {
		if err := r.Register(p); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// GetFunctionByArity selects the overload of (namespace, local) callable
// with arity arguments. Fixed-arity overloads win over variadic ones.
func (r *Registry[I]) GetFunctionByArity(namespace, local string, arity int) (*Properties[I], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var variadic *Properties[I]
	for _, p := range r.entries[Key{Namespace: namespace, Local: local}] {
		if !p.Accepts(arity) {
			continue
		}
		if !p.Variadic {
			return p, true
		}
		variadic = p
	}
	return variadic, variadic != nil
}

// Has reports whether any overload is registered under the name.
func (r *Registry[I]) Has(namespace, local string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[Key{Namespace: namespace, Local: local}]) > 0
}

// Arities lists the fixed arities registered under the name, ascending.
// Variadic overloads contribute their minimum arity.
func (r *Registry[I]) Arities(namespace, local string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []int
	for _, p := range r.entries[Key{Namespace: namespace, Local: local}] {
		n := len(p.ArgumentTypes)
		if p.Variadic {
			n--
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Keys returns every registered name, sorted by namespace then local name.
func (r *Registry[I]) Keys() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Namespace != keys[j].Namespace {
			return keys[i].Namespace < keys[j].Namespace
		}
		return keys[i].Local < keys[j].Local
	})
	return keys
}

// maxSuggestions bounds the "did you mean" list.
const maxSuggestions = 5

// Suggest returns up to five registered names closest to local by
// Levenshtein distance, keeping only those whose distance is under half the
// length of local. Ties are broken alphabetically.
func (r *Registry[I]) Suggest(local string) []string {
	type candidate struct {
		name     string
		distance int
	}
	var candidates []candidate
	for _, k := range r.Keys() {
		d := fuzzy.LevenshteinDistance(local, k.Local)
		if d*2 < len(local) {
			candidates = append(candidates, candidate{name: k.QName().String(), distance: d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].name < candidates[j].name
	})
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}

// DidYouMean renders Suggest as a diagnostic suffix, or "" when nothing is
// close enough.
func (r *Registry[I]) DidYouMean(local string) string {
	names := r.Suggest(local)
	if len(names) == 0 {
		return ""
	}
	return " Did you mean " + strings.Join(names, ", ") + "?"
}
