package evaluator

import (
	"sort"
	"strings"

	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

// PathExpr is a sequence of "/"-separated steps. Each step is evaluated
// once per item of the previous one, with that item as focus.
type PathExpr struct {
	base
	steps []Expression
}

func (e *PathExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := staticAll(sc, e.steps...); err != nil {
		return err
	}
	return e.rejectUpdating(e.steps...)
}

func (e *PathExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	cur := e.steps[0].Evaluate(dc, ep)
	if len(e.steps) > 1 {
		// A single step is not a path: keep its result as is.
		for _, step := range e.steps[1:] {
			cur = e.applyStep(cur, step, dc, ep)
		}
	}
	return cur
}

func (e *PathExpr) applyStep(input *Sequence, step Expression, dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return input.MapAll(func(items []Value) *Sequence {
		parts := make([]*Sequence, len(items))
		for i, item := range items {
			if _, ok := item.(NodeValue); !ok {
				return Errored(e.errorf(types.ErrPathStepNotNode,
					"the result of a path step before \"/\" must be nodes, got %s", item.Type()))
			}
			parts[i] = step.Evaluate(dc.ScopeWithFocus(item, i+1, len(items)), ep)
		}
		return Concat(parts...).MapAll(func(results []Value) *Sequence {
			nodes, atomics := 0, 0
			for _, r := range results {
				if _, ok := r.(NodeValue); ok {
					nodes++
				} else {
					atomics++
				}
			}
			if nodes > 0 && atomics > 0 {
				return Errored(e.errorf(types.ErrMixedPathResult, "a path step returned both nodes and non-nodes"))
			}
			if nodes == 0 {
				return FromValues(results...)
			}
			f, err := ep.requireTree()
			if err != nil {
				return Errored(err)
			}
			return FromValues(documentOrder(f, results)...)
		})
	})
}

// documentOrder sorts node values into document order and removes
// duplicates.
func documentOrder(f tree.Facade, nodes []Value) []Value {
	sorted := make([]Value, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return f.Compare(sorted[i].(NodeValue).pointer, sorted[j].(NodeValue).pointer) < 0
	})
	out := sorted[:0]
	for i, n := range sorted {
		if i > 0 && sorted[i-1].(NodeValue).pointer == n.(NodeValue).pointer {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Axis names.
const (
	axisChild            = "child"
	axisDescendant       = "descendant"
	axisDescendantOrSelf = "descendant-or-self"
	axisSelf             = "self"
	axisAttribute        = "attribute"
	axisParent           = "parent"
	axisAncestor         = "ancestor"
	axisAncestorOrSelf   = "ancestor-or-self"
	axisFollowingSibling = "following-sibling"
	axisPrecedingSibling = "preceding-sibling"
)

var axes = map[string]bool{
	axisChild: true, axisDescendant: true, axisDescendantOrSelf: true, axisSelf: true,
	axisAttribute: true, axisParent: true, axisAncestor: true, axisAncestorOrSelf: true,
	axisFollowingSibling: true, axisPrecedingSibling: true,
}

// nodeTest matches nodes by kind and name.
type nodeTest struct {
	kind      tree.Kind // zero matches any kind
	named     bool
	namespace string
	local     string
	anyNS     bool
	anyLocal  bool
}

var kindTests = map[string]tree.Kind{
	"node()":                   0,
	"document-node()":          tree.DocumentKind,
	"element()":                tree.ElementKind,
	"attribute()":              tree.AttributeKind,
	"text()":                   tree.TextKind,
	"comment()":                tree.CommentKind,
	"processing-instruction()": tree.ProcessingInstructionKind,
}

func parseNodeTest(sc *StaticContext, test string, principal tree.Kind) (nodeTest, error) {
	if k, ok := kindTests[test]; ok {
		return nodeTest{kind: k}, nil
	}
	t := nodeTest{kind: principal, named: true}
	switch {
	case test == "*":
		t.anyNS, t.anyLocal = true, true
	case strings.HasPrefix(test, "*:"):
		t.anyNS, t.local = true, test[2:]
	case strings.HasSuffix(test, ":*"):
		uri, ok := sc.ResolveNamespace(strings.TrimSuffix(test, ":*"))
		if !ok {
			return t, types.Errorf(types.ErrUnresolvedPrefix, "namespace prefix of %q is not bound", test)
		}
		t.namespace, t.anyLocal = uri, true
	default:
		q, err := sc.ResolveQName(test, "")
		if err != nil {
			return t, err
		}
		t.namespace, t.local = q.Namespace, q.Local
	}
	return t, nil
}

func (t nodeTest) matches(f tree.Facade, p tree.Pointer) bool {
	if t.kind != 0 && f.Kind(p) != t.kind {
		return false
	}
	if !t.named {
		return true
	}
	if !t.anyLocal && f.LocalName(p) != t.local {
		return false
	}
	return t.anyNS || f.NamespaceURI(p) == t.namespace
}

// StepExpr is an axis step with optional predicates.
type StepExpr struct {
	base
	axis       string
	testSource string
	test       nodeTest
	predicates []Expression
}

func (e *StepExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if !axes[e.axis] {
		return e.errorf(types.ErrSyntax, "unsupported axis %q", e.axis)
	}
	principal := tree.ElementKind
	if e.axis == axisAttribute {
		principal = tree.AttributeKind
	}
	test, err := parseNodeTest(sc, e.testSource, principal)
	if err != nil {
		return err
	}
	e.test = test
	if err := staticAll(sc, e.predicates...); err != nil {
		return err
	}
	return e.rejectUpdating(e.predicates...)
}

func (e *StepExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	item, ok := dc.ContextItem()
	if !ok {
		return Errored(e.errorf(types.ErrAbsentContext, "the context item for an axis step is absent"))
	}
	n, ok := item.(NodeValue)
	if !ok {
		return Errored(e.errorf(types.ErrAxisStepNotNode, "the context item for an axis step is not a node (%s)", item.Type()))
	}
	f, err := ep.requireTree()
	if err != nil {
		return Errored(err)
	}
	var matched []Value
	for _, p := range axisNodes(f, e.axis, n.pointer) {
		if e.test.matches(f, p) {
			matched = append(matched, NewNodeValue(p, f.Kind(p)))
		}
	}
	selected := applyPredicates(FromValues(matched...), e.predicates, dc, ep)
	if !reverseAxes[e.axis] {
		return selected
	}
	// Predicates count nearest first; the step yields document order.
	return selected.MapAll(func(nodes []Value) *Sequence {
		return FromValues(documentOrder(f, nodes)...)
	})
}

var reverseAxes = map[string]bool{
	axisParent:           true,
	axisAncestor:         true,
	axisAncestorOrSelf:   true,
	axisPrecedingSibling: true,
}

// axisNodes lists the nodes on axis from p, nearest first for reverse axes.
func axisNodes(f tree.Facade, axis string, p tree.Pointer) []tree.Pointer {
	switch axis {
	case axisChild:
		return f.Children(p)
	case axisDescendant:
		return tree.Descendants(f, p)
	case axisDescendantOrSelf:
		return append([]tree.Pointer{p}, tree.Descendants(f, p)...)
	case axisSelf:
		return []tree.Pointer{p}
	case axisAttribute:
		if f.Kind(p) != tree.ElementKind {
			return nil
		}
		return f.Attributes(p)
	case axisParent:
		if parent, ok := f.Parent(p); ok {
			return []tree.Pointer{parent}
		}
		return nil
	case axisAncestor:
		return tree.Ancestors(f, p)
	case axisAncestorOrSelf:
		return append([]tree.Pointer{p}, tree.Ancestors(f, p)...)
	case axisFollowingSibling, axisPrecedingSibling:
		if f.Kind(p) == tree.AttributeKind {
			return nil
		}
		step := f.NextSibling
		if axis == axisPrecedingSibling {
			step = f.PreviousSibling
		}
		var out []tree.Pointer
		for s, ok := step(p); ok; s, ok = step(s) {
			out = append(out, s)
		}
		return out
	}
	return nil
}

// RootExpr is a leading "/": the root of the context node's tree, which
// must be a document node.
type RootExpr struct {
	base
}

func (e *RootExpr) PerformStaticEvaluation(sc *StaticContext) error {
	return e.bind()
}

func (e *RootExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	item, ok := dc.ContextItem()
	if !ok {
		return Errored(e.errorf(types.ErrAbsentContext, "the context item for \"/\" is absent"))
	}
	n, ok := item.(NodeValue)
	if !ok {
		return Errored(e.errorf(types.ErrAxisStepNotNode, "the context item for \"/\" is not a node"))
	}
	f, err := ep.requireTree()
	if err != nil {
		return Errored(err)
	}
	root := tree.Root(f, n.pointer)
	if f.Kind(root) != tree.DocumentKind {
		return Errored(e.errorf(types.ErrTreatAsMismatch, "the root of the context node is not a document node"))
	}
	return FromValue(NewNodeValue(root, tree.DocumentKind))
}

// FilterExpr applies predicates to a primary expression.
type FilterExpr struct {
	base
	primary    Expression
	predicates []Expression
}

func (e *FilterExpr) PerformStaticEvaluation(sc *StaticContext) error {
	if err := e.bind(); err != nil {
		return err
	}
	if err := e.primary.PerformStaticEvaluation(sc); err != nil {
		return err
	}
	if err := staticAll(sc, e.predicates...); err != nil {
		return err
	}
	return e.rejectUpdating(append([]Expression{e.primary}, e.predicates...)...)
}

func (e *FilterExpr) Evaluate(dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	return applyPredicates(e.primary.Evaluate(dc, ep), e.predicates, dc, ep)
}

// applyPredicates filters input by each predicate in turn. A numeric
// predicate selects by position; any other value by its effective boolean
// value.
func applyPredicates(input *Sequence, predicates []Expression, dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	for _, pred := range predicates {
		pred := pred
		input = input.MapAll(func(items []Value) *Sequence {
			return filterByPredicate(items, pred, dc, ep)
		})
	}
	return input
}

func filterByPredicate(items []Value, pred Expression, dc *DynamicContext, ep *ExecutionParameters) *Sequence {
	i := 0
	var cur *Sequence
	s := NewSequence(func() (Result, error) {
		for i < len(items) {
			if cur == nil {
				cur = pred.Evaluate(dc.ScopeWithFocus(items[i], i+1, len(items)), ep)
			}
			w, err := cur.fill(2)
			if err != nil {
				return Result{}, err
			}
			if w != nil {
				return pendingResult(w), nil
			}
			keep, err := predicateTruth(cur.buf, i+1)
			if err != nil {
				return Result{}, err
			}
			_ = cur.Close()
			cur = nil
			item := items[i]
			i++
			if keep {
				return readyResult(item), nil
			}
		}
		return doneResult, nil
	})
	return s.OnClose(func() error {
		if cur == nil {
			return nil
		}
		return cur.Close()
	})
}

func predicateTruth(values []Value, position int) (bool, error) {
	if len(values) == 1 {
		if a, ok := values[0].(AtomicValue); ok && a.typ.IsNumeric() {
			return a.Float() == float64(position), nil
		}
	}
	return effectiveBooleanValue(values)
}
