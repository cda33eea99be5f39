package evaluator

import (
	"bytes"
	"math"
	"strings"
	"time"

	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

// valueOperators maps general comparison operators to value comparisons.
var valueOperators = map[string]string{
	"=": "eq", "!=": "ne", "<": "lt", "<=": "le", ">": "gt", ">=": "ge",
}

func isStringLike(t types.ValueType) bool {
	return types.IsSubtypeOf(t, types.TypeString) || t == types.TypeAnyURI || t == types.TypeUntypedAtomic
}

// compareAtomic orders a and b. unordered is set when either side is NaN.
// ordering requests lt/le/gt/ge semantics, which some types do not have.
func compareAtomic(a, b AtomicValue, tz *time.Location, ordering bool) (cmp int, unordered bool, err error) {
	switch {
	case a.typ.IsNumeric() && b.typ.IsNumeric():
		return compareNumeric(a, b)

	case isStringLike(a.typ) && isStringLike(b.typ):
		return strings.Compare(a.Str(), b.Str()), false, nil

	case a.typ == types.TypeBoolean && b.typ == types.TypeBoolean:
		return boolRank(a.Bool()) - boolRank(b.Bool()), false, nil

	case types.IsSubtypeOf(a.typ, types.TypeDuration) && types.IsSubtypeOf(b.typ, types.TypeDuration):
		da, db := a.Duration(), b.Duration()
		if ordering {
			switch {
			case a.typ == types.TypeYearMonthDuration && b.typ == types.TypeYearMonthDuration:
				return cmpInt64(da.Months, db.Months), false, nil
			case a.typ == types.TypeDayTimeDuration && b.typ == types.TypeDayTimeDuration:
				return cmpInt64(int64(da.Seconds), int64(db.Seconds)), false, nil
			}
			break
		}
		if da == db {
			return 0, false, nil
		}
		return 1, false, nil

	case a.typ == b.typ && (a.typ == types.TypeDateTime || a.typ == types.TypeDate || a.typ == types.TypeTime):
		ta, tb := a.DateTime().inZone(tz), b.DateTime().inZone(tz)
		return ta.Compare(tb), false, nil

	case a.typ == types.TypeQName && b.typ == types.TypeQName:
		if ordering {
			break
		}
		if a.QName().Equal(b.QName()) {
			return 0, false, nil
		}
		return 1, false, nil

	case a.typ == b.typ && (a.typ == types.TypeHexBinary || a.typ == types.TypeBase64Binary):
		return bytes.Compare(a.Bytes(), b.Bytes()), false, nil
	}
	return 0, false, types.Errorf(types.ErrType, "cannot compare %s with %s", a.typ, b.typ)
}

func compareNumeric(a, b AtomicValue) (int, bool, error) {
	if ia, ok := a.v.(int64); ok {
		if ib, ok := b.v.(int64); ok {
			return cmpInt64(ia, ib), false, nil
		}
	}
	_, fa := a.v.(float64)
	_, fb := b.v.(float64)
	if fa || fb {
		x, y := a.Float(), b.Float()
		if math.IsNaN(x) || math.IsNaN(y) {
			return 0, true, nil
		}
		switch {
		case x < y:
			return -1, false, nil
		case x > y:
			return 1, false, nil
		}
		return 0, false, nil
	}
	return a.Decimal().Cmp(b.Decimal()), false, nil
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ValueCompare applies a value comparison operator (eq, ne, lt, le, gt,
// ge). Untyped operands compare as strings.
func ValueCompare(op string, a, b AtomicValue, tz *time.Location) (bool, error) {
	if a.typ == types.TypeUntypedAtomic {
		a = NewString(a.Str())
	}
	if b.typ == types.TypeUntypedAtomic {
		b = NewString(b.Str())
	}
	ordering := op != "eq" && op != "ne"
	cmp, unordered, err := compareAtomic(a, b, tz, ordering)
	if err != nil {
		return false, err
	}
	if unordered {
		return op == "ne", nil
	}
	switch op {
	case "eq":
		return cmp == 0, nil
	case "ne":
		return cmp != 0, nil
	case "lt":
		return cmp < 0, nil
	case "le":
		return cmp <= 0, nil
	case "gt":
		return cmp > 0, nil
	case "ge":
		return cmp >= 0, nil
	}
	return false, types.Errorf(types.ErrSyntax, "unknown comparison operator %q", op)
}

// GeneralCompare applies a general comparison operator existentially over
// two atomized sequences.
func GeneralCompare(op string, lhs, rhs []AtomicValue, tz *time.Location) (bool, error) {
	vop, ok := valueOperators[op]
	if !ok {
		return false, types.Errorf(types.ErrSyntax, "unknown comparison operator %q", op)
	}
	for _, a := range lhs {
		for _, b := range rhs {
			x, y, err := generalOperands(a, b)
			if err != nil {
				return false, err
			}
			res, err := ValueCompare(vop, x, y, tz)
			if err != nil {
				return false, err
			}
			if res {
				return true, nil
			}
		}
	}
	return false, nil
}

// generalOperands casts untyped operands for a general comparison.
func generalOperands(a, b AtomicValue) (AtomicValue, AtomicValue, error) {
	ua, ub := a.typ == types.TypeUntypedAtomic, b.typ == types.TypeUntypedAtomic
	var err error
	switch {
	case ua && ub:
		return NewString(a.Str()), NewString(b.Str()), nil
	case ua:
		a, err = castUntypedFor(a, b.typ)
	case ub:
		b, err = castUntypedFor(b, a.typ)
	}
	return a, b, err
}

func castUntypedFor(u AtomicValue, other types.ValueType) (AtomicValue, error) {
	switch {
	case other.IsNumeric():
		return CastToType(u, types.TypeDouble)
	case isStringLike(other):
		return NewString(u.Str()), nil
	}
	return CastToType(u, types.PrimitiveOf(other))
}

// DeepEqual yields one boolean telling whether a and b are deep-equal.
// Numeric values compare by value across types, NaN equals NaN, and nodes
// compare structurally. Members of maps and arrays are realized through
// MapAll, so pending member production suspends the returned cursor.
func DeepEqual(a, b []Value, ep *ExecutionParameters, tz *time.Location) *Sequence {
	return Deferred(func() *Sequence { return deepEqualFrom(a, b, 0, ep, tz) })
}

// memberPair is a pair of map or array members still to be compared.
type memberPair struct{ a, b Lazy }

func deepEqualFrom(a, b []Value, i int, ep *ExecutionParameters, tz *time.Location) *Sequence {
	if len(a) != len(b) {
		return boolSequence(false)
	}
	for ; i < len(a); i++ {
		eq, members, err := deepEqualShallow(a[i], b[i], ep, tz)
		if err != nil {
			return Errored(err)
		}
		if !eq {
			return boolSequence(false)
		}
		if len(members) > 0 {
			next := i + 1
			return deepEqualMembers(members, ep, tz, func() *Sequence {
				return deepEqualFrom(a, b, next, ep, tz)
			})
		}
	}
	return boolSequence(true)
}

func deepEqualMembers(pairs []memberPair, ep *ExecutionParameters, tz *time.Location, rest func() *Sequence) *Sequence {
	if len(pairs) == 0 {
		return rest()
	}
	p := pairs[0]
	return collect([]*Sequence{p.a(), p.b()}, func(values [][]Value) *Sequence {
		return deepEqualFrom(values[0], values[1], 0, ep, tz).MapAll(func(eq []Value) *Sequence {
			if len(eq) != 1 || !eq[0].(AtomicValue).Bool() {
				return boolSequence(false)
			}
			return deepEqualMembers(pairs[1:], ep, tz, rest)
		})
	})
}

// deepEqualItem compares two items that hold no lazy members, such as
// atomic values.
func deepEqualItem(a, b Value, ep *ExecutionParameters, tz *time.Location) (bool, error) {
	eq, _, err := deepEqualShallow(a, b, ep, tz)
	return eq, err
}

// deepEqualShallow compares a and b without realizing lazy members. For
// maps and arrays that match in shape it returns the member pairs that
// decide the result.
func deepEqualShallow(a, b Value, ep *ExecutionParameters, tz *time.Location) (bool, []memberPair, error) {
	if isPlainFunction(a) || isPlainFunction(b) {
		return false, nil, types.Errorf(types.ErrDeepEqualFunction, "deep-equal is not defined for function items")
	}
	switch x := a.(type) {
	case AtomicValue:
		y, ok := b.(AtomicValue)
		if !ok {
			return false, nil, nil
		}
		if x.IsNaN() && y.IsNaN() {
			return true, nil, nil
		}
		eq, err := ValueCompare("eq", x, y, tz)
		if err != nil {
			// Incomparable types are simply not equal.
			return false, nil, nil
		}
		return eq, nil, nil

	case NodeValue:
		y, ok := b.(NodeValue)
		if !ok {
			return false, nil, nil
		}
		f, err := ep.requireTree()
		if err != nil {
			return false, nil, err
		}
		return deepEqualNode(f, x.pointer, y.pointer), nil, nil

	case *MapValue:
		y, ok := b.(*MapValue)
		if !ok || x.Size() != y.Size() {
			return false, nil, nil
		}
		pairs := make([]memberPair, 0, x.Size())
		for _, e := range x.entries {
			other, ok := y.Get(e.Key)
			if !ok {
				return false, nil, nil
			}
			pairs = append(pairs, memberPair{e.Value, other})
		}
		return true, pairs, nil

	case *ArrayValue:
		y, ok := b.(*ArrayValue)
		if !ok || x.Size() != y.Size() {
			return false, nil, nil
		}
		pairs := make([]memberPair, len(x.members))
		for i := range x.members {
			pairs[i] = memberPair{x.members[i], y.members[i]}
		}
		return true, pairs, nil
	}
	return false, nil, nil
}

func isPlainFunction(v Value) bool {
	_, ok := v.(*FunctionValue)
	return ok
}

func deepEqualNode(f tree.Facade, a, b tree.Pointer) bool {
	if a == b {
		return true
	}
	kind := f.Kind(a)
	if kind != f.Kind(b) {
		return false
	}
	switch kind {
	case tree.ElementKind, tree.AttributeKind, tree.ProcessingInstructionKind:
		if f.LocalName(a) != f.LocalName(b) || f.NamespaceURI(a) != f.NamespaceURI(b) {
			return false
		}
	}
	switch kind {
	case tree.AttributeKind, tree.TextKind, tree.CommentKind, tree.ProcessingInstructionKind:
		return f.Data(a) == f.Data(b)
	case tree.ElementKind:
		if !deepEqualAttributes(f, f.Attributes(a), f.Attributes(b)) {
			return false
		}
	}
	ca, cb := significantChildren(f, a), significantChildren(f, b)
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if !deepEqualNode(f, ca[i], cb[i]) {
			return false
		}
	}
	return true
}

func deepEqualAttributes(f tree.Facade, a, b []tree.Pointer) bool {
	if len(a) != len(b) {
		return false
	}
outer:
	for _, x := range a {
		for _, y := range b {
			if deepEqualNode(f, x, y) {
				continue outer
			}
		}
		return false
	}
	return true
}

// significantChildren drops comments and processing instructions, which
// deep-equal ignores.
func significantChildren(f tree.Facade, p tree.Pointer) []tree.Pointer {
	var out []tree.Pointer
	for _, c := range f.Children(p) {
		switch f.Kind(c) {
		case tree.ElementKind, tree.TextKind:
			out = append(out, c)
		}
	}
	return out
}
