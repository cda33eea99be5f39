package evaluator

import (
	"encoding/base64"
	"encoding/hex"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"

	"github.com/sandrolain/goxq/pkg/types"
)

var (
	integerLexical = regexp.MustCompile(`^[+-]?\d+$`)
	decimalLexical = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	doubleLexical  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// integerRanges bounds the derived integer types.
var integerRanges = map[types.ValueType][2]int64{
	types.TypeLong:               {math.MinInt64, math.MaxInt64},
	types.TypeInt:                {math.MinInt32, math.MaxInt32},
	types.TypeShort:              {math.MinInt16, math.MaxInt16},
	types.TypeByte:               {math.MinInt8, math.MaxInt8},
	types.TypeNonNegativeInteger: {0, math.MaxInt64},
	types.TypePositiveInteger:    {1, math.MaxInt64},
	types.TypeNonPositiveInteger: {math.MinInt64, 0},
	types.TypeNegativeInteger:    {math.MinInt64, -1},
}

func castError(v AtomicValue, target types.ValueType) error {
	return types.Errorf(types.ErrType, "cannot cast %s %q to %s", v.typ, v.String(), target)
}

func invalidValue(s string, target types.ValueType) error {
	return types.Errorf(types.ErrInvalidCastValue, "invalid lexical value %q for %s", s, target)
}

// CastToType converts v to target following the cast table. Casting a
// value to its own type returns it unchanged.
func CastToType(v AtomicValue, target types.ValueType) (AtomicValue, error) {
	if v.typ == target {
		return v, nil
	}
	switch target {
	case types.TypeNumeric:
		if v.typ.IsNumeric() {
			return v, nil
		}
		return CastToType(v, types.TypeDouble)
	case types.TypeAnyAtomic:
		return v, nil
	case types.TypeString:
		return NewString(v.String()), nil
	case types.TypeUntypedAtomic:
		return NewUntypedAtomic(v.String()), nil
	}
	if !target.IsAtomic() {
		return AtomicValue{}, castError(v, target)
	}

	if v.typ == types.TypeString || v.typ == types.TypeUntypedAtomic {
		return parseLexical(v.Str(), target)
	}

	switch {
	case target == types.TypeAnyURI:
		return AtomicValue{}, castError(v, target)

	case target == types.TypeBoolean:
		if !v.typ.IsNumeric() {
			return AtomicValue{}, castError(v, target)
		}
		b, err := effectiveBooleanValue([]Value{v})
		return NewBoolean(b), err

	case target.IsNumeric():
		return castToNumeric(v, target)

	case types.IsSubtypeOf(target, types.TypeDuration):
		if !types.IsSubtypeOf(v.typ, types.TypeDuration) {
			return AtomicValue{}, castError(v, target)
		}
		d := v.Duration()
		switch target {
		case types.TypeYearMonthDuration:
			return NewDuration(target, d.Months, 0), nil
		case types.TypeDayTimeDuration:
			return NewDuration(target, 0, d.Seconds), nil
		}
		return NewDuration(target, d.Months, d.Seconds), nil

	case target == types.TypeDateTime || target == types.TypeDate || target == types.TypeTime:
		return castDateTime(v, target)

	case target == types.TypeHexBinary || target == types.TypeBase64Binary:
		if v.typ != types.TypeHexBinary && v.typ != types.TypeBase64Binary {
			return AtomicValue{}, castError(v, target)
		}
		return AtomicValue{typ: target, v: v.Bytes()}, nil
	}
	return AtomicValue{}, castError(v, target)
}

func castToNumeric(v AtomicValue, target types.ValueType) (AtomicValue, error) {
	if v.typ == types.TypeBoolean {
		n := int64(0)
		if v.Bool() {
			n = 1
		}
		v = NewInteger(n)
	}
	if !v.typ.IsNumeric() {
		return AtomicValue{}, castError(v, target)
	}
	switch {
	case target == types.TypeDouble:
		return NewDouble(v.Float()), nil
	case target == types.TypeFloat:
		return NewFloat(v.Float()), nil
	case target == types.TypeDecimal:
		if f, ok := v.v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return AtomicValue{}, types.Errorf(types.ErrInvalidDecimalValue, "cannot cast %s to xs:decimal", v)
		}
		return NewDecimal(v.Decimal()), nil
	}

	// Integer and its subtypes.
	var i int64
	switch x := v.v.(type) {
	case int64:
		i = x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return AtomicValue{}, types.Errorf(types.ErrInvalidDecimalValue, "cannot cast %s to %s", v, target)
		}
		t := math.Trunc(x)
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return AtomicValue{}, types.Errorf(types.ErrInvalidDecimalValue, "%s is out of range for %s", v, target)
		}
		i = int64(t)
	case *apd.Decimal:
		n, err := truncated(x).Int64()
		if err != nil {
			return AtomicValue{}, types.Errorf(types.ErrInvalidDecimalValue, "%s is out of range for %s", v, target)
		}
		i = n
	}
	return integerOfType(i, target, v.String())
}

// truncated returns d rounded towards zero.
func truncated(d *apd.Decimal) *apd.Decimal {
	c := decimalCtx.WithPrecision(decimalCtx.Precision)
	c.Rounding = apd.RoundDown
	var r apd.Decimal
	_, _ = c.RoundToIntegralValue(&r, d)
	return &r
}

func integerOfType(i int64, target types.ValueType, lexical string) (AtomicValue, error) {
	if target == types.TypeInteger {
		return NewInteger(i), nil
	}
	r, ok := integerRanges[target]
	if !ok {
		return AtomicValue{}, types.Errorf(types.ErrType, "cannot cast to %s", target)
	}
	if i < r[0] || i > r[1] {
		return AtomicValue{}, invalidValue(lexical, target)
	}
	return newIntegerOfType(target, i), nil
}

func castDateTime(v AtomicValue, target types.ValueType) (AtomicValue, error) {
	if v.typ != types.TypeDateTime && v.typ != types.TypeDate && v.typ != types.TypeTime {
		return AtomicValue{}, castError(v, target)
	}
	d := v.DateTime()
	t := d.Time
	switch {
	case target == types.TypeDate && v.typ == types.TypeDateTime:
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case target == types.TypeTime && v.typ == types.TypeDateTime:
		t = time.Date(1972, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	case target == types.TypeDateTime && v.typ == types.TypeDate:
	default:
		return AtomicValue{}, castError(v, target)
	}
	return NewDateTime(target, t, d.HasTZ), nil
}

// parseLexical casts a string or untyped value to target.
func parseLexical(s string, target types.ValueType) (AtomicValue, error) {
	if target != types.TypeString {
		s = strings.TrimSpace(s)
	}
	switch {
	case target == types.TypeAnyURI:
		return NewAnyURI(s), nil

	case target == types.TypeBoolean:
		switch s {
		case "true", "1":
			return NewBoolean(true), nil
		case "false", "0":
			return NewBoolean(false), nil
		}
		return AtomicValue{}, invalidValue(s, target)

	case target == types.TypeDouble || target == types.TypeFloat:
		f, ok := parseDouble(s)
		if !ok {
			return AtomicValue{}, invalidValue(s, target)
		}
		if target == types.TypeFloat {
			return NewFloat(f), nil
		}
		return NewDouble(f), nil

	case target == types.TypeDecimal:
		if !decimalLexical.MatchString(s) {
			return AtomicValue{}, invalidValue(s, target)
		}
		d, _, err := apd.NewFromString(s)
		if err != nil {
			return AtomicValue{}, invalidValue(s, target)
		}
		return NewDecimal(d), nil

	case types.IsSubtypeOf(target, types.TypeInteger):
		if !integerLexical.MatchString(s) {
			return AtomicValue{}, invalidValue(s, target)
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return AtomicValue{}, types.Errorf(types.ErrNumericOverflow, "integer %s is out of range", s)
		}
		return integerOfType(i, target, s)

	case types.IsSubtypeOf(target, types.TypeDuration):
		return parseDuration(target, s)

	case target == types.TypeDateTime || target == types.TypeDate || target == types.TypeTime:
		return parseDateTime(target, s)

	case target == types.TypeHexBinary:
		b, err := hex.DecodeString(s)
		if err != nil {
			return AtomicValue{}, invalidValue(s, target)
		}
		return NewHexBinary(b), nil

	case target == types.TypeBase64Binary:
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(s), ""))
		if err != nil {
			return AtomicValue{}, invalidValue(s, target)
		}
		return NewBase64Binary(b), nil

	case target == types.TypeQName:
		prefix, local := types.SplitLexicalQName(s)
		if local == "" {
			return AtomicValue{}, invalidValue(s, target)
		}
		if prefix != "" {
			uri, ok := types.DefaultNamespaces[prefix]
			if !ok {
				return AtomicValue{}, types.Errorf(types.ErrNoNamespaceForPrefix, "no namespace bound to prefix %q", prefix)
			}
			return NewQName(types.QName{Prefix: prefix, Namespace: uri, Local: local}), nil
		}
		return NewQName(types.QName{Local: local}), nil
	}
	return AtomicValue{}, types.Errorf(types.ErrType, "cannot cast xs:string to %s", target)
}

// parseDouble parses the xs:double lexical space, including INF and NaN.
func parseDouble(s string) (float64, bool) {
	switch s {
	case "INF", "+INF":
		return math.Inf(1), true
	case "-INF":
		return math.Inf(-1), true
	case "NaN":
		return math.NaN(), true
	}
	if !doubleLexical.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

// PromoteToType applies the implicit promotions: numeric widening to
// xs:float and xs:double, xs:decimal to xs:float, and xs:anyURI to
// xs:string. It reports false when no rule applies.
func PromoteToType(v AtomicValue, target types.ValueType) (AtomicValue, bool) {
	if types.IsSubtypeOf(v.typ, target) {
		return v, true
	}
	switch target {
	case types.TypeDouble:
		if v.typ.IsNumeric() {
			return NewDouble(v.Float()), true
		}
	case types.TypeFloat:
		if types.IsSubtypeOf(v.typ, types.TypeDecimal) {
			return NewFloat(v.Float()), true
		}
	case types.TypeString:
		if v.typ == types.TypeAnyURI {
			return NewString(v.Str()), true
		}
	}
	return AtomicValue{}, false
}
