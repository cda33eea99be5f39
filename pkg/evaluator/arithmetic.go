package evaluator

import (
	"math"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/goxq/pkg/types"
)

func divisionByZero() error {
	return types.Errorf(types.ErrDivisionByZero, "division by zero")
}

func overflow(op string) error {
	return types.Errorf(types.ErrNumericOverflow, "integer overflow in %s", op)
}

// Arithmetic applies a binary arithmetic operator (+, -, *, div, idiv,
// mod). Untyped operands are cast to xs:double.
func Arithmetic(op string, a, b AtomicValue, tz *time.Location) (AtomicValue, error) {
	var err error
	if a.typ == types.TypeUntypedAtomic {
		if a, err = CastToType(a, types.TypeDouble); err != nil {
			return AtomicValue{}, err
		}
	}
	if b.typ == types.TypeUntypedAtomic {
		if b, err = CastToType(b, types.TypeDouble); err != nil {
			return AtomicValue{}, err
		}
	}
	switch {
	case a.typ.IsNumeric() && b.typ.IsNumeric():
		return numericArithmetic(op, a, b)
	case types.IsSubtypeOf(a.typ, types.TypeDuration) || types.IsSubtypeOf(b.typ, types.TypeDuration) ||
		a.typ == types.TypeDateTime || a.typ == types.TypeDate || a.typ == types.TypeTime:
		return temporalArithmetic(op, a, b, tz)
	}
	return AtomicValue{}, types.Errorf(types.ErrType, "operator %s is not defined for %s and %s", op, a.typ, b.typ)
}

// Negate implements unary minus.
func Negate(a AtomicValue) (AtomicValue, error) {
	if a.typ == types.TypeUntypedAtomic {
		var err error
		if a, err = CastToType(a, types.TypeDouble); err != nil {
			return AtomicValue{}, err
		}
	}
	switch x := a.v.(type) {
	case int64:
		if x == math.MinInt64 {
			return AtomicValue{}, overflow("-")
		}
		return NewInteger(-x), nil
	case *apd.Decimal:
		var r apd.Decimal
		r.Neg(x)
		return NewDecimal(&r), nil
	case float64:
		return AtomicValue{typ: a.typ, v: -x}, nil
	case Duration:
		return NewDuration(a.typ, -x.Months, -x.Seconds), nil
	}
	return AtomicValue{}, types.Errorf(types.ErrType, "unary minus is not defined for %s", a.typ)
}

// numericResultType returns the type both operands are promoted to.
func numericResultType(a, b types.ValueType) types.ValueType {
	switch {
	case a == types.TypeDouble || b == types.TypeDouble:
		return types.TypeDouble
	case a == types.TypeFloat || b == types.TypeFloat:
		return types.TypeFloat
	case types.IsSubtypeOf(a, types.TypeInteger) && types.IsSubtypeOf(b, types.TypeInteger):
		return types.TypeInteger
	}
	return types.TypeDecimal
}

func numericArithmetic(op string, a, b AtomicValue) (AtomicValue, error) {
	switch numericResultType(a.typ, b.typ) {
	case types.TypeInteger:
		return integerArithmetic(op, a.Int(), b.Int())
	case types.TypeDecimal:
		return decimalArithmetic(op, a.Decimal(), b.Decimal())
	case types.TypeFloat:
		r, err := floatArithmetic(op, a.Float(), b.Float())
		if err != nil || r.typ == types.TypeInteger {
			return r, err
		}
		return NewFloat(r.Float()), nil
	}
	return floatArithmetic(op, a.Float(), b.Float())
}

func integerArithmetic(op string, x, y int64) (AtomicValue, error) {
	switch op {
	case "+":
		r := x + y
		if (x > 0 && y > 0 && r < 0) || (x < 0 && y < 0 && r >= 0) {
			return AtomicValue{}, overflow(op)
		}
		return NewInteger(r), nil
	case "-":
		r := x - y
		if (x >= 0 && y < 0 && r < 0) || (x < 0 && y > 0 && r >= 0) {
			return AtomicValue{}, overflow(op)
		}
		return NewInteger(r), nil
	case "*":
		if x == 0 || y == 0 {
			return NewInteger(0), nil
		}
		r := x * y
		if r/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return AtomicValue{}, overflow(op)
		}
		return NewInteger(r), nil
	case "div":
		return decimalArithmetic(op, apd.New(x, 0), apd.New(y, 0))
	case "idiv":
		if y == 0 {
			return AtomicValue{}, divisionByZero()
		}
		if x == math.MinInt64 && y == -1 {
			return AtomicValue{}, overflow(op)
		}
		return NewInteger(x / y), nil
	case "mod":
		if y == 0 {
			return AtomicValue{}, divisionByZero()
		}
		if y == -1 {
			return NewInteger(0), nil
		}
		return NewInteger(x % y), nil
	}
	return AtomicValue{}, types.Errorf(types.ErrSyntax, "unknown operator %q", op)
}

func decimalArithmetic(op string, x, y *apd.Decimal) (AtomicValue, error) {
	r := new(apd.Decimal)
	var err error
	switch op {
	case "+":
		_, err = decimalCtx.Add(r, x, y)
	case "-":
		_, err = decimalCtx.Sub(r, x, y)
	case "*":
		_, err = decimalCtx.Mul(r, x, y)
	case "div":
		if y.IsZero() {
			return AtomicValue{}, divisionByZero()
		}
		_, err = decimalCtx.Quo(r, x, y)
	case "idiv":
		if y.IsZero() {
			return AtomicValue{}, divisionByZero()
		}
		if _, err = decimalCtx.QuoInteger(r, x, y); err != nil {
			return AtomicValue{}, overflow(op)
		}
		i, err := r.Int64()
		if err != nil {
			return AtomicValue{}, overflow(op)
		}
		return NewInteger(i), nil
	case "mod":
		if y.IsZero() {
			return AtomicValue{}, divisionByZero()
		}
		_, err = decimalCtx.Rem(r, x, y)
	default:
		return AtomicValue{}, types.Errorf(types.ErrSyntax, "unknown operator %q", op)
	}
	if err != nil {
		return AtomicValue{}, types.Errorf(types.ErrNumericOverflow, "decimal %s: %v", op, err)
	}
	return NewDecimal(r), nil
}

func floatArithmetic(op string, x, y float64) (AtomicValue, error) {
	switch op {
	case "+":
		return NewDouble(x + y), nil
	case "-":
		return NewDouble(x - y), nil
	case "*":
		return NewDouble(x * y), nil
	case "div":
		return NewDouble(x / y), nil
	case "idiv":
		if y == 0 {
			return AtomicValue{}, divisionByZero()
		}
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) {
			return AtomicValue{}, types.Errorf(types.ErrNumericOverflow, "idiv operand is NaN or infinite")
		}
		q := math.Trunc(x / y)
		if q < math.MinInt64 || q >= math.MaxInt64 {
			return AtomicValue{}, overflow(op)
		}
		return NewInteger(int64(q)), nil
	case "mod":
		return NewDouble(math.Mod(x, y)), nil
	}
	return AtomicValue{}, types.Errorf(types.ErrSyntax, "unknown operator %q", op)
}

func isDateLike(t types.ValueType) bool {
	return t == types.TypeDateTime || t == types.TypeDate || t == types.TypeTime
}

func temporalArithmetic(op string, a, b AtomicValue, tz *time.Location) (AtomicValue, error) {
	ad, bd := types.IsSubtypeOf(a.typ, types.TypeDuration), types.IsSubtypeOf(b.typ, types.TypeDuration)
	switch {
	case ad && bd && (op == "+" || op == "-") && a.typ == b.typ && a.typ != types.TypeDuration:
		x, y := a.Duration(), b.Duration()
		if op == "-" {
			y = Duration{Months: -y.Months, Seconds: -y.Seconds}
		}
		return NewDuration(a.typ, x.Months+y.Months, x.Seconds+y.Seconds), nil

	case ad && bd && op == "div" && a.typ == b.typ && a.typ != types.TypeDuration:
		x, y := a.Duration(), b.Duration()
		num, den := apd.New(x.Months, 0), apd.New(y.Months, 0)
		if a.typ == types.TypeDayTimeDuration {
			num, den = apd.New(int64(x.Seconds), 0), apd.New(int64(y.Seconds), 0)
		}
		return decimalArithmetic("div", num, den)

	case ad && b.typ.IsNumeric() && (op == "*" || op == "div") && a.typ != types.TypeDuration:
		f := b.Float()
		if op == "div" {
			if f == 0 {
				return AtomicValue{}, types.Errorf(types.ErrDurationOverflow, "duration divided by zero")
			}
			f = 1 / f
		}
		if math.IsNaN(f) {
			return AtomicValue{}, types.Errorf(types.ErrType, "cannot multiply a duration by NaN")
		}
		d := a.Duration()
		return NewDuration(a.typ, int64(math.Round(float64(d.Months)*f)), time.Duration(math.Round(float64(d.Seconds)*f))), nil

	case bd && a.typ.IsNumeric() && op == "*":
		return temporalArithmetic(op, b, a, tz)

	case isDateLike(a.typ) && bd && (op == "+" || op == "-"):
		d := b.Duration()
		if op == "-" {
			d = Duration{Months: -d.Months, Seconds: -d.Seconds}
		}
		if a.typ == types.TypeTime && d.Months != 0 {
			break
		}
		dt := a.DateTime()
		t := dt.Time.AddDate(0, int(d.Months), 0).Add(d.Seconds)
		if a.typ == types.TypeTime {
			t = time.Date(1972, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
		}
		if a.typ == types.TypeDate {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}
		return NewDateTime(a.typ, t, dt.HasTZ), nil

	case ad && isDateLike(b.typ) && op == "+":
		return temporalArithmetic(op, b, a, tz)

	case isDateLike(a.typ) && a.typ == b.typ && op == "-":
		diff := a.DateTime().inZone(tz).Sub(b.DateTime().inZone(tz))
		return NewDuration(types.TypeDayTimeDuration, 0, diff), nil
	}
	return AtomicValue{}, types.Errorf(types.ErrType, "operator %s is not defined for %s and %s", op, a.typ, b.typ)
}
