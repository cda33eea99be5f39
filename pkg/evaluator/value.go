package evaluator

import (
	"encoding/base64"
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

// Value is an item of a sequence. Every value carries a lattice type that
// never changes after construction.
type Value interface {
	Type() types.ValueType
	String() string
}

// decimalCtx is the arithmetic context for xs:decimal.
var decimalCtx = apd.BaseContext.WithPrecision(34)

// AtomicValue is an atomic item. The payload depends on the primitive type:
//
//	string, untypedAtomic, anyURI   string
//	boolean                         bool
//	integer and its subtypes        int64
//	decimal                         *apd.Decimal
//	float, double                   float64 (float values are rounded to float32)
//	dateTime, date, time            DateTime
//	duration and its subtypes       Duration
//	QName                           types.QName
//	hexBinary, base64Binary         []byte
type AtomicValue struct {
	typ types.ValueType
	v   any
}

// Type implements Value.
func (a AtomicValue) Type() types.ValueType { return a.typ }

// Payload returns the Go representation of the value.
func (a AtomicValue) Payload() any { return a.v }

// NewString creates an xs:string.
func NewString(s string) AtomicValue {
	return AtomicValue{typ: types.TypeString, v: s}
}

// NewUntypedAtomic creates an xs:untypedAtomic.
func NewUntypedAtomic(s string) AtomicValue {
	return AtomicValue{typ: types.TypeUntypedAtomic, v: s}
}

// NewAnyURI creates an xs:anyURI.
func NewAnyURI(s string) AtomicValue {
	return AtomicValue{typ: types.TypeAnyURI, v: s}
}

// NewBoolean creates an xs:boolean.
func NewBoolean(b bool) AtomicValue {
	return AtomicValue{typ: types.TypeBoolean, v: b}
}

// NewInteger creates an xs:integer.
func NewInteger(i int64) AtomicValue {
	return AtomicValue{typ: types.TypeInteger, v: i}
}

// newIntegerOfType creates a value of an integer subtype; callers check the
// range.
func newIntegerOfType(t types.ValueType, i int64) AtomicValue {
	return AtomicValue{typ: t, v: i}
}

// NewDecimal creates an xs:decimal.
func NewDecimal(d *apd.Decimal) AtomicValue {
	return AtomicValue{typ: types.TypeDecimal, v: d}
}

// NewDecimalFromInt64 creates an xs:decimal holding an integral value.
func NewDecimalFromInt64(i int64) AtomicValue {
	return NewDecimal(apd.New(i, 0))
}

// NewDouble creates an xs:double.
func NewDouble(f float64) AtomicValue {
	return AtomicValue{typ: types.TypeDouble, v: f}
}

// NewFloat creates an xs:float, rounding to single precision.
func NewFloat(f float64) AtomicValue {
	return AtomicValue{typ: types.TypeFloat, v: float64(float32(f))}
}

// NewQName creates an xs:QName.
func NewQName(q types.QName) AtomicValue {
	return AtomicValue{typ: types.TypeQName, v: q}
}

// NewHexBinary creates an xs:hexBinary.
func NewHexBinary(b []byte) AtomicValue {
	return AtomicValue{typ: types.TypeHexBinary, v: b}
}

// NewBase64Binary creates an xs:base64Binary.
func NewBase64Binary(b []byte) AtomicValue {
	return AtomicValue{typ: types.TypeBase64Binary, v: b}
}

// Str returns the payload of string-like values.
func (a AtomicValue) Str() string {
	s, _ := a.v.(string)
	return s
}

// Bool returns the payload of xs:boolean.
func (a AtomicValue) Bool() bool {
	b, _ := a.v.(bool)
	return b
}

// Int returns the payload of integer values.
func (a AtomicValue) Int() int64 {
	i, _ := a.v.(int64)
	return i
}

// Decimal returns the value as a decimal. Integers are converted.
func (a AtomicValue) Decimal() *apd.Decimal {
	switch v := a.v.(type) {
	case *apd.Decimal:
		return v
	case int64:
		return apd.New(v, 0)
	case float64:
		d := new(apd.Decimal)
		if _, err := d.SetFloat64(v); err != nil {
			return apd.New(0, 0)
		}
		return d
	}
	return apd.New(0, 0)
}

// Float returns the value as a float64 for any numeric type.
func (a AtomicValue) Float() float64 {
	switch v := a.v.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case *apd.Decimal:
		f, err := v.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// DateTime returns the payload of date and time values.
func (a AtomicValue) DateTime() DateTime {
	d, _ := a.v.(DateTime)
	return d
}

// Duration returns the payload of duration values.
func (a AtomicValue) Duration() Duration {
	d, _ := a.v.(Duration)
	return d
}

// QName returns the payload of xs:QName.
func (a AtomicValue) QName() types.QName {
	q, _ := a.v.(types.QName)
	return q
}

// Bytes returns the payload of binary values.
func (a AtomicValue) Bytes() []byte {
	b, _ := a.v.([]byte)
	return b
}

// IsNaN reports whether a is a float or double NaN.
func (a AtomicValue) IsNaN() bool {
	f, ok := a.v.(float64)
	return ok && math.IsNaN(f)
}

// String renders the canonical lexical form.
func (a AtomicValue) String() string {
	switch v := a.v.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(v, 10)
	case *apd.Decimal:
		return formatDecimal(v)
	case float64:
		if a.typ == types.TypeFloat {
			return formatFloatingPoint(v, 32)
		}
		return formatFloatingPoint(v, 64)
	case DateTime:
		return v.format(a.typ)
	case Duration:
		return v.format(a.typ)
	case types.QName:
		if v.Prefix != "" {
			return v.Prefix + ":" + v.Local
		}
		return v.Local
	case []byte:
		if a.typ == types.TypeHexBinary {
			return strings.ToUpper(hex.EncodeToString(v))
		}
		return base64.StdEncoding.EncodeToString(v)
	}
	return ""
}

// formatDecimal renders an xs:decimal without exponent and without
// insignificant trailing zeros.
func formatDecimal(d *apd.Decimal) string {
	var r apd.Decimal
	r.Reduce(d)
	s := r.Text('f')
	if s == "-0" {
		return "0"
	}
	return s
}

// formatFloatingPoint renders xs:double and xs:float values. Magnitudes in
// [1e-6, 1e6) use plain decimal notation; others use the mantissa/exponent
// form, e.g. 1.0E6.
func formatFloatingPoint(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case f == 0:
		if math.Signbit(f) {
			return "-0"
		}
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e6 {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}
	s := strconv.FormatFloat(f, 'E', -1, bits)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(e)
}

// NodeValue is an item referencing a node of an external tree.
type NodeValue struct {
	pointer tree.Pointer
	typ     types.ValueType
}

// NewNodeValue creates a node item; kind selects its lattice type.
func NewNodeValue(p tree.Pointer, kind tree.Kind) NodeValue {
	return NodeValue{pointer: p, typ: nodeKindType(kind)}
}

// Pointer returns the opaque node handle.
func (n NodeValue) Pointer() tree.Pointer { return n.pointer }

// Type implements Value.
func (n NodeValue) Type() types.ValueType { return n.typ }

// String describes the node kind; use atomization for its content.
func (n NodeValue) String() string { return n.typ.String() }

func nodeKindType(kind tree.Kind) types.ValueType {
	switch kind {
	case tree.DocumentKind:
		return types.TypeDocument
	case tree.ElementKind:
		return types.TypeElement
	case tree.AttributeKind:
		return types.TypeAttribute
	case tree.TextKind:
		return types.TypeText
	case tree.CommentKind:
		return types.TypeComment
	case tree.ProcessingInstructionKind:
		return types.TypeProcessingInstruction
	}
	return types.TypeNode
}
