package types

// ValueType is a node of the fixed semantic type lattice.
type ValueType int

// Lattice members. The order of declaration is irrelevant; the parent table
// below defines the partial order.
const (
	TypeItem ValueType = iota

	TypeNode
	TypeDocument
	TypeElement
	TypeAttribute
	TypeText
	TypeComment
	TypeProcessingInstruction

	TypeFunction
	TypeMap
	TypeArray

	TypeAnyAtomic
	TypeUntypedAtomic
	TypeString
	TypeAnyURI
	TypeBoolean
	TypeNumeric
	TypeDecimal
	TypeInteger
	TypeLong
	TypeInt
	TypeShort
	TypeByte
	TypeNonNegativeInteger
	TypePositiveInteger
	TypeNonPositiveInteger
	TypeNegativeInteger
	TypeFloat
	TypeDouble
	TypeDuration
	TypeYearMonthDuration
	TypeDayTimeDuration
	TypeDateTime
	TypeDate
	TypeTime
	TypeQName
	TypeHexBinary
	TypeBase64Binary

	numValueTypes
)

// typeInfo describes a lattice node.
type typeInfo struct {
	name string
	// parent is the direct supertype; the root (item()) points to itself.
	parent ValueType
	// members lists the member types of a union type (xs:numeric).
	members []ValueType
}

var lattice = [numValueTypes]typeInfo{
	TypeItem: {name: "item()", parent: TypeItem},

	TypeNode:                  {name: "node()", parent: TypeItem},
	TypeDocument:              {name: "document-node()", parent: TypeNode},
	TypeElement:               {name: "element()", parent: TypeNode},
	TypeAttribute:             {name: "attribute()", parent: TypeNode},
	TypeText:                  {name: "text()", parent: TypeNode},
	TypeComment:               {name: "comment()", parent: TypeNode},
	TypeProcessingInstruction: {name: "processing-instruction()", parent: TypeNode},

	TypeFunction: {name: "function(*)", parent: TypeItem},
	TypeMap:      {name: "map(*)", parent: TypeFunction},
	TypeArray:    {name: "array(*)", parent: TypeFunction},

	TypeAnyAtomic:          {name: "xs:anyAtomicType", parent: TypeItem},
	TypeUntypedAtomic:      {name: "xs:untypedAtomic", parent: TypeAnyAtomic},
	TypeString:             {name: "xs:string", parent: TypeAnyAtomic},
	TypeAnyURI:             {name: "xs:anyURI", parent: TypeAnyAtomic},
	TypeBoolean:            {name: "xs:boolean", parent: TypeAnyAtomic},
	TypeNumeric:            {name: "xs:numeric", parent: TypeAnyAtomic, members: []ValueType{TypeDecimal, TypeFloat, TypeDouble}},
	TypeDecimal:            {name: "xs:decimal", parent: TypeAnyAtomic},
	TypeInteger:            {name: "xs:integer", parent: TypeDecimal},
	TypeLong:               {name: "xs:long", parent: TypeInteger},
	TypeInt:                {name: "xs:int", parent: TypeLong},
	TypeShort:              {name: "xs:short", parent: TypeInt},
	TypeByte:               {name: "xs:byte", parent: TypeShort},
	TypeNonNegativeInteger: {name: "xs:nonNegativeInteger", parent: TypeInteger},
	TypePositiveInteger:    {name: "xs:positiveInteger", parent: TypeNonNegativeInteger},
	TypeNonPositiveInteger: {name: "xs:nonPositiveInteger", parent: TypeInteger},
	TypeNegativeInteger:    {name: "xs:negativeInteger", parent: TypeNonPositiveInteger},
	TypeFloat:              {name: "xs:float", parent: TypeAnyAtomic},
	TypeDouble:             {name: "xs:double", parent: TypeAnyAtomic},
	TypeDuration:           {name: "xs:duration", parent: TypeAnyAtomic},
	TypeYearMonthDuration:  {name: "xs:yearMonthDuration", parent: TypeDuration},
	TypeDayTimeDuration:    {name: "xs:dayTimeDuration", parent: TypeDuration},
	TypeDateTime:           {name: "xs:dateTime", parent: TypeAnyAtomic},
	TypeDate:               {name: "xs:date", parent: TypeAnyAtomic},
	TypeTime:               {name: "xs:time", parent: TypeAnyAtomic},
	TypeQName:              {name: "xs:QName", parent: TypeAnyAtomic},
	TypeHexBinary:          {name: "xs:hexBinary", parent: TypeAnyAtomic},
	TypeBase64Binary:       {name: "xs:base64Binary", parent: TypeAnyAtomic},
}

var typesByName = func() map[string]ValueType {
	m := make(map[string]ValueType, numValueTypes)
	for t := TypeItem; t < numValueTypes; t++ {
		m[lattice[t].name] = t
	}
	return m
}()

// String returns the lexical name of the type.
func (t ValueType) String() string {
	if t < 0 || t >= numValueTypes {
		return "unknown"
	}
	return lattice[t].name
}

// Valid reports whether t is a member of the lattice.
func (t ValueType) Valid() bool {
	return t >= 0 && t < numValueTypes
}

// Parent returns the direct supertype. The parent of item() is item().
func (t ValueType) Parent() ValueType {
	return lattice[t].parent
}

// LookupType resolves a lexical type name such as "xs:integer" or "map(*)".
func LookupType(name string) (ValueType, bool) {
	t, ok := typesByName[name]
	return t, ok
}

// IsSubtypeOf reports whether a ⊑ b. The relation is reflexive and
// transitive; union types (xs:numeric) contain their members and all of
// their members' subtypes.
func IsSubtypeOf(a, b ValueType) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	if members := lattice[b].members; members != nil {
		if a == b {
			return true
		}
		for _, m := range members {
			if IsSubtypeOf(a, m) {
				return true
			}
		}
		return false
	}
	for {
		if a == b {
			return true
		}
		parent := lattice[a].parent
		if parent == a {
			return false
		}
		a = parent
	}
}

// IsAtomic reports whether t is xs:anyAtomicType or one of its subtypes.
func (t ValueType) IsAtomic() bool {
	return IsSubtypeOf(t, TypeAnyAtomic)
}

// IsNode reports whether t is node() or one of its kinds.
func (t ValueType) IsNode() bool {
	return IsSubtypeOf(t, TypeNode)
}

// IsFunction reports whether t is a function, map or array type.
func (t ValueType) IsFunction() bool {
	return IsSubtypeOf(t, TypeFunction)
}

// IsNumeric reports whether t is one of the numeric types.
func (t ValueType) IsNumeric() bool {
	return IsSubtypeOf(t, TypeNumeric)
}

// PrimitiveOf returns the primitive atomic type t derives from. Integer
// subtypes collapse to xs:integer; other derived types map to their parent
// below xs:anyAtomicType.
func PrimitiveOf(t ValueType) ValueType {
	if IsSubtypeOf(t, TypeInteger) {
		return TypeInteger
	}
	for t.Valid() && lattice[t].parent != TypeAnyAtomic && lattice[t].parent != t {
		t = lattice[t].parent
	}
	return t
}
