package types

import "testing"

func TestIsSubtypeOf(t *testing.T) {
	tests := []struct {
		a, b ValueType
		want bool
	}{
		{TypeInteger, TypeDecimal, true},
		{TypeByte, TypeInteger, true},
		{TypeByte, TypeAnyAtomic, true},
		{TypeByte, TypeItem, true},
		{TypeDecimal, TypeInteger, false},
		{TypeInteger, TypeNumeric, true},
		{TypeDouble, TypeNumeric, true},
		{TypeFloat, TypeNumeric, true},
		{TypeNumeric, TypeNumeric, true},
		{TypeString, TypeNumeric, false},
		{TypeNumeric, TypeDecimal, false},
		{TypeMap, TypeFunction, true},
		{TypeArray, TypeFunction, true},
		{TypeMap, TypeArray, false},
		{TypeElement, TypeNode, true},
		{TypeNode, TypeElement, false},
		{TypeElement, TypeAnyAtomic, false},
		{TypeDayTimeDuration, TypeDuration, true},
		{TypeAnyURI, TypeString, false},
		{TypeUntypedAtomic, TypeString, false},
		{TypeItem, TypeItem, true},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+" <: "+tt.b.String(), func(t *testing.T) {
			if got := IsSubtypeOf(tt.a, tt.b); got != tt.want {
				t.Errorf("IsSubtypeOf(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsSubtypeOfReflexiveAndTransitive(t *testing.T) {
	for a := TypeItem; a < numValueTypes; a++ {
		if !IsSubtypeOf(a, a) {
			t.Errorf("%v is not a subtype of itself", a)
		}
		if !IsSubtypeOf(a, TypeItem) {
			t.Errorf("%v is not a subtype of item()", a)
		}
		for b := TypeItem; b < numValueTypes; b++ {
			if !IsSubtypeOf(a, b) {
				continue
			}
			for c := TypeItem; c < numValueTypes; c++ {
				if IsSubtypeOf(b, c) && !IsSubtypeOf(a, c) {
					t.Errorf("%v <: %v <: %v but not %v <: %v", a, b, c, a, c)
				}
			}
			if a != b && IsSubtypeOf(b, a) {
				t.Errorf("cycle between %v and %v", a, b)
			}
		}
	}
}

func TestLookupType(t *testing.T) {
	for a := TypeItem; a < numValueTypes; a++ {
		got, ok := LookupType(a.String())
		if !ok || got != a {
			t.Errorf("LookupType(%q) = %v, %v", a.String(), got, ok)
		}
	}
	if _, ok := LookupType("xs:nope"); ok {
		t.Error("expected unknown type")
	}
}

func TestPrimitiveOf(t *testing.T) {
	tests := map[ValueType]ValueType{
		TypeByte:              TypeInteger,
		TypeInteger:           TypeInteger,
		TypeDecimal:           TypeDecimal,
		TypeYearMonthDuration: TypeDuration,
		TypeString:            TypeString,
	}
	for in, want := range tests {
		if got := PrimitiveOf(in); got != want {
			t.Errorf("PrimitiveOf(%v) = %v, want %v", in, got, want)
		}
	}
}
