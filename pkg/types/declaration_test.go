package types

import "testing"

func TestParseTypeDeclaration(t *testing.T) {
	tests := []struct {
		in   string
		want TypeDeclaration
	}{
		{"xs:string", TypeDeclaration{TypeString, ExactlyOne}},
		{"xs:string?", TypeDeclaration{TypeString, ZeroOrOne}},
		{"item()*", TypeDeclaration{TypeItem, ZeroOrMore}},
		{"node()+", TypeDeclaration{TypeNode, OneOrMore}},
		{"map(*)", TypeDeclaration{TypeMap, ExactlyOne}},
		{"array(*)?", TypeDeclaration{TypeArray, ZeroOrOne}},
		{"function(*)", TypeDeclaration{TypeFunction, ExactlyOne}},
		{"element(foo)*", TypeDeclaration{TypeElement, ZeroOrMore}},
		{"function(xs:string) as item()*", TypeDeclaration{TypeFunction, ExactlyOne}},
		{"(function(xs:string) as item()*)*", TypeDeclaration{TypeFunction, ZeroOrMore}},
		{" xs:anyAtomicType* ", TypeDeclaration{TypeAnyAtomic, ZeroOrMore}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTypeDeclaration(tt.in)
			if err != nil {
				t.Fatalf("ParseTypeDeclaration(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTypeDeclarationErrors(t *testing.T) {
	tests := []struct {
		in   string
		code ErrorCode
	}{
		{"", ErrSyntax},
		{"xs:nope", ErrUnknownAtomicType},
		{"banana", ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseTypeDeclaration(tt.in)
			if got := CodeOf(err); got != tt.code {
				t.Errorf("got code %q (%v), want %q", got, err, tt.code)
			}
		})
	}
}

func TestMultiplicityAllows(t *testing.T) {
	tests := []struct {
		m    Multiplicity
		n    int
		want bool
	}{
		{ExactlyOne, 0, false},
		{ExactlyOne, 1, true},
		{ExactlyOne, 2, false},
		{ZeroOrOne, 0, true},
		{ZeroOrOne, 2, false},
		{OneOrMore, 0, false},
		{OneOrMore, 5, true},
		{ZeroOrMore, 0, true},
	}
	for _, tt := range tests {
		if got := tt.m.Allows(tt.n); got != tt.want {
			t.Errorf("%v.Allows(%d) = %v, want %v", tt.m, tt.n, got, tt.want)
		}
	}
}

func TestErrorRendering(t *testing.T) {
	err := NewError(ErrType, "bad", 4)
	if got, want := err.Error(), "XPTY0004 at position 4: bad"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	err = Errorf(ErrExactlyOne, "%d items", 2)
	if got, want := err.Error(), "FORG0005: 2 items"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestQNameString(t *testing.T) {
	if got := NewQName(NamespaceFn, "concat").String(); got != "fn:concat" {
		t.Errorf("got %q", got)
	}
	if got := NewQName("urn:x", "f").String(); got != "Q{urn:x}f" {
		t.Errorf("got %q", got)
	}
	if got := (QName{Prefix: "p", Namespace: "urn:x", Local: "f"}).String(); got != "p:f" {
		t.Errorf("got %q", got)
	}
}
