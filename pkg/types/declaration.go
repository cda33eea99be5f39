package types

import (
	"fmt"
	"strings"
)

// TypeDeclaration pairs a lattice type with a multiplicity. It declares
// function parameters, return types and the operands of instance of,
// treat as and cast as.
type TypeDeclaration struct {
	Type         ValueType
	Multiplicity Multiplicity
}

// Common declarations.
var (
	AnyItems      = TypeDeclaration{Type: TypeItem, Multiplicity: ZeroOrMore}
	AnyAtomics    = TypeDeclaration{Type: TypeAnyAtomic, Multiplicity: ZeroOrMore}
	OptionalAtom  = TypeDeclaration{Type: TypeAnyAtomic, Multiplicity: ZeroOrOne}
	SingleBoolean = TypeDeclaration{Type: TypeBoolean, Multiplicity: ExactlyOne}
)

// String renders the declaration as a sequence type, e.g. "xs:string?".
func (d TypeDeclaration) String() string {
	return d.Type.String() + d.Multiplicity.Symbol()
}

// ParseTypeDeclaration parses a sequence type such as "xs:string?",
// "item()*", "map(*)", "element()+" or "function(xs:string) as item()*".
// Atomic types must use the xs prefix; parameterised function, map,
// array and node tests are reduced to their lattice member.
func ParseTypeDeclaration(s string) (TypeDeclaration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeDeclaration{}, Errorf(ErrSyntax, "empty sequence type")
	}

	decl := TypeDeclaration{Multiplicity: ExactlyOne}
	// In "function(...) as item()*" the indicator belongs to the return type.
	if strings.HasPrefix(s, "function(") && strings.Contains(s, ") as ") {
		decl.Type = TypeFunction
		return decl, nil
	}
	if last := s[len(s)-1]; last == '?' || last == '*' || last == '+' {
		if m, ok := ParseMultiplicity(string(last)); ok && !isBareWildcardTest(s) {
			decl.Multiplicity = m
			s = strings.TrimSpace(s[:len(s)-1])
		}
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	t, err := parseItemType(s)
	if err != nil {
		return TypeDeclaration{}, err
	}
	decl.Type = t
	return decl, nil
}

// MustParseTypeDeclaration is like ParseTypeDeclaration but panics on error.
// It is intended for static function tables.
func MustParseTypeDeclaration(s string) TypeDeclaration {
	d, err := ParseTypeDeclaration(s)
	if err != nil {
		panic(fmt.Sprintf("types: ParseTypeDeclaration(%q): %v", s, err))
	}
	return d
}

// isBareWildcardTest reports whether s is a test like "*" that must not
// be read as an occurrence indicator.
func isBareWildcardTest(s string) bool {
	return s == "*" || s == "?" || s == "+"
}

func parseItemType(s string) (ValueType, error) {
	if t, ok := LookupType(s); ok {
		return t, nil
	}

	open := strings.IndexByte(s, '(')
	if open > 0 && (strings.HasSuffix(s, ")") || strings.Contains(s, ") as ")) {
		switch s[:open] {
		case "item":
			return TypeItem, nil
		case "node":
			return TypeNode, nil
		case "document-node":
			return TypeDocument, nil
		case "element", "schema-element":
			return TypeElement, nil
		case "attribute", "schema-attribute":
			return TypeAttribute, nil
		case "text":
			return TypeText, nil
		case "comment":
			return TypeComment, nil
		case "processing-instruction":
			return TypeProcessingInstruction, nil
		case "function":
			return TypeFunction, nil
		case "map":
			return TypeMap, nil
		case "array":
			return TypeArray, nil
		}
	}

	if strings.HasPrefix(s, "xs:") {
		return 0, Errorf(ErrUnknownAtomicType, "unknown atomic type %s", s)
	}
	return 0, Errorf(ErrSyntax, "invalid sequence type %q", s)
}
