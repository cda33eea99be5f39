package evaluator

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/sandrolain/goxq/pkg/types"
)

// Signature is a parsed function signature.
type Signature struct {
	Params []types.TypeDeclaration
	// Variadic marks the last parameter as repeatable.
	Variadic bool
	Return   types.TypeDeclaration
}

// ParseSignature parses a signature such as
//
//	(xs:string?, xs:double) as xs:string
//	(xs:anyAtomicType?, ...) as xs:string
//
// where "..." allows any number of further arguments of the preceding
// parameter type. A missing return type defaults to item()*.
func ParseSignature(sig string) (*Signature, error) {
	sig = strings.TrimSpace(sig)
	if !strings.HasPrefix(sig, "(") {
		return nil, errors.Errorf("signature %q: missing parameter list", sig)
	}
	end := closingParen(sig)
	if end < 0 {
		return nil, errors.Errorf("signature %q: unbalanced parentheses", sig)
	}

	out := &Signature{Return: types.AnyItems}
	params := splitTopLevel(sig[1:end])
	for i, p := range params {
		if p == "..." {
			if i != len(params)-1 || i == 0 {
				return nil, errors.Errorf("signature %q: \"...\" must follow the last parameter", sig)
			}
			out.Params = append(out.Params, out.Params[len(out.Params)-1])
			out.Variadic = true
			continue
		}
		decl, err := types.ParseTypeDeclaration(p)
		if err != nil {
			return nil, errors.Wrapf(err, "signature %q", sig)
		}
		out.Params = append(out.Params, decl)
	}

	rest := strings.TrimSpace(sig[end+1:])
	if rest == "" {
		return out, nil
	}
	if !strings.HasPrefix(rest, "as ") {
		return nil, errors.Errorf("signature %q: expected \"as\" before the return type", sig)
	}
	ret, err := types.ParseTypeDeclaration(strings.TrimPrefix(rest, "as "))
	if err != nil {
		return nil, errors.Wrapf(err, "signature %q", sig)
	}
	out.Return = ret
	return out, nil
}

// MustParseSignature is like ParseSignature but panics on error. It is
// meant for static function tables.
func MustParseSignature(sig string) *Signature {
	s, err := ParseSignature(sig)
	if err != nil {
		panic(err)
	}
	return s
}

// closingParen returns the index of the parenthesis closing s[0].
func closingParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits a parameter list on commas outside parentheses.
func splitTopLevel(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
