// Package extstring provides string functions in the extension namespace
// that go beyond the fn: catalog. Register them via goxq.WithFunctions or
// via the top-level ext.WithString() helper.
package extstring

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"

	"github.com/sandrolain/goxq/pkg/evaluator"
	"github.com/sandrolain/goxq/pkg/types"
)

// All returns all extended string function definitions.
func All() []evaluator.CustomFunctionDef {
	return append(IndexOf(),
		LastIndexOf(),
		Capitalize(),
		TitleCase(),
		CamelCase(),
		PascalCase(),
		SnakeCase(),
		KebabCase(),
		Repeat(),
		Words(),
		Template(),
	)
}

// AllEntries returns all string function definitions as
// [evaluator.FunctionEntry], suitable for spreading into WithFunctions:
//
//	goxq.WithFunctions(extstring.AllEntries()...)
func AllEntries() []evaluator.FunctionEntry {
	all := All()
	out := make([]evaluator.FunctionEntry, len(all))
	for i, f := range all {
		out[i] = f
	}
	return out
}

// str returns the string of an optional string argument.
func str(values []evaluator.Value) string {
	if len(values) == 0 {
		return ""
	}
	return values[0].String()
}

func integer(values []evaluator.Value) int64 {
	if len(values) == 0 {
		return 0
	}
	if a, ok := values[0].(evaluator.AtomicValue); ok {
		return a.Int()
	}
	return 0
}

func stringResult(s string) ([]evaluator.Value, error) {
	return []evaluator.Value{evaluator.NewString(s)}, nil
}

// stringMapper builds a one-argument string function.
func stringMapper(name string, fn func(string) string) evaluator.CustomFunctionDef {
	return evaluator.CustomFunctionDef{
		Name:      name,
		Signature: "(xs:string?) as xs:string",
		Fn: func(_ context.Context, args ...[]evaluator.Value) ([]evaluator.Value, error) {
			return stringResult(fn(str(args[0])))
		},
	}
}

// IndexOf returns the definitions for ext:index-of-string(str, search) and
// ext:index-of-string(str, search, start). Positions are 1-based code
// points; 0 means not found.
func IndexOf() []evaluator.CustomFunctionDef {
	return []evaluator.CustomFunctionDef{
		{Name: "index-of-string", Signature: "(xs:string?, xs:string) as xs:integer", Fn: indexOf},
		{Name: "index-of-string", Signature: "(xs:string?, xs:string, xs:integer?) as xs:integer", Fn: indexOf},
	}
}

func indexOf(_ context.Context, args ...[]evaluator.Value) ([]evaluator.Value, error) {
	s := []rune(str(args[0]))
	search := str(args[1])
	start := int64(1)
	if len(args) == 3 && len(args[2]) > 0 {
		start = integer(args[2])
	}
	if start < 1 {
		start = 1
	}
	if start > int64(len(s))+1 {
		return []evaluator.Value{evaluator.NewInteger(0)}, nil
	}
	rest := string(s[start-1:])
	idx := strings.Index(rest, search)
	if idx < 0 {
		return []evaluator.Value{evaluator.NewInteger(0)}, nil
	}
	pos := start + int64(utf8.RuneCountInString(rest[:idx]))
	return []evaluator.Value{evaluator.NewInteger(pos)}, nil
}

// LastIndexOf returns the definition for ext:last-index-of(str, search).
func LastIndexOf() evaluator.CustomFunctionDef {
	return evaluator.CustomFunctionDef{
		Name:      "last-index-of",
		Signature: "(xs:string?, xs:string) as xs:integer",
		Fn: func(_ context.Context, args ...[]evaluator.Value) ([]evaluator.Value, error) {
			s := str(args[0])
			idx := strings.LastIndex(s, str(args[1]))
			if idx < 0 {
				return []evaluator.Value{evaluator.NewInteger(0)}, nil
			}
			return []evaluator.Value{evaluator.NewInteger(int64(utf8.RuneCountInString(s[:idx])) + 1)}, nil
		},
	}
}

// Capitalize upper-cases the first character.
func Capitalize() evaluator.CustomFunctionDef {
	return stringMapper("capitalize", func(s string) string {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 {
			return s
		}
		return string(unicode.ToUpper(r)) + s[size:]
	})
}

// TitleCase capitalizes every space-separated word.
func TitleCase() evaluator.CustomFunctionDef {
	return stringMapper("title-case", func(s string) string {
		var b strings.Builder
		upper := true
		for _, r := range s {
			switch {
			case unicode.IsSpace(r):
				upper = true
				b.WriteRune(r)
			case upper:
				b.WriteRune(unicode.ToUpper(r))
				upper = false
			default:
				b.WriteRune(unicode.ToLower(r))
			}
		}
		return b.String()
	})
}

// CamelCase converts to lowerCamelCase.
func CamelCase() evaluator.CustomFunctionDef {
	return stringMapper("camel-case", strcase.ToLowerCamel)
}

// PascalCase converts to UpperCamelCase.
func PascalCase() evaluator.CustomFunctionDef {
	return stringMapper("pascal-case", strcase.ToCamel)
}

// SnakeCase converts to snake_case.
func SnakeCase() evaluator.CustomFunctionDef {
	return stringMapper("snake-case", strcase.ToSnake)
}

// KebabCase converts to kebab-case.
func KebabCase() evaluator.CustomFunctionDef {
	return stringMapper("kebab-case", strcase.ToKebab)
}

// maxRepeatLength bounds the output of ext:repeat.
const maxRepeatLength = 1 << 24

// Repeat returns the definition for ext:repeat(str, count).
func Repeat() evaluator.CustomFunctionDef {
	return evaluator.CustomFunctionDef{
		Name:      "repeat",
		Signature: "(xs:string?, xs:integer) as xs:string",
		Fn: func(_ context.Context, args ...[]evaluator.Value) ([]evaluator.Value, error) {
			s := str(args[0])
			n := integer(args[1])
			if n < 0 {
				return nil, types.Errorf(types.ErrInvalidCastValue, "ext:repeat: negative count %d", n)
			}
			if n > 0 && int64(len(s))*n > maxRepeatLength {
				return nil, types.Errorf(types.ErrImplementationLimit, "ext:repeat: result exceeds %d bytes", maxRepeatLength)
			}
			return stringResult(strings.Repeat(s, int(n)))
		},
	}
}

// Words splits a string into its whitespace-separated words.
func Words() evaluator.CustomFunctionDef {
	return evaluator.CustomFunctionDef{
		Name:      "words",
		Signature: "(xs:string?) as xs:string*",
		Fn: func(_ context.Context, args ...[]evaluator.Value) ([]evaluator.Value, error) {
			fields := strings.Fields(str(args[0]))
			out := make([]evaluator.Value, len(fields))
			for i, f := range fields {
				out[i] = evaluator.NewString(f)
			}
			return out, nil
		},
	}
}

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// Template returns the definition for ext:template(str, bindings), which
// replaces every {key} with the space-joined string values bound to key
// in the map. Unknown keys are left in place.
func Template() evaluator.CustomFunctionDef {
	return evaluator.CustomFunctionDef{
		Name:      "template",
		Signature: "(xs:string?, map(*)) as xs:string",
		Fn: func(ctx context.Context, args ...[]evaluator.Value) ([]evaluator.Value, error) {
			m, ok := args[1][0].(*evaluator.MapValue)
			if !ok {
				return nil, types.Errorf(types.ErrType, "ext:template: second argument must be a map")
			}
			var failure error
			out := placeholder.ReplaceAllStringFunc(str(args[0]), func(match string) string {
				if failure != nil {
					return match
				}
				lazy, found := m.Get(evaluator.NewString(match[1 : len(match)-1]))
				if !found {
					return match
				}
				values, err := lazy().GetAllValues(ctx)
				if err != nil {
					failure = errors.Wrapf(err, "ext:template: %s", match)
					return match
				}
				parts := make([]string, len(values))
				for i, v := range values {
					parts[i] = v.String()
				}
				return strings.Join(parts, " ")
			})
			if failure != nil {
				return nil, failure
			}
			return stringResult(out)
		},
	}
}
