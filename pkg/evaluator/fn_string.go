package evaluator

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/sandrolain/goxq/pkg/types"
)

var stringFunctions = []builtin{
	fn("string", "() as xs:string", fnString),
	fn("string", "(item()?) as xs:string", fnString),
	fn("concat", "(xs:anyAtomicType?, xs:anyAtomicType?, ...) as xs:string", fnConcat),
	fn("string-join", "(xs:anyAtomicType*) as xs:string", fnStringJoin),
	fn("string-join", "(xs:anyAtomicType*, xs:string) as xs:string", fnStringJoin),
	fn("substring", "(xs:string?, xs:double) as xs:string", fnSubstring),
	fn("substring", "(xs:string?, xs:double, xs:double) as xs:string", fnSubstring),
	fn("string-length", "() as xs:integer", fnStringLength),
	fn("string-length", "(xs:string?) as xs:integer", fnStringLength),
	fn("upper-case", "(xs:string?) as xs:string", stringMapper(strings.ToUpper)),
	fn("lower-case", "(xs:string?) as xs:string", stringMapper(strings.ToLower)),
	fn("normalize-space", "() as xs:string", fnNormalizeSpace),
	fn("normalize-space", "(xs:string?) as xs:string", fnNormalizeSpace),
	fn("normalize-unicode", "(xs:string?) as xs:string", fnNormalizeUnicode),
	fn("normalize-unicode", "(xs:string?, xs:string) as xs:string", fnNormalizeUnicode),
	fn("contains", "(xs:string?, xs:string?) as xs:boolean", stringPredicate(strings.Contains)),
	fn("starts-with", "(xs:string?, xs:string?) as xs:boolean", stringPredicate(strings.HasPrefix)),
	fn("ends-with", "(xs:string?, xs:string?) as xs:boolean", stringPredicate(strings.HasSuffix)),
	fn("substring-before", "(xs:string?, xs:string?) as xs:string", fnSubstringBefore),
	fn("substring-after", "(xs:string?, xs:string?) as xs:string", fnSubstringAfter),
	fn("translate", "(xs:string?, xs:string, xs:string) as xs:string", fnTranslate),
	fn("encode-for-uri", "(xs:string?) as xs:string", fnEncodeForURI),
}

// stringOfContext is the string value of the context item, the implicit
// argument of the zero-arity string functions.
func stringOfContext(dc *DynamicContext, ep *ExecutionParameters, function string) *Sequence {
	return contextItemArgument(dc, function).Map(func(v Value) (Value, error) {
		s, err := stringValue(v, ep)
		if err != nil {
			return nil, err
		}
		return NewString(s), nil
	})
}

func fnString(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	if len(args) == 0 {
		return stringOfContext(dc, ep, "fn:string")
	}
	return args[0].MapAll(func(values []Value) *Sequence {
		if len(values) == 0 {
			return stringResult("")
		}
		s, err := stringValue(values[0], ep)
		if err != nil {
			return Errored(err)
		}
		return stringResult(s)
	})
}

func fnConcat(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		b := acquireBuf()
		defer releaseBuf(b)
		for _, v := range values {
			if a, ok := optionalAtomic(v); ok {
				b.WriteString(a.String())
			}
		}
		return stringResult(b.String())
	})
}

func fnStringJoin(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		sep := ""
		if len(values) > 1 {
			sep = stringArg(values[1])
		}
		b := acquireBuf()
		defer releaseBuf(b)
		for i, v := range values[0] {
			if i > 0 {
				b.WriteString(sep)
			}
			b.WriteString(v.(AtomicValue).String())
		}
		return stringResult(b.String())
	})
}

// fnSubstring counts characters from 1 and keeps those at positions p with
// round(start) <= p < round(start) + round(length). NaN bounds select
// nothing.
func fnSubstring(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		s := stringArg(values[0])
		first := roundHalfUp(values[1][0].(AtomicValue).Float())
		end := math.Inf(1)
		if len(values) > 2 {
			end = first + roundHalfUp(values[2][0].(AtomicValue).Float())
		}
		var b strings.Builder
		pos := 0.0
		for _, r := range s {
			pos++
			if pos >= first && pos < end {
				b.WriteRune(r)
			}
		}
		return stringResult(b.String())
	})
}

func fnStringLength(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	arg := stringOfContext(dc, ep, "fn:string-length")
	if len(args) > 0 {
		arg = args[0]
	}
	return arg.MapAll(func(values []Value) *Sequence {
		return FromValue(NewInteger(int64(utf8.RuneCountInString(stringArg(values)))))
	})
}

func stringMapper(f func(string) string) FunctionImpl {
	return func(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
		return args[0].MapAll(func(values []Value) *Sequence {
			return stringResult(f(stringArg(values)))
		})
	}
}

func fnNormalizeSpace(dc *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	arg := stringOfContext(dc, ep, "fn:normalize-space")
	if len(args) > 0 {
		arg = args[0]
	}
	return arg.MapAll(func(values []Value) *Sequence {
		return stringResult(strings.Join(strings.FieldsFunc(stringArg(values), isXMLSpace), " "))
	})
}

func isXMLSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

var normalizationForms = map[string]norm.Form{
	"NFC":  norm.NFC,
	"NFD":  norm.NFD,
	"NFKC": norm.NFKC,
	"NFKD": norm.NFKD,
}

func fnNormalizeUnicode(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		s := stringArg(values[0])
		name := "NFC"
		if len(values) > 1 {
			name = strings.ToUpper(strings.TrimSpace(stringArg(values[1])))
		}
		if name == "" {
			return stringResult(s)
		}
		form, ok := normalizationForms[name]
		if !ok {
			return Errored(types.Errorf(types.ErrInvalidNormalization, "unsupported normalization form %q", name))
		}
		return stringResult(form.String(s))
	})
}

func stringPredicate(f func(s, sub string) bool) FunctionImpl {
	return func(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
		return collect(args, func(values [][]Value) *Sequence {
			return boolSequence(f(stringArg(values[0]), stringArg(values[1])))
		})
	}
}

func fnSubstringBefore(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		before, _, found := strings.Cut(stringArg(values[0]), stringArg(values[1]))
		if !found {
			return stringResult("")
		}
		return stringResult(before)
	})
}

func fnSubstringAfter(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		_, after, found := strings.Cut(stringArg(values[0]), stringArg(values[1]))
		if !found {
			return stringResult("")
		}
		return stringResult(after)
	})
}

// fnTranslate replaces each character of the map string by the character at
// the same position of the translation string, dropping it when the
// translation string is shorter. The first occurrence in the map wins.
func fnTranslate(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		from := []rune(stringArg(values[1]))
		to := []rune(stringArg(values[2]))
		mapping := make(map[rune]int, len(from))
		for i, r := range from {
			if _, ok := mapping[r]; !ok {
				mapping[r] = i
			}
		}
		var b strings.Builder
		for _, r := range stringArg(values[0]) {
			i, ok := mapping[r]
			switch {
			case !ok:
				b.WriteRune(r)
			case i < len(to):
				b.WriteRune(to[i])
			}
		}
		return stringResult(b.String())
	})
}

func isUnreserved(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

func fnEncodeForURI(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		s := stringArg(values)
		b := acquireBuf()
		defer releaseBuf(b)
		for i := 0; i < len(s); i++ {
			if isUnreserved(s[i]) {
				b.WriteByte(s[i])
				continue
			}
			fmt.Fprintf(b, "%%%02X", s[i])
		}
		return stringResult(b.String())
	})
}
