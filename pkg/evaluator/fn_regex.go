package evaluator

import (
	"strings"

	"github.com/sandrolain/goxq/pkg/types"
)

var regexFunctions = []builtin{
	fn("matches", "(xs:string?, xs:string) as xs:boolean", fnMatches),
	fn("matches", "(xs:string?, xs:string, xs:string) as xs:boolean", fnMatches),
	fn("replace", "(xs:string?, xs:string, xs:string) as xs:string", fnReplace),
	fn("replace", "(xs:string?, xs:string, xs:string, xs:string) as xs:string", fnReplace),
	fn("tokenize", "(xs:string?) as xs:string*", fnTokenize),
	fn("tokenize", "(xs:string?, xs:string) as xs:string*", fnTokenize),
	fn("tokenize", "(xs:string?, xs:string, xs:string) as xs:string*", fnTokenize),
}

// flagsArg returns the optional flags argument at index i.
func flagsArg(values [][]Value, i int) string {
	if len(values) > i {
		return stringArg(values[i])
	}
	return ""
}

func fnMatches(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		re, err := compileRegex(stringArg(values[1]), flagsArg(values, 2))
		if err != nil {
			return Errored(err)
		}
		return boolSequence(re.MatchString(stringArg(values[0])))
	})
}

func fnReplace(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		flags := flagsArg(values, 3)
		re, err := compileRegex(stringArg(values[1]), flags)
		if err != nil {
			return Errored(err)
		}
		if re.MatchString("") {
			return Errored(types.Errorf(types.ErrRegexMatchesEmpty, "pattern %q matches the empty string", re))
		}
		tmpl, err := expandReplacement(stringArg(values[2]), re.NumSubexp(), strings.ContainsRune(flags, 'q'))
		if err != nil {
			return Errored(err)
		}
		return stringResult(re.ReplaceAllString(stringArg(values[0]), tmpl))
	})
}

func fnTokenize(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		input := stringArg(values[0])
		if len(values) == 1 {
			fields := strings.FieldsFunc(input, isXMLSpace)
			out := make([]Value, len(fields))
			for i, f := range fields {
				out[i] = NewString(f)
			}
			return FromValues(out...)
		}
		re, err := compileRegex(stringArg(values[1]), flagsArg(values, 2))
		if err != nil {
			return Errored(err)
		}
		if re.MatchString("") {
			return Errored(types.Errorf(types.ErrRegexMatchesEmpty, "pattern %q matches the empty string", re))
		}
		if input == "" {
			return Empty()
		}
		parts := re.Split(input, -1)
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = NewString(p)
		}
		return FromValues(out...)
	})
}
