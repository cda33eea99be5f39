package evaluator

import (
	"strings"

	"github.com/sandrolain/goxq/pkg/types"
)

var miscFunctions = []builtin{
	fn("error", "() as item()*", fnError),
	fn("error", "(xs:QName?) as item()*", fnError),
	fn("error", "(xs:QName?, xs:string) as item()*", fnError),
	fn("error", "(xs:QName?, xs:string, item()*) as item()*", fnError),
	fn("trace", "(item()*) as item()*", fnTrace),
	fn("trace", "(item()*, xs:string) as item()*", fnTrace),
	fn("QName", "(xs:string?, xs:string) as xs:QName", fnQName),
	fn("local-name-from-QName", "(xs:QName?) as xs:string?", qnamePart(func(q types.QName) AtomicValue {
		return NewString(q.Local)
	})),
	fn("namespace-uri-from-QName", "(xs:QName?) as xs:anyURI?", qnamePart(func(q types.QName) AtomicValue {
		return NewAnyURI(q.Namespace)
	})),
}

// fnError raises the error named by its first argument. The local part of
// the QName becomes the error code; an absent name means FOER0000.
func fnError(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		code := types.ErrUserError
		message := "error raised by fn:error"
		if len(values) > 0 {
			if q, ok := optionalAtomic(values[0]); ok {
				code = types.ErrorCode(q.QName().Local)
			}
		}
		if len(values) > 1 {
			message = stringArg(values[1])
		}
		return Errored(types.Errorf(code, "%s", message))
	})
}

func fnTrace(_ *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		label := ""
		if len(values) > 1 {
			label = stringArg(values[1])
		}
		parts := make([]string, len(values[0]))
		for i, v := range values[0] {
			parts[i] = v.String()
		}
		ep.Logger().Info("trace", "label", label, "value", strings.Join(parts, ", "))
		return FromValues(values[0]...)
	})
}

func fnQName(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		uri := stringArg(values[0])
		lexical := stringArg(values[1])
		prefix, local, hasPrefix := strings.Cut(lexical, ":")
		if !hasPrefix {
			prefix, local = "", lexical
		}
		if !isNCName(local) || hasPrefix && !isNCName(prefix) {
			return Errored(types.Errorf(types.ErrInvalidCastValue, "fn:QName: %q is not a valid lexical QName", lexical))
		}
		if hasPrefix && uri == "" {
			return Errored(types.Errorf(types.ErrInvalidCastValue, "fn:QName: prefix %q requires a namespace URI", prefix))
		}
		return FromValue(NewQName(types.QName{Prefix: prefix, Namespace: uri, Local: local}))
	})
}

// isNCName checks the name production without the full Unicode tables:
// letters, digits and "._-" with a letter or underscore first.
func isNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := r == '_' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r > 0x7f
		if i == 0 && !letter {
			return false
		}
		if !letter && !(r >= '0' && r <= '9' || r == '.' || r == '-') {
			return false
		}
	}
	return true
}

func qnamePart(part func(types.QName) AtomicValue) FunctionImpl {
	return func(_ *DynamicContext, _ *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
		return args[0].MapAll(func(values []Value) *Sequence {
			q, ok := optionalAtomic(values)
			if !ok {
				return Empty()
			}
			return FromValue(part(q.QName()))
		})
	}
}
