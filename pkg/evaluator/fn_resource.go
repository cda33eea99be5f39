package evaluator

import (
	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

var resourceFunctions = []builtin{
	fn("unparsed-text", "(xs:string?) as xs:string?", fnUnparsedText),
	fn("unparsed-text", "(xs:string?, xs:string) as xs:string?", fnUnparsedText),
	fn("unparsed-text-available", "(xs:string?) as xs:boolean", fnUnparsedTextAvailable),
	fn("unparsed-text-available", "(xs:string?, xs:string) as xs:boolean", fnUnparsedTextAvailable),
	fn("doc", "(xs:string?) as document-node()?", fnDoc),
}

// loadText starts loading href and yields Pending until the text arrives.
func loadText(ep *ExecutionParameters, href string, then func(text string, err error) *Sequence) *Sequence {
	loader := ep.Loader()
	if loader == nil {
		return then("", types.Errorf(types.ErrUnparsedTextRetrieval, "no resource loader is available to load %q", href))
	}
	future := loader.LoadText(href)
	return Await(future.Done(), func() *Sequence {
		return then(future.Result())
	})
}

// The encoding argument is accepted but text is always read as UTF-8.
func fnUnparsedText(_ *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		href, ok := optionalAtomic(values[0])
		if !ok {
			return Empty()
		}
		return loadText(ep, href.Str(), func(text string, err error) *Sequence {
			if err != nil {
				if types.CodeOf(err) != "" {
					return Errored(err)
				}
				return Errored(types.Errorf(types.ErrUnparsedTextRetrieval, "cannot retrieve %q", href.Str()).WithCause(err))
			}
			return stringResult(text)
		})
	})
}

func fnUnparsedTextAvailable(_ *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return collect(args, func(values [][]Value) *Sequence {
		href, ok := optionalAtomic(values[0])
		if !ok {
			return boolSequence(false)
		}
		return loadText(ep, href.Str(), func(_ string, err error) *Sequence {
			return boolSequence(err == nil)
		})
	})
}

func fnDoc(_ *DynamicContext, ep *ExecutionParameters, _ *StaticContext, args ...*Sequence) *Sequence {
	return args[0].MapAll(func(values []Value) *Sequence {
		href, ok := optionalAtomic(values)
		if !ok {
			return Empty()
		}
		loader := ep.Loader()
		if loader == nil {
			return Errored(types.Errorf(types.ErrDocumentRetrieval, "no resource loader is available to load %q", href.Str()))
		}
		future := loader.LoadDocument(href.Str())
		return Await(future.Done(), func() *Sequence {
			root, err := future.Result()
			if err != nil {
				return Errored(types.Errorf(types.ErrDocumentRetrieval, "cannot retrieve %q", href.Str()).WithCause(err))
			}
			return FromValue(NewNodeValue(root, tree.DocumentKind))
		})
	})
}
