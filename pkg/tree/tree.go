// Package tree defines the read-only node access capability the evaluator
// uses to navigate documents, and an XML-backed implementation of it.
//
// The evaluator never inspects a node directly. It holds opaque Pointers
// and calls a Facade for every structural question, so hosts can plug in
// their own DOM.
package tree

// Kind is the kind of a node.
type Kind int

// Node kinds.
const (
	DocumentKind Kind = iota + 1
	ElementKind
	AttributeKind
	TextKind
	CommentKind
	ProcessingInstructionKind
)

func (k Kind) String() string {
	switch k {
	case DocumentKind:
		return "document"
	case ElementKind:
		return "element"
	case AttributeKind:
		return "attribute"
	case TextKind:
		return "text"
	case CommentKind:
		return "comment"
	case ProcessingInstructionKind:
		return "processing-instruction"
	}
	return "unknown"
}

// Pointer is an opaque handle to a node. Two pointers are equal when they
// reference the same node.
type Pointer struct {
	ref any
}

// NewPointer wraps a facade-specific node reference. ref must be comparable.
func NewPointer(ref any) Pointer {
	return Pointer{ref: ref}
}

// Ref returns the facade-specific node reference.
func (p Pointer) Ref() any {
	return p.ref
}

// IsNil reports whether p references no node.
func (p Pointer) IsNil() bool {
	return p.ref == nil
}

// Facade answers structural questions about nodes.
type Facade interface {
	Kind(p Pointer) Kind
	// Parent returns the parent, or false for a root node.
	Parent(p Pointer) (Pointer, bool)
	Children(p Pointer) []Pointer
	Attributes(p Pointer) []Pointer
	PreviousSibling(p Pointer) (Pointer, bool)
	NextSibling(p Pointer) (Pointer, bool)
	LocalName(p Pointer) string
	NamespaceURI(p Pointer) string
	// Target returns the target of a processing instruction.
	Target(p Pointer) string
	// Data returns the content of text, comment, processing-instruction and
	// attribute nodes.
	Data(p Pointer) string
	// Compare orders two nodes in document order: negative when a precedes
	// b, zero when they are the same node, positive otherwise. Nodes from
	// different documents get a stable, implementation-defined order.
	Compare(a, b Pointer) int
}

// StringValue computes the string value of a node: its data for leaf kinds
// and the concatenated descendant text for documents and elements.
func StringValue(f Facade, p Pointer) string {
	switch f.Kind(p) {
	case DocumentKind, ElementKind:
		var out []byte
		var walk func(Pointer)
		walk = func(n Pointer) {
			for _, c := range f.Children(n) {
				switch f.Kind(c) {
				case TextKind:
					out = append(out, f.Data(c)...)
				case ElementKind:
					walk(c)
				}
			}
		}
		walk(p)
		return string(out)
	}
	return f.Data(p)
}

// Root returns the topmost ancestor of p, or p itself.
func Root(f Facade, p Pointer) Pointer {
	for {
		parent, ok := f.Parent(p)
		if !ok {
			return p
		}
		p = parent
	}
}

// Descendants returns the descendants of p in document order, excluding
// attributes.
func Descendants(f Facade, p Pointer) []Pointer {
	var out []Pointer
	var walk func(Pointer)
	walk = func(n Pointer) {
		for _, c := range f.Children(n) {
			out = append(out, c)
			walk(c)
		}
	}
	walk(p)
	return out
}

// Ancestors returns the ancestors of p, nearest first.
func Ancestors(f Facade, p Pointer) []Pointer {
	var out []Pointer
	for {
		parent, ok := f.Parent(p)
		if !ok {
			return out
		}
		out = append(out, parent)
		p = parent
	}
}
