package tree

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Node is a node of an XML Document.
type Node struct {
	kind     Kind
	space    string
	local    string
	data     string
	parent   *Node
	children []*Node
	attrs    []*Node
	order    int
	doc      *Document
}

// Document is an in-memory XML tree. Its root is a document node.
type Document struct {
	id   int64
	root *Node
}

var documentIDs atomic.Int64

// Parse reads an XML document. Whitespace-only text is preserved; adjacent
// character data is merged into one text node.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{id: documentIDs.Add(1)}
	doc.root = &Node{kind: DocumentKind, doc: doc}

	dec := xml.NewDecoder(r)
	stack := []*Node{doc.root}
	order := 1

	appendChild := func(n *Node) {
		parent := stack[len(stack)-1]
		n.parent = parent
		n.doc = doc
		n.order = order
		order++
		parent.children = append(parent.children, n)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "tree: parse XML")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{kind: ElementKind, space: t.Name.Space, local: t.Name.Local}
			appendChild(el)
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Space == "" && a.Name.Local == "xmlns" {
					continue
				}
				el.attrs = append(el.attrs, &Node{
					kind:   AttributeKind,
					space:  a.Name.Space,
					local:  a.Name.Local,
					data:   a.Value,
					parent: el,
					doc:    doc,
					order:  order,
				})
				order++
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 1 {
				// Character data outside the document element is not content.
				continue
			}
			parent := stack[len(stack)-1]
			if n := len(parent.children); n > 0 && parent.children[n-1].kind == TextKind {
				parent.children[n-1].data += string(t)
				continue
			}
			appendChild(&Node{kind: TextKind, data: string(t)})
		case xml.Comment:
			appendChild(&Node{kind: CommentKind, data: string(t)})
		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			appendChild(&Node{kind: ProcessingInstructionKind, local: t.Target, data: string(t.Inst)})
		}
	}
	return doc, nil
}

// ParseString parses an XML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses the XML document at path on fs.
func ParseFile(fs afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "tree: read %s", path)
	}
	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "tree: %s", path)
	}
	return doc, nil
}

// Root returns a pointer to the document node.
func (d *Document) Root() Pointer {
	return NewPointer(d.root)
}

// DocumentElement returns the outermost element, if any.
func (d *Document) DocumentElement() (Pointer, bool) {
	for _, c := range d.root.children {
		if c.kind == ElementKind {
			return NewPointer(c), true
		}
	}
	return Pointer{}, false
}

// Remove detaches the node p from its parent. Removing the document node
// or a node of another document is an error.
func (d *Document) Remove(p Pointer) error {
	n, ok := p.Ref().(*Node)
	if !ok || n.doc != d {
		return errors.New("tree: node does not belong to this document")
	}
	if n.parent == nil {
		return errors.New("tree: cannot remove the document node")
	}
	parent := n.parent
	if n.kind == AttributeKind {
		parent.attrs = removeNode(parent.attrs, n)
	} else {
		parent.children = removeNode(parent.children, n)
	}
	n.parent = nil
	return nil
}

// RemoveNode detaches p from whichever XML Document owns it.
func RemoveNode(p Pointer) error {
	n := node(p)
	if n == nil || n.doc == nil {
		return errors.New("tree: not an XML node")
	}
	return n.doc.Remove(p)
}

func removeNode(list []*Node, n *Node) []*Node {
	for i, c := range list {
		if c == n {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// XMLFacade is the Facade over nodes of any XML Document.
type XMLFacade struct{}

var _ Facade = XMLFacade{}

func node(p Pointer) *Node {
	n, _ := p.Ref().(*Node)
	return n
}

func pointers(nodes []*Node) []Pointer {
	out := make([]Pointer, len(nodes))
	for i, n := range nodes {
		out[i] = NewPointer(n)
	}
	return out
}

func (XMLFacade) Kind(p Pointer) Kind {
	if n := node(p); n != nil {
		return n.kind
	}
	return 0
}

func (XMLFacade) Parent(p Pointer) (Pointer, bool) {
	n := node(p)
	if n == nil || n.parent == nil {
		return Pointer{}, false
	}
	return NewPointer(n.parent), true
}

func (XMLFacade) Children(p Pointer) []Pointer {
	if n := node(p); n != nil {
		return pointers(n.children)
	}
	return nil
}

func (XMLFacade) Attributes(p Pointer) []Pointer {
	if n := node(p); n != nil {
		return pointers(n.attrs)
	}
	return nil
}

func (f XMLFacade) PreviousSibling(p Pointer) (Pointer, bool) {
	return sibling(p, -1)
}

func (f XMLFacade) NextSibling(p Pointer) (Pointer, bool) {
	return sibling(p, 1)
}

func sibling(p Pointer, delta int) (Pointer, bool) {
	n := node(p)
	if n == nil || n.parent == nil || n.kind == AttributeKind {
		return Pointer{}, false
	}
	siblings := n.parent.children
	for i, c := range siblings {
		if c != n {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(siblings) {
			return Pointer{}, false
		}
		return NewPointer(siblings[j]), true
	}
	return Pointer{}, false
}

func (XMLFacade) LocalName(p Pointer) string {
	if n := node(p); n != nil {
		return n.local
	}
	return ""
}

func (XMLFacade) NamespaceURI(p Pointer) string {
	if n := node(p); n != nil {
		return n.space
	}
	return ""
}

func (XMLFacade) Target(p Pointer) string {
	if n := node(p); n != nil && n.kind == ProcessingInstructionKind {
		return n.local
	}
	return ""
}

func (XMLFacade) Data(p Pointer) string {
	if n := node(p); n != nil {
		return n.data
	}
	return ""
}

func (XMLFacade) Compare(a, b Pointer) int {
	na, nb := node(a), node(b)
	switch {
	case na == nb:
		return 0
	case na == nil:
		return -1
	case nb == nil:
		return 1
	case na.doc != nb.doc:
		return cmpInt64(na.doc.id, nb.doc.id)
	}
	return cmpInt64(int64(na.order), int64(nb.order))
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
