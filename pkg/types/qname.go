package types

import "strings"

// Well-known namespace URIs.
const (
	NamespaceXS    = "http://www.w3.org/2001/XMLSchema"
	NamespaceFn    = "http://www.w3.org/2005/xpath-functions"
	NamespaceMap   = "http://www.w3.org/2005/xpath-functions/map"
	NamespaceArray = "http://www.w3.org/2005/xpath-functions/array"
	NamespaceMath  = "http://www.w3.org/2005/xpath-functions/math"
	NamespaceErr   = "http://www.w3.org/2005/xqt-errors"
	NamespaceLocal = "http://www.w3.org/2005/xquery-local-functions"
	NamespaceXML   = "http://www.w3.org/XML/1998/namespace"
	NamespaceExt   = "https://github.com/sandrolain/goxq/ext"
)

// DefaultNamespaces are the prefixes every static context starts with.
var DefaultNamespaces = map[string]string{
	"xs":    NamespaceXS,
	"fn":    NamespaceFn,
	"map":   NamespaceMap,
	"array": NamespaceArray,
	"math":  NamespaceMath,
	"err":   NamespaceErr,
	"local": NamespaceLocal,
	"xml":   NamespaceXML,
	"ext":   NamespaceExt,
}

// QName is an expanded name. Prefix is kept for diagnostics only; two
// QNames are equal when Namespace and Local are equal.
type QName struct {
	Prefix    string
	Namespace string
	Local     string
}

// NewQName creates a QName without prefix.
func NewQName(namespace, local string) QName {
	return QName{Namespace: namespace, Local: local}
}

// Equal compares namespace and local name, ignoring the prefix.
func (q QName) Equal(o QName) bool {
	return q.Namespace == o.Namespace && q.Local == o.Local
}

// Expanded renders the name in Q{uri}local form.
func (q QName) Expanded() string {
	return "Q{" + q.Namespace + "}" + q.Local
}

// String renders the lexical prefix:local form, or the expanded form when no
// prefix is known and the namespace is not empty.
func (q QName) String() string {
	if q.Prefix != "" {
		return q.Prefix + ":" + q.Local
	}
	if q.Namespace == "" {
		return q.Local
	}
	for prefix, uri := range wellKnownPrefixes {
		if uri == q.Namespace {
			return prefix + ":" + q.Local
		}
	}
	return q.Expanded()
}

var wellKnownPrefixes = map[string]string{
	"fn":    NamespaceFn,
	"xs":    NamespaceXS,
	"map":   NamespaceMap,
	"array": NamespaceArray,
	"math":  NamespaceMath,
}

// SplitLexicalQName splits "prefix:local" into its parts. An unprefixed
// name returns an empty prefix.
func SplitLexicalQName(lexical string) (prefix, local string) {
	if i := strings.IndexByte(lexical, ':'); i >= 0 {
		return lexical[:i], lexical[i+1:]
	}
	return "", lexical
}
