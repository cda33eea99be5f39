package types

// Multiplicity is the declared cardinality of a sequence type.
type Multiplicity int

// Supported multiplicities.
const (
	ExactlyOne Multiplicity = iota
	ZeroOrOne
	ZeroOrMore
	OneOrMore
)

// Symbol returns the occurrence indicator used in sequence types:
// "" for exactly-one, "?", "*" or "+".
func (m Multiplicity) Symbol() string {
	switch m {
	case ZeroOrOne:
		return "?"
	case ZeroOrMore:
		return "*"
	case OneOrMore:
		return "+"
	}
	return ""
}

// String returns the long name of the multiplicity.
func (m Multiplicity) String() string {
	switch m {
	case ZeroOrOne:
		return "zero-or-one"
	case ZeroOrMore:
		return "zero-or-more"
	case OneOrMore:
		return "one-or-more"
	}
	return "exactly-one"
}

// Allows reports whether a sequence of n items satisfies the multiplicity.
func (m Multiplicity) Allows(n int) bool {
	switch m {
	case ExactlyOne:
		return n == 1
	case ZeroOrOne:
		return n <= 1
	case OneOrMore:
		return n >= 1
	}
	return true
}

// ParseMultiplicity maps an occurrence indicator to a Multiplicity.
func ParseMultiplicity(symbol string) (Multiplicity, bool) {
	switch symbol {
	case "":
		return ExactlyOne, true
	case "?":
		return ZeroOrOne, true
	case "*":
		return ZeroOrMore, true
	case "+":
		return OneOrMore, true
	}
	return ExactlyOne, false
}

// CardinalitySymbol renders the occurrence indicator that describes a
// sequence of n items, used in cardinality error messages.
func CardinalitySymbol(n int) string {
	switch {
	case n == 0:
		return "?"
	case n == 1:
		return ""
	}
	return "+"
}
