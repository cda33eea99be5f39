package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode represents a canonical XPath/XQuery error code.
type ErrorCode string

// Error codes from the XPath 3.1, XQuery 3.1, XQuery Update and F&O 3.1
// recommendations.
const (
	// XPST: static errors
	ErrSyntax              ErrorCode = "XPST0003"
	ErrUndefinedVariable   ErrorCode = "XPST0008"
	ErrUnknownFunction     ErrorCode = "XPST0017"
	ErrUnknownAtomicType   ErrorCode = "XPST0051"
	ErrUnresolvedPrefix    ErrorCode = "XPST0081"
	ErrUpdatingNotAllowed  ErrorCode = "XUST0001"
	ErrUpdatingTargetEmpty ErrorCode = "XUDY0027"

	// XPTY: type errors
	ErrType                ErrorCode = "XPTY0004"
	ErrMixedPathResult     ErrorCode = "XPTY0018"
	ErrPathStepNotNode     ErrorCode = "XPTY0019"
	ErrAxisStepNotNode     ErrorCode = "XPTY0020"
	ErrTreatAsMismatch     ErrorCode = "XPDY0050"
	ErrDuplicateMapKey     ErrorCode = "XQDY0137"
	ErrAbsentContext       ErrorCode = "XPDY0002"
	ErrImplementationLimit ErrorCode = "XPDY0130"

	// FO: function and operator errors
	ErrDivisionByZero         ErrorCode = "FOAR0001"
	ErrNumericOverflow        ErrorCode = "FOAR0002"
	ErrArrayIndexOutOfBounds  ErrorCode = "FOAY0001"
	ErrNegativeArrayLength    ErrorCode = "FOAY0002"
	ErrInvalidDecimalValue    ErrorCode = "FOCA0002"
	ErrInvalidNormalization   ErrorCode = "FOCH0003"
	ErrDocumentRetrieval      ErrorCode = "FODC0002"
	ErrUserError              ErrorCode = "FOER0000"
	ErrDuplicateKeys          ErrorCode = "FOJS0003"
	ErrNoNamespaceForPrefix   ErrorCode = "FONS0004"
	ErrInvalidCastValue       ErrorCode = "FORG0001"
	ErrZeroOrOne              ErrorCode = "FORG0003"
	ErrOneOrMore              ErrorCode = "FORG0004"
	ErrExactlyOne             ErrorCode = "FORG0005"
	ErrInvalidBooleanValue    ErrorCode = "FORG0006"
	ErrInvalidRegexFlags      ErrorCode = "FORX0001"
	ErrInvalidRegex           ErrorCode = "FORX0002"
	ErrRegexMatchesEmpty      ErrorCode = "FORX0003"
	ErrInvalidReplacement     ErrorCode = "FORX0004"
	ErrAtomizeFunction        ErrorCode = "FOTY0013"
	ErrStringOfFunction       ErrorCode = "FOTY0014"
	ErrDeepEqualFunction      ErrorCode = "FOTY0015"
	ErrUnparsedTextRetrieval  ErrorCode = "FOUT1170"
	ErrDateTimeOverflow       ErrorCode = "FODT0001"
	ErrDurationOverflow       ErrorCode = "FODT0002"
	ErrInvalidOptionParameter ErrorCode = "FOJS0005"
)

// Error represents a structured XPath error carrying its canonical code.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Err      error
}

// NewError creates a new error. Pass -1 as position when unknown.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Errorf creates a new error without position information.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...), -1)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// WithPosition sets the source position if none is known yet.
func (e *Error) WithPosition(position int) *Error {
	if e.Position < 0 {
		e.Position = position
	}
	return e
}

// CodeOf returns the canonical code carried by err, looking through any
// wrapping. It returns the empty code for errors that are not *Error.
func CodeOf(err error) ErrorCode {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Code
	}
	return ""
}
