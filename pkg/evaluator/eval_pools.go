package evaluator

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/sandrolain/goxq/pkg/types"
)

// regexCache holds compiled patterns keyed by flags and pattern. Compiled
// regexps are immutable and safe for concurrent use.
var regexCache sync.Map // map[string]*regexp.Regexp

// compileRegex translates an XPath regular expression with its flags into a
// Go regexp, caching the result.
func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	key := flags + "\x00" + pattern
	if v, ok := regexCache.Load(key); ok {
		return v.(*regexp.Regexp), nil
	}

	var prefix string
	literal, extended := false, false
	for _, f := range flags {
		switch f {
		case 's', 'm', 'i':
			if !strings.ContainsRune(prefix, f) {
				prefix += string(f)
			}
		case 'x':
			extended = true
		case 'q':
			literal = true
		default:
			return nil, types.Errorf(types.ErrInvalidRegexFlags, "invalid regular expression flags %q", flags)
		}
	}

	expr := pattern
	switch {
	case literal:
		expr = regexp.QuoteMeta(pattern)
	case extended:
		expr = stripRegexWhitespace(pattern)
	}
	if prefix != "" {
		expr = "(?" + prefix + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, types.Errorf(types.ErrInvalidRegex, "invalid regular expression %q", pattern).WithCause(err)
	}
	regexCache.Store(key, re)
	return re, nil
}

// stripRegexWhitespace removes whitespace outside character classes, as the
// x flag requires.
func stripRegexWhitespace(pattern string) string {
	b := acquireBuf()
	defer releaseBuf(b)
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			i++
			b.WriteByte(pattern[i])
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case !inClass && (c == ' ' || c == '\t' || c == '\n' || c == '\r'):
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// expandReplacement converts an XPath replacement string to the template
// syntax of regexp.Expand. $N references the longest group number that
// exists; \$ and \\ are escapes.
func expandReplacement(replacement string, groups int, literal bool) (string, error) {
	if literal {
		return strings.ReplaceAll(replacement, "$", "$$"), nil
	}
	b := acquireBuf()
	defer releaseBuf(b)
	for i := 0; i < len(replacement); i++ {
		c := replacement[i]
		switch c {
		case '\\':
			if i+1 >= len(replacement) || (replacement[i+1] != '$' && replacement[i+1] != '\\') {
				return "", types.Errorf(types.ErrInvalidReplacement, "invalid escape in replacement string %q", replacement)
			}
			i++
			if replacement[i] == '$' {
				b.WriteString("$$")
			} else {
				b.WriteByte('\\')
			}
		case '$':
			j := i + 1
			if j >= len(replacement) || replacement[j] < '0' || replacement[j] > '9' {
				return "", types.Errorf(types.ErrInvalidReplacement, "\"$\" must be followed by a digit in %q", replacement)
			}
			n := int(replacement[j] - '0')
			j++
			for j < len(replacement) && replacement[j] >= '0' && replacement[j] <= '9' {
				next := n*10 + int(replacement[j]-'0')
				if next > groups {
					break
				}
				n = next
				j++
			}
			if n <= groups {
				b.WriteString("${")
				b.WriteString(strconv.Itoa(n))
				b.WriteString("}")
			}
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// bufPool recycles buffers for string-building built-ins.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// acquireBuf returns a reset buffer from the pool.
func acquireBuf() *bytes.Buffer {
	b := bufPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// releaseBuf returns a buffer to the pool unless it grew past 64 KB.
func releaseBuf(b *bytes.Buffer) {
	if b.Cap() <= 64*1024 {
		bufPool.Put(b)
	}
}
