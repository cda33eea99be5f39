package evaluator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sandrolain/goxq/pkg/types"
)

// DateTime is the payload of xs:dateTime, xs:date and xs:time. Values
// without a timezone keep HasTZ false; their Time is expressed in UTC and
// the implicit timezone is applied when comparing.
type DateTime struct {
	Time  time.Time
	HasTZ bool
}

// NewDateTime creates a value of type typ (xs:dateTime, xs:date or xs:time).
func NewDateTime(typ types.ValueType, t time.Time, hasTZ bool) AtomicValue {
	return AtomicValue{typ: typ, v: DateTime{Time: t, HasTZ: hasTZ}}
}

// inZone returns the instant, applying tz when the value has no timezone.
func (d DateTime) inZone(tz *time.Location) time.Time {
	if d.HasTZ {
		return d.Time
	}
	t := d.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), tz)
}

func (d DateTime) format(typ types.ValueType) string {
	t := d.Time
	var b strings.Builder
	switch typ {
	case types.TypeDate:
		b.WriteString(formatYear(t.Year()))
		fmt.Fprintf(&b, "-%02d-%02d", int(t.Month()), t.Day())
	case types.TypeTime:
		writeClock(&b, t)
	default:
		b.WriteString(formatYear(t.Year()))
		fmt.Fprintf(&b, "-%02d-%02dT", int(t.Month()), t.Day())
		writeClock(&b, t)
	}
	if d.HasTZ {
		_, offset := t.Zone()
		if offset == 0 {
			b.WriteByte('Z')
		} else {
			sign := '+'
			if offset < 0 {
				sign = '-'
				offset = -offset
			}
			fmt.Fprintf(&b, "%c%02d:%02d", sign, offset/3600, offset%3600/60)
		}
	}
	return b.String()
}

func formatYear(y int) string {
	if y < 0 {
		return fmt.Sprintf("-%04d", -y)
	}
	return fmt.Sprintf("%04d", y)
}

func writeClock(b *strings.Builder, t time.Time) {
	fmt.Fprintf(b, "%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
	if ns := t.Nanosecond(); ns != 0 {
		frac := strings.TrimRight(fmt.Sprintf("%09d", ns), "0")
		b.WriteString("." + frac)
	}
}

var (
	dateTimePattern = regexp.MustCompile(`^(-?\d{4,})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	datePattern     = regexp.MustCompile(`^(-?\d{4,})-(\d{2})-(\d{2})(Z|[+-]\d{2}:\d{2})?$`)
	timePattern     = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
)

// parseDateTime parses the lexical form of typ.
func parseDateTime(typ types.ValueType, s string) (AtomicValue, error) {
	s = strings.TrimSpace(s)
	var (
		year, month, day   = 1972, 1, 1
		hour, minute, sec  int
		frac, tz           string
		ok                 bool
	)
	switch typ {
	case types.TypeDateTime:
		var m []string
		if m = dateTimePattern.FindStringSubmatch(s); m != nil {
			year, month, day = atoi(m[1]), atoi(m[2]), atoi(m[3])
			hour, minute, sec = atoi(m[4]), atoi(m[5]), atoi(m[6])
			frac, tz, ok = m[7], m[8], true
		}
	case types.TypeDate:
		if m := datePattern.FindStringSubmatch(s); m != nil {
			year, month, day = atoi(m[1]), atoi(m[2]), atoi(m[3])
			tz, ok = m[4], true
		}
	case types.TypeTime:
		if m := timePattern.FindStringSubmatch(s); m != nil {
			hour, minute, sec = atoi(m[1]), atoi(m[2]), atoi(m[3])
			frac, tz, ok = m[4], m[5], true
		}
	}
	if !ok {
		return AtomicValue{}, types.Errorf(types.ErrInvalidCastValue, "invalid lexical value %q for %s", s, typ)
	}

	// 24:00:00 is midnight at the end of the day.
	endOfDay := hour == 24 && minute == 0 && sec == 0 && frac == ""
	if month < 1 || month > 12 || day < 1 || day > daysIn(year, month) ||
		hour > 23 && !endOfDay || minute > 59 || sec > 59 {
		return AtomicValue{}, types.Errorf(types.ErrInvalidCastValue, "invalid lexical value %q for %s", s, typ)
	}

	ns := 0
	if frac != "" {
		digits := (frac[1:] + "000000000")[:9]
		ns = atoi(digits)
	}

	loc := time.UTC
	hasTZ := tz != ""
	if hasTZ && tz != "Z" {
		sign := 1
		if tz[0] == '-' {
			sign = -1
		}
		h, m := atoi(tz[1:3]), atoi(tz[4:6])
		if h > 14 || m > 59 {
			return AtomicValue{}, types.Errorf(types.ErrInvalidCastValue, "invalid timezone in %q", s)
		}
		loc = time.FixedZone("", sign*(h*3600+m*60))
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, ns, loc)
	return NewDateTime(typ, t, hasTZ), nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Duration is the payload of xs:duration and its subtypes. Both components
// carry the same sign.
type Duration struct {
	Months  int64
	Seconds time.Duration
}

// NewDuration creates a duration value of type typ.
func NewDuration(typ types.ValueType, months int64, d time.Duration) AtomicValue {
	return AtomicValue{typ: typ, v: Duration{Months: months, Seconds: d}}
}

func (d Duration) negative() bool {
	return d.Months < 0 || d.Seconds < 0
}

func (d Duration) format(typ types.ValueType) string {
	var b strings.Builder
	months, secs := d.Months, d.Seconds
	if d.negative() {
		b.WriteByte('-')
		months, secs = -months, -secs
	}
	b.WriteByte('P')

	if typ != types.TypeDayTimeDuration {
		if y := months / 12; y != 0 {
			fmt.Fprintf(&b, "%dY", y)
		}
		if m := months % 12; m != 0 {
			fmt.Fprintf(&b, "%dM", m)
		}
	}
	if typ == types.TypeYearMonthDuration {
		if months == 0 {
			return "P0M"
		}
		return b.String()
	}

	days := secs / (24 * time.Hour)
	secs -= days * 24 * time.Hour
	if days != 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if secs != 0 {
		b.WriteByte('T')
		h := secs / time.Hour
		secs -= h * time.Hour
		m := secs / time.Minute
		secs -= m * time.Minute
		if h != 0 {
			fmt.Fprintf(&b, "%dH", h)
		}
		if m != 0 {
			fmt.Fprintf(&b, "%dM", m)
		}
		if secs != 0 {
			whole := secs / time.Second
			ns := secs % time.Second
			if ns == 0 {
				fmt.Fprintf(&b, "%dS", whole)
			} else {
				frac := strings.TrimRight(fmt.Sprintf("%09d", ns), "0")
				fmt.Fprintf(&b, "%d.%sS", whole, frac)
			}
		}
	}
	if months == 0 && d.Seconds == 0 {
		return "PT0S"
	}
	return b.String()
}

var durationPattern = regexp.MustCompile(`^(-)?P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(\.\d+)?S)?)?$`)

// parseDuration parses the lexical form of typ.
func parseDuration(typ types.ValueType, s string) (AtomicValue, error) {
	s = strings.TrimSpace(s)
	m := durationPattern.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "-P" || strings.HasSuffix(s, "T") {
		return AtomicValue{}, types.Errorf(types.ErrInvalidCastValue, "invalid lexical value %q for %s", s, typ)
	}
	hasYM := m[2] != "" || m[3] != ""
	hasDT := m[4] != "" || m[5] != "" || m[6] != "" || m[7] != ""
	if typ == types.TypeYearMonthDuration && hasDT || typ == types.TypeDayTimeDuration && hasYM {
		return AtomicValue{}, types.Errorf(types.ErrInvalidCastValue, "invalid lexical value %q for %s", s, typ)
	}

	months := int64(atoi(m[2]))*12 + int64(atoi(m[3]))
	secs := time.Duration(atoi(m[4]))*24*time.Hour +
		time.Duration(atoi(m[5]))*time.Hour +
		time.Duration(atoi(m[6]))*time.Minute +
		time.Duration(atoi(m[7]))*time.Second
	if m[8] != "" {
		secs += time.Duration(atoi((m[8][1:] + "000000000")[:9]))
	}
	if m[1] == "-" {
		months, secs = -months, -secs
	}
	return NewDuration(typ, months, secs), nil
}
