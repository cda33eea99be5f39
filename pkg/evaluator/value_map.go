package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/goxq/pkg/types"
)

// MapEntry is a key with its lazily produced value.
type MapEntry struct {
	Key   AtomicValue
	Value Lazy
}

// MapValue is an immutable map item. Entries keep insertion order; keys
// are unique under the same-key relation.
type MapValue struct {
	entries []MapEntry
	index   map[string]int
}

// NewMap creates a map. Later entries replace earlier ones with the same
// key.
func NewMap(entries ...MapEntry) *MapValue {
	m := &MapValue{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		m.set(e)
	}
	return m
}

func (m *MapValue) set(e MapEntry) {
	k := mapKey(e.Key)
	if i, ok := m.index[k]; ok {
		m.entries[i] = e
		return
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, e)
}

func (m *MapValue) clone() *MapValue {
	c := &MapValue{
		entries: make([]MapEntry, len(m.entries)),
		index:   make(map[string]int, len(m.index)),
	}
	copy(c.entries, m.entries)
	for k, v := range m.index {
		c.index[k] = v
	}
	return c
}

// Type implements Value.
func (m *MapValue) Type() types.ValueType { return types.TypeMap }

// Size returns the number of entries.
func (m *MapValue) Size() int { return len(m.entries) }

// Entries returns the entries in insertion order.
func (m *MapValue) Entries() []MapEntry { return m.entries }

// Keys returns the keys in insertion order.
func (m *MapValue) Keys() []Value {
	keys := make([]Value, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the value stored under key.
func (m *MapValue) Get(key AtomicValue) (Lazy, bool) {
	i, ok := m.index[mapKey(key)]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Contains reports whether key is present.
func (m *MapValue) Contains(key AtomicValue) bool {
	_, ok := m.index[mapKey(key)]
	return ok
}

// Put returns a copy of m where key maps to value. An existing entry keeps
// its position.
func (m *MapValue) Put(key AtomicValue, value Lazy) *MapValue {
	c := m.clone()
	c.set(MapEntry{Key: key, Value: value})
	return c
}

// Remove returns a copy of m without keys.
func (m *MapValue) Remove(keys ...AtomicValue) *MapValue {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[mapKey(k)] = true
	}
	out := &MapValue{index: make(map[string]int, len(m.entries))}
	for _, e := range m.entries {
		if !drop[mapKey(e.Key)] {
			out.set(e)
		}
	}
	return out
}

func (m *MapValue) String() string {
	parts := make([]string, len(m.entries))
	for i, e := range m.entries {
		parts[i] = strconv.Quote(e.Key.String()) + ":..."
	}
	return "map{" + strings.Join(parts, ",") + "}"
}

// SameKey reports whether two atomic values are the same map key. Unlike
// eq, NaN is the same key as NaN, and values of incomparable types are
// simply different keys.
func SameKey(a, b AtomicValue) bool {
	return mapKey(a) == mapKey(b)
}

// mapKey normalizes a key so that same keys map to the same string.
func mapKey(a AtomicValue) string {
	switch v := a.v.(type) {
	case string:
		return "s:" + v
	case bool:
		return "b:" + strconv.FormatBool(v)
	case int64:
		return "n:" + strconv.FormatInt(v, 10)
	case *apd.Decimal:
		return "n:" + formatDecimal(v)
	case float64:
		switch {
		case v != v:
			return "n:NaN"
		case v > 1e300 || v < -1e300:
			return "n:" + formatFloatingPoint(v, 64)
		}
		d := new(apd.Decimal)
		if _, err := d.SetFloat64(v); err != nil {
			return "n:" + formatFloatingPoint(v, 64)
		}
		return "n:" + formatDecimal(d)
	case DateTime:
		return fmt.Sprintf("t:%s:%d:%t", types.PrimitiveOf(a.typ), v.Time.UnixNano(), v.HasTZ)
	case Duration:
		return fmt.Sprintf("d:%d:%d", v.Months, v.Seconds)
	case types.QName:
		return "q:" + v.Expanded()
	case []byte:
		return fmt.Sprintf("x:%s:%x", a.typ, v)
	}
	return "?:" + a.String()
}
