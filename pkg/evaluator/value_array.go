package evaluator

import (
	"strconv"

	"github.com/sandrolain/goxq/pkg/types"
)

// ArrayValue is an immutable array item whose members are sequences.
type ArrayValue struct {
	members []Lazy
}

// NewArray creates an array over members. The slice is not copied.
func NewArray(members ...Lazy) *ArrayValue {
	return &ArrayValue{members: members}
}

// Type implements Value.
func (a *ArrayValue) Type() types.ValueType { return types.TypeArray }

// Size returns the number of members.
func (a *ArrayValue) Size() int { return len(a.members) }

// Members returns the members.
func (a *ArrayValue) Members() []Lazy { return a.members }

// Get returns the member at the 1-based position.
func (a *ArrayValue) Get(position int64) (Lazy, error) {
	if position < 1 || position > int64(len(a.members)) {
		return nil, types.Errorf(types.ErrArrayIndexOutOfBounds, "array index %d out of bounds (1..%d)", position, len(a.members))
	}
	return a.members[position-1], nil
}

// Put returns a copy of a with the member at position replaced.
func (a *ArrayValue) Put(position int64, member Lazy) (*ArrayValue, error) {
	if _, err := a.Get(position); err != nil {
		return nil, err
	}
	members := make([]Lazy, len(a.members))
	copy(members, a.members)
	members[position-1] = member
	return NewArray(members...), nil
}

// Append returns a copy of a with member added at the end.
func (a *ArrayValue) Append(member Lazy) *ArrayValue {
	members := make([]Lazy, len(a.members), len(a.members)+1)
	copy(members, a.members)
	return NewArray(append(members, member)...)
}

// Subarray returns length members starting at the 1-based start.
func (a *ArrayValue) Subarray(start, length int64) (*ArrayValue, error) {
	if length < 0 {
		return nil, types.Errorf(types.ErrNegativeArrayLength, "negative subarray length %d", length)
	}
	if start < 1 || start > int64(len(a.members))+1 || start+length > int64(len(a.members))+1 {
		return nil, types.Errorf(types.ErrArrayIndexOutOfBounds, "subarray(%d, %d) out of bounds for size %d", start, length, len(a.members))
	}
	return NewArray(a.members[start-1 : start-1+length]...), nil
}

func (a *ArrayValue) String() string {
	return "array(" + strconv.Itoa(len(a.members)) + ")"
}
