package evaluator

import (
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/sandrolain/goxq/pkg/tree"
)

// PendingUpdateList collects the updates of an updating expression. The
// host owns it and applies it after evaluation.
type PendingUpdateList struct {
	mu      sync.Mutex
	deletes []tree.Pointer
}

// NewPendingUpdateList creates an empty list.
func NewPendingUpdateList() *PendingUpdateList {
	return &PendingUpdateList{}
}

// Delete schedules the removal of p. Scheduling the same node twice
// removes it once.
func (l *PendingUpdateList) Delete(p tree.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range l.deletes {
		if d == p {
			return
		}
	}
	l.deletes = append(l.deletes, p)
}

// Deletes returns the scheduled removals in scheduling order.
func (l *PendingUpdateList) Deletes() []tree.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]tree.Pointer, len(l.deletes))
	copy(out, l.deletes)
	return out
}

// Len returns the number of scheduled updates.
func (l *PendingUpdateList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.deletes)
}

// Apply performs the scheduled removals with remove and clears the list.
// A nil remove detaches nodes of XML documents. All failures are reported.
func (l *PendingUpdateList) Apply(remove func(tree.Pointer) error) error {
	if remove == nil {
		remove = tree.RemoveNode
	}
	l.mu.Lock()
	deletes := l.deletes
	l.deletes = nil
	l.mu.Unlock()

	var result error
	for _, p := range deletes {
		if err := remove(p); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}
