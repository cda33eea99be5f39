package evaluator

import (
	"context"
	"math"

	"github.com/hashicorp/go-multierror"
)

// derive creates a sequence reading from s. Closing it closes s.
func (s *Sequence) derive(next producer) *Sequence {
	d := &Sequence{next: next}
	d.closers = append(d.closers, s.Close)
	return d
}

// Map applies fn to every item. The length prediction of s is preserved.
func (s *Sequence) Map(fn func(Value) (Value, error)) *Sequence {
	d := s.derive(func() (Result, error) {
		r, err := s.Next()
		if err != nil || r.State != Ready {
			return r, err
		}
		v, err := fn(r.Value)
		if err != nil {
			return Result{}, err
		}
		return readyResult(v), nil
	})
	d.remaining = s.predict
	return d
}

// Filter keeps the items for which keep returns true.
func (s *Sequence) Filter(keep func(Value) (bool, error)) *Sequence {
	return s.derive(func() (Result, error) {
		for {
			r, err := s.Next()
			if err != nil || r.State != Ready {
				return r, err
			}
			ok, err := keep(r.Value)
			if err != nil {
				return Result{}, err
			}
			if ok {
				return r, nil
			}
		}
	})
}

// FlatMap replaces every item with the sequence fn returns for it. Inner
// sequences are closed as they finish; their disposer errors are reported
// by Close of the returned sequence.
func (s *Sequence) FlatMap(fn func(Value) *Sequence) *Sequence {
	var inner *Sequence
	var finished error
	d := s.derive(nil)
	d.next = func() (Result, error) {
		for {
			if inner == nil {
				r, err := s.Next()
				if err != nil || r.State != Ready {
					return r, err
				}
				inner = fn(r.Value)
			}
			r, err := inner.Next()
			if err != nil || r.State != Done {
				return r, err
			}
			if err := inner.Close(); err != nil {
				finished = multierror.Append(finished, err)
			}
			inner = nil
		}
	}
	d.closers = append(d.closers, func() error {
		if inner == nil {
			return finished
		}
		if err := inner.Close(); err != nil {
			return multierror.Append(finished, err)
		}
		return finished
	})
	return d
}

// Concat yields the items of every sequence in turn.
func Concat(seqs ...*Sequence) *Sequence {
	switch len(seqs) {
	case 0:
		return Empty()
	case 1:
		return seqs[0]
	}
	i := 0
	d := &Sequence{}
	d.next = func() (Result, error) {
		for i < len(seqs) {
			r, err := seqs[i].Next()
			if err != nil || r.State != Done {
				return r, err
			}
			i++
		}
		return doneResult, nil
	}
	d.remaining = func() int {
		total := 0
		for _, s := range seqs[i:] {
			n := s.predict()
			if n < 0 {
				return -1
			}
			total += n
		}
		return total
	}
	for _, s := range seqs {
		d.closers = append(d.closers, s.Close)
	}
	return d
}

// MapAll realizes s without blocking, propagating Pending, and then yields
// the items of the sequence fn builds from all of its values.
func (s *Sequence) MapAll(fn func([]Value) *Sequence) *Sequence {
	var inner *Sequence
	d := s.derive(nil)
	d.next = func() (Result, error) {
		if inner == nil {
			w, err := s.fill(math.MaxInt)
			if err != nil {
				return Result{}, err
			}
			if w != nil {
				return pendingResult(w), nil
			}
			values := s.buf
			s.buf = nil
			inner = fn(values)
			d.closers = append(d.closers, inner.Close)
		}
		return inner.Next()
	}
	d.remaining = func() int {
		if inner == nil {
			return -1
		}
		return inner.predict()
	}
	return d
}

// Cases selects a continuation by the cardinality of a sequence. Nil
// entries fall back to Default; a nil Default passes the sequence through.
type Cases struct {
	Empty     func(*Sequence) *Sequence
	Singleton func(*Sequence) *Sequence
	Multiple  func(*Sequence) *Sequence
	Default   func(*Sequence) *Sequence
}

// SwitchCases classifies s by peeking at most two items and continues with
// the matching case. Peeked items are still yielded by s.
func (s *Sequence) SwitchCases(c Cases) *Sequence {
	var inner *Sequence
	d := s.derive(nil)
	d.next = func() (Result, error) {
		if inner == nil {
			w, err := s.fill(2)
			if err != nil {
				return Result{}, err
			}
			if w != nil {
				return pendingResult(w), nil
			}
			var handler func(*Sequence) *Sequence
			switch len(s.buf) {
			case 0:
				handler = c.Empty
			case 1:
				handler = c.Singleton
			default:
				handler = c.Multiple
			}
			if handler == nil {
				handler = c.Default
			}
			if handler == nil {
				inner = s
			} else {
				inner = handler(s)
				d.closers = append(d.closers, inner.Close)
			}
		}
		return inner.Next()
	}
	d.remaining = func() int {
		if inner == nil {
			return s.predict()
		}
		return inner.predict()
	}
	return d
}

// replayState is the buffer shared by the forks of a replayable sequence.
type replayState struct {
	src  *Sequence
	buf  []Value
	wait Awaitable
}

func (r *replayState) at(i int) (Result, error) {
	if i < len(r.buf) {
		return readyResult(r.buf[i]), nil
	}
	if r.wait != nil {
		select {
		case <-r.wait:
			r.wait = nil
		default:
			return pendingResult(r.wait), nil
		}
	}
	res, err := r.src.Next()
	if err != nil {
		return Result{}, err
	}
	switch res.State {
	case Ready:
		r.buf = append(r.buf, res.Value)
	case Pending:
		r.wait = res.Wait
	}
	return res, nil
}

// Replayable turns s into a factory of independent cursors over the same
// items. s is realized at most once, on demand, into a shared buffer.
func (s *Sequence) Replayable() Lazy {
	state := &replayState{src: s}
	return func() *Sequence {
		pos := 0
		fork := &Sequence{}
		fork.next = func() (Result, error) {
			r, err := state.at(pos)
			if err == nil && r.State == Ready {
				pos++
			}
			return r, err
		}
		fork.remaining = func() int {
			n := state.src.predict()
			if n < 0 {
				return -1
			}
			return len(state.buf) - pos + n
		}
		return fork
	}
}

// ValuesLazy returns a factory of sequences over values.
func ValuesLazy(values ...Value) Lazy {
	return func() *Sequence { return FromValues(values...) }
}

// WithContext stops production with the context error once ctx is done.
func (s *Sequence) WithContext(ctx context.Context) *Sequence {
	d := s.derive(func() (Result, error) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		return s.Next()
	})
	d.remaining = s.predict
	return d
}
