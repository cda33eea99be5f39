package evaluator

import (
	"context"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// State is the outcome of a single pull on a Sequence.
type State int

// Cursor states. The zero State is invalid: it marks the Result returned
// alongside an error.
const (
	// Ready carries a value.
	Ready State = iota + 1
	// Pending means production waits for an external operation; the caller
	// must wait on Result.Wait before pulling again.
	Pending
	// Done means the sequence is exhausted. Done latches.
	Done
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Pending:
		return "pending"
	case Done:
		return "done"
	}
	return "unknown"
}

// Awaitable is closed when the operation a Pending result waits on settles.
type Awaitable <-chan struct{}

// Result is returned by Sequence.Next.
type Result struct {
	State State
	Value Value
	Wait  Awaitable
}

var (
	// ErrOutstandingPending is returned when Next is called before the
	// awaitable of the previous Pending result has resolved.
	ErrOutstandingPending = errors.New("evaluator: next called with an unresolved pending result")
	// ErrAlreadyBound is returned when PerformStaticEvaluation runs twice on
	// the same expression.
	ErrAlreadyBound = errors.New("evaluator: expression already statically evaluated")
)

var closedWait = func() Awaitable {
	c := make(chan struct{})
	close(c)
	return c
}()

var doneResult = Result{State: Done}

func readyResult(v Value) Result { return Result{State: Ready, Value: v} }

func pendingResult(w Awaitable) Result {
	if w == nil {
		w = closedWait
	}
	return Result{State: Pending, Wait: w}
}

// producer yields the next result of a sequence. Producers never see a
// pull before the previous Pending wait resolved.
type producer func() (Result, error)

// Sequence is a lazy, single-pass, pull-based cursor over Values.
//
// Items are produced on demand. Values peeked by IsEmpty, IsSingleton,
// GetLength and SwitchCases are buffered and still yielded by Next.
// Errors are sticky: once production fails every later pull fails with
// the same error.
type Sequence struct {
	next producer
	// remaining predicts the number of items the producer has yet to
	// yield, or -1 when unknown.
	remaining func() int
	buf       []Value
	done      bool
	err       error
	wait      Awaitable
	closers   []func() error
	closed    bool
}

// Lazy creates a sequence on demand. Bindings and map/array members are
// stored as Lazy values so each reader gets a fresh cursor.
type Lazy func() *Sequence

// NewSequence creates a sequence from a producer function. The function is
// called once per pull and must return Done when exhausted.
func NewSequence(next func() (Result, error)) *Sequence {
	return &Sequence{next: next}
}

// Empty returns the empty sequence.
func Empty() *Sequence {
	return &Sequence{done: true, remaining: func() int { return 0 }}
}

// FromValues creates a sequence over a fixed slice. The slice is not copied.
func FromValues(values ...Value) *Sequence {
	i := 0
	s := &Sequence{}
	s.next = func() (Result, error) {
		if i >= len(values) {
			return doneResult, nil
		}
		v := values[i]
		i++
		return readyResult(v), nil
	}
	s.remaining = func() int { return len(values) - i }
	return s
}

// FromValue creates a singleton sequence.
func FromValue(v Value) *Sequence {
	return FromValues(v)
}

// Errored returns a sequence whose first pull fails with err.
func Errored(err error) *Sequence {
	return &Sequence{err: err}
}

// Deferred builds the underlying sequence on the first pull, so that errors
// raised while building it surface lazily.
func Deferred(build func() *Sequence) *Sequence {
	var inner *Sequence
	s := &Sequence{}
	s.next = func() (Result, error) {
		if inner == nil {
			inner = build()
			s.closers = append(s.closers, inner.Close)
		}
		return inner.Next()
	}
	s.remaining = func() int {
		if inner == nil {
			return -1
		}
		return inner.predict()
	}
	return s
}

// Await yields Pending on wait until it is closed and then delegates to the
// sequence returned by then.
func Await(wait Awaitable, then func() *Sequence) *Sequence {
	return (&Sequence{}).delegateAfter(wait, then)
}

func (s *Sequence) delegateAfter(wait Awaitable, then func() *Sequence) *Sequence {
	var inner *Sequence
	s.next = func() (Result, error) {
		if inner == nil {
			select {
			case <-wait:
			default:
				return pendingResult(wait), nil
			}
			inner = then()
			s.closers = append(s.closers, inner.Close)
		}
		return inner.Next()
	}
	return s
}

// OnClose registers fn to run when the sequence is closed.
func (s *Sequence) OnClose(fn func() error) *Sequence {
	s.closers = append(s.closers, fn)
	return s
}

// Close disposes the sequence and every resource registered with OnClose,
// including the sources of derived sequences. It is safe to call more than
// once. Errors of all disposers are aggregated.
func (s *Sequence) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	s.done = true
	s.buf = nil
	s.next = nil
	var result error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.closers = nil
	return result
}

// settle clears a resolved wait, or reports that the caller pulled too
// early. The misuse error is not sticky.
func (s *Sequence) settle() error {
	if s.wait == nil {
		return nil
	}
	select {
	case <-s.wait:
		s.wait = nil
		return nil
	default:
		return ErrOutstandingPending
	}
}

// Next pulls the next result.
func (s *Sequence) Next() (Result, error) {
	if s.err != nil {
		return Result{}, s.err
	}
	if err := s.settle(); err != nil {
		return Result{}, err
	}
	if len(s.buf) > 0 {
		v := s.buf[0]
		s.buf = s.buf[1:]
		return readyResult(v), nil
	}
	if s.done {
		return doneResult, nil
	}
	r, err := s.pull()
	if err != nil {
		return Result{}, err
	}
	switch r.State {
	case Pending:
		r = pendingResult(r.Wait)
		s.wait = r.Wait
	case Done:
		s.finish()
	}
	return r, nil
}

func (s *Sequence) pull() (Result, error) {
	if s.next == nil {
		return doneResult, nil
	}
	r, err := s.next()
	if err != nil {
		s.err = err
		s.next = nil
		return Result{}, err
	}
	return r, nil
}

func (s *Sequence) finish() {
	s.done = true
	s.next = nil
}

// fill buffers up to n items without blocking. It returns a non-nil
// awaitable when production is pending; otherwise the buffer holds n items
// or the whole remaining sequence.
func (s *Sequence) fill(n int) (Awaitable, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := s.settle(); err != nil {
		return nil, err
	}
	for len(s.buf) < n && !s.done {
		r, err := s.pull()
		if err != nil {
			return nil, err
		}
		switch r.State {
		case Ready:
			s.buf = append(s.buf, r.Value)
		case Pending:
			r = pendingResult(r.Wait)
			s.wait = r.Wait
			return r.Wait, nil
		case Done:
			s.finish()
		}
	}
	return nil, nil
}

// fillBlocking buffers up to n items, waiting on pending production.
func (s *Sequence) fillBlocking(ctx context.Context, n int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		w, err := s.fill(n)
		if err != nil {
			return err
		}
		if w == nil {
			return nil
		}
		select {
		case <-w:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// predict returns the number of items not yet yielded, or -1 when that
// needs realization.
func (s *Sequence) predict() int {
	if s.err != nil {
		return -1
	}
	if s.done {
		return len(s.buf)
	}
	if s.remaining == nil {
		return -1
	}
	n := s.remaining()
	if n < 0 {
		return -1
	}
	return len(s.buf) + n
}

// GetAllValues realizes the rest of the sequence, waiting for pending
// production. It consumes the sequence.
func (s *Sequence) GetAllValues(ctx context.Context) ([]Value, error) {
	if err := s.fillBlocking(ctx, math.MaxInt); err != nil {
		return nil, err
	}
	values := s.buf
	s.buf = nil
	return values, nil
}

// IsEmpty reports whether the sequence yields no further item. The peeked
// item stays available.
func (s *Sequence) IsEmpty(ctx context.Context) (bool, error) {
	if n := s.predict(); n >= 0 {
		return n == 0, nil
	}
	if err := s.fillBlocking(ctx, 1); err != nil {
		return false, err
	}
	return len(s.buf) == 0, nil
}

// IsSingleton reports whether the sequence yields exactly one more item.
func (s *Sequence) IsSingleton(ctx context.Context) (bool, error) {
	if n := s.predict(); n >= 0 {
		return n == 1, nil
	}
	if err := s.fillBlocking(ctx, 2); err != nil {
		return false, err
	}
	return len(s.buf) == 1, nil
}

// GetLength returns the number of remaining items. When the length is not
// known in advance, predictOnly returns -1; otherwise the items are
// realized into the buffer and the sequence stays usable.
func (s *Sequence) GetLength(ctx context.Context, predictOnly bool) (int, error) {
	if n := s.predict(); n >= 0 || predictOnly {
		return n, nil
	}
	if err := s.fillBlocking(ctx, math.MaxInt); err != nil {
		return 0, err
	}
	return len(s.buf), nil
}

// TryEffectiveBooleanValue computes the effective boolean value without
// blocking. When production is pending it returns the awaitable; the caller
// retries once it resolves.
func (s *Sequence) TryEffectiveBooleanValue() (bool, Awaitable, error) {
	w, err := s.fill(2)
	if err != nil {
		return false, nil, err
	}
	if w != nil {
		return false, w, nil
	}
	b, err := effectiveBooleanValue(s.buf)
	return b, nil, err
}

// EffectiveBooleanValue computes the effective boolean value, waiting for
// pending production.
func (s *Sequence) EffectiveBooleanValue(ctx context.Context) (bool, error) {
	if err := s.fillBlocking(ctx, 2); err != nil {
		return false, err
	}
	return effectiveBooleanValue(s.buf)
}
