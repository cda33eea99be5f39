package evaluator

import (
	"context"
	"math"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/sandrolain/goxq/pkg/types"
)

func ints(values ...int64) []Value {
	out := make([]Value, len(values))
	for i, v := range values {
		out[i] = NewInteger(v)
	}
	return out
}

// drain pulls every item, failing on Pending.
func drain(t *testing.T, s *Sequence) []string {
	t.Helper()
	var out []string
	for {
		r, err := s.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		switch r.State {
		case Done:
			return out
		case Pending:
			t.Fatal("unexpected pending result")
		case Ready:
			out = append(out, r.Value.String())
		}
	}
}

func TestSequenceDoneLatches(t *testing.T) {
	s := FromValues(ints(1, 2)...)
	if got := drain(t, s); !equalStrings(got, []string{"1", "2"}) {
		t.Errorf("got %v, want [1 2]", got)
	}
	for i := 0; i < 3; i++ {
		r, err := s.Next()
		if err != nil || r.State != Done {
			t.Errorf("pull %d after done: got %v %v, want done", i, r.State, err)
		}
	}
}

func TestSequencePending(t *testing.T) {
	f := NewFuture[int]()
	s := Await(f.Done(), func() *Sequence {
		v, _ := f.Result()
		return FromValue(NewInteger(int64(v)))
	})

	r, err := s.Next()
	if err != nil || r.State != Pending {
		t.Fatalf("got %v %v, want pending", r.State, err)
	}
	early, err := s.Next()
	if !errors.Is(err, ErrOutstandingPending) {
		t.Errorf("got %v, want ErrOutstandingPending", err)
	}
	if early.State == Ready || early.State.String() != "unknown" {
		t.Errorf("early pull reads as %v", early.State)
	}

	f.Complete(7, nil)
	<-r.Wait
	if got := drain(t, s); !equalStrings(got, []string{"7"}) {
		t.Errorf("got %v, want [7]", got)
	}
}

func TestSequenceErrorsAreSticky(t *testing.T) {
	boom := types.Errorf(types.ErrType, "boom")
	calls := 0
	s := NewSequence(func() (Result, error) {
		calls++
		return Result{}, boom
	})
	for i := 0; i < 2; i++ {
		r, err := s.Next()
		if err != boom {
			t.Errorf("pull %d: got %v, want %v", i, err, boom)
		}
		if r.State == Ready || r.Value != nil {
			t.Errorf("pull %d: failed pull reads as %v %v", i, r.State, r.Value)
		}
	}
	if calls != 1 {
		t.Errorf("producer called %d times, want 1", calls)
	}
}

func TestSequencePeekKeepsItems(t *testing.T) {
	ctx := context.Background()
	s := FromValues(ints(1, 2, 3)...).Filter(func(Value) (bool, error) { return true, nil })

	empty, err := s.IsEmpty(ctx)
	if err != nil || empty {
		t.Fatalf("IsEmpty: got %v %v, want false", empty, err)
	}
	single, err := s.IsSingleton(ctx)
	if err != nil || single {
		t.Fatalf("IsSingleton: got %v %v, want false", single, err)
	}
	if got := drain(t, s); !equalStrings(got, []string{"1", "2", "3"}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestSequenceGetLength(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name        string
		seq         func() *Sequence
		predictOnly bool
		want        int
	}{
		{"values", func() *Sequence { return FromValues(ints(1, 2, 3)...) }, true, 3},
		{"map keeps prediction", func() *Sequence {
			return FromValues(ints(1, 2)...).Map(func(v Value) (Value, error) { return v, nil })
		}, true, 2},
		{"concat", func() *Sequence { return Concat(FromValues(ints(1)...), FromValues(ints(2, 3)...)) }, true, 3},
		{"filter unknown", func() *Sequence {
			return FromValues(ints(1, 2)...).Filter(func(Value) (bool, error) { return true, nil })
		}, true, -1},
		{"filter realized", func() *Sequence {
			return FromValues(ints(1, 2, 3)...).Filter(func(v Value) (bool, error) { return v.String() != "2", nil })
		}, false, 2},
		{"empty", Empty, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.seq().GetLength(ctx, tt.predictOnly)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSwitchCases(t *testing.T) {
	label := func(name string) func(*Sequence) *Sequence {
		return func(*Sequence) *Sequence { return FromValue(NewString(name)) }
	}
	cases := Cases{Empty: label("empty"), Singleton: label("one"), Default: label("many")}

	tests := []struct {
		name string
		in   []Value
		want string
	}{
		{"empty", nil, "empty"},
		{"singleton", ints(1), "one"},
		{"multiple", ints(1, 2, 3), "many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := drain(t, FromValues(tt.in...).SwitchCases(cases))
			if !equalStrings(got, []string{tt.want}) {
				t.Errorf("got %v, want %s", got, tt.want)
			}
		})
	}

	t.Run("pass through", func(t *testing.T) {
		got := drain(t, FromValues(ints(4, 5)...).SwitchCases(Cases{}))
		if !equalStrings(got, []string{"4", "5"}) {
			t.Errorf("got %v, want [4 5]", got)
		}
	})
}

func TestReplayableRealizesOnce(t *testing.T) {
	pulls := 0
	values := ints(1, 2)
	src := NewSequence(func() (Result, error) {
		if pulls >= len(values) {
			return doneResult, nil
		}
		pulls++
		return readyResult(values[pulls-1]), nil
	})
	lazy := src.Replayable()

	a, b := lazy(), lazy()
	for _, s := range []*Sequence{a, b, lazy()} {
		if got := drain(t, s); !equalStrings(got, []string{"1", "2"}) {
			t.Errorf("got %v, want [1 2]", got)
		}
	}
	if pulls != 2 {
		t.Errorf("source pulled %d items, want 2", pulls)
	}
}

func TestReplayablePending(t *testing.T) {
	f := NewFuture[string]()
	lazy := Await(f.Done(), func() *Sequence {
		v, _ := f.Result()
		return FromValue(NewString(v))
	}).Replayable()

	fork := lazy()
	r, err := fork.Next()
	if err != nil || r.State != Pending {
		t.Fatalf("got %v %v, want pending", r.State, err)
	}
	f.Complete("x", nil)
	if got := drain(t, fork); !equalStrings(got, []string{"x"}) {
		t.Errorf("got %v, want [x]", got)
	}
	if got := drain(t, lazy()); !equalStrings(got, []string{"x"}) {
		t.Errorf("second fork: got %v, want [x]", got)
	}
}

func TestCloseDisposesSources(t *testing.T) {
	var closed []string
	src := FromValues(ints(1, 2, 3)...).OnClose(func() error {
		closed = append(closed, "source")
		return errors.New("source failed")
	})
	derived := src.Map(func(v Value) (Value, error) { return v, nil }).OnClose(func() error {
		closed = append(closed, "derived")
		return errors.New("derived failed")
	})

	if _, err := derived.Next(); err != nil {
		t.Fatal(err)
	}
	err := derived.Close()
	var merr *multierror.Error
	if !errors.As(err, &merr) || len(merr.Errors) != 2 {
		t.Fatalf("got %v, want two aggregated errors", err)
	}
	if !equalStrings(closed, []string{"derived", "source"}) {
		t.Errorf("close order %v, want [derived source]", closed)
	}
	if err := derived.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if r, err := derived.Next(); err != nil || r.State != Done {
		t.Errorf("after Close: got %v %v, want done", r.State, err)
	}
}

func TestWithContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := FromValues(ints(1, 2)...).WithContext(ctx)
	if r, err := s.Next(); err != nil || r.State != Ready {
		t.Fatalf("got %v %v, want ready", r.State, err)
	}
	cancel()
	if _, err := s.Next(); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestEffectiveBooleanValue(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		in      []Value
		want    bool
		wantErr types.ErrorCode
	}{
		{"empty", nil, false, ""},
		{"true", []Value{NewBoolean(true)}, true, ""},
		{"empty string", []Value{NewString("")}, false, ""},
		{"string", []Value{NewString("a")}, true, ""},
		{"zero", ints(0), false, ""},
		{"integer", ints(3), true, ""},
		{"NaN", []Value{NewDouble(math.NaN())}, false, ""},
		{"two numbers", ints(1, 2), false, types.ErrInvalidBooleanValue},
		{"map", []Value{NewMap()}, false, types.ErrInvalidBooleanValue},
		{"date", []Value{NewDateTime(types.TypeDate, fixedNow, true)}, false, types.ErrInvalidBooleanValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromValues(tt.in...).EffectiveBooleanValue(ctx)
			if code := types.CodeOf(err); code != tt.wantErr {
				t.Fatalf("got error %v, want %q", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapAllPropagatesPending(t *testing.T) {
	f := NewFuture[int]()
	s := Await(f.Done(), func() *Sequence { return FromValues(ints(1, 2, 3)...) }).
		MapAll(func(values []Value) *Sequence { return FromValue(NewInteger(int64(len(values)))) })

	r, err := s.Next()
	if err != nil || r.State != Pending {
		t.Fatalf("got %v %v, want pending", r.State, err)
	}
	f.Complete(0, nil)
	<-r.Wait
	if got := drain(t, s); !equalStrings(got, []string{"3"}) {
		t.Errorf("got %v, want [3]", got)
	}
}

func TestFlatMapReportsInnerCloseErrors(t *testing.T) {
	closes := 0
	s := FromValues(ints(1, 2)...).FlatMap(func(v Value) *Sequence {
		return FromValues(v, v).OnClose(func() error {
			closes++
			return errors.Errorf("inner %d failed", closes)
		})
	})
	if got := drain(t, s); !equalStrings(got, []string{"1", "1", "2", "2"}) {
		t.Fatalf("got %v, want [1 1 2 2]", got)
	}
	if closes != 2 {
		t.Fatalf("closed %d inner sequences, want 2", closes)
	}
	var merr *multierror.Error
	if err := s.Close(); !errors.As(err, &merr) || len(merr.Errors) != 2 {
		t.Errorf("got %v, want both inner errors", err)
	}
}
