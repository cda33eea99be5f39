package evaluator

import (
	"context"
)

// StreamResult holds one item produced by a streaming evaluation.
type StreamResult struct {
	// Value is the produced item, or nil when Err is set.
	Value Value
	// Err is non-nil when the evaluation failed. It is the last result
	// sent before the channel is closed.
	Err error
}

// Stream evaluates the expression on a goroutine and sends the items on
// the returned channel as they are produced, waiting on pending production.
//
// The channel is closed when the sequence is exhausted, fails, or ctx is
// cancelled; the cursor is closed in every case. It is the caller's
// responsibility to drain the channel or cancel the context to avoid
// goroutine leaks.
func (c *Compiled) Stream(ctx context.Context, opts ...EvaluateOption) <-chan StreamResult {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan StreamResult, 16)
	seq := c.Evaluate(ctx, opts...)

	go func() {
		defer close(ch)
		defer seq.Close()

		send := func(r StreamResult) bool {
			select {
			case ch <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			r, err := seq.Next()
			if err != nil {
				send(StreamResult{Err: err})
				return
			}
			switch r.State {
			case Done:
				return
			case Pending:
				select {
				case <-r.Wait:
				case <-ctx.Done():
					send(StreamResult{Err: ctx.Err()})
					return
				}
			case Ready:
				if !send(StreamResult{Value: r.Value}) {
					return
				}
			}
		}
	}()

	return ch
}
