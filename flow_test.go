package missionary

import "testing"

// simpleFlowComputation feeds a fixed slice of values, one per Transfer
// call, driven entirely by the test through the captured step/done
// triggers — standing in for a real external source (timer, socket, ...).
type simpleFlowComputation struct {
	cancelled *bool
	values    []any
	i         int
}

func (f *simpleFlowComputation) Cancel() { *f.cancelled = true }
func (f *simpleFlowComputation) Transfer() any {
	v := f.values[f.i]
	f.i++
	return v
}

func newTestFlow(eng *Engine, values []any, cancelled *bool) (*Publisher, func(), func()) {
	var step, done func()
	pub := Flow(eng, Callbacks{
		Effect: func(rt *Runtime, notifyLeft, notifyRight func()) Computation {
			step, done = notifyLeft, notifyRight
			return &simpleFlowComputation{cancelled: cancelled, values: values}
		},
		// Lcb/Rcb notify every subscription still on the waiting ring —
		// the underlying computation doesn't address a single consumer,
		// so the step/done fan-out happens here, matching the contract
		// that Step/Done act on whichever subscription is current
		// (Runtime.Waiting sets it per member as it iterates).
		Lcb: func(rt *Runtime) { rt.Waiting(func(*Subscription) { rt.Step() }) },
		Rcb: func(rt *Runtime) { rt.Waiting(func(*Subscription) { rt.Done() }) },
		Accept: func(rt *Runtime) {
			rt.Sets(rt.Transfer())
		},
		Reject: func(rt *Runtime) {},
	})
	return pub, func() { step() }, func() { done() }
}

func TestFlowStepPullDone(t *testing.T) {
	eng := NewEngine(nil)
	cancelled := false
	pub, step, done := newTestFlow(eng, []any{"a", "b"}, &cancelled)

	var stepped, finished bool
	sub := pub.SubscribeFlow(func() { stepped = true }, func() { finished = true })

	step()
	if !stepped {
		t.Fatalf("expected onStep to fire after notifyLeft")
	}
	v, err := sub.Pull()
	if err != nil || v != "a" {
		t.Fatalf("got v=%v err=%v, want a/nil", v, err)
	}

	stepped = false
	step()
	v, err = sub.Pull()
	if err != nil || v != "b" {
		t.Fatalf("got v=%v err=%v, want b/nil", v, err)
	}

	done()
	if !finished {
		t.Fatalf("expected onDone to fire")
	}
}

func TestFlowCancelSoleConsumerCascades(t *testing.T) {
	eng := NewEngine(nil)
	cancelled := false
	pub, _, _ := newTestFlow(eng, nil, &cancelled)

	sub := pub.SubscribeFlow(func() {}, func() {})
	sub.Cancel()
	if !cancelled {
		t.Fatalf("expected sole-consumer cancel to cascade to the underlying computation")
	}
	sub.Cancel() // idempotent
}

func TestFlowCancelWhilePendingForcesCancelledOnNextPull(t *testing.T) {
	eng := NewEngine(nil)
	cancelled := false
	pub, step, _ := newTestFlow(eng, []any{"x"}, &cancelled)

	otherSub := pub.SubscribeFlow(func() {}, func() {})
	sub := pub.SubscribeFlow(func() {}, func() {})

	step() // moves both subscriptions from waiting onto pending

	// Cancel sub while it holds a pending, unpulled value; otherSub keeps
	// the process alive so this is not the sole-consumer case.
	sub.Cancel()

	_, err := sub.Pull()
	if err != ErrCancelled {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
	if cancelled {
		t.Fatalf("computation must not be cancelled while another consumer remains")
	}
	_ = otherSub
}
