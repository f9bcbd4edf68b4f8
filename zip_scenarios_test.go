package missionary

// zipComputation is a minimal zip-of-two-flows combinator, written only
// to exercise the properties spec.md §8 calls out (cancellation cascade,
// LIFO/no-over-consumption, combiner-throws), not as a published API.
// It mirrors the shape every real combinator takes: subscribe to its
// inputs from within Effect, translate their step/done callbacks into
// this process's own notifyLeft/notifyRight, and do the actual pulling
// in Accept.
type zipComputation struct {
	x, y *Subscription

	xReady, yReady bool
	xDone, yDone   bool

	combine func(vx, vy any) (any, error)

	notifyStep func()
	notifyDone func()
}

func (z *zipComputation) onStep(isX bool) {
	if isX {
		z.xReady = true
	} else {
		z.yReady = true
	}
	if z.xReady && z.yReady {
		z.notifyStep()
	}
}

func (z *zipComputation) onDone(isX bool) {
	// Cancelling the sole remaining consumer of the other input doesn't
	// itself raise a Done notification (engine semantics: a sole
	// consumer's Cancel goes straight to the computation, with nothing
	// left to dispatch to) — so the cascade marks the other side done
	// here rather than waiting for a signal that will never arrive.
	if isX {
		z.xDone = true
		if z.y != nil && !z.yDone {
			z.y.Cancel()
			z.yDone = true
		}
	} else {
		z.yDone = true
		if z.x != nil && !z.xDone {
			z.x.Cancel()
			z.xDone = true
		}
	}
	if z.xDone && z.yDone {
		z.notifyDone()
	}
}

func (z *zipComputation) Cancel() {
	if z.x != nil {
		z.x.Cancel()
	}
	if z.y != nil {
		z.y.Cancel()
	}
}

// Transfer is unused: zipFlows's Accept pulls x/y directly rather than
// going through Runtime.Transfer, since it has two upstream values to
// combine rather than one.
func (z *zipComputation) Transfer() any { return nil }

// zipFlows builds a flow publisher that pairs successive values from x
// and y through combine, terminating when either input terminates (and
// cancelling the other), per spec.md §8 scenario 2.
func zipFlows(eng *Engine, x, y *Publisher, combine func(vx, vy any) (any, error)) *Publisher {
	return Flow(eng, Callbacks{
		Effect: func(rt *Runtime, notifyLeft, notifyRight func()) Computation {
			z := &zipComputation{combine: combine, notifyStep: notifyLeft, notifyDone: notifyRight}
			rt.SetP(z)
			// Subscribing to x may itself terminate synchronously (x's own
			// Subscribe callback can fire Done before this call returns).
			// y isn't set yet at that point, so onDone's cascade is a
			// no-op; record yDone here instead so y never gets a chance
			// to produce.
			z.x = x.SubscribeFlow(func() { z.onStep(true) }, func() { z.onDone(true) })
			if !z.xDone {
				z.y = y.SubscribeFlow(func() { z.onStep(false) }, func() { z.onDone(false) })
			} else {
				z.yDone = true
			}
			return z
		},
		// Subscribe runs after this subscription attaches to the waiting
		// ring, so it's the only place a same-instant Done (both inputs
		// already finished during Effect) can still reach this particular
		// consumer.
		Subscribe: func(rt *Runtime) {
			z := rt.GetP().(*zipComputation)
			if z.xDone && z.yDone {
				rt.Done()
			}
		},
		Lcb: func(rt *Runtime) { rt.Waiting(func(*Subscription) { rt.Step() }) },
		Rcb: func(rt *Runtime) {
			rt.Waiting(func(*Subscription) { rt.Done() })
			rt.Resolve()
		},
		Accept: func(rt *Runtime) {
			z := rt.GetP().(*zipComputation)
			vx, xerr := z.x.Pull()
			vy, yerr := z.y.Pull()
			z.xReady, z.yReady = false, false
			if xerr != nil || yerr != nil {
				rt.Sets(ErrCancelled)
				return
			}
			out, cerr := z.combine(vx, vy)
			if cerr != nil {
				z.x.Cancel()
				z.y.Cancel()
				rt.Sets(cerr)
				return
			}
			rt.Sets(out)
		},
		Reject: func(rt *Runtime) {},
	})
}
