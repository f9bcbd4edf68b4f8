package missionary

// Flow builds a flow publisher: a node that produces a sequence of values
// until it terminates. Callbacks.Accept is required — a nil Accept is what
// marks a publisher as a task (spec.md §6). A nil Reject is allowed; the
// engine skips it on cancellation.
func Flow(eng *Engine, cb Callbacks) *Publisher {
	if cb.Accept == nil {
		panic("missionary: Flow publisher must set Accept; use Task for single-value publishers")
	}
	return newPublisher(eng, cb)
}

// SubscribeFlow subscribes to a flow publisher. onStep is called when a
// new value becomes available for Pull; onDone is called once, on
// termination (after which further Pull calls return ErrCancelled).
func (p *Publisher) SubscribeFlow(onStep func(), onDone func()) *Subscription {
	if !p.isFlow() {
		panic("missionary: SubscribeFlow called on a task publisher")
	}
	if p.engine.Closed() {
		if onDone != nil {
			onDone()
		}
		return &Subscription{eng: p.engine, pub: p, sub: &subscription{}}
	}
	s := p.engine.subscribe(p, func(any) {
		if onStep != nil {
			onStep()
		}
	}, func(any) {
		if onDone != nil {
			onDone()
		}
	})
	return &Subscription{eng: p.engine, pub: p, sub: s}
}
