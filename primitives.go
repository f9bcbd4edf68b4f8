package missionary

// Runtime is the handle passed into every vtable callback (spec.md §4.5).
// It exposes the public primitives combinators use to drive the engine,
// bound to whichever process/subscription is current at the moment the
// callback runs. Runtime values are cheap and not meant to be retained
// past the callback that received them — the engine may reuse e.process
// and e.sub for the next reentry.
type Runtime struct {
	eng *Engine
	pub *Publisher
}

// Time returns the engine's current logical instant.
func (rt *Runtime) Time() int64 { return rt.eng.time }

// Transfer dereferences the current process's underlying computation,
// returning the next produced value. The meaning is combinator-defined;
// typically it extracts the value that triggered the most recent
// notification. May panic; the panic propagates to the calling combinator
// through the engine's recovered-callback boundary.
func (rt *Runtime) Transfer() any {
	p := rt.requireProcess()
	if p.comp == nil {
		return nil
	}
	return p.comp.Transfer()
}

// GetP reads the current process's user state.
func (rt *Runtime) GetP() any {
	return rt.requireProcess().state
}

// SetP writes the current process's user state.
func (rt *Runtime) SetP(x any) {
	rt.requireProcess().state = x
}

// Gets reads the current subscription's user state.
func (rt *Runtime) Gets() any {
	return rt.requireSub().state
}

// Sets writes the current subscription's user state.
func (rt *Runtime) Sets(x any) {
	rt.requireSub().state = x
}

// Success delivers a task success notification to the current
// subscription's consumer.
func (rt *Runtime) Success(x any) {
	s := rt.requireSub()
	s.flag = true
	s.state = x
	p := s.target
	dispatch(&p.waiting, s)
}

// Failure delivers a task failure notification to the current
// subscription's consumer.
func (rt *Runtime) Failure(x any) {
	s := rt.requireSub()
	s.flag = false
	s.state = x
	p := s.target
	dispatch(&p.waiting, s)
}

// Step signals that a flow value is now available on the current
// subscription, then moves it from waiting onto pending.
func (rt *Runtime) Step() {
	s := rt.requireSub()
	s.flag = true
	p := s.target
	dispatch(&p.waiting, s)
	p.pending = ringAttach(p.pending, s)
}

// Done signals flow termination on the current subscription. The flag is
// left as-is from its last value; the consumer detects termination by the
// combinator protocol (typically: Pull returns ErrCancelled-shaped or a
// sentinel the combinator recognizes after Done fires).
func (rt *Runtime) Done() {
	s := rt.requireSub()
	p := s.target
	dispatch(&p.waiting, s)
}

// Waiting invokes f once per subscription in the current process's
// waiting ring.
func (rt *Runtime) Waiting(f func(s *Subscription)) {
	p := rt.requireProcess()
	ringForeach(rt.eng, p.waiting, func(s *subscription) {
		f(&Subscription{eng: rt.eng, pub: rt.pub, sub: s})
	})
}

// Pending invokes f once per subscription in the current process's
// pending ring.
func (rt *Runtime) Pending(f func(s *Subscription)) {
	p := rt.requireProcess()
	ringForeach(rt.eng, p.pending, func(s *subscription) {
		f(&Subscription{eng: rt.eng, pub: rt.pub, sub: s})
	})
}

// Schedule arranges for the current process to tick, per spec.md §4.5:
// immediately if the process has no computation yet (initial scheduling
// during Perform), onto the current instant's reacted heap if the
// reactor is idle or this publisher's rank is strictly greater than the
// cursor, otherwise deferred to the next instant.
func (rt *Runtime) Schedule() {
	rt.eng.schedule(rt.requireProcess())
}

// Resolve is called by a process when its underlying computation
// terminates. If the process is still its publisher's current process,
// the publisher is released so a future Subscribe allocates a fresh one.
func (rt *Runtime) Resolve() {
	p := rt.requireProcess()
	if rt.pub.current == p {
		rt.pub.current = nil
	}
}

func (rt *Runtime) requireProcess() *process {
	if rt.eng.process == nil {
		panic(ErrNoProcess)
	}
	return rt.eng.process
}

func (rt *Runtime) requireSub() *subscription {
	if rt.eng.sub == nil {
		panic(ErrNoProcess)
	}
	return rt.eng.sub
}
