package missionary

import (
	"fmt"

	"github.com/google/uuid"
)

// Engine is the process-wide handle replacing the spec's global mutable
// Context singleton (spec.md §9 design notes): logical time, the
// currently executing process/subscription, the rank cursor of the
// current reaction, and the two pairing heaps of scheduled processes.
//
// An Engine is single-writer: exactly one thread of control ever owns it
// at a time. It is not safe to share an *Engine across goroutines without
// external serialization — the same posture spec.md §5 describes for the
// original's global context. External asynchronous events (timers, I/O
// completions) must re-enter through a combinator-supplied callback that
// itself calls back into the engine under the caller's own serialization
// (see package ticker for the one built-in example).
type Engine struct {
	time int64

	process *process
	sub     *subscription
	cursor  Rank

	reacted *process
	delayed *process

	topLevel  int
	depth     int
	inReactor bool

	logger Logger

	// notify, if set, is called once per dispatched notification right
	// after propagate picks it up. Used by package trace to mirror the
	// notification stream without participating in scheduling.
	notify func(kind string, pub *Publisher, sub *Subscription)

	// publishers records every publisher ever built against this engine,
	// in creation order. Read-only bookkeeping for package debugserver;
	// the reactor never consults it.
	publishers []*Publisher

	closed bool

	// maxTicksPerInstant caps how many processes the reactor ticks within
	// a single logical instant before deferring the remainder to the
	// next one. Zero (the default) means unlimited. A circuit breaker
	// against a combinator bug that keeps re-scheduling itself at the
	// same or a lower rank forever, which would otherwise starve the
	// reactor at time t (package engineconfig wires this from config).
	maxTicksPerInstant int
}

// SetMaxTicksPerInstant sets the reactor's per-instant tick budget. n <= 0
// disables the limit.
func (e *Engine) SetMaxTicksPerInstant(n int) {
	e.maxTicksPerInstant = n
}

// MaxTicksPerInstant returns the reactor's current per-instant tick
// budget (0 meaning unlimited).
func (e *Engine) MaxTicksPerInstant() int {
	return e.maxTicksPerInstant
}

// Close marks the engine as shut down. Existing live processes are left
// running; new subscriptions made after Close fail fast with
// ErrEngineShutdown instead of allocating a process (SubscribeTask's
// onFailure, or SubscribeFlow's onDone, fires synchronously).
func (e *Engine) Close() { e.closed = true }

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool { return e.closed }

// Publishers returns every publisher built against this engine, in
// creation order. Intended for introspection (package debugserver), not
// for driving reactor logic.
func (e *Engine) Publishers() []*Publisher {
	out := make([]*Publisher, len(e.publishers))
	copy(out, e.publishers)
	return out
}

// ReactorStats reports how many processes are currently queued on each of
// the reactor's two heaps (spec.md §4.7), plus the engine's logical time.
func (e *Engine) ReactorStats() (reacted, delayed int, logicalTime int64) {
	return heapCount(e.reacted), heapCount(e.delayed), e.time
}

// NewEngine creates an idle Engine. A nil logger installs a no-op logger.
func NewEngine(logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{logger: logger}
}

// Time returns the engine's current logical instant.
func (e *Engine) Time() int64 { return e.time }

// OnNotify registers a hook invoked once per notification dispatch. Only
// one hook is supported; intended for package trace.
func (e *Engine) OnNotify(f func(kind string, pub *Publisher, sub *Subscription)) {
	e.notify = f
}

// --- entering and leaving the engine (spec.md §4.2) ---

type frame struct {
	wasHeld      bool
	savedProcess *process
	savedSub     *subscription
}

func (e *Engine) enter(pub *Publisher) frame {
	f := frame{wasHeld: pub.held, savedProcess: e.process, savedSub: e.sub}
	pub.held = true
	e.depth++
	return f
}

func (e *Engine) exit(pub *Publisher, f frame) {
	e.process = f.savedProcess
	e.sub = f.savedSub
	var rethrow any
	if !f.wasHeld {
		pub.held = false
		func() {
			defer func() {
				if r := recover(); r != nil {
					rethrow = r
				}
			}()
			e.propagate(pub)
		}()
		// propagate leaves e.process/e.sub pointing at the last notified
		// consumer; restore the caller's frame so an outermost exit sees
		// e.process == nil and the reactor can drain.
		e.process = f.savedProcess
		e.sub = f.savedSub
	}
	e.depth--
	if e.depth == 0 && !e.inReactor {
		e.reactor()
	}
	// The frame's own bookkeeping above must complete before a user
	// callback's panic (already wrapped in ErrUserCallback by runCallback)
	// continues unwinding, per spec.md §7.
	if rethrow != nil {
		panic(rethrow)
	}
}

// --- propagation (spec.md §4.3) ---

func (e *Engine) propagate(pub *Publisher) {
	for pub.prop != nil {
		s := pub.prop
		pub.prop = s.propNext
		s.propNext = nil

		e.process = s.source
		e.sub = s

		kind := "failure"
		cb := s.rcb
		if s.flag {
			kind = "success"
			cb = s.lcb
		}
		if pub.isFlow() {
			if s.flag {
				kind = "step"
			} else {
				kind = "done"
			}
		}
		if e.notify != nil {
			e.notify(kind, pub, &Subscription{eng: e, pub: pub, sub: s})
		}
		if cb != nil {
			e.runCallback(pub, cb)
		}
	}
}

// runCallback invokes a user callback. A panic is logged, wrapped in
// ErrUserCallback, and re-panicked so it keeps unwinding — but only after
// giving the enclosing engine frame (enter/exit) a chance to run its own
// exit bookkeeping first, per spec.md §7. Every call site that surrounds
// runCallback with enter/exit defers exit (or recovers and re-panics
// around it, as exit itself does for propagate) so that guarantee holds.
func (e *Engine) runCallback(pub *Publisher, cb func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("missionary: recovered panic in user callback", "publisher", pub.ID, "panic", r)
			panic(fmt.Errorf("%w: %v", ErrUserCallback, r))
		}
	}()
	cb()
}

// --- sub / unsub / accept (spec.md §4.6) ---

func (e *Engine) subscribe(pub *Publisher, consumerLcb, consumerRcb func(state any)) *subscription {
	f := e.enter(pub)
	defer e.exit(pub, f)

	caller := f.savedProcess

	if pub.current == nil {
		p := &process{parent: pub, state: pub.initp}
		pub.current = p
		e.process = p
		e.sub = nil
		if pub.cb.Perform != nil {
			e.runCallback(pub, func() { pub.cb.Perform(&Runtime{eng: e, pub: pub}) })
		}
		notifyLeft, notifyRight := e.bindNotifiers(pub, p)
		p.comp = pub.cb.Effect(&Runtime{eng: e, pub: pub}, notifyLeft, notifyRight)
	}

	p := pub.current
	e.process = p
	s := &subscription{
		ID:     uuid.New(),
		source: caller,
		target: p,
		state:  pub.inits,
		flag:   false,
	}
	s.lcb = func() { consumerLcb(s.state) }
	s.rcb = func() { consumerRcb(s.state) }
	p.waiting = ringAttach(p.waiting, s)

	savedSub := e.sub
	e.sub = s
	if pub.cb.Subscribe != nil {
		e.runCallback(pub, func() { pub.cb.Subscribe(&Runtime{eng: e, pub: pub}) })
	}
	e.sub = savedSub

	return s
}

// bindNotifiers returns the two callbacks passed to Effect. Each, when
// called, enters the publisher, sets the current process, clears the
// current subscription, invokes the underlying user callback (lcb for
// left/success/step, rcb for right/failure/done), and exits.
func (e *Engine) bindNotifiers(pub *Publisher, p *process) (func(), func()) {
	left := func() {
		f := e.enter(pub)
		defer e.exit(pub, f)
		e.process = p
		e.sub = nil
		if pub.cb.Lcb != nil {
			e.runCallback(pub, func() { pub.cb.Lcb(&Runtime{eng: e, pub: pub}) })
		}
	}
	right := func() {
		f := e.enter(pub)
		defer e.exit(pub, f)
		e.process = p
		e.sub = nil
		if pub.cb.Rcb != nil {
			e.runCallback(pub, func() { pub.cb.Rcb(&Runtime{eng: e, pub: pub}) })
		}
	}
	return left, right
}

func (e *Engine) unsub(pub *Publisher, s *subscription) {
	f := e.enter(pub)
	defer e.exit(pub, f)

	if s.next == nil && s.prev == nil {
		return // already detached (terminal or previously cancelled)
	}

	p := s.target
	e.process = p // exit(pub, f) restores e.process from the frame captured by enter above

	if !pub.isFlow() {
		sole := s.next == s
		if sole {
			pub.current = nil
			ringDetach(&p.waiting, s)
			if p.comp != nil {
				p.comp.Cancel()
			}
		} else {
			s.state = errCancelledState{}
			s.flag = false
			dispatch(&p.waiting, s)
		}
		return
	}

	if isInRing(p.waiting, s) {
		soleConsumer := ringIsSingleton(p.waiting, s) && p.pending == nil
		if soleConsumer {
			pub.current = nil
			ringDetach(&p.waiting, s)
			if p.comp != nil {
				p.comp.Cancel()
			}
			return
		}
		ringDetach(&p.waiting, s)
		if pub.cb.Reject != nil {
			savedSub := e.sub
			e.sub = s
			e.runCallback(pub, func() { pub.cb.Reject(&Runtime{eng: e, pub: pub}) })
			e.sub = savedSub
		}
		return
	}

	// s is on pending.
	soleConsumer := ringIsSingleton(p.pending, s) && p.waiting == nil
	if soleConsumer {
		pub.current = nil
		ringDetach(&p.pending, s)
		if p.comp != nil {
			p.comp.Cancel()
		}
		return
	}
	s.flag = true
	dispatch(&p.pending, s)
}

// errCancelledState marks a task subscription's terminal state as the
// result of cancellation rather than a user-delivered success/failure.
type errCancelledState struct{}

func (e *Engine) accept(pub *Publisher, s *subscription) (any, error) {
	f := e.enter(pub)
	defer e.exit(pub, f)

	e.sub = s
	s.flag = false

	if s.next == nil && s.prev == nil {
		// Detached: either truly terminal, or unsub's pending-ring branch
		// dispatched a cancellation in place of a value (spec.md §4.6).
		// Either way, re-enqueue the notification (pushed onto the front of
		// prop, as dispatch does) and surface Cancelled to this pull.
		s.propNext = pub.prop
		pub.prop = s
		return nil, ErrCancelled
	}

	p := s.target
	e.process = p // exit(pub, f) restores e.process from the frame captured by enter above
	ringDetach(&p.pending, s)
	p.waiting = ringAttach(p.waiting, s)
	if pub.cb.Accept != nil {
		e.runCallback(pub, func() { pub.cb.Accept(&Runtime{eng: e, pub: pub}) })
	}
	return s.state, nil
}

// --- ring helpers shared by unsub/accept ---

func isInRing(head, s *subscription) bool {
	if head == nil {
		return false
	}
	cur := head
	for {
		if cur == s {
			return true
		}
		cur = cur.next
		if cur == head {
			return false
		}
	}
}

func ringIsSingleton(head, s *subscription) bool {
	return head == s && s.next == s
}

// tick enters pub, runs its Tick callback, and exits — exit is deferred so
// a panicking Tick still lets the frame finish its own bookkeeping before
// the wrapped ErrUserCallback keeps unwinding.
func (e *Engine) tick(pub *Publisher) {
	f := e.enter(pub)
	defer e.exit(pub, f)
	if pub.cb.Tick != nil {
		e.runCallback(pub, func() { pub.cb.Tick(&Runtime{eng: e, pub: pub}) })
	}
}

// --- the reactor (spec.md §4.7) ---

func (e *Engine) reactor() {
	if e.process != nil {
		return // not fully unwound; an outer frame will drain
	}
	e.inReactor = true
	defer func() { e.inReactor = false }()
	for {
		ticks := 0
		for e.reacted != nil {
			if e.maxTicksPerInstant > 0 && ticks >= e.maxTicksPerInstant {
				e.logger.Error("missionary: reactor exceeded max ticks for this instant, deferring remainder", "time", e.time, "limit", e.maxTicksPerInstant)
				e.delayed = heapLink(e.reacted, e.delayed)
				e.reacted = nil
				break
			}
			ticks++

			ps := e.reacted
			e.reacted = heapDequeue(e.reacted)
			e.process = ps
			e.cursor = ps.parent.ranks

			e.tick(ps.parent)
		}
		if e.delayed == nil {
			break
		}
		e.reacted = e.delayed
		e.delayed = nil
		e.time++
	}
	e.process = nil
	e.cursor = nil
}

// schedule arranges for p to tick, per spec.md §4.5.
func (e *Engine) schedule(p *process) {
	if p.comp == nil {
		// Initial scheduling during Perform/Effect setup: tick immediately.
		pub := p.parent
		if pub.cb.Tick != nil {
			e.runCallback(pub, func() { pub.cb.Tick(&Runtime{eng: e, pub: pub}) })
		}
		return
	}
	if e.cursor == nil || rankLess(e.cursor, p.parent.ranks) {
		e.reacted = heapEnqueue(e.reacted, p)
	} else {
		e.delayed = heapEnqueue(e.delayed, p)
	}
}
