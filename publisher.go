package missionary

import "github.com/google/uuid"

// Effect is the user-supplied function that sets up the underlying
// computation for a process. It receives the bound success/failure (task)
// or step/done (flow) callbacks and returns an opaque handle used to drive
// the computation (Runtime.Transfer) and to cancel it.
type Effect func(rt *Runtime, notifyLeft, notifyRight func()) Computation

// Computation is the opaque value returned by Effect. It is
// combinator-defined and drives the underlying asynchronous work.
type Computation interface {
	// Cancel requests termination of the underlying computation. Called
	// at most once, when the sole consumer of a live process unsubscribes.
	Cancel()

	// Transfer extracts the next produced value. Its exact meaning is
	// combinator-defined; the engine never interprets the result.
	Transfer() any
}

// Callbacks is the vtable a publisher is built from. Task publishers leave
// Accept and Reject nil; flow publishers set Accept (the other slots are
// optional for both kinds, except Effect). Publisher
// kind is distinguished at runtime by whether Accept is nil (spec.md §6).
type Callbacks struct {
	// Perform runs once, the first time the publisher is subscribed to
	// while idle. It typically sets up process state ahead of Effect.
	Perform func(rt *Runtime)

	// Subscribe runs once per subscription, after the subscription has
	// been attached to the process's waiting ring.
	Subscribe func(rt *Runtime)

	// Effect sets up the underlying computation. Required.
	Effect Effect

	// Tick re-enters the process for scheduled work (Runtime.Schedule).
	Tick func(rt *Runtime)

	// Accept runs when a consumer pulls a value from a flow subscription
	// (nil for tasks).
	Accept func(rt *Runtime)

	// Reject runs when a flow subscription on the waiting ring (not holding
	// an unread value) is cancelled while other subscriptions keep the
	// process alive (nil for tasks).
	Reject func(rt *Runtime)

	// Lcb is the success (task) / step (flow) notification sink: the
	// body of the left callback bound and passed to Effect as
	// notifyLeft. The engine clears the current subscription before
	// calling it, so it typically calls Runtime.Success or Runtime.Step
	// from inside Runtime.Waiting, once per waiting subscription.
	Lcb func(rt *Runtime)

	// Rcb is the failure (task) / done (flow) notification sink: the
	// body of the right callback bound and passed to Effect as
	// notifyRight. Like Lcb it runs with no current subscription, so it
	// typically calls Runtime.Failure or Runtime.Done from inside
	// Runtime.Waiting.
	Rcb func(rt *Runtime)
}

// Publisher is the immutable shape of a reactive node: its rank, its
// callback vtable, and the currently-running process, if any. A publisher
// itself acts as the mutex guarding that process — see held in engine.go.
type Publisher struct {
	ID uuid.UUID

	ranks    Rank
	initp    any
	inits    any
	cb       Callbacks
	held     bool
	children int
	current  *process
	prop     *subscription // LIFO prop queue, most-recently-dispatched first

	engine *Engine
}

// isFlow reports whether this publisher is a flow (Accept non-nil) as
// opposed to a task.
func (p *Publisher) isFlow() bool {
	return p.cb.Accept != nil
}

// Ranks returns the publisher's fixed rank vector, useful for debugging
// and the debugserver introspection endpoint.
func (p *Publisher) Ranks() Rank {
	out := make(Rank, len(p.ranks))
	copy(out, p.ranks)
	return out
}

// Kind returns "flow" or "task", the same distinction isFlow makes,
// exposed for introspection.
func (p *Publisher) Kind() string {
	if p.isFlow() {
		return "flow"
	}
	return "task"
}

// Active reports whether this publisher currently has a live process.
func (p *Publisher) Active() bool {
	return p.current != nil
}
