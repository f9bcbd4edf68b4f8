package missionary

import "github.com/google/uuid"

// subscription is a consumer's handle onto a running process. flag is
// overloaded by publisher kind (spec.md §3):
//
//   - task: true once delivered the success notification, false once
//     delivered the failure notification (the subscription's terminal
//     state is read off flag when propagate fires its callback).
//   - flow: true routes the notification to the step callback, false to
//     the done callback. Step sets it (a value is available now), Pull
//     clears it, Done leaves it as is, and cancelling a subscription that
//     holds an unread value sets it so the consumer's next Pull surfaces
//     ErrCancelled.
type subscription struct {
	ID uuid.UUID

	source *process // the process that caused this subscribe
	target *process // the process of the subscribed publisher

	lcb func()
	rcb func()

	prev, next *subscription // ring links
	propNext   *subscription // singly-linked prop-list link

	state any
	flag  bool
}

// Subscription is the public handle a caller of Publisher.Subscribe gets
// back. It wraps the internal subscription plus the engine and publisher
// needed to implement Cancel/Accept.
type Subscription struct {
	eng  *Engine
	pub  *Publisher
	sub  *subscription
}

// Cancel requests cancellation of the subscription. Synchronous and
// idempotent: calling it twice, or after the terminal notification has
// already been delivered, is a no-op (spec.md §5).
func (s *Subscription) Cancel() {
	s.eng.unsub(s.pub, s.sub)
}

// Pull dereferences a flow subscription, returning the currently available
// value or ErrCancelled if the subscription has been detached due to
// cancellation. Calling Pull on a task subscription is protocol misuse
// (spec.md §7, undefined — combinators are expected never to do this).
func (s *Subscription) Pull() (any, error) {
	return s.eng.accept(s.pub, s.sub)
}

// State returns the subscription-local state last set via Runtime.Sets.
// Exposed for flow consumers that read state rather than call Pull
// directly from outside a callback.
func (s *Subscription) State() any {
	return s.sub.state
}
