package missionary

import (
	"fmt"

	"github.com/google/uuid"
)

// Task builds a task publisher: a node that produces a single value and
// then terminates. Callbacks.Accept and Callbacks.Reject must be left
// nil — their presence is what distinguishes a flow at runtime (spec.md
// §6).
func Task(eng *Engine, cb Callbacks) *Publisher {
	if cb.Accept != nil || cb.Reject != nil {
		panic("missionary: Task publisher must not set Accept/Reject; use Flow")
	}
	return newPublisher(eng, cb)
}

func newPublisher(eng *Engine, cb Callbacks) *Publisher {
	r := childRank(eng.process, &eng.topLevel)
	pub := &Publisher{
		ID:     uuid.New(),
		ranks:  r,
		cb:     cb,
		engine: eng,
	}
	eng.publishers = append(eng.publishers, pub)
	return pub
}

// WithInitialProcessState sets the process state every fresh process of
// this publisher starts with.
func (p *Publisher) WithInitialProcessState(v any) *Publisher {
	p.initp = v
	return p
}

// WithInitialSubscriptionState sets the subscription state every fresh
// subscription to this publisher starts with.
func (p *Publisher) WithInitialSubscriptionState(v any) *Publisher {
	p.inits = v
	return p
}

// SubscribeTask subscribes to a task publisher. onSuccess receives the
// delivered value; onFailure receives the delivered error (ErrCancelled
// if the subscription was cancelled before the task settled while other
// subscriptions kept the process alive). Cancelling the sole subscription
// cancels the underlying computation and delivers no notification.
func (p *Publisher) SubscribeTask(onSuccess func(any), onFailure func(error)) *Subscription {
	if p.isFlow() {
		panic("missionary: SubscribeTask called on a flow publisher")
	}
	if p.engine.Closed() {
		if onFailure != nil {
			onFailure(ErrEngineShutdown)
		}
		return &Subscription{eng: p.engine, pub: p, sub: &subscription{}}
	}
	s := p.engine.subscribe(p, func(state any) {
		if onSuccess != nil {
			onSuccess(state)
		}
	}, func(state any) {
		if onFailure == nil {
			return
		}
		switch v := state.(type) {
		case errCancelledState:
			onFailure(ErrCancelled)
		case error:
			onFailure(v)
		default:
			onFailure(fmt.Errorf("missionary: task failed: %v", v))
		}
	})
	return &Subscription{eng: p.engine, pub: p, sub: s}
}
