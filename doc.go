// Package missionary implements a reactive propagator: a scheduler and
// dispatch engine for a directed graph of asynchronous computations
// ("publishers") that produce either a single value ("tasks") or a
// sequence of values ("flows"), with structured cancellation,
// deterministic ordering, and at-most-one concurrent activation per
// publisher.
//
// This package is the propagator core only. Combinators built on top of
// it (sequential composition, zip, switch, sample, reduce, ...) are thin
// collaborators that implement the callback vtable described by Task
// and Flow and drive the engine through the primitives exposed on
// Runtime. None of that combinator library lives here.
//
// Basic usage:
//
//	eng := missionary.NewEngine(logger)
//	pub := missionary.Task(eng, missionary.Callbacks{
//	    Effect: func(rt *missionary.Runtime, notifyLeft, notifyRight func()) missionary.Computation {
//	        // start the work; call notifyLeft on success, notifyRight on failure
//	        return comp
//	    },
//	    Lcb: func(rt *missionary.Runtime) {
//	        v := rt.Transfer()
//	        rt.Waiting(func(*missionary.Subscription) { rt.Success(v) })
//	    },
//	    Rcb: func(rt *missionary.Runtime) {
//	        v := rt.Transfer()
//	        rt.Waiting(func(*missionary.Subscription) { rt.Failure(v) })
//	    },
//	})
//	sub := pub.SubscribeTask(func(v any) { ... }, func(err error) { ... })
//	defer sub.Cancel()
package missionary
