package missionary

import "errors"

// Engine errors
var (
	// ErrCancelled is returned by Subscription.Pull (flow pull) when the
	// subscription has already been detached as a result of cancellation.
	// It is cooperative and expected, per spec.md §7.
	ErrCancelled = errors.New("missionary: subscription cancelled")

	// ErrProtocolMisuse is available for combinator authors to return when
	// a consumer pulls with no value available, or emits outside a step
	// callback. The engine itself never raises it; combinators decide
	// whether to check for the condition at all.
	ErrProtocolMisuse = errors.New("missionary: protocol misuse")

	// ErrUserCallback wraps any panic recovered from a user-supplied
	// vtable callback at the engine boundary.
	ErrUserCallback = errors.New("missionary: user callback panicked")

	// ErrNoProcess is the panic value raised when a Runtime primitive that
	// requires a current process (or a current subscription) is invoked
	// while none is set.
	ErrNoProcess = errors.New("missionary: no process is currently active")

	// ErrEngineShutdown is passed to SubscribeTask's onFailure when the
	// subscription is made after the engine's Close has run.
	ErrEngineShutdown = errors.New("missionary: engine is shut down")
)
