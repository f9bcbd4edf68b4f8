// Package ticker builds a flow publisher whose values are emitted on a
// cron schedule, grounded on modules/scheduler's use of
// github.com/robfig/cron/v3 for recurring job schedules in the teacher
// repository. It is the propagator's one built-in example of an external
// asynchronous event (spec.md §5) re-entering the engine: cron fires on
// its own goroutine, but an *missionary.Engine is single-writer, so a
// firing never calls into the engine directly. Instead it is handed to a
// Driver whose Run method the host runs on whichever goroutine already
// owns the engine, the same separation modules/scheduler draws between
// its cron goroutine and the job-execution worker it hands work to.
package ticker

import (
	"time"

	"github.com/aldebogdanov/missionary"
	"github.com/robfig/cron/v3"
)

// Driver pumps cron firings into the engine. Run must be called from the
// same goroutine (or under the same external lock) as every other call
// into the publisher's Engine. Subscribe to the publisher returned by New
// before starting Run — Run delivers firings by calling the notifyLeft
// closure Effect bound at subscribe time.
type Driver struct {
	fire   chan time.Time
	notify func()
}

// Run blocks, delivering each cron firing to the engine in order, until
// stop is closed or the publisher's sole subscriber cancels it (at which
// point the underlying cron.Cron stops and fire is closed).
func (d *Driver) Run(stop <-chan struct{}) {
	for {
		select {
		case _, ok := <-d.fire:
			if !ok {
				return
			}
			d.notify()
		case <-stop:
			return
		}
	}
}

type computation struct {
	c     *cron.Cron
	value time.Time
	fire  chan time.Time
}

func (c *computation) Cancel() {
	c.c.Stop()
	close(c.fire)
}
func (c *computation) Transfer() any { return c.value }

// New builds a flow publisher that steps once per firing of the cron
// expression expr (standard five-field cron syntax, parsed up front with
// cron.ParseStandard the same way modules/scheduler validates job
// schedules) and never terminates on its own — only cancellation by its
// sole subscriber stops it. loc selects the timezone firings are computed
// in; a nil loc uses time.Local. The returned Driver must have Run called
// on the goroutine that owns eng, after the publisher has its first
// subscriber.
func New(eng *missionary.Engine, expr string, loc *time.Location) (*missionary.Publisher, *Driver, error) {
	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, nil, err
	}
	if loc == nil {
		loc = time.Local
	}

	driver := &Driver{fire: make(chan time.Time, 1)}

	pub := missionary.Flow(eng, missionary.Callbacks{
		Effect: func(rt *missionary.Runtime, notifyLeft, notifyRight func()) missionary.Computation {
			c := cron.New(cron.WithLocation(loc))
			comp := &computation{c: c, fire: driver.fire}
			driver.notify = notifyLeft
			_, _ = c.AddFunc(expr, func() {
				// Runs on cron's own goroutine: only ever touches the
				// channel, never the engine.
				comp.value = time.Now().In(loc)
				select {
				case comp.fire <- comp.value:
				default:
					// A firing is already queued and not yet drained;
					// cron guarantees firings don't overlap in time, so
					// dropping a duplicate wakeup here just coalesces
					// back-to-back ticks into one step, never a skip of
					// real schedule entries.
				}
			})
			c.Start()
			return comp
		},
		Lcb: func(rt *missionary.Runtime) {
			rt.Waiting(func(*missionary.Subscription) { rt.Step() })
		},
		Accept: func(rt *missionary.Runtime) {
			rt.Sets(rt.Transfer())
		},
		Reject: func(rt *missionary.Runtime) {},
	})

	return pub, driver, nil
}
