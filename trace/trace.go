// Package trace mirrors an Engine's notification stream as CloudEvents,
// grounded on modules/scheduler's EventEmitter interface and
// modular.NewCloudEvent helper in the teacher repository: every job
// lifecycle transition there is wrapped in a cloudevents.Event and handed
// to an emitter. Here the "job" is a publisher's task/flow notification,
// and the emitter is attached once, via Engine.OnNotify, instead of being
// threaded through every call site.
package trace

import (
	"context"
	"sync"
	"time"

	"github.com/aldebogdanov/missionary"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// Event type strings, one per notification kind propagate can dispatch
// (spec.md §4.3), named in the same reverse-DNS style as the teacher's
// scheduler EventType* constants.
const (
	EventTypeTaskSuccess = "dev.missionary.task.success"
	EventTypeTaskFailure = "dev.missionary.task.failure"
	EventTypeFlowStep    = "dev.missionary.flow.step"
	EventTypeFlowDone    = "dev.missionary.flow.done"
)

// Emitter is the sink a Recorder hands each CloudEvent to. It matches the
// shape of the teacher's scheduler.EventEmitter so the same event bus
// wiring (e.g. an httpserver module forwarding to subscribers) can be
// reused unchanged.
type Emitter interface {
	EmitEvent(ctx context.Context, event cloudevents.Event) error
}

// Logger receives emission failures. A nil Logger passed to Attach
// silently drops them.
type Logger interface {
	Warn(msg string, args ...any)
}

// Attach installs a notification hook on eng that turns every dispatched
// task/flow notification into a CloudEvent and hands it to emitter. source
// identifies this engine instance in the emitted events' source field
// (e.g. a process or service name). Only one hook can be attached per
// Engine; a second Attach call replaces the first.
func Attach(eng *missionary.Engine, source string, emitter Emitter, logger Logger) {
	eng.OnNotify(func(kind string, pub *missionary.Publisher, sub *missionary.Subscription) {
		evt := newCloudEvent(kind, source, pub, sub)
		if err := emitter.EmitEvent(context.Background(), evt); err != nil && logger != nil {
			logger.Warn("missionary/trace: failed to emit event", "kind", kind, "error", err)
		}
	})
}

func newCloudEvent(kind, source string, pub *missionary.Publisher, sub *missionary.Subscription) cloudevents.Event {
	eventType := map[string]string{
		"success": EventTypeTaskSuccess,
		"failure": EventTypeTaskFailure,
		"step":    EventTypeFlowStep,
		"done":    EventTypeFlowDone,
	}[kind]

	evt := cloudevents.NewEvent()
	evt.SetID(generateEventID())
	evt.SetSource(source)
	evt.SetType(eventType)
	evt.SetTime(time.Now())
	evt.SetSpecVersion(cloudevents.VersionV1)
	_ = evt.SetData(cloudevents.ApplicationJSON, map[string]any{
		"publisherId": pub.ID.String(),
		"ranks":       []int(pub.Ranks()),
	})
	evt.SetExtension("publisherid", pub.ID.String())
	return evt
}

func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// Recorder is an in-memory Emitter for tests and local inspection: it
// keeps every event it receives, in arrival order.
type Recorder struct {
	mu     sync.Mutex
	events []cloudevents.Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) EmitEvent(_ context.Context, event cloudevents.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a snapshot of every event recorded so far.
func (r *Recorder) Events() []cloudevents.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]cloudevents.Event, len(r.events))
	copy(out, r.events)
	return out
}
