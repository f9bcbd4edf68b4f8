package debugserver

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/aldebogdanov/missionary"
)

type fakeComputation struct{}

func (fakeComputation) Cancel()       {}
func (fakeComputation) Transfer() any { return nil }

func TestPublishersEndpointListsBuiltPublishers(t *testing.T) {
	eng := missionary.NewEngine(nil)
	missionary.Task(eng, missionary.Callbacks{
		Effect: func(rt *missionary.Runtime, notifyLeft, notifyRight func()) missionary.Computation {
			return fakeComputation{}
		},
	})

	r := New(eng)
	req := httptest.NewRequest("GET", "/publishers", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	var views []publisherView
	if err := json.NewDecoder(w.Body).Decode(&views); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d publishers, want 1", len(views))
	}
	if views[0].Kind != "task" {
		t.Fatalf("got kind %q, want task", views[0].Kind)
	}
	if views[0].Active {
		t.Fatalf("publisher should not be active before its first subscribe")
	}
}

func TestReactorEndpointReportsEmptyHeaps(t *testing.T) {
	eng := missionary.NewEngine(nil)

	r := New(eng)
	req := httptest.NewRequest("GET", "/reactor", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var view reactorView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.Reacted != 0 || view.Delayed != 0 {
		t.Fatalf("got reacted=%d delayed=%d, want 0/0 on an idle engine", view.Reacted, view.Delayed)
	}
}
