// Package debugserver exposes a read-only HTTP introspection surface over
// a running Engine, grounded on modules/chimux's use of
// github.com/go-chi/chi/v5 for routing in the teacher repository. It
// never calls back into the engine's mutating API — only Engine.Publishers
// and Engine.ReactorStats, both safe to call from a goroutine other than
// the one driving the engine, as long as the caller accepts a possibly
// stale snapshot (the engine itself remains single-writer; this server
// does not serialize with it).
package debugserver

import (
	"encoding/json"
	"net/http"

	"github.com/aldebogdanov/missionary"
	"github.com/go-chi/chi/v5"
)

// publisherView is the JSON shape returned by GET /publishers.
type publisherView struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Ranks  []int  `json:"ranks"`
	Active bool   `json:"active"`
}

// reactorView is the JSON shape returned by GET /reactor.
type reactorView struct {
	Time    int64 `json:"time"`
	Reacted int   `json:"reacted"`
	Delayed int   `json:"delayed"`
}

// New builds a chi.Router serving the engine's introspection endpoints:
//
//	GET /publishers  - every publisher built against eng, with its rank
//	                    vector and whether it currently has a live process
//	GET /reactor     - logical time and the two reactor heaps' sizes
func New(eng *missionary.Engine) chi.Router {
	r := chi.NewRouter()

	r.Get("/publishers", func(w http.ResponseWriter, req *http.Request) {
		pubs := eng.Publishers()
		views := make([]publisherView, len(pubs))
		for i, p := range pubs {
			views[i] = publisherView{
				ID:     p.ID.String(),
				Kind:   p.Kind(),
				Ranks:  []int(p.Ranks()),
				Active: p.Active(),
			}
		}
		writeJSON(w, views)
	})

	r.Get("/reactor", func(w http.ResponseWriter, req *http.Request) {
		reacted, delayed, t := eng.ReactorStats()
		writeJSON(w, reactorView{Time: t, Reacted: reacted, Delayed: delayed})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
