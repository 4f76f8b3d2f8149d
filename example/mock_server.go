package main

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// StartMockServer runs a mock target server with one route per outcome kind:
//
//	/ok       200 after ~10ms
//	/slow     never answers before the client gives up
//	/down     503 on every request
//	/missing  404
//	/flaky    503 on the first request of each ?id=, then 200
//
// Call this in a goroutine before running checks against it.
func StartMockServer(addr string) {
	var (
		seen = make(map[string]bool)
		mu   sync.Mutex
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		// hold the request until the client hangs up
		<-r.Context().Done()
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")

		mu.Lock()
		first := !seen[id]
		seen[id] = true
		mu.Unlock()

		if first {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
