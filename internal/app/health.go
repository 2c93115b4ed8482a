package app

import (
	"encoding/json"
	"net/http"

	"go.uber.org/atomic"
)

type healthBody struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// healthHandler answers 200 while ready is set and 503 otherwise, so load
// balancers drain the instance as soon as shutdown starts.
func healthHandler(ready *atomic.Bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body := healthBody{Status: true, Message: "OK"}
		code := http.StatusOK
		if !ready.Load() {
			body = healthBody{Status: false, Message: "Service Unavailable"}
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		//nolint:errcheck,gosec // best effort
		json.NewEncoder(w).Encode(body)
	})
}
