package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with timeouts sized for a sub-second decision
// API: slow readers must never pin goroutines past the decision budget.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
