package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server. writeTimeout must cover the slowest route; a small
// margin is added so the route's own error response still goes out.
func New(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
