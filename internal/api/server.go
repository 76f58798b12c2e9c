// internal/api/server.go
package api

import (
	"fmt"
	"net/http"
	"time"
)

// NewServer wires the handler into an http.Server with request timeouts.
func NewServer(port int, h *Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      h.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}
