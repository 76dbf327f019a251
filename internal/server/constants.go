// Package server exposes the scheduler over a loopback HTTP and WebSocket API
package server

import "time"

const (
	// DefaultAddr keeps the control API on loopback.
	DefaultAddr = "127.0.0.1:8765"

	// Per-connection WebSocket command limit.
	RateLimitMessages = 10
	RateLimitWindow   = time.Second

	WriteTimeout    = 5 * time.Second
	ShutdownTimeout = 3 * time.Second
)
