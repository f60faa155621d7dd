package models

import (
	"fmt"
	"time"
)

// EndpointClass groups routes that share a limit.
type EndpointClass string

const (
	// ClassWrite covers routes that spend ledger gas.
	ClassWrite EndpointClass = "write"
	ClassRead  EndpointClass = "read"
)

// Limit is a request budget over a sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"error_description"`
	RetryAfter int    `json:"retry_after"`
}

// IPKey is the bucket key for one client IP within a class.
func IPKey(class EndpointClass, ip string) string {
	return fmt.Sprintf("ip:%s:%s", class, ip)
}
