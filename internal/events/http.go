// Package events defines the payloads published on the eventbus during
// request handling and execution.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when the handler accepts a request, after the
// request ID has been assigned.
type HTTPStart struct {
	Request   *http.Request
	RequestID string
}

// HTTPFinish is published when the response has been written.
type HTTPFinish struct {
	Request   *http.Request
	RequestID string
	Status    int
	Duration  time.Duration
	// Operations is the number of GraphQL operations in the request body;
	// greater than one for batches, zero when the body was rejected.
	Operations int
}
