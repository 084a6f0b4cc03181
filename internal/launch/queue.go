package launch

import "time"

// QueuedRequest is a launch accepted over HTTP and run later by the
// worker. Attempt counts earlier runs of the same request.
type QueuedRequest struct {
	RequestID   string        `json:"request_id"`
	Intent      IntentRequest `json:"intent"`
	SubmittedAt time.Time     `json:"submitted_at"`
	Attempt     int           `json:"attempt"`
}
