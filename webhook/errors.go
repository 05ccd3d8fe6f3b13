package webhook

import "fmt"

// ClientError means the capture service misbehaved: a transport failure, an
// unexpected HTTP status, or undecodable content. It is never raised for the
// tolerated "nothing captured yet" 404 from the inspection API.
type ClientError struct {
	Op     string // "send" or "fetch"
	URL    string
	Status int // 0 when no HTTP response was received
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	msg := fmt.Sprintf("webhook %s %s: %s", e.Op, e.URL, e.Reason)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %s", e.Err)
	}
	return msg
}

func (e *ClientError) Unwrap() error { return e.Err }

// PollTimeoutError means the poll loop exhausted its attempts without the
// expected event appearing. It is distinct from ClientError so that "event
// never arrived in time" reads differently from "capture service broken" in
// failure reports.
type PollTimeoutError struct {
	Attempts int
	EventID  string
	// LastSeenID is the correlation id of the most recent unrelated capture
	// observed while polling, if any. A non-empty value usually points at a
	// stale capture or cross-test pollution on a shared endpoint.
	LastSeenID string
}

func (e *PollTimeoutError) Error() string {
	msg := fmt.Sprintf("event %s not captured after %d poll attempts", e.EventID, e.Attempts)
	if e.LastSeenID != "" {
		msg += fmt.Sprintf(" (last capture seen had event_id %s)", e.LastSeenID)
	}
	return msg
}
