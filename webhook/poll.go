package webhook

import (
	"context"
	"time"

	"github.com/apiqa/webhook-contract-tests/config"
)

// Fetcher is the retrieval operation the poll loop drives. *Client satisfies
// it; tests substitute scripted fakes.
type Fetcher interface {
	FetchLatest(ctx context.Context) (*CapturedRequest, error)
}

// Poller repeatedly fetches the latest captured request until one matches a
// target correlation id. Attempts are strictly sequential: each fetch
// completes (or errors) before the delay and the next attempt.
type Poller struct {
	Attempts int
	Delay    time.Duration
}

// Await polls until a captured request carrying eventID appears.
//
// A fetch that returns nothing, and a fetch that returns a capture with a
// different correlation id, both count as "not yet delivered" and consume
// one attempt. The mismatch case is deliberate: the inspection API reports
// the most recent request on the endpoint globally, so a stale or unrelated
// capture is expected on a reused endpoint and is not evidence of failure.
// The last foreign id seen is reported in the timeout error for diagnosis.
//
// Errors from the fetcher (and context cancellation) propagate immediately;
// they signal a real fault, not latency. Exhausted attempts yield a
// *PollTimeoutError.
func (p Poller) Await(ctx context.Context, fetcher Fetcher, eventID string) (*CapturedRequest, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = config.DefaultPollAttempts
	}
	delay := p.Delay
	if delay <= 0 {
		delay = config.DefaultPollDelay
	}

	lastSeenID := ""
	for attempt := 1; attempt <= attempts; attempt++ {
		captured, err := fetcher.FetchLatest(ctx)
		if err != nil {
			return nil, err
		}
		if captured != nil {
			if id := captured.EventID(); id == eventID {
				return captured, nil
			} else if id != "" {
				lastSeenID = id
			}
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, &PollTimeoutError{Attempts: attempts, EventID: eventID, LastSeenID: lastSeenID}
}
