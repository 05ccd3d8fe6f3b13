// Package events constructs the uniquely identifiable payloads that the
// webhook delivery tests send and later correlate.
package events

import (
	"time"

	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Wire field names added to every outbound event alongside the business
// fields. IDField is the sole correlation key; TimeField carries the UTC
// send time used by the freshness check.
const (
	IDField   = "event_id"
	TimeField = "x-request-time"
)

// Event is the unit submitted to the capture endpoint and later retrieved
// from it. It is created once per test, never mutated, and compared against
// its captured counterpart.
type Event struct {
	// ID is a fresh UUID, unique per test run.
	ID string
	// Fields holds the business payload as a JSON object.
	Fields ldvalue.Value
	// SentAt is the UTC construction time, embedded as TimeField on the wire.
	SentAt time.Time
}

// New builds an Event with a fresh unique ID and the current UTC time.
// A null fields value selects DefaultFields. No I/O happens here.
func New(fields ldvalue.Value) Event {
	if fields.IsNull() {
		fields = DefaultFields()
	}
	return Event{
		ID:     uuid.NewString(),
		Fields: fields,
		SentAt: time.Now().UTC(),
	}
}

// DefaultFields is the standard business payload used when a test does not
// supply its own.
func DefaultFields() ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("event", ldvalue.String("qa_automation_test")).
		Set("data", ldvalue.ObjectBuild().
			Set("source", ldvalue.String("contract-tests")).
			Set("description", ldvalue.String("webhook validation end-to-end")).
			Build()).
		Build()
}

// Encode returns the wire form of the event: the business fields plus the
// correlation id and the RFC 3339 send timestamp with explicit UTC offset.
func (e Event) Encode() ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for _, key := range e.Fields.Keys() {
		b.Set(key, e.Fields.GetByKey(key))
	}
	b.Set(IDField, ldvalue.String(e.ID))
	b.Set(TimeField, ldvalue.String(e.SentAt.Format(time.RFC3339)))
	return b.Build()
}
