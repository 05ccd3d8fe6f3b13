// Package validation holds the pure checks applied to a captured request
// once the poll loop has matched it against the event that was sent.
package validation

import (
	"fmt"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/apiqa/webhook-contract-tests/events"
)

// naiveTimestampLayouts are ISO-8601-ish forms with no UTC offset. They are
// recognized only so that a timezone-naive timestamp can be reported as such
// instead of as generic garbage.
var naiveTimestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Delivery compares the captured content against the originally sent event
// and checks the embedded send timestamp for validity and freshness. It
// returns one error per divergence, each naming the field and both values;
// an empty slice means the delivery is valid.
//
// Fields that the capture transport added on top of the sent payload are
// ignored; only the event's own business fields are compared.
func Delivery(ev events.Event, content ldvalue.Value, now time.Time, window time.Duration) []error {
	var errs []error

	if id := content.GetByKey(events.IDField).StringValue(); id != ev.ID {
		errs = append(errs, fmt.Errorf("%s mismatch: sent %q, captured %q", events.IDField, ev.ID, id))
	}

	for _, key := range ev.Fields.Keys() {
		want := ev.Fields.GetByKey(key)
		got, found := content.TryGetByKey(key)
		if !found {
			errs = append(errs, fmt.Errorf("field %q missing from captured payload (sent %s)", key, want.JSONString()))
			continue
		}
		if !got.Equal(want) {
			errs = append(errs, fmt.Errorf("field %q mismatch: sent %s, captured %s", key, want.JSONString(), got.JSONString()))
		}
	}

	errs = append(errs, checkTimestamp(content, now, window)...)
	return errs
}

func checkTimestamp(content ldvalue.Value, now time.Time, window time.Duration) []error {
	raw, found := content.TryGetByKey(events.TimeField)
	if !found {
		return []error{fmt.Errorf("field %q missing from captured payload", events.TimeField)}
	}
	if raw.Type() != ldvalue.StringType {
		return []error{fmt.Errorf("field %q is %s, expected a string timestamp", events.TimeField, raw.Type())}
	}

	ts, err := time.Parse(time.RFC3339, raw.StringValue())
	if err != nil {
		for _, layout := range naiveTimestampLayouts {
			if _, naiveErr := time.Parse(layout, raw.StringValue()); naiveErr == nil {
				return []error{fmt.Errorf("%s %q has no UTC offset: timestamps must be timezone-aware", events.TimeField, raw.StringValue())}
			}
		}
		return []error{fmt.Errorf("%s %q is not a valid RFC 3339 timestamp: %w", events.TimeField, raw.StringValue(), err)}
	}

	age := now.Sub(ts)
	if age < 0 {
		return []error{fmt.Errorf("%s %q is %s in the future of validation time %s",
			events.TimeField, raw.StringValue(), -age, now.Format(time.RFC3339))}
	}
	if age >= window {
		return []error{fmt.Errorf("%s %q is too old: age %s, freshness window %s",
			events.TimeField, raw.StringValue(), age, window)}
	}
	return nil
}
