package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func TestEventIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ev := New(ldvalue.Null())
		require.NotEmpty(t, ev.ID)
		require.False(t, seen[ev.ID], "duplicate id %s", ev.ID)
		seen[ev.ID] = true
	}
}

func TestNullFieldsSelectDefaults(t *testing.T) {
	ev := New(ldvalue.Null())
	assert.Equal(t, DefaultFields(), ev.Fields)
	assert.Equal(t, "qa_automation_test", ev.Fields.GetByKey("event").StringValue())
}

func TestCustomFieldsArePreserved(t *testing.T) {
	fields := ldvalue.ObjectBuild().
		Set("event", ldvalue.String("order_shipped")).
		Set("data", ldvalue.ObjectBuild().Set("order_id", ldvalue.Int(7)).Build()).
		Build()
	ev := New(fields)
	assert.Equal(t, fields, ev.Fields)
}

func TestSentAtIsUTC(t *testing.T) {
	ev := New(ldvalue.Null())
	assert.Equal(t, time.UTC, ev.SentAt.Location())
	assert.WithinDuration(t, time.Now().UTC(), ev.SentAt, time.Second)
}

func TestEncodeAddsCorrelationAndTimestamp(t *testing.T) {
	ev := New(ldvalue.Null())
	encoded := ev.Encode()

	assert.Equal(t, ev.ID, encoded.GetByKey(IDField).StringValue())
	for _, key := range ev.Fields.Keys() {
		assert.Equal(t, ev.Fields.GetByKey(key), encoded.GetByKey(key))
	}

	raw := encoded.GetByKey(TimeField).StringValue()
	ts, err := time.Parse(time.RFC3339, raw)
	require.NoError(t, err, "timestamp %q should be RFC 3339 with an offset", raw)
	assert.WithinDuration(t, ev.SentAt, ts, time.Second)
}

func TestEncodeDoesNotMutateFields(t *testing.T) {
	fields := ldvalue.ObjectBuild().Set("event", ldvalue.String("x")).Build()
	ev := New(fields)
	_ = ev.Encode()
	assert.Equal(t, []string{"event"}, ev.Fields.Keys())
}
