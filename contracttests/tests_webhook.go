package contracttests

import (
	"context"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/apiqa/webhook-contract-tests/events"
	"github.com/apiqa/webhook-contract-tests/validation"
	"github.com/apiqa/webhook-contract-tests/webhook"
)

func DoWebhookDeliveryTests(t *T) {
	t.RequireWebhookTarget()

	t.Run("end-to-end delivery and validation", func(t *T) {
		runDeliveryTest(t, events.New(ldvalue.Null()))
	})

	t.Run("custom nested payload round-trip", func(t *T) {
		fields := ldvalue.ObjectBuild().
			Set("event", ldvalue.String("order_shipped")).
			Set("data", ldvalue.ObjectBuild().
				Set("order_id", ldvalue.Int(48151623)).
				Set("items", ldvalue.ArrayOf(ldvalue.String("book"), ldvalue.String("lamp"))).
				Set("express", ldvalue.Bool(true)).
				Build()).
			Build()
		runDeliveryTest(t, events.New(fields))
	})
}

// runDeliveryTest is the dispatch -> poll -> validate workflow. Dispatch
// strictly precedes the first poll attempt; the poll loop owns all waiting.
func runDeliveryTest(t *T, ev events.Event) {
	cfg := t.env.Config.Webhook

	t.Debug("dispatching event %s", ev.ID)
	require.NoError(t, t.env.Webhook.Send(context.Background(), ev))

	poller := webhook.Poller{Attempts: cfg.PollAttempts, Delay: cfg.PollDelay.Duration()}
	captured, err := poller.Await(context.Background(), t.env.Webhook, ev.ID)
	require.NoError(t, err)
	require.NotNil(t, captured, "poll loop returned no capture")
	t.Debug("event %s captured, content: %s", ev.ID, captured.Raw)

	// The poll match already guarantees the id; re-asserted as a regression
	// guard on the matching logic itself.
	assert.Equal(t, ev.ID, captured.EventID(), "matched capture has wrong correlation id")

	for _, err := range validation.Delivery(ev, captured.Content, time.Now().UTC(), cfg.FreshnessWindow.Duration()) {
		t.Errorf("delivery validation: %s", err)
	}
}
