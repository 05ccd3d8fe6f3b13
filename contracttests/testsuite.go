// Package contracttests defines the contract-test suite that runs against
// the target REST API and the webhook capture endpoint.
package contracttests

import (
	"github.com/apiqa/webhook-contract-tests/framework"
)

// RunTestSuite executes the whole suite and returns its results.
func RunTestSuite(
	env Env,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, env)

		t.Run("users API", DoUserAPITests)
		t.Run("webhook delivery", DoWebhookDeliveryTests)
	})
}
