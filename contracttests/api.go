package contracttests

import (
	"context"

	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/apiqa/webhook-contract-tests/config"
	"github.com/apiqa/webhook-contract-tests/framework"
	"github.com/apiqa/webhook-contract-tests/rest"
	"github.com/apiqa/webhook-contract-tests/transport"
	"github.com/apiqa/webhook-contract-tests/webhook"
)

// Env holds the configured collaborators shared by every test in the suite.
// It is constructed once in main and is read-only for the whole run.
type Env struct {
	Config *config.Config
	REST   *rest.Client
	// Webhook is nil when no capture endpoint is configured; the delivery
	// tests skip themselves in that case.
	Webhook *webhook.Client
}

// T represents a test or subtest in the contract suite.
//
// It implements the same basic functionality as Go's testing.T, but in an
// environment that is outside of the Go test runner, with extra features
// such as captured debug logging provided by the lower-level framework
// package. To make assertions, pass the *T to the assert and require
// packages as if it were a *testing.T.
type T struct {
	context *framework.Context
	env     Env
}

func newTestScope(context *framework.Context, env Env) *T {
	return &T{context: context, env: env}
}

// Errorf is called by assertions to log a test failure. It does not cause an
// immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately
// exit. The methods in the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest, equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newTestScope(c, t.env))
	})
}

// Debug logs some debug output for the test. The output is passed to the
// test logger at the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// Defer registers a cleanup to run when this test ends.
func (t *T) Defer(cleanup func()) {
	t.context.Defer(cleanup)
}

// RequireWebhookTarget skips this test when no capture endpoint is
// configured.
func (t *T) RequireWebhookTarget() {
	if t.env.Webhook == nil {
		t.context.SkipWithReason("no webhook target URL is configured")
	}
}

// Get performs a GET against the target API, failing the test on a
// transport-level error.
func (t *T) Get(path string) *transport.Response {
	t.Debug("GET %s", path)
	resp, err := t.env.REST.Get(context.Background(), path)
	require.NoError(t, err)
	return resp
}

// Post performs a JSON POST against the target API, failing the test on a
// transport-level error.
func (t *T) Post(path string, payload interface{}) *transport.Response {
	t.Debug("POST %s", path)
	resp, err := t.env.REST.Post(context.Background(), path, payload)
	require.NoError(t, err)
	return resp
}

// Delete performs a DELETE against the target API, failing the test on a
// transport-level error.
func (t *T) Delete(path string) *transport.Response {
	t.Debug("DELETE %s", path)
	resp, err := t.env.REST.Delete(context.Background(), path)
	require.NoError(t, err)
	return resp
}

// RequireStatus fails the test immediately unless the response has the
// expected status code, including the body for diagnosis.
func (t *T) RequireStatus(resp *transport.Response, expected int) {
	require.Equalf(t, expected, resp.Status,
		"unexpected status code %d (expected %d), body: %s", resp.Status, expected, resp.Body)
}

// requireShape fails the test if the value violates any of the given field
// shapes, reporting every violation before exiting.
func requireShape(t *T, v ldvalue.Value, shapes []rest.Shape) {
	errs := rest.Check(v, shapes)
	for _, err := range errs {
		t.Errorf("shape violation: %s", err)
	}
	if len(errs) > 0 {
		t.FailNow()
	}
}
