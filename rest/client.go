// Package rest is a thin client for the target REST API under test, plus
// the ad hoc JSON shape checks used to validate its success-path contracts.
package rest

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/apiqa/webhook-contract-tests/transport"
)

// Client wraps the shared transport for target-API calls. The contract tests
// assert on the raw responses it returns; it does not interpret status codes
// itself.
type Client struct {
	transport *transport.Client
}

func New(tr *transport.Client) *Client {
	return &Client{transport: tr}
}

func (c *Client) Get(ctx context.Context, path string) (*transport.Response, error) {
	return c.transport.Get(ctx, path, nil)
}

// Post marshals payload as JSON and sends it.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) (*transport.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not serialize request payload for %s: %w", path, err)
	}
	return c.transport.Post(ctx, path, body, nil)
}

func (c *Client) Delete(ctx context.Context, path string) (*transport.Response, error) {
	return c.transport.Delete(ctx, path, nil)
}

// ParseBody decodes a response body as an arbitrary JSON value.
func ParseBody(resp *transport.Response) (ldvalue.Value, error) {
	var v ldvalue.Value
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return ldvalue.Null(), fmt.Errorf("response body is not valid JSON: %w (body: %s)", err, resp.Body)
	}
	return v, nil
}
