// Package webhook talks to the capture endpoint: it dispatches correlation
// events to the capture URL, retrieves the most recently captured request
// through the inspection API, and polls until an expected event arrives.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/apiqa/webhook-contract-tests/config"
	"github.com/apiqa/webhook-contract-tests/events"
	"github.com/apiqa/webhook-contract-tests/transport"
)

// CapturedRequest is the capture service's record of one received event,
// with its body already decoded from the JSON-encoded content string.
type CapturedRequest struct {
	Content ldvalue.Value
	Raw     string
}

// EventID returns the correlation id embedded in the captured content, or ""
// if there is none.
func (c *CapturedRequest) EventID() string {
	return c.Content.GetByKey(events.IDField).StringValue()
}

// Client sends events to the capture URL and reads them back through the
// inspection API. It is read-only after construction.
type Client struct {
	targetURL  string
	apiBaseURL string
	token      string
	apiKey     string
	transport  *transport.Client
}

// inspectionEnvelope is the subset of the inspection API's response we need.
// The content field holds the originally posted body as a JSON-encoded
// string.
type inspectionEnvelope struct {
	UUID    string `json:"uuid"`
	Content string `json:"content"`
}

func New(cfg config.WebhookConfig, tr *transport.Client) (*Client, error) {
	token, err := captureToken(cfg.TargetURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		targetURL:  cfg.TargetURL,
		apiBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		token:      token,
		apiKey:     cfg.APIKey,
		transport:  tr,
	}, nil
}

// captureToken extracts the capture token, the first path segment of the
// target URL.
func captureToken(targetURL string) (string, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return "", fmt.Errorf("invalid webhook target URL %q: %w", targetURL, err)
	}
	for _, segment := range strings.Split(parsed.Path, "/") {
		if segment != "" {
			return segment, nil
		}
	}
	return "", fmt.Errorf("webhook target URL %q has no capture token in its path", targetURL)
}

// Send serializes the event and POSTs it to the capture URL. Any non-2xx
// response or transport failure is a *ClientError.
func (c *Client) Send(ctx context.Context, ev events.Event) error {
	body, err := json.Marshal(ev.Encode())
	if err != nil {
		return &ClientError{Op: "send", URL: c.targetURL, Reason: "could not serialize event", Err: err}
	}

	resp, err := c.transport.Post(ctx, c.targetURL, body, nil)
	if err != nil {
		return &ClientError{Op: "send", URL: c.targetURL, Reason: "request failed", Err: err}
	}
	if !resp.IsSuccess() {
		return &ClientError{
			Op:     "send",
			URL:    c.targetURL,
			Status: resp.Status,
			Reason: fmt.Sprintf("unexpected response: %s", truncateBody(resp.Body)),
		}
	}
	return nil
}

// FetchLatest retrieves the most recently captured request. A 404 from the
// inspection API means nothing has been captured yet and returns (nil, nil);
// that is a normal transient state, not an error.
func (c *Client) FetchLatest(ctx context.Context) (*CapturedRequest, error) {
	inspectURL := fmt.Sprintf("%s/token/%s/request/latest", c.apiBaseURL, c.token)

	var headers http.Header
	if c.apiKey != "" {
		headers = make(http.Header)
		headers.Set("Api-Key", c.apiKey)
	}

	resp, err := c.transport.Get(ctx, inspectURL, headers)
	if err != nil {
		return nil, &ClientError{Op: "fetch", URL: inspectURL, Reason: "request failed", Err: err}
	}
	if resp.Status == http.StatusNotFound {
		return nil, nil
	}
	if !resp.IsSuccess() {
		return nil, &ClientError{
			Op:     "fetch",
			URL:    inspectURL,
			Status: resp.Status,
			Reason: fmt.Sprintf("unexpected response: %s", truncateBody(resp.Body)),
		}
	}

	var envelope inspectionEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, &ClientError{Op: "fetch", URL: inspectURL, Reason: "malformed inspection response", Err: err}
	}
	if envelope.Content == "" {
		return nil, nil
	}

	var content ldvalue.Value
	if err := json.Unmarshal([]byte(envelope.Content), &content); err != nil {
		return nil, &ClientError{Op: "fetch", URL: inspectURL, Reason: "malformed content", Err: err}
	}

	return &CapturedRequest{Content: content, Raw: envelope.Content}, nil
}

func truncateBody(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
