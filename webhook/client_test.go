package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/apiqa/webhook-contract-tests/config"
	"github.com/apiqa/webhook-contract-tests/events"
	"github.com/apiqa/webhook-contract-tests/transport"
)

func newTestClient(t *testing.T, serverURL string, cfg config.WebhookConfig) *Client {
	if cfg.TargetURL == "" {
		cfg.TargetURL = serverURL + "/tok-1"
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = serverURL
	}
	client, err := New(cfg, transport.New(serverURL))
	require.NoError(t, err)
	return client
}

func envelopeResponse(content string) http.Handler {
	return httphelpers.HandlerWithJSONResponse(
		map[string]string{"uuid": "cap-1", "content": content}, nil)
}

func TestCaptureTokenExtraction(t *testing.T) {
	for targetURL, expected := range map[string]string{
		"https://hooks.example.com/tok-1":       "tok-1",
		"https://hooks.example.com/tok-2/":      "tok-2",
		"https://hooks.example.com//tok-3/path": "tok-3",
	} {
		token, err := captureToken(targetURL)
		require.NoError(t, err, targetURL)
		assert.Equal(t, expected, token, targetURL)
	}

	_, err := captureToken("https://hooks.example.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no capture token")
}

func TestSendPostsEncodedEvent(t *testing.T) {
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	server := httptest.NewServer(handler)
	defer server.Close()

	client := newTestClient(t, server.URL, config.WebhookConfig{})
	ev := events.New(ldvalue.Null())
	require.NoError(t, client.Send(context.Background(), ev))

	received := <-requests
	assert.Equal(t, "/tok-1", received.Request.URL.Path)

	var posted map[string]interface{}
	require.NoError(t, json.Unmarshal(received.Body, &posted))
	assert.Equal(t, ev.ID, posted[events.IDField])
	assert.Contains(t, posted, events.TimeField)
	assert.Equal(t, "qa_automation_test", posted["event"])
}

func TestSendErrorStatusIsClientError(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithResponse(500, nil, []byte("boom")))
	defer server.Close()

	client := newTestClient(t, server.URL, config.WebhookConfig{})
	err := client.Send(context.Background(), events.New(ldvalue.Null()))

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "send", ce.Op)
	assert.Equal(t, 500, ce.Status)
	assert.Contains(t, ce.Error(), "boom")
}

func TestSendConnectionFailureIsClientError(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithStatus(200))
	serverURL := server.URL
	server.Close()

	client := newTestClient(t, serverURL, config.WebhookConfig{})
	err := client.Send(context.Background(), events.New(ldvalue.Null()))

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	var te *transport.TransportError
	assert.ErrorAs(t, err, &te, "underlying transport error should stay unwrappable")
}

func TestFetchLatestNothingCapturedYet(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithResponse(404, nil, []byte(`{"error":"not found"}`)))
	defer server.Close()

	client := newTestClient(t, server.URL, config.WebhookConfig{})
	for i := 0; i < 3; i++ {
		captured, err := client.FetchLatest(context.Background())
		require.NoError(t, err, "attempt %d", i)
		assert.Nil(t, captured)
	}
}

func TestFetchLatestDecodesContent(t *testing.T) {
	content := fmt.Sprintf(`{"event":"qa_automation_test","%s":"abc-1","%s":"2026-08-25T12:00:00Z"}`,
		events.IDField, events.TimeField)
	handler, requests := httphelpers.RecordingHandler(envelopeResponse(content))
	server := httptest.NewServer(handler)
	defer server.Close()

	client := newTestClient(t, server.URL, config.WebhookConfig{APIKey: "key-1"})
	captured, err := client.FetchLatest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.Equal(t, "abc-1", captured.EventID())
	assert.Equal(t, "qa_automation_test", captured.Content.GetByKey("event").StringValue())
	assert.Equal(t, content, captured.Raw)

	received := <-requests
	assert.Equal(t, "/token/tok-1/request/latest", received.Request.URL.Path)
	assert.Equal(t, "key-1", received.Request.Header.Get("Api-Key"))
}

func TestFetchLatestOmitsAPIKeyHeaderWhenUnset(t *testing.T) {
	handler, requests := httphelpers.RecordingHandler(envelopeResponse(`{"event_id":"x"}`))
	server := httptest.NewServer(handler)
	defer server.Close()

	client := newTestClient(t, server.URL, config.WebhookConfig{})
	_, err := client.FetchLatest(context.Background())
	require.NoError(t, err)

	received := <-requests
	_, present := received.Request.Header["Api-Key"]
	assert.False(t, present)
}

func TestFetchLatestEmptyContentMeansNoCapture(t *testing.T) {
	server := httptest.NewServer(envelopeResponse(""))
	defer server.Close()

	client := newTestClient(t, server.URL, config.WebhookConfig{})
	captured, err := client.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, captured)
}

func TestFetchLatestMalformedContent(t *testing.T) {
	server := httptest.NewServer(envelopeResponse("{not json"))
	defer server.Close()

	client := newTestClient(t, server.URL, config.WebhookConfig{})
	_, err := client.FetchLatest(context.Background())

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "fetch", ce.Op)
	assert.Contains(t, ce.Error(), "malformed content")
}

func TestFetchLatestMalformedEnvelope(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithResponse(200, nil, []byte("<html>")))
	defer server.Close()

	client := newTestClient(t, server.URL, config.WebhookConfig{})
	_, err := client.FetchLatest(context.Background())

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "malformed inspection response")
}

func TestFetchLatestUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithResponse(503, nil, []byte("try later")))
	defer server.Close()

	client := newTestClient(t, server.URL, config.WebhookConfig{})
	_, err := client.FetchLatest(context.Background())

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 503, ce.Status)
}
