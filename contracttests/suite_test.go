package contracttests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiqa/webhook-contract-tests/config"
	"github.com/apiqa/webhook-contract-tests/framework"
	"github.com/apiqa/webhook-contract-tests/mockcapture"
	"github.com/apiqa/webhook-contract-tests/rest"
	"github.com/apiqa/webhook-contract-tests/transport"
	"github.com/apiqa/webhook-contract-tests/webhook"
)

// fakeUserAPI implements just enough of the target API's contract for the
// suite to pass against it.
func fakeUserAPI() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/users/")
		switch r.Method {
		case http.MethodGet:
			if id != "2" {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, "{}")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"data": {
					"id": 2,
					"email": "janet.weaver@reqres.in",
					"first_name": "Janet",
					"last_name": "Weaver",
					"avatar": "https://reqres.in/img/faces/2-image.jpg"
				},
				"support": {"url": "https://reqres.in/#support-heading"}
			}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"name":      payload["name"],
			"job":       payload["job"],
			"id":        "976",
			"createdAt": time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "application/json")
		var message string
		switch {
		case payload["email"] == "" && payload["password"] == "":
			message = "Missing email or username"
		case payload["email"] == "":
			message = "Missing email"
		case payload["password"] == "":
			message = "Missing password"
		default:
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "QpwL5tke4Pnpja7X4"})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
	})

	return mux
}

func suiteEnv(t *testing.T, apiBaseURL string, captureBaseURL string) Env {
	cfg := &config.Config{
		API: config.APIConfig{BaseURL: apiBaseURL, Token: "test-token"},
		Webhook: config.WebhookConfig{
			PollAttempts: 3,
			PollDelay:    config.Duration(10 * time.Millisecond),
		},
	}
	if captureBaseURL != "" {
		cfg.Webhook.TargetURL = captureBaseURL + "/suite-check"
		cfg.Webhook.APIBaseURL = captureBaseURL
	}
	cfg.FillDefaults()

	env := Env{
		Config: cfg,
		REST:   rest.New(transport.New(apiBaseURL)),
	}
	if captureBaseURL != "" {
		client, err := webhook.New(cfg.Webhook, transport.New(captureBaseURL))
		require.NoError(t, err)
		env.Webhook = client
	}
	return env
}

func failedIDs(results framework.Results) []string {
	var ids []string
	for _, f := range results.Failures {
		ids = append(ids, f.TestID.String())
	}
	return ids
}

func TestSuitePassesAgainstConformingServices(t *testing.T) {
	apiServer := httptest.NewServer(fakeUserAPI())
	defer apiServer.Close()
	captureServer := httptest.NewServer(mockcapture.NewServer())
	defer captureServer.Close()

	env := suiteEnv(t, apiServer.URL, captureServer.URL)
	results := RunTestSuite(env, nil, nil)

	assert.True(t, results.OK(), "unexpected failures: %v", failedIDs(results))
	assert.Empty(t, results.Skipped)
	assert.Greater(t, len(results.Tests), 10)
}

func TestWebhookTestsSkipWithoutTarget(t *testing.T) {
	apiServer := httptest.NewServer(fakeUserAPI())
	defer apiServer.Close()

	env := suiteEnv(t, apiServer.URL, "")
	results := RunTestSuite(env, nil, nil)

	assert.True(t, results.OK(), "unexpected failures: %v", failedIDs(results))
	require.Len(t, results.Skipped, 1)
	assert.Equal(t, "webhook delivery", results.Skipped[0].TestID.String())
}

func TestSuiteReportsFailuresAgainstBrokenService(t *testing.T) {
	apiServer := httptest.NewServer(httphelpers.HandlerWithResponse(500, nil, []byte("everything is on fire")))
	defer apiServer.Close()

	env := suiteEnv(t, apiServer.URL, "")
	results := RunTestSuite(env, nil, nil)

	assert.False(t, results.OK())
	assert.Contains(t, failedIDs(results), "users API/get single user")
}

func TestSuiteHonorsFilters(t *testing.T) {
	apiServer := httptest.NewServer(fakeUserAPI())
	defer apiServer.Close()

	var filters framework.RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("^users API"))

	env := suiteEnv(t, apiServer.URL, "")
	results := RunTestSuite(env, filters.AsFilter, nil)

	assert.True(t, results.OK())
	var skipped []string
	for _, s := range results.Skipped {
		skipped = append(skipped, s.TestID.String())
	}
	assert.Contains(t, skipped, "users API")
}
