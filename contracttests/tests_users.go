package contracttests

import (
	"fmt"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiqa/webhook-contract-tests/rest"
)

func DoUserAPITests(t *T) {
	t.Run("get single user", func(t *T) {
		resp := t.Get("/api/users/2")
		t.RequireStatus(resp, 200)

		body, err := rest.ParseBody(resp)
		require.NoError(t, err)
		requireShape(t, body, rest.UserEnvelopeShape)

		user := body.GetByKey("data")
		requireShape(t, user, rest.UserShape)

		// focused checks beyond the shape contract
		assert.Equal(t, 2, user.GetByKey("id").IntValue(), "user id was not echoed back")
		assert.Contains(t, user.GetByKey("email").StringValue(), "@", "email field is not an address")
	})

	t.Run("create user", func(t *T) {
		payload := map[string]string{
			"name": "Morgan",
			"job":  "senior QA automation engineer",
		}
		resp := t.Post("/api/users", payload)
		t.RequireStatus(resp, 201)

		body, err := rest.ParseBody(resp)
		require.NoError(t, err)
		requireShape(t, body, rest.CreatedUserShape)

		assert.Equal(t, payload["name"], body.GetByKey("name").StringValue(), "name was not echoed back")
		assert.Equal(t, payload["job"], body.GetByKey("job").StringValue(), "job was not echoed back")
	})

	t.Run("delete user", func(t *T) {
		resp := t.Delete("/api/users/2")
		t.RequireStatus(resp, 204)
		assert.Empty(t, string(resp.Body), "DELETE response should have no content")
	})

	t.Run("nonexistent user returns 404", func(t *T) {
		for _, userID := range []int{234, 9999, 12345} {
			t.Run(fmt.Sprintf("id %d", userID), func(t *T) {
				resp := t.Get(fmt.Sprintf("/api/users/%d", userID))
				t.RequireStatus(resp, 404)
				// The error path has no success schema; only the body being
				// effectively empty is part of the contract.
				body := strings.TrimSpace(string(resp.Body))
				assert.Contains(t, []string{"", "{}"}, body, "404 body should be empty")
			})
		}
	})

	t.Run("login with invalid payload returns 400", func(t *T) {
		for _, params := range []struct {
			desc           string
			payload        map[string]string
			expectedErrSub string
		}{
			{"missing password", map[string]string{"email": "user@example.com"}, "missing password"},
			{"missing email", map[string]string{"password": "secret"}, "missing email"},
			{"empty payload", map[string]string{}, "missing"},
		} {
			t.Run(params.desc, func(t *T) {
				resp := t.Post("/api/login", params.payload)
				t.RequireStatus(resp, 400)

				body, err := rest.ParseBody(resp)
				require.NoError(t, err)
				requireShape(t, body, rest.ErrorShape)

				message := strings.ToLower(body.GetByKey("error").StringValue())
				assert.Contains(t, message, params.expectedErrSub, "unexpected error message")
			})
		}
	})
}
