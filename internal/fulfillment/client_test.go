package fulfillment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/accessgate/internal/webhook/domain"
)

func TestHTTPClient_CreateAlias(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/alias", r.URL.Path)
			assert.Equal(t, "api-key", r.Header.Get("x-api-key"))
			assert.Equal(t, "evt_1", r.Header.Get("x-idempotency-token"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "a@x.com", body["email"])
			assert.Equal(t, "cus_1", body["customerId"])
			assert.Equal(t, false, body["notifyUser"])

			_ = json.NewEncoder(w).Encode(map[string]string{"alias": "alias_abc"})
		}))
		defer server.Close()

		client, err := NewHTTPClient(server.URL, "api-key", "secret", time.Second)
		require.NoError(t, err)

		alias, err := client.CreateAlias(context.Background(), AliasRequest{
			EventID:    "evt_1",
			Email:      "a@x.com",
			CustomerID: "cus_1",
		})
		require.NoError(t, err)
		assert.Equal(t, "alias_abc", alias)
	})

	t.Run("EmptyAliasInResponse", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{})
		}))
		defer server.Close()

		client, err := NewHTTPClient(server.URL, "api-key", "", time.Second)
		require.NoError(t, err)

		_, err = client.CreateAlias(context.Background(), AliasRequest{EventID: "evt_1"})
		assert.Error(t, err)
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client, err := NewHTTPClient(server.URL, "api-key", "", time.Second)
		require.NoError(t, err)

		_, err = client.CreateAlias(context.Background(), AliasRequest{EventID: "evt_1"})
		assert.Error(t, err)
	})
}

func TestHTTPClient_NotifyOnboarding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/onboard-notify", r.URL.Path)
		assert.Equal(t, "onboarding-secret", r.Header.Get("x-onboarding-secret"))
		assert.Equal(t, "evt_1", r.Header.Get("x-idempotency-token"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alias_abc", body["alias"])
		assert.Equal(t, "firstflame_pair", body["planKey"])

		_ = json.NewEncoder(w).Encode(map[string]bool{"notificationSent": true})
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, "api-key", "onboarding-secret", time.Second)
	require.NoError(t, err)

	sent, err := client.NotifyOnboarding(context.Background(), OnboardingNotice{
		EventID:    "evt_1",
		CustomerID: "cus_1",
		Email:      "a@x.com",
		Alias:      "alias_abc",
		PlanKey:    "firstflame_pair",
		PlanName:   "First Flame: Household Pair",
	})
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestHTTPClient_RecordOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/orders", r.URL.Path)
			assert.Equal(t, "evt_1", r.Header.Get("x-idempotency-token"))

			var snapshot domain.OrderSnapshot
			require.NoError(t, json.NewDecoder(r.Body).Decode(&snapshot))
			assert.Equal(t, "evt_1", snapshot.EventID)
			assert.Equal(t, int64(2900), snapshot.AmountTotal)

			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client, err := NewHTTPClient(server.URL, "api-key", "", time.Second)
		require.NoError(t, err)

		err = client.RecordOrder(context.Background(), &domain.OrderSnapshot{
			EventID:     "evt_1",
			EventType:   "checkout.session.completed",
			CustomerID:  "cus_1",
			AmountTotal: 2900,
			Currency:    "usd",
		})
		assert.NoError(t, err)
	})

	t.Run("Unreachable", func(t *testing.T) {
		client, err := NewHTTPClient("http://127.0.0.1:1", "api-key", "", 200*time.Millisecond)
		require.NoError(t, err)

		err = client.RecordOrder(context.Background(), &domain.OrderSnapshot{EventID: "evt_1"})
		assert.Error(t, err)
	})
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient("", "key", "", time.Second)
	assert.Error(t, err)
}
