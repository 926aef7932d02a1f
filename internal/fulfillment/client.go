// Package fulfillment provides the HTTP client for the downstream fulfillment
// service: alias provisioning, onboarding notifications and the durable order
// ledger.
package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/webhook/domain"
)

// AliasRequest asks the fulfillment service to provision a delivery alias for
// a customer. EventID doubles as the idempotency token so retried webhook
// deliveries do not mint duplicate aliases.
type AliasRequest struct {
	EventID    string
	Email      string
	CustomerID string
	// NotifyUser asks the service to also send the onboarding message in the
	// same call. Used by the single-phase fallback.
	NotifyUser bool
}

// OnboardingNotice asks the fulfillment service to send the onboarding
// message for an already provisioned alias.
type OnboardingNotice struct {
	EventID    string
	CustomerID string
	Email      string
	Alias      string
	PlanKey    string
	PlanName   string
}

// Client is the outbound surface of the fulfillment service.
type Client interface {
	// CreateAlias provisions a delivery alias and returns it.
	CreateAlias(ctx context.Context, req AliasRequest) (string, error)

	// NotifyOnboarding sends the onboarding message for alias and reports
	// whether the notification went out.
	NotifyOnboarding(ctx context.Context, notice OnboardingNotice) (bool, error)

	// RecordOrder appends a transaction snapshot to the order ledger, keyed
	// by the snapshot's event id.
	RecordOrder(ctx context.Context, snapshot *domain.OrderSnapshot) error
}

type httpClient struct {
	baseURL          string
	apiKey           string
	onboardingSecret string
	client           *http.Client
}

// NewHTTPClient creates a fulfillment Client against baseURL. Every call is
// bounded by timeout.
func NewHTTPClient(baseURL, apiKey, onboardingSecret string, timeout time.Duration) (Client, error) {
	if baseURL == "" {
		return nil, apperrors.New("fulfillment base URL is required")
	}
	return &httpClient{
		baseURL:          baseURL,
		apiKey:           apiKey,
		onboardingSecret: onboardingSecret,
		client:           &http.Client{Timeout: timeout},
	}, nil
}

type aliasRequestBody struct {
	Email      string `json:"email"`
	CustomerID string `json:"customerId"`
	NotifyUser bool   `json:"notifyUser"`
}

type aliasResponseBody struct {
	Alias string `json:"alias"`
}

func (c *httpClient) CreateAlias(ctx context.Context, req AliasRequest) (string, error) {
	body := aliasRequestBody{
		Email:      req.Email,
		CustomerID: req.CustomerID,
		NotifyUser: req.NotifyUser,
	}

	var response aliasResponseBody
	headers := map[string]string{"x-idempotency-token": req.EventID}
	if err := c.post(ctx, "/alias", body, headers, &response); err != nil {
		return "", apperrors.Wrap(err, "failed to create alias")
	}
	if response.Alias == "" {
		return "", apperrors.New("alias response missing alias")
	}
	return response.Alias, nil
}

type onboardNotifyRequestBody struct {
	CustomerID string `json:"customerId"`
	Email      string `json:"email"`
	Alias      string `json:"alias"`
	PlanKey    string `json:"planKey,omitempty"`
	PlanName   string `json:"planName,omitempty"`
}

type onboardNotifyResponseBody struct {
	NotificationSent bool `json:"notificationSent"`
}

func (c *httpClient) NotifyOnboarding(ctx context.Context, notice OnboardingNotice) (bool, error) {
	body := onboardNotifyRequestBody{
		CustomerID: notice.CustomerID,
		Email:      notice.Email,
		Alias:      notice.Alias,
		PlanKey:    notice.PlanKey,
		PlanName:   notice.PlanName,
	}

	var response onboardNotifyResponseBody
	headers := map[string]string{
		"x-idempotency-token": notice.EventID,
		"x-onboarding-secret": c.onboardingSecret,
	}
	if err := c.post(ctx, "/onboard-notify", body, headers, &response); err != nil {
		return false, apperrors.Wrap(err, "failed to send onboarding notification")
	}
	return response.NotificationSent, nil
}

func (c *httpClient) RecordOrder(ctx context.Context, snapshot *domain.OrderSnapshot) error {
	headers := map[string]string{"x-idempotency-token": snapshot.EventID}
	if err := c.post(ctx, "/orders", snapshot, headers, nil); err != nil {
		return apperrors.Wrap(err, "failed to record order")
	}
	return nil
}

// post sends a JSON body to path and decodes the JSON response into out when
// out is non-nil. Any non-2xx status is an error.
func (c *httpClient) post(ctx context.Context, path string, body any, headers map[string]string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, "request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.New(fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, path))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.Wrap(err, "failed to decode response body")
		}
	}
	return nil
}
