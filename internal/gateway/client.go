package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/conductionnl/balance-service/internal/domain"
	"github.com/conductionnl/balance-service/internal/logging"
)

// Client talks to a Mollie-style payment gateway. Payments are created
// here and then polled by id; the gateway alone moves them between
// statuses.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetry   time.Duration
}

func NewClient(baseURL, apiKey string, timeout, maxRetry time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetry: maxRetry,
	}
}

type amountPayload struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type createPaymentPayload struct {
	Amount      amountPayload `json:"amount"`
	Description string        `json:"description"`
	RedirectURL string        `json:"redirectUrl"`
	Locale      string        `json:"locale"`
}

type paymentResponse struct {
	ID          string        `json:"id"`
	Status      string        `json:"status"`
	Amount      amountPayload `json:"amount"`
	Description string        `json:"description"`
	RedirectURL string        `json:"redirectUrl"`
	Links       struct {
		Checkout struct {
			Href string `json:"href"`
		} `json:"checkout"`
	} `json:"_links"`
}

// CreatePayment registers a payment intent with the gateway and returns
// its id plus the checkout URL the payer must be sent to.
func (c *Client) CreatePayment(ctx context.Context, amount domain.Money, description, redirectURL string) (*domain.PaymentIntent, error) {
	payload := createPaymentPayload{
		Amount: amountPayload{
			Currency: string(amount.Currency),
			Value:    amount.FormatMajor(),
		},
		Description: description,
		RedirectURL: redirectURL,
		Locale:      "en_US",
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("CreatePayment: marshal: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/v2/payments", encoded)
	if err != nil {
		return nil, fmt.Errorf("CreatePayment: %w", err)
	}
	return resp.toDomain()
}

// GetPayment polls the gateway for the current state of a payment.
// Transient failures (network errors, 5xx) are retried with exponential
// backoff within the client's retry window; gateway verdicts are never
// retried.
func (c *Client) GetPayment(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	if id == "" {
		return nil, fmt.Errorf("GetPayment: empty payment id: %w", domain.ErrInvalidRequest)
	}

	var resp *paymentResponse
	operation := func() error {
		var err error
		resp, err = c.do(ctx, http.MethodGet, "/v2/payments/"+id, nil)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.maxRetry

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("GetPayment: %s: %w", id, err)
	}
	return resp.toDomain()
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*paymentResponse, error) {
	log := logging.FromContext(ctx)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	log.Debug("gateway response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, backoff.Permanent(fmt.Errorf("payment: %w", domain.ErrNotFound))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, backoff.Permanent(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet)))
	}

	var decoded paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode: %w", err))
	}
	return &decoded, nil
}

func (r *paymentResponse) toDomain() (*domain.PaymentIntent, error) {
	cur := domain.Currency(r.Amount.Currency)
	amount, err := domain.ParseMajor(r.Amount.Value, cur)
	if err != nil {
		return nil, fmt.Errorf("toDomain: amount %q: %w", r.Amount.Value, err)
	}
	return &domain.PaymentIntent{
		ID:          r.ID,
		Amount:      amount,
		Description: r.Description,
		RedirectURL: r.RedirectURL,
		CheckoutURL: r.Links.Checkout.Href,
		Status:      domain.PaymentStatus(r.Status),
	}, nil
}
