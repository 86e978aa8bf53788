package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

// Client talks to the processor's REST API. Calls go through a circuit
// breaker so a flapping processor fails fast instead of tying up request
// handlers for the full timeout.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Intent]
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name:    "payment-processor",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*Intent](settings),
	}
}

type intentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type intentResponse struct {
	ID            string `json:"id"`
	ClientSecret  string `json:"client_secret"`
	Status        string `json:"status"`
	DeclineReason string `json:"decline_reason,omitempty"`
	Error         string `json:"error,omitempty"`
}

func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error) {
	body, err := json.Marshal(intentRequest{Amount: amountMinor, Currency: currency})
	if err != nil {
		return nil, fmt.Errorf("marshal intent request: %w", err)
	}
	return c.breaker.Execute(func() (*Intent, error) {
		return c.do(ctx, http.MethodPost, "/v1/payment_intents", body)
	})
}

func (c *Client) ConfirmIntent(ctx context.Context, intentID string) (*Intent, error) {
	return c.breaker.Execute(func() (*Intent, error) {
		return c.do(ctx, http.MethodPost, "/v1/payment_intents/"+intentID+"/confirm", nil)
	})
}

func (c *Client) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	return c.breaker.Execute(func() (*Intent, error) {
		return c.do(ctx, http.MethodGet, "/v1/payment_intents/"+intentID, nil)
	})
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*Intent, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build processor request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("processor request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read processor response: %w", err)
	}

	var decoded intentResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode processor response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProcessorError{StatusCode: resp.StatusCode, Message: decoded.Error}
	}

	return &Intent{
		ID:            decoded.ID,
		ClientSecret:  decoded.ClientSecret,
		Status:        domain.PaymentStatus(decoded.Status),
		DeclineReason: decoded.DeclineReason,
	}, nil
}
