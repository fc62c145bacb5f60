package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentsClient talks to the external payment-intent provider. Booking creation
// is never gated on it; callers treat failures as advisory.
type PaymentsClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewPaymentsClient returns HTTP client wrapper. An empty baseURL disables it.
func NewPaymentsClient(baseURL string, logger *zap.Logger) *PaymentsClient {
	return &PaymentsClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

type intentRequest struct {
	BookingID      int64   `json:"booking_id"`
	Amount         float64 `json:"amount"`
	IdempotencyKey string  `json:"idempotency_key"`
}

type intentResponse struct {
	IntentID string `json:"intent_id"`
}

// CreateIntent registers a payment intent for a booking's price estimate and
// returns the provider's handle.
func (c *PaymentsClient) CreateIntent(ctx context.Context, bookingID int64, amount float64) (string, error) {
	if c.baseURL == "" {
		c.logger.Debug("payments client disabled, skip intent creation")
		return "", nil
	}

	body := intentRequest{
		BookingID:      bookingID,
		Amount:         amount,
		IdempotencyKey: uuid.NewString(),
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/intents", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var parsed intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return parsed.IntentID, nil
}
