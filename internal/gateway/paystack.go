package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const paystackBaseURL = "https://api.paystack.co"

// PaystackClient talks to the Paystack REST API. Paystack quotes
// amounts in kobo already, so no unit conversion happens on this
// client.
type PaystackClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewPaystackClient builds a client authenticated with the given
// secret key.
func NewPaystackClient(secretKey string) *PaystackClient {
	return &PaystackClient{
		baseURL:   paystackBaseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *PaystackClient) request(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("paystack: marshal payload: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("paystack: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("paystack: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("paystack: %s %s: status %d: %s", method, endpoint, resp.StatusCode, body)
	}

	var env paystackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("paystack: decode response: %w", err)
	}
	if !env.Status {
		return nil, fmt.Errorf("paystack: %s %s: %s", method, endpoint, env.Message)
	}
	return env.Data, nil
}

// InitializeTransaction opens a Paystack hosted-payment session.
func (c *PaystackClient) InitializeTransaction(ctx context.Context, req InitRequest) (*InitResult, error) {
	payload := map[string]any{
		"email":        req.Email,
		"amount":       req.AmountKobo,
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
		"metadata":     req.Metadata,
	}
	data, err := c.request(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}
	var out struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("paystack: decode initialize data: %w", err)
	}
	return &InitResult{
		AuthorizationURL: out.AuthorizationURL,
		Reference:        out.Reference,
		AccessCode:       out.AccessCode,
	}, nil
}

// paystackTxData is the subset of transaction fields consumed by
// verification and webhook normalization.
type paystackTxData struct {
	ID        json.Number `json:"id"`
	Status    string      `json:"status"`
	Reference string      `json:"reference"`
	Amount    int64       `json:"amount"` // kobo
	PaidAt    string      `json:"paid_at"`
}

// normalizePaystackStatus maps Paystack transaction statuses onto the
// gateway-agnostic constants. "abandoned" and "reversed" are terminal
// failures; "ongoing"/"pending"/"queued" are still in flight.
func normalizePaystackStatus(s string) string {
	switch s {
	case "success":
		return StatusSuccess
	case "failed", "abandoned", "reversed", "cancelled":
		return StatusFailed
	default:
		return StatusPending
	}
}

func parseGatewayTime(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// VerifyTransaction fetches the authoritative outcome for a reference.
func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	data, err := c.request(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}
	var tx paystackTxData
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("paystack: decode verify data: %w", err)
	}
	return &VerifyResult{
		Status:     normalizePaystackStatus(tx.Status),
		AmountKobo: tx.Amount,
		PaidAt:     parseGatewayTime(tx.PaidAt),
		Raw:        data,
	}, nil
}

// ParsePaystackNotice normalizes a Paystack webhook body. The event ID
// is derived from the transaction ID and event name so that redelivery
// of the same event maps to the same dedup key; a random ID is only
// used when the payload carries no transaction ID at all.
func ParsePaystackNotice(body []byte) (*Notice, error) {
	var payload struct {
		Event string         `json:"event"`
		Data  paystackTxData `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("paystack: decode webhook body: %w", err)
	}

	eventID := payload.Data.ID.String()
	if eventID == "" {
		eventID = uuid.NewString()
	}
	eventID = fmt.Sprintf("%s-%s", eventID, payload.Event)

	return &Notice{
		EventID:    eventID,
		Event:      payload.Event,
		Reference:  payload.Data.Reference,
		Success:    payload.Event == "charge.success",
		Failed:     payload.Event == "charge.failed",
		AmountKobo: payload.Data.Amount,
		PaidAt:     parseGatewayTime(payload.Data.PaidAt),
		Raw:        body,
	}, nil
}
