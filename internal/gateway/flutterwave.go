package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const flutterwaveBaseURL = "https://api.flutterwave.com/v3"

// FlutterwaveClient talks to the Flutterwave v3 REST API. Flutterwave
// quotes amounts in major currency units, so amounts are multiplied by
// 100 on the way in and out to keep the rest of the system in kobo.
type FlutterwaveClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewFlutterwaveClient builds a client authenticated with the given
// secret key.
func NewFlutterwaveClient(secretKey string) *FlutterwaveClient {
	return &FlutterwaveClient{
		baseURL:   flutterwaveBaseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type flutterwaveEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *FlutterwaveClient) request(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("flutterwave: marshal payload: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("flutterwave: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flutterwave: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("flutterwave: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("flutterwave: %s %s: status %d: %s", method, endpoint, resp.StatusCode, body)
	}

	var env flutterwaveEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("flutterwave: decode response: %w", err)
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("flutterwave: %s %s: %s", method, endpoint, env.Message)
	}
	return env.Data, nil
}

// InitializeTransaction opens a Flutterwave hosted-payment session.
func (c *FlutterwaveClient) InitializeTransaction(ctx context.Context, req InitRequest) (*InitResult, error) {
	payload := map[string]any{
		"tx_ref":       req.Reference,
		"amount":       float64(req.AmountKobo) / 100,
		"currency":     "NGN",
		"redirect_url": req.CallbackURL,
		"customer": map[string]string{
			"email": req.Email,
		},
		"meta": req.Metadata,
	}
	data, err := c.request(ctx, http.MethodPost, "/payments", payload)
	if err != nil {
		return nil, err
	}
	var out struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("flutterwave: decode payments data: %w", err)
	}
	return &InitResult{
		AuthorizationURL: out.Link,
		Reference:        req.Reference,
	}, nil
}

// flutterwaveTxData is the subset of transaction fields consumed by
// verification and webhook normalization. Amounts are in major units.
type flutterwaveTxData struct {
	ID        json.Number `json:"id"`
	TxRef     string      `json:"tx_ref"`
	Status    string      `json:"status"`
	Amount    float64     `json:"amount"`
	CreatedAt string      `json:"created_at"`
}

func normalizeFlutterwaveStatus(s string) string {
	switch s {
	case "successful":
		return StatusSuccess
	case "failed", "cancelled":
		return StatusFailed
	default:
		return StatusPending
	}
}

// majorToKobo converts a major-unit amount into kobo, rounding to the
// nearest integer to absorb float decoding noise.
func majorToKobo(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

// VerifyTransaction fetches the authoritative outcome for a reference
// using verify-by-tx_ref, since the merchant reference is what the
// rest of the system keys on.
func (c *FlutterwaveClient) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	endpoint := "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)
	data, err := c.request(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var tx flutterwaveTxData
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("flutterwave: decode verify data: %w", err)
	}
	return &VerifyResult{
		Status:     normalizeFlutterwaveStatus(tx.Status),
		AmountKobo: majorToKobo(tx.Amount),
		PaidAt:     parseGatewayTime(tx.CreatedAt),
		Raw:        data,
	}, nil
}

// ParseFlutterwaveNotice normalizes a Flutterwave webhook body. The
// event ID reuses the transaction ID so redeliveries collapse onto one
// dedup key.
func ParseFlutterwaveNotice(body []byte) (*Notice, error) {
	var payload struct {
		Event string            `json:"event"`
		Data  flutterwaveTxData `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("flutterwave: decode webhook body: %w", err)
	}

	eventID := payload.Data.ID.String()
	if eventID == "" {
		eventID = uuid.NewString()
	}
	eventID = fmt.Sprintf("%s-%s", eventID, payload.Event)

	return &Notice{
		EventID:    eventID,
		Event:      payload.Event,
		Reference:  payload.Data.TxRef,
		Success:    payload.Event == "charge.completed" && payload.Data.Status == "successful",
		Failed:     payload.Event == "charge.completed" && payload.Data.Status == "failed",
		AmountKobo: majorToKobo(payload.Data.Amount),
		PaidAt:     parseGatewayTime(payload.Data.CreatedAt),
		Raw:        body,
	}, nil
}
