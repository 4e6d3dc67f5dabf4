package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

const defaultPaystackBaseURL = "https://api.paystack.co"

type paystackInitializeRequest struct {
	Email    string            `json:"email"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type paystackInitializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type PaystackProvider struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewPaystack(secretKey, baseURL string) *PaystackProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultPaystackBaseURL
	}
	return &PaystackProvider{
		secretKey: strings.TrimSpace(secretKey),
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 12 * time.Second},
	}
}

func (p *PaystackProvider) CreatePaymentLink(ctx context.Context, req LinkRequest) (string, error) {
	if p.secretKey == "" {
		return "", ErrInvalidConfig
	}

	body, err := json.Marshal(paystackInitializeRequest{
		Email:    req.Email,
		Amount:   req.Amount,
		Currency: strings.ToUpper(req.Currency),
		Metadata: req.Metadata,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed paystackInitializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest || !parsed.Status {
		message := strings.TrimSpace(parsed.Message)
		if message == "" {
			message = "paystack_request_failed"
		}
		return "", errors.New(message)
	}
	if parsed.Data.AuthorizationURL == "" {
		return "", errors.New("paystack_response_invalid")
	}

	return parsed.Data.AuthorizationURL, nil
}
