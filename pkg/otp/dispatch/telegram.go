package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/phonex/pkg/logx"
)

// DefaultGatewayURL is the official Telegram Gateway API endpoint.
// https://core.telegram.org/gateway
const DefaultGatewayURL = "https://gatewayapi.telegram.org"

// GatewayClient sends verification messages through the Telegram
// Gateway API. No bot and no user registration is needed; Telegram
// messages the phone number directly. The access token is static
// (issued at https://gateway.telegram.org), so authentication errors
// are not retryable and surface as ordinary gateway failures.
type GatewayClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// GatewayOption customizes a GatewayClient.
type GatewayOption func(*GatewayClient)

// WithGatewayURL overrides the API base URL. Used by tests.
func WithGatewayURL(url string) GatewayOption {
	return func(c *GatewayClient) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithGatewayHTTPClient overrides the HTTP client.
func WithGatewayHTTPClient(h *http.Client) GatewayOption {
	return func(c *GatewayClient) { c.http = h }
}

// NewGatewayClient creates a Telegram Gateway client. The request
// timeout is transport-owned and deliberately much shorter than the OTP
// TTL so a slow provider fails fast.
func NewGatewayClient(token string, opts ...GatewayOption) *GatewayClient {
	c := &GatewayClient{
		token:   token,
		baseURL: DefaultGatewayURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type gatewayResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		RequestID string `json:"request_id"`
	} `json:"result"`
	Error       string `json:"error"`
	Description string `json:"description"`
}

// SendVerification delivers a code to phone and returns the gateway
// request ID. A phone with no Telegram account yields
// ErrRecipientUnreachable so the dispatcher can fall back to SMS.
func (c *GatewayClient) SendVerification(ctx context.Context, phone, code string, ttl time.Duration) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"phone_number": normalizePhone(phone),
		"code":         code,
		"code_length":  len(code),
		"ttl":          int(ttl.Seconds()),
	})
	if err != nil {
		return "", dispatchErrors.NewWithCause(ErrGatewayFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendVerificationMessage", bytes.NewReader(payload))
	if err != nil {
		return "", dispatchErrors.NewWithCause(ErrGatewayFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", dispatchErrors.NewWithCause(ErrGatewayFailure, err)
	}
	defer resp.Body.Close()

	var body gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", dispatchErrors.NewWithCause(ErrGatewayFailure, err).WithDetail("status", resp.StatusCode)
	}

	if !body.OK {
		desc := body.Description
		if desc == "" {
			desc = body.Error
		}
		if desc == "" {
			desc = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		if isNotOnTelegram(desc, resp.StatusCode) {
			return "", dispatchErrors.New(ErrRecipientUnreachable).WithDetail("description", desc)
		}
		return "", dispatchErrors.New(ErrGatewayFailure).WithDetail("description", desc)
	}

	logx.WithField("phone", maskPhone(phone)).Debug("telegram gateway message sent")
	return body.Result.RequestID, nil
}

// CheckSendAbility asks the gateway whether the phone can receive a
// verification message on Telegram at all.
func (c *GatewayClient) CheckSendAbility(ctx context.Context, phone string) (bool, error) {
	payload, err := json.Marshal(map[string]string{"phone_number": normalizePhone(phone)})
	if err != nil {
		return false, dispatchErrors.NewWithCause(ErrGatewayFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkSendAbility", bytes.NewReader(payload))
	if err != nil {
		return false, dispatchErrors.NewWithCause(ErrGatewayFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, dispatchErrors.NewWithCause(ErrGatewayFailure, err)
	}
	defer resp.Body.Close()

	var body gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, dispatchErrors.NewWithCause(ErrGatewayFailure, err)
	}
	return body.OK, nil
}

// isNotOnTelegram recognizes the gateway's "number not registered"
// outcomes.
func isNotOnTelegram(description string, status int) bool {
	return strings.Contains(description, "PHONE_NUMBER_NOT_FOUND") ||
		strings.Contains(strings.ToLower(description), "not found") ||
		status == http.StatusNotFound
}

// normalizePhone ensures the E.164 "+" prefix the gateway expects.
func normalizePhone(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}

// maskPhone keeps logs useful without leaking full numbers.
func maskPhone(phone string) string {
	if len(phone) <= 7 {
		return phone
	}
	return phone[:7] + "***"
}
