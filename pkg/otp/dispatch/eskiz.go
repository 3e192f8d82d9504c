package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Abraxas-365/phonex/pkg/logx"
)

// DefaultEskizURL is the Eskiz.uz notification API base URL.
// https://notify.eskiz.uz
const DefaultEskizURL = "https://notify.eskiz.uz/api"

// eskizTokenLifetime is how long a fetched token is trusted. Eskiz
// tokens last 30 days; refreshing a day early avoids racing the expiry.
const eskizTokenLifetime = 29 * 24 * time.Hour

// EskizClient sends SMS through Eskiz. The bearer token is cached and
// refreshed transparently: a 401 on send drops the cached token,
// re-authenticates, and retries the send exactly once.
type EskizClient struct {
	email    string
	password string
	sender   string
	baseURL  string
	http     *http.Client

	mu             sync.Mutex
	token          string
	tokenExpiresAt time.Time
}

// EskizOption customizes an EskizClient.
type EskizOption func(*EskizClient)

// WithEskizURL overrides the API base URL. Used by tests.
func WithEskizURL(u string) EskizOption {
	return func(c *EskizClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithEskizHTTPClient overrides the HTTP client.
func WithEskizHTTPClient(h *http.Client) EskizOption {
	return func(c *EskizClient) { c.http = h }
}

// NewEskizClient creates an Eskiz SMS client.
func NewEskizClient(email, password, sender string, opts ...EskizOption) *EskizClient {
	c := &EskizClient{
		email:    email,
		password: password,
		sender:   sender,
		baseURL:  DefaultEskizURL,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendSMS delivers message to phone and returns the provider message
// ID. Token refresh is bounded to a single retry so an auth loop can
// never recurse.
func (c *EskizClient) SendSMS(ctx context.Context, phone, message string) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.getToken(ctx)
		if err != nil {
			return "", err
		}

		id, status, err := c.doSend(ctx, token, phone, message)
		if err != nil {
			return "", err
		}
		if status == http.StatusUnauthorized {
			// Token expired server-side; refresh and retry once.
			c.invalidateToken()
			logx.Debug("eskiz token expired, re-authenticating")
			continue
		}
		if status < 200 || status >= 300 {
			return "", dispatchErrors.New(ErrSMSFailure).WithDetail("status", status)
		}

		logx.WithField("phone", maskPhone(phone)).Debug("sms sent")
		return id, nil
	}
	return "", dispatchErrors.New(ErrAuthFailure)
}

// doSend performs one send request. A non-nil error means the request
// itself failed; provider-level rejections come back as the status.
func (c *EskizClient) doSend(ctx context.Context, token, phone, message string) (id string, status int, err error) {
	form := url.Values{
		"mobile_phone": {strings.TrimPrefix(phone, "+")},
		"message":      {message},
		"from":         {c.sender},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/message/sms/send", strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, dispatchErrors.NewWithCause(ErrSMSFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, dispatchErrors.NewWithCause(ErrSMSFailure, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var body struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	// Non-JSON bodies are tolerated; the status code decides.
	_ = json.Unmarshal(raw, &body)

	id = body.ID
	if id == "" {
		id = body.Status
	}
	if id == "" {
		id = "sent"
	}
	return id, resp.StatusCode, nil
}

// getToken returns the cached bearer token, logging in when the cache
// is empty or expired.
func (c *EskizClient) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiresAt) {
		return c.token, nil
	}

	form := url.Values{
		"email":    {c.email},
		"password": {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", dispatchErrors.NewWithCause(ErrAuthFailure, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", dispatchErrors.NewWithCause(ErrAuthFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", dispatchErrors.New(ErrAuthFailure).WithDetail("status", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", dispatchErrors.NewWithCause(ErrAuthFailure, err)
	}
	if body.Data.Token == "" {
		return "", dispatchErrors.New(ErrAuthFailure).WithDetail("reason", "login response carried no token")
	}

	c.token = body.Data.Token
	c.tokenExpiresAt = time.Now().Add(eskizTokenLifetime)
	return c.token, nil
}

// invalidateToken drops the cached token so the next call logs in
// again.
func (c *EskizClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiresAt = time.Time{}
	c.mu.Unlock()
}
