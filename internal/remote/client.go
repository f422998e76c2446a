package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/florinapp/florin/internal/common"
	"github.com/florinapp/florin/internal/model"
)

// Client implements Service against the record service's HTTP API. The
// bearer token is opaque to the core; token exchange and session storage
// belong to the authentication layer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	deviceID   string
	authNotifier
}

// NewClient creates a client for the record service at baseURL. An empty
// token leaves the client in unauthenticated mode; CurrentUser will return
// nil until SetToken is called. The device id identifies this device in the
// service's sync audit trail.
func NewClient(baseURL, token, deviceID string) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: remote base URL", common.ErrMissingConfig)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid remote URL: %v", common.ErrInvalidConfig, err)
	}

	return &Client{
		baseURL:  baseURL,
		token:    token,
		deviceID: deviceID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// SetToken installs a session token and announces the sign-in to auth
// subscribers once the session is verified.
func (c *Client) SetToken(ctx context.Context, token string) error {
	c.token = token
	user, err := c.CurrentUser(ctx)
	if err != nil {
		c.token = ""
		return err
	}
	if user == nil {
		c.token = ""
		return fmt.Errorf("%w: token rejected", common.ErrAuth)
	}
	c.emit(AuthSignedIn, user)
	return nil
}

// ClearToken drops the session and announces the sign-out.
func (c *Client) ClearToken() {
	c.token = ""
	c.emit(AuthSignedOut, nil)
}

// OnAuthStateChange implements Service.
func (c *Client) OnAuthStateChange(fn func(AuthEvent, *User)) func() {
	return c.subscribe(fn)
}

// Upsert implements Service. Transient 429/503 responses are retried at the
// transport level; the record either lands or the error is reported, so the
// sync cycle itself never retries.
func (c *Client) Upsert(ctx context.Context, collection model.Kind, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	endpoint := fmt.Sprintf("%s/records/%s?on_conflict=id,owner", c.baseURL, collection)

	return common.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		req.Header.Set("Content-Type", "application/json")
		c.authorize(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &common.RetryableError{
				Err:       fmt.Errorf("%w: %v", common.ErrNetwork, err),
				Retryable: false,
			}
		}
		defer resp.Body.Close()

		return c.checkStatus(resp)
	}, common.RetryOptions{MaxAttempts: 2, InitialDelay: 500 * time.Millisecond})
}

// SelectAll implements Service.
func (c *Client) SelectAll(ctx context.Context, collection model.Kind, owner string) ([]Record, error) {
	endpoint := fmt.Sprintf("%s/records/%s?owner=%s", c.baseURL, collection, url.QueryEscape(owner))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// CurrentUser implements Service. A 401 means no session, which is not an
// error: the device simply runs local-only.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if c.token == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, nil
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-ID", c.deviceID)
	}
}

func (c *Client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", common.ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return common.ErrRateLimit
	case resp.StatusCode == http.StatusServiceUnavailable:
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: status %d", common.ErrNetwork, resp.StatusCode),
			Retryable: true,
		}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", common.ErrNetwork, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// Ensure Client implements the Service interface.
var _ Service = (*Client)(nil)
