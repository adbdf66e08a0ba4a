package bizapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rshade/bizcheck/internal/engine/cache"
	"github.com/rshade/bizcheck/internal/logging"
)

// API paths relative to Options.BaseURL.
const (
	PathLicenseVerification = "/businesslicense_verification_standard"
	PathTwoFactors          = "/two_factors_verification"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 4 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	TokenURL  string
	APIKey    string
	SecretKey string

	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration

	// RequestsPerSecond paces lookups. Zero disables client-side pacing.
	RequestsPerSecond float64
	Burst             int

	// TokenStore persists access tokens across processes. Optional.
	TokenStore cache.Store
}

// Client calls the verification API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	tokens     *tokenSource
}

// NewClient creates a client. APIKey and SecretKey are required.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" || opts.SecretKey == "" {
		return nil, ErrMissingCredentials
	}
	if opts.BaseURL == "" || opts.TokenURL == "" {
		return nil, errors.New("base URL and token URL are required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(opts.Burst, 1))
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		limiter:    limiter,
		tokens: &tokenSource{
			httpClient: httpClient,
			tokenURL:   opts.TokenURL,
			apiKey:     opts.APIKey,
			secretKey:  opts.SecretKey,
			store:      opts.TokenStore,
			now:        time.Now,
		},
	}, nil
}

// QueryBusiness looks up the license registered for a company name or
// registration number.
func (c *Client) QueryBusiness(ctx context.Context, name string) (*QueryResponse, error) {
	raw, err := c.post(ctx, PathLicenseVerification, url.Values{"verifynum": {name}})
	if err != nil {
		return nil, err
	}

	var resp QueryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding license response: %w", err)
	}
	resp.Raw = raw
	return &resp, nil
}

// VerifyBusiness checks that company and regnum belong together.
func (c *Client) VerifyBusiness(ctx context.Context, company, regnum string) (*VerifyResponse, error) {
	raw, err := c.post(ctx, PathTwoFactors, url.Values{"company": {company}, "regnum": {regnum}})
	if err != nil {
		return nil, err
	}

	var resp VerifyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding verification response: %w", err)
	}
	resp.Raw = raw
	return &resp, nil
}

// post sends a form request. A rejected token is renewed once.
func (c *Client) post(ctx context.Context, path string, form url.Values) (json.RawMessage, error) {
	raw, err := c.postOnce(ctx, path, form)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.tokenRejected() {
		logging.FromContext(ctx).Debug().
			Ctx(ctx).
			Str("component", "bizapi").
			Int("code", apiErr.Code).
			Msg("access token rejected, renewing")
		c.tokens.Invalidate(ctx)
		raw, err = c.postOnce(ctx, path, form)
	}
	return raw, err
}

// postOnce returns the response body once neither the HTTP status nor the
// body's error_code reports a failure.
func (c *Client) postOnce(ctx context.Context, path string, form url.Values) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path + "?" + url.Values{"access_token": {token}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}

	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "bizapi").
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	var status apiStatus
	if decodeErr := json.Unmarshal(body, &status); decodeErr != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		return nil, fmt.Errorf("decoding %s response: %w", path, decodeErr)
	}
	if apiErr := status.err(resp.StatusCode); apiErr != nil {
		return nil, apiErr
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	return body, nil
}
