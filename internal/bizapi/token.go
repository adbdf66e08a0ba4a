package bizapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rshade/bizcheck/internal/engine/cache"
	"github.com/rshade/bizcheck/internal/logging"
)

const (
	// defaultTokenLifetime applies when the token response omits expires_in.
	defaultTokenLifetime = 2592000 * time.Second

	// tokenExpiryMargin renews tokens shortly before they expire.
	tokenExpiryMargin = time.Minute

	tokenCacheOperation = "access_token"
)

type cachedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// tokenSource fetches and caches OAuth access tokens. It is safe for
// concurrent use; concurrent callers share a single fetch.
type tokenSource struct {
	httpClient *http.Client
	tokenURL   string
	apiKey     string
	secretKey  string
	store      cache.Store
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// Token returns a valid access token, fetching one if needed.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiresAt) {
		return ts.token, nil
	}

	if tok, ok := ts.loadStored(ctx); ok {
		ts.token, ts.expiresAt = tok.AccessToken, tok.ExpiresAt
		return ts.token, nil
	}

	tok, err := ts.fetch(ctx)
	if err != nil {
		return "", err
	}
	ts.token, ts.expiresAt = tok.AccessToken, tok.ExpiresAt
	ts.save(ctx, tok)
	return ts.token, nil
}

// Invalidate forgets the current token, in memory and in the store.
func (ts *tokenSource) Invalidate(ctx context.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.token = ""
	ts.expiresAt = time.Time{}
	if key, ok := ts.storeKey(); ok {
		_ = ts.store.Delete(ctx, key)
	}
}

func (ts *tokenSource) fetch(ctx context.Context) (cachedToken, error) {
	q := url.Values{}
	q.Set("grant_type", "client_credentials")
	q.Set("client_id", ts.apiKey)
	q.Set("client_secret", ts.secretKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return cachedToken{}, fmt.Errorf("%w: %w", ErrTokenRequest, err)
	}

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return cachedToken{}, fmt.Errorf("%w: %w", ErrTokenRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return cachedToken{}, fmt.Errorf("%w: %w", ErrTokenRequest, err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return cachedToken{}, fmt.Errorf("%w: %w", ErrTokenRequest,
				&APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)})
		}
		return cachedToken{}, fmt.Errorf("%w: decoding response: %w", ErrTokenRequest, err)
	}

	if tr.AccessToken == "" {
		if tr.Error != "" || resp.StatusCode >= http.StatusBadRequest {
			return cachedToken{}, fmt.Errorf("%w: %w", ErrTokenRequest, &APIError{
				StatusCode: resp.StatusCode,
				Message:    tr.Error + ": " + tr.ErrorDescription,
			})
		}
		return cachedToken{}, fmt.Errorf("%w: %w", ErrTokenRequest, ErrNoAccessToken)
	}

	lifetime := defaultTokenLifetime
	if tr.ExpiresIn > 0 {
		lifetime = time.Duration(tr.ExpiresIn) * time.Second
	}
	if lifetime > 2*tokenExpiryMargin {
		lifetime -= tokenExpiryMargin
	}

	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "bizapi").
		Dur("lifetime", lifetime).
		Msg("obtained access token")

	return cachedToken{AccessToken: tr.AccessToken, ExpiresAt: ts.now().Add(lifetime)}, nil
}

func (ts *tokenSource) storeKey() (string, bool) {
	if ts.store == nil {
		return "", false
	}
	key, err := cache.GenerateKey(cache.KeyParams{Operation: tokenCacheOperation, Inputs: []string{ts.tokenURL, ts.apiKey}})
	return key, err == nil
}

func (ts *tokenSource) loadStored(ctx context.Context) (cachedToken, bool) {
	key, ok := ts.storeKey()
	if !ok {
		return cachedToken{}, false
	}
	entry, err := ts.store.Get(ctx, key)
	if err != nil {
		return cachedToken{}, false
	}

	var tok cachedToken
	if entry.Decode(&tok) != nil || tok.AccessToken == "" || !ts.now().Before(tok.ExpiresAt) {
		return cachedToken{}, false
	}
	return tok, true
}

func (ts *tokenSource) save(ctx context.Context, tok cachedToken) {
	key, ok := ts.storeKey()
	if !ok {
		return
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return
	}
	ttl := int(tok.ExpiresAt.Sub(ts.now()) / time.Second)
	if ttl <= 0 {
		return
	}
	if err := ts.store.SetWithTTL(ctx, key, data, ttl); err != nil && !cache.IsMiss(err) {
		logging.FromContext(ctx).Debug().Ctx(ctx).Err(err).Msg("could not persist access token")
	}
}
