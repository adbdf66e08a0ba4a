package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CacheEntry is one cached value with its expiration metadata.
//
//nolint:revive // CacheEntry is the canonical name for this exported type.
type CacheEntry struct {
	// Key is the cache key (see GenerateKey).
	Key string `json:"key"`

	// Data is the cached JSON document.
	Data json.RawMessage `json:"data"`

	// CreatedAt is when the entry was written.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is when the entry stops being served.
	ExpiresAt time.Time `json:"expires_at"`

	// TTLSeconds is the lifetime the entry was written with.
	TTLSeconds int `json:"ttl_seconds"`
}

// NewCacheEntry creates an entry expiring ttlSeconds from now.
func NewCacheEntry(key string, data json.RawMessage, ttlSeconds int) *CacheEntry {
	now := time.Now()
	return &CacheEntry{
		Key:        key,
		Data:       data,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Duration(ttlSeconds) * time.Second),
		TTLSeconds: ttlSeconds,
	}
}

// IsExpired reports whether the entry is past its expiration time.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Age returns the duration since the entry was created.
func (e *CacheEntry) Age() time.Duration {
	return time.Since(e.CreatedAt)
}

// TimeUntilExpiration returns the remaining lifetime, or 0 once expired.
func (e *CacheEntry) TimeUntilExpiration() time.Duration {
	return max(time.Until(e.ExpiresAt), 0)
}

// Decode unmarshals the cached document into v.
func (e *CacheEntry) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decoding cache entry %s: %w", e.Key, err)
	}
	return nil
}

// entryJSON is the on-disk layout. Times are RFC3339 so cache files stay readable.
type entryJSON struct {
	Key        string          `json:"key"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  string          `json:"created_at"`
	ExpiresAt  string          `json:"expires_at"`
	TTLSeconds int             `json:"ttl_seconds"`
}

// MarshalJSON implements json.Marshaler.
func (e *CacheEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Key:        e.Key,
		Data:       e.Data,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		ExpiresAt:  e.ExpiresAt.Format(time.RFC3339),
		TTLSeconds: e.TTLSeconds,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *CacheEntry) UnmarshalJSON(data []byte) error {
	if e == nil {
		return errors.New("cannot unmarshal into nil CacheEntry")
	}

	var aux entryJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	created, err := time.Parse(time.RFC3339, aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	expires, err := time.Parse(time.RFC3339, aux.ExpiresAt)
	if err != nil {
		return fmt.Errorf("parsing expires_at: %w", err)
	}

	*e = CacheEntry{
		Key:        aux.Key,
		Data:       aux.Data,
		CreatedAt:  created,
		ExpiresAt:  expires,
		TTLSeconds: aux.TTLSeconds,
	}
	return nil
}
