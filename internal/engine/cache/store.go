package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// cacheFileExtension is the file extension used for cache entries.
const cacheFileExtension = ".json"

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Common cache errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrCacheExpired    = errors.New("cache entry expired")
	ErrInvalidCacheKey = errors.New("cache key cannot be empty")
	ErrCacheDisabled   = errors.New("cache is disabled")
	ErrUnknownBackend  = errors.New("unknown cache backend")
)

// Store is a TTL key/value store for JSON documents.
// Get returns ErrCacheNotFound or ErrCacheExpired on a miss.
type Store interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, data json.RawMessage) error
	SetWithTTL(ctx context.Context, key string, data json.RawMessage, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats describes a store's contents.
type Stats struct {
	Backend    string
	Location   string
	Entries    int
	SizeBytes  int64
	TTLSeconds int
}

// IsMiss reports whether err means the key is simply not cached.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheNotFound) ||
		errors.Is(err, ErrCacheExpired) ||
		errors.Is(err, ErrCacheDisabled)
}

// Options selects and configures a backend.
type Options struct {
	Enabled    bool
	Backend    string
	Directory  string
	TTLSeconds int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open returns the configured store. A disabled cache returns a store whose
// reads miss and whose writes report ErrCacheDisabled.
func Open(ctx context.Context, opts Options) (Store, error) {
	ttl := opts.TTLSeconds
	if ttl <= 0 {
		ttl = DefaultTTLSeconds
	}

	switch strings.ToLower(opts.Backend) {
	case "", BackendFile:
		store, err := NewFileStore(opts.Directory, opts.Enabled, ttl)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendRedis:
		if !opts.Enabled {
			return &FileStore{enabled: false, ttlSeconds: ttl}, nil
		}
		store, err := NewRedisStore(ctx, RedisOptions{
			Addr:       opts.RedisAddr,
			Password:   opts.RedisPassword,
			DB:         opts.RedisDB,
			Prefix:     opts.RedisPrefix,
			TTLSeconds: ttl,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// FileStore keeps one JSON file per entry in a directory.
// It is safe for concurrent use within one process.
type FileStore struct {
	directory  string
	enabled    bool
	ttlSeconds int

	mu sync.RWMutex
}

// NewFileStore creates a file-backed store, creating directory if needed.
func NewFileStore(directory string, enabled bool, ttlSeconds int) (*FileStore, error) {
	if !enabled {
		return &FileStore{enabled: false, ttlSeconds: ttlSeconds}, nil
	}

	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}

	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileStore{
		directory:  directory,
		enabled:    true,
		ttlSeconds: ttlSeconds,
	}, nil
}

// Get retrieves a cache entry by key. Expired entries are removed.
func (s *FileStore) Get(_ context.Context, key string) (*CacheEntry, error) {
	if !s.enabled {
		return nil, ErrCacheDisabled
	}
	if key == "" {
		return nil, ErrInvalidCacheKey
	}

	s.mu.RLock()
	filePath := s.keyToFilePath(key)
	data, err := os.ReadFile(filePath)
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry CacheEntry
	if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", unmarshalErr)
	}

	if entry.IsExpired() {
		s.mu.Lock()
		_ = os.Remove(filePath)
		s.mu.Unlock()
		return nil, ErrCacheExpired
	}

	return &entry, nil
}

// Set stores data under key with the store's default TTL.
func (s *FileStore) Set(ctx context.Context, key string, data json.RawMessage) error {
	return s.SetWithTTL(ctx, key, data, s.ttlSeconds)
}

// SetWithTTL stores data under key with an explicit TTL.
func (s *FileStore) SetWithTTL(_ context.Context, key string, data json.RawMessage, ttlSeconds int) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}

	entryData, err := json.MarshalIndent(NewCacheEntry(key, data, ttlSeconds), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write then rename so readers never see a partial file.
	filePath := s.keyToFilePath(key)
	tempPath := filePath + ".tmp"
	if writeErr := os.WriteFile(tempPath, entryData, 0o600); writeErr != nil {
		return fmt.Errorf("failed to write cache file: %w", writeErr)
	}
	if renameErr := os.Rename(tempPath, filePath); renameErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache file: %w", renameErr)
	}

	return nil
}

// Delete removes a cache entry. Missing entries are not an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.keyToFilePath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// Clear removes all cache entries.
func (s *FileStore) Clear(_ context.Context) error {
	if !s.enabled {
		return ErrCacheDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.walk(func(path string, _ os.DirEntry) error {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove cache file %s: %w", filepath.Base(path), err)
		}
		return nil
	})
}

// CleanupExpired removes expired entries and returns how many were removed.
func (s *FileStore) CleanupExpired(_ context.Context) (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	err := s.walk(func(path string, _ os.DirEntry) error {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		var entry CacheEntry
		if json.Unmarshal(data, &entry) != nil {
			return nil
		}
		if entry.IsExpired() && os.Remove(path) == nil {
			removed++
		}
		return nil
	})
	return removed, err
}

// Stats counts entries and their total size, including expired ones.
func (s *FileStore) Stats(_ context.Context) (Stats, error) {
	stats := Stats{Backend: BackendFile, Location: s.directory, TTLSeconds: s.ttlSeconds}
	if !s.enabled {
		return stats, ErrCacheDisabled
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	err := s.walk(func(_ string, entry os.DirEntry) error {
		info, infoErr := entry.Info()
		if infoErr != nil {
			return nil
		}
		stats.Entries++
		stats.SizeBytes += info.Size()
		return nil
	})
	return stats, err
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// IsEnabled returns true if caching is enabled.
func (s *FileStore) IsEnabled() bool {
	return s.enabled
}

// walk calls fn for every cache file. Callers hold s.mu.
func (s *FileStore) walk(fn func(path string, entry os.DirEntry) error) error {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != cacheFileExtension {
			continue
		}
		if err := fn(filepath.Join(s.directory, entry.Name()), entry); err != nil {
			return err
		}
	}
	return nil
}

// keyToFilePath maps a key to a filesystem-safe path inside the directory.
func (s *FileStore) keyToFilePath(key string) string {
	safeKey := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(key)
	return filepath.Join(s.directory, safeKey+cacheFileExtension)
}
