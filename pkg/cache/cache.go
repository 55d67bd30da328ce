// Package cache provides byte caches for downloaded docbook parts.
//
// Every backend implements [Cache]. The CLI defaults to [FileCache] so that
// repeated runs against the same source location do not download the large
// XML parts again; [MemoryCache] and [RedisCache] serve long-running
// processes such as `dcmdict serve`, and [NullCache] disables caching.
//
// Keys are produced by a [Keyer] so that every backend sees the same
// namespace layout:
//
//	k := cache.NewDefaultKeyer()
//	key := k.DocumentKey("https://dicom.nema.org/.../docbook", "part03")
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache stores opaque byte payloads under string keys.
type Cache interface {
	// Get returns the cached payload. The boolean is false on a miss;
	// expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by [New].
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Options configures [New].
type Options struct {
	Backend   string        // file | memory | redis | none
	Dir       string        // FileCache directory; empty means DefaultDir()
	TTL       time.Duration // default expiration for MemoryCache
	RedisAddr string        // RedisCache address
	Namespace string        // key prefix for RedisCache
}

// New builds the cache selected by opts.Backend. An empty backend selects
// the file cache.
func New(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		fc, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	case BackendMemory:
		return NewMemoryCache(opts.TTL), nil
	case BackendRedis:
		return NewRedisCache(ctx, opts.RedisAddr, opts.Namespace)
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// DefaultDir returns the per-user cache directory for docbook parts.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache dir: %w", err)
	}
	return filepath.Join(base, "dcmdict"), nil
}
