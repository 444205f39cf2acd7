package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	tokenCachePrefix   = "auth:token:"
	tokenRevokedPrefix = "auth:revoked:"

	// lookupTimeout bounds a shared store lookup once it is detached from
	// the callers that started it.
	lookupTimeout = 5 * time.Second
)

// setUnlessRevoked writes KEYS[1] only while the revocation marker KEYS[2]
// is absent, so a lookup racing a logout cannot refill the entry.
var setUnlessRevoked = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

// TokenCache keeps resolved credentials in Redis. Keys are stored hashed so
// a cache dump does not leak usable tokens.
type TokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenCache instantiates the cache helper. A nil client or zero TTL
// disables caching.
func NewTokenCache(client *redis.Client, ttl time.Duration) *TokenCache {
	return &TokenCache{client: client, ttl: ttl}
}

func (c *TokenCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// revokedTTL outlives both a cache entry and any lookup that was in flight
// when the key was evicted.
func (c *TokenCache) revokedTTL() time.Duration {
	return max(c.ttl, lookupTimeout)
}

// Get returns the cached credential. ok is false on a miss.
func (c *TokenCache) Get(ctx context.Context, key string) (Credential, bool, error) {
	if !c.enabled() {
		return Credential{}, false, nil
	}
	raw, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, err
	}
	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return Credential{}, false, err
	}
	return cred, true, nil
}

// Set stores a credential for the configured TTL. Keys evicted recently are
// skipped.
func (c *TokenCache) Set(ctx context.Context, key string, cred Credential) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return setUnlessRevoked.Run(ctx, c.client,
		[]string{cacheKey(key), revokedKey(key)}, raw, c.ttl.Milliseconds()).Err()
}

// Evict drops cached entries for keys and marks them revoked so an
// in-flight lookup cannot cache them again.
func (c *TokenCache) Evict(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	hashed := make([]string, 0, len(keys))
	revoked := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		hashed = append(hashed, cacheKey(k))
		revoked = append(revoked, revokedKey(k))
	}
	if len(hashed) == 0 {
		return nil
	}
	ttl := c.revokedTTL()
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range revoked {
			pipe.Set(ctx, k, 1, ttl)
		}
		pipe.Del(ctx, hashed...)
		return nil
	})
	return err
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func cacheKey(key string) string {
	return tokenCachePrefix + hashKey(key)
}

func revokedKey(key string) string {
	return tokenRevokedPrefix + hashKey(key)
}

// CachedTokenStore is a read-through TokenStore. Misses are not cached so a
// freshly issued token resolves immediately.
type CachedTokenStore struct {
	next     TokenStore
	cache    *TokenCache
	logger   *slog.Logger
	observer CacheObserver
	group    singleflight.Group
}

// CacheObserver is told the outcome of each cache read: hit, miss or error.
type CacheObserver interface {
	ObserveTokenCache(result string)
}

// NewCachedTokenStore wraps next with cache.
func NewCachedTokenStore(next TokenStore, cache *TokenCache, logger *slog.Logger) *CachedTokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedTokenStore{next: next, cache: cache, logger: logger}
}

// WithObserver attaches o and returns s.
func (s *CachedTokenStore) WithObserver(o CacheObserver) *CachedTokenStore {
	s.observer = o
	return s
}

func (s *CachedTokenStore) observe(result string) {
	if s.observer != nil && s.cache.enabled() {
		s.observer.ObserveTokenCache(result)
	}
}

// LookupToken consults the cache first, then the backing store. Cache
// failures degrade to a direct lookup.
func (s *CachedTokenStore) LookupToken(ctx context.Context, key string) (Credential, error) {
	if cred, ok, err := s.cache.Get(ctx, key); err != nil {
		s.observe("error")
		s.logger.Warn("token cache get", slog.Any("error", err))
	} else if ok {
		s.observe("hit")
		return cred, nil
	} else {
		s.observe("miss")
	}

	// The shared lookup outlives any single caller; each caller still
	// stops waiting when its own context ends.
	ch := s.group.DoChan(cacheKey(key), func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		cred, err := s.next.LookupToken(lookupCtx, key)
		if err != nil {
			return Credential{}, err
		}
		if err := s.cache.Set(lookupCtx, key, cred); err != nil {
			s.logger.Warn("token cache set", slog.Any("error", err))
		}
		return cred, nil
	})
	select {
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	}
}

var _ TokenStore = (*CachedTokenStore)(nil)
