package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"server/internal/domain"
	"server/internal/infra"
)

const (
	keyPrefix         = "content:"
	connectionTimeout = 5 * time.Second
)

// Entry is a completed generation result stored under its fingerprint.
type Entry struct {
	Key         string                        `json:"key"`
	Payload     map[domain.ContentType]string `json:"payload"`
	Model       string                        `json:"model"`
	GeneratedAt time.Time                     `json:"generated_at"`
	ExpiresAt   time.Time                     `json:"expires_at"`
}

// Store is the cache contract shared by the networked and in-process
// implementations. Get returns domain.ErrCacheMiss when absent or expired.
type Store interface {
	Get(ctx context.Context, fingerprint string) (*Entry, error)
	Set(ctx context.Context, fingerprint string, payload map[domain.ContentType]string, model string, ttl time.Duration) error
	Invalidate(ctx context.Context, fingerprint string) error
	InvalidateAll(ctx context.Context) error
}

// Options configures NewStore.
type Options struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Logger        infra.Logger
}

// NewStore prefers a redis-backed store and degrades to the in-process map
// when redis is not reachable at startup. The degradation is logged but the
// caller always gets a working Store with identical semantics.
func NewStore(opts Options) Store {
	if opts.RedisAddr == "" {
		opts.Logger.Info().Msg("cache: no redis address configured, using in-memory store")
		return NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		opts.Logger.Warn().Err(err).Msg("cache: redis unreachable, degrading to in-memory store")
		return NewMemoryStore()
	}

	return &redisStore{client: client, fallback: NewMemoryStore(), logger: opts.Logger}
}

// redisStore keeps entries in redis with native TTL. Any operation failure
// degrades to the in-process fallback for that operation rather than failing
// the caller.
type redisStore struct {
	client   *redis.Client
	fallback Store
	logger   infra.Logger
}

func (s *redisStore) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	data, err := s.client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache: redis get failed, trying in-memory fallback")
		return s.fallback.Get(ctx, fingerprint)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("cache: decode entry: %w", err)
	}
	return &entry, nil
}

func (s *redisStore) Set(ctx context.Context, fingerprint string, payload map[domain.ContentType]string, model string, ttl time.Duration) error {
	entry := newEntry(fingerprint, payload, model, ttl)
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+fingerprint, data, ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("cache: redis set failed, writing to in-memory fallback")
		return s.fallback.Set(ctx, fingerprint, payload, model, ttl)
	}
	return nil
}

func (s *redisStore) Invalidate(ctx context.Context, fingerprint string) error {
	if err := s.client.Del(ctx, keyPrefix+fingerprint).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("cache: redis del failed")
	}
	return s.fallback.Invalidate(ctx, fingerprint)
}

func (s *redisStore) InvalidateAll(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", iter.Val()).Msg("cache: redis del failed")
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("cache: redis scan failed")
	}
	return s.fallback.InvalidateAll(ctx)
}

// MemoryStore is the in-process fallback with the same TTL semantics as the
// networked store. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func (s *MemoryStore) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entry, ok := s.entries[fingerprint]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if time.Now().After(entry.ExpiresAt) {
		s.mu.Lock()
		delete(s.entries, fingerprint)
		s.mu.Unlock()
		return nil, domain.ErrCacheMiss
	}
	return entry, nil
}

func (s *MemoryStore) Set(ctx context.Context, fingerprint string, payload map[domain.ContentType]string, model string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := newEntry(fingerprint, payload, model, ttl)
	s.mu.Lock()
	s.entries[fingerprint] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, fingerprint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, fingerprint)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) InvalidateAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()
	return nil
}

func newEntry(fingerprint string, payload map[domain.ContentType]string, model string, ttl time.Duration) *Entry {
	now := time.Now().UTC()
	copied := make(map[domain.ContentType]string, len(payload))
	for ct, text := range payload {
		copied[ct] = text
	}
	return &Entry{
		Key:         fingerprint,
		Payload:     copied,
		Model:       model,
		GeneratedAt: now,
		ExpiresAt:   now.Add(ttl),
	}
}

var (
	_ Store = (*redisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
