// Package searchcache caches knowledge-search hits in the key-value store.
package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medagent/internal/db"
	"github.com/kailas-cloud/medagent/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "search_cache:"

// store is the consumer interface for the search cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Searcher is the decorated provider.
type Searcher interface {
	Search(ctx context.Context, query, depth string, maxResults int) ([]domain.Snippet, error)
}

// CachedSearcher caches provider hits for ttl.
type CachedSearcher struct {
	inner      Searcher
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Searcher,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSearcher{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Search returns cached hits or calls the inner provider.
// Provider errors and empty hit lists are never cached.
func (c *CachedSearcher) Search(ctx context.Context, query, depth string, maxResults int) ([]domain.Snippet, error) {
	key := cacheKey(query, depth, maxResults)

	if hits, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return hits, nil
	}

	c.incCache("miss")

	hits, err := c.inner.Search(ctx, query, depth, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if len(hits) > 0 {
		c.putToCache(ctx, key, hits)
	}
	return hits, nil
}

func (c *CachedSearcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(query, depth string, maxResults int) string {
	h := sha256.New()
	h.Write([]byte(depth))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(maxResults)))
	h.Write([]byte{0})
	h.Write([]byte(query))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedSearcher) getFromCache(ctx context.Context, key string) ([]domain.Snippet, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached search", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	var hits []domain.Snippet
	if err := json.Unmarshal(data, &hits); err != nil {
		c.logger.Warn("Failed to parse cached search", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if len(hits) == 0 {
		return nil, false
	}

	return hits, true
}

func (c *CachedSearcher) putToCache(ctx context.Context, key string, hits []domain.Snippet) {
	data, err := json.Marshal(hits)
	if err != nil {
		c.logger.Warn("Failed to encode search hits", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache search", zap.String("key", key), zap.Error(err))
	}
}
