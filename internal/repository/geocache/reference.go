// Package geocache caches reference hierarchy searches in a key-value store.
package geocache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/idintake/internal/db"
	"github.com/kailas-cloud/idintake/internal/domain/geo"
)

// DefaultTTL is how long a cached search stays valid.
const DefaultTTL = 5 * time.Minute

const cacheNamespace = "geo_cache:"

// Reference is the decorated reference lookup.
type Reference interface {
	Search(ctx context.Context, level geo.Level, text, parentCode string) ([]geo.Entry, error)
}

// store is the consumer interface for the reference cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// CachedReference caches search results. Cache failures fall through to the inner reference.
type CachedReference struct {
	inner      Reference
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Reference,
	s store,
	keyPrefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedReference {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedReference{
		inner:      inner,
		store:      s,
		prefix:     keyPrefix + cacheNamespace,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Search returns cached entries or queries the inner reference.
// Errors are never cached.
func (c *CachedReference) Search(ctx context.Context, level geo.Level, text, parentCode string) ([]geo.Entry, error) {
	key := c.cacheKey(level, text, parentCode)

	if entries, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return entries, nil
	}

	c.incCache("miss")

	entries, err := c.inner.Search(ctx, level, text, parentCode)
	if err != nil {
		return nil, fmt.Errorf("search reference: %w", err)
	}

	c.putToCache(ctx, key, entries)
	return entries, nil
}

// Invalidate drops every cached search, used after the reference data is reseeded.
func (c *CachedReference) Invalidate(ctx context.Context) (int, error) {
	keys, err := c.store.Scan(ctx, c.prefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan cache keys: %w", err)
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		return 0, fmt.Errorf("delete cache keys: %w", err)
	}
	return len(keys), nil
}

func (c *CachedReference) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedReference) cacheKey(level geo.Level, text, parentCode string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return c.prefix + string(level) + ":" + parentCode + ":" + hex.EncodeToString(h[:])
}

func (c *CachedReference) getFromCache(ctx context.Context, key string) ([]geo.Entry, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached reference search", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	var rows []cachedEntry
	if err := json.Unmarshal(data, &rows); err != nil {
		c.logger.Warn("Failed to parse cached reference search", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	entries := make([]geo.Entry, len(rows))
	for i, r := range rows {
		entries[i] = r.toDomain()
	}
	return entries, true
}

func (c *CachedReference) putToCache(ctx context.Context, key string, entries []geo.Entry) {
	rows := make([]cachedEntry, len(entries))
	for i, e := range entries {
		rows[i] = fromDomain(e)
	}
	data, err := json.Marshal(rows)
	if err != nil {
		c.logger.Warn("Failed to encode reference search", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache reference search", zap.String("key", key), zap.Error(err))
	}
}

type cachedEntry struct {
	Level      string `json:"l"`
	Code       string `json:"c"`
	Name       string `json:"n"`
	ParentCode string `json:"p,omitempty"`
	ZipCode    string `json:"z,omitempty"`
	Kind       string `json:"k,omitempty"`
}

func fromDomain(e geo.Entry) cachedEntry {
	return cachedEntry{
		Level:      string(e.Level),
		Code:       e.Code,
		Name:       e.Name,
		ParentCode: e.ParentCode,
		ZipCode:    e.ZipCode,
		Kind:       string(e.Kind),
	}
}

func (r cachedEntry) toDomain() geo.Entry {
	return geo.Entry{
		Level:      geo.Level(r.Level),
		Code:       r.Code,
		Name:       r.Name,
		ParentCode: r.ParentCode,
		ZipCode:    r.ZipCode,
		Kind:       geo.CityKind(r.Kind),
	}
}
