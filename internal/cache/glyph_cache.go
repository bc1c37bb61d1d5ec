package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"glyphAPI/internal/metrics"
	"glyphAPI/internal/types/glyph"

	"github.com/redis/go-redis/v9"
)

const activeGlyphsKey = "glyphs:active"

// GlyphCache holds a JSON snapshot of the active glyph set.
type GlyphCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGlyphCache(client *redis.Client, ttl time.Duration) *GlyphCache {
	return &GlyphCache{client: client, ttl: ttl}
}

// GetActive returns the cached snapshot. ok is false on a miss.
func (c *GlyphCache) GetActive(ctx context.Context) (glyphs []glyph.Glyph, ok bool, err error) {
	raw, err := c.client.Get(ctx, activeGlyphsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.GlyphCacheRequests.WithLabelValues("miss").Inc()
			return nil, false, nil
		}
		metrics.GlyphCacheRequests.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("failed to read active glyphs: %w", err)
	}

	if err := json.Unmarshal(raw, &glyphs); err != nil {
		metrics.GlyphCacheRequests.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("failed to decode active glyphs: %w", err)
	}
	metrics.GlyphCacheRequests.WithLabelValues("hit").Inc()
	return glyphs, true, nil
}

func (c *GlyphCache) SetActive(ctx context.Context, glyphs []glyph.Glyph) error {
	raw, err := json.Marshal(glyphs)
	if err != nil {
		return fmt.Errorf("failed to encode active glyphs: %w", err)
	}
	return c.client.Set(ctx, activeGlyphsKey, raw, c.ttl).Err()
}

func (c *GlyphCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, activeGlyphsKey).Err()
}
