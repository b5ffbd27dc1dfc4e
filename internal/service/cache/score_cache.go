package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"AltCredit/internal/domain/models"
	pkgcache "AltCredit/pkg/cache"
)

// ScoreCache memoizes decisions keyed by model version and the canonical
// JSON of the input. Only safe when scoring is deterministic.
type ScoreCache struct {
	svc pkgcache.Service
	ttl time.Duration
}

func NewScoreCache(svc pkgcache.Service, ttl time.Duration) *ScoreCache {
	return &ScoreCache{svc: svc, ttl: ttl}
}

// Key derives the cache key for an input under a model version.
func Key(version string, in models.ApplicantFeatures) (string, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	return pkgcache.Key("score", version, pkgcache.Digest(b)), nil
}

// Get returns the cached decision, or ok=false on a miss.
func (c *ScoreCache) Get(ctx context.Context, key string) (*models.Decision, bool, error) {
	b, err := c.svc.Get(ctx, key)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var d models.Decision
	if err := json.Unmarshal(b, &d); err != nil {
		// Corrupt entry; drop it and treat as a miss.
		_ = c.svc.Delete(ctx, key)
		return nil, false, nil
	}
	return &d, true, nil
}

func (c *ScoreCache) Set(ctx context.Context, key string, d *models.Decision) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode cached decision: %w", err)
	}
	return c.svc.Set(ctx, key, b, c.ttl)
}
