package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/johnlukeG/creator-cto-webkit/internal/metrics"
	"github.com/johnlukeG/creator-cto-webkit/internal/repository"
)

// View names a cached read model. Mutations invalidate the views that
// depend on the rows they touch.
type View string

const (
	ViewUsers    View = "admin:users"
	ViewStats    View = "admin:stats"
	ViewSignups  View = "admin:signups"
	ViewSettings View = "settings"
)

const (
	viewKeyPrefix = "view:"
	viewGenPrefix = "viewgen:"
)

// ViewCache stores JSON-encoded read models in the StateStore. Concurrent
// misses for one key share a single fill.
//
// Every view has a generation counter. Invalidate bumps it, and a cached
// entry is served only while its recorded generation is still current, so
// a fill that started before an invalidation can never be read after it.
type ViewCache struct {
	store    repository.StateStore
	ttl      time.Duration
	group    singleflight.Group
	recorder metrics.Recorder
	logger   *zap.Logger
}

type cachedView struct {
	Gen  string          `json:"gen"`
	Data json.RawMessage `json:"data"`
}

func NewViewCache(store repository.StateStore, ttl time.Duration, recorder metrics.Recorder, logger *zap.Logger) *ViewCache {
	if recorder == nil {
		recorder = metrics.Noop
	}
	return &ViewCache{store: store, ttl: ttl, recorder: recorder, logger: logger}
}

func viewKey(view View, variant string) string {
	if variant == "" {
		return viewKeyPrefix + string(view)
	}
	return viewKeyPrefix + string(view) + ":" + variant
}

// generation returns the view's current generation; "" until the first
// invalidation.
func (c *ViewCache) generation(ctx context.Context, view View) (string, error) {
	raw, err := c.store.Get(ctx, viewGenPrefix+string(view))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Invalidate retires every variant of the given views. Failures are logged;
// the TTL bounds staleness.
func (c *ViewCache) Invalidate(ctx context.Context, views ...View) {
	for _, view := range views {
		if _, err := c.store.Incr(ctx, viewGenPrefix+string(view)); err != nil {
			c.logger.Warn("view generation bump failed", zap.String("view", string(view)), zap.Error(err))
		}
		if err := c.store.DeletePrefix(ctx, viewKeyPrefix+string(view)); err != nil {
			c.logger.Warn("view invalidation failed", zap.String("view", string(view)), zap.Error(err))
		}
	}
}

// loadView returns the cached value for (view, variant) or runs fill and
// caches its result. Fill errors are returned and never cached. A fill is
// cached only if no invalidation of view happened while it ran.
func loadView[T any](ctx context.Context, c *ViewCache, view View, variant string, fill func(context.Context) (T, error)) (T, error) {
	key := viewKey(view, variant)

	gen, err := c.generation(ctx, view)
	cacheable := err == nil
	if !cacheable {
		c.logger.Warn("view generation read failed", zap.String("view", string(view)), zap.Error(err))
	} else if cached, ok := c.lookup(ctx, key, gen); ok {
		var value T
		if err := json.Unmarshal(cached, &value); err == nil {
			c.recorder.RecordCache(string(view), true)
			return value, nil
		}
		c.logger.Warn("discarding undecodable view", zap.String("key", key))
	}
	c.recorder.RecordCache(string(view), false)

	// Callers that saw a newer generation never join an older fill.
	v, err, _ := c.group.Do(key+"@"+gen, func() (interface{}, error) {
		fresh, err := fill(ctx)
		if err != nil {
			return fresh, err
		}
		if cacheable {
			c.save(ctx, view, key, gen, fresh)
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// lookup returns the cached payload for key if it was written under gen.
func (c *ViewCache) lookup(ctx context.Context, key, gen string) (json.RawMessage, bool) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("view cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if raw == nil {
		return nil, false
	}
	var entry cachedView
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("discarding undecodable view", zap.String("key", key))
		return nil, false
	}
	if entry.Gen != gen {
		return nil, false
	}
	return entry.Data, true
}

// save writes fresh under gen unless view was invalidated since gen was read.
func (c *ViewCache) save(ctx context.Context, view View, key, gen string, fresh interface{}) {
	data, err := json.Marshal(fresh)
	if err != nil {
		c.logger.Warn("view encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	current, err := c.generation(ctx, view)
	if err != nil || current != gen {
		c.logger.Debug("skipping superseded view fill", zap.String("key", key))
		return
	}
	raw, err := json.Marshal(cachedView{Gen: gen, Data: data})
	if err != nil {
		c.logger.Warn("view encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
	}
}
