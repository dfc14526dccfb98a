// Package cache keeps each project's ordered column list in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"trakr/internal/model"
)

// ColumnCache is safe to use with a nil client, in which case every lookup
// misses and every write is a no-op.
type ColumnCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewColumnCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ColumnCache {
	return &ColumnCache{client: client, ttl: ttl, logger: logger}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func key(projectID int64) string {
	return fmt.Sprintf("trakr:columns:%d", projectID)
}

func versionKey(projectID int64) string {
	return fmt.Sprintf("trakr:columns:%d:version", projectID)
}

var errStaleVersion = errors.New("column cache version changed")

// Get returns the cached ordered columns of a project.
func (c *ColumnCache) Get(ctx context.Context, projectID int64) ([]model.Column, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key(projectID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Column cache read failed", zap.Int64("project_id", projectID), zap.Error(err))
		}
		return nil, false
	}
	var columns []model.Column
	if err := json.Unmarshal(data, &columns); err != nil {
		c.logger.Warn("Column cache entry is corrupt", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, false
	}
	return columns, true
}

// Version returns the project's invalidation counter. Read it before loading
// the columns from the database and hand it to Set. A negative version means
// the counter could not be read and Set will skip the write.
func (c *ColumnCache) Version(ctx context.Context, projectID int64) int64 {
	if c == nil || c.client == nil {
		return -1
	}
	version, err := c.client.Get(ctx, versionKey(projectID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("Column cache version read failed", zap.Int64("project_id", projectID), zap.Error(err))
		return -1
	}
	return version
}

// Set stores columns loaded at version. The write is dropped when the project
// was invalidated since then.
func (c *ColumnCache) Set(ctx context.Context, projectID, version int64, columns []model.Column) {
	if c == nil || c.client == nil || version < 0 {
		return
	}
	data, err := json.Marshal(columns)
	if err != nil {
		return
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey(projectID)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(projectID), data, c.ttl)
			return nil
		})
		return err
	}, versionKey(projectID))
	switch {
	case err == nil:
	case errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("Skipped stale column cache write", zap.Int64("project_id", projectID))
	default:
		c.logger.Warn("Column cache write failed", zap.Int64("project_id", projectID), zap.Error(err))
	}
}

// Invalidate drops the cached columns of a project and bumps its version so
// loads started earlier cannot write their result back.
func (c *ColumnCache) Invalidate(ctx context.Context, projectID int64) {
	if c == nil || c.client == nil {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key(projectID))
		pipe.Incr(ctx, versionKey(projectID))
		return nil
	})
	if err != nil {
		c.logger.Warn("Column cache invalidation failed", zap.Int64("project_id", projectID), zap.Error(err))
	}
}

// Ping reports "not configured" when no client is set.
func (c *ColumnCache) Ping(ctx context.Context) string {
	if c == nil || c.client == nil {
		return "not configured"
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return "error: " + err.Error()
	}
	return "connected"
}
