package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/workspace-service/internal/domain"
)

const workspaceListTTL = 5 * time.Minute

// WorkspaceCache keeps a best-effort Redis copy of each user's
// workspace list. The store stays authoritative: every cache failure
// degrades to a database read, never to an error.
type WorkspaceCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewWorkspaceCache builds a cache on top of the shared Redis wrapper.
func NewWorkspaceCache(r *Redis, logger *zap.Logger) *WorkspaceCache {
	if r == nil || r.Client == nil {
		return nil
	}
	return &WorkspaceCache{client: r.Client, logger: logger}
}

// Get returns the cached list for the user, if present.
func (c *WorkspaceCache) Get(ctx context.Context, userID string) ([]domain.Workspace, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, workspaceListKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("workspace cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var workspaces []domain.Workspace
	if err := json.Unmarshal(raw, &workspaces); err != nil {
		c.logger.Warn("workspace cache entry corrupt", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	return workspaces, true
}

// Set stores the list for the user.
func (c *WorkspaceCache) Set(ctx context.Context, userID string, workspaces []domain.Workspace) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(workspaces)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, workspaceListKey(userID), raw, workspaceListTTL).Err(); err != nil {
		c.logger.Warn("workspace cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached list for the user.
func (c *WorkspaceCache) Invalidate(ctx context.Context, userID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, workspaceListKey(userID)).Err(); err != nil {
		c.logger.Warn("workspace cache invalidation failed", zap.Error(err))
	}
}

func workspaceListKey(userID string) string {
	return "workspaces:user:" + userID
}
