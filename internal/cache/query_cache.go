package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/debarghya18/local-RAG/internal/model"
)

// QueryHistoryCache keeps a session's recent query records in Redis so
// history reads skip the database. Writers invalidate after every new query,
// so a short TTL is only a safety net.
type QueryHistoryCache struct {
	client     *redisv9.Client
	historyTTL time.Duration
}

func NewQueryHistoryCache(client *redisv9.Client, historyTTL time.Duration) *QueryHistoryCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	return &QueryHistoryCache{
		client:     client,
		historyTTL: historyTTL,
	}
}

func (c *QueryHistoryCache) GetHistory(ctx context.Context, sessionID uint) ([]model.RAGQueryView, bool, error) {
	key := c.historyKey(sessionID)
	raw, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get query history failed: %w", err)
	}

	var queries []model.RAGQueryView
	if err := json.Unmarshal([]byte(raw), &queries); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached query history failed: %w", err)
	}
	return queries, true, nil
}

func (c *QueryHistoryCache) SetHistory(ctx context.Context, sessionID uint, queries []model.RAGQueryView) error {
	key := c.historyKey(sessionID)
	payload, err := json.Marshal(queries)
	if err != nil {
		return fmt.Errorf("marshal query history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set query history failed: %w", err)
	}
	return nil
}

func (c *QueryHistoryCache) Invalidate(ctx context.Context, sessionID uint) error {
	key := c.historyKey(sessionID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete query history failed: %w", err)
	}
	return nil
}

func (c *QueryHistoryCache) historyKey(sessionID uint) string {
	return fmt.Sprintf("rag:history:%d", sessionID)
}
