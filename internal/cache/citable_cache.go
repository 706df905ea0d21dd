package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"knowledge-governance/internal/model"
)

const allDepartments = "_all"

// CitableCache caches the ACTIVE document list per department.
type CitableCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewCitableCache(client *redisv9.Client, ttl time.Duration) *CitableCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CitableCache{client: client, ttl: ttl}
}

func (c *CitableCache) Get(ctx context.Context, department string) ([]model.Document, bool, error) {
	raw, err := c.client.Get(ctx, c.key(department)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get citable documents failed: %w", err)
	}

	var docs []model.Document
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached citable documents failed: %w", err)
	}
	return docs, true, nil
}

func (c *CitableCache) Set(ctx context.Context, department string, docs []model.Document) error {
	payload, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal citable documents failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(department), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set citable documents failed: %w", err)
	}
	return nil
}

// Invalidate drops the department entry and the cross-department entry.
func (c *CitableCache) Invalidate(ctx context.Context, department string) error {
	if err := c.client.Del(ctx, c.key(department), c.key("")).Err(); err != nil {
		return fmt.Errorf("redis delete citable documents failed: %w", err)
	}
	return nil
}

func (c *CitableCache) key(department string) string {
	if department == "" {
		department = allDepartments
	}
	return fmt.Sprintf("governance:citable:%s", department)
}
