package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetOrLoadJSON 按 JSON 存取。load 返回 nil 不写缓存；
// 缓存里的内容解不开（结构变了）就删掉重新回源。
func GetOrLoadJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil || v == nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil || b == nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		c.Invalidate(ctx, key)
		return load(ctx)
	}
	return &out, nil
}
