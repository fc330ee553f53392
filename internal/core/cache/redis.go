package cache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var lookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "cache_lookups_total", Help: "Redis cache lookups by result"},
	[]string{"result"},
)

func init() { prometheus.MustRegister(lookups) }

type Options struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string // 多个服务共用一个 Redis 时区分 key
	DialTimeout time.Duration
}

// Cache Redis 读穿缓存。Redis 故障只影响速度，不影响结果。
type Cache struct {
	rdb    *redis.Client
	prefix string
	sf     singleflight.Group
}

func New(o Options) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr:        o.Addr,
		Password:    o.Password,
		DB:          o.DB,
		DialTimeout: o.DialTimeout,
	}), o.Prefix)
}

func NewWithClient(rdb *redis.Client, prefix string) *Cache {
	return &Cache{rdb: rdb, prefix: prefix}
}

func (c *Cache) key(k string) string { return c.prefix + k }

func (c *Cache) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *Cache) Close() error { return c.rdb.Close() }

// GetOrLoad 未命中或 Redis 出错都回源；同一 key 的并发回源合并成一次。
// load 返回 (nil, nil) 表示没有值，不写缓存。
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	k := c.key(key)
	b, err := c.rdb.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		lookups.WithLabelValues("hit").Inc()
		return b, nil
	case errors.Is(err, redis.Nil):
		lookups.WithLabelValues("miss").Inc()
	default:
		lookups.WithLabelValues("error").Inc()
	}

	v, err, _ := c.sf.Do(k, func() (any, error) {
		b, err := load(ctx)
		if err != nil || b == nil {
			return nil, err
		}
		_ = c.rdb.Set(ctx, k, b, ttl).Err()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	out, _ := v.([]byte)
	return out, nil
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		lookups.WithLabelValues("error").Inc()
	}
}
