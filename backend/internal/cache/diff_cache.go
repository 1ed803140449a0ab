package cache

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	BaseTTL = 10 * time.Minute // 基础过期时间
	Jitter  = 2 * time.Minute  // 随机抖动范围
)

// RedisDiffCache 缓存差分结果。Diff 是纯函数，同样的输入永远得到同样的输出，
// 所以结果可以放心复用，只靠 TTL 回收。
type RedisDiffCache struct {
	rdb     redis.UniversalClient
	sf      singleflight.Group
	baseTTL time.Duration
	jitter  time.Duration
}

// NewRedisDiffCache 的 baseTTL 为 0 时使用 BaseTTL；jitter 为负数时不加抖动。
func NewRedisDiffCache(rdb redis.UniversalClient, baseTTL, jitter time.Duration) *RedisDiffCache {
	if baseTTL <= 0 {
		baseTTL = BaseTTL
	}
	if jitter < 0 {
		jitter = 0
	}
	return &RedisDiffCache{rdb: rdb, baseTTL: baseTTL, jitter: jitter}
}

// 获取随机TTL，防止大量 key 同时过期
func (c *RedisDiffCache) randomTTL() time.Duration {
	if c.jitter == 0 {
		return c.baseTTL
	}
	return c.baseTTL + time.Duration(rand.Int63n(int64(c.jitter)))
}

func (c *RedisDiffCache) readCache(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return res, true, nil
}

func (c *RedisDiffCache) writeCache(ctx context.Context, key string, val []byte) error {
	return c.rdb.Set(ctx, key, val, c.randomTTL()).Err()
}

// GetWithProtection 先读缓存，未命中时调用 compute 并回填。
// 相同 key 的并发请求只会计算一次；Redis 出错只记日志，不影响返回结果。
func (c *RedisDiffCache) GetWithProtection(
	ctx context.Context,
	key string,
	compute func() ([]byte, error),
) ([]byte, error) {
	val, err, _ := c.sf.Do(key, func() (interface{}, error) {
		v, hit, err := c.readCache(ctx, key)
		if err != nil {
			log.Printf("diff cache: read %s failed: %v", key, err)
		}
		if hit {
			return v, nil
		}

		v, err = compute()
		if err != nil {
			return nil, err
		}
		if err := c.writeCache(ctx, key, v); err != nil {
			log.Printf("diff cache: write %s failed: %v", key, err)
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	// 使用断言确保不会panic
	if v, ok := val.([]byte); ok {
		return v, nil
	}
	return nil, errors.New("internal type error")
}
