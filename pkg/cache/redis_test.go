package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func unreachableRedis() *RedisCache {
	return NewRedisCacheFromClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}))
}

func TestRedisCacheClearNeedsPrefix(t *testing.T) {
	c := unreachableRedis()
	defer c.Close()

	if n, err := c.Clear(context.Background(), ""); err == nil || n != 0 {
		t.Errorf("Clear(\"\") = (%d, %v), want refusal", n, err)
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	c := unreachableRedis()
	defer c.Close()

	data, hit, err := c.Get(context.Background(), "mapabo:layer:x")
	if err == nil {
		t.Fatal("Get on unreachable server should fail")
	}
	if hit || data != nil {
		t.Errorf("Get = (%q, %v), want miss", data, hit)
	}

	if _, err := NewRedisCache(context.Background(), "127.0.0.1:1", "", 0); err == nil {
		t.Error("NewRedisCache should fail its PING")
	}
}
