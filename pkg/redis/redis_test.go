package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sharedhome/backend/config"
)

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient(&config.RedisConfig{Addr: "127.0.0.1:1"}, zap.NewNop())
	if err == nil {
		t.Fatal("期望连接失败")
	}
}

// ttl<=0 表示不节流，不访问 Redis
func TestAllow_ZeroTTL(t *testing.T) {
	c := NewFromClient(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}), zap.NewNop())
	defer c.Close()

	ok, err := c.Allow(context.Background(), "extend:2025-10", 0)
	if err != nil || !ok {
		t.Errorf("ttl=0 应直接放行，实际: %v %v", ok, err)
	}
}

func TestAllow_Unreachable(t *testing.T) {
	c := NewFromClient(goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}), zap.NewNop())
	defer c.Close()

	ok, err := c.Allow(context.Background(), "extend:2025-10", time.Minute)
	if err == nil || ok {
		t.Errorf("Redis 不可用时应返回错误，实际: %v %v", ok, err)
	}
}
