package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sharedhome/backend/config"
)

// Client Redis 客户端封装
// 当前用于值班表自动续排的节流：多个成员同时打开页面时只触发一次续排
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return NewFromClient(rdb, logger), nil
}

// NewFromClient 包装已有的 go-redis 客户端
func NewFromClient(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── 续排节流 ──

const throttlePrefix = "roster:throttle:"

// Allow 在 ttl 窗口内对同一 key 只放行一次（SET NX）
func (c *Client) Allow(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	ok, err := c.rdb.SetNX(ctx, throttlePrefix+key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Reset 清除节流标记（强制续排或修复后使用）
func (c *Client) Reset(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, throttlePrefix+key).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
