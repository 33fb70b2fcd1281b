package app

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sharedhome/backend/config"
	"sharedhome/backend/internal/repository"
	"sharedhome/backend/internal/service"
	"sharedhome/backend/pkg/database"
	"sharedhome/backend/pkg/redis"
)

// App 进程级依赖：存储、Redis、Service 聚合
// server 与 rosterctl 共用同一套装配
type App struct {
	Config  *config.Config
	Repo    *repository.Repository
	Service *service.Service

	db  *gorm.DB
	rdb *redis.Client
}

// New 按配置装配依赖: Store → Repository → Service
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg}

	// 1. 数据存储
	switch cfg.Store.Driver {
	case "memory":
		logger.Warn("使用内存存储，进程退出后数据丢失")
		a.Repo = repository.NewRepositoryWithStore(
			repository.WithTimeout(repository.NewMemoryStore(), cfg.Roster.StoreTimeout),
		)
	default:
		db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
		if err != nil {
			return nil, fmt.Errorf("数据库连接失败: %w", err)
		}
		a.db = db
		logger.Info("数据库连接成功")

		sqlDB, err := db.DB()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
		a.Repo = repository.NewRepository(db, cfg.Roster.StoreTimeout)
	}

	// 2. Redis（可选：连接失败时降级运行，续排不节流）
	var throttle service.ExtendThrottle
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，续排节流将不可用", zap.Error(err))
		} else {
			a.rdb = rdb
			throttle = rdb
		}
	}

	// 3. Service 聚合
	a.Service = service.NewService(cfg, a.Repo, throttle, logger)
	return a, nil
}

// Close 释放数据库与 Redis 连接
func (a *App) Close() {
	if a.db != nil {
		if sqlDB, _ := a.db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	}
	if a.rdb != nil {
		a.rdb.Close()
	}
}
