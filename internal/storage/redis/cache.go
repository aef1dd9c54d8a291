package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"filebox/backend/internal/config"
	"filebox/backend/internal/domain"
	"filebox/backend/internal/storage"
)

const (
	fileKeyPrefix = "file:"
	listKey       = "files:all"
)

// Cache 是 FileRepository 的 Redis 读缓存装饰器。
//
// 点查和列表读取命中缓存时不触达底层存储；任何变更（Append/Delete）
// 都会先落到底层存储，成功后再使相关缓存键失效。缓存层故障只记录
// 日志并回退到底层存储，不影响正确性。
type Cache struct {
	inner storage.FileRepository
	rdb   *goredis.Client
	ttl   time.Duration
	log   *zap.Logger
}

// NewCache 创建 Redis 缓存装饰器并验证连接
func NewCache(inner storage.FileRepository, cfg *config.RedisConfig, log *zap.Logger) (*Cache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("connected to Redis",
		zap.String("address", cfg.Address),
		zap.Int("db", cfg.DB),
	)

	return &Cache{
		inner: inner,
		rdb:   rdb,
		ttl:   cfg.TTL,
		log:   log,
	}, nil
}

// Append 写入底层存储并使列表缓存失效
func (c *Cache) Append(in domain.NewFileInput) (*domain.File, error) {
	file, err := c.inner.Append(in)
	if err != nil {
		return nil, err
	}
	c.invalidate(file.ID)
	return file, nil
}

// GetAll 优先读取缓存的整集合快照
func (c *Cache) GetAll() ([]domain.File, error) {
	ctx := context.Background()

	if data, err := c.rdb.Get(ctx, listKey).Result(); err == nil {
		var files []domain.File
		if err := json.Unmarshal([]byte(data), &files); err == nil {
			return files, nil
		}
	}

	files, err := c.inner.GetAll()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(files); err == nil {
		if err := c.rdb.Set(ctx, listKey, data, c.ttl).Err(); err != nil {
			c.log.Warn("failed to cache file list", zap.Error(err))
		}
	}

	return files, nil
}

// GetByID 优先读取缓存的单条记录
func (c *Cache) GetByID(id string) (*domain.File, error) {
	ctx := context.Background()
	key := fileKeyPrefix + id

	if data, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var file domain.File
		if err := json.Unmarshal([]byte(data), &file); err == nil {
			return &file, nil
		}
	}

	file, err := c.inner.GetByID(id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(file); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("failed to cache file", zap.String("id", id), zap.Error(err))
		}
	}

	return file, nil
}

// DeleteByID 删除底层记录并使相关缓存键失效
func (c *Cache) DeleteByID(id string) (bool, error) {
	removed, err := c.inner.DeleteByID(id)
	if err != nil {
		return false, err
	}
	if removed {
		c.invalidate(id)
	}
	return removed, nil
}

// Health 同时检查缓存连接和底层存储
func (c *Cache) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}
	return c.inner.Health()
}

// Close 关闭缓存连接和底层存储
func (c *Cache) Close() error {
	if err := c.rdb.Close(); err != nil {
		c.log.Error("failed to close Redis connection", zap.Error(err))
	}
	return c.inner.Close()
}

// invalidate 删除单条缓存和列表缓存
func (c *Cache) invalidate(id string) {
	ctx := context.Background()
	if err := c.rdb.Del(ctx, fileKeyPrefix+id, listKey).Err(); err != nil {
		c.log.Warn("failed to invalidate cache", zap.String("id", id), zap.Error(err))
	}
}
